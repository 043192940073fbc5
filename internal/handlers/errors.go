package handlers

import "errors"

// Sentinel guard errors surfaced from mutation transactions so HTTP handlers
// can map them to the right status codes. Every guard is re-checked inside
// the transaction, not only at read time.
var (
	errDuplicateName              = errors.New("duplicate name")
	errDuplicateNumber            = errors.New("duplicate number")
	errReferencedByActiveContract = errors.New("referenced by an active contract")
	errHasUnits                   = errors.New("asset still owns units")
	errHasHistory                 = errors.New("cancelled-contract history present")
	errUnitUnavailable            = errors.New("unit is not available for lease")
	errUnitRented                 = errors.New("unit status is contract-driven while rented")
	errNotActive                  = errors.New("contract is not active")
	errScheduleExists             = errors.New("payments already generated for this contract")
	errConcurrentUpdate           = errors.New("payment was modified concurrently")
)
