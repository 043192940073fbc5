package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"amlak-system/internal/database/models"
)

var (
	ErrNonPositiveAmount = errors.New("collection amount must be greater than zero")
	ErrOverpayment       = errors.New("collection amount exceeds the remaining balance")
	ErrAlreadySettled    = errors.New("payment is already fully paid")
)

// settleEpsilon absorbs floating-point drift carried in from legacy rows:
// a remaining balance at or below it is treated as fully settled.
var settleEpsilon = decimal.NewFromFloat(0.01)

// ApplyCollection applies a collected amount to a payment's running balance
// and status. The payment is mutated only when the collection is accepted;
// rejected collections leave it untouched. Persisting the result is the
// caller's transaction.
func ApplyCollection(p *models.Payment, amount decimal.Decimal, method string, paidDate time.Time) error {
	if p.Status == models.PaymentStatusPaid {
		return ErrAlreadySettled
	}
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}

	total, err := decimal.NewFromString(p.Total)
	if err != nil {
		return err
	}
	paid, err := decimal.NewFromString(p.PaidAmount)
	if err != nil {
		paid = decimal.Zero
	}
	remaining, err := decimal.NewFromString(p.RemainingAmount)
	if err != nil {
		remaining = total.Sub(paid)
	}

	if amount.GreaterThan(remaining) {
		return ErrOverpayment
	}

	paid = paid.Add(amount)
	remaining = total.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	if remaining.LessThanOrEqual(settleEpsilon) {
		// Snap to the exact total so rounding drift never leaves a payment
		// almost-settled.
		paid = total
		remaining = decimal.Zero
		p.Status = models.PaymentStatusPaid
	} else {
		p.Status = models.PaymentStatusPartiallyPaid
	}

	p.PaidAmount = paid.StringFixed(2)
	p.RemainingAmount = remaining.StringFixed(2)
	p.PaymentMethod = &method
	p.PaidDate = &paidDate

	receipt := uuid.NewString()
	p.ReceiptRef = &receipt

	return nil
}
