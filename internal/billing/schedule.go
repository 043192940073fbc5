package billing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"amlak-system/config"
	"amlak-system/internal/database/models"
)

var (
	ErrInvalidRent      = errors.New("contract rent amount must be greater than zero")
	ErrInvalidTerm      = errors.New("contract end date must be at least one period after the start date")
	ErrUnknownFrequency = errors.New("unknown payment frequency")
)

// freqMonths maps a payment frequency to its step in months.
var freqMonths = map[string]int{
	models.PaymentFreqMonthly:    1,
	models.PaymentFreqQuarterly:  3,
	models.PaymentFreqSemiAnnual: 6,
	models.PaymentFreqAnnual:     12,
}

// FrequencyStep exposes the month step for a frequency, used by handlers to
// validate contract input before anything is written.
func FrequencyStep(freq string) (int, bool) {
	step, ok := freqMonths[freq]
	return step, ok
}

// GenerateSchedule amortizes a contract's annual rent into installments
// covering its term. The number of installments is the whole contract months
// divided by the frequency step; a trailing partial period is dropped, not
// prorated. Each installment's base is the annual rent scaled to the period
// length, VAT applied on top.
//
// assetTypes are the types of the assets owning the contract's linked units;
// the split policy uses them to decide beneficiary attribution. Generation is
// not idempotent: callers must check that the contract has no payments yet.
func GenerateSchedule(contract *models.Contract, assetTypes []string, split config.RevenueSplitConfig) ([]models.Payment, error) {
	step, ok := freqMonths[contract.PaymentFreq]
	if !ok {
		return nil, ErrUnknownFrequency
	}

	rent, err := decimal.NewFromString(contract.RentAmount)
	if err != nil || !rent.IsPositive() {
		return nil, ErrInvalidRent
	}

	totalMonths := (contract.EndDate.Year()-contract.StartDate.Year())*12 +
		int(contract.EndDate.Month()) - int(contract.StartDate.Month())
	count := totalMonths / step
	if count < 1 {
		return nil, ErrInvalidTerm
	}

	vatRate, err := decimal.NewFromString(contract.VATRate)
	if err != nil || vatRate.IsNegative() {
		vatRate = decimal.Zero
	}
	// Rates entered as whole percentages (15 instead of 0.15) are normalized.
	if vatRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		vatRate = vatRate.Div(decimal.NewFromInt(100))
	}

	periodsPerYear := int64(12 / step)
	base := rent.Div(decimal.NewFromInt(periodsPerYear)).Round(2)
	vat := base.Mul(vatRate).Round(2)
	total := base.Add(vat)

	splitApplies := split.Enabled && containsType(assetTypes, split.AssetType)

	payments := make([]models.Payment, 0, count)
	for i := 0; i < count; i++ {
		due := contract.StartDate
		if i > 0 {
			due = addMonthsClamped(contract.StartDate, i*step)
		}

		beneficiary := split.Default
		if splitApplies {
			beneficiary = split.BeneficiaryBefore
			if onOrAfterCutover(due, split.CutoverMonth, split.CutoverDay) {
				beneficiary = split.BeneficiaryAfter
			}
		}

		payments = append(payments, models.Payment{
			ContractID:      contract.ID,
			PaymentNumber:   int32(i + 1),
			DueDate:         due,
			Amount:          base.StringFixed(2),
			VAT:             vat.StringFixed(2),
			Total:           total.StringFixed(2),
			PaidAmount:      "0.00",
			RemainingAmount: total.StringFixed(2),
			Status:          models.PaymentStatusDue,
			Beneficiary:     &beneficiary,
		})
	}

	return payments, nil
}

// addMonthsClamped advances a date by whole months, clamping the day of
// month to 28 so rollovers never land on an invalid calendar date. Exact
// day-of-month above 28 is deliberately not preserved.
func addMonthsClamped(start time.Time, months int) time.Time {
	day := start.Day()
	if day > 28 {
		day = 28
	}

	total := int(start.Month()) - 1 + months
	year := start.Year() + total/12
	month := time.Month(total%12 + 1)

	return time.Date(year, month, day, 0, 0, 0, 0, start.Location())
}

func onOrAfterCutover(due time.Time, month, day int) bool {
	if int(due.Month()) != month {
		return int(due.Month()) > month
	}
	return due.Day() >= day
}

func containsType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}
