package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amlak-system/internal/database/models"
)

func duePayment(total string) *models.Payment {
	return &models.Payment{
		ID:              1,
		ContractID:      1,
		PaymentNumber:   1,
		DueDate:         date(2024, time.January, 1),
		Amount:          total,
		VAT:             "0.00",
		Total:           total,
		PaidAmount:      "0.00",
		RemainingAmount: total,
		Status:          models.PaymentStatusDue,
	}
}

func TestApplyCollection_PartialThenFull(t *testing.T) {
	p := duePayment("11500.00")

	err := ApplyCollection(p, decimal.NewFromInt(5000), "bank_transfer", date(2024, time.January, 10))
	require.NoError(t, err)
	assert.Equal(t, "5000.00", p.PaidAmount)
	assert.Equal(t, "6500.00", p.RemainingAmount)
	assert.Equal(t, models.PaymentStatusPartiallyPaid, p.Status)
	require.NotNil(t, p.PaidDate)
	require.NotNil(t, p.PaymentMethod)
	assert.Equal(t, "bank_transfer", *p.PaymentMethod)
	require.NotNil(t, p.ReceiptRef)
	assert.NotEmpty(t, *p.ReceiptRef)

	err = ApplyCollection(p, decimal.NewFromInt(6500), "cash", date(2024, time.February, 1))
	require.NoError(t, err)
	assert.Equal(t, "11500.00", p.PaidAmount)
	assert.Equal(t, "0.00", p.RemainingAmount)
	assert.Equal(t, models.PaymentStatusPaid, p.Status)
	assert.Equal(t, "cash", *p.PaymentMethod)
}

func TestApplyCollection_BalanceInvariant(t *testing.T) {
	p := duePayment("10350.00")

	amounts := []string{"1000", "2500.50", "0.01", "4000"}
	for _, a := range amounts {
		err := ApplyCollection(p, decimal.RequireFromString(a), "cash", date(2024, time.March, 1))
		require.NoError(t, err)

		paid := decimal.RequireFromString(p.PaidAmount)
		remaining := decimal.RequireFromString(p.RemainingAmount)
		total := decimal.RequireFromString(p.Total)
		assert.True(t, paid.Add(remaining).Sub(total).Abs().LessThanOrEqual(decimal.NewFromFloat(0.01)),
			"paid %s + remaining %s must equal total %s", paid, remaining, total)
	}
}

func TestApplyCollection_RejectsOverpayment(t *testing.T) {
	p := duePayment("11500.00")

	err := ApplyCollection(p, decimal.NewFromInt(12000), "cash", date(2024, time.January, 10))
	assert.ErrorIs(t, err, ErrOverpayment)

	// Rejected collections must not mutate the payment.
	assert.Equal(t, "0.00", p.PaidAmount)
	assert.Equal(t, "11500.00", p.RemainingAmount)
	assert.Equal(t, models.PaymentStatusDue, p.Status)
	assert.Nil(t, p.PaidDate)
	assert.Nil(t, p.PaymentMethod)
	assert.Nil(t, p.ReceiptRef)
}

func TestApplyCollection_RejectsNonPositiveAmount(t *testing.T) {
	p := duePayment("11500.00")

	err := ApplyCollection(p, decimal.Zero, "cash", date(2024, time.January, 10))
	assert.ErrorIs(t, err, ErrNonPositiveAmount)

	err = ApplyCollection(p, decimal.NewFromInt(-50), "cash", date(2024, time.January, 10))
	assert.ErrorIs(t, err, ErrNonPositiveAmount)

	assert.Equal(t, models.PaymentStatusDue, p.Status)
}

func TestApplyCollection_RejectsSettledPayment(t *testing.T) {
	p := duePayment("500.00")
	require.NoError(t, ApplyCollection(p, decimal.NewFromInt(500), "cash", date(2024, time.January, 10)))
	require.Equal(t, models.PaymentStatusPaid, p.Status)

	err := ApplyCollection(p, decimal.NewFromInt(1), "cash", date(2024, time.January, 11))
	assert.ErrorIs(t, err, ErrAlreadySettled)
}

func TestApplyCollection_EpsilonRemainderSnapsToSettled(t *testing.T) {
	p := duePayment("100.00")

	err := ApplyCollection(p, decimal.RequireFromString("99.99"), "cheque", date(2024, time.April, 1))
	require.NoError(t, err)

	// The 0.01 remainder is within tolerance: the payment snaps to exactly
	// settled rather than lingering almost-paid.
	assert.Equal(t, "100.00", p.PaidAmount)
	assert.Equal(t, "0.00", p.RemainingAmount)
	assert.Equal(t, models.PaymentStatusPaid, p.Status)
}
