package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"amlak-system/internal/database/models"
)

func seedActiveContract(t *testing.T, db *gorm.DB, r *gin.Engine, number string) models.Contract {
	t.Helper()
	asset := seedAsset(t, db, "Asset "+number, models.AssetTypeBuilding)
	unit := seedUnit(t, db, asset.ID, "U-"+number)
	tenant := seedTenant(t, db, "Tenant "+number)

	w := doJSON(r, http.MethodPost, "/contracts", createContractBody(number, tenant.ID, unit.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var contract models.Contract
	require.NoError(t, db.Where("contract_number = ?", number).First(&contract).Error)
	return contract
}

func TestCollectPaymentPartialThenFull(t *testing.T) {
	db := setupDB(t)
	r := newTestRouter(db)

	contract := seedActiveContract(t, db, r, "C-PAY-001")

	var first models.Payment
	require.NoError(t, db.Where("contract_id = ?", contract.ID).Order("payment_number").First(&first).Error)
	assertMoney(t, "11500.00", first.Total)

	w := doJSON(r, http.MethodPost, "/payments/"+itoa(first.ID)+"/collect", `{"amount": "5000", "method": "cash"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, db.First(&first, first.ID).Error)
	assert.Equal(t, models.PaymentStatusPartiallyPaid, first.Status)
	assertMoney(t, "5000.00", first.PaidAmount)
	assertMoney(t, "6500.00", first.RemainingAmount)
	require.NotNil(t, first.PaymentMethod)
	assert.Equal(t, "cash", *first.PaymentMethod)
	assert.NotNil(t, first.ReceiptRef)

	w = doJSON(r, http.MethodPost, "/payments/"+itoa(first.ID)+"/collect", `{"amount": "6500", "method": "bank_transfer"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, db.First(&first, first.ID).Error)
	assert.Equal(t, models.PaymentStatusPaid, first.Status)
	assertMoney(t, "11500.00", first.PaidAmount)
	assertMoney(t, "0.00", first.RemainingAmount)
	assert.NotNil(t, first.PaidDate)
}

func TestCollectPaymentRejectsOverpayment(t *testing.T) {
	db := setupDB(t)
	r := newTestRouter(db)

	contract := seedActiveContract(t, db, r, "C-PAY-002")

	var first models.Payment
	require.NoError(t, db.Where("contract_id = ?", contract.ID).Order("payment_number").First(&first).Error)

	w := doJSON(r, http.MethodPost, "/payments/"+itoa(first.ID)+"/collect", `{"amount": "99999", "method": "cash"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Rejected collections leave the row untouched.
	var reloaded models.Payment
	require.NoError(t, db.First(&reloaded, first.ID).Error)
	assert.Equal(t, models.PaymentStatusDue, reloaded.Status)
	assertMoney(t, "0.00", reloaded.PaidAmount)
	assert.Nil(t, reloaded.ReceiptRef)
}

func TestCollectPaymentRejectsInvalidRequests(t *testing.T) {
	db := setupDB(t)
	r := newTestRouter(db)

	contract := seedActiveContract(t, db, r, "C-PAY-003")

	var first models.Payment
	require.NoError(t, db.Where("contract_id = ?", contract.ID).Order("payment_number").First(&first).Error)

	w := doJSON(r, http.MethodPost, "/payments/"+itoa(first.ID)+"/collect", `{"amount": "-10", "method": "cash"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/payments/"+itoa(first.ID)+"/collect", `{"amount": "100", "method": "paypal"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/payments/999999/collect", `{"amount": "100", "method": "cash"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCollectPaymentRejectedOnCancelledContract(t *testing.T) {
	db := setupDB(t)
	r := newTestRouter(db)

	contract := seedActiveContract(t, db, r, "C-PAY-004")

	var first models.Payment
	require.NoError(t, db.Where("contract_id = ?", contract.ID).Order("payment_number").First(&first).Error)

	// Settle the first installment so it survives cancellation.
	w := doJSON(r, http.MethodPost, "/payments/"+itoa(first.ID)+"/collect", `{"amount": "11500", "method": "cheque"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/contracts/"+itoa(contract.ID)+"/cancel", `{"reason": "unit_vacated"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/payments/"+itoa(first.ID)+"/collect", `{"amount": "100", "method": "cash"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCollectPaymentRejectsSettledInstallment(t *testing.T) {
	db := setupDB(t)
	r := newTestRouter(db)

	contract := seedActiveContract(t, db, r, "C-PAY-005")

	var first models.Payment
	require.NoError(t, db.Where("contract_id = ?", contract.ID).Order("payment_number").First(&first).Error)

	w := doJSON(r, http.MethodPost, "/payments/"+itoa(first.ID)+"/collect", `{"amount": "11500", "method": "ejar_platform"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/payments/"+itoa(first.ID)+"/collect", `{"amount": "1", "method": "cash"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListContractPaymentsTotalsBalance(t *testing.T) {
	db := setupDB(t)
	r := newTestRouter(db)

	contract := seedActiveContract(t, db, r, "C-PAY-006")

	var first models.Payment
	require.NoError(t, db.Where("contract_id = ?", contract.ID).Order("payment_number").First(&first).Error)
	w := doJSON(r, http.MethodPost, "/payments/"+itoa(first.ID)+"/collect", `{"amount": "2000", "method": "cash"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/contracts/"+itoa(contract.ID)+"/payments", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"total":"46000.00"`)
	assert.Contains(t, body, `"collected":"2000.00"`)
	assert.Contains(t, body, `"remaining":"44000.00"`)
}
