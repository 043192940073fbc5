package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"amlak-system/internal/database/models"
)

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func seedContract(t *testing.T, db *gorm.DB, number string, tenantID int64, status string) models.Contract {
	t.Helper()
	today := startOfToday()
	contract := models.Contract{
		ContractNumber: number,
		TenantID:       tenantID,
		ContractType:   models.ContractTypeCommercial,
		RentAmount:     "40000.00",
		PaymentFreq:    models.PaymentFreqQuarterly,
		StartDate:      today.AddDate(-1, 0, 0),
		EndDate:        today.AddDate(1, 0, 0),
		VATRate:        "0.15",
		Status:         status,
	}
	require.NoError(t, db.Create(&contract).Error)
	return contract
}

func seedPayment(t *testing.T, db *gorm.DB, contractID int64, n int32, due time.Time, total, paid, remaining, status string) models.Payment {
	t.Helper()
	p := models.Payment{
		ContractID:      contractID,
		PaymentNumber:   n,
		DueDate:         due,
		Amount:          total,
		VAT:             "0.00",
		Total:           total,
		PaidAmount:      paid,
		RemainingAmount: remaining,
		Status:          status,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

// An installment due today is upcoming, not overdue; overdue starts strictly
// before today's midnight.
func TestOverdueReportDateBoundary(t *testing.T) {
	db := setupDB(t)
	r := newTestRouter(db)
	today := startOfToday()

	tenant := seedTenant(t, db, "Boundary Tenant")
	active := seedContract(t, db, "C-RPT-001", tenant.ID, models.ContractStatusActive)
	seedPayment(t, db, active.ID, 1, today.AddDate(0, 0, -1), "1000.00", "400.00", "600.00", models.PaymentStatusPartiallyPaid)
	seedPayment(t, db, active.ID, 2, today, "1000.00", "0.00", "1000.00", models.PaymentStatusDue)
	seedPayment(t, db, active.ID, 3, today.AddDate(0, 0, -10), "500.00", "500.00", "0.00", models.PaymentStatusPaid)

	cancelled := seedContract(t, db, "C-RPT-002", tenant.ID, models.ContractStatusCancelled)
	seedPayment(t, db, cancelled.ID, 1, today.AddDate(0, 0, -7), "900.00", "0.00", "900.00", models.PaymentStatusDue)

	w := doJSON(r, http.MethodGet, "/reports/overdue", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []OverdueRow `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "C-RPT-001", resp.Data[0].ContractNumber)
	assertMoney(t, "600.00", resp.Data[0].RemainingAmount)
}

func TestDashboardStatsOverdueBoundaryAndRemainingSums(t *testing.T) {
	db := setupDB(t)
	r := newTestRouter(db)
	today := startOfToday()

	tenant := seedTenant(t, db, "Stats Tenant")
	contract := seedContract(t, db, "C-RPT-010", tenant.ID, models.ContractStatusActive)
	seedPayment(t, db, contract.ID, 1, today.AddDate(0, 0, -1), "1000.00", "400.00", "600.00", models.PaymentStatusPartiallyPaid)
	seedPayment(t, db, contract.ID, 2, today, "1000.00", "0.00", "1000.00", models.PaymentStatusDue)
	seedPayment(t, db, contract.ID, 3, today.AddDate(0, 0, -10), "500.00", "500.00", "0.00", models.PaymentStatusPaid)

	w := doJSON(r, http.MethodGet, "/dashboard/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data DashboardStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// Only the yesterday installment is overdue, counted by its remaining
	// balance rather than its total.
	assert.EqualValues(t, 1, resp.Data.OverdueCount)
	assert.InDelta(t, 600, resp.Data.OverdueAmount, 0.001)
	assert.InDelta(t, 500, resp.Data.CollectedIncome, 0.001)
}

func TestDashboardAlertsIncludePaymentDueToday(t *testing.T) {
	db := setupDB(t)
	r := newTestRouter(db)
	today := startOfToday()

	tenant := seedTenant(t, db, "Alerts Tenant")
	contract := seedContract(t, db, "C-RPT-020", tenant.ID, models.ContractStatusActive)
	seedPayment(t, db, contract.ID, 1, today, "1000.00", "0.00", "1000.00", models.PaymentStatusDue)
	seedPayment(t, db, contract.ID, 2, today.AddDate(0, 0, 45), "1000.00", "0.00", "1000.00", models.PaymentStatusDue)

	w := doJSON(r, http.MethodGet, "/dashboard/alerts", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data DashboardAlerts `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Len(t, resp.Data.UpcomingPayments, 1)
	assert.Equal(t, "C-RPT-020", resp.Data.UpcomingPayments[0].ContractNumber)
	assert.Equal(t, 0, resp.Data.UpcomingPayments[0].DaysUntilDue)
}

func TestFinancialLedgerFilters(t *testing.T) {
	db := setupDB(t)
	r := newTestRouter(db)
	today := startOfToday()

	assetA := seedAsset(t, db, "Ledger Tower", models.AssetTypeBuilding)
	unitA := seedUnit(t, db, assetA.ID, "LT-1")
	assetB := seedAsset(t, db, "Ledger Warehouse", models.AssetTypeWarehouse)
	unitB := seedUnit(t, db, assetB.ID, "LW-1")
	tenant := seedTenant(t, db, "Ledger Tenant")

	c1 := seedContract(t, db, "C-RPT-030", tenant.ID, models.ContractStatusActive)
	require.NoError(t, db.Create(&models.ContractUnit{ContractID: c1.ID, UnitID: unitA.ID}).Error)
	seedPayment(t, db, c1.ID, 1, today.AddDate(0, -3, 0), "500.00", "500.00", "0.00", models.PaymentStatusPaid)
	seedPayment(t, db, c1.ID, 2, today, "500.00", "0.00", "500.00", models.PaymentStatusDue)

	c2 := seedContract(t, db, "C-RPT-031", tenant.ID, models.ContractStatusActive)
	require.NoError(t, db.Create(&models.ContractUnit{ContractID: c2.ID, UnitID: unitB.ID}).Error)
	seedPayment(t, db, c2.ID, 1, today.AddDate(0, 1, 0), "700.00", "0.00", "700.00", models.PaymentStatusDue)

	var resp struct {
		Data []LedgerRow `json:"data"`
	}

	w := doJSON(r, http.MethodGet, "/reports/ledger", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	for _, row := range resp.Data {
		assert.NotEmpty(t, row.AssetName, "contract %s", row.ContractNumber)
	}

	w = doJSON(r, http.MethodGet, "/reports/ledger?status=paid", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp.Data = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, models.PaymentStatusPaid, resp.Data[0].Status)

	w = doJSON(r, http.MethodGet, "/reports/ledger?asset_id="+itoa(assetB.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	resp.Data = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "C-RPT-031", resp.Data[0].ContractNumber)
	assert.Equal(t, "Ledger Warehouse", resp.Data[0].AssetName)

	w = doJSON(r, http.MethodGet, "/reports/ledger?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp.Data = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
}

func TestOverdueCSVRowShape(t *testing.T) {
	db := setupDB(t)
	r := newTestRouter(db)
	today := startOfToday()

	tenant := seedTenant(t, db, "CSV Tenant")
	contract := seedContract(t, db, "C-RPT-040", tenant.ID, models.ContractStatusActive)
	seedPayment(t, db, contract.ID, 1, today.AddDate(0, 0, -3), "800.00", "0.00", "800.00", models.PaymentStatusDue)

	w := doJSON(r, http.MethodGet, "/reports/overdue/csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "tenant,phone,contract_number,due_date,remaining,method", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "CSV Tenant")
	assert.Contains(t, lines[1], "C-RPT-040")
}
