package handlers

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"amlak-system/config"
	"amlak-system/internal/database/models"
	"amlak-system/internal/middleware"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Asset{},
		&models.Unit{},
		&models.Tenant{},
		&models.Contract{},
		&models.ContractUnit{},
		&models.Payment{},
	))
	return db
}

func testSplit() config.RevenueSplitConfig {
	return config.RevenueSplitConfig{
		Enabled:           true,
		AssetType:         models.AssetTypeFuelStation,
		CutoverMonth:      8,
		CutoverDay:        1,
		BeneficiaryBefore: "association",
		BeneficiaryAfter:  "investor",
		Default:           "association",
	}
}

// newTestRouter wires the handlers under test directly, with a stub auth
// middleware standing in for JWT parsing.
func newTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUsername, "testadmin")
		c.Set(middleware.ContextRole, models.RoleAdmin)
	})

	contractHandler := NewContractHandler(db, nil, testSplit())
	paymentHandler := NewPaymentHandler(db, nil)
	tenantHandler := NewTenantHandler(db, nil)
	assetHandler := NewAssetHandler(db, nil)
	unitHandler := NewUnitHandler(db, nil)
	reportHandler := NewReportHandler(db)
	dashboardHandler := NewDashboardHandler(db, nil)

	r.POST("/contracts", contractHandler.CreateContract)
	r.GET("/contracts/:id", contractHandler.GetContract)
	r.POST("/contracts/:id/cancel", contractHandler.CancelContract)
	r.POST("/contracts/:id/payments/generate", contractHandler.GeneratePayments)
	r.GET("/contracts/:id/payments", paymentHandler.ListContractPayments)
	r.POST("/payments/:id/collect", paymentHandler.CollectPayment)
	r.PUT("/tenants/:id", tenantHandler.UpdateTenant)
	r.DELETE("/tenants/:id", tenantHandler.DeleteTenant)
	r.PUT("/assets/:id", assetHandler.UpdateAsset)
	r.DELETE("/assets/:id", assetHandler.DeleteAsset)
	r.PUT("/units/:id", unitHandler.UpdateUnit)
	r.DELETE("/units/:id", unitHandler.DeleteUnit)
	r.GET("/reports/ledger", reportHandler.FinancialLedger)
	r.GET("/reports/ledger/csv", reportHandler.FinancialLedgerCSV)
	r.GET("/reports/overdue", reportHandler.OverduePayments)
	r.GET("/reports/overdue/csv", reportHandler.OverduePaymentsCSV)
	r.GET("/dashboard/stats", dashboardHandler.Stats)
	r.GET("/dashboard/alerts", dashboardHandler.Alerts)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedAsset(t *testing.T, db *gorm.DB, name, assetType string) models.Asset {
	t.Helper()
	asset := models.Asset{Name: name, Type: assetType}
	require.NoError(t, db.Create(&asset).Error)
	return asset
}

func seedUnit(t *testing.T, db *gorm.DB, assetID int64, number string) models.Unit {
	t.Helper()
	unit := models.Unit{
		AssetID:    assetID,
		UnitNumber: number,
		UsageType:  models.UnitUsageCommercial,
		Status:     models.UnitStatusVacant,
	}
	require.NoError(t, db.Create(&unit).Error)
	return unit
}

func seedTenant(t *testing.T, db *gorm.DB, name string) models.Tenant {
	t.Helper()
	tenant := models.Tenant{Name: name}
	require.NoError(t, db.Create(&tenant).Error)
	return tenant
}

func itoa(id int64) string {
	return fmt.Sprintf("%d", id)
}

// assertMoney compares decimal columns by value; drivers differ in how much
// trailing scale they hand back.
func assertMoney(t *testing.T, want, got string) {
	t.Helper()
	w := decimal.RequireFromString(want)
	g, err := decimal.NewFromString(got)
	require.NoError(t, err, "money value %q", got)
	assert.True(t, w.Equal(g), "want %s, got %s", want, got)
}

func createContractBody(number string, tenantID int64, unitIDs ...int64) string {
	ids := make([]string, len(unitIDs))
	for i, id := range unitIDs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf(`{
		"contract_number": %q,
		"tenant_id": %d,
		"contract_type": "commercial",
		"rent_amount": "40000",
		"payment_freq": "quarterly",
		"start_date": "2024-01-01",
		"duration_years": 1,
		"unit_ids": [%s]
	}`, number, tenantID, strings.Join(ids, ","))
}
