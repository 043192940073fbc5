package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"amlak-system/internal/database/models"
)

type ReportHandler struct {
	db *gorm.DB
}

func NewReportHandler(db *gorm.DB) *ReportHandler {
	return &ReportHandler{db: db}
}

// LedgerRow is the financial ledger projection: one row per payment on an
// active contract, with its contract/tenant/asset context.
type LedgerRow struct {
	PaymentID       int64     `json:"payment_id"`
	ContractID      int64     `json:"contract_id"`
	ContractNumber  string    `json:"contract_number"`
	TenantName      string    `json:"tenant_name"`
	AssetName       string    `json:"asset_name" gorm:"-"`
	DueDate         time.Time `json:"due_date"`
	Amount          string    `json:"amount"`
	VAT             string    `json:"vat"`
	Total           string    `json:"total"`
	PaidAmount      string    `json:"paid_amount"`
	RemainingAmount string    `json:"remaining_amount"`
	Status          string    `json:"status"`
	Beneficiary     *string   `json:"beneficiary"`
	PaymentMethod   *string   `json:"payment_method"`
}

// OverdueRow is the overdue-payments projection used for collection
// follow-up calls.
type OverdueRow struct {
	TenantName      string    `json:"tenant_name"`
	Phone           *string   `json:"phone"`
	ContractNumber  string    `json:"contract_number"`
	DueDate         time.Time `json:"due_date"`
	RemainingAmount string    `json:"remaining_amount"`
	PaymentMethod   *string   `json:"payment_method"`
}

func (h *ReportHandler) ledgerRows(c *gin.Context) ([]LedgerRow, error) {
	limit := 1000
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 5000 {
			limit = n
		}
	}

	query := h.db.Table("payments").
		Select(`payments.id AS payment_id,
			contracts.id AS contract_id,
			contracts.contract_number AS contract_number,
			tenants.name AS tenant_name,
			payments.due_date AS due_date,
			payments.amount AS amount,
			payments.vat AS vat,
			payments.total AS total,
			payments.paid_amount AS paid_amount,
			payments.remaining_amount AS remaining_amount,
			payments.status AS status,
			payments.beneficiary AS beneficiary,
			payments.payment_method AS payment_method`).
		Joins("JOIN contracts ON contracts.id = payments.contract_id").
		Joins("JOIN tenants ON tenants.id = contracts.tenant_id").
		Where("contracts.status = ?", models.ContractStatusActive).
		Order("payments.due_date").
		Limit(limit)

	if status := c.Query("status"); status != "" {
		query = query.Where("payments.status = ?", status)
	}
	if assetID := c.Query("asset_id"); assetID != "" {
		query = query.Where(`EXISTS (
			SELECT 1 FROM contract_units cu
			JOIN units u ON u.id = cu.unit_id
			WHERE cu.contract_id = contracts.id AND u.asset_id = ?)`, assetID)
	}

	var rows []LedgerRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	if err := h.fillAssetNames(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// fillAssetNames resolves each contract's asset through its first linked
// unit. Contracts spanning multiple assets report the first one, matching
// the historical ledger layout.
func (h *ReportHandler) fillAssetNames(rows []LedgerRow) error {
	if len(rows) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(rows))
	seen := make(map[int64]bool)
	for _, r := range rows {
		if !seen[r.ContractID] {
			seen[r.ContractID] = true
			ids = append(ids, r.ContractID)
		}
	}

	type contractAsset struct {
		ContractID int64
		AssetName  string
	}
	var pairs []contractAsset
	if err := h.db.Table("contract_units").
		Select("contract_units.contract_id AS contract_id, assets.name AS asset_name").
		Joins("JOIN units ON units.id = contract_units.unit_id").
		Joins("JOIN assets ON assets.id = units.asset_id").
		Where("contract_units.contract_id IN ?", ids).
		Order("contract_units.unit_id").
		Scan(&pairs).Error; err != nil {
		return err
	}

	names := make(map[int64]string, len(pairs))
	for _, p := range pairs {
		if _, ok := names[p.ContractID]; !ok {
			names[p.ContractID] = p.AssetName
		}
	}
	for i := range rows {
		rows[i].AssetName = names[rows[i].ContractID]
	}
	return nil
}

func (h *ReportHandler) overdueRows() ([]OverdueRow, error) {
	// Due dates are stored at midnight; an installment due today is still
	// upcoming, not overdue.
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var rows []OverdueRow
	err := h.db.Table("payments").
		Select(`tenants.name AS tenant_name,
			tenants.phone AS phone,
			contracts.contract_number AS contract_number,
			payments.due_date AS due_date,
			payments.remaining_amount AS remaining_amount,
			payments.payment_method AS payment_method`).
		Joins("JOIN contracts ON contracts.id = payments.contract_id").
		Joins("JOIN tenants ON tenants.id = contracts.tenant_id").
		Where("contracts.status = ?", models.ContractStatusActive).
		Where("payments.status <> ?", models.PaymentStatusPaid).
		Where("payments.due_date < ?", today).
		Order("payments.due_date").
		Scan(&rows).Error
	return rows, err
}

func (h *ReportHandler) FinancialLedger(c *gin.Context) {
	rows, err := h.ledgerRows(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to build ledger report"))
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("ledger report built", rows, gin.H{"rows": len(rows)}))
}

func (h *ReportHandler) FinancialLedgerCSV(c *gin.Context) {
	rows, err := h.ledgerRows(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to build ledger report"))
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="financial_report.csv"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"payment_id", "contract_number", "tenant", "asset", "due_date", "amount", "vat", "total", "paid", "remaining", "status", "beneficiary", "method"})
	for _, r := range rows {
		_ = w.Write([]string{
			strconv.FormatInt(r.PaymentID, 10),
			r.ContractNumber,
			r.TenantName,
			r.AssetName,
			r.DueDate.Format(dateLayout),
			r.Amount,
			r.VAT,
			r.Total,
			r.PaidAmount,
			r.RemainingAmount,
			r.Status,
			strDeref(r.Beneficiary),
			strDeref(r.PaymentMethod),
		})
	}
	w.Flush()
}

func (h *ReportHandler) OverduePayments(c *gin.Context) {
	rows, err := h.overdueRows()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to build overdue report"))
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("overdue report built", rows, gin.H{"rows": len(rows)}))
}

func (h *ReportHandler) OverduePaymentsCSV(c *gin.Context) {
	rows, err := h.overdueRows()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to build overdue report"))
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="overdue_report.csv"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"tenant", "phone", "contract_number", "due_date", "remaining", "method"})
	for _, r := range rows {
		_ = w.Write([]string{
			r.TenantName,
			strDeref(r.Phone),
			r.ContractNumber,
			r.DueDate.Format(dateLayout),
			r.RemainingAmount,
			strDeref(r.PaymentMethod),
		})
	}
	w.Flush()
}

// TenantStatement lists every payment across a tenant's active contracts.
func (h *ReportHandler) TenantStatement(c *gin.Context) {
	tenantID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid tenant id"))
		return
	}

	var tenant models.Tenant
	if err := h.db.First(&tenant, tenantID).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("tenant not found"))
		return
	}

	var rows []LedgerRow
	if err := h.db.Table("payments").
		Select(`payments.id AS payment_id,
			contracts.id AS contract_id,
			contracts.contract_number AS contract_number,
			tenants.name AS tenant_name,
			payments.due_date AS due_date,
			payments.amount AS amount,
			payments.vat AS vat,
			payments.total AS total,
			payments.paid_amount AS paid_amount,
			payments.remaining_amount AS remaining_amount,
			payments.status AS status,
			payments.beneficiary AS beneficiary,
			payments.payment_method AS payment_method`).
		Joins("JOIN contracts ON contracts.id = payments.contract_id").
		Joins("JOIN tenants ON tenants.id = contracts.tenant_id").
		Where("contracts.tenant_id = ? AND contracts.status = ?", tenantID, models.ContractStatusActive).
		Order("contracts.id, payments.payment_number").
		Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to build tenant statement"))
		return
	}

	if err := h.fillAssetNames(rows); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to build tenant statement"))
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse(
		fmt.Sprintf("statement for %s", tenant.Name), rows, gin.H{"rows": len(rows)}))
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
