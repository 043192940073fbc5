package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"amlak-system/internal/database/models"
)

type DashboardHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewDashboardHandler(db *gorm.DB, redisClient *redis.Client) *DashboardHandler {
	return &DashboardHandler{db: db, redis: redisClient}
}

type DashboardStats struct {
	CollectedIncome float64 `json:"collected_income"`
	OverdueCount    int64   `json:"overdue_count"`
	OverdueAmount   float64 `json:"overdue_amount"`
	RentedUnits     int64   `json:"rented_units"`
	VacantUnits     int64   `json:"vacant_units"`
}

type UpcomingPayment struct {
	TenantName     string    `json:"tenant_name"`
	ContractNumber string    `json:"contract_number"`
	DueDate        time.Time `json:"due_date"`
	Total          string    `json:"total"`
	DaysUntilDue   int       `json:"days_until_due"`
}

type ExpiringContract struct {
	ContractNumber string    `json:"contract_number"`
	TenantName     string    `json:"tenant_name"`
	EndDate        time.Time `json:"end_date"`
	DaysRemaining  int       `json:"days_remaining"`
}

type DashboardAlerts struct {
	UpcomingPayments  []UpcomingPayment  `json:"upcoming_payments"`
	ExpiringContracts []ExpiringContract `json:"expiring_contracts"`
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	var stats DashboardStats
	if cacheGet(ctx, h.redis, DASHBOARD_STATS_CACHE_KEY, &stats) {
		c.JSON(http.StatusOK, successResponse("dashboard stats", stats))
		return
	}

	// Overdue means strictly before today; an installment due today does not
	// count yet.
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if err := h.db.Table("payments").
		Joins("JOIN contracts ON contracts.id = payments.contract_id").
		Where("payments.status = ? AND contracts.status = ?", models.PaymentStatusPaid, models.ContractStatusActive).
		Select("COALESCE(SUM(payments.total), 0)").
		Scan(&stats.CollectedIncome).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to compute dashboard stats"))
		return
	}

	if err := h.db.Table("payments").
		Joins("JOIN contracts ON contracts.id = payments.contract_id").
		Where("payments.status <> ? AND payments.due_date < ? AND contracts.status = ?",
			models.PaymentStatusPaid, today, models.ContractStatusActive).
		Count(&stats.OverdueCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to compute dashboard stats"))
		return
	}
	if err := h.db.Table("payments").
		Joins("JOIN contracts ON contracts.id = payments.contract_id").
		Where("payments.status <> ? AND payments.due_date < ? AND contracts.status = ?",
			models.PaymentStatusPaid, today, models.ContractStatusActive).
		Select("COALESCE(SUM(payments.remaining_amount), 0)").
		Scan(&stats.OverdueAmount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to compute dashboard stats"))
		return
	}

	h.db.Model(&models.Unit{}).Where("status = ?", models.UnitStatusRented).Count(&stats.RentedUnits)
	h.db.Model(&models.Unit{}).Where("status = ?", models.UnitStatusVacant).Count(&stats.VacantUnits)

	cacheSet(ctx, h.redis, DASHBOARD_STATS_CACHE_KEY, stats, CACHE_TTL_SHORT)
	c.JSON(http.StatusOK, successResponse("dashboard stats", stats))
}

func (h *DashboardHandler) Alerts(c *gin.Context) {
	ctx := c.Request.Context()

	var alerts DashboardAlerts
	if cacheGet(ctx, h.redis, DASHBOARD_ALERTS_CACHE_KEY, &alerts) {
		c.JSON(http.StatusOK, successResponse("dashboard alerts", alerts))
		return
	}

	// The upcoming window opens at today's midnight so an installment due
	// today is included.
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var upcoming []UpcomingPayment
	if err := h.db.Table("payments").
		Select(`tenants.name AS tenant_name,
			contracts.contract_number AS contract_number,
			payments.due_date AS due_date,
			payments.total AS total`).
		Joins("JOIN contracts ON contracts.id = payments.contract_id").
		Joins("JOIN tenants ON tenants.id = contracts.tenant_id").
		Where("payments.status <> ? AND contracts.status = ?", models.PaymentStatusPaid, models.ContractStatusActive).
		Where("payments.due_date >= ? AND payments.due_date <= ?", today, today.AddDate(0, 0, 30)).
		Order("payments.due_date").
		Scan(&upcoming).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to compute dashboard alerts"))
		return
	}
	for i := range upcoming {
		upcoming[i].DaysUntilDue = int(upcoming[i].DueDate.Sub(today).Hours() / 24)
	}

	var expiring []ExpiringContract
	if err := h.db.Table("contracts").
		Select(`contracts.contract_number AS contract_number,
			tenants.name AS tenant_name,
			contracts.end_date AS end_date`).
		Joins("JOIN tenants ON tenants.id = contracts.tenant_id").
		Where("contracts.status = ?", models.ContractStatusActive).
		Where("contracts.end_date >= ? AND contracts.end_date <= ?", today, today.AddDate(0, 0, 60)).
		Order("contracts.end_date").
		Scan(&expiring).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to compute dashboard alerts"))
		return
	}
	for i := range expiring {
		expiring[i].DaysRemaining = int(expiring[i].EndDate.Sub(today).Hours() / 24)
	}

	alerts = DashboardAlerts{UpcomingPayments: upcoming, ExpiringContracts: expiring}
	cacheSet(ctx, h.redis, DASHBOARD_ALERTS_CACHE_KEY, alerts, CACHE_TTL_MEDIUM)
	c.JSON(http.StatusOK, successResponse("dashboard alerts", alerts))
}
