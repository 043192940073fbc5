package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"amlak-system/config"
	"amlak-system/internal/billing"
	"amlak-system/internal/database/models"
	"amlak-system/internal/middleware"
)

const dateLayout = "2006-01-02"

type ContractHandler struct {
	db    *gorm.DB
	redis *redis.Client
	split config.RevenueSplitConfig
}

func NewContractHandler(db *gorm.DB, redisClient *redis.Client, split config.RevenueSplitConfig) *ContractHandler {
	return &ContractHandler{db: db, redis: redisClient, split: split}
}

type CreateContractRequest struct {
	ContractNumber string  `json:"contract_number" binding:"required"`
	TenantID       int64   `json:"tenant_id" binding:"required"`
	ContractType   string  `json:"contract_type" binding:"required,oneof=residential commercial right_of_use"`
	RentAmount     string  `json:"rent_amount" binding:"required"`
	PaymentFreq    string  `json:"payment_freq" binding:"required,oneof=monthly quarterly semi_annual annual"`
	StartDate      string  `json:"start_date" binding:"required"`
	DurationYears  int     `json:"duration_years" binding:"required,min=1,max=10"`
	UnitIDs        []int64 `json:"unit_ids" binding:"required,min=1"`
}

type CancelContractRequest struct {
	Reason string  `json:"reason" binding:"required,oneof=entry_error duplicate_contract administrative_error tenant_request unit_vacated other"`
	Notes  *string `json:"notes,omitempty"`
}

// CreateContract validates the lease terms, links the units, flips them to
// rented, and generates the full payment schedule, all in one transaction.
func (h *ContractHandler) CreateContract(c *gin.Context) {
	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("contract_number, tenant_id, contract_type, rent_amount, payment_freq, start_date, duration_years and unit_ids are required"))
		return
	}

	rent, err := decimal.NewFromString(req.RentAmount)
	if err != nil || !rent.IsPositive() {
		c.JSON(http.StatusBadRequest, errorResponse("rent_amount must be a positive number"))
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("start_date must be formatted as YYYY-MM-DD"))
		return
	}
	endDate := startDate.AddDate(req.DurationYears, 0, 0)

	vatRate := "0"
	if req.ContractType == models.ContractTypeCommercial {
		vatRate = "0.15"
	}

	contract := models.Contract{
		ContractNumber: req.ContractNumber,
		TenantID:       req.TenantID,
		ContractType:   req.ContractType,
		RentAmount:     rent.StringFixed(2),
		PaymentFreq:    req.PaymentFreq,
		StartDate:      startDate,
		EndDate:        endDate,
		VATRate:        vatRate,
		Status:         models.ContractStatusActive,
	}

	var generated int
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Contract{}).
			Where("contract_number = ?", req.ContractNumber).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errDuplicateNumber
		}

		var tenant models.Tenant
		if err := tx.First(&tenant, req.TenantID).Error; err != nil {
			return fmt.Errorf("tenant: %w", err)
		}

		var units []models.Unit
		if err := tx.Where("id IN ?", req.UnitIDs).Find(&units).Error; err != nil {
			return err
		}
		if len(units) != len(req.UnitIDs) {
			return gorm.ErrRecordNotFound
		}
		for _, u := range units {
			if u.Status != models.UnitStatusVacant {
				return errUnitUnavailable
			}
		}
		// A vacant status can be stale if contracts were edited directly,
		// so active linkage is re-checked here as well.
		var linked int64
		if err := tx.Table("contract_units").
			Joins("JOIN contracts ON contracts.id = contract_units.contract_id").
			Where("contract_units.unit_id IN ? AND contracts.status = ?", req.UnitIDs, models.ContractStatusActive).
			Count(&linked).Error; err != nil {
			return err
		}
		if linked > 0 {
			return errUnitUnavailable
		}

		if err := tx.Create(&contract).Error; err != nil {
			return err
		}

		for _, uid := range req.UnitIDs {
			if err := tx.Create(&models.ContractUnit{ContractID: contract.ID, UnitID: uid}).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Unit{}).
			Where("id IN ?", req.UnitIDs).
			Update("status", models.UnitStatusRented).Error; err != nil {
			return err
		}

		assetTypes, err := assetTypesForUnits(tx, req.UnitIDs)
		if err != nil {
			return err
		}

		payments, err := billing.GenerateSchedule(&contract, assetTypes, h.split)
		if err != nil {
			return err
		}
		if err := tx.Create(&payments).Error; err != nil {
			return err
		}
		generated = len(payments)
		return nil
	})

	switch {
	case errors.Is(txErr, errDuplicateNumber):
		c.JSON(http.StatusConflict, errorResponse("contract number already exists"))
	case errors.Is(txErr, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, errorResponse("tenant or unit not found"))
	case errors.Is(txErr, errUnitUnavailable):
		c.JSON(http.StatusConflict, errorResponse("one or more units are not vacant or are linked to another active contract"))
	case errors.Is(txErr, billing.ErrInvalidRent), errors.Is(txErr, billing.ErrInvalidTerm), errors.Is(txErr, billing.ErrUnknownFrequency):
		c.JSON(http.StatusBadRequest, errorResponse(txErr.Error()))
	case txErr != nil:
		c.JSON(http.StatusInternalServerError, errorResponse("failed to create contract"))
	default:
		invalidateDashboardCaches(c.Request.Context(), h.redis)
		c.JSON(http.StatusCreated, successWithMetaResponse("contract created", contract, gin.H{
			"payments_generated": generated,
		}))
	}
}

func (h *ContractHandler) ListContracts(c *gin.Context) {
	query := h.db.Preload("Tenant").Preload("Units").Order("id")
	switch c.DefaultQuery("status", models.ContractStatusActive) {
	case models.ContractStatusActive:
		query = query.Where("status = ?", models.ContractStatusActive)
	case models.ContractStatusCancelled:
		query = query.Where("status = ?", models.ContractStatusCancelled)
	case "all":
	default:
		c.JSON(http.StatusBadRequest, errorResponse("status must be active, cancelled or all"))
		return
	}

	var contracts []models.Contract
	if err := query.Find(&contracts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to list contracts"))
		return
	}
	c.JSON(http.StatusOK, successResponse("contracts retrieved", contracts))
}

func (h *ContractHandler) GetContract(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid contract id"))
		return
	}

	var contract models.Contract
	if err := h.db.
		Preload("Tenant").
		Preload("Units").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_number")
		}).
		First(&contract, id).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("contract not found"))
		return
	}

	c.JSON(http.StatusOK, successResponse("contract retrieved", contract))
}

// CancelContract transitions an active contract to cancelled: cancellation
// metadata is recorded, linked units are released back to vacant, and unpaid
// payments are purged while fully-paid ones are kept for audit. Terminal,
// admin-only.
func (h *ContractHandler) CancelContract(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid contract id"))
		return
	}

	var req CancelContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("a cancellation reason from the fixed list is required"))
		return
	}

	fullReason := req.Reason
	if req.Notes != nil && *req.Notes != "" {
		fullReason = fmt.Sprintf("%s - %s", req.Reason, *req.Notes)
	}
	actor := c.GetString(middleware.ContextUsername)
	today := time.Now()

	var releasedUnits, deletedPayments int64
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		var contract models.Contract
		if err := tx.First(&contract, id).Error; err != nil {
			return err
		}

		// Guarded update: a concurrent cancellation loses the race and is
		// reported instead of applied twice.
		res := tx.Model(&models.Contract{}).
			Where("id = ? AND status = ?", id, models.ContractStatusActive).
			Updates(map[string]interface{}{
				"status":              models.ContractStatusCancelled,
				"cancellation_reason": fullReason,
				"cancelled_by":        actor,
				"cancellation_date":   today,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotActive
		}

		var unitIDs []int64
		if err := tx.Model(&models.ContractUnit{}).
			Where("contract_id = ?", id).
			Pluck("unit_id", &unitIDs).Error; err != nil {
			return err
		}
		if len(unitIDs) > 0 {
			release := tx.Model(&models.Unit{}).
				Where("id IN ?", unitIDs).
				Update("status", models.UnitStatusVacant)
			if release.Error != nil {
				return release.Error
			}
			releasedUnits = release.RowsAffected
		}

		purge := tx.Where("contract_id = ? AND status <> ?", id, models.PaymentStatusPaid).
			Delete(&models.Payment{})
		if purge.Error != nil {
			return purge.Error
		}
		deletedPayments = purge.RowsAffected
		return nil
	})

	switch {
	case errors.Is(txErr, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, errorResponse("contract not found"))
	case errors.Is(txErr, errNotActive):
		c.JSON(http.StatusConflict, errorResponse("contract is already cancelled"))
	case txErr != nil:
		c.JSON(http.StatusInternalServerError, errorResponse("failed to cancel contract"))
	default:
		invalidateDashboardCaches(c.Request.Context(), h.redis)
		c.JSON(http.StatusOK, successWithMetaResponse("contract cancelled", nil, gin.H{
			"released_units":   releasedUnits,
			"deleted_payments": deletedPayments,
			"cancelled_by":     actor,
		}))
	}
}

// GeneratePayments builds the schedule for an active contract that has none
// yet. Generation is refused when any payment already exists: the generator
// is not idempotent and duplicate schedules must never be created.
func (h *ContractHandler) GeneratePayments(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid contract id"))
		return
	}

	var generated int
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		var contract models.Contract
		if err := tx.First(&contract, id).Error; err != nil {
			return err
		}
		if contract.Status != models.ContractStatusActive {
			return errNotActive
		}

		var existing int64
		if err := tx.Model(&models.Payment{}).Where("contract_id = ?", id).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return errScheduleExists
		}

		var unitIDs []int64
		if err := tx.Model(&models.ContractUnit{}).
			Where("contract_id = ?", id).
			Pluck("unit_id", &unitIDs).Error; err != nil {
			return err
		}
		assetTypes, err := assetTypesForUnits(tx, unitIDs)
		if err != nil {
			return err
		}

		payments, err := billing.GenerateSchedule(&contract, assetTypes, h.split)
		if err != nil {
			return err
		}
		if err := tx.Create(&payments).Error; err != nil {
			return err
		}
		generated = len(payments)
		return nil
	})

	switch {
	case errors.Is(txErr, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, errorResponse("contract not found"))
	case errors.Is(txErr, errNotActive):
		c.JSON(http.StatusConflict, errorResponse("contract is not active"))
	case errors.Is(txErr, errScheduleExists):
		c.JSON(http.StatusConflict, errorResponse("payments already generated for this contract"))
	case errors.Is(txErr, billing.ErrInvalidRent), errors.Is(txErr, billing.ErrInvalidTerm), errors.Is(txErr, billing.ErrUnknownFrequency):
		c.JSON(http.StatusBadRequest, errorResponse(txErr.Error()))
	case txErr != nil:
		c.JSON(http.StatusInternalServerError, errorResponse("failed to generate payments"))
	default:
		invalidateDashboardCaches(c.Request.Context(), h.redis)
		c.JSON(http.StatusCreated, successWithMetaResponse("payments generated", nil, gin.H{
			"payments_generated": generated,
		}))
	}
}

func assetTypesForUnits(tx *gorm.DB, unitIDs []int64) ([]string, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}
	var types []string
	err := tx.Model(&models.Unit{}).
		Distinct("assets.type").
		Joins("JOIN assets ON assets.id = units.asset_id").
		Where("units.id IN ?", unitIDs).
		Pluck("assets.type", &types).Error
	return types, err
}
