package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"amlak-system/internal/database/models"
)

type UnitHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewUnitHandler(db *gorm.DB, redisClient *redis.Client) *UnitHandler {
	return &UnitHandler{db: db, redis: redisClient}
}

type CreateUnitRequest struct {
	AssetID    int64    `json:"asset_id" binding:"required"`
	UnitNumber string   `json:"unit_number" binding:"required"`
	Floor      *string  `json:"floor,omitempty"`
	Area       *float64 `json:"area,omitempty" binding:"omitempty,gt=0"`
	UsageType  string   `json:"usage_type" binding:"required,oneof=residential commercial right_of_use worker_housing"`
}

type UpdateUnitRequest struct {
	UnitNumber *string  `json:"unit_number,omitempty"`
	Floor      *string  `json:"floor,omitempty"`
	Area       *float64 `json:"area,omitempty" binding:"omitempty,gt=0"`
	UsageType  *string  `json:"usage_type,omitempty" binding:"omitempty,oneof=residential commercial right_of_use worker_housing"`
	// Only vacant <-> maintenance transitions are allowed here; rented is
	// owned by the contract lifecycle.
	Status *string `json:"status,omitempty" binding:"omitempty,oneof=vacant maintenance"`
}

func (h *UnitHandler) CreateUnit(c *gin.Context) {
	var req CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("asset_id, unit_number and a valid usage_type are required"))
		return
	}

	unit := models.Unit{
		AssetID:    req.AssetID,
		UnitNumber: req.UnitNumber,
		Floor:      req.Floor,
		Area:       req.Area,
		UsageType:  req.UsageType,
		Status:     models.UnitStatusVacant,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.First(&asset, req.AssetID).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Unit{}).
			Where("asset_id = ? AND unit_number = ?", req.AssetID, req.UnitNumber).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errDuplicateNumber
		}
		return tx.Create(&unit).Error
	})

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, errorResponse("asset not found"))
	case errors.Is(err, errDuplicateNumber):
		c.JSON(http.StatusConflict, errorResponse("unit number already exists within this asset"))
	case err != nil:
		c.JSON(http.StatusInternalServerError, errorResponse("failed to create unit"))
	default:
		invalidateDashboardCaches(c.Request.Context(), h.redis)
		c.JSON(http.StatusCreated, successResponse("unit created", unit))
	}
}

func (h *UnitHandler) ListUnits(c *gin.Context) {
	query := h.db.Preload("Asset").Order("id")
	if assetID := c.Query("asset_id"); assetID != "" {
		query = query.Where("asset_id = ?", assetID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var units []models.Unit
	if err := query.Find(&units).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to list units"))
		return
	}
	c.JSON(http.StatusOK, successResponse("units retrieved", units))
}

func (h *UnitHandler) UpdateUnit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid unit id"))
		return
	}

	var req UpdateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid update payload"))
		return
	}

	var unit models.Unit
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&unit, id).Error; err != nil {
			return err
		}

		if req.Status != nil && unit.Status == models.UnitStatusRented {
			return errUnitRented
		}

		updates := map[string]interface{}{}
		if req.UnitNumber != nil {
			var count int64
			if err := tx.Model(&models.Unit{}).
				Where("asset_id = ? AND unit_number = ? AND id <> ?", unit.AssetID, *req.UnitNumber, id).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return errDuplicateNumber
			}
			updates["unit_number"] = *req.UnitNumber
		}
		if req.Floor != nil {
			updates["floor"] = req.Floor
		}
		if req.Area != nil {
			updates["area"] = req.Area
		}
		if req.UsageType != nil {
			updates["usage_type"] = *req.UsageType
		}
		if req.Status != nil {
			updates["status"] = *req.Status
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&unit).Updates(updates).Error
	})

	switch {
	case errors.Is(txErr, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, errorResponse("unit not found"))
	case errors.Is(txErr, errUnitRented):
		c.JSON(http.StatusConflict, errorResponse("unit is rented; its status follows the contract lifecycle"))
	case errors.Is(txErr, errDuplicateNumber):
		c.JSON(http.StatusConflict, errorResponse("unit number already exists within this asset"))
	case txErr != nil:
		c.JSON(http.StatusInternalServerError, errorResponse("failed to update unit"))
	default:
		invalidateDashboardCaches(c.Request.Context(), h.redis)
		c.JSON(http.StatusOK, successResponse("unit updated", unit))
	}
}

func (h *UnitHandler) DeleteUnit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid unit id"))
		return
	}

	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		var unit models.Unit
		if err := tx.First(&unit, id).Error; err != nil {
			return err
		}

		var activeCount int64
		if err := tx.Table("contract_units").
			Joins("JOIN contracts ON contracts.id = contract_units.contract_id").
			Where("contract_units.unit_id = ? AND contracts.status = ?", id, models.ContractStatusActive).
			Count(&activeCount).Error; err != nil {
			return err
		}
		if activeCount > 0 {
			return errReferencedByActiveContract
		}

		return tx.Delete(&unit).Error
	})

	switch {
	case errors.Is(txErr, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, errorResponse("unit not found"))
	case errors.Is(txErr, errReferencedByActiveContract):
		c.JSON(http.StatusConflict, errorResponse("unit is under an active contract; cancel it first"))
	case txErr != nil:
		c.JSON(http.StatusInternalServerError, errorResponse("failed to delete unit"))
	default:
		invalidateDashboardCaches(c.Request.Context(), h.redis)
		c.JSON(http.StatusOK, successResponse("unit deleted", nil))
	}
}

// ContractsForUnit lists every contract referencing a unit, the reverse
// direction of the contract/unit linkage.
func (h *UnitHandler) ContractsForUnit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid unit id"))
		return
	}

	var contracts []models.Contract
	if err := h.db.
		Joins("JOIN contract_units ON contract_units.contract_id = contracts.id").
		Where("contract_units.unit_id = ?", id).
		Preload("Tenant").
		Order("contracts.id").
		Find(&contracts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to list contracts for unit"))
		return
	}

	c.JSON(http.StatusOK, successResponse("contracts retrieved", contracts))
}
