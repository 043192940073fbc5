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

type AssetHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewAssetHandler(db *gorm.DB, redisClient *redis.Client) *AssetHandler {
	return &AssetHandler{db: db, redis: redisClient}
}

type CreateAssetRequest struct {
	Name        string  `json:"name" binding:"required"`
	Type        string  `json:"type" binding:"required,oneof=building warehouse land fuel_station other"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
}

type UpdateAssetRequest struct {
	Name        *string `json:"name,omitempty"`
	Type        *string `json:"type,omitempty" binding:"omitempty,oneof=building warehouse land fuel_station other"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (h *AssetHandler) CreateAsset(c *gin.Context) {
	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("name and a valid asset type are required"))
		return
	}

	asset := models.Asset{
		Name:        req.Name,
		Type:        req.Type,
		Location:    req.Location,
		Description: req.Description,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Asset{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errDuplicateName
		}
		return tx.Create(&asset).Error
	})
	if errors.Is(err, errDuplicateName) {
		c.JSON(http.StatusConflict, errorResponse("an asset with this name already exists"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to create asset"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("asset created", asset))
}

func (h *AssetHandler) ListAssets(c *gin.Context) {
	var assets []models.Asset
	query := h.db.Order("id")
	if t := c.Query("type"); t != "" {
		query = query.Where("type = ?", t)
	}
	if err := query.Preload("Units").Find(&assets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to list assets"))
		return
	}
	c.JSON(http.StatusOK, successResponse("assets retrieved", assets))
}

func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid asset id"))
		return
	}

	var req UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid update payload"))
		return
	}

	var asset models.Asset
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&asset, id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.Name != nil {
			var count int64
			if err := tx.Model(&models.Asset{}).Where("name = ? AND id <> ?", *req.Name, id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return errDuplicateName
			}
			updates["name"] = *req.Name
		}
		if req.Type != nil {
			updates["type"] = *req.Type
		}
		if req.Location != nil {
			updates["location"] = req.Location
		}
		if req.Description != nil {
			updates["description"] = req.Description
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&asset).Updates(updates).Error
	})

	switch {
	case errors.Is(txErr, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, errorResponse("asset not found"))
	case errors.Is(txErr, errDuplicateName):
		c.JSON(http.StatusConflict, errorResponse("an asset with this name already exists"))
	case txErr != nil:
		c.JSON(http.StatusInternalServerError, errorResponse("failed to update asset"))
	default:
		c.JSON(http.StatusOK, successResponse("asset updated", asset))
	}
}

// DeleteAsset removes an asset. Blocked while any active contract references
// one of its units; with units and no active contracts the caller must pass
// cascade=true to delete the units along with the asset.
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid asset id"))
		return
	}
	cascade := c.Query("cascade") == "true"

	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.First(&asset, id).Error; err != nil {
			return err
		}

		var activeCount int64
		if err := tx.Table("contract_units").
			Joins("JOIN contracts ON contracts.id = contract_units.contract_id").
			Joins("JOIN units ON units.id = contract_units.unit_id").
			Where("units.asset_id = ? AND contracts.status = ?", id, models.ContractStatusActive).
			Count(&activeCount).Error; err != nil {
			return err
		}
		if activeCount > 0 {
			return errReferencedByActiveContract
		}

		var unitCount int64
		if err := tx.Model(&models.Unit{}).Where("asset_id = ?", id).Count(&unitCount).Error; err != nil {
			return err
		}
		if unitCount > 0 {
			if !cascade {
				return errHasUnits
			}
			var unitIDs []int64
			if err := tx.Model(&models.Unit{}).Where("asset_id = ?", id).Pluck("id", &unitIDs).Error; err != nil {
				return err
			}
			// Join rows pointing at the removed units would otherwise dangle
			// for cancelled-contract history.
			if err := tx.Where("unit_id IN ?", unitIDs).Delete(&models.ContractUnit{}).Error; err != nil {
				return err
			}
			if err := tx.Where("asset_id = ?", id).Delete(&models.Unit{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&asset).Error
	})

	switch {
	case errors.Is(txErr, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, errorResponse("asset not found"))
	case errors.Is(txErr, errReferencedByActiveContract):
		c.JSON(http.StatusConflict, errorResponse("asset has units under active contracts; cancel those contracts first"))
	case errors.Is(txErr, errHasUnits):
		c.JSON(http.StatusConflict, errorResponse("asset still owns units; pass cascade=true to delete them together"))
	case txErr != nil:
		c.JSON(http.StatusInternalServerError, errorResponse("failed to delete asset"))
	default:
		invalidateDashboardCaches(c.Request.Context(), h.redis)
		c.JSON(http.StatusOK, successResponse("asset deleted", nil))
	}
}
