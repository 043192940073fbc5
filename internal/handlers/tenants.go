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

type TenantHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewTenantHandler(db *gorm.DB, redisClient *redis.Client) *TenantHandler {
	return &TenantHandler{db: db, redis: redisClient}
}

type CreateTenantRequest struct {
	Name       string  `json:"name" binding:"required"`
	Type       *string `json:"type,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Email      *string `json:"email,omitempty" binding:"omitempty,email"`
	NationalID *string `json:"national_id,omitempty"`
	Address    *string `json:"address,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

type UpdateTenantRequest struct {
	Name       *string `json:"name,omitempty"`
	Type       *string `json:"type,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Email      *string `json:"email,omitempty" binding:"omitempty,email"`
	NationalID *string `json:"national_id,omitempty"`
	Address    *string `json:"address,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

func (h *TenantHandler) CreateTenant(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("tenant name is required"))
		return
	}

	tenant := models.Tenant{
		Name:       req.Name,
		Type:       req.Type,
		Phone:      req.Phone,
		Email:      req.Email,
		NationalID: req.NationalID,
		Address:    req.Address,
		Notes:      req.Notes,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Tenant{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errDuplicateName
		}
		return tx.Create(&tenant).Error
	})
	if errors.Is(err, errDuplicateName) {
		c.JSON(http.StatusConflict, errorResponse("a tenant with this name already exists"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to create tenant"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("tenant created", tenant))
}

func (h *TenantHandler) ListTenants(c *gin.Context) {
	var tenants []models.Tenant
	query := h.db.Order("id")
	if t := c.Query("type"); t != "" {
		query = query.Where("type = ?", t)
	}
	if err := query.Find(&tenants).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to list tenants"))
		return
	}
	c.JSON(http.StatusOK, successResponse("tenants retrieved", tenants))
}

func (h *TenantHandler) UpdateTenant(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid tenant id"))
		return
	}

	var req UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid update payload"))
		return
	}

	var tenant models.Tenant
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tenant, id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.Name != nil {
			var count int64
			if err := tx.Model(&models.Tenant{}).Where("name = ? AND id <> ?", *req.Name, id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return errDuplicateName
			}
			updates["name"] = *req.Name
		}
		if req.Type != nil {
			updates["type"] = req.Type
		}
		if req.Phone != nil {
			updates["phone"] = req.Phone
		}
		if req.Email != nil {
			updates["email"] = req.Email
		}
		if req.NationalID != nil {
			updates["national_id"] = req.NationalID
		}
		if req.Address != nil {
			updates["address"] = req.Address
		}
		if req.Notes != nil {
			updates["notes"] = req.Notes
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&tenant).Updates(updates).Error
	})

	switch {
	case errors.Is(txErr, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, errorResponse("tenant not found"))
	case errors.Is(txErr, errDuplicateName):
		c.JSON(http.StatusConflict, errorResponse("a tenant with this name already exists"))
	case txErr != nil:
		c.JSON(http.StatusInternalServerError, errorResponse("failed to update tenant"))
	default:
		c.JSON(http.StatusOK, successResponse("tenant updated", tenant))
	}
}

// DeleteTenant removes a tenant. Blocked while any active contract references
// the tenant. With purge_history=true the tenant's cancelled contracts and
// their retained payments are deleted as well; otherwise cancelled-contract
// history blocks the delete to preserve the audit trail.
func (h *TenantHandler) DeleteTenant(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid tenant id"))
		return
	}
	purge := c.Query("purge_history") == "true"

	var purgedContracts int64
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		var tenant models.Tenant
		if err := tx.First(&tenant, id).Error; err != nil {
			return err
		}

		var activeCount int64
		if err := tx.Model(&models.Contract{}).
			Where("tenant_id = ? AND status = ?", id, models.ContractStatusActive).
			Count(&activeCount).Error; err != nil {
			return err
		}
		if activeCount > 0 {
			return errReferencedByActiveContract
		}

		var cancelled []models.Contract
		if err := tx.Where("tenant_id = ? AND status = ?", id, models.ContractStatusCancelled).
			Find(&cancelled).Error; err != nil {
			return err
		}

		if len(cancelled) > 0 {
			if !purge {
				return errHasHistory
			}
			for _, contract := range cancelled {
				if err := tx.Where("contract_id = ?", contract.ID).Delete(&models.Payment{}).Error; err != nil {
					return err
				}
				if err := tx.Where("contract_id = ?", contract.ID).Delete(&models.ContractUnit{}).Error; err != nil {
					return err
				}
				if err := tx.Delete(&contract).Error; err != nil {
					return err
				}
			}
			purgedContracts = int64(len(cancelled))
		}

		return tx.Delete(&tenant).Error
	})

	switch {
	case errors.Is(txErr, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, errorResponse("tenant not found"))
	case errors.Is(txErr, errReferencedByActiveContract):
		c.JSON(http.StatusConflict, errorResponse("tenant has active contracts; cancel them first"))
	case errors.Is(txErr, errHasHistory):
		c.JSON(http.StatusConflict, errorResponse("tenant has cancelled-contract history; pass purge_history=true to delete it together"))
	case txErr != nil:
		c.JSON(http.StatusInternalServerError, errorResponse("failed to delete tenant"))
	default:
		invalidateDashboardCaches(c.Request.Context(), h.redis)
		c.JSON(http.StatusOK, successWithMetaResponse("tenant deleted", nil, gin.H{
			"purged_contracts": purgedContracts,
		}))
	}
}
