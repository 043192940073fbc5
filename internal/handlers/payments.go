package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"amlak-system/internal/billing"
	"amlak-system/internal/database/models"
)

type PaymentHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewPaymentHandler(db *gorm.DB, redisClient *redis.Client) *PaymentHandler {
	return &PaymentHandler{db: db, redis: redisClient}
}

type CollectPaymentRequest struct {
	Amount string `json:"amount" binding:"required"`
	Method string `json:"method" binding:"required,oneof=bank_transfer cash cheque ejar_platform"`
}

func (h *PaymentHandler) ListContractPayments(c *gin.Context) {
	contractID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid contract id"))
		return
	}

	var contract models.Contract
	if err := h.db.First(&contract, contractID).Error; err != nil {
		c.JSON(http.StatusNotFound, errorResponse("contract not found"))
		return
	}

	var payments []models.Payment
	if err := h.db.Where("contract_id = ?", contractID).
		Order("payment_number").
		Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("failed to list payments"))
		return
	}

	totalAmount := decimal.Zero
	totalPaid := decimal.Zero
	totalRemaining := decimal.Zero
	for _, p := range payments {
		if v, err := decimal.NewFromString(p.Total); err == nil {
			totalAmount = totalAmount.Add(v)
		}
		if v, err := decimal.NewFromString(p.PaidAmount); err == nil {
			totalPaid = totalPaid.Add(v)
		}
		if v, err := decimal.NewFromString(p.RemainingAmount); err == nil {
			totalRemaining = totalRemaining.Add(v)
		}
	}

	c.JSON(http.StatusOK, successWithMetaResponse("payments retrieved", payments, gin.H{
		"total":     totalAmount.StringFixed(2),
		"collected": totalPaid.StringFixed(2),
		"remaining": totalRemaining.StringFixed(2),
	}))
}

// CollectPayment applies a collected amount to one installment. The balance
// update is guarded on the previously observed paid amount so concurrent
// collections against the same row cannot both win.
func (h *PaymentHandler) CollectPayment(c *gin.Context) {
	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid payment id"))
		return
	}

	var req CollectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("amount and a valid method are required"))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("amount must be a number"))
		return
	}

	var payment models.Payment
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, paymentID).Error; err != nil {
			return err
		}

		var contract models.Contract
		if err := tx.First(&contract, payment.ContractID).Error; err != nil {
			return err
		}
		if contract.Status != models.ContractStatusActive {
			return errNotActive
		}

		prevPaid := payment.PaidAmount
		if err := billing.ApplyCollection(&payment, amount, req.Method, time.Now()); err != nil {
			return err
		}

		res := tx.Model(&models.Payment{}).
			Where("id = ? AND paid_amount = ?", payment.ID, prevPaid).
			Updates(map[string]interface{}{
				"paid_amount":      payment.PaidAmount,
				"remaining_amount": payment.RemainingAmount,
				"status":           payment.Status,
				"paid_date":        payment.PaidDate,
				"payment_method":   payment.PaymentMethod,
				"receipt_ref":      payment.ReceiptRef,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errConcurrentUpdate
		}
		return nil
	})

	switch {
	case errors.Is(txErr, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, errorResponse("payment not found"))
	case errors.Is(txErr, errNotActive):
		c.JSON(http.StatusConflict, errorResponse("contract is not active"))
	case errors.Is(txErr, billing.ErrNonPositiveAmount):
		c.JSON(http.StatusBadRequest, errorResponse("amount must be greater than zero"))
	case errors.Is(txErr, billing.ErrOverpayment):
		c.JSON(http.StatusBadRequest, errorResponse("amount exceeds the remaining balance"))
	case errors.Is(txErr, billing.ErrAlreadySettled):
		c.JSON(http.StatusConflict, errorResponse("payment is already fully paid"))
	case errors.Is(txErr, errConcurrentUpdate):
		c.JSON(http.StatusConflict, errorResponse("payment was modified concurrently, retry"))
	case txErr != nil:
		c.JSON(http.StatusInternalServerError, errorResponse("failed to record collection"))
	default:
		invalidateDashboardCaches(c.Request.Context(), h.redis)
		c.JSON(http.StatusOK, successResponse("collection recorded", payment))
	}
}
