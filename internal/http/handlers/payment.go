package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sorosurance/sorosurance-backend/internal/http/response"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/services"
)

type PaymentHandler struct {
	payments services.PaymentService
	receipts services.ReceiptService
}

func NewPaymentHandler(payments services.PaymentService, receipts services.ReceiptService) *PaymentHandler {
	return &PaymentHandler{payments: payments, receipts: receipts}
}

// POST /api/payments/premium
func (h *PaymentHandler) InitiatePremium(c *gin.Context) {
	var req struct {
		PolicyID     string `json:"policy_id"`
		VoicePayment bool   `json:"voice_payment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	policyID, err := uuid.Parse(req.PolicyID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_policy_id", err)
		return
	}
	initiated, err := h.payments.InitiatePremiumPayment(dbctx.New(c.Request.Context()), policyID, req.VoicePayment)
	if err != nil {
		response.RespondServiceError(c, "initiate_payment_failed", err)
		return
	}
	response.RespondOK(c, initiated)
}

// POST /api/review/claims/:id/payout
func (h *PaymentHandler) InitiatePayout(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_claim_id", err)
		return
	}
	payment, err := h.payments.InitiateClaimPayout(dbctx.New(c.Request.Context()), claimID)
	if err != nil {
		response.RespondServiceError(c, "initiate_payout_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"payment": payment})
}

// POST /api/payments/verify
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req struct {
		Reference string `json:"reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	payment, err := h.payments.VerifyPayment(dbctx.New(c.Request.Context()), req.Reference)
	if err != nil {
		response.RespondServiceError(c, "verify_payment_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"payment": payment})
}

// GET /api/payments
func (h *PaymentHandler) List(c *gin.Context) {
	payments, err := h.payments.ListForRequestUser(dbctx.New(c.Request.Context()))
	if err != nil {
		response.RespondServiceError(c, "list_payments_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"payments": payments})
}

// GET /api/payments/:id/receipt
func (h *PaymentHandler) Receipt(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_payment_id", err)
		return
	}
	url, err := h.receipts.GenerateForPayment(dbctx.New(c.Request.Context()), paymentID)
	if err != nil {
		response.RespondServiceError(c, "receipt_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"receipt_url": url})
}

// POST /webhooks/paystack (unauthenticated; signature-verified)
func (h *PaymentHandler) PaystackWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	signature := c.GetHeader("X-Paystack-Signature")
	if err := h.payments.HandleWebhook(dbctx.New(c.Request.Context()), body, signature); err != nil {
		response.RespondServiceError(c, "webhook_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
