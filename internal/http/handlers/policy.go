package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sorosurance/sorosurance-backend/internal/http/response"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/services"
)

type PolicyHandler struct {
	policies services.PolicyService
}

func NewPolicyHandler(policies services.PolicyService) *PolicyHandler {
	return &PolicyHandler{policies: policies}
}

// GET /api/products/:id/quote
func (h *PolicyHandler) Quote(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_product_id", err)
		return
	}
	quote, err := h.policies.Quote(dbctx.New(c.Request.Context()), productID)
	if err != nil {
		response.RespondServiceError(c, "quote_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"quote": quote})
}

// POST /api/policies
func (h *PolicyHandler) Purchase(c *gin.Context) {
	var req struct {
		ProductID        string  `json:"product_id"`
		CoverageAmount   float64 `json:"coverage_amount"`
		PremiumFrequency string  `json:"premium_frequency"`
		TermDays         int     `json:"term_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_product_id", err)
		return
	}
	policy, err := h.policies.Purchase(dbctx.New(c.Request.Context()), services.PurchasePolicyInput{
		ProductID:        productID,
		CoverageAmount:   req.CoverageAmount,
		PremiumFrequency: req.PremiumFrequency,
		TermDays:         req.TermDays,
	})
	if err != nil {
		response.RespondServiceError(c, "purchase_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"policy": policy})
}

// GET /api/policies
func (h *PolicyHandler) List(c *gin.Context) {
	policies, err := h.policies.ListForRequestUser(dbctx.New(c.Request.Context()))
	if err != nil {
		response.RespondServiceError(c, "list_policies_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"policies": policies})
}

// GET /api/policies/:id
func (h *PolicyHandler) Get(c *gin.Context) {
	policyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_policy_id", err)
		return
	}
	policy, err := h.policies.GetForRequestUser(dbctx.New(c.Request.Context()), policyID)
	if err != nil {
		response.RespondServiceError(c, "policy_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"policy": policy})
}

// POST /api/policies/:id/renew
func (h *PolicyHandler) Renew(c *gin.Context) {
	policyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_policy_id", err)
		return
	}
	policy, err := h.policies.Renew(dbctx.New(c.Request.Context()), policyID)
	if err != nil {
		response.RespondServiceError(c, "renew_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"policy": policy})
}
