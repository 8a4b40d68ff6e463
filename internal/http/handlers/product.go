package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	instypes "github.com/sorosurance/sorosurance-backend/internal/domain/insurance"
	"github.com/sorosurance/sorosurance-backend/internal/http/response"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/services"
)

type ProductHandler struct {
	products services.ProductService
}

func NewProductHandler(products services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// GET /api/products
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.ListActive(dbctx.New(c.Request.Context()))
	if err != nil {
		response.RespondServiceError(c, "list_products_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"products": products})
}

// GET /api/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_product_id", err)
		return
	}
	product, err := h.products.Get(dbctx.New(c.Request.Context()), productID)
	if err != nil {
		response.RespondServiceError(c, "product_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"product": product})
}

// POST /api/admin/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req struct {
		Name        string  `json:"name"`
		ProductType string  `json:"product_type"`
		Description string  `json:"description"`
		BasePremium float64 `json:"base_premium"`
		MinPremium  float64 `json:"min_premium"`
		MaxPremium  float64 `json:"max_premium"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	product := instypes.Product{
		Name:        req.Name,
		ProductType: req.ProductType,
		Description: req.Description,
		BasePremium: req.BasePremium,
		MinPremium:  req.MinPremium,
		MaxPremium:  req.MaxPremium,
	}
	created, err := h.products.Create(dbctx.New(c.Request.Context()), &product)
	if err != nil {
		response.RespondServiceError(c, "create_product_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"product": created})
}

// PATCH /api/admin/products/:id/active
func (h *ProductHandler) SetActive(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_product_id", err)
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.products.SetActive(dbctx.New(c.Request.Context()), productID, req.Active); err != nil {
		response.RespondServiceError(c, "set_product_active_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
