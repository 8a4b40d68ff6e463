package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/sorosurance/sorosurance-backend/internal/http/response"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/services"
)

type DashboardHandler struct {
	dashboard services.DashboardService
}

func NewDashboardHandler(dashboard services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GET /api/review/dashboard
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.Summary(dbctx.New(c.Request.Context()))
	if err != nil {
		response.RespondServiceError(c, "dashboard_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"summary": summary})
}
