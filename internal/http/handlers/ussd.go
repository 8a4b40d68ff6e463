package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sorosurance/sorosurance-backend/internal/http/response"
	"github.com/sorosurance/sorosurance-backend/internal/services"
)

type USSDHandler struct {
	ussd services.USSDService
}

func NewUSSDHandler(ussd services.USSDService) *USSDHandler {
	return &USSDHandler{ussd: ussd}
}

// Handle serves POST /ussd. The aggregator posts form-encoded session
// state and expects a bare CON/END text body back.
func (h *USSDHandler) Handle(c *gin.Context) {
	sessionID := c.PostForm("sessionId")
	phoneNumber := c.PostForm("phoneNumber")
	text := c.PostForm("text")
	if sessionID == "" || phoneNumber == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	reply, err := h.ussd.Handle(c.Request.Context(), sessionID, phoneNumber, text)
	if err != nil {
		reply = "END Service temporarily unavailable. Please try again."
	}
	c.String(http.StatusOK, reply)
}
