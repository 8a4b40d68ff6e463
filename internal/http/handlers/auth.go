package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	usertypes "github.com/sorosurance/sorosurance-backend/internal/domain/user"
	"github.com/sorosurance/sorosurance-backend/internal/http/response"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /api/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		PhoneNumber    string `json:"phone_number"`
		Email          string `json:"email"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		Password       string `json:"password"`
		PrefersVoice   bool   `json:"prefers_voice"`
		WhatsappNumber string `json:"whatsapp_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user := usertypes.User{
		PhoneNumber:    req.PhoneNumber,
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		PrefersVoice:   req.PrefersVoice,
		WhatsappNumber: req.WhatsappNumber,
	}
	created, err := ah.authService.RegisterUser(dbctx.New(c.Request.Context()), &user, req.Password)
	if err != nil {
		response.RespondServiceError(c, "registration_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"user": created})
}

// POST /api/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
		Password    string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, pair, err := ah.authService.LoginUser(dbctx.New(c.Request.Context()), req.PhoneNumber, req.Password)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
		return
	}
	response.RespondOK(c, gin.H{
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    int(ah.authService.GetAccessTTL().Seconds()),
	})
}

// POST /api/refresh
func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	pair, err := ah.authService.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "refresh_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    int(ah.authService.GetAccessTTL().Seconds()),
	})
}
