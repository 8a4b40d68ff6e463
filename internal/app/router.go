package app

import (
	"github.com/gin-gonic/gin"

	httplayer "github.com/sorosurance/sorosurance-backend/internal/http"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, handlers Handlers, middleware Middleware) *gin.Engine {
	return httplayer.NewRouter(httplayer.RouterConfig{
		Log:            log,
		AuthMiddleware: middleware.Auth,

		AuthHandler:         handlers.Auth,
		UserHandler:         handlers.User,
		ProductHandler:      handlers.Product,
		PolicyHandler:       handlers.Policy,
		ClaimHandler:        handlers.Claim,
		PaymentHandler:      handlers.Payment,
		USSDHandler:         handlers.USSD,
		NotificationHandler: handlers.Notification,
		JobHandler:          handlers.Jobs,
		DashboardHandler:    handlers.Dashboard,
		HealthHandler:       handlers.Health,
	})
}
