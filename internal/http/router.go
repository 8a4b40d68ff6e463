package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/sorosurance/sorosurance-backend/internal/http/handlers"
	httpMW "github.com/sorosurance/sorosurance-backend/internal/http/middleware"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler         *httpH.AuthHandler
	UserHandler         *httpH.UserHandler
	ProductHandler      *httpH.ProductHandler
	PolicyHandler       *httpH.PolicyHandler
	ClaimHandler        *httpH.ClaimHandler
	PaymentHandler      *httpH.PaymentHandler
	USSDHandler         *httpH.USSDHandler
	NotificationHandler *httpH.NotificationHandler
	JobHandler          *httpH.JobHandler
	DashboardHandler    *httpH.DashboardHandler
	HealthHandler       *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("sorosurance"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// Callbacks from external systems carry their own verification.
	if cfg.PaymentHandler != nil {
		r.POST("/webhooks/paystack", cfg.PaymentHandler.PaystackWebhook)
	}
	if cfg.USSDHandler != nil {
		r.POST("/ussd", cfg.USSDHandler.Handle)
	}

	api := r.Group("/api")
	{
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
			api.POST("/refresh", cfg.AuthHandler.Refresh)
		}
		if cfg.ProductHandler != nil {
			api.GET("/products", cfg.ProductHandler.List)
			api.GET("/products/:id", cfg.ProductHandler.Get)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
		}

		if cfg.PolicyHandler != nil {
			protected.GET("/products/:id/quote", cfg.PolicyHandler.Quote)
			protected.POST("/policies", cfg.PolicyHandler.Purchase)
			protected.GET("/policies", cfg.PolicyHandler.List)
			protected.GET("/policies/:id", cfg.PolicyHandler.Get)
			protected.POST("/policies/:id/renew", cfg.PolicyHandler.Renew)
		}

		if cfg.ClaimHandler != nil {
			protected.POST("/claims", cfg.ClaimHandler.SubmitVoice)
			protected.GET("/claims", cfg.ClaimHandler.List)
			protected.GET("/claims/:id", cfg.ClaimHandler.Get)
			protected.POST("/claims/:id/evidence", cfg.ClaimHandler.AttachEvidence)
			protected.POST("/claims/:id/cancel", cfg.ClaimHandler.Cancel)
			protected.GET("/claims/:id/analyses", cfg.ClaimHandler.Analyses)
			protected.GET("/claims/:id/scores", cfg.ClaimHandler.ScoreHistory)
		}

		if cfg.PaymentHandler != nil {
			protected.POST("/payments/premium", cfg.PaymentHandler.InitiatePremium)
			protected.GET("/payments", cfg.PaymentHandler.List)
			protected.POST("/payments/verify", cfg.PaymentHandler.Verify)
			protected.GET("/payments/:id/receipt", cfg.PaymentHandler.Receipt)
		}

		if cfg.NotificationHandler != nil {
			protected.GET("/notifications", cfg.NotificationHandler.List)
			protected.POST("/notifications/:id/read", cfg.NotificationHandler.MarkRead)
		}

		if cfg.JobHandler != nil {
			protected.GET("/jobs/:id", cfg.JobHandler.GetJob)
			protected.POST("/jobs/:id/cancel", cfg.JobHandler.CancelJob)
		}

		// Back-office routes; the services enforce the staff check.
		review := protected.Group("/review")
		{
			if cfg.ClaimHandler != nil {
				review.GET("/claims", cfg.ClaimHandler.ListForReview)
				review.POST("/claims/:id", cfg.ClaimHandler.Review)
				review.POST("/claims/:id/score", cfg.ClaimHandler.OverrideScore)
			}
			if cfg.PaymentHandler != nil {
				review.POST("/claims/:id/payout", cfg.PaymentHandler.InitiatePayout)
			}
			if cfg.DashboardHandler != nil {
				review.GET("/dashboard", cfg.DashboardHandler.Summary)
			}
		}

		admin := protected.Group("/admin")
		{
			if cfg.ProductHandler != nil {
				admin.POST("/products", cfg.ProductHandler.Create)
				admin.PATCH("/products/:id/active", cfg.ProductHandler.SetActive)
			}
		}
	}

	return r
}
