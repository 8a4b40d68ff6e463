package app

import (
	httpH "github.com/sorosurance/sorosurance-backend/internal/http/handlers"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type Handlers struct {
	Auth    *httpH.AuthHandler
	User    *httpH.UserHandler
	Product *httpH.ProductHandler
	Policy  *httpH.PolicyHandler
	Claim   *httpH.ClaimHandler

	Payment      *httpH.PaymentHandler
	USSD         *httpH.USSDHandler
	Notification *httpH.NotificationHandler
	Dashboard    *httpH.DashboardHandler

	Jobs   *httpH.JobHandler
	Health *httpH.HealthHandler
}

// Payment and USSD stay nil when their backing clients were not
// configured; the router skips nil handlers so the rest of the API
// keeps serving.
func wireHandlers(log *logger.Logger, repos Repos, services Services) Handlers {
	log.Info("Wiring handlers...")
	h := Handlers{
		Auth:    httpH.NewAuthHandler(services.Auth),
		User:    httpH.NewUserHandler(repos.User),
		Product: httpH.NewProductHandler(services.Product),
		Policy:  httpH.NewPolicyHandler(services.Policy),
		Claim:   httpH.NewClaimHandler(services.Claim),

		Notification: httpH.NewNotificationHandler(services.Notification),
		Dashboard:    httpH.NewDashboardHandler(services.Dashboard),

		Jobs:   httpH.NewJobHandler(services.Job),
		Health: httpH.NewHealthHandler(),
	}
	if services.Payment != nil {
		h.Payment = httpH.NewPaymentHandler(services.Payment, services.Receipt)
	}
	if services.USSD != nil {
		h.USSD = httpH.NewUSSDHandler(services.USSD)
	}
	return h
}
