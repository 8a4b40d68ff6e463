package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/sorosurance/sorosurance-backend/internal/clients/gcp"
	"github.com/sorosurance/sorosurance-backend/internal/clients/paystack"
	"github.com/sorosurance/sorosurance-backend/internal/jobs/pipeline/claim_voice_process"
	"github.com/sorosurance/sorosurance-backend/internal/jobs/pipeline/media_integrity_check"
	"github.com/sorosurance/sorosurance-backend/internal/jobs/pipeline/notification_send"
	jobruntime "github.com/sorosurance/sorosurance-backend/internal/jobs/runtime"
	jobworker "github.com/sorosurance/sorosurance-backend/internal/jobs/worker"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
	"github.com/sorosurance/sorosurance-backend/internal/scoring"
	"github.com/sorosurance/sorosurance-backend/internal/services"
	"github.com/sorosurance/sorosurance-backend/internal/voice"
)

type Services struct {
	Auth         services.AuthService
	Product      services.ProductService
	Policy       services.PolicyService
	Claim        services.ClaimService
	Payment      services.PaymentService
	Receipt      services.ReceiptService
	Notification services.NotificationService
	USSD         services.USSDService
	Dashboard    services.DashboardService
	Media        services.MediaIntegrityService

	JobNotifier services.JobNotifier
	Job         services.JobService
	JobRegistry *jobruntime.Registry
	JobWorker   *jobworker.Worker
	NotifSweep  *jobworker.NotificationSweeper

	ScoringEngine *scoring.Engine
	Weights       scoring.Weights
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")
	var s Services

	weights, err := scoring.LoadWeights()
	if err != nil {
		return s, fmt.Errorf("load scoring weights: %w", err)
	}
	s.Weights = weights

	engine, err := scoring.NewEngine(log, weights, scoring.NewHeuristicProvider())
	if err != nil {
		return s, fmt.Errorf("init scoring engine: %w", err)
	}
	s.ScoringEngine = engine

	// Transcription falls through the trust tiers: cloud recognizer
	// first, self-hosted whisper next, silence last.
	var engines []voice.Engine
	if clients.Speech != nil {
		engines = append(engines, gcp.NewSpeechEngine(clients.Speech))
	}
	if clients.Whisper != nil {
		engines = append(engines, clients.Whisper)
	}
	stt := voice.NewChain(log, engines...)

	s.JobNotifier = services.NewLogJobNotifier(log)
	s.Job = services.NewJobService(db, log, repos.JobRun, s.JobNotifier)

	s.Auth = services.NewAuthService(db, log, repos.User, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	s.Product = services.NewProductService(db, log, repos.Product, repos.User)
	s.Policy = services.NewPolicyService(db, log, repos.Policy, repos.Product, repos.User)
	s.Claim = services.NewClaimService(db, log, repos.Claim, repos.VoiceAnalysis, repos.ScoreLog, repos.Policy, repos.User, repos.Notification, clients.Bucket, s.Job)
	s.Notification = services.NewNotificationService(db, log, repos.Notification, repos.User, clients.Twilio, clients.Sendgrid)
	s.Media = services.NewMediaIntegrityService(log, clients.Bucket, clients.Vision, clients.VideoIntel, clients.DocumentAI)
	s.Dashboard = services.NewDashboardService(db, log, repos.Claim, repos.Payment)

	receipt, err := services.NewReceiptService(db, log, repos.Payment, repos.User, clients.Bucket)
	if err != nil {
		return s, fmt.Errorf("init receipt service: %w", err)
	}
	s.Receipt = receipt

	if clients.Paystack != nil {
		s.Payment = services.NewPaymentService(
			db, log,
			repos.Payment, repos.Policy, repos.User,
			s.Claim, s.Policy,
			clients.Paystack,
			paystack.ConfigFromEnv().SecretKey,
		)
	}
	if clients.Sessions != nil {
		s.USSD = services.NewUSSDService(db, log, clients.Sessions, repos.User, repos.Policy, repos.Product, repos.Claim)
	}

	registry := jobruntime.NewRegistry()
	pipelines := []jobruntime.Handler{
		claim_voice_process.New(db, log, repos.Claim, repos.VoiceAnalysis, repos.ScoreLog, repos.User, repos.Notification, clients.Bucket, stt, s.Media, engine, weights),
		media_integrity_check.New(db, log, repos.Claim, repos.VoiceAnalysis, repos.ScoreLog, repos.User, s.Media, engine, weights),
		notification_send.New(db, log, s.Notification),
	}
	for _, p := range pipelines {
		if err := registry.Register(p); err != nil {
			return s, fmt.Errorf("register pipeline %s: %w", p.Type(), err)
		}
	}
	s.JobRegistry = registry
	s.JobWorker = jobworker.NewWorker(db, log, repos.JobRun, registry, s.JobNotifier)
	s.NotifSweep = jobworker.NewNotificationSweeper(db, log, repos.Notification, repos.JobRun)

	return s, nil
}
