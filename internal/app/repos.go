package app

import (
	"gorm.io/gorm"

	claimrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/claims"
	insurancerepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/insurance"
	jobrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/jobs"
	notifrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/notifications"
	paymentrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/payments"
	userrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/user"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type Repos struct {
	User          userrepo.UserRepo
	Product       insurancerepo.ProductRepo
	Policy        insurancerepo.PolicyRepo
	Claim         claimrepo.ClaimRepo
	VoiceAnalysis claimrepo.VoiceAnalysisRepo
	ScoreLog      claimrepo.ScoreLogRepo
	Payment       paymentrepo.PaymentRepo
	Notification  notifrepo.NotificationRepo
	JobRun        jobrepo.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          userrepo.NewUserRepo(db, log),
		Product:       insurancerepo.NewProductRepo(db, log),
		Policy:        insurancerepo.NewPolicyRepo(db, log),
		Claim:         claimrepo.NewClaimRepo(db, log),
		VoiceAnalysis: claimrepo.NewVoiceAnalysisRepo(db, log),
		ScoreLog:      claimrepo.NewScoreLogRepo(db, log),
		Payment:       paymentrepo.NewPaymentRepo(db, log),
		Notification:  notifrepo.NewNotificationRepo(db, log),
		JobRun:        jobrepo.NewJobRunRepo(db, log),
	}
}
