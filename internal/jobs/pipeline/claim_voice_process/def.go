package claim_voice_process

import (
	"gorm.io/gorm"

	"github.com/sorosurance/sorosurance-backend/internal/clients/gcp"
	claimrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/claims"
	notifrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/notifications"
	userrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/user"
	jobtypes "github.com/sorosurance/sorosurance-backend/internal/domain/jobs"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
	"github.com/sorosurance/sorosurance-backend/internal/scoring"
	"github.com/sorosurance/sorosurance-backend/internal/services"
	"github.com/sorosurance/sorosurance-backend/internal/voice"
)

type Pipeline struct {
	db      *gorm.DB
	log     *logger.Logger
	claims  claimrepo.ClaimRepo
	voices  claimrepo.VoiceAnalysisRepo
	scores  claimrepo.ScoreLogRepo
	users   userrepo.UserRepo
	notifs  notifrepo.NotificationRepo
	bucket  gcp.BucketService
	stt     *voice.Chain
	media   services.MediaIntegrityService
	scorer  *scoring.Engine
	weights scoring.Weights
}

func New(
	db *gorm.DB,
	baseLog *logger.Logger,
	claims claimrepo.ClaimRepo,
	voices claimrepo.VoiceAnalysisRepo,
	scores claimrepo.ScoreLogRepo,
	users userrepo.UserRepo,
	notifs notifrepo.NotificationRepo,
	bucket gcp.BucketService,
	stt *voice.Chain,
	media services.MediaIntegrityService,
	scorer *scoring.Engine,
	weights scoring.Weights,
) *Pipeline {
	return &Pipeline{
		db:      db,
		log:     baseLog.With("job", jobtypes.TypeClaimVoiceProcess),
		claims:  claims,
		voices:  voices,
		scores:  scores,
		users:   users,
		notifs:  notifs,
		bucket:  bucket,
		stt:     stt,
		media:   media,
		scorer:  scorer,
		weights: weights,
	}
}

func (p *Pipeline) Type() string { return jobtypes.TypeClaimVoiceProcess }
