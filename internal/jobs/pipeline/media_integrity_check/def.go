package media_integrity_check

import (
	"gorm.io/gorm"

	claimrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/claims"
	userrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/user"
	jobtypes "github.com/sorosurance/sorosurance-backend/internal/domain/jobs"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
	"github.com/sorosurance/sorosurance-backend/internal/scoring"
	"github.com/sorosurance/sorosurance-backend/internal/services"
)

type Pipeline struct {
	db        *gorm.DB
	log       *logger.Logger
	claims    claimrepo.ClaimRepo
	voices    claimrepo.VoiceAnalysisRepo
	scores    claimrepo.ScoreLogRepo
	users     userrepo.UserRepo
	integrity services.MediaIntegrityService
	scorer    *scoring.Engine
	weights   scoring.Weights
}

func New(
	db *gorm.DB,
	baseLog *logger.Logger,
	claims claimrepo.ClaimRepo,
	voices claimrepo.VoiceAnalysisRepo,
	scores claimrepo.ScoreLogRepo,
	users userrepo.UserRepo,
	integrity services.MediaIntegrityService,
	scorer *scoring.Engine,
	weights scoring.Weights,
) *Pipeline {
	return &Pipeline{
		db:        db,
		log:       baseLog.With("job", jobtypes.TypeMediaIntegrity),
		claims:    claims,
		voices:    voices,
		scores:    scores,
		users:     users,
		integrity: integrity,
		scorer:    scorer,
		weights:   weights,
	}
}

func (p *Pipeline) Type() string { return jobtypes.TypeMediaIntegrity }
