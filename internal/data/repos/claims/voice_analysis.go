package claims

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

// VoiceAnalysisRepo is append-only: analyses are never updated in
// place, a reprocessing run writes a new row.
type VoiceAnalysisRepo interface {
	Create(dbc dbctx.Context, analyses []*types.VoiceAnalysis) ([]*types.VoiceAnalysis, error)
	ListByClaim(dbc dbctx.Context, claimID uuid.UUID) ([]*types.VoiceAnalysis, error)
	GetLatestByClaim(dbc dbctx.Context, claimID uuid.UUID) (*types.VoiceAnalysis, error)
}

type voiceAnalysisRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVoiceAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) VoiceAnalysisRepo {
	return &voiceAnalysisRepo{db: db, log: baseLog.With("repo", "VoiceAnalysisRepo")}
}

func (r *voiceAnalysisRepo) Create(dbc dbctx.Context, analyses []*types.VoiceAnalysis) ([]*types.VoiceAnalysis, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(analyses) == 0 {
		return []*types.VoiceAnalysis{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&analyses).Error; err != nil {
		return nil, err
	}
	return analyses, nil
}

func (r *voiceAnalysisRepo) ListByClaim(dbc dbctx.Context, claimID uuid.UUID) ([]*types.VoiceAnalysis, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.VoiceAnalysis
	if claimID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("claim_id = ?", claimID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *voiceAnalysisRepo) GetLatestByClaim(dbc dbctx.Context, claimID uuid.UUID) (*types.VoiceAnalysis, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if claimID == uuid.Nil {
		return nil, nil
	}
	var va types.VoiceAnalysis
	err := transaction.WithContext(dbc.Ctx).
		Where("claim_id = ?", claimID).
		Order("created_at DESC").
		Limit(1).
		Find(&va).Error
	if err != nil {
		return nil, err
	}
	if va.ID == uuid.Nil {
		return nil, nil
	}
	return &va, nil
}
