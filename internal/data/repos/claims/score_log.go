package claims

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

// ScoreLogRepo is the append-only audit trail of score calculations.
// There is deliberately no update or delete.
type ScoreLogRepo interface {
	Create(dbc dbctx.Context, logs []*types.SoroScoreLog) ([]*types.SoroScoreLog, error)
	ListByClaim(dbc dbctx.Context, claimID uuid.UUID) ([]*types.SoroScoreLog, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.SoroScoreLog, error)
}

type scoreLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScoreLogRepo(db *gorm.DB, baseLog *logger.Logger) ScoreLogRepo {
	return &scoreLogRepo{db: db, log: baseLog.With("repo", "ScoreLogRepo")}
}

func (r *scoreLogRepo) Create(dbc dbctx.Context, logs []*types.SoroScoreLog) ([]*types.SoroScoreLog, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(logs) == 0 {
		return []*types.SoroScoreLog{}, nil
	}
	for _, l := range logs {
		if !l.TargetValid() {
			return nil, fmt.Errorf("score log must reference exactly one subject: %w", errors.ErrInvalidArgument)
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *scoreLogRepo) ListByClaim(dbc dbctx.Context, claimID uuid.UUID) ([]*types.SoroScoreLog, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.SoroScoreLog
	if claimID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("claim_id = ?", claimID).
		Order("calculated_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scoreLogRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.SoroScoreLog, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.SoroScoreLog
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("calculated_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
