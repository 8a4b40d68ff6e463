package insurance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/sorosurance/sorosurance-backend/internal/domain/insurance"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type PolicyRepo interface {
	Create(dbc dbctx.Context, policies []*types.Policy) ([]*types.Policy, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Policy, error)
	GetByPolicyNumber(dbc dbctx.Context, policyNumber string) (*types.Policy, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Policy, error)
	ListActiveByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Policy, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type policyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPolicyRepo(db *gorm.DB, baseLog *logger.Logger) PolicyRepo {
	return &policyRepo{db: db, log: baseLog.With("repo", "PolicyRepo")}
}

func (r *policyRepo) Create(dbc dbctx.Context, policies []*types.Policy) ([]*types.Policy, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(policies) == 0 {
		return []*types.Policy{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

func (r *policyRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Policy, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Policy
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *policyRepo) GetByPolicyNumber(dbc dbctx.Context, policyNumber string) (*types.Policy, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if policyNumber == "" {
		return nil, nil
	}
	var p types.Policy
	err := transaction.WithContext(dbc.Ctx).
		Where("policy_number = ?", policyNumber).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *policyRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Policy, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Policy
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *policyRepo) ListActiveByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Policy, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Policy
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND status = ?", userID, types.PolicyActive).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *policyRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Policy{}).
		Where("id = ?", id).
		Updates(updates).Error
}
