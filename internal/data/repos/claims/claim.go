package claims

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type ClaimRepo interface {
	Create(dbc dbctx.Context, claims []*types.Claim) ([]*types.Claim, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Claim, error)
	GetByClaimNumber(dbc dbctx.Context, claimNumber string) (*types.Claim, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Claim, error)
	ListByStatus(dbc dbctx.Context, statuses []string) ([]*types.Claim, error)
	CountByStatus(dbc dbctx.Context) (map[string]int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	UpdateFieldsIfStatus(dbc dbctx.Context, id uuid.UUID, requiredStatus string, updates map[string]interface{}) (bool, error)
}

type claimRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClaimRepo(db *gorm.DB, baseLog *logger.Logger) ClaimRepo {
	return &claimRepo{db: db, log: baseLog.With("repo", "ClaimRepo")}
}

func (r *claimRepo) Create(dbc dbctx.Context, claims []*types.Claim) ([]*types.Claim, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(claims) == 0 {
		return []*types.Claim{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&claims).Error; err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *claimRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Claim, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Claim
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

func (r *claimRepo) GetByClaimNumber(dbc dbctx.Context, claimNumber string) (*types.Claim, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if claimNumber == "" {
		return nil, nil
	}
	var c types.Claim
	err := transaction.WithContext(dbc.Ctx).
		Where("claim_number = ?", claimNumber).
		Limit(1).
		Find(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return nil, nil
	}
	return &c, nil
}

func (r *claimRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Claim, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Claim
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

func (r *claimRepo) ListByStatus(dbc dbctx.Context, statuses []string) ([]*types.Claim, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Claim
	if len(statuses) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *claimRepo) CountByStatus(dbc dbctx.Context) (map[string]int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Claim{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, rr := range rows {
		out[rr.Status] = rr.Count
	}
	return out, nil
}

func (r *claimRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Claim{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateFieldsIfStatus applies updates only while the claim is still in
// requiredStatus, reporting whether a row changed. Status transitions
// go through this so a concurrent cancel or review wins the race.
func (r *claimRepo) UpdateFieldsIfStatus(dbc dbctx.Context, id uuid.UUID, requiredStatus string, updates map[string]interface{}) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return false, nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Claim{}).
		Where("id = ? AND status = ?", id, requiredStatus).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
