package payments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/sorosurance/sorosurance-backend/internal/domain/payments"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type PaymentRepo interface {
	Create(dbc dbctx.Context, payments []*types.Payment) ([]*types.Payment, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Payment, error)
	GetByReference(dbc dbctx.Context, reference string) (*types.Payment, error)
	GetByGatewayReference(dbc dbctx.Context, gatewayReference string) (*types.Payment, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Payment, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	UpdateFieldsIfStatus(dbc dbctx.Context, id uuid.UUID, requiredStatus string, updates map[string]interface{}) (bool, error)
	SumCompletedByType(dbc dbctx.Context, paymentType string) (float64, error)
}

type paymentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaymentRepo(db *gorm.DB, baseLog *logger.Logger) PaymentRepo {
	return &paymentRepo{db: db, log: baseLog.With("repo", "PaymentRepo")}
}

func (r *paymentRepo) Create(dbc dbctx.Context, payments []*types.Payment) ([]*types.Payment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(payments) == 0 {
		return []*types.Payment{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *paymentRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Payment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Payment
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

func (r *paymentRepo) GetByReference(dbc dbctx.Context, reference string) (*types.Payment, error) {
	return r.getByColumn(dbc, "payment_reference", reference)
}

func (r *paymentRepo) GetByGatewayReference(dbc dbctx.Context, gatewayReference string) (*types.Payment, error) {
	return r.getByColumn(dbc, "gateway_reference", gatewayReference)
}

func (r *paymentRepo) getByColumn(dbc dbctx.Context, column, value string) (*types.Payment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if value == "" {
		return nil, nil
	}
	var p types.Payment
	err := transaction.WithContext(dbc.Ctx).
		Where(column+" = ?", value).
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

func (r *paymentRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Payment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Payment
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("initiated_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *paymentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Payment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *paymentRepo) UpdateFieldsIfStatus(dbc dbctx.Context, id uuid.UUID, requiredStatus string, updates map[string]interface{}) (bool, error) {
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
		Model(&types.Payment{}).
		Where("id = ? AND status = ?", id, requiredStatus).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *paymentRepo) SumCompletedByType(dbc dbctx.Context, paymentType string) (float64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var total float64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("payment_type = ? AND status = ?", paymentType, types.StatusCompleted).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
