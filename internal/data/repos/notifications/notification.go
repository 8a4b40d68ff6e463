package notifications

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/sorosurance/sorosurance-backend/internal/domain/notifications"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type NotificationRepo interface {
	Create(dbc dbctx.Context, notes []*types.Notification) ([]*types.Notification, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Notification, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Notification, error)
	ListPending(dbc dbctx.Context, limit int) ([]*types.Notification, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	MarkRead(dbc dbctx.Context, id uuid.UUID, userID uuid.UUID) (bool, error)
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return &notificationRepo{db: db, log: baseLog.With("repo", "NotificationRepo")}
}

func (r *notificationRepo) Create(dbc dbctx.Context, notes []*types.Notification) ([]*types.Notification, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(notes) == 0 {
		return []*types.Notification{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *notificationRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Notification, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Notification
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

func (r *notificationRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Notification, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Notification
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

func (r *notificationRepo) ListPending(dbc dbctx.Context, limit int) ([]*types.Notification, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*types.Notification
	if err := transaction.WithContext(dbc.Ctx).
		Where("status = ?", types.StatusPending).
		Where("scheduled_for IS NULL OR scheduled_for <= ?", time.Now()).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *notificationRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Notification{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *notificationRepo) MarkRead(dbc dbctx.Context, id uuid.UUID, userID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || userID == uuid.Nil {
		return false, nil
	}
	now := time.Now()
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Notification{}).
		Where("id = ? AND user_id = ? AND status <> ?", id, userID, types.StatusRead).
		Updates(map[string]interface{}{
			"status":     types.StatusRead,
			"read_at":    now,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
