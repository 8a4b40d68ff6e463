package notification_send

import (
	"gorm.io/gorm"

	jobtypes "github.com/sorosurance/sorosurance-backend/internal/domain/jobs"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
	"github.com/sorosurance/sorosurance-backend/internal/services"
)

type Pipeline struct {
	db     *gorm.DB
	log    *logger.Logger
	notifs services.NotificationService
}

func New(db *gorm.DB, baseLog *logger.Logger, notifs services.NotificationService) *Pipeline {
	return &Pipeline{
		db:     db,
		log:    baseLog.With("job", jobtypes.TypeNotificationSend),
		notifs: notifs,
	}
}

func (p *Pipeline) Type() string { return jobtypes.TypeNotificationSend }
