package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	jobrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/jobs"
	notifrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/notifications"
	jobtypes "github.com/sorosurance/sorosurance-backend/internal/domain/jobs"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/envutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

// NotificationSweeper re-enqueues delivery jobs for pending notifications
// that are due. Covers rows whose scheduled_for was still in the future
// when their original delivery job ran, and rows whose job was lost.
type NotificationSweeper struct {
	db     *gorm.DB
	log    *logger.Logger
	notifs notifrepo.NotificationRepo
	runs   jobrepo.JobRunRepo
}

func NewNotificationSweeper(db *gorm.DB, baseLog *logger.Logger, notifs notifrepo.NotificationRepo, runs jobrepo.JobRunRepo) *NotificationSweeper {
	return &NotificationSweeper{
		db:     db,
		log:    baseLog.With("component", "NotificationSweeper"),
		notifs: notifs,
		runs:   runs,
	}
}

func (s *NotificationSweeper) Start(ctx context.Context) {
	interval := envutil.Duration("NOTIFICATION_SWEEP_INTERVAL", time.Minute)
	s.log.Info("Starting notification sweeper", "interval", interval)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.log.Info("Notification sweeper stopped")
				return
			case <-ticker.C:
				if n, err := s.SweepOnce(ctx); err != nil {
					s.log.Warn("Notification sweep failed", "error", err)
				} else if n > 0 {
					s.log.Info("Notification sweep enqueued deliveries", "count", n)
				}
			}
		}
	}()
}

// SweepOnce enqueues one notification_send job per due pending
// notification that has no runnable delivery job yet. Returns the
// number of jobs enqueued.
func (s *NotificationSweeper) SweepOnce(ctx context.Context) (int, error) {
	batch := envutil.Int("NOTIFICATION_SWEEP_BATCH", 50)
	dbc := dbctx.New(ctx)

	notes, err := s.notifs.ListPending(dbc, batch)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, note := range notes {
		has, err := s.runs.HasRunnableForEntity(dbc, note.UserID, "notification", note.ID, jobtypes.TypeNotificationSend)
		if err != nil {
			return enqueued, err
		}
		if has {
			continue
		}

		payload, err := json.Marshal(map[string]string{"notification_id": note.ID.String()})
		if err != nil {
			return enqueued, err
		}
		now := time.Now()
		nid := note.ID
		job := &jobtypes.JobRun{
			ID:          uuid.New(),
			OwnerUserID: note.UserID,
			JobType:     jobtypes.TypeNotificationSend,
			EntityType:  "notification",
			EntityID:    &nid,
			Status:      jobtypes.StatusQueued,
			Stage:       "queued",
			Message:     "Queued",
			Payload:     datatypes.JSON(payload),
			Result:      datatypes.JSON([]byte(`{}`)),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := s.runs.Create(dbc, []*jobtypes.JobRun{job}); err != nil {
			return enqueued, err
		}
		enqueued++
	}
	return enqueued, nil
}
