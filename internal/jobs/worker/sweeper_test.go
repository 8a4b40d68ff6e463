package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	jobrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/jobs"
	notifrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/notifications"
	"github.com/sorosurance/sorosurance-backend/internal/data/repos/testutil"
	jobtypes "github.com/sorosurance/sorosurance-backend/internal/domain/jobs"
	notiftypes "github.com/sorosurance/sorosurance-backend/internal/domain/notifications"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
)

func TestSweepOnceEnqueuesDueNotifications(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	ctx := context.Background()

	owner := testutil.SeedUser(t, ctx, tx, "+2348077665544")

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	due := &notiftypes.Notification{
		ID:           uuid.New(),
		UserID:       owner.ID,
		Channel:      notiftypes.ChannelSMS,
		Title:        "Claim received",
		Message:      "We are reviewing your claim.",
		Status:       notiftypes.StatusPending,
		ScheduledFor: &past,
	}
	notYet := &notiftypes.Notification{
		ID:           uuid.New(),
		UserID:       owner.ID,
		Channel:      notiftypes.ChannelSMS,
		Title:        "Premium reminder",
		Message:      "Your premium is due next week.",
		Status:       notiftypes.StatusPending,
		ScheduledFor: &future,
	}
	for _, n := range []*notiftypes.Notification{due, notYet} {
		if err := tx.WithContext(ctx).Create(n).Error; err != nil {
			t.Fatalf("seed notification: %v", err)
		}
	}

	notifs := notifrepo.NewNotificationRepo(tx, log)
	runs := jobrepo.NewJobRunRepo(tx, log)
	sweeper := NewNotificationSweeper(tx, log, notifs, runs)

	n, err := sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if n != 1 {
		t.Fatalf("enqueued: want=1 got=%d", n)
	}

	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	job, err := runs.GetLatestByEntity(dbc, owner.ID, "notification", due.ID, jobtypes.TypeNotificationSend)
	if err != nil {
		t.Fatalf("load delivery job: %v", err)
	}
	if job == nil || job.Status != jobtypes.StatusQueued {
		t.Fatalf("expected a queued delivery job for the due notification, got %+v", job)
	}
	if fut, err := runs.GetLatestByEntity(dbc, owner.ID, "notification", notYet.ID, jobtypes.TypeNotificationSend); err != nil || fut != nil {
		t.Fatalf("future notification should not be enqueued yet: job=%+v err=%v", fut, err)
	}

	// A second sweep must not duplicate the still-runnable job.
	n, err = sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("second SweepOnce: %v", err)
	}
	if n != 0 {
		t.Fatalf("second sweep enqueued: want=0 got=%d", n)
	}
}
