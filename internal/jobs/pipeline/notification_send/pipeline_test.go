package notification_send

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/sorosurance/sorosurance-backend/internal/clients/twilio"
	jobrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/jobs"
	notifrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/notifications"
	"github.com/sorosurance/sorosurance-backend/internal/data/repos/testutil"
	userrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/user"
	jobtypes "github.com/sorosurance/sorosurance-backend/internal/domain/jobs"
	notiftypes "github.com/sorosurance/sorosurance-backend/internal/domain/notifications"
	jobrt "github.com/sorosurance/sorosurance-backend/internal/jobs/runtime"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/services"
)

// recordingTwilio counts outbound calls so tests can assert exactly one
// delivery attempt per dispatched notification.
type recordingTwilio struct {
	smsTo   []string
	callsTo []string
}

func (c *recordingTwilio) SendSMS(ctx context.Context, to string, body string) (*twilio.Message, error) {
	c.smsTo = append(c.smsTo, to)
	return &twilio.Message{SID: "SM" + uuid.NewString(), To: to, Status: "queued"}, nil
}

func (c *recordingTwilio) SendWhatsApp(ctx context.Context, to string, body string) (*twilio.Message, error) {
	c.smsTo = append(c.smsTo, to)
	return &twilio.Message{SID: "SM" + uuid.NewString(), To: to, Status: "queued"}, nil
}

func (c *recordingTwilio) PlaceVoiceCall(ctx context.Context, to string, twiml string) (*twilio.Call, error) {
	c.callsTo = append(c.callsTo, to)
	return &twilio.Call{SID: "CA" + uuid.NewString(), To: to, Status: "queued"}, nil
}

type noopNotifier struct{}

func (noopNotifier) JobProgress(ownerUserID uuid.UUID, job *jobtypes.JobRun, stage string, pct int, msg string) {
}
func (noopNotifier) JobFailed(ownerUserID uuid.UUID, job *jobtypes.JobRun, stage string, errMsg string) {
}
func (noopNotifier) JobDone(ownerUserID uuid.UUID, job *jobtypes.JobRun) {}

func TestRunDeliversPendingNotification(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	ctx := context.Background()

	owner := testutil.SeedUser(t, ctx, tx, "+2348033112244")

	notifs := notifrepo.NewNotificationRepo(tx, log)
	users := userrepo.NewUserRepo(tx, log)
	runs := jobrepo.NewJobRunRepo(tx, log)

	note := &notiftypes.Notification{
		ID:      uuid.New(),
		UserID:  owner.ID,
		Channel: notiftypes.ChannelSMS,
		Title:   "Claim approved",
		Message: "Your claim has been approved.",
		Status:  notiftypes.StatusPending,
	}
	if err := tx.WithContext(ctx).Create(note).Error; err != nil {
		t.Fatalf("seed notification: %v", err)
	}

	payload, _ := json.Marshal(map[string]string{"notification_id": note.ID.String()})
	job := &jobtypes.JobRun{
		ID:          uuid.New(),
		OwnerUserID: owner.ID,
		JobType:     jobtypes.TypeNotificationSend,
		EntityType:  "notification",
		EntityID:    &note.ID,
		Status:      jobtypes.StatusRunning,
		Stage:       "start",
		Attempts:    1,
		Payload:     datatypes.JSON(payload),
	}
	if err := tx.WithContext(ctx).Create(job).Error; err != nil {
		t.Fatalf("seed job run: %v", err)
	}

	sms := &recordingTwilio{}
	svc := services.NewNotificationService(tx, log, notifs, users, sms, nil)
	p := New(tx, log, svc)

	jc := jobrt.NewContext(ctx, tx, job, runs, noopNotifier{})
	if err := p.Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if job.Status != jobtypes.StatusSucceeded {
		t.Fatalf("job status: want=%q got=%q", jobtypes.StatusSucceeded, job.Status)
	}

	if len(sms.smsTo) != 1 {
		t.Fatalf("sms deliveries: want=1 got=%d", len(sms.smsTo))
	}
	if sms.smsTo[0] != owner.PhoneNumber {
		t.Fatalf("sms recipient: want=%s got=%s", owner.PhoneNumber, sms.smsTo[0])
	}
	if len(sms.callsTo) != 0 {
		t.Fatalf("unexpected voice calls: %v", sms.callsTo)
	}

	got, err := notifs.GetByIDs(dbctx.Context{Ctx: ctx, Tx: tx}, []uuid.UUID{note.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("reload notification: %v (n=%d)", err, len(got))
	}
	if got[0].Status != notiftypes.StatusSent {
		t.Fatalf("notification status: want=%q got=%q", notiftypes.StatusSent, got[0].Status)
	}
	if got[0].SentAt == nil {
		t.Fatal("sent_at not stamped")
	}

	// Dispatching a second time is a no-op once the row left pending.
	if err := svc.Dispatch(dbctx.Context{Ctx: ctx, Tx: tx}, note.ID); err != nil {
		t.Fatalf("re-dispatch: %v", err)
	}
	if len(sms.smsTo) != 1 {
		t.Fatalf("re-dispatch sent again: deliveries=%d", len(sms.smsTo))
	}
}

func TestRunFailsOnMissingNotificationID(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	ctx := context.Background()

	owner := testutil.SeedUser(t, ctx, tx, "+2348033112255")

	job := &jobtypes.JobRun{
		ID:          uuid.New(),
		OwnerUserID: owner.ID,
		JobType:     jobtypes.TypeNotificationSend,
		EntityType:  "notification",
		Status:      jobtypes.StatusRunning,
		Stage:       "start",
		Attempts:    1,
		Payload:     datatypes.JSON([]byte(`{}`)),
	}
	if err := tx.WithContext(ctx).Create(job).Error; err != nil {
		t.Fatalf("seed job run: %v", err)
	}

	sms := &recordingTwilio{}
	svc := services.NewNotificationService(tx, log,
		notifrepo.NewNotificationRepo(tx, log), userrepo.NewUserRepo(tx, log), sms, nil)
	p := New(tx, log, svc)

	jc := jobrt.NewContext(ctx, tx, job, jobrepo.NewJobRunRepo(tx, log), noopNotifier{})
	if err := p.Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if job.Status != jobtypes.StatusFailed {
		t.Fatalf("job status: want=%q got=%q", jobtypes.StatusFailed, job.Status)
	}
	if len(sms.smsTo)+len(sms.callsTo) != 0 {
		t.Fatal("delivery attempted without a notification id")
	}
}
