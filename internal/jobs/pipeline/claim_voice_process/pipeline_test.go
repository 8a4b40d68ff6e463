package claim_voice_process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sorosurance/sorosurance-backend/internal/clients/gcp"
	claimrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/claims"
	jobrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/jobs"
	notifrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/notifications"
	"github.com/sorosurance/sorosurance-backend/internal/data/repos/testutil"
	userrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/user"
	claimtypes "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	jobtypes "github.com/sorosurance/sorosurance-backend/internal/domain/jobs"
	usertypes "github.com/sorosurance/sorosurance-backend/internal/domain/user"
	jobrt "github.com/sorosurance/sorosurance-backend/internal/jobs/runtime"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/scoring"
	"github.com/sorosurance/sorosurance-backend/internal/voice"
)

type memBucket struct {
	key  string
	data []byte
}

func (b *memBucket) UploadFile(dbc dbctx.Context, category gcp.BucketCategory, key string, file io.Reader) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.key, b.data = key, data
	return nil
}

func (b *memBucket) DeleteFile(dbc dbctx.Context, category gcp.BucketCategory, key string) error {
	return nil
}

func (b *memBucket) DownloadFile(ctx context.Context, category gcp.BucketCategory, key string) (io.ReadCloser, error) {
	data, err := b.DownloadBytes(ctx, category, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memBucket) DownloadBytes(ctx context.Context, category gcp.BucketCategory, key string) ([]byte, error) {
	if key != b.key {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return b.data, nil
}

func (b *memBucket) ListKeys(ctx context.Context, category gcp.BucketCategory, prefix string) ([]string, error) {
	return []string{b.key}, nil
}

func (b *memBucket) GetPublicURL(category gcp.BucketCategory, key string) string { return "" }

func (b *memBucket) GCSURI(category gcp.BucketCategory, key string) (string, error) {
	return "gs://test-bucket/" + key, nil
}

type fixedSTT struct {
	text string
}

func (e *fixedSTT) Name() string { return "fixed" }

func (e *fixedSTT) Transcribe(ctx context.Context, audio []byte, sampleRate int) (voice.Transcript, error) {
	return voice.Transcript{Text: e.text, Confidence: 0.9, Engine: e.Name()}, nil
}

type noopNotifier struct{}

func (noopNotifier) JobProgress(ownerUserID uuid.UUID, job *jobtypes.JobRun, stage string, pct int, msg string) {
}
func (noopNotifier) JobFailed(ownerUserID uuid.UUID, job *jobtypes.JobRun, stage string, errMsg string) {
}
func (noopNotifier) JobDone(ownerUserID uuid.UUID, job *jobtypes.JobRun) {}

type fixedComponents struct {
	comps  scoring.Components
	lastIn scoring.ClaimInput
}

func (p *fixedComponents) Components(ctx context.Context, in scoring.ClaimInput) (scoring.Components, error) {
	p.lastIn = in
	return p.comps, nil
}

type fakeMedia struct {
	score *float64
}

func (m *fakeMedia) EvaluateClaim(ctx context.Context, claim *claimtypes.Claim) (*float64, map[string]any, error) {
	if m.score == nil {
		return nil, nil, nil
	}
	v := *m.score
	return &v, map[string]any{"item_count": 1}, nil
}

// wavFixture renders one second of constant half-scale mono samples,
// a clean recording as far as the quality heuristics are concerned.
func wavFixture(t *testing.T) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "claim.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	enc := wav.NewEncoder(f, 16000, 16, 1, 1)
	data := make([]int, 16000)
	for i := range data {
		data[i] = 16000
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 16000},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	return raw
}

type pipelineFixture struct {
	tx     *gorm.DB
	owner  *usertypes.User
	claim  *claimtypes.Claim
	job    *jobtypes.JobRun
	claims claimrepo.ClaimRepo
	voices claimrepo.VoiceAnalysisRepo
	scores claimrepo.ScoreLogRepo
	users  userrepo.UserRepo
	notifs notifrepo.NotificationRepo
	runs   jobrepo.JobRunRepo
	media  *fakeMedia
	prov   *fixedComponents
	jc     *jobrt.Context
	run    func() error
}

func newPipelineFixture(t *testing.T, comps scoring.Components) *pipelineFixture {
	t.Helper()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	ctx := context.Background()

	owner := testutil.SeedUser(t, ctx, tx, "+2348012225511")
	product := testutil.SeedProduct(t, ctx, tx)
	policy := testutil.SeedPolicy(t, ctx, tx, owner.ID, product.ID)
	claim := testutil.SeedClaim(t, ctx, tx, owner.ID, policy.ID, claimtypes.StatusSubmitted)

	bucket := &memBucket{}
	if err := bucket.UploadFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryClaimAudio, "claims/"+claim.ID.String()+"/claim.wav", bytes.NewReader(wavFixture(t))); err != nil {
		t.Fatalf("stage audio: %v", err)
	}
	if err := tx.Model(&claimtypes.Claim{}).Where("id = ?", claim.ID).
		Update("audio_bucket_key", bucket.key).Error; err != nil {
		t.Fatalf("set audio key: %v", err)
	}

	payload, _ := json.Marshal(map[string]string{"claim_id": claim.ID.String()})
	job := &jobtypes.JobRun{
		ID:          uuid.New(),
		OwnerUserID: owner.ID,
		JobType:     jobtypes.TypeClaimVoiceProcess,
		EntityType:  "claim",
		EntityID:    &claim.ID,
		Status:      jobtypes.StatusRunning,
		Stage:       "start",
		Attempts:    1,
		Payload:     datatypes.JSON(payload),
	}
	if err := tx.WithContext(ctx).Create(job).Error; err != nil {
		t.Fatalf("seed job run: %v", err)
	}

	prov := &fixedComponents{comps: comps}
	engine, err := scoring.NewEngine(log, scoring.DefaultWeights(), prov)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	f := &pipelineFixture{
		tx:     tx,
		owner:  owner,
		claim:  claim,
		job:    job,
		claims: claimrepo.NewClaimRepo(tx, log),
		voices: claimrepo.NewVoiceAnalysisRepo(tx, log),
		scores: claimrepo.NewScoreLogRepo(tx, log),
		users:  userrepo.NewUserRepo(tx, log),
		notifs: notifrepo.NewNotificationRepo(tx, log),
		runs:   jobrepo.NewJobRunRepo(tx, log),
		media:  &fakeMedia{},
		prov:   prov,
	}
	f.jc = jobrt.NewContext(ctx, tx, job, f.runs, noopNotifier{})

	p := New(
		tx, log,
		f.claims, f.voices, f.scores, f.users, f.notifs,
		bucket,
		voice.NewChain(log, &fixedSTT{text: "There was a fire at my shop and we called the police"}),
		f.media,
		engine,
		scoring.DefaultWeights(),
	)
	f.run = func() error { return p.Run(f.jc) }
	return f
}

func TestPipelineAutoApprovesLowRiskClaim(t *testing.T) {
	low := scoring.Components{Inconsistency: 10, Urgency: 10, Sentiment: 10, MediaIntegrity: 10, Historical: 10}
	f := newPipelineFixture(t, low)

	if err := f.run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.job.Status != jobtypes.StatusSucceeded {
		t.Fatalf("job status: want=%q got=%q", jobtypes.StatusSucceeded, f.job.Status)
	}

	dbc := dbctx.Context{Ctx: context.Background(), Tx: f.tx}
	got, err := f.claims.GetByIDs(dbc, []uuid.UUID{f.claim.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("reload claim: %v (n=%d)", err, len(got))
	}
	claim := got[0]
	if claim.Status != claimtypes.StatusApproved {
		t.Fatalf("claim status: want=%q got=%q", claimtypes.StatusApproved, claim.Status)
	}
	if !claim.AutoApproved {
		t.Fatalf("claim not flagged auto approved")
	}
	if claim.ApprovedAmount == nil || *claim.ApprovedAmount != claim.ClaimedAmount {
		t.Fatalf("approved amount: want=%v got=%v", claim.ClaimedAmount, claim.ApprovedAmount)
	}
	if claim.Transcript == "" {
		t.Fatalf("transcript not recorded on claim")
	}

	analyses, err := f.voices.ListByClaim(dbc, f.claim.ID)
	if err != nil {
		t.Fatalf("ListByClaim analyses: %v", err)
	}
	if len(analyses) != 1 {
		t.Fatalf("voice analyses: want=1 got=%d", len(analyses))
	}
	if analyses[0].RecordingQuality != claimtypes.QualityGood {
		t.Fatalf("recording quality: want=%q got=%q", claimtypes.QualityGood, analyses[0].RecordingQuality)
	}
	if analyses[0].ConfidenceScore <= 0 || analyses[0].ConfidenceScore > 1 {
		t.Fatalf("analysis confidence out of range: %v", analyses[0].ConfidenceScore)
	}

	logs, err := f.scores.ListByClaim(dbc, f.claim.ID)
	if err != nil {
		t.Fatalf("ListByClaim score logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("score logs: want=1 got=%d", len(logs))
	}
	if claim.SoroScore == nil || logs[0].FinalSoroScore != *claim.SoroScore {
		t.Fatalf("score log %v does not match claim score %v", logs[0].FinalSoroScore, claim.SoroScore)
	}

	notes, err := f.notifs.ListByUser(dbc, f.owner.ID)
	if err != nil {
		t.Fatalf("ListByUser notifications: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("notifications: want=1 got=%d", len(notes))
	}
	if notes[0].Title != "Claim approved" {
		t.Fatalf("notification title: want=%q got=%q", "Claim approved", notes[0].Title)
	}

	delivery, err := f.runs.GetLatestByEntity(dbc, f.owner.ID, "notification", notes[0].ID, jobtypes.TypeNotificationSend)
	if err != nil {
		t.Fatalf("load delivery job: %v", err)
	}
	if delivery == nil || delivery.Status != jobtypes.StatusQueued {
		t.Fatalf("expected a queued notification_send job, got %+v", delivery)
	}

	users, err := f.users.GetByIDs(dbc, []uuid.UUID{f.owner.ID})
	if err != nil || len(users) != 1 {
		t.Fatalf("reload owner: %v (n=%d)", err, len(users))
	}
	if users[0].ApprovedClaims != f.owner.ApprovedClaims+1 {
		t.Fatalf("approved claim counter not incremented: got=%d", users[0].ApprovedClaims)
	}
}

func TestPipelineRoutesHighRiskToReview(t *testing.T) {
	high := scoring.Components{Inconsistency: 90, Urgency: 90, Sentiment: 90, MediaIntegrity: 90, Historical: 90}
	f := newPipelineFixture(t, high)

	if err := f.run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.job.Status != jobtypes.StatusSucceeded {
		t.Fatalf("job status: want=%q got=%q", jobtypes.StatusSucceeded, f.job.Status)
	}

	dbc := dbctx.Context{Ctx: context.Background(), Tx: f.tx}
	got, err := f.claims.GetByIDs(dbc, []uuid.UUID{f.claim.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("reload claim: %v (n=%d)", err, len(got))
	}
	claim := got[0]
	if claim.Status != claimtypes.StatusUnderReview {
		t.Fatalf("claim status: want=%q got=%q", claimtypes.StatusUnderReview, claim.Status)
	}
	if claim.AutoApproved {
		t.Fatalf("high risk claim was auto approved")
	}

	notes, err := f.notifs.ListByUser(dbc, f.owner.ID)
	if err != nil {
		t.Fatalf("ListByUser notifications: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("notifications: want=1 got=%d", len(notes))
	}
	if notes[0].Title != "Claim received" {
		t.Fatalf("notification title: want=%q got=%q", "Claim received", notes[0].Title)
	}
	delivery, err := f.runs.GetLatestByEntity(dbc, f.owner.ID, "notification", notes[0].ID, jobtypes.TypeNotificationSend)
	if err != nil {
		t.Fatalf("load delivery job: %v", err)
	}
	if delivery == nil || delivery.Status != jobtypes.StatusQueued {
		t.Fatalf("expected a queued notification_send job, got %+v", delivery)
	}

	users, err := f.users.GetByIDs(dbc, []uuid.UUID{f.owner.ID})
	if err != nil || len(users) != 1 {
		t.Fatalf("reload owner: %v (n=%d)", err, len(users))
	}
	if users[0].ApprovedClaims != f.owner.ApprovedClaims {
		t.Fatalf("approved claim counter moved on a review outcome: got=%d", users[0].ApprovedClaims)
	}
}

func TestPipelineSkipsAlreadyReviewedClaim(t *testing.T) {
	low := scoring.Components{Inconsistency: 10, Urgency: 10, Sentiment: 10, MediaIntegrity: 10, Historical: 10}
	f := newPipelineFixture(t, low)

	if err := f.tx.Model(&claimtypes.Claim{}).Where("id = ?", f.claim.ID).
		Update("status", claimtypes.StatusCancelled).Error; err != nil {
		t.Fatalf("cancel claim: %v", err)
	}

	if err := f.run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.job.Status != jobtypes.StatusSucceeded {
		t.Fatalf("job status: want=%q got=%q", jobtypes.StatusSucceeded, f.job.Status)
	}

	dbc := dbctx.Context{Ctx: context.Background(), Tx: f.tx}
	analyses, err := f.voices.ListByClaim(dbc, f.claim.ID)
	if err != nil {
		t.Fatalf("ListByClaim analyses: %v", err)
	}
	if len(analyses) != 0 {
		t.Fatalf("analyses written for a cancelled claim: got=%d", len(analyses))
	}
}

func TestPipelineFeedsMediaRiskIntoScore(t *testing.T) {
	low := scoring.Components{Inconsistency: 10, Urgency: 10, Sentiment: 10, MediaIntegrity: 10, Historical: 10}
	f := newPipelineFixture(t, low)

	mediaRisk := 85.0
	f.media.score = &mediaRisk

	if err := f.run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.job.Status != jobtypes.StatusSucceeded {
		t.Fatalf("job status: want=%q got=%q", jobtypes.StatusSucceeded, f.job.Status)
	}

	got := f.prov.lastIn.MediaIntegrityScore
	if got == nil || *got != mediaRisk {
		t.Fatalf("media risk not fed into scoring: want=%v got=%v", mediaRisk, got)
	}
}
