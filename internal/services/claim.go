package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sorosurance/sorosurance-backend/internal/clients/gcp"
	claimrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/claims"
	insurancerepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/insurance"
	notifrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/notifications"
	userrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/user"
	claimtypes "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	jobtypes "github.com/sorosurance/sorosurance-backend/internal/domain/jobs"
	notiftypes "github.com/sorosurance/sorosurance-backend/internal/domain/notifications"
	"github.com/sorosurance/sorosurance-backend/internal/domain/risk"
	usertypes "github.com/sorosurance/sorosurance-backend/internal/domain/user"
	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
	"github.com/sorosurance/sorosurance-backend/internal/platform/ctxutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

// claimTransitions is the single authority on which status moves are
// legal. Cancellation is handled separately: any non-terminal status
// may cancel.
var claimTransitions = map[string][]string{
	claimtypes.StatusDraft:       {claimtypes.StatusSubmitted},
	claimtypes.StatusSubmitted:   {claimtypes.StatusUnderReview, claimtypes.StatusApproved, claimtypes.StatusRejected},
	claimtypes.StatusUnderReview: {claimtypes.StatusApproved, claimtypes.StatusRejected},
	claimtypes.StatusApproved:    {claimtypes.StatusPaid, claimtypes.StatusClosed},
	claimtypes.StatusRejected:    {claimtypes.StatusClosed},
}

// CanTransition reports whether a claim may move from one status to
// another.
func CanTransition(from, to string) bool {
	if to == claimtypes.StatusCancelled {
		return !(&claimtypes.Claim{Status: from}).IsTerminal()
	}
	for _, next := range claimTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type SubmitVoiceClaimInput struct {
	PolicyID         uuid.UUID
	ClaimType        string
	Description      string
	IncidentDate     time.Time
	IncidentLocation string
	ClaimedAmount    float64
	EstimatedLoss    float64
	Audio            []byte
	AudioFilename    string
}

type ReviewClaimInput struct {
	ClaimID        uuid.UUID
	Approve        bool
	Notes          string
	ApprovedAmount *float64
}

type ClaimService interface {
	SubmitVoiceClaim(dbc dbctx.Context, in SubmitVoiceClaimInput) (*claimtypes.Claim, error)
	AttachEvidence(dbc dbctx.Context, claimID uuid.UUID, kind string, filename string, data []byte) (*claimtypes.Claim, error)
	Review(dbc dbctx.Context, in ReviewClaimInput) (*claimtypes.Claim, error)
	OverrideScore(dbc dbctx.Context, claimID uuid.UUID, score float64, reason string) (*claimtypes.Claim, error)
	Cancel(dbc dbctx.Context, claimID uuid.UUID) (*claimtypes.Claim, error)
	MarkPaid(dbc dbctx.Context, claimID uuid.UUID, paymentReference string) error
	GetForRequestUser(dbc dbctx.Context, claimID uuid.UUID) (*claimtypes.Claim, error)
	ListForRequestUser(dbc dbctx.Context) ([]*claimtypes.Claim, error)
	ListForReview(dbc dbctx.Context) ([]*claimtypes.Claim, error)
	AnalysesForClaim(dbc dbctx.Context, claimID uuid.UUID) ([]*claimtypes.VoiceAnalysis, error)
	ScoreHistory(dbc dbctx.Context, claimID uuid.UUID) ([]*claimtypes.SoroScoreLog, error)
}

type claimService struct {
	db       *gorm.DB
	log      *logger.Logger
	claims   claimrepo.ClaimRepo
	voices   claimrepo.VoiceAnalysisRepo
	scores   claimrepo.ScoreLogRepo
	policies insurancerepo.PolicyRepo
	users    userrepo.UserRepo
	notifs   notifrepo.NotificationRepo
	bucket   gcp.BucketService
	jobsSvc  JobService
}

func NewClaimService(
	db *gorm.DB,
	baseLog *logger.Logger,
	claims claimrepo.ClaimRepo,
	voices claimrepo.VoiceAnalysisRepo,
	scores claimrepo.ScoreLogRepo,
	policies insurancerepo.PolicyRepo,
	users userrepo.UserRepo,
	notifs notifrepo.NotificationRepo,
	bucket gcp.BucketService,
	jobsSvc JobService,
) ClaimService {
	return &claimService{
		db:       db,
		log:      baseLog.With("service", "ClaimService"),
		claims:   claims,
		voices:   voices,
		scores:   scores,
		policies: policies,
		users:    users,
		notifs:   notifs,
		bucket:   bucket,
		jobsSvc:  jobsSvc,
	}
}

// SubmitVoiceClaim is the voice-first intake path: the recording IS
// the claim form. The claim lands in submitted and the voice pipeline
// takes it from there.
func (s *claimService) SubmitVoiceClaim(dbc dbctx.Context, in SubmitVoiceClaimInput) (*claimtypes.Claim, error) {
	userID, err := requestUserID(dbc)
	if err != nil {
		return nil, err
	}
	if len(in.Audio) == 0 {
		return nil, fmt.Errorf("voice claim requires an audio recording: %w", errors.ErrInvalidArgument)
	}
	if in.ClaimedAmount <= 0 {
		return nil, fmt.Errorf("claimed amount must be positive: %w", errors.ErrInvalidArgument)
	}
	if in.ClaimType == "" {
		in.ClaimType = claimtypes.TypeOther
	}
	if in.IncidentDate.IsZero() {
		in.IncidentDate = time.Now()
	}

	policies, err := s.policies.GetByIDs(dbc, []uuid.UUID{in.PolicyID})
	if err != nil {
		return nil, err
	}
	if len(policies) == 0 {
		return nil, fmt.Errorf("policy not found: %w", errors.ErrNotFound)
	}
	policy := policies[0]
	if policy.UserID != userID {
		return nil, errors.ErrForbidden
	}
	if !policy.IsActive() {
		return nil, fmt.Errorf("policy %s is not active: %w", policy.PolicyNumber, errors.ErrConflict)
	}
	if in.ClaimedAmount > policy.CoverageAmount {
		return nil, fmt.Errorf("claimed amount exceeds coverage: %w", errors.ErrInvalidArgument)
	}

	now := time.Now()
	claim := &claimtypes.Claim{
		ID:               uuid.New(),
		ClaimNumber:      claimtypes.NewClaimNumber(),
		PolicyID:         policy.ID,
		UserID:           userID,
		ClaimType:        in.ClaimType,
		Description:      in.Description,
		IncidentDate:     in.IncidentDate,
		IncidentLocation: in.IncidentLocation,
		EstimatedLoss:    in.EstimatedLoss,
		ClaimedAmount:    in.ClaimedAmount,
		Status:           claimtypes.StatusSubmitted,
		SubmittedAt:      &now,
	}
	claim.AudioBucketKey = audioKey(claim.ID, in.AudioFilename)

	if err := s.bucket.UploadFile(dbc, gcp.BucketCategoryClaimAudio, claim.AudioBucketKey, bytes.NewReader(in.Audio)); err != nil {
		return nil, fmt.Errorf("upload claim audio: %w", err)
	}

	err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if _, err := s.claims.Create(txc, []*claimtypes.Claim{claim}); err != nil {
			return err
		}
		if err := s.users.IncrementClaimCounters(txc, userID, 1, 0, 0); err != nil {
			return err
		}
		_, err := s.jobsSvc.Enqueue(txc, userID, jobtypes.TypeClaimVoiceProcess, "claim", &claim.ID, map[string]any{
			"claim_id": claim.ID.String(),
		})
		return err
	})
	if err != nil {
		// Leave the uploaded audio in place: re-submission with the
		// same recording is cheaper than orphan cleanup races.
		return nil, err
	}

	s.log.Info("voice claim submitted",
		"claim_id", claim.ID,
		"claim_number", claim.ClaimNumber,
		"user_id", userID,
		"audio_bytes", len(in.Audio),
	)
	return claim, nil
}

// AttachEvidence uploads one photo, video, or document and appends its
// key to the claim, then schedules a media integrity pass.
func (s *claimService) AttachEvidence(dbc dbctx.Context, claimID uuid.UUID, kind string, filename string, data []byte) (*claimtypes.Claim, error) {
	userID, err := requestUserID(dbc)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file: %w", errors.ErrInvalidArgument)
	}
	var column string
	switch kind {
	case "photo":
		column = "photos"
	case "video":
		column = "videos"
	case "document":
		column = "documents"
	default:
		return nil, fmt.Errorf("unknown evidence kind %q: %w", kind, errors.ErrInvalidArgument)
	}

	claim, err := s.ownedClaim(dbc, claimID, userID)
	if err != nil {
		return nil, err
	}
	if claim.IsTerminal() {
		return nil, fmt.Errorf("claim %s is closed: %w", claim.ClaimNumber, errors.ErrConflict)
	}

	key := evidenceKey(claim.ID, kind, filename)
	if err := s.bucket.UploadFile(dbc, gcp.BucketCategoryEvidence, key, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("upload evidence: %w", err)
	}

	keys := appendKey(currentKeys(claim, column), key)
	raw, _ := json.Marshal(keys)
	if err := s.claims.UpdateFields(dbc, claim.ID, map[string]interface{}{
		column: datatypes.JSON(raw),
	}); err != nil {
		return nil, err
	}
	setKeys(claim, column, datatypes.JSON(raw))

	if claim.Status == claimtypes.StatusSubmitted || claim.Status == claimtypes.StatusUnderReview {
		if _, _, err := s.jobsSvc.EnqueueIfNeeded(dbc, userID, jobtypes.TypeMediaIntegrity, "claim", claim.ID, map[string]any{
			"claim_id": claim.ID.String(),
		}); err != nil {
			s.log.Warn("enqueue media integrity check failed", "claim_id", claim.ID, "error", err)
		}
	}
	return claim, nil
}

// Review records a human decision. Only reviewers and admins may call
// it; the compare-and-swap on status means a decision already made by
// the pipeline or another reviewer is not silently overwritten.
func (s *claimService) Review(dbc dbctx.Context, in ReviewClaimInput) (*claimtypes.Claim, error) {
	reviewer, err := s.requestStaffUser(dbc)
	if err != nil {
		return nil, err
	}

	found, err := s.claims.GetByIDs(dbc, []uuid.UUID{in.ClaimID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errors.ErrNotFound
	}
	claim := found[0]

	newStatus := claimtypes.StatusRejected
	if in.Approve {
		newStatus = claimtypes.StatusApproved
	}
	if !CanTransition(claim.Status, newStatus) {
		return nil, fmt.Errorf("claim %s cannot move from %s to %s: %w", claim.ClaimNumber, claim.Status, newStatus, errors.ErrConflict)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       newStatus,
		"review_notes": in.Notes,
		"reviewed_by":  reviewer.ID,
		"reviewed_at":  now,
		"updated_at":   now,
	}
	if in.Approve {
		amount := claim.ClaimedAmount
		if in.ApprovedAmount != nil {
			amount = *in.ApprovedAmount
		}
		if amount <= 0 {
			return nil, fmt.Errorf("approved amount must be positive: %w", errors.ErrInvalidArgument)
		}
		// A reviewer can trim the payout but never exceed the claim.
		if amount > claim.ClaimedAmount {
			amount = claim.ClaimedAmount
		}
		updates["approved_amount"] = amount
	}

	owners, err := s.users.GetByIDs(dbc, []uuid.UUID{claim.UserID})
	if err != nil {
		return nil, err
	}
	if len(owners) == 0 {
		return nil, fmt.Errorf("claim owner %s not found: %w", claim.UserID, errors.ErrNotFound)
	}
	owner := owners[0]

	err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		moved, err := s.claims.UpdateFieldsIfStatus(txc, claim.ID, claim.Status, updates)
		if err != nil {
			return err
		}
		if !moved {
			return errors.ErrConflict
		}
		if in.Approve {
			err = s.users.IncrementClaimCounters(txc, claim.UserID, 0, 1, 0)
		} else {
			err = s.users.IncrementClaimCounters(txc, claim.UserID, 0, 0, 1)
		}
		if err != nil {
			return err
		}
		note := reviewNotification(claim, owner, in.Approve, in.Notes)
		if _, err := s.notifs.Create(txc, []*notiftypes.Notification{note}); err != nil {
			return err
		}
		_, err = s.jobsSvc.Enqueue(txc, owner.ID, jobtypes.TypeNotificationSend, "notification", &note.ID, map[string]any{
			"notification_id": note.ID.String(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	claim.Status = newStatus
	claim.ReviewNotes = in.Notes
	claim.ReviewedBy = &reviewer.ID
	claim.ReviewedAt = &now
	if v, ok := updates["approved_amount"].(float64); ok {
		claim.ApprovedAmount = &v
	}
	s.log.Info("claim reviewed",
		"claim_id", claim.ID,
		"claim_number", claim.ClaimNumber,
		"decision", newStatus,
		"reviewer_id", reviewer.ID,
	)
	return claim, nil
}

// OverrideScore lets a reviewer replace the pipeline's Soro-Score. The
// new score and its audit log row land in one transaction, same as the
// pipeline's own writes.
func (s *claimService) OverrideScore(dbc dbctx.Context, claimID uuid.UUID, score float64, reason string) (*claimtypes.Claim, error) {
	if score < 0 || score > 100 {
		return nil, fmt.Errorf("score %v is outside [0,100]: %w", score, errors.ErrInvalidArgument)
	}
	reviewer, err := s.requestStaffUser(dbc)
	if err != nil {
		return nil, err
	}

	found, err := s.claims.GetByIDs(dbc, []uuid.UUID{claimID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errors.ErrNotFound
	}
	claim := found[0]
	if claim.IsTerminal() {
		return nil, fmt.Errorf("claim %s is %s: %w", claim.ClaimNumber, claim.Status, errors.ErrConflict)
	}

	level := risk.LevelForScore(score)
	now := time.Now()
	meta, _ := json.Marshal(map[string]any{
		"manual_override": true,
		"reason":          reason,
		"reviewer_id":     reviewer.ID,
	})

	err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		scoreLog := &claimtypes.SoroScoreLog{
			ClaimID:             &claim.ID,
			FinalSoroScore:      score,
			RiskLevel:           level,
			CalculationMetadata: datatypes.JSON(meta),
			CalculatedAt:        now,
		}
		if _, err := s.scores.Create(txc, []*claimtypes.SoroScoreLog{scoreLog}); err != nil {
			return err
		}
		return s.claims.UpdateFields(txc, claim.ID, map[string]interface{}{
			"soro_score": score,
			"risk_level": level,
			"updated_at": now,
		})
	})
	if err != nil {
		return nil, err
	}

	claim.ApplyScore(score)
	s.log.Info("claim score overridden",
		"claim_id", claim.ID,
		"claim_number", claim.ClaimNumber,
		"score", score,
		"reviewer_id", reviewer.ID,
	)
	return claim, nil
}

func (s *claimService) Cancel(dbc dbctx.Context, claimID uuid.UUID) (*claimtypes.Claim, error) {
	userID, err := requestUserID(dbc)
	if err != nil {
		return nil, err
	}
	claim, err := s.ownedClaim(dbc, claimID, userID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(claim.Status, claimtypes.StatusCancelled) {
		return nil, fmt.Errorf("claim %s cannot be cancelled from %s: %w", claim.ClaimNumber, claim.Status, errors.ErrConflict)
	}

	moved, err := s.claims.UpdateFieldsIfStatus(dbc, claim.ID, claim.Status, map[string]interface{}{
		"status": claimtypes.StatusCancelled,
	})
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, errors.ErrConflict
	}
	claim.Status = claimtypes.StatusCancelled
	return claim, nil
}

// MarkPaid is invoked by the payment service once a payout settles.
func (s *claimService) MarkPaid(dbc dbctx.Context, claimID uuid.UUID, paymentReference string) error {
	now := time.Now()
	moved, err := s.claims.UpdateFieldsIfStatus(dbc, claimID, claimtypes.StatusApproved, map[string]interface{}{
		"status":            claimtypes.StatusPaid,
		"payment_reference": paymentReference,
		"paid_at":           now,
		"updated_at":        now,
	})
	if err != nil {
		return err
	}
	if !moved {
		return errors.ErrConflict
	}
	return nil
}

func (s *claimService) GetForRequestUser(dbc dbctx.Context, claimID uuid.UUID) (*claimtypes.Claim, error) {
	rd, ok := ctxutil.GetRequestData(dbc.Ctx)
	if !ok {
		return nil, errors.ErrUnauthorized
	}
	found, err := s.claims.GetByIDs(dbc, []uuid.UUID{claimID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errors.ErrNotFound
	}
	claim := found[0]
	if claim.UserID.String() != rd.UserID && !isStaffType(rd.UserType) {
		return nil, errors.ErrForbidden
	}
	return claim, nil
}

func (s *claimService) ListForRequestUser(dbc dbctx.Context) ([]*claimtypes.Claim, error) {
	userID, err := requestUserID(dbc)
	if err != nil {
		return nil, err
	}
	return s.claims.ListByUser(dbc, userID)
}

func (s *claimService) ListForReview(dbc dbctx.Context) ([]*claimtypes.Claim, error) {
	if _, err := s.requestStaffUser(dbc); err != nil {
		return nil, err
	}
	return s.claims.ListByStatus(dbc, []string{claimtypes.StatusSubmitted, claimtypes.StatusUnderReview})
}

func (s *claimService) AnalysesForClaim(dbc dbctx.Context, claimID uuid.UUID) ([]*claimtypes.VoiceAnalysis, error) {
	if _, err := s.GetForRequestUser(dbc, claimID); err != nil {
		return nil, err
	}
	return s.voices.ListByClaim(dbc, claimID)
}

func (s *claimService) ScoreHistory(dbc dbctx.Context, claimID uuid.UUID) ([]*claimtypes.SoroScoreLog, error) {
	if _, err := s.GetForRequestUser(dbc, claimID); err != nil {
		return nil, err
	}
	return s.scores.ListByClaim(dbc, claimID)
}

func (s *claimService) ownedClaim(dbc dbctx.Context, claimID, userID uuid.UUID) (*claimtypes.Claim, error) {
	found, err := s.claims.GetByIDs(dbc, []uuid.UUID{claimID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errors.ErrNotFound
	}
	if found[0].UserID != userID {
		return nil, errors.ErrForbidden
	}
	return found[0], nil
}

func (s *claimService) requestStaffUser(dbc dbctx.Context) (*usertypes.User, error) {
	userID, err := requestUserID(dbc)
	if err != nil {
		return nil, err
	}
	users, err := s.users.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, errors.ErrUnauthorized
	}
	if !users[0].IsStaff() {
		return nil, errors.ErrForbidden
	}
	return users[0], nil
}

func reviewNotification(claim *claimtypes.Claim, owner *usertypes.User, approved bool, notes string) *notiftypes.Notification {
	channel := notiftypes.ChannelSMS
	if owner.PrefersVoice {
		channel = notiftypes.ChannelVoice
	}

	title := "Claim rejected"
	msg := fmt.Sprintf("Your claim %s was not approved. Reach out to support for details.", claim.ClaimNumber)
	if approved {
		title = "Claim approved"
		msg = fmt.Sprintf("Your claim %s has been approved. Payment follows shortly.", claim.ClaimNumber)
	}

	meta, _ := json.Marshal(map[string]any{
		"claim_number": claim.ClaimNumber,
		"approved":     approved,
		"notes":        notes,
	})
	cid := claim.ID
	return &notiftypes.Notification{
		ID:           uuid.New(),
		UserID:       owner.ID,
		Channel:      channel,
		Title:        title,
		Message:      msg,
		VoiceMessage: msg,
		Metadata:     datatypes.JSON(meta),
		Status:       notiftypes.StatusPending,
		ClaimID:      &cid,
	}
}

func isStaffType(userType string) bool {
	return userType == usertypes.TypeAdmin || userType == usertypes.TypeReviewer
}

func audioKey(claimID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".wav"
	}
	return fmt.Sprintf("claims/%s/audio%s", claimID, ext)
}

func evidenceKey(claimID uuid.UUID, kind, filename string) string {
	name := path.Base(strings.TrimSpace(filename))
	if name == "" || name == "." {
		name = uuid.New().String()
	}
	return fmt.Sprintf("claims/%s/%s/%s-%s", claimID, kind, uuid.New().String()[:8], name)
}

func currentKeys(claim *claimtypes.Claim, column string) []string {
	switch column {
	case "photos":
		return decodeKeyList(claim.Photos)
	case "videos":
		return decodeKeyList(claim.Videos)
	default:
		return decodeKeyList(claim.Documents)
	}
}

func setKeys(claim *claimtypes.Claim, column string, raw datatypes.JSON) {
	switch column {
	case "photos":
		claim.Photos = raw
	case "videos":
		claim.Videos = raw
	default:
		claim.Documents = raw
	}
}

func appendKey(keys []string, key string) []string {
	for _, k := range keys {
		if k == key {
			return keys
		}
	}
	return append(keys, key)
}
