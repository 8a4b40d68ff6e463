package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	claimrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/claims"
	jobrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/jobs"
	notifrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/notifications"
	"github.com/sorosurance/sorosurance-backend/internal/data/repos/testutil"
	userrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/user"
	claimtypes "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	jobtypes "github.com/sorosurance/sorosurance-backend/internal/domain/jobs"
	usertypes "github.com/sorosurance/sorosurance-backend/internal/domain/user"
	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
	"github.com/sorosurance/sorosurance-backend/internal/platform/ctxutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
)

func seedReviewer(t *testing.T, ctx context.Context, tx *gorm.DB) *usertypes.User {
	t.Helper()
	u := &usertypes.User{
		ID:          uuid.New(),
		PhoneNumber: "+2348099887766",
		Password:    "pw",
		FirstName:   "Ngozi",
		LastName:    "Eze",
		UserType:    usertypes.TypeReviewer,
		SoroScore:   50,
		IsActive:    true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		t.Fatalf("seed reviewer: %v", err)
	}
	return u
}

func requestCtx(u *usertypes.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), ctxutil.RequestData{
		UserID:   u.ID.String(),
		UserType: u.UserType,
	})
}

func TestReviewRequiresStaffUser(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	ctx := context.Background()

	owner := testutil.SeedUser(t, ctx, tx, "+2348011002200")
	product := testutil.SeedProduct(t, ctx, tx)
	policy := testutil.SeedPolicy(t, ctx, tx, owner.ID, product.ID)
	claim := testutil.SeedClaim(t, ctx, tx, owner.ID, policy.ID, claimtypes.StatusSubmitted)
	reviewer := seedReviewer(t, ctx, tx)

	claims := claimrepo.NewClaimRepo(tx, log)
	users := userrepo.NewUserRepo(tx, log)
	notifs := notifrepo.NewNotificationRepo(tx, log)
	jobRuns := jobrepo.NewJobRunRepo(tx, log)
	jobs := NewJobService(tx, log, jobRuns, nil)
	svc := NewClaimService(tx, log, claims, nil, nil, nil, users, notifs, nil, jobs)

	// The claim owner is a customer; the review endpoint is staff-only.
	_, err := svc.Review(dbctx.Context{Ctx: requestCtx(owner), Tx: tx}, ReviewClaimInput{
		ClaimID: claim.ID,
		Approve: true,
	})
	if !errors.Is(err, errors.ErrForbidden) {
		t.Fatalf("customer review: want ErrForbidden, got %v", err)
	}

	reviewed, err := svc.Review(dbctx.Context{Ctx: requestCtx(reviewer), Tx: tx}, ReviewClaimInput{
		ClaimID: claim.ID,
		Approve: true,
		Notes:   "receipts check out",
	})
	if err != nil {
		t.Fatalf("staff review: %v", err)
	}
	if reviewed.Status != claimtypes.StatusApproved {
		t.Fatalf("status: want=%q got=%q", claimtypes.StatusApproved, reviewed.Status)
	}
	if reviewed.ApprovedAmount == nil || *reviewed.ApprovedAmount != claim.ClaimedAmount {
		t.Fatalf("approved amount: want=%v got=%v", claim.ClaimedAmount, reviewed.ApprovedAmount)
	}
	if reviewed.ReviewedBy == nil || *reviewed.ReviewedBy != reviewer.ID {
		t.Fatalf("reviewed_by: want=%s got=%v", reviewer.ID, reviewed.ReviewedBy)
	}

	got, err := users.GetByIDs(dbctx.Context{Ctx: ctx, Tx: tx}, []uuid.UUID{owner.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("reload owner: %v (n=%d)", err, len(got))
	}
	if got[0].ApprovedClaims != owner.ApprovedClaims+1 {
		t.Fatalf("approved counter: want=%d got=%d", owner.ApprovedClaims+1, got[0].ApprovedClaims)
	}

	notes, err := notifs.ListByUser(dbctx.Context{Ctx: ctx, Tx: tx}, owner.ID)
	if err != nil {
		t.Fatalf("ListByUser notifications: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("notifications: want=1 got=%d", len(notes))
	}
	if notes[0].Title != "Claim approved" {
		t.Fatalf("notification title: want=%q got=%q", "Claim approved", notes[0].Title)
	}

	delivery, err := jobRuns.GetLatestByEntity(dbctx.Context{Ctx: ctx, Tx: tx}, owner.ID, "notification", notes[0].ID, jobtypes.TypeNotificationSend)
	if err != nil {
		t.Fatalf("load delivery job: %v", err)
	}
	if delivery == nil {
		t.Fatal("expected a queued notification_send job for the decision notification")
	}
	if delivery.Status != jobtypes.StatusQueued {
		t.Fatalf("delivery job status: want=%q got=%q", jobtypes.StatusQueued, delivery.Status)
	}
}

func TestReviewCapsApprovedAmount(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	ctx := context.Background()

	owner := testutil.SeedUser(t, ctx, tx, "+2348022334455")
	product := testutil.SeedProduct(t, ctx, tx)
	policy := testutil.SeedPolicy(t, ctx, tx, owner.ID, product.ID)
	claim := testutil.SeedClaim(t, ctx, tx, owner.ID, policy.ID, claimtypes.StatusSubmitted)
	reviewer := seedReviewer(t, ctx, tx)

	claims := claimrepo.NewClaimRepo(tx, log)
	users := userrepo.NewUserRepo(tx, log)
	notifs := notifrepo.NewNotificationRepo(tx, log)
	jobs := NewJobService(tx, log, jobrepo.NewJobRunRepo(tx, log), nil)
	svc := NewClaimService(tx, log, claims, nil, nil, nil, users, notifs, nil, jobs)

	over := claim.ClaimedAmount + 25000
	reviewed, err := svc.Review(dbctx.Context{Ctx: requestCtx(reviewer), Tx: tx}, ReviewClaimInput{
		ClaimID:        claim.ID,
		Approve:        true,
		ApprovedAmount: &over,
	})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if reviewed.ApprovedAmount == nil || *reviewed.ApprovedAmount != claim.ClaimedAmount {
		t.Fatalf("approved amount: want=%v got=%v", claim.ClaimedAmount, reviewed.ApprovedAmount)
	}
}

func TestOverrideScoreWritesScoreAndAuditRow(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	ctx := context.Background()

	owner := testutil.SeedUser(t, ctx, tx, "+2348044556677")
	product := testutil.SeedProduct(t, ctx, tx)
	policy := testutil.SeedPolicy(t, ctx, tx, owner.ID, product.ID)
	claim := testutil.SeedClaim(t, ctx, tx, owner.ID, policy.ID, claimtypes.StatusUnderReview)
	reviewer := seedReviewer(t, ctx, tx)

	claims := claimrepo.NewClaimRepo(tx, log)
	scores := claimrepo.NewScoreLogRepo(tx, log)
	users := userrepo.NewUserRepo(tx, log)
	svc := NewClaimService(tx, log, claims, nil, scores, nil, users, nil, nil, nil)

	// Non-staff callers cannot touch the score.
	_, err := svc.OverrideScore(dbctx.Context{Ctx: requestCtx(owner), Tx: tx}, claim.ID, 25, "")
	if !errors.Is(err, errors.ErrForbidden) {
		t.Fatalf("customer override: want ErrForbidden, got %v", err)
	}

	got, err := svc.OverrideScore(dbctx.Context{Ctx: requestCtx(reviewer), Tx: tx}, claim.ID, 25, "field agent verified")
	if err != nil {
		t.Fatalf("OverrideScore: %v", err)
	}
	if got.SoroScore == nil || *got.SoroScore != 25 {
		t.Fatalf("score: want=25 got=%v", got.SoroScore)
	}
	if got.RiskLevel != "low" {
		t.Fatalf("risk level: want=low got=%q", got.RiskLevel)
	}

	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	logs, err := scores.ListByClaim(dbc, claim.ID)
	if err != nil {
		t.Fatalf("ListByClaim: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("score logs: want=1 got=%d", len(logs))
	}
	if logs[0].FinalSoroScore != 25 {
		t.Fatalf("audit score: want=25 got=%v", logs[0].FinalSoroScore)
	}
}

func TestReviewRejectsIllegalTransition(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	ctx := context.Background()

	owner := testutil.SeedUser(t, ctx, tx, "+2348033445566")
	product := testutil.SeedProduct(t, ctx, tx)
	policy := testutil.SeedPolicy(t, ctx, tx, owner.ID, product.ID)
	claim := testutil.SeedClaim(t, ctx, tx, owner.ID, policy.ID, claimtypes.StatusApproved)
	reviewer := seedReviewer(t, ctx, tx)

	claims := claimrepo.NewClaimRepo(tx, log)
	users := userrepo.NewUserRepo(tx, log)
	notifs := notifrepo.NewNotificationRepo(tx, log)
	jobs := NewJobService(tx, log, jobrepo.NewJobRunRepo(tx, log), nil)
	svc := NewClaimService(tx, log, claims, nil, nil, nil, users, notifs, nil, jobs)

	// An approved claim cannot be flipped to rejected.
	_, err := svc.Review(dbctx.Context{Ctx: requestCtx(reviewer), Tx: tx}, ReviewClaimInput{
		ClaimID: claim.ID,
		Approve: false,
		Notes:   "second look",
	})
	if !errors.Is(err, errors.ErrConflict) {
		t.Fatalf("re-review: want ErrConflict, got %v", err)
	}
}
