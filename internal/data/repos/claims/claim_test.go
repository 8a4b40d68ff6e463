package claims

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sorosurance/sorosurance-backend/internal/data/repos/testutil"
	types "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
)

func TestClaimRepoCreateAndGet(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewClaimRepo(gdb, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "+2348011111111")
	product := testutil.SeedProduct(t, ctx, tx)
	policy := testutil.SeedPolicy(t, ctx, tx, owner.ID, product.ID)

	claim := &types.Claim{
		ClaimNumber:   types.NewClaimNumber(),
		PolicyID:      policy.ID,
		UserID:        owner.ID,
		ClaimType:     types.TypeTheft,
		IncidentDate:  time.Now().AddDate(0, 0, -2),
		ClaimedAmount: 75000,
		Status:        types.StatusSubmitted,
	}
	created, err := repo.Create(dbc, []*types.Claim{claim})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].ID == uuid.Nil {
		t.Fatalf("Create: got %+v", created)
	}

	got, err := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 1 || got[0].ClaimNumber != claim.ClaimNumber {
		t.Fatalf("GetByIDs: got %+v", got)
	}

	byNumber, err := repo.GetByClaimNumber(dbc, claim.ClaimNumber)
	if err != nil {
		t.Fatalf("GetByClaimNumber: %v", err)
	}
	if byNumber == nil || byNumber.ID != created[0].ID {
		t.Fatalf("GetByClaimNumber: got %+v", byNumber)
	}
}

func TestClaimRepoListAndCount(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewClaimRepo(gdb, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "+2348012222222")
	other := testutil.SeedUser(t, ctx, tx, "+2348013333333")
	product := testutil.SeedProduct(t, ctx, tx)
	policy := testutil.SeedPolicy(t, ctx, tx, owner.ID, product.ID)
	otherPolicy := testutil.SeedPolicy(t, ctx, tx, other.ID, product.ID)

	testutil.SeedClaim(t, ctx, tx, owner.ID, policy.ID, types.StatusSubmitted)
	testutil.SeedClaim(t, ctx, tx, owner.ID, policy.ID, types.StatusUnderReview)
	testutil.SeedClaim(t, ctx, tx, other.ID, otherPolicy.ID, types.StatusSubmitted)

	mine, err := repo.ListByUser(dbc, owner.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("ListByUser: want=2 got=%d", len(mine))
	}

	open, err := repo.ListByStatus(dbc, []string{types.StatusSubmitted, types.StatusUnderReview})
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(open) != 3 {
		t.Fatalf("ListByStatus: want=3 got=%d", len(open))
	}

	counts, err := repo.CountByStatus(dbc)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[types.StatusSubmitted] != 2 || counts[types.StatusUnderReview] != 1 {
		t.Fatalf("CountByStatus: got %v", counts)
	}
}

func TestClaimRepoUpdateFieldsIfStatus(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewClaimRepo(gdb, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "+2348014444444")
	product := testutil.SeedProduct(t, ctx, tx)
	policy := testutil.SeedPolicy(t, ctx, tx, owner.ID, product.ID)
	claim := testutil.SeedClaim(t, ctx, tx, owner.ID, policy.ID, types.StatusSubmitted)

	moved, err := repo.UpdateFieldsIfStatus(dbc, claim.ID, types.StatusSubmitted, map[string]interface{}{
		"status":     types.StatusUnderReview,
		"updated_at": time.Now(),
	})
	if err != nil {
		t.Fatalf("UpdateFieldsIfStatus: %v", err)
	}
	if !moved {
		t.Fatalf("UpdateFieldsIfStatus: first move should succeed")
	}

	// The same guard must not fire twice.
	moved, err = repo.UpdateFieldsIfStatus(dbc, claim.ID, types.StatusSubmitted, map[string]interface{}{
		"status": types.StatusApproved,
	})
	if err != nil {
		t.Fatalf("UpdateFieldsIfStatus second: %v", err)
	}
	if moved {
		t.Fatalf("UpdateFieldsIfStatus: stale status guard did not hold")
	}

	got, err := repo.GetByIDs(dbc, []uuid.UUID{claim.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if got[0].Status != types.StatusUnderReview {
		t.Fatalf("status: want=%q got=%q", types.StatusUnderReview, got[0].Status)
	}
}
