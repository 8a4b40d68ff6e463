package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sorosurance/sorosurance-backend/internal/data/repos/testutil"
	types "github.com/sorosurance/sorosurance-backend/internal/domain/payments"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
)

func seedPayment(t *testing.T, dbc dbctx.Context, tx *gorm.DB, userID uuid.UUID, paymentType, status string, amount float64) *types.Payment {
	t.Helper()
	p := &types.Payment{
		PaymentReference: types.NewPaymentReference(),
		UserID:           userID,
		PaymentType:      paymentType,
		Amount:           amount,
		Currency:         "NGN",
		Status:           status,
		PaymentGateway:   "paystack",
	}
	if err := tx.WithContext(dbc.Ctx).Create(p).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return p
}

func TestPaymentRepoGetByReference(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewPaymentRepo(gdb, testutil.Logger(t))
	owner := testutil.SeedUser(t, ctx, tx, "+2348015555555")

	p := seedPayment(t, dbc, tx, owner.ID, types.TypePremium, types.StatusPending, 5000)

	got, err := repo.GetByReference(dbc, p.PaymentReference)
	if err != nil {
		t.Fatalf("GetByReference: %v", err)
	}
	if got == nil || got.ID != p.ID {
		t.Fatalf("GetByReference: got %+v", got)
	}

	missing, err := repo.GetByReference(dbc, "PAY-DOESNOTEXIST")
	if err != nil {
		t.Fatalf("GetByReference missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("GetByReference missing: want nil, got %+v", missing)
	}
}

func TestPaymentRepoSumCompletedByType(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewPaymentRepo(gdb, testutil.Logger(t))
	owner := testutil.SeedUser(t, ctx, tx, "+2348016666666")

	seedPayment(t, dbc, tx, owner.ID, types.TypePremium, types.StatusCompleted, 5000)
	seedPayment(t, dbc, tx, owner.ID, types.TypePremium, types.StatusCompleted, 3000)
	// Pending and claim payments must not count toward premium volume.
	seedPayment(t, dbc, tx, owner.ID, types.TypePremium, types.StatusPending, 9000)
	seedPayment(t, dbc, tx, owner.ID, types.TypeClaim, types.StatusCompleted, 40000)

	total, err := repo.SumCompletedByType(dbc, types.TypePremium)
	if err != nil {
		t.Fatalf("SumCompletedByType: %v", err)
	}
	if total != 8000 {
		t.Fatalf("SumCompletedByType: want=8000 got=%v", total)
	}

	payouts, err := repo.SumCompletedByType(dbc, types.TypeClaim)
	if err != nil {
		t.Fatalf("SumCompletedByType claim: %v", err)
	}
	if payouts != 40000 {
		t.Fatalf("SumCompletedByType claim: want=40000 got=%v", payouts)
	}
}

func TestPaymentRepoUpdateFieldsIfStatus(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewPaymentRepo(gdb, testutil.Logger(t))
	owner := testutil.SeedUser(t, ctx, tx, "+2348017777777")
	p := seedPayment(t, dbc, tx, owner.ID, types.TypePremium, types.StatusPending, 5000)

	now := time.Now()
	moved, err := repo.UpdateFieldsIfStatus(dbc, p.ID, types.StatusPending, map[string]interface{}{
		"status":       types.StatusCompleted,
		"completed_at": now,
		"updated_at":   now,
	})
	if err != nil {
		t.Fatalf("UpdateFieldsIfStatus: %v", err)
	}
	if !moved {
		t.Fatalf("UpdateFieldsIfStatus: completion should succeed from pending")
	}

	moved, err = repo.UpdateFieldsIfStatus(dbc, p.ID, types.StatusPending, map[string]interface{}{
		"status": types.StatusFailed,
	})
	if err != nil {
		t.Fatalf("UpdateFieldsIfStatus second: %v", err)
	}
	if moved {
		t.Fatalf("UpdateFieldsIfStatus: completed payment must not move again")
	}
}
