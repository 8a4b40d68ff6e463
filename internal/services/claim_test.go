package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	claimtypes "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
	"github.com/sorosurance/sorosurance-backend/internal/platform/ctxutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

func TestSubmitVoiceClaimRequiresAudio(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	svc := NewClaimService(nil, log, nil, nil, nil, nil, nil, nil, nil, nil)

	ctx := ctxutil.WithRequestData(context.Background(), ctxutil.RequestData{
		UserID:   uuid.NewString(),
		UserType: "customer",
	})
	dbc := dbctx.Context{Ctx: ctx}

	_, err = svc.SubmitVoiceClaim(dbc, SubmitVoiceClaimInput{
		PolicyID:      uuid.New(),
		ClaimedAmount: 5000,
	})
	if !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("SubmitVoiceClaim without audio: want ErrInvalidArgument, got %v", err)
	}

	_, err = svc.SubmitVoiceClaim(dbc, SubmitVoiceClaimInput{
		PolicyID: uuid.New(),
		Audio:    []byte{0x52},
	})
	if !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("SubmitVoiceClaim with zero amount: want ErrInvalidArgument, got %v", err)
	}
}

func TestSubmitVoiceClaimRequiresRequestUser(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	svc := NewClaimService(nil, log, nil, nil, nil, nil, nil, nil, nil, nil)

	_, err = svc.SubmitVoiceClaim(dbctx.Context{Ctx: context.Background()}, SubmitVoiceClaimInput{
		PolicyID:      uuid.New(),
		Audio:         []byte{0x52},
		ClaimedAmount: 5000,
	})
	if !errors.Is(err, errors.ErrUnauthorized) {
		t.Fatalf("SubmitVoiceClaim without request user: want ErrUnauthorized, got %v", err)
	}
}

func TestOverrideScoreRejectsOutOfRange(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	svc := NewClaimService(nil, log, nil, nil, nil, nil, nil, nil, nil, nil)

	ctx := ctxutil.WithRequestData(context.Background(), ctxutil.RequestData{
		UserID:   uuid.NewString(),
		UserType: "reviewer",
	})
	for _, score := range []float64{-0.1, 100.1, 250} {
		_, err := svc.OverrideScore(dbctx.Context{Ctx: ctx}, uuid.New(), score, "typo")
		if !errors.Is(err, errors.ErrInvalidArgument) {
			t.Fatalf("OverrideScore(%v): want ErrInvalidArgument, got %v", score, err)
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{claimtypes.StatusDraft, claimtypes.StatusSubmitted, true},
		{claimtypes.StatusDraft, claimtypes.StatusApproved, false},
		{claimtypes.StatusSubmitted, claimtypes.StatusUnderReview, true},
		{claimtypes.StatusSubmitted, claimtypes.StatusApproved, true},
		{claimtypes.StatusSubmitted, claimtypes.StatusRejected, true},
		{claimtypes.StatusUnderReview, claimtypes.StatusApproved, true},
		{claimtypes.StatusUnderReview, claimtypes.StatusPaid, false},
		{claimtypes.StatusApproved, claimtypes.StatusPaid, true},
		{claimtypes.StatusApproved, claimtypes.StatusRejected, false},
		{claimtypes.StatusRejected, claimtypes.StatusClosed, true},
		{claimtypes.StatusPaid, claimtypes.StatusClosed, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%q, %q): want=%v got=%v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestCanTransitionCancellation(t *testing.T) {
	cancellable := []string{
		claimtypes.StatusDraft,
		claimtypes.StatusSubmitted,
		claimtypes.StatusUnderReview,
		claimtypes.StatusApproved,
	}
	for _, from := range cancellable {
		if !CanTransition(from, claimtypes.StatusCancelled) {
			t.Fatalf("CanTransition(%q, cancelled): want=true", from)
		}
	}
	terminal := []string{
		claimtypes.StatusPaid,
		claimtypes.StatusClosed,
		claimtypes.StatusRejected,
		claimtypes.StatusCancelled,
	}
	for _, from := range terminal {
		if CanTransition(from, claimtypes.StatusCancelled) {
			t.Fatalf("CanTransition(%q, cancelled): want=false", from)
		}
	}
}
