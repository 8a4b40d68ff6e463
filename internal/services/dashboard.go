package services

import (
	"gorm.io/gorm"

	claimrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/claims"
	paymentrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/payments"
	claimtypes "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	paytypes "github.com/sorosurance/sorosurance-backend/internal/domain/payments"
	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
	"github.com/sorosurance/sorosurance-backend/internal/platform/ctxutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type DashboardSummary struct {
	ClaimsByStatus map[string]int64 `json:"claims_by_status"`
	PendingReview  int64            `json:"pending_review"`
	PremiumVolume  float64          `json:"premium_volume"`
	RenewalVolume  float64          `json:"renewal_volume"`
	PayoutVolume   float64          `json:"payout_volume"`
}

// DashboardService aggregates operational numbers for the back office.
type DashboardService interface {
	Summary(dbc dbctx.Context) (*DashboardSummary, error)
}

type dashboardService struct {
	db       *gorm.DB
	log      *logger.Logger
	claims   claimrepo.ClaimRepo
	payments paymentrepo.PaymentRepo
}

func NewDashboardService(db *gorm.DB, baseLog *logger.Logger, claims claimrepo.ClaimRepo, payments paymentrepo.PaymentRepo) DashboardService {
	return &dashboardService{
		db:       db,
		log:      baseLog.With("service", "DashboardService"),
		claims:   claims,
		payments: payments,
	}
}

func (s *dashboardService) Summary(dbc dbctx.Context) (*DashboardSummary, error) {
	rd, ok := ctxutil.GetRequestData(dbc.Ctx)
	if !ok {
		return nil, errors.ErrUnauthorized
	}
	if !isStaffType(rd.UserType) {
		return nil, errors.ErrForbidden
	}

	byStatus, err := s.claims.CountByStatus(dbc)
	if err != nil {
		return nil, err
	}

	premiums, err := s.payments.SumCompletedByType(dbc, paytypes.TypePremium)
	if err != nil {
		return nil, err
	}
	renewals, err := s.payments.SumCompletedByType(dbc, paytypes.TypeRenewal)
	if err != nil {
		return nil, err
	}
	payouts, err := s.payments.SumCompletedByType(dbc, paytypes.TypeClaim)
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		ClaimsByStatus: byStatus,
		PendingReview:  byStatus[claimtypes.StatusSubmitted] + byStatus[claimtypes.StatusUnderReview],
		PremiumVolume:  premiums,
		RenewalVolume:  renewals,
		PayoutVolume:   payouts,
	}, nil
}
