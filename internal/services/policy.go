package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	insurancerepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/insurance"
	userrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/user"
	instypes "github.com/sorosurance/sorosurance-backend/internal/domain/insurance"
	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type PurchasePolicyInput struct {
	ProductID        uuid.UUID
	CoverageAmount   float64
	PremiumFrequency string
	TermDays         int
}

// QuotedPremium is what the customer sees before committing: the base
// premium shifted by their Soro-Score and clamped to the product band.
type QuotedPremium struct {
	BasePremium   float64 `json:"base_premium"`
	Adjustment    float64 `json:"adjustment"`
	PremiumAmount float64 `json:"premium_amount"`
	SoroScore     float64 `json:"soro_score"`
	RiskLevel     string  `json:"risk_level"`
}

type PolicyService interface {
	Quote(dbc dbctx.Context, productID uuid.UUID) (*QuotedPremium, error)
	Purchase(dbc dbctx.Context, in PurchasePolicyInput) (*instypes.Policy, error)
	Activate(dbc dbctx.Context, policyID uuid.UUID, paymentReference string) error
	Renew(dbc dbctx.Context, policyID uuid.UUID) (*instypes.Policy, error)
	GetForRequestUser(dbc dbctx.Context, policyID uuid.UUID) (*instypes.Policy, error)
	ListForRequestUser(dbc dbctx.Context) ([]*instypes.Policy, error)
}

type policyService struct {
	db       *gorm.DB
	log      *logger.Logger
	policies insurancerepo.PolicyRepo
	products insurancerepo.ProductRepo
	users    userrepo.UserRepo
}

func NewPolicyService(
	db *gorm.DB,
	baseLog *logger.Logger,
	policies insurancerepo.PolicyRepo,
	products insurancerepo.ProductRepo,
	users userrepo.UserRepo,
) PolicyService {
	return &policyService{
		db:       db,
		log:      baseLog.With("service", "PolicyService"),
		policies: policies,
		products: products,
		users:    users,
	}
}

func (s *policyService) Quote(dbc dbctx.Context, productID uuid.UUID) (*QuotedPremium, error) {
	userID, err := requestUserID(dbc)
	if err != nil {
		return nil, err
	}
	product, err := s.activeProduct(dbc, productID)
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
	u := users[0]

	adj := instypes.PremiumAdjustmentForScore(u.SoroScore)
	amount := instypes.ClampPremium(product.BasePremium*(1+adj), product)
	return &QuotedPremium{
		BasePremium:   product.BasePremium,
		Adjustment:    adj,
		PremiumAmount: amount,
		SoroScore:     u.SoroScore,
		RiskLevel:     u.RiskLevel(),
	}, nil
}

// Purchase creates a pending policy priced off the customer's current
// Soro-Score. It activates once the premium payment settles.
func (s *policyService) Purchase(dbc dbctx.Context, in PurchasePolicyInput) (*instypes.Policy, error) {
	userID, err := requestUserID(dbc)
	if err != nil {
		return nil, err
	}
	product, err := s.activeProduct(dbc, in.ProductID)
	if err != nil {
		return nil, err
	}
	if in.CoverageAmount <= 0 {
		return nil, fmt.Errorf("coverage amount must be positive: %w", errors.ErrInvalidArgument)
	}
	if in.TermDays <= 0 {
		in.TermDays = 365
	}
	if in.PremiumFrequency == "" {
		in.PremiumFrequency = "monthly"
	}

	users, err := s.users.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, errors.ErrUnauthorized
	}
	u := users[0]

	adj := instypes.PremiumAdjustmentForScore(u.SoroScore)
	premium := instypes.ClampPremium(product.BasePremium*(1+adj), product)

	now := time.Now()
	policy := &instypes.Policy{
		ID:               uuid.New(),
		PolicyNumber:     instypes.NewPolicyNumber(),
		UserID:           userID,
		ProductID:        product.ID,
		StartDate:        now,
		EndDate:          now.AddDate(0, 0, in.TermDays),
		Status:           instypes.PolicyPending,
		InitialSoroScore: u.SoroScore,
		CurrentSoroScore: u.SoroScore,
		PremiumAmount:    premium,
		PremiumFrequency: in.PremiumFrequency,
		CoverageAmount:   in.CoverageAmount,
		CoverageDetails:  product.CoverageDetails,
	}
	created, err := s.policies.Create(dbc, []*instypes.Policy{policy})
	if err != nil {
		return nil, err
	}
	s.log.Info("policy purchased",
		"policy_id", policy.ID,
		"policy_number", policy.PolicyNumber,
		"user_id", userID,
		"premium", premium,
		"adjustment", adj,
	)
	return created[0], nil
}

func (s *policyService) Activate(dbc dbctx.Context, policyID uuid.UUID, paymentReference string) error {
	found, err := s.policies.GetByIDs(dbc, []uuid.UUID{policyID})
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return errors.ErrNotFound
	}
	policy := found[0]
	if policy.Status != instypes.PolicyPending && policy.Status != instypes.PolicyDraft {
		return fmt.Errorf("policy %s is %s: %w", policy.PolicyNumber, policy.Status, errors.ErrConflict)
	}
	return s.policies.UpdateFields(dbc, policy.ID, map[string]interface{}{
		"status":            instypes.PolicyActive,
		"payment_reference": paymentReference,
	})
}

// Renew extends an active or recently expired policy by its original
// term and reprices the premium from the customer's current score.
func (s *policyService) Renew(dbc dbctx.Context, policyID uuid.UUID) (*instypes.Policy, error) {
	userID, err := requestUserID(dbc)
	if err != nil {
		return nil, err
	}
	found, err := s.policies.GetByIDs(dbc, []uuid.UUID{policyID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errors.ErrNotFound
	}
	policy := found[0]
	if policy.UserID != userID {
		return nil, errors.ErrForbidden
	}
	if policy.Status != instypes.PolicyActive && policy.Status != instypes.PolicyExpired {
		return nil, fmt.Errorf("policy %s cannot renew from %s: %w", policy.PolicyNumber, policy.Status, errors.ErrConflict)
	}

	products, err := s.products.GetByIDs(dbc, []uuid.UUID{policy.ProductID})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, errors.ErrNotFound
	}
	product := products[0]

	users, err := s.users.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, errors.ErrUnauthorized
	}
	u := users[0]

	adj := instypes.PremiumAdjustmentForScore(u.SoroScore)
	premium := instypes.ClampPremium(product.BasePremium*(1+adj), product)

	term := policy.EndDate.Sub(policy.StartDate)
	start := policy.EndDate
	if start.Before(time.Now()) {
		start = time.Now()
	}
	end := start.Add(term)

	if err := s.policies.UpdateFields(dbc, policy.ID, map[string]interface{}{
		"start_date":         start,
		"end_date":           end,
		"status":             instypes.PolicyActive,
		"premium_amount":     premium,
		"current_soro_score": u.SoroScore,
	}); err != nil {
		return nil, err
	}

	policy.StartDate = start
	policy.EndDate = end
	policy.Status = instypes.PolicyActive
	policy.PremiumAmount = premium
	policy.CurrentSoroScore = u.SoroScore
	s.log.Info("policy renewed",
		"policy_id", policy.ID,
		"policy_number", policy.PolicyNumber,
		"premium", premium,
	)
	return policy, nil
}

func (s *policyService) GetForRequestUser(dbc dbctx.Context, policyID uuid.UUID) (*instypes.Policy, error) {
	userID, err := requestUserID(dbc)
	if err != nil {
		return nil, err
	}
	found, err := s.policies.GetByIDs(dbc, []uuid.UUID{policyID})
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

func (s *policyService) ListForRequestUser(dbc dbctx.Context) ([]*instypes.Policy, error) {
	userID, err := requestUserID(dbc)
	if err != nil {
		return nil, err
	}
	return s.policies.ListByUser(dbc, userID)
}

func (s *policyService) activeProduct(dbc dbctx.Context, productID uuid.UUID) (*instypes.Product, error) {
	products, err := s.products.GetByIDs(dbc, []uuid.UUID{productID})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("product not found: %w", errors.ErrNotFound)
	}
	if !products[0].IsActive {
		return nil, fmt.Errorf("product %s is not active: %w", products[0].Name, errors.ErrConflict)
	}
	return products[0], nil
}
