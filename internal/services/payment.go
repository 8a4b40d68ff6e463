package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sorosurance/sorosurance-backend/internal/clients/paystack"
	insurancerepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/insurance"
	paymentrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/payments"
	userrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/user"
	claimtypes "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	instypes "github.com/sorosurance/sorosurance-backend/internal/domain/insurance"
	paytypes "github.com/sorosurance/sorosurance-backend/internal/domain/payments"
	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type InitiatedPayment struct {
	Payment          *paytypes.Payment `json:"payment"`
	AuthorizationURL string            `json:"authorization_url"`
	AccessCode       string            `json:"access_code"`
}

type PaymentService interface {
	InitiatePremiumPayment(dbc dbctx.Context, policyID uuid.UUID, voicePayment bool) (*InitiatedPayment, error)
	InitiateClaimPayout(dbc dbctx.Context, claimID uuid.UUID) (*paytypes.Payment, error)
	VerifyPayment(dbc dbctx.Context, reference string) (*paytypes.Payment, error)
	HandleWebhook(dbc dbctx.Context, body []byte, signature string) error
	ListForRequestUser(dbc dbctx.Context) ([]*paytypes.Payment, error)
}

type paymentService struct {
	db            *gorm.DB
	log           *logger.Logger
	payments      paymentrepo.PaymentRepo
	policies      insurancerepo.PolicyRepo
	users         userrepo.UserRepo
	claimsSvc     ClaimService
	policySvc     PolicyService
	gateway       paystack.Client
	webhookSecret string
}

func NewPaymentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	payments paymentrepo.PaymentRepo,
	policies insurancerepo.PolicyRepo,
	users userrepo.UserRepo,
	claimsSvc ClaimService,
	policySvc PolicyService,
	gateway paystack.Client,
	webhookSecret string,
) PaymentService {
	return &paymentService{
		db:            db,
		log:           baseLog.With("service", "PaymentService"),
		payments:      payments,
		policies:      policies,
		users:         users,
		claimsSvc:     claimsSvc,
		policySvc:     policySvc,
		gateway:       gateway,
		webhookSecret: webhookSecret,
	}
}

// InitiatePremiumPayment opens a Paystack transaction for a pending
// policy's premium and records it, so the webhook can later close the
// loop and activate the policy.
func (s *paymentService) InitiatePremiumPayment(dbc dbctx.Context, policyID uuid.UUID, voicePayment bool) (*InitiatedPayment, error) {
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

	users, err := s.users.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, errors.ErrUnauthorized
	}
	payer := users[0]

	paymentType := paytypes.TypePremium
	if policy.Status == instypes.PolicyActive {
		paymentType = paytypes.TypeRenewal
	}

	payment := &paytypes.Payment{
		ID:               uuid.New(),
		PaymentReference: paytypes.NewPaymentReference(),
		UserID:           userID,
		PaymentType:      paymentType,
		Amount:           policy.PremiumAmount,
		Currency:         "NGN",
		Status:           paytypes.StatusPending,
		PolicyID:         &policy.ID,
		PaymentGateway:   "paystack",
		VoicePayment:     voicePayment,
		InitiatedAt:      time.Now(),
	}

	txn, err := s.gateway.InitializeTransaction(dbc.Ctx, paystack.InitializeRequest{
		Email:       payerEmail(payer.Email, payer.PhoneNumber),
		AmountNaira: policy.PremiumAmount,
		Reference:   payment.PaymentReference,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize transaction: %w", err)
	}
	payment.GatewayReference = txn.Reference

	if _, err := s.payments.Create(dbc, []*paytypes.Payment{payment}); err != nil {
		return nil, err
	}
	s.log.Info("premium payment initiated",
		"payment_reference", payment.PaymentReference,
		"policy_id", policy.ID,
		"amount", payment.Amount,
		"voice_payment", voicePayment,
	)
	return &InitiatedPayment{
		Payment:          payment,
		AuthorizationURL: txn.AuthorizationURL,
		AccessCode:       txn.AccessCode,
	}, nil
}

// InitiateClaimPayout records an outbound payment for an approved
// claim. Settlement confirmation arrives out of band and lands in
// VerifyPayment.
func (s *paymentService) InitiateClaimPayout(dbc dbctx.Context, claimID uuid.UUID) (*paytypes.Payment, error) {
	claim, err := s.claimsSvc.GetForRequestUser(dbc, claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status != claimtypes.StatusApproved {
		return nil, fmt.Errorf("claim %s is not approved: %w", claim.ClaimNumber, errors.ErrConflict)
	}
	amount := claim.ClaimedAmount
	if claim.ApprovedAmount != nil {
		amount = *claim.ApprovedAmount
	}

	payment := &paytypes.Payment{
		ID:               uuid.New(),
		PaymentReference: paytypes.NewPaymentReference(),
		UserID:           claim.UserID,
		PaymentType:      paytypes.TypeClaim,
		Amount:           amount,
		Currency:         "NGN",
		Status:           paytypes.StatusProcessing,
		ClaimID:          &claim.ID,
		PaymentGateway:   "paystack",
		InitiatedAt:      time.Now(),
	}
	if _, err := s.payments.Create(dbc, []*paytypes.Payment{payment}); err != nil {
		return nil, err
	}
	s.log.Info("claim payout initiated",
		"payment_reference", payment.PaymentReference,
		"claim_id", claim.ID,
		"amount", amount,
	)
	return payment, nil
}

func (s *paymentService) VerifyPayment(dbc dbctx.Context, reference string) (*paytypes.Payment, error) {
	payment, err := s.payments.GetByReference(dbc, reference)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errors.ErrNotFound
	}
	if payment.Status == paytypes.StatusCompleted {
		return payment, nil
	}

	txn, err := s.gateway.VerifyTransaction(dbc.Ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("verify transaction: %w", err)
	}
	if !strings.EqualFold(txn.Status, "success") {
		s.log.Info("payment not yet successful",
			"payment_reference", reference,
			"gateway_status", txn.Status,
		)
		return payment, nil
	}
	if err := s.completePayment(dbc, payment, txn); err != nil {
		return nil, err
	}
	return payment, nil
}

// HandleWebhook processes Paystack charge events. Signature
// verification gates everything; unknown events are ignored.
func (s *paymentService) HandleWebhook(dbc dbctx.Context, body []byte, signature string) error {
	if !paystack.VerifyWebhookSignature(s.webhookSecret, body, signature) {
		return errors.ErrUnauthorized
	}
	ev, err := paystack.ParseWebhookEvent(body)
	if err != nil {
		return fmt.Errorf("parse webhook: %w", err)
	}
	if ev.Event != "charge.success" {
		s.log.Debug("ignoring webhook event", "event", ev.Event)
		return nil
	}

	payment, err := s.payments.GetByReference(dbc, ev.Data.Reference)
	if err != nil {
		return err
	}
	if payment == nil {
		s.log.Warn("webhook for unknown payment", "reference", ev.Data.Reference)
		return nil
	}
	if payment.Status == paytypes.StatusCompleted {
		return nil
	}
	return s.completePayment(dbc, payment, &ev.Data)
}

// completePayment flips the payment to completed exactly once and runs
// the side effect for its type. The status compare-and-swap makes the
// webhook and manual verification idempotent against each other.
func (s *paymentService) completePayment(dbc dbctx.Context, payment *paytypes.Payment, txn *paystack.Transaction) error {
	raw, _ := json.Marshal(txn)
	now := time.Now()

	moved, err := s.payments.UpdateFieldsIfStatus(dbc, payment.ID, payment.Status, map[string]interface{}{
		"status":           paytypes.StatusCompleted,
		"gateway_response": datatypes.JSON(raw),
		"completed_at":     now,
		"updated_at":       now,
	})
	if err != nil {
		return err
	}
	if !moved {
		return nil
	}
	payment.Status = paytypes.StatusCompleted
	payment.CompletedAt = &now

	switch payment.PaymentType {
	case paytypes.TypePremium, paytypes.TypeRenewal:
		if payment.PolicyID != nil {
			if err := s.policySvc.Activate(dbc, *payment.PolicyID, payment.PaymentReference); err != nil && !errors.Is(err, errors.ErrConflict) {
				return fmt.Errorf("activate policy: %w", err)
			}
		}
	case paytypes.TypeClaim:
		if payment.ClaimID != nil {
			if err := s.claimsSvc.MarkPaid(dbc, *payment.ClaimID, payment.PaymentReference); err != nil && !errors.Is(err, errors.ErrConflict) {
				return fmt.Errorf("mark claim paid: %w", err)
			}
		}
	}

	s.log.Info("payment completed",
		"payment_reference", payment.PaymentReference,
		"payment_type", payment.PaymentType,
		"amount", payment.Amount,
	)
	return nil
}

func (s *paymentService) ListForRequestUser(dbc dbctx.Context) ([]*paytypes.Payment, error) {
	userID, err := requestUserID(dbc)
	if err != nil {
		return nil, err
	}
	return s.payments.ListByUser(dbc, userID)
}

// payerEmail falls back to a deterministic address when the customer
// registered with a phone number only; Paystack requires one.
func payerEmail(email, phone string) string {
	if strings.TrimSpace(email) != "" {
		return email
	}
	digits := strings.TrimPrefix(phone, "+")
	return digits + "@customers.sorosurance.ng"
}
