package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisstore "github.com/sorosurance/sorosurance-backend/internal/clients/redis"
	claimrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/claims"
	insurancerepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/insurance"
	userrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/user"
	"github.com/sorosurance/sorosurance-backend/internal/domain/risk"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

/*
USSDService drives the dial-in menu for feature phone users. The
aggregator posts every keypress with the full "*"-joined input so far;
replies prefixed CON keep the session open and END close it.

Listed record IDs are parked in the session store between steps so a
"2*1" selection resolves against the exact list the caller saw, not a
fresh query that may have reordered.
*/
type USSDService interface {
	Handle(ctx context.Context, sessionID, phoneNumber, text string) (string, error)
}

type ussdSession struct {
	PolicyIDs []string `json:"policy_ids,omitempty"`
	ClaimIDs  []string `json:"claim_ids,omitempty"`
}

type ussdService struct {
	db       *gorm.DB
	log      *logger.Logger
	sessions redisstore.SessionStore
	users    userrepo.UserRepo
	policies insurancerepo.PolicyRepo
	products insurancerepo.ProductRepo
	claims   claimrepo.ClaimRepo
}

func NewUSSDService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sessions redisstore.SessionStore,
	users userrepo.UserRepo,
	policies insurancerepo.PolicyRepo,
	products insurancerepo.ProductRepo,
	claims claimrepo.ClaimRepo,
) USSDService {
	return &ussdService{
		db:       db,
		log:      baseLog.With("service", "USSDService"),
		sessions: sessions,
		users:    users,
		policies: policies,
		products: products,
		claims:   claims,
	}
}

const ussdMainMenu = "CON Welcome to Sorosurance\n" +
	"1. My policies\n" +
	"2. My claims\n" +
	"3. Insurance products\n" +
	"4. My Soro-Score"

func (s *ussdService) Handle(ctx context.Context, sessionID, phoneNumber, text string) (string, error) {
	dbc := dbctx.New(ctx)

	user, err := s.users.GetByPhoneNumber(dbc, NormalizePhoneNumber(phoneNumber))
	if err != nil {
		return "", err
	}
	if user == nil {
		return "END This number is not registered with Sorosurance. Dial in after signing up.", nil
	}

	steps := splitUSSDText(text)
	if len(steps) == 0 {
		s.dropSession(ctx, sessionID)
		return ussdMainMenu, nil
	}

	switch steps[0] {
	case "1":
		return s.policyMenu(dbc, sessionID, user.ID, steps[1:])
	case "2":
		return s.claimMenu(dbc, sessionID, user.ID, steps[1:])
	case "3":
		return s.productList(dbc)
	case "4":
		return s.scoreSummary(user.SoroScore), nil
	default:
		return ussdMainMenu, nil
	}
}

func (s *ussdService) policyMenu(dbc dbctx.Context, sessionID string, userID uuid.UUID, rest []string) (string, error) {
	if len(rest) == 0 {
		policies, err := s.policies.ListByUser(dbc, userID)
		if err != nil {
			return "", err
		}
		if len(policies) == 0 {
			return "END You have no policies yet. Dial in after purchasing one.", nil
		}
		sess := ussdSession{}
		var b strings.Builder
		b.WriteString("CON Your policies\n")
		for i, p := range policies {
			if i >= 5 {
				break
			}
			sess.PolicyIDs = append(sess.PolicyIDs, p.ID.String())
			fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, p.PolicyNumber, p.Status)
		}
		b.WriteString("Reply with a number for details")
		s.putSession(dbc.Ctx, sessionID, sess)
		return b.String(), nil
	}

	var sess ussdSession
	ok, err := s.sessions.Get(dbc.Ctx, sessionID, &sess)
	if err != nil {
		s.log.Warn("session lookup failed", "session_id", sessionID, "error", err)
	}
	if !ok {
		return "END Session expired. Please dial in again.", nil
	}
	id, ok := pickSessionID(sess.PolicyIDs, rest[0])
	if !ok {
		return "END Invalid selection. Please dial in again.", nil
	}
	found, err := s.policies.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "END Policy not found.", nil
	}
	p := found[0]
	return fmt.Sprintf(
		"END Policy %s\nStatus: %s\nCover: NGN %.0f\nPremium: NGN %.0f %s\nExpires: %s",
		p.PolicyNumber, p.Status, p.CoverageAmount, p.PremiumAmount,
		p.PremiumFrequency, p.EndDate.Format("02 Jan 2006"),
	), nil
}

func (s *ussdService) claimMenu(dbc dbctx.Context, sessionID string, userID uuid.UUID, rest []string) (string, error) {
	if len(rest) == 0 {
		claims, err := s.claims.ListByUser(dbc, userID)
		if err != nil {
			return "", err
		}
		if len(claims) == 0 {
			return "END You have no claims on record.", nil
		}
		sess := ussdSession{}
		var b strings.Builder
		b.WriteString("CON Your claims\n")
		for i, c := range claims {
			if i >= 5 {
				break
			}
			sess.ClaimIDs = append(sess.ClaimIDs, c.ID.String())
			fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, c.ClaimNumber, c.Status)
		}
		b.WriteString("Reply with a number for details")
		s.putSession(dbc.Ctx, sessionID, sess)
		return b.String(), nil
	}

	var sess ussdSession
	ok, err := s.sessions.Get(dbc.Ctx, sessionID, &sess)
	if err != nil {
		s.log.Warn("session lookup failed", "session_id", sessionID, "error", err)
	}
	if !ok {
		return "END Session expired. Please dial in again.", nil
	}
	id, ok := pickSessionID(sess.ClaimIDs, rest[0])
	if !ok {
		return "END Invalid selection. Please dial in again.", nil
	}
	found, err := s.claims.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "END Claim not found.", nil
	}
	c := found[0]
	var b strings.Builder
	fmt.Fprintf(&b, "END Claim %s\nStatus: %s\nAmount: NGN %.0f", c.ClaimNumber, c.Status, c.ClaimedAmount)
	if c.ApprovedAmount != nil {
		fmt.Fprintf(&b, "\nApproved: NGN %.0f", *c.ApprovedAmount)
	}
	if c.SoroScore != nil {
		fmt.Fprintf(&b, "\nSoro-Score: %.0f (%s)", *c.SoroScore, c.RiskLevel)
	}
	return b.String(), nil
}

func (s *ussdService) productList(dbc dbctx.Context) (string, error) {
	products, err := s.products.ListActive(dbc)
	if err != nil {
		return "", err
	}
	if len(products) == 0 {
		return "END No products available right now.", nil
	}
	var b strings.Builder
	b.WriteString("END Sorosurance products\n")
	for i, p := range products {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "%d. %s from NGN %.0f/mo\n", i+1, p.Name, p.BasePremium)
	}
	b.WriteString("Visit the app to purchase")
	return b.String(), nil
}

func (s *ussdService) scoreSummary(score float64) string {
	level := risk.LevelForScore(score)
	return fmt.Sprintf(
		"END Your Soro-Score is %.0f (%s risk).\nLower scores mean faster claim approval.",
		score, level,
	)
}

func (s *ussdService) putSession(ctx context.Context, sessionID string, sess ussdSession) {
	if err := s.sessions.Put(ctx, sessionID, sess); err != nil {
		s.log.Warn("session save failed", "session_id", sessionID, "error", err)
	}
}

func (s *ussdService) dropSession(ctx context.Context, sessionID string) {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.log.Warn("session delete failed", "session_id", sessionID, "error", err)
	}
}

// splitUSSDText breaks the aggregator's cumulative input into steps.
func splitUSSDText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	parts := strings.Split(text, "*")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func pickSessionID(ids []string, choice string) (uuid.UUID, bool) {
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > len(ids) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(ids[n-1])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
