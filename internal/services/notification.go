package services

import (
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sorosurance/sorosurance-backend/internal/clients/sendgrid"
	"github.com/sorosurance/sorosurance-backend/internal/clients/twilio"
	notifrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/notifications"
	userrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/user"
	types "github.com/sorosurance/sorosurance-backend/internal/domain/notifications"
	usertypes "github.com/sorosurance/sorosurance-backend/internal/domain/user"
	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
	"github.com/sorosurance/sorosurance-backend/internal/platform/ctxutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

// NotificationService stores outbound messages and pushes them through
// the channel the customer prefers. Voice-first customers get a phone
// call reading the message out; everyone else falls back to SMS,
// WhatsApp, or email.
type NotificationService interface {
	Create(dbc dbctx.Context, note *types.Notification) (*types.Notification, error)
	Dispatch(dbc dbctx.Context, notificationID uuid.UUID) error
	ListForRequestUser(dbc dbctx.Context) ([]*types.Notification, error)
	MarkRead(dbc dbctx.Context, notificationID uuid.UUID) error
}

type notificationService struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     notifrepo.NotificationRepo
	userRepo userrepo.UserRepo
	sms      twilio.Client
	email    sendgrid.Client
}

func NewNotificationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	repo notifrepo.NotificationRepo,
	userRepo userrepo.UserRepo,
	sms twilio.Client,
	email sendgrid.Client,
) NotificationService {
	return &notificationService{
		db:       db,
		log:      baseLog.With("service", "NotificationService"),
		repo:     repo,
		userRepo: userRepo,
		sms:      sms,
		email:    email,
	}
}

func (s *notificationService) Create(dbc dbctx.Context, note *types.Notification) (*types.Notification, error) {
	if note == nil || note.UserID == uuid.Nil {
		return nil, errors.ErrInvalidArgument
	}
	if note.Channel == "" {
		note.Channel = types.ChannelSMS
	}
	if note.Status == "" {
		note.Status = types.StatusPending
	}
	created, err := s.repo.Create(dbc, []*types.Notification{note})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

// Dispatch sends one pending notification and marks it sent or failed.
// Channels without a configured client degrade to SMS before giving up.
func (s *notificationService) Dispatch(dbc dbctx.Context, notificationID uuid.UUID) error {
	rows, err := s.repo.GetByIDs(dbc, []uuid.UUID{notificationID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return errors.ErrNotFound
	}
	note := rows[0]
	if note.Status != types.StatusPending {
		return nil
	}
	if note.ScheduledFor != nil && note.ScheduledFor.After(time.Now()) {
		return nil
	}

	users, err := s.userRepo.GetByIDs(dbc, []uuid.UUID{note.UserID})
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return errors.ErrNotFound
	}
	recipient := users[0]

	sendErr := s.deliver(dbc, note, recipient)
	now := time.Now()
	if sendErr != nil {
		s.log.Warn("notification delivery failed",
			"notification_id", note.ID,
			"channel", note.Channel,
			"error", sendErr,
		)
		return s.repo.UpdateFields(dbc, note.ID, map[string]interface{}{
			"status":     types.StatusFailed,
			"updated_at": now,
		})
	}
	return s.repo.UpdateFields(dbc, note.ID, map[string]interface{}{
		"status":     types.StatusSent,
		"sent_at":    now,
		"updated_at": now,
	})
}

func (s *notificationService) deliver(dbc dbctx.Context, note *types.Notification, recipient *usertypes.User) error {
	body := note.Message
	if note.Title != "" {
		body = note.Title + ": " + note.Message
	}

	switch note.Channel {
	case types.ChannelVoice:
		if s.sms == nil {
			return fmt.Errorf("twilio not configured")
		}
		msg := note.VoiceMessage
		if msg == "" {
			msg = note.Message
		}
		twiml := fmt.Sprintf(`<Response><Say voice="alice">%s</Say></Response>`, html.EscapeString(msg))
		_, err := s.sms.PlaceVoiceCall(dbc.Ctx, recipient.PhoneNumber, twiml)
		return err

	case types.ChannelWhatsapp:
		if s.sms == nil {
			return fmt.Errorf("twilio not configured")
		}
		to := recipient.WhatsappNumber
		if to == "" {
			to = recipient.PhoneNumber
		}
		_, err := s.sms.SendWhatsApp(dbc.Ctx, to, body)
		return err

	case types.ChannelEmail:
		if s.email == nil {
			return fmt.Errorf("sendgrid not configured")
		}
		if recipient.Email == "" {
			return fmt.Errorf("user %s has no email", recipient.ID)
		}
		_, err := s.email.Send(dbc.Ctx, sendgrid.SendEmailRequest{
			To:      []sendgrid.EmailAddress{{Email: recipient.Email, Name: recipient.FullName()}},
			Subject: note.Title,
			Text:    note.Message,
		})
		return err

	case types.ChannelSMS, types.ChannelPush:
		if s.sms == nil {
			return fmt.Errorf("twilio not configured")
		}
		_, err := s.sms.SendSMS(dbc.Ctx, recipient.PhoneNumber, body)
		return err

	default:
		return fmt.Errorf("unknown channel %q", note.Channel)
	}
}

func (s *notificationService) ListForRequestUser(dbc dbctx.Context) ([]*types.Notification, error) {
	userID, err := requestUserID(dbc)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUser(dbc, userID)
}

func (s *notificationService) MarkRead(dbc dbctx.Context, notificationID uuid.UUID) error {
	userID, err := requestUserID(dbc)
	if err != nil {
		return err
	}
	ok, err := s.repo.MarkRead(dbc, notificationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrNotFound
	}
	return nil
}

// requestUserID pulls the authenticated caller out of the context.
func requestUserID(dbc dbctx.Context) (uuid.UUID, error) {
	rd, ok := ctxutil.GetRequestData(dbc.Ctx)
	if !ok || rd.UserID == "" {
		return uuid.Nil, errors.ErrUnauthorized
	}
	id, err := uuid.Parse(rd.UserID)
	if err != nil {
		return uuid.Nil, errors.ErrUnauthorized
	}
	return id, nil
}
