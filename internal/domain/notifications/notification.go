package notifications

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ChannelVoice    = "voice"
	ChannelSMS      = "sms"
	ChannelEmail    = "email"
	ChannelPush     = "push"
	ChannelWhatsapp = "whatsapp"
)

const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
	StatusRead      = "read"
)

type Notification struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;column:user_id;index" json:"user_id"`

	Channel string `gorm:"not null;column:channel;index" json:"channel"`
	Title   string `gorm:"not null;column:title" json:"title"`
	Message string `gorm:"not null;column:message" json:"message"`

	// VoiceBucketKey points at the synthesized audio for voice
	// notifications.
	VoiceBucketKey string `gorm:"column:voice_bucket_key" json:"voice_bucket_key,omitempty"`
	VoiceMessage   string `gorm:"column:voice_message" json:"voice_message,omitempty"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	Status   string         `gorm:"not null;default:pending;column:status;index" json:"status"`

	ClaimID   *uuid.UUID `gorm:"type:uuid;column:claim_id;index" json:"claim_id,omitempty"`
	PolicyID  *uuid.UUID `gorm:"type:uuid;column:policy_id;index" json:"policy_id,omitempty"`
	PaymentID *uuid.UUID `gorm:"type:uuid;column:payment_id;index" json:"payment_id,omitempty"`

	ScheduledFor *time.Time     `gorm:"column:scheduled_for" json:"scheduled_for,omitempty"`
	SentAt       *time.Time     `gorm:"column:sent_at" json:"sent_at,omitempty"`
	DeliveredAt  *time.Time     `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	ReadAt       *time.Time     `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Notification) TableName() string { return "notification" }
