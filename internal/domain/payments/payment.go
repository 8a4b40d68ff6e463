package payments

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusRefunded   = "refunded"
)

const (
	TypePremium = "premium"
	TypeClaim   = "claim"
	TypeRenewal = "renewal"
	TypeOther   = "other"
)

type Payment struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PaymentReference string    `gorm:"uniqueIndex;not null;column:payment_reference" json:"payment_reference"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;column:user_id;index" json:"user_id"`

	PaymentType string  `gorm:"not null;column:payment_type;index" json:"payment_type"`
	Amount      float64 `gorm:"not null;column:amount" json:"amount"`
	Currency    string  `gorm:"not null;default:NGN;column:currency" json:"currency"`
	Status      string  `gorm:"not null;default:pending;column:status;index" json:"status"`

	PolicyID *uuid.UUID `gorm:"type:uuid;column:policy_id;index" json:"policy_id,omitempty"`
	ClaimID  *uuid.UUID `gorm:"type:uuid;column:claim_id;index" json:"claim_id,omitempty"`

	PaymentGateway   string         `gorm:"not null;column:payment_gateway" json:"payment_gateway"`
	GatewayReference string         `gorm:"column:gateway_reference;index" json:"gateway_reference,omitempty"`
	GatewayResponse  datatypes.JSON `gorm:"column:gateway_response;type:jsonb" json:"gateway_response"`

	VoicePayment bool `gorm:"not null;default:false;column:voice_payment" json:"voice_payment"`

	InitiatedAt time.Time      `gorm:"not null;default:now();column:initiated_at;index" json:"initiated_at"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Payment) TableName() string { return "payment" }

// NewPaymentReference returns a reference of the form PAY-XXXXXXXXXX.
func NewPaymentReference() string {
	return "PAY-" + randomHex(5)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		u := uuid.New()
		copy(buf, u[:n])
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}
