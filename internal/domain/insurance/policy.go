package insurance

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
	PolicyDraft     = "draft"
	PolicyPending   = "pending"
	PolicyActive    = "active"
	PolicyExpired   = "expired"
	PolicyCancelled = "cancelled"
)

type Policy struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PolicyNumber string    `gorm:"uniqueIndex;not null;column:policy_number" json:"policy_number"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;column:user_id;index" json:"user_id"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null;column:product_id;index" json:"product_id"`

	StartDate time.Time `gorm:"not null;column:start_date" json:"start_date"`
	EndDate   time.Time `gorm:"not null;column:end_date" json:"end_date"`
	Status    string    `gorm:"not null;default:draft;column:status;index" json:"status"`

	InitialSoroScore float64 `gorm:"not null;column:initial_soro_score" json:"initial_soro_score"`
	CurrentSoroScore float64 `gorm:"not null;column:current_soro_score" json:"current_soro_score"`

	PremiumAmount    float64    `gorm:"not null;column:premium_amount" json:"premium_amount"`
	PremiumFrequency string     `gorm:"not null;default:monthly;column:premium_frequency" json:"premium_frequency"`
	NextPaymentDate  *time.Time `gorm:"column:next_payment_date" json:"next_payment_date,omitempty"`

	CoverageAmount   float64        `gorm:"not null;column:coverage_amount" json:"coverage_amount"`
	DeductibleAmount float64        `gorm:"not null;default:0;column:deductible_amount" json:"deductible_amount"`
	CoverageDetails  datatypes.JSON `gorm:"column:coverage_details;type:jsonb" json:"coverage_details"`

	PaymentMethod    string `gorm:"column:payment_method" json:"payment_method,omitempty"`
	PaymentReference string `gorm:"column:payment_reference" json:"payment_reference,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Policy) TableName() string { return "policy" }

func (p *Policy) IsActive() bool { return p.Status == PolicyActive }

func (p *Policy) DaysRemaining(now time.Time) int {
	d := int(p.EndDate.Sub(now).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// NewPolicyNumber returns a reference of the form SORO-XXXXXXXX.
func NewPolicyNumber() string {
	return "SORO-" + randomHex(4)
}

// PremiumAdjustmentForScore maps a Soro-Score to the renewal premium
// multiplier delta: low risk earns a discount, high risk a surcharge.
func PremiumAdjustmentForScore(score float64) float64 {
	switch {
	case score <= 30:
		return -0.2
	case score <= 70:
		return 0
	default:
		return 0.3
	}
}

// ClampPremium bounds a premium to the product's min/max band.
func ClampPremium(amount float64, product *Product) float64 {
	if amount < product.MinPremium {
		return product.MinPremium
	}
	if amount > product.MaxPremium {
		return product.MaxPremium
	}
	return amount
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		u := uuid.New()
		copy(buf, u[:n])
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}
