package claims

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sorosurance/sorosurance-backend/internal/domain/risk"
)

const (
	StatusDraft       = "draft"
	StatusSubmitted   = "submitted"
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
	StatusPaid        = "paid"
	StatusClosed      = "closed"
	StatusCancelled   = "cancelled"
)

const (
	TypeAccident = "accident"
	TypeTheft    = "theft"
	TypeDamage   = "damage"
	TypeIllness  = "illness"
	TypeDeath    = "death"
	TypeOther    = "other"
)

type Claim struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ClaimNumber string    `gorm:"uniqueIndex;not null;column:claim_number" json:"claim_number"`
	PolicyID    uuid.UUID `gorm:"type:uuid;not null;column:policy_id;index" json:"policy_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;column:user_id;index" json:"user_id"`

	ClaimType        string     `gorm:"not null;column:claim_type" json:"claim_type"`
	Description      string     `gorm:"column:description" json:"description"`
	IncidentDate     time.Time  `gorm:"not null;column:incident_date" json:"incident_date"`
	IncidentLocation string     `gorm:"column:incident_location" json:"incident_location"`

	EstimatedLoss     float64  `gorm:"not null;default:0;column:estimated_loss" json:"estimated_loss"`
	ClaimedAmount     float64  `gorm:"not null;column:claimed_amount" json:"claimed_amount"`
	ApprovedAmount    *float64 `gorm:"column:approved_amount" json:"approved_amount,omitempty"`
	DeductibleApplied float64  `gorm:"not null;default:0;column:deductible_applied" json:"deductible_applied"`

	// Voice claim data. AudioBucketKey points at the recording in
	// object storage; the transcript fields are filled by the voice
	// processing job.
	AudioBucketKey       string   `gorm:"column:audio_bucket_key" json:"audio_bucket_key,omitempty"`
	AudioDurationSeconds float64  `gorm:"not null;default:0;column:audio_duration_seconds" json:"audio_duration_seconds"`
	Transcript           string   `gorm:"column:transcript" json:"transcript,omitempty"`
	TranscriptConfidence *float64 `gorm:"column:transcript_confidence" json:"transcript_confidence,omitempty"`

	SoroScore          *float64 `gorm:"column:soro_score" json:"soro_score,omitempty"`
	RiskLevel          string   `gorm:"column:risk_level;index" json:"risk_level,omitempty"`
	SentimentScore     *float64 `gorm:"column:sentiment_score" json:"sentiment_score,omitempty"`
	UrgencyScore       *float64 `gorm:"column:urgency_score" json:"urgency_score,omitempty"`
	InconsistencyScore *float64 `gorm:"column:inconsistency_score" json:"inconsistency_score,omitempty"`

	Keywords datatypes.JSON `gorm:"column:keywords;type:jsonb" json:"keywords"`

	Photos    datatypes.JSON `gorm:"column:photos;type:jsonb" json:"photos"`
	Videos    datatypes.JSON `gorm:"column:videos;type:jsonb" json:"videos"`
	Documents datatypes.JSON `gorm:"column:documents;type:jsonb" json:"documents"`

	Status       string `gorm:"not null;default:draft;column:status;index" json:"status"`
	AutoApproved bool   `gorm:"not null;default:false;column:auto_approved" json:"auto_approved"`
	ReviewNotes  string `gorm:"column:review_notes" json:"review_notes,omitempty"`

	ReviewedBy *uuid.UUID `gorm:"type:uuid;column:reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`

	PaymentReference string     `gorm:"column:payment_reference" json:"payment_reference,omitempty"`
	PaidAt           *time.Time `gorm:"column:paid_at" json:"paid_at,omitempty"`

	SubmittedAt *time.Time     `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Claim) TableName() string { return "claim" }

// ApplyScore sets the score and the derived risk tier together so the
// two can never disagree.
func (c *Claim) ApplyScore(score float64) {
	c.SoroScore = &score
	c.RiskLevel = risk.LevelForScore(score)
}

func (c *Claim) IsTerminal() bool {
	switch c.Status {
	case StatusPaid, StatusClosed, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// NewClaimNumber returns a reference of the form CLM-XXXXXXXX.
func NewClaimNumber() string {
	return "CLM-" + randomHex(4)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		u := uuid.New()
		copy(buf, u[:n])
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}
