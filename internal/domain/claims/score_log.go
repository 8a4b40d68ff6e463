package claims

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SoroScoreLog is the append-only audit trail of every score
// calculation. Exactly one of ClaimID, PolicyID, or UserID must be
// set; it identifies what the calculation was about.
type SoroScoreLog struct {
	ID       uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ClaimID  *uuid.UUID `gorm:"type:uuid;column:claim_id;index" json:"claim_id,omitempty"`
	PolicyID *uuid.UUID `gorm:"type:uuid;column:policy_id;index" json:"policy_id,omitempty"`
	UserID   *uuid.UUID `gorm:"type:uuid;column:user_id;index" json:"user_id,omitempty"`

	InconsistencyScore  float64 `gorm:"not null;column:inconsistency_score" json:"inconsistency_score"`
	UrgencyScore        float64 `gorm:"not null;column:urgency_score" json:"urgency_score"`
	SentimentScore      float64 `gorm:"not null;column:sentiment_score" json:"sentiment_score"`
	MediaIntegrityScore float64 `gorm:"not null;column:media_integrity_score" json:"media_integrity_score"`
	HistoricalScore     float64 `gorm:"not null;column:historical_score" json:"historical_score"`

	WeightedInconsistency float64 `gorm:"not null;column:weighted_inconsistency" json:"weighted_inconsistency"`
	WeightedUrgency       float64 `gorm:"not null;column:weighted_urgency" json:"weighted_urgency"`
	WeightedSentiment     float64 `gorm:"not null;column:weighted_sentiment" json:"weighted_sentiment"`
	WeightedMedia         float64 `gorm:"not null;column:weighted_media" json:"weighted_media"`
	WeightedHistorical    float64 `gorm:"not null;column:weighted_historical" json:"weighted_historical"`

	FinalSoroScore float64 `gorm:"not null;column:final_soro_score" json:"final_soro_score"`
	RiskLevel      string  `gorm:"not null;column:risk_level" json:"risk_level"`

	CalculationMetadata datatypes.JSON `gorm:"column:calculation_metadata;type:jsonb" json:"calculation_metadata"`
	CalculatedAt        time.Time      `gorm:"not null;default:now();index" json:"calculated_at"`
}

func (SoroScoreLog) TableName() string { return "soro_score_log" }

// TargetValid reports whether exactly one target reference is set.
func (l *SoroScoreLog) TargetValid() bool {
	n := 0
	if l.ClaimID != nil {
		n++
	}
	if l.PolicyID != nil {
		n++
	}
	if l.UserID != nil {
		n++
	}
	return n == 1
}
