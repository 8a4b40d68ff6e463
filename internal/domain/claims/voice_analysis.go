package claims

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Recording quality buckets derived from signal level and background
// noise.
const (
	QualityGood    = "good"
	QualityFair    = "fair"
	QualityPoor    = "poor"
	QualityUnknown = "unknown"
)

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// VoiceAnalysis is the immutable record of one voice-processing run
// over a claim recording. Reprocessing appends a new row rather than
// mutating an old one.
type VoiceAnalysis struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ClaimID uuid.UUID `gorm:"type:uuid;not null;column:claim_id;index" json:"claim_id"`

	SampleRate  int    `gorm:"not null;default:0;column:sample_rate" json:"sample_rate"`
	Channels    int    `gorm:"not null;default:0;column:channels" json:"channels"`
	BitDepth    int    `gorm:"not null;default:0;column:bit_depth" json:"bit_depth"`
	AudioFormat string `gorm:"column:audio_format" json:"audio_format,omitempty"`

	DurationSeconds float64 `gorm:"not null;default:0;column:duration_seconds" json:"duration_seconds"`
	WordCount       int     `gorm:"not null;default:0;column:word_count" json:"word_count"`
	SpeakingRate    float64 `gorm:"not null;default:0;column:speaking_rate" json:"speaking_rate"`
	PauseFrequency  float64 `gorm:"not null;default:0;column:pause_frequency" json:"pause_frequency"`
	FillerWordCount int     `gorm:"not null;default:0;column:filler_word_count" json:"filler_word_count"`

	Transcript           string  `gorm:"column:transcript" json:"transcript,omitempty"`
	TranscriptConfidence float64 `gorm:"not null;default:0;column:transcript_confidence" json:"transcript_confidence"`

	// ConfidenceScore is the engine's overall confidence in this
	// analysis, transcript confidence discounted for degraded signal.
	ConfidenceScore float64 `gorm:"not null;default:0;column:confidence_score" json:"confidence_score"`
	TranscriptionEngine  string  `gorm:"column:transcription_engine" json:"transcription_engine,omitempty"`

	SentimentLabel  string         `gorm:"column:sentiment_label" json:"sentiment_label,omitempty"`
	SentimentScore  float64        `gorm:"not null;default:0;column:sentiment_score" json:"sentiment_score"`
	SentimentCounts datatypes.JSON `gorm:"column:sentiment_counts;type:jsonb" json:"sentiment_counts"`
	EmotionScores   datatypes.JSON `gorm:"column:emotion_scores;type:jsonb" json:"emotion_scores"`
	Keywords        datatypes.JSON `gorm:"column:keywords;type:jsonb" json:"keywords"`

	SignalDBFS           float64 `gorm:"not null;default:0;column:signal_dbfs" json:"signal_dbfs"`
	BackgroundNoiseLevel float64 `gorm:"not null;default:0;column:background_noise_level" json:"background_noise_level"`
	RecordingQuality     string  `gorm:"column:recording_quality" json:"recording_quality,omitempty"`

	Flags    datatypes.JSON `gorm:"column:flags;type:jsonb" json:"flags"`
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (VoiceAnalysis) TableName() string { return "voice_analysis" }
