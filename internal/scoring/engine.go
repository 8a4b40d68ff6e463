package scoring

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/sorosurance/sorosurance-backend/internal/domain/risk"
	"github.com/sorosurance/sorosurance-backend/internal/platform/envutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

// UnderwritingResult is the full outcome of one score calculation,
// persisted verbatim into the audit log.
type UnderwritingResult struct {
	SoroScore               float64            `json:"soro_score"`
	RiskLevel               string             `json:"risk_level"`
	AutoApprovalRecommended bool               `json:"auto_approval_recommended"`
	Confidence              float64            `json:"confidence"`
	Components              map[string]float64 `json:"components"`
	Flags                   []string           `json:"flags"`
	Recommendation          string             `json:"recommendation"`
}

type Engine struct {
	weights  Weights
	provider ComponentProvider
	log      *logger.Logger

	// mediumApproveRate is the fraction of medium-risk claims spot
	// sampled for auto approval. High risk is never auto approved.
	mediumApproveRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

type EngineOption func(*Engine)

// WithRand replaces the sampling source, which tests use to force the
// medium-tier decision either way.
func WithRand(rng *rand.Rand) EngineOption {
	return func(e *Engine) { e.rng = rng }
}

func WithMediumApproveRate(rate float64) EngineOption {
	return func(e *Engine) { e.mediumApproveRate = rate }
}

func NewEngine(log *logger.Logger, weights Weights, provider ComponentProvider, opts ...EngineOption) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		provider = NewHeuristicProvider()
	}
	e := &Engine{
		weights:           weights,
		provider:          provider,
		log:               log.With("component", "ScoringEngine"),
		mediumApproveRate: envutil.Float("SCORING_MEDIUM_AUTO_APPROVE_RATE", 0.25),
		rng:               rand.New(rand.NewSource(rand.Int63())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Score aggregates the provider's components into the final score via
// a weight-normalized mean, so the result always lands in 0..100
// regardless of how the weights are tuned.
func (e *Engine) Score(ctx context.Context, in ClaimInput) (*UnderwritingResult, error) {
	comps, err := e.provider.Components(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("score components: %w", err)
	}

	comps.Inconsistency = clamp(comps.Inconsistency)
	comps.Urgency = clamp(comps.Urgency)
	comps.Sentiment = clamp(comps.Sentiment)
	comps.MediaIntegrity = clamp(comps.MediaIntegrity)
	comps.Historical = clamp(comps.Historical)

	w := e.weights
	weighted := map[string]float64{
		"weighted_inconsistency": w.Inconsistency * comps.Inconsistency,
		"weighted_urgency":       w.Urgency * comps.Urgency,
		"weighted_sentiment":     w.Sentiment * comps.Sentiment,
		"weighted_media":         w.MediaIntegrity * comps.MediaIntegrity,
		"weighted_historical":    w.Historical * comps.Historical,
	}

	var total float64
	for _, v := range weighted {
		total += v
	}
	score := clamp(total / w.Sum())

	res := &UnderwritingResult{
		SoroScore: score,
		RiskLevel: risk.LevelForScore(score),
		Components: map[string]float64{
			"inconsistency":   comps.Inconsistency,
			"urgency":         comps.Urgency,
			"sentiment":       comps.Sentiment,
			"media_integrity": comps.MediaIntegrity,
			"historical":      comps.Historical,
		},
		Flags: e.flags(in, comps, score),
	}
	for k, v := range weighted {
		res.Components[k] = v
	}
	res.AutoApprovalRecommended = e.autoApprove(res.RiskLevel)
	res.Confidence = e.confidence(in)
	res.Recommendation = recommendation(res.RiskLevel, res.AutoApprovalRecommended)

	e.log.Debug("scored claim",
		"score", res.SoroScore,
		"risk_level", res.RiskLevel,
		"auto_approval", res.AutoApprovalRecommended,
		"confidence", res.Confidence,
		"flags", res.Flags,
	)
	return res, nil
}

// confidence reflects how much signal the engine actually had: it
// starts from the transcript confidence and discounts degraded audio
// and missing evidence.
func (e *Engine) confidence(in ClaimInput) float64 {
	if in.Transcript == "" {
		return 0
	}
	conf := in.TranscriptConfidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	switch in.RecordingQuality {
	case "poor":
		conf *= 0.7
	case "unknown":
		conf *= 0.8
	}
	if in.MediaIntegrityScore == nil {
		conf *= 0.9
	}
	return conf
}

func recommendation(riskLevel string, autoApprove bool) string {
	if autoApprove {
		return "auto_approve"
	}
	if riskLevel == risk.LevelHigh {
		return "investigate"
	}
	return "manual_review"
}

func (e *Engine) autoApprove(riskLevel string) bool {
	switch riskLevel {
	case risk.LevelLow:
		return true
	case risk.LevelMedium:
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.rng.Float64() < e.mediumApproveRate
	default:
		return false
	}
}

func (e *Engine) flags(in ClaimInput, comps Components, score float64) []string {
	flags := []string{}
	if score > 70 {
		flags = append(flags, "high_risk_score")
	}
	if in.Transcript == "" {
		flags = append(flags, "no_transcript")
	}
	if in.RecordingQuality == "poor" {
		flags = append(flags, "poor_recording")
	}
	if comps.Inconsistency > 70 {
		flags = append(flags, "high_inconsistency")
	}
	// MediaIntegrityScore is the condensed media risk, so the high end
	// is the suspicious end.
	if in.MediaIntegrityScore != nil && *in.MediaIntegrityScore > 70 {
		flags = append(flags, "suspect_media")
	}
	if in.SentimentScore < -0.3 {
		flags = append(flags, "negative_sentiment")
	}
	if in.TotalClaims > 0 && float64(in.RejectedClaims)/float64(in.TotalClaims) > 0.5 {
		flags = append(flags, "repeat_rejections")
	}
	return flags
}
