package scoring

import (
	"context"
	"math"

	types "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
)

// ClaimInput carries everything a provider may draw on. Voice fields
// are zero-valued when the claim had no usable recording; the provider
// must degrade to neutral rather than fail.
type ClaimInput struct {
	ClaimType     string
	ClaimedAmount float64

	Transcript           string
	TranscriptConfidence float64
	Keywords             []string
	SentimentScore       float64
	EmotionScores        map[string]int
	SpeakingRate         float64
	WordCount            int
	RecordingQuality     string

	// MediaIntegrityScore is filled by the evidence checks; nil means
	// no media was attached and the component stays neutral.
	MediaIntegrityScore *float64

	UserSoroScore  float64
	TotalClaims    int
	RejectedClaims int
}

// Components are the five raw risk signals, each on 0..100 where
// higher is riskier.
type Components struct {
	Inconsistency  float64
	Urgency        float64
	Sentiment      float64
	MediaIntegrity float64
	Historical     float64
}

// ComponentProvider derives the raw components for a claim. The
// heuristic provider below is the default; a model-backed provider
// satisfies the same interface.
type ComponentProvider interface {
	Components(ctx context.Context, in ClaimInput) (Components, error)
}

const neutralComponent = 50.0

var urgentTerms = map[string]struct{}{
	"emergency": {}, "urgent": {}, "immediate": {}, "serious": {}, "severe": {},
}

// HeuristicProvider computes the components from the lexical and
// acoustic signals alone, with no external calls.
type HeuristicProvider struct{}

func NewHeuristicProvider() *HeuristicProvider { return &HeuristicProvider{} }

func (p *HeuristicProvider) Components(ctx context.Context, in ClaimInput) (Components, error) {
	return Components{
		Inconsistency:  p.inconsistency(in),
		Urgency:        p.urgency(in),
		Sentiment:      p.sentiment(in),
		MediaIntegrity: p.mediaIntegrity(in),
		Historical:     p.historical(in),
	}, nil
}

// inconsistency rises when the story is hard to trust mechanically: a
// missing or low-confidence transcript, a poor recording, or speech
// far outside conversational pace.
func (p *HeuristicProvider) inconsistency(in ClaimInput) float64 {
	if in.Transcript == "" {
		return 75
	}
	score := (1 - in.TranscriptConfidence) * 60

	switch in.RecordingQuality {
	case types.QualityPoor:
		score += 25
	case types.QualityFair:
		score += 10
	case types.QualityUnknown:
		score += 15
	}

	// Conversational English sits roughly in 100..180 wpm.
	if in.SpeakingRate > 0 && (in.SpeakingRate < 60 || in.SpeakingRate > 240) {
		score += 15
	}

	return clamp(score)
}

func (p *HeuristicProvider) urgency(in ClaimInput) float64 {
	score := 0.0
	for _, kw := range in.Keywords {
		if _, ok := urgentTerms[kw]; ok {
			score += 15
		}
	}
	score += float64(in.EmotionScores["fear"]) * 10
	score += float64(in.EmotionScores["anger"]) * 8
	return clamp(score)
}

// sentiment maps the -1..1 transcript sentiment onto risk: strongly
// negative narratives score high, positive ones low.
func (p *HeuristicProvider) sentiment(in ClaimInput) float64 {
	if in.Transcript == "" {
		return neutralComponent
	}
	return clamp(50 - in.SentimentScore*50)
}

func (p *HeuristicProvider) mediaIntegrity(in ClaimInput) float64 {
	if in.MediaIntegrityScore == nil {
		return neutralComponent
	}
	return clamp(*in.MediaIntegrityScore)
}

// historical blends the customer's standing score with their rejection
// ratio. New customers with no claims history stay at their standing
// score.
func (p *HeuristicProvider) historical(in ClaimInput) float64 {
	base := clamp(in.UserSoroScore)
	if in.TotalClaims <= 0 {
		return base
	}
	rejectRatio := float64(in.RejectedClaims) / float64(in.TotalClaims)
	return clamp(0.6*base + 0.4*rejectRatio*100)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
