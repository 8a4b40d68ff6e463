package scoring

import (
	"context"
	"math/rand"
	"testing"

	types "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	"github.com/sorosurance/sorosurance-backend/internal/domain/risk"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

type fixedProvider struct {
	comps Components
}

func (p *fixedProvider) Components(ctx context.Context, in ClaimInput) (Components, error) {
	return p.comps, nil
}

func TestNewEngineRejectsInvalidWeights(t *testing.T) {
	w := DefaultWeights()
	w.Sentiment = -0.2
	if _, err := NewEngine(testLogger(t), w, nil); err == nil {
		t.Fatalf("NewEngine: expected error for invalid weights, got nil")
	}
}

func TestScoreStaysInRange(t *testing.T) {
	eng, err := NewEngine(testLogger(t), DefaultWeights(), &fixedProvider{comps: Components{
		Inconsistency:  250,
		Urgency:        -40,
		Sentiment:      100,
		MediaIntegrity: 100,
		Historical:     100,
	}})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	res, err := eng.Score(context.Background(), ClaimInput{Transcript: "the roof leaked"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.SoroScore < 0 || res.SoroScore > 100 {
		t.Fatalf("SoroScore out of range: %v", res.SoroScore)
	}
	for k, v := range res.Components {
		if v < 0 || v > 100 {
			t.Fatalf("component %s out of range: %v", k, v)
		}
	}
}

func TestScoreRangeAcrossWeightAndComponentGrids(t *testing.T) {
	weightSets := []Weights{
		DefaultWeights(),
		{Inconsistency: 1, Urgency: 0, Sentiment: 0, MediaIntegrity: 0, Historical: 0},
		{Inconsistency: 0.1, Urgency: 0.1, Sentiment: 0.1, MediaIntegrity: 0.1, Historical: 0.6},
		{Inconsistency: 0.4, Urgency: 0.3, Sentiment: 0.1, MediaIntegrity: 0.1, Historical: 0.1},
	}
	values := []float64{0, 25, 50, 75, 100}

	for _, w := range weightSets {
		for _, a := range values {
			for _, b := range values {
				comps := Components{Inconsistency: a, Urgency: b, Sentiment: a, MediaIntegrity: b, Historical: a}
				eng, err := NewEngine(testLogger(t), w, &fixedProvider{comps: comps})
				if err != nil {
					t.Fatalf("NewEngine(%+v): %v", w, err)
				}
				res, err := eng.Score(context.Background(), ClaimInput{Transcript: "x"})
				if err != nil {
					t.Fatalf("Score: %v", err)
				}
				if res.SoroScore < 0 || res.SoroScore > 100 {
					t.Fatalf("weights=%+v comps=%+v: score out of range %v", w, comps, res.SoroScore)
				}
			}
		}
	}
}

func TestScoreMonotoneInComponents(t *testing.T) {
	base := Components{Inconsistency: 40, Urgency: 40, Sentiment: 40, MediaIntegrity: 40, Historical: 40}
	prev := -1.0
	for _, inc := range []float64{10, 40, 70, 100} {
		comps := base
		comps.Inconsistency = inc
		eng, err := NewEngine(testLogger(t), DefaultWeights(), &fixedProvider{comps: comps})
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}
		res, err := eng.Score(context.Background(), ClaimInput{Transcript: "x"})
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if res.SoroScore < prev {
			t.Fatalf("score dropped from %v to %v as inconsistency rose to %v", prev, res.SoroScore, inc)
		}
		prev = res.SoroScore
	}
}

func TestHighRiskNeverAutoApproved(t *testing.T) {
	highComps := Components{Inconsistency: 95, Urgency: 95, Sentiment: 95, MediaIntegrity: 95, Historical: 95}
	for seed := int64(0); seed < 50; seed++ {
		eng, err := NewEngine(testLogger(t), DefaultWeights(), &fixedProvider{comps: highComps},
			WithRand(rand.New(rand.NewSource(seed))), WithMediumApproveRate(1))
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}
		res, err := eng.Score(context.Background(), ClaimInput{Transcript: "x"})
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if res.RiskLevel != risk.LevelHigh {
			t.Fatalf("seed %d: want high risk, got %q", seed, res.RiskLevel)
		}
		if res.AutoApprovalRecommended {
			t.Fatalf("seed %d: high risk claim auto approved", seed)
		}
	}
}

func TestScoreWeightNormalization(t *testing.T) {
	// Scaling every weight by the same factor must not move the score.
	comps := Components{Inconsistency: 80, Urgency: 20, Sentiment: 40, MediaIntegrity: 60, Historical: 30}
	base := DefaultWeights()
	halved := Weights{
		Inconsistency:  base.Inconsistency / 2,
		Urgency:        base.Urgency / 2,
		Sentiment:      base.Sentiment / 2,
		MediaIntegrity: base.MediaIntegrity / 2,
		Historical:     base.Historical / 2,
	}
	if err := halved.Validate(); err != nil {
		t.Fatalf("halved weights invalid: %v", err)
	}

	score := func(w Weights) float64 {
		eng, err := NewEngine(testLogger(t), w, &fixedProvider{comps: comps})
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}
		res, err := eng.Score(context.Background(), ClaimInput{Transcript: "x"})
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		return res.SoroScore
	}

	a, b := score(base), score(halved)
	if diff := a - b; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("normalized score moved: base=%v halved=%v", a, b)
	}
}

func TestAutoApprovalByTier(t *testing.T) {
	lowComps := Components{Inconsistency: 10, Urgency: 10, Sentiment: 10, MediaIntegrity: 10, Historical: 10}
	highComps := Components{Inconsistency: 90, Urgency: 90, Sentiment: 90, MediaIntegrity: 90, Historical: 90}
	medComps := Components{Inconsistency: 50, Urgency: 50, Sentiment: 50, MediaIntegrity: 50, Historical: 50}

	run := func(comps Components, opts ...EngineOption) *UnderwritingResult {
		eng, err := NewEngine(testLogger(t), DefaultWeights(), &fixedProvider{comps: comps}, opts...)
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}
		res, err := eng.Score(context.Background(), ClaimInput{Transcript: "x"})
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		return res
	}

	if res := run(lowComps); res.RiskLevel != risk.LevelLow || !res.AutoApprovalRecommended {
		t.Fatalf("low tier: level=%q auto=%v", res.RiskLevel, res.AutoApprovalRecommended)
	}
	if res := run(highComps); res.RiskLevel != risk.LevelHigh || res.AutoApprovalRecommended {
		t.Fatalf("high tier: level=%q auto=%v", res.RiskLevel, res.AutoApprovalRecommended)
	}

	// A sampling rate of 1 always approves the medium tier, 0 never does.
	if res := run(medComps, WithMediumApproveRate(1), WithRand(rand.New(rand.NewSource(1)))); res.RiskLevel != risk.LevelMedium || !res.AutoApprovalRecommended {
		t.Fatalf("medium tier rate=1: level=%q auto=%v", res.RiskLevel, res.AutoApprovalRecommended)
	}
	if res := run(medComps, WithMediumApproveRate(0), WithRand(rand.New(rand.NewSource(1)))); res.AutoApprovalRecommended {
		t.Fatalf("medium tier rate=0: auto approval should never fire")
	}
}

func TestScoreFlags(t *testing.T) {
	high := Components{Inconsistency: 80, Urgency: 80, Sentiment: 80, MediaIntegrity: 80, Historical: 80}
	eng, err := NewEngine(testLogger(t), DefaultWeights(), &fixedProvider{comps: high})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	mediaRisk := 85.0
	res, err := eng.Score(context.Background(), ClaimInput{
		Transcript:          "",
		RecordingQuality:    types.QualityPoor,
		SentimentScore:      -0.6,
		MediaIntegrityScore: &mediaRisk,
		TotalClaims:         4,
		RejectedClaims:      3,
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	want := map[string]bool{
		"high_risk_score":    true,
		"no_transcript":      true,
		"poor_recording":     true,
		"high_inconsistency": true,
		"suspect_media":      true,
		"negative_sentiment": true,
		"repeat_rejections":  true,
	}
	got := map[string]bool{}
	for _, f := range res.Flags {
		got[f] = true
	}
	for f := range want {
		if !got[f] {
			t.Fatalf("missing flag %q in %v", f, res.Flags)
		}
	}
}

func TestScoreConfidenceAndRecommendation(t *testing.T) {
	low := Components{Inconsistency: 10, Urgency: 10, Sentiment: 10, MediaIntegrity: 10, Historical: 10}
	eng, err := NewEngine(testLogger(t), DefaultWeights(), &fixedProvider{comps: low})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	media := 10.0
	res, err := eng.Score(context.Background(), ClaimInput{
		Transcript:           "fire at the shop",
		TranscriptConfidence: 0.9,
		RecordingQuality:     types.QualityGood,
		MediaIntegrityScore:  &media,
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.Confidence != 0.9 {
		t.Fatalf("confidence: want=0.9 got=%v", res.Confidence)
	}
	if res.Recommendation != "auto_approve" {
		t.Fatalf("recommendation: want=auto_approve got=%q", res.Recommendation)
	}

	// Degraded audio and missing evidence discount the confidence;
	// an empty transcript zeroes it.
	res, err = eng.Score(context.Background(), ClaimInput{
		Transcript:           "fire at the shop",
		TranscriptConfidence: 1,
		RecordingQuality:     types.QualityPoor,
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got := res.Confidence; got <= 0 || got >= 0.9 {
		t.Fatalf("degraded confidence out of range: %v", got)
	}

	high := Components{Inconsistency: 90, Urgency: 90, Sentiment: 90, MediaIntegrity: 90, Historical: 90}
	eng, err = NewEngine(testLogger(t), DefaultWeights(), &fixedProvider{comps: high})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	res, err = eng.Score(context.Background(), ClaimInput{Transcript: ""})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.Confidence != 0 {
		t.Fatalf("confidence without transcript: want=0 got=%v", res.Confidence)
	}
	if res.Recommendation != "investigate" {
		t.Fatalf("recommendation: want=investigate got=%q", res.Recommendation)
	}
}

func TestHeuristicProviderNeutralDefaults(t *testing.T) {
	p := NewHeuristicProvider()
	comps, err := p.Components(context.Background(), ClaimInput{})
	if err != nil {
		t.Fatalf("Components: %v", err)
	}
	if comps.Inconsistency != 75 {
		t.Fatalf("Inconsistency without transcript: want=75 got=%v", comps.Inconsistency)
	}
	if comps.Sentiment != neutralComponent {
		t.Fatalf("Sentiment without transcript: want=%v got=%v", neutralComponent, comps.Sentiment)
	}
	if comps.MediaIntegrity != neutralComponent {
		t.Fatalf("MediaIntegrity without media: want=%v got=%v", neutralComponent, comps.MediaIntegrity)
	}
}

func TestHeuristicProviderUrgency(t *testing.T) {
	p := NewHeuristicProvider()
	comps, err := p.Components(context.Background(), ClaimInput{
		Transcript:    "there was an emergency at the shop",
		Keywords:      []string{"emergency", "shop"},
		EmotionScores: map[string]int{"fear": 2, "anger": 1},
	})
	if err != nil {
		t.Fatalf("Components: %v", err)
	}
	// one urgent keyword (15) + fear 2*10 + anger 1*8
	if comps.Urgency != 43 {
		t.Fatalf("Urgency: want=43 got=%v", comps.Urgency)
	}
}

func TestHeuristicProviderHistorical(t *testing.T) {
	p := NewHeuristicProvider()

	newCustomer, _ := p.Components(context.Background(), ClaimInput{UserSoroScore: 42})
	if newCustomer.Historical != 42 {
		t.Fatalf("Historical for new customer: want=42 got=%v", newCustomer.Historical)
	}

	repeat, _ := p.Components(context.Background(), ClaimInput{
		UserSoroScore:  50,
		TotalClaims:    4,
		RejectedClaims: 2,
	})
	// 0.6*50 + 0.4*0.5*100
	if repeat.Historical != 50 {
		t.Fatalf("Historical with rejections: want=50 got=%v", repeat.Historical)
	}
}
