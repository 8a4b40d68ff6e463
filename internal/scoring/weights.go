// Package scoring computes the Soro-Score: a 0..100 composite risk
// score over a claim, where higher means riskier. The component
// signals come from a pluggable provider so the blend can be swapped
// without touching the aggregation or audit trail.
package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
	"github.com/sorosurance/sorosurance-backend/internal/platform/envutil"
)

type Weights struct {
	Inconsistency  float64 `yaml:"inconsistency"`
	Urgency        float64 `yaml:"urgency"`
	Sentiment      float64 `yaml:"sentiment"`
	MediaIntegrity float64 `yaml:"media_integrity"`
	Historical     float64 `yaml:"historical"`
}

func DefaultWeights() Weights {
	return Weights{
		Inconsistency:  0.25,
		Urgency:        0.15,
		Sentiment:      0.15,
		MediaIntegrity: 0.20,
		Historical:     0.25,
	}
}

func (w Weights) Sum() float64 {
	return w.Inconsistency + w.Urgency + w.Sentiment + w.MediaIntegrity + w.Historical
}

func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"inconsistency":   w.Inconsistency,
		"urgency":         w.Urgency,
		"sentiment":       w.Sentiment,
		"media_integrity": w.MediaIntegrity,
		"historical":      w.Historical,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("weight %s=%v out of [0,1]: %w", name, v, errors.ErrInvalidArgument)
		}
	}
	switch s := w.Sum(); {
	case s <= 0:
		return fmt.Errorf("weights sum to zero: %w", errors.ErrInvalidArgument)
	case s > 1+1e-9:
		return fmt.Errorf("weights sum to %v, above 1: %w", s, errors.ErrInvalidArgument)
	}
	return nil
}

// LoadWeights reads the blend from the YAML file named by
// SCORING_WEIGHTS_PATH, falling back to defaults when unset. Fields
// omitted in the file keep their default values.
func LoadWeights() (Weights, error) {
	w := DefaultWeights()
	path := envutil.Str("SCORING_WEIGHTS_PATH", "")
	if path == "" {
		return w, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("read scoring weights %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return w, fmt.Errorf("parse scoring weights %s: %w", path, err)
	}
	if err := w.Validate(); err != nil {
		return w, err
	}
	return w, nil
}
