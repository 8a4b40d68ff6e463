package scoring

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
)

func TestDefaultWeightsValidate(t *testing.T) {
	w := DefaultWeights()
	if err := w.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if math.Abs(w.Sum()-1.0) > 1e-9 {
		t.Fatalf("Sum: want=1.0 got=%v", w.Sum())
	}
}

func TestWeightsValidateRejectsOutOfRange(t *testing.T) {
	w := DefaultWeights()
	w.Urgency = 1.5
	err := w.Validate()
	if err == nil {
		t.Fatalf("Validate: expected error, got nil")
	}
	if !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("Validate: want ErrInvalidArgument, got %v", err)
	}
}

func TestWeightsValidateRejectsSumAboveOne(t *testing.T) {
	for _, w := range []Weights{
		{Inconsistency: 1, Urgency: 1, Sentiment: 1, MediaIntegrity: 1, Historical: 1},
		{Inconsistency: 0.5, Urgency: 0.3, Sentiment: 0.3, MediaIntegrity: 0.1, Historical: 0.1},
	} {
		err := w.Validate()
		if err == nil {
			t.Fatalf("Validate(%+v): expected error for sum %v, got nil", w, w.Sum())
		}
		if !errors.Is(err, errors.ErrInvalidArgument) {
			t.Fatalf("Validate(%+v): want ErrInvalidArgument, got %v", w, err)
		}
	}
}

func TestWeightsValidateRejectsZeroSum(t *testing.T) {
	var w Weights
	if err := w.Validate(); err == nil {
		t.Fatalf("Validate: expected error for zero weights, got nil")
	}
}

func TestLoadWeightsDefaultsWhenUnset(t *testing.T) {
	t.Setenv("SCORING_WEIGHTS_PATH", "")
	w, err := LoadWeights()
	if err != nil {
		t.Fatalf("LoadWeights: %v", err)
	}
	if w != DefaultWeights() {
		t.Fatalf("LoadWeights: want defaults, got %+v", w)
	}
}

func TestLoadWeightsPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	if err := os.WriteFile(path, []byte("inconsistency: 0.4\nhistorical: 0.1\n"), 0o600); err != nil {
		t.Fatalf("write weights file: %v", err)
	}
	t.Setenv("SCORING_WEIGHTS_PATH", path)

	w, err := LoadWeights()
	if err != nil {
		t.Fatalf("LoadWeights: %v", err)
	}
	if w.Inconsistency != 0.4 {
		t.Fatalf("Inconsistency: want=0.4 got=%v", w.Inconsistency)
	}
	if w.Historical != 0.1 {
		t.Fatalf("Historical: want=0.1 got=%v", w.Historical)
	}
	if w.Urgency != DefaultWeights().Urgency {
		t.Fatalf("Urgency: want default %v got=%v", DefaultWeights().Urgency, w.Urgency)
	}
}

func TestLoadWeightsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	if err := os.WriteFile(path, []byte("inconsistency: 7\n"), 0o600); err != nil {
		t.Fatalf("write weights file: %v", err)
	}
	t.Setenv("SCORING_WEIGHTS_PATH", path)

	if _, err := LoadWeights(); err == nil {
		t.Fatalf("LoadWeights: expected error for out-of-range weight, got nil")
	}
}
