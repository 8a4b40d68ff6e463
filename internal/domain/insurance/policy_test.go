package insurance

import (
	"strings"
	"testing"
)

func TestPremiumAdjustmentForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  float64
	}{
		{0, -0.2},
		{30, -0.2},
		{30.5, 0},
		{70, 0},
		{70.5, 0.3},
		{100, 0.3},
	}
	for _, tc := range cases {
		if got := PremiumAdjustmentForScore(tc.score); got != tc.want {
			t.Fatalf("PremiumAdjustmentForScore(%v): want=%v got=%v", tc.score, tc.want, got)
		}
	}
}

func TestClampPremium(t *testing.T) {
	product := &Product{MinPremium: 3000, MaxPremium: 9000}

	if got := ClampPremium(2000, product); got != 3000 {
		t.Fatalf("ClampPremium below band: want=3000 got=%v", got)
	}
	if got := ClampPremium(5000, product); got != 5000 {
		t.Fatalf("ClampPremium in band: want=5000 got=%v", got)
	}
	if got := ClampPremium(12000, product); got != 9000 {
		t.Fatalf("ClampPremium above band: want=9000 got=%v", got)
	}
}

func TestNewPolicyNumber(t *testing.T) {
	n := NewPolicyNumber()
	if !strings.HasPrefix(n, "SORO-") {
		t.Fatalf("NewPolicyNumber: want SORO- prefix, got %q", n)
	}
	if len(n) != len("SORO-")+8 {
		t.Fatalf("NewPolicyNumber: want 8 hex chars, got %q", n)
	}
	if n == NewPolicyNumber() {
		t.Fatalf("NewPolicyNumber: two calls returned the same reference")
	}
}
