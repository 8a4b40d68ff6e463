package risk

import "testing"

func TestLevelForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0, LevelLow},
		{15.5, LevelLow},
		{30, LevelLow},
		{30.1, LevelMedium},
		{50, LevelMedium},
		{70, LevelMedium},
		{70.1, LevelHigh},
		{100, LevelHigh},
	}
	for _, tc := range cases {
		if got := LevelForScore(tc.score); got != tc.want {
			t.Fatalf("LevelForScore(%v): want=%q got=%q", tc.score, tc.want, got)
		}
	}
}
