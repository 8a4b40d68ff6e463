// Package risk is the single source of truth for mapping a Soro-Score
// to a risk tier. Scores live on a 0..100 scale where higher means
// riskier.
package risk

const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

func LevelForScore(score float64) string {
	switch {
	case score <= 30:
		return LevelLow
	case score <= 70:
		return LevelMedium
	default:
		return LevelHigh
	}
}
