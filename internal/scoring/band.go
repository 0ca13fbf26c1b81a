package scoring

import "fmt"

// Band is a display label derived from a score.
type Band string

const (
	BandExcellent        Band = "excellent"
	BandGood             Band = "good"
	BandAcceptable       Band = "acceptable"
	BandNeedsImprovement Band = "needs improvement"
)

// BandFor maps a 0-100 score to its performance band.
func BandFor(score int) Band {
	switch {
	case score >= 90:
		return BandExcellent
	case score >= 75:
		return BandGood
	case score >= 60:
		return BandAcceptable
	default:
		return BandNeedsImprovement
	}
}

// FormatTimeSpent renders seconds as "M min S sec".
func FormatTimeSpent(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d min %d sec", seconds/60, seconds%60)
}
