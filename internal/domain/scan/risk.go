package scan

import "math"

// RiskLevel is the label derived from a risk score. Scores run from 0 to 100
// with higher values meaning a healthier site.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// riskLadder is evaluated top-down; the first floor the score reaches wins.
var riskLadder = []struct {
	floor int
	level RiskLevel
}{
	{90, RiskLow},
	{70, RiskMedium},
	{50, RiskHigh},
}

// LevelFor maps a score onto the risk ladder
func LevelFor(score int) RiskLevel {
	for _, step := range riskLadder {
		if score >= step.floor {
			return step.level
		}
	}
	return RiskCritical
}

// ClampScore rounds a raw model output and clamps it to [0,100]. NaN maps to 0.
func ClampScore(raw float64) int {
	if math.IsNaN(raw) {
		return 0
	}
	v := math.Round(raw)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
