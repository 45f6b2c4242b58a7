package analyzer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

// Default load time thresholds in seconds
const (
	DefaultGoodThreshold = 2.0
	DefaultPoorThreshold = 3.0
)

// PerformanceAnalyzer flags slow responses against two ascending thresholds
type PerformanceAnalyzer struct {
	good float64
	poor float64
}

// NewPerformanceAnalyzer validates that 0 < good < poor
func NewPerformanceAnalyzer(good, poor float64) (*PerformanceAnalyzer, error) {
	if good <= 0 || poor <= good {
		return nil, fmt.Errorf("invalid performance thresholds: good=%v poor=%v (need 0 < good < poor)", good, poor)
	}
	return &PerformanceAnalyzer{good: good, poor: poor}, nil
}

func (a *PerformanceAnalyzer) Name() string {
	return "performance"
}

// Analyze returns at most one finding: high above the poor threshold,
// medium above the good threshold.
func (a *PerformanceAnalyzer) Analyze(_ context.Context, page *scan.FetchResult) ([]scan.Finding, error) {
	t := page.ResponseTime
	var spec scan.FindingSpec

	switch {
	case t > a.poor:
		spec = scan.FindingSpec{
			Code:     "slow-load-critical",
			Message:  "Critical load time: " + formatSeconds(t) + "s",
			Severity: scan.SeverityHigh,
		}
	case t > a.good:
		spec = scan.FindingSpec{
			Code:     "slow-load",
			Message:  "Suboptimal load time: " + formatSeconds(t) + "s",
			Severity: scan.SeverityMedium,
		}
	default:
		return nil, nil
	}

	spec.Type = scan.TypePerformance
	f, err := scan.NewFinding(spec)
	if err != nil {
		return nil, err
	}
	return []scan.Finding{f}, nil
}

// formatSeconds prints the shortest representation, keeping one decimal for whole numbers
func formatSeconds(t float64) string {
	s := strconv.FormatFloat(t, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
