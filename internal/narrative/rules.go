package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

// RuleNarrator builds text from the findings themselves. It never fails and
// backs every other narrator.
type RuleNarrator struct{}

// NewRuleNarrator returns the rule-based narrator
func NewRuleNarrator() *RuleNarrator {
	return &RuleNarrator{}
}

var severityOrder = []scan.Severity{scan.SeverityCritical, scan.SeverityHigh, scan.SeverityMedium, scan.SeverityLow}

func (RuleNarrator) Summarize(_ context.Context, findings []scan.Finding) (string, error) {
	if len(findings) == 0 {
		return NoAnomaliesSummary, nil
	}

	counts := make(map[scan.Severity]int)
	worst := findings[0]
	for _, f := range findings {
		counts[f.Severity()]++
		if f.Severity().Weight() > worst.Severity().Weight() {
			worst = f
		}
	}

	parts := make([]string, 0, len(severityOrder))
	for _, sev := range severityOrder {
		if n := counts[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}

	noun := "issues"
	if len(findings) == 1 {
		noun = "issue"
	}
	return fmt.Sprintf("Detected %d %s (%s). Most pressing: %s.",
		len(findings), noun, strings.Join(parts, ", "), strings.TrimSuffix(worst.Message(), ".")), nil
}

func (RuleNarrator) SuggestFix(_ context.Context, f scan.Finding) (string, error) {
	if rec := f.Recommendation(); rec != "" {
		return rec, nil
	}
	switch f.Type() {
	case scan.TypeSecurity:
		return "Review the server's security configuration and add the missing protection.", nil
	case scan.TypePerformance:
		return "Reduce page weight and server response time, for example with caching and compression.", nil
	case scan.TypeMalware:
		return "Remove the suspicious code and audit the site for compromised files.", nil
	case scan.TypeSEO:
		return "Update the page metadata so search engines can describe it accurately.", nil
	case scan.TypeAccessibility:
		return "Add the missing accessibility attributes so assistive technologies can describe the page.", nil
	}
	return "Review this issue and apply the relevant best practice.", nil
}
