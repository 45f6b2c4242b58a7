// Package narrative turns scan findings into human-readable summaries and
// fix suggestions. Generators sit behind the Narrator interface; Guard wraps
// them so that callers always receive text.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

// NoAnomaliesSummary is returned for an empty finding list
const NoAnomaliesSummary = "No significant anomalies were detected."

// Narrator produces narrative text for findings
type Narrator interface {
	Summarize(ctx context.Context, findings []scan.Finding) (string, error)
	SuggestFix(ctx context.Context, finding scan.Finding) (string, error)
}

func summaryPrompt(findings []scan.Finding) string {
	messages := make([]string, 0, len(findings))
	for _, f := range findings {
		messages = append(messages, f.Message())
	}
	return fmt.Sprintf("Summarize the following website health issues in one clear and helpful sentence: %q",
		strings.Join(messages, ". "))
}

func fixPrompt(f scan.Finding) string {
	return fmt.Sprintf("You are a web security expert providing a recommendation. "+
		"An audit found an issue with type '%s' and severity '%s'. "+
		"The issue is: %q. Provide a single, concise sentence explaining how to fix this.",
		f.Type(), f.Severity(), f.Message())
}
