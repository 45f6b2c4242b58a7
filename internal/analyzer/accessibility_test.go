package analyzer

import (
	"context"
	"testing"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

func TestAccessibilityAnalyzer(t *testing.T) {
	markup := `<html><body>
	<img src="a.png">
	<img src="b.png" alt="">
	<img src="c.png" alt="Company logo">
	<label for="email">Email</label>
	<input id="email" type="email">
	<input id="phone" type="tel">
	<input id="token" type="hidden">
	<input id="search" aria-label="Search">
	<input type="text">
	</body></html>`

	findings, err := NewAccessibilityAnalyzer().Analyze(context.Background(), &scan.FetchResult{HTML: markup})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counts := map[string]int{}
	for _, f := range findings {
		if f.Type() != scan.TypeAccessibility {
			t.Errorf("expected accessibility finding, got %s", f.Type())
		}
		counts[f.Message()]++
	}

	if counts["Image missing alt attribute."] != 2 {
		t.Errorf("expected 2 missing alt findings, got %d", counts["Image missing alt attribute."])
	}
	if counts["Input with id 'phone' is missing a label."] != 1 {
		t.Errorf("expected label finding for phone, got %v", counts)
	}
	if counts["No ARIA roles found."] != 1 {
		t.Errorf("expected ARIA role finding, got %v", counts)
	}
	if len(findings) != 4 {
		t.Errorf("expected 4 findings, got %d: %v", len(findings), counts)
	}
}

func TestAccessibilityAnalyzerRolePresent(t *testing.T) {
	findings, err := NewAccessibilityAnalyzer().Analyze(context.Background(),
		&scan.FetchResult{HTML: `<nav role="navigation"><a href="/">Home</a></nav>`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %d", len(findings))
	}
}
