package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// inputs of these types never need a visible label
var unlabeledInputTypes = map[string]bool{
	"hidden": true,
	"submit": true,
	"button": true,
	"reset":  true,
	"image":  true,
}

// AccessibilityAnalyzer flags images without alt text, inputs without
// labels and documents without any ARIA roles
type AccessibilityAnalyzer struct{}

func NewAccessibilityAnalyzer() *AccessibilityAnalyzer {
	return &AccessibilityAnalyzer{}
}

func (a *AccessibilityAnalyzer) Name() string {
	return "accessibility"
}

func (a *AccessibilityAnalyzer) Analyze(_ context.Context, page *scan.FetchResult) ([]scan.Finding, error) {
	doc, err := parseDocument(page.HTML)
	if err != nil {
		return nil, err
	}

	var findings []scan.Finding
	labelled := map[string]bool{}
	hasRole := false
	var inputs []*html.Node

	walk(doc, func(n *html.Node) bool {
		if _, ok := attr(n, "role"); ok {
			hasRole = true
		}
		switch n.DataAtom {
		case atom.Img:
			if alt, _ := attr(n, "alt"); strings.TrimSpace(alt) == "" {
				findings = append(findings, a11yFinding("a11y-img-alt",
					"Image missing alt attribute.",
					"Add descriptive alt text to all images.", scan.SeverityMedium))
			}
		case atom.Label:
			if target, ok := attr(n, "for"); ok {
				labelled[target] = true
			}
		case atom.Input:
			inputs = append(inputs, n)
		}
		return true
	})

	for _, in := range inputs {
		id, _ := attr(in, "id")
		if id == "" || labelled[id] || !needsLabel(in) {
			continue
		}
		findings = append(findings, a11yFinding("a11y-input-label",
			fmt.Sprintf("Input with id '%s' is missing a label.", id),
			"Use a <label> with a 'for' attribute matching the input's id.", scan.SeverityMedium))
	}

	if !hasRole {
		findings = append(findings, a11yFinding("a11y-aria-roles",
			"No ARIA roles found.",
			"Consider using ARIA roles to enhance accessibility where appropriate.", scan.SeverityLow))
	}
	return findings, nil
}

func needsLabel(input *html.Node) bool {
	typ, _ := attr(input, "type")
	if unlabeledInputTypes[strings.ToLower(typ)] {
		return false
	}
	if v, ok := attr(input, "aria-label"); ok && strings.TrimSpace(v) != "" {
		return false
	}
	if _, ok := attr(input, "aria-labelledby"); ok {
		return false
	}
	return true
}

func a11yFinding(code, message, recommendation string, severity scan.Severity) scan.Finding {
	return scan.MustFinding(scan.FindingSpec{
		Type:           scan.TypeAccessibility,
		Code:           code,
		Message:        message,
		Severity:       severity,
		Recommendation: recommendation,
	})
}
