package analyzer

import (
	"context"
	"strings"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

// RequiredHeader describes one header every response should carry
type RequiredHeader struct {
	Name           string
	Code           string
	Aliases        []string
	Severity       scan.Severity
	Recommendation string
}

// RequiredHeaders is the fixed table checked by HeaderSecurityAnalyzer
var RequiredHeaders = []RequiredHeader{
	{
		Name:           "Content-Security-Policy",
		Code:           "missing-csp",
		Aliases:        []string{"X-Content-Security-Policy", "X-WebKit-CSP"},
		Severity:       scan.SeverityHigh,
		Recommendation: "Implement Content-Security-Policy to prevent XSS attacks.",
	},
	{
		Name:           "X-Frame-Options",
		Code:           "missing-x-frame-options",
		Severity:       scan.SeverityMedium,
		Recommendation: "Add X-Frame-Options to protect against clickjacking.",
	},
	{
		Name:           "Strict-Transport-Security",
		Code:           "missing-hsts",
		Severity:       scan.SeverityHigh,
		Recommendation: "Implement HSTS to enforce secure (HTTPS) connections.",
	},
	{
		Name:           "X-Content-Type-Options",
		Code:           "missing-x-content-type-options",
		Severity:       scan.SeverityMedium,
		Recommendation: "Add X-Content-Type-Options to prevent MIME-sniffing.",
	},
	{
		Name:           "Referrer-Policy",
		Code:           "missing-referrer-policy",
		Severity:       scan.SeverityLow,
		Recommendation: "Set Referrer-Policy to control how much referrer information is shared.",
	},
}

// lookup returns the header name that satisfied h, if any
func (h RequiredHeader) lookup(page *scan.FetchResult) (string, string, bool) {
	for _, name := range append([]string{h.Name}, h.Aliases...) {
		if page.HasHeader(name) {
			return name, page.Header(name), true
		}
	}
	return "", "", false
}

// HeaderSecurityAnalyzer reports required security headers that are missing
type HeaderSecurityAnalyzer struct {
	required []RequiredHeader
}

// NewHeaderSecurityAnalyzer creates an analyzer over RequiredHeaders
func NewHeaderSecurityAnalyzer() *HeaderSecurityAnalyzer {
	return &HeaderSecurityAnalyzer{required: RequiredHeaders}
}

func (a *HeaderSecurityAnalyzer) Name() string {
	return "headers"
}

func (a *HeaderSecurityAnalyzer) Analyze(_ context.Context, page *scan.FetchResult) ([]scan.Finding, error) {
	var findings []scan.Finding
	for _, h := range a.required {
		if _, _, ok := h.lookup(page); ok {
			continue
		}
		f, err := scan.NewFinding(scan.FindingSpec{
			Type:           scan.TypeSecurity,
			Code:           h.Code,
			Message:        "Missing " + h.Name + " header",
			Severity:       h.Severity,
			Recommendation: h.Recommendation,
		})
		if err != nil {
			return nil, err
		}
		findings = append(findings, f)
	}
	return findings, nil
}

// MissingHeaderName extracts the header named in a "Missing <Header> header"
// message. ok is false for any other message shape.
func MissingHeaderName(message string) (string, bool) {
	rest, found := strings.CutPrefix(message, "Missing ")
	if !found {
		return "", false
	}
	name, found := strings.CutSuffix(rest, " header")
	if !found || name == "" {
		return "", false
	}
	return name, true
}
