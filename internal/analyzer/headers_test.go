package analyzer

import (
	"context"
	"net/http"
	"testing"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

func pageWithHeaders(h map[string]string) *scan.FetchResult {
	headers := http.Header{}
	for k, v := range h {
		headers[k] = []string{v}
	}
	return &scan.FetchResult{URL: "https://example.com", Headers: headers}
}

func TestHeaderSecurityAnalyzerSingleMissingHeader(t *testing.T) {
	page := pageWithHeaders(map[string]string{
		"Content-Type":              "text/html",
		"Content-Security-Policy":   "default-src 'self'",
		"Strict-Transport-Security": "max-age=31536000",
		"X-Content-Type-Options":    "nosniff",
		"Referrer-Policy":           "no-referrer",
	})

	findings, err := NewHeaderSecurityAnalyzer().Analyze(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Type() != scan.TypeSecurity {
		t.Errorf("expected security finding, got %s", f.Type())
	}
	if f.Message() != "Missing X-Frame-Options header" {
		t.Errorf("unexpected message %q", f.Message())
	}
	if f.Severity() != scan.SeverityMedium {
		t.Errorf("expected medium severity, got %s", f.Severity())
	}
}

func TestHeaderSecurityAnalyzerAllPresentViaAliases(t *testing.T) {
	page := pageWithHeaders(map[string]string{
		"x-webkit-csp":              "default-src 'self'",
		"x-frame-options":           "DENY",
		"STRICT-TRANSPORT-SECURITY": "max-age=63072000",
		"X-Content-Type-Options":    "nosniff",
		"referrer-policy":           "same-origin",
	})

	findings, err := NewHeaderSecurityAnalyzer().Analyze(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %d", len(findings))
	}
}

func TestHeaderSecurityAnalyzerSeverityTable(t *testing.T) {
	findings, err := NewHeaderSecurityAnalyzer().Analyze(context.Background(), pageWithHeaders(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != len(RequiredHeaders) {
		t.Fatalf("expected %d findings, got %d", len(RequiredHeaders), len(findings))
	}
	for i, h := range RequiredHeaders {
		if findings[i].Severity() != h.Severity {
			t.Errorf("%s: expected %s, got %s", h.Name, h.Severity, findings[i].Severity())
		}
		if findings[i].Recommendation() != h.Recommendation {
			t.Errorf("%s: unexpected recommendation %q", h.Name, findings[i].Recommendation())
		}
	}
}

func TestMissingHeaderName(t *testing.T) {
	tests := []struct {
		msg  string
		want string
		ok   bool
	}{
		{"Missing X-Frame-Options header", "X-Frame-Options", true},
		{"Missing or short meta description.", "", false},
		{"Critical load time: 4.1s", "", false},
	}
	for _, tt := range tests {
		got, ok := MissingHeaderName(tt.msg)
		if got != tt.want || ok != tt.ok {
			t.Errorf("MissingHeaderName(%q) = %q, %v", tt.msg, got, ok)
		}
	}
}

func TestGradeHeaders(t *testing.T) {
	strong := pageWithHeaders(map[string]string{
		"Content-Security-Policy":   "default-src 'self'; script-src 'self'",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains; preload",
		"X-Frame-Options":           "DENY",
		"X-Content-Type-Options":    "nosniff",
		"Referrer-Policy":           "strict-origin-when-cross-origin",
	})
	report := GradeHeaders(strong)
	if report.Grade != "A" || report.Score != 100 {
		t.Errorf("expected A/100, got %s/%d (%v)", report.Grade, report.Score, report.Warnings)
	}

	weak := pageWithHeaders(map[string]string{
		"Strict-Transport-Security": "max-age=0",
		"X-Powered-By":              "PHP/7.4",
		"X-XSS-Protection":          "1; mode=block",
	})
	report = GradeHeaders(weak)
	if report.Grade != "F" {
		t.Errorf("expected F, got %s", report.Grade)
	}
	if len(report.Warnings) < 3 {
		t.Errorf("expected warnings for HSTS, disclosure and deprecated headers, got %v", report.Warnings)
	}
	present := 0
	for _, c := range report.Checks {
		if c.Present {
			present++
		}
	}
	if present != 1 {
		t.Errorf("expected 1 present header, got %d", present)
	}
}
