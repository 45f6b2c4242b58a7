package recommend

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

func finding(code, message, rec string) scan.Finding {
	return scan.MustFinding(scan.FindingSpec{
		Type:           scan.TypeSecurity,
		Code:           code,
		Message:        message,
		Severity:       scan.SeverityMedium,
		Recommendation: rec,
	})
}

func TestDefaultRulesCoverHeaderFindings(t *testing.T) {
	e, err := Load("")
	if err != nil {
		t.Fatalf("failed to load embedded rules: %v", err)
	}
	for _, code := range []string{
		"missing-csp", "missing-x-frame-options", "missing-hsts",
		"missing-x-content-type-options", "missing-referrer-policy",
	} {
		if _, ok := e.Rule(code); !ok {
			t.Errorf("no rule for %s", code)
		}
	}
}

func TestRecommend(t *testing.T) {
	e, err := Parse([]byte(`
missing-csp:
  title: Add CSP
  description: Restrict script sources.
  snippet: "default-src 'self'"
  link: https://example.com/csp
bare:
  description: Only a description.
`))
	if err != nil {
		t.Fatal(err)
	}

	got := e.Recommend([]scan.Finding{
		finding("missing-csp", "Missing CSP", "ignored"),
		finding("other", "Other issue", "Fix the other issue."),
		finding("missing-csp", "Missing CSP (x2)", "ignored"),
		finding("another", "Another issue", "Fix the other issue."),
		finding("bare", "Bare issue", ""),
		finding("no-rule", "Unknown issue", ""),
	})

	want := []string{
		"**Add CSP**\nRestrict script sources.\nExample Fix: `default-src 'self'`\nLearn more: https://example.com/csp",
		"Fix the other issue.",
		"**Recommendation**\nOnly a description.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("recommendations mismatch (-want +got):\n%s", diff)
	}
}

func TestRecommendEmpty(t *testing.T) {
	e, _ := Load("")
	got := e.Recommend(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("missing-csp: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("expected parse error, got %v", err)
	}
}
