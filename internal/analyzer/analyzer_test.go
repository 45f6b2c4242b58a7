package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	"go.uber.org/zap/zaptest"
)

type stubAnalyzer struct {
	name     string
	findings []scan.Finding
	err      error
	panics   bool
}

func (s stubAnalyzer) Name() string { return s.name }

func (s stubAnalyzer) Analyze(context.Context, *scan.FetchResult) ([]scan.Finding, error) {
	if s.panics {
		panic("boom")
	}
	return s.findings, s.err
}

func finding(msg string) scan.Finding {
	return scan.MustFinding(scan.FindingSpec{Type: scan.TypeSEO, Message: msg, Severity: scan.SeverityLow})
}

func TestSetIsolatesFailingAnalyzers(t *testing.T) {
	set := NewSet(zaptest.NewLogger(t),
		stubAnalyzer{name: "first", findings: []scan.Finding{finding("a"), finding("b")}},
		stubAnalyzer{name: "broken", err: errors.New("bad input")},
		stubAnalyzer{name: "panicky", panics: true},
		stubAnalyzer{name: "last", findings: []scan.Finding{finding("c")}},
	)

	res := set.Run(context.Background(), &scan.FetchResult{})

	if len(res.Findings) != 3 {
		t.Fatalf("expected 3 findings, got %d", len(res.Findings))
	}
	for i, want := range []string{"a", "b", "c"} {
		if res.Findings[i].Message() != want {
			t.Errorf("finding %d: expected %q, got %q", i, want, res.Findings[i].Message())
		}
	}
	if len(res.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(res.Failures))
	}
	if res.Failures[0].Analyzer != "broken" || res.Failures[1].Analyzer != "panicky" {
		t.Errorf("unexpected failures %+v", res.Failures)
	}
}

func TestSetNames(t *testing.T) {
	set := NewSet(nil, NewHeaderSecurityAnalyzer(), NewSEOAnalyzer())
	names := set.Names()
	if len(names) != 2 || names[0] != "headers" || names[1] != "seo" {
		t.Fatalf("unexpected names %v", names)
	}
}
