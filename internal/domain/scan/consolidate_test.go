package scan

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

func mk(t FindingType, msg string, sev Severity) Finding {
	return MustFinding(FindingSpec{Type: t, Message: msg, Severity: sev})
}

func TestConsolidateKeepsFirstOccurrenceOrder(t *testing.T) {
	in := []Finding{
		mk(TypeAccessibility, "Image missing alt attribute.", SeverityMedium),
		mk(TypeSecurity, "Missing X-Frame-Options header", SeverityMedium),
		mk(TypeAccessibility, "Image missing alt attribute.", SeverityHigh),
		mk(TypeSEO, "Missing canonical URL.", SeverityLow),
		mk(TypeAccessibility, "Image missing alt attribute.", SeverityLow),
	}

	got := Consolidate(in)
	msgs := got.Messages()
	want := []string{
		"Image missing alt attribute. (x3)",
		"Missing X-Frame-Options header",
		"Missing canonical URL.",
	}
	if len(msgs) != len(want) {
		t.Fatalf("expected %d findings, got %d: %v", len(want), len(msgs), msgs)
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Errorf("finding %d: expected %q, got %q", i, want[i], msgs[i])
		}
	}

	first := got.Findings()[0]
	if first.Severity() != SeverityMedium {
		t.Errorf("expected first occurrence severity to survive, got %s", first.Severity())
	}
	if got.Total() != len(in) {
		t.Errorf("expected total %d, got %d", len(in), got.Total())
	}
}

func TestConsolidateDoesNotMutateInput(t *testing.T) {
	in := []Finding{
		mk(TypeSEO, "Missing <h1> tag.", SeverityMedium),
		mk(TypeSEO, "Missing <h1> tag.", SeverityMedium),
	}
	_ = Consolidate(in)
	for _, f := range in {
		if f.Message() != "Missing <h1> tag." {
			t.Fatalf("input finding was modified: %q", f.Message())
		}
	}
}

func TestConsolidateIsCaseSensitive(t *testing.T) {
	in := []Finding{
		mk(TypeSEO, "Missing canonical URL.", SeverityLow),
		mk(TypeSEO, "missing canonical URL.", SeverityLow),
	}
	if got := Consolidate(in).Len(); got != 2 {
		t.Fatalf("expected 2 distinct findings, got %d", got)
	}
}

func TestConsolidateSuffixDoesNotCollideWithExistingMessage(t *testing.T) {
	in := []Finding{
		mk(TypeSEO, "dup", SeverityLow),
		mk(TypeSEO, "dup", SeverityLow),
		mk(TypeSEO, "dup (x2)", SeverityLow),
	}
	got := Consolidate(in)
	if got.Len() != 2 {
		t.Fatalf("expected 2 groups, got %d", got.Len())
	}
	counts := got.Counts()
	if counts[0] != 2 || counts[1] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestConsolidateProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	types := []FindingType{TypeSecurity, TypePerformance, TypeSEO, TypeAccessibility, TypeMalware}
	sevs := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

	for iter := 0; iter < 200; iter++ {
		n := r.Intn(40)
		in := make([]Finding, 0, n)
		for i := 0; i < n; i++ {
			in = append(in, mk(types[r.Intn(len(types))], fmt.Sprintf("issue-%d", r.Intn(8)), sevs[r.Intn(len(sevs))]))
		}

		got := Consolidate(in)

		seen := map[string]bool{}
		sum := 0
		for i, f := range got.Findings() {
			base := f.Message()
			if idx := strings.Index(base, " (x"); idx >= 0 {
				base = base[:idx]
			}
			if seen[base] {
				t.Fatalf("iteration %d: duplicate base message %q", iter, base)
			}
			seen[base] = true
			sum += got.Counts()[i]
		}
		if sum != len(in) {
			t.Fatalf("iteration %d: counts sum to %d, expected %d", iter, sum, len(in))
		}
	}
}

func TestConsolidateEmpty(t *testing.T) {
	got := Consolidate(nil)
	if got.Len() != 0 || got.Total() != 0 {
		t.Fatalf("expected empty result, got %d/%d", got.Len(), got.Total())
	}
}
