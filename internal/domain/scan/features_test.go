package scan

import (
	"math"
	"testing"
)

func TestExtractFeaturesEmptyFindings(t *testing.T) {
	fetch := &FetchResult{ResponseTime: 0.5, Stats: HTMLStats{PageSizeKB: 12.5}}

	v := ExtractFeatures(Consolidate(nil), fetch)
	if v.AvgSeverity != 0 {
		t.Errorf("expected avg severity 0, got %v", v.AvgSeverity)
	}
	if v.SecurityCount != 0 || v.PerformanceCount != 0 {
		t.Errorf("expected zero counts, got %+v", v)
	}
	if v.LoadTimeMS != 500 {
		t.Errorf("expected load time 500ms, got %v", v.LoadTimeMS)
	}
	if v.PageSizeKB != 12.5 {
		t.Errorf("expected page size 12.5, got %v", v.PageSizeKB)
	}
}

func TestExtractFeaturesCountsAndAverage(t *testing.T) {
	findings := Consolidate([]Finding{
		mk(TypeSecurity, "Missing Content-Security-Policy header", SeverityHigh),
		mk(TypeSecurity, "Missing Referrer-Policy header", SeverityLow),
		mk(TypePerformance, "Critical load time: 4.2s", SeverityHigh),
		mk(TypeSEO, "Missing canonical URL.", SeverityLow),
	})

	v := ExtractFeatures(findings, &FetchResult{ResponseTime: 4.2})
	if v.SecurityCount != 2 {
		t.Errorf("expected 2 security findings, got %v", v.SecurityCount)
	}
	if v.PerformanceCount != 1 {
		t.Errorf("expected 1 performance finding, got %v", v.PerformanceCount)
	}
	if v.AvgSeverity != 2 {
		t.Errorf("expected avg severity 2, got %v", v.AvgSeverity)
	}
	if math.Abs(v.LoadTimeMS-4200) > 1e-9 {
		t.Errorf("expected load time 4200ms, got %v", v.LoadTimeMS)
	}
}

func TestFeatureValuesOrder(t *testing.T) {
	v := FeatureVector{SecurityCount: 1, PerformanceCount: 2, AvgSeverity: 3, LoadTimeMS: 4, PageSizeKB: 5}
	got := v.Values()
	if len(got) != len(FeatureNames) {
		t.Fatalf("expected %d values, got %d", len(FeatureNames), len(got))
	}
	for i, want := range []float64{1, 2, 3, 4, 5} {
		if got[i] != want {
			t.Errorf("value %d: expected %v, got %v", i, want, got[i])
		}
	}
}
