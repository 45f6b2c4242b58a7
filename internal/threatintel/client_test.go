package threatintel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"
)

func fakeResolver(ip string, err error) Resolver {
	return func(context.Context, string) ([]string, error) {
		if err != nil {
			return nil, err
		}
		return []string{ip}, nil
	}
}

func newServers(t *testing.T, vtBody string, vtStatus int, abuseBody string, abuseStatus int) (*httptest.Server, *httptest.Server) {
	t.Helper()
	vt := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/domains/example.com" {
			t.Errorf("unexpected VirusTotal path %s", r.URL.Path)
		}
		if r.Header.Get("x-apikey") != "vt-key" {
			t.Errorf("missing VirusTotal key")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(vtStatus)
		_, _ = w.Write([]byte(vtBody))
	}))
	abuse := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ipAddress") != "203.0.113.7" {
			t.Errorf("unexpected ip %q", r.URL.Query().Get("ipAddress"))
		}
		if r.Header.Get("Key") != "abuse-key" {
			t.Errorf("missing AbuseIPDB key")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(abuseStatus)
		_, _ = w.Write([]byte(abuseBody))
	}))
	t.Cleanup(vt.Close)
	t.Cleanup(abuse.Close)
	return vt, abuse
}

func newTestClient(t *testing.T, vt, abuse *httptest.Server, resolver Resolver) *Client {
	return New(Config{
		Enabled:          true,
		VirusTotalAPIKey: "vt-key",
		AbuseIPDBAPIKey:  "abuse-key",
	}, zaptest.NewLogger(t),
		WithVirusTotalURL(vt.URL),
		WithAbuseIPDBURL(abuse.URL),
		WithResolver(resolver))
}

func TestLookupCombinesSources(t *testing.T) {
	vt, abuse := newServers(t,
		`{"data":{"attributes":{"last_analysis_stats":{"malicious":45,"harmless":45,"undetected":10}}}}`, http.StatusOK,
		`{"data":{"ipAddress":"203.0.113.7","abuseConfidenceScore":80}}`, http.StatusOK)
	c := newTestClient(t, vt, abuse, fakeResolver("203.0.113.7", nil))

	report := c.Lookup(context.Background(), "https://example.com/path")

	if report.VTScore != 45 || report.AbuseScore != 80 {
		t.Fatalf("unexpected scores vt=%v abuse=%d", report.VTScore, report.AbuseScore)
	}
	// int(0.7*45 + 0.3*80) = int(55.5)
	if report.CombinedScore != 55 {
		t.Errorf("combined = %d, want 55", report.CombinedScore)
	}
	if report.Category != CategoryFlagged {
		t.Errorf("category = %q", report.Category)
	}
	if diff := cmp.Diff([]string{SourceVirusTotal, SourceAbuseIPDB}, report.Sources); diff != "" {
		t.Errorf("sources (-want +got):\n%s", diff)
	}
	if report.IP != "203.0.113.7" || report.Domain != "example.com" {
		t.Errorf("unexpected target %s/%s", report.Domain, report.IP)
	}
}

func TestLookupDegrades(t *testing.T) {
	vt, abuse := newServers(t, `{}`, http.StatusInternalServerError, `{}`, http.StatusTooManyRequests)
	c := newTestClient(t, vt, abuse, fakeResolver("203.0.113.7", nil))

	report := c.Lookup(context.Background(), "https://example.com")
	if report.Category != CategoryUnknown || report.CombinedScore != 0 || len(report.Sources) != 0 {
		t.Fatalf("expected unknown verdict, got %+v", report)
	}
}

func TestLookupPartial(t *testing.T) {
	vt, abuse := newServers(t,
		`{"data":{"attributes":{"last_analysis_stats":{"malicious":0,"harmless":70}}}}`, http.StatusOK,
		`{}`, http.StatusOK)
	c := newTestClient(t, vt, abuse, fakeResolver("", errors.New("no such host")))

	report := c.Lookup(context.Background(), "https://example.com")
	if report.Category != CategoryClean {
		t.Errorf("category = %q", report.Category)
	}
	if diff := cmp.Diff([]string{SourceVirusTotal}, report.Sources); diff != "" {
		t.Errorf("sources (-want +got):\n%s", diff)
	}
}

func TestLookupInvalidURL(t *testing.T) {
	c := New(Config{}, nil)
	report := c.Lookup(context.Background(), "::not a url")
	if report == nil || report.Category != CategoryUnknown {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestCombinedScore(t *testing.T) {
	tests := []struct {
		vt    float64
		abuse int
		want  int
	}{
		{0, 0, 0},
		{100, 100, 100},
		{100, 0, 70},
		{0, 100, 30},
		{33, 67, 43},
	}
	for _, tt := range tests {
		if got := CombinedScore(tt.vt, tt.abuse); got != tt.want {
			t.Errorf("CombinedScore(%v, %d) = %d, want %d", tt.vt, tt.abuse, got, tt.want)
		}
	}
}
