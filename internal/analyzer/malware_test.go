package analyzer

import (
	"context"
	"testing"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

func TestMalwareAnalyzer(t *testing.T) {
	tests := []struct {
		name    string
		markup  string
		message string
	}{
		{"eval atob", `<script>eval(atob("YWxlcnQoMSk="))</script>`, "Obfuscated script execution detected (eval of decoded payload)."},
		{"miner", `<script src="https://coinhive.com/lib/coinhive.min.js"></script>`, "Known cryptomining script reference detected."},
		{"hidden iframe", `<iframe src="https://evil.example" width="0" height="0"></iframe>`, "Hidden iframe detected."},
		{"styled iframe", `<iframe src="https://evil.example" style="display: none"></iframe>`, "Hidden iframe detected."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings, err := NewMalwareAnalyzer().Analyze(context.Background(), &scan.FetchResult{HTML: tt.markup})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(findings) != 1 {
				t.Fatalf("expected 1 finding, got %d", len(findings))
			}
			if findings[0].Message() != tt.message || findings[0].Type() != scan.TypeMalware {
				t.Errorf("unexpected finding %+v", findings[0].Spec())
			}
		})
	}
}

func TestMalwareAnalyzerCleanPage(t *testing.T) {
	findings, err := NewMalwareAnalyzer().Analyze(context.Background(),
		&scan.FetchResult{HTML: `<html><body><iframe src="/embed" width="560" height="315"></iframe></body></html>`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %d", len(findings))
	}
}
