package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	sharedErrors "github.com/ARYAN-095/GuardianWeb/internal/shared/errors"
)

// Document is the JSON representation of a ScanRecord shared by the stores
// and the HTTP API
type Document struct {
	ID               string           `json:"id,omitempty"`
	URL              string           `json:"url"`
	RiskScore        *int             `json:"risk_score"`
	RiskLevel        string           `json:"risk_level,omitempty"`
	Anomalies        []FindingDoc     `json:"anomalies"`
	Screenshot       string           `json:"screenshot,omitempty"`
	PreviousScanDiff *ComparisonDoc   `json:"previous_scan_diff,omitempty"`
	ScanMetadata     MetadataDoc      `json:"scan_metadata"`
	SecurityHeaders  *HeaderReportDoc `json:"security_headers,omitempty"`
	PageStats        StatsDoc         `json:"page_stats"`
	SEOMetadata      *SEODoc          `json:"seo_metadata,omitempty"`
	Features         FeaturesDoc      `json:"features"`
	Recommendations  []string         `json:"recommendations"`
	SuggestedFixes   []FixDoc         `json:"suggested_fixes"`
	AISummary        string           `json:"ai_summary"`
	ThreatIntel      *ThreatDoc       `json:"threat_intel,omitempty"`
}

type FindingDoc struct {
	Type           string `json:"type"`
	Code           string `json:"code,omitempty"`
	Message        string `json:"message"`
	Severity       string `json:"severity"`
	Recommendation string `json:"recommendation,omitempty"`
	ContextNote    string `json:"context_note,omitempty"`
	Occurrences    int    `json:"occurrences,omitempty"`
}

type ComparisonDoc struct {
	NewIssues        []string `json:"new_issues"`
	ResolvedIssues   []string `json:"resolved_issues"`
	PersistentIssues []string `json:"persistent_issues"`
	RiskScoreChange  int      `json:"risk_score_change"`
}

type MetadataDoc struct {
	ScanDate       string         `json:"scan_date"`
	ScannerVersion string         `json:"scanner_version"`
	AnomalySummary map[string]int `json:"anomaly_summary"`
	StatusCode     int            `json:"status_code,omitempty"`
	ResponseTime   float64        `json:"response_time"`
	CaptureError   string         `json:"capture_error,omitempty"`
}

type HeaderCheckDoc struct {
	Name           string `json:"name"`
	Present        bool   `json:"present"`
	MatchedAs      string `json:"matched_as,omitempty"`
	Value          string `json:"value,omitempty"`
	Severity       string `json:"severity"`
	Recommendation string `json:"recommendation"`
}

type HeaderReportDoc struct {
	Score    int              `json:"score"`
	Grade    string           `json:"grade"`
	Headers  []HeaderCheckDoc `json:"headers"`
	Warnings []string         `json:"warnings,omitempty"`
}

type StatsDoc struct {
	PageSizeKB      float64 `json:"page_size_kb"`
	ImageCount      int     `json:"image_count"`
	ScriptCount     int     `json:"script_count"`
	StylesheetCount int     `json:"stylesheet_count"`
	FormCount       int     `json:"form_count"`
	Truncated       bool    `json:"truncated,omitempty"`
}

type SEODoc struct {
	Title           string `json:"title"`
	MetaDescription string `json:"meta_description"`
	Canonical       string `json:"canonical"`
	H1Count         int    `json:"h1_count"`
}

type FeaturesDoc = scan.FeatureVector

type FixDoc struct {
	Message string `json:"message"`
	Fix     string `json:"fix"`
}

type ThreatDoc struct {
	Domain        string   `json:"domain"`
	IP            string   `json:"ip,omitempty"`
	VTScore       float64  `json:"vt_score"`
	AbuseScore    int      `json:"abuse_score"`
	CombinedScore int      `json:"combined_score"`
	Category      string   `json:"category"`
	Sources       []string `json:"sources,omitempty"`
}

// Encode converts a record into its document form
func Encode(rec *scan.ScanRecord) Document {
	doc := Document{
		ID:              rec.ID(),
		URL:             rec.URL(),
		Anomalies:       []FindingDoc{},
		Screenshot:      rec.ScreenshotURL(),
		Features:        rec.Features(),
		Recommendations: rec.Recommendations(),
		SuggestedFixes:  []FixDoc{},
		AISummary:       rec.Summary(),
		ScanMetadata: MetadataDoc{
			ScanDate:       rec.ScanID(),
			ScannerVersion: rec.ScannerVersion(),
			AnomalySummary: map[string]int{},
			StatusCode:     rec.StatusCode(),
			ResponseTime:   rec.ResponseTime(),
			CaptureError:   rec.CaptureError(),
		},
	}

	if score, ok := rec.RiskScore(); ok {
		doc.RiskScore = &score
		doc.RiskLevel = string(rec.RiskLevel())
	}

	consolidated := rec.Consolidated()
	counts := consolidated.Counts()
	for i, f := range consolidated.Findings() {
		doc.Anomalies = append(doc.Anomalies, FindingDoc{
			Type:           string(f.Type()),
			Code:           f.Code(),
			Message:        f.Message(),
			Severity:       string(f.Severity()),
			Recommendation: f.Recommendation(),
			ContextNote:    f.ContextNote(),
			Occurrences:    counts[i],
		})
	}
	for sev, n := range rec.SeverityBreakdown() {
		doc.ScanMetadata.AnomalySummary[string(sev)] = n
	}
	if doc.Recommendations == nil {
		doc.Recommendations = []string{}
	}
	for _, fx := range rec.Fixes() {
		doc.SuggestedFixes = append(doc.SuggestedFixes, FixDoc{Message: fx.Message, Fix: fx.Fix})
	}

	if c := rec.Comparison(); c != nil {
		doc.PreviousScanDiff = &ComparisonDoc{
			NewIssues:        c.NewIssues,
			ResolvedIssues:   c.ResolvedIssues,
			PersistentIssues: c.PersistentIssues,
			RiskScoreChange:  c.RiskScoreChange,
		}
	}

	s := rec.Stats()
	doc.PageStats = StatsDoc{
		PageSizeKB:      s.PageSizeKB,
		ImageCount:      s.ImageCount,
		ScriptCount:     s.ScriptCount,
		StylesheetCount: s.StylesheetCount,
		FormCount:       s.FormCount,
		Truncated:       s.Truncated,
	}

	if seo := rec.SEO(); seo != nil {
		doc.SEOMetadata = &SEODoc{
			Title:           seo.Title,
			MetaDescription: seo.MetaDescription,
			Canonical:       seo.Canonical,
			H1Count:         seo.H1Count,
		}
	}

	if h := rec.Headers(); h != nil {
		hd := &HeaderReportDoc{Score: h.Score, Grade: h.Grade, Warnings: h.Warnings, Headers: []HeaderCheckDoc{}}
		for _, c := range h.Checks {
			hd.Headers = append(hd.Headers, HeaderCheckDoc{
				Name:           c.Name,
				Present:        c.Present,
				MatchedAs:      c.MatchedAs,
				Value:          c.Value,
				Severity:       string(c.Severity),
				Recommendation: c.Recommendation,
			})
		}
		doc.SecurityHeaders = hd
	}

	if t := rec.Threat(); t != nil {
		doc.ThreatIntel = &ThreatDoc{
			Domain:        t.Domain,
			IP:            t.IP,
			VTScore:       t.VTScore,
			AbuseScore:    t.AbuseScore,
			CombinedScore: t.CombinedScore,
			Category:      t.Category,
			Sources:       t.Sources,
		}
	}
	return doc
}

// Decode rebuilds a record from its document form. Findings are validated
// again so stored data cannot bypass the closed finding model.
func Decode(doc Document) (*scan.ScanRecord, error) {
	createdAt, err := time.Parse(scan.ScanIDLayout, doc.ScanMetadata.ScanDate)
	if err != nil {
		return nil, fmt.Errorf("%w: scan_date %q: %v", sharedErrors.ErrDeserializationFailed, doc.ScanMetadata.ScanDate, err)
	}

	findings := make([]scan.Finding, 0, len(doc.Anomalies))
	counts := make([]int, 0, len(doc.Anomalies))
	for _, a := range doc.Anomalies {
		f, err := scan.NewFinding(scan.FindingSpec{
			Type:           scan.FindingType(a.Type),
			Code:           a.Code,
			Message:        a.Message,
			Severity:       scan.Severity(a.Severity),
			Recommendation: a.Recommendation,
			ContextNote:    a.ContextNote,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sharedErrors.ErrDeserializationFailed, err)
		}
		findings = append(findings, f)
		counts = append(counts, a.Occurrences)
	}

	spec := scan.RecordSpec{
		URL:             doc.URL,
		CreatedAt:       createdAt,
		ScannerVersion:  doc.ScanMetadata.ScannerVersion,
		StatusCode:      doc.ScanMetadata.StatusCode,
		ResponseTime:    doc.ScanMetadata.ResponseTime,
		Findings:        scan.RestoreConsolidated(findings, counts),
		Features:        doc.Features,
		Summary:         doc.AISummary,
		Recommendations: doc.Recommendations,
		ScreenshotURL:   doc.Screenshot,
		CaptureError:    doc.ScanMetadata.CaptureError,
		Stats: scan.HTMLStats{
			PageSizeKB:      doc.PageStats.PageSizeKB,
			ImageCount:      doc.PageStats.ImageCount,
			ScriptCount:     doc.PageStats.ScriptCount,
			StylesheetCount: doc.PageStats.StylesheetCount,
			FormCount:       doc.PageStats.FormCount,
			Truncated:       doc.PageStats.Truncated,
		},
	}
	for _, fx := range doc.SuggestedFixes {
		spec.Fixes = append(spec.Fixes, scan.FindingFix{Message: fx.Message, Fix: fx.Fix})
	}
	if d := doc.PreviousScanDiff; d != nil {
		spec.Comparison = &scan.Comparison{
			NewIssues:        d.NewIssues,
			ResolvedIssues:   d.ResolvedIssues,
			PersistentIssues: d.PersistentIssues,
			RiskScoreChange:  d.RiskScoreChange,
		}
	}
	if s := doc.SEOMetadata; s != nil {
		spec.SEO = &scan.SEOMetadata{Title: s.Title, MetaDescription: s.MetaDescription, Canonical: s.Canonical, H1Count: s.H1Count}
	}
	if h := doc.SecurityHeaders; h != nil {
		report := &scan.HeaderReport{Score: h.Score, Grade: h.Grade, Warnings: h.Warnings}
		for _, c := range h.Headers {
			report.Checks = append(report.Checks, scan.HeaderCheck{
				Name:           c.Name,
				Present:        c.Present,
				MatchedAs:      c.MatchedAs,
				Value:          c.Value,
				Severity:       scan.Severity(c.Severity),
				Recommendation: c.Recommendation,
			})
		}
		spec.Headers = report
	}
	if t := doc.ThreatIntel; t != nil {
		spec.Threat = &scan.ThreatReport{
			Domain:        t.Domain,
			IP:            t.IP,
			VTScore:       t.VTScore,
			AbuseScore:    t.AbuseScore,
			CombinedScore: t.CombinedScore,
			Category:      t.Category,
			Sources:       t.Sources,
		}
	}

	scored := doc.RiskScore != nil
	if scored {
		spec.RiskScore = *doc.RiskScore
	}
	return scan.Reconstruct(doc.ID, spec, scored), nil
}

// Marshal encodes a record as indented JSON
func Marshal(rec *scan.ScanRecord) ([]byte, error) {
	data, err := json.MarshalIndent(Encode(rec), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrSerializationFailed, err)
	}
	return data, nil
}

// Unmarshal decodes a record from JSON
func Unmarshal(data []byte) (*scan.ScanRecord, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrDeserializationFailed, err)
	}
	return Decode(doc)
}
