package scan

import (
	"errors"
	"strings"
	"time"
)

// ScanIDLayout formats creation timestamps into scan identifiers
const ScanIDLayout = time.RFC3339Nano

// SEOMetadata summarises the document head
type SEOMetadata struct {
	Title           string
	MetaDescription string
	Canonical       string
	H1Count         int
}

// HeaderCheck is the state of one required security header
type HeaderCheck struct {
	Name           string
	Present        bool
	MatchedAs      string
	Value          string
	Severity       Severity
	Recommendation string
}

// HeaderReport grades the security headers a site sends
type HeaderReport struct {
	Score    int
	Grade    string
	Checks   []HeaderCheck
	Warnings []string
}

// ThreatReport is the reputation verdict from external intelligence feeds
type ThreatReport struct {
	Domain        string
	IP            string
	VTScore       float64
	AbuseScore    int
	CombinedScore int
	Category      string
	Sources       []string
}

// FindingFix pairs a final finding message with its suggested fix
type FindingFix struct {
	Message string
	Fix     string
}

// RecordSpec carries everything needed to create a ScanRecord
type RecordSpec struct {
	URL             string
	CreatedAt       time.Time
	ScannerVersion  string
	StatusCode      int
	ResponseTime    float64
	Stats           HTMLStats
	Findings        Consolidated
	Features        FeatureVector
	RiskScore       int
	Comparison      *Comparison
	Summary         string
	Fixes           []FindingFix
	Recommendations []string
	SEO             *SEOMetadata
	Headers         *HeaderReport
	Threat          *ThreatReport
	ScreenshotURL   string
	CaptureError    string
}

// ScanRecord is the immutable snapshot of one completed scan. It serves as
// the aggregate root persisted by a Repository.
type ScanRecord struct {
	id              string
	url             string
	createdAt       time.Time
	scannerVersion  string
	statusCode      int
	responseTime    float64
	stats           HTMLStats
	findings        Consolidated
	features        FeatureVector
	riskScore       int
	scored          bool
	riskLevel       RiskLevel
	comparison      *Comparison
	summary         string
	fixes           []FindingFix
	recommendations []string
	seo             *SEOMetadata
	headers         *HeaderReport
	threat          *ThreatReport
	screenshotURL   string
	captureError    string
}

// NewScanRecord validates spec and creates a scored record
func NewScanRecord(spec RecordSpec) (*ScanRecord, error) {
	if strings.TrimSpace(spec.URL) == "" {
		return nil, errors.New("scan record URL cannot be empty")
	}
	if spec.RiskScore < 0 || spec.RiskScore > 100 {
		return nil, errors.New("risk score must be within [0,100]")
	}
	if spec.CreatedAt.IsZero() {
		spec.CreatedAt = time.Now()
	}

	rec := fromSpec(spec)
	rec.scored = true
	rec.riskLevel = LevelFor(spec.RiskScore)
	return rec, nil
}

// Reconstruct creates a record from persisted data. scored is false for
// legacy records stored without a risk score.
func Reconstruct(id string, spec RecordSpec, scored bool) *ScanRecord {
	rec := fromSpec(spec)
	rec.id = id
	rec.scored = scored
	if scored {
		rec.riskLevel = LevelFor(spec.RiskScore)
	}
	return rec
}

func fromSpec(spec RecordSpec) *ScanRecord {
	return &ScanRecord{
		url:             spec.URL,
		createdAt:       spec.CreatedAt.UTC(),
		scannerVersion:  spec.ScannerVersion,
		statusCode:      spec.StatusCode,
		responseTime:    spec.ResponseTime,
		stats:           spec.Stats,
		findings:        spec.Findings,
		features:        spec.Features,
		riskScore:       spec.RiskScore,
		comparison:      spec.Comparison,
		summary:         spec.Summary,
		fixes:           append([]FindingFix(nil), spec.Fixes...),
		recommendations: append([]string(nil), spec.Recommendations...),
		seo:             spec.SEO,
		headers:         spec.Headers,
		threat:          spec.Threat,
		screenshotURL:   spec.ScreenshotURL,
		captureError:    spec.CaptureError,
	}
}

// WithID returns a copy of the record carrying the storage identifier
func (r *ScanRecord) WithID(id string) *ScanRecord {
	cp := *r
	cp.id = id
	return &cp
}

// Getters

func (r *ScanRecord) ID() string {
	return r.id
}

// ScanID is the creation timestamp in ISO-8601 form
func (r *ScanRecord) ScanID() string {
	return r.createdAt.Format(ScanIDLayout)
}

func (r *ScanRecord) URL() string {
	return r.url
}

func (r *ScanRecord) CreatedAt() time.Time {
	return r.createdAt
}

func (r *ScanRecord) ScannerVersion() string {
	return r.scannerVersion
}

func (r *ScanRecord) StatusCode() int {
	return r.statusCode
}

func (r *ScanRecord) ResponseTime() float64 {
	return r.responseTime
}

func (r *ScanRecord) Stats() HTMLStats {
	return r.stats
}

func (r *ScanRecord) Findings() []Finding {
	return r.findings.Findings()
}

func (r *ScanRecord) Consolidated() Consolidated {
	return r.findings
}

// Messages returns the final message of every finding
func (r *ScanRecord) Messages() []string {
	return r.findings.Messages()
}

func (r *ScanRecord) Features() FeatureVector {
	return r.features
}

// RiskScore returns the score and whether the record was scored at all
func (r *ScanRecord) RiskScore() (int, bool) {
	return r.riskScore, r.scored
}

func (r *ScanRecord) RiskLevel() RiskLevel {
	return r.riskLevel
}

// Comparison is nil when no earlier scan of the target existed
func (r *ScanRecord) Comparison() *Comparison {
	return r.comparison
}

func (r *ScanRecord) Summary() string {
	return r.summary
}

func (r *ScanRecord) Fixes() []FindingFix {
	out := make([]FindingFix, len(r.fixes))
	copy(out, r.fixes)
	return out
}

func (r *ScanRecord) Recommendations() []string {
	out := make([]string, len(r.recommendations))
	copy(out, r.recommendations)
	return out
}

func (r *ScanRecord) SEO() *SEOMetadata {
	return r.seo
}

func (r *ScanRecord) Headers() *HeaderReport {
	return r.headers
}

func (r *ScanRecord) Threat() *ThreatReport {
	return r.threat
}

func (r *ScanRecord) ScreenshotURL() string {
	return r.screenshotURL
}

func (r *ScanRecord) CaptureError() string {
	return r.captureError
}

// SeverityBreakdown counts final findings per severity
func (r *ScanRecord) SeverityBreakdown() map[Severity]int {
	out := make(map[Severity]int, 4)
	for _, f := range r.findings.findings {
		out[f.severity]++
	}
	return out
}
