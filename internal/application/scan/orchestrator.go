package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ARYAN-095/GuardianWeb/internal/analyzer"
	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	"github.com/ARYAN-095/GuardianWeb/internal/shared/constants"
	sharedErrors "github.com/ARYAN-095/GuardianWeb/internal/shared/errors"
)

// PageFetcher retrieves a target
type PageFetcher interface {
	Fetch(ctx context.Context, url string, fullScan bool) (*scan.FetchResult, error)
}

// Scorer turns a feature vector into a risk score
type Scorer interface {
	Score(v scan.FeatureVector) (int, error)
}

// Narrator produces narrative text. Implementations never fail.
type Narrator interface {
	Summarize(ctx context.Context, findings []scan.Finding) string
	SuggestFixes(ctx context.Context, findings []scan.Finding) []string
}

// Recommender maps findings to remediation advice
type Recommender interface {
	Recommend(findings []scan.Finding) []string
}

// ThreatLookup reports target reputation. Implementations never fail.
type ThreatLookup interface {
	Lookup(ctx context.Context, target string) *scan.ThreatReport
}

// PersistError means the scan succeeded but the record could not be saved.
// Record holds the unsaved report.
type PersistError struct {
	Record *scan.ScanRecord
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("scan completed but could not be saved: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Dependencies are the collaborators of an Orchestrator. Threat is optional.
type Dependencies struct {
	Fetcher     PageFetcher
	Analyzers   *analyzer.Set
	Adjuster    *analyzer.ContextAdjuster
	Scorer      Scorer
	Repository  scan.Repository
	Narrator    Narrator
	Recommender Recommender
	Threat      ThreatLookup
}

// Options tune a scan
type Options struct {
	Timeout           time.Duration
	FullScan          bool
	RequireScreenshot bool
}

// Orchestrator runs the scan pipeline and serves stored results
type Orchestrator struct {
	deps   Dependencies
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// NewOrchestrator creates a new scan orchestrator
func NewOrchestrator(deps Dependencies, opts Options, logger *zap.Logger) (*Orchestrator, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, fmt.Errorf("%w: fetcher", sharedErrors.ErrMissingRequired)
	case deps.Analyzers == nil:
		return nil, fmt.Errorf("%w: analyzer set", sharedErrors.ErrMissingRequired)
	case deps.Scorer == nil:
		return nil, fmt.Errorf("%w: scorer", sharedErrors.ErrMissingRequired)
	case deps.Repository == nil:
		return nil, fmt.Errorf("%w: repository", sharedErrors.ErrMissingRequired)
	case deps.Narrator == nil:
		return nil, fmt.Errorf("%w: narrator", sharedErrors.ErrMissingRequired)
	case deps.Recommender == nil:
		return nil, fmt.Errorf("%w: recommender", sharedErrors.ErrMissingRequired)
	}
	if deps.Adjuster == nil {
		deps.Adjuster = analyzer.NewContextAdjuster(nil)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultScanTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		deps:   deps,
		opts:   opts,
		logger: logger.Named("orchestrator"),
		now:    time.Now,
	}, nil
}

// Analyze scans rawURL and persists the report. Errors:
//   - ErrInvalidURL for unusable input
//   - *fetcher.FetchError (ErrFetchFailed) when the target cannot be retrieved
//   - ErrCaptureFailed when a required screenshot failed
//   - ErrModelUnavailable when scoring failed
//   - ErrScanTimeout when the scan deadline passed
//   - *PersistError when only saving failed
func (o *Orchestrator) Analyze(ctx context.Context, rawURL string) (*scan.ScanRecord, error) {
	target, err := analyzer.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	log := o.logger.With(zap.String("url", target))
	start := time.Now()

	page, err := o.deps.Fetcher.Fetch(ctx, target, o.opts.FullScan)
	if err != nil {
		if timeoutErr := deadline(ctx); timeoutErr != nil {
			return nil, timeoutErr
		}
		return nil, err
	}
	if page.CaptureFailed && o.opts.RequireScreenshot {
		return nil, fmt.Errorf("%w for %s", sharedErrors.ErrCaptureFailed, target)
	}

	result := o.deps.Analyzers.Run(ctx, page)
	for _, f := range result.Failures {
		log.Warn("analyzer skipped", zap.String("analyzer", f.Analyzer), zap.Error(f.Err))
	}
	adjusted := o.deps.Adjuster.Apply(target, result.Findings)
	final := scan.Consolidate(adjusted)
	features := scan.ExtractFeatures(final, page)

	score, previous, err := o.scoreAndLoadPrevious(ctx, target, features)
	if err != nil {
		return nil, err
	}
	var comparison *scan.Comparison
	if previous != nil {
		prevScore, scored := previous.RiskScore()
		c := scan.Compare(final.Messages(), score, previous.Messages(), prevScore, scored)
		comparison = &c
	}

	spec := scan.RecordSpec{
		URL:            target,
		CreatedAt:      o.now(),
		ScannerVersion: constants.ScannerVersion,
		StatusCode:     page.StatusCode,
		ResponseTime:   page.ResponseTime,
		Stats:          page.Stats,
		Findings:       final,
		Features:       features,
		RiskScore:      score,
		Comparison:     comparison,
		Headers:        analyzer.GradeHeaders(page),
		ScreenshotURL:  page.ScreenshotPath,
	}
	if page.CaptureFailed {
		spec.CaptureError = page.Error
	}
	if _, seo, err := analyzer.InspectSEO(page.HTML); err == nil {
		spec.SEO = &seo
	}
	o.assemble(ctx, target, final.Findings(), &spec)

	if timeoutErr := deadline(ctx); timeoutErr != nil {
		return nil, timeoutErr
	}

	record, err := scan.NewScanRecord(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan record: %w", err)
	}

	id, err := o.deps.Repository.Insert(ctx, record)
	if err != nil {
		log.Error("failed to persist scan", zap.Error(err))
		return nil, &PersistError{Record: record, Err: err}
	}

	log.Info("scan completed",
		zap.Int("risk_score", score),
		zap.String("risk_level", string(record.RiskLevel())),
		zap.Int("findings", final.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return record.WithID(id), nil
}

// scoreAndLoadPrevious scores the features while the previous record is
// loaded. A failed history read only drops the comparison.
func (o *Orchestrator) scoreAndLoadPrevious(ctx context.Context, target string, features scan.FeatureVector) (int, *scan.ScanRecord, error) {
	var (
		score    int
		previous *scan.ScanRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := o.deps.Scorer.Score(features)
		if err != nil {
			return fmt.Errorf("failed to score scan: %w", err)
		}
		score = s
		return nil
	})
	g.Go(func() error {
		prev, err := o.deps.Repository.Latest(gctx, target)
		switch {
		case err == nil:
			previous = prev
		case errors.Is(err, sharedErrors.ErrScanNotFound):
			// first scan of this target
		default:
			o.logger.Warn("failed to load previous scan", zap.String("url", target), zap.Error(err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}
	if timeoutErr := deadline(ctx); timeoutErr != nil {
		return 0, nil, timeoutErr
	}
	return score, previous, nil
}

// assemble fills in narrative text, fixes, recommendations and threat intel
func (o *Orchestrator) assemble(ctx context.Context, target string, findings []scan.Finding, spec *scan.RecordSpec) {
	var (
		summary string
		fixes   []string
		threat  *scan.ThreatReport
		g       errgroup.Group
	)
	g.Go(func() error {
		summary = o.deps.Narrator.Summarize(ctx, findings)
		return nil
	})
	g.Go(func() error {
		fixes = o.deps.Narrator.SuggestFixes(ctx, findings)
		return nil
	})
	if o.deps.Threat != nil {
		g.Go(func() error {
			threat = o.deps.Threat.Lookup(ctx, target)
			return nil
		})
	}
	_ = g.Wait()

	spec.Summary = summary
	spec.Fixes = make([]scan.FindingFix, 0, len(findings))
	for i, f := range findings {
		fix := ""
		if i < len(fixes) {
			fix = fixes[i]
		}
		spec.Fixes = append(spec.Fixes, scan.FindingFix{Message: f.Message(), Fix: fix})
	}
	spec.Recommendations = o.deps.Recommender.Recommend(findings)
	spec.Threat = threat
}

// LatestScan returns the newest stored record for rawURL
func (o *Orchestrator) LatestScan(ctx context.Context, rawURL string) (*scan.ScanRecord, error) {
	target, err := analyzer.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	return o.deps.Repository.Latest(ctx, target)
}

// ScanByID returns the record created at scanID
func (o *Orchestrator) ScanByID(ctx context.Context, scanID string) (*scan.ScanRecord, error) {
	return o.deps.Repository.FindByScanID(ctx, scanID)
}

// History returns up to limit records for rawURL, newest first
func (o *Orchestrator) History(ctx context.Context, rawURL string, limit int) ([]*scan.ScanRecord, error) {
	target, err := analyzer.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}
	return o.deps.Repository.History(ctx, target, limit)
}

func deadline(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", sharedErrors.ErrScanTimeout, ctx.Err())
	}
	return nil
}
