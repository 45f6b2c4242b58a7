package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ARYAN-095/GuardianWeb/internal/analyzer"
	scanapp "github.com/ARYAN-095/GuardianWeb/internal/application/scan"
	"github.com/ARYAN-095/GuardianWeb/internal/config"
	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	"github.com/ARYAN-095/GuardianWeb/internal/fetcher"
	"github.com/ARYAN-095/GuardianWeb/internal/infrastructure/artifacts"
	"github.com/ARYAN-095/GuardianWeb/internal/infrastructure/persistence/json"
	"github.com/ARYAN-095/GuardianWeb/internal/infrastructure/persistence/postgres"
	"github.com/ARYAN-095/GuardianWeb/internal/narrative"
	"github.com/ARYAN-095/GuardianWeb/internal/recommend"
	"github.com/ARYAN-095/GuardianWeb/internal/riskmodel"
	"github.com/ARYAN-095/GuardianWeb/internal/threatintel"
)

// Container holds the wired application components
type Container struct {
	// Repositories
	ScanRepo scan.Repository

	// Services
	Orchestrator *scanapp.Orchestrator

	// ScreenshotDir is set when screenshots are stored locally
	ScreenshotDir string

	closers []func()
}

// NewContainer wires every component from cfg. Model and rule files that
// fail to load are start-up errors.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Container{}

	repo, err := c.newRepository(ctx, cfg.Storage, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.ScanRepo = repo

	var fetchOpts []fetcher.Option
	if cfg.Screenshot.Enabled {
		store, err := c.newArtifactStore(cfg.Screenshot)
		if err != nil {
			c.Close()
			return nil, err
		}
		capturer := &fetcher.ChromeCapturer{Timeout: cfg.Screenshot.Timeout, ExecPath: cfg.Screenshot.ExecPath}
		fetchOpts = append(fetchOpts, fetcher.WithScreenshots(capturer, store))
	}
	pageFetcher := fetcher.New(cfg.Fetcher, logger, fetchOpts...)

	perf, err := analyzer.NewPerformanceAnalyzer(cfg.Performance.GoodThreshold, cfg.Performance.PoorThreshold)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create performance analyzer: %w", err)
	}
	analyzers := analyzer.NewSet(logger,
		analyzer.NewHeaderSecurityAnalyzer(),
		perf,
		analyzer.NewMalwareAnalyzer(),
		analyzer.NewSEOAnalyzer(),
		analyzer.NewAccessibilityAnalyzer(),
	)

	model, err := riskmodel.Load(cfg.RiskModel.Path)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to load risk model: %w", err)
	}
	scorer, err := riskmodel.NewScorer(model)
	if err != nil {
		c.Close()
		return nil, err
	}

	rules, err := recommend.Load(cfg.Recommendations.RulesFile)
	if err != nil {
		c.Close()
		return nil, err
	}

	primary, err := narrative.New(ctx, cfg.Narrative)
	if err != nil {
		logger.Warn("narrative provider unavailable, using rule-based text", zap.Error(err))
		primary = nil
	}
	guard := narrative.NewGuard(primary, logger,
		narrative.WithItemTimeout(cfg.Narrative.ItemTimeout),
		narrative.WithConcurrency(cfg.Narrative.Concurrency))

	deps := scanapp.Dependencies{
		Fetcher:     pageFetcher,
		Analyzers:   analyzers,
		Adjuster:    analyzer.NewContextAdjuster(cfg.Context.KnownSites),
		Scorer:      scorer,
		Repository:  repo,
		Narrator:    guard,
		Recommender: rules,
	}
	if cfg.ThreatIntel.Enabled {
		deps.Threat = threatintel.New(cfg.ThreatIntel, logger)
	}

	orch, err := scanapp.NewOrchestrator(deps, scanapp.Options{
		Timeout:           cfg.Scan.Timeout,
		FullScan:          cfg.Screenshot.Enabled,
		RequireScreenshot: cfg.Screenshot.Required,
	}, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Orchestrator = orch

	logger.Info("application container ready",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("model_version", scorer.ModelVersion()),
		zap.Strings("analyzers", analyzers.Names()),
		zap.Bool("screenshots", cfg.Screenshot.Enabled),
		zap.Bool("threat_intel", cfg.ThreatIntel.Enabled))
	return c, nil
}

func (c *Container) newRepository(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (scan.Repository, error) {
	switch cfg.Driver {
	case "postgres":
		store, closeFn, err := postgres.Connect(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		c.closers = append(c.closers, closeFn)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare schema: %w", err)
		}
		return store, nil
	default:
		repo, err := json.NewScanRecordRepository(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to create scan repository: %w", err)
		}
		return repo, nil
	}
}

func (c *Container) newArtifactStore(cfg config.ScreenshotConfig) (fetcher.ArtifactStore, error) {
	if cfg.Store == "s3" {
		store, err := artifacts.NewS3Store(cfg.S3)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := artifacts.NewLocalStore(cfg.Dir)
	if err != nil {
		return nil, err
	}
	c.ScreenshotDir = store.Dir()
	return store, nil
}

// Ready reports whether the scan store can serve requests
func (c *Container) Ready(ctx context.Context) error {
	if p, ok := c.ScanRepo.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases storage connections
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
