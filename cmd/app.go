package cmd

import (
	"context"

	"go.uber.org/zap"

	"github.com/ARYAN-095/GuardianWeb/internal/api"
	"github.com/ARYAN-095/GuardianWeb/internal/application"
	"github.com/ARYAN-095/GuardianWeb/internal/config"
)

// AppContext is what commands need from the wired application
type AppContext struct {
	Scans         api.ScanService
	Ready         func(context.Context) error
	ScreenshotDir string
	Close         func()
}

// newAppContext is replaced in tests
var newAppContext = func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*AppContext, error) {
	c, err := application.NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &AppContext{
		Scans:         c.Orchestrator,
		Ready:         c.Ready,
		ScreenshotDir: c.ScreenshotDir,
		Close:         c.Close,
	}, nil
}

func getAppContext(ctx context.Context) (*AppContext, error) {
	cfg := appCfg
	if cfg == nil {
		cfg = config.Default()
	}
	l := logger
	if l == nil {
		l = zap.NewNop()
	}
	return newAppContext(ctx, cfg, l)
}
