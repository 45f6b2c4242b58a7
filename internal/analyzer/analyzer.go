package analyzer

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Analyzer is the interface that all analyzers must satisfy. Implementations
// must not modify the fetch result.
type Analyzer interface {
	// Analyze produces findings from fetched data
	Analyze(ctx context.Context, page *scan.FetchResult) ([]scan.Finding, error)

	// Name returns the name of this analyzer (e.g., "headers", "seo")
	Name() string
}

// Failure records an analyzer whose contribution was skipped
type Failure struct {
	Analyzer string
	Err      error
}

// Result is the combined output of a Set run
type Result struct {
	Findings []scan.Finding
	Failures []Failure
}

// Set runs a fixed collection of analyzers concurrently. A failing or
// panicking analyzer is logged and skipped; the others still contribute.
// Findings are returned grouped in analyzer order regardless of completion order.
type Set struct {
	analyzers []Analyzer
	logger    *zap.Logger
}

// NewSet creates a set over the given analyzers
func NewSet(logger *zap.Logger, analyzers ...Analyzer) *Set {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Set{analyzers: analyzers, logger: logger.Named("analyzers")}
}

// Names lists the analyzers in invocation order
func (s *Set) Names() []string {
	names := make([]string, len(s.analyzers))
	for i, a := range s.analyzers {
		names[i] = a.Name()
	}
	return names
}

// Run invokes every analyzer on page
func (s *Set) Run(ctx context.Context, page *scan.FetchResult) Result {
	outputs := make([][]scan.Finding, len(s.analyzers))
	errs := make([]error, len(s.analyzers))

	var g errgroup.Group
	for i, a := range s.analyzers {
		g.Go(func() error {
			outputs[i], errs[i] = s.invoke(ctx, a, page)
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	for i, a := range s.analyzers {
		if errs[i] != nil {
			res.Failures = append(res.Failures, Failure{Analyzer: a.Name(), Err: errs[i]})
			continue
		}
		res.Findings = append(res.Findings, outputs[i]...)
	}
	return res
}

func (s *Set) invoke(ctx context.Context, a Analyzer, page *scan.FetchResult) (findings []scan.Finding, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			findings = nil
			err = fmt.Errorf("analyzer panicked: %v", r)
			s.logger.Error("analyzer panicked",
				zap.String("analyzer", a.Name()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	findings, err = a.Analyze(ctx, page)
	if err != nil {
		s.logger.Warn("analyzer failed, skipping its findings",
			zap.String("analyzer", a.Name()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Debug("analyzer completed",
		zap.String("analyzer", a.Name()),
		zap.Int("findings", len(findings)),
		zap.Duration("duration", time.Since(start)))
	return findings, nil
}
