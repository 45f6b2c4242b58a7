package narrative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	"github.com/ARYAN-095/GuardianWeb/internal/shared/constants"
)

const defaultConcurrency = 4

// Guard runs a primary narrator under a per-item timeout and falls back to
// rule-derived text on any failure. Its methods never return errors.
type Guard struct {
	primary     Narrator
	fallback    Narrator
	timeout     time.Duration
	concurrency int
	logger      *zap.Logger
}

// GuardOption configures a Guard
type GuardOption func(*Guard)

// WithItemTimeout bounds each generation call
func WithItemTimeout(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithConcurrency limits parallel fix generation
func WithConcurrency(n int) GuardOption {
	return func(g *Guard) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// NewGuard wraps primary. A nil primary uses the rule narrator directly.
func NewGuard(primary Narrator, logger *zap.Logger, opts ...GuardOption) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	fallback := NewRuleNarrator()
	if primary == nil {
		primary = fallback
	}
	g := &Guard{
		primary:     primary,
		fallback:    fallback,
		timeout:     constants.DefaultNarrativeItemTimeout,
		concurrency: defaultConcurrency,
		logger:      logger.Named("narrative"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Summarize returns a summary of findings
func (g *Guard) Summarize(ctx context.Context, findings []scan.Finding) string {
	text, err := call(ctx, g.timeout, func(ctx context.Context) (string, error) {
		return g.primary.Summarize(ctx, findings)
	})
	if err == nil {
		return text
	}
	g.logger.Warn("summary generation failed, using fallback", zap.Error(err))
	text, _ = g.fallback.Summarize(ctx, findings)
	return text
}

// SuggestFix returns a fix suggestion for one finding
func (g *Guard) SuggestFix(ctx context.Context, f scan.Finding) string {
	text, err := call(ctx, g.timeout, func(ctx context.Context) (string, error) {
		return g.primary.SuggestFix(ctx, f)
	})
	if err == nil {
		return text
	}
	g.logger.Warn("fix generation failed, using fallback",
		zap.String("finding", f.Message()),
		zap.Error(err))
	text, _ = g.fallback.SuggestFix(ctx, f)
	return text
}

// SuggestFixes generates one fix per finding concurrently. The result is
// index-aligned with findings.
func (g *Guard) SuggestFixes(ctx context.Context, findings []scan.Finding) []string {
	fixes := make([]string, len(findings))
	var eg errgroup.Group
	eg.SetLimit(g.concurrency)
	for i, f := range findings {
		eg.Go(func() error {
			fixes[i] = g.SuggestFix(ctx, f)
			return nil
		})
	}
	_ = eg.Wait()
	return fixes
}

// call runs fn with a timeout and converts panics, empty text and late
// answers into errors. fn keeps running in the background after a timeout
// until it observes the cancelled context.
func call(parent context.Context, timeout time.Duration, fn func(context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("narrator panic: %v", r)}
			}
		}()
		text, err := fn(ctx)
		done <- result{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		if strings.TrimSpace(res.text) == "" {
			return "", fmt.Errorf("narrator returned empty text")
		}
		return res.text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
