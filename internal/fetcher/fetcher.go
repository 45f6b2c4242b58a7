package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	sharedErrors "github.com/ARYAN-095/GuardianWeb/internal/shared/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultUserAgent identifies scans as a regular desktop browser
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	// DefaultTimeout bounds one fetch including redirects and body read
	DefaultTimeout = 30 * time.Second
	// DefaultMaxBodyBytes caps how much of a document is read
	DefaultMaxBodyBytes = 10 << 20
	maxRedirects        = 10
)

// Config controls how targets are retrieved
type Config struct {
	Timeout            time.Duration `mapstructure:"timeout"`
	UserAgent          string        `mapstructure:"user_agent"`
	MaxBodyBytes       int64         `mapstructure:"max_body_bytes"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// Capturer renders a page and returns a PNG image of it
type Capturer interface {
	Capture(ctx context.Context, url string) ([]byte, error)
}

// ArtifactStore persists screenshot images and returns where they can be read
type ArtifactStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// FetchError reports that a target could not be retrieved
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return e.Err.Error()
}

func (e *FetchError) Unwrap() []error {
	return []error{sharedErrors.ErrFetchFailed, e.Err}
}

// Report renders the failure the way it is stored in scan reports
func (e *FetchError) Report() string {
	var se *StatusError
	if errors.As(e.Err, &se) {
		return fmt.Sprintf("HTTP %d error for %s", se.Code, se.URL)
	}
	return "Request exception: " + e.Err.Error()
}

// StatusError reports a 4xx or 5xx response from the target
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// Fetcher retrieves targets over HTTP and optionally captures a screenshot
type Fetcher struct {
	cfg       Config
	client    *http.Client
	capturer  Capturer
	artifacts ArtifactStore
	logger    *zap.Logger
}

// Option configures optional Fetcher collaborators
type Option func(*Fetcher)

// WithScreenshots enables visual capture for full scans
func WithScreenshots(c Capturer, store ArtifactStore) Option {
	return func(f *Fetcher) {
		f.capturer = c
		f.artifacts = store
	}
}

// WithHTTPClient replaces the default client; mainly useful in tests
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// New creates a Fetcher. Zero config values fall back to the defaults.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Fetcher{
		cfg:    cfg,
		logger: logger.Named("fetcher"),
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				TLSClientConfig:     &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, // #nosec G402 -- operator opt-in
				TLSHandshakeTimeout: 10 * time.Second,
				DisableCompression:  true,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves url. A non-nil error is always a *FetchError and means the
// scan must be aborted; result.Error carries the same message. When fullScan
// is set a screenshot is captured afterwards; a capture failure is recorded in
// result.Error and result.CaptureFailed but keeps the fetched data.
func (f *Fetcher) Fetch(ctx context.Context, url string, fullScan bool) (*scan.FetchResult, error) {
	result := &scan.FetchResult{
		URL:       url,
		FetchedAt: time.Now().UTC(),
	}

	start := time.Now()
	truncated, err := f.retrieve(ctx, url, result)
	if err != nil {
		fe := &FetchError{URL: url, Err: err}
		result.Error = fe.Report()
		f.logger.Warn("fetch failed", zap.String("url", url), zap.Error(err))
		return result, fe
	}
	result.ResponseTime = roundSeconds(time.Since(start))
	result.Stats = ComputeStats(result.HTML)
	result.Stats.Truncated = truncated
	if truncated {
		f.logger.Warn("document truncated at size cap",
			zap.String("url", url), zap.Int64("max_body_bytes", f.cfg.MaxBodyBytes))
	}

	if fullScan {
		f.screenshot(ctx, result)
	}
	return result, nil
}

func (f *Fetcher) retrieve(ctx context.Context, url string, result *scan.FetchResult) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.Headers = resp.Header.Clone()
	result.FinalURL = resp.Request.URL.String()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return false, &StatusError{Code: resp.StatusCode, URL: url}
	}

	body, truncated, err := decodeBody(resp, f.cfg.MaxBodyBytes)
	if err != nil {
		return false, fmt.Errorf("read body: %w", err)
	}
	result.HTML = body
	return truncated, nil
}

func (f *Fetcher) screenshot(ctx context.Context, result *scan.FetchResult) {
	fail := func(err error) {
		f.logger.Error("screenshot capture failed", zap.String("url", result.URL), zap.Error(err))
		result.Error = sharedErrors.ErrCaptureFailed.Error()
		result.CaptureFailed = true
	}

	if f.capturer == nil || f.artifacts == nil {
		fail(errors.New("screenshot capture is not configured"))
		return
	}

	img, err := f.capturer.Capture(ctx, result.URL)
	if err != nil {
		fail(err)
		return
	}
	location, err := f.artifacts.Save(ctx, uuid.NewString()+".png", img)
	if err != nil {
		fail(err)
		return
	}
	result.ScreenshotPath = location
	f.logger.Info("screenshot saved", zap.String("url", result.URL), zap.String("location", location))
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
