// Package threatintel looks up domain and IP reputation with VirusTotal and
// AbuseIPDB. Lookups degrade to an "unknown" verdict and never fail a scan.
package threatintel

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

const (
	DefaultVirusTotalURL = "https://www.virustotal.com"
	DefaultAbuseIPDBURL  = "https://api.abuseipdb.com"
	DefaultTimeout       = 15 * time.Second

	SourceVirusTotal = "virustotal"
	SourceAbuseIPDB  = "abuseipdb"

	CategoryClean   = "clean"
	CategoryFlagged = "flagged"
	CategoryUnknown = "unknown"

	// FlagThreshold is the combined score at which a target is flagged
	FlagThreshold = 50

	vtWeight    = 0.7
	abuseWeight = 0.3
)

// Config holds API credentials
type Config struct {
	Enabled          bool          `mapstructure:"enabled"`
	VirusTotalAPIKey string        `mapstructure:"virustotal_api_key"`
	AbuseIPDBAPIKey  string        `mapstructure:"abuseipdb_api_key"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// Resolver maps a host name to addresses
type Resolver func(ctx context.Context, host string) ([]string, error)

// Client queries the reputation services
type Client struct {
	cfg     Config
	vt      *resty.Client
	abuse   *resty.Client
	resolve Resolver
	logger  *zap.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithVirusTotalURL overrides the VirusTotal base URL
func WithVirusTotalURL(base string) Option {
	return func(c *Client) { c.vt.SetBaseURL(base) }
}

// WithAbuseIPDBURL overrides the AbuseIPDB base URL
func WithAbuseIPDBURL(base string) Option {
	return func(c *Client) { c.abuse.SetBaseURL(base) }
}

// WithResolver overrides DNS resolution
func WithResolver(r Resolver) Option {
	return func(c *Client) { c.resolve = r }
}

// New creates a threat intelligence client
func New(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{
		cfg: cfg,
		vt: resty.New().
			SetBaseURL(DefaultVirusTotalURL).
			SetHeader("x-apikey", cfg.VirusTotalAPIKey).
			SetTimeout(cfg.Timeout),
		abuse: resty.New().
			SetBaseURL(DefaultAbuseIPDBURL).
			SetHeader("Key", cfg.AbuseIPDBAPIKey).
			SetHeader("Accept", "application/json").
			SetTimeout(cfg.Timeout),
		resolve: net.DefaultResolver.LookupHost,
		logger:  logger.Named("threatintel"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type vtResponse struct {
	Data struct {
		Attributes struct {
			LastAnalysisStats map[string]int `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

type abuseResponse struct {
	Data struct {
		IPAddress            string `json:"ipAddress"`
		AbuseConfidenceScore int    `json:"abuseConfidenceScore"`
	} `json:"data"`
}

// Lookup reports the reputation of the target's host. It never returns nil.
func (c *Client) Lookup(ctx context.Context, target string) *scan.ThreatReport {
	report := &scan.ThreatReport{Category: CategoryUnknown, Sources: []string{}}

	u, err := url.Parse(target)
	if err != nil || u.Hostname() == "" {
		c.logger.Warn("threat lookup skipped, no host", zap.String("url", target))
		return report
	}
	report.Domain = u.Hostname()

	var (
		vtScore    float64
		vtOK       bool
		abuseScore int
		abuseOK    bool
	)

	var g errgroup.Group
	if c.cfg.VirusTotalAPIKey != "" {
		g.Go(func() error {
			score, err := c.virusTotal(ctx, report.Domain)
			if err != nil {
				c.logger.Warn("virustotal lookup failed", zap.String("domain", report.Domain), zap.Error(err))
				return nil
			}
			vtScore, vtOK = score, true
			return nil
		})
	}
	if c.cfg.AbuseIPDBAPIKey != "" {
		g.Go(func() error {
			ip := report.Domain
			if net.ParseIP(ip) == nil {
				addrs, err := c.resolve(ctx, report.Domain)
				if err != nil || len(addrs) == 0 {
					c.logger.Warn("host resolution failed", zap.String("domain", report.Domain), zap.Error(err))
					return nil
				}
				ip = addrs[0]
			}
			score, err := c.abuseIPDB(ctx, ip)
			if err != nil {
				c.logger.Warn("abuseipdb lookup failed", zap.String("ip", ip), zap.Error(err))
				return nil
			}
			report.IP = ip
			abuseScore, abuseOK = score, true
			return nil
		})
	}
	_ = g.Wait()

	if vtOK {
		report.VTScore = vtScore
		report.Sources = append(report.Sources, SourceVirusTotal)
	}
	if abuseOK {
		report.AbuseScore = abuseScore
		report.Sources = append(report.Sources, SourceAbuseIPDB)
	}
	if !vtOK && !abuseOK {
		return report
	}

	report.CombinedScore = CombinedScore(report.VTScore, report.AbuseScore)
	report.Category = CategoryClean
	if report.CombinedScore >= FlagThreshold {
		report.Category = CategoryFlagged
	}
	return report
}

// CombinedScore weights VirusTotal 70% and AbuseIPDB 30%
func CombinedScore(vt float64, abuse int) int {
	return int(vt*vtWeight + float64(abuse)*abuseWeight)
}

// virusTotal returns the share of engines flagging the domain as malicious, 0..100
func (c *Client) virusTotal(ctx context.Context, domain string) (float64, error) {
	var out vtResponse
	resp, err := c.vt.R().
		SetContext(ctx).
		SetPathParam("domain", domain).
		SetResult(&out).
		Get("/api/v3/domains/{domain}")
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("%d on domain lookup", resp.StatusCode())
	}

	stats := out.Data.Attributes.LastAnalysisStats
	total := 0
	for _, n := range stats {
		total += n
	}
	if total == 0 {
		return 0, nil
	}
	return float64(int(float64(stats["malicious"]) / float64(total) * 100)), nil
}

func (c *Client) abuseIPDB(ctx context.Context, ip string) (int, error) {
	var out abuseResponse
	resp, err := c.abuse.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ipAddress":    ip,
			"maxAgeInDays": "90",
		}).
		SetResult(&out).
		Get("/api/v2/check")
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("%d on ip check", resp.StatusCode())
	}
	return out.Data.AbuseConfidenceScore, nil
}
