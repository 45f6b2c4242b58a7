package narrative

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config selects and configures the narrative provider
type Config struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	Endpoint    string        `mapstructure:"endpoint"`
	ItemTimeout time.Duration `mapstructure:"item_timeout"`
	Concurrency int           `mapstructure:"concurrency"`
}

// New builds the configured narrator. "rules" or an empty provider selects
// the rule narrator.
func New(ctx context.Context, cfg Config) (Narrator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "rules":
		return NewRuleNarrator(), nil
	case "gemini":
		n, err := NewGeminiNarrator(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return n, nil
	case "http":
		n, err := NewHTTPNarrator(cfg.Endpoint, cfg.APIKey, cfg.ItemTimeout)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unknown narrative provider %q", cfg.Provider)
	}
}
