package narrative

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

// HTTPNarrator calls a self-hosted text generation endpoint that accepts
// {"prompt", "max_tokens"} and answers {"text"}.
type HTTPNarrator struct {
	httpc *resty.Client
}

type generateRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// NewHTTPNarrator creates a narrator for the endpoint. The token is sent as a
// bearer token when set.
func NewHTTPNarrator(endpoint, token string, timeout time.Duration) (*HTTPNarrator, error) {
	if endpoint == "" {
		return nil, errors.New("http narrator requires an endpoint")
	}
	httpc := resty.New().
		SetBaseURL(endpoint).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(1).
		SetTimeout(timeout)
	if token != "" {
		httpc.SetAuthToken(token)
	}
	return &HTTPNarrator{httpc: httpc}, nil
}

func (n *HTTPNarrator) Summarize(ctx context.Context, findings []scan.Finding) (string, error) {
	if len(findings) == 0 {
		return NoAnomaliesSummary, nil
	}
	return n.generate(ctx, summaryPrompt(findings), 150)
}

func (n *HTTPNarrator) SuggestFix(ctx context.Context, f scan.Finding) (string, error) {
	return n.generate(ctx, fixPrompt(f), 100)
}

func (n *HTTPNarrator) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	var out generateResponse
	resp, err := n.httpc.R().
		SetContext(ctx).
		SetBody(generateRequest{Prompt: prompt, MaxTokens: maxTokens}).
		SetResult(&out).
		Post("")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%d on generating text", resp.StatusCode())
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", errors.New("generator returned no text")
	}
	return text, nil
}
