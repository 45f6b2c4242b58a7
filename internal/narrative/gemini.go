package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.0-flash"

// contentGenerator is the subset of *genai.Models used here
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiNarrator generates text through the Gemini API
type GeminiNarrator struct {
	models contentGenerator
	model  string
}

// NewGeminiNarrator creates a Gemini-backed narrator
func NewGeminiNarrator(ctx context.Context, apiKey, model string) (*GeminiNarrator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini narrator requires an API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiNarrator(client.Models, model), nil
}

func newGeminiNarrator(models contentGenerator, model string) *GeminiNarrator {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiNarrator{models: models, model: model}
}

func (g *GeminiNarrator) Summarize(ctx context.Context, findings []scan.Finding) (string, error) {
	if len(findings) == 0 {
		return NoAnomaliesSummary, nil
	}
	return g.generate(ctx, summaryPrompt(findings), 150)
}

func (g *GeminiNarrator) SuggestFix(ctx context.Context, f scan.Finding) (string, error) {
	return g.generate(ctx, fixPrompt(f), 100)
}

func (g *GeminiNarrator) generate(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini returned no text")
	}
	return text, nil
}
