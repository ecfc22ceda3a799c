// Package gemini wraps the genai SDK as a plain text generator.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"reviewpulse/internal/adapters/observability"
)

var ErrEmptyResponse = errors.New("gemini: empty response")

type Client struct {
	cli   *genai.Client
	model string
	rl    *rate.Limiter
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional override, used by tests
	RPS     int
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 2
	}
	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{cli: cli, model: cfg.Model, rl: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.RPS)}, nil
}

func (c *Client) Model() string { return c.model }

// Generate sends a single-turn prompt and returns the concatenated text parts.
// It does not retry; callers own the retry policy.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}
	start := time.Now()
	resp, err := c.cli.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}}, nil)
	if err != nil {
		observability.ObserveExternal("gemini", "generate_content", 0, time.Since(start))
		return "", err
	}
	observability.ObserveExternal("gemini", "generate_content", 200, time.Since(start))

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
