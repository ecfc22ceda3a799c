// Package azure talks to the Azure AI Language (Text Analytics v3.1) REST API.
package azure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reviewpulse/internal/adapters/httpjson"
	"reviewpulse/internal/domain"
)

const sentimentPath = "/text/analytics/v3.1/sentiment"

type Client struct {
	hc       *httpjson.Client
	endpoint string
}

func New(endpoint, key string, rps int) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("text analytics endpoint is required")
	}
	if key == "" {
		return nil, fmt.Errorf("text analytics key is required")
	}
	hc := httpjson.New("azure_text_analytics", rps, 30*time.Second,
		httpjson.WithHeader("Ocp-Apim-Subscription-Key", key))
	return &Client{hc: hc, endpoint: strings.TrimRight(endpoint, "/")}, nil
}

type document struct {
	ID       string `json:"id"`
	Language string `json:"language,omitempty"`
	Text     string `json:"text"`
}

type sentimentRequest struct {
	Documents []document `json:"documents"`
}

type confidence struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

type sentimentResponse struct {
	Documents []struct {
		ID               string     `json:"id"`
		Sentiment        string     `json:"sentiment"`
		ConfidenceScores confidence `json:"confidenceScores"`
	} `json:"documents"`
	Errors []struct {
		ID    string `json:"id"`
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"errors"`
}

// AnalyzeSentiment scores one batch. Results come back in request order; documents
// the service rejected carry Err and neutral fallback scores.
func (c *Client) AnalyzeSentiment(ctx context.Context, docs []domain.SentimentDocument) ([]domain.SentimentResult, error) {
	req := sentimentRequest{Documents: make([]document, len(docs))}
	for i, d := range docs {
		req.Documents[i] = document{ID: d.ID, Language: d.Language, Text: d.Text}
	}

	var resp sentimentResponse
	if err := c.hc.PostJSON(ctx, c.endpoint+sentimentPath, "sentiment", req, &resp); err != nil {
		return nil, fmt.Errorf("text analytics: %w", err)
	}

	byID := make(map[string]domain.SentimentResult, len(docs))
	for _, d := range resp.Documents {
		byID[d.ID] = domain.SentimentResult{
			ID:        d.ID,
			Sentiment: domain.ParseSentiment(d.Sentiment),
			Confidence: domain.ConfidenceScores{
				Positive: d.ConfidenceScores.Positive,
				Neutral:  d.ConfidenceScores.Neutral,
				Negative: d.ConfidenceScores.Negative,
			},
		}
	}
	for _, e := range resp.Errors {
		msg := e.Error.Message
		if msg == "" {
			msg = e.Error.Code
		}
		if msg == "" {
			msg = "document rejected"
		}
		byID[e.ID] = fallback(e.ID, msg)
	}

	out := make([]domain.SentimentResult, len(docs))
	for i, d := range docs {
		r, ok := byID[d.ID]
		if !ok {
			r = fallback(d.ID, "missing from response")
		}
		out[i] = r
	}
	return out, nil
}

func fallback(id, msg string) domain.SentimentResult {
	return domain.SentimentResult{
		ID:         id,
		Sentiment:  domain.SentimentNeutral,
		Confidence: domain.FallbackConfidence,
		Err:        msg,
	}
}
