package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"reviewpulse/internal/adapters/observability"
	"reviewpulse/internal/domain"
)

const (
	DefaultChunkSize        = 10
	defaultUnavailableAfter = 2
)

type Classification struct {
	Reviews      []domain.ClassifiedReview
	FailedCount  int // reviews that carry fallback scores
	FailedChunks int
	Chunks       int
}

// Partial reports degraded batches as a warning-grade error, nil when every batch succeeded.
func (c Classification) Partial() error {
	if c.FailedChunks == 0 && c.FailedCount == 0 {
		return nil
	}
	return &domain.PartialFailureError{FailedChunks: c.FailedChunks, TotalChunks: c.Chunks, FailedDocs: c.FailedCount}
}

// Classifier sends reviews to the sentiment service in fixed-size batches, one at a time.
type Classifier struct {
	svc       domain.SentimentService
	language  string
	chunkSize int
	// a run fails outright only when every batch failed and at least this many were tried
	unavailableAfter int
}

func NewClassifier(svc domain.SentimentService, language string) *Classifier {
	if language == "" {
		language = "tr"
	}
	return &Classifier{svc: svc, language: language, chunkSize: DefaultChunkSize, unavailableAfter: defaultUnavailableAfter}
}

func (c *Classifier) WithChunkSize(n int) *Classifier {
	cp := *c
	cp.chunkSize = n
	return &cp
}

func (c *Classifier) WithUnavailableAfter(n int) *Classifier {
	cp := *c
	cp.unavailableAfter = n
	return &cp
}

func (c *Classifier) Classify(ctx context.Context, reviews []domain.Review) (Classification, error) {
	for i, r := range reviews {
		if strings.TrimSpace(r.Text) == "" {
			return Classification{}, domain.Invalid(fmt.Sprintf("reviews[%d].text", i), "must not be empty")
		}
	}
	chunks, err := Chunk(reviews, c.chunkSize)
	if err != nil {
		return Classification{}, err
	}

	out := Classification{Reviews: make([]domain.ClassifiedReview, 0, len(reviews)), Chunks: len(chunks)}
	var lastErr error
	for ci, ch := range chunks {
		docs := make([]domain.SentimentDocument, len(ch))
		for j, r := range ch {
			docs[j] = domain.SentimentDocument{ID: strconv.Itoa(j), Text: r.Text, Language: c.language}
		}

		res, err := c.svc.AnalyzeSentiment(ctx, docs)
		if err != nil {
			if ctx.Err() != nil {
				return Classification{}, ctx.Err()
			}
			lastErr = err
			log.Warn().Err(err).Int("chunk", ci).Int("size", len(ch)).Msg("sentiment batch failed; using neutral fallback")
			for _, r := range ch {
				out.Reviews = append(out.Reviews, fallbackReview(r))
			}
			out.FailedChunks++
			out.FailedCount += len(ch)
			observability.ObserveChunk(false, len(ch), len(ch))
			continue
		}

		byID := make(map[string]domain.SentimentResult, len(res))
		for _, r := range res {
			byID[r.ID] = r
		}
		fallbacks := 0
		for j, r := range ch {
			sr, ok := byID[docs[j].ID]
			if !ok || sr.Err != "" {
				if ok {
					log.Debug().Str("review_id", r.ID).Str("reason", sr.Err).Msg("sentiment document rejected")
				}
				out.Reviews = append(out.Reviews, fallbackReview(r))
				fallbacks++
				continue
			}
			out.Reviews = append(out.Reviews, domain.ClassifiedReview{
				Review:           r,
				Sentiment:        domain.ParseSentiment(string(sr.Sentiment)),
				ConfidenceScores: sr.Confidence,
			})
		}
		out.FailedCount += fallbacks
		observability.ObserveChunk(true, len(ch), fallbacks)
	}

	if out.Chunks > 0 && out.FailedChunks == out.Chunks && out.Chunks >= c.unavailableAfter {
		return Classification{}, fmt.Errorf("%w: all %d batches failed: %v",
			domain.ErrClassificationUnavailable, out.Chunks, lastErr)
	}
	return out, nil
}

func fallbackReview(r domain.Review) domain.ClassifiedReview {
	return domain.ClassifiedReview{
		Review:               r,
		Sentiment:            domain.SentimentNeutral,
		ConfidenceScores:     domain.FallbackConfidence,
		ClassificationFailed: true,
	}
}
