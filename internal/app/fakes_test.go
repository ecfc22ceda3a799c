package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"reviewpulse/internal/domain"
)

// ---- fakes ----

type fakeSentiment struct {
	mu    sync.Mutex
	calls int
	// fn answers one batch; nil means "positive for everything"
	fn func(call int, docs []domain.SentimentDocument) ([]domain.SentimentResult, error)
}

func (f *fakeSentiment) AnalyzeSentiment(ctx context.Context, docs []domain.SentimentDocument) ([]domain.SentimentResult, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(call, docs)
	}
	return allAs(domain.SentimentPositive)(call, docs)
}

func allAs(s domain.Sentiment) func(int, []domain.SentimentDocument) ([]domain.SentimentResult, error) {
	return func(_ int, docs []domain.SentimentDocument) ([]domain.SentimentResult, error) {
		out := make([]domain.SentimentResult, len(docs))
		for i, d := range docs {
			c := domain.ConfidenceScores{Neutral: 1}
			switch s {
			case domain.SentimentPositive:
				c = domain.ConfidenceScores{Positive: 1}
			case domain.SentimentNegative:
				c = domain.ConfidenceScores{Negative: 1}
			}
			out[i] = domain.SentimentResult{ID: d.ID, Sentiment: s, Confidence: c}
		}
		return out, nil
	}
}

var errUpstream = errors.New("upstream exploded")

func failing(int, []domain.SentimentDocument) ([]domain.SentimentResult, error) {
	return nil, errUpstream
}

type fakeSource struct {
	platform domain.Platform
	res      map[string]domain.FetchResult
	err      map[string]error
}

func (f *fakeSource) Platform() domain.Platform { return f.platform }

func (f *fakeSource) Fetch(ctx context.Context, appID string, loc domain.Locale) (domain.FetchResult, error) {
	if err, ok := f.err[appID]; ok {
		return domain.FetchResult{}, err
	}
	return f.res[appID], nil
}

type fakeGen struct {
	mu    sync.Mutex
	calls int
	out   []string
	errs  []error
}

func (g *fakeGen) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.calls
	g.calls++
	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(g.out) {
		return g.out[i], nil
	}
	return "", nil
}

type fakeRepo struct {
	mu      sync.Mutex
	saved   []domain.AnalysisRecord
	saveErr error
	pruned  []int
	lists   int
}

func (r *fakeRepo) Save(ctx context.Context, rec domain.AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, rec)
	return nil
}

func (r *fakeRepo) Prune(ctx context.Context, owner string, keep int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruned = append(r.pruned, keep)
	var kept []domain.AnalysisRecord
	var n int64
	count := 0
	for i := len(r.saved) - 1; i >= 0; i-- {
		rec := r.saved[i]
		if rec.OwnerID == owner {
			count++
			if count > keep {
				n++
				continue
			}
		}
		kept = append([]domain.AnalysisRecord{rec}, kept...)
	}
	r.saved = kept
	return n, nil
}

func (r *fakeRepo) Get(ctx context.Context, id string) (domain.AnalysisRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.saved {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.AnalysisRecord{}, domain.ErrNotFound
}

func (r *fakeRepo) ListRecent(ctx context.Context, owner string, limit int) ([]domain.AnalysisSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	var out []domain.AnalysisSummary
	for _, rec := range r.saved {
		if rec.OwnerID == owner {
			out = append(out, domain.AnalysisSummary{ID: rec.ID, Platform: rec.Platform, AppID: rec.AppID,
				AppTitle: rec.AppInfo.Title, Statistics: rec.Statistics, CreatedAt: rec.CreatedAt})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeCache stores JSON like the real caches so callers never share memory with it.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

// ---- helpers ----

var day = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func reviews(n int, text string, score int) []domain.Review {
	out := make([]domain.Review, n)
	for i := range out {
		out[i] = domain.Review{ID: fmt.Sprintf("r%d", i), Text: text, Score: score, Date: day}
	}
	return out
}
