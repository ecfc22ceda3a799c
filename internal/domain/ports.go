package domain

import "context"

type Locale struct {
	Lang    string // tr
	Country string // tr
}

type FetchResult struct {
	App      AppInfo
	Reviews  []Review
	Strategy string // primary|secondary|synthetic
	Warning  string // non-empty whenever the result is degraded
}

type ReviewSource interface {
	Platform() Platform
	Fetch(ctx context.Context, appID string, loc Locale) (FetchResult, error)
}

type SentimentDocument struct {
	ID       string
	Text     string
	Language string
}

// SentimentResult is one per-document answer; Err is set when the service flagged that document.
type SentimentResult struct {
	ID         string
	Sentiment  Sentiment
	Confidence ConfidenceScores
	Err        string
}

type SentimentService interface {
	// AnalyzeSentiment scores one batch. A returned error means the whole batch failed.
	AnalyzeSentiment(ctx context.Context, docs []SentimentDocument) ([]SentimentResult, error)
}

type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type AnalysisRepository interface {
	// Write paths
	Save(ctx context.Context, rec AnalysisRecord) error
	Prune(ctx context.Context, ownerID string, keep int) (int64, error)

	// Read paths
	Get(ctx context.Context, id string) (AnalysisRecord, error)
	ListRecent(ctx context.Context, ownerID string, limit int) ([]AnalysisSummary, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
