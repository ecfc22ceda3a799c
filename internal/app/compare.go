package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"reviewpulse/internal/domain"
)

type CompareRequest struct {
	Platform    domain.Platform
	MainAppID   string
	Competitors []string
	Locale      domain.Locale
}

type AppAnalysis struct {
	AppID          string                 `json:"appId"`
	AppName        string                 `json:"appName"`
	Main           bool                   `json:"main"`
	Statistics     domain.Statistics      `json:"statistics"`
	Categories     domain.CategoryCounts  `json:"categories"`
	Ratings        domain.RatingHistogram `json:"ratings"`
	Trend          []domain.TrendPoint    `json:"trend"`
	SentimentScore float64                `json:"sentimentScore"` // mean per-review score
	Warnings       []string               `json:"warnings,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

type CompareResult struct {
	Analyses []AppAnalysis `json:"analyses"`
}

const maxCompetitors = 5

// CompareService analyzes a main app next to its competitors without persisting anything.
type CompareService struct {
	analysis *AnalysisService
	workers  int
}

func NewCompareService(a *AnalysisService, workers int) *CompareService {
	if workers <= 0 {
		workers = 1
	}
	return &CompareService{analysis: a, workers: workers}
}

// Compare keeps input order in the result. The main app failing fails the call;
// a competitor failing only marks its own entry.
func (s *CompareService) Compare(ctx context.Context, req CompareRequest) (CompareResult, error) {
	if !req.Platform.Valid() {
		return CompareResult{}, domain.Invalid("platform", "must be google or apple")
	}
	if req.MainAppID == "" {
		return CompareResult{}, domain.Invalid("mainAppId", "required")
	}
	if len(req.Competitors) == 0 {
		return CompareResult{}, domain.Invalid("competitors", "at least one competitor is required")
	}
	if len(req.Competitors) > maxCompetitors {
		return CompareResult{}, domain.Invalid("competitors", fmt.Sprintf("at most %d competitors", maxCompetitors))
	}

	ids := append([]string{req.MainAppID}, req.Competitors...)
	out := make([]AppAnalysis, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, id := range ids {
		g.Go(func() error {
			rec, err := s.analysis.analyze(gctx, AnalyzeRequest{Platform: req.Platform, AppID: id, Locale: req.Locale}, false)
			if err != nil {
				errs[i] = err
				out[i] = AppAnalysis{AppID: id, Main: i == 0, Error: err.Error()}
				if i == 0 {
					return err // cancels the competitors
				}
				return nil
			}
			out[i] = summarize(rec, i == 0)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CompareResult{}, fmt.Errorf("main app %s: %w", req.MainAppID, errs[0])
	}
	return CompareResult{Analyses: out}, nil
}

func summarize(rec domain.AnalysisRecord, main bool) AppAnalysis {
	a := AppAnalysis{
		AppID:      rec.AppID,
		AppName:    rec.AppInfo.Title,
		Main:       main,
		Statistics: rec.Statistics,
		Categories: rec.Categories,
		Ratings:    rec.Ratings,
		Trend:      rec.Trend,
		Warnings:   rec.Warnings,
	}
	if n := len(rec.Reviews); n > 0 {
		sum := 0
		for _, r := range rec.Reviews {
			sum += r.SentimentScore
		}
		a.SentimentScore = float64(int64(float64(sum)*10/float64(n)+0.5)) / 10
	}
	return a
}
