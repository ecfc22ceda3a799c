package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"reviewpulse/internal/adapters/observability"
	"reviewpulse/internal/domain"
	"reviewpulse/internal/tagging"
)

type AnalyzeRequest struct {
	OwnerID  string
	Platform domain.Platform
	AppID    string
	AppName  string // optional display override
	Locale   domain.Locale
}

type AnalysisDeps struct {
	Sources    []domain.ReviewSource
	Classifier *Classifier
	Tagger     *tagging.Tagger
	Summarizer *Summarizer
	Repo       domain.AnalysisRepository // nil disables persistence
	Cache      domain.Cache              // nil disables history invalidation
	Retention  int                       // records kept per owner, 0 keeps all
}

// AnalysisService runs the review pipeline for one app:
// fetch, classify, tag, aggregate, summarize, persist.
type AnalysisService struct {
	sources    map[domain.Platform]domain.ReviewSource
	classifier *Classifier
	tagger     *tagging.Tagger
	summarizer *Summarizer
	repo       domain.AnalysisRepository
	cache      domain.Cache
	retention  int
	now        func() time.Time
	newID      func() string
}

func NewAnalysisService(d AnalysisDeps) *AnalysisService {
	s := &AnalysisService{
		sources:    make(map[domain.Platform]domain.ReviewSource, len(d.Sources)),
		classifier: d.Classifier,
		tagger:     d.Tagger,
		summarizer: d.Summarizer,
		repo:       d.Repo,
		cache:      d.Cache,
		retention:  d.Retention,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	if s.tagger == nil {
		s.tagger = tagging.New(nil)
	}
	for _, src := range d.Sources {
		s.sources[src.Platform()] = src
	}
	return s
}

// Run analyzes one app and stores the resulting record. Degraded runs succeed
// with Warnings set; only fetch failure, total classification failure,
// invalid input or a storage error abort.
func (s *AnalysisService) Run(ctx context.Context, req AnalyzeRequest) (domain.AnalysisRecord, error) {
	rec, err := s.analyze(ctx, req, true)
	if err != nil {
		return domain.AnalysisRecord{}, err
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, rec); err != nil {
			observability.ObservePipeline(string(req.Platform), "error")
			return domain.AnalysisRecord{}, err
		}
		if s.retention > 0 && rec.OwnerID != "" {
			if n, err := s.repo.Prune(ctx, rec.OwnerID, s.retention); err != nil {
				log.Warn().Err(err).Str("owner", rec.OwnerID).Msg("retention prune failed")
			} else if n > 0 {
				log.Debug().Int64("removed", n).Str("owner", rec.OwnerID).Msg("retention prune")
			}
		}
		if s.cache != nil {
			_ = s.cache.Del(ctx, historyKey(rec.OwnerID))
		}
	}

	outcome := "ok"
	if len(rec.Warnings) > 0 {
		outcome = "partial"
	}
	observability.ObservePipeline(string(req.Platform), outcome)
	log.Info().
		Str("id", rec.ID).
		Str("platform", string(rec.Platform)).
		Str("app_id", rec.AppID).
		Int("reviews", rec.Statistics.Total).
		Int("failed", rec.Statistics.Failed).
		Int("warnings", len(rec.Warnings)).
		Msg("analysis completed")
	return rec, nil
}

func (s *AnalysisService) analyze(ctx context.Context, req AnalyzeRequest, withInsight bool) (domain.AnalysisRecord, error) {
	if !req.Platform.Valid() {
		return domain.AnalysisRecord{}, domain.Invalid("platform", "must be google or apple")
	}
	if strings.TrimSpace(req.AppID) == "" {
		return domain.AnalysisRecord{}, domain.Invalid("appId", "required")
	}
	src, ok := s.sources[req.Platform]
	if !ok {
		return domain.AnalysisRecord{}, domain.Invalid("platform", "no source configured for "+string(req.Platform))
	}

	fetched, err := src.Fetch(ctx, req.AppID, req.Locale)
	if err != nil {
		s.observeFailure(req.Platform, err)
		return domain.AnalysisRecord{}, err
	}
	var warnings []string
	if fetched.Warning != "" {
		warnings = append(warnings, fetched.Warning)
	}

	cls, err := s.classifier.Classify(ctx, fetched.Reviews)
	if err != nil {
		s.observeFailure(req.Platform, err)
		return domain.AnalysisRecord{}, err
	}
	if perr := cls.Partial(); perr != nil {
		log.Warn().Err(perr).Str("app_id", req.AppID).Msg("classification degraded")
		warnings = append(warnings, perr.Error())
	}

	tagged := s.tagger.TagAll(cls.Reviews)
	agg := Aggregate(tagged)

	app := fetched.App
	if req.AppName != "" {
		app.Title = req.AppName
	}

	var insight string
	if withInsight && s.summarizer != nil {
		insight = s.summarizer.Summarize(ctx, SummaryInput{AppTitle: app.Title, Aggregate: agg, Reviews: tagged})
	}

	return domain.AnalysisRecord{
		ID:          s.newID(),
		OwnerID:     req.OwnerID,
		Platform:    req.Platform,
		AppID:       req.AppID,
		AppInfo:     app,
		Reviews:     tagged,
		Statistics:  agg.Statistics,
		Categories:  agg.Categories,
		Ratings:     agg.Ratings,
		Trend:       agg.Trend,
		InsightText: insight,
		Warnings:    warnings,
		CreatedAt:   s.now().UTC(),
	}, nil
}

func (s *AnalysisService) observeFailure(p domain.Platform, err error) {
	switch {
	case errors.Is(err, domain.ErrFetchFailed):
		observability.ObservePipeline(string(p), "fetch_failed")
	case errors.Is(err, domain.ErrClassificationUnavailable):
		observability.ObservePipeline(string(p), "unavailable")
	default:
		observability.ObservePipeline(string(p), "error")
	}
}
