package app

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"reviewpulse/internal/domain"
)

const (
	MaxHistory = 50

	historyLoadTimeout = 10 * time.Second
)

func historyKey(owner string) string { return "history:" + owner }

func analysisKey(id string) string { return "analysis:" + id }

// HistoryService serves stored analyses through the cache.
type HistoryService struct {
	repo     domain.AnalysisRepository
	cache    domain.Cache
	cacheTTL time.Duration
	loads    singleflight.Group // collapses concurrent misses for one owner
}

func NewHistoryService(r domain.AnalysisRepository, c domain.Cache, ttl time.Duration) *HistoryService {
	return &HistoryService{repo: r, cache: c, cacheTTL: ttl}
}

// ListRecent returns the owner's newest analyses first. The full window of
// MaxHistory is cached once per owner and sliced per request.
func (s *HistoryService) ListRecent(ctx context.Context, owner string, limit int) ([]domain.AnalysisSummary, error) {
	if limit <= 0 || limit > MaxHistory {
		limit = MaxHistory
	}
	key := historyKey(owner)
	var all []domain.AnalysisSummary
	if ok, _ := s.cache.Get(ctx, key, &all); !ok {
		// The shared load must outlive any single caller; each caller still
		// stops waiting when its own ctx ends.
		ch := s.loads.DoChan(key, func() (any, error) {
			lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyLoadTimeout)
			defer cancel()
			rs, err := s.repo.ListRecent(lctx, owner, MaxHistory)
			if err != nil {
				return nil, err
			}
			// copy slice to avoid aliasing the repo's backing array
			cp := append(make([]domain.AnalysisSummary, 0, len(rs)), rs...)
			_ = s.cache.Set(lctx, key, cp, int(s.cacheTTL.Seconds()))
			return cp, nil
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			all = res.Val.([]domain.AnalysisSummary)
		}
	}
	if len(all) > limit {
		all = all[:limit]
	}
	if all == nil {
		all = []domain.AnalysisSummary{}
	}
	return all, nil
}

// Get returns one record. A non-empty owner must match the record's owner.
func (s *HistoryService) Get(ctx context.Context, owner, id string) (domain.AnalysisRecord, error) {
	if id == "" {
		return domain.AnalysisRecord{}, domain.Invalid("id", "required")
	}
	key := analysisKey(id)
	var rec domain.AnalysisRecord
	if ok, _ := s.cache.Get(ctx, key, &rec); !ok {
		r, err := s.repo.Get(ctx, id)
		if err != nil {
			return domain.AnalysisRecord{}, err
		}
		rec = r
		_ = s.cache.Set(ctx, key, rec, int(s.cacheTTL.Seconds()))
	}
	if owner != "" && rec.OwnerID != owner {
		return domain.AnalysisRecord{}, domain.ErrNotFound
	}
	return rec, nil
}
