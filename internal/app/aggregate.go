package app

import (
	"sort"

	"reviewpulse/internal/domain"
)

const otherLabel = "Other"

// Aggregate folds categorized reviews into statistics, category counts, a star
// histogram and a per-day sentiment trend. It is a single pass with no side effects.
func Aggregate(rs []domain.CategorizedReview) domain.Aggregate {
	out := domain.Aggregate{
		Categories: domain.CategoryCounts{},
		Ratings:    domain.RatingHistogram{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		Trend:      []domain.TrendPoint{},
	}
	days := map[string]*domain.TrendPoint{}

	for _, r := range rs {
		out.Statistics.Total++
		bucket := bucketOf(r.Sentiment)
		switch bucket {
		case domain.SentimentPositive:
			out.Statistics.Positive++
		case domain.SentimentNegative:
			out.Statistics.Negative++
		default:
			out.Statistics.Neutral++
		}
		if r.Sentiment == domain.SentimentMixed {
			out.Statistics.Mixed++
		}
		if r.ClassificationFailed {
			out.Statistics.Failed++
		}

		labels := r.Categories
		if len(labels) == 0 {
			labels = []string{r.MainCategory}
		}
		for _, l := range labels {
			if l == "" {
				l = otherLabel
			}
			out.Categories[l]++
		}

		if r.Score >= 1 && r.Score <= 5 {
			out.Ratings[r.Score]++
		} else {
			out.Unrated++
		}

		if !r.Date.IsZero() {
			d := r.Date.UTC().Format("2006-01-02")
			p, ok := days[d]
			if !ok {
				p = &domain.TrendPoint{Date: d}
				days[d] = p
			}
			switch bucket {
			case domain.SentimentPositive:
				p.Positive++
			case domain.SentimentNegative:
				p.Negative++
			default:
				p.Neutral++
			}
		}
	}

	for _, p := range days {
		out.Trend = append(out.Trend, *p)
	}
	sort.Slice(out.Trend, func(i, j int) bool { return out.Trend[i].Date < out.Trend[j].Date })
	return out
}

// bucketOf maps a sentiment onto the three reported buckets; mixed counts as neutral.
func bucketOf(s domain.Sentiment) domain.Sentiment {
	switch s {
	case domain.SentimentPositive, domain.SentimentNegative:
		return s
	}
	return domain.SentimentNeutral
}

// Percent is n/total as a percentage with one decimal, 0 when total is 0.
func Percent(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	v := float64(n) * 1000 / float64(total)
	return float64(int64(v+0.5)) / 10
}
