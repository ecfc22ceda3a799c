package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"reviewpulse/internal/domain"
)

// titleColumnRunes matches analyses.app_title VARCHAR(512).
const titleColumnRunes = 512

// clipRunes cuts s to at most n characters without splitting a rune.
func clipRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func valJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Save(ctx context.Context, rec domain.AnalysisRecord) error {
	cols := []any{rec.AppInfo, rec.Reviews, rec.Statistics, rec.Categories, rec.Ratings, rec.Trend, rec.Warnings}
	enc := make([]string, len(cols))
	for i, c := range cols {
		s, err := valJSON(c)
		if err != nil {
			return fmt.Errorf("encode analysis %s: %w", rec.ID, err)
		}
		enc[i] = s
	}
	// nil slices encode as "null"; keep the JSON columns well-formed arrays
	if rec.Reviews == nil {
		enc[1] = "[]"
	}
	if rec.Trend == nil {
		enc[5] = "[]"
	}
	if rec.Warnings == nil {
		enc[6] = "[]"
	}

	_, err := r.db.ExecContext(ctx, insertAnalysisSQL,
		rec.ID,
		rec.OwnerID,
		string(rec.Platform),
		rec.AppID,
		clipRunes(rec.AppInfo.Title, titleColumnRunes), // full title stays in app_info
		enc[0], // app_info
		enc[1], // reviews
		enc[2], // statistics
		enc[3], // categories
		enc[4], // ratings
		enc[5], // trend
		rec.InsightText,
		enc[6], // warnings
		rec.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) Get(ctx context.Context, id string) (domain.AnalysisRecord, error) {
	row := r.db.QueryRowContext(ctx, getAnalysisSQL, id)

	var (
		rec                                        domain.AnalysisRecord
		platform                                   string
		appInfo, reviews, stats, cats, rats, trend []byte
		warnings                                   []byte
	)
	err := row.Scan(&rec.ID, &rec.OwnerID, &platform, &rec.AppID, &appInfo, &reviews, &stats,
		&cats, &rats, &trend, &rec.InsightText, &warnings, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AnalysisRecord{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.AnalysisRecord{}, err
	}
	rec.Platform = domain.Platform(platform)
	rec.CreatedAt = rec.CreatedAt.UTC()

	for _, f := range []struct {
		name string
		b    []byte
		dst  any
	}{
		{"app_info", appInfo, &rec.AppInfo},
		{"reviews", reviews, &rec.Reviews},
		{"statistics", stats, &rec.Statistics},
		{"categories", cats, &rec.Categories},
		{"ratings", rats, &rec.Ratings},
		{"trend", trend, &rec.Trend},
		{"warnings", warnings, &rec.Warnings},
	} {
		if len(f.b) == 0 {
			continue
		}
		if err := json.Unmarshal(f.b, f.dst); err != nil {
			return domain.AnalysisRecord{}, fmt.Errorf("decode %s of %s: %w", f.name, id, err)
		}
	}
	return rec, nil
}

func (r *Repo) ListRecent(ctx context.Context, ownerID string, limit int) ([]domain.AnalysisSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listRecentSQL, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.AnalysisSummary, 0, limit)
	for rows.Next() {
		var (
			s        domain.AnalysisSummary
			platform string
			stats    []byte
		)
		if err := rows.Scan(&s.ID, &platform, &s.AppID, &s.AppTitle, &stats, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Platform = domain.Platform(platform)
		s.CreatedAt = s.CreatedAt.UTC()
		if len(stats) > 0 {
			if err := json.Unmarshal(stats, &s.Statistics); err != nil {
				return nil, fmt.Errorf("decode statistics of %s: %w", s.ID, err)
			}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Prune keeps the owner's newest keep records and deletes the rest.
func (r *Repo) Prune(ctx context.Context, ownerID string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, pruneSQL, ownerID, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
