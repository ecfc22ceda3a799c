package sources

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"reviewpulse/internal/domain"
)

/********** alias registries (single source of truth) **********/

// Store payloads differ per platform and per scraper version; every accepted
// spelling of a field lives here. App Store RSS wraps scalars as {"label": ...},
// which lookupStr unwraps.
var reviewAliases = map[string][]string{
	"id":       {"id", "reviewId", "review_id"},
	"user":     {"userName", "author.name", "author", "user.name"},
	"title":    {"title", "review_title"},
	"text":     {"text", "content", "body", "comment", "review"},
	"score":    {"score", "rating", "im:rating"},
	"date":     {"date", "at", "updated", "updatedAt", "created_at"},
	"version":  {"version", "reviewCreatedVersion", "appVersion", "im:version"},
	"thumbsUp": {"thumbsUp", "thumbsUpCount"},
	"reply":    {"replyText", "reply.text", "replyContent"},
}

var appAliases = map[string][]string{
	"title":       {"title", "trackName", "name"},
	"description": {"summary", "description"},
	"developer":   {"developer", "artistName", "sellerName"},
	"icon":        {"icon", "artworkUrl512", "artworkUrl100", "artworkUrl60"},
	"score":       {"score", "averageUserRating"},
	"ratings":     {"ratings", "userRatingCount"},
	"reviews":     {"reviews", "userRatingCountForCurrentVersion"},
	"version":     {"version", "currentVersion"},
	"price":       {"priceText", "formattedPrice", "price"},
	"genre":       {"genre", "primaryGenreName"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// unlabel turns {"label": x} into x.
func unlabel(v any) any {
	if obj, ok := v.(map[string]any); ok {
		if l, ok := obj["label"]; ok {
			return l
		}
	}
	return v
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if s, ok := unlabel(lookupAny(m, path)).(string); ok {
		return s
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "4,5").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := unlabel(lookupAny(m, k)).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstInt64Flexible: int64 from several paths (float64/int/string).
func firstInt64Flexible(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := unlabel(lookupAny(m, k)).(type) {
		case float64:
			x := int64(v)
			return &x
		case int:
			x := int64(v)
			return &x
		case int64:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate accepts ISO strings and epoch seconds or millis.
func parseDate(v any) (time.Time, bool) {
	switch t := unlabel(v).(type) {
	case string:
		s := strings.TrimSpace(t)
		for _, l := range dateLayouts {
			if ts, err := time.Parse(l, s); err == nil {
				return ts.UTC(), true
			}
		}
	case float64:
		if t <= 0 {
			return time.Time{}, false
		}
		if t > 1e12 {
			return time.UnixMilli(int64(t)).UTC(), true
		}
		return time.Unix(int64(t), 0).UTC(), true
	}
	return time.Time{}, false
}

/********** list shapes **********/

// decodeList accepts a bare JSON list, a single object, or an object wrapping
// the list under one of wrapKeys.
func decodeList(raw json.RawMessage, wrapKeys ...string) ([]map[string]any, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, nil
	}
	switch s[0] {
	case '[':
		var out []map[string]any
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return out, nil
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("decode object: %w", err)
		}
		for _, k := range wrapKeys {
			inner, ok := obj[k]
			if !ok {
				continue
			}
			b, err := json.Marshal(inner)
			if err != nil {
				return nil, err
			}
			return decodeList(b)
		}
		if len(wrapKeys) > 0 {
			return nil, fmt.Errorf("object has none of %v", wrapKeys)
		}
		return []map[string]any{obj}, nil
	}
	return nil, fmt.Errorf("unexpected payload starting with %q", s[0])
}

/********** review mapper **********/

type mapOpts struct {
	defaultUser string
	now         time.Time
}

// mapReview normalizes one upstream review. ok is false when there is no usable text.
func mapReview(m map[string]any, o mapOpts) (domain.Review, bool) {
	text := firstNonEmptyAlias(m, reviewAliases, "text")
	if text == "" {
		return domain.Review{}, false
	}

	r := domain.Review{
		ID:        firstNonEmptyAlias(m, reviewAliases, "id"),
		UserName:  firstNonEmptyAlias(m, reviewAliases, "user"),
		Title:     firstNonEmptyAlias(m, reviewAliases, "title"),
		Text:      text,
		Version:   firstNonEmptyAlias(m, reviewAliases, "version"),
		ReplyText: firstNonEmptyAlias(m, reviewAliases, "reply"),
		Date:      o.now,
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.UserName == "" {
		r.UserName = o.defaultUser
	}
	if f := getFloatFlexible(m, reviewAliases["score"]...); f != nil {
		r.Score = clampScore(*f)
	}
	if n := firstInt64Flexible(m, reviewAliases["thumbsUp"]...); n != nil && *n > 0 {
		r.ThumbsUp = int(*n)
	}
	for _, p := range reviewAliases["date"] {
		if ts, ok := parseDate(lookupAny(m, p)); ok {
			r.Date = ts
			break
		}
	}
	return r, true
}

func clampScore(f float64) int {
	n := int(f)
	if float64(n) != f || n < 1 || n > 5 {
		return 0
	}
	return n
}

// mapReviews drops entries without text and de-duplicates ids within the batch.
func mapReviews(items []map[string]any, o mapOpts) []domain.Review {
	out := make([]domain.Review, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		r, ok := mapReview(it, o)
		if !ok {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			r.ID = uuid.NewString()
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

/********** app mapper **********/

func mapApp(m map[string]any) domain.AppInfo {
	a := domain.AppInfo{
		Title:          firstNonEmptyAlias(m, appAliases, "title"),
		Description:    firstNonEmptyAlias(m, appAliases, "description"),
		Developer:      firstNonEmptyAlias(m, appAliases, "developer"),
		Icon:           firstNonEmptyAlias(m, appAliases, "icon"),
		CurrentVersion: firstNonEmptyAlias(m, appAliases, "version"),
		Price:          firstNonEmptyAlias(m, appAliases, "price"),
		Genre:          firstNonEmptyAlias(m, appAliases, "genre"),
	}
	if f := getFloatFlexible(m, appAliases["score"]...); f != nil {
		a.Score = *f
	}
	if n := firstInt64Flexible(m, appAliases["ratings"]...); n != nil {
		a.Ratings = *n
	}
	if n := firstInt64Flexible(m, appAliases["reviews"]...); n != nil {
		a.Reviews = *n
	}
	if a.Price == "" {
		if f := getFloatFlexible(m, "price"); f != nil {
			a.Price = strconv.FormatFloat(*f, 'f', -1, 64)
		}
	}
	return a
}
