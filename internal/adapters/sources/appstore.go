package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"reviewpulse/internal/adapters/httpjson"
	"reviewpulse/internal/adapters/observability"
	"reviewpulse/internal/domain"
)

const sourceAppStore = "app-store"

// AppStore reads the iTunes lookup API for metadata and the customer-reviews
// RSS feed for reviews: JSON first, Atom XML second, synthetic last when allowed.
type AppStore struct {
	hc   *httpjson.Client
	base string
	opts Options
}

func NewAppStore(hc *httpjson.Client, baseURL string, opts Options) *AppStore {
	return &AppStore{hc: hc, base: strings.TrimRight(baseURL, "/"), opts: opts.withDefaults()}
}

func (a *AppStore) Platform() domain.Platform { return domain.PlatformApple }

func (a *AppStore) Fetch(ctx context.Context, appID string, loc domain.Locale) (domain.FetchResult, error) {
	id, err := ParseAppID(domain.PlatformApple, appID)
	if err != nil {
		return domain.FetchResult{}, err
	}
	loc = withLocale(loc)

	app, err := a.lookup(ctx, id, loc)
	if err != nil {
		return domain.FetchResult{}, err
	}

	mo := mapOpts{defaultUser: a.opts.DefaultUser, now: a.opts.Now().UTC()}

	reviews, perr := a.fromJSON(ctx, id, loc, mo)
	if len(reviews) > 0 {
		observability.ObserveSource(sourceAppStore, "primary")
		return domain.FetchResult{App: app, Reviews: reviews, Strategy: "primary"}, nil
	}
	if perr != nil {
		log.Warn().Err(perr).Str("app_id", id).Msg("app store json feed failed; trying atom feed")
	}

	reviews, serr := a.fromAtom(ctx, id, loc, mo)
	if len(reviews) > 0 {
		observability.ObserveSource(sourceAppStore, "secondary")
		return domain.FetchResult{App: app, Reviews: reviews, Strategy: "secondary"}, nil
	}
	if serr != nil {
		log.Warn().Err(serr).Str("app_id", id).Msg("app store atom feed failed")
	}

	if a.opts.AllowSynthetic {
		observability.ObserveSource(sourceAppStore, "synthetic")
		return domain.FetchResult{
			App:      app,
			Reviews:  Sample(id, a.opts.Count, mo.now),
			Strategy: "synthetic",
			Warning:  "no live reviews were available; results are based on synthetic sample reviews",
		}, nil
	}

	last := serr
	if last == nil {
		last = perr
	}
	if last == nil {
		return domain.FetchResult{}, &domain.FetchFailedError{Source: sourceAppStore, Message: "no reviews returned"}
	}
	return domain.FetchResult{}, fetchFailed(sourceAppStore, last)
}

func (a *AppStore) lookup(ctx context.Context, id string, loc domain.Locale) (domain.AppInfo, error) {
	q := url.Values{}
	q.Set("id", id)
	q.Set("country", loc.Country)
	q.Set("entity", "software")

	var res struct {
		ResultCount int              `json:"resultCount"`
		Results     []map[string]any `json:"results"`
	}
	if err := a.hc.GetJSON(ctx, a.base+"/lookup?"+q.Encode(), "lookup", &res); err != nil {
		return domain.AppInfo{}, fetchFailed(sourceAppStore, err)
	}
	if len(res.Results) == 0 {
		return domain.AppInfo{}, &domain.FetchFailedError{Source: sourceAppStore, Status: 404, Message: "app not found"}
	}
	return mapApp(res.Results[0]), nil
}

func (a *AppStore) feedURL(id string, loc domain.Locale, format string) string {
	return fmt.Sprintf("%s/%s/rss/customerreviews/id=%s/sortBy=mostRecent/%s",
		a.base, url.PathEscape(loc.Country), id, format)
}

func (a *AppStore) fromJSON(ctx context.Context, id string, loc domain.Locale, mo mapOpts) ([]domain.Review, error) {
	var doc struct {
		Feed struct {
			Entry json.RawMessage `json:"entry"`
		} `json:"feed"`
	}
	if err := a.hc.GetJSON(ctx, a.feedURL(id, loc, "json"), "rss_json", &doc); err != nil {
		return nil, err
	}
	// a single review arrives as an object, several as a list
	entries, err := decodeList(doc.Feed.Entry)
	if err != nil {
		return nil, err
	}
	return mapReviews(entries, mo), nil
}

func (a *AppStore) fromAtom(ctx context.Context, id string, loc domain.Locale, mo mapOpts) ([]domain.Review, error) {
	b, err := a.hc.GetBytes(ctx, a.feedURL(id, loc, "xml"), "rss_xml", "application/atom+xml")
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("parse atom feed: %w", err)
	}
	items := make([]map[string]any, 0, len(feed.Items))
	for _, it := range feed.Items {
		items = append(items, atomItem(it))
	}
	return mapReviews(items, mo), nil
}

// atomItem reshapes a feed item into the generic map form mapReview understands.
func atomItem(it *gofeed.Item) map[string]any {
	m := map[string]any{
		"id":    it.GUID,
		"title": it.Title,
		"text":  plainText(firstNonBlank(it.Content, it.Description)),
	}
	if it.Author != nil {
		m["userName"] = it.Author.Name
	} else if len(it.Authors) > 0 && it.Authors[0] != nil {
		m["userName"] = it.Authors[0].Name
	}
	if it.UpdatedParsed != nil {
		m["date"] = it.UpdatedParsed.UTC().Format("2006-01-02T15:04:05Z07:00")
	} else if it.PublishedParsed != nil {
		m["date"] = it.PublishedParsed.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	if im, ok := it.Extensions["im"]; ok {
		if v := im["rating"]; len(v) > 0 {
			m["score"] = v[0].Value
		}
		if v := im["version"]; len(v) > 0 {
			m["version"] = v[0].Value
		}
	}
	return m
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// plainText strips markup from html content blocks.
func plainText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}
