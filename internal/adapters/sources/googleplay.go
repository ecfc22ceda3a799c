package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"reviewpulse/internal/adapters/httpjson"
	"reviewpulse/internal/adapters/observability"
	"reviewpulse/internal/domain"
)

const (
	sourceGooglePlay   = "google-play"
	defaultUserName    = "Anonim Kullanıcı"
	defaultReviewCount = 50
)

type Options struct {
	Count          int    // reviews requested per fetch
	DefaultUser    string // placeholder when upstream omits the author
	AllowSynthetic bool   // App Store only
	Now            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Count <= 0 {
		o.Count = defaultReviewCount
	}
	if o.DefaultUser == "" {
		o.DefaultUser = defaultUserName
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func withLocale(loc domain.Locale) domain.Locale {
	if loc.Lang == "" {
		loc.Lang = "tr"
	}
	if loc.Country == "" {
		loc.Country = "tr"
	}
	return loc
}

// GooglePlay reads reviews through a google-play-scraper sidecar; app metadata
// falls back to the public details page when the sidecar cannot describe the app.
type GooglePlay struct {
	hc         *httpjson.Client
	scraperURL string
	webURL     string
	opts       Options
}

func NewGooglePlay(hc *httpjson.Client, scraperURL, webURL string, opts Options) *GooglePlay {
	return &GooglePlay{
		hc:         hc,
		scraperURL: strings.TrimRight(scraperURL, "/"),
		webURL:     strings.TrimRight(webURL, "/"),
		opts:       opts.withDefaults(),
	}
}

func (g *GooglePlay) Platform() domain.Platform { return domain.PlatformGoogle }

func (g *GooglePlay) Fetch(ctx context.Context, appID string, loc domain.Locale) (domain.FetchResult, error) {
	id, err := ParseAppID(domain.PlatformGoogle, appID)
	if err != nil {
		return domain.FetchResult{}, err
	}
	loc = withLocale(loc)

	app, err := g.appInfo(ctx, id, loc)
	if err != nil {
		return domain.FetchResult{}, err
	}

	q := url.Values{}
	q.Set("lang", loc.Lang)
	q.Set("country", loc.Country)
	q.Set("sort", "newest")
	q.Set("num", fmt.Sprint(g.opts.Count))
	u := fmt.Sprintf("%s/apps/%s/reviews?%s", g.scraperURL, url.PathEscape(id), q.Encode())

	var raw json.RawMessage
	if err := g.hc.GetJSON(ctx, u, "reviews", &raw); err != nil {
		return domain.FetchResult{}, fetchFailed(sourceGooglePlay, err)
	}
	items, err := decodeList(raw, "data")
	if err != nil {
		return domain.FetchResult{}, &domain.FetchFailedError{Source: sourceGooglePlay, Message: err.Error()}
	}
	reviews := mapReviews(items, mapOpts{defaultUser: g.opts.DefaultUser, now: g.opts.Now().UTC()})
	if len(reviews) == 0 {
		return domain.FetchResult{}, &domain.FetchFailedError{Source: sourceGooglePlay, Message: "no reviews returned"}
	}

	observability.ObserveSource(sourceGooglePlay, "primary")
	return domain.FetchResult{App: app, Reviews: reviews, Strategy: "primary"}, nil
}

func (g *GooglePlay) appInfo(ctx context.Context, appID string, loc domain.Locale) (domain.AppInfo, error) {
	q := url.Values{}
	q.Set("lang", loc.Lang)
	q.Set("country", loc.Country)
	u := fmt.Sprintf("%s/apps/%s?%s", g.scraperURL, url.PathEscape(appID), q.Encode())

	var m map[string]any
	err := g.hc.GetJSON(ctx, u, "app", &m)
	if err == nil {
		if app := mapApp(m); app.Title != "" {
			return app, nil
		}
	}
	if g.webURL == "" {
		return domain.AppInfo{}, fetchFailed(sourceGooglePlay, err)
	}

	log.Warn().Err(err).Str("app_id", appID).Msg("sidecar metadata unavailable; reading details page")
	app, herr := g.appInfoFromPage(ctx, appID, loc)
	if herr != nil {
		if err == nil {
			err = herr
		}
		return domain.AppInfo{}, fetchFailed(sourceGooglePlay, err)
	}
	return app, nil
}

func (g *GooglePlay) appInfoFromPage(ctx context.Context, appID string, loc domain.Locale) (domain.AppInfo, error) {
	q := url.Values{}
	q.Set("id", appID)
	q.Set("hl", loc.Lang)
	q.Set("gl", loc.Country)
	b, err := g.hc.GetBytes(ctx, g.webURL+"/store/apps/details?"+q.Encode(), "details_page", "text/html")
	if err != nil {
		return domain.AppInfo{}, err
	}
	return parseDetailsPage(b)
}

// parseDetailsPage reads OpenGraph and standard meta tags from a store page.
func parseDetailsPage(b []byte) (domain.AppInfo, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return domain.AppInfo{}, err
	}
	meta := func(sel string) string {
		v, _ := doc.Find(sel).First().Attr("content")
		return strings.TrimSpace(v)
	}
	app := domain.AppInfo{
		Title:       meta(`meta[property="og:title"]`),
		Description: meta(`meta[name="description"]`),
		Icon:        meta(`meta[property="og:image"]`),
	}
	if app.Description == "" {
		app.Description = meta(`meta[property="og:description"]`)
	}
	if app.Title == "" {
		app.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	// og:title carries a " - Apps on Google Play" style suffix
	if i := strings.LastIndex(app.Title, " - "); i > 0 {
		app.Title = strings.TrimSpace(app.Title[:i])
	}
	if app.Title == "" {
		return domain.AppInfo{}, fmt.Errorf("details page has no title")
	}
	return app, nil
}

func fetchFailed(source string, err error) error {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &domain.FetchFailedError{Source: source, Status: httpjson.StatusOf(err), Message: msg}
}
