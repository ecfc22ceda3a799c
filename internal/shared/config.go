package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"reviewpulse/internal/domain"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MetricsAddr    string
	RequestTimeout time.Duration

	MySQLDSN  string
	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration
	LRUSize   int

	AzureEndpoint     string
	AzureKey          string
	AzureRPS          int
	SentimentLanguage string

	GeminiKey        string
	GeminiModel      string
	InsightLanguage  string
	InsightBaseDelay time.Duration
	InsightMaxChars  int

	GPlayScraperURL string
	GPlayWebURL     string
	ITunesBaseURL   string
	StoreLocale     domain.Locale
	ReviewCount     int
	SourceRPS       int
	AllowSynthetic  bool

	RetentionPerOwner int
	TaxonomyPath      string
	CompareWorkers    int
	AnalyzerWorkers   int
	AnalyzerApps      []AppRef
}

// AppRef is one entry of ANALYZER_APPS.
type AppRef struct {
	Platform domain.Platform
	AppID    string
}

// Load reads the environment after applying a local .env file, if present.
// Variables already set in the environment win over .env values.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg(".env not loaded")
	}

	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		RequestTimeout: time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 120)) * time.Second,

		MySQLDSN:  env("MYSQL_DSN", ""),
		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		LRUSize:   atoi("LRU_SIZE", 1024),

		AzureEndpoint:     env("AZURE_TEXT_ANALYTICS_ENDPOINT", ""),
		AzureKey:          env("AZURE_TEXT_ANALYTICS_KEY", ""),
		AzureRPS:          atoi("AZURE_RPS", 5),
		SentimentLanguage: env("SENTIMENT_LANGUAGE", "tr"),

		GeminiKey:        env("GEMINI_API_KEY", ""),
		GeminiModel:      env("GEMINI_MODEL", "gemini-1.5-flash"),
		InsightLanguage:  env("INSIGHT_LANGUAGE", "tr"),
		InsightBaseDelay: time.Duration(atoi("INSIGHT_BASE_DELAY_MS", 1000)) * time.Millisecond,
		InsightMaxChars:  atoi("INSIGHT_MAX_CHARS", 1200),

		GPlayScraperURL: env("GPLAY_SCRAPER_URL", "http://localhost:3000"),
		GPlayWebURL:     env("GPLAY_WEB_URL", "https://play.google.com"),
		ITunesBaseURL:   env("ITUNES_BASE_URL", "https://itunes.apple.com"),
		StoreLocale:     domain.Locale{Lang: env("STORE_LANG", "tr"), Country: env("STORE_COUNTRY", "tr")},
		ReviewCount:     atoi("REVIEW_COUNT", 50),
		SourceRPS:       atoi("SOURCE_RPS", 5),
		AllowSynthetic:  boolean("ALLOW_SYNTHETIC_REVIEWS", false),

		RetentionPerOwner: atoi("RETENTION_PER_OWNER", 20),
		TaxonomyPath:      env("TAXONOMY_PATH", ""),
		CompareWorkers:    atoi("COMPARE_WORKERS", 3),
		AnalyzerWorkers:   atoi("ANALYZER_WORKERS", 4),
	}

	apps, err := ParseApps(env("ANALYZER_APPS", ""))
	if err != nil {
		log.Warn().Err(err).Msg("ANALYZER_APPS ignored")
	}
	c.AnalyzerApps = apps

	if c.AzureEndpoint == "" || c.AzureKey == "" {
		log.Warn().Msg("AZURE_TEXT_ANALYTICS_ENDPOINT or AZURE_TEXT_ANALYTICS_KEY is empty")
	}
	if c.GeminiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is empty; insights use the template")
	}
	return c
}

// ParseApps reads a comma separated list of platform:appId pairs,
// e.g. "google:com.whatsapp,apple:310633997".
func ParseApps(s string) ([]AppRef, error) {
	var out []AppRef
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, id, ok := strings.Cut(part, ":")
		if !ok || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("%q: want platform:appId", part)
		}
		ref := AppRef{Platform: domain.Platform(strings.ToLower(strings.TrimSpace(p))), AppID: strings.TrimSpace(id)}
		if !ref.Platform.Valid() {
			return nil, fmt.Errorf("%q: unknown platform %q", part, p)
		}
		out = append(out, ref)
	}
	return out, nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

func boolean(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
