// Package bootstrap builds the process-wide dependency graph shared by the binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"reviewpulse/internal/adapters/azure"
	"reviewpulse/internal/adapters/gemini"
	"reviewpulse/internal/adapters/httpjson"
	"reviewpulse/internal/adapters/memcache"
	redisad "reviewpulse/internal/adapters/redis"
	"reviewpulse/internal/adapters/sources"
	"reviewpulse/internal/app"
	"reviewpulse/internal/domain"
	"reviewpulse/internal/shared"
	mysqlrepo "reviewpulse/internal/storage/mysql"
	"reviewpulse/internal/tagging"
)

type Services struct {
	Analysis *app.AnalysisService
	History  *app.HistoryService
	Compare  *app.CompareService
}

// Build wires adapters into services. The returned close func releases pools
// and clients; call it once the binary is done.
func Build(ctx context.Context, cfg shared.Config) (*Services, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Services, func(), error) {
		closeAll()
		return nil, func() {}, err
	}

	tax, err := tagging.Load(cfg.TaxonomyPath)
	if err != nil {
		return fail(err)
	}
	log.Info().Str("version", tax.Version).Int("categories", len(tax.Categories)).Msg("taxonomy loaded")

	var repo domain.AnalysisRepository
	if cfg.MySQLDSN != "" {
		db, err := OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = db.Close() })
		repo = mysqlrepo.New(db)
		log.Info().Msg("database connection ok")
	} else {
		log.Warn().Msg("MYSQL_DSN is empty; analyses are not persisted")
	}

	cache, err := newCache(ctx, cfg, &closers)
	if err != nil {
		return fail(err)
	}

	sentiment, err := azure.New(cfg.AzureEndpoint, cfg.AzureKey, cfg.AzureRPS)
	if err != nil {
		return fail(fmt.Errorf("sentiment service: %w", err))
	}

	var gen domain.TextGenerator
	if cfg.GeminiKey != "" {
		g, err := gemini.New(ctx, gemini.Config{APIKey: cfg.GeminiKey, Model: cfg.GeminiModel})
		if err != nil {
			return fail(err)
		}
		gen = g
	}

	opts := sources.Options{Count: cfg.ReviewCount, AllowSynthetic: cfg.AllowSynthetic}
	gplay := sources.NewGooglePlay(httpjson.New("google_play", cfg.SourceRPS, 20*time.Second),
		cfg.GPlayScraperURL, cfg.GPlayWebURL, opts)
	appstore := sources.NewAppStore(httpjson.New("app_store", cfg.SourceRPS, 20*time.Second),
		cfg.ITunesBaseURL, opts)

	tagger := tagging.New(tax)
	analysis := app.NewAnalysisService(app.AnalysisDeps{
		Sources:    []domain.ReviewSource{gplay, appstore},
		Classifier: app.NewClassifier(sentiment, cfg.SentimentLanguage),
		Tagger:     tagger,
		Summarizer: app.NewSummarizer(gen, app.SummarizerConfig{
			Language:  cfg.InsightLanguage,
			BaseDelay: cfg.InsightBaseDelay,
			MaxChars:  cfg.InsightMaxChars,
		}, tax.Labels()),
		Repo:      repo,
		Cache:     cache,
		Retention: cfg.RetentionPerOwner,
	})

	svc := &Services{
		Analysis: analysis,
		Compare:  app.NewCompareService(analysis, cfg.CompareWorkers),
	}
	if repo != nil {
		svc.History = app.NewHistoryService(repo, cache, cfg.CacheTTL)
	}
	return svc, closeAll, nil
}

// OpenMySQL forces parseTime and UTC on the DSN, since records carry DATETIME columns.
func OpenMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse MYSQL_DSN: %w", err)
	}
	mc.ParseTime = true
	mc.Loc = time.UTC

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// newCache prefers Redis; without REDIS_ADDR it falls back to an in-process LRU.
func newCache(ctx context.Context, cfg shared.Config, closers *[]func()) (domain.Cache, error) {
	if cfg.RedisAddr == "" {
		log.Info().Int("size", cfg.LRUSize).Msg("REDIS_ADDR is empty; using in-process cache")
		return memcache.New(cfg.LRUSize)
	}
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.Ping(pctx); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	*closers = append(*closers, func() { _ = rc.Close() })
	log.Info().Str("addr", cfg.RedisAddr).Msg("redis connection ok")
	return rc, nil
}
