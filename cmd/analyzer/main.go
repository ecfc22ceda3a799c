package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"reviewpulse/internal/adapters/observability"
	"reviewpulse/internal/adapters/sources"
	"reviewpulse/internal/app"
	"reviewpulse/internal/bootstrap"
	"reviewpulse/internal/shared"
)

// owner recorded on analyses produced by the batch run
const batchOwner = "analyzer"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "analyzer")

	if len(cfg.AnalyzerApps) == 0 {
		log.Fatal().Msg("ANALYZER_APPS is empty; expected e.g. google:com.whatsapp,apple:310633997")
	}
	log.Info().
		Int("apps", len(cfg.AnalyzerApps)).
		Int("workers", cfg.AnalyzerWorkers).
		Int("reviews", cfg.ReviewCount).
		Msg("analyzer starting")

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	svc, closeDeps, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("wiring failed")
	}
	defer closeDeps()

	workers := cfg.AnalyzerWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed atomic.Int32

	for _, ref := range cfg.AnalyzerApps {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("stopping: context canceled")
			break
		}

		wg.Add(1)
		go func(ref shared.AppRef) {
			defer wg.Done()
			defer sem.Release(1)

			id, err := sources.ParseAppID(ref.Platform, ref.AppID)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("platform", string(ref.Platform)).Str("app", ref.AppID).Err(err).Msg("invalid app id")
				return
			}
			rec, err := svc.Analysis.Run(ctx, app.AnalyzeRequest{
				OwnerID:  batchOwner,
				Platform: ref.Platform,
				AppID:    id,
				Locale:   cfg.StoreLocale,
			})
			if err != nil {
				failed.Add(1)
				log.Warn().Str("platform", string(ref.Platform)).Str("app", ref.AppID).Err(err).Msg("analysis failed")
				return
			}
			log.Info().
				Str("platform", string(ref.Platform)).
				Str("app", ref.AppID).
				Str("id", rec.ID).
				Int("reviews", rec.Statistics.Total).
				Strs("warnings", rec.Warnings).
				Msg("analysis ok")
		}(ref)
	}

	wg.Wait()
	log.Info().Int32("failed", failed.Load()).Msg("analysis batch completed")
	if failed.Load() > 0 {
		closeDeps()
		os.Exit(1)
	}
}
