package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "reviewpulse"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "analysis_runs_total", Help: "Completed or aborted analysis runs."},
		[]string{"platform", "outcome"}, // outcome: ok|partial|fetch_failed|unavailable|error
	)
	ClassifierChunks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "sentiment_chunks_total", Help: "Sentiment batches submitted."},
		[]string{"result"}, // ok|failed
	)
	ClassifierDocs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "sentiment_documents_total", Help: "Reviews classified."},
		[]string{"result"}, // ok|fallback
	)
	SummaryResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "insight_summaries_total", Help: "Insight summaries produced."},
		[]string{"result"}, // generated|fallback
	)
	SourceStrategies = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "source_fetches_total", Help: "Review fetches by strategy."},
		[]string{"source", "strategy"},
	)
)

// Serve exposes reg on a dedicated listener when addr is set.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency, CacheEvents,
		PipelineRuns, ClassifierChunks, ClassifierDocs, SummaryResults, SourceStrategies)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObservePipeline(platform, outcome string) {
	PipelineRuns.WithLabelValues(platform, outcome).Inc()
}

func ObserveChunk(ok bool, docs, fallbacks int) {
	if ok {
		ClassifierChunks.WithLabelValues("ok").Inc()
	} else {
		ClassifierChunks.WithLabelValues("failed").Inc()
	}
	ClassifierDocs.WithLabelValues("ok").Add(float64(docs - fallbacks))
	ClassifierDocs.WithLabelValues("fallback").Add(float64(fallbacks))
}

func ObserveSummary(result string) { SummaryResults.WithLabelValues(result).Inc() }

func ObserveSource(source, strategy string) {
	SourceStrategies.WithLabelValues(source, strategy).Inc()
}

func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}
