// Package metrics holds the prometheus collectors of the dashboard and knows
// how to persist their values across restarts.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "bird_eye"
)

var (
	BirdRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bird",
			Name:      "runs_total",
			Help:      "The total number of bird CLI invocations by outcome",
		},
		[]string{"outcome"},
	)
	BirdRecoveries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bird",
		Name:      "query_id_recoveries_total",
		Help:      "The total number of stale query id refreshes",
	})
	FallbackFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tweets",
			Name:      "fallback_fetches_total",
			Help:      "The total number of retries at the fallback count by outcome",
		},
		[]string{"outcome"},
	)
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "The total number of cache lookups by cache and result",
		},
		[]string{"cache", "result"},
	)
	LLMCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "The total number of LLM requests by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	PriceFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "fetches_total",
			Help:      "The total number of market data requests by source and outcome",
		},
		[]string{"source", "outcome"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "The total number of handled HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)
	BotCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telegram",
			Name:      "commands_total",
			Help:      "The total number of processed bot commands by command and outcome",
		},
		[]string{"command", "outcome"},
	)
)

// persisted maps the stored metric name to its collector
var persisted = map[string]prometheus.Collector{
	"bird_runs":        BirdRuns,
	"bird_recoveries":  BirdRecoveries,
	"tweets_fallbacks": FallbackFetches,
	"cache_lookups":    CacheLookups,
	"llm_calls":        LLMCalls,
	"price_fetches":    PriceFetches,
	"http_requests":    HTTPRequests,
	"bot_commands":     BotCommands,
}

func init() {
	for _, c := range persisted {
		prometheus.MustRegister(c)
	}
}

// Outcome is a label helper for ok/error style counters
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// CacheResult counts a hit or a miss on the named cache
func CacheResult(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}
