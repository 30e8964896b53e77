package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// query cache counters
	CounterCacheHits         *prometheus.CounterVec
	CounterCacheMisses       *prometheus.CounterVec
	CounterFetches           *prometheus.CounterVec
	CounterFetchErrors       *prometheus.CounterVec
	CounterDiscardedResults  *prometheus.CounterVec
	CounterInvalidations     prometheus.Counter
	CounterEvictions         prometheus.Counter
	CounterMalformedRecords  *prometheus.CounterVec
	CounterCalculationsAdded *prometheus.CounterVec

	// dev server counters
	CounterRequests            *prometheus.CounterVec
	CounterHandleRequestPanic  prometheus.Counter
	CounterRateLimitedRequests prometheus.Counter

	// gauges
	GaugeCacheEntries prometheus.Gauge
	GaugeRequests     prometheus.Gauge
	GaugeLifeSignal   prometheus.Gauge

	// histograms
	HistogramFetchDuration   *prometheus.HistogramVec
	HistogramRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("fitcalc", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("fitcalc", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterCacheHits := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "query_cache_hits",
		Help:      "The total number of query cache reads served from a cached entry",
	}, []string{"op", "freshness"})
	counterCacheMisses := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "query_cache_misses",
		Help:      "The total number of query cache reads that had to wait for a fetch",
	}, []string{"op"})
	counterFetches := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "query_fetches",
		Help:      "The total number of fetches issued by the query cache",
	}, []string{"op", "kind"})
	counterFetchErrors := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "query_fetch_errors",
		Help:      "The total number of failed query cache fetches",
	}, []string{"op"})
	counterDiscardedResults := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "query_discarded_results",
		Help:      "The total number of fetch results not written to the cache",
	}, []string{"op", "reason"})
	counterInvalidations := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "query_invalidated_entries",
		Help:      "The total number of cache entries removed by invalidation",
	})
	counterEvictions := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "query_evicted_entries",
		Help:      "The total number of cache entries evicted after the retention window",
	})
	counterMalformedRecords := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "malformed_records",
		Help:      "The total number of calculation records dropped as malformed",
	}, []string{"type"})
	counterCalculationsAdded := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "calculations_added",
		Help:      "The total number of calculation records persisted",
	}, []string{"type"})

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterRateLimitedRequests := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_requests",
		Help:      "The total number of rate limited requests",
	})

	gaugeCacheEntries := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "query_cache_entries",
		Help:      "Current number of entries held by the query cache",
	})
	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})

	histogramFetchDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "query_fetch_duration_seconds",
		Help:      "Histogram of query cache fetch durations in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"op"})
	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})

	return &Manager{
		CounterCacheHits:           counterCacheHits,
		CounterCacheMisses:         counterCacheMisses,
		CounterFetches:             counterFetches,
		CounterFetchErrors:         counterFetchErrors,
		CounterDiscardedResults:    counterDiscardedResults,
		CounterInvalidations:       counterInvalidations,
		CounterEvictions:           counterEvictions,
		CounterMalformedRecords:    counterMalformedRecords,
		CounterCalculationsAdded:   counterCalculationsAdded,
		CounterRequests:            counterRequests,
		CounterHandleRequestPanic:  counterHandleRequestPanic,
		CounterRateLimitedRequests: counterRateLimitedRequests,
		GaugeCacheEntries:          gaugeCacheEntries,
		GaugeRequests:              gaugeRequests,
		GaugeLifeSignal:            gaugeLifeSignal,
		HistogramFetchDuration:     histogramFetchDuration,
		HistogramRequestDuration:   histogramRequestDuration,
	}
}
