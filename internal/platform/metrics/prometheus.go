package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"store-directory/internal/platform/logger"
)

// MetricsManager holds the engine's Prometheus metrics.
type MetricsManager struct {
	Registry           *prometheus.Registry
	StoresCreatedTotal prometheus.Counter
	StoresUpdatedTotal prometheus.Counter
	HeartsToggledTotal prometheus.Counter
	SearchesTotal      *prometheus.CounterVec   // by kind: text, proximity
	OperationErrors    *prometheus.CounterVec   // by operation and error type
	OperationLatency   *prometheus.HistogramVec // by operation
}

// NewMetricsManager initializes and registers the engine metrics on a private
// registry, so embedding callers do not collide with the default one.
func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	storesCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stores_created_total",
		Help:      "Total number of store listings created.",
	})
	storesUpdated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stores_updated_total",
		Help:      "Total number of store listings updated.",
	})
	heartsToggled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hearts_toggled_total",
		Help:      "Total number of favorite toggles.",
	})
	searches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "searches_total",
		Help:      "Total number of searches by kind.",
	}, []string{"kind"})
	operationErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operation_errors_total",
		Help:      "Total number of engine operation errors by operation and error type.",
	}, []string{"operation", "error_type"})
	operationLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_latency_seconds",
		Help:      "Latency of engine operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	registry.MustRegister(
		storesCreated,
		storesUpdated,
		heartsToggled,
		searches,
		operationErrors,
		operationLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &MetricsManager{
		Registry:           registry,
		StoresCreatedTotal: storesCreated,
		StoresUpdatedTotal: storesUpdated,
		HeartsToggledTotal: heartsToggled,
		SearchesTotal:      searches,
		OperationErrors:    operationErrors,
		OperationLatency:   operationLatency,
	}
}

// StartMetricsServer exposes the registry on /metrics. A blank port disables
// the server, for callers that scrape the registry themselves.
func StartMetricsServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	return server.ListenAndServe()
}
