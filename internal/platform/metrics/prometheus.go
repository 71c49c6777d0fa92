package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomePartial = "partial"
)

// MetricsManager holds the service metrics on a private registry.
// A nil *MetricsManager is valid and records nothing.
type MetricsManager struct {
	Registry                 *prometheus.Registry
	OperationsTotal          *prometheus.CounterVec
	OperationLatency         *prometheus.HistogramVec
	ReplicationFailuresTotal *prometheus.CounterVec
	OrphansTotal             *prometheus.CounterVec
	RepairsTotal             *prometheus.CounterVec
}

// NewMetricsManager registers the metrics under the serviceName namespace.
func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()
	serviceName = namespace(serviceName)

	operationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "operations_total",
		Help:      "Writer, aggregate and reconcile operations by outcome.",
	}, []string{"operation", "outcome"})
	operationLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: serviceName,
		Name:      "operation_latency_seconds",
		Help:      "Latency of writer, aggregate and reconcile operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	replicationFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "replication_failures_total",
		Help:      "Multi-step writes that stopped part way, by failed step.",
	}, []string{"operation", "step"})
	orphans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "orphan_records_total",
		Help:      "Broken cross-references observed, by where they were found.",
	}, []string{"source"})
	repairs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "repairs_total",
		Help:      "Reconciler repairs by classification.",
	}, []string{"classification"})

	registry.MustRegister(
		operationsTotal,
		operationLatency,
		replicationFailures,
		orphans,
		repairs,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &MetricsManager{
		Registry:                 registry,
		OperationsTotal:          operationsTotal,
		OperationLatency:         operationLatency,
		ReplicationFailuresTotal: replicationFailures,
		OrphansTotal:             orphans,
		RepairsTotal:             repairs,
	}
}

// RegisterActiveStreams exposes a gauge backed by fn, typically the
// subscription manager's open stream count.
func (m *MetricsManager) RegisterActiveStreams(serviceName string, fn func() float64) {
	if m == nil {
		return
	}
	m.Registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace(serviceName),
		Name:      "active_streams",
		Help:      "Open subscription streams.",
	}, fn))
}

// namespace turns a service name into a valid metric prefix.
func namespace(serviceName string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(serviceName)
}

// ObserveOperation records one finished operation.
func (m *MetricsManager) ObserveOperation(operation, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationLatency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *MetricsManager) ReplicationFailure(operation, step string) {
	if m == nil {
		return
	}
	m.ReplicationFailuresTotal.WithLabelValues(operation, step).Inc()
}

func (m *MetricsManager) Orphan(source string) {
	if m == nil {
		return
	}
	m.OrphansTotal.WithLabelValues(source).Inc()
}

func (m *MetricsManager) Repair(classification string) {
	if m == nil {
		return
	}
	m.RepairsTotal.WithLabelValues(classification).Inc()
}

// StartMetricsServer serves /metrics on port until ctx is done.
// An empty port disables the server.
func StartMetricsServer(ctx context.Context, port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
