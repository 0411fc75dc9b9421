package pipeline

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

// RunMetrics tracks metrics for one run on a private registry
type RunMetrics struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	recordsRead    *prometheus.CounterVec
	fixes          *prometheus.CounterVec
	unresolved     *prometheus.CounterVec
	sources        *prometheus.CounterVec
	errors         *prometheus.CounterVec
	publishedRows  prometheus.Gauge
	publishedDelta prometheus.Gauge
	geocodeMisses  prometheus.Gauge
	fallbackCalls  prometheus.Gauge
	runDuration    prometheus.Gauge
}

// NewRunMetrics creates the run collectors
func NewRunMetrics(logger *zap.Logger) *RunMetrics {
	m := &RunMetrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),

		recordsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linelist_records_read_total",
			Help: "Records read from each source after case expansion",
		}, []string{"source"}),

		fixes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linelist_fixes_total",
			Help: "Cell corrections applied per source",
		}, []string{"source"}),

		unresolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linelist_unresolved_violations_total",
			Help: "Violations no rule could fix per source",
		}, []string{"source"}),

		sources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linelist_sources_total",
			Help: "Sources processed by outcome",
		}, []string{"status"}),

		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linelist_errors_total",
			Help: "Run errors by category",
		}, []string{"category"}),

		publishedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linelist_published_rows",
			Help: "Rows in the published dataset",
		}),

		publishedDelta: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linelist_published_delta_rows",
			Help: "Row count change against the previous snapshot",
		}),

		geocodeMisses: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linelist_geocode_misses",
			Help: "Distinct locations that could not be geocoded",
		}),

		fallbackCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linelist_geocode_fallback_calls",
			Help: "Calls made to the fallback geocoder",
		}),

		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linelist_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
	}

	m.registry.MustRegister(
		m.recordsRead, m.fixes, m.unresolved, m.sources, m.errors,
		m.publishedRows, m.publishedDelta, m.geocodeMisses, m.fallbackCalls, m.runDuration,
	)
	return m
}

// Registry exposes the private registry
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordSource records metrics for a completed source
func (m *RunMetrics) RecordSource(result *SourceResult) {
	m.recordsRead.WithLabelValues(result.Source).Add(float64(result.RecordsExpanded))
	m.fixes.WithLabelValues(result.Source).Add(float64(result.Fixes))
	m.unresolved.WithLabelValues(result.Source).Add(float64(result.Unresolved))

	status := "success"
	if !result.Success {
		status = "failed"
	}
	m.sources.WithLabelValues(status).Inc()

	if m.logger != nil {
		m.logger.Info("Source processed",
			zap.String("source", result.Source),
			zap.Bool("success", result.Success),
			zap.Int("rowsRead", result.RowsRead),
			zap.Int("records", result.RecordsExpanded),
			zap.Int("clean", result.CleanRecords),
			zap.Int("rejected", result.RejectedRecords),
			zap.Int("fixes", result.Fixes),
			zap.Duration("duration", result.Duration))
	}
}

// RecordError counts an error by category
func (m *RunMetrics) RecordError(category ErrorCategory) {
	m.errors.WithLabelValues(category.String()).Inc()
}

// RecordRun records the totals of a finished run
func (m *RunMetrics) RecordRun(summary *RunSummary) {
	m.publishedRows.Set(float64(summary.PublishedRows))
	m.publishedDelta.Set(float64(summary.Guard.Delta))
	m.geocodeMisses.Set(float64(summary.GeocodeMisses))
	m.fallbackCalls.Set(float64(summary.FallbackCalls))
	m.runDuration.Set(summary.Duration.Seconds())

	if m.logger != nil {
		m.logger.Info("Run completed",
			zap.String("runId", summary.RunID),
			zap.Int("sources", len(summary.Sources)),
			zap.Int("failedSources", len(summary.FailedSources)),
			zap.Int("records", summary.TotalRecords),
			zap.Bool("published", summary.Published),
			zap.Int("geocoded", summary.Geocoded),
			zap.Int("geocodeMisses", summary.GeocodeMisses),
			zap.Duration("duration", summary.Duration))
	}
}

// Push sends the registry to a Prometheus Pushgateway
func (m *RunMetrics) Push(ctx context.Context, url, runID string) error {
	err := push.New(url, "linelist").
		Gatherer(m.registry).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}
