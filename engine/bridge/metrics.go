package bridge

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/karmachain/feedback-engine/engine/infra/monitoring/metrics"
	"github.com/karmachain/feedback-engine/pkg/logger"
)

// Metrics instruments signal transmissions. A nil *Metrics is valid and
// records nothing, so the bridge works without a meter wired in.
type Metrics struct {
	forwardsTotal     metric.Int64Counter
	forwardDuration   metric.Float64Histogram
	healthChecksTotal metric.Int64Counter
}

func NewMetrics(ctx context.Context, meter metric.Meter) *Metrics {
	if meter == nil {
		return nil
	}
	log := logger.FromContext(ctx)
	m := &Metrics{}
	var err error
	m.forwardsTotal, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("stp", "forwards_total"),
		metric.WithDescription("Signal forward calls by outcome"),
	)
	if err != nil {
		log.Error("failed to create forwards counter", "error", err)
	}
	m.forwardDuration, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("stp", "forward_duration_seconds"),
		metric.WithDescription("End-to-end forward duration including retries"),
		metric.WithUnit("s"),
	)
	if err != nil {
		log.Error("failed to create forward duration histogram", "error", err)
	}
	m.healthChecksTotal, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("stp", "health_checks_total"),
		metric.WithDescription("Endpoint health probes by outcome"),
	)
	if err != nil {
		log.Error("failed to create health checks counter", "error", err)
	}
	return m
}

func (m *Metrics) ObserveForward(ctx context.Context, d time.Duration, ok bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("success", ok))
	if m.forwardsTotal != nil {
		m.forwardsTotal.Add(ctx, 1, attrs)
	}
	if m.forwardDuration != nil {
		m.forwardDuration.Record(ctx, d.Seconds(), attrs)
	}
}

func (m *Metrics) ObserveHealthCheck(ctx context.Context, healthy bool) {
	if m == nil {
		return
	}
	if m.healthChecksTotal != nil {
		m.healthChecksTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("healthy", healthy)))
	}
}
