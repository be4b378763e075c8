package signal

import (
	"context"
	"fmt"
	"time"

	monitoringmetrics "github.com/karmachain/feedback-engine/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	labelUnknownValue   = "unknown"
	outcomeSuccessValue = "success"
	outcomeErrorValue   = "error"
)

// Metrics provides instrumentation for state normalization.
type Metrics struct {
	meter             metric.Meter
	normalizedTotal   metric.Int64Counter
	ledgerFailedTotal metric.Int64Counter
	durationHistogram metric.Float64Histogram
}

// NewMetrics initializes normalization metrics using the provided meter.
func NewMetrics(_ context.Context, meter metric.Meter) (*Metrics, error) {
	m := &Metrics{meter: meter}
	if err := m.init(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) init() error {
	if m.meter == nil {
		return nil
	}
	var err error
	m.normalizedTotal, err = m.meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem("normalizer", "states_total"),
		metric.WithDescription("Total states normalized by module and outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create normalizer states counter: %w", err)
	}
	m.ledgerFailedTotal, err = m.meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem("normalizer", "ledger_failures_total"),
		metric.WithDescription("Total karma ledger write failures"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create normalizer ledger failures counter: %w", err)
	}
	m.durationHistogram, err = m.meter.Float64Histogram(
		monitoringmetrics.MetricNameWithSubsystem("normalizer", "duration_seconds"),
		metric.WithDescription("State normalization duration including the ledger write"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(.001, .005, .01, .025, .05, .1, .25, .5, 1),
	)
	if err != nil {
		return fmt.Errorf("failed to create normalizer duration histogram: %w", err)
	}
	return nil
}

// ObserveNormalize records one normalization attempt partitioned by module
// and outcome. Nil receivers are tolerated so instrumentation stays optional.
func (m *Metrics) ObserveNormalize(ctx context.Context, module string, d time.Duration, ok bool) {
	if m == nil {
		return
	}
	if module == "" {
		module = labelUnknownValue
	}
	outcome := outcomeSuccessValue
	if !ok {
		outcome = outcomeErrorValue
		if m.ledgerFailedTotal != nil {
			m.ledgerFailedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("module", module)))
		}
	}
	attrs := metric.WithAttributes(
		attribute.String("module", module),
		attribute.String("outcome", outcome),
	)
	if m.normalizedTotal != nil {
		m.normalizedTotal.Add(ctx, 1, attrs)
	}
	if m.durationHistogram != nil {
		m.durationHistogram.Record(ctx, d.Seconds(), attrs)
	}
}
