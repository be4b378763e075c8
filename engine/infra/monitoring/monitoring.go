package monitoring

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/karmachain/feedback-engine/pkg/logger"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "karmachain"

// Config controls the metrics endpoint.
type Config struct {
	Enabled bool
	Path    string
}

func DefaultConfig() *Config {
	return &Config{Enabled: true, Path: "/metrics"}
}

// Service encapsulates metrics wiring: a Prometheus-backed otel meter plus
// the scrape handler.
type Service struct {
	meter       metric.Meter
	provider    *sdkmetric.MeterProvider
	registry    *prom.Registry
	config      *Config
	initialized bool
}

func newDisabledService(cfg *Config) *Service {
	return &Service{
		config: cfg,
		meter:  noop.NewMeterProvider().Meter(meterName),
	}
}

// NewService creates a monitoring service with a Prometheus exporter. When
// disabled, a no-op meter is returned so instrumented code needs no guards.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	log := logger.FromContext(ctx)
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if !cfg.Enabled {
		log.Debug("Monitoring disabled, using no-op meter")
		return newDisabledService(cfg), nil
	}
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	service := &Service{
		meter:       provider.Meter(meterName),
		provider:    provider,
		registry:    registry,
		config:      cfg,
		initialized: true,
	}
	log.Info("Monitoring service initialized", "path", cfg.Path)
	return service, nil
}

// Meter returns the OpenTelemetry meter for custom instrumentation.
func (s *Service) Meter() metric.Meter {
	return s.meter
}

// Path returns the configured scrape path.
func (s *Service) Path() string {
	if s.config == nil || s.config.Path == "" {
		return "/metrics"
	}
	return s.config.Path
}

// Handler returns the Prometheus scrape handler as a Gin handler.
func (s *Service) Handler() gin.HandlerFunc {
	if !s.initialized {
		return func(c *gin.Context) {
			c.String(404, "monitoring disabled")
		}
	}
	h := promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// Shutdown flushes the meter provider.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.provider == nil {
		return nil
	}
	return s.provider.Shutdown(ctx)
}
