package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/karmachain/feedback-engine/pkg/logger"
)

// sourceTag identifies this service in every transmission envelope.
const sourceTag = "karmachain_feedback_engine"

// Bridge forwards behavioral signals to the downstream InsightFlow endpoint
// over the signal transmission protocol. A Bridge is safe for concurrent use:
// its configuration and HTTP client are fixed at construction and each
// forward call carries its own state.
type Bridge struct {
	config  *Config
	client  *resty.Client
	metrics *Metrics
	now     func() time.Time
}

// New builds a Bridge from cfg, filling in defaults for any unset field.
// A nil cfg yields a fully defaulted bridge.
func New(cfg *Config, opts ...Option) *Bridge {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.applyDefaults()
	b := &Bridge{
		config: cfg,
		client: buildHTTPClient(cfg),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Option customizes a Bridge at construction time.
type Option func(*Bridge)

// WithMetrics attaches transmission instrumentation to the bridge.
func WithMetrics(m *Metrics) Option {
	return func(b *Bridge) { b.metrics = m }
}

// WithClock overrides the timestamp source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) { b.now = now }
}

func buildHTTPClient(cfg *Config) *resty.Client {
	return resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

// Enabled reports whether the bridge will attempt deliveries.
func (b *Bridge) Enabled() bool {
	return b.config.Enabled
}

// Endpoint returns the configured downstream receiver URL.
func (b *Bridge) Endpoint() string {
	return b.config.Endpoint
}

// ForwardSignal wraps signal in a transmission envelope and delivers it to
// the configured endpoint, retrying up to the configured attempt budget.
// It never returns an error: the outcome is reported in the result's
// Status field (success, error, or skipped when the bridge is disabled).
func (b *Bridge) ForwardSignal(ctx context.Context, signal map[string]any) *ForwardResult {
	log := logger.FromContext(ctx)
	if !b.config.Enabled {
		return &ForwardResult{
			Status:    StatusSkipped,
			Message:   "bridge disabled",
			Timestamp: b.timestamp(),
		}
	}

	signalID := extractSignalID(signal)
	payload := &TransmissionPayload{
		TransmissionID: uuid.NewString(),
		Source:         sourceTag,
		Signal:         signal,
		Timestamp:      b.timestamp(),
	}

	start := time.Now()
	resp, err := b.sendWithRetry(ctx, payload)
	b.metrics.ObserveForward(ctx, time.Since(start), err == nil)
	if err != nil {
		log.Error("signal transmission failed",
			"signal_id", signalID,
			"transmission_id", payload.TransmissionID,
			"error", err)
		return &ForwardResult{
			Status:         StatusError,
			SignalID:       signalID,
			TransmissionID: payload.TransmissionID,
			Error:          err.Error(),
			Timestamp:      b.timestamp(),
		}
	}

	log.Info("signal transmitted",
		"signal_id", signalID,
		"transmission_id", payload.TransmissionID,
		"attempt", resp.Attempt)
	return &ForwardResult{
		Status:         StatusSuccess,
		SignalID:       signalID,
		TransmissionID: payload.TransmissionID,
		Response:       resp,
		Timestamp:      b.timestamp(),
	}
}

// BatchForwardSignals forwards each signal independently and in order.
// One failed delivery does not stop the rest of the batch.
func (b *Bridge) BatchForwardSignals(ctx context.Context, signals []map[string]any) []*ForwardResult {
	results := make([]*ForwardResult, 0, len(signals))
	for _, signal := range signals {
		results = append(results, b.ForwardSignal(ctx, signal))
	}
	return results
}

// HealthCheck probes the endpoint with a single health_check transmission.
// It performs exactly one attempt regardless of the retry budget.
func (b *Bridge) HealthCheck(ctx context.Context) *HealthResult {
	payload := &TransmissionPayload{
		TransmissionID: uuid.NewString(),
		Source:         sourceTag,
		Type:           "health_check",
		Timestamp:      b.timestamp(),
	}

	resp, err := b.client.R().SetBody(payload).Post(b.config.Endpoint)
	result := &HealthResult{
		Endpoint:  b.config.Endpoint,
		Timestamp: b.timestamp(),
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		b.metrics.ObserveHealthCheck(ctx, false)
		return result
	}

	result.StatusCode = resp.StatusCode()
	result.ResponseTime = resp.Time().Seconds()
	if accepted(resp.StatusCode()) {
		result.Status = StatusHealthy
	} else {
		result.Status = StatusUnhealthy
	}
	b.metrics.ObserveHealthCheck(ctx, result.Status == StatusHealthy)
	return result
}

// sendWithRetry posts payload until the endpoint accepts it or the attempt
// budget is exhausted. The envelope, including its transmission ID, is
// reused unchanged across attempts. Once started, the loop runs to
// completion; per-attempt timeouts bound each try.
func (b *Bridge) sendWithRetry(ctx context.Context, payload *TransmissionPayload) (*SendResponse, error) {
	log := logger.FromContext(ctx)
	var lastErr *AttemptError
	for attempt := 1; attempt <= b.config.RetryAttempts; attempt++ {
		if attempt > 1 && b.config.RetryBackoff > 0 {
			time.Sleep(backoffDelay(b.config.RetryBackoff, attempt))
		}
		resp, err := b.client.R().SetBody(payload).Post(b.config.Endpoint)
		if err != nil {
			lastErr = &AttemptError{Attempt: attempt, Err: err}
			log.Warn("transmission attempt failed",
				"transmission_id", payload.TransmissionID,
				"attempt", attempt,
				"error", err)
			continue
		}
		if !accepted(resp.StatusCode()) {
			lastErr = &AttemptError{Attempt: attempt, StatusCode: resp.StatusCode()}
			log.Warn("transmission rejected",
				"transmission_id", payload.TransmissionID,
				"attempt", attempt,
				"status_code", resp.StatusCode())
			continue
		}
		body, err := decodeBody(resp.Body())
		if err != nil {
			lastErr = &AttemptError{Attempt: attempt, StatusCode: resp.StatusCode(), Err: err}
			continue
		}
		return &SendResponse{
			StatusCode: resp.StatusCode(),
			Response:   body,
			Attempt:    attempt,
		}, nil
	}
	return nil, lastErr
}

// accepted reports whether the endpoint acknowledged the transmission.
// Only 200 and 201 count; every other status is a failed attempt.
func accepted(code int) bool {
	return code == 200 || code == 201
}

func backoffDelay(base time.Duration, attempt int) time.Duration {
	delay := base << (attempt - 2)
	if delay > maxBackoff || delay <= 0 {
		return maxBackoff
	}
	return delay
}

func decodeBody(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}

// extractSignalID reads the caller-supplied signal_id when present and
// non-empty; otherwise it mints a fresh one so the delivery stays traceable.
func extractSignalID(signal map[string]any) string {
	if id, ok := signal["signal_id"].(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

func (b *Bridge) timestamp() string {
	return b.now().UTC().Format(time.RFC3339Nano)
}
