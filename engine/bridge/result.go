package bridge

import "fmt"

// Forward outcome values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"

	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// TransmissionPayload is the wire envelope posted to the STP endpoint.
// The transmission ID is generated once per forward call and stays stable
// across every retry of that call.
type TransmissionPayload struct {
	TransmissionID string         `json:"transmission_id"`
	Source         string         `json:"source"`
	Signal         map[string]any `json:"signal,omitempty"`
	Type           string         `json:"type,omitempty"`
	Timestamp      string         `json:"timestamp"`
}

// SendResponse captures a successful delivery: the accepting status code,
// the decoded endpoint response body, and which attempt succeeded (1-based).
type SendResponse struct {
	StatusCode int            `json:"status_code"`
	Response   map[string]any `json:"response"`
	Attempt    int            `json:"attempt"`
}

// ForwardResult is the structured outcome of a single forward call.
// Forwarding never returns an error to the caller; failures are reported
// through Status and Error.
type ForwardResult struct {
	Status         string        `json:"status"`
	SignalID       string        `json:"signal_id,omitempty"`
	TransmissionID string        `json:"transmission_id,omitempty"`
	Response       *SendResponse `json:"response,omitempty"`
	Message        string        `json:"message,omitempty"`
	Error          string        `json:"error,omitempty"`
	Timestamp      string        `json:"timestamp"`
}

// HealthResult reports the outcome of a single health-check probe.
type HealthResult struct {
	Status       string  `json:"status"`
	Endpoint     string  `json:"endpoint"`
	StatusCode   int     `json:"status_code,omitempty"`
	ResponseTime float64 `json:"response_time_seconds,omitempty"`
	Error        string  `json:"error,omitempty"`
	Timestamp    string  `json:"timestamp"`
}

// AttemptError records the most recent failed delivery attempt. StatusCode
// is zero when the failure happened below HTTP (connect error, timeout).
type AttemptError struct {
	Attempt    int
	StatusCode int
	Err        error
}

func (e *AttemptError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("attempt %d: endpoint returned status %d", e.Attempt, e.StatusCode)
	}
	return fmt.Sprintf("attempt %d: %v", e.Attempt, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}
