package bridge

import "time"

const (
	defaultEndpoint      = "http://localhost:8001/api/v1/insightflow/receive"
	defaultRetryAttempts = 3
	defaultTimeout       = 10 * time.Second

	// maxBackoff caps the exponential backoff between delivery attempts.
	maxBackoff = 30 * time.Second
)

// Config holds the immutable STP bridge settings. The bridge is configured
// once at construction; concurrent forwards share no mutable state.
type Config struct {
	// Endpoint is the downstream InsightFlow receiver URL.
	Endpoint string
	// RetryAttempts bounds deliveries per forward call. Minimum 1.
	RetryAttempts int
	// Timeout applies to every individual HTTP attempt.
	Timeout time.Duration
	// Enabled short-circuits forwarding entirely when false.
	Enabled bool
	// RetryBackoff is the base delay doubled before each re-attempt.
	// Zero keeps the original fast-fail behavior with no delay.
	RetryBackoff time.Duration
}

// DefaultConfig returns the bridge defaults: 3 attempts, 10s timeout,
// forwarding enabled, no backoff.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:      defaultEndpoint,
		RetryAttempts: defaultRetryAttempts,
		Timeout:       defaultTimeout,
		Enabled:       true,
	}
}

func (c *Config) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = defaultEndpoint
	}
	if c.RetryAttempts < 1 {
		c.RetryAttempts = defaultRetryAttempts
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RetryBackoff < 0 {
		c.RetryBackoff = 0
	}
}
