package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingServer captures every transmission envelope it receives and
// answers with a scripted sequence of status codes.
type recordingServer struct {
	mu       sync.Mutex
	payloads []TransmissionPayload
	statuses []int
	calls    atomic.Int64
	server   *httptest.Server
}

func newRecordingServer(t *testing.T, statuses ...int) *recordingServer {
	t.Helper()
	rs := &recordingServer{statuses: statuses}
	rs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := rs.calls.Add(1)
		var payload TransmissionPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			rs.mu.Lock()
			rs.payloads = append(rs.payloads, payload)
			rs.mu.Unlock()
		}
		status := http.StatusOK
		if int(n) <= len(rs.statuses) {
			status = rs.statuses[n-1]
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"received":true}`))
	}))
	t.Cleanup(rs.server.Close)
	return rs
}

func (rs *recordingServer) received() []TransmissionPayload {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]TransmissionPayload, len(rs.payloads))
	copy(out, rs.payloads)
	return out
}

func newTestBridge(endpoint string, mutate ...func(*Config)) *Bridge {
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.Timeout = 2 * time.Second
	for _, m := range mutate {
		m(cfg)
	}
	return New(cfg)
}

func TestForwardSignal(t *testing.T) {
	t.Run("Should skip without any network call when disabled", func(t *testing.T) {
		srv := newRecordingServer(t)
		b := newTestBridge(srv.server.URL, func(c *Config) { c.Enabled = false })
		result := b.ForwardSignal(context.Background(), map[string]any{"signal_id": "sig-1"})
		assert.Equal(t, StatusSkipped, result.Status)
		assert.Empty(t, result.TransmissionID)
		assert.NotEmpty(t, result.Timestamp)
		assert.Equal(t, int64(0), srv.calls.Load())
	})

	t.Run("Should succeed on first attempt when endpoint accepts with 200", func(t *testing.T) {
		srv := newRecordingServer(t, http.StatusOK)
		b := newTestBridge(srv.server.URL)
		result := b.ForwardSignal(context.Background(), map[string]any{"signal_id": "sig-1", "module": "game"})
		require.Equal(t, StatusSuccess, result.Status)
		assert.Equal(t, "sig-1", result.SignalID)
		assert.NotEmpty(t, result.TransmissionID)
		require.NotNil(t, result.Response)
		assert.Equal(t, http.StatusOK, result.Response.StatusCode)
		assert.Equal(t, 1, result.Response.Attempt)
		assert.Equal(t, map[string]any{"received": true}, result.Response.Response)
		assert.Equal(t, int64(1), srv.calls.Load())
	})

	t.Run("Should treat 201 as acceptance", func(t *testing.T) {
		srv := newRecordingServer(t, http.StatusCreated)
		b := newTestBridge(srv.server.URL)
		result := b.ForwardSignal(context.Background(), map[string]any{"signal_id": "sig-1"})
		require.Equal(t, StatusSuccess, result.Status)
		assert.Equal(t, http.StatusCreated, result.Response.StatusCode)
	})

	t.Run("Should retry with a stable transmission ID until acceptance", func(t *testing.T) {
		srv := newRecordingServer(t, http.StatusInternalServerError, http.StatusBadGateway, http.StatusCreated)
		b := newTestBridge(srv.server.URL)
		result := b.ForwardSignal(context.Background(), map[string]any{"signal_id": "sig-1"})
		require.Equal(t, StatusSuccess, result.Status)
		assert.Equal(t, 3, result.Response.Attempt)
		assert.Equal(t, int64(3), srv.calls.Load())

		payloads := srv.received()
		require.Len(t, payloads, 3)
		for _, p := range payloads {
			assert.Equal(t, result.TransmissionID, p.TransmissionID)
			assert.Equal(t, "karmachain_feedback_engine", p.Source)
		}
	})

	t.Run("Should stop after the attempt budget and report the last failure", func(t *testing.T) {
		srv := newRecordingServer(t,
			http.StatusInternalServerError, http.StatusInternalServerError, http.StatusInternalServerError)
		b := newTestBridge(srv.server.URL, func(c *Config) { c.RetryAttempts = 3 })
		result := b.ForwardSignal(context.Background(), map[string]any{"signal_id": "sig-1"})
		assert.Equal(t, StatusError, result.Status)
		assert.Equal(t, "sig-1", result.SignalID)
		assert.NotEmpty(t, result.TransmissionID)
		assert.Nil(t, result.Response)
		assert.Contains(t, result.Error, "attempt 3")
		assert.Contains(t, result.Error, "500")
		assert.Equal(t, int64(3), srv.calls.Load())
	})

	t.Run("Should report transport failures without panicking", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		b := newTestBridge(srv.URL, func(c *Config) { c.RetryAttempts = 2 })
		result := b.ForwardSignal(context.Background(), map[string]any{"signal_id": "sig-1"})
		assert.Equal(t, StatusError, result.Status)
		assert.NotEmpty(t, result.Error)
	})

	t.Run("Should generate a signal ID when the signal has none", func(t *testing.T) {
		srv := newRecordingServer(t, http.StatusOK)
		b := newTestBridge(srv.server.URL)
		result := b.ForwardSignal(context.Background(), map[string]any{"module": "finance"})
		require.Equal(t, StatusSuccess, result.Status)
		assert.NotEmpty(t, result.SignalID)
	})

	t.Run("Should carry the signal unchanged inside the envelope", func(t *testing.T) {
		srv := newRecordingServer(t, http.StatusOK)
		b := newTestBridge(srv.server.URL)
		signal := map[string]any{"signal_id": "sig-9", "feedback_value": 2.4, "module": "gurukul"}
		result := b.ForwardSignal(context.Background(), signal)
		require.Equal(t, StatusSuccess, result.Status)

		payloads := srv.received()
		require.Len(t, payloads, 1)
		assert.Equal(t, "sig-9", payloads[0].Signal["signal_id"])
		assert.Equal(t, 2.4, payloads[0].Signal["feedback_value"])
		assert.Equal(t, "gurukul", payloads[0].Signal["module"])
		assert.NotEmpty(t, payloads[0].Timestamp)
	})

	t.Run("Should issue distinct transmission IDs for concurrent forwards", func(t *testing.T) {
		srv := newRecordingServer(t)
		b := newTestBridge(srv.server.URL)
		const workers = 8
		results := make([]*ForwardResult, workers)
		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = b.ForwardSignal(context.Background(), map[string]any{"signal_id": "sig-1"})
			}()
		}
		wg.Wait()

		seen := make(map[string]bool, workers)
		for _, r := range results {
			require.Equal(t, StatusSuccess, r.Status)
			assert.False(t, seen[r.TransmissionID], "transmission ID reused: %s", r.TransmissionID)
			seen[r.TransmissionID] = true
		}
	})
}

func TestBatchForwardSignals(t *testing.T) {
	t.Run("Should forward every signal and keep batch order", func(t *testing.T) {
		srv := newRecordingServer(t)
		b := newTestBridge(srv.server.URL)
		signals := []map[string]any{
			{"signal_id": "a"},
			{"signal_id": "b"},
			{"signal_id": "c"},
		}
		results := b.BatchForwardSignals(context.Background(), signals)
		require.Len(t, results, 3)
		assert.Equal(t, "a", results[0].SignalID)
		assert.Equal(t, "b", results[1].SignalID)
		assert.Equal(t, "c", results[2].SignalID)
		assert.Equal(t, int64(3), srv.calls.Load())
	})

	t.Run("Should continue past failed deliveries", func(t *testing.T) {
		srv := newRecordingServer(t, http.StatusInternalServerError, http.StatusOK)
		b := newTestBridge(srv.server.URL, func(c *Config) { c.RetryAttempts = 1 })
		results := b.BatchForwardSignals(context.Background(), []map[string]any{
			{"signal_id": "a"},
			{"signal_id": "b"},
		})
		require.Len(t, results, 2)
		assert.Equal(t, StatusError, results[0].Status)
		assert.Equal(t, StatusSuccess, results[1].Status)
	})

	t.Run("Should return an empty result set for an empty batch", func(t *testing.T) {
		b := newTestBridge("http://127.0.0.1:0")
		results := b.BatchForwardSignals(context.Background(), nil)
		assert.Empty(t, results)
	})
}

func TestHealthCheck(t *testing.T) {
	t.Run("Should report healthy on 200 with a single probe", func(t *testing.T) {
		srv := newRecordingServer(t, http.StatusOK)
		b := newTestBridge(srv.server.URL, func(c *Config) { c.RetryAttempts = 5 })
		result := b.HealthCheck(context.Background())
		assert.Equal(t, StatusHealthy, result.Status)
		assert.Equal(t, srv.server.URL, result.Endpoint)
		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.Greater(t, result.ResponseTime, 0.0)
		assert.Equal(t, int64(1), srv.calls.Load())

		payloads := srv.received()
		require.Len(t, payloads, 1)
		assert.Equal(t, "health_check", payloads[0].Type)
		assert.Nil(t, payloads[0].Signal)
	})

	t.Run("Should report unhealthy with the status code on rejection", func(t *testing.T) {
		srv := newRecordingServer(t, http.StatusServiceUnavailable)
		b := newTestBridge(srv.server.URL)
		result := b.HealthCheck(context.Background())
		assert.Equal(t, StatusUnhealthy, result.Status)
		assert.Equal(t, http.StatusServiceUnavailable, result.StatusCode)
		assert.Equal(t, int64(1), srv.calls.Load())
	})

	t.Run("Should report unhealthy with an error when the endpoint is unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		b := newTestBridge(srv.URL)
		result := b.HealthCheck(context.Background())
		assert.Equal(t, StatusUnhealthy, result.Status)
		assert.Zero(t, result.StatusCode)
		assert.NotEmpty(t, result.Error)
	})
}

func TestConfigDefaults(t *testing.T) {
	t.Run("Should fill defaults for a nil config", func(t *testing.T) {
		b := New(nil)
		assert.Equal(t, defaultEndpoint, b.Endpoint())
		assert.True(t, b.Enabled())
		assert.Equal(t, defaultRetryAttempts, b.config.RetryAttempts)
		assert.Equal(t, defaultTimeout, b.config.Timeout)
	})

	t.Run("Should normalize out-of-range values", func(t *testing.T) {
		b := New(&Config{RetryAttempts: -2, Timeout: -time.Second, RetryBackoff: -time.Second, Enabled: true})
		assert.Equal(t, defaultRetryAttempts, b.config.RetryAttempts)
		assert.Equal(t, defaultTimeout, b.config.Timeout)
		assert.Zero(t, b.config.RetryBackoff)
	})
}

func TestBackoffDelay(t *testing.T) {
	t.Run("Should double the base delay per attempt and cap it", func(t *testing.T) {
		base := 100 * time.Millisecond
		assert.Equal(t, 100*time.Millisecond, backoffDelay(base, 2))
		assert.Equal(t, 200*time.Millisecond, backoffDelay(base, 3))
		assert.Equal(t, 400*time.Millisecond, backoffDelay(base, 4))
		assert.Equal(t, maxBackoff, backoffDelay(time.Hour, 2))
	})
}
