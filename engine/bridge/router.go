package bridge

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Forwarder is the transmission surface the HTTP layer depends on.
type Forwarder interface {
	ForwardSignal(ctx context.Context, signal map[string]any) *ForwardResult
	BatchForwardSignals(ctx context.Context, signals []map[string]any) []*ForwardResult
	HealthCheck(ctx context.Context) *HealthResult
}

// BatchForwardRequest is the body for POST /stp/forward/batch.
type BatchForwardRequest struct {
	Signals []map[string]any `json:"signals" binding:"required"`
}

// Register mounts the STP routes on r. Forward endpoints always answer
// 200: delivery failures are reported in the response body, not the HTTP
// status, so callers distinguish "the API worked" from "the transmission
// failed".
func Register(r *gin.RouterGroup, f Forwarder) {
	stp := r.Group("/stp")
	stp.POST("/forward", forwardHandler(f))
	stp.POST("/forward/batch", batchForwardHandler(f))
	stp.GET("/health", healthHandler(f))
}

func forwardHandler(f Forwarder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var signal map[string]any
		if err := c.ShouldBindJSON(&signal); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "bad_request",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, f.ForwardSignal(c.Request.Context(), signal))
	}
}

func batchForwardHandler(f Forwarder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BatchForwardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "bad_request",
				"details": err.Error(),
			})
			return
		}
		results := f.BatchForwardSignals(c.Request.Context(), req.Signals)
		c.JSON(http.StatusOK, gin.H{
			"status":  "completed",
			"count":   len(results),
			"results": results,
		})
	}
}

func healthHandler(f Forwarder) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := f.HealthCheck(c.Request.Context())
		status := http.StatusOK
		if result.Status != StatusHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, result)
	}
}
