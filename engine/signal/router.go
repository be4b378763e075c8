package signal

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/karmachain/feedback-engine/pkg/logger"
)

// Normalizer defines the minimal interface required by the HTTP router.
// It is implemented by Service.
type Normalizer interface {
	Normalize(ctx context.Context, req *NormalizeRequest) (*NormalizedState, error)
	NormalizeBatch(ctx context.Context, reqs []NormalizeRequest) ([]*NormalizedState, error)
}

// Register mounts the normalization endpoints under the provided group.
// Paths: POST /signals/normalize, POST /signals/normalize/batch
func Register(r *gin.RouterGroup, n Normalizer) {
	r.POST("/signals/normalize", func(c *gin.Context) {
		var req NormalizeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "detail": err.Error()})
			return
		}
		state, err := n.Normalize(c.Request.Context(), &req)
		if err != nil {
			respondNormalizeError(c, err)
			return
		}
		c.JSON(http.StatusOK, state)
	})

	r.POST("/signals/normalize/batch", func(c *gin.Context) {
		var req NormalizeBatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "detail": err.Error()})
			return
		}
		states, err := n.NormalizeBatch(c.Request.Context(), req.States)
		if err != nil {
			respondNormalizeError(c, err)
			return
		}
		c.JSON(http.StatusOK, states)
	})
}

func respondNormalizeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
	default:
		logger.FromContext(c.Request.Context()).Error("State normalization failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
