package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bankdesk/bankdesk/internal/server/http/middleware"
	"github.com/bankdesk/bankdesk/internal/transport"
)

// UpdateSink accepts decoded chat updates for asynchronous processing.
// Enqueue returns false when the consumer cannot take more work.
type UpdateSink interface {
	Enqueue(update transport.Update) bool
}

// HealthChecker reports readiness of the durable state backend.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// UpdateHandler manages the webhook and health endpoints.
type UpdateHandler struct {
	sink   UpdateSink
	health HealthChecker
}

// NewUpdateHandler constructs UpdateHandler.
func NewUpdateHandler(sink UpdateSink, health HealthChecker) *UpdateHandler {
	return &UpdateHandler{sink: sink, health: health}
}

// Receive handles POST /api/updates.
func (h *UpdateHandler) Receive(c *gin.Context) {
	var update transport.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	if (update.Message == nil) == (update.Callback == nil) {
		c.Status(http.StatusBadRequest)
		return
	}

	update.CorrelationID = uuid.NewString()
	if !h.sink.Enqueue(update) {
		c.Status(http.StatusServiceUnavailable)
		return
	}

	c.Header(middleware.CorrelationHeader, update.CorrelationID)
	c.JSON(http.StatusAccepted, gin.H{"correlation_id": update.CorrelationID})
}

// Health handles GET /healthz.
func (h *UpdateHandler) Health(c *gin.Context) {
	if err := h.health.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
