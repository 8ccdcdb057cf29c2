package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/c-nielson/CS534-Final-Project/internal/application/features"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/logging"
	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// ReportSource exposes the most recent run.
type ReportSource interface {
	LatestReport() *features.RunReport
}

// RunTrigger queues a run.  Trigger reports false when a run is already
// queued.
type RunTrigger interface {
	Trigger(reason string) bool
}

// RunHandler serves run reports and accepts manual run requests.
type RunHandler struct {
	source  ReportSource
	trigger RunTrigger
	logger  logging.Logger
}

// NewRunHandler creates a RunHandler.  trigger may be nil, in which case
// POST /v1/runs is not routed.
func NewRunHandler(source ReportSource, trigger RunTrigger, logger logging.Logger) *RunHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RunHandler{source: source, trigger: trigger, logger: logger}
}

// Latest handles GET /v1/runs/latest.
func (h *RunHandler) Latest(c *gin.Context) {
	report := h.source.LatestReport()
	if report == nil {
		writeAppError(c, errors.NotFound("no run has completed yet"))
		return
	}
	c.JSON(http.StatusOK, report)
}

// Trigger handles POST /v1/runs.
func (h *RunHandler) Trigger(c *gin.Context) {
	if !h.trigger.Trigger("http") {
		c.JSON(http.StatusConflict, ErrorResponse{
			Code:    errors.ErrCodeBadRequest.String(),
			Message: "a run is already queued",
		})
		return
	}
	h.logger.Info("run requested over http", logging.String("remote_addr", c.ClientIP()))
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// CanTrigger reports whether the handler accepts run requests.
func (h *RunHandler) CanTrigger() bool {
	return h.trigger != nil
}

//Personal.AI order the ending
