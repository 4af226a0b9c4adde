package scan

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	httperr "github.com/salestrack-lab/salestrack/internal/core/errors"
)

// Handler exposes scan triggering, scan status and scheduler controls.
type Handler struct {
	orchestrator *Orchestrator
	scheduler    *Scheduler
}

// NewHandler creates the scan HTTP handler. scheduler may be nil when scanning is disabled.
func NewHandler(orchestrator *Orchestrator, scheduler *Scheduler) *Handler {
	return &Handler{orchestrator: orchestrator, scheduler: scheduler}
}

// RegisterRoutes registers all scan API routes on the given router.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/scans", h.HandleTrigger)
	r.GET("/v1/scans/status", h.HandleStatus)

	r.POST("/v1/scheduler/start", h.HandleSchedulerStart)
	r.POST("/v1/scheduler/stop", h.HandleSchedulerStop)
	r.GET("/v1/scheduler/status", h.HandleSchedulerStatus)
}

type triggerResponse struct {
	Outcome
	Message           string `json:"message"`
	RetryAfterSeconds *int64 `json:"retry_after_seconds,omitempty"`
}

func newTriggerResponse(o Outcome) triggerResponse {
	resp := triggerResponse{Outcome: o, Message: o.Message()}
	if o.Reason == ReasonTooRecent {
		secs := retryAfterSeconds(o.RetryAfter)
		resp.RetryAfterSeconds = &secs
	}
	return resp
}

// HandleTrigger handles POST /v1/scans.
// Admission runs inside the request; the scan itself continues in the background.
func (h *Handler) HandleTrigger(c *gin.Context) {
	outcome, err := h.orchestrator.Start(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to start scan",
			Details:   err.Error(),
		})
		return
	}

	resp := newTriggerResponse(outcome)
	switch outcome.Reason {
	case ReasonInProgress:
		c.JSON(http.StatusConflict, httperr.ErrorResponse{
			ErrorType: httperr.HttpScanInProgress,
			Message:   resp.Message,
			Details:   resp,
		})
	case ReasonTooRecent:
		c.Header("Retry-After", strconv.FormatInt(*resp.RetryAfterSeconds, 10))
		c.JSON(http.StatusTooManyRequests, httperr.ErrorResponse{
			ErrorType: httperr.HttpScanTooRecent,
			Message:   resp.Message,
			Details:   resp,
		})
	default:
		c.JSON(http.StatusAccepted, resp)
	}
}

// HandleStatus handles GET /v1/scans/status.
func (h *Handler) HandleStatus(c *gin.Context) {
	status, err := h.orchestrator.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to read scan status",
			Details:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, status)
}

// HandleSchedulerStart handles POST /v1/scheduler/start.
func (h *Handler) HandleSchedulerStart(c *gin.Context) {
	if !h.requireScheduler(c) {
		return
	}
	message := "Scheduler already running"
	if h.scheduler.Resume() {
		message = "Scheduler started"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "scheduler": h.scheduler.Status()})
}

// HandleSchedulerStop handles POST /v1/scheduler/stop.
func (h *Handler) HandleSchedulerStop(c *gin.Context) {
	if !h.requireScheduler(c) {
		return
	}
	message := "Scheduler already stopped"
	if h.scheduler.Pause() {
		message = "Scheduler stopped"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "scheduler": h.scheduler.Status()})
}

// HandleSchedulerStatus handles GET /v1/scheduler/status.
func (h *Handler) HandleSchedulerStatus(c *gin.Context) {
	if !h.requireScheduler(c) {
		return
	}
	c.JSON(http.StatusOK, h.scheduler.Status())
}

func (h *Handler) requireScheduler(c *gin.Context) bool {
	if h.scheduler != nil {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, httperr.New(httperr.HttpServiceUnavailable, "Scheduled scanning is disabled"))
	return false
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(d time.Duration) int64 {
	return int64(math.Ceil(d.Seconds()))
}
