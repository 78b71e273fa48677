package handlers

import (
	"errors"
	"net/http"

	"intelliinspect/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK        = "ok"
	statusStarted   = "started"
	statusStopped   = "stopped"
	statusRestarted = "restarted"
	statusCleared   = "cleared"
	statusReset     = "reset"

	errStartLive       = "failed to start simulation"
	errStopLive        = "failed to stop simulation"
	errRestartLive     = "failed to restart simulation"
	errClearLive       = "failed to clear simulation"
	errShuttingDown    = "server is shutting down"
	errResetWorkflow   = "failed to reset workflow"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// controlError maps orchestrator errors to a response.
func (h *Handler) controlError(c *gin.Context, userMsg, logKey string, err error) {
	if errors.Is(err, service.ErrSimulationClosed) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errShuttingDown})
		return
	}
	h.logAndJSONError(c, http.StatusInternalServerError, userMsg, logKey, err)
}

// liveStateResponse is the body of GET /api/live/state and of control replies.
type liveStateResponse struct {
	Status     string      `json:"status,omitempty"`
	SessionID  string      `json:"session_id,omitempty"`
	Running    bool        `json:"running"`
	Window     interface{} `json:"window"`
	Statistics interface{} `json:"statistics"`
}

func (h *Handler) respondLive(c *gin.Context, status string) {
	id, snap := h.services.Simulation.LiveState()
	c.JSON(http.StatusOK, liveStateResponse{
		Status:     status,
		SessionID:  id,
		Running:    snap.Running,
		Window:     snap.Window,
		Statistics: snap.Statistics,
	})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Start live simulation
// @Description  Opens a new session; a running session is superseded.
// @Tags         live
// @Produce      json
// @Success      200  {object}  liveStateResponse
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/live/start [post]
// @Security     BearerAuth
func (h *Handler) startLive(c *gin.Context) {
	if _, err := h.services.Simulation.Start(); err != nil {
		h.controlError(c, errStartLive, "live_start_failed", err)
		return
	}
	h.respondLive(c, statusStarted)
}

// @Summary      Stop live simulation
// @Tags         live
// @Produce      json
// @Success      200  {object}  liveStateResponse
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/live/stop [post]
// @Security     BearerAuth
func (h *Handler) stopLive(c *gin.Context) {
	if err := h.services.Simulation.Stop(); err != nil {
		h.controlError(c, errStopLive, "live_stop_failed", err)
		return
	}
	h.respondLive(c, statusStopped)
}

// @Summary      Restart live simulation
// @Tags         live
// @Produce      json
// @Success      200  {object}  liveStateResponse
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/live/restart [post]
// @Security     BearerAuth
func (h *Handler) restartLive(c *gin.Context) {
	if _, err := h.services.Simulation.Restart(); err != nil {
		h.controlError(c, errRestartLive, "live_restart_failed", err)
		return
	}
	h.respondLive(c, statusRestarted)
}

// @Summary      Clear live window
// @Description  Empties the window and statistics; a running session keeps running.
// @Tags         live
// @Produce      json
// @Success      200  {object}  liveStateResponse
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/live/clear [post]
// @Security     BearerAuth
func (h *Handler) clearLive(c *gin.Context) {
	if err := h.services.Simulation.Clear(); err != nil {
		h.controlError(c, errClearLive, "live_clear_failed", err)
		return
	}
	h.respondLive(c, statusCleared)
}

// @Summary      Live state
// @Tags         live
// @Produce      json
// @Success      200  {object}  liveStateResponse
// @Router       /api/live/state [get]
func (h *Handler) liveState(c *gin.Context) {
	h.respondLive(c, "")
}
