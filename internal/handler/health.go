package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	Count() int
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	sessions  SessionCounter
	startedAt time.Time
}

// NewHealthHandler creates a new HealthHandler. sessions may be nil.
func NewHealthHandler(sessions SessionCounter) *HealthHandler {
	return &HealthHandler{
		sessions:  sessions,
		startedAt: time.Now(),
	}
}

// Check returns the health status of the server.
func (h *HealthHandler) Check(c echo.Context) error {
	resp := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	}
	if h.sessions != nil {
		resp["sessions"] = h.sessions.Count()
	}
	return c.JSON(http.StatusOK, resp)
}
