// Package response provides helpers for consistent API responses.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error codes returned to clients.
const (
	CodeSessionNotFound = "SESSION_NOT_FOUND"
	CodeInvalidPhase    = "INVALID_PHASE"
	CodeInvalidMode     = "INVALID_MODE"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeNoProblem       = "NO_PROBLEM"
	CodeRateLimited     = "RATE_LIMITED"
)

// Success sends a successful JSON response with the given data.
// The response will always include "error": false.
func Success(c echo.Context, data map[string]interface{}) error {
	resp := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		resp[k] = v
	}
	resp["error"] = false

	return c.JSON(http.StatusOK, resp)
}

// Error sends an error JSON response with the given status code and message.
func Error(c echo.Context, statusCode int, message string) error {
	return c.JSON(statusCode, map[string]interface{}{
		"error":   true,
		"message": message,
	})
}

// ErrorWithCode sends an error response with a specific error code.
func ErrorWithCode(c echo.Context, statusCode int, code string, message string) error {
	return c.JSON(statusCode, map[string]interface{}{
		"error":   true,
		"code":    code,
		"message": message,
	})
}

// SessionNotFound reports a missing or expired session cookie.
func SessionNotFound(c echo.Context) error {
	return ErrorWithCode(c, http.StatusUnauthorized, CodeSessionNotFound, "セッションが見つかりません")
}

// InvalidPhase reports an operation attempted in the wrong phase.
// The current phase is included so the client can resync.
func InvalidPhase(c echo.Context, phase string) error {
	return c.JSON(http.StatusConflict, map[string]interface{}{
		"error":   true,
		"code":    CodeInvalidPhase,
		"message": "現在の状態ではこの操作はできません",
		"phase":   phase,
	})
}
