// Package healthcheck serves the result of a Checker.
package healthcheck

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

//go:generate mockgen -source handler.go -destination mock_handler.go -package healthcheck

// Checker reports whether a component is healthy.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// Response is the body of a health check.
type Response struct {
	Status   string `json:"status"`
	PingTime string `json:"pingTime"`
	Error    string `json:"error,omitempty"`
}

// Handler serves GET /healthcheck.
type Handler struct {
	checker Checker
	now     func() time.Time
}

// New creates a Handler for checker.
func New(checker Checker) *Handler {
	return &Handler{checker: checker, now: time.Now}
}

// Handle implements echo.HandlerFunc.
func (h *Handler) Handle(c echo.Context) error {
	resp := Response{Status: "ok", PingTime: h.now().UTC().Format(time.RFC3339Nano)}
	if err := h.checker.HealthCheck(c.Request().Context()); err != nil {
		resp.Status = "unavailable"
		resp.Error = err.Error()
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// Checks combines checkers. The first failure wins.
type Checks []Checker

// HealthCheck implements Checker.
func (cs Checks) HealthCheck(ctx context.Context) error {
	for _, c := range cs {
		if err := c.HealthCheck(ctx); err != nil {
			return err
		}
	}
	return nil
}
