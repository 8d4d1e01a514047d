package httpserver

import (
	"context"
	"net/http"
	"time"

	"indigo/internal/version"

	"github.com/labstack/echo/v4"
)

const healthProbeTimeout = 2 * time.Second

func (s *Server) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthProbeTimeout)
	defer cancel()

	for _, hc := range s.healthChecks {
		if err := hc.Check(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":       "unhealthy",
				"failed_check": hc.Name,
				"error":        err.Error(),
				"timestamp":    s.timestamp(),
				"service":      serviceName,
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": s.timestamp(),
		"service":   serviceName,
		"uptime":    time.Since(s.startTime).Seconds(),
		"version":   version.Version,
	})
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, version.Get())
}
