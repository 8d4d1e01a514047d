package httpserver

import (
	"log"
	"math"
	"net/http"
	"time"

	"indigo/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const rateLimiterExpiry = 5 * time.Minute

func (s *Server) registerRoutes(httpMetrics *metrics.HTTPMetrics) {
	s.echo.Use(requestLogger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.BodyLimit(maxRequestBody))
	s.echo.Use(httpMetrics.Middleware())
	if s.rateLimit > 0 {
		s.echo.Use(s.newRateLimiter(s.rateLimit))
	}

	s.echo.GET("/", s.handleRoot)
	s.echo.POST("/plane-webhook", s.handlePlaneWebhook)
	s.echo.POST("/webhook", s.handleGenericWebhook)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/version", s.handleVersion)
	s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.registry)))
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Printf("http request method=%s uri=%s status=%d latency=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			log.Printf("http request method=%s uri=%s status=%d latency=%s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	})
}

func (s *Server) newRateLimiter(perSecond float64) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     int(math.Max(1, math.Ceil(perSecond))),
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return s.writeError(c, http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}
