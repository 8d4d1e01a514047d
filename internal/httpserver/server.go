// Package httpserver exposes the webhook dispatcher over HTTP.
package httpserver

import (
	"context"
	"fmt"
	"log"
	"time"

	"indigo/internal/metrics"
	"indigo/internal/webhook"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	serviceName    = "indigo-webhook-handler"
	timestampUTC   = "2006-01-02T15:04:05.000Z"
	maxRequestBody = "1M"
)

// Dispatcher handles one webhook delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, req webhook.Request) (webhook.Result, error)
}

// HealthCheck is a named dependency probe run by GET /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	echo *echo.Echo
	addr string

	dispatcher   Dispatcher
	registry     *prometheus.Registry
	healthChecks []HealthCheck
	rateLimit    float64

	startTime time.Time
	now       func() time.Time
}

type Option func(*Server)

func WithHealthChecks(checks ...HealthCheck) Option {
	return func(s *Server) { s.healthChecks = append(s.healthChecks, checks...) }
}

// WithRateLimit limits requests per client IP; zero disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(s *Server) { s.rateLimit = perSecond }
}

func NewServer(addr string, dispatcher Dispatcher, reg *prometheus.Registry, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:       e,
		addr:       addr,
		dispatcher: dispatcher,
		registry:   reg,
		startTime:  time.Now(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	e.HTTPErrorHandler = s.handleHTTPError

	s.registerRoutes(metrics.NewHTTPMetrics(reg))
	return s
}

func (s *Server) Start() error {
	log.Printf("Indigo webhook handler listening on %s (plane webhook: POST /plane-webhook)", s.addr)
	if err := s.echo.Start(s.addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(timestampUTC)
}
