package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Label values used when a request does not map onto a registered route.
const (
	UnmatchedRoute = "unmatched"
	OtherMethod    = "OTHER"
)

// HTTPMetrics tracks request latency and volume per registered route.
type HTTPMetrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	InFlight        prometheus.Gauge
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	labels := []string{"method", "route", "status_code"}
	m := &HTTPMetrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds, by route.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, labels),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests, by route.",
		}, labels),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of HTTP requests currently being served.",
		}),
	}

	reg.MustRegister(m.RequestDuration, m.RequestsTotal, m.InFlight)
	return m
}

// Middleware skips the scrape and health endpoints. Paths without a
// registered route share the "unmatched" label so scanners cannot grow the
// series count.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Path() {
			case "/metrics", "/health":
				return next(c)
			}

			m.InFlight.Inc()
			start := time.Now()
			err := next(c)
			m.InFlight.Dec()

			labels := []string{methodLabel(c.Request().Method), routeLabel(c, err), strconv.Itoa(statusCode(c, err))}
			m.RequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			m.RequestsTotal.WithLabelValues(labels...).Inc()
			return err
		}
	}
}

func routeLabel(c echo.Context, err error) string {
	if errors.Is(err, echo.ErrNotFound) || c.Path() == "" {
		return UnmatchedRoute
	}
	return c.Path()
}

func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodHead, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return method
	default:
		return OtherMethod
	}
}

// statusCode is the status the error handler will write when next failed,
// since the response is not committed yet at this point.
func statusCode(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
