package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"indigo/internal/webhook"

	"github.com/labstack/echo/v4"
)

type webhookResponse struct {
	Status     string          `json:"status"`
	Processed  string          `json:"processed"`
	DeliveryID string          `json:"delivery_id"`
	Timestamp  string          `json:"timestamp"`
	Analysis   *webhook.Result `json:"analysis"`
}

type errorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handlePlaneWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return s.writeError(c, http.StatusBadRequest, "failed to read request body")
	}

	req := webhook.Request{
		DeliveryID: c.Request().Header.Get(webhook.DeliveryHeader),
		Signature:  c.Request().Header.Get(webhook.SignatureHeader),
		Body:       body,
	}
	result, err := s.dispatcher.Dispatch(c.Request().Context(), req)
	switch {
	case errors.Is(err, webhook.ErrMalformedPayload):
		return s.writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, webhook.ErrInvalidSignature):
		return s.writeError(c, http.StatusUnauthorized, err.Error())
	case err != nil:
		log.Printf("plane webhook error delivery=%s err=%v", result.DeliveryID, err)
		return s.writeError(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, webhookResponse{
		Status:     "success",
		Processed:  result.EventType,
		DeliveryID: result.DeliveryID,
		Timestamp:  s.timestamp(),
		Analysis:   &result,
	})
}

// handleGenericWebhook logs whatever it receives, for wiring tests.
func (s *Server) handleGenericWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return s.writeError(c, http.StatusBadRequest, "failed to read request body")
	}
	log.Printf("generic webhook received bytes=%d payload=%s", len(body), compactPayload(body))

	return c.JSON(http.StatusOK, map[string]string{
		"status":    "received",
		"timestamp": s.timestamp(),
	})
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service":     "Indigo Webhook Handler",
		"description": "Webhook handler that annotates Plane collaboration events",
		"endpoints": map[string]string{
			"/plane-webhook": "POST - Plane event webhook",
			"/webhook":       "POST - Generic webhook for testing",
			"/health":        "GET - Health check",
			"/version":       "GET - Build information",
			"/metrics":       "GET - Prometheus metrics",
		},
		"timestamp": s.timestamp(),
	})
}

// handleHTTPError renders errors raised by echo and its middleware, such as
// unknown routes or oversized bodies, in the same shape as handler errors.
func (s *Server) handleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = http.StatusText(code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}
	} else {
		log.Printf("http unhandled error method=%s uri=%s err=%v", c.Request().Method, c.Request().RequestURI, err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if werr := s.writeError(c, code, message); werr != nil {
		log.Printf("http error response failed status=%d err=%v", code, werr)
	}
}

func (s *Server) writeError(c echo.Context, status int, message string) error {
	return c.JSON(status, errorResponse{
		Status:    "error",
		Message:   message,
		Timestamp: s.timestamp(),
	})
}

func compactPayload(body []byte) string {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return string(body)
	}
	return string(out)
}
