// Package hass provides the authenticated REST session used to talk to
// Home Assistant.
package hass

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// Session is a Home Assistant REST session. A single Session is shared by
// every consumer so the underlying connections are reused.
type Session struct {
	client      *resty.Client
	baseURL     string
	headers     map[string]string
	validateTLS bool
	logger      *zap.Logger
}

// NewSession configures a session against baseURL. headers are sent with
// every request. No request is made here.
func NewSession(baseURL string, headers map[string]string, validateTLS bool, logger *zap.Logger) *Session {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeaders(headers).
		SetHeader("Content-Type", "application/json").
		SetTimeout(defaultTimeout)

	if !validateTLS {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // user opted out of validation
	}

	copied := make(map[string]string, len(headers))
	for k, v := range headers {
		copied[k] = v
	}

	return &Session{
		client:      client,
		baseURL:     baseURL,
		headers:     copied,
		validateTLS: validateTLS,
		logger:      logger,
	}
}

// BaseURL returns the Home Assistant base URL without a trailing slash
func (s *Session) BaseURL() string {
	return s.baseURL
}

// Header returns the configured value of a session header
func (s *Session) Header(name string) string {
	return s.headers[name]
}

// ValidatesTLS reports whether server certificates are verified
func (s *Session) ValidatesTLS() bool {
	return s.validateTLS
}

// FireEvent fires a Home Assistant event of the given type with payload as
// its event data.
func (s *Session) FireEvent(ctx context.Context, eventType string, payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/api/events/" + url.PathEscape(eventType))
	if err != nil {
		return fmt.Errorf("failed to fire event %s: %w", eventType, err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to fire event %s: %s", eventType, resp.Status())
	}

	s.logger.Debug("Fired event",
		zap.String("event_type", eventType),
		zap.Int("status", resp.StatusCode()))
	return nil
}

// Ping checks that the Home Assistant API is reachable and accepts the token.
func (s *Session) Ping(ctx context.Context) error {
	resp, err := s.client.R().
		SetContext(ctx).
		Get("/api/")
	if err != nil {
		return fmt.Errorf("failed to reach Home Assistant: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("home assistant API returned %s", resp.Status())
	}
	return nil
}
