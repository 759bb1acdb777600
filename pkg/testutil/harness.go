package testutil

import (
	"fmt"
	"time"

	"hassbridge/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// TestEnv bundles a mock Home Assistant server with a configuration that
// points at it.
type TestEnv struct {
	Server *MockHAServer
	Config *config.Config
	Logger *zap.Logger
	Token  string
}

// NewToken returns a structurally valid, HMAC-signed JWT suitable for use
// as a Home Assistant long-lived access token in tests.
func NewToken() (string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Issuer:    "hassbridge-test",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		return "", fmt.Errorf("failed to sign test token: %w", err)
	}
	return token, nil
}

// NewTestEnv starts a mock server and builds a configuration from prefs with
// server_url and access_token pointing at it.
//
// Example usage:
//
//	env, err := testutil.NewTestEnv(config.Preferences{"event_prefix": "test"}, logger)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer env.Cleanup()
func NewTestEnv(prefs config.Preferences, logger *zap.Logger) (*TestEnv, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}

	server := NewMockHAServer(token)

	merged := make(config.Preferences, len(prefs)+2)
	for k, v := range prefs {
		merged[k] = v
	}
	merged["server_url"] = server.URL() + "/"
	merged["access_token"] = token

	cfg, err := config.Build(merged, logger)
	if err != nil {
		server.Close()
		return nil, fmt.Errorf("failed to build config: %w", err)
	}

	return &TestEnv{
		Server: server,
		Config: cfg,
		Logger: logger,
		Token:  token,
	}, nil
}

// Cleanup stops the mock server
func (e *TestEnv) Cleanup() {
	e.Server.Close()
}
