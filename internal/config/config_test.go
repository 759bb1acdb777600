package config

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func newTestToken(t *testing.T) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"iss": "test"}).
		SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestBuild_Defaults(t *testing.T) {
	logger, _ := newObservedLogger()

	cfg, err := Build(Preferences{}, logger)
	require.NoError(t, err)

	assert.False(t, cfg.Debug)
	assert.Equal(t, DefaultMQTTProtocol, cfg.MQTTProtocol)
	assert.Equal(t, DefaultMQTTServer, cfg.MQTTServer)
	assert.Equal(t, DefaultMQTTPort, cfg.MQTTPort)
	assert.Equal(t, "", cfg.MQTTUsername)
	assert.Equal(t, "", cfg.MQTTPassword)
	assert.False(t, cfg.MQTTUseEncryption)
	assert.False(t, cfg.MQTTAllowUnvalidated)
	assert.False(t, cfg.MQTTSetClientID)
	assert.Equal(t, "", cfg.MQTTClientID)
	assert.Equal(t, "", cfg.HassAccessToken)
	assert.Equal(t, DefaultHassURL, cfg.HassURL)
	assert.True(t, cfg.HassSSLValidate)
	assert.Equal(t, DefaultEventPrefix, cfg.HassEventPrefix)
	assert.Equal(t, DefaultDiscoveryPrefix, cfg.HassDiscoveryPrefix)
	assert.False(t, cfg.UseCustomizeFile)
	assert.Equal(t, "", cfg.CustomizeFilePath)
	assert.False(t, cfg.CreateBatterySensors)
	assert.False(t, cfg.CreateInsteonLEDBacklightLights)
	assert.Equal(t, DefaultInsteonNoCommMinutes, cfg.InsteonNoCommMinutes)

	assert.NotNil(t, cfg.Customizations)
	assert.Empty(t, cfg.Customizations)
	require.NotNil(t, cfg.HassSession)
	assert.Equal(t, DefaultHassURL, cfg.HassSession.BaseURL())
}

func TestBuild_ExplicitValues(t *testing.T) {
	logger, _ := newObservedLogger()
	token := newTestToken(t)

	cfg, err := Build(Preferences{
		"showDebugInfo":                       true,
		"mqtt_protocol":                       "websockets",
		"serverAddress":                       "broker.local",
		"serverPort":                          "8883",
		"serverUsername":                      "bridge",
		"serverPassword":                      "hunter2",
		"mqtt_use_encryption":                 true,
		"mqtt_allow_unvalidated":              "yes",
		"access_token":                        token,
		"server_url":                          "https://ha.local:8123",
		"https_validate_cert":                 false,
		"event_prefix":                        "house",
		"discovery_prefix":                    "discovery",
		"create_battery_sensors":              "true",
		"create_insteon_led_backlight_lights": "1",
		"insteon_battery_minutes_no_com":      60,
	}, logger)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "websockets", cfg.MQTTProtocol)
	assert.Equal(t, "broker.local", cfg.MQTTServer)
	assert.Equal(t, 8883, cfg.MQTTPort)
	assert.Equal(t, "bridge", cfg.MQTTUsername)
	assert.Equal(t, "hunter2", cfg.MQTTPassword)
	assert.True(t, cfg.MQTTUseEncryption)
	assert.True(t, cfg.MQTTAllowUnvalidated)
	assert.Equal(t, token, cfg.HassAccessToken)
	assert.Equal(t, "https://ha.local:8123", cfg.HassURL)
	assert.False(t, cfg.HassSSLValidate)
	assert.Equal(t, "house", cfg.HassEventPrefix)
	assert.Equal(t, "discovery", cfg.HassDiscoveryPrefix)
	assert.True(t, cfg.CreateBatterySensors)
	assert.True(t, cfg.CreateInsteonLEDBacklightLights)
	assert.Equal(t, 60, cfg.InsteonNoCommMinutes)
}

func TestBuild_NumericPreferenceTypes(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected int
	}{
		{name: "string", value: "1884", expected: 1884},
		{name: "int", value: 1885, expected: 1885},
		{name: "float", value: float64(1886), expected: 1886},
		{name: "empty string uses default", value: "", expected: DefaultMQTTPort},
		{name: "nil uses default", value: nil, expected: DefaultMQTTPort},
		{name: "padded string", value: " 1884 ", expected: 1884},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := newObservedLogger()
			cfg, err := Build(Preferences{"serverPort": tt.value}, logger)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.MQTTPort)
		})
	}
}

func TestBuild_EmptyValuesUseDefaults(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "https_validate_cert",
			key:  "https_validate_cert",
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.HassSSLValidate)
				assert.True(t, cfg.HassSession.ValidatesTLS())
			},
		},
		{
			name: "server_url",
			key:  "server_url",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultHassURL, cfg.HassURL)
				assert.Equal(t, DefaultHassURL, cfg.HassSession.BaseURL())
			},
		},
		{
			name: "event_prefix",
			key:  "event_prefix",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultEventPrefix, cfg.HassEventPrefix)
			},
		},
		{
			name: "discovery_prefix",
			key:  "discovery_prefix",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultDiscoveryPrefix, cfg.HassDiscoveryPrefix)
			},
		},
		{
			name: "serverPort",
			key:  "serverPort",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultMQTTPort, cfg.MQTTPort)
			},
		},
		{
			name: "insteon_battery_minutes_no_com",
			key:  "insteon_battery_minutes_no_com",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultInsteonNoCommMinutes, cfg.InsteonNoCommMinutes)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := newObservedLogger()
			cfg, err := Build(Preferences{tt.key: ""}, logger)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestBuild_InvalidNumberFails(t *testing.T) {
	logger, _ := newObservedLogger()

	_, err := Build(Preferences{"serverPort": "not-a-port"}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode preferences")

	_, err = Build(Preferences{"insteon_battery_minutes_no_com": "a day"}, logger)
	require.Error(t, err)
}

func TestBuild_ClientIDRequiresExplicitFlag(t *testing.T) {
	tests := []struct {
		name     string
		prefs    Preferences
		expected string
	}{
		{
			name:     "flag unset",
			prefs:    Preferences{"mqtt_client_id": "indigo"},
			expected: "",
		},
		{
			name:     "flag false",
			prefs:    Preferences{"mqtt_set_client_id": false, "mqtt_client_id": "indigo"},
			expected: "",
		},
		{
			name:     "flag true",
			prefs:    Preferences{"mqtt_set_client_id": true, "mqtt_client_id": "indigo"},
			expected: "indigo",
		},
		{
			name:     "flag true without id",
			prefs:    Preferences{"mqtt_set_client_id": "true"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := newObservedLogger()
			cfg, err := Build(tt.prefs, logger)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.MQTTClientID)
		})
	}
}

func TestBuild_InvalidTokenIsKept(t *testing.T) {
	logger, logs := newObservedLogger()

	cfg, err := Build(Preferences{"access_token": "not.a.jwt"}, logger)
	require.NoError(t, err)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel)
	assert.Equal(t, 1, warnings.Len())
	assert.Contains(t, warnings.All()[0].Message, "Access Token")

	assert.Equal(t, "not.a.jwt", cfg.HassAccessToken)
	assert.Equal(t, "Bearer not.a.jwt", cfg.HassSessionHeaders["Authorization"])
}

func TestBuild_ValidTokenDoesNotWarn(t *testing.T) {
	logger, logs := newObservedLogger()
	token := newTestToken(t)

	cfg, err := Build(Preferences{"access_token": token}, logger)
	require.NoError(t, err)

	assert.Equal(t, 0, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, "Bearer "+token, cfg.HassSessionHeaders["Authorization"])
	assert.Equal(t, "Bearer "+token, cfg.HassSession.Header("Authorization"))
}

func TestBuild_TrailingSlash(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{url: "http://ha.local:8123/", expected: "http://ha.local:8123"},
		{url: "http://ha.local:8123//", expected: "http://ha.local:8123/"},
		{url: "http://ha.local:8123", expected: "http://ha.local:8123"},
		{url: "https://example.com/ha/", expected: "https://example.com/ha"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			logger, _ := newObservedLogger()
			cfg, err := Build(Preferences{"server_url": tt.url}, logger)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.HassURL)
			assert.Equal(t, tt.expected, cfg.HassSession.BaseURL())
		})
	}
}

func TestBuild_SessionTLSValidation(t *testing.T) {
	logger, _ := newObservedLogger()

	cfg, err := Build(Preferences{}, logger)
	require.NoError(t, err)
	assert.True(t, cfg.HassSession.ValidatesTLS())

	cfg, err = Build(Preferences{"https_validate_cert": "false"}, logger)
	require.NoError(t, err)
	assert.False(t, cfg.HassSession.ValidatesTLS())
}

func TestConfig_NamingHelpers(t *testing.T) {
	logger, _ := newObservedLogger()
	cfg, err := Build(Preferences{"event_prefix": "house"}, logger)
	require.NoError(t, err)

	assert.Equal(t, "homeassistant/light/porch_light", cfg.TopicRoot("light", "porch_light"))
	assert.Equal(t, "indigo_mqtt_porch_light", cfg.UniqueID("porch_light"))
	assert.Equal(t, "house_button_pressed", cfg.EventType("button_pressed"))
}

func TestParseBool(t *testing.T) {
	truthy := []string{"yes", "YES", "true", "True", "t", "T", "1", " yes "}
	for _, v := range truthy {
		assert.True(t, ParseBool(v), v)
	}

	falsy := []string{"", "no", "false", "f", "0", "on", "y", "2"}
	for _, v := range falsy {
		assert.False(t, ParseBool(v), v)
	}
}

func TestPreferencesFromStrings(t *testing.T) {
	prefs := PreferencesFromStrings(map[string]string{"serverPort": "1999"})
	assert.Equal(t, Preferences{"serverPort": "1999"}, prefs)

	settings, err := DecodeSettings(prefs)
	require.NoError(t, err)
	assert.Equal(t, 1999, settings.MQTTPort)
}
