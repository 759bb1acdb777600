package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Default values for preferences that are not plain zero values
const (
	DefaultMQTTProtocol         = "tcp"
	DefaultMQTTServer           = "localhost"
	DefaultMQTTPort             = 1883
	DefaultHassURL              = "http://localhost:8123"
	DefaultEventPrefix          = "indigo_hassbridge"
	DefaultDiscoveryPrefix      = "homeassistant"
	DefaultInsteonNoCommMinutes = 1440
)

// Preferences is the raw preference mapping handed over by the host plugin.
// Values are strings, booleans or numbers; numbers may arrive as strings.
type Preferences map[string]any

// PreferencesFromStrings wraps a plain string map, such as one read from a
// dotenv file, as Preferences.
func PreferencesFromStrings(values map[string]string) Preferences {
	prefs := make(Preferences, len(values))
	for k, v := range values {
		prefs[k] = v
	}
	return prefs
}

// Settings is the typed preference schema. Each field names its preference
// key and default in struct tags and is decoded once in DecodeSettings.
type Settings struct {
	Debug bool `env:"showDebugInfo" envDefault:"false"`

	MQTTProtocol         string `env:"mqtt_protocol" envDefault:"tcp"`
	MQTTServer           string `env:"serverAddress" envDefault:"localhost"`
	MQTTPort             int    `env:"serverPort" envDefault:"1883"`
	MQTTUsername         string `env:"serverUsername"`
	MQTTPassword         string `env:"serverPassword"`
	MQTTUseEncryption    bool   `env:"mqtt_use_encryption" envDefault:"false"`
	MQTTAllowUnvalidated bool   `env:"mqtt_allow_unvalidated" envDefault:"false"`
	MQTTSetClientID      bool   `env:"mqtt_set_client_id" envDefault:"false"`
	MQTTClientID         string `env:"mqtt_client_id"`

	HassAccessToken     string `env:"access_token"`
	HassURL             string `env:"server_url" envDefault:"http://localhost:8123"`
	HassSSLValidate     bool   `env:"https_validate_cert" envDefault:"true"`
	HassEventPrefix     string `env:"event_prefix" envDefault:"indigo_hassbridge"`
	HassDiscoveryPrefix string `env:"discovery_prefix" envDefault:"homeassistant"`

	UseCustomizeFile  bool   `env:"use_customization_file" envDefault:"false"`
	CustomizeFilePath string `env:"customization_file_path"`

	CreateBatterySensors            bool `env:"create_battery_sensors" envDefault:"false"`
	CreateInsteonLEDBacklightLights bool `env:"create_insteon_led_backlight_lights" envDefault:"false"`
	InsteonNoCommMinutes            int  `env:"insteon_battery_minutes_no_com" envDefault:"1440"`
}

// ParseBool reports whether a preference string means true. Only "yes",
// "true", "t" and "1" (any case) do; everything else is false.
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "t", "1":
		return true
	}
	return false
}

// DecodeSettings resolves prefs against the Settings schema, applying
// defaults for missing or empty keys. Integers may carry surrounding
// whitespace. The process environment is never read.
func DecodeSettings(prefs Preferences) (Settings, error) {
	var settings Settings
	err := env.ParseWithOptions(&settings, env.Options{
		Environment: normalize(prefs),
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(false): func(v string) (interface{}, error) {
				return ParseBool(v), nil
			},
			reflect.TypeOf(0): func(v string) (interface{}, error) {
				return strconv.Atoi(strings.TrimSpace(v))
			},
		},
	})
	if err != nil {
		return Settings{}, fmt.Errorf("failed to decode preferences: %w", err)
	}
	return settings, nil
}

// normalize flattens loosely typed preference values to strings. Nil values
// are dropped so the schema default applies.
func normalize(prefs Preferences) map[string]string {
	out := make(map[string]string, len(prefs))
	for key, raw := range prefs {
		switch v := raw.(type) {
		case nil:
			continue
		case string:
			out[key] = v
		case bool:
			out[key] = strconv.FormatBool(v)
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case float32:
			out[key] = strconv.FormatFloat(float64(v), 'f', -1, 32)
		default:
			out[key] = fmt.Sprint(v)
		}
	}
	return out
}
