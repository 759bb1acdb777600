// Package config resolves the bridge configuration from the preferences
// stored by the host plugin and the optional per-device customization file.
package config

import (
	"fmt"
	"strings"

	"hassbridge/internal/hass"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	topicRootFormat = "%s/%s/%s"
	uniqueIDFormat  = "indigo_mqtt_%s"
)

// Config is the fully resolved bridge configuration. It is built once by
// Build and treated as read-only afterwards.
type Config struct {
	Settings

	// HassSessionHeaders are the headers sent with every Home Assistant request
	HassSessionHeaders map[string]string

	// HassSession is the shared, pre-authenticated Home Assistant REST session
	HassSession *hass.Session

	// Customizations is the parsed customization file, empty when unused
	Customizations Customizations
}

// Build resolves prefs into a Config. An invalid access token is logged as a
// warning and kept. A missing customization file is logged and ignored; a
// customization file that cannot be read or parsed fails the build.
func Build(prefs Preferences, logger *zap.Logger) (*Config, error) {
	settings, err := DecodeSettings(prefs)
	if err != nil {
		return nil, err
	}

	if !settings.MQTTSetClientID {
		settings.MQTTClientID = ""
	}

	if err := validateToken(settings.HassAccessToken); err != nil {
		logger.Warn("Access Token does not appear to be valid", zap.Error(err))
	}

	settings.HassURL = strings.TrimSuffix(settings.HassURL, "/")

	cfg := &Config{
		Settings: settings,
		HassSessionHeaders: map[string]string{
			"Authorization": "Bearer " + settings.HassAccessToken,
		},
		Customizations: Customizations{},
	}
	cfg.HassSession = hass.NewSession(cfg.HassURL, cfg.HassSessionHeaders, cfg.HassSSLValidate, logger)

	if cfg.UseCustomizeFile {
		customizations, err := LoadCustomizations(cfg.CustomizeFilePath, logger)
		if err != nil {
			return nil, err
		}
		cfg.Customizations = customizations
	}

	return cfg, nil
}

// validateToken checks that token is structurally a JWT. The signature is
// not verified.
func validateToken(token string) error {
	_, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	return err
}

// TopicRoot returns the discovery topic root for an entity,
// "<discovery_prefix>/<hass_type>/<mqtt_name>".
func (c *Config) TopicRoot(hassType, mqttName string) string {
	return fmt.Sprintf(topicRootFormat, c.HassDiscoveryPrefix, hassType, mqttName)
}

// UniqueID returns the Home Assistant unique_id for an entity.
func (c *Config) UniqueID(mqttName string) string {
	return fmt.Sprintf(uniqueIDFormat, mqttName)
}

// EventType returns the Home Assistant event type for a bridge event name.
func (c *Config) EventType(name string) string {
	return c.HassEventPrefix + "_" + name
}
