package bridge

import (
	"hassbridge/internal/config"
	"hassbridge/internal/mqttclient"

	"go.uber.org/zap"
)

// Context provides dependencies to devices and the registry. It is built
// once at startup and shared.
type Context struct {
	// Config is the resolved bridge configuration.
	Config *config.Config

	// MQTT hands out the shared MQTT client handle.
	MQTT *mqttclient.Provider

	// Events fires Home Assistant events. Defaults to Config.HassSession.
	Events EventSender

	// Logger is a structured logger. Devices should use
	// logger.Named("device") for namespacing.
	Logger *zap.Logger
}

// NewContext creates a context whose event sender is the configuration's
// Home Assistant session.
func NewContext(cfg *config.Config, mqtt *mqttclient.Provider, logger *zap.Logger) *Context {
	return &Context{
		Config: cfg,
		MQTT:   mqtt,
		Events: cfg.HassSession,
		Logger: logger,
	}
}

// DeviceConfig layers the customization overrides for dev on top of a
// generated discovery config.
func (c *Context) DeviceConfig(dev Device, generated map[string]any) (map[string]any, error) {
	return config.ApplyOverrides(generated, c.Config.OverridesFor(dev))
}
