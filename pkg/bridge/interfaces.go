// Package bridge defines the capabilities a bridged device can implement and
// the registry that drives them. A device implements only the capability
// interfaces it needs; the registry discovers them with type assertions.
package bridge

import (
	"context"

	"hassbridge/internal/config"
)

// Device is the base interface for every bridged device.
type Device interface {
	// Name returns the device name. It is the registry key and the key used
	// for customization overrides.
	Name() string
}

// Registerable is implemented by devices that publish discovery config or
// hold broker subscriptions.
type Registerable interface {
	// Register announces the device and sets up its subscriptions.
	Register() error

	// Cleanup removes what Register created, e.g. retained discovery topics.
	Cleanup() error

	// Shutdown releases resources when the bridge stops.
	Shutdown() error
}

// Updatable is implemented by devices that react to state changes in the
// host platform.
type Updatable interface {
	// Update is called with the device state before and after a change.
	Update(previous, next Device) error
}

// Command is a command received for a device, e.g. from an MQTT command topic.
type Command struct {
	Action string
	Args   map[string]any
}

// CommandProcessor is implemented by devices that turn commands into Home
// Assistant events.
type CommandProcessor interface {
	// ProcessCommand returns the event name and payload to fire for cmd.
	// An empty event name means no event is fired.
	ProcessCommand(cmd Command, cfg *config.Config) (event string, payload map[string]any, err error)
}

// TimedUpdateCheck is implemented by devices that poll for changes.
type TimedUpdateCheck interface {
	CheckForUpdate() error
}

// EventSender fires Home Assistant events.
type EventSender interface {
	FireEvent(ctx context.Context, eventType string, payload map[string]any) error
}
