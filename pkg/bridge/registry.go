package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Registry tracks bridged devices by name and drives their capabilities.
// Devices are registered and checked in the order they were added and shut
// down in reverse.
type Registry struct {
	ctx *Context

	mu      sync.RWMutex
	devices map[string]Device
	order   []string
}

// NewRegistry creates an empty registry bound to ctx.
func NewRegistry(ctx *Context) *Registry {
	return &Registry{
		ctx:     ctx,
		devices: make(map[string]Device),
		order:   make([]string, 0),
	}
}

// Add adds a device. Names must be non-empty and unique.
func (r *Registry) Add(dev Device) error {
	if dev == nil {
		return fmt.Errorf("device cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := dev.Name()
	if name == "" {
		return fmt.Errorf("device name cannot be empty")
	}
	if _, exists := r.devices[name]; exists {
		return fmt.Errorf("device %q already added", name)
	}

	r.devices[name] = dev
	r.order = append(r.order, name)
	return nil
}

// Get returns the device with the given name, or nil if not found.
func (r *Registry) Get(name string) Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.devices[name]
}

// Names returns the device names in the order they were added.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, len(r.order))
	copy(result, r.order)
	return result
}

func (r *Registry) list() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Device, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.devices[name])
	}
	return result
}

// RegisterAll calls Register on every Registerable device. If one fails,
// the devices already registered are cleaned up in reverse order.
func (r *Registry) RegisterAll() error {
	registered := make([]Registerable, 0)

	for _, dev := range r.list() {
		reg, ok := dev.(Registerable)
		if !ok {
			continue
		}

		if err := reg.Register(); err != nil {
			for i := len(registered) - 1; i >= 0; i-- {
				if cerr := registered[i].Cleanup(); cerr != nil {
					r.ctx.Logger.Warn("Cleanup after failed registration failed", zap.Error(cerr))
				}
			}
			return fmt.Errorf("failed to register device %s: %w", dev.Name(), err)
		}
		registered = append(registered, reg)
	}

	r.ctx.Logger.Info("Devices registered", zap.Int("count", len(registered)))
	return nil
}

// ShutdownAll calls Shutdown on every Registerable device in reverse order.
// All devices are shut down even if some fail; the errors are joined.
func (r *Registry) ShutdownAll() error {
	devices := r.list()

	var errs []error
	for i := len(devices) - 1; i >= 0; i-- {
		reg, ok := devices[i].(Registerable)
		if !ok {
			continue
		}
		if err := reg.Shutdown(); err != nil {
			r.ctx.Logger.Error("Failed to shut down device",
				zap.String("device", devices[i].Name()),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("device %s: %w", devices[i].Name(), err))
		}
	}
	return errors.Join(errs...)
}

// CheckForUpdates runs CheckForUpdate on every TimedUpdateCheck device.
func (r *Registry) CheckForUpdates() error {
	var errs []error
	for _, dev := range r.list() {
		checker, ok := dev.(TimedUpdateCheck)
		if !ok {
			continue
		}
		if err := checker.CheckForUpdate(); err != nil {
			r.ctx.Logger.Warn("Update check failed",
				zap.String("device", dev.Name()),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("device %s: %w", dev.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Update forwards a state change to the registered device named next.Name(),
// if it is Updatable. Unknown devices are ignored.
func (r *Registry) Update(previous, next Device) error {
	dev := r.Get(next.Name())
	if dev == nil {
		return nil
	}

	updatable, ok := dev.(Updatable)
	if !ok {
		return nil
	}
	if err := updatable.Update(previous, next); err != nil {
		return fmt.Errorf("failed to update device %s: %w", next.Name(), err)
	}
	return nil
}

// Dispatch runs cmd through the named device's CommandProcessor and fires
// the resulting event, prefixed with the configured event prefix.
func (r *Registry) Dispatch(ctx context.Context, name string, cmd Command) error {
	dev := r.Get(name)
	if dev == nil {
		return fmt.Errorf("device %q not found", name)
	}

	processor, ok := dev.(CommandProcessor)
	if !ok {
		return fmt.Errorf("device %q does not process commands", name)
	}

	event, payload, err := processor.ProcessCommand(cmd, r.ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to process command %s for %s: %w", cmd.Action, name, err)
	}
	if event == "" {
		r.ctx.Logger.Debug("Command produced no event",
			zap.String("device", name),
			zap.String("action", cmd.Action))
		return nil
	}

	eventType := r.ctx.Config.EventType(event)
	if err := r.ctx.Events.FireEvent(ctx, eventType, payload); err != nil {
		return err
	}

	r.ctx.Logger.Info("Event fired",
		zap.String("device", name),
		zap.String("event_type", eventType))
	return nil
}
