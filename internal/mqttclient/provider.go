// Package mqttclient owns the process's MQTT client handle.
//
// A Provider is created once by the composition root and passed to every
// consumer; it hands out exactly one Handle. The client inside the handle
// starts unset and is populated by whoever establishes the broker connection.
package mqttclient

import (
	"errors"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ErrAlreadyConstructed is returned when a second handle is constructed
// for the same provider.
var ErrAlreadyConstructed = errors.New("mqtt client handle already constructed")

// Handle holds the shared MQTT client
type Handle struct {
	mu     sync.RWMutex
	client mqtt.Client
}

// Client returns the MQTT client, or nil if none has been set yet
func (h *Handle) Client() mqtt.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.client
}

// SetClient stores the MQTT client shared through this handle
func (h *Handle) SetClient(client mqtt.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.client = client
}

// Provider hands out the single Handle
type Provider struct {
	once   sync.Once
	mu     sync.Mutex
	handle *Handle
}

// NewProvider creates a provider with no handle constructed yet
func NewProvider() *Provider {
	return &Provider{}
}

// Instance returns the provider's handle, constructing it on first use.
// Every call returns the same pointer.
func (p *Provider) Instance() *Handle {
	p.once.Do(func() {
		if _, err := p.construct(); err != nil {
			panic(err)
		}
	})
	return p.handle
}

// Client is shorthand for Instance().Client()
func (p *Provider) Client() mqtt.Client {
	return p.Instance().Client()
}

func (p *Provider) construct() (*Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle != nil {
		return nil, ErrAlreadyConstructed
	}
	p.handle = &Handle{}
	return p.handle, nil
}
