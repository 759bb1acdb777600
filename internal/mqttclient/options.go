package mqttclient

import (
	"crypto/tls"
	"fmt"

	"hassbridge/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// BrokerURL returns the broker URL for the configured transport. "tcp" maps
// to tcp:// or ssl://, "websockets" to ws:// or wss://, depending on the
// encryption flag. Any other protocol is used as the URL scheme verbatim.
func BrokerURL(cfg *config.Config) string {
	scheme := cfg.MQTTProtocol
	switch cfg.MQTTProtocol {
	case "tcp":
		if cfg.MQTTUseEncryption {
			scheme = "ssl"
		}
	case "websockets":
		scheme = "ws"
		if cfg.MQTTUseEncryption {
			scheme = "wss"
		}
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.MQTTServer, cfg.MQTTPort)
}

// ClientOptions derives the paho client options for cfg. No connection is
// attempted.
func ClientOptions(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(BrokerURL(cfg)).
		SetClientID(cfg.MQTTClientID).
		SetUsername(cfg.MQTTUsername).
		SetPassword(cfg.MQTTPassword).
		SetAutoReconnect(true)

	if cfg.MQTTUseEncryption {
		opts.SetTLSConfig(&tls.Config{
			InsecureSkipVerify: cfg.MQTTAllowUnvalidated, //nolint:gosec // user opted out of validation
		})
	}
	return opts
}

// NewClient creates an unconnected client from cfg and stores it in the
// provider's handle.
func NewClient(p *Provider, cfg *config.Config) mqtt.Client {
	client := mqtt.NewClient(ClientOptions(cfg))
	p.Instance().SetClient(client)
	return client
}
