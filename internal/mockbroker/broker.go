// Package mockbroker runs an embedded MQTT broker for tests and the iotkit
// CLI. It wraps mochi-mqtt with plain-TCP or TLS/mTLS listeners so broker
// scenarios (including certificate authentication) need no external
// infrastructure.
package mockbroker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
)

// TLSSettings configures the broker's TLS listener.
type TLSSettings struct {
	// CertFile and KeyFile are the broker's server certificate and key.
	CertFile string
	KeyFile  string

	// ClientCAFile, when set, requires clients to present a certificate
	// signed by this CA (mutual TLS).
	ClientCAFile string
}

// Config describes a broker instance.
type Config struct {
	// Port to listen on. Defaults to 1883 (8883 when TLS is set).
	Port int

	// TLS enables a TLS listener instead of plain TCP.
	TLS *TLSSettings
}

// Broker is an embedded MQTT broker.
type Broker struct {
	cfg    Config
	server *mochi.Server

	mu      sync.Mutex
	running bool
}

// New creates a broker. Anonymous connections are allowed: authentication
// scenarios are exercised at the TLS layer, matching the system under test.
func New(cfg Config) (*Broker, error) {
	if cfg.Port <= 0 {
		if cfg.TLS != nil {
			cfg.Port = 8883
		} else {
			cfg.Port = 1883
		}
	}

	server := mochi.New(&mochi.Options{
		InlineClient: true,
	})

	// mochi requires an auth hook; AllowHook admits all clients.
	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, fmt.Errorf("mockbroker: adding allow hook: %w", err)
	}

	return &Broker{cfg: cfg, server: server}, nil
}

// Start brings the listener up and serves in the background.
func (b *Broker) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return errors.New("mockbroker: already running")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	listenerCfg := listeners.Config{
		ID:      fmt.Sprintf("mqtt-%d", b.cfg.Port),
		Address: fmt.Sprintf(":%d", b.cfg.Port),
	}

	if b.cfg.TLS != nil {
		tlsConfig, err := buildTLSConfig(b.cfg.TLS)
		if err != nil {
			return err
		}
		listenerCfg.TLSConfig = tlsConfig
	}

	if err := b.server.AddListener(listeners.NewTCP(listenerCfg)); err != nil {
		return fmt.Errorf("mockbroker: adding listener: %w", err)
	}

	go func() {
		// Serve returns when the server is closed.
		_ = b.server.Serve()
	}()

	b.running = true
	return nil
}

// Stop shuts the broker down. Safe to call on a stopped broker.
func (b *Broker) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return nil
	}
	b.running = false
	return b.server.Close()
}

// IsRunning reports whether the broker is serving.
func (b *Broker) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Port returns the configured listener port.
func (b *Broker) Port() int {
	return b.cfg.Port
}

// Publish injects a message directly through the broker's inline client,
// bypassing any network connection. Useful for simulating device traffic.
func (b *Broker) Publish(topic string, payload []byte, retain bool, qos byte) error {
	if err := b.server.Publish(topic, payload, retain, qos); err != nil {
		return fmt.Errorf("mockbroker: inline publish: %w", err)
	}
	return nil
}

// buildTLSConfig loads the broker certificate and, when a client CA is given,
// turns on mutual TLS verification.
func buildTLSConfig(s *TLSSettings) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(s.CertFile, s.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("mockbroker: loading server key pair: %w", err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	if s.ClientCAFile != "" {
		caPEM, err := os.ReadFile(s.ClientCAFile)
		if err != nil {
			return nil, fmt.Errorf("mockbroker: reading client CA: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("mockbroker: no certificates found in %s", s.ClientCAFile)
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return cfg, nil
}
