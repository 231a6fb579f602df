package mqttclient

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for the connection to
	// reach the connected state, including subscription replay.
	defaultConnectTimeout = 10 * time.Second

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// defaultWaitTimeout is the default bound for WaitForMessage.
	defaultWaitTimeout = 10 * time.Second

	// statusPollInterval is how often Connect re-checks the status flag.
	statusPollInterval = 100 * time.Millisecond

	// publishConfirmTimeout bounds the wait for a QoS >= 1 delivery
	// confirmation. Deliberately a fixed constant, separate from (and smaller
	// than) the caller-facing operation timeouts.
	publishConfirmTimeout = 5 * time.Second

	// subscribeAckTimeout bounds the wait for subscribe/unsubscribe
	// acknowledgements.
	subscribeAckTimeout = 5 * time.Second

	// disconnectQuiesce is the time in milliseconds the transport is given to
	// flush pending work on disconnect.
	disconnectQuiesce = 250

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Options describes a single broker connection attempt. A fresh Options value
// is passed to every Connect call; the client holds no configuration state
// beyond the connection it owns.
type Options struct {
	// BrokerHost and BrokerPort locate the broker. Both are required.
	BrokerHost string
	BrokerPort int

	// ClientID identifies the session to the broker. When empty a unique
	// timestamp-derived identifier is synthesised to avoid broker-side
	// collisions between test runs.
	ClientID string

	// Username and Password enable password authentication when both set.
	Username string
	Password string

	// CACert is the path to the CA certificate bundle. Setting it enables TLS.
	// ClientCert and ClientKey additionally enable mutual TLS. The paths are
	// handed to the transport as-is; certificate contents are not inspected.
	CACert     string
	ClientCert string
	ClientKey  string

	// KeepAlive is the MQTT keepalive interval. Defaults to 60s.
	KeepAlive time.Duration

	// CleanSession starts a clean broker session. Defaults to true; set
	// ResumeSession to keep broker-side session state across connects.
	ResumeSession bool

	// ConnectTimeout bounds the whole connect operation. Defaults to 10s.
	ConnectTimeout time.Duration
}

// withDefaults validates the options and fills in defaulted fields.
func (o Options) withDefaults() (Options, error) {
	if o.BrokerHost == "" {
		return o, fmt.Errorf("%w: broker host is required", ErrConnectionFailed)
	}
	if o.BrokerPort <= 0 || o.BrokerPort > 65535 {
		return o, fmt.Errorf("%w: invalid broker port %d", ErrConnectionFailed, o.BrokerPort)
	}
	if o.ClientID == "" {
		o.ClientID = fmt.Sprintf("iotkit-%d", time.Now().UnixNano())
	}
	if o.KeepAlive <= 0 {
		o.KeepAlive = defaultKeepAlive
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = defaultConnectTimeout
	}
	return o, nil
}

// buildClientOptions creates paho options for a single connection attempt.
//
// Auto-reconnect and connect-retry are disabled on purpose: reconnecting is
// the caller's decision, and the subscription registry makes a later Connect
// resume where the session left off.
func buildClientOptions(o Options) (*pahomqtt.ClientOptions, error) {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if o.CACert != "" {
		scheme = "ssl"
		tlsConfig, err := newTLSConfig(o.CACert, o.ClientCert, o.ClientKey)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsConfig)
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, o.BrokerHost, o.BrokerPort))

	opts.SetClientID(o.ClientID)
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	opts.SetCleanSession(!o.ResumeSession)
	opts.SetKeepAlive(o.KeepAlive)
	opts.SetConnectTimeout(o.ConnectTimeout)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	// A single router goroutine dispatches inbound messages in arrival order,
	// which is what gives the inbox its per-topic FIFO guarantee.
	opts.SetOrderMatters(true)

	return opts, nil
}

// newTLSConfig assembles the TLS configuration from certificate file paths.
// The CA certificate is required for any TLS connection; a client certificate
// and key pair additionally enable mutual TLS.
func newTLSConfig(caCert, clientCert, clientKey string) (*tls.Config, error) {
	caPEM, err := os.ReadFile(caCert)
	if err != nil {
		return nil, fmt.Errorf("%w: reading CA certificate: %w", ErrConnectionFailed, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("%w: no certificates found in %s", ErrConnectionFailed, caCert)
	}

	cfg := &tls.Config{
		RootCAs:    pool,
		MinVersion: tlsMinVersion,
	}

	if clientCert != "" || clientKey != "" {
		pair, err := tls.LoadX509KeyPair(clientCert, clientKey)
		if err != nil {
			return nil, fmt.Errorf("%w: loading client key pair: %w", ErrConnectionFailed, err)
		}
		cfg.Certificates = []tls.Certificate{pair}
	}

	return cfg, nil
}
