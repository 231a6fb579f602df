package mqttclient

import (
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Status is the connection state of the client.
type Status int

// Connection states.
const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

// String returns a human-readable state name.
func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Logger is the optional logging interface accepted by SetLogger.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Client is an MQTT test client owning at most one broker connection.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Transport callbacks run on paho's goroutines; all shared state (status,
//     subscription registry, inboxes, counters) is guarded by one mutex, which
//     is never held across a blocking wait.
//
// Subscriptions and buffered messages are session-independent: they survive
// Disconnect and are resumed/retained across a later Connect.
type Client struct {
	mu      sync.Mutex
	status  Status
	session pahomqtt.Client
	opts    Options

	// subscriptions is the registry of record: topic filter -> QoS. Replayed
	// against the transport on every successful connect.
	subscriptions map[string]byte

	// inboxes buffers inbound messages per concrete topic. Queues are created
	// lazily and never auto-pruned.
	inboxes map[string]*inbox

	published   uint64
	received    uint64
	connectedAt time.Time
	lastMessage time.Time

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a disconnected client with an empty subscription registry.
func New() *Client {
	return &Client{
		subscriptions: make(map[string]byte),
		inboxes:       make(map[string]*inbox),
	}
}

// Connect establishes a connection to the broker described by opts.
//
// It constructs a fresh transport session, applies credentials and TLS
// material, issues the asynchronous connect, and then polls the shared status
// flag until the session is connected or the timeout elapses. The on-connect
// callback replays the subscription registry before the status flips to
// connected, so every previously-registered topic is live again by the time
// Connect returns nil.
//
// Returns ErrConnectionFailed if the broker refuses the connection (the
// refusal reason is wrapped), the TLS material cannot be loaded, or the
// connected state is not reached within opts.ConnectTimeout. A failed attempt
// leaves the client disconnected; retrying is the caller's decision.
func (c *Client) Connect(opts Options) error {
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.status != StatusDisconnected {
		id := c.opts.ClientID
		c.mu.Unlock()
		return fmt.Errorf("%w: already connected as %q", ErrConnectionFailed, id)
	}
	stale := c.session
	c.session = nil
	c.status = StatusConnecting
	c.opts = opts
	c.mu.Unlock()

	// A session left over from a broker-initiated disconnect is dead weight.
	if stale != nil {
		stale.Disconnect(0)
	}

	pahoOpts, err := buildClientOptions(opts)
	if err != nil {
		c.setStatus(StatusDisconnected)
		return err
	}

	pahoOpts.SetOnConnectHandler(func(pahomqtt.Client) {
		c.handleConnect()
	})
	pahoOpts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})
	pahoOpts.SetDefaultPublishHandler(func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.handleMessage(msg)
	})

	session := pahomqtt.NewClient(pahoOpts)
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	c.logDebug("connecting to broker",
		"host", opts.BrokerHost,
		"port", opts.BrokerPort,
		"client_id", opts.ClientID,
		"tls", opts.CACert != "",
	)

	token := session.Connect()
	deadline := time.Now().Add(opts.ConnectTimeout)

	for {
		select {
		case <-token.Done():
			if err := token.Error(); err != nil {
				c.teardown(session)
				return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
			}
		default:
		}

		if c.statusNow() == StatusConnected {
			return nil
		}
		if time.Now().After(deadline) {
			c.teardown(session)
			return fmt.Errorf("%w: broker did not reach connected state within %v",
				ErrConnectionFailed, opts.ConnectTimeout)
		}
		time.Sleep(statusPollInterval)
	}
}

// Disconnect drops the broker connection. Idempotent: calling it while
// disconnected is a no-op. The subscription registry and buffered messages
// are left intact for later inspection or a subsequent Connect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.status = StatusDisconnected
	c.mu.Unlock()

	if session == nil {
		return
	}
	session.Disconnect(disconnectQuiesce)
	c.logInfo("disconnected from broker")
}

// IsConnected reports whether the client currently holds a live connection.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	session := c.session
	status := c.status
	c.mu.Unlock()
	return status == StatusConnected && session != nil && session.IsConnected()
}

// Status returns the current connection state.
func (c *Client) Status() Status {
	return c.statusNow()
}

// SetLogger sets a logger for connection and delivery events. A nil logger
// silences the client.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// handleConnect runs on the transport callback goroutine after a successful
// CONNACK. It replays the subscription registry first and only then flips the
// status flag, so Connect's poll loop cannot return before every registered
// topic is active again.
func (c *Client) handleConnect() {
	c.replaySubscriptions()

	c.mu.Lock()
	c.status = StatusConnected
	c.connectedAt = time.Now()
	c.mu.Unlock()

	c.logInfo("connected to broker")
}

// handleConnectionLost runs when the transport loses the connection without a
// caller-initiated Disconnect. State is updated but nothing is raised: no
// caller blocks on disconnects, and reconnecting is the caller's decision.
func (c *Client) handleConnectionLost(err error) {
	c.mu.Lock()
	c.status = StatusDisconnected
	c.mu.Unlock()

	c.logWarn("unexpected disconnect from broker", "error", err)
}

// replaySubscriptions re-issues every registered topic filter against the
// current session. Failures are logged and skipped; the registry entry stays
// so the next connect tries again.
func (c *Client) replaySubscriptions() {
	c.mu.Lock()
	session := c.session
	subs := make(map[string]byte, len(c.subscriptions))
	for topic, qos := range c.subscriptions {
		subs[topic] = qos
	}
	c.mu.Unlock()

	if session == nil {
		return
	}

	for topic, qos := range subs {
		token := session.Subscribe(topic, qos, nil)
		if !token.WaitTimeout(subscribeAckTimeout) || token.Error() != nil {
			c.logWarn("failed to resume subscription", "topic", topic, "error", token.Error())
			continue
		}
		c.logInfo("resumed subscription", "topic", topic, "qos", qos)
	}
}

// teardown resets the client after a failed connect attempt.
func (c *Client) teardown(session pahomqtt.Client) {
	c.mu.Lock()
	if c.session == session {
		c.session = nil
	}
	c.status = StatusDisconnected
	c.mu.Unlock()

	session.Disconnect(0)
}

func (c *Client) statusNow() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Client) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

// connectedSession returns the live session, or ErrNotConnected.
func (c *Client) connectedSession() (pahomqtt.Client, error) {
	c.mu.Lock()
	session := c.session
	status := c.status
	c.mu.Unlock()

	if status != StatusConnected || session == nil {
		return nil, ErrNotConnected
	}
	return session, nil
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

func (c *Client) logDebug(msg string, args ...any) {
	if l := c.getLogger(); l != nil {
		l.Debug(msg, args...)
	}
}

func (c *Client) logInfo(msg string, args ...any) {
	if l := c.getLogger(); l != nil {
		l.Info(msg, args...)
	}
}

func (c *Client) logWarn(msg string, args ...any) {
	if l := c.getLogger(); l != nil {
		l.Warn(msg, args...)
	}
}
