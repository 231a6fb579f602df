package mqttclient

import "time"

// MetricsSnapshot is a point-in-time copy of the client's counters. Counters
// are monotonically non-decreasing and reset only when the process restarts.
//
// Unlike the REST client's metrics there is no derived latency field here:
// MQTT assertions work from counts and timestamps only.
type MetricsSnapshot struct {
	// MessagesPublished counts publishes accepted by the transport, including
	// QoS >= 1 publishes whose confirmation timed out.
	MessagesPublished uint64

	// MessagesReceived counts messages delivered into the inbox.
	MessagesReceived uint64

	// ConnectionEstablishedAt is when the current (or most recent) connection
	// reached the connected state. Zero if the client never connected.
	ConnectionEstablishedAt time.Time

	// LastMessageAt is when the most recent message arrived. Zero if none has.
	LastMessageAt time.Time
}

// Metrics returns a snapshot of the client's counters. It does not require an
// active connection.
func (c *Client) Metrics() MetricsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return MetricsSnapshot{
		MessagesPublished:       c.published,
		MessagesReceived:        c.received,
		ConnectionEstablishedAt: c.connectedAt,
		LastMessageAt:           c.lastMessage,
	}
}
