package mqttclient

import (
	"fmt"
)

// Subscribe registers a topic filter with the broker and records it in the
// subscription registry.
//
// Topic filters can include MQTT wildcards:
//   - + (single level): "home/+/telemetry"
//   - # (multi level):  "home/#"
//
// The registry outlives the connection: once a Subscribe succeeds, the filter
// is re-issued automatically on every later Connect until Unsubscribe is
// called. The topic's inbox queue is created eagerly so tests can wait on it
// immediately.
//
// Returns ErrNotConnected when no connection is live, ErrSubscribeFailed when
// the transport rejects the subscription or the acknowledgement times out.
func (c *Client) Subscribe(topic string, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}

	session, err := c.connectedSession()
	if err != nil {
		return err
	}

	// nil callback routes matching messages to the default publish handler,
	// which feeds the inbox.
	token := session.Subscribe(topic, qos, nil)
	if !token.WaitTimeout(subscribeAckTimeout) {
		return fmt.Errorf("%w: no acknowledgement for %q within %v",
			ErrSubscribeFailed, topic, subscribeAckTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: topic %q: %w", ErrSubscribeFailed, topic, err)
	}

	c.mu.Lock()
	c.subscriptions[topic] = qos
	c.ensureInboxLocked(topic)
	c.mu.Unlock()

	c.logInfo("subscribed", "topic", topic, "qos", qos)
	return nil
}

// Unsubscribe removes a topic filter from the broker and the registry.
//
// Buffered messages for the topic are left intact: unsubscribing stops new
// deliveries but does not discard history a test may still want to assert on.
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	session, err := c.connectedSession()
	if err != nil {
		return err
	}

	token := session.Unsubscribe(topic)
	if !token.WaitTimeout(subscribeAckTimeout) {
		return fmt.Errorf("%w: no acknowledgement for %q within %v",
			ErrUnsubscribeFailed, topic, subscribeAckTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: topic %q: %w", ErrUnsubscribeFailed, topic, err)
	}

	c.mu.Lock()
	delete(c.subscriptions, topic)
	c.mu.Unlock()

	c.logInfo("unsubscribed", "topic", topic)
	return nil
}

// HasSubscription reports whether the exact topic filter is registered.
func (c *Client) HasSubscription(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subscriptions[topic]
	return ok
}

// SubscriptionCount returns the number of registered topic filters.
func (c *Client) SubscriptionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscriptions)
}

// Subscriptions returns a copy of the registry (topic filter -> QoS).
func (c *Client) Subscriptions() map[string]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]byte, len(c.subscriptions))
	for topic, qos := range c.subscriptions {
		out[topic] = qos
	}
	return out
}
