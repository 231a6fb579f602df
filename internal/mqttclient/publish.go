package mqttclient

import (
	"fmt"
)

// Publish sends a message to the given topic.
//
// QoS levels:
//   - 0: returns as soon as the transport accepts the message locally
//   - 1, 2: blocks until the transport confirms delivery or the fixed confirm
//     bound elapses
//
// A confirm-bound expiry is not necessarily fatal — the message may still be
// in flight — so it is reported as the distinct ErrPublishUnconfirmed after
// the published counter has been incremented. An outright transport rejection
// is ErrPublishFailed and does not touch the counter.
func (c *Client) Publish(topic string, payload []byte, qos byte, retain bool) error {
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

	token := session.Publish(topic, qos, retain, payload)

	if qos == 0 {
		if err := token.Error(); err != nil {
			return fmt.Errorf("%w: topic %q: %w", ErrPublishFailed, topic, err)
		}
		c.incrementPublished()
		c.logDebug("message published", "topic", topic, "qos", qos, "retain", retain)
		return nil
	}

	if !token.WaitTimeout(publishConfirmTimeout) {
		c.incrementPublished()
		return fmt.Errorf("%w: topic %q: no confirmation within %v",
			ErrPublishUnconfirmed, topic, publishConfirmTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: topic %q: %w", ErrPublishFailed, topic, err)
	}

	c.incrementPublished()
	c.logDebug("message published", "topic", topic, "qos", qos, "retain", retain)
	return nil
}

// PublishString is a convenience wrapper publishing a string payload.
func (c *Client) PublishString(topic, payload string, qos byte, retain bool) error {
	return c.Publish(topic, []byte(payload), qos, retain)
}

func (c *Client) incrementPublished() {
	c.mu.Lock()
	c.published++
	c.mu.Unlock()
}
