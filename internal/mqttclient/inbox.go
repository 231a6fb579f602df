package mqttclient

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// inbox is a per-topic FIFO queue of received messages.
//
// Queues are unbounded and never drop: a test run's message volume is small
// and losing a message under assertion would be worse than the memory cost.
// notify carries at most one wakeup token for blocked WaitForMessage callers.
type inbox struct {
	messages []Message
	notify   chan struct{}
}

// ensureInboxLocked returns the topic's queue, creating it lazily.
// Caller must hold c.mu.
func (c *Client) ensureInboxLocked(topic string) *inbox {
	q, ok := c.inboxes[topic]
	if !ok {
		q = &inbox{notify: make(chan struct{}, 1)}
		c.inboxes[topic] = q
	}
	return q
}

// handleMessage runs on the transport callback goroutine for every inbound
// message. It must never block: it appends under the lock and hands a wakeup
// token to at most one waiting caller.
func (c *Client) handleMessage(raw pahomqtt.Message) {
	msg := Message{
		Topic:      raw.Topic(),
		Payload:    append([]byte(nil), raw.Payload()...),
		QoS:        raw.Qos(),
		Retained:   raw.Retained(),
		ReceivedAt: time.Now(),
	}

	c.mu.Lock()
	c.received++
	c.lastMessage = msg.ReceivedAt
	q := c.ensureInboxLocked(msg.Topic)
	q.messages = append(q.messages, msg)
	notify := q.notify
	c.mu.Unlock()

	select {
	case notify <- struct{}{}:
	default:
	}

	c.logDebug("message received",
		"topic", msg.Topic,
		"qos", msg.QoS,
		"retained", msg.Retained,
		"bytes", len(msg.Payload),
	)
}

// WaitForMessage blocks until a message arrives on topic or the timeout
// elapses, returning the oldest undelivered message (FIFO within a topic).
// A non-positive timeout uses the 10s default.
//
// With clearFirst, any already-buffered messages for the topic are discarded
// before waiting — useful to skip stale retained messages and assert on fresh
// traffic only.
//
// Returns ErrTimeout if nothing arrives in time. Safe to call concurrently
// with Disconnect: the wait simply times out once no further messages arrive.
func (c *Client) WaitForMessage(topic string, timeout time.Duration, clearFirst bool) (Message, error) {
	if topic == "" {
		return Message{}, ErrInvalidTopic
	}
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}

	c.mu.Lock()
	q := c.ensureInboxLocked(topic)
	if clearFirst {
		q.messages = nil
		drainNotify(q.notify)
	}
	if msg, ok := c.popLocked(q); ok {
		c.mu.Unlock()
		return msg, nil
	}
	notify := q.notify
	c.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// The lock is held only for the dequeue attempts, never across the wait,
	// so the transport callback goroutine is never starved.
	for {
		select {
		case <-notify:
			c.mu.Lock()
			msg, ok := c.popLocked(q)
			c.mu.Unlock()
			if ok {
				return msg, nil
			}
			// Another consumer drained the queue; keep waiting.
		case <-timer.C:
			return Message{}, fmt.Errorf("%w: no message on topic %q within %v",
				ErrTimeout, topic, timeout)
		}
	}
}

// GetAllMessages drains and returns every buffered message for the topic in
// arrival order. Returns an empty slice when nothing is buffered; never an
// error. Consumption transfers ownership: a second call with no new traffic
// returns nothing.
func (c *Client) GetAllMessages(topic string) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.inboxes[topic]
	if !ok || len(q.messages) == 0 {
		return []Message{}
	}

	out := q.messages
	q.messages = nil
	drainNotify(q.notify)
	return out
}

// ClearMessageQueue discards all buffered messages for the topic. A no-op if
// the topic has no queue yet.
func (c *Client) ClearMessageQueue(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.inboxes[topic]
	if !ok {
		return
	}
	q.messages = nil
	drainNotify(q.notify)
}

// popLocked removes and returns the oldest message. If more remain, the
// wakeup token is re-armed so other blocked waiters make progress.
// Caller must hold c.mu.
func (c *Client) popLocked(q *inbox) (Message, bool) {
	if len(q.messages) == 0 {
		return Message{}, false
	}
	msg := q.messages[0]
	q.messages = q.messages[1:]
	if len(q.messages) > 0 {
		select {
		case q.notify <- struct{}{}:
		default:
		}
	}
	return msg, true
}

// drainNotify removes a pending wakeup token, if any.
func drainNotify(notify chan struct{}) {
	select {
	case <-notify:
	default:
	}
}
