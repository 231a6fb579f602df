package mqttclient

import "errors"

// Domain-specific errors for MQTT test client operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a disconnected client.
	ErrNotConnected = errors.New("mqttclient: not connected to broker")

	// ErrConnectionFailed is returned when a connect attempt times out or is
	// rejected by the broker. The wrapped cause carries the broker's refusal
	// reason (bad credentials, not authorised, ...) when one was reported.
	ErrConnectionFailed = errors.New("mqttclient: connection failed")

	// ErrSubscribeFailed is returned when the transport rejects a subscribe.
	ErrSubscribeFailed = errors.New("mqttclient: subscribe failed")

	// ErrUnsubscribeFailed is returned when the transport rejects an unsubscribe.
	ErrUnsubscribeFailed = errors.New("mqttclient: unsubscribe failed")

	// ErrPublishFailed is returned when the transport rejects a publish outright.
	ErrPublishFailed = errors.New("mqttclient: publish failed")

	// ErrPublishUnconfirmed is returned when a QoS >= 1 publish was accepted by
	// the transport but no delivery confirmation arrived within the confirm
	// bound. The message may still be in flight; the published counter has
	// already been incremented.
	ErrPublishUnconfirmed = errors.New("mqttclient: publish not confirmed")

	// ErrTimeout is returned when a wait for an inbound message elapses with
	// nothing delivered.
	ErrTimeout = errors.New("mqttclient: timed out waiting for message")

	// ErrInvalidQoS is returned when a QoS level outside 0..2 is specified.
	ErrInvalidQoS = errors.New("mqttclient: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("mqttclient: topic cannot be empty")

	// ErrInvalidPayload is returned by JSON assertion helpers when a payload
	// cannot be parsed or a referenced field does not exist.
	ErrInvalidPayload = errors.New("mqttclient: invalid payload")
)
