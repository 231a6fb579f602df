package mqttclient

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Message is a single received MQTT message. Immutable once constructed;
// reading it out of the inbox transfers ownership to the caller.
type Message struct {
	// Topic is the concrete topic the message was published to, with any
	// subscription wildcards expanded.
	Topic string

	// Payload is the raw message body.
	Payload []byte

	// QoS is the quality-of-service level the message was delivered with.
	QoS byte

	// Retained reports whether the broker delivered this as a retained message.
	Retained bool

	// ReceivedAt is when the transport handed the message to the client.
	ReceivedAt time.Time
}

// JSONField decodes the payload as JSON and resolves a dot-notation path
// (e.g. "device.temperature") into it.
//
// Returns ErrInvalidPayload when the payload is not valid JSON or the path
// does not resolve to a field.
func (m Message) JSONField(path string) (any, error) {
	var data any
	if err := json.Unmarshal(m.Payload, &data); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON: %w", ErrInvalidPayload, err)
	}

	value := data
	for _, field := range strings.Split(path, ".") {
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: field %q not found", ErrInvalidPayload, path)
		}
		value, ok = obj[field]
		if !ok {
			return nil, fmt.Errorf("%w: field %q not found", ErrInvalidPayload, path)
		}
	}
	return value, nil
}
