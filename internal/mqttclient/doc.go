// Package mqttclient provides the MQTT test client used to drive broker
// scenarios in integration tests and from the iotkit CLI.
//
// This package manages:
//   - A single broker connection with optional TLS/mTLS authentication
//   - A subscription registry replayed automatically on every (re)connect
//   - Per-topic inbound message queues with blocking wait-with-timeout
//   - QoS-aware publishing with a bounded delivery-confirmation wait
//   - Counters and timestamps for published/received messages
//
// # Architecture
//
// The client sits between a test driver and the paho transport. Paho runs
// network I/O and callback dispatch on its own goroutines; the client turns
// those callbacks into state mutations under a single coordination mutex, so
// callers can freely mix Subscribe/Publish/WaitForMessage from test code with
// concurrent broker traffic.
//
//	Test driver ↔ mqttclient ↔ paho transport ↔ MQTT broker
//
// Subscriptions are registry-of-record: broker-side state is derivative and
// re-established from the registry whenever a connection is made. Dropping the
// connection (or the broker dropping it) never discards subscriptions or
// buffered messages; only an explicit Unsubscribe or ClearMessageQueue does.
//
// # Usage
//
//	c := mqttclient.New()
//	err := c.Connect(mqttclient.Options{BrokerHost: "localhost", BrokerPort: 1883})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Disconnect()
//
//	_ = c.Subscribe("home/+/status", 1)
//	_ = c.Publish("home/device001/command", []byte(`{"action":"turn_on"}`), 1, false)
//
//	msg, err := c.WaitForMessage("home/device001/status", 5*time.Second, false)
//
// The client never reconnects on its own: after a connection loss the caller
// decides whether to call Connect again, at which point every registered
// subscription is resumed before Connect returns.
package mqttclient
