package mockbroker

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/smarthome-labs/iot-testkit/internal/mqttclient"
)

func getFreePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestBroker_StartStop(t *testing.T) {
	broker, err := New(Config{Port: getFreePort(t)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if broker.IsRunning() {
		t.Error("IsRunning() = true before Start")
	}

	if err := broker.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !broker.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}

	// Starting twice is an error.
	if err := broker.Start(context.Background()); err == nil {
		t.Error("second Start() returned nil, want error")
	}

	if err := broker.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if broker.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}

	// Stop is idempotent.
	if err := broker.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestBroker_DefaultPort(t *testing.T) {
	broker, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if broker.Port() != 1883 {
		t.Errorf("Port() = %d, want 1883", broker.Port())
	}

	tlsBroker, err := New(Config{TLS: &TLSSettings{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if tlsBroker.Port() != 8883 {
		t.Errorf("Port() with TLS = %d, want 8883", tlsBroker.Port())
	}
}

func TestBroker_StartCancelledContext(t *testing.T) {
	broker, err := New(Config{Port: getFreePort(t)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := broker.Start(ctx); err == nil {
		t.Error("Start() with cancelled context returned nil, want error")
		_ = broker.Stop()
	}
}

func TestBroker_InlinePublish(t *testing.T) {
	port := getFreePort(t)
	broker, err := New(Config{Port: port})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := broker.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = broker.Stop() })
	time.Sleep(100 * time.Millisecond)

	client := mqttclient.New()
	err = client.Connect(mqttclient.Options{
		BrokerHost: "127.0.0.1",
		BrokerPort: port,
		ClientID:   "broker-inline-test",
	})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(client.Disconnect)

	topic := "devices/sim/telemetry"
	if err := client.Subscribe(topic, 1); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	// Inline publish simulates device traffic without a network client.
	if err := broker.Publish(topic, []byte(`{"temp":19}`), false, 1); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	msg, err := client.WaitForMessage(topic, 5*time.Second, false)
	if err != nil {
		t.Fatalf("WaitForMessage() error = %v", err)
	}
	if string(msg.Payload) != `{"temp":19}` {
		t.Errorf("payload = %q, want %q", msg.Payload, `{"temp":19}`)
	}
}

func TestBroker_TLSBadCertPaths(t *testing.T) {
	broker, err := New(Config{
		Port: getFreePort(t),
		TLS: &TLSSettings{
			CertFile: "/nonexistent/broker.crt",
			KeyFile:  "/nonexistent/broker.key",
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := broker.Start(context.Background()); err == nil {
		t.Error("Start() with bad cert paths returned nil, want error")
		_ = broker.Stop()
	}
}
