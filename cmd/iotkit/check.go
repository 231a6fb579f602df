package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Round-trip smoke test against the configured broker",
	Long: `Connects to the configured broker, subscribes to a unique topic,
publishes a probe message, and waits for it to come back. Exits non-zero
if any step fails.`,
	RunE: runCheck,
}

var checkTimeout time.Duration

func init() {
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 5*time.Second, "How long to wait for the probe to return")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(_ *cobra.Command, _ []string) error {
	client, err := connectClient()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	topic := fmt.Sprintf("iotkit/check/%s", uuid.NewString())
	if err := client.Subscribe(topic, 1); err != nil {
		return err
	}

	probe := fmt.Sprintf("probe-%d", time.Now().UnixNano())
	if err := client.PublishString(topic, probe, 1, false); err != nil {
		return err
	}

	msg, err := client.WaitForMessage(topic, checkTimeout, false)
	if err != nil {
		return fmt.Errorf("probe did not return: %w", err)
	}
	if string(msg.Payload) != probe {
		return fmt.Errorf("probe mismatch: sent %q, received %q", probe, msg.Payload)
	}

	metrics := client.Metrics()
	fmt.Printf("ok: round trip on %s (published=%d received=%d)\n",
		topic, metrics.MessagesPublished, metrics.MessagesReceived)
	return nil
}
