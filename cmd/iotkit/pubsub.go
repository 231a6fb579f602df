package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smarthome-labs/iot-testkit/internal/mqttclient"
)

var pubCmd = &cobra.Command{
	Use:   "pub <topic> <payload>",
	Short: "Publish a message to the configured broker",
	Args:  cobra.ExactArgs(2),
	RunE:  runPub,
}

var subCmd = &cobra.Command{
	Use:   "sub <topic>",
	Short: "Subscribe to a topic and print messages until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE:  runSub,
}

var (
	pubQoS    int
	pubRetain bool
	subQoS    int
)

func init() {
	pubCmd.Flags().IntVarP(&pubQoS, "qos", "q", 1, "Quality of service (0, 1, or 2)")
	pubCmd.Flags().BoolVarP(&pubRetain, "retain", "r", false, "Publish as a retained message")
	subCmd.Flags().IntVarP(&subQoS, "qos", "q", 1, "Quality of service (0, 1, or 2)")
	rootCmd.AddCommand(pubCmd)
	rootCmd.AddCommand(subCmd)
}

// connectClient dials the broker configured in the mqtt section.
func connectClient() (*mqttclient.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg)

	client := mqttclient.New()
	client.SetLogger(log.With("component", "mqtt"))

	err = client.Connect(mqttclient.Options{
		BrokerHost: cfg.MQTT.Host,
		BrokerPort: cfg.MQTT.Port,
		ClientID:   cfg.MQTT.ClientID,
		Username:   cfg.MQTT.Auth.Username,
		Password:   cfg.MQTT.Auth.Password,
		CACert:     cfg.MQTT.TLS.CACert,
		ClientCert: cfg.MQTT.TLS.ClientCert,
		ClientKey:  cfg.MQTT.TLS.ClientKey,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func runPub(_ *cobra.Command, args []string) error {
	client, err := connectClient()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	return client.PublishString(args[0], args[1], byte(pubQoS), pubRetain)
}

func runSub(_ *cobra.Command, args []string) error {
	client, err := connectClient()
	if err != nil {
		return err
	}
	defer client.Disconnect()

	topic := args[0]
	if err := client.Subscribe(topic, byte(subQoS)); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for {
		msg, err := client.WaitForMessage(topic, time.Second, false)
		if err == nil {
			fmt.Printf("[%s] %s %s\n", msg.ReceivedAt.Format(time.RFC3339), msg.Topic, msg.Payload)
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}
