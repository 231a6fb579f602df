package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smarthome-labs/iot-testkit/internal/certgen"
	"github.com/smarthome-labs/iot-testkit/internal/mockbroker"
)

var brokerCmd = &cobra.Command{
	Use:   "broker",
	Short: "Run the embedded MQTT broker until interrupted",
	Example: `  # Plain TCP on the default port
  iotkit broker

  # Mutual TLS using the PKI from 'iotkit certs'
  iotkit broker --mtls`,
	RunE: runBroker,
}

var brokerMTLS bool

func init() {
	brokerCmd.Flags().BoolVar(&brokerMTLS, "mtls", false, "Serve TLS and require client certificates")
	rootCmd.AddCommand(brokerCmd)
}

func runBroker(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	brokerCfg := mockbroker.Config{Port: cfg.Broker.Port}
	if brokerMTLS {
		ca, err := certgen.Load(cfg.Certs.Dir)
		if err != nil {
			return fmt.Errorf("loading CA (run 'iotkit certs' first): %w", err)
		}
		certFile, keyFile, err := ca.BrokerCert()
		if err != nil {
			return err
		}
		brokerCfg.Port = cfg.Broker.TLSPort
		brokerCfg.TLS = &mockbroker.TLSSettings{
			CertFile:     certFile,
			KeyFile:      keyFile,
			ClientCAFile: ca.CertPath(),
		}
	}

	broker, err := mockbroker.New(brokerCfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := broker.Start(ctx); err != nil {
		return err
	}
	log.Info("broker started", "port", broker.Port(), "mtls", brokerMTLS)

	<-ctx.Done()
	log.Info("shutdown signal received")
	return broker.Stop()
}
