package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smarthome-labs/iot-testkit/internal/certgen"
)

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "Generate the test PKI (CA, broker, and client certificates)",
	Example: `  # Generate under the configured certs dir
  iotkit certs

  # Issue an extra device certificate from an existing CA
  iotkit certs --device sensor-042`,
	RunE: runCerts,
}

var certsDevice string

func init() {
	certsCmd.Flags().StringVar(&certsDevice, "device", "", "Issue a certificate for this device ID from the existing CA")
	rootCmd.AddCommand(certsCmd)
}

func runCerts(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	if certsDevice != "" {
		ca, err := certgen.Load(cfg.Certs.Dir)
		if err != nil {
			return fmt.Errorf("loading CA (run 'iotkit certs' first): %w", err)
		}
		certPath, keyPath, err := ca.DeviceCert(certsDevice)
		if err != nil {
			return err
		}
		log.Info("device certificate issued", "cert", certPath, "key", keyPath)
		return nil
	}

	ca, err := certgen.Generate(cfg.Certs.Dir)
	if err != nil {
		return err
	}
	log.Info("CA generated", "cert", ca.CertPath())

	brokerCert, brokerKey, err := ca.BrokerCert()
	if err != nil {
		return err
	}
	log.Info("broker certificate issued", "cert", brokerCert, "key", brokerKey)

	clientCert, clientKey, err := ca.ClientCert("testkit")
	if err != nil {
		return err
	}
	log.Info("client certificate issued", "cert", clientCert, "key", clientKey)

	return nil
}
