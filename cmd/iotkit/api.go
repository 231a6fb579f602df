package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smarthome-labs/iot-testkit/internal/certgen"
	"github.com/smarthome-labs/iot-testkit/internal/mockapi"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the mock REST API until interrupted",
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	// Certificate provisioning only issues real material when the PKI exists.
	var ca *certgen.CA
	if loaded, err := certgen.Load(cfg.Certs.Dir); err == nil {
		ca = loaded
	} else {
		log.Warn("no CA found, provisioning endpoint will return placeholder certificates", "dir", cfg.Certs.Dir)
	}

	server, err := mockapi.New(mockapi.Deps{
		Config:  cfg.API,
		Logger:  log.With("component", "mockapi"),
		CA:      ca,
		Version: version,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := server.Start(ctx); err != nil {
		return err
	}
	log.Info("mock API started", "host", cfg.API.Host, "port", cfg.API.Port)

	<-ctx.Done()
	log.Info("shutdown signal received")
	return server.Close()
}
