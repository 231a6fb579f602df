// iotkit CLI - local harness for IoT integration testing.
//
// It runs the embedded MQTT broker and mock REST API, generates the test
// PKI, and offers pub/sub/check commands for poking at a running broker.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smarthome-labs/iot-testkit/internal/infrastructure/config"
	"github.com/smarthome-labs/iot-testkit/internal/infrastructure/logging"
)

// Build-time variables set via ldflags
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "iotkit",
	Short:         "Local test harness for smart-home MQTT and REST scenarios",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("iotkit %s (commit %s, built %s)\n", version, commit, buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file (defaults apply when omitted)")
	rootCmd.AddCommand(versionCmd)
}

// loadConfig returns the effective configuration: file plus environment
// overrides when --config is given, pure defaults plus overrides otherwise.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(cfg.Logging, version)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
