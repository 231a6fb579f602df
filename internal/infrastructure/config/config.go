package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the IoT test kit.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Broker  BrokerConfig  `yaml:"broker"`
	API     APIConfig     `yaml:"api"`
	Certs   CertsConfig   `yaml:"certs"`
	Logging LoggingConfig `yaml:"logging"`
}

// MQTTConfig contains settings for the MQTT client under test.
type MQTTConfig struct {
	Host     string         `yaml:"host"`
	Port     int            `yaml:"port"`
	ClientID string         `yaml:"client_id"`
	QoS      int            `yaml:"qos"`
	Auth     MQTTAuthConfig `yaml:"auth"`
	TLS      MQTTTLSConfig  `yaml:"tls"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTTLSConfig contains certificate paths for TLS/mTLS connections.
// TLS is enabled when CACert is set; ClientCert and ClientKey additionally
// enable mutual TLS.
type MQTTTLSConfig struct {
	CACert     string `yaml:"ca_cert"`
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
}

// BrokerConfig contains settings for the embedded mock broker.
type BrokerConfig struct {
	Port    int    `yaml:"port"`
	TLSPort int    `yaml:"tls_port"`
	TLS     bool   `yaml:"tls"`
	MTLS    bool   `yaml:"mtls"`
	Cert    string `yaml:"cert"`
	Key     string `yaml:"key"`
}

// APIConfig contains mock API server settings.
type APIConfig struct {
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	JWTSecret string           `yaml:"jwt_secret"`
	Timeouts  APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CertsConfig contains the test PKI location.
type CertsConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: IOTKIT_SECTION_KEY
// For example: IOTKIT_MQTT_HOST, IOTKIT_API_JWT_SECRET
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults for local use.
func Default() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Host:     "localhost",
			Port:     1883,
			ClientID: "iotkit",
			QoS:      1,
		},
		Broker: BrokerConfig{
			Port:    1883,
			TLSPort: 8883,
		},
		API: APIConfig{
			Host:      "127.0.0.1",
			Port:      8080,
			JWTSecret: "local-dev-secret-do-not-use-in-ci-pipelines",
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Certs: CertsConfig{
			Dir: "./certs",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: IOTKIT_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("IOTKIT_MQTT_HOST"); v != "" {
		cfg.MQTT.Host = v
	}
	if v := os.Getenv("IOTKIT_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Port = port
		}
	}
	if v := os.Getenv("IOTKIT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("IOTKIT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("IOTKIT_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("IOTKIT_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("IOTKIT_API_JWT_SECRET"); v != "" {
		cfg.API.JWTSecret = v
	}
	if v := os.Getenv("IOTKIT_CERTS_DIR"); v != "" {
		cfg.Certs.Dir = v
	}
	if v := os.Getenv("IOTKIT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.MQTT.Host == "" {
		errs = append(errs, "mqtt.host is required")
	}
	if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
		errs = append(errs, "mqtt.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if (c.MQTT.TLS.ClientCert == "") != (c.MQTT.TLS.ClientKey == "") {
		errs = append(errs, "mqtt.tls.client_cert and mqtt.tls.client_key must be set together")
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.JWTSecret == "" {
		errs = append(errs, "api.jwt_secret is required (set IOTKIT_API_JWT_SECRET environment variable)")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}
