package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
mqtt:
  host: "broker.example.com"
  port: 8883
  client_id: "test-client"
  qos: 1
  tls:
    ca_cert: "/certs/ca/ca.crt"
api:
  host: "127.0.0.1"
  port: 9090
  jwt_secret: "test-secret"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Host != "broker.example.com" {
		t.Errorf("MQTT.Host = %q, want %q", cfg.MQTT.Host, "broker.example.com")
	}

	if cfg.MQTT.Port != 8883 {
		t.Errorf("MQTT.Port = %d, want 8883", cfg.MQTT.Port)
	}

	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}

	// Defaults survive a partial file.
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return Default() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing mqtt host",
			mutate:  func(c *Config) { c.MQTT.Host = "" },
			wantErr: true,
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid mqtt port",
			mutate:  func(c *Config) { c.MQTT.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid api port",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.API.JWTSecret = "" },
			wantErr: true,
		},
		{
			name:    "client cert without key",
			mutate:  func(c *Config) { c.MQTT.TLS.ClientCert = "/certs/client.crt" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	t.Setenv("IOTKIT_MQTT_HOST", "mqtt.example.com")
	t.Setenv("IOTKIT_MQTT_PORT", "8883")
	t.Setenv("IOTKIT_MQTT_USERNAME", "testuser")
	t.Setenv("IOTKIT_MQTT_PASSWORD", "testpass")
	t.Setenv("IOTKIT_API_JWT_SECRET", "env-secret")
	t.Setenv("IOTKIT_CERTS_DIR", "/custom/certs")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Host = %q, want %q", cfg.MQTT.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Port != 8883 {
		t.Errorf("MQTT.Port = %d, want 8883", cfg.MQTT.Port)
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.API.JWTSecret != "env-secret" {
		t.Errorf("API.JWTSecret = %q, want %q", cfg.API.JWTSecret, "env-secret")
	}

	if cfg.Certs.Dir != "/custom/certs" {
		t.Errorf("Certs.Dir = %q, want %q", cfg.Certs.Dir, "/custom/certs")
	}
}

func TestApplyEnvOverrides_IgnoresBadPort(t *testing.T) {
	cfg := Default()
	t.Setenv("IOTKIT_MQTT_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Port != 1883 {
		t.Errorf("MQTT.Port = %d, want default 1883 when override is unparseable", cfg.MQTT.Port)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.MQTT.Port != 1883 {
		t.Errorf("Default MQTT.Port = %d, want 1883", cfg.MQTT.Port)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("Default API.Port = %d, want 8080", cfg.API.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() should validate, got %v", err)
	}
}
