package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "terminal.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
account:
  login: 5012345
  password: secret
  server_name: Demo-A
gateway:
  endpoint: mt5.gateway.example.com:443
readiness:
  default_symbol: GBPUSD
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Account.Login != 5012345 {
		t.Errorf("Account.Login = %d, want %d", cfg.Account.Login, 5012345)
	}
	if cfg.Account.ServerName != "Demo-A" {
		t.Errorf("Account.ServerName = %q, want %q", cfg.Account.ServerName, "Demo-A")
	}
	if cfg.Gateway.Endpoint != "mt5.gateway.example.com:443" {
		t.Errorf("Gateway.Endpoint = %q, want %q", cfg.Gateway.Endpoint, "mt5.gateway.example.com:443")
	}
	if cfg.Readiness.DefaultSymbol != "GBPUSD" {
		t.Errorf("Readiness.DefaultSymbol = %q, want %q", cfg.Readiness.DefaultSymbol, "GBPUSD")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_MT5_PASSWORD", "secret123")

	yaml := `
account:
  login: 5012345
  password: ${TEST_MT5_PASSWORD}
gateway:
  endpoint: localhost:50051
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Account.Password != "secret123" {
		t.Errorf("Account.Password = %q, want %q", cfg.Account.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
account:
  login: 5012345
  password: secret
gateway:
  endpoint: localhost:50051
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Readiness.MaxTries != DefaultMaxTries {
		t.Errorf("Readiness.MaxTries = %d, want %d", cfg.Readiness.MaxTries, DefaultMaxTries)
	}
	if cfg.Readiness.Delay != DefaultProbeDelay {
		t.Errorf("Readiness.Delay = %v, want %v", cfg.Readiness.Delay, DefaultProbeDelay)
	}
	if cfg.Readiness.DefaultSymbol != DefaultSymbol {
		t.Errorf("Readiness.DefaultSymbol = %q, want %q", cfg.Readiness.DefaultSymbol, DefaultSymbol)
	}
	if cfg.Gateway.Timeout != DefaultCallTimeout {
		t.Errorf("Gateway.Timeout = %v, want %v", cfg.Gateway.Timeout, DefaultCallTimeout)
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want %d", cfg.Metrics.Port, DefaultMetricsPort)
	}
}

func TestValidate(t *testing.T) {
	base := func() *TerminalConfig {
		cfg := &TerminalConfig{}
		cfg.Account.Login = 5012345
		cfg.Account.Password = "secret"
		cfg.Gateway.Endpoint = "localhost:50051"
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*TerminalConfig)
		wantErr bool
	}{
		{"valid", func(c *TerminalConfig) {}, false},
		{"missing login", func(c *TerminalConfig) { c.Account.Login = 0 }, true},
		{"missing password", func(c *TerminalConfig) { c.Account.Password = "" }, true},
		{"missing endpoint and host", func(c *TerminalConfig) { c.Gateway.Endpoint = ""; c.Gateway.Host = "" }, true},
		{"host only", func(c *TerminalConfig) { c.Gateway.Endpoint = ""; c.Gateway.Host = "localhost" }, false},
		{"zero max tries", func(c *TerminalConfig) { c.Readiness.MaxTries = 0 }, true},
		{"stream enabled without url", func(c *TerminalConfig) { c.Stream.Enabled = true }, true},
		{"journal enabled without db", func(c *TerminalConfig) { c.Journal.Enabled = true }, true},
		{"bad metrics port", func(c *TerminalConfig) { c.Metrics.Port = 70000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGatewayHostPort(t *testing.T) {
	tests := []struct {
		name     string
		gw       GatewayConfig
		wantHost string
		wantPort int
	}{
		{
			name:     "explicit host and port",
			gw:       GatewayConfig{Host: "10.0.0.1", Port: 50051},
			wantHost: "10.0.0.1",
			wantPort: 50051,
		},
		{
			name:     "derived from endpoint",
			gw:       GatewayConfig{Endpoint: "mt5.example.com:8443"},
			wantHost: "mt5.example.com",
			wantPort: 8443,
		},
		{
			name:     "endpoint without port",
			gw:       GatewayConfig{Endpoint: "mt5.example.com"},
			wantHost: "mt5.example.com",
			wantPort: DefaultGatewayPort,
		},
		{
			name:     "port override keeps endpoint host",
			gw:       GatewayConfig{Endpoint: "mt5.example.com:8443", Port: 9999},
			wantHost: "mt5.example.com",
			wantPort: 9999,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port := tt.gw.HostPort()
			if host != tt.wantHost {
				t.Errorf("host = %q, want %q", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("port = %d, want %d", port, tt.wantPort)
			}
		})
	}
}

func TestLoadAndValidateDuration(t *testing.T) {
	yaml := `
account:
  login: 5012345
  password: secret
gateway:
  endpoint: localhost:50051
  timeout: 5s
readiness:
  max_tries: 6
  delay: 250ms
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
	if cfg.Gateway.Timeout != 5*time.Second {
		t.Errorf("Gateway.Timeout = %v, want %v", cfg.Gateway.Timeout, 5*time.Second)
	}
	if cfg.Readiness.Delay != 250*time.Millisecond {
		t.Errorf("Readiness.Delay = %v, want %v", cfg.Readiness.Delay, 250*time.Millisecond)
	}
}
