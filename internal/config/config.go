package config

import (
	"net"
	"strconv"
	"time"
)

// TerminalConfig is the root configuration for one terminal client instance.
type TerminalConfig struct {
	Account   AccountConfig   `yaml:"account"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Readiness ReadinessConfig `yaml:"readiness"`
	Stream    StreamConfig    `yaml:"stream"`
	Journal   JournalConfig   `yaml:"journal"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// AccountConfig holds the trading account credentials.
type AccountConfig struct {
	Login      uint64 `yaml:"login"`
	Password   string `yaml:"password"`
	ServerName string `yaml:"server_name"` // broker server label, e.g. "Demo-A"
}

// GatewayConfig holds the gateway endpoint settings.
type GatewayConfig struct {
	Endpoint string        `yaml:"endpoint"` // host:port of the RPC gateway
	Host     string        `yaml:"host"`     // overrides the endpoint host when set
	Port     int           `yaml:"port"`     // overrides the endpoint port when set
	Timeout  time.Duration `yaml:"timeout"`  // per-call timeout
}

// HostPort returns the host and port for explicit host/port connects.
// When Host is unset, the host is derived from the endpoint string.
func (g GatewayConfig) HostPort() (string, int) {
	host := g.Host
	port := g.Port
	if host == "" && g.Endpoint != "" {
		h, p, err := net.SplitHostPort(g.Endpoint)
		if err == nil {
			host = h
			if port == 0 {
				port, _ = strconv.Atoi(p)
			}
		} else {
			host = g.Endpoint
		}
	}
	if port == 0 {
		port = DefaultGatewayPort
	}
	return host, port
}

// ReadinessConfig holds the readiness prober settings.
type ReadinessConfig struct {
	MaxTries      int           `yaml:"max_tries"`
	Delay         time.Duration `yaml:"delay"`
	DefaultSymbol string        `yaml:"default_symbol"` // symbol used by the tick probe
}

// StreamConfig holds tick-stream settings.
type StreamConfig struct {
	Enabled      bool          `yaml:"enabled"`
	URL          string        `yaml:"url"` // websocket URL of the quote feed
	Symbols      []string      `yaml:"symbols"`
	PingTimeout  time.Duration `yaml:"ping_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	BufferSize   int           `yaml:"buffer_size"`
}

// JournalConfig holds the optional session-event journal settings.
type JournalConfig struct {
	Enabled       bool          `yaml:"enabled"`
	DB            DBConfig      `yaml:"db"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
