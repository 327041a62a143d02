package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultGatewayPort      = 443
	DefaultCallTimeout      = 10 * time.Second
	DefaultMaxTries         = 12
	DefaultProbeDelay       = 500 * time.Millisecond
	DefaultSymbol           = "EURUSD"
	DefaultStreamPing       = 60 * time.Second
	DefaultStreamWrite      = 5 * time.Second
	DefaultStreamBuffer     = 1000
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 4
	DefaultMinConns         = 1
	DefaultJournalBatch     = 100
	DefaultJournalFlush     = 1 * time.Second
	DefaultJournalBuffer    = 1000
	DefaultMetricsPort      = 9090
	DefaultMetricsPath      = "/metrics"
)

func (c *TerminalConfig) applyDefaults() {
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = DefaultCallTimeout
	}

	if c.Readiness.MaxTries == 0 {
		c.Readiness.MaxTries = DefaultMaxTries
	}
	if c.Readiness.Delay == 0 {
		c.Readiness.Delay = DefaultProbeDelay
	}
	if c.Readiness.DefaultSymbol == "" {
		c.Readiness.DefaultSymbol = DefaultSymbol
	}

	if c.Stream.PingTimeout == 0 {
		c.Stream.PingTimeout = DefaultStreamPing
	}
	if c.Stream.WriteTimeout == 0 {
		c.Stream.WriteTimeout = DefaultStreamWrite
	}
	if c.Stream.BufferSize == 0 {
		c.Stream.BufferSize = DefaultStreamBuffer
	}

	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = DefaultJournalBatch
	}
	if c.Journal.FlushInterval == 0 {
		c.Journal.FlushInterval = DefaultJournalFlush
	}
	if c.Journal.BufferSize == 0 {
		c.Journal.BufferSize = DefaultJournalBuffer
	}
	applyDBDefaults(&c.Journal.DB)

	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
