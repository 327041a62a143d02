package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *TerminalConfig) Validate() error {
	if c.Account.Login == 0 {
		return errors.New("account.login is required")
	}
	if c.Account.Password == "" {
		return errors.New("account.password is required")
	}

	if c.Gateway.Endpoint == "" && c.Gateway.Host == "" {
		return errors.New("gateway.endpoint or gateway.host is required")
	}
	if c.Gateway.Port != 0 && (c.Gateway.Port < 1 || c.Gateway.Port > 65535) {
		return fmt.Errorf("gateway.port must be between 1 and 65535, got %d", c.Gateway.Port)
	}

	if c.Readiness.MaxTries < 1 {
		return errors.New("readiness.max_tries must be >= 1")
	}
	if c.Readiness.Delay <= 0 {
		return errors.New("readiness.delay must be > 0")
	}

	if c.Stream.Enabled && c.Stream.URL == "" {
		return errors.New("stream.url is required when stream.enabled is true")
	}

	if c.Journal.Enabled {
		if err := c.Journal.DB.validate("journal.db"); err != nil {
			return err
		}
		if c.Journal.BatchSize < 1 {
			return errors.New("journal.batch_size must be >= 1")
		}
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
