package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/MetaRPC/PyMT5-sub000/internal/config"
	"github.com/MetaRPC/PyMT5-sub000/internal/transport"
)

// Errors
var (
	ErrNoEndpoint = errors.New("no gateway endpoint configured")
)

// TerminalAccount is the standard Account implementation: it dials the
// configured gateway endpoint itself and carries the session identity the
// engine assigns. Deployments with vendor SDK handles substitute their own
// Account implementation instead.
type TerminalAccount struct {
	cfg    *config.TerminalConfig
	logger *slog.Logger

	mu        sync.Mutex
	sessionID string
	ch        *transport.Channel
}

// NewTerminalAccount creates the standard account handle for cfg.
func NewTerminalAccount(cfg *config.TerminalConfig, logger *slog.Logger) *TerminalAccount {
	if logger == nil {
		logger = slog.Default()
	}
	return &TerminalAccount{cfg: cfg, logger: logger}
}

// Login returns the account number.
func (a *TerminalAccount) Login() uint64 { return a.cfg.Account.Login }

// Password returns the account password.
func (a *TerminalAccount) Password() string { return a.cfg.Account.Password }

// ServerName returns the broker server label, empty if not configured.
func (a *TerminalAccount) ServerName() string { return a.cfg.Account.ServerName }

// SessionID returns the current session identity, empty before assignment.
func (a *TerminalAccount) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionID
}

// SetSessionID stores the session identity assigned by the engine.
func (a *TerminalAccount) SetSessionID(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessionID = id
}

// Connect dials the configured endpoint. With a live channel already in
// hand it is a no-op, so repeated connect nudges never invalidate stubs
// bound to the current channel.
func (a *TerminalAccount) Connect(ctx context.Context) error {
	a.mu.Lock()
	connected := a.ch != nil
	a.mu.Unlock()
	if connected {
		return nil
	}

	if a.cfg.Gateway.Endpoint == "" {
		host, port := a.cfg.Gateway.HostPort()
		return a.dialHostPort(host, port)
	}

	ch, err := transport.Dial(a.cfg.Gateway.Endpoint)
	if err != nil {
		return err
	}
	a.setChannel(ch)
	return nil
}

// ConnectByServerName dials the configured endpoint for the given broker
// server label. The standard gateway resolves the label server-side, so the
// label only needs to reach it in call headers; the dial target is the
// configured endpoint.
func (a *TerminalAccount) ConnectByServerName(ctx context.Context, name string) error {
	if a.cfg.Gateway.Endpoint == "" {
		return ErrNoEndpoint
	}
	return a.Connect(ctx)
}

// ConnectByHostPort dials an explicit host and port.
func (a *TerminalAccount) ConnectByHostPort(ctx context.Context, host string, port int) error {
	return a.dialHostPort(host, port)
}

func (a *TerminalAccount) dialHostPort(host string, port int) error {
	ch, err := transport.DialHostPort(host, port)
	if err != nil {
		return err
	}
	a.setChannel(ch)
	return nil
}

// Channel returns the dialed channel, nil before any connect succeeded.
func (a *TerminalAccount) Channel() *transport.Channel {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ch
}

// Close releases the dialed channel.
func (a *TerminalAccount) Close(ctx context.Context) error {
	a.mu.Lock()
	ch := a.ch
	a.ch = nil
	a.mu.Unlock()

	if ch == nil {
		return nil
	}
	return ch.Close()
}

func (a *TerminalAccount) setChannel(ch *transport.Channel) {
	a.mu.Lock()
	old := a.ch
	a.ch = ch
	a.mu.Unlock()

	// A repeated connect replaces the channel; release the previous one.
	if old != nil && old != ch {
		old.Close()
	}
}
