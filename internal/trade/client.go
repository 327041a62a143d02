package trade

import (
	"context"
	"log/slog"

	"github.com/MetaRPC/PyMT5-sub000/internal/capability"
	"github.com/MetaRPC/PyMT5-sub000/internal/session"
)

// Client wraps the session engine with typed trading operations. Every call
// goes through EnsureConnected first, so a dropped session heals
// transparently before the operation runs.
type Client struct {
	eng    *session.Engine
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a trading client over the given engine.
func NewClient(eng *session.Engine, opts ...Option) *Client {
	c := &Client{
		eng:    eng,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call verifies the session and invokes the first supported method alias on
// the named capability. A missing capability reports ErrNotSupported, same
// as a capability present without any of the methods.
func (c *Client) call(ctx context.Context, name capability.Name, methods []string, req capability.Fields) (capability.Fields, error) {
	if err := c.eng.EnsureConnected(ctx); err != nil {
		return nil, err
	}

	stub, ok := c.eng.Stub(name)
	if !ok {
		return nil, capability.ErrNotSupported
	}
	return stub.CallAny(ctx, c.eng.Headers(), c.eng.CallTimeout(), methods, req)
}
