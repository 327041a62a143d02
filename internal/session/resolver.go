package session

import (
	"github.com/MetaRPC/PyMT5-sub000/internal/capability"
	"github.com/MetaRPC/PyMT5-sub000/internal/gateway"
	"github.com/MetaRPC/PyMT5-sub000/internal/transport"
)

// findChannel probes the known channel storage locations in fixed order and
// returns the first live one with an origin label for logging. Idempotent
// and side-effect-free; called from stub attachment, the low-level
// handshake, and login fallback resolution.
func (e *Engine) findChannel(sc *connContext) (*transport.Channel, string) {
	if sc != nil && sc.channel != nil {
		return sc.channel, "context"
	}

	if h, ok := e.acct.(gateway.ChannelHolder); ok {
		if ch := h.Channel(); ch != nil {
			return ch, "account.channel"
		}
	}

	if a, ok := e.acct.(gateway.ChannelAccessor); ok {
		if ch := a.AcquireChannel(); ch != nil {
			return ch, "account.accessor"
		}
	}

	if c, ok := e.acct.(gateway.ClientSetHolder); ok {
		if ch := c.Clients().First(); ch != nil {
			return ch, "account.clients"
		}
	}

	// Channels reachable through already-attached stubs.
	if sc != nil {
		var found *transport.Channel
		var origin string
		sc.stubs.Each(func(name capability.Name, stub *capability.Stub) bool {
			if ch := stub.Channel(); ch != nil {
				found = ch
				origin = "stub." + string(name)
				return false
			}
			return true
		})
		if found != nil {
			return found, origin
		}
	}

	return nil, ""
}
