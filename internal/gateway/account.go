package gateway

import (
	"context"

	"google.golang.org/grpc/metadata"

	"github.com/MetaRPC/PyMT5-sub000/internal/transport"
)

// Account is the deployment-facing handle for one terminal account. Every
// implementation exposes the credentials; everything else is optional and
// probed through the narrow interfaces below. Which subset an implementation
// supports varies by deployment, and the session engine must tolerate any
// combination, including none.
type Account interface {
	Login() uint64
	Password() string
	ServerName() string
}

// Connection strategy interfaces, probed in order by the connection attempt
// sequencer. An account implements whichever its deployment supports; the
// first match wins and is attempted exactly once.
type (
	// Reconnector re-establishes a previously configured connection.
	Reconnector interface {
		Reconnect(ctx context.Context) error
	}

	// Connector establishes the configured connection.
	Connector interface {
		Connect(ctx context.Context) error
	}

	// Starter starts the account's transport machinery.
	Starter interface {
		Start(ctx context.Context) error
	}

	// Initializer performs first-time transport setup.
	Initializer interface {
		Initialize(ctx context.Context) error
	}

	// Opener opens the account's transport.
	Opener interface {
		Open(ctx context.Context) error
	}

	// ServerNameConnector connects by broker server label.
	ServerNameConnector interface {
		ConnectByServerName(ctx context.Context, name string) error
	}

	// HostPortConnector connects to an explicit host and port.
	HostPortConnector interface {
		ConnectByHostPort(ctx context.Context, host string, port int) error
	}
)

// Identity interfaces. A deployment's account may already carry a session
// identity; the engine reuses it when present and writes a generated one
// back through every sink the account exposes.
type (
	// IdentityCarrier exposes an existing session identity, empty if none.
	IdentityCarrier interface {
		SessionID() string
	}

	// IdentitySink accepts a session identity assigned by the engine.
	IdentitySink interface {
		SetSessionID(id string)
	}

	// HeaderProvider produces the metadata headers for outbound calls.
	HeaderProvider interface {
		CallHeaders() metadata.MD
	}
)

// Channel resolution interfaces, probed in order by the transport resolver.
type (
	// ChannelHolder exposes a live channel directly.
	ChannelHolder interface {
		Channel() *transport.Channel
	}

	// ChannelAccessor exposes a channel through a zero-argument accessor.
	// Implementations must be idempotent and side-effect-free: the resolver
	// may call the accessor many times per connection attempt.
	ChannelAccessor interface {
		AcquireChannel() *transport.Channel
	}

	// ClientSetHolder exposes a nested container of transport handles.
	ClientSetHolder interface {
		Clients() *ClientSet
	}
)

// Teardown interfaces, probed in order by the teardown sequencer; the first
// match is called, best-effort.
type (
	Closer interface {
		Close(ctx context.Context) error
	}

	Disconnecter interface {
		Disconnect(ctx context.Context) error
	}

	Shutdowner interface {
		Shutdown(ctx context.Context) error
	}
)

// ClientSet groups the transport handles some gateway builds hang off the
// account object instead of exposing one channel directly.
type ClientSet struct {
	Primary    *transport.Channel
	Trading    *transport.Channel
	MarketData *transport.Channel
}

// First returns the first non-nil channel in the container, or nil.
func (cs *ClientSet) First() *transport.Channel {
	if cs == nil {
		return nil
	}
	for _, ch := range []*transport.Channel{cs.Primary, cs.Trading, cs.MarketData} {
		if ch != nil {
			return ch
		}
	}
	return nil
}
