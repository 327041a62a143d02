package session

import (
	"log/slog"
	"time"

	"google.golang.org/grpc/metadata"

	"github.com/MetaRPC/PyMT5-sub000/internal/capability"
	"github.com/MetaRPC/PyMT5-sub000/internal/transport"
)

// State is the lifecycle state of one connection context. Transitions are
// monotonic forward; the only reset is teardown back to disconnected.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateStubsAttached
	StateAuthenticating
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateStubsAttached:
		return "stubs-attached"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Mode is the deployment profile detected for one session.
type Mode int

const (
	// ModeFull marks a deployment exposing the session and terminal
	// handshake capabilities.
	ModeFull Mode = iota

	// ModeLite marks a reduced deployment lacking them; readiness criteria
	// are relaxed accordingly.
	ModeLite
)

func (m Mode) String() string {
	if m == ModeLite {
		return "lite"
	}
	return "full"
}

// connContext owns the state of one logical session. It is created fresh on
// every connect, never reused across reconnects, and destroyed by the
// teardown sequencer. It has no internal locking: the engine serializes all
// access (one connection attempt in flight per engine).
type connContext struct {
	identity      string
	headers       metadata.MD
	channel       *transport.Channel
	channelOrigin string
	stubs         *capability.Registry
	mode          Mode
	state         State
	connectedVia  string
	startedAt     time.Time
}

func newConnContext(logger *slog.Logger) *connContext {
	return &connContext{
		stubs:     capability.NewRegistry(logger),
		state:     StateDisconnected,
		startedAt: time.Now(),
	}
}
