package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc/metadata"

	"github.com/MetaRPC/PyMT5-sub000/internal/capability"
	"github.com/MetaRPC/PyMT5-sub000/internal/config"
	"github.com/MetaRPC/PyMT5-sub000/internal/gateway"
	"github.com/MetaRPC/PyMT5-sub000/internal/metrics"
)

// Errors
var (
	// ErrConnectFailed is the single terminal connect error. The message is
	// stable: callers match it to detect "must reconnect / check
	// credentials" conditions.
	ErrConnectFailed = errors.New("mt5 connection failed: session never became ready, check credentials and server availability")
)

const (
	// warmupDelay lets asynchronous server-side warm-up settle between the
	// primary connect strategies and readiness probing.
	warmupDelay = 500 * time.Millisecond

	teardownTimeout = 2 * time.Second
)

// Stopper is an active subscription or stream the teardown sequencer must
// stop before the channel closes.
type Stopper interface {
	Stop()
}

// Engine turns a static configuration into a live, usable RPC session with
// attached capability stubs, tolerant to unknown or missing capabilities.
// It manages exactly one logical session; concurrent calls serialize on the
// engine's mutex, and no connection attempt ever runs in parallel with
// itself.
type Engine struct {
	cfg      *config.TerminalConfig
	acct     gateway.Account
	logger   *slog.Logger
	recorder Recorder

	mu      sync.Mutex
	sctx    *connContext
	streams []Stopper
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRecorder sets the event recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// New creates an engine for the given configuration and account handle.
func New(cfg *config.TerminalConfig, acct gateway.Account, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		acct:     acct,
		logger:   slog.Default(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Connect establishes a fresh session. Calling it on an already-connected
// engine tears the old session down and rebuilds. On failure the context is
// fully torn down and safe to retry; the only error ever returned is
// ErrConnectFailed.
func (e *Engine) Connect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connectLocked(ctx)
}

// Disconnect tears the session down. Always succeeds from the caller's
// point of view and is safe to call at any point, including before any
// connect completed and repeatedly.
func (e *Engine) Disconnect(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.teardownLocked(ctx)
}

// EnsureConnected verifies the session with one cheap probe and reconnects
// transparently on failure. Transient probe failures never surface: they
// trigger one full connect cycle, and only that cycle's terminal failure is
// returned.
func (e *Engine) EnsureConnected(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sctx != nil && e.sctx.state == StateReady {
		if _, ok := e.probeOnce(ctx, e.sctx); ok {
			return nil
		}
		e.logger.Warn("session probe failed, reconnecting")
	}

	return e.connectLocked(ctx)
}

// RegisterStream hands an active stream to the engine for teardown.
func (e *Engine) RegisterStream(s Stopper) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.streams = append(e.streams, s)
}

// State returns the current session state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sctx == nil {
		return StateDisconnected
	}
	return e.sctx.state
}

// Mode returns the deployment mode of the current session. Only meaningful
// once the session advanced past stub attachment.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sctx == nil {
		return ModeFull
	}
	return e.sctx.mode
}

// Identity returns the session identity token, empty when disconnected.
func (e *Engine) Identity() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sctx == nil {
		return ""
	}
	return e.sctx.identity
}

// Headers returns the metadata attached to outbound calls. The returned MD
// is shared read-only; callers must not mutate it.
func (e *Engine) Headers() metadata.MD {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sctx == nil {
		return nil
	}
	return e.sctx.headers
}

// Stub returns the stub attached under the given capability name.
func (e *Engine) Stub(name capability.Name) (*capability.Stub, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sctx == nil {
		return nil, false
	}
	return e.sctx.stubs.Get(name)
}

// CallTimeout returns the configured per-call timeout.
func (e *Engine) CallTimeout() time.Duration {
	return e.callTimeout()
}

func (e *Engine) callTimeout() time.Duration {
	if e.cfg.Gateway.Timeout > 0 {
		return e.cfg.Gateway.Timeout
	}
	return config.DefaultCallTimeout
}

// connectLocked drives the full connection sequence. Caller holds e.mu.
func (e *Engine) connectLocked(ctx context.Context) error {
	// A connect on a live context rebuilds from scratch.
	e.teardownLocked(ctx)

	sc := newConnContext(e.logger)
	e.sctx = sc
	e.setState(sc, StateConnecting)

	e.ensureIdentity(sc)
	e.buildHeaders(sc)

	e.runPrimaryStrategies(ctx, sc)
	sleepCtx(ctx, warmupDelay)

	ch, origin := e.findChannel(sc)
	if ch == nil {
		// Without a transport nothing can be probed, not even the mode.
		e.logger.Error("no transport channel resolved")
		e.setState(sc, StateFailed)
		e.teardownLocked(ctx)
		return ErrConnectFailed
	}
	sc.channel = ch
	sc.channelOrigin = origin

	sc.stubs.AttachAll(ctx, ch, sc.headers, e.callTimeout())
	e.setState(sc, StateStubsAttached)
	e.logger.Info("capability stubs attached",
		"capabilities", sc.stubs.Names(),
		"channel_origin", origin,
	)

	sc.mode = e.detectMode(ctx, sc)
	metrics.SetSessionMode(sc.mode.String())
	e.record("mode", sc.mode.String(), "", "")
	e.logger.Info("deployment mode detected", "mode", sc.mode)

	if sc.mode == ModeFull {
		e.handshake(ctx, sc)
	} else {
		e.litePing(ctx, sc)
	}

	if !sc.stubs.Has(capability.Account) {
		e.setState(sc, StateAuthenticating)
		e.loginFallback(ctx, sc)
	}

	if err := e.waitReady(ctx, sc); err != nil {
		e.setState(sc, StateFailed)
		e.teardownLocked(ctx)
		return err
	}

	e.setState(sc, StateReady)
	metrics.ObserveTimeToReady(time.Since(sc.startedAt))
	e.logger.Info("session ready",
		"mode", sc.mode,
		"connected_via", sc.connectedVia,
		"capabilities", sc.stubs.Names(),
	)
	return nil
}

func (e *Engine) setState(sc *connContext, s State) {
	sc.state = s
	metrics.SetSessionState(int(s))
	e.record("state", s.String(), "", "")
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
