package session

import (
	"context"
	"errors"

	"github.com/MetaRPC/PyMT5-sub000/internal/capability"
	"github.com/MetaRPC/PyMT5-sub000/internal/metrics"
)

// detectMode determines whether this deployment exposes the session and
// terminal handshake capabilities. Both present means FULL; either missing
// means LITE and the handshake is skipped entirely. Computed exactly once
// per connection attempt and never re-evaluated mid-session.
func (e *Engine) detectMode(ctx context.Context, sc *connContext) Mode {
	sessionStub := e.attachIfPresent(ctx, sc, capability.Session)
	terminalStub := e.attachIfPresent(ctx, sc, capability.Terminal)

	if sessionStub != nil && terminalStub != nil {
		return ModeFull
	}
	return ModeLite
}

// attachIfPresent resolves and attaches the named capability when the
// deployment has it. Already-attached stubs are returned as-is.
func (e *Engine) attachIfPresent(ctx context.Context, sc *connContext, name capability.Name) *capability.Stub {
	if stub, ok := sc.stubs.Get(name); ok {
		return stub
	}

	desc, ok := capability.Lookup(name)
	if !ok {
		return nil
	}

	stub := capability.NewStub(desc, sc.channel, e.logger)
	if !stub.Present(ctx, sc.headers, e.callTimeout()) {
		return nil
	}

	sc.stubs.Attach(stub)
	return stub
}

// litePing issues a single best-effort keep-alive instead of the handshake.
func (e *Engine) litePing(ctx context.Context, sc *connContext) {
	stub, ok := sc.stubs.Get(capability.AccountHelper)
	if !ok {
		return
	}
	if _, err := stub.Call(ctx, sc.headers, e.callTimeout(), "Ping", nil); err != nil {
		e.logger.Debug("lite keep-alive ping failed", "error", err)
	}
}

type handshakeStep struct {
	name string
	// run returns capability.ErrNotSupported when the step does not apply
	// in this deployment.
	run func(ctx context.Context, sc *connContext) error
}

func (e *Engine) handshakeSteps() []handshakeStep {
	return []handshakeStep{
		{name: "session-open", run: e.openSession},
		{name: "terminal-login", run: e.terminalLogin},
		{name: "terminal-is-alive", run: e.terminalIsAlive},
		{name: "helper-ping", run: e.helperPing},
	}
}

// handshake drives the FULL-mode activation cascade: candidates in order,
// first success wins, every failure is caught and logged before falling
// through. Afterwards, success or exhaustion, the generic connect
// strategy is re-invoked once, since some gateway builds only flip their
// connected-state flags after a handshake happened.
func (e *Engine) handshake(ctx context.Context, sc *connContext) {
	for _, step := range e.handshakeSteps() {
		err := step.run(ctx, sc)
		switch {
		case err == nil:
			metrics.ObserveHandshake(step.name, "ok")
			e.record("handshake", step.name, "ok", "")
			e.logger.Debug("handshake step succeeded", "step", step.name)
			e.nudgeConnect(ctx, sc)
			return
		case errors.Is(err, capability.ErrNotSupported):
			metrics.ObserveHandshake(step.name, "unsupported")
			e.record("handshake", step.name, "unsupported", "")
		default:
			metrics.ObserveHandshake(step.name, "failed")
			e.record("handshake", step.name, "failed", errDetail(err))
			e.logger.Warn("handshake step failed", "step", step.name, "error", err)
		}
	}

	e.logger.Warn("handshake cascade exhausted without success")
	e.nudgeConnect(ctx, sc)
}

func (e *Engine) nudgeConnect(ctx context.Context, sc *connContext) {
	if outcome, err := e.genericConnect(ctx, sc); outcome == outcomeFailed {
		e.logger.Debug("post-handshake connect nudge failed", "error", err)
	}
}

func (e *Engine) openSession(ctx context.Context, sc *connContext) error {
	stub, ok := sc.stubs.Get(capability.Session)
	if !ok {
		return capability.ErrNotSupported
	}

	resp, err := stub.CallAny(ctx, sc.headers, e.callTimeout(),
		[]string{"OpenSession", "SessionOpen"}, e.credentialFields(sc))
	if err != nil {
		return err
	}

	// The gateway may assign its own session identity; adopt it.
	if id, ok := resp.GetString("session_id"); ok {
		e.adoptIdentity(sc, id)
	}
	return nil
}

func (e *Engine) terminalLogin(ctx context.Context, sc *connContext) error {
	stub, ok := sc.stubs.Get(capability.Terminal)
	if !ok {
		return capability.ErrNotSupported
	}
	_, err := stub.CallAny(ctx, sc.headers, e.callTimeout(),
		[]string{"TerminalLogin", "Login"}, e.credentialFields(sc))
	return err
}

func (e *Engine) terminalIsAlive(ctx context.Context, sc *connContext) error {
	stub, ok := sc.stubs.Get(capability.Terminal)
	if !ok {
		return capability.ErrNotSupported
	}
	_, err := stub.CallAny(ctx, sc.headers, e.callTimeout(),
		[]string{"IsAlive", "CheckAlive"}, nil)
	return err
}

func (e *Engine) helperPing(ctx context.Context, sc *connContext) error {
	stub, ok := sc.stubs.Get(capability.AccountHelper)
	if !ok {
		return capability.ErrNotSupported
	}
	_, err := stub.Call(ctx, sc.headers, e.callTimeout(), "Ping", nil)
	return err
}
