package session

import (
	"context"
	"errors"

	"github.com/MetaRPC/PyMT5-sub000/internal/capability"
	"github.com/MetaRPC/PyMT5-sub000/internal/gateway"
	"github.com/MetaRPC/PyMT5-sub000/internal/metrics"
)

// strategyOutcome classifies one connect strategy attempt.
type strategyOutcome int

const (
	outcomeSkipped strategyOutcome = iota // strategy not applicable here
	outcomeApplied
	outcomeFailed
)

func (o strategyOutcome) String() string {
	switch o {
	case outcomeApplied:
		return "applied"
	case outcomeFailed:
		return "failed"
	}
	return "skipped"
}

type strategy struct {
	name string
	run  func(ctx context.Context, sc *connContext) (strategyOutcome, error)
}

func (e *Engine) primaryStrategies() []strategy {
	return []strategy{
		{name: "generic-connect", run: e.genericConnect},
		{name: "connect-by-server-name", run: e.connectByServerName},
		{name: "connect-by-host-port", run: e.connectByHostPort},
		{name: "low-level-handshake", run: e.lowLevelHandshake},
	}
}

// runPrimaryStrategies drives every primary strategy in order. A failing
// strategy logs and the sequence continues; the sequencer itself never
// fails; readiness probing is what detects that nothing worked.
func (e *Engine) runPrimaryStrategies(ctx context.Context, sc *connContext) {
	for _, st := range e.primaryStrategies() {
		outcome, err := st.run(ctx, sc)
		metrics.ObserveStrategy(st.name, outcome.String())
		e.record("strategy", st.name, outcome.String(), errDetail(err))

		switch outcome {
		case outcomeApplied:
			e.logger.Debug("connect strategy applied", "strategy", st.name)
			if sc.connectedVia == "" {
				sc.connectedVia = st.name
			}
		case outcomeFailed:
			e.logger.Warn("connect strategy failed", "strategy", st.name, "error", err)
		default:
			e.logger.Debug("connect strategy not applicable", "strategy", st.name)
		}
	}
}

// genericConnect runs whichever generic connect ability the account exposes,
// first match wins, single attempt. Also re-invoked once after the FULL-mode
// handshake to nudge connected-state flags.
func (e *Engine) genericConnect(ctx context.Context, sc *connContext) (strategyOutcome, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout())
	defer cancel()

	var err error
	switch a := e.acct.(type) {
	case gateway.Reconnector:
		err = a.Reconnect(callCtx)
	case gateway.Connector:
		err = a.Connect(callCtx)
	case gateway.Starter:
		err = a.Start(callCtx)
	case gateway.Initializer:
		err = a.Initialize(callCtx)
	case gateway.Opener:
		err = a.Open(callCtx)
	default:
		return outcomeSkipped, nil
	}

	if err != nil {
		return outcomeFailed, err
	}
	return outcomeApplied, nil
}

func (e *Engine) connectByServerName(ctx context.Context, sc *connContext) (strategyOutcome, error) {
	name := e.acct.ServerName()
	if name == "" {
		return outcomeSkipped, nil
	}
	c, ok := e.acct.(gateway.ServerNameConnector)
	if !ok {
		return outcomeSkipped, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout())
	defer cancel()

	if err := c.ConnectByServerName(callCtx, name); err != nil {
		return outcomeFailed, err
	}
	return outcomeApplied, nil
}

func (e *Engine) connectByHostPort(ctx context.Context, sc *connContext) (strategyOutcome, error) {
	host, port := e.cfg.Gateway.HostPort()
	if host == "" {
		return outcomeSkipped, nil
	}
	c, ok := e.acct.(gateway.HostPortConnector)
	if !ok {
		return outcomeSkipped, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout())
	defer cancel()

	if err := c.ConnectByHostPort(callCtx, host, port); err != nil {
		return outcomeFailed, err
	}
	return outcomeApplied, nil
}

// lowLevelHandshake issues ConnectEx/Connect requests directly against the
// low-level connection capability, if a channel and the capability exist.
// Each request is isolated: a failure falls through to the next.
func (e *Engine) lowLevelHandshake(ctx context.Context, sc *connContext) (strategyOutcome, error) {
	ch, _ := e.findChannel(sc)
	if ch == nil {
		return outcomeSkipped, nil
	}

	desc, _ := capability.Lookup(capability.Connection)
	stub := capability.NewStub(desc, ch, e.logger)
	req := e.credentialFields(sc)

	var lastErr error
	for _, method := range []string{"ConnectEx", "Connect"} {
		_, err := stub.Call(ctx, sc.headers, e.callTimeout(), method, req)
		if errors.Is(err, capability.ErrNotSupported) {
			continue
		}
		if err != nil {
			lastErr = err
			e.logger.Debug("low-level connect request failed", "method", method, "error", err)
			continue
		}
		return outcomeApplied, nil
	}

	if lastErr != nil {
		return outcomeFailed, lastErr
	}
	return outcomeSkipped, nil
}

// credentialFields builds a request body carrying the account credentials
// under every plausible field spelling.
func (e *Engine) credentialFields(sc *connContext) capability.Fields {
	f := capability.Fields{}
	f.Set(e.acct.Login(), "user", "login")
	f.Set(e.acct.Password(), "password")
	if server := e.acct.ServerName(); server != "" {
		f.Set(server, "server_name", "server")
	}
	if sc != nil && sc.identity != "" {
		f.Set(sc.identity, "session_id")
	}
	if host, port := e.cfg.Gateway.HostPort(); host != "" {
		f.Set(host, "host")
		f.Set(port, "port")
	}
	return f
}
