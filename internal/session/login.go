package session

import (
	"context"
	"errors"

	"github.com/MetaRPC/PyMT5-sub000/internal/capability"
	"github.com/MetaRPC/PyMT5-sub000/internal/metrics"
)

// loginMethods are the method names that look like a login across gateway
// builds, tried in order.
var loginMethods = []string{"Login", "ConnectAccount", "Authorize", "AccountLogin"}

// loginFallback locates any login-capable capability in the deployment and
// session-binds the first that authenticates as the account capability.
// Only invoked when the registry attached no canonical account stub: the
// capability that can authenticate is not guaranteed to be the one
// registered under the account key.
func (e *Engine) loginFallback(ctx context.Context, sc *connContext) bool {
	stub := e.discoverLoginCapableStub(ctx, sc)
	if stub == nil {
		e.logger.Warn("no login-capable capability found in this deployment")
		metrics.ObserveLogin("no-capability")
		e.record("login", "", "no-capability", "")
		return false
	}

	if !e.attemptLogin(ctx, sc, stub) {
		e.logger.Warn("login fallback failed on every method", "capability", stub.Name())
		metrics.ObserveLogin("failed")
		e.record("login", string(stub.Name()), "failed", "")
		return false
	}

	sc.stubs.AttachAs(capability.Account, stub)
	metrics.ObserveLogin("ok")
	e.record("login", string(stub.Name()), "ok", "")
	e.logger.Info("login fallback succeeded", "capability", stub.Name())
	return true
}

// discoverLoginCapableStub scans every capability in the descriptor table
// (the full table, not just the registry set) for one exposing a
// login-shaped method, and returns the first live match bound to the
// resolved channel.
func (e *Engine) discoverLoginCapableStub(ctx context.Context, sc *connContext) *capability.Stub {
	ch, _ := e.findChannel(sc)
	if ch == nil {
		return nil
	}

	for _, desc := range capability.Table() {
		stub := capability.NewStub(desc, ch, e.logger)
		for _, method := range loginMethods {
			if stub.Supports(ctx, sc.headers, e.callTimeout(), method) {
				e.logger.Debug("login-capable capability found",
					"capability", desc.Name,
					"method", method,
				)
				return stub
			}
		}
	}
	return nil
}

// loginRequestShapes returns the request layouts tried against a login
// method, most common first. Credential fields are assigned under every
// plausible spelling.
func (e *Engine) loginRequestShapes(sc *connContext) []capability.Fields {
	full := e.credentialFields(sc)

	compact := capability.Fields{}
	compact.Set(e.acct.Login(), "account_id")
	compact.Set(e.acct.Password(), "password")

	hostShape := capability.Fields{}
	hostShape.Set(e.acct.Login(), "user")
	hostShape.Set(e.acct.Password(), "password")
	if host, port := e.cfg.Gateway.HostPort(); host != "" {
		hostShape.Set(host, "host")
		hostShape.Set(port, "port")
	}

	return []capability.Fields{full, compact, hostShape}
}

// attemptLogin invokes every login-shaped method on the stub, with every
// request shape, until one succeeds or all fail.
func (e *Engine) attemptLogin(ctx context.Context, sc *connContext, stub *capability.Stub) bool {
	for _, req := range e.loginRequestShapes(sc) {
		for _, method := range loginMethods {
			_, err := stub.Call(ctx, sc.headers, e.callTimeout(), method, req)
			if errors.Is(err, capability.ErrNotSupported) {
				continue
			}
			if err != nil {
				e.logger.Debug("login attempt failed",
					"capability", stub.Name(),
					"method", method,
					"error", err,
				)
				continue
			}
			return true
		}
	}
	return false
}
