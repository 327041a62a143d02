package session

import (
	"context"

	"github.com/MetaRPC/PyMT5-sub000/internal/capability"
	"github.com/MetaRPC/PyMT5-sub000/internal/gateway"
)

// teardownLocked releases every session resource in reverse acquisition
// order: streams first, then a best-effort server logout, then whatever
// disconnect hook the account exposes, and finally the channel. Every step
// is best-effort; teardown never fails. Caller holds e.mu.
func (e *Engine) teardownLocked(ctx context.Context) {
	for _, s := range e.streams {
		s.Stop()
	}
	e.streams = nil

	sc := e.sctx
	if sc == nil {
		return
	}

	// Teardown must finish even when the caller's context is already gone.
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()

	if stub, ok := sc.stubs.Get(capability.Account); ok {
		if _, err := stub.CallAny(tctx, sc.headers, teardownTimeout,
			[]string{"Logout", "Disconnect"}, nil); err != nil {
			e.logger.Debug("server-side logout skipped", "error", err)
		}
	}

	var err error
	switch a := e.acct.(type) {
	case gateway.Closer:
		err = a.Close(tctx)
	case gateway.Disconnecter:
		err = a.Disconnect(tctx)
	case gateway.Shutdowner:
		err = a.Shutdown(tctx)
	}
	if err != nil {
		e.logger.Debug("account disconnect hook failed", "error", err)
	}

	if sc.channel != nil {
		if err := sc.channel.Close(); err != nil {
			e.logger.Debug("channel close failed", "error", err)
		}
	}

	e.setState(sc, StateDisconnected)
	e.record("teardown", sc.connectedVia, "done", "")
	e.sctx = nil
}
