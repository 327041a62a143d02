package session

import (
	"strconv"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"

	"github.com/MetaRPC/PyMT5-sub000/internal/gateway"
)

// identityHeaderKeys are the recognized metadata keys a session identity may
// ride under. buildHeaders guarantees at least one is populated.
var identityHeaderKeys = []string{"mt5-session-id", "session-id", "x-session-id"}

// ensureIdentity establishes the session identity: reused from the account
// when it already carries one, generated otherwise, and written back through
// every identity sink the account exposes. Never fails.
func (e *Engine) ensureIdentity(sc *connContext) {
	if c, ok := e.acct.(gateway.IdentityCarrier); ok {
		if id := c.SessionID(); id != "" {
			sc.identity = id
		}
	}

	if sc.identity == "" {
		sc.identity = uuid.NewString()
		e.logger.Debug("generated session identity", "identity", sc.identity)
	}

	if sink, ok := e.acct.(gateway.IdentitySink); ok {
		sink.SetSessionID(sc.identity)
	}
}

// buildHeaders assembles the metadata attached to every outbound call.
// Accounts that can produce their own headers are preferred; otherwise a
// minimal set is synthesized from identity, login, and server name. The
// identity always ends up under a recognized key. Never fails.
func (e *Engine) buildHeaders(sc *connContext) {
	if hp, ok := e.acct.(gateway.HeaderProvider); ok {
		if md := hp.CallHeaders(); len(md) > 0 {
			sc.headers = md.Copy()
			for _, key := range identityHeaderKeys {
				if vals := sc.headers.Get(key); len(vals) > 0 && vals[0] != "" {
					return
				}
			}
			sc.headers.Set("mt5-session-id", sc.identity)
			return
		}
	}

	md := metadata.Pairs(
		"mt5-session-id", sc.identity,
		"mt5-login", strconv.FormatUint(e.acct.Login(), 10),
	)
	if server := e.acct.ServerName(); server != "" {
		md.Set("mt5-server", server)
	}
	sc.headers = md
}

// adoptIdentity switches the context to a server-assigned identity and
// rebuilds the headers, which only happens on identity change.
func (e *Engine) adoptIdentity(sc *connContext, id string) {
	if id == "" || id == sc.identity {
		return
	}
	sc.identity = id
	if sink, ok := e.acct.(gateway.IdentitySink); ok {
		sink.SetSessionID(id)
	}
	e.buildHeaders(sc)
	sc.headers.Set("mt5-session-id", id)
}
