package session

import (
	"testing"

	"google.golang.org/grpc/metadata"

	"github.com/MetaRPC/PyMT5-sub000/internal/gateway"
)

// headerAccount carries a preset identity and produces its own call headers.
type headerAccount struct {
	bareAccount
	sessionID string
	headers   metadata.MD
}

func (a *headerAccount) SessionID() string      { return a.sessionID }
func (a *headerAccount) SetSessionID(id string) { a.sessionID = id }
func (a *headerAccount) CallHeaders() metadata.MD {
	return a.headers
}

func TestEnsureIdentity(t *testing.T) {
	t.Run("reuses identity the account carries", func(t *testing.T) {
		acct := &headerAccount{sessionID: "carried-id"}
		eng := New(testConfig(""), acct, WithLogger(testLogger()))

		sc := newConnContext(testLogger())
		eng.ensureIdentity(sc)

		if sc.identity != "carried-id" {
			t.Errorf("identity = %q, want %q", sc.identity, "carried-id")
		}
	})

	t.Run("generates and writes back when absent", func(t *testing.T) {
		acct := &headerAccount{}
		eng := New(testConfig(""), acct, WithLogger(testLogger()))

		sc := newConnContext(testLogger())
		eng.ensureIdentity(sc)

		if sc.identity == "" {
			t.Fatal("identity not generated")
		}
		if acct.sessionID != sc.identity {
			t.Errorf("account sessionID = %q, want %q", acct.sessionID, sc.identity)
		}
	})

	t.Run("generates without a sink", func(t *testing.T) {
		eng := New(testConfig(""), &bareAccount{}, WithLogger(testLogger()))

		sc := newConnContext(testLogger())
		eng.ensureIdentity(sc)

		if sc.identity == "" {
			t.Error("identity not generated")
		}
	})
}

func TestBuildHeaders(t *testing.T) {
	t.Run("synthesizes minimal headers", func(t *testing.T) {
		cfg := testConfig("")
		acct := gateway.NewTerminalAccount(cfg, testLogger())
		eng := New(cfg, acct, WithLogger(testLogger()))

		sc := newConnContext(testLogger())
		eng.ensureIdentity(sc)
		eng.buildHeaders(sc)

		if got := sc.headers.Get("mt5-session-id"); len(got) == 0 || got[0] != sc.identity {
			t.Errorf("mt5-session-id = %v, want %q", got, sc.identity)
		}
		if got := sc.headers.Get("mt5-login"); len(got) == 0 || got[0] != "12345" {
			t.Errorf("mt5-login = %v, want 12345", got)
		}
		if got := sc.headers.Get("mt5-server"); len(got) == 0 || got[0] != "Broker-Demo" {
			t.Errorf("mt5-server = %v, want Broker-Demo", got)
		}
	})

	t.Run("prefers account headers carrying a recognized key", func(t *testing.T) {
		acct := &headerAccount{
			sessionID: "carried-id",
			headers:   metadata.Pairs("session-id", "carried-id", "x-vendor", "v"),
		}
		eng := New(testConfig(""), acct, WithLogger(testLogger()))

		sc := newConnContext(testLogger())
		eng.ensureIdentity(sc)
		eng.buildHeaders(sc)

		if got := sc.headers.Get("session-id"); len(got) == 0 || got[0] != "carried-id" {
			t.Errorf("session-id = %v, want carried-id", got)
		}
		if got := sc.headers.Get("x-vendor"); len(got) == 0 || got[0] != "v" {
			t.Errorf("vendor header lost: %v", got)
		}
	})

	t.Run("injects identity into account headers lacking one", func(t *testing.T) {
		acct := &headerAccount{
			sessionID: "carried-id",
			headers:   metadata.Pairs("x-vendor", "v"),
		}
		eng := New(testConfig(""), acct, WithLogger(testLogger()))

		sc := newConnContext(testLogger())
		eng.ensureIdentity(sc)
		eng.buildHeaders(sc)

		if got := sc.headers.Get("mt5-session-id"); len(got) == 0 || got[0] != "carried-id" {
			t.Errorf("mt5-session-id = %v, want carried-id", got)
		}
	})

	t.Run("does not mutate the account's own metadata", func(t *testing.T) {
		orig := metadata.Pairs("x-vendor", "v")
		acct := &headerAccount{sessionID: "carried-id", headers: orig}
		eng := New(testConfig(""), acct, WithLogger(testLogger()))

		sc := newConnContext(testLogger())
		eng.ensureIdentity(sc)
		eng.buildHeaders(sc)

		if len(orig.Get("mt5-session-id")) != 0 {
			t.Error("account metadata mutated by header assembly")
		}
	})
}

func TestAdoptIdentity(t *testing.T) {
	acct := &headerAccount{}
	eng := New(testConfig(""), acct, WithLogger(testLogger()))

	sc := newConnContext(testLogger())
	eng.ensureIdentity(sc)
	eng.buildHeaders(sc)
	generated := sc.identity

	t.Run("empty and unchanged ids are ignored", func(t *testing.T) {
		eng.adoptIdentity(sc, "")
		eng.adoptIdentity(sc, generated)
		if sc.identity != generated {
			t.Errorf("identity = %q, want %q", sc.identity, generated)
		}
	})

	t.Run("server-assigned id replaces identity and headers", func(t *testing.T) {
		eng.adoptIdentity(sc, "srv-2")

		if sc.identity != "srv-2" {
			t.Errorf("identity = %q, want srv-2", sc.identity)
		}
		if got := sc.headers.Get("mt5-session-id"); len(got) == 0 || got[0] != "srv-2" {
			t.Errorf("mt5-session-id = %v, want srv-2", got)
		}
		if acct.sessionID != "srv-2" {
			t.Errorf("account sessionID = %q, want srv-2", acct.sessionID)
		}
	})
}
