// Package capability implements discovery of the gateway's service surface.
//
// A capability is a named group of related gateway methods (account,
// session, terminal, market-info, ...) that may or may not exist in a given
// deployment. The package keeps an explicit, ordered descriptor table of
// every capability the client knows: its service-path aliases and a cheap
// presence probe. Stubs bind a descriptor to a shared transport channel and
// resolve method aliases at call time; the registry tracks which stubs
// attached for one session.
package capability
