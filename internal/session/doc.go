// Package session implements the adaptive connection and readiness engine.
//
// The engine:
//   - Runs the primary connect strategies in a fixed order, tolerating
//     gateways that support only a subset of them
//   - Resolves a usable gRPC channel from whichever surface the account
//     object exposes
//   - Attaches capability stubs for the services the deployment serves
//     and detects FULL versus LITE mode
//   - Performs the session/terminal handshake in FULL mode and a login
//     fallback when no account capability attached
//   - Gates readiness on a bounded probe loop and tears everything down
//     in reverse order on disconnect
package session
