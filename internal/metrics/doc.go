// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Connection strategy attempts and outcomes
//   - Handshake cascade and login fallback outcomes
//   - Readiness probe attempts and time-to-ready
//   - Current session state and deployment mode
package metrics
