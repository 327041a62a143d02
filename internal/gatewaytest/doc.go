// Package gatewaytest provides an in-process fake gateway for tests.
//
// The fake serves an arbitrary set of services and methods over the same
// JSON codec the real client uses, so tests can model any deployment
// profile: a FULL gateway, a reduced LITE build, or a gateway where
// individual methods exist but fail.
package gatewaytest
