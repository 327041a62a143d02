// Package gateway defines the deployment-facing account surface.
//
// An Account wraps whatever handle a deployment gives the client: the
// standard TerminalAccount dials the gateway itself, while vendor SDK builds
// substitute their own. The session engine never assumes more than the
// credentials; every other ability (connect strategies, identity storage,
// header production, channel access, teardown) is an optional narrow
// interface the engine probes for in a fixed order.
package gateway
