// Package transport provides the gRPC channel layer for the gateway client.
//
// Calls are encoded with a JSON codec so that request and response field
// names stay dynamic: deployments of the gateway disagree on snake_case vs
// camelCase naming and the client compensates at the field-map level rather
// than through generated types. The package also classifies call errors into
// "capability absent" vs "capability failed", which the session engine uses
// to skip missing services without aborting.
package transport
