// Package stream implements the tick-stream client.
//
// The client:
//   - Maintains one websocket connection to the gateway's quote feed
//   - Responds to server pings and detects stale connections
//   - Decodes tick frames into a buffered channel, dropping on overflow
//   - Implements the session engine's Stopper contract so teardown
//     closes active streams before the RPC channel
package stream
