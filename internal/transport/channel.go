package transport

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Errors
var (
	ErrNoChannel = errors.New("no transport channel")
)

// Channel wraps a gRPC client connection. It is shared read-only by every
// stub bound to it; the only mutation after construction is Close.
type Channel struct {
	conn   *grpc.ClientConn
	target string
}

// NewChannel wraps an established gRPC connection.
func NewChannel(conn *grpc.ClientConn) *Channel {
	if conn == nil {
		return nil
	}
	return &Channel{conn: conn, target: conn.Target()}
}

// Target returns the dial target of the underlying connection.
func (c *Channel) Target() string {
	return c.target
}

// State reports the current connectivity state of the connection.
func (c *Channel) State() connectivity.State {
	return c.conn.GetState()
}

// Invoke issues a unary call against fullMethod ("/service/Method") with the
// given metadata headers, bounded by timeout. req and resp are JSON bodies.
func (c *Channel) Invoke(ctx context.Context, fullMethod string, headers metadata.MD, timeout time.Duration, req, resp any) error {
	if c == nil || c.conn == nil {
		return ErrNoChannel
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if len(headers) > 0 {
		ctx = metadata.NewOutgoingContext(ctx, headers)
	}

	return c.conn.Invoke(ctx, fullMethod, req, resp, grpc.CallContentSubtype(CodecName))
}

// Close releases the underlying connection. Safe to call more than once;
// subsequent closes report the connection as already closed, which callers
// treat as success.
func (c *Channel) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// IsAbsent reports whether err indicates the called service or method does
// not exist in this deployment, as opposed to existing and failing.
func IsAbsent(err error) bool {
	if err == nil {
		return false
	}
	s, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch s.Code() {
	case codes.Unimplemented:
		return true
	case codes.Unknown:
		// Some gateway builds answer unregistered services with Unknown.
		msg := strings.ToLower(s.Message())
		return strings.Contains(msg, "unknown service") || strings.Contains(msg, "unknown method")
	}
	return false
}

// IsUnreachable reports whether err indicates the gateway could not be
// reached at all, so presence of a capability cannot be confirmed.
func IsUnreachable(err error) bool {
	if err == nil {
		return false
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return true
	}
	return false
}
