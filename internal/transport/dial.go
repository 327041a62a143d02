package transport

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// Dial creates a channel to the given endpoint ("host:port"). The connection
// is lazy: the gateway is not contacted until the first call.
func Dial(endpoint string) (*Channel, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("dial: empty endpoint")
	}

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	return NewChannel(conn), nil
}

// DialHostPort creates a channel to an explicit host and port.
func DialHostPort(host string, port int) (*Channel, error) {
	if host == "" {
		return nil, fmt.Errorf("dial: empty host")
	}
	return Dial(net.JoinHostPort(host, strconv.Itoa(port)))
}
