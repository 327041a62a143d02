package capability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/metadata"

	"github.com/MetaRPC/PyMT5-sub000/internal/transport"
)

// Errors
var (
	// ErrNotSupported reports that no service alias of the capability
	// implements the requested method in this deployment. Callers treat it
	// as "not applicable", distinct from a call that existed and failed.
	ErrNotSupported = errors.New("capability method not supported")
)

// Stub is a typed client for one capability, bound to a shared channel.
// The channel is never mutated through the stub.
type Stub struct {
	desc   Descriptor
	ch     *transport.Channel
	logger *slog.Logger
}

// NewStub binds a capability descriptor to a channel.
func NewStub(desc Descriptor, ch *transport.Channel, logger *slog.Logger) *Stub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stub{desc: desc, ch: ch, logger: logger}
}

// Name returns the capability name.
func (s *Stub) Name() Name {
	return s.desc.Name
}

// Channel returns the transport channel the stub is bound to.
func (s *Stub) Channel() *transport.Channel {
	return s.ch
}

// Call invokes method on the first service alias that implements it.
// Returns ErrNotSupported when every alias reports the method absent.
func (s *Stub) Call(ctx context.Context, headers metadata.MD, timeout time.Duration, method string, req Fields) (Fields, error) {
	if req == nil {
		req = Fields{}
	}

	for _, svc := range s.desc.Services {
		fullMethod := "/" + svc + "/" + method
		resp := Fields{}

		err := s.ch.Invoke(ctx, fullMethod, headers, timeout, req, &resp)
		if transport.IsAbsent(err) {
			s.logger.Debug("capability method absent, trying next alias",
				"capability", s.desc.Name,
				"method", fullMethod,
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		return resp, nil
	}

	return nil, ErrNotSupported
}

// CallAny invokes the first of the given method aliases that is implemented.
// Returns ErrNotSupported only when every alias is absent; a method that
// exists and fails ends the cascade with its error.
func (s *Stub) CallAny(ctx context.Context, headers metadata.MD, timeout time.Duration, methods []string, req Fields) (Fields, error) {
	for _, method := range methods {
		resp, err := s.Call(ctx, headers, timeout, method, req)
		if errors.Is(err, ErrNotSupported) {
			continue
		}
		return resp, err
	}
	return nil, ErrNotSupported
}

// Supports reports whether any service alias implements the given method.
// The method is invoked with an empty body: a rejection (bad argument,
// unauthenticated) still proves the method exists.
func (s *Stub) Supports(ctx context.Context, headers metadata.MD, timeout time.Duration, method string) bool {
	for _, svc := range s.desc.Services {
		fullMethod := "/" + svc + "/" + method
		resp := Fields{}

		err := s.ch.Invoke(ctx, fullMethod, headers, timeout, Fields{}, &resp)
		if err == nil {
			return true
		}
		if transport.IsAbsent(err) || transport.IsUnreachable(err) {
			continue
		}
		return true
	}
	return false
}

// Present reports whether the capability exists in this deployment, using
// the descriptor's probe method. An unreachable gateway counts as absent:
// presence cannot be confirmed.
func (s *Stub) Present(ctx context.Context, headers metadata.MD, timeout time.Duration) bool {
	return s.Supports(ctx, headers, timeout, s.desc.Probe)
}
