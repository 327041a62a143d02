package gatewaytest

import (
	"context"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"

	"github.com/MetaRPC/PyMT5-sub000/internal/capability"
	_ "github.com/MetaRPC/PyMT5-sub000/internal/transport" // registers the json codec
)

// Handler serves one fake gateway method.
type Handler func(ctx context.Context, req capability.Fields) (capability.Fields, error)

// OK returns a handler that always succeeds with the given response body.
func OK(resp capability.Fields) Handler {
	return func(context.Context, capability.Fields) (capability.Fields, error) {
		return resp, nil
	}
}

// Fail returns a handler that always fails with the given error.
func Fail(err error) Handler {
	return func(context.Context, capability.Fields) (capability.Fields, error) {
		return nil, err
	}
}

// Server is an in-process gateway with a configurable service surface.
// Services and methods not registered answer Unimplemented, exactly like a
// reduced deployment.
type Server struct {
	addr string
	grpc *grpc.Server
	lis  net.Listener

	mu    sync.Mutex
	calls map[string]int
}

// Start launches a fake gateway serving the given services. The outer map
// key is the fully-qualified service name; the inner key is the method name.
func Start(services map[string]map[string]Handler) (*Server, error) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	s := &Server{
		addr:  lis.Addr().String(),
		grpc:  grpc.NewServer(),
		lis:   lis,
		calls: make(map[string]int),
	}

	for svcName, methods := range services {
		desc := &grpc.ServiceDesc{
			ServiceName: svcName,
			HandlerType: (*any)(nil),
		}
		for methodName, h := range methods {
			desc.Methods = append(desc.Methods, grpc.MethodDesc{
				MethodName: methodName,
				Handler:    s.wrap(svcName, methodName, h),
			})
		}
		s.grpc.RegisterService(desc, struct{}{})
	}

	go s.grpc.Serve(lis)
	return s, nil
}

func (s *Server) wrap(service, method string, h Handler) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	full := service + "/" + method
	return func(_ any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
		req := capability.Fields{}
		if err := dec(&req); err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.calls[full]++
		s.mu.Unlock()

		resp, err := h(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp == nil {
			resp = capability.Fields{}
		}
		return resp, nil
	}
}

// Addr returns the listen address ("127.0.0.1:port").
func (s *Server) Addr() string {
	return s.addr
}

// Calls returns how many times service/method was invoked.
func (s *Server) Calls(service, method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[service+"/"+method]
}

// Stop shuts the fake gateway down.
func (s *Server) Stop() {
	s.grpc.Stop()
}
