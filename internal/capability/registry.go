package capability

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/metadata"

	"github.com/MetaRPC/PyMT5-sub000/internal/transport"
)

// Registry holds the stubs attached for one session. Entries are added,
// never removed, until the session is torn down. The populated key set is
// the effective capability set for the remainder of the session.
//
// The registry has no internal locking: it is owned by a single connection
// context and accessed under the engine's serialization (one connection
// attempt in flight at a time).
type Registry struct {
	logger *slog.Logger
	stubs  map[Name]*Stub
}

// NewRegistry creates an empty stub registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger: logger,
		stubs:  make(map[Name]*Stub),
	}
}

// AttachAll attaches a stub for every registry-set capability present in
// this deployment, skipping absent ones silently. Idempotent: capabilities
// already attached are never reconstructed.
func (r *Registry) AttachAll(ctx context.Context, ch *transport.Channel, headers metadata.MD, timeout time.Duration) {
	for _, desc := range RegistrySet() {
		if _, ok := r.stubs[desc.Name]; ok {
			continue
		}

		stub := NewStub(desc, ch, r.logger)
		if !stub.Present(ctx, headers, timeout) {
			r.logger.Debug("capability absent in this deployment", "capability", desc.Name)
			continue
		}

		r.stubs[desc.Name] = stub
		r.logger.Debug("capability attached", "capability", desc.Name)
	}
}

// Attach registers a stub under its capability name. Existing entries are
// kept; returns false if the name was already attached.
func (r *Registry) Attach(stub *Stub) bool {
	if _, ok := r.stubs[stub.Name()]; ok {
		return false
	}
	r.stubs[stub.Name()] = stub
	return true
}

// AttachAs registers a stub under an explicit key, regardless of the stub's
// own capability name. Used by the login fallback to session-bind a
// login-capable stub as the account capability.
func (r *Registry) AttachAs(name Name, stub *Stub) bool {
	if _, ok := r.stubs[name]; ok {
		return false
	}
	r.stubs[name] = stub
	return true
}

// Get returns the stub attached under the given capability name.
func (r *Registry) Get(name Name) (*Stub, bool) {
	stub, ok := r.stubs[name]
	return stub, ok
}

// Has reports whether a stub is attached under the given name.
func (r *Registry) Has(name Name) bool {
	_, ok := r.stubs[name]
	return ok
}

// Len returns the number of attached stubs.
func (r *Registry) Len() int {
	return len(r.stubs)
}

// Names returns the attached capability names in unspecified order.
func (r *Registry) Names() []Name {
	names := make([]Name, 0, len(r.stubs))
	for name := range r.stubs {
		names = append(names, name)
	}
	return names
}

// Each calls fn for every attached stub until fn returns false.
func (r *Registry) Each(fn func(Name, *Stub) bool) {
	for name, stub := range r.stubs {
		if !fn(name, stub) {
			return
		}
	}
}
