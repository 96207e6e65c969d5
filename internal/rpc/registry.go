package rpc

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/shareserver/internal/session"
)

var (
	// ErrDuplicateProcedure is returned when (service, procedure) is already bound.
	ErrDuplicateProcedure = errors.New("duplicate procedure")

	// ErrUnknownService is returned when no procedure is registered under the service.
	ErrUnknownService = errors.New("unknown service")

	// ErrUnknownProcedure is returned when the service exists but the procedure does not.
	ErrUnknownProcedure = errors.New("unknown procedure")

	// ErrInvalidName is returned for an empty service or procedure name, or a nil handler.
	ErrInvalidName = errors.New("invalid procedure binding")

	// ErrRegistryClosed is returned when registering after Build.
	ErrRegistryClosed = errors.New("registry already built")
)

// Descriptor is the immutable binding of one procedure.
type Descriptor struct {
	Service      string
	Procedure    string
	MinPrivilege session.Privilege
	Handler      Handler
}

// Method returns "Service.procedure".
func (d Descriptor) Method() string {
	return d.Service + "." + d.Procedure
}

// Registry collects procedure bindings during startup. It is not safe for
// concurrent use; register everything from a single init routine, then call
// Build.
type Registry struct {
	services map[string]map[string]Descriptor
	built    bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{services: make(map[string]map[string]Descriptor)}
}

// Register binds handler to (service, procedure) with the given minimum
// privilege.
func (r *Registry) Register(service, procedure string, min session.Privilege, handler Handler) error {
	if r.built {
		return fmt.Errorf("register %s.%s: %w", service, procedure, ErrRegistryClosed)
	}
	if service == "" || procedure == "" || handler == nil {
		return fmt.Errorf("register %q.%q: %w", service, procedure, ErrInvalidName)
	}

	procs, ok := r.services[service]
	if !ok {
		procs = make(map[string]Descriptor)
		r.services[service] = procs
	}
	if _, exists := procs[procedure]; exists {
		return fmt.Errorf("register %s.%s: %w", service, procedure, ErrDuplicateProcedure)
	}

	procs[procedure] = Descriptor{
		Service:      service,
		Procedure:    procedure,
		MinPrivilege: min,
		Handler:      handler,
	}
	return nil
}

// MustRegister is Register that panics on error. Intended for static
// registration tables where a failure is a programming mistake.
func (r *Registry) MustRegister(service, procedure string, min session.Privilege, handler Handler) {
	if err := r.Register(service, procedure, min, handler); err != nil {
		panic("rpc: " + err.Error())
	}
}

// Build freezes the registry into a Table. The registry rejects further
// registration afterwards.
func (r *Registry) Build() *Table {
	r.built = true

	services := make(map[string]map[string]Descriptor, len(r.services))
	for name, procs := range r.services {
		copied := make(map[string]Descriptor, len(procs))
		for proc, desc := range procs {
			copied[proc] = desc
		}
		services[name] = copied
	}
	return &Table{services: services}
}

// Table is the read-only procedure lookup produced by Registry.Build.
type Table struct {
	services map[string]map[string]Descriptor
}

// Resolve looks up a procedure.
func (t *Table) Resolve(service, procedure string) (Descriptor, error) {
	if t == nil {
		return Descriptor{}, fmt.Errorf("resolve %s.%s: %w", service, procedure, ErrUnknownService)
	}
	procs, ok := t.services[service]
	if !ok {
		return Descriptor{}, fmt.Errorf("resolve %s.%s: %w", service, procedure, ErrUnknownService)
	}
	desc, ok := procs[procedure]
	if !ok {
		return Descriptor{}, fmt.Errorf("resolve %s.%s: %w", service, procedure, ErrUnknownProcedure)
	}
	return desc, nil
}

// Descriptors returns all bindings sorted by service then procedure.
func (t *Table) Descriptors() []Descriptor {
	if t == nil {
		return []Descriptor{}
	}
	out := make([]Descriptor, 0)
	for _, procs := range t.services {
		for _, desc := range procs {
			out = append(out, desc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Service != out[j].Service {
			return out[i].Service < out[j].Service
		}
		return out[i].Procedure < out[j].Procedure
	})
	return out
}

// Len returns the number of registered procedures.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, procs := range t.services {
		n += len(procs)
	}
	return n
}
