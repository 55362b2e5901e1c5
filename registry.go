package sedes

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/drpcorg/sedes/utils"
)

// Registry is a concurrent name-to-schema index. Declaring code
// registers schemas once at startup; decoding code looks them up by
// name to pick the right wire contract.
type Registry struct {
	schemas *xsync.MapOf[string, *Schema]
	log     utils.Logger
}

func NewRegistry(log utils.Logger) *Registry {
	if log == nil {
		log = utils.NopLogger{}
	}
	return &Registry{
		schemas: xsync.NewMapOf[string, *Schema](),
		log:     log,
	}
}

// Register adds a schema under its name. Registering a second schema
// under the same name is an error.
func (r *Registry) Register(s *Schema) error {
	if _, loaded := r.schemas.LoadOrStore(s.Name(), s); loaded {
		return fmt.Errorf("sedes: schema %s is already registered", s.Name())
	}
	r.log.Debug("registered schema", "name", s.Name(), "fields", s.Arity())
	return nil
}

// Lookup returns the schema registered under name.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	return r.schemas.Load(name)
}

// Range iterates over the registered schemas until fn returns false.
func (r *Registry) Range(fn func(name string, s *Schema) bool) {
	r.schemas.Range(fn)
}

var defaultRegistry = NewRegistry(nil)

// Register adds a schema to the process-wide default registry.
func Register(s *Schema) error { return defaultRegistry.Register(s) }

// Lookup finds a schema in the process-wide default registry.
func Lookup(name string) (*Schema, bool) { return defaultRegistry.Lookup(name) }
