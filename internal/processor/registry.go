package processor

import (
	"fmt"
	"log/slog"
)

// Module is the interface built-in processor packages implement to register
// their definitions with a registry.
type Module interface {
	Register(r *Registry)
}

// Registry maps processor names to their definitions. It is populated once
// at startup and read-only afterwards; the chain builder consults it to
// resolve stage processor names.
type Registry struct {
	defs  map[string]*Definition
	order []string
}

// NewRegistry creates an empty processor registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition. A duplicate name or an invalid definition is
// a programmer error and panics.
func (r *Registry) Register(def *Definition) {
	if err := def.validate(); err != nil {
		panic(err.Error())
	}
	if _, exists := r.defs[def.Name]; exists {
		panic(fmt.Sprintf("processor %q already registered", def.Name))
	}
	slog.Debug("Registering processor.", "name", def.Name)
	r.defs[def.Name] = def
	r.order = append(r.order, def.Name)
}

// Lookup returns the definition for name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Names returns all registered processor names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
