// Package param owns the typed, shaped buffers a chain's processors share.
// The registry exclusively owns all buffers: processor invocations borrow
// read/write access for the duration of one block's execution, and nothing
// outside the chain may hold a buffer across block boundaries.
package param

import "fmt"

// Registry holds the named parameter buffers of one chain instance. All
// buffers share the same block row dimension, fixed at construction.
type Registry struct {
	rows    int
	order   []string
	buffers map[string]*Buffer
}

// NewRegistry creates an empty registry whose buffers will all carry the
// given block row dimension.
func NewRegistry(rows int) *Registry {
	if rows < 1 {
		panic(fmt.Sprintf("block row count must be at least 1, got %d", rows))
	}
	return &Registry{rows: rows, buffers: make(map[string]*Buffer)}
}

// Rows returns the block row dimension shared by every buffer.
func (r *Registry) Rows() int { return r.rows }

// Declare creates the buffer for name, or returns the existing one when an
// identical declaration is already present. A redeclaration with a
// different type or shape fails with a ConflictError.
func (r *Registry) Declare(name string, dtype DType, shape Shape, unit string) (*Buffer, error) {
	if err := shape.validate(); err != nil {
		return nil, &ShapeInferenceError{Name: name, Reason: err.Error()}
	}
	if existing, ok := r.buffers[name]; ok {
		if existing.dtype != dtype {
			return nil, &ConflictError{Name: name, Reason: fmt.Sprintf(
				"declared as %s, previously %s", dtype, existing.dtype)}
		}
		if !existing.shape.Equal(shape) {
			return nil, &ConflictError{Name: name, Reason: fmt.Sprintf(
				"declared as %s, previously %s", shape, existing.shape)}
		}
		return existing, nil
	}
	buf := newBuffer(name, dtype, shape, r.rows, unit)
	r.buffers[name] = buf
	r.order = append(r.order, name)
	return buf, nil
}

// Get returns the live buffer for name.
func (r *Registry) Get(name string) (*Buffer, bool) {
	b, ok := r.buffers[name]
	return b, ok
}

// Names returns all parameter names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of declared parameters.
func (r *Registry) Len() int { return len(r.order) }
