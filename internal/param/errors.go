package param

import "fmt"

// ConflictError reports a parameter redeclared with an incompatible type or
// shape, or a parameter written by more than one stage.
type ConflictError struct {
	Name   string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("parameter %q: conflicting declaration: %s", e.Name, e.Reason)
}

// ShapeInferenceError reports a parameter whose type or shape could not be
// determined from the chain document and processor signatures.
type ShapeInferenceError struct {
	Name   string
	Reason string
}

func (e *ShapeInferenceError) Error() string {
	return fmt.Sprintf("parameter %q: cannot infer shape: %s", e.Name, e.Reason)
}
