// Package processor defines the contract a numeric transform must satisfy
// to run inside a chain, and the registry the chain builder consults to
// resolve processor names.
//
// A processor declares its signature statically (input arity and element
// type constraints, output count with shape and type inference rules) and
// supplies a Build function that binds resolved arguments into a Kernel.
// Kernels compute whole blocks in one pass; a kernel may iterate rows
// internally when the operation demands it.
package processor

import (
	"fmt"

	"github.com/patgo25/pygama/internal/param"
)

// Value is one resolved input argument of an invocation: either a live
// parameter buffer or a numeric constant frozen at build time (a document
// literal or a database lookup).
type Value struct {
	// Buf is the bound parameter buffer, nil for constants.
	Buf *param.Buffer
	// Const holds the constant value when Buf is nil.
	Const float64
	// Lengths is the per-row length buffer when Buf is a variable-length
	// array, nil otherwise.
	Lengths *param.Buffer
}

// IsConst reports whether the value is a build-time constant.
func (v Value) IsConst() bool { return v.Buf == nil }

// Shape returns the effective per-row shape of the value. Constants behave
// like scalars for broadcasting purposes.
func (v Value) Shape() param.Shape {
	if v.Buf == nil {
		return param.Scalar()
	}
	return v.Buf.Shape()
}

// DType returns the effective element type. Constants carry Float64.
func (v Value) DType() param.DType {
	if v.Buf == nil {
		return param.Float64
	}
	return v.Buf.DType()
}

// InputSpec constrains one input slot of a processor.
type InputSpec struct {
	// Name is the slot name used in error messages.
	Name string
	// DTypes lists the accepted element types; nil accepts any.
	DTypes []param.DType
	// AllowConst permits a literal or database constant in this slot.
	AllowConst bool
}

// Accepts reports whether the spec admits the given element type.
func (s InputSpec) Accepts(dt param.DType) bool {
	if len(s.DTypes) == 0 {
		return true
	}
	for _, d := range s.DTypes {
		if d == dt {
			return true
		}
	}
	return false
}

// ShapeRuleKind selects how an output's shape is inferred.
type ShapeRuleKind uint8

const (
	// ShapeSameAs copies the shape of input Ref.
	ShapeSameAs ShapeRuleKind = iota
	// ShapeFixed uses the literal shape in Fixed.
	ShapeFixed
	// ShapeBroadcastOf applies the broadcast rule to inputs A and B.
	ShapeBroadcastOf
	// ShapeCustom delegates inference to the rule's Fn, for outputs whose
	// shape depends on constant arguments (e.g. a window length).
	ShapeCustom
)

// ShapeRule is the declarative shape-inference rule for one output.
type ShapeRule struct {
	Kind  ShapeRuleKind
	Ref   int
	A, B  int
	Fixed param.Shape
	Fn    func(inputs []Value) (param.Shape, error)
}

// SameShapeAs declares an output shaped like input i.
func SameShapeAs(i int) ShapeRule { return ShapeRule{Kind: ShapeSameAs, Ref: i} }

// FixedShape declares an output with a fixed shape.
func FixedShape(s param.Shape) ShapeRule { return ShapeRule{Kind: ShapeFixed, Fixed: s} }

// BroadcastOf declares an output shaped as the broadcast of inputs a and b.
func BroadcastOf(a, b int) ShapeRule { return ShapeRule{Kind: ShapeBroadcastOf, A: a, B: b} }

// CustomShape declares an output whose shape the given function derives
// from the resolved inputs at build time.
func CustomShape(fn func(inputs []Value) (param.Shape, error)) ShapeRule {
	return ShapeRule{Kind: ShapeCustom, Fn: fn}
}

// DTypeRule is the declarative element-type rule for one output. When
// SameAs is non-negative the output copies input SameAs's element type;
// otherwise Fixed applies.
type DTypeRule struct {
	SameAs int
	Fixed  param.DType
}

// SameTypeAs declares an output typed like input i.
func SameTypeAs(i int) DTypeRule { return DTypeRule{SameAs: i} }

// FixedType declares an output with a fixed element type.
func FixedType(dt param.DType) DTypeRule { return DTypeRule{SameAs: -1, Fixed: dt} }

// OutputSpec describes one output slot of a processor.
type OutputSpec struct {
	Name  string
	Shape ShapeRule
	DType DTypeRule
}

// Kernel computes one block. rows is the number of filled rows this block
// (at most the block dimension); the kernel must consult and update the
// mask for per-row numeric failures. Any returned error is structural and
// aborts the run.
type Kernel interface {
	Compute(rows int, mask *param.Mask) error
}

// KernelFunc adapts a function to the Kernel interface.
type KernelFunc func(rows int, mask *param.Mask) error

// Compute implements Kernel.
func (f KernelFunc) Compute(rows int, mask *param.Mask) error { return f(rows, mask) }

// BuildFunc binds resolved inputs and allocated outputs into a Kernel. It
// runs once at chain build time; shape and type checks beyond the declared
// signature belong here so they fail before any block executes.
type BuildFunc func(inputs []Value, outputs []*param.Buffer) (Kernel, error)

// Definition is the static registration record of one processor.
type Definition struct {
	Name        string
	Description string
	Inputs      []InputSpec
	Outputs     []OutputSpec
	// InPlace documents that the processor may write an output aliasing
	// one of its inputs. Without it the builder rejects aliased bindings.
	InPlace bool
	Build   BuildFunc
}

func (d *Definition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("processor definition has no name")
	}
	if d.Build == nil {
		return fmt.Errorf("processor %q has no build function", d.Name)
	}
	if len(d.Outputs) == 0 {
		return fmt.Errorf("processor %q declares no outputs", d.Name)
	}
	for _, out := range d.Outputs {
		if out.Shape.Kind == ShapeCustom && out.Shape.Fn == nil {
			return fmt.Errorf("processor %q output %q: custom shape rule has no function", d.Name, out.Name)
		}
		if out.Shape.Kind == ShapeSameAs && (out.Shape.Ref < 0 || out.Shape.Ref >= len(d.Inputs)) {
			return fmt.Errorf("processor %q output %q: shape rule references input %d of %d",
				d.Name, out.Name, out.Shape.Ref, len(d.Inputs))
		}
		if out.DType.SameAs >= len(d.Inputs) {
			return fmt.Errorf("processor %q output %q: type rule references input %d of %d",
				d.Name, out.Name, out.DType.SameAs, len(d.Inputs))
		}
	}
	return nil
}
