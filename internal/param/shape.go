package param

import "fmt"

// ShapeKind distinguishes the three per-row layouts a parameter can have.
type ShapeKind uint8

const (
	// KindScalar is one element per row.
	KindScalar ShapeKind = iota
	// KindArray is a fixed-length array per row.
	KindArray
	// KindVarArray is a variable-length array per row. The buffer is
	// allocated at a fixed capacity and a separate scalar integer
	// parameter carries each row's live length.
	KindVarArray
)

// Shape describes the per-row layout of a parameter. The leading row
// dimension is not part of the shape; it is fixed per chain instance.
type Shape struct {
	Kind ShapeKind
	// Width is the number of elements per row: 1 for scalars, the array
	// length for fixed arrays, the capacity for variable-length arrays.
	Width int
	// Lengths names the scalar parameter holding per-row lengths. Set
	// only for KindVarArray.
	Lengths string
}

// Scalar returns the shape of a one-element-per-row parameter.
func Scalar() Shape { return Shape{Kind: KindScalar, Width: 1} }

// Array returns the shape of a fixed-length array parameter.
func Array(n int) Shape { return Shape{Kind: KindArray, Width: n} }

// VarArray returns the shape of a variable-length array parameter with the
// given capacity, whose per-row lengths live in the named parameter.
func VarArray(capacity int, lengths string) Shape {
	return Shape{Kind: KindVarArray, Width: capacity, Lengths: lengths}
}

// Equal reports whether two shapes are interchangeable.
func (s Shape) Equal(o Shape) bool {
	return s.Kind == o.Kind && s.Width == o.Width && s.Lengths == o.Lengths
}

// IsScalar reports whether the shape is one element per row.
func (s Shape) IsScalar() bool { return s.Kind == KindScalar }

func (s Shape) String() string {
	switch s.Kind {
	case KindScalar:
		return "scalar"
	case KindArray:
		return fmt.Sprintf("array[%d]", s.Width)
	case KindVarArray:
		return fmt.Sprintf("vararray[cap %d, lengths %q]", s.Width, s.Lengths)
	default:
		return "unknown"
	}
}

func (s Shape) validate() error {
	if s.Width < 1 {
		return fmt.Errorf("shape width must be at least 1, got %d", s.Width)
	}
	if s.Kind == KindScalar && s.Width != 1 {
		return fmt.Errorf("scalar shape must have width 1, got %d", s.Width)
	}
	if s.Kind == KindVarArray && s.Lengths == "" {
		return fmt.Errorf("variable-length shape requires a lengths parameter name")
	}
	return nil
}
