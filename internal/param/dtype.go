package param

import "fmt"

// DType identifies the element type of a parameter buffer. All types have a
// fixed bit width so buffers can be serialized without a schema lookup.
type DType uint8

const (
	Invalid DType = iota
	Int32
	Int64
	Float32
	Float64
	Bool
)

// String returns the lowercase spelling used in chain documents.
func (d DType) String() string {
	switch d {
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	default:
		return "invalid"
	}
}

// Size returns the encoded size of one element in bytes.
func (d DType) Size() int {
	switch d {
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	case Bool:
		return 1
	default:
		return 0
	}
}

// IsFloat reports whether the type is a floating-point type.
func (d DType) IsFloat() bool { return d == Float32 || d == Float64 }

// IsInteger reports whether the type is a fixed-width integer type.
func (d DType) IsInteger() bool { return d == Int32 || d == Int64 }

// ParseDType converts a chain-document type name into a DType.
func ParseDType(s string) (DType, error) {
	switch s {
	case "int32":
		return Int32, nil
	case "int64":
		return Int64, nil
	case "float32":
		return Float32, nil
	case "float64":
		return Float64, nil
	case "bool":
		return Bool, nil
	default:
		return Invalid, fmt.Errorf("unknown element type %q", s)
	}
}
