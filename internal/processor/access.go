package processor

import (
	"fmt"

	"github.com/patgo25/pygama/internal/param"
)

// ReadFloat returns a broadcast-aware accessor over one input value,
// converting any numeric element type to float64. Constants and scalars
// repeat across the row's array axis, so kernels can index (row, i)
// uniformly regardless of the bound shape.
func ReadFloat(v Value) (func(row, i int) float64, error) {
	if v.IsConst() {
		c := v.Const
		return func(int, int) float64 { return c }, nil
	}
	buf := v.Buf
	scalar := buf.Shape().IsScalar()
	w := buf.Width()
	idx := func(row, i int) int {
		if scalar {
			return row
		}
		return row*w + i
	}
	switch buf.DType() {
	case param.Float64:
		data := buf.Float64s()
		return func(row, i int) float64 { return data[idx(row, i)] }, nil
	case param.Float32:
		data := buf.Float32s()
		return func(row, i int) float64 { return float64(data[idx(row, i)]) }, nil
	case param.Int32:
		data := buf.Int32s()
		return func(row, i int) float64 { return float64(data[idx(row, i)]) }, nil
	case param.Int64:
		data := buf.Int64s()
		return func(row, i int) float64 { return float64(data[idx(row, i)]) }, nil
	default:
		return nil, fmt.Errorf("parameter %q: element type %s is not numeric", buf.Name(), buf.DType())
	}
}

// WriteFloat returns a (row, i) writer into a floating-point output
// buffer.
func WriteFloat(buf *param.Buffer) (func(row, i int, val float64), error) {
	w := buf.Width()
	switch buf.DType() {
	case param.Float64:
		data := buf.Float64s()
		return func(row, i int, val float64) { data[row*w+i] = val }, nil
	case param.Float32:
		data := buf.Float32s()
		return func(row, i int, val float64) { data[row*w+i] = float32(val) }, nil
	default:
		return nil, fmt.Errorf("parameter %q: element type %s is not floating-point", buf.Name(), buf.DType())
	}
}

// RowLength returns the per-row element count accessor for an input:
// the bound lengths buffer for variable-length arrays (clamped to the
// capacity), the fixed width otherwise.
func RowLength(v Value) func(row int) int {
	width := v.Shape().Width
	if v.Lengths == nil {
		return func(int) int { return width }
	}
	lengths := v.Lengths.Int32s()
	return func(row int) int {
		n := int(lengths[row])
		if n < 0 {
			return 0
		}
		if n > width {
			return width
		}
		return n
	}
}
