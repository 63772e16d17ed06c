// Package cast provides the element type conversion built-ins astype_int32,
// astype_int64, astype_float32, and astype_float64. Integer casts round to
// nearest; a value that does not fit the target type masks its row rather
// than wrapping silently.
package cast

import (
	"math"

	"github.com/patgo25/pygama/internal/param"
	"github.com/patgo25/pygama/internal/processor"
)

// Module implements processor.Module for this package.
type Module struct{}

// Register registers the cast processors.
func (m *Module) Register(r *processor.Registry) {
	r.Register(castDef("astype_float64", param.Float64))
	r.Register(castDef("astype_float32", param.Float32))
	r.Register(castDef("astype_int32", param.Int32))
	r.Register(castDef("astype_int64", param.Int64))
}

func castDef(name string, target param.DType) *processor.Definition {
	return &processor.Definition{
		Name:        name,
		Description: "Converts elements to " + target.String() + ".",
		Inputs: []processor.InputSpec{
			{Name: "a", DTypes: []param.DType{param.Int32, param.Int64, param.Float32, param.Float64}},
		},
		Outputs: []processor.OutputSpec{
			{Name: "out", Shape: processor.SameShapeAs(0), DType: processor.FixedType(target)},
		},
		Build: func(inputs []processor.Value, outputs []*param.Buffer) (processor.Kernel, error) {
			read, err := processor.ReadFloat(inputs[0])
			if err != nil {
				return nil, err
			}
			length := processor.RowLength(inputs[0])
			out := outputs[0]
			write, inRange := writer(out)
			return processor.KernelFunc(func(rows int, mask *param.Mask) error {
				for r := 0; r < rows; r++ {
					if !mask.Valid(r) {
						out.SetSentinel(r)
						continue
					}
					ok := true
					for i := 0; i < length(r); i++ {
						v := read(r, i)
						if !inRange(v) {
							ok = false
							break
						}
						write(r, i, v)
					}
					if !ok {
						out.SetSentinel(r)
						mask.Invalidate(r)
					}
				}
				return nil
			}), nil
		},
	}
}

// writer returns the element writer and the range predicate for a cast
// target. Float targets accept anything, including NaN.
func writer(out *param.Buffer) (func(r, i int, v float64), func(v float64) bool) {
	w := out.Width()
	switch out.DType() {
	case param.Float64:
		data := out.Float64s()
		return func(r, i int, v float64) { data[r*w+i] = v },
			func(float64) bool { return true }
	case param.Float32:
		data := out.Float32s()
		return func(r, i int, v float64) { data[r*w+i] = float32(v) },
			func(float64) bool { return true }
	case param.Int32:
		data := out.Int32s()
		return func(r, i int, v float64) { data[r*w+i] = int32(math.RoundToEven(v)) },
			func(v float64) bool { return !math.IsNaN(v) && v >= math.MinInt32 && v <= math.MaxInt32 }
	default:
		data := out.Int64s()
		return func(r, i int, v float64) { data[r*w+i] = int64(math.RoundToEven(v)) },
			func(v float64) bool { return !math.IsNaN(v) && v >= math.MinInt64 && v <= math.MaxInt64 }
	}
}
