// Package arith provides the elementwise arithmetic built-ins: add, sub,
// mul, div, and reciprocal. All operate on floating-point inputs with
// explicit broadcasting (scalar against array); constants are accepted in
// either slot. div and reciprocal mask rows on division by zero instead of
// failing the block.
package arith

import (
	"github.com/patgo25/pygama/internal/param"
	"github.com/patgo25/pygama/internal/processor"
)

// Module implements processor.Module for this package.
type Module struct{}

var floatTypes = []param.DType{param.Float32, param.Float64}

// Register registers the arithmetic processors.
func (m *Module) Register(r *processor.Registry) {
	r.Register(binaryDef("add", "Elementwise a + b.", func(a, b float64) (float64, bool) {
		return a + b, true
	}))
	r.Register(binaryDef("sub", "Elementwise a - b.", func(a, b float64) (float64, bool) {
		return a - b, true
	}))
	r.Register(binaryDef("mul", "Elementwise a * b.", func(a, b float64) (float64, bool) {
		return a * b, true
	}))
	r.Register(binaryDef("div", "Elementwise a / b; rows dividing by zero are masked.", func(a, b float64) (float64, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	}))
	r.Register(&processor.Definition{
		Name:        "reciprocal",
		Description: "Elementwise 1 / a; rows with zero input are masked.",
		Inputs: []processor.InputSpec{
			{Name: "a", DTypes: floatTypes, AllowConst: true},
		},
		Outputs: []processor.OutputSpec{
			{Name: "out", Shape: processor.SameShapeAs(0), DType: processor.SameTypeAs(0)},
		},
		Build: func(inputs []processor.Value, outputs []*param.Buffer) (processor.Kernel, error) {
			read, err := processor.ReadFloat(inputs[0])
			if err != nil {
				return nil, err
			}
			write, err := processor.WriteFloat(outputs[0])
			if err != nil {
				return nil, err
			}
			length := processor.RowLength(inputs[0])
			return processor.KernelFunc(func(rows int, mask *param.Mask) error {
				for r := 0; r < rows; r++ {
					if !mask.Valid(r) {
						outputs[0].SetSentinel(r)
						continue
					}
					ok := true
					for i := 0; i < length(r); i++ {
						v := read(r, i)
						if v == 0 {
							ok = false
							break
						}
						write(r, i, 1/v)
					}
					if !ok {
						outputs[0].SetSentinel(r)
						mask.Invalidate(r)
					}
				}
				return nil
			}), nil
		},
	})
}

// binaryDef builds the definition of a broadcast binary operation. The
// output copies the first argument's element type, so chains should list
// the parameter before the constant.
func binaryDef(name, desc string, op func(a, b float64) (float64, bool)) *processor.Definition {
	return &processor.Definition{
		Name:        name,
		Description: desc,
		Inputs: []processor.InputSpec{
			{Name: "a", DTypes: floatTypes, AllowConst: true},
			{Name: "b", DTypes: floatTypes, AllowConst: true},
		},
		Outputs: []processor.OutputSpec{
			{Name: "out", Shape: processor.BroadcastOf(0, 1), DType: processor.SameTypeAs(0)},
		},
		Build: func(inputs []processor.Value, outputs []*param.Buffer) (processor.Kernel, error) {
			return elementwise(inputs[0], inputs[1], outputs[0], op)
		},
	}
}

// elementwise binds a broadcast binary kernel. A false result from op
// invalidates the row and writes sentinels; it never aborts the block.
func elementwise(a, b processor.Value, out *param.Buffer, op func(x, y float64) (float64, bool)) (processor.Kernel, error) {
	readA, err := processor.ReadFloat(a)
	if err != nil {
		return nil, err
	}
	readB, err := processor.ReadFloat(b)
	if err != nil {
		return nil, err
	}
	write, err := processor.WriteFloat(out)
	if err != nil {
		return nil, err
	}
	// Iterate each row only over its live length: for variable-length
	// arrays the tail past the length holds stale values that must not
	// trigger masking.
	length := processor.RowLength(a)
	if a.Shape().IsScalar() {
		length = processor.RowLength(b)
	}
	return processor.KernelFunc(func(rows int, mask *param.Mask) error {
		for r := 0; r < rows; r++ {
			if !mask.Valid(r) {
				out.SetSentinel(r)
				continue
			}
			ok := true
			for i := 0; i < length(r); i++ {
				v, good := op(readA(r, i), readB(r, i))
				if !good {
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
}
