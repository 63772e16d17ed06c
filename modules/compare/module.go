// Package compare provides the elementwise comparison built-ins gt, lt,
// and eq, producing boolean outputs.
package compare

import (
	"github.com/patgo25/pygama/internal/param"
	"github.com/patgo25/pygama/internal/processor"
)

// Module implements processor.Module for this package.
type Module struct{}

// Register registers the comparison processors.
func (m *Module) Register(r *processor.Registry) {
	r.Register(compareDef("gt", "Elementwise a > b.", func(a, b float64) bool { return a > b }))
	r.Register(compareDef("lt", "Elementwise a < b.", func(a, b float64) bool { return a < b }))
	r.Register(compareDef("eq", "Elementwise a == b.", func(a, b float64) bool { return a == b }))
}

func compareDef(name, desc string, op func(a, b float64) bool) *processor.Definition {
	return &processor.Definition{
		Name:        name,
		Description: desc,
		Inputs: []processor.InputSpec{
			{Name: "a", AllowConst: true},
			{Name: "b", AllowConst: true},
		},
		Outputs: []processor.OutputSpec{
			{Name: "out", Shape: processor.BroadcastOf(0, 1), DType: processor.FixedType(param.Bool)},
		},
		Build: func(inputs []processor.Value, outputs []*param.Buffer) (processor.Kernel, error) {
			readA, err := processor.ReadFloat(inputs[0])
			if err != nil {
				return nil, err
			}
			readB, err := processor.ReadFloat(inputs[1])
			if err != nil {
				return nil, err
			}
			out := outputs[0]
			data := out.Bools()
			width := out.Width()
			length := processor.RowLength(inputs[0])
			if inputs[0].Shape().IsScalar() {
				length = processor.RowLength(inputs[1])
			}
			return processor.KernelFunc(func(rows int, mask *param.Mask) error {
				for r := 0; r < rows; r++ {
					if !mask.Valid(r) {
						out.SetSentinel(r)
						continue
					}
					for i := 0; i < length(r); i++ {
						data[r*width+i] = op(readA(r, i), readB(r, i))
					}
				}
				return nil
			}), nil
		},
	}
}
