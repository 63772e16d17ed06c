// Package window provides the window built-in: a fixed sub-range copy of a
// per-row array, used to slice a region of interest out of a waveform.
package window

import (
	"fmt"
	"math"

	"github.com/patgo25/pygama/internal/param"
	"github.com/patgo25/pygama/internal/processor"
)

// Module implements processor.Module for this package.
type Module struct{}

// Register registers the window processor.
func (m *Module) Register(r *processor.Registry) {
	r.Register(&processor.Definition{
		Name:        "window",
		Description: "Copies elements [start, start+length) of each row's array.",
		Inputs: []processor.InputSpec{
			{Name: "a", DTypes: []param.DType{param.Float32, param.Float64}},
			{Name: "start", AllowConst: true},
			{Name: "length", AllowConst: true},
		},
		Outputs: []processor.OutputSpec{
			{Name: "out", Shape: processor.CustomShape(windowShape), DType: processor.SameTypeAs(0)},
		},
		Build: func(inputs []processor.Value, outputs []*param.Buffer) (processor.Kernel, error) {
			start, length, err := windowBounds(inputs)
			if err != nil {
				return nil, err
			}
			read, err := processor.ReadFloat(inputs[0])
			if err != nil {
				return nil, err
			}
			write, err := processor.WriteFloat(outputs[0])
			if err != nil {
				return nil, err
			}
			rowLen := processor.RowLength(inputs[0])
			out := outputs[0]
			return processor.KernelFunc(func(rows int, mask *param.Mask) error {
				for r := 0; r < rows; r++ {
					if !mask.Valid(r) {
						out.SetSentinel(r)
						continue
					}
					// A variable-length row shorter than the window end
					// has no defined value there; mask it.
					if start+length > rowLen(r) {
						out.SetSentinel(r)
						mask.Invalidate(r)
						continue
					}
					for i := 0; i < length; i++ {
						write(r, i, read(r, start+i))
					}
				}
				return nil
			}), nil
		},
	})
}

// windowShape derives the fixed output shape from the start and length
// constants, validated against the input's capacity.
func windowShape(inputs []processor.Value) (param.Shape, error) {
	start, length, err := windowBounds(inputs)
	if err != nil {
		return param.Shape{}, err
	}
	if capacity := inputs[0].Shape().Width; start+length > capacity {
		return param.Shape{}, fmt.Errorf(
			"window [%d, %d) exceeds input width %d", start, start+length, capacity)
	}
	if length == 1 {
		return param.Scalar(), nil
	}
	return param.Array(length), nil
}

func windowBounds(inputs []processor.Value) (start, length int, err error) {
	start, err = constIndex(inputs[1], "start")
	if err != nil {
		return 0, 0, err
	}
	length, err = constIndex(inputs[2], "length")
	if err != nil {
		return 0, 0, err
	}
	if start < 0 {
		return 0, 0, fmt.Errorf("window start must not be negative, got %d", start)
	}
	if length < 1 {
		return 0, 0, fmt.Errorf("window length must be at least 1, got %d", length)
	}
	return start, length, nil
}

func constIndex(v processor.Value, name string) (int, error) {
	if !v.IsConst() {
		return 0, fmt.Errorf("window %s must be a constant", name)
	}
	if v.Const != math.Trunc(v.Const) {
		return 0, fmt.Errorf("window %s must be an integer, got %v", name, v.Const)
	}
	return int(v.Const), nil
}
