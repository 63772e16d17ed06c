// Package reduce provides the per-row reductions over the array axis: sum,
// mean, max, min, argmax, and argmin. Each takes one array parameter and
// produces a scalar per row; variable-length arrays reduce over the row's
// live length. A row with zero live elements has no defined reduction and
// is masked.
package reduce

import (
	"github.com/patgo25/pygama/internal/param"
	"github.com/patgo25/pygama/internal/processor"
)

// Module implements processor.Module for this package.
type Module struct{}

// Register registers the reduction processors.
func (m *Module) Register(r *processor.Registry) {
	r.Register(valueDef("sum", "Sum over the array axis.", func(acc, v float64, _ int) float64 {
		return acc + v
	}, nil))
	r.Register(valueDef("mean", "Mean over the array axis.", func(acc, v float64, _ int) float64 {
		return acc + v
	}, func(acc float64, n int) float64 {
		return acc / float64(n)
	}))
	r.Register(extremumDef("max", "Maximum over the array axis.", func(v, best float64) bool { return v > best }))
	r.Register(extremumDef("min", "Minimum over the array axis.", func(v, best float64) bool { return v < best }))
	r.Register(argDef("argmax", "Index of the maximum over the array axis.", func(v, best float64) bool { return v > best }))
	r.Register(argDef("argmin", "Index of the minimum over the array axis.", func(v, best float64) bool { return v < best }))
}

var floatTypes = []param.DType{param.Float32, param.Float64}

func inputSpec() []processor.InputSpec {
	return []processor.InputSpec{{Name: "a", DTypes: floatTypes}}
}

// valueDef covers accumulating reductions. finish, when non-nil,
// post-processes the accumulator with the row's element count.
func valueDef(name, desc string, step func(acc, v float64, i int) float64, finish func(acc float64, n int) float64) *processor.Definition {
	return &processor.Definition{
		Name:        name,
		Description: desc,
		Inputs:      inputSpec(),
		Outputs: []processor.OutputSpec{
			{Name: "out", Shape: processor.FixedShape(param.Scalar()), DType: processor.SameTypeAs(0)},
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
			out := outputs[0]
			return processor.KernelFunc(func(rows int, mask *param.Mask) error {
				for r := 0; r < rows; r++ {
					n := length(r)
					if !mask.Valid(r) || n == 0 {
						out.SetSentinel(r)
						mask.Invalidate(r)
						continue
					}
					acc := 0.0
					for i := 0; i < n; i++ {
						acc = step(acc, read(r, i), i)
					}
					if finish != nil {
						acc = finish(acc, n)
					}
					write(r, 0, acc)
				}
				return nil
			}), nil
		},
	}
}

// extremumDef covers max and min.
func extremumDef(name, desc string, better func(v, best float64) bool) *processor.Definition {
	return &processor.Definition{
		Name:        name,
		Description: desc,
		Inputs:      inputSpec(),
		Outputs: []processor.OutputSpec{
			{Name: "out", Shape: processor.FixedShape(param.Scalar()), DType: processor.SameTypeAs(0)},
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
			out := outputs[0]
			return processor.KernelFunc(func(rows int, mask *param.Mask) error {
				for r := 0; r < rows; r++ {
					n := length(r)
					if !mask.Valid(r) || n == 0 {
						out.SetSentinel(r)
						mask.Invalidate(r)
						continue
					}
					best := read(r, 0)
					for i := 1; i < n; i++ {
						if v := read(r, i); better(v, best) {
							best = v
						}
					}
					write(r, 0, best)
				}
				return nil
			}), nil
		},
	}
}

// argDef covers argmax and argmin, producing int32 indices.
func argDef(name, desc string, better func(v, best float64) bool) *processor.Definition {
	return &processor.Definition{
		Name:        name,
		Description: desc,
		Inputs:      inputSpec(),
		Outputs: []processor.OutputSpec{
			{Name: "out", Shape: processor.FixedShape(param.Scalar()), DType: processor.FixedType(param.Int32)},
		},
		Build: func(inputs []processor.Value, outputs []*param.Buffer) (processor.Kernel, error) {
			read, err := processor.ReadFloat(inputs[0])
			if err != nil {
				return nil, err
			}
			length := processor.RowLength(inputs[0])
			out := outputs[0]
			data := out.Int32s()
			return processor.KernelFunc(func(rows int, mask *param.Mask) error {
				for r := 0; r < rows; r++ {
					n := length(r)
					if !mask.Valid(r) || n == 0 {
						out.SetSentinel(r)
						mask.Invalidate(r)
						continue
					}
					best := read(r, 0)
					bestIdx := 0
					for i := 1; i < n; i++ {
						if v := read(r, i); better(v, best) {
							best = v
							bestIdx = i
						}
					}
					data[r] = int32(bestIdx)
				}
				return nil
			}), nil
		},
	}
}
