package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/patgo25/pygama/internal/config"
	"github.com/patgo25/pygama/internal/ctxlog"
	"github.com/patgo25/pygama/internal/dag"
	"github.com/patgo25/pygama/internal/param"
	"github.com/patgo25/pygama/internal/paramdb"
	"github.com/patgo25/pygama/internal/processor"
)

// Build turns a chain model into an executable Chain. It runs in four
// passes: declare chain inputs, validate stages and producers, order the
// stage graph, then resolve and bind each invocation in execution order.
// Every error it returns is a build-time error; nothing here runs per
// block.
func Build(ctx context.Context, model *config.Model, procs *processor.Registry, db paramdb.Database) (*Chain, error) {
	logger := ctxlog.FromContext(ctx)

	rows := model.Settings.RowsPerBlock
	if rows < 1 {
		rows = config.DefaultRowsPerBlock
	}
	if db == nil {
		db = paramdb.Empty{}
	}

	b := &builder{
		model:   model,
		procs:   procs,
		db:      db,
		reg:     param.NewRegistry(rows),
		writers: make(map[string]string),
		stages:  make(map[string]*config.StageSpec),
	}

	if err := b.declareInputs(); err != nil {
		return nil, err
	}
	logger.Debug("Chain inputs declared.", "count", len(b.inputs))

	if err := b.checkStages(); err != nil {
		return nil, err
	}

	order, err := b.orderStages()
	if err != nil {
		return nil, err
	}
	logger.Debug("Stage order resolved.", "order", order)

	invocations := make([]*Invocation, 0, len(order))
	for _, name := range order {
		inv, err := b.bindStage(b.stages[name])
		if err != nil {
			return nil, err
		}
		invocations = append(invocations, inv)
	}

	outputs, err := b.resolveOutputs()
	if err != nil {
		return nil, err
	}

	logger.Debug("Chain build complete.",
		"parameters", b.reg.Len(), "invocations", len(invocations), "rows_per_block", rows)

	return &Chain{
		params:       b.reg,
		rowsPerBlock: rows,
		inputs:       b.inputs,
		outputs:      outputs,
		invocations:  invocations,
	}, nil
}

type builder struct {
	model   *config.Model
	procs   *processor.Registry
	db      paramdb.Database
	reg     *param.Registry
	inputs  []*param.Buffer
	writers map[string]string // parameter name -> producing stage
	stages  map[string]*config.StageSpec
}

// declareInputs declares every chain-input parameter, including the
// per-row length parameter of a variable-length input, which is implicitly
// a chain input itself.
func (b *builder) declareInputs() error {
	for _, in := range b.model.Inputs {
		dtype, err := param.ParseDType(in.Type)
		if err != nil {
			return &param.ShapeInferenceError{Name: in.Name, Reason: err.Error()}
		}
		var shape param.Shape
		switch {
		case in.Lengths != "":
			if in.Length < 1 {
				return &param.ShapeInferenceError{Name: in.Name,
					Reason: "variable-length input needs a positive length capacity"}
			}
			shape = param.VarArray(in.Length, in.Lengths)
			if _, ok := b.reg.Get(in.Lengths); !ok {
				lenBuf, err := b.reg.Declare(in.Lengths, param.Int32, param.Scalar(), "")
				if err != nil {
					return err
				}
				b.inputs = append(b.inputs, lenBuf)
			}
		case in.Length > 0:
			shape = param.Array(in.Length)
		default:
			shape = param.Scalar()
		}
		buf, err := b.reg.Declare(in.Name, dtype, shape, in.Unit)
		if err != nil {
			return err
		}
		b.inputs = append(b.inputs, buf)
	}
	return nil
}

// checkStages verifies processor names and arities and records the single
// producer of every stage output.
func (b *builder) checkStages() error {
	for _, spec := range b.model.Stages {
		def, ok := b.procs.Lookup(spec.Processor)
		if !ok {
			return &UnknownProcessorError{Stage: spec.Name, Processor: spec.Processor}
		}
		if len(spec.Args) != len(def.Inputs) {
			return &SignatureError{Stage: spec.Name, Reason: fmt.Sprintf(
				"processor %q takes %d arguments, got %d", spec.Processor, len(def.Inputs), len(spec.Args))}
		}
		if len(spec.Outputs) != len(def.Outputs) {
			return &SignatureError{Stage: spec.Name, Reason: fmt.Sprintf(
				"processor %q produces %d outputs, got %d names", spec.Processor, len(def.Outputs), len(spec.Outputs))}
		}
		for _, out := range spec.Outputs {
			if prev, dup := b.writers[out]; dup {
				return &param.ConflictError{Name: out, Reason: fmt.Sprintf(
					"written by both stage %q and stage %q", prev, spec.Name)}
			}
			if _, isInput := b.reg.Get(out); isInput {
				return &param.ConflictError{Name: out, Reason: fmt.Sprintf(
					"stage %q writes a declared chain input", spec.Name)}
			}
			b.writers[out] = spec.Name
		}
		b.stages[spec.Name] = spec
	}
	return nil
}

// orderStages builds the producer/consumer graph and returns a stable
// topological order. Chain inputs have no producing stage and act as
// roots.
func (b *builder) orderStages() ([]string, error) {
	graph := dag.New()
	for _, spec := range b.model.Stages {
		graph.AddNode(spec.Name)
	}
	for _, spec := range b.model.Stages {
		for _, arg := range spec.Args {
			if arg.Kind != config.ArgParam {
				continue
			}
			writer, ok := b.writers[arg.Name]
			if !ok || writer == spec.Name {
				continue
			}
			if err := graph.AddEdge(writer, spec.Name); err != nil {
				return nil, err
			}
		}
	}
	order, err := graph.TopoSort()
	if err != nil {
		var cyc *dag.CycleError
		if errors.As(err, &cyc) {
			return nil, &CyclicDependencyError{
				Stages: cyc.Nodes,
				Params: b.cycleParams(cyc.Nodes),
			}
		}
		return nil, err
	}
	return order, nil
}

// cycleParams returns the parameters that close a cycle: outputs of cycle
// stages that another cycle stage consumes.
func (b *builder) cycleParams(stages []string) []string {
	inCycle := make(map[string]bool, len(stages))
	for _, s := range stages {
		inCycle[s] = true
	}
	reads := make(map[string]bool)
	for _, s := range stages {
		for _, arg := range b.stages[s].Args {
			if arg.Kind == config.ArgParam {
				reads[arg.Name] = true
			}
		}
	}
	var params []string
	for _, s := range stages {
		for _, out := range b.stages[s].Outputs {
			if reads[out] {
				params = append(params, out)
			}
		}
	}
	return params
}

// bindStage resolves one stage's arguments, infers and declares its output
// buffers, and builds its kernel. Runs in topological order, so every
// parameter a stage reads is declared by the time it binds.
func (b *builder) bindStage(spec *config.StageSpec) (*Invocation, error) {
	def, _ := b.procs.Lookup(spec.Processor)

	inputs := make([]processor.Value, len(spec.Args))
	for i, arg := range spec.Args {
		val, err := b.resolveArg(spec, def.Inputs[i], arg)
		if err != nil {
			return nil, err
		}
		inputs[i] = val
	}

	outputs := make([]*param.Buffer, len(spec.Outputs))
	for j, outName := range spec.Outputs {
		ospec := def.Outputs[j]

		shape, err := b.inferShape(outName, ospec, inputs)
		if err != nil {
			return nil, err
		}
		dtype := ospec.DType.Fixed
		if ospec.DType.SameAs >= 0 {
			dtype = inputs[ospec.DType.SameAs].DType()
		}

		if !def.InPlace {
			for _, arg := range spec.Args {
				if arg.Kind == config.ArgParam && arg.Name == outName {
					return nil, &SignatureError{Stage: spec.Name, Reason: fmt.Sprintf(
						"output %q aliases an input, but processor %q has no in-place semantics",
						outName, spec.Processor)}
				}
			}
		}

		unit := ""
		if j == 0 {
			unit = spec.Unit
		}
		buf, err := b.reg.Declare(outName, dtype, shape, unit)
		if err != nil {
			return nil, err
		}
		outputs[j] = buf
	}

	kernel, err := def.Build(inputs, outputs)
	if err != nil {
		return nil, &SignatureError{Stage: spec.Name, Reason: err.Error()}
	}

	return &Invocation{
		Stage:     spec.Name,
		Processor: spec.Processor,
		Inputs:    inputs,
		Outputs:   outputs,
		Kernel:    kernel,
	}, nil
}

func (b *builder) resolveArg(spec *config.StageSpec, ispec processor.InputSpec, arg config.Argument) (processor.Value, error) {
	switch arg.Kind {
	case config.ArgLiteral:
		if !ispec.AllowConst {
			return processor.Value{}, &SignatureError{Stage: spec.Name, Reason: fmt.Sprintf(
				"input %q requires a parameter, got literal %q", ispec.Name, arg.Raw)}
		}
		f, err := literalFloat(arg.Literal)
		if err != nil {
			return processor.Value{}, &SignatureError{Stage: spec.Name, Reason: fmt.Sprintf(
				"input %q: %v", ispec.Name, err)}
		}
		return processor.Value{Const: f}, nil

	case config.ArgDatabase:
		if !ispec.AllowConst {
			return processor.Value{}, &SignatureError{Stage: spec.Name, Reason: fmt.Sprintf(
				"input %q requires a parameter, got database reference %q", ispec.Name, arg.Raw)}
		}
		f, err := b.db.Lookup(arg.Key)
		if err != nil {
			return processor.Value{}, &MissingParameterError{Stage: spec.Name, Key: arg.Key}
		}
		return processor.Value{Const: f}, nil

	case config.ArgParam:
		buf, ok := b.reg.Get(arg.Name)
		if !ok {
			return processor.Value{}, &param.ShapeInferenceError{Name: arg.Name, Reason: fmt.Sprintf(
				"read by stage %q but never produced by a stage or declared as an input", spec.Name)}
		}
		if !ispec.Accepts(buf.DType()) {
			return processor.Value{}, &SignatureError{Stage: spec.Name, Reason: fmt.Sprintf(
				"input %q does not accept element type %s of parameter %q",
				ispec.Name, buf.DType(), arg.Name)}
		}
		val := processor.Value{Buf: buf}
		if buf.Shape().Kind == param.KindVarArray {
			lengths, ok := b.reg.Get(buf.Shape().Lengths)
			if !ok {
				return processor.Value{}, &param.ShapeInferenceError{Name: buf.Shape().Lengths,
					Reason: fmt.Sprintf("length parameter of %q is not declared", arg.Name)}
			}
			val.Lengths = lengths
		}
		return val, nil

	default:
		return processor.Value{}, fmt.Errorf("stage %q: unknown argument kind", spec.Name)
	}
}

func (b *builder) inferShape(outName string, ospec processor.OutputSpec, inputs []processor.Value) (param.Shape, error) {
	switch ospec.Shape.Kind {
	case processor.ShapeSameAs:
		return inputs[ospec.Shape.Ref].Shape(), nil
	case processor.ShapeFixed:
		return ospec.Shape.Fixed, nil
	case processor.ShapeBroadcastOf:
		shape, err := processor.Broadcast(inputs[ospec.Shape.A].Shape(), inputs[ospec.Shape.B].Shape())
		if err != nil {
			return param.Shape{}, &param.ShapeInferenceError{Name: outName, Reason: err.Error()}
		}
		return shape, nil
	case processor.ShapeCustom:
		shape, err := ospec.Shape.Fn(inputs)
		if err != nil {
			return param.Shape{}, &param.ShapeInferenceError{Name: outName, Reason: err.Error()}
		}
		return shape, nil
	default:
		return param.Shape{}, &param.ShapeInferenceError{Name: outName, Reason: "unknown shape rule"}
	}
}

func (b *builder) resolveOutputs() ([]*param.Buffer, error) {
	outputs := make([]*param.Buffer, 0, len(b.model.Outputs))
	for _, name := range b.model.Outputs {
		buf, ok := b.reg.Get(name)
		if !ok {
			return nil, &param.ShapeInferenceError{Name: name,
				Reason: "declared as a chain output but never produced"}
		}
		outputs = append(outputs, buf)
	}
	return outputs, nil
}

// literalFloat converts a document literal into the float64 the constant
// slot carries. Booleans freeze as 0 or 1.
func literalFloat(v cty.Value) (float64, error) {
	if v.Type() == cty.Bool {
		if v.True() {
			return 1, nil
		}
		return 0, nil
	}
	num, err := convert.Convert(v, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("literal is not numeric: %w", err)
	}
	var f float64
	if err := gocty.FromCtyValue(num, &f); err != nil {
		return 0, fmt.Errorf("literal out of range: %w", err)
	}
	return f, nil
}
