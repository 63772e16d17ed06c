// Package config holds the format-agnostic model of a chain document. The
// HCL loader translates parsed files into this model; the chain builder
// consumes it without knowing which syntax produced it.
package config

// DefaultRowsPerBlock applies when a document omits rows_per_block.
const DefaultRowsPerBlock = 1024

// Model is a complete, loader-independent chain description.
type Model struct {
	Settings Settings
	// Inputs are the declared chain-input parameters, filled from the
	// input provider each block, in declaration order.
	Inputs []*ParamSpec
	// Stages are the processor invocations in declaration order. The
	// builder reorders them topologically; declaration order breaks ties.
	Stages []*StageSpec
	// Outputs names the parameters drained to the output sink each block.
	Outputs []string
}

// Settings carries chain-wide execution settings.
type Settings struct {
	RowsPerBlock int
}

// ParamSpec declares a chain-input parameter.
type ParamSpec struct {
	Name string
	// Type is the element type name (int32, int64, float32, float64, bool).
	Type string
	// Length is the per-row array length; 0 declares a scalar.
	Length int
	// Lengths names the per-row length parameter of a variable-length
	// array. When set, Length is the capacity.
	Lengths string
	// Unit is informational metadata carried onto the buffer.
	Unit string
}

// StageSpec declares one processor invocation.
type StageSpec struct {
	Name      string
	Processor string
	Args      []Argument
	Outputs   []string
	// Unit is attached to the stage's first output buffer.
	Unit string
}
