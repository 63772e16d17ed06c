// Package chain builds executable processing chains from chain documents.
// The builder resolves stage arguments against the parameter registry,
// freezes document literals and database lookups into constants, infers
// output shapes and types from processor signatures, and orders the
// invocations topologically. All of that happens once; per-block execution
// never re-derives it.
package chain

import (
	"github.com/patgo25/pygama/internal/param"
	"github.com/patgo25/pygama/internal/processor"
)

// Invocation is one frozen processor call: the definition, its resolved
// inputs, its bound output buffers, and the kernel produced by the
// processor's build function.
type Invocation struct {
	Stage     string
	Processor string
	Inputs    []processor.Value
	Outputs   []*param.Buffer
	Kernel    processor.Kernel
}

// Chain is a fully built, frozen processing chain. It exposes no mutation:
// once Build returns, no invocation or parameter can be added, which is
// what makes per-block execution cheap.
type Chain struct {
	params       *param.Registry
	rowsPerBlock int
	inputs       []*param.Buffer
	outputs      []*param.Buffer
	invocations  []*Invocation
}

// Params returns the chain's parameter registry.
func (c *Chain) Params() *param.Registry { return c.params }

// RowsPerBlock returns the fixed block row dimension.
func (c *Chain) RowsPerBlock() int { return c.rowsPerBlock }

// Inputs returns the chain-input buffers, filled from the input provider
// each block, in declaration order.
func (c *Chain) Inputs() []*param.Buffer { return c.inputs }

// Outputs returns the chain-output buffers, drained to the output sink
// each block, in declaration order.
func (c *Chain) Outputs() []*param.Buffer { return c.outputs }

// Invocations returns the processor invocations in execution order.
func (c *Chain) Invocations() []*Invocation { return c.invocations }
