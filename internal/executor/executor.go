// Package executor drives batched chain execution: it fills the chain's
// input buffers from a provider, runs the frozen invocation list, and
// drains the output buffers to a sink, one fixed-size block at a time.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/patgo25/pygama/internal/chain"
	"github.com/patgo25/pygama/internal/ctxlog"
	"github.com/patgo25/pygama/internal/param"
)

// State is the executor's position in the block cycle.
type State uint8

const (
	// StateIdle means the chain is built and no block is loaded.
	StateIdle State = iota
	// StateFilling means chain-input buffers are being populated.
	StateFilling
	// StateRunning means invocations are executing in order.
	StateRunning
	// StateDone means the stream is exhausted or the run aborted.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFilling:
		return "filling"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Provider fills chain-input buffers with up to maxRows rows and returns
// the number written. It returns io.EOF (with zero rows) when the stream
// is exhausted. Buffers are matched by name; the provider must fill every
// buffer it is given.
type Provider interface {
	Fill(ctx context.Context, dst []*param.Buffer, maxRows int) (int, error)
}

// Sink accepts the chain-output buffers after each block. Rows at index
// validRows and beyond are unfilled; rows the mask marks invalid carry
// sentinel values and must be ignored or flagged downstream.
type Sink interface {
	Drain(ctx context.Context, src []*param.Buffer, validRows int, mask *param.Mask) error
}

// Stats accumulates per-run totals.
type Stats struct {
	Blocks     int
	Rows       int
	MaskedRows int
}

// Executor runs one chain instance against one provider/sink pair. It is
// single-threaded: each kernel runs to completion before the next starts,
// since later invocations read buffers earlier ones wrote.
type Executor struct {
	chain    *chain.Chain
	provider Provider
	sink     Sink
	mask     *param.Mask
	state    State
	block    int
	stats    Stats
}

// New creates an executor in the Idle state.
func New(ch *chain.Chain, provider Provider, sink Sink) *Executor {
	return &Executor{
		chain:    ch,
		provider: provider,
		sink:     sink,
		mask:     param.NewMask(ch.RowsPerBlock()),
		state:    StateIdle,
	}
}

// State returns the current execution state.
func (e *Executor) State() State { return e.state }

// Stats returns the totals accumulated so far.
func (e *Executor) Stats() Stats { return e.stats }

// NextBlock advances the chain by one block: fill, run, drain. It returns
// the number of valid rows processed, or io.EOF once the input stream is
// exhausted. Any other error is fatal and leaves the executor Done.
func (e *Executor) NextBlock(ctx context.Context) (int, error) {
	if e.state != StateIdle {
		return 0, fmt.Errorf("executor is %s, not idle", e.state)
	}

	e.state = StateFilling
	n, err := e.provider.Fill(ctx, e.chain.Inputs(), e.chain.RowsPerBlock())
	if err != nil && !errors.Is(err, io.EOF) {
		e.state = StateDone
		return 0, fmt.Errorf("block %d: input provider failed: %w", e.block, err)
	}
	if n == 0 {
		e.state = StateDone
		return 0, io.EOF
	}
	if n > e.chain.RowsPerBlock() {
		e.state = StateDone
		return 0, fmt.Errorf("block %d: provider wrote %d rows into a %d-row block",
			e.block, n, e.chain.RowsPerBlock())
	}

	// Rows past the fill count are stale; mask them so a partial final
	// block is both truncated at the sink and visibly poisoned.
	e.mask.Reset(n)
	for r := n; r < e.chain.RowsPerBlock(); r++ {
		for _, out := range e.chain.Outputs() {
			out.SetSentinel(r)
		}
	}

	e.state = StateRunning
	for _, inv := range e.chain.Invocations() {
		if err := inv.Kernel.Compute(n, e.mask); err != nil {
			e.state = StateDone
			return 0, &chain.RuntimeShapeError{Block: e.block, Stage: inv.Stage, Err: err}
		}
	}

	if err := e.sink.Drain(ctx, e.chain.Outputs(), n, e.mask); err != nil {
		e.state = StateDone
		return 0, fmt.Errorf("block %d: output sink failed: %w", e.block, err)
	}

	valid := e.mask.CountValid(n)
	e.stats.Blocks++
	e.stats.Rows += n
	e.stats.MaskedRows += n - valid

	e.block++
	e.state = StateIdle
	return n, nil
}

// Run executes blocks until the provider reports end of stream. It checks
// the context between blocks; there are no suspension points inside a
// block.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	for {
		if err := ctx.Err(); err != nil {
			e.state = StateDone
			return err
		}
		_, err := e.NextBlock(ctx)
		if errors.Is(err, io.EOF) {
			logger.Info("Chain run complete.",
				"blocks", e.stats.Blocks, "rows", e.stats.Rows, "masked_rows", e.stats.MaskedRows)
			return nil
		}
		if err != nil {
			logger.Error("Chain run aborted.", "block", e.block, "error", err)
			return err
		}
	}
}
