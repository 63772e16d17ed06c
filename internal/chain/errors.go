package chain

import (
	"fmt"
	"strings"
)

// The build-time error taxonomy. Every build error names the stage at
// fault; all of them surface before the first block executes.

// UnknownProcessorError reports a stage naming a processor that is not in
// the registry.
type UnknownProcessorError struct {
	Stage     string
	Processor string
}

func (e *UnknownProcessorError) Error() string {
	return fmt.Sprintf("stage %q: unknown processor %q", e.Stage, e.Processor)
}

// SignatureError reports an argument list that does not satisfy the
// processor's declared signature.
type SignatureError struct {
	Stage  string
	Reason string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("stage %q: signature mismatch: %s", e.Stage, e.Reason)
}

// MissingParameterError reports a database key that could not be resolved
// at build time.
type MissingParameterError struct {
	Stage string
	Key   string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("stage %q: database key %q not found", e.Stage, e.Key)
}

// CyclicDependencyError reports a cycle in the producer/consumer graph,
// naming both the stages and the parameters that close the cycle.
type CyclicDependencyError struct {
	Stages []string
	Params []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency between stages [%s] via parameters [%s]",
		strings.Join(e.Stages, ", "), strings.Join(e.Params, ", "))
}

// RuntimeShapeError reports a structural failure surfacing during
// execution. It indicates an invariant the builder should have enforced,
// so it is fatal: callers should treat it as a defect in the chain
// document or a processor definition, not a transient failure.
type RuntimeShapeError struct {
	Block int
	Stage string
	Err   error
}

func (e *RuntimeShapeError) Error() string {
	return fmt.Sprintf("block %d: stage %q: %v", e.Block, e.Stage, e.Err)
}

func (e *RuntimeShapeError) Unwrap() error { return e.Err }
