package executor

import (
	"context"

	"github.com/patgo25/pygama/internal/param"
)

// Discard is a Sink that drops every block. Used for validate-only runs
// and benchmarks.
type Discard struct{}

// Drain implements Sink.
func (Discard) Drain(context.Context, []*param.Buffer, int, *param.Mask) error { return nil }

// MultiSink fans each drained block out to several sinks in order.
func MultiSink(sinks ...Sink) Sink {
	return multiSink(sinks)
}

type multiSink []Sink

func (m multiSink) Drain(ctx context.Context, src []*param.Buffer, validRows int, mask *param.Mask) error {
	for _, s := range m {
		if err := s.Drain(ctx, src, validRows, mask); err != nil {
			return err
		}
	}
	return nil
}
