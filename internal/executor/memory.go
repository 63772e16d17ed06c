package executor

import (
	"context"
	"fmt"
	"io"

	"github.com/patgo25/pygama/internal/param"
)

// SliceProvider is an in-memory Provider backed by flattened, row-major
// column slices keyed by parameter name. Useful for tests and for callers
// that already hold decoded columns.
type SliceProvider struct {
	cols map[string]any
	rows int
	pos  int
}

// NewSliceProvider creates a provider over the given columns. Each value
// must be a []float32, []float64, []int32, []int64, or []bool holding
// rows*width elements for the parameter it feeds.
func NewSliceProvider(rows int, cols map[string]any) *SliceProvider {
	return &SliceProvider{cols: cols, rows: rows}
}

// Fill implements Provider.
func (p *SliceProvider) Fill(_ context.Context, dst []*param.Buffer, maxRows int) (int, error) {
	remaining := p.rows - p.pos
	if remaining <= 0 {
		return 0, io.EOF
	}
	n := min(remaining, maxRows)
	for _, buf := range dst {
		src, ok := p.cols[buf.Name()]
		if !ok {
			return 0, fmt.Errorf("no column for chain input %q", buf.Name())
		}
		if err := copyRows(buf, src, p.pos, n); err != nil {
			return 0, err
		}
	}
	p.pos += n
	return n, nil
}

// copyRows copies n rows starting at source row `from` into the head of
// the buffer.
func copyRows(buf *param.Buffer, src any, from, n int) error {
	w := buf.Width()
	lo, hi := from*w, (from+n)*w
	switch buf.DType() {
	case param.Float32:
		s, ok := src.([]float32)
		if !ok {
			return typeMismatch(buf, src)
		}
		copy(buf.Float32s(), s[lo:hi])
	case param.Float64:
		s, ok := src.([]float64)
		if !ok {
			return typeMismatch(buf, src)
		}
		copy(buf.Float64s(), s[lo:hi])
	case param.Int32:
		s, ok := src.([]int32)
		if !ok {
			return typeMismatch(buf, src)
		}
		copy(buf.Int32s(), s[lo:hi])
	case param.Int64:
		s, ok := src.([]int64)
		if !ok {
			return typeMismatch(buf, src)
		}
		copy(buf.Int64s(), s[lo:hi])
	case param.Bool:
		s, ok := src.([]bool)
		if !ok {
			return typeMismatch(buf, src)
		}
		copy(buf.Bools(), s[lo:hi])
	}
	return nil
}

func typeMismatch(buf *param.Buffer, src any) error {
	return fmt.Errorf("column %q: source type %T does not match element type %s",
		buf.Name(), src, buf.DType())
}

// MemorySink is a Sink that records every drained block. Values are kept
// as float64 regardless of element type, flattened row-major, masked rows
// included; the mask is recorded alongside so tests can tell them apart.
type MemorySink struct {
	// Drains holds the valid-row count of each drain call.
	Drains []int
	// Mask holds one entry per drained row, true when the row was valid.
	Mask []bool
	// Cols accumulates the drained values per parameter.
	Cols map[string][]float64
}

// NewMemorySink creates an empty recording sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{Cols: make(map[string][]float64)}
}

// Drain implements Sink.
func (s *MemorySink) Drain(_ context.Context, src []*param.Buffer, validRows int, mask *param.Mask) error {
	s.Drains = append(s.Drains, validRows)
	for r := 0; r < validRows; r++ {
		s.Mask = append(s.Mask, mask.Valid(r))
	}
	for _, buf := range src {
		w := buf.Width()
		all := buf.Floats()
		s.Cols[buf.Name()] = append(s.Cols[buf.Name()], all[:validRows*w]...)
	}
	return nil
}

// Rows returns the total number of drained rows.
func (s *MemorySink) Rows() int { return len(s.Mask) }

// Column returns the accumulated values of one parameter.
func (s *MemorySink) Column(name string) []float64 { return s.Cols[name] }
