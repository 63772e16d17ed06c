// Package mebosink exports scalar chain outputs as mebo numeric
// time-series blobs, one blob per block, written length-prefixed to the
// underlying stream. Each scalar floating-point output becomes a metric
// named after the parameter; the synthetic timestamp axis advances one
// step per row across the whole run. Masked rows export as NaN.
package mebosink

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/arloliu/mebo"

	"github.com/patgo25/pygama/internal/param"
)

// Sink implements executor.Sink over a mebo blob stream.
type Sink struct {
	w     io.Writer
	start time.Time
	step  time.Duration
	row   int64
}

// New creates a sink whose synthetic timestamps start at start and advance
// by step per row.
func New(w io.Writer, start time.Time, step time.Duration) *Sink {
	return &Sink{w: w, start: start, step: step}
}

// Drain implements executor.Sink. Non-scalar or non-float outputs are an
// error: the mebo numeric format carries one float64 per metric per point.
func (s *Sink) Drain(_ context.Context, src []*param.Buffer, validRows int, mask *param.Mask) error {
	if validRows == 0 {
		return nil
	}
	enc, err := mebo.NewDefaultNumericEncoder(s.start.Add(time.Duration(s.row) * s.step))
	if err != nil {
		return fmt.Errorf("mebosink: %w", err)
	}

	timestamps := make([]int64, validRows)
	for r := 0; r < validRows; r++ {
		timestamps[r] = s.start.Add(time.Duration(s.row+int64(r)) * s.step).UnixMicro()
	}

	for _, buf := range src {
		if !buf.Shape().IsScalar() || !buf.DType().IsFloat() {
			return fmt.Errorf("mebosink: output %q is %s %s; only scalar float outputs export",
				buf.Name(), buf.DType(), buf.Shape())
		}
		values := buf.Floats()[:validRows]
		for r := 0; r < validRows; r++ {
			if !mask.Valid(r) {
				values[r] = math.NaN()
			}
		}
		if err := enc.StartMetricName(buf.Name(), validRows); err != nil {
			return fmt.Errorf("mebosink: output %q: %w", buf.Name(), err)
		}
		if err := enc.AddDataPoints(timestamps, values, nil); err != nil {
			return fmt.Errorf("mebosink: output %q: %w", buf.Name(), err)
		}
		if err := enc.EndMetric(); err != nil {
			return fmt.Errorf("mebosink: output %q: %w", buf.Name(), err)
		}
	}

	blob, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("mebosink: %w", err)
	}
	if err := binary.Write(s.w, binary.LittleEndian, uint32(len(blob))); err != nil {
		return err
	}
	if _, err := s.w.Write(blob); err != nil {
		return err
	}
	s.row += int64(validRows)
	return nil
}
