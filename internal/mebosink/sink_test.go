package mebosink

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/arloliu/mebo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patgo25/pygama/internal/param"
)

func drainBlock(t *testing.T, s *Sink, bufs []*param.Buffer, mask *param.Mask, validRows int) {
	t.Helper()
	require.NoError(t, s.Drain(context.Background(), bufs, validRows, mask))
}

// readBlob pops one length-prefixed blob off the stream.
func readBlob(t *testing.T, stream *bytes.Buffer) []byte {
	t.Helper()
	var length uint32
	require.NoError(t, binary.Read(stream, binary.LittleEndian, &length))
	blob := make([]byte, length)
	_, err := stream.Read(blob)
	require.NoError(t, err)
	return blob
}

func TestDrainExportsMetrics(t *testing.T) {
	const rows = 3
	reg := param.NewRegistry(rows)
	energy, err := reg.Declare("energy", param.Float64, param.Scalar(), "keV")
	require.NoError(t, err)
	copy(energy.Float64s(), []float64{10, 20, 30})

	mask := param.NewMask(rows)
	mask.Reset(rows)
	mask.Invalidate(1)

	var stream bytes.Buffer
	start := time.Unix(1_700_000_000, 0)
	sink := New(&stream, start, time.Second)
	drainBlock(t, sink, []*param.Buffer{energy}, mask, rows)

	decoder, err := mebo.NewNumericDecoder(readBlob(t, &stream))
	require.NoError(t, err)
	decoded, err := decoder.Decode()
	require.NoError(t, err)

	var vals []float64
	var ts []int64
	for _, dp := range decoded.All(mebo.MetricID("energy")) {
		vals = append(vals, dp.Val)
		ts = append(ts, dp.Ts)
	}
	require.Len(t, vals, rows)
	assert.Equal(t, 10.0, vals[0])
	assert.True(t, math.IsNaN(vals[1]), "masked row exports as NaN")
	assert.Equal(t, 30.0, vals[2])
	assert.Equal(t, start.UnixMicro(), ts[0])
	assert.Equal(t, start.Add(2*time.Second).UnixMicro(), ts[2])
}

func TestDrainTimestampsSpanBlocks(t *testing.T) {
	const rows = 2
	reg := param.NewRegistry(rows)
	x, err := reg.Declare("x", param.Float64, param.Scalar(), "")
	require.NoError(t, err)
	copy(x.Float64s(), []float64{1, 2})

	mask := param.NewMask(rows)
	mask.Reset(rows)

	var stream bytes.Buffer
	start := time.Unix(1_700_000_000, 0)
	sink := New(&stream, start, time.Second)
	drainBlock(t, sink, []*param.Buffer{x}, mask, rows)
	drainBlock(t, sink, []*param.Buffer{x}, mask, rows)

	_ = readBlob(t, &stream)
	decoder, err := mebo.NewNumericDecoder(readBlob(t, &stream))
	require.NoError(t, err)
	decoded, err := decoder.Decode()
	require.NoError(t, err)

	var ts []int64
	for _, dp := range decoded.All(mebo.MetricID("x")) {
		ts = append(ts, dp.Ts)
	}
	require.Len(t, ts, rows)
	// The second block continues the row axis where the first stopped.
	assert.Equal(t, start.Add(2*time.Second).UnixMicro(), ts[0])
	assert.Equal(t, start.Add(3*time.Second).UnixMicro(), ts[1])
}

func TestDrainRejectsNonScalar(t *testing.T) {
	const rows = 2
	reg := param.NewRegistry(rows)
	wf, err := reg.Declare("wf", param.Float64, param.Array(4), "")
	require.NoError(t, err)
	mask := param.NewMask(rows)
	mask.Reset(rows)

	sink := New(&bytes.Buffer{}, time.Unix(0, 0), time.Second)
	err = sink.Drain(context.Background(), []*param.Buffer{wf}, rows, mask)
	assert.Error(t, err)
}

func TestDrainRejectsNonFloat(t *testing.T) {
	const rows = 2
	reg := param.NewRegistry(rows)
	n, err := reg.Declare("n", param.Int32, param.Scalar(), "")
	require.NoError(t, err)
	mask := param.NewMask(rows)
	mask.Reset(rows)

	sink := New(&bytes.Buffer{}, time.Unix(0, 0), time.Second)
	err = sink.Drain(context.Background(), []*param.Buffer{n}, rows, mask)
	assert.Error(t, err)
}

func TestDrainSkipsEmptyBlock(t *testing.T) {
	var stream bytes.Buffer
	sink := New(&stream, time.Unix(0, 0), time.Second)
	require.NoError(t, sink.Drain(context.Background(), nil, 0, param.NewMask(1)))
	assert.Zero(t, stream.Len())
}
