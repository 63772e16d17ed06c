// Package blockfile implements a self-describing columnar container for
// block streams. A file carries a header naming each column's element type
// and shape, then one frame per block: the valid-row count, the row mask,
// and one zstd-compressed payload per column, closed by an xxhash64
// checksum of the frame's compressed bytes.
//
// The writer side is an executor.Sink and the reader side an
// executor.Provider, so chains can both produce and consume the format.
package blockfile

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/patgo25/pygama/internal/param"
)

var magic = [4]byte{'P', 'G', 'B', 'F'}

const formatVersion uint16 = 1

// Column is the schema entry of one stored parameter.
type Column struct {
	Name    string
	DType   param.DType
	Kind    param.ShapeKind
	Width   int
	Lengths string
	Unit    string
}

// Shape reconstructs the parameter shape of the column.
func (c Column) Shape() param.Shape {
	switch c.Kind {
	case param.KindScalar:
		return param.Scalar()
	case param.KindArray:
		return param.Array(c.Width)
	default:
		return param.VarArray(c.Width, c.Lengths)
	}
}

func columnOf(buf *param.Buffer) Column {
	return Column{
		Name:    buf.Name(),
		DType:   buf.DType(),
		Kind:    buf.Shape().Kind,
		Width:   buf.Width(),
		Lengths: buf.Shape().Lengths,
		Unit:    buf.Unit(),
	}
}

// encodeColumn serializes the first rows rows of a buffer into
// little-endian bytes.
func encodeColumn(buf *param.Buffer, rows int) []byte {
	n := rows * buf.Width()
	out := make([]byte, n*buf.DType().Size())
	switch buf.DType() {
	case param.Float64:
		for i, v := range buf.Float64s()[:n] {
			binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
		}
	case param.Float32:
		for i, v := range buf.Float32s()[:n] {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
		}
	case param.Int64:
		for i, v := range buf.Int64s()[:n] {
			binary.LittleEndian.PutUint64(out[i*8:], uint64(v))
		}
	case param.Int32:
		for i, v := range buf.Int32s()[:n] {
			binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
		}
	case param.Bool:
		for i, v := range buf.Bools()[:n] {
			if v {
				out[i] = 1
			}
		}
	}
	return out
}

// decodeColumn fills the first rows rows of a buffer from little-endian
// bytes.
func decodeColumn(buf *param.Buffer, data []byte, rows int) error {
	n := rows * buf.Width()
	if want := n * buf.DType().Size(); len(data) != want {
		return fmt.Errorf("column %q: payload is %d bytes, want %d", buf.Name(), len(data), want)
	}
	switch buf.DType() {
	case param.Float64:
		dst := buf.Float64s()
		for i := 0; i < n; i++ {
			dst[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
	case param.Float32:
		dst := buf.Float32s()
		for i := 0; i < n; i++ {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
	case param.Int64:
		dst := buf.Int64s()
		for i := 0; i < n; i++ {
			dst[i] = int64(binary.LittleEndian.Uint64(data[i*8:]))
		}
	case param.Int32:
		dst := buf.Int32s()
		for i := 0; i < n; i++ {
			dst[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
		}
	case param.Bool:
		dst := buf.Bools()
		for i := 0; i < n; i++ {
			dst[i] = data[i] != 0
		}
	}
	return nil
}
