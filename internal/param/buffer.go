package param

import (
	"fmt"
	"math"
)

// Buffer is a named, typed block of values shared by the processors of one
// chain. It holds rows*width elements in row-major order and is reused in
// place across blocks: the executor overwrites its contents each block, so
// callers must not retain row slices across block boundaries.
type Buffer struct {
	name  string
	dtype DType
	shape Shape
	rows  int
	unit  string

	f32 []float32
	f64 []float64
	i32 []int32
	i64 []int64
	b   []bool
}

func newBuffer(name string, dtype DType, shape Shape, rows int, unit string) *Buffer {
	buf := &Buffer{name: name, dtype: dtype, shape: shape, rows: rows, unit: unit}
	n := rows * shape.Width
	switch dtype {
	case Float32:
		buf.f32 = make([]float32, n)
	case Float64:
		buf.f64 = make([]float64, n)
	case Int32:
		buf.i32 = make([]int32, n)
	case Int64:
		buf.i64 = make([]int64, n)
	case Bool:
		buf.b = make([]bool, n)
	}
	return buf
}

// Name returns the parameter name, unique within a chain.
func (b *Buffer) Name() string { return b.name }

// DType returns the element type.
func (b *Buffer) DType() DType { return b.dtype }

// Shape returns the per-row shape.
func (b *Buffer) Shape() Shape { return b.shape }

// Rows returns the block row dimension shared by all buffers in the chain.
func (b *Buffer) Rows() int { return b.rows }

// Width returns the number of elements per row.
func (b *Buffer) Width() int { return b.shape.Width }

// Unit returns the informational unit string, possibly empty.
func (b *Buffer) Unit() string { return b.unit }

// The typed accessors return the live backing slice, not a copy. They panic
// on an element type mismatch: processor signatures are checked at build
// time, so a mismatch here is a defect in a processor definition.

func (b *Buffer) Float32s() []float32 { b.mustBe(Float32); return b.f32 }
func (b *Buffer) Float64s() []float64 { b.mustBe(Float64); return b.f64 }
func (b *Buffer) Int32s() []int32     { b.mustBe(Int32); return b.i32 }
func (b *Buffer) Int64s() []int64     { b.mustBe(Int64); return b.i64 }
func (b *Buffer) Bools() []bool       { b.mustBe(Bool); return b.b }

func (b *Buffer) mustBe(dt DType) {
	if b.dtype != dt {
		panic(fmt.Sprintf("parameter %q holds %s, accessed as %s", b.name, b.dtype, dt))
	}
}

// SetSentinel writes the invalid-row sentinel into every element of row r:
// NaN for floats, the minimum value for integers, false for booleans. The
// row mask is authoritative; sentinels exist so masked rows are also
// visibly poisoned in raw dumps.
func (b *Buffer) SetSentinel(r int) {
	lo, hi := r*b.shape.Width, (r+1)*b.shape.Width
	switch b.dtype {
	case Float32:
		for i := lo; i < hi; i++ {
			b.f32[i] = float32(math.NaN())
		}
	case Float64:
		for i := lo; i < hi; i++ {
			b.f64[i] = math.NaN()
		}
	case Int32:
		for i := lo; i < hi; i++ {
			b.i32[i] = math.MinInt32
		}
	case Int64:
		for i := lo; i < hi; i++ {
			b.i64[i] = math.MinInt64
		}
	case Bool:
		for i := lo; i < hi; i++ {
			b.b[i] = false
		}
	}
}

// Floats returns the backing slice converted element-wise to float64,
// regardless of element type. It allocates; intended for sinks and tests,
// not for kernels.
func (b *Buffer) Floats() []float64 {
	n := b.rows * b.shape.Width
	out := make([]float64, n)
	switch b.dtype {
	case Float64:
		copy(out, b.f64)
	case Float32:
		for i, v := range b.f32 {
			out[i] = float64(v)
		}
	case Int32:
		for i, v := range b.i32 {
			out[i] = float64(v)
		}
	case Int64:
		for i, v := range b.i64 {
			out[i] = float64(v)
		}
	case Bool:
		for i, v := range b.b {
			if v {
				out[i] = 1
			}
		}
	}
	return out
}
