package arith_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patgo25/pygama/internal/testutil"
)

func TestBinaryOps(t *testing.T) {
	ch := testutil.BuildChain(t, `
chain { rows_per_block = 4 }
input "a" { type = "float64" }
input "b" { type = "float64" }
stage "s" {
  processor = "add"
  args      = ["a", "b"]
  outputs   = ["sum"]
}
stage "d" {
  processor = "sub"
  args      = ["a", "b"]
  outputs   = ["diff"]
}
stage "p" {
  processor = "mul"
  args      = ["a", "b"]
  outputs   = ["prod"]
}
stage "q" {
  processor = "div"
  args      = ["a", "b"]
  outputs   = ["quot"]
}
output "sum" {}
output "diff" {}
output "prod" {}
output "quot" {}
`)
	sink := testutil.RunChain(t, ch, 2, map[string]any{
		"a": []float64{6, 9},
		"b": []float64{2, 3},
	})

	assert.Equal(t, []float64{8, 12}, sink.Column("sum"))
	assert.Equal(t, []float64{4, 6}, sink.Column("diff"))
	assert.Equal(t, []float64{12, 27}, sink.Column("prod"))
	assert.Equal(t, []float64{3, 3}, sink.Column("quot"))
}

func TestBroadcastScalarOverArray(t *testing.T) {
	ch := testutil.BuildChain(t, `
input "wf" {
  type   = "float64"
  length = 3
}
input "bl" { type = "float64" }
stage "blsub" {
  processor = "sub"
  args      = ["wf", "bl"]
  outputs   = ["wf_blsub"]
}
output "wf_blsub" {}
`)
	sink := testutil.RunChain(t, ch, 2, map[string]any{
		"wf": []float64{10, 11, 12, 20, 21, 22},
		"bl": []float64{10, 20},
	})
	assert.Equal(t, []float64{0, 1, 2, 0, 1, 2}, sink.Column("wf_blsub"))
}

func TestDivMasksZeroDivisor(t *testing.T) {
	ch := testutil.BuildChain(t, `
input "a" { type = "float64" }
input "b" { type = "float64" }
stage "q" {
  processor = "div"
  args      = ["a", "b"]
  outputs   = ["quot"]
}
output "quot" {}
`)
	sink := testutil.RunChain(t, ch, 3, map[string]any{
		"a": []float64{6, 6, 6},
		"b": []float64{3, 0, 2},
	})

	assert.Equal(t, []bool{true, false, true}, sink.Mask)
	quot := sink.Column("quot")
	assert.Equal(t, 2.0, quot[0])
	assert.True(t, math.IsNaN(quot[1]))
	assert.Equal(t, 3.0, quot[2])
}

func TestReciprocal(t *testing.T) {
	ch := testutil.BuildChain(t, `
input "x" { type = "float64" }
stage "r" {
  processor = "reciprocal"
  args      = ["x"]
  outputs   = ["inv"]
}
output "inv" {}
`)
	sink := testutil.RunChain(t, ch, 3, map[string]any{
		"x": []float64{1, 0, 4},
	})

	assert.Equal(t, []bool{true, false, true}, sink.Mask)
	inv := sink.Column("inv")
	assert.Equal(t, 1.0, inv[0])
	assert.True(t, math.IsNaN(inv[1]))
	assert.Equal(t, 0.25, inv[2])
}

func TestVarLengthTailIgnored(t *testing.T) {
	// The second row's live length is 2; the stale zero at index 2 must
	// not mask the row when dividing.
	ch := testutil.BuildChain(t, `
input "wf" {
  type    = "float64"
  length  = 3
  lengths = "wf_len"
}
stage "q" {
  processor = "div"
  args      = ["1", "wf"]
  outputs   = ["inv"]
}
output "inv" {}
`)
	sink := testutil.RunChain(t, ch, 2, map[string]any{
		"wf":     []float64{1, 2, 4, 5, 10, 0},
		"wf_len": []int32{3, 2},
	})

	assert.Equal(t, []bool{true, true}, sink.Mask)
	inv := sink.Column("inv")
	require.Len(t, inv, 6)
	assert.Equal(t, []float64{1, 0.5, 0.25}, inv[:3])
	assert.Equal(t, 0.2, inv[3])
	assert.Equal(t, 0.1, inv[4])
}
