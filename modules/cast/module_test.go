package cast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patgo25/pygama/internal/param"
	"github.com/patgo25/pygama/internal/testutil"
)

func TestCastRounding(t *testing.T) {
	ch := testutil.BuildChain(t, `
input "x" { type = "float64" }
stage "c" {
  processor = "astype_int32"
  args      = ["x"]
  outputs   = ["xi"]
}
output "xi" {}
`)

	xi, ok := ch.Params().Get("xi")
	require.True(t, ok)
	assert.Equal(t, param.Int32, xi.DType())

	sink := testutil.RunChain(t, ch, 4, map[string]any{
		"x": []float64{1.4, 1.6, -2.5, 2.5},
	})
	// Halfway cases round to even.
	assert.Equal(t, []float64{1, 2, -2, 2}, sink.Column("xi"))
}

func TestCastOverflowMasks(t *testing.T) {
	ch := testutil.BuildChain(t, `
input "x" { type = "float64" }
stage "c" {
  processor = "astype_int32"
  args      = ["x"]
  outputs   = ["xi"]
}
output "xi" {}
`)
	sink := testutil.RunChain(t, ch, 3, map[string]any{
		"x": []float64{1, 3e9, 2},
	})
	assert.Equal(t, []bool{true, false, true}, sink.Mask)
}

func TestCastWidening(t *testing.T) {
	ch := testutil.BuildChain(t, `
input "n" {
  type   = "int32"
  length = 2
}
stage "c" {
  processor = "astype_float64"
  args      = ["n"]
  outputs   = ["nf"]
}
output "nf" {}
`)

	nf, ok := ch.Params().Get("nf")
	require.True(t, ok)
	assert.Equal(t, param.Float64, nf.DType())
	assert.True(t, nf.Shape().Equal(param.Array(2)))

	sink := testutil.RunChain(t, ch, 1, map[string]any{
		"n": []int32{3, -7},
	})
	assert.Equal(t, []float64{3, -7}, sink.Column("nf"))
}

func TestCastRejectsBool(t *testing.T) {
	err := testutil.BuildError(t, `
input "flag" { type = "bool" }
stage "c" {
  processor = "astype_int32"
  args      = ["flag"]
  outputs   = ["fi"]
}
`, nil)
	assert.Error(t, err)
}
