package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patgo25/pygama/internal/hcl"
	"github.com/patgo25/pygama/internal/param"
	"github.com/patgo25/pygama/internal/paramdb"
	"github.com/patgo25/pygama/modules"
)

func buildSource(t *testing.T, src string, db paramdb.Database) (*Chain, error) {
	t.Helper()
	model, err := hcl.ParseSource(context.Background(), "inline_test.hcl", []byte(src))
	require.NoError(t, err)
	return Build(context.Background(), model, modules.NewRegistry(), db)
}

func TestBuild(t *testing.T) {
	t.Run("linear chain binds in order", func(t *testing.T) {
		ch, err := buildSource(t, `
chain { rows_per_block = 16 }
input "x" { type = "float64" }
stage "shift" {
  processor = "add"
  args      = ["x", "1"]
  outputs   = ["s"]
}
stage "scale" {
  processor = "mul"
  args      = ["s", "2"]
  outputs   = ["t"]
  unit      = "keV"
}
output "t" {}
`, nil)
		require.NoError(t, err)

		assert.Equal(t, 16, ch.RowsPerBlock())
		require.Len(t, ch.Invocations(), 2)
		assert.Equal(t, "shift", ch.Invocations()[0].Stage)
		assert.Equal(t, "scale", ch.Invocations()[1].Stage)

		// The literal is frozen as a constant, not a buffer.
		shift := ch.Invocations()[0]
		assert.Nil(t, shift.Inputs[1].Buf)
		assert.Equal(t, 1.0, shift.Inputs[1].Const)

		require.Len(t, ch.Outputs(), 1)
		out := ch.Outputs()[0]
		assert.Equal(t, "t", out.Name())
		assert.Equal(t, param.Float64, out.DType())
		assert.True(t, out.Shape().IsScalar())
		assert.Equal(t, "keV", out.Unit())
	})

	t.Run("declaration order breaks scheduling ties", func(t *testing.T) {
		// Both branches depend only on the input; they must bind in
		// document order regardless of name.
		ch, err := buildSource(t, `
input "x" { type = "float64" }
stage "zz" {
  processor = "add"
  args      = ["x", "1"]
  outputs   = ["z_out"]
}
stage "aa" {
  processor = "add"
  args      = ["x", "2"]
  outputs   = ["a_out"]
}
output "z_out" {}
output "a_out" {}
`, nil)
		require.NoError(t, err)
		require.Len(t, ch.Invocations(), 2)
		assert.Equal(t, "zz", ch.Invocations()[0].Stage)
		assert.Equal(t, "aa", ch.Invocations()[1].Stage)
	})

	t.Run("document order does not constrain dependencies", func(t *testing.T) {
		// The consumer is declared before its producer; the topological
		// order still runs the producer first.
		ch, err := buildSource(t, `
input "x" { type = "float64" }
stage "late" {
  processor = "mul"
  args      = ["early_out", "2"]
  outputs   = ["late_out"]
}
stage "early" {
  processor = "add"
  args      = ["x", "1"]
  outputs   = ["early_out"]
}
output "late_out" {}
`, nil)
		require.NoError(t, err)
		require.Len(t, ch.Invocations(), 2)
		assert.Equal(t, "early", ch.Invocations()[0].Stage)
		assert.Equal(t, "late", ch.Invocations()[1].Stage)
	})

	t.Run("rebuild is deterministic", func(t *testing.T) {
		src := `
input "x" {
  type   = "float64"
  length = 4
}
stage "a" {
  processor = "add"
  args      = ["x", "x"]
  outputs   = ["doubled"]
}
stage "b" {
  processor = "sum"
  args      = ["doubled"]
  outputs   = ["total"]
}
output "total" {}
`
		first, err := buildSource(t, src, nil)
		require.NoError(t, err)
		second, err := buildSource(t, src, nil)
		require.NoError(t, err)

		require.Equal(t, len(first.Invocations()), len(second.Invocations()))
		for i := range first.Invocations() {
			assert.Equal(t, first.Invocations()[i].Stage, second.Invocations()[i].Stage)
		}
		assert.Equal(t, first.Params().Names(), second.Params().Names())
		a, _ := first.Params().Get("doubled")
		b, _ := second.Params().Get("doubled")
		assert.True(t, a.Shape().Equal(b.Shape()))
		assert.Equal(t, a.DType(), b.DType())
	})

	t.Run("broadcast infers array output from scalar operand", func(t *testing.T) {
		ch, err := buildSource(t, `
input "wf" {
  type   = "float64"
  length = 8
}
input "bl" { type = "float64" }
stage "blsub" {
  processor = "sub"
  args      = ["wf", "bl"]
  outputs   = ["wf_blsub"]
}
output "wf_blsub" {}
`, nil)
		require.NoError(t, err)
		out := ch.Outputs()[0]
		assert.True(t, out.Shape().Equal(param.Array(8)))
	})

	t.Run("variable-length input declares its length parameter", func(t *testing.T) {
		ch, err := buildSource(t, `
input "wf" {
  type    = "float64"
  length  = 8
  lengths = "wf_len"
}
stage "total" {
  processor = "sum"
  args      = ["wf"]
  outputs   = ["energy"]
}
output "energy" {}
`, nil)
		require.NoError(t, err)

		lenBuf, ok := ch.Params().Get("wf_len")
		require.True(t, ok)
		assert.Equal(t, param.Int32, lenBuf.DType())

		// The implicit length parameter is itself a chain input.
		names := make([]string, 0, len(ch.Inputs()))
		for _, in := range ch.Inputs() {
			names = append(names, in.Name())
		}
		assert.Contains(t, names, "wf_len")
		assert.Contains(t, names, "wf")

		// The bound value carries the lengths buffer.
		inv := ch.Invocations()[0]
		require.NotNil(t, inv.Inputs[0].Lengths)
		assert.Equal(t, "wf_len", inv.Inputs[0].Lengths.Name())
	})
}

func TestBuildDatabase(t *testing.T) {
	t.Run("database value frozen at build time", func(t *testing.T) {
		db := paramdb.Static{"calibration.gain": 5}
		ch, err := buildSource(t, `
input "x" { type = "float64" }
stage "cal" {
  processor = "mul"
  args      = ["x", "db.calibration.gain"]
  outputs   = ["x_cal"]
}
output "x_cal" {}
`, db)
		require.NoError(t, err)

		inv := ch.Invocations()[0]
		assert.Nil(t, inv.Inputs[1].Buf)
		assert.Equal(t, 5.0, inv.Inputs[1].Const)

		// Mutating the database after build must not matter; re-resolve
		// never happens.
		db["calibration.gain"] = 99
		assert.Equal(t, 5.0, inv.Inputs[1].Const)
	})

	t.Run("missing key fails the build", func(t *testing.T) {
		_, err := buildSource(t, `
input "x" { type = "float64" }
stage "cal" {
  processor = "mul"
  args      = ["x", "db.calibration.gain"]
  outputs   = ["x_cal"]
}
`, paramdb.Empty{})
		var missing *MissingParameterError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "cal", missing.Stage)
		assert.Equal(t, "calibration.gain", missing.Key)
	})
}

func TestBuildErrors(t *testing.T) {
	t.Run("unknown processor", func(t *testing.T) {
		_, err := buildSource(t, `
input "x" { type = "float64" }
stage "s" {
  processor = "fourier"
  args      = ["x"]
  outputs   = ["y"]
}
`, nil)
		var unknown *UnknownProcessorError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "s", unknown.Stage)
		assert.Equal(t, "fourier", unknown.Processor)
	})

	t.Run("wrong arity", func(t *testing.T) {
		_, err := buildSource(t, `
input "x" { type = "float64" }
stage "s" {
  processor = "add"
  args      = ["x"]
  outputs   = ["y"]
}
`, nil)
		var sig *SignatureError
		require.ErrorAs(t, err, &sig)
		assert.Equal(t, "s", sig.Stage)
	})

	t.Run("wrong output count", func(t *testing.T) {
		_, err := buildSource(t, `
input "x" { type = "float64" }
stage "s" {
  processor = "add"
  args      = ["x", "1"]
  outputs   = ["y", "z"]
}
`, nil)
		var sig *SignatureError
		assert.ErrorAs(t, err, &sig)
	})

	t.Run("unknown parameter reference", func(t *testing.T) {
		_, err := buildSource(t, `
input "x" { type = "float64" }
stage "s" {
  processor = "add"
  args      = ["ghost", "1"]
  outputs   = ["y"]
}
`, nil)
		var shape *param.ShapeInferenceError
		require.ErrorAs(t, err, &shape)
		assert.Equal(t, "ghost", shape.Name)
	})

	t.Run("element type not accepted", func(t *testing.T) {
		_, err := buildSource(t, `
input "flag" { type = "bool" }
stage "s" {
  processor = "add"
  args      = ["flag", "1"]
  outputs   = ["y"]
}
`, nil)
		var sig *SignatureError
		assert.ErrorAs(t, err, &sig)
	})

	t.Run("two stages writing one parameter conflict", func(t *testing.T) {
		_, err := buildSource(t, `
input "x" { type = "float64" }
stage "a" {
  processor = "add"
  args      = ["x", "1"]
  outputs   = ["y"]
}
stage "b" {
  processor = "mul"
  args      = ["x", "2"]
  outputs   = ["y"]
}
`, nil)
		var conflict *param.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "y", conflict.Name)
	})

	t.Run("stage writing a chain input conflicts", func(t *testing.T) {
		_, err := buildSource(t, `
input "x" { type = "float64" }
stage "a" {
  processor = "add"
  args      = ["x", "1"]
  outputs   = ["x"]
}
`, nil)
		var conflict *param.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("cycle names its stages and parameters", func(t *testing.T) {
		_, err := buildSource(t, `
input "x" { type = "float64" }
stage "a" {
  processor = "add"
  args      = ["b_out", "1"]
  outputs   = ["a_out"]
}
stage "b" {
  processor = "mul"
  args      = ["a_out", "2"]
  outputs   = ["b_out"]
}
`, nil)
		var cyc *CyclicDependencyError
		require.ErrorAs(t, err, &cyc)
		assert.ElementsMatch(t, []string{"a", "b"}, cyc.Stages)
		assert.ElementsMatch(t, []string{"a_out", "b_out"}, cyc.Params)
	})

	t.Run("undeclared chain output", func(t *testing.T) {
		_, err := buildSource(t, `
input "x" { type = "float64" }
output "ghost" {}
`, nil)
		var shape *param.ShapeInferenceError
		require.ErrorAs(t, err, &shape)
		assert.Equal(t, "ghost", shape.Name)
	})

	t.Run("bad input type name", func(t *testing.T) {
		_, err := buildSource(t, `
input "x" { type = "quaternion" }
`, nil)
		assert.Error(t, err)
	})
}
