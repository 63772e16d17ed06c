package hcl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patgo25/pygama/internal/config"
)

const sampleDoc = `
chain {
  rows_per_block = 8
}

input "waveform" {
  type   = "float64"
  length = 4
  unit   = "adc"
}

input "baseline" {
  type = "float64"
}

stage "subtracted" {
  processor = "sub"
  args      = ["waveform", "baseline"]
  outputs   = ["wf_blsub"]
}

stage "scaled" {
  processor = "mul"
  args      = ["wf_blsub", "db.calibration.gain"]
  outputs   = ["wf_cal"]
  unit      = "keV"
}

output "wf_cal" {}
`

func TestParseSource(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes a full document", func(t *testing.T) {
		model, err := ParseSource(ctx, "doc.hcl", []byte(sampleDoc))
		require.NoError(t, err)

		assert.Equal(t, 8, model.Settings.RowsPerBlock)

		require.Len(t, model.Inputs, 2)
		assert.Equal(t, "waveform", model.Inputs[0].Name)
		assert.Equal(t, "float64", model.Inputs[0].Type)
		assert.Equal(t, 4, model.Inputs[0].Length)
		assert.Equal(t, "adc", model.Inputs[0].Unit)
		assert.Equal(t, 0, model.Inputs[1].Length)

		require.Len(t, model.Stages, 2)
		first := model.Stages[0]
		assert.Equal(t, "subtracted", first.Name)
		assert.Equal(t, "sub", first.Processor)
		require.Len(t, first.Args, 2)
		assert.Equal(t, config.ArgParam, first.Args[0].Kind)
		assert.Equal(t, "waveform", first.Args[0].Name)

		second := model.Stages[1]
		require.Len(t, second.Args, 2)
		assert.Equal(t, config.ArgDatabase, second.Args[1].Kind)
		assert.Equal(t, "calibration.gain", second.Args[1].Key)
		assert.Equal(t, "keV", second.Unit)

		require.Len(t, model.Outputs, 1)
		assert.Equal(t, "wf_cal", model.Outputs[0])
	})

	t.Run("missing settings block falls back to default", func(t *testing.T) {
		model, err := ParseSource(ctx, "doc.hcl", []byte(`
input "x" { type = "float64" }
`))
		require.NoError(t, err)
		assert.Equal(t, config.DefaultRowsPerBlock, model.Settings.RowsPerBlock)
	})

	t.Run("duplicate stage name fails", func(t *testing.T) {
		_, err := ParseSource(ctx, "doc.hcl", []byte(`
stage "a" {
  processor = "add"
  args      = ["x", "y"]
  outputs   = ["s"]
}
stage "a" {
  processor = "mul"
  args      = ["x", "y"]
  outputs   = ["p"]
}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "declared more than once")
	})

	t.Run("bad argument token fails", func(t *testing.T) {
		_, err := ParseSource(ctx, "doc.hcl", []byte(`
stage "a" {
  processor = "add"
  args      = ["x", "not-valid!"]
  outputs   = ["s"]
}
`))
		assert.Error(t, err)
	})

	t.Run("syntax error fails", func(t *testing.T) {
		_, err := ParseSource(ctx, "doc.hcl", []byte(`input "x" {`))
		assert.Error(t, err)
	})
}

func TestLoaderLoad(t *testing.T) {
	t.Run("no documents found fails", func(t *testing.T) {
		dir := t.TempDir()
		_, err := NewLoader().Load(context.Background(), dir)
		assert.Error(t, err)
	})
}
