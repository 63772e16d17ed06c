// Package testutil provides shared harnesses for chain tests: building a
// chain from inline HCL source and running it against in-memory columns.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patgo25/pygama/internal/chain"
	"github.com/patgo25/pygama/internal/config"
	"github.com/patgo25/pygama/internal/executor"
	"github.com/patgo25/pygama/internal/hcl"
	"github.com/patgo25/pygama/internal/paramdb"
	"github.com/patgo25/pygama/modules"
)

// ParseModel decodes inline HCL chain source into the format-agnostic model.
func ParseModel(t *testing.T, src string) *config.Model {
	t.Helper()
	model, err := hcl.ParseSource(context.Background(), "inline_test.hcl", []byte(src))
	require.NoError(t, err)
	return model
}

// BuildChain parses inline HCL source and builds a chain against the core
// processor modules and an empty parameter database.
func BuildChain(t *testing.T, src string) *chain.Chain {
	t.Helper()
	return BuildChainWithDB(t, src, paramdb.Empty{})
}

// BuildChainWithDB is BuildChain with an explicit parameter database.
func BuildChainWithDB(t *testing.T, src string, db paramdb.Database) *chain.Chain {
	t.Helper()
	ch, err := chain.Build(context.Background(), ParseModel(t, src), modules.NewRegistry(), db)
	require.NoError(t, err)
	return ch
}

// BuildError parses inline HCL source and returns the chain build error,
// requiring that the build fails.
func BuildError(t *testing.T, src string, db paramdb.Database) error {
	t.Helper()
	if db == nil {
		db = paramdb.Empty{}
	}
	_, err := chain.Build(context.Background(), ParseModel(t, src), modules.NewRegistry(), db)
	require.Error(t, err)
	return err
}

// RunChain feeds row-major input columns through the chain and returns the
// recording sink with all drained output blocks.
func RunChain(t *testing.T, ch *chain.Chain, rows int, cols map[string]any) *executor.MemorySink {
	t.Helper()
	sink := executor.NewMemorySink()
	exec := executor.New(ch, executor.NewSliceProvider(rows, cols), sink)
	require.NoError(t, exec.Run(context.Background()))
	return sink
}
