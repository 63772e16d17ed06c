package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/patgo25/pygama/internal/blockfile"
	"github.com/patgo25/pygama/internal/chain"
	"github.com/patgo25/pygama/internal/ctxlog"
	"github.com/patgo25/pygama/internal/executor"
	"github.com/patgo25/pygama/internal/mebosink"
	"github.com/patgo25/pygama/internal/runner"
)

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if len(a.config.InputPaths) == 0 {
		// Validate-only mode: build the chain once and report its shape.
		ch, err := chain.Build(ctx, a.model, a.registry, a.db)
		if err != nil {
			return fmt.Errorf("failed to build processing chain: %w", err)
		}
		a.logger.Info("Chain validated.",
			"stages", len(ch.Invocations()),
			"parameters", ch.Params().Len(),
			"rows_per_block", ch.RowsPerBlock())
		return nil
	}

	a.logger.Info("Starting block processing.", "partitions", len(a.config.InputPaths))
	stats, err := runner.Partitions(ctx, len(a.config.InputPaths), a.runPartition)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}
	a.logger.Info("Processing finished.",
		"blocks", stats.Blocks, "rows", stats.Rows, "masked_rows", stats.MaskedRows)

	a.logger.Debug("App.Run method finished.")
	return nil
}

// runPartition processes one input block file through a freshly built chain.
// Each partition owns its registry, reader, and sinks.
func (a *App) runPartition(ctx context.Context, partition int) (executor.Stats, error) {
	logger := ctxlog.FromContext(ctx)
	inPath := a.config.InputPaths[partition]

	ch, err := chain.Build(ctx, a.model, a.registry, a.db)
	if err != nil {
		return executor.Stats{}, fmt.Errorf("failed to build processing chain: %w", err)
	}

	in, err := os.Open(inPath)
	if err != nil {
		return executor.Stats{}, fmt.Errorf("failed to open input %q: %w", inPath, err)
	}
	defer in.Close()

	provider, err := blockfile.NewReader(in)
	if err != nil {
		return executor.Stats{}, fmt.Errorf("failed to read block file %q: %w", inPath, err)
	}
	defer provider.Close()

	var sinks []executor.Sink
	var closers []func() error

	if a.config.OutputPath != "" {
		outPath := partitionPath(a.config.OutputPath, inPath, partition, len(a.config.InputPaths))
		outFile, err := os.Create(outPath)
		if err != nil {
			return executor.Stats{}, fmt.Errorf("failed to create output %q: %w", outPath, err)
		}
		w, err := blockfile.NewWriter(outFile, ch.Outputs())
		if err != nil {
			outFile.Close()
			return executor.Stats{}, fmt.Errorf("failed to write block file %q: %w", outPath, err)
		}
		sinks = append(sinks, w)
		closers = append(closers, w.Close, outFile.Close)
		logger.Debug("Block file output attached.", "partition", partition, "path", outPath)
	}

	if a.config.ExportPath != "" {
		expPath := partitionPath(a.config.ExportPath, inPath, partition, len(a.config.InputPaths))
		expFile, err := os.Create(expPath)
		if err != nil {
			return executor.Stats{}, fmt.Errorf("failed to create export %q: %w", expPath, err)
		}
		sinks = append(sinks, mebosink.New(expFile, time.Now(), time.Second))
		closers = append(closers, expFile.Close)
		logger.Debug("Time-series export attached.", "partition", partition, "path", expPath)
	}

	var sink executor.Sink
	switch len(sinks) {
	case 0:
		sink = executor.Discard{}
	case 1:
		sink = sinks[0]
	default:
		sink = executor.MultiSink(sinks...)
	}

	exec := executor.New(ch, provider, sink)
	runErr := exec.Run(ctx)

	for _, closeFn := range closers {
		if err := closeFn(); err != nil && runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return executor.Stats{}, runErr
	}
	return exec.Stats(), nil
}

// partitionPath resolves the per-partition output location. A single input
// writes straight to the configured path; multiple inputs treat it as a
// directory and reuse each input's file name.
func partitionPath(outPath, inPath string, partition, total int) string {
	if total == 1 {
		return outPath
	}
	return filepath.Join(outPath, fmt.Sprintf("%02d_%s", partition, filepath.Base(inPath)))
}
