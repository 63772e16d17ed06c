package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/patgo25/pygama/internal/config"
	"github.com/patgo25/pygama/internal/ctxlog"
	"github.com/patgo25/pygama/internal/paramdb"
	"github.com/patgo25/pygama/internal/processor"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	model    *config.Model
	registry *processor.Registry
	db       paramdb.Database
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, mods ...processor.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Load all chain documents into the format-agnostic model first.
	model, err := loader.Load(ctx, cfg.ChainPath)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load chain configuration: %w", err))
	}
	if cfg.RowsPerBlock > 0 {
		model.Settings.RowsPerBlock = cfg.RowsPerBlock
	}
	logger.Debug("Chain configuration loaded into unified model.",
		"inputs", len(model.Inputs), "stages", len(model.Stages), "outputs", len(model.Outputs))

	// Create and populate the processor registry.
	reg := processor.NewRegistry()
	if len(mods) == 0 {
		mods = coreModules
	}
	for _, mod := range mods {
		mod.Register(reg)
	}
	logger.Debug("All processor modules registered.", "count", len(mods))

	var db paramdb.Database = paramdb.Empty{}
	if cfg.DatabasePath != "" {
		db, err = paramdb.LoadYAML(cfg.DatabasePath)
		if err != nil {
			panic(fmt.Errorf("failed to load parameter database: %w", err))
		}
		logger.Debug("Parameter database loaded.", "path", cfg.DatabasePath)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		model:    model,
		registry: reg,
		db:       db,
	}
}

// Registry returns the application's processor registry. This is primarily
// for testing.
func (a *App) Registry() *processor.Registry {
	return a.registry
}

// Model returns the loaded chain model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
