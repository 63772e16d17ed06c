package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ChainPath    string // hcl chain files
	DatabasePath string // optional yaml parameter database

	InputPaths []string // block files, one partition per path
	OutputPath string   // block file output (single input) or directory (many)
	ExportPath string   // optional mebo time-series export

	RowsPerBlock int // overrides the chain document when > 0

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ChainPath == "" {
		return nil, errors.New("ChainPath is a required configuration field and cannot be empty")
	}
	if cfg.RowsPerBlock < 0 {
		return nil, errors.New("RowsPerBlock must be positive when set")
	}
	if len(cfg.InputPaths) == 0 && (cfg.OutputPath != "" || cfg.ExportPath != "") {
		return nil, errors.New("output paths require at least one input block file")
	}

	return &cfg, nil
}
