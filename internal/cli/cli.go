package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/patgo25/pygama/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("pygama", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
pygama - declarative block processing chains for sampled waveform data.

Usage:
  pygama -chain CHAIN_PATH [options] [INPUT_FILE ...]

Arguments:
  INPUT_FILE
    Block files to process, one independent partition per file. With no
    input files the chain is built and validated, then the program exits.

Options:
`)
		flagSet.PrintDefaults()
	}

	chainFlag := flagSet.String("chain", "", "Path to a chain .hcl file or a directory of .hcl files.")
	cFlag := flagSet.String("c", "", "Path to a chain .hcl file or directory (shorthand).")
	dbFlag := flagSet.String("db", "", "Path to a YAML parameter database.")
	outputFlag := flagSet.String("output", "", "Block file output path (directory when processing several inputs).")
	oFlag := flagSet.String("o", "", "Block file output path (shorthand).")
	exportFlag := flagSet.String("export-mebo", "", "Time-series export path for scalar chain outputs.")
	rowsFlag := flagSet.Int("rows-per-block", 0, "Rows per block. 0 uses the chain document's setting.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	chainPath := *chainFlag
	if chainPath == "" {
		chainPath = *cFlag
	}
	if chainPath == "" {
		slog.Debug("No chain path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	outputPath := *outputFlag
	if outputPath == "" {
		outputPath = *oFlag
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ChainPath:    chainPath,
		DatabasePath: *dbFlag,
		InputPaths:   flagSet.Args(),
		OutputPath:   outputPath,
		ExportPath:   *exportFlag,
		RowsPerBlock: *rowsFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
