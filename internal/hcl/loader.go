// Package hcl loads chain documents written in HCL and translates them into
// the format-agnostic config model.
package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/patgo25/pygama/internal/config"
	"github.com/patgo25/pygama/internal/ctxlog"
	"github.com/patgo25/pygama/internal/fsutil"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL chain-document loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load discovers .hcl files under the given paths, parses them, and merges
// every recognized block into a single model. Duplicate stage or input
// names across files are an error; the last chain settings block wins.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl chain documents found under %v", paths)
	}
	logger.Debug("Discovered chain documents.", "count", len(files))

	parser := hclparse.NewParser()
	model := &config.Model{}
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}
		if err := mergeFile(model, hclFile.Body, file); err != nil {
			return nil, err
		}
	}
	finalize(model)

	logger.Debug("HCL loading complete.",
		"inputs", len(model.Inputs), "stages", len(model.Stages), "outputs", len(model.Outputs))
	return model, nil
}

// ParseSource parses a single in-memory document into a model. Used by
// tests and by callers that already hold the document text.
func ParseSource(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, diags)
	}
	model := &config.Model{}
	if err := mergeFile(model, hclFile.Body, filename); err != nil {
		return nil, err
	}
	finalize(model)
	return model, nil
}

// mergeFile decodes all recognized blocks from one file body and appends
// them to the model.
func mergeFile(model *config.Model, body hcl.Body, file string) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return fmt.Errorf("failed to decode %s: %w", file, diags)
	}

	for _, c := range root.Chains {
		if c.RowsPerBlock < 0 {
			return fmt.Errorf("%s: rows_per_block must be positive, got %d", file, c.RowsPerBlock)
		}
		if c.RowsPerBlock > 0 {
			model.Settings.RowsPerBlock = c.RowsPerBlock
		}
	}

	for _, in := range root.Inputs {
		for _, existing := range model.Inputs {
			if existing.Name == in.Name {
				return fmt.Errorf("%s: input %q declared more than once", file, in.Name)
			}
		}
		model.Inputs = append(model.Inputs, &config.ParamSpec{
			Name:    in.Name,
			Type:    in.Type,
			Length:  in.Length,
			Lengths: in.Lengths,
			Unit:    in.Unit,
		})
	}

	for _, st := range root.Stages {
		for _, existing := range model.Stages {
			if existing.Name == st.Name {
				return fmt.Errorf("%s: stage %q declared more than once", file, st.Name)
			}
		}
		spec := &config.StageSpec{
			Name:      st.Name,
			Processor: st.Processor,
			Outputs:   st.Outputs,
			Unit:      st.Unit,
		}
		for _, raw := range st.Args {
			arg, err := config.ParseArgument(raw)
			if err != nil {
				return fmt.Errorf("%s: stage %q: %w", file, st.Name, err)
			}
			spec.Args = append(spec.Args, arg)
		}
		model.Stages = append(model.Stages, spec)
	}

	for _, out := range root.Outputs {
		model.Outputs = append(model.Outputs, out.Name)
	}

	return nil
}

func finalize(model *config.Model) {
	if model.Settings.RowsPerBlock == 0 {
		model.Settings.RowsPerBlock = config.DefaultRowsPerBlock
	}
}
