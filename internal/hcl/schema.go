package hcl

import "github.com/hashicorp/hcl/v2"

// chainBlock is the `chain { ... }` settings block of a chain document.
type chainBlock struct {
	RowsPerBlock int      `hcl:"rows_per_block,optional"`
	Remain       hcl.Body `hcl:",remain"`
}

// inputBlock is an `input "name" { ... }` block declaring a chain-input
// parameter.
type inputBlock struct {
	Name    string `hcl:"name,label"`
	Type    string `hcl:"type"`
	Length  int    `hcl:"length,optional"`
	Lengths string `hcl:"lengths,optional"`
	Unit    string `hcl:"unit,optional"`
}

// stageBlock is a `stage "name" { ... }` block declaring one processor
// invocation.
type stageBlock struct {
	Name      string   `hcl:"name,label"`
	Processor string   `hcl:"processor"`
	Args      []string `hcl:"args"`
	Outputs   []string `hcl:"outputs"`
	Unit      string   `hcl:"unit,optional"`
}

// outputBlock is an `output "name" {}` block marking a parameter as a chain
// output.
type outputBlock struct {
	Name string `hcl:"name,label"`
}

// fileRoot decodes all recognized top-level blocks from any document file.
type fileRoot struct {
	Chains  []*chainBlock  `hcl:"chain,block"`
	Inputs  []*inputBlock  `hcl:"input,block"`
	Stages  []*stageBlock  `hcl:"stage,block"`
	Outputs []*outputBlock `hcl:"output,block"`
	Remain  hcl.Body       `hcl:",remain"`
}
