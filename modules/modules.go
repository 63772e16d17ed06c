// Package modules collects the built-in processor library. Each subpackage
// registers a family of processors; Core returns them all for registration
// with a processor registry.
package modules

import (
	"github.com/patgo25/pygama/internal/processor"
	"github.com/patgo25/pygama/modules/arith"
	"github.com/patgo25/pygama/modules/cast"
	"github.com/patgo25/pygama/modules/compare"
	"github.com/patgo25/pygama/modules/reduce"
	"github.com/patgo25/pygama/modules/window"
)

// Core returns the built-in processor modules in registration order.
func Core() []processor.Module {
	return []processor.Module{
		&arith.Module{},
		&compare.Module{},
		&reduce.Module{},
		&window.Module{},
		&cast.Module{},
	}
}

// NewRegistry returns a processor registry with all built-ins registered.
func NewRegistry() *processor.Registry {
	r := processor.NewRegistry()
	for _, m := range Core() {
		m.Register(r)
	}
	return r
}
