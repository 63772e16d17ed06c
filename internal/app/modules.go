package app

import (
	"github.com/patgo25/pygama/internal/processor"
	"github.com/patgo25/pygama/modules"
)

// coreModules lists the processor modules compiled into the binary. Apps can
// override this set by passing explicit modules to NewApp.
var coreModules []processor.Module = modules.Core()
