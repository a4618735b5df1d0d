package codegen

import (
	"bytes"

	"github.com/xplshn/vslc/pkg/config"
	"github.com/xplshn/vslc/pkg/ir"
)

// Backend is the interface that all code generation backends must implement.
type Backend interface {
	// Generate takes an instruction stream and a configuration, and renders
	// the assembly text for the configured target.
	Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error)
}
