package gpu

import (
	"strings"

	"github.com/gogpu/naga"
)

// ValidateWGSL compiles a WGSL module with naga and returns a *CompileError
// holding naga's diagnostics when it fails. The SPIR-V output is discarded.
func ValidateWGSL(stage Stage, source string) error {
	if strings.TrimSpace(source) == "" {
		return &CompileError{Stage: stage, Log: "empty source"}
	}
	if _, err := naga.Compile(source); err != nil {
		return &CompileError{Stage: stage, Log: err.Error()}
	}
	return nil
}
