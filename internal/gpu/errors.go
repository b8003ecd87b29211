package gpu

import (
	"errors"
	"fmt"
)

var (
	ErrContextUnavailable = errors.New("gpu: rendering context unavailable")
	ErrCompile            = errors.New("gpu: shader compile failed")
	ErrLink               = errors.New("gpu: program link failed")
	ErrInvalidShape       = errors.New("gpu: invalid shape data")
	ErrUnknownShape       = errors.New("gpu: unknown shape handle")
	ErrUnknownProgram     = errors.New("gpu: unknown program handle")
	ErrNoProgram          = errors.New("gpu: no program in use")
	ErrUnsupported        = errors.New("gpu: unsupported primitive")
)

// Stage names a shader stage.
type Stage string

const (
	VertexStage   Stage = "vertex"
	FragmentStage Stage = "fragment"
)

// CompileError carries the compiler log of a failed stage.
type CompileError struct {
	Stage Stage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compiling %s shader: %s", e.Stage, e.Log)
}

func (e *CompileError) Unwrap() error { return ErrCompile }

// LinkError carries the linker log of a failed program.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("linking program: %s", e.Log)
}

func (e *LinkError) Unwrap() error { return ErrLink }
