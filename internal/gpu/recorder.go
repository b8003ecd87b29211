package gpu

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"spinshapes/internal/logging"
)

// Op names a recorded device call.
type Op string

const (
	OpBeginFrame Op = "begin_frame"
	OpEndFrame   Op = "end_frame"
	OpCompile    Op = "compile"
	OpUse        Op = "use"
	OpUniform    Op = "uniform"
	OpUpload     Op = "upload"
	OpDraw       Op = "draw"
)

// Call is one recorded device call.
type Call struct {
	Op        Op
	Shape     ShapeHandle
	Program   ProgramHandle
	Primitive Primitive
	// Count is the vertex count of an upload or draw.
	Count   int
	Uniform string
	Matrix  mgl32.Mat4
	Clear   Color
}

type recordedShape struct {
	vertices []mgl32.Vec3
	colors   []mgl32.Vec4
}

type recordedProgram struct {
	vertex, fragment string
}

// Recorder is a Device that keeps shapes in memory and records every call.
// It never touches a GPU.
type Recorder struct {
	calls    []Call
	shapes   map[ShapeHandle]recordedShape
	programs map[ProgramHandle]recordedProgram
	active   ProgramHandle
	next     uint32
	validate bool
	uniforms map[string]bool
	inFrame  bool
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithWGSLValidation makes Compile run both sources through naga, so
// malformed shaders fail the same way they would on the WebGPU backend.
func WithWGSLValidation() RecorderOption {
	return func(r *Recorder) { r.validate = true }
}

// NewRecorder creates an empty recorder.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		shapes:   make(map[ShapeHandle]recordedShape),
		programs: make(map[ProgramHandle]recordedProgram),
		uniforms: map[string]bool{UniformProjection: true, UniformModelView: true},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) nextID() uint32 {
	r.next++
	return r.next
}

func (r *Recorder) Compile(vertexSource, fragmentSource string) (ProgramHandle, error) {
	if r.validate {
		if err := ValidateWGSL(VertexStage, vertexSource); err != nil {
			return 0, err
		}
		if err := ValidateWGSL(FragmentStage, fragmentSource); err != nil {
			return 0, err
		}
	}
	h := ProgramHandle(r.nextID())
	r.programs[h] = recordedProgram{vertex: vertexSource, fragment: fragmentSource}
	r.calls = append(r.calls, Call{Op: OpCompile, Program: h})
	return h, nil
}

func (r *Recorder) Use(p ProgramHandle) error {
	if _, ok := r.programs[p]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProgram, p)
	}
	r.active = p
	r.calls = append(r.calls, Call{Op: OpUse, Program: p})
	return nil
}

func (r *Recorder) SetUniform(name string, m mgl32.Mat4) {
	if r.active == 0 || !r.uniforms[name] {
		WarnMissingUniform(name)
		return
	}
	r.calls = append(r.calls, Call{Op: OpUniform, Program: r.active, Uniform: name, Matrix: m})
}

func (r *Recorder) Upload(vertices []mgl32.Vec3, colors []mgl32.Vec4) (ShapeHandle, error) {
	if err := CheckShape(vertices, colors); err != nil {
		return 0, err
	}
	h := ShapeHandle(r.nextID())
	r.shapes[h] = recordedShape{
		vertices: append([]mgl32.Vec3(nil), vertices...),
		colors:   append([]mgl32.Vec4(nil), colors...),
	}
	r.calls = append(r.calls, Call{Op: OpUpload, Shape: h, Count: len(vertices)})
	return h, nil
}

func (r *Recorder) Draw(h ShapeHandle, kind Primitive) error {
	s, ok := r.shapes[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownShape, h)
	}
	if r.active == 0 {
		return ErrNoProgram
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %v", ErrUnsupported, kind)
	}
	r.calls = append(r.calls, Call{Op: OpDraw, Shape: h, Program: r.active, Primitive: kind, Count: len(s.vertices)})
	return nil
}

func (r *Recorder) BeginFrame(clear Color) error {
	if r.inFrame {
		logging.Logger().Debug("recorder: BeginFrame without EndFrame")
	}
	r.inFrame = true
	r.calls = append(r.calls, Call{Op: OpBeginFrame, Clear: clear})
	return nil
}

func (r *Recorder) EndFrame() error {
	r.inFrame = false
	r.calls = append(r.calls, Call{Op: OpEndFrame})
	return nil
}

func (r *Recorder) Release() {
	clear(r.shapes)
	clear(r.programs)
	r.active = 0
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	return append([]Call(nil), r.calls...)
}

// CallsOf returns the recorded calls with the given op.
func (r *Recorder) CallsOf(op Op) []Call {
	var out []Call
	for _, c := range r.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls but keeps shapes and programs.
func (r *Recorder) Reset() {
	r.calls = r.calls[:0]
}

// Shape returns a copy of an uploaded shape's data.
func (r *Recorder) Shape(h ShapeHandle) ([]mgl32.Vec3, []mgl32.Vec4, bool) {
	s, ok := r.shapes[h]
	if !ok {
		return nil, nil, false
	}
	return append([]mgl32.Vec3(nil), s.vertices...), append([]mgl32.Vec4(nil), s.colors...), true
}
