// Package gpu defines the device contract the render loop draws through:
// shape buffers, one shader program, matrix uniforms and frame begin/end.
//
// Backends live in sub-packages (glbackend, wgpubackend, webgl). Recorder is
// a headless implementation used by tests and the -headless mode.
package gpu

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"spinshapes/internal/logging"
)

// Attribute and uniform names shared by every shader set.
const (
	AttribPosition = "aVertexPosition"
	AttribColor    = "aVertexColor"

	UniformProjection = "uPMatrix"
	UniformModelView  = "uMVMatrix"
)

// Fixed attribute slots.
const (
	PositionLocation = 0
	ColorLocation    = 1
)

// ShapeHandle identifies uploaded shape buffers. Zero is never valid.
type ShapeHandle uint32

// ProgramHandle identifies a linked shader program. Zero is never valid.
type ProgramHandle uint32

// Primitive is how the rasterizer interprets a vertex sequence.
type Primitive int

const (
	Points Primitive = iota
	Lines
	LineStrip
	Triangles
	TriangleStrip
	TriangleFan
)

var primitiveNames = [...]string{
	Points:        "points",
	Lines:         "lines",
	LineStrip:     "line_strip",
	Triangles:     "triangles",
	TriangleStrip: "triangle_strip",
	TriangleFan:   "triangle_fan",
}

func (p Primitive) String() string {
	if p < 0 || int(p) >= len(primitiveNames) {
		return fmt.Sprintf("Primitive(%d)", int(p))
	}
	return primitiveNames[p]
}

// Valid reports whether p is a known primitive kind.
func (p Primitive) Valid() bool {
	return p >= 0 && int(p) < len(primitiveNames)
}

// ParsePrimitive accepts the names printed by String, plus a few aliases.
func ParsePrimitive(s string) (Primitive, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "-", "_")
	switch name {
	case "triangle_list", "trianglelist":
		return Triangles, nil
	case "trianglestrip":
		return TriangleStrip, nil
	case "trianglefan":
		return TriangleFan, nil
	case "linestrip":
		return LineStrip, nil
	}
	for i, n := range primitiveNames {
		if n == name {
			return Primitive(i), nil
		}
	}
	return 0, fmt.Errorf("unknown primitive %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Primitive) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid primitive %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Primitive) UnmarshalText(b []byte) error {
	v, err := ParsePrimitive(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Color is a linear RGBA clear color.
type Color struct {
	R, G, B, A float64
}

// Black is the default clear color.
var Black = Color{A: 1}

// Device is the GPU surface the render loop talks to. Implementations are
// single-threaded: every method must be called from the thread that owns the
// rendering context.
type Device interface {
	// Compile builds and links a program from vertex and fragment sources.
	Compile(vertexSource, fragmentSource string) (ProgramHandle, error)
	// Use activates a program for subsequent draws.
	Use(p ProgramHandle) error
	// SetUniform uploads a 4x4 matrix uniform of the active program. Unknown
	// names are ignored.
	SetUniform(name string, m mgl32.Mat4)

	// Upload allocates GPU buffers for one shape.
	Upload(vertices []mgl32.Vec3, colors []mgl32.Vec4) (ShapeHandle, error)
	// Draw binds the shape's buffers and issues one draw call over all of
	// its vertices.
	Draw(h ShapeHandle, kind Primitive) error

	// BeginFrame clears the color and depth buffers.
	BeginFrame(clear Color) error
	// EndFrame submits the frame's work.
	EndFrame() error

	// Release frees every GPU resource the device created.
	Release()
}

// CheckShape validates Upload input.
func CheckShape(vertices []mgl32.Vec3, colors []mgl32.Vec4) error {
	if len(vertices) == 0 {
		return fmt.Errorf("%w: no vertices", ErrInvalidShape)
	}
	if len(vertices) != len(colors) {
		return fmt.Errorf("%w: %d vertices but %d colors", ErrInvalidShape, len(vertices), len(colors))
	}
	return nil
}

// FlattenVec3 packs vertices into a tightly packed float slice.
func FlattenVec3(vs []mgl32.Vec3) []float32 {
	out := make([]float32, 0, len(vs)*3)
	for _, v := range vs {
		out = append(out, v[0], v[1], v[2])
	}
	return out
}

// FlattenVec4 packs colors into a tightly packed float slice.
func FlattenVec4(vs []mgl32.Vec4) []float32 {
	out := make([]float32, 0, len(vs)*4)
	for _, v := range vs {
		out = append(out, v[0], v[1], v[2], v[3])
	}
	return out
}

// FanIndices expands a triangle fan of n vertices into a triangle list.
func FanIndices(n int) []uint32 {
	if n < 3 {
		return nil
	}
	out := make([]uint32, 0, (n-2)*3)
	for i := 1; i < n-1; i++ {
		out = append(out, 0, uint32(i), uint32(i+1))
	}
	return out
}

var missingUniforms sync.Map

// WarnMissingUniform logs once per uniform name that a program does not
// declare. SetUniform stays a no-op in that case.
func WarnMissingUniform(name string) {
	if _, seen := missingUniforms.LoadOrStore(name, struct{}{}); seen {
		return
	}
	logging.Logger().Warn("uniform not found in program, ignoring", "uniform", name)
}
