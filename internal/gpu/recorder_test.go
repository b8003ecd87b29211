package gpu

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"spinshapes/internal/shaders"
)

var triangle = []mgl32.Vec3{{0, 1, 0}, {-1, -1, 0}, {1, -1, 0}}

var triangleColors = []mgl32.Vec4{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1}}

func newActiveRecorder(t *testing.T) *Recorder {
	t.Helper()
	r := NewRecorder()
	p, err := r.Compile("vs", "fs")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := r.Use(p); err != nil {
		t.Fatalf("Use: %v", err)
	}
	return r
}

func TestUploadThenDrawIssuesOneDraw(t *testing.T) {
	r := newActiveRecorder(t)
	h, err := r.Upload(triangle, triangleColors)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := r.Draw(h, Triangles); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	draws := r.CallsOf(OpDraw)
	if len(draws) != 1 {
		t.Fatalf("draw calls = %d, want 1", len(draws))
	}
	if draws[0].Count != 3 {
		t.Errorf("draw covers %d vertices, want 3", draws[0].Count)
	}
	if draws[0].Primitive != Triangles {
		t.Errorf("primitive = %v, want %v", draws[0].Primitive, Triangles)
	}
	if draws[0].Shape != h {
		t.Errorf("shape = %d, want %d", draws[0].Shape, h)
	}
}

func TestUploadInvalid(t *testing.T) {
	r := NewRecorder()
	tests := []struct {
		name     string
		vertices []mgl32.Vec3
		colors   []mgl32.Vec4
	}{
		{"empty", nil, nil},
		{"short colors", triangle, triangleColors[:2]},
		{"extra colors", triangle[:1], triangleColors},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := r.Upload(tt.vertices, tt.colors)
			if !errors.Is(err, ErrInvalidShape) {
				t.Errorf("Upload err = %v, want ErrInvalidShape", err)
			}
			if h != 0 {
				t.Errorf("handle = %d, want 0", h)
			}
		})
	}
}

func TestUploadCopiesInput(t *testing.T) {
	r := NewRecorder()
	vs := append([]mgl32.Vec3(nil), triangle...)
	h, err := r.Upload(vs, triangleColors)
	if err != nil {
		t.Fatal(err)
	}
	vs[0] = mgl32.Vec3{9, 9, 9}
	got, _, ok := r.Shape(h)
	if !ok {
		t.Fatal("shape not found")
	}
	if got[0] != triangle[0] {
		t.Errorf("stored vertex changed to %v", got[0])
	}
}

func TestDrawErrors(t *testing.T) {
	r := NewRecorder()
	h, err := r.Upload(triangle, triangleColors)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Draw(h, Triangles); !errors.Is(err, ErrNoProgram) {
		t.Errorf("Draw without program = %v, want ErrNoProgram", err)
	}

	r = newActiveRecorder(t)
	if err := r.Draw(42, Triangles); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("Draw unknown = %v, want ErrUnknownShape", err)
	}
	if err := r.Use(99); !errors.Is(err, ErrUnknownProgram) {
		t.Errorf("Use unknown = %v, want ErrUnknownProgram", err)
	}
}

func TestSetUniform(t *testing.T) {
	r := newActiveRecorder(t)
	m := mgl32.Translate3D(1, 2, 3)
	r.SetUniform(UniformModelView, m)
	r.SetUniform("uNotDeclared", m)

	got := r.CallsOf(OpUniform)
	if len(got) != 1 {
		t.Fatalf("uniform calls = %d, want 1", len(got))
	}
	if got[0].Uniform != UniformModelView || got[0].Matrix != m {
		t.Errorf("got %+v", got[0])
	}
}

func TestMalformedWGSLYieldsCompileError(t *testing.T) {
	r := NewRecorder(WithWGSLValidation())
	src, err := shaders.Embedded().Load(shaders.WGSL)
	if err != nil {
		t.Fatal(err)
	}

	h, err := r.Compile("@vertex fn vs_main( -> {", src.Fragment)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Compile err = %v, want *CompileError", err)
	}
	if ce.Stage != VertexStage {
		t.Errorf("Stage = %v, want %v", ce.Stage, VertexStage)
	}
	if ce.Log == "" {
		t.Error("CompileError has empty log")
	}
	if !errors.Is(err, ErrCompile) {
		t.Error("CompileError does not match ErrCompile")
	}
	if h != 0 {
		t.Errorf("handle = %d, want 0", h)
	}
	if n := len(r.CallsOf(OpCompile)); n != 0 {
		t.Errorf("recorded %d compiles, want 0", n)
	}

	if _, err := r.Compile(src.Vertex, ""); !errors.As(err, &ce) || ce.Stage != FragmentStage {
		t.Errorf("empty fragment err = %v, want fragment CompileError", err)
	}
}

func TestEmbeddedWGSLValidates(t *testing.T) {
	src, err := shaders.Embedded().Load(shaders.WGSL)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRecorder(WithWGSLValidation())
	if _, err := r.Compile(src.Vertex, src.Fragment); err != nil {
		t.Fatalf("Compile(embedded WGSL): %v", err)
	}
}
