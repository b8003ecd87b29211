package render

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"spinshapes/internal/gpu"
	"spinshapes/internal/scene"
	"spinshapes/internal/shaders"
)

// manualHost holds the requested frame until the test runs it.
type manualHost struct {
	pending  func(time.Time)
	requests int
}

func (h *manualHost) RequestFrame(fn func(time.Time)) {
	h.pending = fn
	h.requests++
}

func (h *manualHost) run(t *testing.T, now time.Time) {
	t.Helper()
	fn := h.pending
	if fn == nil {
		t.Fatal("no frame requested")
	}
	h.pending = nil
	fn(now)
}

// failingDevice wraps a recorder and fails selected calls.
type failingDevice struct {
	*gpu.Recorder
	uploadErr error
	drawErr   error
}

func (d *failingDevice) Upload(v []mgl32.Vec3, c []mgl32.Vec4) (gpu.ShapeHandle, error) {
	if d.uploadErr != nil {
		return 0, d.uploadErr
	}
	return d.Recorder.Upload(v, c)
}

func (d *failingDevice) Draw(h gpu.ShapeHandle, kind gpu.Primitive) error {
	if d.drawErr != nil {
		return d.drawErr
	}
	return d.Recorder.Draw(h, kind)
}

var epoch = time.Unix(1700000000, 0)

func wgslSource(t *testing.T) shaders.Source {
	t.Helper()
	src, err := shaders.Embedded().Load(shaders.WGSL)
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func startShapes(t *testing.T) (*Loop, *gpu.Recorder, *manualHost) {
	t.Helper()
	rec := gpu.NewRecorder()
	l := New(rec, scene.Shapes())
	host := &manualHost{}
	if err := l.Start(host, wgslSource(t)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return l, rec, host
}

func TestStartUploadsAndRuns(t *testing.T) {
	l, rec, host := startShapes(t)

	if l.State() != Running {
		t.Errorf("State() = %v, want running", l.State())
	}
	if host.requests != 1 {
		t.Errorf("frame requests = %d, want 1", host.requests)
	}
	if n := len(rec.CallsOf(gpu.OpCompile)); n != 1 {
		t.Errorf("compiles = %d, want 1", n)
	}
	uploads := rec.CallsOf(gpu.OpUpload)
	want := []int{3, 4, 182}
	if len(uploads) != len(want) {
		t.Fatalf("uploads = %d, want %d", len(uploads), len(want))
	}
	for i, u := range uploads {
		if u.Count != want[i] {
			t.Errorf("upload %d vertices = %d, want %d", i, u.Count, want[i])
		}
	}

	if err := l.Start(host, wgslSource(t)); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start = %v, want ErrAlreadyRunning", err)
	}
}

func TestStartCompileFailureStaysIdle(t *testing.T) {
	rec := gpu.NewRecorder(gpu.WithWGSLValidation())
	l := New(rec, scene.Shapes())
	host := &manualHost{}

	src := wgslSource(t)
	src.Vertex = "@vertex fn vs_main() -> @builtin(position) vec4<f32> { return oops; }"

	err := l.Start(host, src)
	var ce *gpu.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Start err = %v, want *gpu.CompileError", err)
	}
	if ce.Stage != gpu.VertexStage {
		t.Errorf("Stage = %v, want vertex", ce.Stage)
	}
	if l.State() != Idle {
		t.Errorf("State() = %v, want idle", l.State())
	}
	if host.requests != 0 {
		t.Errorf("frame requested after failed start")
	}
	if n := len(rec.CallsOf(gpu.OpUpload)); n != 0 {
		t.Errorf("uploads = %d after failed compile", n)
	}
}

func TestStartUploadFailure(t *testing.T) {
	dev := &failingDevice{Recorder: gpu.NewRecorder(), uploadErr: gpu.ErrContextUnavailable}
	l := New(dev, scene.Shapes())
	host := &manualHost{}

	err := l.Start(host, wgslSource(t))
	if !errors.Is(err, gpu.ErrContextUnavailable) {
		t.Fatalf("Start err = %v, want ErrContextUnavailable", err)
	}
	if l.State() != Idle || host.requests != 0 {
		t.Errorf("state %v, requests %d", l.State(), host.requests)
	}
}

func TestFirstTickDoesNotRotate(t *testing.T) {
	l, _, host := startShapes(t)
	host.run(t, epoch)

	for i, a := range l.Angles() {
		if a != 0 {
			t.Errorf("angle %d = %v after first tick, want 0", i, a)
		}
	}
	if l.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", l.Frames())
	}
}

func TestTickAdvancesByRate(t *testing.T) {
	l, _, host := startShapes(t)
	host.run(t, epoch)
	host.run(t, epoch.Add(1000*time.Millisecond))

	want := []float64{90, 75, 90}
	for i, a := range l.Angles() {
		if a != want[i] {
			t.Errorf("angle %d = %v, want %v", i, a, want[i])
		}
	}

	host.run(t, epoch.Add(1500*time.Millisecond))
	if got := l.Angles()[1]; math.Abs(got-112.5) > 1e-9 {
		t.Errorf("square angle = %v, want 112.5", got)
	}
}

func TestTickZeroElapsed(t *testing.T) {
	l, _, host := startShapes(t)
	host.run(t, epoch)
	host.run(t, epoch)
	host.run(t, epoch.Add(-time.Second))
	for i, a := range l.Angles() {
		if a != 0 {
			t.Errorf("angle %d = %v, want 0", i, a)
		}
	}
}

func TestTickDrawsEveryObject(t *testing.T) {
	l, rec, host := startShapes(t)
	rec.Reset()
	host.run(t, epoch)

	calls := rec.Calls()
	if calls[0].Op != gpu.OpBeginFrame {
		t.Errorf("first call = %v, want begin_frame", calls[0].Op)
	}
	if calls[0].Clear != gpu.Black {
		t.Errorf("clear = %+v, want black", calls[0].Clear)
	}
	if last := calls[len(calls)-1].Op; last != gpu.OpEndFrame {
		t.Errorf("last call = %v, want end_frame", last)
	}

	draws := rec.CallsOf(gpu.OpDraw)
	wantKinds := []gpu.Primitive{gpu.Triangles, gpu.TriangleStrip, gpu.TriangleFan}
	wantCounts := []int{3, 4, 182}
	if len(draws) != 3 {
		t.Fatalf("draws = %d, want 3", len(draws))
	}
	for i, d := range draws {
		if d.Primitive != wantKinds[i] || d.Count != wantCounts[i] {
			t.Errorf("draw %d = %v x%d, want %v x%d", i, d.Primitive, d.Count, wantKinds[i], wantCounts[i])
		}
	}

	uniforms := rec.CallsOf(gpu.OpUniform)
	if len(uniforms) != 6 {
		t.Fatalf("uniform uploads = %d, want 6", len(uniforms))
	}
	proj := l.Camera().Projection()
	for i := 0; i < len(uniforms); i += 2 {
		if uniforms[i].Uniform != gpu.UniformProjection || uniforms[i].Matrix != proj {
			t.Errorf("uniform %d = %s, want projection", i, uniforms[i].Uniform)
		}
	}
	// No rotation on the first tick: model-view is the object's translation.
	if mv := uniforms[1].Matrix; !mv.ApproxEqualThreshold(mgl32.Translate3D(-2, -2, -7), 1e-6) {
		t.Errorf("triangle model-view = %v", mv)
	}
	if host.requests != 2 {
		t.Errorf("frame requests = %d, want 2", host.requests)
	}
}

func TestTickRotatesModelView(t *testing.T) {
	rec := gpu.NewRecorder()
	l := New(rec, scene.SingleTriangle())
	host := &manualHost{}
	if err := l.Start(host, wgslSource(t)); err != nil {
		t.Fatal(err)
	}
	host.run(t, epoch)
	host.run(t, epoch.Add(2*time.Second)) // 180 degrees
	rec.Reset()
	host.run(t, epoch.Add(2*time.Second))

	mv := rec.CallsOf(gpu.OpUniform)[1].Matrix
	want := mgl32.Translate3D(0, 0, -7).Mul4(mgl32.HomogRotate3DY(float32(math.Pi)))
	if !mv.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("model-view = %v, want %v", mv, want)
	}
}

func TestDrawErrorStopsLoop(t *testing.T) {
	dev := &failingDevice{Recorder: gpu.NewRecorder()}
	l := New(dev, scene.Shapes())
	host := &manualHost{}
	if err := l.Start(host, wgslSource(t)); err != nil {
		t.Fatal(err)
	}
	host.run(t, epoch)

	dev.drawErr = gpu.ErrUnknownShape
	host.run(t, epoch.Add(time.Second))

	if !errors.Is(l.Err(), gpu.ErrUnknownShape) {
		t.Errorf("Err() = %v, want ErrUnknownShape", l.Err())
	}
	if host.pending != nil {
		t.Error("loop rescheduled after a failed tick")
	}
	if l.Angles()[0] != 0 {
		t.Errorf("angle advanced on failed tick: %v", l.Angles()[0])
	}
}

func TestTickWhileIdle(t *testing.T) {
	l := New(gpu.NewRecorder(), scene.Shapes())
	if err := l.Tick(epoch); err == nil {
		t.Error("Tick on idle loop succeeded")
	}
}

func TestWithClearColor(t *testing.T) {
	rec := gpu.NewRecorder()
	c := gpu.Color{R: 0.2, G: 0.3, B: 0.4, A: 1}
	l := New(rec, scene.SingleTriangle(), WithClearColor(c))
	host := &manualHost{}
	if err := l.Start(host, wgslSource(t)); err != nil {
		t.Fatal(err)
	}
	host.run(t, epoch)
	if got := rec.CallsOf(gpu.OpBeginFrame)[0].Clear; got != c {
		t.Errorf("clear = %+v, want %+v", got, c)
	}
}
