// Package render runs the per-frame loop: it owns the scene's rotation
// state and matrix stack and draws every object through a gpu.Device once
// per host frame.
package render

import (
	"errors"
	"fmt"
	"time"

	"spinshapes/internal/camera"
	"spinshapes/internal/gpu"
	"spinshapes/internal/logging"
	"spinshapes/internal/matstack"
	"spinshapes/internal/scene"
	"spinshapes/internal/shaders"
)

var (
	ErrAlreadyRunning  = errors.New("render: loop already running")
	ErrUnbalancedStack = errors.New("render: matrix stack not balanced after frame")
)

// State of the loop. There is no way back to Idle.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Host schedules frame callbacks, e.g. requestAnimationFrame or a window
// event loop. The callback receives the host's frame timestamp.
type Host interface {
	RequestFrame(fn func(now time.Time))
}

// Loop draws a scene through a device. Not safe for concurrent use: every
// call must come from the host's frame thread.
type Loop struct {
	dev    gpu.Device
	scene  *scene.Scene
	camera *camera.Camera
	clear  gpu.Color

	stack   *matstack.Stack
	program gpu.ProgramHandle
	shapes  []gpu.ShapeHandle
	angles  []float64

	state  State
	host   Host
	last   time.Time
	ticked bool
	frames uint64
	err    error
}

// Option configures a Loop.
type Option func(*Loop)

// WithClearColor sets the color frames are cleared to.
func WithClearColor(c gpu.Color) Option {
	return func(l *Loop) { l.clear = c }
}

// WithCamera replaces the default 45 degree 640x480 camera.
func WithCamera(c *camera.Camera) Option {
	return func(l *Loop) { l.camera = c }
}

// New creates an idle loop. Nothing touches the device until Start.
func New(dev gpu.Device, sc *scene.Scene, opts ...Option) *Loop {
	l := &Loop{
		dev:    dev,
		scene:  sc,
		camera: camera.Default(),
		clear:  gpu.Black,
		stack:  matstack.New(),
		angles: make([]float64, len(sc.Objects)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start compiles the program, uploads every object's shape and, when all
// of that succeeded, switches to Running and requests the first frame.
// Any failure leaves the loop Idle and is returned unchanged in kind.
func (l *Loop) Start(host Host, src shaders.Source) error {
	if l.state != Idle {
		return ErrAlreadyRunning
	}
	if err := l.scene.Validate(); err != nil {
		return err
	}

	program, err := l.dev.Compile(src.Vertex, src.Fragment)
	if err != nil {
		return fmt.Errorf("initializing shaders: %w", err)
	}
	if err := l.dev.Use(program); err != nil {
		return fmt.Errorf("initializing shaders: %w", err)
	}

	handles := make([]gpu.ShapeHandle, 0, len(l.scene.Objects))
	for i, o := range l.scene.Objects {
		h, err := l.dev.Upload(o.Shape.Vertices(), o.Shape.Colors())
		if err != nil {
			return fmt.Errorf("initializing buffers for object %d (%s): %w", i, o.Shape.Name(), err)
		}
		handles = append(handles, h)
	}

	l.program = program
	l.shapes = handles
	l.host = host
	l.state = Running

	logging.Logger().Info("render loop started",
		"scene", l.scene.Name,
		"objects", len(handles),
		"language", src.Language.String())

	host.RequestFrame(l.frame)
	return nil
}

func (l *Loop) frame(now time.Time) {
	if err := l.Tick(now); err != nil {
		l.err = err
		logging.Logger().Error("render loop stopped", "frame", l.frames, "err", err)
		return
	}
	l.host.RequestFrame(l.frame)
}

// Tick renders one frame at time now and advances the rotation angles by
// the time elapsed since the previous tick. The first tick advances
// nothing.
func (l *Loop) Tick(now time.Time) error {
	if l.state != Running {
		return fmt.Errorf("render: tick while %v", l.state)
	}

	var elapsed time.Duration
	if l.ticked {
		elapsed = now.Sub(l.last)
		if elapsed < 0 {
			elapsed = 0
		}
	}
	l.last = now
	l.ticked = true

	if err := l.dev.BeginFrame(l.clear); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}

	projection := l.camera.Projection()
	l.stack.LoadIdentity()

	for i, o := range l.scene.Objects {
		l.stack.Push()
		l.stack.Translate(o.Position)
		l.stack.Rotate(scene.DegToRad(l.angles[i]), o.Axis)

		l.dev.SetUniform(gpu.UniformProjection, projection)
		l.dev.SetUniform(gpu.UniformModelView, l.stack.Current())
		if err := l.dev.Draw(l.shapes[i], o.Primitive); err != nil {
			return fmt.Errorf("drawing object %d (%s): %w", i, o.Shape.Name(), err)
		}

		if err := l.stack.Pop(); err != nil {
			return err
		}
	}

	if err := l.dev.EndFrame(); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	if d := l.stack.Depth(); d != 0 {
		return fmt.Errorf("%w: depth %d", ErrUnbalancedStack, d)
	}

	l.advance(elapsed)
	l.frames++
	return nil
}

// advance adds rate*elapsed to every angle. Angles are not wrapped.
func (l *Loop) advance(elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	ms := float64(elapsed) / float64(time.Millisecond)
	for i, o := range l.scene.Objects {
		l.angles[i] += o.Rate * ms / 1000
	}
}

// State reports Idle or Running.
func (l *Loop) State() State { return l.state }

// Err is the error that stopped the loop, if any.
func (l *Loop) Err() error { return l.err }

// Frames counts successfully rendered ticks.
func (l *Loop) Frames() uint64 { return l.frames }

// Angles returns a copy of the current rotation angles in degrees, in
// scene order.
func (l *Loop) Angles() []float64 {
	return append([]float64(nil), l.angles...)
}

// Camera exposes the projection parameters so hosts can track resizes.
func (l *Loop) Camera() *camera.Camera { return l.camera }

// Scene returns the scene being drawn.
func (l *Loop) Scene() *scene.Scene { return l.scene }
