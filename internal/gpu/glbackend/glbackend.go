//go:build !js

// Package glbackend implements gpu.Device on desktop OpenGL 4.1 core.
// The caller owns the window and must make its context current before New.
package glbackend

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"spinshapes/internal/gpu"
	"spinshapes/internal/logging"
)

type shape struct {
	vertexBuffer uint32
	colorBuffer  uint32
	count        int32
}

type program struct {
	id       uint32
	position int32
	color    int32
	uniforms map[string]int32
}

// Device draws through the current OpenGL context.
type Device struct {
	vao      uint32
	shapes   map[gpu.ShapeHandle]*shape
	programs map[gpu.ProgramHandle]*program
	active   *program
	next     uint32
}

// New loads the GL function pointers and sets depth state. The GL context
// must be current on the calling thread.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", gpu.ErrContextUnavailable, err)
	}
	logging.Logger().Info("OpenGL context",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))

	d := &Device{
		shapes:   make(map[gpu.ShapeHandle]*shape),
		programs: make(map[gpu.ProgramHandle]*program),
	}

	gl.ClearDepth(1.0)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL) // near things obscure far things

	// Core profile needs a bound vertex array; attribute pointers are
	// re-specified per draw.
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	return d, nil
}

func (d *Device) nextID() uint32 {
	d.next++
	return d.next
}

func compileShader(stage gpu.Stage, kind uint32, source string) (uint32, error) {
	shader := gl.CreateShader(kind)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, &gpu.CompileError{Stage: stage, Log: strings.TrimRight(log, "\x00")}
	}
	return shader, nil
}

func (d *Device) Compile(vertexSource, fragmentSource string) (gpu.ProgramHandle, error) {
	vs, err := compileShader(gpu.VertexStage, gl.VERTEX_SHADER, vertexSource)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vs)
	fs, err := compileShader(gpu.FragmentStage, gl.FRAGMENT_SHADER, fragmentSource)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fs)

	id := gl.CreateProgram()
	gl.AttachShader(id, vs)
	gl.AttachShader(id, fs)
	gl.BindAttribLocation(id, gpu.PositionLocation, gl.Str(gpu.AttribPosition+"\x00"))
	gl.BindAttribLocation(id, gpu.ColorLocation, gl.Str(gpu.AttribColor+"\x00"))
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(id, logLength, nil, gl.Str(log))
		gl.DeleteProgram(id)
		return 0, &gpu.LinkError{Log: strings.TrimRight(log, "\x00")}
	}
	gl.DetachShader(id, vs)
	gl.DetachShader(id, fs)

	p := &program{
		id:       id,
		position: gl.GetAttribLocation(id, gl.Str(gpu.AttribPosition+"\x00")),
		color:    gl.GetAttribLocation(id, gl.Str(gpu.AttribColor+"\x00")),
		uniforms: make(map[string]int32),
	}
	h := gpu.ProgramHandle(d.nextID())
	d.programs[h] = p
	return h, nil
}

func (d *Device) Use(h gpu.ProgramHandle) error {
	p, ok := d.programs[h]
	if !ok {
		return fmt.Errorf("%w: %d", gpu.ErrUnknownProgram, h)
	}
	gl.UseProgram(p.id)
	if p.position >= 0 {
		gl.EnableVertexAttribArray(uint32(p.position))
	}
	if p.color >= 0 {
		gl.EnableVertexAttribArray(uint32(p.color))
	}
	d.active = p
	return nil
}

func (d *Device) SetUniform(name string, m mgl32.Mat4) {
	if d.active == nil {
		return
	}
	loc, ok := d.active.uniforms[name]
	if !ok {
		loc = gl.GetUniformLocation(d.active.id, gl.Str(name+"\x00"))
		d.active.uniforms[name] = loc
	}
	if loc < 0 {
		gpu.WarnMissingUniform(name)
		return
	}
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

func (d *Device) Upload(vertices []mgl32.Vec3, colors []mgl32.Vec4) (gpu.ShapeHandle, error) {
	if err := gpu.CheckShape(vertices, colors); err != nil {
		return 0, err
	}
	s := &shape{count: int32(len(vertices))}

	positions := gpu.FlattenVec3(vertices)
	gl.GenBuffers(1, &s.vertexBuffer)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vertexBuffer)
	gl.BufferData(gl.ARRAY_BUFFER, len(positions)*4, gl.Ptr(positions), gl.STATIC_DRAW)

	rgba := gpu.FlattenVec4(colors)
	gl.GenBuffers(1, &s.colorBuffer)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.colorBuffer)
	gl.BufferData(gl.ARRAY_BUFFER, len(rgba)*4, gl.Ptr(rgba), gl.STATIC_DRAW)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteBuffers(1, &s.vertexBuffer)
		gl.DeleteBuffers(1, &s.colorBuffer)
		return 0, fmt.Errorf("uploading shape: GL error 0x%x", code)
	}

	h := gpu.ShapeHandle(d.nextID())
	d.shapes[h] = s
	return h, nil
}

func primitiveMode(kind gpu.Primitive) (uint32, error) {
	switch kind {
	case gpu.Points:
		return gl.POINTS, nil
	case gpu.Lines:
		return gl.LINES, nil
	case gpu.LineStrip:
		return gl.LINE_STRIP, nil
	case gpu.Triangles:
		return gl.TRIANGLES, nil
	case gpu.TriangleStrip:
		return gl.TRIANGLE_STRIP, nil
	case gpu.TriangleFan:
		return gl.TRIANGLE_FAN, nil
	}
	return 0, fmt.Errorf("%w: %v", gpu.ErrUnsupported, kind)
}

func (d *Device) Draw(h gpu.ShapeHandle, kind gpu.Primitive) error {
	s, ok := d.shapes[h]
	if !ok {
		return fmt.Errorf("%w: %d", gpu.ErrUnknownShape, h)
	}
	if d.active == nil {
		return gpu.ErrNoProgram
	}
	mode, err := primitiveMode(kind)
	if err != nil {
		return err
	}

	if d.active.position >= 0 {
		gl.BindBuffer(gl.ARRAY_BUFFER, s.vertexBuffer)
		gl.VertexAttribPointer(uint32(d.active.position), 3, gl.FLOAT, false, 0, gl.PtrOffset(0))
	}
	if d.active.color >= 0 {
		gl.BindBuffer(gl.ARRAY_BUFFER, s.colorBuffer)
		gl.VertexAttribPointer(uint32(d.active.color), 4, gl.FLOAT, false, 0, gl.PtrOffset(0))
	}
	gl.DrawArrays(mode, 0, s.count)
	return nil
}

func (d *Device) BeginFrame(clear gpu.Color) error {
	gl.ClearColor(float32(clear.R), float32(clear.G), float32(clear.B), float32(clear.A))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	return nil
}

// EndFrame reports any pending GL error. Swapping buffers is the window's
// job.
func (d *Device) EndFrame() error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("GL error 0x%x", code)
	}
	return nil
}

// Resize sets the viewport to the framebuffer size.
func (d *Device) Resize(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (d *Device) Release() {
	for h, s := range d.shapes {
		gl.DeleteBuffers(1, &s.vertexBuffer)
		gl.DeleteBuffers(1, &s.colorBuffer)
		delete(d.shapes, h)
	}
	for h, p := range d.programs {
		gl.DeleteProgram(p.id)
		delete(d.programs, h)
	}
	d.active = nil
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}

var _ gpu.Device = (*Device)(nil)
