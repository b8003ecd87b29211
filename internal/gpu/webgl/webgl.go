//go:build js && wasm

// Package webgl implements gpu.Device on a browser WebGL 1 context.
package webgl

import (
	"fmt"
	"syscall/js"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"spinshapes/internal/gpu"
)

type glConsts struct {
	arrayBuffer    int
	staticDraw     int
	floatType      int
	colorBufferBit int
	depthBufferBit int
	depthTest      int
	lequal         int
	compileStatus  int
	linkStatus     int
	vertexShader   int
	fragmentShader int
	noError        int
	modes          [6]int
}

type shape struct {
	vertexBuffer js.Value
	colorBuffer  js.Value
	count        int
}

type program struct {
	id       js.Value
	position int
	color    int
	uniforms map[string]js.Value
}

// Device wraps a WebGLRenderingContext.
type Device struct {
	gl     js.Value
	consts glConsts

	shapes   map[gpu.ShapeHandle]*shape
	programs map[gpu.ProgramHandle]*program
	active   *program
	next     uint32
}

// New wraps ctx, as returned by canvas.getContext("webgl"). A null or
// undefined context means the browser has no WebGL.
func New(ctx js.Value) (*Device, error) {
	if ctx.IsUndefined() || ctx.IsNull() {
		return nil, gpu.ErrContextUnavailable
	}
	d := &Device{
		gl:       ctx,
		shapes:   make(map[gpu.ShapeHandle]*shape),
		programs: make(map[gpu.ProgramHandle]*program),
	}
	d.initConsts()

	d.gl.Call("clearDepth", 1.0)
	d.gl.Call("enable", d.consts.depthTest)
	d.gl.Call("depthFunc", d.consts.lequal)
	return d, nil
}

func (d *Device) initConsts() {
	get := func(name string) int { return d.gl.Get(name).Int() }
	d.consts = glConsts{
		arrayBuffer:    get("ARRAY_BUFFER"),
		staticDraw:     get("STATIC_DRAW"),
		floatType:      get("FLOAT"),
		colorBufferBit: get("COLOR_BUFFER_BIT"),
		depthBufferBit: get("DEPTH_BUFFER_BIT"),
		depthTest:      get("DEPTH_TEST"),
		lequal:         get("LEQUAL"),
		compileStatus:  get("COMPILE_STATUS"),
		linkStatus:     get("LINK_STATUS"),
		vertexShader:   get("VERTEX_SHADER"),
		fragmentShader: get("FRAGMENT_SHADER"),
		noError:        get("NO_ERROR"),
	}
	d.consts.modes = [6]int{
		gpu.Points:        get("POINTS"),
		gpu.Lines:         get("LINES"),
		gpu.LineStrip:     get("LINE_STRIP"),
		gpu.Triangles:     get("TRIANGLES"),
		gpu.TriangleStrip: get("TRIANGLE_STRIP"),
		gpu.TriangleFan:   get("TRIANGLE_FAN"),
	}
}

// float32Array copies data into a fresh JS Float32Array.
func float32Array(data []float32) js.Value {
	if len(data) == 0 {
		return js.Global().Get("Float32Array").New(0)
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
	u8 := js.Global().Get("Uint8Array").New(len(raw))
	js.CopyBytesToJS(u8, raw)
	return js.Global().Get("Float32Array").New(u8.Get("buffer"), 0, len(data))
}

func (d *Device) nextID() uint32 {
	d.next++
	return d.next
}

func (d *Device) compileShader(stage gpu.Stage, kind int, source string) (js.Value, error) {
	shader := d.gl.Call("createShader", kind)
	d.gl.Call("shaderSource", shader, source)
	d.gl.Call("compileShader", shader)
	if !d.gl.Call("getShaderParameter", shader, d.consts.compileStatus).Bool() {
		log := d.gl.Call("getShaderInfoLog", shader).String()
		d.gl.Call("deleteShader", shader)
		return js.Null(), &gpu.CompileError{Stage: stage, Log: log}
	}
	return shader, nil
}

func (d *Device) Compile(vertexSource, fragmentSource string) (gpu.ProgramHandle, error) {
	vs, err := d.compileShader(gpu.VertexStage, d.consts.vertexShader, vertexSource)
	if err != nil {
		return 0, err
	}
	fs, err := d.compileShader(gpu.FragmentStage, d.consts.fragmentShader, fragmentSource)
	if err != nil {
		d.gl.Call("deleteShader", vs)
		return 0, err
	}

	id := d.gl.Call("createProgram")
	d.gl.Call("attachShader", id, vs)
	d.gl.Call("attachShader", id, fs)
	d.gl.Call("linkProgram", id)
	d.gl.Call("deleteShader", vs)
	d.gl.Call("deleteShader", fs)

	if !d.gl.Call("getProgramParameter", id, d.consts.linkStatus).Bool() {
		log := d.gl.Call("getProgramInfoLog", id).String()
		d.gl.Call("deleteProgram", id)
		return 0, &gpu.LinkError{Log: log}
	}

	p := &program{
		id:       id,
		position: d.gl.Call("getAttribLocation", id, gpu.AttribPosition).Int(),
		color:    d.gl.Call("getAttribLocation", id, gpu.AttribColor).Int(),
		uniforms: make(map[string]js.Value),
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
	d.gl.Call("useProgram", p.id)
	if p.position >= 0 {
		d.gl.Call("enableVertexAttribArray", p.position)
	}
	if p.color >= 0 {
		d.gl.Call("enableVertexAttribArray", p.color)
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
		loc = d.gl.Call("getUniformLocation", d.active.id, name)
		d.active.uniforms[name] = loc
	}
	if loc.IsNull() {
		gpu.WarnMissingUniform(name)
		return
	}
	d.gl.Call("uniformMatrix4fv", loc, false, float32Array(m[:]))
}

func (d *Device) Upload(vertices []mgl32.Vec3, colors []mgl32.Vec4) (gpu.ShapeHandle, error) {
	if err := gpu.CheckShape(vertices, colors); err != nil {
		return 0, err
	}
	s := &shape{count: len(vertices)}

	s.vertexBuffer = d.gl.Call("createBuffer")
	d.gl.Call("bindBuffer", d.consts.arrayBuffer, s.vertexBuffer)
	d.gl.Call("bufferData", d.consts.arrayBuffer, float32Array(gpu.FlattenVec3(vertices)), d.consts.staticDraw)

	s.colorBuffer = d.gl.Call("createBuffer")
	d.gl.Call("bindBuffer", d.consts.arrayBuffer, s.colorBuffer)
	d.gl.Call("bufferData", d.consts.arrayBuffer, float32Array(gpu.FlattenVec4(colors)), d.consts.staticDraw)

	if code := d.gl.Call("getError").Int(); code != d.consts.noError {
		d.gl.Call("deleteBuffer", s.vertexBuffer)
		d.gl.Call("deleteBuffer", s.colorBuffer)
		return 0, fmt.Errorf("uploading shape: WebGL error 0x%x", code)
	}

	h := gpu.ShapeHandle(d.nextID())
	d.shapes[h] = s
	return h, nil
}

func (d *Device) Draw(h gpu.ShapeHandle, kind gpu.Primitive) error {
	s, ok := d.shapes[h]
	if !ok {
		return fmt.Errorf("%w: %d", gpu.ErrUnknownShape, h)
	}
	if d.active == nil {
		return gpu.ErrNoProgram
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %v", gpu.ErrUnsupported, kind)
	}

	if d.active.position >= 0 {
		d.gl.Call("bindBuffer", d.consts.arrayBuffer, s.vertexBuffer)
		d.gl.Call("vertexAttribPointer", d.active.position, 3, d.consts.floatType, false, 0, 0)
	}
	if d.active.color >= 0 {
		d.gl.Call("bindBuffer", d.consts.arrayBuffer, s.colorBuffer)
		d.gl.Call("vertexAttribPointer", d.active.color, 4, d.consts.floatType, false, 0, 0)
	}
	d.gl.Call("drawArrays", d.consts.modes[kind], 0, s.count)
	return nil
}

func (d *Device) BeginFrame(clear gpu.Color) error {
	d.gl.Call("clearColor", clear.R, clear.G, clear.B, clear.A)
	d.gl.Call("clear", d.consts.colorBufferBit|d.consts.depthBufferBit)
	return nil
}

// EndFrame reports a pending WebGL error. The browser presents the canvas
// when the animation frame callback returns.
func (d *Device) EndFrame() error {
	if code := d.gl.Call("getError").Int(); code != d.consts.noError {
		return fmt.Errorf("WebGL error 0x%x", code)
	}
	return nil
}

// Resize sets the viewport to the drawing buffer size.
func (d *Device) Resize(width, height int) {
	d.gl.Call("viewport", 0, 0, width, height)
}

func (d *Device) Release() {
	for h, s := range d.shapes {
		d.gl.Call("deleteBuffer", s.vertexBuffer)
		d.gl.Call("deleteBuffer", s.colorBuffer)
		delete(d.shapes, h)
	}
	for h, p := range d.programs {
		d.gl.Call("deleteProgram", p.id)
		delete(d.programs, h)
	}
	d.active = nil
}

var _ gpu.Device = (*Device)(nil)
