//go:build !js

// Package wgpubackend implements gpu.Device on WebGPU through wgpu-native.
package wgpubackend

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rajveermalviya/go-webgpu/wgpu"

	"spinshapes/internal/gpu"
	"spinshapes/internal/logging"
)

const (
	depthFormat = wgpu.TextureFormat_Depth24Plus

	vertexEntryPoint   = "vs_main"
	fragmentEntryPoint = "fs_main"

	// Matrices uniform block: projection then model-view, column-major.
	projectionOffset = 0
	modelViewOffset  = 16
	uniformSize      = 2 * 16 * 4
)

type shape struct {
	positions *wgpu.Buffer
	colors    *wgpu.Buffer
	fan       *wgpu.Buffer // lazily built triangle-list indices
	count     uint32
}

func (s *shape) release() {
	s.positions.Release()
	s.colors.Release()
	if s.fan != nil {
		s.fan.Release()
	}
}

type program struct {
	vertex    *wgpu.ShaderModule
	fragment  *wgpu.ShaderModule
	pipelines map[wgpu.PrimitiveTopology]*wgpu.RenderPipeline
}

func (p *program) release() {
	for _, pl := range p.pipelines {
		pl.Release()
	}
	p.vertex.Release()
	p.fragment.Release()
}

// frame holds what one BeginFrame/EndFrame pair creates.
type frame struct {
	view    *wgpu.TextureView
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
	garbage []interface{ Release() }
}

// Device renders to a surface-backed swap chain.
type Device struct {
	adapter   *wgpu.Adapter
	device    *wgpu.Device
	queue     *wgpu.Queue
	surface   *wgpu.Surface
	swapChain *wgpu.SwapChain
	format    wgpu.TextureFormat

	depth     *wgpu.Texture
	depthView *wgpu.TextureView

	bindGroupLayout *wgpu.BindGroupLayout
	pipelineLayout  *wgpu.PipelineLayout

	shapes   map[gpu.ShapeHandle]*shape
	programs map[gpu.ProgramHandle]*program
	active   *program
	next     uint32

	matrices [2]mgl32.Mat4
	frame    *frame

	width, height uint32
}

// New requests an adapter and device compatible with surface and configures
// the swap chain and depth buffer at width x height.
func New(instance *wgpu.Instance, surface *wgpu.Surface, width, height int) (*Device, error) {
	if instance == nil || surface == nil {
		return nil, fmt.Errorf("%w: no WebGPU surface", gpu.ErrContextUnavailable)
	}

	// Try with surface first, then without
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreference_HighPerformance,
	})
	if err != nil {
		logging.Logger().Warn("no surface-compatible adapter, retrying without surface", "err", err)
		adapter, err = instance.RequestAdapter(&wgpu.RequestAdapterOptions{
			PowerPreference: wgpu.PowerPreference_HighPerformance,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: adapter request failed: %v", gpu.ErrContextUnavailable, err)
		}
	}

	props := adapter.GetProperties()
	logging.Logger().Info("WebGPU adapter", "name", props.Name, "driver", props.DriverDescription)

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "spinshapes"})
	if err != nil {
		adapter.Release()
		return nil, fmt.Errorf("%w: device request failed: %v", gpu.ErrContextUnavailable, err)
	}

	d := &Device{
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
		surface:  surface,
		format:   surface.GetPreferredFormat(adapter),
		shapes:   make(map[gpu.ShapeHandle]*shape),
		programs: make(map[gpu.ProgramHandle]*program),
		matrices: [2]mgl32.Mat4{mgl32.Ident4(), mgl32.Ident4()},
	}
	if err := d.configure(uint32(width), uint32(height)); err != nil {
		d.Release()
		return nil, err
	}
	if err := d.initLayouts(); err != nil {
		d.Release()
		return nil, err
	}
	return d, nil
}

func (d *Device) configure(width, height uint32) error {
	if d.swapChain != nil {
		d.swapChain.Release()
		d.swapChain = nil
	}
	if d.depthView != nil {
		d.depthView.Release()
		d.depth.Release()
		d.depthView, d.depth = nil, nil
	}

	var err error
	d.swapChain, err = d.device.CreateSwapChain(d.surface, &wgpu.SwapChainDescriptor{
		Usage:       wgpu.TextureUsage_RenderAttachment,
		Format:      d.format,
		Width:       width,
		Height:      height,
		PresentMode: wgpu.PresentMode_Fifo,
	})
	if err != nil {
		return fmt.Errorf("swap chain creation failed: %w", err)
	}

	d.depth, err = d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "depth_texture",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension_2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsage_RenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("depth texture creation failed: %w", err)
	}
	d.depthView, err = d.depth.CreateView(&wgpu.TextureViewDescriptor{
		Format:          depthFormat,
		Dimension:       wgpu.TextureViewDimension_2D,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
		Aspect:          wgpu.TextureAspect_DepthOnly,
	})
	if err != nil {
		return fmt.Errorf("depth view creation failed: %w", err)
	}

	d.width, d.height = width, height
	return nil
}

func (d *Device) initLayouts() error {
	var err error
	d.bindGroupLayout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "matrices_bind_group_layout",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStage_Vertex,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingType_Uniform},
		}},
	})
	if err != nil {
		return fmt.Errorf("bind group layout creation failed: %w", err)
	}

	d.pipelineLayout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "shape_pipeline_layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{d.bindGroupLayout},
	})
	if err != nil {
		return fmt.Errorf("pipeline layout creation failed: %w", err)
	}
	return nil
}

func (d *Device) nextID() uint32 {
	d.next++
	return d.next
}

// Compile validates both WGSL stages with naga, creates the shader modules
// and builds the triangle-list pipeline. Pipelines for other topologies are
// built on first use.
func (d *Device) Compile(vertexSource, fragmentSource string) (gpu.ProgramHandle, error) {
	if err := gpu.ValidateWGSL(gpu.VertexStage, vertexSource); err != nil {
		return 0, err
	}
	if err := gpu.ValidateWGSL(gpu.FragmentStage, fragmentSource); err != nil {
		return 0, err
	}

	vs, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "shape_vertex",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: vertexSource},
	})
	if err != nil {
		return 0, &gpu.CompileError{Stage: gpu.VertexStage, Log: err.Error()}
	}
	fs, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "shape_fragment",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: fragmentSource},
	})
	if err != nil {
		vs.Release()
		return 0, &gpu.CompileError{Stage: gpu.FragmentStage, Log: err.Error()}
	}

	p := &program{
		vertex:    vs,
		fragment:  fs,
		pipelines: make(map[wgpu.PrimitiveTopology]*wgpu.RenderPipeline),
	}
	if _, err := d.pipeline(p, wgpu.PrimitiveTopology_TriangleList); err != nil {
		p.release()
		return 0, &gpu.LinkError{Log: err.Error()}
	}

	h := gpu.ProgramHandle(d.nextID())
	d.programs[h] = p
	return h, nil
}

func (d *Device) pipeline(p *program, topology wgpu.PrimitiveTopology) (*wgpu.RenderPipeline, error) {
	if pl, ok := p.pipelines[topology]; ok {
		return pl, nil
	}

	pl, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "shape_pipeline",
		Layout: d.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     p.vertex,
			EntryPoint: vertexEntryPoint,
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 3 * 4,
					StepMode:    wgpu.VertexStepMode_Vertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormat_Float32x3, Offset: 0, ShaderLocation: gpu.PositionLocation},
					},
				},
				{
					ArrayStride: 4 * 4,
					StepMode:    wgpu.VertexStepMode_Vertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormat_Float32x4, Offset: 0, ShaderLocation: gpu.ColorLocation},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.fragment,
			EntryPoint: fragmentEntryPoint,
			Targets: []wgpu.ColorTargetState{{
				Format:    d.format,
				Blend:     &wgpu.BlendState_Replace,
				WriteMask: wgpu.ColorWriteMask_All,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology,
			FrontFace: wgpu.FrontFace_CCW,
			CullMode:  wgpu.CullMode_None,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunction_LessEqual,
			StencilFront: wgpu.StencilFaceState{
				Compare:     wgpu.CompareFunction_Always,
				FailOp:      wgpu.StencilOperation_Keep,
				DepthFailOp: wgpu.StencilOperation_Keep,
				PassOp:      wgpu.StencilOperation_Keep,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare:     wgpu.CompareFunction_Always,
				FailOp:      wgpu.StencilOperation_Keep,
				DepthFailOp: wgpu.StencilOperation_Keep,
				PassOp:      wgpu.StencilOperation_Keep,
			},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline creation failed: %w", err)
	}
	p.pipelines[topology] = pl
	return pl, nil
}

func (d *Device) Use(h gpu.ProgramHandle) error {
	p, ok := d.programs[h]
	if !ok {
		return fmt.Errorf("%w: %d", gpu.ErrUnknownProgram, h)
	}
	d.active = p
	return nil
}

// SetUniform stores m for the next Draw. Only the two matrices of the
// Matrices block exist; anything else is ignored.
func (d *Device) SetUniform(name string, m mgl32.Mat4) {
	switch name {
	case gpu.UniformProjection:
		d.matrices[0] = m
	case gpu.UniformModelView:
		d.matrices[1] = m
	default:
		gpu.WarnMissingUniform(name)
	}
}

// packMatrices lays out the Matrices uniform block.
func packMatrices(projection, modelView mgl32.Mat4) []float32 {
	out := make([]float32, uniformSize/4)
	copy(out[projectionOffset:], projection[:])
	copy(out[modelViewOffset:], modelView[:])
	return out
}

func (d *Device) Upload(vertices []mgl32.Vec3, colors []mgl32.Vec4) (gpu.ShapeHandle, error) {
	if err := gpu.CheckShape(vertices, colors); err != nil {
		return 0, err
	}

	positions, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "shape_positions",
		Contents: wgpu.ToBytes(gpu.FlattenVec3(vertices)),
		Usage:    wgpu.BufferUsage_Vertex,
	})
	if err != nil {
		return 0, fmt.Errorf("uploading positions: %w", err)
	}
	rgba, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "shape_colors",
		Contents: wgpu.ToBytes(gpu.FlattenVec4(colors)),
		Usage:    wgpu.BufferUsage_Vertex,
	})
	if err != nil {
		positions.Release()
		return 0, fmt.Errorf("uploading colors: %w", err)
	}

	h := gpu.ShapeHandle(d.nextID())
	d.shapes[h] = &shape{positions: positions, colors: rgba, count: uint32(len(vertices))}
	return h, nil
}

// topologyFor maps a primitive to a pipeline topology. WebGPU has no fans,
// so they are drawn as indexed triangle lists.
func topologyFor(kind gpu.Primitive) (wgpu.PrimitiveTopology, bool, error) {
	switch kind {
	case gpu.Points:
		return wgpu.PrimitiveTopology_PointList, false, nil
	case gpu.Lines:
		return wgpu.PrimitiveTopology_LineList, false, nil
	case gpu.LineStrip:
		return wgpu.PrimitiveTopology_LineStrip, false, nil
	case gpu.Triangles:
		return wgpu.PrimitiveTopology_TriangleList, false, nil
	case gpu.TriangleStrip:
		return wgpu.PrimitiveTopology_TriangleStrip, false, nil
	case gpu.TriangleFan:
		return wgpu.PrimitiveTopology_TriangleList, true, nil
	}
	return 0, false, fmt.Errorf("%w: %v", gpu.ErrUnsupported, kind)
}

func (d *Device) BeginFrame(clear gpu.Color) error {
	if d.frame != nil {
		return fmt.Errorf("frame already begun")
	}

	view, err := d.swapChain.GetCurrentTextureView()
	if err != nil {
		return err
	}
	encoder, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{})
	if err != nil {
		view.Release()
		return err
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOp_Clear,
			StoreOp:    wgpu.StoreOp_Store,
			ClearValue: wgpu.Color{R: clear.R, G: clear.G, B: clear.B, A: clear.A},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            d.depthView,
			DepthLoadOp:     wgpu.LoadOp_Clear,
			DepthStoreOp:    wgpu.StoreOp_Store,
			DepthClearValue: 1.0,
		},
	})

	d.frame = &frame{view: view, encoder: encoder, pass: pass}
	return nil
}

func (d *Device) Draw(h gpu.ShapeHandle, kind gpu.Primitive) error {
	s, ok := d.shapes[h]
	if !ok {
		return fmt.Errorf("%w: %d", gpu.ErrUnknownShape, h)
	}
	if d.active == nil {
		return gpu.ErrNoProgram
	}
	if d.frame == nil {
		return fmt.Errorf("draw outside a frame")
	}
	topology, indexed, err := topologyFor(kind)
	if err != nil {
		return err
	}
	pl, err := d.pipeline(d.active, topology)
	if err != nil {
		return err
	}

	// Temp uniform buffer and bind group for this draw, released at EndFrame
	uniforms, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "matrices_uniform",
		Contents: wgpu.ToBytes(packMatrices(d.matrices[0], d.matrices[1])),
		Usage:    wgpu.BufferUsage_Uniform,
	})
	if err != nil {
		return fmt.Errorf("uniform buffer creation failed: %w", err)
	}
	d.frame.garbage = append(d.frame.garbage, uniforms)

	bindGroup, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "matrices_bind_group",
		Layout: d.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: uniforms, Size: uniformSize},
		},
	})
	if err != nil {
		return fmt.Errorf("bind group creation failed: %w", err)
	}
	d.frame.garbage = append(d.frame.garbage, bindGroup)

	pass := d.frame.pass
	pass.SetPipeline(pl)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.SetVertexBuffer(0, s.positions, 0, wgpu.WholeSize)
	pass.SetVertexBuffer(1, s.colors, 0, wgpu.WholeSize)

	if !indexed {
		pass.Draw(s.count, 1, 0, 0)
		return nil
	}

	indices := gpu.FanIndices(int(s.count))
	if len(indices) == 0 {
		return nil
	}
	if s.fan == nil {
		s.fan, err = d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    "fan_indices",
			Contents: wgpu.ToBytes(indices),
			Usage:    wgpu.BufferUsage_Index,
		})
		if err != nil {
			return fmt.Errorf("fan index buffer creation failed: %w", err)
		}
	}
	pass.SetIndexBuffer(s.fan, wgpu.IndexFormat_Uint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(len(indices)), 1, 0, 0, 0)
	return nil
}

func (d *Device) EndFrame() error {
	f := d.frame
	if f == nil {
		return fmt.Errorf("end frame without begin")
	}
	d.frame = nil
	defer func() {
		for _, r := range f.garbage {
			r.Release()
		}
		f.encoder.Release()
		f.view.Release()
	}()

	f.pass.End()

	cmdBuffer, err := f.encoder.Finish(&wgpu.CommandBufferDescriptor{})
	if err != nil {
		return err
	}
	defer cmdBuffer.Release()

	d.queue.Submit(cmdBuffer)
	d.swapChain.Present()
	return nil
}

// Resize recreates the swap chain and depth buffer. Zero sizes, as sent
// while minimized, are ignored.
func (d *Device) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if err := d.configure(uint32(width), uint32(height)); err != nil {
		logging.Logger().Error("failed to recreate swap chain", "width", width, "height", height, "err", err)
	}
}

func (d *Device) Release() {
	for h, s := range d.shapes {
		s.release()
		delete(d.shapes, h)
	}
	for h, p := range d.programs {
		p.release()
		delete(d.programs, h)
	}
	d.active = nil

	if d.pipelineLayout != nil {
		d.pipelineLayout.Release()
		d.pipelineLayout = nil
	}
	if d.bindGroupLayout != nil {
		d.bindGroupLayout.Release()
		d.bindGroupLayout = nil
	}
	if d.depthView != nil {
		d.depthView.Release()
		d.depth.Release()
		d.depthView, d.depth = nil, nil
	}
	if d.swapChain != nil {
		d.swapChain.Release()
		d.swapChain = nil
	}
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
}

var _ gpu.Device = (*Device)(nil)
