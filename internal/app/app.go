//go:build !js

package app

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rajveermalviya/go-webgpu/wgpu"

	"spinshapes/internal/config"
	"spinshapes/internal/gpu"
	"spinshapes/internal/gpu/glbackend"
	"spinshapes/internal/gpu/wgpubackend"
	"spinshapes/internal/logging"
	"spinshapes/internal/render"
	"spinshapes/internal/shaders"
)

type resizer interface {
	Resize(width, height int)
}

type App struct {
	cfg     *config.Config
	backend string

	window   *glfw.Window
	instance *wgpu.Instance
	surface  *wgpu.Surface

	device gpu.Device
	loop   *render.Loop
	frames render.FrameQueue

	width, height int
}

// New opens a window for cfg's backend and brings up its GPU device. The
// calling goroutine stays locked to its OS thread.
func New(cfg *config.Config) (*App, error) {
	runtime.LockOSThread()

	sc, err := cfg.BuildScene()
	if err != nil {
		return nil, err
	}

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("%w: GLFW init failed: %v", gpu.ErrContextUnavailable, err)
	}

	backend := strings.ToLower(cfg.Rendering.Backend)
	switch backend {
	case config.BackendGL:
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 1)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	case config.BackendWGPU:
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	default:
		glfw.Terminate()
		return nil, fmt.Errorf("unknown backend %q", cfg.Rendering.Backend)
	}
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.CocoaRetinaFramebuffer, glfw.True)

	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("%w: window creation failed: %v", gpu.ErrContextUnavailable, err)
	}

	app := &App{
		cfg:     cfg,
		backend: backend,
		window:  window,
	}
	app.width, app.height = window.GetFramebufferSize()

	if backend == config.BackendGL {
		err = app.initGL()
	} else {
		err = app.initWebGPU()
	}
	if err != nil {
		app.Cleanup()
		return nil, err
	}

	c := cfg.Rendering.ClearColor
	app.loop = render.New(app.device, sc,
		render.WithCamera(cfg.Camera()),
		render.WithClearColor(gpu.Color{R: c[0], G: c[1], B: c[2], A: c[3]}),
	)
	app.loop.Camera().SetViewport(app.width, app.height)

	app.setupCallbacks()
	return app, nil
}

func (app *App) initGL() error {
	app.window.MakeContextCurrent()
	if app.cfg.Window.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	dev, err := glbackend.New()
	if err != nil {
		return err
	}
	dev.Resize(app.width, app.height)
	app.device = dev
	return nil
}

func (app *App) initWebGPU() error {
	app.instance = wgpu.CreateInstance(&wgpu.InstanceDescriptor{
		Backends: instanceBackends,
	})
	if app.instance == nil {
		return fmt.Errorf("%w: failed to create WebGPU instance", gpu.ErrContextUnavailable)
	}

	app.surface = CreateSurface(app.instance, app.window)
	if app.surface == nil {
		return fmt.Errorf("%w: surface creation failed", gpu.ErrContextUnavailable)
	}

	dev, err := wgpubackend.New(app.instance, app.surface, app.width, app.height)
	if err != nil {
		return err
	}
	app.device = dev
	return nil
}

// Language is the shader language the window's backend compiles.
func (app *App) Language() shaders.Language {
	if app.backend == config.BackendWGPU {
		return shaders.WGSL
	}
	return shaders.GLSL
}

// Loop exposes the render loop, mostly for its counters.
func (app *App) Loop() *render.Loop { return app.loop }

func (app *App) setupCallbacks() {
	app.window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		if width <= 0 || height <= 0 {
			return
		}
		app.width = width
		app.height = height
		app.loop.Camera().SetViewport(width, height)
		if r, ok := app.device.(resizer); ok {
			r.Resize(width, height)
		}
	})

	app.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape, glfw.KeyQ:
			w.SetShouldClose(true)
		}
	})

	app.window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		app.loop.Camera().Zoom(float32(-yoff))
	})
}

// Run starts the render loop with src and pumps window events until the
// window closes or a frame fails.
func (app *App) Run(src shaders.Source) error {
	if err := app.loop.Start(&app.frames, src); err != nil {
		return err
	}

	lastTime := time.Now()
	frames := 0

	for !app.window.ShouldClose() {
		glfw.PollEvents()

		if !app.frames.Dispatch(time.Now()) {
			continue
		}
		if err := app.loop.Err(); err != nil {
			return err
		}
		if app.backend == config.BackendGL {
			app.window.SwapBuffers()
		}

		frames++
		if time.Since(lastTime) >= time.Second {
			app.window.SetTitle(fmt.Sprintf("%s | %s | FPS: %d", app.cfg.Window.Title, app.loop.Scene().Name, frames))
			logging.Logger().Debug("frame rate", "fps", frames, "angles", app.loop.Angles())
			frames = 0
			lastTime = time.Now()
		}
	}

	return nil
}

func (app *App) Cleanup() {
	if app.device != nil {
		app.device.Release()
	}
	if app.surface != nil {
		app.surface.Release()
	}
	if app.instance != nil {
		app.instance.Release()
	}
	if app.window != nil {
		app.window.Destroy()
	}
	glfw.Terminate()
}
