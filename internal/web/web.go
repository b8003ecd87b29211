//go:build js && wasm

// Package web runs the render loop inside a browser page: WebGL on a
// canvas, shader sources from inline script elements, frames from
// requestAnimationFrame.
package web

import (
	"fmt"
	"syscall/js"
	"time"

	"spinshapes/internal/camera"
	"spinshapes/internal/gpu"
	"spinshapes/internal/gpu/webgl"
	"spinshapes/internal/logging"
	"spinshapes/internal/render"
	"spinshapes/internal/scene"
	"spinshapes/internal/shaders"
)

// CanvasID is the element the demo draws into.
const CanvasID = "glcanvas"

// Host schedules frames with requestAnimationFrame.
type Host struct {
	cb      js.Func
	pending func(time.Time)
	origin  float64
	stopped bool
}

func NewHost() *Host {
	h := &Host{origin: js.Global().Get("performance").Get("timeOrigin").Float()}
	h.cb = js.FuncOf(func(this js.Value, args []js.Value) any {
		fn := h.pending
		h.pending = nil
		if fn == nil || h.stopped {
			return nil
		}
		var ts float64
		if len(args) > 0 {
			ts = args[0].Float()
		}
		fn(h.timestamp(ts))
		return nil
	})
	return h
}

// timestamp converts a DOMHighResTimeStamp in ms since timeOrigin.
func (h *Host) timestamp(ms float64) time.Time {
	return time.Unix(0, int64((h.origin+ms)*float64(time.Millisecond)))
}

func (h *Host) RequestFrame(fn func(now time.Time)) {
	if h.stopped {
		return
	}
	h.pending = fn
	js.Global().Call("requestAnimationFrame", h.cb)
}

// Stop drops any pending frame and releases the callback.
func (h *Host) Stop() {
	if h.stopped {
		return
	}
	h.stopped = true
	h.pending = nil
	h.cb.Release()
}

// DOMSource reads the GLSL ES sources from the page's inline scripts.
func DOMSource(doc js.Value) (shaders.Source, error) {
	read := func(id, wantType string) (string, error) {
		el := doc.Call("getElementById", id)
		if el.IsNull() || el.IsUndefined() {
			return "", fmt.Errorf("%w: no #%s script", shaders.ErrNotFound, id)
		}
		if typ := el.Get("type").String(); typ != wantType {
			return "", fmt.Errorf("%w: %q on #%s", shaders.ErrScriptType, typ, id)
		}
		// textContent concatenates every text child
		return el.Get("textContent").String(), nil
	}

	vs, err := read(shaders.VertexScriptID, shaders.TypeVertex)
	if err != nil {
		return shaders.Source{}, err
	}
	fs, err := read(shaders.FragmentScriptID, shaders.TypeFragment)
	if err != nil {
		return shaders.Source{}, err
	}
	return shaders.Source{Language: shaders.GLSLES, Vertex: vs, Fragment: fs}, nil
}

// SceneFromQuery picks the scene named by the page's ?scene= parameter,
// defaulting to the three-shape scene.
func SceneFromQuery() (*scene.Scene, error) {
	params := js.Global().Get("URLSearchParams").New(js.Global().Get("location").Get("search"))
	name := params.Call("get", "scene")
	if name.IsNull() || name.String() == "" {
		return scene.Shapes(), nil
	}
	return scene.Lookup(name.String())
}

// Start acquires the canvas' WebGL context and starts sc on it. Without a
// canvas or a WebGL context it returns gpu.ErrContextUnavailable and draws
// nothing.
func Start(sc *scene.Scene) (*render.Loop, *Host, error) {
	doc := js.Global().Get("document")
	canvas := doc.Call("getElementById", CanvasID)
	if canvas.IsNull() || canvas.IsUndefined() {
		return nil, nil, fmt.Errorf("%w: no #%s canvas", gpu.ErrContextUnavailable, CanvasID)
	}

	ctx := canvas.Call("getContext", "webgl")
	if ctx.IsNull() || ctx.IsUndefined() {
		ctx = canvas.Call("getContext", "experimental-webgl")
	}
	dev, err := webgl.New(ctx)
	if err != nil {
		js.Global().Call("alert", "Unable to initialize WebGL. Your browser may not support it.")
		return nil, nil, err
	}

	width, height := canvas.Get("width").Int(), canvas.Get("height").Int()
	dev.Resize(width, height)
	cam := camera.NewCamera(camera.DefaultFieldOfView, width, height, camera.DefaultNear, camera.DefaultFar)

	src, err := DOMSource(doc)
	if err != nil {
		dev.Release()
		return nil, nil, err
	}

	loop := render.New(dev, sc, render.WithCamera(cam))
	host := NewHost()
	if err := loop.Start(host, src); err != nil {
		host.Stop()
		dev.Release()
		return nil, nil, err
	}
	logging.Logger().Info("rendering to canvas", "canvas", CanvasID, "width", width, "height", height)
	return loop, host, nil
}
