package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultFieldOfView = 45.0
	DefaultNear        = 0.1
	DefaultFar         = 100.0

	DefaultWidth  = 640
	DefaultHeight = 480

	MinFieldOfView = 1.0
	MaxFieldOfView = 179.0
)

// Camera holds the projection parameters of the view
type Camera struct {
	// Vertical field of view in degrees
	FieldOfView float32

	// Clipping planes
	Near float32
	Far  float32

	// Viewport dimensions
	ViewportWidth  int
	ViewportHeight int
}

// NewCamera creates a camera for a viewport of the given size
func NewCamera(fieldOfView float32, width, height int, near, far float32) *Camera {
	c := &Camera{
		FieldOfView:    fieldOfView,
		Near:           near,
		Far:            far,
		ViewportWidth:  width,
		ViewportHeight: height,
	}
	c.clamp()
	return c
}

// Default returns the 45 degree, 640x480 camera
func Default() *Camera {
	return NewCamera(DefaultFieldOfView, DefaultWidth, DefaultHeight, DefaultNear, DefaultFar)
}

// SetViewport updates the viewport dimensions
func (c *Camera) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.ViewportWidth = width
	c.ViewportHeight = height
}

// Aspect returns width/height of the viewport
func (c *Camera) Aspect() float32 {
	if c.ViewportHeight <= 0 {
		return 1
	}
	return float32(c.ViewportWidth) / float32(c.ViewportHeight)
}

// Projection returns the perspective projection matrix
func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FieldOfView), c.Aspect(), c.Near, c.Far)
}

// Zoom narrows (negative delta) or widens the field of view
func (c *Camera) Zoom(delta float32) {
	c.FieldOfView += delta
	c.clamp()
}

// clamp keeps parameters inside a range the projection can use
func (c *Camera) clamp() {
	if c.FieldOfView < MinFieldOfView {
		c.FieldOfView = MinFieldOfView
	}
	if c.FieldOfView > MaxFieldOfView {
		c.FieldOfView = MaxFieldOfView
	}
	if c.Near <= 0 {
		c.Near = DefaultNear
	}
	if c.Far <= c.Near {
		c.Far = c.Near * 1000
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = DefaultWidth
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = DefaultHeight
	}
}
