// Package scene describes what the render loop draws: a fixed list of
// shapes, each with a world position, a rotation axis, a rotation rate and a
// primitive kind.
package scene

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"spinshapes/internal/gpu"
)

var ErrUnknownScene = errors.New("scene: unknown scene")

// Object is one drawable entry of a scene.
type Object struct {
	Shape    *Shape
	Position mgl32.Vec3
	Axis     mgl32.Vec3
	// Rate is the rotation speed in degrees per second.
	Rate      float64
	Primitive gpu.Primitive
}

// Scene is an ordered object list. Objects are drawn in order.
type Scene struct {
	Name    string
	Objects []Object
}

var (
	AxisX = mgl32.Vec3{1, 0, 0}
	AxisY = mgl32.Vec3{0, 1, 0}
	AxisZ = mgl32.Vec3{0, 0, 1}
)

// Shapes is the three-shape demo: a triangle, a square and a circle fan.
func Shapes() *Scene {
	return &Scene{
		Name: "shapes",
		Objects: []Object{
			{Shape: Triangle(), Position: mgl32.Vec3{-2, -2, -7}, Axis: AxisY, Rate: 90, Primitive: gpu.Triangles},
			{Shape: Square(), Position: mgl32.Vec3{2, -2, -7}, Axis: AxisX, Rate: 75, Primitive: gpu.TriangleStrip},
			{Shape: Circle(DefaultCircleSegments), Position: mgl32.Vec3{0, 2, -7}, Axis: AxisZ, Rate: 90, Primitive: gpu.TriangleFan},
		},
	}
}

// SingleTriangle is one purple triangle spinning about Y in front of the
// camera.
func SingleTriangle() *Scene {
	return &Scene{
		Name: "triangle",
		Objects: []Object{
			{Shape: PurpleTriangle(), Position: mgl32.Vec3{0, 0, -7}, Axis: AxisY, Rate: 90, Primitive: gpu.Triangles},
		},
	}
}

var builtins = map[string]func() *Scene{
	"shapes":   Shapes,
	"triangle": SingleTriangle,
}

// Names lists the built-in scenes.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a fresh copy of a built-in scene.
func Lookup(name string) (*Scene, error) {
	fn, ok := builtins[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownScene, name, strings.Join(Names(), ", "))
	}
	return fn(), nil
}

// Validate checks every object has a shape, a usable axis and a known
// primitive.
func (s *Scene) Validate() error {
	if len(s.Objects) == 0 {
		return fmt.Errorf("scene %q has no objects", s.Name)
	}
	for i, o := range s.Objects {
		if o.Shape == nil {
			return fmt.Errorf("scene %q object %d: no shape", s.Name, i)
		}
		if o.Axis.Len() == 0 {
			return fmt.Errorf("scene %q object %d: zero rotation axis", s.Name, i)
		}
		if !o.Primitive.Valid() {
			return fmt.Errorf("scene %q object %d: invalid primitive %v", s.Name, i, o.Primitive)
		}
		if math.IsNaN(o.Rate) || math.IsInf(o.Rate, 0) {
			return fmt.Errorf("scene %q object %d: rate %v", s.Name, i, o.Rate)
		}
	}
	return nil
}

// DegToRad converts an angle in degrees to radians, reducing it modulo 360
// first so large accumulated angles keep their float32 precision.
func DegToRad(deg float64) float32 {
	return float32(mgl64.DegToRad(math.Mod(deg, 360)))
}
