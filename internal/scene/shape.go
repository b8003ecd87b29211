package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Shape is immutable geometry: vertex positions and one RGBA color per
// vertex.
type Shape struct {
	name     string
	vertices []mgl32.Vec3
	colors   []mgl32.Vec4
}

// NewShape copies vertices and colors into a new shape.
func NewShape(name string, vertices []mgl32.Vec3, colors []mgl32.Vec4) (*Shape, error) {
	if len(vertices) == 0 {
		return nil, fmt.Errorf("shape %q: no vertices", name)
	}
	if len(vertices) != len(colors) {
		return nil, fmt.Errorf("shape %q: %d vertices but %d colors", name, len(vertices), len(colors))
	}
	return &Shape{
		name:     name,
		vertices: append([]mgl32.Vec3(nil), vertices...),
		colors:   append([]mgl32.Vec4(nil), colors...),
	}, nil
}

func mustShape(name string, vertices []mgl32.Vec3, colors []mgl32.Vec4) *Shape {
	s, err := NewShape(name, vertices, colors)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Shape) Name() string { return s.name }

// Len is the vertex count.
func (s *Shape) Len() int { return len(s.vertices) }

// Vertices returns a copy of the positions.
func (s *Shape) Vertices() []mgl32.Vec3 { return append([]mgl32.Vec3(nil), s.vertices...) }

// Colors returns a copy of the per-vertex colors.
func (s *Shape) Colors() []mgl32.Vec4 { return append([]mgl32.Vec4(nil), s.colors...) }

func solid(n int, c mgl32.Vec4) []mgl32.Vec4 {
	out := make([]mgl32.Vec4, n)
	for i := range out {
		out[i] = c
	}
	return out
}

var triangleVertices = []mgl32.Vec3{
	{0, 1, 0},
	{-1, -1, 0},
	{1, -1, 0},
}

// Triangle has red, green and blue corners.
func Triangle() *Shape {
	return mustShape("triangle", triangleVertices, []mgl32.Vec4{
		{1, 0, 0, 1},
		{0, 1, 0, 1},
		{0, 0, 1, 1},
	})
}

// PurpleTriangle is the single-color triangle of the one-shape scene.
func PurpleTriangle() *Shape {
	return mustShape("purple_triangle", triangleVertices, solid(3, mgl32.Vec4{0.5, 0, 1, 1}))
}

// Square is laid out for a triangle strip.
func Square() *Shape {
	return mustShape("square", []mgl32.Vec3{
		{1, 1, 0},
		{-1, 1, 0},
		{1, -1, 0},
		{-1, -1, 0},
	}, solid(4, mgl32.Vec4{0.5, 0.5, 1, 1}))
}

// DefaultCircleSegments is the rim resolution of the built-in circle.
const DefaultCircleSegments = 180

// Circle is a unit triangle fan: a white center followed by segments+1 rim
// vertices (the last closes the loop). The rim fades red→green, then
// green→blue, then blue→red over three equal arcs and ends on red.
func Circle(segments int) *Shape {
	if segments < 3 {
		segments = 3
	}
	vertices := make([]mgl32.Vec3, 0, segments+2)
	colors := make([]mgl32.Vec4, 0, segments+2)

	vertices = append(vertices, mgl32.Vec3{0, 0, 0})
	colors = append(colors, mgl32.Vec4{1, 1, 1, 1})

	step := 2 * math.Pi / float64(segments)
	for i := 0; i <= segments; i++ {
		a := float64(i) * step
		vertices = append(vertices, mgl32.Vec3{float32(math.Cos(a)), float32(math.Sin(a)), 0})
	}

	// segments rim colors in three arcs, then the closing red vertex.
	arc := segments / 3
	quarter := math.Pi / 2 / float64(arc)
	for i := 0; i < segments; i++ {
		k := i / arc
		if k > 2 {
			k = 2
		}
		t := float64(i-k*arc) * quarter
		c, s := float32(math.Cos(t)), float32(math.Sin(t))
		switch k {
		case 0:
			colors = append(colors, mgl32.Vec4{c, s, 0, 1})
		case 1:
			colors = append(colors, mgl32.Vec4{0, c, s, 1})
		default:
			colors = append(colors, mgl32.Vec4{s, 0, c, 1})
		}
	}
	colors = append(colors, mgl32.Vec4{1, 0, 0, 1})

	return mustShape("circle", vertices, colors)
}
