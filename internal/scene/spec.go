package scene

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"spinshapes/internal/gpu"
)

// ObjectSpec is the config-file form of an Object.
type ObjectSpec struct {
	Shape     string        `json:"shape"`
	Segments  int           `json:"segments,omitempty"`
	Position  [3]float32    `json:"position"`
	Axis      [3]float32    `json:"axis"`
	Rate      float64       `json:"rate"`
	Primitive gpu.Primitive `json:"primitive"`
}

// ShapeNames lists the shapes a spec may reference.
var ShapeNames = []string{"triangle", "purple_triangle", "square", "circle"}

func shapeByName(name string, segments int) (*Shape, error) {
	switch strings.ToLower(name) {
	case "triangle":
		return Triangle(), nil
	case "purple_triangle":
		return PurpleTriangle(), nil
	case "square":
		return Square(), nil
	case "circle":
		if segments == 0 {
			segments = DefaultCircleSegments
		}
		return Circle(segments), nil
	}
	return nil, fmt.Errorf("unknown shape %q (have %s)", name, strings.Join(ShapeNames, ", "))
}

// FromSpecs builds and validates a scene from config entries.
func FromSpecs(name string, specs []ObjectSpec) (*Scene, error) {
	s := &Scene{Name: name, Objects: make([]Object, 0, len(specs))}
	for i, sp := range specs {
		shape, err := shapeByName(sp.Shape, sp.Segments)
		if err != nil {
			return nil, fmt.Errorf("scene %q object %d: %w", name, i, err)
		}
		s.Objects = append(s.Objects, Object{
			Shape:     shape,
			Position:  mgl32.Vec3(sp.Position),
			Axis:      mgl32.Vec3(sp.Axis),
			Rate:      sp.Rate,
			Primitive: sp.Primitive,
		})
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Specs converts a scene back into config entries. Shapes are referenced
// by name, so only scenes built from named shapes round-trip.
func (s *Scene) Specs() []ObjectSpec {
	out := make([]ObjectSpec, 0, len(s.Objects))
	for _, o := range s.Objects {
		sp := ObjectSpec{
			Shape:     o.Shape.Name(),
			Position:  [3]float32(o.Position),
			Axis:      [3]float32(o.Axis),
			Rate:      o.Rate,
			Primitive: o.Primitive,
		}
		if sp.Shape == "circle" {
			sp.Segments = o.Shape.Len() - 2
		}
		out = append(out, sp)
	}
	return out
}
