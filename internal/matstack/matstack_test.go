package matstack

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewIsIdentity(t *testing.T) {
	s := New()
	if s.Current() != mgl32.Ident4() {
		t.Errorf("Current() = %v, want identity", s.Current())
	}
	if s.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", s.Depth())
	}
}

func TestPopEmpty(t *testing.T) {
	s := New()
	if err := s.Pop(); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("Pop() on empty = %v, want ErrStackUnderflow", err)
	}

	s.Push()
	if err := s.Pop(); err != nil {
		t.Fatalf("Pop() = %v", err)
	}
	if err := s.Pop(); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("second Pop() = %v, want ErrStackUnderflow", err)
	}
}

func TestBalancedSequenceRestoresTransform(t *testing.T) {
	type op func(s *Stack) error
	push := func(s *Stack) error { s.Push(); return nil }
	pop := func(s *Stack) error { return s.Pop() }
	translate := func(v mgl32.Vec3) op {
		return func(s *Stack) error { s.Translate(v); return nil }
	}
	rotate := func(a float32, axis mgl32.Vec3) op {
		return func(s *Stack) error { s.Rotate(a, axis); return nil }
	}

	tests := []struct {
		name string
		ops  []op
	}{
		{"empty", nil},
		{"push pop", []op{push, pop}},
		{"single object", []op{push, translate(mgl32.Vec3{-2, -2, -7}), rotate(1.2, mgl32.Vec3{0, 1, 0}), pop}},
		{"nested", []op{
			push, translate(mgl32.Vec3{1, 2, 3}),
			push, rotate(0.5, mgl32.Vec3{1, 0, 0}),
			push, translate(mgl32.Vec3{0, 0, -7}), pop,
			pop, pop,
		}},
		{"sequential", []op{
			push, rotate(3, mgl32.Vec3{0, 0, 1}), pop,
			push, translate(mgl32.Vec3{2, -2, -7}), pop,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Translate(mgl32.Vec3{0.5, 0.25, -1})
			before := s.Current()
			for i, o := range tt.ops {
				if err := o(s); err != nil {
					t.Fatalf("op %d: %v", i, err)
				}
			}
			if got := s.Current(); got != before {
				t.Errorf("Current() = %v, want %v", got, before)
			}
			if s.Depth() != 0 {
				t.Errorf("Depth() = %d, want 0", s.Depth())
			}
		})
	}
}

func TestTranslateRightMultiplies(t *testing.T) {
	s := New()
	s.Translate(mgl32.Vec3{0, 0, -7})
	s.Rotate(float32(math.Pi/2), mgl32.Vec3{0, 0, 1})
	s.Translate(mgl32.Vec3{1, 0, 0})

	// Local +X after a 90 degree Z rotation points along world +Y.
	p := s.Current().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	want := mgl32.Vec4{0, 1, -7, 1}
	if !p.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("origin maps to %v, want %v", p, want)
	}
}

func TestRotateZeroAxis(t *testing.T) {
	s := New()
	s.Rotate(1, mgl32.Vec3{})
	if s.Current() != mgl32.Ident4() {
		t.Errorf("Rotate with zero axis changed transform: %v", s.Current())
	}
}

func TestRotateNormalizesAxis(t *testing.T) {
	a, b := New(), New()
	a.Rotate(0.7, mgl32.Vec3{0, 5, 0})
	b.Rotate(0.7, mgl32.Vec3{0, 1, 0})
	if !a.Current().ApproxEqualThreshold(b.Current(), 1e-6) {
		t.Errorf("scaled axis gave %v, want %v", a.Current(), b.Current())
	}
}

func TestLoadIdentityKeepsSaved(t *testing.T) {
	s := New()
	s.Translate(mgl32.Vec3{1, 1, 1})
	s.Push()
	s.LoadIdentity()
	if s.Current() != mgl32.Ident4() {
		t.Errorf("LoadIdentity() left %v", s.Current())
	}
	if s.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", s.Depth())
	}

	s.Reset()
	if s.Depth() != 0 {
		t.Errorf("Depth() after Reset = %d, want 0", s.Depth())
	}
}
