// Package matstack keeps the current model-view transform together with a
// stack of saved transforms.
package matstack

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrStackUnderflow is returned by Pop when nothing has been pushed.
var ErrStackUnderflow = errors.New("matstack: pop on empty stack")

// Stack is not safe for concurrent use.
type Stack struct {
	current mgl32.Mat4
	saved   []mgl32.Mat4
}

// New returns a stack whose current transform is the identity.
func New() *Stack {
	return &Stack{current: mgl32.Ident4()}
}

// LoadIdentity resets the current transform. Saved transforms are kept.
func (s *Stack) LoadIdentity() {
	s.current = mgl32.Ident4()
}

// Reset loads the identity and drops every saved transform.
func (s *Stack) Reset() {
	s.current = mgl32.Ident4()
	s.saved = s.saved[:0]
}

// Push saves a copy of the current transform.
func (s *Stack) Push() {
	s.saved = append(s.saved, s.current)
}

// Pop restores the most recently saved transform.
func (s *Stack) Pop() error {
	n := len(s.saved)
	if n == 0 {
		return ErrStackUnderflow
	}
	s.current = s.saved[n-1]
	s.saved = s.saved[:n-1]
	return nil
}

// Translate right-multiplies the current transform by a translation.
func (s *Stack) Translate(v mgl32.Vec3) {
	s.current = s.current.Mul4(mgl32.Translate3D(v.X(), v.Y(), v.Z()))
}

// Rotate right-multiplies the current transform by a rotation of angle
// radians about axis. A zero axis leaves the transform unchanged.
func (s *Stack) Rotate(angle float32, axis mgl32.Vec3) {
	if axis.Len() == 0 {
		return
	}
	s.current = s.current.Mul4(mgl32.HomogRotate3D(angle, axis.Normalize()))
}

// Current returns the current transform.
func (s *Stack) Current() mgl32.Mat4 {
	return s.current
}

// Depth is the number of saved transforms.
func (s *Stack) Depth() int {
	return len(s.saved)
}
