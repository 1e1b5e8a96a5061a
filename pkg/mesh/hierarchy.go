package mesh

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// AddChild attaches child to the transform hierarchy: model-matrix edits on m
// are replayed on child. Cycles are rejected.
func (m *Mesh) AddChild(child *Mesh) error {
	if child == nil {
		return errors.New("add child: nil mesh")
	}
	if child == m || child.hasDescendant(m) {
		return errors.Errorf("add child %q: would create a cycle", child.Name)
	}
	for _, c := range m.Children {
		if c == child {
			return nil
		}
	}
	m.Children = append(m.Children, child)
	return nil
}

// RemoveChild detaches child. It reports whether child was attached.
func (m *Mesh) RemoveChild(child *Mesh) bool {
	for i, c := range m.Children {
		if c == child {
			m.Children = append(m.Children[:i], m.Children[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Mesh) hasDescendant(target *Mesh) bool {
	for _, c := range m.Children {
		if c == target || c.hasDescendant(target) {
			return true
		}
	}
	return false
}

// propagate applies a world-space model-matrix delta to every child.
func (m *Mesh) propagate(delta mgl64.Mat4) {
	for _, c := range m.Children {
		c.TransformModelMatrix(delta)
	}
}
