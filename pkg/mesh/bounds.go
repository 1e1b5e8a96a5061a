package mesh

import (
	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"github.com/viterin/vek"
	"gonum.org/v1/gonum/spatial/r3"
)

// BoundingBox returns the axis-aligned extent of V in local coordinates.
func (m *Mesh) BoundingBox() r3.Box {
	if m.V.Rows == 0 {
		return r3.Box{}
	}
	b := geom.NewMultiPointFlat(geom.XYZ, m.V.Data).Bounds()
	return r3.Box{
		Min: r3.Vec{X: b.Min(0), Y: b.Min(1), Z: b.Min(2)},
		Max: r3.Vec{X: b.Max(0), Y: b.Max(1), Z: b.Max(2)},
	}
}

// Centroid returns the mean position of V.
func (m *Mesh) Centroid() r3.Vec {
	if m.V.Rows == 0 {
		return r3.Vec{}
	}
	var sum r3.Vec
	for i := 0; i < m.V.Rows; i++ {
		sum = r3.Add(sum, vec3(&m.V, i))
	}
	return r3.Scale(1/float64(m.V.Rows), sum)
}

// GetScale returns the largest side of the bounding box.
func (m *Mesh) GetScale() float64 {
	b := m.BoundingBox()
	d := r3.Sub(b.Max, b.Min)
	return max(d.X, d.Y, d.Z)
}

// NormalizeSize scales V so the largest side of the bounding box is 1.
func (m *Mesh) NormalizeSize() {
	s := m.GetScale()
	if s == 0 {
		return
	}
	vek.MulNumber_Inplace(m.V.Data, 1/s)
	m.markDirty()
}

// NormalizePosition translates V so the bounding box is centered at the
// origin.
func (m *Mesh) NormalizePosition() {
	if m.V.Rows == 0 {
		return
	}
	b := m.BoundingBox()
	c := r3.Scale(0.5, r3.Add(b.Min, b.Max))
	for i := 0; i < m.V.Rows; i++ {
		setVec3(&m.V, i, r3.Sub(vec3(&m.V, i), c))
	}
	m.markDirty()
}

// ApplyD treats the rows of V as directions from the sensor and moves every
// point to distance D along its direction.
func (m *Mesh) ApplyD() error {
	if m.D.Rows != m.V.Rows {
		return errors.Errorf("apply D: D has %d rows, V has %d", m.D.Rows, m.V.Rows)
	}
	for i := 0; i < m.V.Rows; i++ {
		dir := vec3(&m.V, i)
		if r3.Norm(dir) == 0 {
			continue
		}
		setVec3(&m.V, i, r3.Scale(m.D.At(i, 0), r3.Unit(dir)))
	}
	m.markDirty()
	return nil
}

// Interpolate returns a copy of m whose positions are blended towards target
// by factor (0 keeps m, 1 gives target's positions).
func (m *Mesh) Interpolate(target *Mesh, factor float64) (*Mesh, error) {
	if target.V.Rows != m.V.Rows || target.V.Cols != m.V.Cols {
		return nil, errors.Wrapf(ErrColumnMismatch, "interpolate: %dx%d vs %dx%d", m.V.Rows, m.V.Cols, target.V.Rows, target.V.Cols)
	}
	out, err := m.Clone()
	if err != nil {
		return nil, err
	}
	for i := range out.V.Data {
		out.V.Data[i] = (1-factor)*m.V.Data[i] + factor*target.V.Data[i]
	}
	return out, nil
}
