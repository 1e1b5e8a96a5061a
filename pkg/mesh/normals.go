package mesh

import (
	"github.com/viterin/vek"
	"gonum.org/v1/gonum/spatial/r3"
)

// RecalculateNormals recomputes NF as unit face normals (right-handed winding)
// and NV as the normalized, area-weighted sum of the adjacent face normals.
// Degenerate faces get a zero normal.
func (m *Mesh) RecalculateNormals() error {
	if m.V.Rows == 0 {
		return ErrEmptyMesh
	}
	if m.F.Rows == 0 {
		return nil
	}
	m.NF.Resize(m.F.Rows, 3)
	m.NV.Resize(m.V.Rows, 3)
	for f := 0; f < m.F.Rows; f++ {
		idx := m.F.Row(f)
		a, b, c := vec3(&m.V, idx[0]), vec3(&m.V, idx[1]), vec3(&m.V, idx[2])
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		for _, v := range idx {
			setVec3(&m.NV, v, r3.Add(vec3(&m.NV, v), n))
		}
		if r3.Norm(n) > 0 {
			n = r3.Unit(n)
		}
		setVec3(&m.NF, f, n)
	}
	for v := 0; v < m.NV.Rows; v++ {
		n := vec3(&m.NV, v)
		if r3.Norm(n) > 0 {
			setVec3(&m.NV, v, r3.Unit(n))
		}
	}
	m.markDirty()
	return nil
}

// FlipNormals negates NV and NF.
func (m *Mesh) FlipNormals() {
	if len(m.NV.Data) > 0 {
		vek.MulNumber_Inplace(m.NV.Data, -1)
	}
	if len(m.NF.Data) > 0 {
		vek.MulNumber_Inplace(m.NF.Data, -1)
	}
	m.markDirty()
}

// FlipWinding reverses the vertex order of every face. Normals are not
// updated.
func (m *Mesh) FlipWinding() {
	for f := 0; f < m.F.Rows; f++ {
		r := m.F.Row(f)
		r[1], r[2] = r[2], r[1]
	}
	for f := 0; f < m.VTI.Rows; f++ {
		if r := m.VTI.Row(f); len(r) == 3 {
			r[1], r[2] = r[2], r[1]
		}
	}
	for f := 0; f < m.VNI.Rows; f++ {
		if r := m.VNI.Row(f); len(r) == 3 {
			r[1], r[2] = r[2], r[1]
		}
	}
	m.markDirty()
}

// RecalculateMinMaxHeight sets MinMaxY to the extrema of the Y column.
// MinMaxYForPlotting is left as the caller set it.
func (m *Mesh) RecalculateMinMaxHeight() {
	if m.V.Rows == 0 {
		return
	}
	ys := m.V.Col(1)
	m.MinMaxY = [2]float64{vek.Min(ys), vek.Max(ys)}
}
