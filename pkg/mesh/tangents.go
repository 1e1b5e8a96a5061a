package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ComputeTangents builds the surfel frame: VTangentU gets a unit tangent
// scaled by length, VLengthV gets the bitangent length. The bitangent
// direction is NV x VTangentU and is not stored.
//
// With UV and faces the tangent follows the U direction of the texture
// parametrization; otherwise an arbitrary vector perpendicular to the normal
// is used. NV must be populated.
func (m *Mesh) ComputeTangents(length float64) error {
	if m.V.Rows == 0 {
		return ErrEmptyMesh
	}
	if m.NV.Rows != m.V.Rows {
		return ErrNoNormals
	}
	n := m.V.Rows
	acc := make([]r3.Vec, n)
	if m.UV.Rows == n && m.F.Rows > 0 {
		for f := 0; f < m.F.Rows; f++ {
			idx := m.F.Row(f)
			p0, p1, p2 := vec3(&m.V, idx[0]), vec3(&m.V, idx[1]), vec3(&m.V, idx[2])
			uv0, uv1, uv2 := m.UV.Row(idx[0]), m.UV.Row(idx[1]), m.UV.Row(idx[2])
			e1, e2 := r3.Sub(p1, p0), r3.Sub(p2, p0)
			du1, dv1 := uv1[0]-uv0[0], uv1[1]-uv0[1]
			du2, dv2 := uv2[0]-uv0[0], uv2[1]-uv0[1]
			det := du1*dv2 - du2*dv1
			if math.Abs(det) < 1e-12 {
				continue
			}
			t := r3.Scale(1/det, r3.Sub(r3.Scale(dv2, e1), r3.Scale(dv1, e2)))
			for _, v := range idx {
				acc[v] = r3.Add(acc[v], t)
			}
		}
	}

	m.VTangentU.Resize(n, 3)
	m.VLengthV.Resize(n, 1)
	for i := 0; i < n; i++ {
		nv := vec3(&m.NV, i)
		if r3.Norm(nv) == 0 {
			continue
		}
		nv = r3.Unit(nv)
		// Gram-Schmidt against the normal.
		t := r3.Sub(acc[i], r3.Scale(r3.Dot(acc[i], nv), nv))
		if r3.Norm(t) < 1e-12 {
			t = perpendicular(nv)
		}
		setVec3(&m.VTangentU, i, r3.Scale(length, r3.Unit(t)))
		m.VLengthV.Set(i, 0, length)
	}
	m.markDirty()
	return nil
}

// perpendicular returns a unit vector orthogonal to unit vector n.
func perpendicular(n r3.Vec) r3.Vec {
	axis := r3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		axis = r3.Vec{Y: 1}
	}
	return r3.Unit(r3.Cross(n, axis))
}

// ExpandBitangents fills VBitangentV with NV x VTangentU scaled to VLengthV,
// for consumers that need the full frame.
func (m *Mesh) ExpandBitangents() error {
	n := m.V.Rows
	if m.NV.Rows != n || n == 0 {
		return ErrNoNormals
	}
	if m.VTangentU.Rows != n || m.VLengthV.Rows != n {
		return ErrMeshInvalid
	}
	m.VBitangentV.Resize(n, 3)
	for i := 0; i < n; i++ {
		b := r3.Cross(vec3(&m.NV, i), vec3(&m.VTangentU, i))
		if r3.Norm(b) == 0 {
			continue
		}
		setVec3(&m.VBitangentV, i, r3.Scale(m.VLengthV.At(i, 0), r3.Unit(b)))
	}
	m.markDirty()
	return nil
}
