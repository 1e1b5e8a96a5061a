package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Upsample splits every triangle into four, nrSubdivisions times. With
// smooth set, positions follow Loop subdivision; otherwise new vertices sit
// at edge midpoints and the surface is unchanged. Other per-vertex
// attributes of new vertices are averaged from the edge endpoints (labels are
// copied from the first endpoint). Per-face attributes are dropped and
// normals are recomputed when present.
func (m *Mesh) Upsample(nrSubdivisions int, smooth bool) {
	if m.F.Rows == 0 {
		return
	}
	hadNormals := m.NV.Rows > 0 || m.NF.Rows > 0
	for range nrSubdivisions {
		m.subdivideOnce(smooth)
	}
	m.NF.Clear()
	m.VTI.Clear()
	m.VNI.Clear()
	if hadNormals {
		_ = m.RecalculateNormals()
	}
	m.markDirty()
}

func (m *Mesh) subdivideOnce(smooth bool) {
	n := m.V.Rows
	ef := edgeFaces(&m.F)

	// Number edges in face order so the output layout is deterministic.
	edgeVert := make(map[edgeKey]int, len(ef))
	order := make([]edgeKey, 0, len(ef))
	for f := 0; f < m.F.Rows; f++ {
		r := m.F.Row(f)
		for k := 0; k < 3; k++ {
			e := makeEdgeKey(r[k], r[(k+1)%3])
			if _, ok := edgeVert[e]; !ok {
				edgeVert[e] = n + len(order)
				order = append(order, e)
			}
		}
	}

	var newV MatrixD
	if smooth {
		newV = loopPositions(&m.V, &m.F, ef, order)
	}

	for _, a := range m.floatAttrs() {
		if !a.perVertex || a.m.Rows != n {
			continue
		}
		out := NewMatrix[float64](n+len(order), a.m.Cols)
		copy(out.Data, a.m.Data)
		for i, e := range order {
			dst, p, q := out.Row(n+i), a.m.Row(e[0]), a.m.Row(e[1])
			for j := range dst {
				dst[j] = 0.5 * (p[j] + q[j])
			}
		}
		*a.m = out
	}
	for _, a := range m.intAttrs() {
		if !a.perVertex || a.m.Rows != n {
			continue
		}
		out := NewMatrix[int](n+len(order), a.m.Cols)
		copy(out.Data, a.m.Data)
		for i, e := range order {
			copy(out.Row(n+i), a.m.Row(e[0]))
		}
		*a.m = out
	}
	if smooth {
		m.V = newV
	}

	F := NewMatrix[int](m.F.Rows*4, 3)
	for f := 0; f < m.F.Rows; f++ {
		r := m.F.Row(f)
		a, b, c := r[0], r[1], r[2]
		ab := edgeVert[makeEdgeKey(a, b)]
		bc := edgeVert[makeEdgeKey(b, c)]
		ca := edgeVert[makeEdgeKey(c, a)]
		copy(F.Row(4*f), []int{a, ab, ca})
		copy(F.Row(4*f+1), []int{ab, b, bc})
		copy(F.Row(4*f+2), []int{ca, bc, c})
		copy(F.Row(4*f+3), []int{ab, bc, ca})
	}
	m.F = F
}

// loopPositions computes the Loop-subdivided positions: the n old vertices
// first, then one vertex per edge in order.
func loopPositions(V *MatrixD, F *MatrixI, ef map[edgeKey][]int, order []edgeKey) MatrixD {
	n := V.Rows
	out := NewMatrix[float64](n+len(order), 3)

	neighbours := make([][]int, n)
	boundary := make([][]int, n)
	for e, faces := range ef {
		neighbours[e[0]] = append(neighbours[e[0]], e[1])
		neighbours[e[1]] = append(neighbours[e[1]], e[0])
		if len(faces) == 1 {
			boundary[e[0]] = append(boundary[e[0]], e[1])
			boundary[e[1]] = append(boundary[e[1]], e[0])
		}
	}

	for v := 0; v < n; v++ {
		p := vec3(V, v)
		switch {
		case len(boundary[v]) == 2:
			sum := r3.Add(vec3(V, boundary[v][0]), vec3(V, boundary[v][1]))
			setVec3(&out, v, r3.Add(r3.Scale(0.75, p), r3.Scale(0.125, sum)))
		case len(boundary[v]) > 0 || len(neighbours[v]) == 0:
			// Corners and non-manifold boundary vertices stay put.
			setVec3(&out, v, p)
		default:
			k := float64(len(neighbours[v]))
			beta := loopBeta(len(neighbours[v]))
			var sum r3.Vec
			for _, w := range neighbours[v] {
				sum = r3.Add(sum, vec3(V, w))
			}
			setVec3(&out, v, r3.Add(r3.Scale(1-k*beta, p), r3.Scale(beta, sum)))
		}
	}

	for i, e := range order {
		a, b := vec3(V, e[0]), vec3(V, e[1])
		faces := ef[e]
		if len(faces) != 2 {
			setVec3(&out, n+i, r3.Scale(0.5, r3.Add(a, b)))
			continue
		}
		c := vec3(V, opposite(F, faces[0], e))
		d := vec3(V, opposite(F, faces[1], e))
		p := r3.Add(r3.Scale(0.375, r3.Add(a, b)), r3.Scale(0.125, r3.Add(c, d)))
		setVec3(&out, n+i, p)
	}
	return out
}

// loopBeta is Warren's weight for a vertex of valence k.
func loopBeta(k int) float64 {
	if k == 3 {
		return 3.0 / 16.0
	}
	return 3.0 / (8.0 * float64(k))
}

func opposite(F *MatrixI, f int, e edgeKey) int {
	for _, v := range F.Row(f) {
		if v != e[0] && v != e[1] {
			return v
		}
	}
	return e[0]
}
