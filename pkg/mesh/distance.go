package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ComputeDistanceToMesh returns, for every vertex of m, the distance to the
// closest point of target: its triangles when it has faces, its vertices
// otherwise. The result is an N x 1 matrix.
func (m *Mesh) ComputeDistanceToMesh(target *Mesh) (MatrixD, error) {
	if target.V.Rows == 0 {
		return MatrixD{}, ErrEmptyMesh
	}
	out := NewMatrix[float64](m.V.Rows, 1)
	if m.V.Rows == 0 {
		return out, nil
	}

	var dist func(p r3.Vec) float64
	if target.F.Rows > 0 {
		dist = target.triangleDistancer()
	} else {
		idx := NewPointIndex(&target.V, false)
		dist = func(p r3.Vec) float64 {
			n, _ := idx.Nearest(p)
			return n.Dist
		}
	}

	err := forEachChunk(m.V.Rows, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			out.Data[i] = dist(vec3(&m.V, i))
		}
		return nil
	})
	return out, err
}

// triangleDistancer indexes triangle centroids. A query first takes the
// exact distance d to the triangle with the nearest centroid; any closer
// triangle must have its centroid within d + the largest centroid-to-corner
// radius, so only those are tested exactly.
func (m *Mesh) triangleDistancer() func(p r3.Vec) float64 {
	centroids := NewMatrix[float64](m.F.Rows, 3)
	var maxR float64
	for f := 0; f < m.F.Rows; f++ {
		a, b, c := m.triangle(f)
		ctr := r3.Scale(1.0/3, r3.Add(r3.Add(a, b), c))
		setVec3(&centroids, f, ctr)
		maxR = math.Max(maxR, math.Max(r3.Norm(r3.Sub(a, ctr)), math.Max(r3.Norm(r3.Sub(b, ctr)), r3.Norm(r3.Sub(c, ctr)))))
	}
	idx := NewPointIndex(&centroids, false)
	return func(p r3.Vec) float64 {
		n, _ := idx.Nearest(p)
		a, b, c := m.triangle(n.Index)
		best := r3.Norm(r3.Sub(p, closestPointOnTriangle(p, a, b, c)))
		for _, h := range idx.Radius(p, best+maxR) {
			a, b, c := m.triangle(h.Index)
			d := r3.Norm(r3.Sub(p, closestPointOnTriangle(p, a, b, c)))
			best = math.Min(best, d)
		}
		return best
	}
}

func (m *Mesh) triangle(f int) (a, b, c r3.Vec) {
	idx := m.F.Row(f)
	return vec3(&m.V, idx[0]), vec3(&m.V, idx[1]), vec3(&m.V, idx[2])
}

// closestPointOnTriangle returns the point of triangle abc closest to p, by
// Voronoi-region classification.
func closestPointOnTriangle(p, a, b, c r3.Vec) r3.Vec {
	ab, ac, ap := r3.Sub(b, a), r3.Sub(c, a), r3.Sub(p, a)
	d1, d2 := r3.Dot(ab, ap), r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := r3.Sub(p, b)
	d3, d4 := r3.Dot(ab, bp), r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return r3.Add(a, r3.Scale(d1/(d1-d3), ab))
	}
	cp := r3.Sub(p, c)
	d5, d6 := r3.Dot(ab, cp), r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return r3.Add(a, r3.Scale(d2/(d2-d6), ac))
	}
	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		return r3.Add(b, r3.Scale((d4-d3)/((d4-d3)+(d5-d6)), r3.Sub(c, b)))
	}
	denom := va + vb + vc
	if denom == 0 {
		return a
	}
	v, w := vb/denom, vc/denom
	return r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac)))
}
