package mesh

import (
	"container/heap"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// boundaryWeight scales the constraint planes added along open edges so the
// outline of a mesh survives simplification.
const boundaryWeight = 1000.0

// quadric is a symmetric 4x4 error quadric stored in full.
type quadric [4][4]float64

func planeQuadric(n r3.Vec, p r3.Vec, w float64) quadric {
	pl := [4]float64{n.X, n.Y, n.Z, -r3.Dot(n, p)}
	var q quadric
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			q[i][j] = w * pl[i] * pl[j]
		}
	}
	return q
}

func (q *quadric) add(o *quadric) {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			q[i][j] += o[i][j]
		}
	}
}

func (q *quadric) eval(p r3.Vec) float64 {
	v := [4]float64{p.X, p.Y, p.Z, 1}
	var s float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			s += v[i] * q[i][j] * v[j]
		}
	}
	return s
}

type collapse struct {
	cost   float64
	a, b   int
	va, vb uint32
	pos    r3.Vec
}

type collapseHeap []collapse

func (h collapseHeap) Len() int           { return len(h) }
func (h collapseHeap) Less(i, j int) bool { return h[i].cost < h[j].cost }
func (h collapseHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *collapseHeap) Push(x any)        { *h = append(*h, x.(collapse)) }
func (h *collapseHeap) Pop() any {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}

// decimator holds the mutable state of one simplification run.
type decimator struct {
	pos      []r3.Vec
	faces    [][3]int
	alive    []bool
	incident [][]int
	q        []quadric
	version  []uint32
	nAlive   int
	heap     collapseHeap
}

// Decimate simplifies the mesh by quadric-error edge collapses until it has
// at most targetFaces faces, or no collapse keeps the surface manifold and
// unflipped. Per-face attributes are dropped, vertices left without faces
// are removed and normals are recomputed when they were present.
func (m *Mesh) Decimate(targetFaces int) {
	if m.F.Rows <= targetFaces || m.F.Rows == 0 {
		return
	}
	before := m.F.Rows
	d := newDecimator(&m.V, &m.F)
	d.run(targetFaces)

	for i, p := range d.pos {
		setVec3(&m.V, i, p)
	}
	F := NewMatrix[int](0, 3)
	for f, ok := range d.alive {
		if ok {
			F.Data = append(F.Data, d.faces[f][:]...)
			F.Rows++
		}
	}
	hadNormals := m.NV.Rows > 0 || m.NF.Rows > 0
	m.NF.Clear()
	m.VTI.Clear()
	m.VNI.Clear()
	m.F = F
	m.RemoveUnreferencedVerts()
	if hadNormals {
		m.NV.Clear()
		_ = m.RecalculateNormals()
	}
	m.log().Debug("decimated", zap.Int("faces_before", before), zap.Int("faces_after", m.F.Rows), zap.Int("target", targetFaces))
	m.markDirty()
}

func newDecimator(V *MatrixD, F *MatrixI) *decimator {
	d := &decimator{
		pos:      make([]r3.Vec, V.Rows),
		faces:    make([][3]int, F.Rows),
		alive:    make([]bool, F.Rows),
		incident: make([][]int, V.Rows),
		q:        make([]quadric, V.Rows),
		version:  make([]uint32, V.Rows),
		nAlive:   F.Rows,
	}
	for i := range d.pos {
		d.pos[i] = vec3(V, i)
	}
	for f := range d.faces {
		r := F.Row(f)
		d.faces[f] = [3]int{r[0], r[1], r[2]}
		d.alive[f] = true
		a, b, c := d.pos[r[0]], d.pos[r[1]], d.pos[r[2]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		if r3.Norm(n) == 0 {
			for _, v := range r {
				d.incident[v] = append(d.incident[v], f)
			}
			continue
		}
		n = r3.Unit(n)
		pq := planeQuadric(n, a, 1)
		for _, v := range r {
			d.incident[v] = append(d.incident[v], f)
			d.q[v].add(&pq)
		}
	}
	for e, faces := range edgeFaces(F) {
		if len(faces) != 1 {
			continue
		}
		f := d.faces[faces[0]]
		a, b, c := d.pos[f[0]], d.pos[f[1]], d.pos[f[2]]
		fn := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		dir := r3.Sub(d.pos[e[1]], d.pos[e[0]])
		n := r3.Cross(dir, fn)
		if r3.Norm(n) == 0 {
			continue
		}
		bq := planeQuadric(r3.Unit(n), d.pos[e[0]], boundaryWeight)
		d.q[e[0]].add(&bq)
		d.q[e[1]].add(&bq)
	}
	for e := range edgeFaces(F) {
		d.push(e[0], e[1])
	}
	heap.Init(&d.heap)
	return d
}

func (d *decimator) push(a, b int) {
	var q quadric = d.q[a]
	q.add(&d.q[b])
	mid := r3.Scale(0.5, r3.Add(d.pos[a], d.pos[b]))
	best, cost := d.pos[a], q.eval(d.pos[a])
	for _, p := range []r3.Vec{d.pos[b], mid} {
		if c := q.eval(p); c < cost {
			best, cost = p, c
		}
	}
	heap.Push(&d.heap, collapse{cost: cost, a: a, b: b, va: d.version[a], vb: d.version[b], pos: best})
}

// facesOf returns the live faces around v and compacts its incidence list.
func (d *decimator) facesOf(v int) []int {
	out := d.incident[v][:0]
	for _, f := range d.incident[v] {
		if d.alive[f] && contains3(d.faces[f], v) {
			out = append(out, f)
		}
	}
	d.incident[v] = out
	return out
}

func contains3(f [3]int, v int) bool {
	return f[0] == v || f[1] == v || f[2] == v
}

func (d *decimator) neighbours(v int) map[int]struct{} {
	out := make(map[int]struct{})
	for _, f := range d.facesOf(v) {
		for _, w := range d.faces[f] {
			if w != v {
				out[w] = struct{}{}
			}
		}
	}
	return out
}

func (d *decimator) run(target int) {
	for d.nAlive > target && d.heap.Len() > 0 {
		c := heap.Pop(&d.heap).(collapse)
		if c.va != d.version[c.a] || c.vb != d.version[c.b] {
			continue
		}
		if !d.canCollapse(c) {
			continue
		}
		d.collapse(c)
	}
}

func (d *decimator) canCollapse(c collapse) bool {
	var shared []int
	for _, f := range d.facesOf(c.a) {
		if contains3(d.faces[f], c.b) {
			shared = append(shared, f)
		}
	}
	if len(shared) == 0 || len(shared) > 2 {
		return false
	}

	// Link condition: the common neighbours of a and b are exactly the
	// vertices opposite the edge.
	na, nb := d.neighbours(c.a), d.neighbours(c.b)
	common := 0
	for w := range na {
		if _, ok := nb[w]; ok {
			common++
		}
	}
	if common != len(shared) {
		return false
	}

	for _, v := range [2]int{c.a, c.b} {
		for _, f := range d.facesOf(v) {
			tri := d.faces[f]
			if contains3(tri, c.a) && contains3(tri, c.b) {
				continue
			}
			before := d.normal(tri, -1, r3.Vec{})
			after := d.normal(tri, v, c.pos)
			if r3.Norm(after) < 1e-12 || r3.Dot(before, after) <= 0 {
				return false
			}
		}
	}
	return true
}

// normal returns the unnormalized normal of tri with vertex moved (if >= 0)
// placed at p.
func (d *decimator) normal(tri [3]int, moved int, p r3.Vec) r3.Vec {
	var pts [3]r3.Vec
	for i, v := range tri {
		if v == moved {
			pts[i] = p
		} else {
			pts[i] = d.pos[v]
		}
	}
	return r3.Cross(r3.Sub(pts[1], pts[0]), r3.Sub(pts[2], pts[0]))
}

func (d *decimator) collapse(c collapse) {
	for _, f := range d.facesOf(c.b) {
		tri := &d.faces[f]
		if contains3(*tri, c.a) {
			d.alive[f] = false
			d.nAlive--
			continue
		}
		for i := range tri {
			if tri[i] == c.b {
				tri[i] = c.a
			}
		}
		d.incident[c.a] = append(d.incident[c.a], f)
	}
	d.incident[c.b] = nil
	d.pos[c.a] = c.pos
	d.q[c.a].add(&d.q[c.b])
	d.version[c.a]++
	d.version[c.b]++
	for w := range d.neighbours(c.a) {
		d.push(c.a, w)
	}
}
