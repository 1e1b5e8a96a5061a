package mesh

import (
	"go.uber.org/zap"
)

// disjointSet is a union-find forest with path halving and union by size.
type disjointSet struct {
	parent []int
	size   []int
}

func newDisjointSet(n int) *disjointSet {
	d := &disjointSet{parent: make([]int, n), size: make([]int, n)}
	for i := range d.parent {
		d.parent[i] = i
		d.size[i] = 1
	}
	return d
}

func (d *disjointSet) find(x int) int {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]]
		x = d.parent[x]
	}
	return x
}

func (d *disjointSet) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	if d.size[ra] < d.size[rb] {
		ra, rb = rb, ra
	}
	d.parent[rb] = ra
	d.size[ra] += d.size[rb]
}

type edgeKey [2]int

func makeEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// edgeFaces maps every undirected edge of F to the faces that use it.
func edgeFaces(F *MatrixI) map[edgeKey][]int {
	out := make(map[edgeKey][]int, F.Rows*3/2)
	for f := 0; f < F.Rows; f++ {
		r := F.Row(f)
		for k := 0; k < 3; k++ {
			e := makeEdgeKey(r[k], r[(k+1)%3])
			out[e] = append(out[e], f)
		}
	}
	return out
}

// FaceComponents labels every face with its connected component, where faces
// are connected when they share an edge. Labels are dense, starting at 0, in
// order of first face. It also returns the component count.
func FaceComponents(F *MatrixI) ([]int, int) {
	ds := newDisjointSet(F.Rows)
	for _, faces := range edgeFaces(F) {
		for _, f := range faces[1:] {
			ds.union(faces[0], f)
		}
	}
	labels := make([]int, F.Rows)
	ids := make(map[int]int)
	for f := range labels {
		root := ds.find(f)
		id, ok := ids[root]
		if !ok {
			id = len(ids)
			ids[root] = id
		}
		labels[f] = id
	}
	return labels, len(ids)
}

// ColorConnectedComponents paints every edge-connected patch of faces with a
// random color in C and switches the mesh to per-vertex coloring. It returns
// the number of components.
func (m *Mesh) ColorConnectedComponents() int {
	if m.F.Rows == 0 {
		return 0
	}
	labels, n := FaceComponents(&m.F)
	palette := make([][3]float64, n)
	for i := range palette {
		palette[i] = [3]float64{m.rng.Float64(), m.rng.Float64(), m.rng.Float64()}
	}
	m.C.Resize(m.V.Rows, 3)
	for f, l := range labels {
		for _, v := range m.F.Row(f) {
			copy(m.C.Row(v), palette[l][:])
		}
	}
	m.Vis.ColorType = ColorPerVert
	m.log().Info("colored connected components", zap.Int("components", n))
	m.markDirty()
	return n
}
