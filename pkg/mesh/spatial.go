package mesh

import (
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// indexedPoint is a kd-tree entry remembering its row in the source matrix.
type indexedPoint struct {
	p   r3.Vec
	idx int
}

func (p indexedPoint) coord(d kdtree.Dim) float64 {
	switch d {
	case 0:
		return p.p.X
	case 1:
		return p.p.Y
	default:
		return p.p.Z
	}
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.coord(d) - c.(indexedPoint).coord(d)
}

func (p indexedPoint) Dims() int { return 3 }

// Distance is the squared euclidean distance.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	d := r3.Sub(p.p, c.(indexedPoint).p)
	return r3.Dot(d, d)
}

type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p indexedPoints) Len() int                      { return len(p) }
func (p indexedPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

func (p indexedPoints) Pivot(d kdtree.Dim) int {
	pl := pointPlane{pts: p, dim: d}
	return kdtree.Partition(pl, kdtree.MedianOfMedians(pl))
}

type pointPlane struct {
	pts indexedPoints
	dim kdtree.Dim
}

func (p pointPlane) Len() int           { return len(p.pts) }
func (p pointPlane) Less(i, j int) bool { return p.pts[i].coord(p.dim) < p.pts[j].coord(p.dim) }
func (p pointPlane) Swap(i, j int)      { p.pts[i], p.pts[j] = p.pts[j], p.pts[i] }
func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{pts: p.pts[start:end], dim: p.dim}
}

// Neighbour is one radius-search hit.
type Neighbour struct {
	Index int     // row in the searched matrix
	Dist  float64 // euclidean distance to the query
}

// PointIndex is a kd-tree over the rows of a 3-column matrix.
type PointIndex struct {
	tree *kdtree.Tree
	n    int
}

// NewPointIndex indexes the rows of pts. Zero rows are skipped when
// skipZero is set.
func NewPointIndex(pts *MatrixD, skipZero bool) *PointIndex {
	items := make(indexedPoints, 0, pts.Rows)
	for i := 0; i < pts.Rows; i++ {
		if skipZero && pts.IsZeroRow(i) {
			continue
		}
		items = append(items, indexedPoint{p: vec3(pts, i), idx: i})
	}
	if len(items) == 0 {
		return &PointIndex{}
	}
	return &PointIndex{tree: kdtree.New(items, false), n: len(items)}
}

// Len returns the number of indexed points.
func (x *PointIndex) Len() int { return x.n }

// Radius returns every indexed point within radius of q, nearest first.
func (x *PointIndex) Radius(q r3.Vec, radius float64) []Neighbour {
	if x.tree == nil {
		return nil
	}
	keep := kdtree.NewDistKeeper(radius * radius)
	x.tree.NearestSet(keep, indexedPoint{p: q})
	out := make([]Neighbour, 0, len(keep.Heap))
	for _, c := range keep.Heap {
		// The keeper's sentinel carries no point.
		if c.Comparable == nil {
			continue
		}
		out = append(out, Neighbour{Index: c.Comparable.(indexedPoint).idx, Dist: math.Sqrt(c.Dist)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dist < out[j].Dist })
	return out
}

// Nearest returns the closest indexed point, or ok=false for an empty index.
func (x *PointIndex) Nearest(q r3.Vec) (n Neighbour, ok bool) {
	if x.tree == nil {
		return Neighbour{}, false
	}
	c, d := x.tree.Nearest(indexedPoint{p: q})
	if c == nil {
		return Neighbour{}, false
	}
	return Neighbour{Index: c.(indexedPoint).idx, Dist: math.Sqrt(d)}, true
}

// RadiusSearch returns the vertices of m within radius of q, nearest first.
func (m *Mesh) RadiusSearch(q r3.Vec, radius float64) []Neighbour {
	return NewPointIndex(&m.V, false).Radius(q, radius)
}

// BallQuery returns, for every row of queries, the rows of targets within
// radius.
func BallQuery(queries, targets *MatrixD, radius float64) [][]int {
	idx := NewPointIndex(targets, false)
	out := make([][]int, queries.Rows)
	for i := range out {
		hits := idx.Radius(vec3(queries, i), radius)
		rows := make([]int, len(hits))
		for j, h := range hits {
			rows[j] = h.Index
		}
		out[i] = rows
	}
	return out
}

// EstimateNormalsFromNeighbourhood fits a plane to the neighbours of every
// point within radius and stores its normal in NV, oriented towards the
// origin (the sensor). Points with fewer than three neighbours, and invalid
// zero rows, get a zero normal.
func (m *Mesh) EstimateNormalsFromNeighbourhood(radius float64) error {
	if m.V.Rows == 0 {
		return ErrEmptyMesh
	}
	idx := NewPointIndex(&m.V, true)
	m.NV.Resize(m.V.Rows, 3)

	err := forEachChunk(m.V.Rows, func(lo, hi int) error {
		cov := mat.NewSymDense(3, nil)
		var eig mat.EigenSym
		var vecs mat.Dense
		for i := lo; i < hi; i++ {
			if m.V.IsZeroRow(i) {
				continue
			}
			p := vec3(&m.V, i)
			hits := idx.Radius(p, radius)
			if len(hits) < 3 {
				continue
			}
			fillCovariance(cov, &m.V, hits)
			if !eig.Factorize(cov, true) {
				continue
			}
			eig.VectorsTo(&vecs)
			// Eigenvalues are ascending, so column 0 spans the flattest direction.
			n := r3.Vec{X: vecs.At(0, 0), Y: vecs.At(1, 0), Z: vecs.At(2, 0)}
			if r3.Dot(n, p) > 0 {
				n = r3.Scale(-1, n)
			}
			setVec3(&m.NV, i, r3.Unit(n))
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.markDirty()
	return nil
}

func fillCovariance(cov *mat.SymDense, v *MatrixD, hits []Neighbour) {
	var mean r3.Vec
	for _, h := range hits {
		mean = r3.Add(mean, vec3(v, h.Index))
	}
	mean = r3.Scale(1/float64(len(hits)), mean)
	var c [3][3]float64
	for _, h := range hits {
		d := r3.Sub(vec3(v, h.Index), mean)
		a := [3]float64{d.X, d.Y, d.Z}
		for r := 0; r < 3; r++ {
			for k := r; k < 3; k++ {
				c[r][k] += a[r] * a[k]
			}
		}
	}
	for r := 0; r < 3; r++ {
		for k := r; k < 3; k++ {
			cov.SetSym(r, k, c[r][k]/float64(len(hits)))
		}
	}
}

// forEachChunk splits [0, n) into contiguous ranges processed in parallel.
func forEachChunk(n int, fn func(lo, hi int) error) error {
	workers := runtime.GOMAXPROCS(0)
	chunk := (n + workers - 1) / workers
	if chunk < 256 {
		chunk = 256
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			return fn(lo, hi)
		})
	}
	return g.Wait()
}
