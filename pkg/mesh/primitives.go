package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	sphereStacks     = 16
	sphereSlices     = 32
	cylinderSegments = 32
)

// CreateBox replaces the mesh with a box centered at the origin of width w
// (x), height h (y) and length l (z), faces wound outwards.
func (m *Mesh) CreateBox(w, h, l float64) {
	m.Clear()
	x, y, z := w/2, h/2, l/2
	m.V = MatrixFromRows([][]float64{
		{-x, -y, -z}, {x, -y, -z}, {x, y, -z}, {-x, y, -z},
		{-x, -y, z}, {x, -y, z}, {x, y, z}, {-x, y, z},
	})
	m.F = MatrixFromRows([][]int{
		{0, 3, 2}, {0, 2, 1}, // -z
		{4, 5, 6}, {4, 6, 7}, // +z
		{0, 4, 7}, {0, 7, 3}, // -x
		{1, 2, 6}, {1, 6, 5}, // +x
		{0, 1, 5}, {0, 5, 4}, // -y
		{3, 7, 6}, {3, 6, 2}, // +y
	})
	m.Vis.ShowMesh = true
	m.markDirty()
}

// CreateBoxNDC replaces the mesh with the [-1,1]^3 cube.
func (m *Mesh) CreateBoxNDC() {
	m.CreateBox(2, 2, 2)
}

// CreateFullScreenQuad replaces the mesh with a z=0 quad covering NDC, with
// UVs.
func (m *Mesh) CreateFullScreenQuad() {
	m.Clear()
	m.V = MatrixFromRows([][]float64{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}})
	m.UV = MatrixFromRows([][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	m.F = MatrixFromRows([][]int{{0, 1, 2}, {0, 2, 3}})
	m.markDirty()
}

// CreateGrid replaces the mesh with a line grid of nrSegments cells per side
// on the plane y = yPos, spanning scale units and centered at the origin.
func (m *Mesh) CreateGrid(nrSegments int, yPos, scale float64) {
	m.Clear()
	if nrSegments < 1 {
		nrSegments = 1
	}
	half := scale / 2
	step := scale / float64(nrSegments)
	lines := nrSegments + 1
	m.V = NewMatrix[float64](4*lines, 3)
	m.E = NewMatrix[int](2*lines, 2)
	for i := 0; i < lines; i++ {
		t := -half + float64(i)*step
		copy(m.V.Row(4*i), []float64{t, yPos, -half})
		copy(m.V.Row(4*i+1), []float64{t, yPos, half})
		copy(m.V.Row(4*i+2), []float64{-half, yPos, t})
		copy(m.V.Row(4*i+3), []float64{half, yPos, t})
		copy(m.E.Row(2*i), []int{4 * i, 4*i + 1})
		copy(m.E.Row(2*i+1), []int{4*i + 2, 4*i + 3})
	}
	m.Vis.ShowMesh = false
	m.Vis.ShowLines = true
	m.markDirty()
}

// CreateFloor replaces the mesh with an upward facing square of half-side
// scale at y = yPos.
func (m *Mesh) CreateFloor(yPos, scale float64) {
	m.Clear()
	s := scale
	m.V = MatrixFromRows([][]float64{{-s, yPos, -s}, {s, yPos, -s}, {s, yPos, s}, {-s, yPos, s}})
	m.F = MatrixFromRows([][]int{{0, 3, 2}, {0, 2, 1}})
	m.NV = MatrixFromRows([][]float64{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0}})
	m.UV = MatrixFromRows([][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	m.Vis.ShowMesh = true
	m.markDirty()
}

// CreateSphere replaces the mesh with a UV sphere with vertex normals and
// texture coordinates.
func (m *Mesh) CreateSphere(center r3.Vec, radius float64) {
	m.Clear()
	nRing := sphereStacks - 1
	n := 2 + nRing*sphereSlices
	m.V = NewMatrix[float64](n, 3)
	m.NV = NewMatrix[float64](n, 3)
	m.UV = NewMatrix[float64](n, 2)

	put := func(i int, dir r3.Vec, u, v float64) {
		setVec3(&m.V, i, r3.Add(center, r3.Scale(radius, dir)))
		setVec3(&m.NV, i, dir)
		m.UV.Set(i, 0, u)
		m.UV.Set(i, 1, v)
	}
	north, south := 0, n-1
	put(north, r3.Vec{Y: 1}, 0.5, 1)
	put(south, r3.Vec{Y: -1}, 0.5, 0)
	ring := func(i, j int) int { return 1 + (i-1)*sphereSlices + j%sphereSlices }
	for i := 1; i <= nRing; i++ {
		theta := math.Pi * float64(i) / sphereStacks
		for j := 0; j < sphereSlices; j++ {
			phi := 2 * math.Pi * float64(j) / sphereSlices
			dir := r3.Vec{X: math.Sin(theta) * math.Sin(phi), Y: math.Cos(theta), Z: math.Sin(theta) * math.Cos(phi)}
			put(ring(i, j), dir, float64(j)/sphereSlices, 1-float64(i)/sphereStacks)
		}
	}

	var faces [][]int
	for j := 0; j < sphereSlices; j++ {
		faces = append(faces, []int{north, ring(1, j), ring(1, j+1)})
	}
	for i := 1; i < nRing; i++ {
		for j := 0; j < sphereSlices; j++ {
			t0, t1 := ring(i, j), ring(i, j+1)
			b0, b1 := ring(i+1, j), ring(i+1, j+1)
			faces = append(faces, []int{t0, b0, b1}, []int{t0, b1, t1})
		}
	}
	for j := 0; j < sphereSlices; j++ {
		faces = append(faces, []int{south, ring(nRing, j+1), ring(nRing, j)})
	}
	m.F = MatrixFromRows(faces)
	m.Vis.ShowMesh = true
	m.markDirty()
}

// CreateCylinder replaces the mesh with a cylinder along mainAxis. The
// origin is at the bottom cap when originAtBottom is set, at the middle
// otherwise.
func (m *Mesh) CreateCylinder(mainAxis r3.Vec, height, radius float64, originAtBottom, withCap bool) {
	m.Clear()
	y0 := -height / 2
	if originAtBottom {
		y0 = 0
	}
	y1 := y0 + height

	var verts [][]float64
	var faces [][]int
	for j := 0; j < cylinderSegments; j++ {
		phi := 2 * math.Pi * float64(j) / cylinderSegments
		x, z := radius*math.Sin(phi), radius*math.Cos(phi)
		verts = append(verts, []float64{x, y0, z}, []float64{x, y1, z})
	}
	bottom := func(j int) int { return 2 * (j % cylinderSegments) }
	top := func(j int) int { return 2*(j%cylinderSegments) + 1 }
	for j := 0; j < cylinderSegments; j++ {
		faces = append(faces,
			[]int{bottom(j), bottom(j + 1), top(j + 1)},
			[]int{bottom(j), top(j + 1), top(j)},
		)
	}
	if withCap {
		b := len(verts)
		verts = append(verts, []float64{0, y0, 0}, []float64{0, y1, 0})
		for j := 0; j < cylinderSegments; j++ {
			faces = append(faces,
				[]int{b, bottom(j + 1), bottom(j)},
				[]int{b + 1, top(j), top(j + 1)},
			)
		}
	}
	m.V = MatrixFromRows(verts)
	m.F = MatrixFromRows(faces)

	axis := mgl64.Vec3{mainAxis.X, mainAxis.Y, mainAxis.Z}
	if axis.Len() > 0 {
		q := mgl64.QuatBetweenVectors(mgl64.Vec3{0, 1, 0}, axis.Normalize())
		for i := 0; i < m.V.Rows; i++ {
			p := vec3(&m.V, i)
			r := q.Rotate(mgl64.Vec3{p.X, p.Y, p.Z})
			setVec3(&m.V, i, r3.Vec{X: r[0], Y: r[1], Z: r[2]})
		}
	}
	m.Vis.ShowMesh = true
	_ = m.RecalculateNormals()
}

// CreateLineStripFromPoints replaces the mesh with a polyline through
// points.
func (m *Mesh) CreateLineStripFromPoints(points []r3.Vec) {
	m.Clear()
	m.V = NewMatrix[float64](len(points), 3)
	for i, p := range points {
		setVec3(&m.V, i, p)
	}
	if len(points) > 1 {
		m.E = NewMatrix[int](len(points)-1, 2)
		for i := 0; i+1 < len(points); i++ {
			m.E.Set(i, 0, i)
			m.E.Set(i, 1, i+1)
		}
	}
	m.Vis.ShowMesh = false
	m.Vis.ShowLines = true
	m.markDirty()
}
