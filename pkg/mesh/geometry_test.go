package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestDecimateSphere(t *testing.T) {
	m := New()
	m.CreateSphere(r3.Vec{}, 1)
	require.Equal(t, 960, m.F.Rows)
	require.Equal(t, 482, m.V.Rows)

	m.Decimate(400)

	assert.LessOrEqual(t, m.F.Rows, 400)
	assert.Greater(t, m.F.Rows, 0)
	assert.NoError(t, m.SanityCheck())
	// Collapses keep a closed genus-0 surface: V - E + F = 2 with E = 3F/2.
	assert.Equal(t, 2+m.F.Rows/2, m.V.Rows)
	_, _, manifold := m.ComputeNonManifold()
	assert.True(t, manifold)
	assert.Equal(t, m.V.Rows, m.NV.Rows)
	assert.Equal(t, m.F.Rows, m.NF.Rows)
	assert.Equal(t, m.V.Rows, m.UV.Rows)

	// The surface stays close to the unit sphere.
	for v := 0; v < m.V.Rows; v++ {
		assert.InDelta(t, 1, r3.Norm(vec3(&m.V, v)), 0.2, "vertex %d", v)
	}
}

func TestDecimateNoop(t *testing.T) {
	m := New()
	m.CreateBox(1, 1, 1)
	m.Decimate(100)
	assert.Equal(t, 12, m.F.Rows)
	assert.Equal(t, 8, m.V.Rows)

	pc := lineOfPoints(5)
	pc.Decimate(0)
	assert.Equal(t, 5, pc.V.Rows)
}

func TestUpsampleBox(t *testing.T) {
	m := New()
	m.CreateBox(1, 1, 1)
	m.C = NewMatrix[float64](8, 3)
	for v := 0; v < 8; v++ {
		m.C.Set(v, 0, float64(v))
	}
	require.NoError(t, m.RecalculateNormals())

	m.Upsample(1, false)

	// 12 box edges plus 6 face diagonals become new vertices.
	assert.Equal(t, 26, m.V.Rows)
	assert.Equal(t, 48, m.F.Rows)
	assert.Equal(t, 26, m.C.Rows)
	assert.Equal(t, 26, m.NV.Rows)
	assert.Equal(t, 48, m.NF.Rows)
	assert.InDelta(t, 1, m.GetScale(), eps)
	assert.NoError(t, m.SanityCheck())

	// The first face {0,3,2} numbers edges 0-3, 3-2 and 2-0 first.
	assert.InDeltaSlice(t, []float64{-0.5, 0, -0.5}, m.V.Row(8), eps)
	assert.InDelta(t, 1.5, m.C.At(8, 0), eps)
	assert.InDelta(t, 2.5, m.C.At(9, 0), eps)
	assert.InDelta(t, 1, m.C.At(10, 0), eps)

	_, _, manifold := m.ComputeNonManifold()
	assert.True(t, manifold)
}

func TestUpsampleSmoothShrinksBox(t *testing.T) {
	m := New()
	m.CreateBox(1, 1, 1)
	m.Upsample(2, true)

	assert.Equal(t, 12*16, m.F.Rows)
	assert.Less(t, m.GetScale(), 1.0)
	assert.Greater(t, m.GetScale(), 0.5)
	assert.NoError(t, m.SanityCheck())
}

func TestUpsampleBoundaryStaysOnPlane(t *testing.T) {
	m := quadMesh()
	m.Upsample(1, true)

	assert.Equal(t, 8, m.F.Rows)
	for v := 0; v < m.V.Rows; v++ {
		assert.InDelta(t, 0, m.V.At(v, 2), eps)
	}
}

func TestLoopBeta(t *testing.T) {
	assert.InDelta(t, 3.0/16.0, loopBeta(3), eps)
	assert.InDelta(t, 3.0/48.0, loopBeta(6), eps)
}

func TestComputeNonManifoldEdges(t *testing.T) {
	tests := []struct {
		name         string
		faces        [][]int
		nVerts       int
		wantFaceNM   []bool
		wantVertNM   []bool
		wantManifold bool
	}{
		{
			name:         "two triangles",
			faces:        [][]int{{0, 1, 2}, {0, 2, 3}},
			nVerts:       4,
			wantFaceNM:   []bool{false, false},
			wantVertNM:   []bool{false, false, false, false},
			wantManifold: true,
		},
		{
			name:         "three faces on one edge",
			faces:        [][]int{{0, 1, 2}, {1, 0, 3}, {0, 1, 4}},
			nVerts:       5,
			wantFaceNM:   []bool{true, true, true},
			wantVertNM:   []bool{true, true, false, false, false},
			wantManifold: false,
		},
		{
			name:         "bowtie",
			faces:        [][]int{{0, 1, 2}, {0, 3, 4}},
			nVerts:       5,
			wantFaceNM:   []bool{false, false},
			wantVertNM:   []bool{true, false, false, false, false},
			wantManifold: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			F := MatrixFromRows(tt.faces)
			before := F.Clone()
			faceNM, vertNM, manifold := ComputeNonManifoldEdges(&F, tt.nVerts)
			assert.Equal(t, tt.wantFaceNM, faceNM)
			assert.Equal(t, tt.wantVertNM, vertNM)
			assert.Equal(t, tt.wantManifold, manifold)
			assert.Equal(t, before.Data, F.Data)
		})
	}
}

func TestClosedMeshesAreManifold(t *testing.T) {
	for _, build := range []func(*Mesh){
		func(m *Mesh) { m.CreateBox(1, 2, 3) },
		func(m *Mesh) { m.CreateSphere(r3.Vec{}, 1) },
		func(m *Mesh) { m.CreateCylinder(r3.Vec{Y: 1}, 1, 1, false, true) },
	} {
		m := New()
		build(m)
		_, _, manifold := m.ComputeNonManifold()
		assert.True(t, manifold)
	}
}

func TestFaceComponents(t *testing.T) {
	F := MatrixFromRows([][]int{{0, 1, 2}, {3, 4, 5}, {1, 2, 6}})
	labels, n := FaceComponents(&F)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{0, 1, 0}, labels)
}

func TestColorConnectedComponents(t *testing.T) {
	m := New()
	m.V = MatrixFromRows([][]float64{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
		{5, 0, 0}, {6, 0, 0}, {5, 1, 0},
	})
	m.F = MatrixFromRows([][]int{{0, 1, 2}, {3, 4, 5}})
	m.SetSeed(7)

	n := m.ColorConnectedComponents()
	assert.Equal(t, 2, n)
	assert.Equal(t, ColorPerVert, m.Vis.ColorType)
	require.Equal(t, 6, m.C.Rows)
	assert.Equal(t, m.C.Row(0), m.C.Row(2))
	assert.Equal(t, m.C.Row(3), m.C.Row(5))
	assert.NotEqual(t, m.C.Row(0), m.C.Row(3))

	assert.Zero(t, lineOfPoints(3).ColorConnectedComponents())
}

func TestPrimitives(t *testing.T) {
	tests := []struct {
		name       string
		build      func(*Mesh)
		verts      int
		faces      int
		edges      int
		showMesh   bool
		showLines  bool
		haveNormal bool
	}{
		{"box", func(m *Mesh) { m.CreateBox(1, 1, 1) }, 8, 12, 0, true, false, false},
		{"box ndc", func(m *Mesh) { m.CreateBoxNDC() }, 8, 12, 0, true, false, false},
		{"full screen quad", func(m *Mesh) { m.CreateFullScreenQuad() }, 4, 2, 0, true, false, false},
		{"grid", func(m *Mesh) { m.CreateGrid(4, 0, 2) }, 20, 0, 10, false, true, false},
		{"floor", func(m *Mesh) { m.CreateFloor(-1, 3) }, 4, 2, 0, true, false, true},
		{"sphere", func(m *Mesh) { m.CreateSphere(r3.Vec{}, 1) }, 482, 960, 0, true, false, true},
		{"capped cylinder", func(m *Mesh) { m.CreateCylinder(r3.Vec{Y: 1}, 2, 1, true, true) }, 66, 128, 0, true, false, true},
		{"open cylinder", func(m *Mesh) { m.CreateCylinder(r3.Vec{X: 1}, 2, 1, false, false) }, 64, 64, 0, true, false, true},
		{"line strip", func(m *Mesh) {
			m.CreateLineStripFromPoints([]r3.Vec{{}, {X: 1}, {X: 1, Y: 1}})
		}, 3, 0, 2, false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			tt.build(m)
			assert.Equal(t, tt.verts, m.V.Rows)
			assert.Equal(t, tt.faces, m.F.Rows)
			assert.Equal(t, tt.edges, m.E.Rows)
			assert.Equal(t, tt.showMesh, m.Vis.ShowMesh)
			assert.Equal(t, tt.showLines, m.Vis.ShowLines)
			assert.Equal(t, tt.haveNormal, m.NV.Rows == m.V.Rows)
			assert.True(t, m.Dirty)
			assert.NoError(t, m.SanityCheck())
		})
	}
}

func TestCylinderFollowsAxis(t *testing.T) {
	m := New()
	m.CreateCylinder(r3.Vec{X: 2}, 4, 1, true, false)
	b := m.BoundingBox()
	assert.InDelta(t, 0, b.Min.X, 1e-9)
	assert.InDelta(t, 4, b.Max.X, 1e-9)
	assert.InDelta(t, 2, b.Max.Y-b.Min.Y, 1e-2)
}

func TestSphereNormalsPointOutwards(t *testing.T) {
	m := New()
	m.CreateSphere(r3.Vec{X: 3}, 2)
	require.NoError(t, m.RecalculateNormals())
	for f := 0; f < m.F.Rows; f++ {
		a, b, c := m.triangle(f)
		ctr := r3.Scale(1.0/3, r3.Add(r3.Add(a, b), c))
		out := r3.Sub(ctr, r3.Vec{X: 3})
		assert.Greater(t, r3.Dot(vec3(&m.NF, f), out), 0.0, "face %d", f)
	}
}
