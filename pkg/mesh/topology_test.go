package mesh

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// quadMesh is a unit square split into two triangles with per-vertex colors.
func quadMesh() *Mesh {
	m := New()
	m.V = MatrixFromRows([][]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}})
	m.F = MatrixFromRows([][]int{{0, 1, 2}, {0, 2, 3}})
	m.C = MatrixFromRows([][]float64{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}, {3, 3, 3}})
	return m
}

func TestRemoveMarkedVertices(t *testing.T) {
	tests := []struct {
		name   string
		mask   []bool
		keep   bool
		wantV  [][]float64
		wantF  [][]int
		wantC0 []float64
	}{
		{
			name:   "remove one",
			mask:   []bool{false, true, false, false},
			keep:   false,
			wantV:  [][]float64{{0, 0, 0}, {1, 1, 0}, {0, 1, 0}},
			wantF:  [][]int{{0, 1, 2}},
			wantC0: []float64{0, 0, 0},
		},
		{
			name:   "keep marked",
			mask:   []bool{false, true, true, false},
			keep:   true,
			wantV:  [][]float64{{1, 0, 0}, {1, 1, 0}},
			wantF:  nil,
			wantC0: []float64{1, 1, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := quadMesh()
			require.NoError(t, m.RemoveMarkedVertices(tt.mask, tt.keep))

			want := MatrixFromRows(tt.wantV)
			assert.Equal(t, want.Data, m.V.Data)
			assert.Equal(t, m.V.Rows, m.C.Rows)
			assert.Equal(t, tt.wantC0, m.C.Row(0))
			if tt.wantF == nil {
				assert.Zero(t, m.F.Rows)
			} else {
				wf := MatrixFromRows(tt.wantF)
				assert.Equal(t, wf.Data, m.F.Data)
			}
			assert.NoError(t, m.SanityCheck())
		})
	}
}

func TestRemoveMarkedVerticesMaskLength(t *testing.T) {
	m := quadMesh()
	assert.Error(t, m.RemoveMarkedVertices([]bool{true}, false))
	assert.Equal(t, 4, m.V.Rows)
}

func TestRemoveVerticesAtZero(t *testing.T) {
	m := New()
	m.V = MatrixFromRows([][]float64{{0, 0, 0}, {1, 2, 3}, {0, 0, 0}, {4, 5, 6}})
	m.D = MatrixFromRows([][]float64{{0}, {1}, {0}, {2}})
	m.RemoveVerticesAtZero()

	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, m.V.Data)
	assert.Equal(t, []float64{1, 2}, m.D.Data)
}

func TestSetMarkedVerticesToZeroKeepsRowCount(t *testing.T) {
	m := quadMesh()
	require.NoError(t, m.SetMarkedVerticesToZero([]bool{false, true, false, true}, false))
	assert.Equal(t, 4, m.V.Rows)
	assert.True(t, m.V.IsZeroRow(1))
	assert.True(t, m.V.IsZeroRow(3))
	assert.False(t, m.V.IsZeroRow(2))
}

func TestRemoveUnreferencedVerts(t *testing.T) {
	m := quadMesh()
	m.V.AppendRows(&MatrixD{Rows: 1, Cols: 3, Data: []float64{9, 9, 9}})
	m.C.AppendRows(&MatrixD{Rows: 1, Cols: 3, Data: []float64{9, 9, 9}})
	m.F = MatrixFromRows([][]int{{0, 2, 3}, {2, 4, 3}})

	m.RemoveUnreferencedVerts()
	assert.Equal(t, 4, m.V.Rows)
	assert.Equal(t, []int{0, 1, 2, 1, 3, 2}, m.F.Data)
	assert.Equal(t, []float64{9, 9, 9}, m.V.Row(3))
	assert.Equal(t, []float64{9, 9, 9}, m.C.Row(3))

	// A point cloud has nothing referencing it and is left alone.
	pc := New()
	pc.V = MatrixFromRows([][]float64{{1, 1, 1}, {2, 2, 2}})
	pc.RemoveUnreferencedVerts()
	assert.Equal(t, 2, pc.V.Rows)
}

func TestRemoveDuplicateVerticesAndUndo(t *testing.T) {
	m := New()
	m.V = MatrixFromRows([][]float64{{0, 0, 0}, {1, 0, 0}, {0, 0, 0}, {0, 1, 0}, {1, 0, 0}})
	m.F = MatrixFromRows([][]int{{0, 1, 3}, {2, 4, 3}})
	m.C = MatrixFromRows([][]float64{{1, 0, 0}, {0, 1, 0}, {1, 0, 0}, {0, 0, 1}, {0, 1, 0}})
	original, err := m.Clone()
	require.NoError(t, err)

	inverse := m.RemoveDuplicateVertices()
	assert.Equal(t, []int{0, 1, 0, 2, 1}, inverse)
	assert.Equal(t, 3, m.V.Rows)
	assert.Equal(t, 3, m.C.Rows)
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2}, m.F.Data)

	// Write something on the merged mesh and scatter it back.
	Scale(&m.V, 2)
	require.NoError(t, m.UndoRemoveDuplicateVertices(original, inverse))

	assert.Equal(t, original.V.Rows, m.V.Rows)
	for i, j := range inverse {
		want := []float64{2 * original.V.At(i, 0), 2 * original.V.At(i, 1), 2 * original.V.At(i, 2)}
		assert.Equal(t, want, m.V.Row(i), "row %d (merged %d)", i, j)
	}
	if diff := cmp.Diff(original.F, m.F); diff != "" {
		t.Errorf("F mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, original.C.Data, m.C.Data)
}

func TestUndoRemoveDuplicateVerticesRejectsBadIndirection(t *testing.T) {
	m := quadMesh()
	original, err := m.Clone()
	require.NoError(t, err)
	m.RemoveDuplicateVertices()

	assert.ErrorIs(t, m.UndoRemoveDuplicateVertices(original, []int{0, 1}), ErrIndirection)
	assert.ErrorIs(t, m.UndoRemoveDuplicateVertices(original, []int{0, 1, 2, 7}), ErrIndirection)
}

func TestSetDuplicateVertsToZero(t *testing.T) {
	m := New()
	m.V = MatrixFromRows([][]float64{{1, 1, 1}, {2, 2, 2}, {1, 1, 1}})
	m.SetDuplicateVertsToZero()
	assert.Equal(t, []float64{1, 1, 1, 2, 2, 2, 0, 0, 0}, m.V.Data)
}

func TestFlipWindingTwice(t *testing.T) {
	m := New()
	m.CreateSphere(r3.Vec{}, 1)
	before := m.F.Clone()

	m.FlipWinding()
	assert.NotEqual(t, before.Data, m.F.Data)
	m.FlipWinding()
	assert.Equal(t, before.Data, m.F.Data)
}

func TestFlipWindingThenRecalculateNegatesNormals(t *testing.T) {
	m := New()
	m.CreateBox(1, 1, 1)
	require.NoError(t, m.RecalculateNormals())
	before := m.NF.Clone()

	m.FlipWinding()
	require.NoError(t, m.RecalculateNormals())
	for i := range before.Data {
		assert.InDelta(t, -before.Data[i], m.NF.Data[i], eps)
	}

	m.FlipNormals()
	assert.InDeltaSlice(t, before.Data, m.NF.Data, eps)
}

func TestRandomSubsampleIsSeeded(t *testing.T) {
	build := func() *Mesh {
		m := New()
		m.V = NewMatrix[float64](200, 3)
		for i := 0; i < m.V.Rows; i++ {
			m.V.Set(i, 0, float64(i+1))
		}
		m.SetSeed(42)
		return m
	}
	a, b := build(), build()
	a.RandomSubsample(0.5)
	b.RandomSubsample(0.5)

	assert.Equal(t, a.V.Data, b.V.Data)
	assert.Less(t, a.V.Rows, 200)
	assert.Greater(t, a.V.Rows, 0)
}

func TestRestrictAroundAzimuthalAngle(t *testing.T) {
	m := New()
	m.V = MatrixFromRows([][]float64{
		{0, 0, 1},  // 0 degrees
		{1, 0, 0},  // 90 degrees
		{0, 0, -1}, // 180 degrees
		{-1, 0, 0}, // -90 degrees
	})
	m.RestrictAroundAzimuthalAngle(0, 100)

	assert.False(t, m.V.IsZeroRow(0))
	assert.True(t, m.V.IsZeroRow(1))
	assert.True(t, m.V.IsZeroRow(2))
	assert.True(t, m.V.IsZeroRow(3))
	assert.Equal(t, 4, m.V.Rows)
}

func TestRemoveVerticesKeepsIndirectedTables(t *testing.T) {
	path := writeFile(t, "seam.obj", seamOBJ)
	m := New()
	require.NoError(t, m.ReadOBJ(path, true, true))

	require.NoError(t, m.RemoveMarkedVertices([]bool{false, false, false, true}, false))
	assert.Equal(t, 3, m.V.Rows)
	assert.Equal(t, 1, m.F.Rows)
	assert.Equal(t, 5, m.UV.Rows)
	assert.Equal(t, 1, m.NV.Rows)
	assert.Equal(t, []int{0, 1, 2}, m.VTI.Data)
	assert.Equal(t, []int{0, 0, 0}, m.VNI.Data)
	assert.NoError(t, m.SanityCheck())
}

func TestRemoveVerticesClearsStrandedTables(t *testing.T) {
	path := writeFile(t, "seam.obj", seamOBJ)
	m := New()
	require.NoError(t, m.ReadOBJ(path, true, true))

	// Both faces use vertex 0.
	require.NoError(t, m.RemoveMarkedVertices([]bool{true, false, false, false}, false))
	assert.Zero(t, m.F.Rows)
	assert.Zero(t, m.VTI.Rows)
	assert.Zero(t, m.VNI.Rows)
	assert.Zero(t, m.UV.Rows)
	assert.Zero(t, m.NV.Rows)
	assert.NoError(t, m.SanityCheck())
}
