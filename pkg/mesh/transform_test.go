package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func triangleMesh() *Mesh {
	m := New()
	m.V = MatrixFromRows([][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	m.F = MatrixFromRows([][]int{{0, 1, 2}})
	return m
}

func assertMat4(t *testing.T, want, got mgl64.Mat4) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], 1e-9)
}

func TestScaleThenApplyModelMatrix(t *testing.T) {
	m := triangleMesh()
	m.ScaleMesh(2)
	m.ApplyModelMatrixToCPU(false)

	assert.InDeltaSlice(t, []float64{0, 0, 0, 2, 0, 0, 0, 2, 0}, m.V.Data, eps)
	assertMat4(t, mgl64.Ident4(), m.ModelMatrix())
	assert.True(t, m.Dirty)
	assert.True(t, m.ShadowmapDirty)
}

func TestTransformVerticesCPUZeroRows(t *testing.T) {
	tests := []struct {
		name   string
		atZero bool
		want   []float64
	}{
		{"zero row moves", false, []float64{1, 2, 3, 2, 2, 3}},
		{"zero row stays", true, []float64{0, 0, 0, 2, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			m.V = MatrixFromRows([][]float64{{0, 0, 0}, {1, 0, 0}})
			m.TransformVerticesCPU(mgl64.Translate3D(1, 2, 3), tt.atZero)
			assert.InDeltaSlice(t, tt.want, m.V.Data, eps)
			assertMat4(t, mgl64.Ident4(), m.ModelMatrix())
		})
	}
}

func TestTransformVerticesCPURotatesNormals(t *testing.T) {
	m := triangleMesh()
	require.NoError(t, m.RecalculateNormals())
	m.TransformVerticesCPU(mgl64.HomogRotate3DX(mgl64.DegToRad(90)).Mul4(mgl64.Scale3D(3, 3, 3)), false)

	// +z rotated 90 degrees about x is -y, and stays unit length.
	assert.InDeltaSlice(t, []float64{0, -1, 0}, m.NF.Row(0), 1e-9)
	assert.InDeltaSlice(t, []float64{0, -1, 0}, m.NV.Row(0), 1e-9)
}

func TestTransformModelMatrixLeavesVertices(t *testing.T) {
	m := triangleMesh()
	before := m.V.Clone()
	m.TransformModelMatrix(mgl64.Translate3D(5, 0, 0))
	m.TranslateModelMatrix(mgl64.Vec3{0, 1, 0})

	assert.Equal(t, before.Data, m.V.Data)
	assertMat4(t, mgl64.Translate3D(5, 1, 0), m.ModelMatrix())
	assertMat4(t, mgl64.Ident4(), m.CurPose())
}

func TestRotateModelMatrixLocalKeepsTranslation(t *testing.T) {
	m := New()
	m.SetModelMatrix(mgl64.Translate3D(1, 2, 3))
	m.RotateModelMatrixLocal(mgl64.Vec3{0, 1, 0}, 90)

	mm := m.ModelMatrix()
	tr, x := mm.Col(3), mm.Col(0)
	assert.InDeltaSlice(t, []float64{1, 2, 3, 1}, tr[:], eps)
	// Local x now points along world -z.
	assert.InDeltaSlice(t, []float64{0, 0, -1, 0}, x[:], eps)
}

func TestRotateModelMatrixWorldAxisMovesTranslation(t *testing.T) {
	m := New()
	m.SetModelMatrix(mgl64.Translate3D(1, 0, 0))
	m.RotateModelMatrix(mgl64.Vec3{0, 0, 1}, 90)

	tr := m.ModelMatrix().Col(3)
	assert.InDeltaSlice(t, []float64{0, 1, 0, 1}, tr[:], eps)
}

func TestCurPoseIsIndependent(t *testing.T) {
	m := New()
	m.SetCurPose(mgl64.Translate3D(4, 5, 6))
	assertMat4(t, mgl64.Ident4(), m.ModelMatrix())
	assertMat4(t, mgl64.Translate3D(4, 5, 6), m.CurPose())
}

func TestWorldGLROSRoundTrip(t *testing.T) {
	m := New()
	m.V = MatrixFromRows([][]float64{{1, 2, 3}})
	m.WorldGL2WorldROS()
	// x_ros = -z_gl, y_ros = -x_gl, z_ros = y_gl
	assert.InDeltaSlice(t, []float64{-3, -1, 2}, m.V.Data, eps)
	m.WorldROS2WorldGL()
	assert.InDeltaSlice(t, []float64{1, 2, 3}, m.V.Data, eps)
}

func TestHierarchyPropagation(t *testing.T) {
	parent, child, grandchild := New(), New(), New()
	require.NoError(t, parent.AddChild(child))
	require.NoError(t, child.AddChild(grandchild))

	parent.TranslateModelMatrix(mgl64.Vec3{1, 0, 0})
	assertMat4(t, mgl64.Translate3D(1, 0, 0), child.ModelMatrix())
	assertMat4(t, mgl64.Translate3D(1, 0, 0), grandchild.ModelMatrix())

	parent.SetModelMatrix(mgl64.Translate3D(3, 0, 0))
	assertMat4(t, mgl64.Translate3D(3, 0, 0), child.ModelMatrix())
	assertMat4(t, mgl64.Translate3D(3, 0, 0), grandchild.ModelMatrix())

	// Moving a child does not move its parent.
	child.TranslateModelMatrix(mgl64.Vec3{0, 1, 0})
	assertMat4(t, mgl64.Translate3D(3, 0, 0), parent.ModelMatrix())
	assertMat4(t, mgl64.Translate3D(3, 1, 0), grandchild.ModelMatrix())
}

func TestSetModelMatrixFromSingularKeepsChildren(t *testing.T) {
	parent, child := New(), New()
	parent.ScaleMesh(0)
	child.TranslateModelMatrix(mgl64.Vec3{0, 2, 0})
	require.NoError(t, parent.AddChild(child))

	parent.SetModelMatrix(mgl64.Translate3D(1, 0, 0))
	assertMat4(t, mgl64.Translate3D(1, 0, 0), parent.ModelMatrix())
	assertMat4(t, mgl64.Translate3D(0, 2, 0), child.ModelMatrix())

	// Once the parent is invertible again, children follow.
	parent.SetModelMatrix(mgl64.Translate3D(2, 0, 0))
	assertMat4(t, mgl64.Translate3D(1, 2, 0), child.ModelMatrix())
}

func TestAddChildRejectsCycles(t *testing.T) {
	a, b := New(), New()
	require.NoError(t, a.AddChild(b))
	assert.Error(t, b.AddChild(a))
	assert.Error(t, a.AddChild(a))
	assert.Error(t, a.AddChild(nil))

	require.NoError(t, a.AddChild(b))
	assert.Len(t, a.Children, 1)
	assert.True(t, a.RemoveChild(b))
	assert.False(t, a.RemoveChild(b))
}

func TestSetModelMatrixFromString(t *testing.T) {
	m := New()
	require.NoError(t, m.SetModelMatrixFromString("1 2 3 0 0 0 1"))
	assertMat4(t, mgl64.Translate3D(1, 2, 3), m.ModelMatrix())

	// 90 degrees about z: (x,y,z,w) = (0,0,sin45,cos45).
	require.NoError(t, m.SetModelMatrixFromString("0 0 0 0 0 0.7071067811865476 0.7071067811865476"))
	got := m.ModelMatrix().Mul4x1(mgl64.Vec4{1, 0, 0, 1})
	assert.InDeltaSlice(t, []float64{0, 1, 0, 1}, got[:], 1e-9)
}

func TestSetModelMatrixFromStringErrors(t *testing.T) {
	tests := []string{
		"",
		"1 2 3",
		"1 2 3 0 0 0 1 9",
		"1 2 x 0 0 0 1",
		"0 0 0 0 0 0 0",
	}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			m := New()
			err := m.SetModelMatrixFromString(s)
			assert.ErrorIs(t, err, ErrInvalidPose)
			assertMat4(t, mgl64.Ident4(), m.ModelMatrix())
		})
	}
}

func TestFormatPoseRoundTrip(t *testing.T) {
	want := mgl64.Translate3D(1, -2, 0.5).Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(30)))
	got, err := ParsePose(FormatPose(want))
	require.NoError(t, err)
	assert.InDeltaSlice(t, want[:], got[:], 1e-6)
}
