package mesh

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// ModelMatrix returns the transform that places the mesh in the world. The
// renderer applies it; V is left in local coordinates.
func (m *Mesh) ModelMatrix() mgl64.Mat4 {
	return m.modelMatrix
}

// CurPose returns the logical pose (for example the sensor pose of a scan).
func (m *Mesh) CurPose() mgl64.Mat4 {
	return m.curPose
}

// SetCurPose replaces the logical pose. It does not move the mesh.
func (m *Mesh) SetCurPose(p mgl64.Mat4) {
	m.curPose = p
}

// SetModelMatrix replaces the model matrix. Children follow by the same
// world-space delta. When the current matrix is singular there is no delta
// and children stay where they are.
func (m *Mesh) SetModelMatrix(mm mgl64.Mat4) {
	old := m.modelMatrix
	m.modelMatrix = mm
	m.ShadowmapDirty = true
	if len(m.Children) == 0 {
		return
	}
	if old.Det() == 0 {
		m.log().Warn("model matrix was singular, children not moved", zap.Int("children", len(m.Children)))
		return
	}
	m.propagate(mm.Mul4(old.Inv()))
}

// TransformModelMatrix composes t on the left of the model matrix:
// model = t * model. V is not touched.
func (m *Mesh) TransformModelMatrix(t mgl64.Mat4) {
	m.modelMatrix = t.Mul4(m.modelMatrix)
	m.ShadowmapDirty = true
	m.propagate(t)
}

// TranslateModelMatrix moves the mesh in world space.
func (m *Mesh) TranslateModelMatrix(t mgl64.Vec3) {
	m.TransformModelMatrix(mgl64.Translate3D(t.X(), t.Y(), t.Z()))
}

// RotateModelMatrix rotates the mesh about a world axis through the world
// origin.
func (m *Mesh) RotateModelMatrix(axis mgl64.Vec3, angleDegrees float64) {
	m.TransformModelMatrix(mgl64.HomogRotate3D(mgl64.DegToRad(angleDegrees), axis.Normalize()))
}

// RotateModelMatrixLocal rotates the mesh about one of its own axes, around
// its own origin. The translation of the model matrix is kept.
func (m *Mesh) RotateModelMatrixLocal(axis mgl64.Vec3, angleDegrees float64) {
	m.RotateModelMatrixLocalQuat(mgl64.QuatRotate(mgl64.DegToRad(angleDegrees), axis.Normalize()))
}

// RotateModelMatrixLocalQuat is RotateModelMatrixLocal with a quaternion.
func (m *Mesh) RotateModelMatrixLocalQuat(q mgl64.Quat) {
	m.SetModelMatrix(m.modelMatrix.Mul4(q.Normalize().Mat4()))
}

// ScaleMesh composes a uniform scale into the model matrix.
func (m *Mesh) ScaleMesh(s float64) {
	m.TransformModelMatrix(mgl64.Scale3D(s, s, s))
}

// TransformVerticesCPU bakes t into V (and rotates normals and tangents)
// without touching the model matrix. When transformPointsAtZero is set, rows
// that are exactly zero are invalid samples and stay at the origin.
func (m *Mesh) TransformVerticesCPU(t mgl64.Mat4, transformPointsAtZero bool) {
	for i := 0; i < m.V.Rows; i++ {
		if transformPointsAtZero && m.V.IsZeroRow(i) {
			continue
		}
		p := vec3(&m.V, i)
		q := mgl64.TransformCoordinate(mgl64.Vec3{p.X, p.Y, p.Z}, t)
		setVec3(&m.V, i, r3.Vec{X: q[0], Y: q[1], Z: q[2]})
	}

	linear := t.Mat3()
	normalMat := linear.Inv().Transpose()
	transformDirections(&m.NV, normalMat, true)
	transformDirections(&m.NF, normalMat, true)
	transformDirections(&m.VTangentU, linear, false)
	transformDirections(&m.VBitangentV, linear, false)
	m.markDirty()
}

// transformDirections applies a 3x3 matrix to every row. Unit vectors are
// renormalized; zero rows stay zero.
func transformDirections(dirs *MatrixD, mat mgl64.Mat3, unit bool) {
	if dirs.Rows == 0 || dirs.Cols != 3 {
		return
	}
	for i := 0; i < dirs.Rows; i++ {
		d := vec3(dirs, i)
		length := r3.Norm(d)
		if length == 0 {
			continue
		}
		v := mat.Mul3x1(mgl64.Vec3{d.X, d.Y, d.Z})
		out := r3.Vec{X: v[0], Y: v[1], Z: v[2]}
		if unit {
			out = r3.Unit(out)
		}
		setVec3(dirs, i, out)
	}
}

// ApplyModelMatrixToCPU bakes the model matrix into V and resets it to
// identity, so the current world placement becomes permanent geometry.
func (m *Mesh) ApplyModelMatrixToCPU(transformPointsAtZero bool) {
	m.TransformVerticesCPU(m.modelMatrix, transformPointsAtZero)
	m.modelMatrix = mgl64.Ident4()
}

// Rotate90XAxis bakes a 90 degree rotation about X into V.
func (m *Mesh) Rotate90XAxis() {
	m.TransformVerticesCPU(mgl64.HomogRotate3DX(mgl64.DegToRad(90)), false)
}

// WorldGL2WorldROS bakes the GL (y up, z backward) to ROS (z up, x forward)
// axis change into V.
func (m *Mesh) WorldGL2WorldROS() {
	m.TransformVerticesCPU(glToROS, false)
}

// WorldROS2WorldGL is the inverse of WorldGL2WorldROS.
func (m *Mesh) WorldROS2WorldGL() {
	m.TransformVerticesCPU(glToROS.Inv(), false)
}

// glToROS maps x_ros = -z_gl, y_ros = -x_gl, z_ros = y_gl.
var glToROS = mgl64.Mat4{
	0, -1, 0, 0,
	0, 0, 1, 0,
	-1, 0, 0, 0,
	0, 0, 0, 1,
}
