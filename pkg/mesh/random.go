package mesh

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Augmentations draw from the mesh's generator; SetSeed makes them
// reproducible. Translation, rotation and stretch go into the model matrix,
// noise is applied to V.

func (m *Mesh) uniform(strength float64) float64 {
	return (2*m.rng.Float64() - 1) * strength
}

// RandomTranslation moves the mesh by up to strength along each axis.
func (m *Mesh) RandomTranslation(strength float64) {
	m.TransformModelMatrix(mgl64.Translate3D(m.uniform(strength), m.uniform(strength), m.uniform(strength)))
}

// RandomRotation rotates the mesh about each world axis by up to
// strengthDegrees.
func (m *Mesh) RandomRotation(strengthDegrees float64) {
	rx := mgl64.HomogRotate3DX(mgl64.DegToRad(m.uniform(strengthDegrees)))
	ry := mgl64.HomogRotate3DY(mgl64.DegToRad(m.uniform(strengthDegrees)))
	rz := mgl64.HomogRotate3DZ(mgl64.DegToRad(m.uniform(strengthDegrees)))
	m.TransformModelMatrix(rz.Mul4(ry).Mul4(rx))
}

// RandomStretch scales each axis by a factor in [1-strength, 1+strength].
func (m *Mesh) RandomStretch(strength float64) {
	m.TransformModelMatrix(mgl64.Scale3D(1+m.uniform(strength), 1+m.uniform(strength), 1+m.uniform(strength)))
}

// RandomNoise adds gaussian noise of the given standard deviation to every
// valid position.
func (m *Mesh) RandomNoise(stddev float64) {
	for i := 0; i < m.V.Rows; i++ {
		if m.V.IsZeroRow(i) {
			continue
		}
		r := m.V.Row(i)
		for j := range r {
			r[j] += m.rng.NormFloat64() * stddev
		}
	}
	m.markDirty()
}
