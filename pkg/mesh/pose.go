package mesh

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// ParsePose parses "x y z qx qy qz qw" (whitespace separated, quaternion in
// x, y, z, w order) into a rigid transform.
func ParsePose(s string) (mgl64.Mat4, error) {
	tokens := strings.Fields(s)
	if len(tokens) != 7 {
		return mgl64.Ident4(), errors.Wrapf(ErrInvalidPose, "got %d values", len(tokens))
	}
	var v [7]float64
	for i, tok := range tokens {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return mgl64.Ident4(), errors.Wrapf(ErrInvalidPose, "value %d: %v", i, err)
		}
		v[i] = f
	}
	q := mgl64.Quat{W: v[6], V: mgl64.Vec3{v[3], v[4], v[5]}}
	if q.Len() == 0 {
		return mgl64.Ident4(), errors.Wrap(ErrInvalidPose, "zero quaternion")
	}
	return mgl64.Translate3D(v[0], v[1], v[2]).Mul4(q.Normalize().Mat4()), nil
}

// FormatPose writes a rigid transform as "x y z qx qy qz qw".
func FormatPose(t mgl64.Mat4) string {
	q := mgl64.Mat4ToQuat(t).Normalize()
	tr := t.Col(3)
	return fmt.Sprintf("%g %g %g %g %g %g %g", tr[0], tr[1], tr[2], q.V[0], q.V[1], q.V[2], q.W)
}

// SetModelMatrixFromString sets the model matrix from a pose literal.
func (m *Mesh) SetModelMatrixFromString(pose string) error {
	t, err := ParsePose(pose)
	if err != nil {
		return err
	}
	m.SetModelMatrix(t)
	return nil
}
