// Package camera provides the orbit camera used to inspect meshes.
package camera

import (
	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshview/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	FovY float32 // radians

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera returns a camera framing the unit cube around the origin.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        3,
		RotationX:       0.4,
		MinDistance:     0.01,
		MaxDistance:     1000,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		FovY:            math32.Pi / 4,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	sp, cp := math32.Sincos(c.RotationX)
	sy, cy := math32.Sincos(c.RotationY)
	return c.Center.Add(math.Vec3{X: cp * sy, Y: sp, Z: cp * cy}.Scale(c.Distance))
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// ProjectionMatrix returns a perspective projection whose clip planes follow
// the orbit distance.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	near := c.Distance * 0.01
	far := c.Distance * 100
	return math.Perspective(c.FovY, aspect, near, far)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX = clamp(c.RotationX+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// HandlePan moves the center in the view plane. Speed scales with distance.
func (c *OrbitCamera) HandlePan(deltaX, deltaY float32) {
	speed := c.Distance * c.DragSensitivity * 0.2
	sy, cy := math32.Sincos(c.RotationY)
	right := math.Vec3{X: cy, Z: -sy}
	c.Center = c.Center.Add(right.Scale(-deltaX * speed))
	c.Center.Y += deltaY * speed
}

// FitToBounds centers the camera on b and backs off until the bounding
// sphere fills the vertical field of view.
func (c *OrbitCamera) FitToBounds(b r3.Box) {
	c.Center = math.Vec3FromR3(r3.Scale(0.5, r3.Add(b.Min, b.Max)))
	radius := float32(r3.Norm(r3.Sub(b.Max, b.Min))) / 2
	if radius == 0 {
		radius = 1
	}
	c.Distance = radius / math32.Sin(c.FovY/2)
	c.MinDistance = radius * 0.01
	c.MaxDistance = c.Distance * 100
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
