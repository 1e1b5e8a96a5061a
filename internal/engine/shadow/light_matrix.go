// Package shadow computes the directional light matrix of the shadow pass
// and decides when the shadow map has to be redrawn.
package shadow

import (
	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshview/pkg/math"
)

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min, Max math.Vec3
}

// Center returns the center point of the AABB.
func (b AABB) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Radius returns the distance from center to corner (half-diagonal).
func (b AABB) Radius() float32 {
	return b.Max.Sub(b.Min).Length() / 2
}

// Extend grows b to contain p.
func (b AABB) Extend(p math.Vec3) AABB {
	return AABB{
		Min: math.Vec3{X: math32.Min(b.Min.X, p.X), Y: math32.Min(b.Min.Y, p.Y), Z: math32.Min(b.Min.Z, p.Z)},
		Max: math.Vec3{X: math32.Max(b.Max.X, p.X), Y: math32.Max(b.Max.Y, p.Y), Z: math32.Max(b.Max.Z, p.Z)},
	}
}

// WorldAABB transforms the eight corners of a local box by model.
func WorldAABB(local r3.Box, model math.Mat4) AABB {
	var out AABB
	for i := 0; i < 8; i++ {
		c := local.Min
		if i&1 != 0 {
			c.X = local.Max.X
		}
		if i&2 != 0 {
			c.Y = local.Max.Y
		}
		if i&4 != 0 {
			c.Z = local.Max.Z
		}
		p := model.TransformPoint(math.Vec3FromR3(c))
		if i == 0 {
			out = AABB{Min: p, Max: p}
			continue
		}
		out = out.Extend(p)
	}
	return out
}

// CalculateDirectionalLightMatrix computes the view-projection of the shadow
// pass. lightDir points towards the light.
func CalculateDirectionalLightMatrix(lightDir math.Vec3, sceneBounds AABB) math.Mat4 {
	dir := lightDir.Normalize()
	center := sceneBounds.Center()
	radius := math32.Max(sceneBounds.Radius(), 1e-3)

	lightDistance := radius * 2
	lightPos := center.Add(dir.Scale(lightDistance))

	// Avoid an up vector parallel to the light.
	up := math.Vec3{Y: 1}
	if math32.Abs(dir.Y) > 0.99 {
		up = math.Vec3{Z: 1}
	}
	view := math.LookAt(lightPos, center, up)

	// Padding avoids clipping at the frustum edge.
	halfSize := radius * 1.1
	near := radius * 0.01
	far := lightDistance + halfSize

	proj := math.Ortho(-halfSize, halfSize, -halfSize, halfSize, near, far)
	return proj.Mul(view)
}
