// Package picking provides ray casting and mesh picking utilities.
package picking

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/Faultbox/meshview/internal/engine/shadow"
	"github.com/Faultbox/meshview/pkg/math"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// ScreenToRay converts pixel coordinates (origin top-left) to a world-space
// ray through the near and far planes.
func ScreenToRay(screenX, screenY float32, viewportW, viewportH int, view, proj math.Mat4) (Ray, error) {
	if viewportW <= 0 || viewportH <= 0 {
		return Ray{}, errors.Errorf("empty viewport %dx%d", viewportW, viewportH)
	}
	mv, p := mgl32.Mat4(view), mgl32.Mat4(proj)
	// GL window coordinates have their origin at the bottom-left.
	winY := float32(viewportH) - screenY

	near, err := mgl32.UnProject(mgl32.Vec3{screenX, winY, 0}, mv, p, 0, 0, viewportW, viewportH)
	if err != nil {
		return Ray{}, errors.Wrap(err, "unproject near point")
	}
	far, err := mgl32.UnProject(mgl32.Vec3{screenX, winY, 1}, mv, p, 0, 0, viewportW, viewportH)
	if err != nil {
		return Ray{}, errors.Wrap(err, "unproject far point")
	}

	origin := math.Vec3{X: near[0], Y: near[1], Z: near[2]}
	dir := math.Vec3{X: far[0], Y: far[1], Z: far[2]}.Sub(origin)
	return Ray{Origin: origin, Direction: dir.Normalize()}, nil
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box shadow.AABB) (t float32, hit bool) {
	tmin, tmax := math32.Inf(-1), math32.Inf(1)

	origin := r.Origin.Array()
	dir := r.Direction.Array()
	lo, hi := box.Min.Array(), box.Max.Array()
	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - origin[axis]) / dir[axis]
		t2 := (hi[axis] - origin[axis]) / dir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math32.Max(tmin, t1)
		tmax = math32.Min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// Pick returns the visible, non-empty mesh whose world bounding box the ray
// enters first.
func Pick(r Ray, meshes []*mesh.Mesh) (*mesh.Mesh, float32, bool) {
	var (
		best  *mesh.Mesh
		bestT float32
	)
	for _, m := range meshes {
		if !m.Vis.IsVisible || m.IsEmpty() {
			continue
		}
		box := shadow.WorldAABB(m.BoundingBox(), math.FromMat64(m.ModelMatrix()))
		t, ok := r.IntersectAABB(box)
		if !ok {
			continue
		}
		if best == nil || t < bestT {
			best, bestT = m, t
		}
	}
	return best, bestT, best != nil
}
