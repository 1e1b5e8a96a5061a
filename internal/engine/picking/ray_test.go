package picking

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshview/internal/engine/shadow"
	"github.com/Faultbox/meshview/pkg/math"
	"github.com/Faultbox/meshview/pkg/mesh"
)

func frontCamera() (view, proj math.Mat4) {
	view = math.LookAt(math.Vec3{Z: 5}, math.Vec3{}, math.Vec3{Y: 1})
	proj = math.Perspective(math32.Pi/4, 1, 0.1, 100)
	return view, proj
}

func TestScreenToRayCenter(t *testing.T) {
	view, proj := frontCamera()
	r, err := ScreenToRay(50, 50, 100, 100, view, proj)
	require.NoError(t, err)

	assert.InDelta(t, 0, r.Origin.X, 1e-3)
	assert.InDelta(t, 0, r.Origin.Y, 1e-3)
	assert.InDelta(t, 4.9, r.Origin.Z, 1e-3)
	assert.InDelta(t, 0, r.Direction.X, 1e-3)
	assert.InDelta(t, 0, r.Direction.Y, 1e-3)
	assert.InDelta(t, -1, r.Direction.Z, 1e-3)
}

func TestScreenToRayFlipsY(t *testing.T) {
	view, proj := frontCamera()
	r, err := ScreenToRay(50, 0, 100, 100, view, proj)
	require.NoError(t, err)
	// The top row of pixels looks up.
	assert.Greater(t, r.Direction.Y, float32(0.3))

	_, err = ScreenToRay(0, 0, 0, 100, view, proj)
	assert.Error(t, err)
}

func TestIntersectAABB(t *testing.T) {
	box := shadow.AABB{Min: math.Vec3{X: -1, Y: -1, Z: -1}, Max: math.Vec3{X: 1, Y: 1, Z: 1}}
	tests := []struct {
		name  string
		ray   Ray
		wantT float32
		hit   bool
	}{
		{"front", Ray{Origin: math.Vec3{Z: 5}, Direction: math.Vec3{Z: -1}}, 4, true},
		{"inside", Ray{Origin: math.Vec3{}, Direction: math.Vec3{X: 1}}, 1, true},
		{"behind", Ray{Origin: math.Vec3{Z: 5}, Direction: math.Vec3{Z: 1}}, 0, false},
		{"parallel outside", Ray{Origin: math.Vec3{Y: 2, Z: 5}, Direction: math.Vec3{Z: -1}}, 0, false},
		{"miss", Ray{Origin: math.Vec3{X: 3, Z: 5}, Direction: math.Vec3{X: 0.1, Z: -1}.Normalize()}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectAABB(box)
			assert.Equal(t, tt.hit, hit)
			assert.InDelta(t, tt.wantT, got, 1e-5)
		})
	}
}

func TestPickNearest(t *testing.T) {
	front := mesh.New()
	front.CreateBox(1, 1, 1)
	back := mesh.New()
	back.CreateBox(1, 1, 1)
	back.TranslateModelMatrix(mgl64.Vec3{0, 0, -3})

	ray := Ray{Origin: math.Vec3{Z: 5}, Direction: math.Vec3{Z: -1}}
	got, dist, ok := Pick(ray, []*mesh.Mesh{back, front})
	require.True(t, ok)
	assert.Same(t, front, got)
	assert.InDelta(t, 4.5, dist, 1e-5)

	vis := front.Vis
	vis.IsVisible = false
	front.SetVis(vis)
	got, _, ok = Pick(ray, []*mesh.Mesh{back, front})
	require.True(t, ok)
	assert.Same(t, back, got)

	_, _, ok = Pick(Ray{Origin: math.Vec3{X: 9, Z: 5}, Direction: math.Vec3{Z: -1}}, []*mesh.Mesh{back, front})
	assert.False(t, ok)
}
