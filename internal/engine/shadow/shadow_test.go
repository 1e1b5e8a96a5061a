package shadow

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshview/pkg/math"
	"github.com/Faultbox/meshview/pkg/mesh"
)

func box(size float64) *mesh.Mesh {
	m := mesh.New()
	m.CreateBox(size, size, size)
	return m
}

func TestWorldAABB(t *testing.T) {
	local := r3.Box{Min: r3.Vec{X: -1, Y: -1, Z: -1}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}
	b := WorldAABB(local, math.Translate(10, 0, 0).Mul(math.Scale(2, 1, 1)))
	assert.Equal(t, math.Vec3{X: 8, Y: -1, Z: -1}, b.Min)
	assert.Equal(t, math.Vec3{X: 12, Y: 1, Z: 1}, b.Max)
	assert.Equal(t, math.Vec3{X: 10}, b.Center())
}

func TestSceneBoundsSkipsNonCasters(t *testing.T) {
	a := box(2)
	b := box(2)
	b.TranslateModelMatrix(mgl64.Vec3{0, 5, 0})
	hidden := box(100)
	hidden.Vis.IsVisible = false
	points := box(100)
	points.Vis.ShowMesh = false
	points.Vis.ShowPoints = true

	got := SceneBounds([]*mesh.Mesh{a, b, hidden, points, mesh.New()})
	assert.Equal(t, math.Vec3{X: -1, Y: -1, Z: -1}, got.Min)
	assert.Equal(t, math.Vec3{X: 1, Y: 6, Z: 1}, got.Max)

	points.Vis.ForceCastShadow = true
	assert.True(t, CastsShadow(points))

	empty := SceneBounds(nil)
	assert.InDelta(t, math32.Sqrt(3), empty.Radius(), 1e-6)
}

func TestTrackerConsumesShadowmapDirty(t *testing.T) {
	a := box(1)
	b := box(1)
	tr := NewTracker(math.Vec3{X: 1, Y: 1})

	assert.True(t, tr.Update([]*mesh.Mesh{a, b}))
	assert.False(t, a.ShadowmapDirty)
	assert.False(t, b.ShadowmapDirty)
	assert.True(t, a.Dirty, "the data flag belongs to the GPU mirror")

	assert.False(t, tr.Update([]*mesh.Mesh{a, b}))

	v := b.Vis
	v.PointSize = 20
	b.SetVis(v)
	assert.False(t, tr.Update([]*mesh.Mesh{a, b}), "point size does not change the shadow")

	v.ShowMesh = false
	b.SetVis(v)
	assert.True(t, tr.Update([]*mesh.Mesh{a, b}))

	b.RotateModelMatrix(mgl64.Vec3{0, 1, 0}, 45)
	assert.True(t, tr.Update([]*mesh.Mesh{a, b}))

	tr.SetLightDir(math.Vec3{Y: 1})
	assert.True(t, tr.Update([]*mesh.Mesh{a, b}))
}

func TestLightMatrixContainsScene(t *testing.T) {
	bounds := AABB{Min: math.Vec3{X: -3, Y: 0, Z: -2}, Max: math.Vec3{X: 5, Y: 4, Z: 2}}
	for _, dir := range []math.Vec3{{X: 1, Y: 1, Z: 0.5}, {Y: 1}, {Z: -1}} {
		m := CalculateDirectionalLightMatrix(dir, bounds)
		for i := 0; i < 8; i++ {
			c := bounds.Min
			if i&1 != 0 {
				c.X = bounds.Max.X
			}
			if i&2 != 0 {
				c.Y = bounds.Max.Y
			}
			if i&4 != 0 {
				c.Z = bounds.Max.Z
			}
			p := m.TransformPoint(c)
			for _, v := range []float32{p.X, p.Y, p.Z} {
				assert.LessOrEqual(t, math32.Abs(v), float32(1), "corner %v with light %v", c, dir)
			}
		}
	}
}
