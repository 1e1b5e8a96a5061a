package shadow

import (
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/pkg/math"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// Tracker owns the light matrix. It is the consumer of Mesh.ShadowmapDirty:
// Update clears the flag on every mesh it looks at.
type Tracker struct {
	LightDir math.Vec3

	matrix math.Mat4
	bounds AABB
	valid  bool
}

// NewTracker returns a tracker for a light shining from lightDir.
func NewTracker(lightDir math.Vec3) *Tracker {
	return &Tracker{LightDir: lightDir}
}

// SetLightDir moves the light and forces a redraw on the next Update.
func (t *Tracker) SetLightDir(dir math.Vec3) {
	t.LightDir = dir
	t.valid = false
}

// Update recomputes the light matrix when any mesh asks for it. It reports
// whether the shadow map must be redrawn.
func (t *Tracker) Update(meshes []*mesh.Mesh) bool {
	dirty := !t.valid
	for _, m := range meshes {
		if m.ShadowmapDirty {
			dirty = true
			m.ShadowmapDirty = false
		}
	}
	if !dirty {
		return false
	}

	t.bounds = SceneBounds(meshes)
	t.matrix = CalculateDirectionalLightMatrix(t.LightDir, t.bounds)
	t.valid = true
	logger.Debug("shadow map invalidated",
		zap.Int("meshes", len(meshes)),
		zap.Float32("radius", t.bounds.Radius()),
	)
	return true
}

// Matrix returns the current light view-projection.
func (t *Tracker) Matrix() math.Mat4 {
	return t.matrix
}

// Bounds returns the scene bounds the matrix was computed from.
func (t *Tracker) Bounds() AABB {
	return t.bounds
}

// CastsShadow reports whether m is drawn into the shadow map.
func CastsShadow(m *mesh.Mesh) bool {
	v := m.Vis
	if !v.IsVisible || m.IsEmpty() {
		return false
	}
	return v.ForceCastShadow || v.ShowMesh || v.ShowWireframe || v.ShowSurfels
}

// SceneBounds is the world-space box around every shadow caster. An empty
// scene gives the unit box around the origin.
func SceneBounds(meshes []*mesh.Mesh) AABB {
	var out AABB
	found := false
	for _, m := range meshes {
		if !CastsShadow(m) {
			continue
		}
		b := WorldAABB(m.BoundingBox(), math.FromMat64(m.ModelMatrix()))
		if !found {
			out, found = b, true
			continue
		}
		out = out.Extend(b.Min).Extend(b.Max)
	}
	if !found {
		return AABB{Min: math.Vec3{X: -1, Y: -1, Z: -1}, Max: math.Vec3{X: 1, Y: 1, Z: 1}}
	}
	return out
}
