// Package scene keeps the meshes shown by the viewer, the current selection
// and the interactive edits applied to them.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// Config contains scene configuration options.
type Config struct {
	// Vis is applied to every added mesh. The show flags and color type the
	// loader picked for the mesh are kept.
	Vis mesh.VisOptions
	// NormalRadius is used to estimate normals of point clouds without any.
	// Zero disables the estimation.
	NormalRadius float64
	// DecimateRatio is the fraction of faces kept by one decimation step.
	DecimateRatio float64
	// Labels is assigned to meshes that have no label manager.
	Labels mesh.LabelManager
}

// Scene manages the meshes of one viewer window.
type Scene struct {
	config   Config
	meshes   []*mesh.Mesh
	selected *mesh.Mesh
}

// New returns an empty scene.
func New(cfg Config) *Scene {
	return &Scene{config: cfg}
}

// Add appends m to the scene and selects it.
func (s *Scene) Add(m *mesh.Mesh) {
	vis := s.config.Vis
	vis.ShowMesh = m.Vis.ShowMesh
	vis.ShowLines = m.Vis.ShowLines
	vis.ShowPoints = m.Vis.ShowPoints
	if m.Vis.ColorType != mesh.ColorSolid {
		vis.ColorType = m.Vis.ColorType
	}
	m.SetVis(vis)
	m.ForceVisUpdate = true

	if m.LabelMngr == nil && s.config.Labels != nil {
		m.LabelMngr = s.config.Labels
	}
	if m.F.Rows == 0 && m.V.Rows > 0 && m.NV.Rows == 0 && s.config.NormalRadius > 0 {
		if err := m.EstimateNormalsFromNeighbourhood(s.config.NormalRadius); err != nil {
			logger.Warn("normal estimation failed", zap.String("mesh", m.Name), zap.Error(err))
		}
	}

	s.meshes = append(s.meshes, m)
	s.selected = m
	logger.Info("mesh added",
		zap.String("mesh", m.Name),
		zap.Int("vertices", m.V.Rows),
		zap.Int("faces", m.F.Rows))
}

// Remove drops m from the scene. It reports whether m was present.
func (s *Scene) Remove(m *mesh.Mesh) bool {
	for i, o := range s.meshes {
		if o != m {
			continue
		}
		s.meshes = append(s.meshes[:i], s.meshes[i+1:]...)
		if s.selected == m {
			s.selected = nil
		}
		return true
	}
	return false
}

// Meshes returns the meshes in insertion order. The slice must not be
// modified.
func (s *Scene) Meshes() []*mesh.Mesh {
	return s.meshes
}

// Len returns the number of meshes.
func (s *Scene) Len() int {
	return len(s.meshes)
}

// Selected returns the selected mesh, or nil.
func (s *Scene) Selected() *mesh.Mesh {
	return s.selected
}

// Select makes m the selection. A nil m or one not in the scene clears it.
func (s *Scene) Select(m *mesh.Mesh) {
	s.selected = nil
	for _, o := range s.meshes {
		if o == m {
			s.selected = m
			return
		}
	}
}

// SelectNext moves the selection to the following mesh, wrapping around.
func (s *Scene) SelectNext() {
	if len(s.meshes) == 0 {
		s.selected = nil
		return
	}
	next := 0
	for i, o := range s.meshes {
		if o == s.selected {
			next = (i + 1) % len(s.meshes)
			break
		}
	}
	s.selected = s.meshes[next]
}

// WorldBounds returns the bounding box of m after its model matrix.
func WorldBounds(m *mesh.Mesh) r3.Box {
	local := m.BoundingBox()
	model := m.ModelMatrix()
	var out r3.Box
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
		w := mgl64.TransformCoordinate(mgl64.Vec3{c.X, c.Y, c.Z}, model)
		p := r3.Vec{X: w[0], Y: w[1], Z: w[2]}
		if i == 0 {
			out = r3.Box{Min: p, Max: p}
			continue
		}
		out = extend(out, p)
	}
	return out
}

// Bounds returns the world bounding box of the visible, non-empty meshes.
// ok is false when there are none.
func (s *Scene) Bounds() (box r3.Box, ok bool) {
	for _, m := range s.meshes {
		if !m.Vis.IsVisible || m.IsEmpty() {
			continue
		}
		b := WorldBounds(m)
		if !ok {
			box, ok = b, true
			continue
		}
		box = extend(extend(box, b.Min), b.Max)
	}
	return box, ok
}

func extend(b r3.Box, p r3.Vec) r3.Box {
	return r3.Box{
		Min: r3.Vec{X: min(b.Min.X, p.X), Y: min(b.Min.Y, p.Y), Z: min(b.Min.Z, p.Z)},
		Max: r3.Vec{X: max(b.Max.X, p.X), Y: max(b.Max.Y, p.Y), Z: max(b.Max.Z, p.Z)},
	}
}
