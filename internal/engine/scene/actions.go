package scene

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/pkg/mesh"
)

var errNoFaces = errors.New("mesh has no faces")

// Action is an interactive edit bound to a key.
type Action int

const (
	ActionNone Action = iota
	TogglePoints
	ToggleLines
	ToggleMesh
	ToggleWireframe
	ToggleSurfels
	ToggleVisible
	ToggleOverlay
	NextColorType
	PrevColorType
	NextColorScheme
	GrowPoints
	ShrinkPoints
	RecalculateNormals
	FlipWinding
	Decimate
	Upsample
	ColorComponents
)

var actionNames = map[Action]string{
	TogglePoints:       "toggle points",
	ToggleLines:        "toggle lines",
	ToggleMesh:         "toggle mesh",
	ToggleWireframe:    "toggle wireframe",
	ToggleSurfels:      "toggle surfels",
	ToggleVisible:      "toggle visible",
	ToggleOverlay:      "toggle overlay",
	NextColorType:      "next color type",
	PrevColorType:      "previous color type",
	NextColorScheme:    "next color scheme",
	GrowPoints:         "grow points",
	ShrinkPoints:       "shrink points",
	RecalculateNormals: "recalculate normals",
	FlipWinding:        "flip winding",
	Decimate:           "decimate",
	Upsample:           "upsample",
	ColorComponents:    "color components",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "none"
}

// Apply runs a on the selection, or on every mesh when nothing is selected.
// Failures on individual meshes are collected; the others are still edited.
func (s *Scene) Apply(a Action) error {
	targets := s.meshes
	if s.selected != nil {
		targets = []*mesh.Mesh{s.selected}
	}
	var err error
	for _, m := range targets {
		if e := s.apply(m, a); e != nil {
			err = multierr.Append(err, errors.Wrapf(e, "%s on %s", a, m.Name))
		}
	}
	logger.Debug("action applied", zap.Stringer("action", a), zap.Int("meshes", len(targets)))
	return err
}

func (s *Scene) apply(m *mesh.Mesh, a Action) error {
	vis := m.Vis
	switch a {
	case TogglePoints:
		vis.ShowPoints = !vis.ShowPoints
	case ToggleLines:
		vis.ShowLines = !vis.ShowLines
	case ToggleMesh:
		vis.ShowMesh = !vis.ShowMesh
	case ToggleWireframe:
		vis.ShowWireframe = !vis.ShowWireframe
	case ToggleSurfels:
		vis.ShowSurfels = !vis.ShowSurfels
	case ToggleVisible:
		vis.IsVisible = !vis.IsVisible
	case ToggleOverlay:
		vis.OverlayPoints = !vis.OverlayPoints
		vis.OverlayLines = vis.OverlayPoints
	case NextColorType:
		vis.ColorType = cycle(mesh.ColorTypes(), vis.ColorType, 1)
	case PrevColorType:
		vis.ColorType = cycle(mesh.ColorTypes(), vis.ColorType, -1)
	case NextColorScheme:
		vis.ColorScheme = cycle(mesh.ColorSchemes(), vis.ColorScheme, 1)
	case GrowPoints:
		vis.PointSize = min(vis.PointSize+1, 64)
	case ShrinkPoints:
		vis.PointSize = max(vis.PointSize-1, 1)

	case RecalculateNormals:
		if m.F.Rows > 0 {
			return m.RecalculateNormals()
		}
		return m.EstimateNormalsFromNeighbourhood(s.config.NormalRadius)
	case FlipWinding:
		m.FlipWinding()
		return m.RecalculateNormals()
	case Decimate:
		if m.F.Rows == 0 {
			return errNoFaces
		}
		m.Decimate(int(s.config.DecimateRatio * float64(m.F.Rows)))
		return nil
	case Upsample:
		m.Upsample(1, true)
		return nil
	case ColorComponents:
		m.ColorConnectedComponents()
		return nil
	default:
		return nil
	}

	m.SetVis(vis)
	m.ForceVisUpdate = true
	if a == NextColorType || a == PrevColorType {
		for _, w := range m.ColorTypeWarnings() {
			logger.Warn("color type without data", zap.String("mesh", m.Name), zap.String("warning", w))
		}
	}
	return nil
}

// cycle steps from cur through the entries by dir, wrapping around.
func cycle[T ~int](entries []mesh.EnumEntry[T], cur T, dir int) T {
	for i, e := range entries {
		if e.Value == cur {
			return entries[(i+dir+len(entries))%len(entries)].Value
		}
	}
	return entries[0].Value
}
