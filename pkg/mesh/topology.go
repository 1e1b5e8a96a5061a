package mesh

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RemoveMarkedVertices compacts V and every per-vertex attribute. With keep
// set, only rows whose mask entry is true survive; otherwise those rows are
// removed. F and E are renumbered, and faces or edges that referenced a
// removed vertex are dropped.
func (m *Mesh) RemoveMarkedVertices(mask []bool, keep bool) error {
	if len(mask) != m.V.Rows {
		return errors.Errorf("remove marked vertices: mask has %d entries, mesh has %d vertices", len(mask), m.V.Rows)
	}
	remap := make([]int, m.V.Rows)
	rows := make([]int, 0, m.V.Rows)
	for i, marked := range mask {
		if marked == keep {
			remap[i] = len(rows)
			rows = append(rows, i)
		} else {
			remap[i] = -1
		}
	}
	m.reindex(remap, rows)
	return nil
}

// reindex keeps the vertex rows listed in rows and rewrites F and E through
// remap (old row to new row, -1 for removed).
func (m *Mesh) reindex(remap, rows []int) {
	removed := m.V.Rows - len(rows)
	m.selectVertexRows(rows)

	if m.F.Rows > 0 {
		faces := make([]int, 0, m.F.Rows)
		for f := 0; f < m.F.Rows; f++ {
			if allMapped(m.F.Row(f), remap) {
				faces = append(faces, f)
			}
		}
		m.selectFaceRows(faces)
		remapIndices(&m.F, remap)
	}
	if m.E.Rows > 0 {
		edges := make([]int, 0, m.E.Rows)
		for e := 0; e < m.E.Rows; e++ {
			if allMapped(m.E.Row(e), remap) {
				edges = append(edges, e)
			}
		}
		m.E = m.E.SelectRows(edges)
		remapIndices(&m.E, remap)
	}
	if removed > 0 {
		m.log().Debug("removed vertices", zap.Int("removed", removed), zap.Int("remaining", len(rows)))
	}
	m.markDirty()
}

func allMapped(idx []int, remap []int) bool {
	for _, v := range idx {
		if v < 0 || v >= len(remap) || remap[v] < 0 {
			return false
		}
	}
	return true
}

func remapIndices(a *MatrixI, remap []int) {
	for i, v := range a.Data {
		a.Data[i] = remap[v]
	}
}

// SetMarkedVerticesToZero zeroes the positions of marked rows (or of the
// unmarked ones when keep is set) without removing them, so an organized
// point cloud keeps its grid layout.
func (m *Mesh) SetMarkedVerticesToZero(mask []bool, keep bool) error {
	if len(mask) != m.V.Rows {
		return errors.Errorf("set marked vertices to zero: mask has %d entries, mesh has %d vertices", len(mask), m.V.Rows)
	}
	for i, marked := range mask {
		if marked != keep {
			clear(m.V.Row(i))
		}
	}
	m.markDirty()
	return nil
}

// RemoveVerticesAtZero removes the invalid-point rows (exact zero vectors).
func (m *Mesh) RemoveVerticesAtZero() {
	mask := make([]bool, m.V.Rows)
	for i := range mask {
		mask[i] = m.V.IsZeroRow(i)
	}
	// mask length always matches
	_ = m.RemoveMarkedVertices(mask, false)
}

// RemoveUnreferencedVerts drops vertices that no face or edge uses. A mesh
// with neither faces nor edges is a point cloud and is left alone.
func (m *Mesh) RemoveUnreferencedVerts() {
	if m.F.Rows == 0 && m.E.Rows == 0 {
		return
	}
	used := make([]bool, m.V.Rows)
	for _, v := range m.F.Data {
		used[v] = true
	}
	for _, v := range m.E.Data {
		used[v] = true
	}
	_ = m.RemoveMarkedVertices(used, true)
}

// RandomSubsample removes about fractionRemoved of the vertices, chosen with
// the mesh's generator.
func (m *Mesh) RandomSubsample(fractionRemoved float64) {
	if fractionRemoved <= 0 || m.V.Rows == 0 {
		return
	}
	mask := make([]bool, m.V.Rows)
	for i := range mask {
		mask[i] = m.rng.Float64() < fractionRemoved
	}
	_ = m.RemoveMarkedVertices(mask, false)
}

// RestrictAroundAzimuthalAngle zeroes the points whose azimuth (angle in the
// XZ plane measured from +Z towards +X) is further than rangeDegrees/2 from
// angleDegrees. Zeroed rows keep their slot, so organized clouds stay intact.
func (m *Mesh) RestrictAroundAzimuthalAngle(angleDegrees, rangeDegrees float64) {
	center := angleDegrees * math.Pi / 180
	half := rangeDegrees * math.Pi / 360
	for i := 0; i < m.V.Rows; i++ {
		if m.V.IsZeroRow(i) {
			continue
		}
		p := vec3(&m.V, i)
		az := math.Atan2(p.X, p.Z)
		diff := math.Abs(math.Remainder(az-center, 2*math.Pi))
		if diff > half {
			clear(m.V.Row(i))
		}
	}
	m.markDirty()
}
