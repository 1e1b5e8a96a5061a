package mesh

import (
	"math"

	"github.com/pkg/errors"
)

type posKey [3]uint64

func positionKey(m *MatrixD, i int) posKey {
	r := m.Row(i)
	var k posKey
	for j := 0; j < len(r) && j < 3; j++ {
		k[j] = math.Float64bits(r[j])
	}
	return k
}

// RemoveDuplicateVertices merges rows of V with bit-identical positions,
// keeping the first occurrence and its per-vertex attributes. F and E are
// renumbered. The returned inverse indirection has one entry per original row
// giving its row in the merged mesh.
func (m *Mesh) RemoveDuplicateVertices() []int {
	inverse := make([]int, m.V.Rows)
	seen := make(map[posKey]int, m.V.Rows)
	rows := make([]int, 0, m.V.Rows)
	for i := 0; i < m.V.Rows; i++ {
		k := positionKey(&m.V, i)
		if j, ok := seen[k]; ok {
			inverse[i] = j
			continue
		}
		seen[k] = len(rows)
		inverse[i] = len(rows)
		rows = append(rows, i)
	}
	if len(rows) == m.V.Rows {
		return inverse
	}

	m.selectVertexRows(rows)
	remapIndices(&m.F, inverse)
	remapIndices(&m.E, inverse)
	m.markDirty()
	return inverse
}

// UndoRemoveDuplicateVertices expands m back to the vertex layout of
// original: every per-vertex attribute row i is taken from merged row
// inverse[i], and F and E are restored from original. Values computed on the
// merged mesh (smoothed positions, colors, normals) are thereby scattered to
// every duplicate.
func (m *Mesh) UndoRemoveDuplicateVertices(original *Mesh, inverse []int) error {
	if len(inverse) != original.V.Rows {
		return errors.Wrapf(ErrIndirection, "inverse has %d entries, original has %d vertices", len(inverse), original.V.Rows)
	}
	for i, j := range inverse {
		if j < 0 || j >= m.V.Rows {
			return errors.Wrapf(ErrIndirection, "entry %d points at row %d of %d", i, j, m.V.Rows)
		}
	}
	m.selectVertexRows(inverse)
	m.F = original.F.Clone()
	m.E = original.E.Clone()
	m.markDirty()
	return nil
}

// SetDuplicateVertsToZero zeroes every repeated position after its first
// occurrence, keeping the row count.
func (m *Mesh) SetDuplicateVertsToZero() {
	seen := make(map[posKey]struct{}, m.V.Rows)
	for i := 0; i < m.V.Rows; i++ {
		if m.V.IsZeroRow(i) {
			continue
		}
		k := positionKey(&m.V, i)
		if _, ok := seen[k]; ok {
			clear(m.V.Row(i))
			continue
		}
		seen[k] = struct{}{}
	}
	m.markDirty()
}
