package meshgl

import (
	"github.com/Faultbox/meshview/pkg/mesh"
)

// Buffers is one mesh flattened into the float32/uint32 arrays GL consumes.
// Per-vertex slices are either empty or hold NumVerts entries of their width.
type Buffers struct {
	NumVerts int

	Positions []float32 // 3 per vertex
	Normals   []float32 // 3 per vertex
	Colors    []float32 // 3 per vertex
	UVs       []float32 // 2 per vertex
	TangentsU []float32 // 3 per vertex
	LengthsV  []float32 // 1 per vertex
	Intensity []float32 // 1 per vertex

	Triangles []uint32
	Lines     []uint32
}

// Flatten converts the attributes a renderer needs. Colors follow the color
// type: semantic types are resolved through the label manager here.
func Flatten(m *mesh.Mesh) *Buffers {
	n := m.V.Rows
	b := &Buffers{
		NumVerts:  n,
		Positions: narrow(&m.V, n),
		Normals:   narrow(&m.NV, n),
		UVs:       narrow(&m.UV, n),
		TangentsU: narrow(&m.VTangentU, n),
		LengthsV:  narrow(&m.VLengthV, n),
		Intensity: narrow(&m.I, n),
		Triangles: indices(&m.F),
		Lines:     indices(&m.E),
	}
	switch m.Vis.ColorType {
	case mesh.ColorSemanticPred:
		b.Colors = labelColors(m, predictedLabels(m))
	case mesh.ColorSemanticGT:
		if m.LGt.Rows == n {
			b.Colors = labelColors(m, m.LGt.Data)
		}
	default:
		b.Colors = narrow(&m.C, n)
	}
	return b
}

// narrow returns the data of a per-vertex attribute, or nil when it does not
// have one row per vertex.
func narrow(a *mesh.MatrixD, n int) []float32 {
	if a.Rows != n || n == 0 {
		return nil
	}
	out := make([]float32, len(a.Data))
	for i, v := range a.Data {
		out[i] = float32(v)
	}
	return out
}

func indices(a *mesh.MatrixI) []uint32 {
	if a.Rows == 0 {
		return nil
	}
	out := make([]uint32, len(a.Data))
	for i, v := range a.Data {
		out[i] = uint32(v)
	}
	return out
}

// predictedLabels prefers L_pred and falls back to the argmax of S_pred.
func predictedLabels(m *mesh.Mesh) []int {
	n := m.V.Rows
	if m.LPred.Rows == n {
		return m.LPred.Data
	}
	if m.SPred.Rows != n || m.SPred.Cols == 0 {
		return nil
	}
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		row := m.SPred.Row(i)
		best := 0
		for c, s := range row {
			if s > row[best] {
				best = c
			}
		}
		labels[i] = best
	}
	return labels
}

func labelColors(m *mesh.Mesh, labels []int) []float32 {
	if m.LabelMngr == nil || len(labels) == 0 {
		return nil
	}
	out := make([]float32, 0, 3*len(labels))
	for _, l := range labels {
		c := m.LabelMngr.LabelToColor(l)
		out = append(out, float32(c[0]), float32(c[1]), float32(c[2]))
	}
	return out
}
