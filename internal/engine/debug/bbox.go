// Package debug provides debug visualization utilities.
package debug

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshview/pkg/mesh"
)

// bboxEdges lists the 12 edges of a box whose corner i has bit 0 set for
// max X, bit 1 for max Y and bit 2 for max Z.
var bboxEdges = [12][2]int{
	// Bottom face
	{0, 1}, {1, 5}, {5, 4}, {4, 0},
	// Top face
	{2, 3}, {3, 7}, {7, 6}, {6, 2},
	// Vertical edges
	{0, 2}, {1, 3}, {5, 7}, {4, 6},
}

// BBoxWireframe builds a line mesh tracing box, grown by padding on every
// side. The result is drawn like any other mesh.
func BBoxWireframe(box r3.Box, padding float64) *mesh.Mesh {
	pad := r3.Vec{X: padding, Y: padding, Z: padding}
	lo, hi := r3.Sub(box.Min, pad), r3.Add(box.Max, pad)

	m := mesh.New()
	m.Name = "bbox"
	m.V = mesh.NewMatrix[float64](8, 3)
	for i := 0; i < 8; i++ {
		c := lo
		if i&1 != 0 {
			c.X = hi.X
		}
		if i&2 != 0 {
			c.Y = hi.Y
		}
		if i&4 != 0 {
			c.Z = hi.Z
		}
		copy(m.V.Row(i), []float64{c.X, c.Y, c.Z})
	}
	m.E = mesh.NewMatrix[int](len(bboxEdges), 2)
	for i, e := range bboxEdges {
		copy(m.E.Row(i), e[:])
	}

	vis := m.Vis
	vis.ShowMesh = false
	vis.ShowLines = true
	vis.ColorType = mesh.ColorSolid
	vis.LineColor = [3]float32{1, 0.8, 0.1}
	m.SetVis(vis)
	return m
}

// DefaultBBoxPadding is the fraction of the box size added around selections.
const DefaultBBoxPadding = 0.02
