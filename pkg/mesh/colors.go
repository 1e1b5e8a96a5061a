package mesh

import (
	"image/color"
	"math"

	"github.com/pkg/errors"
)

// ColorFromLabelIndices sets C from one class index per vertex, using the
// mesh's label manager.
func (m *Mesh) ColorFromLabelIndices(labels *MatrixI) error {
	if m.LabelMngr == nil {
		return errors.New("color from labels: mesh has no label manager")
	}
	if labels.Rows != m.V.Rows || labels.Cols != 1 {
		return errors.Wrapf(ErrColumnMismatch, "color from labels: got %dx%d labels for %d vertices", labels.Rows, labels.Cols, m.V.Rows)
	}
	m.C.Resize(m.V.Rows, 3)
	for i := 0; i < labels.Rows; i++ {
		c := m.LabelMngr.LabelToColor(labels.At(i, 0))
		copy(m.C.Row(i), c[:])
	}
	m.markDirty()
	return nil
}

// ColorSolid2PerVert turns the solid color into a per-vertex C, which keeps
// colors apart when meshes of different colors are merged.
func (m *Mesh) ColorSolid2PerVert() {
	m.C.Resize(m.V.Rows, 3)
	sc := m.Vis.SolidColor
	for i := 0; i < m.V.Rows; i++ {
		r := m.C.Row(i)
		r[0], r[1], r[2] = float64(sc[0]), float64(sc[1]), float64(sc[2])
	}
	m.Vis.ColorType = ColorPerVert
	m.markDirty()
}

// ClearC drops per-vertex colors, falling back to the solid color when the
// mesh was colored per vertex.
func (m *Mesh) ClearC() {
	m.C.Clear()
	if m.Vis.ColorType == ColorPerVert {
		m.Vis.ColorType = ColorSolid
	}
	m.markDirty()
}

// ColorFromImage samples the diffuse texture at each vertex UV into C. UV is
// in [0,1] with v pointing up.
func (m *Mesh) ColorFromImage() error {
	t, ok := m.textures[TextureDiffuse]
	if !ok || t.Img == nil {
		return errors.New("color from image: no diffuse texture")
	}
	if m.UV.Rows != m.V.Rows {
		return errors.New("color from image: UV does not match V")
	}
	b := t.Img.Bounds()
	m.C.Resize(m.V.Rows, 3)
	for i := 0; i < m.V.Rows; i++ {
		uv := m.UV.Row(i)
		x := b.Min.X + clampInt(int(math.Floor(uv[0]*float64(b.Dx()))), 0, b.Dx()-1)
		y := b.Min.Y + clampInt(int(math.Floor((1-uv[1])*float64(b.Dy()))), 0, b.Dy()-1)
		c := color.NRGBAModel.Convert(t.Img.At(x, y)).(color.NRGBA)
		r := m.C.Row(i)
		r[0], r[1], r[2] = float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	}
	m.Vis.ColorType = ColorPerVert
	m.markDirty()
	return nil
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
