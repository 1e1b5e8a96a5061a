package mesh

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// SanityCheck validates the attribute store and returns every violation
// found, each wrapping ErrMeshInvalid. Nothing is checked on ordinary writes;
// call this when it matters.
func (m *Mesh) SanityCheck() error {
	var err error
	invalid := func(format string, args ...any) {
		err = multierr.Append(err, errors.Wrapf(ErrMeshInvalid, format, args...))
	}

	nv, nf := m.V.Rows, m.F.Rows
	if nv > 0 && m.V.Cols != 3 {
		invalid("V has %d columns, want 3", m.V.Cols)
	}
	if nf > 0 && m.F.Cols != 3 {
		invalid("F has %d columns, want 3", m.F.Cols)
	}
	if m.E.Rows > 0 && m.E.Cols != 2 {
		invalid("E has %d columns, want 2", m.E.Cols)
	}
	if i, ok := indexOutOfRange(&m.F, nv); ok {
		invalid("F references vertex %d, mesh has %d", i, nv)
	}
	if i, ok := indexOutOfRange(&m.E, nv); ok {
		invalid("E references vertex %d, mesh has %d", i, nv)
	}

	for _, a := range m.floatAttrs() {
		if a.m.Rows == 0 {
			continue
		}
		if a.perVertex && a.m.Rows != nv && !m.indirected(a.m) {
			invalid("%s has %d rows, V has %d", a.name, a.m.Rows, nv)
		}
		if a.perFace && a.m.Rows != nf {
			invalid("%s has %d rows, F has %d", a.name, a.m.Rows, nf)
		}
		for _, v := range a.m.Data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				invalid("%s contains non-finite values", a.name)
				break
			}
		}
	}
	for _, a := range m.intAttrs() {
		if a.m.Rows == 0 {
			continue
		}
		if a.perVertex && a.m.Rows != nv {
			invalid("%s has %d rows, V has %d", a.name, a.m.Rows, nv)
		}
		if a.perFace && a.m.Rows != nf {
			invalid("%s has %d rows, F has %d", a.name, a.m.Rows, nf)
		}
	}
	if i, ok := indexOutOfRange(&m.VTI, m.UV.Rows); ok && m.VTI.Rows > 0 {
		invalid("VTI references UV %d, mesh has %d", i, m.UV.Rows)
	}
	if i, ok := indexOutOfRange(&m.VNI, m.NV.Rows); ok && m.VNI.Rows > 0 {
		invalid("VNI references normal %d, mesh has %d", i, m.NV.Rows)
	}

	if m.Vis.ColorType == ColorNormalVector && m.NV.Rows != nv && m.NF.Rows != nf {
		invalid("normal-vector coloring needs NV or NF")
	}
	if m.Vis.ShowSurfels && (m.VTangentU.Rows != nv || m.VLengthV.Rows != nv) {
		invalid("surfel rendering needs V_tangent_u and V_length_v")
	}
	return err
}

// indirected reports whether a is addressed through VTI or VNI instead of by
// vertex row.
func (m *Mesh) indirected(a *MatrixD) bool {
	return (a == &m.UV && m.VTI.Rows > 0) || (a == &m.NV && m.VNI.Rows > 0)
}

// indexOutOfRange returns the first entry of idx outside [0, n).
func indexOutOfRange(idx *MatrixI, n int) (int, bool) {
	for _, v := range idx.Data {
		if v < 0 || v >= n {
			return v, true
		}
	}
	return 0, false
}

// ColorTypeWarnings lists what the selected color type needs but the mesh
// lacks. The mode is never refused; callers log these.
func (m *Mesh) ColorTypeWarnings() []string {
	var w []string
	n := m.V.Rows
	switch m.Vis.ColorType {
	case ColorPerVert:
		if m.C.Rows != n {
			w = append(w, "per-vertex coloring selected but C is not populated")
		}
	case ColorTexture:
		if _, ok := m.textures[TextureDiffuse]; !ok && (m.gpu == nil || !m.gpu.IsTextureInitialized(TextureDiffuse)) {
			w = append(w, "texture coloring selected but no diffuse texture is set")
		}
		if m.UV.Rows != n {
			w = append(w, "texture coloring selected but UV is not populated")
		}
	case ColorSemanticPred:
		if m.LabelMngr == nil {
			w = append(w, "semantic coloring selected but the mesh has no label manager")
		}
		if m.LPred.Rows != n && m.SPred.Rows != n {
			w = append(w, "semantic prediction coloring selected but L_pred is not populated")
		}
	case ColorSemanticGT:
		if m.LabelMngr == nil {
			w = append(w, "semantic coloring selected but the mesh has no label manager")
		}
		if m.LGt.Rows != n {
			w = append(w, "ground truth coloring selected but L_gt is not populated")
		}
	case ColorNormalVector, ColorNormalViewCoords:
		if m.NV.Rows != n {
			w = append(w, "normal coloring selected but NV is not populated")
		}
	case ColorIntensity:
		if m.I.Rows != n {
			w = append(w, "intensity coloring selected but I is not populated")
		}
	case ColorUV:
		if m.UV.Rows != n {
			w = append(w, "UV coloring selected but UV is not populated")
		}
	}
	return w
}
