package mesh

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/pkg/formats"
)

// ErrUnsupportedFormat is returned for file extensions without a codec.
var ErrUnsupportedFormat = errors.New("unsupported mesh file format")

// LoadFromFile replaces the mesh contents with the file at path. UV and
// normals are resolved to one row per vertex.
func (m *Mesh) LoadFromFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return m.ReadOBJ(path, false, false)
	case ".ply":
		return m.ReadPLY(path)
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "%s", path)
	}
}

// ReadOBJ loads an OBJ file. With loadVTI (loadVNI) the texture coordinates
// (normals) are kept as the file's own table, addressed per face corner
// through VTI (VNI); otherwise they are scattered to one row per vertex.
func (m *Mesh) ReadOBJ(path string, loadVTI, loadVNI bool) error {
	obj, err := formats.LoadOBJ(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	m.Clear()
	m.fromOBJ(obj, loadVTI, loadVNI)
	m.loaded(path)
	return nil
}

// ReadPLY loads an ascii or binary PLY file.
func (m *Mesh) ReadPLY(path string) error {
	ply, err := formats.LoadPLY(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	m.Clear()
	n := len(ply.Positions)
	m.V = NewMatrix[float64](n, 3)
	for i, p := range ply.Positions {
		copy(m.V.Row(i), p[:])
	}
	if ply.Normals != nil {
		m.NV = NewMatrix[float64](n, 3)
		for i, nn := range ply.Normals {
			copy(m.NV.Row(i), nn[:])
		}
	}
	if ply.Colors != nil {
		m.C = NewMatrix[float64](n, 3)
		for i, c := range ply.Colors {
			copy(m.C.Row(i), c[:])
		}
	}
	if len(ply.Faces) > 0 {
		m.F = NewMatrix[int](len(ply.Faces), 3)
		for f, face := range ply.Faces {
			copy(m.F.Row(f), face[:])
		}
	}
	m.loaded(path)
	return nil
}

// loaded names the mesh after path and picks how to show what was read.
func (m *Mesh) loaded(path string) {
	m.DiskPath = path
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if m.F.Rows > 0 {
		m.Vis.ShowMesh = true
	} else if m.E.Rows > 0 {
		m.Vis.ShowMesh = false
		m.Vis.ShowLines = true
	} else {
		m.Vis.ShowMesh = false
		m.Vis.ShowPoints = true
	}
	if m.C.Rows > 0 {
		m.Vis.ColorType = ColorPerVert
	}
	m.log().Info("loaded mesh",
		zap.String("path", path),
		zap.Int("vertices", m.V.Rows),
		zap.Int("faces", m.F.Rows),
		zap.Int("lines", m.E.Rows),
	)
}

func (m *Mesh) fromOBJ(obj *formats.OBJ, loadVTI, loadVNI bool) {
	n := len(obj.Positions)
	m.V = NewMatrix[float64](n, 3)
	for i, p := range obj.Positions {
		copy(m.V.Row(i), p[:])
	}
	if obj.Colors != nil {
		m.C = NewMatrix[float64](n, 3)
		for i, c := range obj.Colors {
			copy(m.C.Row(i), c[:])
		}
	}
	if len(obj.Faces) > 0 {
		m.F = NewMatrix[int](len(obj.Faces), 3)
		for f, face := range obj.Faces {
			for k, c := range face {
				m.F.Set(f, k, c.V)
			}
		}
	}
	if len(obj.Lines) > 0 {
		m.E = NewMatrix[int](len(obj.Lines), 2)
		for i, l := range obj.Lines {
			m.E.Set(i, 0, l[0])
			m.E.Set(i, 1, l[1])
		}
	}

	if len(obj.TexCoords) > 0 {
		if loadVTI && obj.HasTexCoordIndices() {
			m.UV = NewMatrix[float64](len(obj.TexCoords), 2)
			for i, t := range obj.TexCoords {
				copy(m.UV.Row(i), t[:])
			}
			m.VTI = cornerIndices(obj.Faces, func(c formats.OBJCorner) int { return c.VT })
		} else {
			m.UV = scatter(obj, n, 2, func(c formats.OBJCorner) int { return c.VT }, func(i int) []float64 { return obj.TexCoords[i][:] })
			if m.UV.Rows == 0 && len(obj.TexCoords) == n {
				m.UV = NewMatrix[float64](n, 2)
				for i, t := range obj.TexCoords {
					copy(m.UV.Row(i), t[:])
				}
			}
		}
	}
	if len(obj.Normals) > 0 {
		if loadVNI && obj.HasNormalIndices() {
			m.NV = NewMatrix[float64](len(obj.Normals), 3)
			for i, nn := range obj.Normals {
				copy(m.NV.Row(i), nn[:])
			}
			m.VNI = cornerIndices(obj.Faces, func(c formats.OBJCorner) int { return c.VN })
		} else {
			m.NV = scatter(obj, n, 3, func(c formats.OBJCorner) int { return c.VN }, func(i int) []float64 { return obj.Normals[i][:] })
			if m.NV.Rows == 0 && len(obj.Normals) == n {
				m.NV = NewMatrix[float64](n, 3)
				for i, nn := range obj.Normals {
					copy(m.NV.Row(i), nn[:])
				}
			}
		}
	}
}

func cornerIndices(faces []formats.OBJFace, pick func(formats.OBJCorner) int) MatrixI {
	out := NewMatrix[int](len(faces), 3)
	for f, face := range faces {
		for k, c := range face {
			out.Set(f, k, max(pick(c), 0))
		}
	}
	return out
}

// scatter assigns each vertex the value referenced by the last face corner
// that uses it. It returns an empty matrix when no corner references values.
func scatter(obj *formats.OBJ, n, cols int, pick func(formats.OBJCorner) int, value func(int) []float64) MatrixD {
	out := NewMatrix[float64](n, cols)
	found := false
	for _, face := range obj.Faces {
		for _, c := range face {
			if idx := pick(c); idx >= 0 {
				copy(out.Row(c.V), value(idx))
				found = true
			}
		}
	}
	if !found {
		return MatrixD{}
	}
	return out
}

// SaveToFile writes the mesh as OBJ or binary PLY, chosen by extension. OBJ
// keeps per-vertex UV and normals with matching indices. PLY has no texture
// coordinates, edges or indirected normals and writes colors as bytes.
func (m *Mesh) SaveToFile(path string) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		err = formats.SaveOBJ(path, m.toOBJ())
	case ".ply":
		err = formats.SavePLY(path, m.toPLY())
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "%s", path)
	}
	if err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	m.log().Info("saved mesh", zap.String("path", path))
	return nil
}

func (m *Mesh) toPLY() *formats.PLY {
	n := m.V.Rows
	ply := &formats.PLY{Format: formats.PLYBinaryLittleEndian, Positions: make([][3]float64, n)}
	for i := range ply.Positions {
		copy(ply.Positions[i][:], m.V.Row(i))
	}
	if n > 0 && m.NV.Rows == n && m.VNI.Rows == 0 {
		ply.Normals = make([][3]float64, n)
		for i := range ply.Normals {
			copy(ply.Normals[i][:], m.NV.Row(i))
		}
	}
	if n > 0 && m.C.Rows == n {
		ply.Colors = make([][3]float64, n)
		for i := range ply.Colors {
			copy(ply.Colors[i][:], m.C.Row(i))
		}
	}
	ply.Faces = make([][3]int, m.F.Rows)
	for f := range ply.Faces {
		copy(ply.Faces[f][:], m.F.Row(f))
	}
	if m.E.Rows > 0 || m.UV.Rows > 0 {
		m.log().Debug("PLY drops edges and texture coordinates",
			zap.Int("edges", m.E.Rows), zap.Int("uv", m.UV.Rows))
	}
	return ply
}

func (m *Mesh) toOBJ() *formats.OBJ {
	n := m.V.Rows
	obj := &formats.OBJ{Positions: make([][3]float64, n)}
	for i := range obj.Positions {
		copy(obj.Positions[i][:], m.V.Row(i))
	}
	if m.C.Rows == n && n > 0 {
		obj.Colors = make([][3]float64, n)
		for i := range obj.Colors {
			copy(obj.Colors[i][:], m.C.Row(i))
		}
	}
	hasUV := m.UV.Rows > 0 && (m.UV.Rows == n || m.VTI.Rows == m.F.Rows)
	if hasUV {
		obj.TexCoords = make([][2]float64, m.UV.Rows)
		for i := range obj.TexCoords {
			copy(obj.TexCoords[i][:], m.UV.Row(i))
		}
	}
	hasNV := m.NV.Rows > 0 && (m.NV.Rows == n || m.VNI.Rows == m.F.Rows)
	if hasNV {
		obj.Normals = make([][3]float64, m.NV.Rows)
		for i := range obj.Normals {
			copy(obj.Normals[i][:], m.NV.Row(i))
		}
	}
	obj.Faces = make([]formats.OBJFace, m.F.Rows)
	for f := range obj.Faces {
		for k := 0; k < 3; k++ {
			v := m.F.At(f, k)
			c := formats.OBJCorner{V: v, VT: -1, VN: -1}
			if hasUV {
				c.VT = v
				if m.VTI.Rows == m.F.Rows {
					c.VT = m.VTI.At(f, k)
				}
			}
			if hasNV {
				c.VN = v
				if m.VNI.Rows == m.F.Rows {
					c.VN = m.VNI.At(f, k)
				}
			}
			obj.Faces[f][k] = c
		}
	}
	obj.Lines = make([][2]int, m.E.Rows)
	for i := range obj.Lines {
		obj.Lines[i] = [2]int{m.E.At(i, 0), m.E.At(i, 1)}
	}
	return obj
}
