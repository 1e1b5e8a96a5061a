package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	g3nobj "github.com/g3n/engine/loader/obj"
)

// OBJ format errors.
var (
	ErrInvalidOBJIndex  = errors.New("invalid OBJ index")
	ErrInvalidOBJNumber = errors.New("invalid OBJ number")
	ErrShortOBJElement  = errors.New("OBJ element has too few values")
	ErrMalformedOBJ     = errors.New("malformed OBJ")
)

// maxOBJLine bounds a single line; long polygon rows exceed bufio's default.
const maxOBJLine = 1 << 20

// absentIndex is the loader's marker for a corner without vt or vn.
const absentIndex = math.MaxUint32

// OBJCorner is one corner of a face. VT and VN are -1 when absent.
type OBJCorner struct {
	V, VT, VN int
}

// OBJFace is a triangle. Polygons are fan-triangulated on parse.
type OBJFace [3]OBJCorner

// OBJ represents a parsed Wavefront OBJ file. Indices are zero-based.
type OBJ struct {
	Positions [][3]float64 // v
	Colors    [][3]float64 // trailing rgb of v lines, nil unless every v has one
	TexCoords [][2]float64 // vt
	Normals   [][3]float64 // vn
	Faces     []OBJFace    // f
	Lines     [][2]int     // l, split into segments
	MtlLib    string       // mtllib
	Objects   []string     // o
}

// HasTexCoordIndices reports whether any face corner references a vt.
func (o *OBJ) HasTexCoordIndices() bool {
	for _, f := range o.Faces {
		for _, c := range f {
			if c.VT >= 0 {
				return true
			}
		}
	}
	return false
}

// HasNormalIndices reports whether any face corner references a vn.
func (o *OBJ) HasNormalIndices() bool {
	for _, f := range o.Faces {
		for _, c := range f {
			if c.VN >= 0 {
				return true
			}
		}
	}
	return false
}

// LoadOBJ reads and parses an OBJ file from disk.
func LoadOBJ(path string) (*OBJ, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening OBJ: %w", err)
	}
	defer f.Close()
	return ParseOBJ(f)
}

// ParseOBJ parses OBJ text. Faces, texture coordinates, normals and the
// material library are decoded by g3n's loader. Positions are read here at
// full precision together with their optional colors, as are l polylines and
// o names, none of which the loader keeps.
func ParseOBJ(r io.Reader) (*OBJ, error) {
	obj := &OBJ{}
	colored := 0

	// The loader gets the same lines with comments stripped so its line
	// numbers match ours.
	var clean bytes.Buffer
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxOBJLine)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			clean.WriteString(strings.Join(fields, " "))
		}
		clean.WriteByte('\n')
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			var vals []float64
			vals, err = parseFloats(fields[1:], 3)
			if err == nil {
				obj.Positions = append(obj.Positions, [3]float64{vals[0], vals[1], vals[2]})
				if len(vals) >= 6 {
					obj.Colors = append(obj.Colors, [3]float64{vals[3], vals[4], vals[5]})
					colored++
				} else {
					obj.Colors = append(obj.Colors, [3]float64{})
				}
			}
		case "l":
			err = obj.parseLine(fields[1:])
		case "o":
			if len(fields) > 1 {
				obj.Objects = append(obj.Objects, strings.Join(fields[1:], " "))
			}
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}
	if colored != len(obj.Positions) || colored == 0 {
		obj.Colors = nil
	}

	// Materials are not used; an empty library keeps the loader off the disk.
	dec, err := g3nobj.DecodeReader(&clean, strings.NewReader(""))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOBJ, err)
	}
	obj.MtlLib = dec.Matlib
	for i := 0; i+1 < len(dec.Uvs); i += 2 {
		obj.TexCoords = append(obj.TexCoords, [2]float64{float64(dec.Uvs[i]), float64(dec.Uvs[i+1])})
	}
	for i := 0; i+2 < len(dec.Normals); i += 3 {
		obj.Normals = append(obj.Normals, [3]float64{
			float64(dec.Normals[i]), float64(dec.Normals[i+1]), float64(dec.Normals[i+2]),
		})
	}
	for _, o := range dec.Objects {
		for _, f := range o.Faces {
			if err := obj.addPolygon(f); err != nil {
				return nil, fmt.Errorf("object %q: %w", o.Name, err)
			}
		}
	}
	return obj, nil
}

func parseFloats(fields []string, minCount int) ([]float64, error) {
	if len(fields) < minCount {
		return nil, ErrShortOBJElement
	}
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOBJNumber, f)
		}
		vals[i] = v
	}
	return vals, nil
}

// resolveIndex converts a 1-based (or negative, relative) OBJ index to a
// zero-based one against n elements seen so far.
func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOBJIndex, s)
	}
	switch {
	case i > 0 && i <= n:
		return i - 1, nil
	case i < 0 && -i <= n:
		return n + i, nil
	default:
		return 0, fmt.Errorf("%w: %d of %d", ErrInvalidOBJIndex, i, n)
	}
}

// checkIndex validates a zero-based index resolved by the loader, which
// does not bound it.
func checkIndex(i, n int, what string) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %s %d of %d", ErrInvalidOBJIndex, what, i+1, n)
	}
	return nil
}

// addPolygon validates a decoded face and fan-triangulates it.
func (o *OBJ) addPolygon(f g3nobj.Face) error {
	corners := make([]OBJCorner, len(f.Vertices))
	for i, v := range f.Vertices {
		c := OBJCorner{V: v, VT: -1, VN: -1}
		if err := checkIndex(v, len(o.Positions), "vertex"); err != nil {
			return err
		}
		if i < len(f.Uvs) && int64(f.Uvs[i]) != absentIndex {
			if err := checkIndex(f.Uvs[i], len(o.TexCoords), "texcoord"); err != nil {
				return err
			}
			c.VT = f.Uvs[i]
		}
		if i < len(f.Normals) && int64(f.Normals[i]) != absentIndex {
			if err := checkIndex(f.Normals[i], len(o.Normals), "normal"); err != nil {
				return err
			}
			c.VN = f.Normals[i]
		}
		corners[i] = c
	}
	for i := 1; i+1 < len(corners); i++ {
		o.Faces = append(o.Faces, OBJFace{corners[0], corners[i], corners[i+1]})
	}
	return nil
}

func (o *OBJ) parseLine(fields []string) error {
	if len(fields) < 2 {
		return ErrShortOBJElement
	}
	prev := -1
	for _, f := range fields {
		v, _, _ := strings.Cut(f, "/")
		i, err := resolveIndex(v, len(o.Positions))
		if err != nil {
			return err
		}
		if prev >= 0 {
			o.Lines = append(o.Lines, [2]int{prev, i})
		}
		prev = i
	}
	return nil
}

// Encode writes the OBJ as text with 1-based indices.
func (o *OBJ) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if o.MtlLib != "" {
		fmt.Fprintf(bw, "mtllib %s\n", o.MtlLib)
	}
	for i, p := range o.Positions {
		if o.Colors != nil {
			c := o.Colors[i]
			fmt.Fprintf(bw, "v %g %g %g %g %g %g\n", p[0], p[1], p[2], c[0], c[1], c[2])
		} else {
			fmt.Fprintf(bw, "v %g %g %g\n", p[0], p[1], p[2])
		}
	}
	for _, t := range o.TexCoords {
		fmt.Fprintf(bw, "vt %g %g\n", t[0], t[1])
	}
	for _, n := range o.Normals {
		fmt.Fprintf(bw, "vn %g %g %g\n", n[0], n[1], n[2])
	}
	for _, f := range o.Faces {
		bw.WriteString("f")
		for _, c := range f {
			bw.WriteString(" " + formatCorner(c))
		}
		bw.WriteString("\n")
	}
	for _, l := range o.Lines {
		fmt.Fprintf(bw, "l %d %d\n", l[0]+1, l[1]+1)
	}
	return bw.Flush()
}

func formatCorner(c OBJCorner) string {
	switch {
	case c.VT < 0 && c.VN < 0:
		return strconv.Itoa(c.V + 1)
	case c.VN < 0:
		return fmt.Sprintf("%d/%d", c.V+1, c.VT+1)
	case c.VT < 0:
		return fmt.Sprintf("%d//%d", c.V+1, c.VN+1)
	default:
		return fmt.Sprintf("%d/%d/%d", c.V+1, c.VT+1, c.VN+1)
	}
}

// SaveOBJ writes the OBJ to path.
func SaveOBJ(path string, o *OBJ) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating OBJ: %w", err)
	}
	if err := o.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("writing OBJ: %w", err)
	}
	return f.Close()
}
