package formats

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// PLY format errors.
var (
	ErrInvalidPLYHeader = errors.New("invalid PLY header")
	ErrUnsupportedPLY   = errors.New("unsupported PLY format")
	ErrInvalidPLYIndex  = errors.New("invalid PLY vertex index")
	ErrInvalidPLYNumber = errors.New("invalid PLY number")
	ErrTruncatedPLY     = errors.New("truncated PLY body")
)

// PLYFormat is the body encoding named in the header.
type PLYFormat int

const (
	PLYASCII PLYFormat = iota
	PLYBinaryLittleEndian
	PLYBinaryBigEndian
)

func (f PLYFormat) String() string {
	switch f {
	case PLYASCII:
		return "ascii"
	case PLYBinaryLittleEndian:
		return "binary_little_endian"
	case PLYBinaryBigEndian:
		return "binary_big_endian"
	}
	return fmt.Sprintf("PLYFormat(%d)", int(f))
}

// PLY is a decoded Stanford polygon file. Only the vertex and face elements
// are kept; other elements are read past.
type PLY struct {
	Format    PLYFormat
	Positions [][3]float64 // x y z
	Normals   [][3]float64 // nx ny nz, nil when absent
	Colors    [][3]float64 // red green blue scaled to [0,1], nil when absent
	Faces     [][3]int     // vertex_indices, fan-triangulated
}

type plyProperty struct {
	name      string
	typ       string
	list      bool
	countType string
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

func (e plyElement) scalar(name string) int {
	for i, p := range e.props {
		if p.name == name && !p.list {
			return i
		}
	}
	return -1
}

var plyTypeSize = map[string]int{
	"char": 1, "int8": 1, "uchar": 1, "uint8": 1,
	"short": 2, "int16": 2, "ushort": 2, "uint16": 2,
	"int": 4, "int32": 4, "uint": 4, "uint32": 4,
	"float": 4, "float32": 4, "double": 8, "float64": 8,
}

// plyColorScale maps a stored color channel to [0,1].
func plyColorScale(typ string) float64 {
	switch typ {
	case "float", "float32", "double", "float64":
		return 1
	case "ushort", "uint16":
		return 65535
	}
	return 255
}

// LoadPLY reads and parses a PLY file from disk.
func LoadPLY(path string) (*PLY, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PLY: %w", err)
	}
	defer f.Close()
	return ParsePLY(f)
}

// ParsePLY decodes an ascii or binary PLY stream.
func ParsePLY(r io.Reader) (*PLY, error) {
	br := bufio.NewReader(r)
	format, elems, err := readPLYHeader(br)
	if err != nil {
		return nil, err
	}

	var vr plyValueReader
	switch format {
	case PLYASCII:
		sc := bufio.NewScanner(br)
		sc.Split(bufio.ScanWords)
		vr = &plyASCIIReader{sc: sc}
	case PLYBinaryLittleEndian:
		vr = &plyBinaryReader{r: br, order: binary.LittleEndian}
	default:
		vr = &plyBinaryReader{r: br, order: binary.BigEndian}
	}

	ply := &PLY{Format: format}
	var polygons [][]int
	for _, e := range elems {
		switch e.name {
		case "vertex":
			err = ply.readVertices(vr, e)
		case "face":
			polygons, err = readPLYFaces(vr, e)
		default:
			err = skipPLYElement(vr, e)
		}
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", e.name, err)
		}
	}

	for _, poly := range polygons {
		for _, v := range poly {
			if v < 0 || v >= len(ply.Positions) {
				return nil, fmt.Errorf("%w: %d of %d", ErrInvalidPLYIndex, v, len(ply.Positions))
			}
		}
		for i := 1; i+1 < len(poly); i++ {
			ply.Faces = append(ply.Faces, [3]int{poly[0], poly[i], poly[i+1]})
		}
	}
	return ply, nil
}

func readPLYHeader(br *bufio.Reader) (PLYFormat, []plyElement, error) {
	magic, err := br.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return 0, nil, fmt.Errorf("%w: missing ply magic", ErrInvalidPLYHeader)
	}

	var (
		format     PLYFormat
		haveFormat bool
		elems      []plyElement
	)
	for {
		line, err := br.ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			return 0, nil, fmt.Errorf("%w: no end_header", ErrInvalidPLYHeader)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) != 3 {
				return 0, nil, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, strings.TrimSpace(line))
			}
			switch fields[1] {
			case "ascii":
				format = PLYASCII
			case "binary_little_endian":
				format = PLYBinaryLittleEndian
			case "binary_big_endian":
				format = PLYBinaryBigEndian
			default:
				return 0, nil, fmt.Errorf("%w: format %s", ErrUnsupportedPLY, fields[1])
			}
			if fields[2] != "1.0" {
				return 0, nil, fmt.Errorf("%w: version %s", ErrUnsupportedPLY, fields[2])
			}
			haveFormat = true
		case "comment", "obj_info":
		case "element":
			if len(fields) != 3 {
				return 0, nil, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, strings.TrimSpace(line))
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return 0, nil, fmt.Errorf("%w: element count %q", ErrInvalidPLYHeader, fields[2])
			}
			elems = append(elems, plyElement{name: fields[1], count: count})
		case "property":
			if len(elems) == 0 {
				return 0, nil, fmt.Errorf("%w: property before element", ErrInvalidPLYHeader)
			}
			p, err := parsePLYProperty(fields[1:])
			if err != nil {
				return 0, nil, err
			}
			e := &elems[len(elems)-1]
			e.props = append(e.props, p)
		case "end_header":
			if !haveFormat {
				return 0, nil, fmt.Errorf("%w: no format line", ErrInvalidPLYHeader)
			}
			return format, elems, nil
		default:
			return 0, nil, fmt.Errorf("%w: unknown keyword %q", ErrInvalidPLYHeader, fields[0])
		}
	}
}

func parsePLYProperty(fields []string) (plyProperty, error) {
	if len(fields) > 0 && fields[0] == "list" {
		if len(fields) != 4 {
			return plyProperty{}, fmt.Errorf("%w: list property %v", ErrInvalidPLYHeader, fields)
		}
		for _, typ := range fields[1:3] {
			if _, ok := plyTypeSize[typ]; !ok {
				return plyProperty{}, fmt.Errorf("%w: property type %q", ErrUnsupportedPLY, typ)
			}
		}
		if plyColorScale(fields[1]) == 1 {
			return plyProperty{}, fmt.Errorf("%w: list count type %q", ErrInvalidPLYHeader, fields[1])
		}
		return plyProperty{name: fields[3], typ: fields[2], list: true, countType: fields[1]}, nil
	}
	if len(fields) != 2 {
		return plyProperty{}, fmt.Errorf("%w: property %v", ErrInvalidPLYHeader, fields)
	}
	if _, ok := plyTypeSize[fields[0]]; !ok {
		return plyProperty{}, fmt.Errorf("%w: property type %q", ErrUnsupportedPLY, fields[0])
	}
	return plyProperty{name: fields[1], typ: fields[0]}, nil
}

type plyValueReader interface {
	value(typ string) (float64, error)
}

type plyASCIIReader struct {
	sc *bufio.Scanner
}

func (r *plyASCIIReader) value(string) (float64, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return 0, err
		}
		return 0, ErrTruncatedPLY
	}
	v, err := strconv.ParseFloat(r.sc.Text(), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPLYNumber, r.sc.Text())
	}
	return v, nil
}

type plyBinaryReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (r *plyBinaryReader) value(typ string) (float64, error) {
	b := r.buf[:plyTypeSize[typ]]
	if _, err := io.ReadFull(r.r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ErrTruncatedPLY
		}
		return 0, err
	}
	switch typ {
	case "char", "int8":
		return float64(int8(b[0])), nil
	case "uchar", "uint8":
		return float64(b[0]), nil
	case "short", "int16":
		return float64(int16(r.order.Uint16(b))), nil
	case "ushort", "uint16":
		return float64(r.order.Uint16(b)), nil
	case "int", "int32":
		return float64(int32(r.order.Uint32(b))), nil
	case "uint", "uint32":
		return float64(r.order.Uint32(b)), nil
	case "float", "float32":
		return float64(math.Float32frombits(r.order.Uint32(b))), nil
	default:
		return math.Float64frombits(r.order.Uint64(b)), nil
	}
}

func readPLYCount(vr plyValueReader, p plyProperty) (int, error) {
	n, err := vr.value(p.countType)
	if err != nil {
		return 0, err
	}
	if n < 0 || n != math.Trunc(n) {
		return 0, fmt.Errorf("%w: list length %g", ErrInvalidPLYNumber, n)
	}
	return int(n), nil
}

func skipPLYProperty(vr plyValueReader, p plyProperty) error {
	if !p.list {
		_, err := vr.value(p.typ)
		return err
	}
	n, err := readPLYCount(vr, p)
	if err != nil {
		return err
	}
	for ; n > 0; n-- {
		if _, err := vr.value(p.typ); err != nil {
			return err
		}
	}
	return nil
}

func skipPLYElement(vr plyValueReader, e plyElement) error {
	for i := 0; i < e.count; i++ {
		for _, p := range e.props {
			if err := skipPLYProperty(vr, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ply *PLY) readVertices(vr plyValueReader, e plyElement) error {
	xyz := [3]int{e.scalar("x"), e.scalar("y"), e.scalar("z")}
	nrm := [3]int{e.scalar("nx"), e.scalar("ny"), e.scalar("nz")}
	rgb := [3]int{e.scalar("red"), e.scalar("green"), e.scalar("blue")}
	has := func(slots [3]int) bool { return slots[0] >= 0 && slots[1] >= 0 && slots[2] >= 0 }
	if !has(xyz) {
		return fmt.Errorf("%w: vertex without x y z", ErrInvalidPLYHeader)
	}

	ply.Positions = make([][3]float64, e.count)
	if has(nrm) {
		ply.Normals = make([][3]float64, e.count)
	}
	var scale [3]float64
	if has(rgb) {
		ply.Colors = make([][3]float64, e.count)
		for a, k := range rgb {
			scale[a] = plyColorScale(e.props[k].typ)
		}
	}

	vals := make([]float64, len(e.props))
	for i := 0; i < e.count; i++ {
		for k, p := range e.props {
			if p.list {
				if err := skipPLYProperty(vr, p); err != nil {
					return err
				}
				continue
			}
			v, err := vr.value(p.typ)
			if err != nil {
				return err
			}
			vals[k] = v
		}
		for a := 0; a < 3; a++ {
			ply.Positions[i][a] = vals[xyz[a]]
			if ply.Normals != nil {
				ply.Normals[i][a] = vals[nrm[a]]
			}
			if ply.Colors != nil {
				ply.Colors[i][a] = vals[rgb[a]] / scale[a]
			}
		}
	}
	return nil
}

func readPLYFaces(vr plyValueReader, e plyElement) ([][]int, error) {
	idx := -1
	for i, p := range e.props {
		if p.list && (p.name == "vertex_indices" || p.name == "vertex_index") {
			idx = i
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: face without vertex_indices", ErrInvalidPLYHeader)
	}

	polys := make([][]int, 0, e.count)
	for i := 0; i < e.count; i++ {
		for k, p := range e.props {
			if k != idx {
				if err := skipPLYProperty(vr, p); err != nil {
					return nil, err
				}
				continue
			}
			n, err := readPLYCount(vr, p)
			if err != nil {
				return nil, err
			}
			poly := make([]int, n)
			for j := range poly {
				v, err := vr.value(p.typ)
				if err != nil {
					return nil, err
				}
				poly[j] = int(v)
			}
			polys = append(polys, poly)
		}
	}
	return polys, nil
}

// Encode writes the PLY in its Format. Positions and normals are stored as
// double, colors as uchar.
func (ply *PLY) Encode(w io.Writer) error {
	n := len(ply.Positions)
	hasN := n > 0 && len(ply.Normals) == n
	hasC := n > 0 && len(ply.Colors) == n

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ply\nformat %s 1.0\n", ply.Format)
	fmt.Fprintf(bw, "element vertex %d\n", n)
	bw.WriteString("property double x\nproperty double y\nproperty double z\n")
	if hasN {
		bw.WriteString("property double nx\nproperty double ny\nproperty double nz\n")
	}
	if hasC {
		bw.WriteString("property uchar red\nproperty uchar green\nproperty uchar blue\n")
	}
	if len(ply.Faces) > 0 {
		fmt.Fprintf(bw, "element face %d\n", len(ply.Faces))
		bw.WriteString("property list uchar int vertex_indices\n")
	}
	bw.WriteString("end_header\n")

	switch ply.Format {
	case PLYASCII:
		ply.encodeASCII(bw, hasN, hasC)
	case PLYBinaryLittleEndian:
		ply.encodeBinary(bw, binary.LittleEndian, hasN, hasC)
	case PLYBinaryBigEndian:
		ply.encodeBinary(bw, binary.BigEndian, hasN, hasC)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedPLY, ply.Format)
	}
	return bw.Flush()
}

func quantizeColor(c float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, c)) * 255))
}

func (ply *PLY) encodeASCII(bw *bufio.Writer, hasN, hasC bool) {
	row := make([]string, 0, 9)
	for i, p := range ply.Positions {
		row = row[:0]
		for _, v := range p {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if hasN {
			for _, v := range ply.Normals[i] {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		if hasC {
			for _, v := range ply.Colors[i] {
				row = append(row, strconv.Itoa(int(quantizeColor(v))))
			}
		}
		bw.WriteString(strings.Join(row, " "))
		bw.WriteByte('\n')
	}
	for _, f := range ply.Faces {
		fmt.Fprintf(bw, "3 %d %d %d\n", f[0], f[1], f[2])
	}
}

func (ply *PLY) encodeBinary(bw *bufio.Writer, order binary.AppendByteOrder, hasN, hasC bool) {
	buf := make([]byte, 0, 64)
	for i, p := range ply.Positions {
		buf = buf[:0]
		for _, v := range p {
			buf = order.AppendUint64(buf, math.Float64bits(v))
		}
		if hasN {
			for _, v := range ply.Normals[i] {
				buf = order.AppendUint64(buf, math.Float64bits(v))
			}
		}
		if hasC {
			for _, v := range ply.Colors[i] {
				buf = append(buf, quantizeColor(v))
			}
		}
		bw.Write(buf)
	}
	for _, f := range ply.Faces {
		buf = append(buf[:0], 3)
		for _, v := range f {
			buf = order.AppendUint32(buf, uint32(int32(v)))
		}
		bw.Write(buf)
	}
}

// SavePLY writes the PLY to path.
func SavePLY(path string, ply *PLY) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating PLY: %w", err)
	}
	if err := ply.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("writing PLY: %w", err)
	}
	return f.Close()
}
