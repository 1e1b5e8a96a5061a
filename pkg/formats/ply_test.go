package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const quadPLY = `ply
format ascii 1.0
comment unit quad with one extra element
element vertex 4
property float x
property float y
property float z
property float nx
property float ny
property float nz
property uchar red
property uchar green
property uchar blue
element face 1
property list uchar int vertex_indices
element edge 1
property int vertex1
property int vertex2
end_header
0 0 0 0 0 1 255 0 0
1 0 0 0 0 1 0 255 0
1 1 0 0 0 1 0 0 255
0 1 0 0 0 1 255 255 255
4 0 1 2 3
0 2
`

func TestParsePLY_ASCII(t *testing.T) {
	ply, err := ParsePLY(strings.NewReader(quadPLY))
	if err != nil {
		t.Fatalf("ParsePLY failed: %v", err)
	}
	if ply.Format != PLYASCII {
		t.Errorf("expected ascii, got %s", ply.Format)
	}
	if diff := cmp.Diff([][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}, ply.Positions); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1}}, ply.Colors); diff != "" {
		t.Errorf("colors mismatch (-want +got):\n%s", diff)
	}
	if len(ply.Normals) != 4 || ply.Normals[3] != [3]float64{0, 0, 1} {
		t.Errorf("unexpected normals %v", ply.Normals)
	}
	if diff := cmp.Diff([][3]int{{0, 1, 2}, {0, 2, 3}}, ply.Faces); diff != "" {
		t.Errorf("faces mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePLY_BinaryMixedTypes(t *testing.T) {
	var body bytes.Buffer
	le := binary.LittleEndian
	for _, v := range []struct {
		x, y, z float32
		r, g, b uint16
	}{
		{0, 0, 0, 65535, 0, 0},
		{2, 0, 0, 0, 65535, 0},
		{0, 2, 0, 0, 0, 65535},
	} {
		binary.Write(&body, le, []float32{v.x, v.y, v.z})
		binary.Write(&body, le, []uint16{v.r, v.g, v.b})
	}
	// One triangle followed by a per-face scalar that is skipped.
	body.WriteByte(3)
	binary.Write(&body, le, []int32{2, 1, 0})
	binary.Write(&body, le, int16(-7))

	header := `ply
format binary_little_endian 1.0
element vertex 3
property float x
property float y
property float z
property ushort red
property ushort green
property ushort blue
element face 1
property list uchar int vertex_indices
property short flags
end_header
`
	ply, err := ParsePLY(strings.NewReader(header + body.String()))
	if err != nil {
		t.Fatalf("ParsePLY failed: %v", err)
	}
	if ply.Normals != nil {
		t.Errorf("expected no normals, got %v", ply.Normals)
	}
	if diff := cmp.Diff([][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, ply.Colors); diff != "" {
		t.Errorf("colors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][3]int{{2, 1, 0}}, ply.Faces); diff != "" {
		t.Errorf("faces mismatch (-want +got):\n%s", diff)
	}
	if ply.Positions[1] != [3]float64{2, 0, 0} {
		t.Errorf("unexpected position %v", ply.Positions[1])
	}
}

func TestPLY_EncodeRoundTrip(t *testing.T) {
	for _, format := range []PLYFormat{PLYASCII, PLYBinaryLittleEndian, PLYBinaryBigEndian} {
		t.Run(format.String(), func(t *testing.T) {
			want := &PLY{
				Format:    format,
				Positions: [][3]float64{{0, 0, 0}, {1.5, 0, -2}, {0, 1e-7, 3}, {math.Pi, 0, 0}},
				Normals:   [][3]float64{{0, 0, 1}, {0, 0, 1}, {0, 1, 0}, {1, 0, 0}},
				Colors:    [][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1}},
				Faces:     [][3]int{{0, 1, 2}, {2, 1, 3}},
			}
			var buf bytes.Buffer
			if err := want.Encode(&buf); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			got, err := ParsePLY(&buf)
			if err != nil {
				t.Fatalf("ParsePLY failed: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPLY_EncodePointCloud(t *testing.T) {
	var buf bytes.Buffer
	src := &PLY{Format: PLYASCII, Positions: [][3]float64{{1, 2, 3}}}
	if err := src.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if strings.Contains(buf.String(), "element face") {
		t.Errorf("expected no face element:\n%s", buf.String())
	}
	got, err := ParsePLY(&buf)
	if err != nil {
		t.Fatalf("ParsePLY failed: %v", err)
	}
	if got.Faces != nil || got.Normals != nil || got.Colors != nil {
		t.Errorf("expected positions only, got %+v", got)
	}
}

func TestParsePLY_Errors(t *testing.T) {
	const vertexHeader = "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n"
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"missing magic", "format ascii 1.0\nend_header\n", ErrInvalidPLYHeader},
		{"no format", "ply\nelement vertex 0\nend_header\n", ErrInvalidPLYHeader},
		{"no end_header", "ply\nformat ascii 1.0\n", ErrInvalidPLYHeader},
		{"unknown format", "ply\nformat binary_middle_endian 1.0\nend_header\n", ErrUnsupportedPLY},
		{"unknown version", "ply\nformat ascii 2.0\nend_header\n", ErrUnsupportedPLY},
		{"unknown type", "ply\nformat ascii 1.0\nelement vertex 0\nproperty quad x\nend_header\n", ErrUnsupportedPLY},
		{"property before element", "ply\nformat ascii 1.0\nproperty float x\nend_header\n", ErrInvalidPLYHeader},
		{"float list count", "ply\nformat ascii 1.0\nelement face 0\nproperty list float int vertex_indices\nend_header\n", ErrInvalidPLYHeader},
		{"vertex without z", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nend_header\n0 0\n", ErrInvalidPLYHeader},
		{"face without indices", vertexHeader + "element face 1\nproperty int flags\nend_header\n0 0 0\n1 0 0\n0 1 0\n0\n", ErrInvalidPLYHeader},
		{"index out of range", vertexHeader + "element face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n3 0 1 3\n", ErrInvalidPLYIndex},
		{"negative list length", vertexHeader + "element face 1\nproperty list char int vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n-1\n", ErrInvalidPLYNumber},
		{"bad number", vertexHeader + "end_header\n0 0 0\n1 zero 0\n0 1 0\n", ErrInvalidPLYNumber},
		{"truncated ascii", vertexHeader + "end_header\n0 0 0\n1 0 0\n", ErrTruncatedPLY},
		{"truncated binary", "ply\nformat binary_little_endian 1.0\nelement vertex 1\nproperty double x\nproperty double y\nproperty double z\nend_header\n\x00\x00", ErrTruncatedPLY},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePLY(strings.NewReader(tt.src))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSavePLY(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.ply")
	want := &PLY{
		Format:    PLYBinaryLittleEndian,
		Positions: [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:     [][3]int{{0, 1, 2}},
	}
	if err := SavePLY(path, want); err != nil {
		t.Fatalf("SavePLY failed: %v", err)
	}
	got, err := LoadPLY(path)
	if err != nil {
		t.Fatalf("LoadPLY failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if err := SavePLY(filepath.Join(t.TempDir(), "missing", "x.ply"), want); err == nil {
		t.Error("expected error for missing directory")
	}
	if _, err := LoadPLY(filepath.Join(t.TempDir(), "missing.ply")); err == nil {
		t.Error("expected error for missing file")
	}
}
