package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshview/pkg/mesh"
)

// run executes meshtool with args and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err)
	return out
}

func TestCreateAndInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sphere.obj")
	mustRun(t, "create", "sphere", "--size", "2", "-o", path)

	out := mustRun(t, "info", path)
	assert.Contains(t, out, "mesh sphere")
	assert.Contains(t, out, "vertices: 482")
	assert.Contains(t, out, "faces:    960")
	assert.Contains(t, out, "manifold: yes")
	assert.Contains(t, out, "sanity:   ok")
	assert.Contains(t, out, "scale:    2")
}

func TestCreateRejectsUnknownShape(t *testing.T) {
	_, err := run(t, "create", "torus", "-o", filepath.Join(t.TempDir(), "x.obj"))
	assert.Error(t, err)
}

func TestEditCommandsRequireOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.obj")
	mustRun(t, "create", "box", "-o", path)

	for _, name := range []string{"normals", "decimate", "upsample", "clean", "components", "transform"} {
		t.Run(name, func(t *testing.T) {
			_, err := run(t, name, path)
			assert.Error(t, err)
		})
	}
}

func TestDecimate(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "sphere.obj")
	out := filepath.Join(dir, "small.obj")
	mustRun(t, "create", "sphere", "-o", in)

	stdout := mustRun(t, "decimate", in, "--faces", "400", "-o", out)
	assert.Contains(t, stdout, "faces: 960 -> ")

	m, err := mesh.NewFromFile(out)
	require.NoError(t, err)
	assert.LessOrEqual(t, m.F.Rows, 400)
	assert.Greater(t, m.F.Rows, 0)
}

func TestDecimateRatioFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "meshview.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("mesh:\n  decimate_ratio: 0.25\n"), 0o644))
	in := filepath.Join(dir, "sphere.obj")
	out := filepath.Join(dir, "small.obj")
	mustRun(t, "create", "sphere", "-o", in)

	mustRun(t, "--config", cfgPath, "decimate", in, "-o", out)
	m, err := mesh.NewFromFile(out)
	require.NoError(t, err)
	assert.LessOrEqual(t, m.F.Rows, 240)

	_, err = run(t, "decimate", in, "--ratio", "1.5", "-o", out)
	assert.Error(t, err)
}

func TestDecimateNeedsFaces(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "grid.obj")
	mustRun(t, "create", "grid", "-o", in)
	_, err := run(t, "decimate", in, "-o", filepath.Join(dir, "out.obj"))
	assert.Error(t, err)
}

func TestUpsample(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "box.obj")
	out := filepath.Join(dir, "fine.obj")
	mustRun(t, "create", "box", "-o", in)
	mustRun(t, "upsample", in, "-n", "2", "-o", out)

	m, err := mesh.NewFromFile(out)
	require.NoError(t, err)
	assert.Equal(t, 12*16, m.F.Rows)
}

func TestNormalsFlip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "box.obj")
	out := filepath.Join(dir, "inside.obj")
	mustRun(t, "create", "box", "-o", in)
	mustRun(t, "normals", in, "--flip", "-o", out)

	m, err := mesh.NewFromFile(out)
	require.NoError(t, err)
	require.Equal(t, m.V.Rows, m.NV.Rows)
	for v := 0; v < m.V.Rows; v++ {
		p, n := m.V.Row(v), m.NV.Row(v)
		dot := p[0]*n[0] + p[1]*n[1] + p[2]*n[2]
		assert.Less(t, dot, 0.0, "vertex %d", v)
	}
}

func TestTransform(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "box.obj")
	out := filepath.Join(dir, "moved.obj")
	mustRun(t, "create", "box", "-o", in)
	mustRun(t, "transform", in, "--scale", "2", "--pose", "1 0 0 0 0 0 1", "-o", out)

	m, err := mesh.NewFromFile(out)
	require.NoError(t, err)
	b := m.BoundingBox()
	assert.InDelta(t, 0, b.Min.X, 1e-9)
	assert.InDelta(t, 2, b.Max.X, 1e-9)
	assert.InDelta(t, -1, b.Min.Y, 1e-9)

	_, err = run(t, "transform", in, "--pose", "1 2 3", "-o", out)
	assert.Error(t, err)
}

func TestComponentsAndClean(t *testing.T) {
	dir := t.TempDir()
	a := mesh.New()
	a.CreateBox(1, 1, 1)
	b := mesh.New()
	b.CreateSphere(r3.Vec{X: 5}, 1)
	require.NoError(t, a.Add(b))
	in := filepath.Join(dir, "two.obj")
	require.NoError(t, a.SaveToFile(in))

	colored := filepath.Join(dir, "colored.obj")
	stdout := mustRun(t, "components", in, "--seed", "3", "-o", colored)
	assert.Contains(t, stdout, "components: 2")
	m, err := mesh.NewFromFile(colored)
	require.NoError(t, err)
	assert.Equal(t, m.V.Rows, m.C.Rows)

	cleaned := filepath.Join(dir, "clean.obj")
	stdout = mustRun(t, "clean", colored, "-o", cleaned)
	assert.Contains(t, stdout, "vertices: ")
	m, err = mesh.NewFromFile(cleaned)
	require.NoError(t, err)
	assert.NoError(t, m.SanityCheck())
}

func TestDistance(t *testing.T) {
	dir := t.TempDir()
	low := filepath.Join(dir, "low.obj")
	high := filepath.Join(dir, "high.obj")
	mustRun(t, "create", "floor", "--size", "4", "-o", low)
	mustRun(t, "create", "floor", "--size", "4", "--y", "2", "-o", high)

	out := mustRun(t, "distance", high, low)
	assert.Contains(t, out, "min:  2\n")
	assert.Contains(t, out, "mean: 2\n")
	assert.Contains(t, out, "max:  2\n")
}
