package stream

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshview/pkg/mesh"
)

func collect(t *testing.T, input string, batchSize int) ([]mesh.MatrixD, error) {
	t.Helper()
	out := make(chan mesh.MatrixD, 16)
	err := ReadBatches(context.Background(), strings.NewReader(input), batchSize, out)
	close(out)
	var got []mesh.MatrixD
	for b := range out {
		got = append(got, b)
	}
	return got, err
}

func TestReadBatches(t *testing.T) {
	input := `# header
1 2 3
4 5 6 0.5 0.5 0.5

7 8 9
`
	got, err := collect(t, input, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Rows)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, got[0].Data)
	assert.Equal(t, 1, got[1].Rows)
	assert.Equal(t, 3, got[1].Cols)
	assert.Equal(t, []float64{7, 8, 9}, got[1].Data)
}

func TestReadBatchesErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"short line", "1 2 3\n4 5\n"},
		{"not a number", "1 2 x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := collect(t, tt.input, 8)
			assert.Error(t, err)
		})
	}
}

func TestReadBatchesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ReadBatches(ctx, strings.NewReader("1 2 3\n"), 1, make(chan mesh.MatrixD))
	assert.ErrorIs(t, err, context.Canceled)
}

func rows(n int, val float64) mesh.MatrixD {
	m := mesh.NewMatrix[float64](n, 3)
	for i := range m.Data {
		m.Data[i] = val
	}
	return m
}

func TestSinkRestartsWhenFull(t *testing.T) {
	m := mesh.New()
	s := NewSink(m, 5)
	require.Equal(t, 5, m.V.Rows)

	b := rows(2, 1)
	require.NoError(t, s.Append(&b))
	b = rows(2, 2)
	require.NoError(t, s.Append(&b))
	assert.Zero(t, s.Restarts())

	b = rows(2, 3)
	require.NoError(t, s.Append(&b))
	assert.Equal(t, 1, s.Restarts())
	start, end := m.VBlob().Allocated()
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, end)
	assert.Equal(t, []float64{3, 3, 3}, m.V.Row(0))
	assert.True(t, m.V.IsZeroRow(2))
	assert.True(t, m.Dirty)
}

func TestSinkDropsOversizedBatch(t *testing.T) {
	m := mesh.New()
	s := NewSink(m, 2)
	b := rows(3, 1)
	require.NoError(t, s.Append(&b))
	assert.Zero(t, s.Restarts())
	assert.True(t, m.V.IsZeroRow(0))

	wrong := mesh.NewMatrix[float64](1, 2)
	assert.ErrorIs(t, s.Append(&wrong), mesh.ErrColumnMismatch)
}
