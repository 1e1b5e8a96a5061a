package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/meshview/internal/logger"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger.SetLogger(zap.New(core))
	t.Cleanup(func() { logger.SetLogger(nil) })
	return logs
}

// block returns rows x 3 filled with val.
func block(rows int, val float64) MatrixD {
	m := NewMatrix[float64](rows, 3)
	for i := range m.Data {
		m.Data[i] = val
	}
	return m
}

func TestBlobRequiresPreallocation(t *testing.T) {
	var data MatrixD
	b := NewBlob(&data)
	blk := block(2, 1)

	ok, err := b.CopyInFirstEmptyBlock(&blk)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotPreallocated)
}

func TestBlobColumnMismatch(t *testing.T) {
	var data MatrixD
	b := NewBlob(&data)
	b.Preallocate(10, 3)
	blk := NewMatrix[float64](2, 2)

	ok, err := b.CopyInFirstEmptyBlock(&blk)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrColumnMismatch)
}

func TestBlobAppendAdvancesEnd(t *testing.T) {
	for _, n := range []int{1, 3, 7, 10} {
		var data MatrixD
		b := NewBlob(&data)
		b.Preallocate(10, 3)
		blk := block(n, 5)

		ok, err := b.CopyInFirstEmptyBlock(&blk)
		require.NoError(t, err)
		require.True(t, ok)

		start, end := b.Allocated()
		assert.Equal(t, 0, start)
		assert.Equal(t, n, end)
		for i := 0; i < 10; i++ {
			want := 0.0
			if i < n {
				want = 5
			}
			assert.Equal(t, []float64{want, want, want}, data.Row(i), "row %d", i)
		}
	}
}

func TestBlobDropsWhenNothingFits(t *testing.T) {
	logs := observeLogs(t)

	var data MatrixD
	b := NewBlob(&data)
	b.Preallocate(10, 3)

	for i, rows := range []int{4, 4} {
		blk := block(rows, float64(i+1))
		ok, err := b.CopyInFirstEmptyBlock(&blk)
		require.NoError(t, err)
		require.True(t, ok)
	}
	start, end := b.Allocated()
	require.Equal(t, [2]int{0, 8}, [2]int{start, end})

	before := data.Clone()
	third := block(3, 9)
	ok, err := b.CopyInFirstEmptyBlock(&third)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before.Data, data.Data)

	start, end = b.Allocated()
	assert.Equal(t, [2]int{0, 8}, [2]int{start, end})

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, int64(3), warnings[0].ContextMap()["rows"])
}

func TestBlobReusesStartAfterRecycle(t *testing.T) {
	var data MatrixD
	b := NewBlob(&data)
	b.Preallocate(10, 3)

	first := block(6, 1)
	ok, err := b.CopyInFirstEmptyBlock(&first)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, b.RecycleBlock(0, 4))
	start, end := b.Allocated()
	require.Equal(t, [2]int{4, 6}, [2]int{start, end})
	assert.True(t, data.IsZeroRow(0))

	// 4 free at the end, 4 free at the start: 3 rows go after the range.
	second := block(3, 2)
	ok, err = b.CopyInFirstEmptyBlock(&second)
	require.NoError(t, err)
	require.True(t, ok)
	start, end = b.Allocated()
	assert.Equal(t, [2]int{4, 9}, [2]int{start, end})

	// Only 1 left at the end, so 4 rows go to the start.
	third := block(4, 3)
	ok, err = b.CopyInFirstEmptyBlock(&third)
	require.NoError(t, err)
	require.True(t, ok)
	start, end = b.Allocated()
	assert.Equal(t, [2]int{0, 9}, [2]int{start, end})
	assert.Equal(t, []float64{3, 3, 3}, data.Row(0))
	assert.Equal(t, []float64{1, 1, 1}, data.Row(4))
	assert.Equal(t, []float64{2, 2, 2}, data.Row(8))
	assert.True(t, data.IsZeroRow(9))
}

func TestBlobRecycleRejectsNonPrefix(t *testing.T) {
	var data MatrixD
	b := NewBlob(&data)
	b.Preallocate(10, 3)
	blk := block(5, 1)
	_, err := b.CopyInFirstEmptyBlock(&blk)
	require.NoError(t, err)

	assert.Error(t, b.RecycleBlock(2, 4))
	assert.Error(t, b.RecycleBlock(0, 6))
	assert.NoError(t, b.RecycleBlock(0, 5))

	start, end := b.Allocated()
	assert.Equal(t, [2]int{0, 0}, [2]int{start, end})
}

func TestMeshAppendPoints(t *testing.T) {
	m := New()
	m.PreallocateV(10)
	m.Dirty = false

	pts := block(4, 1)
	ok, err := m.AppendPoints(&pts)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, m.Dirty)
	assert.Equal(t, 10, m.V.Rows)
	assert.True(t, m.VBlob().IsPreallocated())
}

func TestBlobRejectsResizedMatrix(t *testing.T) {
	var data MatrixD
	b := NewBlob(&data)
	b.Preallocate(6, 3)
	blk := block(2, 1)
	_, err := b.CopyInFirstEmptyBlock(&blk)
	require.NoError(t, err)

	data.Resize(3, 3)
	before := data.Clone()
	ok, err := b.CopyInFirstEmptyBlock(&blk)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotPreallocated)
	assert.Equal(t, before.Data, data.Data)
	assert.ErrorIs(t, b.RecycleBlock(0, 1), ErrNotPreallocated)

	b.Reset()
	assert.False(t, b.IsPreallocated())
}

func TestAppendPointsAfterVertexCountChanges(t *testing.T) {
	tests := []struct {
		name   string
		change func(t *testing.T, m *Mesh)
	}{
		{"remove duplicates", func(t *testing.T, m *Mesh) {
			require.NoError(t, m.VBlob().RecycleBlock(0, 3))
			m.RemoveDuplicateVertices()
		}},
		{"undo remove duplicates", func(t *testing.T, m *Mesh) {
			original, err := m.Clone()
			require.NoError(t, err)
			inverse := m.RemoveDuplicateVertices()
			m.PreallocateV(m.V.Rows)
			require.NoError(t, m.UndoRemoveDuplicateVertices(original, inverse))
		}},
		{"add", func(t *testing.T, m *Mesh) {
			other := New()
			other.V = MatrixFromRows([][]float64{{9, 9, 9}})
			require.NoError(t, m.Add(other))
		}},
		{"remove zero rows", func(t *testing.T, m *Mesh) {
			m.RemoveVerticesAtZero()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			m.PreallocateV(10)
			pts := MatrixFromRows([][]float64{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}, {4, 0, 0}})
			ok, err := m.AppendPoints(&pts)
			require.NoError(t, err)
			require.True(t, ok)

			tt.change(t, m)
			before := m.V.Clone()

			more := block(3, 7)
			ok, err = m.AppendPoints(&more)
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrNotPreallocated)
			assert.Equal(t, before.Data, m.V.Data)
			assert.False(t, m.VBlob().IsPreallocated())

			// Preallocating again restarts streaming.
			m.PreallocateV(5)
			ok, err = m.AppendPoints(&more)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}
