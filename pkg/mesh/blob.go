package mesh

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/exp/constraints"

	"github.com/Faultbox/meshview/internal/logger"
)

// Blob is an append-only writer over a preallocated matrix. It tracks one
// contiguous occupied range [start, end) and writes new blocks either right
// after it or at the start of the buffer, without reallocating.
//
// Index matrices (faces, edges) would need reindexing on insert, so only float
// matrices can be wrapped. A Blob is single-writer.
type Blob[T constraints.Float] struct {
	data         *Matrix[T]
	preallocated bool
	capacity     int
	start        int
	end          int
}

// NewBlob wraps data. The matrix is not touched until Preallocate.
func NewBlob[T constraints.Float](data *Matrix[T]) *Blob[T] {
	return &Blob[T]{data: data}
}

// Data returns the wrapped matrix.
func (b *Blob[T]) Data() *Matrix[T] {
	return b.data
}

// Preallocate resizes and zero-fills the backing matrix and resets the
// occupied range.
func (b *Blob[T]) Preallocate(rows, cols int) {
	b.data.Resize(rows, cols)
	b.preallocated = true
	b.capacity = rows
	b.start, b.end = 0, 0
}

// Reset forgets the preallocation. Owners call it when the wrapped matrix is
// resized behind the blob's back.
func (b *Blob[T]) Reset() {
	b.preallocated = false
	b.capacity = 0
	b.start, b.end = 0, 0
}

// check fails when the blob was never preallocated or the matrix no longer
// has the rows it was preallocated with, which would leave the occupied
// range pointing at unrelated rows.
func (b *Blob[T]) check() error {
	if !b.preallocated {
		return ErrNotPreallocated
	}
	if b.data.Rows != b.capacity {
		return errors.Wrapf(ErrNotPreallocated, "matrix resized from %d to %d rows", b.capacity, b.data.Rows)
	}
	return nil
}

// IsPreallocated reports whether Preallocate has been called.
func (b *Blob[T]) IsPreallocated() bool {
	return b.preallocated
}

// Allocated returns the occupied range [start, end).
func (b *Blob[T]) Allocated() (start, end int) {
	return b.start, b.end
}

// CopyInFirstEmptyBlock copies newData into the first block that fits: after
// the occupied range, else at the start of the buffer. When neither fits the
// block is dropped with a warning and false is returned; the buffer is left
// untouched.
func (b *Blob[T]) CopyInFirstEmptyBlock(newData *Matrix[T]) (bool, error) {
	if err := b.check(); err != nil {
		return false, err
	}
	if b.data.Cols != newData.Cols {
		return false, errors.Wrapf(ErrColumnMismatch, "blob has %d cols, new data has %d", b.data.Cols, newData.Cols)
	}

	n := newData.Rows
	emptyAtEnd := b.data.Rows - b.end
	emptyAtStart := b.start

	var at int
	switch {
	case emptyAtEnd >= n:
		at = b.end
		b.end += n
	case emptyAtStart >= n:
		// The gap between the new block and the old start is zero-filled, and
		// zero rows are invalid points, so the range can be widened to [0, end).
		at = 0
		b.start = 0
	default:
		logger.Warn("dropping block, no room left in preallocated data",
			zap.Int("rows", n),
			zap.Int("capacity", b.data.Rows),
			zap.Int("start_allocated", b.start),
			zap.Int("end_allocated", b.end),
		)
		return false, nil
	}

	copy(b.data.Data[at*b.data.Cols:(at+n)*b.data.Cols], newData.Data)
	return true, nil
}

// RecycleBlock zeroes rows [startRow, endRow) at the front of the occupied
// range and releases them for reuse.
func (b *Blob[T]) RecycleBlock(startRow, endRow int) error {
	if err := b.check(); err != nil {
		return err
	}
	if startRow != b.start || endRow < startRow || endRow > b.end {
		return errors.Errorf("recycle [%d,%d) is not a prefix of the occupied range [%d,%d)", startRow, endRow, b.start, b.end)
	}
	clear(b.data.Data[startRow*b.data.Cols : endRow*b.data.Cols])
	b.start = endRow
	if b.start == b.end {
		b.start, b.end = 0, 0
	}
	return nil
}
