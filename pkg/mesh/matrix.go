package mesh

import (
	"github.com/pkg/errors"
	"github.com/viterin/vek"
	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/spatial/r3"
)

// Scalar is the element type of an attribute matrix.
type Scalar interface {
	constraints.Integer | constraints.Float
}

// Matrix is a dense row-major 2D buffer. Rows are logical elements (vertices,
// faces, edges) and Cols the component count.
type Matrix[T Scalar] struct {
	Rows int
	Cols int
	Data []T
}

// MatrixD holds float64 attributes (positions, colors, normals, ...).
type MatrixD = Matrix[float64]

// MatrixI holds index and label attributes (faces, edges, labels, ...).
type MatrixI = Matrix[int]

// NewMatrix returns a zero-filled rows x cols matrix.
func NewMatrix[T Scalar](rows, cols int) Matrix[T] {
	return Matrix[T]{Rows: rows, Cols: cols, Data: make([]T, rows*cols)}
}

// MatrixFromRows builds a matrix from a slice of equally sized rows.
func MatrixFromRows[T Scalar](rows [][]T) Matrix[T] {
	if len(rows) == 0 {
		return Matrix[T]{}
	}
	m := NewMatrix[T](len(rows), len(rows[0]))
	for i, r := range rows {
		copy(m.Row(i), r)
	}
	return m
}

// IsEmpty reports whether the matrix has no rows.
func (m *Matrix[T]) IsEmpty() bool {
	return m.Rows == 0
}

// Size returns the number of stored elements.
func (m *Matrix[T]) Size() int {
	return m.Rows * m.Cols
}

// Resize changes the shape and zero-fills the contents. The backing array is
// reused when it is large enough.
func (m *Matrix[T]) Resize(rows, cols int) {
	n := rows * cols
	if cap(m.Data) >= n {
		m.Data = m.Data[:n]
	} else {
		m.Data = make([]T, n)
	}
	m.Rows, m.Cols = rows, cols
	m.SetZero()
}

// SetZero zeroes every element keeping the shape.
func (m *Matrix[T]) SetZero() {
	clear(m.Data)
}

// Clear resets the matrix to 0x0.
func (m *Matrix[T]) Clear() {
	m.Rows, m.Cols, m.Data = 0, 0, nil
}

// Row returns a mutable view of row i.
func (m *Matrix[T]) Row(i int) []T {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// At returns element (i, j).
func (m *Matrix[T]) At(i, j int) T {
	return m.Data[i*m.Cols+j]
}

// Set assigns element (i, j).
func (m *Matrix[T]) Set(i, j int, v T) {
	m.Data[i*m.Cols+j] = v
}

// Clone returns a deep copy.
func (m *Matrix[T]) Clone() Matrix[T] {
	out := Matrix[T]{Rows: m.Rows, Cols: m.Cols}
	if m.Data != nil {
		out.Data = append([]T(nil), m.Data...)
	}
	return out
}

// SelectRows returns a new matrix made of the given rows, in order.
func (m *Matrix[T]) SelectRows(rows []int) Matrix[T] {
	out := NewMatrix[T](len(rows), m.Cols)
	for i, r := range rows {
		copy(out.Row(i), m.Row(r))
	}
	return out
}

// AppendRows stacks other below m. An empty m adopts other's column count.
func (m *Matrix[T]) AppendRows(other *Matrix[T]) error {
	if other.Rows == 0 {
		return nil
	}
	if m.Rows == 0 {
		*m = other.Clone()
		return nil
	}
	if m.Cols != other.Cols {
		return errors.Wrapf(ErrColumnMismatch, "append rows: %d vs %d", m.Cols, other.Cols)
	}
	m.Data = append(m.Data, other.Data...)
	m.Rows += other.Rows
	return nil
}

// Col copies column j into a new slice.
func (m *Matrix[T]) Col(j int) []T {
	out := make([]T, m.Rows)
	for i := range out {
		out[i] = m.Data[i*m.Cols+j]
	}
	return out
}

// IsZeroRow reports whether every component of row i is zero.
func (m *Matrix[T]) IsZeroRow(i int) bool {
	for _, v := range m.Row(i) {
		if v != 0 {
			return false
		}
	}
	return true
}

// Scale multiplies every element of a float matrix in place.
func Scale(m *MatrixD, s float64) {
	if len(m.Data) == 0 {
		return
	}
	vek.MulNumber_Inplace(m.Data, s)
}

// vec3 reads row i of a 3-column matrix as a vector.
func vec3(m *MatrixD, i int) r3.Vec {
	r := m.Data[i*m.Cols : i*m.Cols+3]
	return r3.Vec{X: r[0], Y: r[1], Z: r[2]}
}

// setVec3 writes v into row i of a 3-column matrix.
func setVec3(m *MatrixD, i int, v r3.Vec) {
	r := m.Data[i*m.Cols : i*m.Cols+3]
	r[0], r[1], r[2] = v.X, v.Y, v.Z
}
