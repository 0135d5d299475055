// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package csr implements the compressed sparse row (CSR) matrix representation
// used by the sparsetopn kernels.
//
// A CSR matrix stores only its nonzero entries: the values of row i live in
// Data[IndPtr[i]:IndPtr[i+1]], with the matching column indices in
// Indices[IndPtr[i]:IndPtr[i+1]]. Column indices within a row are not required
// to be sorted; the sparsetopn kernels never assume sorted inputs.
package csr

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Element is the set of numeric element types supported by the kernels.
type Element interface {
	int32 | int64 | float32 | float64
}

// Index is the set of integer types usable for row pointers and column
// indices. All index arrays of one matrix (and of one kernel call) share a
// single Index type.
type Index interface {
	int32 | int64
}

// Matrix is a sparse matrix in CSR form.
//
// Invariants (checked by Check):
//   - len(IndPtr) == Rows+1, IndPtr[0] == 0, IndPtr is nondecreasing and
//     IndPtr[Rows] == len(Data).
//   - len(Data) == len(Indices).
//   - every column index is in [0, Cols).
type Matrix[E Element, I Index] struct {
	Rows, Cols int

	Data    []E
	IndPtr  []I
	Indices []I
}

// New creates a CSR matrix from its raw components and validates it.
func New[E Element, I Index](rows, cols int, data []E, indPtr, indices []I) (*Matrix[E, I], error) {
	m := NewUnchecked(rows, cols, data, indPtr, indices)
	if err := m.Check(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewUnchecked creates a CSR matrix from its raw components without
// validation. Use when the components are known to be well-formed.
func NewUnchecked[E Element, I Index](rows, cols int, data []E, indPtr, indices []I) *Matrix[E, I] {
	return &Matrix[E, I]{Rows: rows, Cols: cols, Data: data, IndPtr: indPtr, Indices: indices}
}

// Zeros creates an all-zero (empty) matrix of the given shape.
func Zeros[E Element, I Index](rows, cols int) *Matrix[E, I] {
	if rows < 0 {
		rows = 0
	}
	return &Matrix[E, I]{Rows: rows, Cols: cols, IndPtr: make([]I, rows+1)}
}

// Check validates the CSR invariants. It returns an error describing the
// first violation found, or nil if the matrix is well-formed.
func (m *Matrix[E, I]) Check() error {
	if m.Rows < 0 || m.Cols < 0 {
		return errors.Errorf("csr: invalid shape %dx%d", m.Rows, m.Cols)
	}
	if len(m.IndPtr) != m.Rows+1 {
		return errors.Errorf("csr: len(IndPtr)=%d, want Rows+1=%d", len(m.IndPtr), m.Rows+1)
	}
	if m.IndPtr[0] != 0 {
		return errors.Errorf("csr: IndPtr[0]=%d, want 0", m.IndPtr[0])
	}
	if len(m.Data) != len(m.Indices) {
		return errors.Errorf("csr: len(Data)=%d does not match len(Indices)=%d", len(m.Data), len(m.Indices))
	}
	for i := 1; i < len(m.IndPtr); i++ {
		if m.IndPtr[i] < m.IndPtr[i-1] {
			return errors.Errorf("csr: IndPtr is decreasing at row %d (%d < %d)", i-1, m.IndPtr[i], m.IndPtr[i-1])
		}
	}
	if int(m.IndPtr[m.Rows]) != len(m.Data) {
		return errors.Errorf("csr: IndPtr[%d]=%d, want nnz=%d", m.Rows, m.IndPtr[m.Rows], len(m.Data))
	}
	for k, c := range m.Indices {
		if int(c) < 0 || int(c) >= m.Cols {
			return errors.Errorf("csr: column index %d at position %d is out of range [0, %d)", c, k, m.Cols)
		}
	}
	return nil
}

// NNZ returns the number of stored entries.
func (m *Matrix[E, I]) NNZ() int { return len(m.Data) }

// RowNNZ returns the number of stored entries of row i.
func (m *Matrix[E, I]) RowNNZ(i int) int {
	return int(m.IndPtr[i+1] - m.IndPtr[i])
}

// Clone returns a deep copy of the matrix.
func (m *Matrix[E, I]) Clone() *Matrix[E, I] {
	c := &Matrix[E, I]{
		Rows:    m.Rows,
		Cols:    m.Cols,
		Data:    make([]E, len(m.Data)),
		IndPtr:  make([]I, len(m.IndPtr)),
		Indices: make([]I, len(m.Indices)),
	}
	copy(c.Data, m.Data)
	copy(c.IndPtr, m.IndPtr)
	copy(c.Indices, m.Indices)
	return c
}

// FromDense converts a row-major dense matrix to CSR, dropping zeros.
// len(dense) must be rows*cols.
func FromDense[E Element, I Index](rows, cols int, dense []E) (*Matrix[E, I], error) {
	if len(dense) != rows*cols {
		return nil, errors.Errorf("csr: dense data has %d elements, want %d (%dx%d)", len(dense), rows*cols, rows, cols)
	}
	m := &Matrix[E, I]{Rows: rows, Cols: cols, IndPtr: make([]I, rows+1)}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := dense[i*cols+j]; v != 0 {
				m.Data = append(m.Data, v)
				m.Indices = append(m.Indices, I(j))
			}
		}
		m.IndPtr[i+1] = I(len(m.Data))
	}
	return m, nil
}

// Dense returns the matrix as a row-major dense slice of Rows*Cols elements.
// Duplicate column entries within a row are summed.
func (m *Matrix[E, I]) Dense() []E {
	dense := make([]E, m.Rows*m.Cols)
	for i := 0; i < m.Rows; i++ {
		for k := m.IndPtr[i]; k < m.IndPtr[i+1]; k++ {
			dense[i*m.Cols+int(m.Indices[k])] += m.Data[k]
		}
	}
	return dense
}

// ColumnSplit splits the matrix column-wise into len(widths) stripes, where
// stripe j holds the columns [sum(widths[:j]), sum(widths[:j+1])). The widths
// must be positive and sum to Cols. Within each row the stripe preserves the
// stored entry order. Stripe products are the input to sparsetopn's zip merge.
func (m *Matrix[E, I]) ColumnSplit(widths ...int) ([]*Matrix[E, I], error) {
	if len(widths) == 0 {
		return nil, errors.Errorf("csr: ColumnSplit requires at least one stripe width")
	}
	prefix := make([]int, len(widths)+1)
	for j, w := range widths {
		if w <= 0 {
			return nil, errors.Errorf("csr: stripe width %d at position %d is not positive", w, j)
		}
		prefix[j+1] = prefix[j] + w
	}
	if prefix[len(widths)] != m.Cols {
		return nil, errors.Errorf("csr: stripe widths sum to %d, want Cols=%d", prefix[len(widths)], m.Cols)
	}

	stripes := make([]*Matrix[E, I], len(widths))
	for j, w := range widths {
		stripes[j] = &Matrix[E, I]{Rows: m.Rows, Cols: w, IndPtr: make([]I, m.Rows+1)}
	}
	for i := 0; i < m.Rows; i++ {
		for k := m.IndPtr[i]; k < m.IndPtr[i+1]; k++ {
			c := int(m.Indices[k])
			j := sort.Search(len(widths), func(s int) bool { return prefix[s+1] > c })
			stripes[j].Data = append(stripes[j].Data, m.Data[k])
			stripes[j].Indices = append(stripes[j].Indices, I(c-prefix[j]))
		}
		for j := range stripes {
			stripes[j].IndPtr[i+1] = I(len(stripes[j].Data))
		}
	}
	return stripes, nil
}

// Lowest returns the smallest representable value of E: the most negative
// integer or the negative of the largest finite float.
func Lowest[E Element]() (low E) {
	switch p := any(&low).(type) {
	case *int32:
		*p = math.MinInt32
	case *int64:
		*p = math.MinInt64
	case *float32:
		*p = -math.MaxFloat32
	case *float64:
		*p = -math.MaxFloat64
	}
	return
}
