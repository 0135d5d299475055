// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sparsetopn_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomlx/sparsetopn/csr"
)

// entry is a sparse (column, value) pair used to describe test rows.
type entry struct {
	col int
	val float64
}

// makeCSR builds a validated CSR matrix from per-row entry lists.
func makeCSR(t *testing.T, rows [][]entry, cols int) *csr.Matrix[float64, int32] {
	t.Helper()
	m := &csr.Matrix[float64, int32]{Rows: len(rows), Cols: cols, IndPtr: make([]int32, len(rows)+1)}
	for i, row := range rows {
		for _, e := range row {
			m.Data = append(m.Data, e.val)
			m.Indices = append(m.Indices, int32(e.col))
		}
		m.IndPtr[i+1] = int32(len(m.Data))
	}
	require.NoError(t, m.Check())
	return m
}

// randomCSR generates a random matrix with roughly the given density of
// nonzero entries, values uniform in (-1, 1).
func randomCSR(rng *rand.Rand, rows, cols int, density float64) *csr.Matrix[float64, int32] {
	m := &csr.Matrix[float64, int32]{Rows: rows, Cols: cols, IndPtr: make([]int32, rows+1)}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if rng.Float64() < density {
				m.Data = append(m.Data, 2*rng.Float64()-1)
				m.Indices = append(m.Indices, int32(j))
			}
		}
		m.IndPtr[i+1] = int32(len(m.Data))
	}
	return m
}

// denseMatMul is the reference product over dense row-major slices.
func denseMatMul(a, b []float64, m, k, n int) []float64 {
	c := make([]float64, m*n)
	for i := 0; i < m; i++ {
		for l := 0; l < k; l++ {
			if v := a[i*k+l]; v != 0 {
				for j := 0; j < n; j++ {
					c[i*n+j] += v * b[l*n+j]
				}
			}
		}
	}
	return c
}

// topNReference selects, from a dense row, the topN (column, value) pairs
// with the largest values strictly above threshold. Ties are not resolved:
// callers should use tie-free inputs.
func topNReference(row []float64, topN int, threshold float64) []entry {
	var candidates []entry
	for j, v := range row {
		if v != 0 && v > threshold {
			candidates = append(candidates, entry{col: j, val: v})
		}
	}
	sort.Slice(candidates, func(a, b int) bool { return candidates[a].val > candidates[b].val })
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}

// rowEntries extracts row i of a CSR matrix as (column, value) pairs in
// stored order.
func rowEntries(m *csr.Matrix[float64, int32], i int) []entry {
	var row []entry
	for k := m.IndPtr[i]; k < m.IndPtr[i+1]; k++ {
		row = append(row, entry{col: int(m.Indices[k]), val: m.Data[k]})
	}
	return row
}
