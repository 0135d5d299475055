// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import (
	"github.com/gomlx/sparsetopn/csr"
	"github.com/gomlx/sparsetopn/internal/workers"
)

// MatMul computes the exact sparse product C = A·B over one SMMP accumulator.
// A is nrows×k, B is k×ncols, both CSR; the result triplet is CSR with rows
// in SMMP discovery order (not column-sorted).
//
// Accumulated values that land exactly at zero (cancellation) are dropped, so
// the row pointers reflect the stored entries, not the sparsity pattern.
func MatMul[E csr.Element, I csr.Index](nrows, ncols int, aData []E, aIndPtr, aIndices []I, bData []E, bIndPtr, bIndices []I) ([]E, []I, []I) {
	cIndPtr := make([]I, nrows+1)
	patternNNZ := matMulSize(nrows, ncols, aIndPtr, aIndices, bIndPtr, bIndices, cIndPtr)
	cData := make([]E, 0, patternNNZ)
	cIndices := make([]I, 0, patternNNZ)

	acc := newAccumulator[E, I](ncols)
	for i := 0; i < nrows; i++ {
		acc.scatterRow(i, aData, aIndPtr, aIndices, bData, bIndPtr, bIndices)
		acc.drain(func(col I, val E) {
			if val != 0 {
				cData = append(cData, val)
				cIndices = append(cIndices, col)
			}
		})
		cIndPtr[i+1] = I(len(cData))
	}
	return cData, cIndPtr, cIndices
}

// MatMulParallel is MatMul over a worker pool. The sizing pass fixes a
// per-row output region, each worker fills the regions of a disjoint row
// range with private scratch, and a serial compact pass closes the gaps left
// by cancelled (exactly zero) entries.
func MatMulParallel[E csr.Element, I csr.Index](pool *workers.Pool, nrows, ncols int, aData []E, aIndPtr, aIndices []I, bData []E, bIndPtr, bIndices []I) ([]E, []I, []I) {
	cIndPtr := make([]I, nrows+1)
	patternNNZ := matMulSizeParallel(pool, nrows, ncols, aIndPtr, aIndices, bIndPtr, bIndices, cIndPtr)
	cData := make([]E, patternNNZ)
	cIndices := make([]I, patternNNZ)
	rowNNZ := make([]I, nrows)

	pool.ParallelFor(nrows, func(start, end int) {
		acc := newAccumulator[E, I](ncols)
		for i := start; i < end; i++ {
			base := int(cIndPtr[i])
			n := 0
			acc.scatterRow(i, aData, aIndPtr, aIndices, bData, bIndPtr, bIndices)
			acc.drain(func(col I, val E) {
				if val != 0 {
					cData[base+n] = val
					cIndices[base+n] = col
					n++
				}
			})
			rowNNZ[i] = I(n)
		}
	})

	// Compact away the cancellation gaps and rewrite the row pointers to the
	// stored counts.
	nnz := 0
	nextBase := 0
	for i := 0; i < nrows; i++ {
		base := nextBase
		nextBase = int(cIndPtr[i+1])
		n := int(rowNNZ[i])
		if nnz != base {
			copy(cData[nnz:nnz+n], cData[base:base+n])
			copy(cIndices[nnz:nnz+n], cIndices[base:base+n])
		}
		nnz += n
		cIndPtr[i+1] = I(nnz)
	}
	return cData[:nnz], cIndPtr, cIndices[:nnz]
}
