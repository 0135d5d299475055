// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import (
	"sync/atomic"

	"golang.org/x/exp/constraints"

	"github.com/gomlx/sparsetopn/csr"
	"github.com/gomlx/sparsetopn/internal/workers"
)

// emptyHead marks an empty column list. It must differ from the -1 sentinel
// used in the next array.
const emptyHead = -2

// accumulator is the SMMP (Gustavson) dense scratch pair used to expand one
// row of A·B: sums accumulates partial dot products per output column, and
// next threads the touched columns into a singly-linked stack so they can be
// visited and cleared in O(row-nnz) without ever scanning the full column
// range.
//
// An accumulator is owned by a single worker and reused across its rows; the
// drain pass restores both arrays to their initial state (sums all zero, next
// all -1) as it traverses the list.
type accumulator[E csr.Element, I csr.Index] struct {
	sums   []E
	next   []I
	head   I
	length int
}

func newAccumulator[E csr.Element, I csr.Index](ncols int) *accumulator[E, I] {
	acc := &accumulator[E, I]{
		sums: make([]E, ncols),
		next: make([]I, ncols),
	}
	fill(acc.next, -1)
	return acc
}

// scatterRow accumulates row i of A·B into the scratch arrays and records the
// touched columns in the linked list. Column discovery order is the traversal
// order of the rows of B, newest first.
func (acc *accumulator[E, I]) scatterRow(i int, aData []E, aIndPtr, aIndices []I, bData []E, bIndPtr, bIndices []I) {
	acc.head = emptyHead
	acc.length = 0
	for jj := aIndPtr[i]; jj < aIndPtr[i+1]; jj++ {
		j := aIndices[jj]
		v := aData[jj]
		for kk := bIndPtr[j]; kk < bIndPtr[j+1]; kk++ {
			k := bIndices[kk]
			acc.sums[k] += v * bData[kk]
			if acc.next[k] == -1 {
				acc.next[k] = acc.head
				acc.head = k
				acc.length++
			}
		}
	}
}

// drain walks the linked list built by scatterRow, calling emit for every
// touched column, and clears the scratch entries as it goes. After drain the
// accumulator is ready for the next row. emit must not touch the accumulator.
func (acc *accumulator[E, I]) drain(emit func(col I, val E)) {
	head := acc.head
	for i := 0; i < acc.length; i++ {
		col := head
		val := acc.sums[col]
		head = acc.next[col]
		acc.next[col] = -1
		acc.sums[col] = 0
		emit(col, val)
	}
	acc.head = emptyHead
	acc.length = 0
}

// rowPatternNNZ counts the distinct output columns of row i of A·B using the
// row-id watermark: mask[k] == i marks column k as seen for this row, which
// avoids per-row clears of the mask. mask must start filled with -1 and rows
// must be visited with distinct ids.
func rowPatternNNZ[I csr.Index](i int, mask []I, aIndPtr, aIndices, bIndPtr, bIndices []I) int {
	rowNNZ := 0
	for jj := aIndPtr[i]; jj < aIndPtr[i+1]; jj++ {
		j := aIndices[jj]
		for kk := bIndPtr[j]; kk < bIndPtr[j+1]; kk++ {
			k := bIndices[kk]
			if int(mask[k]) != i {
				mask[k] = I(i)
				rowNNZ++
			}
		}
	}
	return rowNNZ
}

// matMulSize computes the exact number of stored entries of each row of the
// A·B sparsity pattern, writes the cumulative counts into cIndPtr, and
// returns the total.
func matMulSize[I csr.Index](nrows, ncols int, aIndPtr, aIndices, bIndPtr, bIndices []I, cIndPtr []I) int {
	mask := make([]I, ncols)
	fill(mask, -1)
	nnz := 0
	cIndPtr[0] = 0
	for i := 0; i < nrows; i++ {
		nnz += rowPatternNNZ(i, mask, aIndPtr, aIndices, bIndPtr, bIndices)
		cIndPtr[i+1] = I(nnz)
	}
	return nnz
}

// matMulSizeParallel is matMulSize over a worker pool: each worker scans a
// disjoint row range with private mask scratch and stores per-row counts in
// cIndPtr[i+1]; the cumulative prefix sum runs serially after the join.
func matMulSizeParallel[I csr.Index](pool *workers.Pool, nrows, ncols int, aIndPtr, aIndices, bIndPtr, bIndices []I, cIndPtr []I) int {
	cIndPtr[0] = 0
	pool.ParallelFor(nrows, func(start, end int) {
		mask := make([]I, ncols)
		fill(mask, -1)
		for i := start; i < end; i++ {
			cIndPtr[i+1] = I(rowPatternNNZ(i, mask, aIndPtr, aIndices, bIndPtr, bIndices))
		}
	})
	for i := 1; i <= nrows; i++ {
		cIndPtr[i] += cIndPtr[i-1]
	}
	return int(cIndPtr[nrows])
}

// TopNSize returns an upper bound on the stored entries of the top-N product:
// min(topN, row pattern nnz) summed over the rows. The bound is exact when no
// threshold filtering applies. It does not produce cIndPtr; in the top-N path
// the row pointers are computed by the main kernel, because thresholding can
// reduce the stored count below the pattern count.
func TopNSize[I csr.Index](topN, nrows, ncols int, aIndPtr, aIndices, bIndPtr, bIndices []I) int {
	mask := make([]I, ncols)
	fill(mask, -1)
	nnz := 0
	for i := 0; i < nrows; i++ {
		nnz += min(topN, rowPatternNNZ(i, mask, aIndPtr, aIndices, bIndPtr, bIndices))
	}
	return nnz
}

// TopNSizeParallel is TopNSize over a worker pool.
func TopNSizeParallel[I csr.Index](pool *workers.Pool, topN, nrows, ncols int, aIndPtr, aIndices, bIndPtr, bIndices []I) int {
	var nnz atomic.Int64
	pool.ParallelFor(nrows, func(start, end int) {
		mask := make([]I, ncols)
		fill(mask, -1)
		total := 0
		for i := start; i < end; i++ {
			total += min(topN, rowPatternNNZ(i, mask, aIndPtr, aIndices, bIndPtr, bIndices))
		}
		nnz.Add(int64(total))
	})
	return int(nnz.Load())
}

// fill sets every element of s to v. Used to reset index scratch to its -1
// sentinel.
func fill[T constraints.Signed](s []T, v T) {
	for i := range s {
		s[i] = v
	}
}
