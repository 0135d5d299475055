// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import (
	"github.com/gomlx/sparsetopn/csr"
)

// ZipTopN merges the per-stripe products C_j = top_n(A·B_j), for B split
// column-wise into stripes of widths bNCols, into a single CSR holding the
// global per-row top-N. Column indices of stripe j are shifted by the prefix
// sum of the preceding stripe widths, so output columns live in
// [0, sum(bNCols)).
//
// The stripes were already threshold-filtered, so the heap admits everything:
// its initial value is the lowest representable E. Stripes are visited in
// reverse order, mirroring the newest-first linked-list traversal of the
// SMMP kernels, which keeps tie-breaking across stripes consistent with the
// unsplit product. Output rows are sorted by descending value.
func ZipTopN[E csr.Element, I csr.Index](topN, nrows int, bNCols []int, partsData [][]E, partsIndPtr, partsIndices [][]I) ([]E, []I, []I) {
	nMat := len(partsData)
	offset := make([]I, nMat)
	totalNNZ := 0
	for j := 1; j < nMat; j++ {
		offset[j] = offset[j-1] + I(bNCols[j-1])
	}
	for j := 0; j < nMat; j++ {
		totalNNZ += len(partsData[j])
	}

	zIndPtr := make([]I, nrows+1)
	maxNNZ := min(nrows*topN, totalNNZ)
	zData := make([]E, 0, maxNNZ)
	zIndices := make([]I, 0, maxNNZ)

	heap := NewMaxHeap[E, I](topN, csr.Lowest[E]())
	for i := 0; i < nrows; i++ {
		minVal := heap.Reset()
		for j := nMat - 1; j >= 0; j-- {
			indPtr := partsIndPtr[j]
			data := partsData[j]
			indices := partsIndices[j]
			for k := indPtr[i]; k < indPtr[i+1]; k++ {
				if val := data[k]; val > minVal {
					minVal = heap.PushPop(offset[j]+indices[k], val)
				}
			}
		}
		heap.ValueSort()
		for _, s := range heap.Entries()[:heap.NSet()] {
			zData = append(zData, s.Val)
			zIndices = append(zIndices, s.Idx)
		}
		zIndPtr[i+1] = I(len(zData))
	}
	return zData, zIndPtr, zIndices
}
