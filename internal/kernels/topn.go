// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import (
	"github.com/gomlx/sparsetopn/csr"
	"github.com/gomlx/sparsetopn/internal/workers"
)

// MatMulTopN computes C = top_n(A·B > threshold) per row. Candidates are
// generated by the SMMP accumulator and filtered through a bounded MaxHeap
// whose root is the admission threshold; the admission test and the scratch
// clearing share the single drain pass over the touched columns.
//
// With insertionOrder true, row entries appear in the order they were first
// admitted to the heap; otherwise in descending value order. reserve is a
// capacity hint for the output buffers; they grow beyond it as needed.
func MatMulTopN[E csr.Element, I csr.Index](topN, nrows, ncols int, threshold E, reserve int, insertionOrder bool, aData []E, aIndPtr, aIndices []I, bData []E, bIndPtr, bIndices []I) ([]E, []I, []I) {
	cIndPtr := make([]I, nrows+1)
	cData := make([]E, 0, reserve)
	cIndices := make([]I, 0, reserve)

	acc := newAccumulator[E, I](ncols)
	heap := NewMaxHeap[E, I](topN, threshold)
	for i := 0; i < nrows; i++ {
		minVal := heap.Reset()
		acc.scatterRow(i, aData, aIndPtr, aIndices, bData, bIndPtr, bIndices)
		acc.drain(func(col I, val E) {
			if val > minVal {
				minVal = heap.PushPop(col, val)
			}
		})
		if insertionOrder {
			heap.InsertionSort()
		} else {
			heap.ValueSort()
		}
		for _, s := range heap.Entries()[:heap.NSet()] {
			cData = append(cData, s.Val)
			cIndices = append(cIndices, s.Idx)
		}
		cIndPtr[i+1] = I(len(cData))
	}
	return cData, cIndPtr, cIndices
}

// MatMulTopNParallel is MatMulTopN over a worker pool. Every row owns a fixed
// topN-wide slot in a dense staging area, so workers write disjoint regions
// without synchronization; a serial compact pass concatenates the first
// rowNSet[i] entries of each slot into the final CSR triplet. reserve, when
// positive, pre-sizes the compacted output (the exact sizing-pass bound);
// with reserve 0 the exact total is taken from the per-row counts.
func MatMulTopNParallel[E csr.Element, I csr.Index](pool *workers.Pool, topN, nrows, ncols int, threshold E, reserve int, insertionOrder bool, aData []E, aIndPtr, aIndices []I, bData []E, bIndPtr, bIndices []I) ([]E, []I, []I) {
	values := make([]E, nrows*topN)
	indices := make([]I, nrows*topN)
	rowNSet := make([]I, nrows)

	pool.ParallelFor(nrows, func(start, end int) {
		acc := newAccumulator[E, I](ncols)
		heap := NewMaxHeap[E, I](topN, threshold)
		for i := start; i < end; i++ {
			minVal := heap.Reset()
			acc.scatterRow(i, aData, aIndPtr, aIndices, bData, bIndPtr, bIndices)
			acc.drain(func(col I, val E) {
				if val > minVal {
					minVal = heap.PushPop(col, val)
				}
			})
			if insertionOrder {
				heap.InsertionSort()
			} else {
				heap.ValueSort()
			}
			nSet := heap.NSet()
			offset := i * topN
			for s, entry := range heap.Entries()[:nSet] {
				values[offset+s] = entry.Val
				indices[offset+s] = entry.Idx
			}
			rowNSet[i] = I(nSet)
		}
	})

	total := reserve
	if total == 0 {
		for _, n := range rowNSet {
			total += int(n)
		}
	}
	cData := make([]E, 0, total)
	cIndices := make([]I, 0, total)
	cIndPtr := make([]I, nrows+1)
	for i := 0; i < nrows; i++ {
		offset := i * topN
		n := int(rowNSet[i])
		cData = append(cData, values[offset:offset+n]...)
		cIndices = append(cIndices, indices[offset:offset+n]...)
		cIndPtr[i+1] = I(len(cData))
	}
	return cData, cIndPtr, cIndices
}
