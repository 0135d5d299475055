// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package kernels holds the numeric kernels behind the sparsetopn public API:
// the bounded top-N MaxHeap, the SMMP (Gustavson) row accumulator and its
// sizing passes, and the serial and parallel matmul / top-N / zip kernels.
//
// Everything here is a hot path: inputs are trusted (the public API validates
// them), and scratch buffers are strictly per worker, allocated once per call
// and reused across rows. The per-row sorts and the growable serial outputs
// may still allocate.
package kernels

import (
	"math"
	"sort"

	"github.com/gomlx/sparsetopn/csr"
)

// Score is one candidate retained by a MaxHeap: a column index, the
// accumulated value, and the sequence number of its admission. Order is used
// to restore the admission order on output; sentinel entries use
// Order == math.MaxInt32 so they sort after every real entry.
type Score[E csr.Element, I csr.Index] struct {
	Order int32
	Idx   I
	Val   E
}

const sentinelOrder = math.MaxInt32

// MaxHeap retains the n largest values pushed into it. Internally it is a
// min-heap on Val: the root is the smallest retained value, which doubles as
// the admission threshold. Ties on Val are broken by heap layout, not by
// insertion order.
type MaxHeap[E csr.Element, I csr.Index] struct {
	entries []Score[E, I]
	nSet    int
	initial E
}

// NewMaxHeap creates a heap of capacity n, pre-filled with sentinel entries
// holding the initial value. Using the filtering threshold as initial value
// makes the admission test (val > current minimum) implement strict
// thresholding for free.
func NewMaxHeap[E csr.Element, I csr.Index](n int, initial E) *MaxHeap[E, I] {
	h := &MaxHeap[E, I]{
		entries: make([]Score[E, I], n),
		initial: initial,
	}
	h.Reset()
	return h
}

// Reset restores all entries to the sentinel value without reallocating and
// returns the initial value, which is the admission threshold of the fresh
// heap. Must be called after a sort invalidated the heap.
func (h *MaxHeap[E, I]) Reset() E {
	for i := range h.entries {
		h.entries[i] = Score[E, I]{Order: sentinelOrder, Idx: -1, Val: h.initial}
	}
	h.nSet = 0
	return h.initial
}

// NSet returns the number of real (non-sentinel) entries.
func (h *MaxHeap[E, I]) NSet() int {
	return min(len(h.entries), h.nSet)
}

// PushPop replaces the current minimum with (idx, val) and returns the new
// minimum, which the caller uses as the updated admission threshold. The
// caller must only push values strictly greater than the current minimum.
func (h *MaxHeap[E, I]) PushPop(idx I, val E) E {
	h.entries[0] = Score[E, I]{Order: int32(h.nSet), Idx: idx, Val: val}
	h.nSet++
	h.siftDown(0)
	return h.entries[0].Val
}

// siftDown restores the min-heap property from position i downwards.
func (h *MaxHeap[E, I]) siftDown(i int) {
	n := len(h.entries)
	for {
		smallest := i
		if l := 2*i + 1; l < n && h.entries[l].Val < h.entries[smallest].Val {
			smallest = l
		}
		if r := 2*i + 2; r < n && h.entries[r].Val < h.entries[smallest].Val {
			smallest = r
		}
		if smallest == i {
			return
		}
		h.entries[i], h.entries[smallest] = h.entries[smallest], h.entries[i]
		i = smallest
	}
}

// InsertionSort orders the entries by admission sequence, real entries first.
// It invalidates the heap: only Entries and Reset may be used afterwards.
func (h *MaxHeap[E, I]) InsertionSort() {
	sort.Slice(h.entries, func(a, b int) bool {
		return h.entries[a].Order < h.entries[b].Order
	})
}

// ValueSort orders the entries by descending value. It invalidates the heap:
// only Entries and Reset may be used afterwards.
func (h *MaxHeap[E, I]) ValueSort() {
	sort.Slice(h.entries, func(a, b int) bool {
		return h.entries[a].Val > h.entries[b].Val
	})
}

// Entries exposes the backing buffer. After InsertionSort or ValueSort the
// first NSet entries are the retained results.
func (h *MaxHeap[E, I]) Entries() []Score[E, I] {
	return h.entries
}
