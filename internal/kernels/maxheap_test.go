// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxHeapRetainsLargest(t *testing.T) {
	h := NewMaxHeap[float64, int32](3, 0.0)
	minVal := h.Reset()
	assert.Equal(t, 0.0, minVal)
	assert.Zero(t, h.NSet())

	// Push five values through a capacity-3 heap: the three largest survive.
	for i, val := range []float64{1, 5, 3, 4, 2} {
		if val > minVal {
			minVal = h.PushPop(int32(i), val)
		}
	}
	// 2 was not admitted (2 <= 3, the minimum after the first four pushes).
	assert.Equal(t, 3.0, minVal)
	assert.Equal(t, 3, h.NSet())

	h.ValueSort()
	entries := h.Entries()[:h.NSet()]
	require.Len(t, entries, 3)
	assert.Equal(t, []float64{5, 4, 3}, []float64{entries[0].Val, entries[1].Val, entries[2].Val})
	assert.Equal(t, []int32{1, 3, 2}, []int32{entries[0].Idx, entries[1].Idx, entries[2].Idx})
}

func TestMaxHeapInsertionSort(t *testing.T) {
	h := NewMaxHeap[float64, int32](4, 0.0)
	minVal := h.Reset()
	for i, val := range []float64{2, 9, 4} {
		if val > minVal {
			minVal = h.PushPop(int32(10+i), val)
		}
	}
	h.InsertionSort()
	entries := h.Entries()[:h.NSet()]
	require.Len(t, entries, 3)
	// Admission order, not value order.
	assert.Equal(t, []int32{10, 11, 12}, []int32{entries[0].Idx, entries[1].Idx, entries[2].Idx})
	assert.Equal(t, []float64{2, 9, 4}, []float64{entries[0].Val, entries[1].Val, entries[2].Val})
}

func TestMaxHeapEvictionDropsEarlyAdmission(t *testing.T) {
	h := NewMaxHeap[float64, int32](2, 0.0)
	minVal := h.Reset()
	for i, val := range []float64{1, 2, 3} {
		if val > minVal {
			minVal = h.PushPop(int32(i), val)
		}
	}
	// 1 was admitted first and later evicted: insertion order lists the
	// survivors by admission sequence.
	h.InsertionSort()
	entries := h.Entries()[:h.NSet()]
	require.Len(t, entries, 2)
	assert.Equal(t, []int32{1, 2}, []int32{entries[0].Idx, entries[1].Idx})
}

func TestMaxHeapThresholdAsInitial(t *testing.T) {
	// Using the threshold as initial value rejects candidates <= threshold
	// without any explicit comparison at the call site beyond val > min.
	h := NewMaxHeap[float64, int32](3, 10.0)
	minVal := h.Reset()
	admitted := 0
	for i, val := range []float64{9, 10, 10.5, 20} {
		if val > minVal {
			minVal = h.PushPop(int32(i), val)
			admitted++
		}
	}
	assert.Equal(t, 2, admitted)
	assert.Equal(t, 2, h.NSet())
}

func TestMaxHeapReset(t *testing.T) {
	h := NewMaxHeap[int64, int64](2, 5)
	minVal := h.Reset()
	minVal = h.PushPop(0, 7)
	_ = h.PushPop(1, 9)
	h.ValueSort()
	require.Equal(t, 2, h.NSet())

	minVal = h.Reset()
	assert.Equal(t, int64(5), minVal)
	assert.Zero(t, h.NSet())
	for _, s := range h.Entries() {
		assert.Equal(t, int32(sentinelOrder), s.Order)
		assert.Equal(t, int64(-1), s.Idx)
		assert.Equal(t, int64(5), s.Val)
	}
}

func TestMaxHeapNSetCapped(t *testing.T) {
	h := NewMaxHeap[float64, int32](2, 0.0)
	minVal := h.Reset()
	for i, val := range []float64{1, 2, 3, 4, 5} {
		if val > minVal {
			minVal = h.PushPop(int32(i), val)
		}
	}
	// nSet counts admissions (5) but NSet is capped at capacity.
	assert.Equal(t, 2, h.NSet())
}
