// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sparsetopn

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/sparsetopn/csr"
	"github.com/gomlx/sparsetopn/internal/kernels"
)

// ZipMatMulTopN merges per-stripe top-N products into a single global top-N
// result.
//
// For a right-hand side B too wide to multiply in one go, callers split it
// column-wise (csr.Matrix.ColumnSplit), compute parts[j] = MatMulTopN(A, B_j)
// independently (possibly on different machines) and zip the parts back
// together. Stripe widths are taken from parts[j].Cols; column indices of
// stripe j are offset by the widths of the stripes before it, so the result
// has sum(parts[j].Cols) columns.
//
// Rows are emitted in descending value order; insertion-order output is not
// available here. Thresholds are not re-applied: each part was already
// filtered, and the merge preserves that property. Up to value ties the
// result equals MatMulTopN of the unsplit product.
func ZipMatMulTopN[E csr.Element, I csr.Index](topN int, parts []*csr.Matrix[E, I], opts ...Option[E]) (*csr.Matrix[E, I], error) {
	cfg := newConfig(opts)
	if topN < 1 {
		return nil, errors.Errorf("topN must be at least 1, got %d", topN)
	}
	if len(parts) == 0 {
		return nil, errors.Errorf("ZipMatMulTopN requires at least one part")
	}
	nrows := parts[0].Rows
	cols := 0
	bNCols := make([]int, len(parts))
	partsData := make([][]E, len(parts))
	partsIndPtr := make([][]I, len(parts))
	partsIndices := make([][]I, len(parts))
	for j, part := range parts {
		if !cfg.skipChecks {
			if err := part.Check(); err != nil {
				return nil, errors.WithMessagef(err, "part %d", j)
			}
		}
		if part.Rows != nrows {
			return nil, errors.Errorf("part %d has %d rows, want %d", j, part.Rows, nrows)
		}
		bNCols[j] = part.Cols
		cols += part.Cols
		partsData[j] = part.Data
		partsIndPtr[j] = part.IndPtr
		partsIndices[j] = part.Indices
	}
	if nrows == 0 {
		return csr.Zeros[E, I](0, cols), nil
	}

	klog.V(2).Infof("sparsetopn.ZipMatMulTopN: %d parts, %d rows, %d total columns, topN=%d",
		len(parts), nrows, cols, topN)

	data, indPtr, indices := kernels.ZipTopN(topN, nrows, bNCols, partsData, partsIndPtr, partsIndices)
	return csr.NewUnchecked(nrows, cols, data, indPtr, indices), nil
}
