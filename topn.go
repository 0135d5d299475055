// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sparsetopn

import (
	"math"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/sparsetopn/csr"
	"github.com/gomlx/sparsetopn/internal/kernels"
	"github.com/gomlx/sparsetopn/internal/workers"
)

// MatMulTopN computes C = top_n(A·B > threshold): per output row, the topN
// columns with the largest accumulated values, restricted to values strictly
// greater than the threshold (when WithThreshold is given; otherwise every
// value qualifies).
//
// Row entries appear in the order they were admitted to the top-N container,
// or in descending value order with WithSortedOutput. Ties on value are
// broken by the container's layout and are not deterministic across
// orderings; callers needing stable ties must post-process.
//
// Without a threshold the output is pre-sized exactly by the sizing pass.
// With one, the result size is unknown up front: the serial kernel reserves
// its buffers to ceil(density·topN·nrows) (see WithDensityHint) and grows them
// as needed, while the parallel kernel sizes its output from the per-row
// counts of its staging area.
func MatMulTopN[E csr.Element, I csr.Index](a, b *csr.Matrix[E, I], topN int, opts ...Option[E]) (*csr.Matrix[E, I], error) {
	cfg := newConfig(opts)
	if topN < 1 {
		return nil, errors.Errorf("topN must be at least 1, got %d", topN)
	}
	if !cfg.skipChecks {
		if err := checkPair(a, b); err != nil {
			return nil, err
		}
	}
	if a.Rows == 0 {
		return csr.Zeros[E, I](0, b.Cols), nil
	}
	if a.NNZ() == 0 || b.NNZ() == 0 {
		return csr.Zeros[E, I](a.Rows, b.Cols), nil
	}

	threshold := csr.Lowest[E]()
	if cfg.threshold != nil {
		threshold = *cfg.threshold
	}
	insertionOrder := !cfg.sorted
	nWorkers := cfg.workers()
	klog.V(2).Infof("sparsetopn.MatMulTopN: A %dx%d (nnz=%d) · B %dx%d (nnz=%d), topN=%d, thresholded=%t, workers=%d",
		a.Rows, a.Cols, a.NNZ(), b.Rows, b.Cols, b.NNZ(), topN, cfg.threshold != nil, nWorkers)

	var data []E
	var indPtr, indices []I
	if nWorkers > 1 {
		pool := workers.New(nWorkers)
		defer pool.Close()
		reserve := 0
		if cfg.threshold == nil {
			reserve = kernels.TopNSizeParallel(pool, topN, a.Rows, b.Cols,
				a.IndPtr, a.Indices, b.IndPtr, b.Indices)
		}
		data, indPtr, indices = kernels.MatMulTopNParallel(pool, topN, a.Rows, b.Cols,
			threshold, reserve, insertionOrder,
			a.Data, a.IndPtr, a.Indices, b.Data, b.IndPtr, b.Indices)
	} else {
		var reserve int
		if cfg.threshold == nil {
			reserve = kernels.TopNSize(topN, a.Rows, b.Cols,
				a.IndPtr, a.Indices, b.IndPtr, b.Indices)
		} else {
			reserve = int(math.Ceil(cfg.density * float64(topN) * float64(a.Rows)))
		}
		data, indPtr, indices = kernels.MatMulTopN(topN, a.Rows, b.Cols,
			threshold, reserve, insertionOrder,
			a.Data, a.IndPtr, a.Indices, b.Data, b.IndPtr, b.Indices)
	}
	return csr.NewUnchecked(a.Rows, b.Cols, data, indPtr, indices), nil
}
