// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sparsetopn

import (
	"k8s.io/klog/v2"

	"github.com/gomlx/sparsetopn/csr"
	"github.com/gomlx/sparsetopn/internal/kernels"
	"github.com/gomlx/sparsetopn/internal/workers"
)

// MatMul computes the exact sparse product C = A·B.
//
// The result keeps only entries whose accumulated value is nonzero:
// cancellation inside a dot product never produces an explicit zero. Row
// entries appear in accumulator discovery order, not sorted by column.
// Threshold and ordering options are ignored; WithParallelism selects the
// parallel kernel.
func MatMul[E csr.Element, I csr.Index](a, b *csr.Matrix[E, I], opts ...Option[E]) (*csr.Matrix[E, I], error) {
	cfg := newConfig(opts)
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

	nWorkers := cfg.workers()
	klog.V(2).Infof("sparsetopn.MatMul: A %dx%d (nnz=%d) · B %dx%d (nnz=%d), workers=%d",
		a.Rows, a.Cols, a.NNZ(), b.Rows, b.Cols, b.NNZ(), nWorkers)

	var data []E
	var indPtr, indices []I
	if nWorkers > 1 {
		pool := workers.New(nWorkers)
		defer pool.Close()
		data, indPtr, indices = kernels.MatMulParallel(pool, a.Rows, b.Cols,
			a.Data, a.IndPtr, a.Indices, b.Data, b.IndPtr, b.Indices)
	} else {
		data, indPtr, indices = kernels.MatMul(a.Rows, b.Cols,
			a.Data, a.IndPtr, a.Indices, b.Data, b.IndPtr, b.Indices)
	}
	return csr.NewUnchecked(a.Rows, b.Cols, data, indPtr, indices), nil
}
