// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package sparsetopn multiplies sparse CSR matrices while retaining, per
// output row, only the top-N largest values above a threshold.
//
// It is the numeric core of approximate cosine-similarity joins over
// tall-and-thin term-document matrices, where the unrestricted product A·B
// would produce intractable amounts of output. Three operations are exposed:
//
//   - MatMul: the exact sparse product C = A·B.
//   - MatMulTopN: C = top_n(A·B > threshold) per row, in insertion or
//     descending-value order.
//   - ZipMatMulTopN: the global top-N merge of stripe products A·B_j, for B
//     split column-wise (see csr.Matrix.ColumnSplit).
//
// All operations work for 32/64-bit signed integer and float elements and
// 32/64-bit signed indices. MatMul and MatMulTopN run serially or over a
// fixed worker pool (WithParallelism); ZipMatMulTopN always runs serially.
// Inputs are read-only during a call; rows of the result
// are independent, so serial and parallel runs produce the same
// (row, column, value) sets, differing at most in the layout of equal
// values.
package sparsetopn

import (
	"github.com/pkg/errors"

	"github.com/gomlx/sparsetopn/csr"
)

// checkPair validates A and B and their shape compatibility for A·B.
func checkPair[E csr.Element, I csr.Index](a, b *csr.Matrix[E, I]) error {
	if err := a.Check(); err != nil {
		return errors.WithMessage(err, "matrix A")
	}
	if err := b.Check(); err != nil {
		return errors.WithMessage(err, "matrix B")
	}
	if a.Cols != b.Rows {
		return errors.Errorf("incompatible shapes: A is %dx%d, B is %dx%d", a.Rows, a.Cols, b.Rows, b.Cols)
	}
	return nil
}
