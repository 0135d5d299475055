// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sparsetopn

import (
	"runtime"

	"github.com/gomlx/sparsetopn/csr"
)

// Option configures a product call. Options are generic on the element type
// because the threshold is expressed in it.
type Option[E csr.Element] func(*config[E])

type config[E csr.Element] struct {
	threshold   *E
	density     float64
	parallelism int
	sorted      bool
	skipChecks  bool
}

func newConfig[E csr.Element](opts []Option[E]) config[E] {
	cfg := config[E]{density: 1.0, parallelism: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// workers resolves the configured parallelism to a worker count:
// 1 means serial, values above 1 are used as-is, and negative values select
// runtime.NumCPU().
func (cfg *config[E]) workers() int {
	if cfg.parallelism < 0 {
		return runtime.NumCPU()
	}
	return max(cfg.parallelism, 1)
}

// WithThreshold keeps only values strictly greater than t. Without it every
// accumulated value is a candidate and MatMulTopN pre-sizes its output with
// the exact sizing pass. Callers wanting "all values >= t" must pass the
// next-lower representable threshold.
func WithThreshold[E csr.Element](t E) Option[E] {
	return func(cfg *config[E]) { cfg.threshold = &t }
}

// WithDensityHint sets the expected density of the thresholded result in
// [0, 1]: the serial MatMulTopN kernel pre-reserves its output buffers to
// ceil(density·topN·nrows) entries and grows them when the estimate is short.
// It only matters together with WithThreshold; the default is 1 (the worst
// case). Ignored by MatMul and by the parallel MatMulTopN kernel, which sizes
// its output from the per-row counts.
func WithDensityHint[E csr.Element](density float64) Option[E] {
	return func(cfg *config[E]) { cfg.density = density }
}

// WithParallelism runs the kernel on a fixed pool of n workers partitioning
// the rows. 0 and 1 select the serial kernel; negative values (e.g. -1)
// select runtime.NumCPU().
// The worker-to-row assignment never changes output values, only the layout
// of value ties.
func WithParallelism[E csr.Element](n int) Option[E] {
	return func(cfg *config[E]) { cfg.parallelism = n }
}

// WithSortedOutput orders each output row of MatMulTopN by descending value
// instead of the default admission (insertion) order. ZipMatMulTopN output
// is always value-sorted.
func WithSortedOutput[E csr.Element]() Option[E] {
	return func(cfg *config[E]) { cfg.sorted = true }
}

// WithoutValidation skips the CSR validation pass on the inputs. Use only
// with matrices already validated upstream: the kernels themselves never
// check their inputs and misbehave silently on malformed CSR.
func WithoutValidation[E csr.Element]() Option[E] {
	return func(cfg *config[E]) { cfg.skipChecks = true }
}
