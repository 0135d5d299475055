// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// sparsetopn-bench exercises the sparsetopn kernels on randomly generated
// tall-and-thin matrices: the shape of approximate cosine-similarity joins,
// where every row of A and every column of B is a unit-normalized document
// vector.
//
// It times the serial and parallel top-N product, optionally the column
// stripe split + zip pipeline, and cross-checks the stripe result against
// the direct product.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/gomlx/sparsetopn"
	"github.com/gomlx/sparsetopn/csr"
)

var (
	flagRows      = flag.Int("rows", 20_000, "number of rows of A (documents on the left side)")
	flagCols      = flag.Int("cols", 20_000, "number of columns of B (documents on the right side)")
	flagInner     = flag.Int("inner", 1_000, "shared dimension (vocabulary size)")
	flagDensity   = flag.Float64("density", 0.01, "density of the generated matrices")
	flagTopN      = flag.Int("topn", 10, "number of results to keep per row")
	flagThreshold = flag.Float64("threshold", 0.0, "keep only values strictly above this")
	flagThreads   = flag.Int("threads", -1, "worker count for the parallel runs, -1 for all CPUs")
	flagStripes   = flag.Int("stripes", 0, "split B into this many column stripes and zip (0 disables)")
	flagRepeats   = flag.Int("repeats", 5, "timed repetitions per kernel")
	flagNormalize = flag.Bool("normalize", true, "L2-normalize A rows and B columns (cosine similarity)")
	flagSeed      = flag.Int64("seed", 42, "rng seed")
)

func main() {
	klog.InitFlags(nil)
	cmd := &cobra.Command{
		Use:   "sparsetopn-bench",
		Short: "benchmark the sparsetopn kernels on random cosine-similarity workloads",
		Args:  cobra.NoArgs,
		RunE:  func(_ *cobra.Command, _ []string) error { return run() },
	}
	cmd.Flags().AddGoFlagSet(flag.CommandLine)
	must.M(cmd.Execute())
}

func run() error {
	rng := rand.New(rand.NewSource(*flagSeed))
	fmt.Printf("A: %s x %s, B: %s x %s, density %g, topN %d\n",
		humanize.Comma(int64(*flagRows)), humanize.Comma(int64(*flagInner)),
		humanize.Comma(int64(*flagInner)), humanize.Comma(int64(*flagCols)),
		*flagDensity, *flagTopN)

	a := randomCSR(rng, *flagRows, *flagInner, *flagDensity)
	b := randomCSR(rng, *flagInner, *flagCols, *flagDensity)
	if *flagNormalize {
		normalizeRows(a)
		normalizeCols(b)
	}
	fmt.Printf("generated: nnz(A)=%s, nnz(B)=%s, inputs ~%s\n",
		humanize.Comma(int64(a.NNZ())), humanize.Comma(int64(b.NNZ())),
		humanize.Bytes(uint64(8*(a.NNZ()+b.NNZ())*2)))

	opts := []sparsetopn.Option[float64]{
		sparsetopn.WithThreshold(*flagThreshold),
		sparsetopn.WithSortedOutput[float64](),
		sparsetopn.WithoutValidation[float64](),
	}

	c := benchKernel("serial", a, b, opts)
	c = benchKernel(fmt.Sprintf("parallel(%d)", *flagThreads), a, b,
		append(opts, sparsetopn.WithParallelism[float64](*flagThreads)))

	if *flagStripes > 1 {
		checkZip(a, b, c, opts)
	}
	return nil
}

// benchKernel runs MatMulTopN repeatedly and reports the best wall time and
// the effective rate of accumulator updates.
func benchKernel(name string, a, b *csr.Matrix[float64, int32], opts []sparsetopn.Option[float64]) *csr.Matrix[float64, int32] {
	var c *csr.Matrix[float64, int32]
	best := time.Duration(math.MaxInt64)
	bar := progressbar.Default(int64(*flagRepeats), name)
	for i := 0; i < *flagRepeats; i++ {
		start := time.Now()
		c = must.M1(sparsetopn.MatMulTopN(a, b, *flagTopN, opts...))
		if elapsed := time.Since(start); elapsed < best {
			best = elapsed
		}
		must.M(bar.Add(1))
	}
	must.M(bar.Finish())
	updates := patternWork(a, b)
	fmt.Printf("%-14s best %v, nnz(C)=%s, %s updates/s\n",
		name+":", best.Round(time.Microsecond), humanize.Comma(int64(c.NNZ())),
		humanize.SIWithDigits(float64(updates)/best.Seconds(), 2, ""))
	return c
}

// checkZip runs the stripe pipeline and verifies it reproduces the direct
// product.
func checkZip(a, b, direct *csr.Matrix[float64, int32], opts []sparsetopn.Option[float64]) {
	widths := stripeWidths(b.Cols, *flagStripes)
	stripes := must.M1(b.ColumnSplit(widths...))
	parts := make([]*csr.Matrix[float64, int32], len(stripes))
	start := time.Now()
	for j, stripe := range stripes {
		parts[j] = must.M1(sparsetopn.MatMulTopN(a, stripe, *flagTopN,
			append(opts, sparsetopn.WithParallelism[float64](*flagThreads))...))
	}
	z := must.M1(sparsetopn.ZipMatMulTopN(*flagTopN, parts))
	elapsed := time.Since(start)

	mismatches := 0
	for i := 0; i < z.Rows; i++ {
		if !rowsMatch(direct, z, i) {
			mismatches++
		}
	}
	fmt.Printf("zip(%d):        %v, nnz(Z)=%s, %d mismatching rows\n",
		*flagStripes, elapsed.Round(time.Microsecond), humanize.Comma(int64(z.NNZ())), mismatches)
	if mismatches > 0 {
		klog.Errorf("stripe pipeline disagrees with the direct product on %d rows", mismatches)
	}
}

// rowsMatch compares row i of two value-sorted results within tolerance.
// Value ties may legitimately reorder columns, so only values are compared.
func rowsMatch(x, y *csr.Matrix[float64, int32], i int) bool {
	xs, xe := x.IndPtr[i], x.IndPtr[i+1]
	ys, ye := y.IndPtr[i], y.IndPtr[i+1]
	if xe-xs != ye-ys {
		return false
	}
	for k := int32(0); k < xe-xs; k++ {
		if math.Abs(x.Data[xs+k]-y.Data[ys+k]) > 1e-9 {
			return false
		}
	}
	return true
}

func stripeWidths(cols, stripes int) []int {
	widths := make([]int, stripes)
	base, extra := cols/stripes, cols%stripes
	for j := range widths {
		widths[j] = base
		if j < extra {
			widths[j]++
		}
	}
	return widths
}

// patternWork counts the multiply-add updates of one product: for every
// stored entry (i, j) of A, the number of stored entries of row j of B.
func patternWork(a, b *csr.Matrix[float64, int32]) int64 {
	var updates int64
	for _, j := range a.Indices {
		updates += int64(b.RowNNZ(int(j)))
	}
	return updates
}

// randomCSR draws each entry independently with the given density, values
// uniform in (0, 1).
func randomCSR(rng *rand.Rand, rows, cols int, density float64) *csr.Matrix[float64, int32] {
	m := &csr.Matrix[float64, int32]{Rows: rows, Cols: cols, IndPtr: make([]int32, rows+1)}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if rng.Float64() < density {
				m.Data = append(m.Data, rng.Float64())
				m.Indices = append(m.Indices, int32(j))
			}
		}
		m.IndPtr[i+1] = int32(len(m.Data))
	}
	return m
}

// normalizeRows scales every row to unit L2 norm.
func normalizeRows(m *csr.Matrix[float64, int32]) {
	for i := 0; i < m.Rows; i++ {
		var sumSq float64
		for k := m.IndPtr[i]; k < m.IndPtr[i+1]; k++ {
			sumSq += m.Data[k] * m.Data[k]
		}
		if sumSq == 0 {
			continue
		}
		inv := 1 / math.Sqrt(sumSq)
		for k := m.IndPtr[i]; k < m.IndPtr[i+1]; k++ {
			m.Data[k] *= inv
		}
	}
}

// normalizeCols scales every column to unit L2 norm.
func normalizeCols(m *csr.Matrix[float64, int32]) {
	sumSq := make([]float64, m.Cols)
	for k, c := range m.Indices {
		sumSq[c] += m.Data[k] * m.Data[k]
	}
	inv := make([]float64, m.Cols)
	for c, s := range sumSq {
		if s > 0 {
			inv[c] = 1 / math.Sqrt(s)
		}
	}
	for k, c := range m.Indices {
		m.Data[k] *= inv[c]
	}
}
