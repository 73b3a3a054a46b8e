package classifier

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Forest is a bagged ensemble of trees for one binary label.
type Forest struct {
	Trees []*Tree `json:"trees"`
}

// Proba averages the class-1 probability over all trees.
func (f *Forest) Proba(r Row) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.Trees {
		sum += t.Proba(r)
	}
	return sum / float64(len(f.Trees))
}

// Predict returns 1 when the averaged probability is above one half.
func (f *Forest) Predict(r Row) uint8 {
	if f.Proba(r) > 0.5 {
		return 1
	}
	return 0
}

// MultiOutput holds one independent forest per label.
type MultiOutput struct {
	Forests []*Forest `json:"forests"`
}

// ForestOptions controls forest fitting.
type ForestOptions struct {
	Estimators int
	Seed       uint64
	// Jobs bounds the number of trees grown concurrently. 0 uses every CPU.
	Jobs int
}

// treeRNG derives the generator for one tree from the run seed and the
// tree's (label, index) position, so results do not depend on scheduling.
func treeRNG(seed uint64, label, tree int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(label)<<32|uint64(tree)))
}

// FitMultiOutput grows opts.Estimators trees for every label column of y.
func FitMultiOutput(ctx context.Context, x Matrix, y [][]uint8, opts ForestOptions) (*MultiOutput, error) {
	if len(x.Rows) == 0 {
		return nil, fmt.Errorf("fit forests: no samples")
	}
	if len(y) != len(x.Rows) {
		return nil, fmt.Errorf("fit forests: %d label rows for %d samples", len(y), len(x.Rows))
	}
	if opts.Estimators < 1 {
		return nil, fmt.Errorf("fit forests: estimators must be positive, got %d", opts.Estimators)
	}
	nLabels := len(y[0])
	cols := toColumns(x)

	labels := make([][]uint8, nLabels)
	for l := range labels {
		labels[l] = column(y, l)
	}

	m := &MultiOutput{Forests: make([]*Forest, nLabels)}
	for l := range m.Forests {
		m.Forests[l] = &Forest{Trees: make([]*Tree, opts.Estimators)}
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for l := 0; l < nLabels; l++ {
		for t := 0; t < opts.Estimators; t++ {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				m.Forests[l].Trees[t] = growTree(cols, x.Rows, labels[l], treeRNG(opts.Seed, l, t))
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit forests: %w", err)
	}
	return m, nil
}

// Predict returns one row of label predictions per input row.
func (m *MultiOutput) Predict(x Matrix) [][]uint8 {
	out := make([][]uint8, len(x.Rows))
	for i, r := range x.Rows {
		row := make([]uint8, len(m.Forests))
		for l, f := range m.Forests {
			row[l] = f.Predict(r)
		}
		out[i] = row
	}
	return out
}
