package classifier

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/pable/go-data-pipelines/internal/textproc"
)

// DefaultEstimators and DefaultNGramMax span the default search grid.
var (
	DefaultEstimators = []int{10, 50, 100}
	DefaultNGramMax   = []int{1, 2}
)

// Grid returns the cartesian product of estimators and n-gram bounds,
// estimators varying slowest.
func Grid(estimators, ngramMax []int) []Params {
	out := make([]Params, 0, len(estimators)*len(ngramMax))
	for _, e := range estimators {
		for _, n := range ngramMax {
			out = append(out, Params{NGramMax: n, Estimators: e})
		}
	}
	return out
}

// CVScore is the cross-validated score of one grid point.
type CVScore struct {
	Params Params        `json:"params"`
	Folds  []float64     `json:"folds"`
	Mean   float64       `json:"mean"`
	Std    float64       `json:"std"`
	Rank   int           `json:"rank"`
	Fit    time.Duration `json:"fit_time"`
}

// SearchResult holds all grid scores and the winner.
type SearchResult struct {
	Scores    []CVScore `json:"scores"`
	BestIndex int       `json:"best_index"`
}

// Best returns the winning parameters.
func (r *SearchResult) Best() Params { return r.Scores[r.BestIndex].Params }

// SearchOptions configures GridSearch.
type SearchOptions struct {
	Folds     int
	Fit       FitOptions
	Labels    []string
	Tokenizer *textproc.Tokenizer
	Logger    *zap.Logger
}

// GridSearch scores every grid point by k-fold subset accuracy over docs.
// The best point has the highest mean; ties keep the earlier grid point.
func GridSearch(ctx context.Context, docs [][]string, y [][]uint8, grid []Params, opts SearchOptions) (*SearchResult, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("grid search: empty grid")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	folds, err := KFold(len(docs), opts.Folds)
	if err != nil {
		return nil, fmt.Errorf("grid search: %w", err)
	}

	res := &SearchResult{Scores: make([]CVScore, len(grid))}
	for gi, params := range grid {
		start := time.Now()
		score := CVScore{Params: params, Folds: make([]float64, len(folds))}
		for fi, fold := range folds {
			p := NewPipeline(params, opts.Labels, opts.Tokenizer)
			if err := p.FitTokens(ctx, subsetTokens(docs, fold.Train), subsetLabels(y, fold.Train), opts.Fit); err != nil {
				return nil, fmt.Errorf("grid search %s fold %d: %w", params, fi, err)
			}
			pred := p.PredictTokens(subsetTokens(docs, fold.Test))
			score.Folds[fi] = SubsetAccuracy(subsetLabels(y, fold.Test), pred)
		}
		score.Mean, score.Std = meanStd(score.Folds)
		score.Fit = time.Since(start)
		res.Scores[gi] = score
		log.Info("grid point scored",
			zap.Stringer("params", params),
			zap.Float64("mean_score", score.Mean),
			zap.Float64("std_score", score.Std),
			zap.Duration("elapsed", score.Fit),
		)
		if score.Mean > res.Scores[res.BestIndex].Mean {
			res.BestIndex = gi
		}
	}
	rank(res.Scores)
	return res, nil
}

// rank assigns 1 to the highest mean; equal means share the lower rank.
func rank(scores []CVScore) {
	for i := range scores {
		r := 1
		for j := range scores {
			if scores[j].Mean > scores[i].Mean {
				r++
			}
		}
		scores[i].Rank = r
	}
}

func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}
