package classifier

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/pable/go-data-pipelines/internal/model"
	"github.com/pable/go-data-pipelines/internal/textproc"
)

// Options configure Train.
type Options struct {
	Seed     uint64
	TestSize float64
	Folds    int
	Grid     []Params
	Jobs     int

	Tokenizer *textproc.Tokenizer
	Logger    *zap.Logger
	// Out receives the stage progress lines. Nil discards them.
	Out io.Writer
}

// DefaultOptions mirror the reference training run.
func DefaultOptions() Options {
	return Options{
		Seed:     42,
		TestSize: 0.2,
		Folds:    5,
		Grid:     Grid(DefaultEstimators, DefaultNGramMax),
		Jobs:     1,
	}
}

// Result is the outcome of a training run.
type Result struct {
	Pipeline  *Pipeline
	Search    *SearchResult
	Reports   []LabelReport
	TrainSize int
	TestSize  int
}

// Train splits the table, grid-searches the pipeline on the training part,
// refits the best parameters on all of it and evaluates every label on the
// held-out part.
func Train(ctx context.Context, t *model.MessageTable, opts Options) (*Result, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if len(t.CategoryNames) == 0 {
		return nil, fmt.Errorf("train: table has no category columns")
	}

	texts, y := t.Texts(), t.Labels()
	trainIdx, testIdx, err := TrainTestSplit(len(texts), opts.TestSize, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("split data: %w", err)
	}

	fmt.Fprintln(out, "Building model...")
	analyzer := NewPipeline(Params{}, t.CategoryNames, opts.Tokenizer)
	docs := analyzer.AnalyzeAll(texts)
	trainDocs, trainY := subsetTokens(docs, trainIdx), subsetLabels(y, trainIdx)
	testDocs, testY := subsetTokens(docs, testIdx), subsetLabels(y, testIdx)

	fmt.Fprintln(out, "Training model...")
	fit := FitOptions{Seed: opts.Seed, Jobs: opts.Jobs}
	search, err := GridSearch(ctx, trainDocs, trainY, opts.Grid, SearchOptions{
		Folds:     opts.Folds,
		Fit:       fit,
		Labels:    t.CategoryNames,
		Tokenizer: opts.Tokenizer,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	best := search.Best()
	log.Info("best parameters", zap.Stringer("params", best), zap.Float64("mean_score", search.Scores[search.BestIndex].Mean))

	p := NewPipeline(best, t.CategoryNames, opts.Tokenizer)
	if err := p.FitTokens(ctx, trainDocs, trainY, fit); err != nil {
		return nil, fmt.Errorf("refit %s: %w", best, err)
	}

	fmt.Fprintln(out, "Evaluating model...")
	pred := p.PredictTokens(testDocs)
	reports := make([]LabelReport, len(t.CategoryNames))
	for l, name := range t.CategoryNames {
		reports[l] = LabelReport{Label: name, Report: ClassificationReport(column(testY, l), column(pred, l))}
	}

	return &Result{
		Pipeline:  p,
		Search:    search,
		Reports:   reports,
		TrainSize: len(trainIdx),
		TestSize:  len(testIdx),
	}, nil
}
