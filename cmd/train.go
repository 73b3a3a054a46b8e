package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-data-pipelines/internal/classifier"
	"github.com/pable/go-data-pipelines/internal/report"
	"github.com/pable/go-data-pipelines/internal/storage"
)

const trainUsage = `Please provide the filepath of the disaster messages database as the first
argument and the filepath of the model file to save the model to as the
second argument.

Example: dpipe train-classifier disaster_response.db classifier.model`

var (
	trainSeed       uint64
	trainFolds      int
	trainTestSize   float64
	trainEstimators []int
	trainMaxNGram   []int
	trainJobs       int
	trainLemmas     string
)

var trainCmd = &cobra.Command{
	Use:   "train-classifier <db_path> <model_path>",
	Short: "Grid-search, evaluate and save the message classifier",
	Long: `Load the messages table, hold out a seeded test split, grid-search the
tokenize -> count -> tf-idf -> random forest pipeline with k-fold
cross-validation, print a per-category classification report and save the
refitted best pipeline to <model_path>.`,
	Args: cobra.ArbitraryArgs,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().Uint64Var(&trainSeed, "seed", 0, "random seed for the split and the forests (default from config, 42)")
	trainCmd.Flags().IntVar(&trainFolds, "cv", 0, "cross-validation folds (default from config, 5)")
	trainCmd.Flags().Float64Var(&trainTestSize, "test-size", 0, "held-out fraction (default from config, 0.2)")
	trainCmd.Flags().IntSliceVar(&trainEstimators, "estimators", classifier.DefaultEstimators, "forest sizes to search")
	trainCmd.Flags().IntSliceVar(&trainMaxNGram, "max-ngram", classifier.DefaultNGramMax, "upper n-gram bounds to search")
	trainCmd.Flags().IntVar(&trainJobs, "jobs", -1, "parallel tree fits, 0 = all CPUs (default from config, 1)")
	trainCmd.Flags().StringVar(&trainLemmas, "lemmas", "", "lemma dictionary file replacing the embedded one")
}

func runTrain(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(os.Stdout, trainUsage)
		return nil
	}
	databasePath, modelPath := args[0], args[1]

	opts, err := trainOptions(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stdout, "Loading data...\n    DATABASE: %s\n", databasePath)
	db, err := storage.Open(databasePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	table, err := db.LoadMessages()
	db.Close()
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	res, err := classifier.Train(ctx, table, opts)
	if err != nil {
		return fmt.Errorf("train classifier: %w", err)
	}
	logger.Info("training finished",
		zap.Int("train_rows", res.TrainSize),
		zap.Int("test_rows", res.TestSize),
		zap.Stringer("best", res.Search.Best()),
	)

	report.PrintGridScores(os.Stdout, res.Search)
	for _, r := range res.Reports {
		report.PrintClassificationReport(os.Stdout, r)
	}
	report.PrintLabelOverview(os.Stdout, res.Reports)

	fmt.Fprintf(os.Stdout, "Saving model...\n    MODEL: %s\n", modelPath)
	if err := classifier.SaveModel(modelPath, res.Pipeline, res.Search); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	fmt.Fprintln(os.Stdout, "Trained model saved!")
	return nil
}

// trainOptions merges the config defaults with explicitly set flags.
func trainOptions(cmd *cobra.Command) (classifier.Options, error) {
	opts := classifier.DefaultOptions()
	opts.Seed = cfg.Seed
	opts.Folds = cfg.CVFolds
	opts.TestSize = cfg.TestSize
	opts.Jobs = cfg.Jobs

	flags := cmd.Flags()
	if flags.Changed("seed") {
		opts.Seed = trainSeed
	}
	if flags.Changed("cv") {
		if trainFolds < 2 {
			return opts, fmt.Errorf("--cv must be at least 2, got %d", trainFolds)
		}
		opts.Folds = trainFolds
	}
	if flags.Changed("test-size") {
		if trainTestSize <= 0 || trainTestSize >= 1 {
			return opts, fmt.Errorf("--test-size must be in (0, 1), got %v", trainTestSize)
		}
		opts.TestSize = trainTestSize
	}
	if flags.Changed("jobs") {
		if trainJobs < 0 {
			return opts, fmt.Errorf("--jobs must not be negative, got %d", trainJobs)
		}
		opts.Jobs = trainJobs
	}
	if opts.Jobs == 0 {
		opts.Jobs = runtime.NumCPU()
	}
	opts.Grid = classifier.Grid(trainEstimators, trainMaxNGram)
	if len(opts.Grid) == 0 {
		return opts, fmt.Errorf("empty parameter grid")
	}

	tok, err := tokenizer(orDefault(trainLemmas, cfg.Lemmas))
	if err != nil {
		return opts, err
	}
	opts.Tokenizer = tok
	opts.Logger = logger
	opts.Out = os.Stdout
	return opts, nil
}
