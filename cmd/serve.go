package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-data-pipelines/internal/classifier"
	"github.com/pable/go-data-pipelines/internal/metrics"
	"github.com/pable/go-data-pipelines/internal/server"
	"github.com/pable/go-data-pipelines/internal/storage"
)

var (
	serveAddr   string
	serveModel  string
	serveLemmas string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dataset dashboard and message classifier",
	Long: `Load the messages table from --db and the trained model from --model,
then serve the dashboard (/, /index), the query page (/go?query=...), the
JSON classifier (/api/classify?query=...), /healthz and /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :3001)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "trained model file (default from config, classifier.model)")
	serveCmd.Flags().StringVar(&serveLemmas, "lemmas", "", "lemma dictionary file the model was trained with")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := orDefault(serveAddr, cfg.Addr)
	modelPath := orDefault(serveModel, cfg.ModelPath)

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	table, err := db.LoadMessages()
	db.Close()
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	pipeline, err := classifier.LoadModel(modelPath)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	if path := orDefault(serveLemmas, cfg.Lemmas); path != "" {
		tok, err := tokenizer(path)
		if err != nil {
			return err
		}
		pipeline.SetTokenizer(tok)
	}
	metrics.SetModelLabels(len(pipeline.Labels))
	logger.Info("model loaded",
		zap.String("model", modelPath),
		zap.Stringer("params", pipeline.Params),
		zap.Int("labels", len(pipeline.Labels)),
		zap.Int("messages", len(table.Rows)),
	)

	handler, err := server.NewRouter(server.Deps{
		Dashboard:  server.NewDashboard(table),
		Classifier: pipeline,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Serve(ctx, addr, handler, logger)
}
