package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-data-pipelines/internal/pubg"
	"github.com/pable/go-data-pipelines/internal/report"
	"github.com/pable/go-data-pipelines/internal/storage"
	"github.com/pable/go-data-pipelines/internal/telemetry"
)

var (
	scrapeShard    string
	scrapeOut      string
	scrapeLimit    int
	scrapeRescrape bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape sample PUBG matches into flat CSV extracts",
	Long: `Fetch the shard's current sample set, download each match's telemetry and
append drops, weapons, damage, kills and match rows to CSV files under --out.

Matches already recorded in the database ledger are skipped unless --rescrape.
The API key is read from DPIPE_PUBG_API_KEY or ~/.dpipe/pubg_api_key.`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeShard, "shard", "", "platform shard (default from config, pc-sea)")
	scrapeCmd.Flags().StringVar(&scrapeOut, "out", "", "output directory for CSV extracts (default from config, data)")
	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 0, "process at most N sample matches (0 = all)")
	scrapeCmd.Flags().BoolVar(&scrapeRescrape, "rescrape", false, "process matches already recorded in the ledger")
}

func runScrape(cmd *cobra.Command, args []string) error {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return err
	}
	shard := orDefault(scrapeShard, cfg.Shard)
	outDir := orDefault(scrapeOut, cfg.OutDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := pubg.NewClient(apiKey, shard, pubg.WithBaseURL(cfg.PUBGBaseURL))
	ids, err := client.Samples(ctx)
	if err != nil {
		return fmt.Errorf("fetch samples: %w", err)
	}
	if scrapeLimit > 0 && len(ids) > scrapeLimit {
		ids = ids[:scrapeLimit]
	}
	logger.Info("scraping samples", zap.String("shard", shard), zap.Int("matches", len(ids)))

	sink, err := telemetry.OpenCSV(outDir)
	if err != nil {
		return fmt.Errorf("open extracts: %w", err)
	}
	defer sink.Close()

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	runner := &telemetry.Runner{
		Source:   client,
		Sink:     sink,
		Ledger:   db,
		Rescrape: scrapeRescrape,
		Logger:   logger,
		Out:      os.Stdout,
	}
	summary := runner.Run(ctx, ids)
	report.PrintScrapeSummary(os.Stdout, summary)

	if err := sink.Close(); err != nil {
		return fmt.Errorf("close extracts: %w", err)
	}
	return ctx.Err()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
