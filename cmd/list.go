package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-data-pipelines/internal/report"
	"github.com/pable/go-data-pipelines/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all scraped matches",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	matches, err := db.ListScrapedMatches()
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	report.PrintLedger(os.Stdout, matches)
	return nil
}
