package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-data-pipelines/internal/report"
	"github.com/pable/go-data-pipelines/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show <match-id-prefix>",
	Short: "Show a scraped match by id prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	m, err := db.GetScrapedMatchByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if m == nil {
		fmt.Fprintf(os.Stderr, "No match found with id prefix %q\n", prefix)
		return nil
	}
	report.PrintScrapedMatch(os.Stdout, *m)
	return nil
}
