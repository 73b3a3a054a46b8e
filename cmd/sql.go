package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-data-pipelines/internal/report"
	"github.com/pable/go-data-pipelines/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the pipeline database",
	Long: `Run an arbitrary SQL query against the pipeline database and print results as a table.

Schema overview:
  messages(id, message, original, genre, <one INTEGER column per category>)
  scraped_matches(match_id, map_name, game_mode, started_at, drops, weapons,
    damage, kills, scraped_at)

Example: dpipe sql "SELECT genre, COUNT(*) FROM messages GROUP BY genre"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	report.PrintRows(os.Stdout, cols, rows)
	return nil
}
