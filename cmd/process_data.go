package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-data-pipelines/internal/categories"
	"github.com/pable/go-data-pipelines/internal/etl"
	"github.com/pable/go-data-pipelines/internal/storage"
)

const processDataUsage = `Please provide the filepaths of the messages and categories datasets as the
first and second argument respectively, as well as the filepath of the
database to save the cleaned data to as the third argument.

Example: dpipe process-data disaster_messages.csv disaster_categories.csv disaster_response.db`

var processPolicy string

var processDataCmd = &cobra.Command{
	Use:   "process-data <messages_csv> <categories_csv> <db_path>",
	Short: "Merge and clean labelled messages into the messages table",
	Long: `Inner-join the messages and categories CSV files on id, split the
category string into one binary column per category, drop duplicate rows and
replace the messages table of the SQLite database at <db_path>.`,
	Args: cobra.ArbitraryArgs,
	RunE: runProcessData,
}

func init() {
	processDataCmd.Flags().StringVar(&processPolicy, "category-policy", "", "handling of category values outside {0,1}: coerce-to-one or reject (default from config)")
}

func runProcessData(cmd *cobra.Command, args []string) error {
	if len(args) != 3 {
		fmt.Fprintln(os.Stdout, processDataUsage)
		return nil
	}
	messagesPath, categoriesPath, databasePath := args[0], args[1], args[2]

	policy, err := categories.ParsePolicy(orDefault(processPolicy, cfg.CategoryPolicy))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Loading data...\n    MESSAGES: %s\n    CATEGORIES: %s\n", messagesPath, categoriesPath)
	rows, err := etl.Load(messagesPath, categoriesPath)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}

	fmt.Fprintln(os.Stdout, "Cleaning data...")
	table, err := etl.Clean(rows, policy)
	if err != nil {
		return fmt.Errorf("clean data: %w", err)
	}
	logger.Debug("cleaned messages",
		zap.Int("merged", len(rows)),
		zap.Int("kept", len(table.Rows)),
		zap.Int("categories", len(table.CategoryNames)),
	)

	fmt.Fprintf(os.Stdout, "Saving data...\n    DATABASE: %s\n", databasePath)
	db, err := storage.Open(databasePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	if err := db.SaveMessages(table); err != nil {
		return fmt.Errorf("save messages: %w", err)
	}

	fmt.Fprintln(os.Stdout, "Cleaned data saved to database!")
	return nil
}
