package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-data-pipelines/internal/config"
	"github.com/pable/go-data-pipelines/internal/logging"
	"github.com/pable/go-data-pipelines/internal/textproc"
)

var (
	dbPath    string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "dpipe",
	Short: "Data pipelines for match telemetry and disaster messages",
	Long: `Scrape PUBG match telemetry into flat CSV extracts, clean labelled
disaster-response messages into SQLite, train the multi-label message
classifier and serve the result dashboard.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaults := config.New()
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaults.DBPath, "path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", defaults.LogFormat, "log format (console, json)")

	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(processDataCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(sqlCmd)
}

// setup loads the layered config, lets explicitly set flags win over it and
// builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		c.DBPath = dbPath
	} else {
		dbPath = c.DBPath
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		c.LogFormat = logFormat
	}
	if err := c.Validate(); err != nil {
		return err
	}

	l, err := logging.New(c.LogLevel, c.LogFormat)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	cfg, logger = c, l
	return nil
}

// tokenizer returns a tokenizer over the dictionary at path, or the
// embedded one when path is empty.
func tokenizer(path string) (*textproc.Tokenizer, error) {
	if path == "" {
		return textproc.New(nil), nil
	}
	dict, err := textproc.LoadDictionary(path)
	if err != nil {
		return nil, fmt.Errorf("load lemmas: %w", err)
	}
	return textproc.New(dict), nil
}
