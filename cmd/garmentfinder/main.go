// Package main provides the garmentfinder entrypoint: the MCP server and a
// small CLI for querying and maintaining the catalog.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/garmentfinder-mcp/internal/app"
	"github.com/dshills/garmentfinder-mcp/internal/config"
	"github.com/dshills/garmentfinder-mcp/internal/finder"
	"github.com/dshills/garmentfinder-mcp/internal/importer"
	"github.com/dshills/garmentfinder-mcp/internal/mcp"
	"github.com/dshills/garmentfinder-mcp/internal/observability"
	"github.com/dshills/garmentfinder-mcp/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	// Global flags
	cfgFile    string
	envFile    string
	dbPath     string
	logLevel   string
	outputJSON bool

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "garmentfinder",
	Short: "Find traditional occasion wear from free-text requests",
	Long: `garmentfinder answers requests such as "silk saree for a wedding" from a
garment catalog. It cleans up misspellings, extracts filter criteria and,
when a language model is configured, asks it which garment types suit
requests that name none.

Run "garmentfinder serve" to expose the finder as an MCP server on stdio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env file is fine; the environment may already be set
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
			return fmt.Errorf("load env file: %w", err)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}
		if logLevel != "" {
			cfg.Observability.LogLevel = logLevel
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       cfg.Observability.LogLevel,
			Format:      cfg.Observability.LogFormat,
			ServiceName: "garmentfinder",
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: $GARMENTFINDER_CONFIG or built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with API keys")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print results as JSON")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp builds the application for one command
func openApp(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("start garmentfinder: %w", err)
	}
	return a, nil
}

// newServeCmd creates the serve subcommand
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			logger.Info().
				Str("version", version).
				Str("build_mode", storage.BuildMode).
				Str("driver", storage.DriverName).
				Msg("garmentfinder MCP server starting")

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			server, err := mcp.NewServer(a, logger)
			if err != nil {
				return fmt.Errorf("create MCP server: %w", err)
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			errChan := make(chan error, 1)
			go func() {
				errChan <- server.Serve(ctx)
			}()

			select {
			case sig := <-sigChan:
				logger.Info().Str("signal", sig.String()).Msg("shutting down")
				cancel()
			case err := <-errChan:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
			}

			logger.Info().Msg("server stopped")
			return nil
		},
	}
}

// newQueryCmd creates the query subcommand
func newQueryCmd() *cobra.Command {
	var (
		limit  int
		record bool
	)

	cmd := &cobra.Command{
		Use:   "query <request>",
		Short: "Find garments for a free-text request",
		Example: `  garmentfinder query "silk sare for weding"
  garmentfinder query --limit 3 --json what to wear to a sangeet`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			resp, err := a.Finder.Find(ctx, finder.Request{
				Query:  strings.Join(args, " "),
				Limit:  limit,
				Record: record,
			})
			if err != nil {
				return err
			}

			if outputJSON {
				return printJSON(resp)
			}
			fmt.Println(resp.Message)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of garments (default from config)")
	cmd.Flags().BoolVar(&record, "record", false, "store the exchange in the chat history")
	return cmd
}

// newAnalyzeCmd creates the analyze subcommand
func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <request>",
		Short: "Show the cleaned query, keywords and criteria of a request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			analysis := a.Analyzer.Analyze(strings.Join(args, " "))
			if outputJSON {
				return printJSON(analysis)
			}

			fmt.Printf("Cleaned:  %s\n", analysis.CleanedQuery)
			fmt.Printf("Keywords: %s\n", strings.Join(analysis.Keywords, ", "))
			fmt.Printf("Criteria: %s\n", analysis.Criteria)
			return nil
		},
	}
}

// newSeedCmd creates the seed subcommand
func newSeedCmd() *cobra.Command {
	var (
		file      string
		batchSize int
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import garments from a YAML catalog, or the sample catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Seeding on startup would make an explicit seed a no-op
			cfg.Database.Seed = false
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			importCfg := &importer.Config{BatchSize: batchSize, SkipExisting: !all}
			var stats *importer.Statistics
			if file != "" {
				stats, err = a.Importer.ImportFile(ctx, file, importCfg)
			} else {
				stats, err = a.Importer.ImportSample(ctx, importCfg)
			}
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			if outputJSON {
				return printJSON(stats)
			}
			fmt.Printf("Imported %d garments (%d skipped, %d invalid) in %s\n",
				stats.GarmentsImported, stats.GarmentsSkipped, stats.GarmentsInvalid, stats.Duration)
			for _, msg := range stats.ErrorMessages {
				fmt.Printf("  %s\n", msg)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog file (default: built-in sample)")
	cmd.Flags().IntVar(&batchSize, "batch-size", importer.DefaultBatchSize, "garments per transaction")
	cmd.Flags().BoolVar(&all, "all", false, "import garments even if one with the same name and category exists")
	return cmd
}

// newStatusCmd creates the status subcommand
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalog statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			status, err := a.Catalog.Status(cmd.Context())
			if err != nil {
				return err
			}

			if outputJSON {
				return printJSON(status)
			}
			fmt.Printf("Garments:       %d (%d available)\n", status.GarmentCount, status.AvailableCount)
			fmt.Printf("Categories:     %d\n", status.CategoryCount)
			fmt.Printf("Chat exchanges: %d\n", status.ChatCount)
			fmt.Printf("Schema:         %s\n", status.SchemaVersion)
			fmt.Printf("Database size:  %.2f MB\n", status.DatabaseSizeMB)
			fmt.Printf("Cache:          %s\n", a.CacheDriver())
			fmt.Printf("Language model: %s\n", a.ModelProvider())
			return nil
		},
	}
}

// newVersionCmd creates the version subcommand
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Version needs no configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("garmentfinder MCP server\n")
			fmt.Printf("Version: %s\n", version)
			fmt.Printf("Build Time: %s\n", buildTime)
			fmt.Printf("Build Mode: %s\n", storage.BuildMode)
			fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		},
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
