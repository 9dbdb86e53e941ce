package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mcpqa",
	Short: "mcpqa - scripted acceptance runner for the CodeBlog MCP server",
	Long: `mcpqa drives the CodeBlog MCP server through a scripted acceptance
catalog and records the outcome of every call.

The server binary is spawned as a child process and spoken to over stdio
with line-delimited JSON-RPC. Each pass walks the full tool catalog in
order, appends one row per call to the run log CSV, refreshes the
acceptance matrix CSV, and the report commands turn those files into
human-readable summaries.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Values from a .env file never override real environment
		// variables; a missing file is fine.
		_ = godotenv.Load()

		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "mcpqa.yaml", "Path to the config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(summaryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
