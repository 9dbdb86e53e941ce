package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mcpqa/internal/recorder"
	"mcpqa/internal/report"
)

var (
	reportMatrixPath string
	reportRunLogPath string
	reportOutPath    string
	reportPrint      bool
	reportFollow     bool
)

// reportCmd renders the final acceptance report from the recorded CSVs.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the final acceptance report",
	Long: `Reads the acceptance matrix and run log and writes the final
acceptance report as markdown: matrix flag ratios, the last two full
regressions, and the list of failing tools.

With --print the report is also rendered to the terminal. With --follow
the command keeps running and regenerates the report whenever the matrix
or run log change, which pairs with a long-running "mcpqa run --loop".`,
	RunE: generateReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportMatrixPath, "matrix", "", "Acceptance matrix CSV (required)")
	reportCmd.Flags().StringVar(&reportRunLogPath, "run-log", "", "Run log CSV (required)")
	reportCmd.Flags().StringVar(&reportOutPath, "out", "mcp_final_acceptance_report.md", "Report output path")
	reportCmd.Flags().BoolVar(&reportPrint, "print", false, "Render the report to the terminal as well")
	reportCmd.Flags().BoolVar(&reportFollow, "follow", false, "Keep regenerating when the CSV files change")
	reportCmd.MarkFlagRequired("matrix")
	reportCmd.MarkFlagRequired("run-log")
}

func generateReport(cmd *cobra.Command, args []string) error {
	regen := func() error {
		matrixRows, err := recorder.NewMatrix(reportMatrixPath).Rows()
		if err != nil {
			return err
		}
		runRows, err := recorder.ReadRunLog(reportRunLogPath)
		if err != nil {
			return err
		}

		markdown := report.Generate(matrixRows, runRows, report.Options{
			MatrixPath: reportMatrixPath,
			RunLogPath: reportRunLogPath,
		})
		if err := os.WriteFile(reportOutPath, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info("report written", zap.String("path", reportOutPath))

		if reportPrint {
			fmt.Print(renderMarkdown(markdown))
		}
		return nil
	}

	if err := regen(); err != nil {
		return err
	}
	if !reportFollow {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	logger.Info("watching for changes",
		zap.String("matrix", reportMatrixPath),
		zap.String("run_log", reportRunLogPath))
	return report.Watch(ctx, []string{reportMatrixPath, reportRunLogPath}, regen, logger)
}

// renderMarkdown pretty-prints markdown for the terminal, falling back
// to the raw text when the renderer is unavailable.
func renderMarkdown(markdown string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return markdown
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}
