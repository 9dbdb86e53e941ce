package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mcpqa/cmd/mcpqa/ui"
	"mcpqa/internal/recorder"
	"mcpqa/internal/report"
)

var summaryMatrixPath string

// summaryCmd prints the acceptance matrix totals to the terminal.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the acceptance matrix summary",
	RunE:  showSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryMatrixPath, "matrix", "", "Acceptance matrix CSV (required)")
	summaryCmd.MarkFlagRequired("matrix")
}

func showSummary(cmd *cobra.Command, args []string) error {
	rows, err := recorder.NewMatrix(summaryMatrixPath).Rows()
	if err != nil {
		return err
	}
	s := report.Summarize(rows)
	styles := ui.DefaultStyles()

	table := ui.NewTable("Acceptance Matrix", "Metric", "Result")
	table.AddRow("Total tools", strconv.Itoa(s.Total))
	table.AddRow("Client integrated", report.Ratio(s.Integrated, s.Total))
	table.AddRow("MCP call passed", report.Ratio(s.CallPassed, s.Total))
	table.AddRow("Dialogue passed", report.Ratio(s.Dialogue, s.Total))
	table.AddRow("Capsule start OK", report.Ratio(s.CapsuleStart, s.Total))
	table.AddRow("Capsule end OK", report.Ratio(s.CapsuleEnd, s.Total))
	fmt.Print(table.Render(styles))

	if len(s.Failed) == 0 {
		fmt.Println(styles.Good.Render("All MCP calls passed."))
		return nil
	}

	fmt.Println(styles.Bad.Render("Failing tools:"))
	for _, tool := range s.Failed {
		fmt.Printf("- %s: %s | %s\n", tool.Name, styles.PassFail(tool.LastResult), tool.Issue)
	}
	return nil
}
