package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bugboard/bugboard/internal/output"
	"github.com/bugboard/bugboard/internal/stats"
	"github.com/bugboard/bugboard/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a board health summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsRun()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func statsRun() error {
	svc, err := getIssueService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	issues, err := svc.ListAll(ctx, store.IssueListFilter{
		IncludeArchived: true,
		IncludeDeleted:  true,
	}, "", "")
	if err != nil {
		return err
	}

	summary := stats.Summarize(issues, time.Now())

	fmt.Fprintf(ui.Out, "Board health: %s\n\n", output.HealthColor(summary.Score))
	table := ui.Table([]string{"Metric", "Count"})
	table.Append([]string{"Total", fmt.Sprintf("%d", summary.Total)})
	table.Append([]string{"Open", fmt.Sprintf("%d", summary.Open)})
	table.Append([]string{"Resolved", fmt.Sprintf("%d", summary.Resolved)})
	table.Append([]string{"Critical", fmt.Sprintf("%d", summary.Critical)})
	table.Append([]string{"Unassigned", fmt.Sprintf("%d", summary.Unassigned)})
	table.Append([]string{"Archived", fmt.Sprintf("%d", summary.Archived)})
	table.Append([]string{"Deleted", fmt.Sprintf("%d", summary.Deleted)})
	table.Render()

	if summary.Critical > 0 {
		ui.Warning("%d critical issue(s) need attention", summary.Critical)
	}
	return nil
}
