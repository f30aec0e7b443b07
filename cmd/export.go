package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bugboard/bugboard/internal/export"
	"github.com/bugboard/bugboard/internal/store"
)

var (
	exportFormat   string
	exportArchived bool
	exportDeleted  bool
	exportSortBy   string
	exportOrder    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export issues to stdout",
	Long:  "Export the full issue list as csv, json, or markdown. Redirect to a file to save.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun()
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, markdown")
	exportCmd.Flags().BoolVar(&exportArchived, "archived", false, "Include archived issues")
	exportCmd.Flags().BoolVar(&exportDeleted, "deleted", false, "Include soft-deleted issues")
	exportCmd.Flags().StringVar(&exportSortBy, "sort", "createdAt", "Sort field")
	exportCmd.Flags().StringVar(&exportOrder, "order", "asc", "Sort order: asc, desc")
	rootCmd.AddCommand(exportCmd)
}

func exportRun() error {
	svc, err := getIssueService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	exporter := export.NewExporter(svc, dataStore)
	filter := store.IssueListFilter{
		IncludeArchived: exportArchived,
		IncludeDeleted:  exportDeleted,
	}
	return exporter.Write(ctx, ui.Out, format, filter, exportSortBy, exportOrder)
}
