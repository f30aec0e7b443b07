package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bugboard/bugboard/internal/models"
	"github.com/bugboard/bugboard/internal/output"
	"github.com/bugboard/bugboard/internal/permission"
)

var labelColor string

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Manage labels",
}

var labelAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a label",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return labelAddRun(args[0])
	},
}

var labelListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List labels",
	RunE: func(cmd *cobra.Command, args []string) error {
		return labelListRun()
	},
}

var labelDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a label (admin only)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return labelDeleteRun(args[0])
	},
}

func init() {
	labelAddCmd.Flags().StringVar(&labelColor, "color", "", "Hex color, e.g. #ff0000")

	labelCmd.AddCommand(labelAddCmd)
	labelCmd.AddCommand(labelListCmd)
	labelCmd.AddCommand(labelDeleteCmd)
	rootCmd.AddCommand(labelCmd)
}

func labelAddRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if _, err := getActor(ctx); err != nil {
		return err
	}

	l := &models.Label{Name: name, Color: labelColor}
	if err := s.CreateLabel(ctx, l); err != nil {
		return err
	}

	ui.Success("Created label %s (%s)", output.Cyan(name), shortID(l.ID))
	return nil
}

func labelListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	labels, err := s.ListLabels(ctx)
	if err != nil {
		return err
	}
	if len(labels) == 0 {
		ui.Info("No labels yet.")
		return nil
	}

	table := ui.Table([]string{"ID", "Name", "Color"})
	for _, l := range labels {
		table.Append([]string{shortID(l.ID), l.Name, l.Color})
	}
	table.Render()
	return nil
}

func labelDeleteRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	actor, err := getActor(ctx)
	if err != nil {
		return err
	}
	if !permission.Can(actor, permission.ActionManageUsers, nil) {
		return fmt.Errorf("delete label: %w", models.ErrForbidden)
	}

	l, err := findLabelByName(ctx, name)
	if err != nil {
		return err
	}
	if err := s.DeleteLabel(ctx, l.ID); err != nil {
		return err
	}

	ui.Success("Deleted label %s", output.Cyan(name))
	return nil
}

func findLabelByName(ctx context.Context, name string) (*models.Label, error) {
	labels, err := dataStore.ListLabels(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range labels {
		if l.Name == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("label not found: %s", name)
}

// resolveLabelIDs maps label names to IDs, preserving order.
func resolveLabelIDs(ctx context.Context, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		l, err := findLabelByName(ctx, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, l.ID)
	}
	return ids, nil
}
