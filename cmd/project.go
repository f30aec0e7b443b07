package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bugboard/bugboard/internal/models"
	"github.com/bugboard/bugboard/internal/output"
	"github.com/bugboard/bugboard/internal/store"
)

var projectDesc string

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long:  "Group issues into projects. Issues without a project live on the default board.",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectAddRun(args[0])
	},
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectListRun()
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a project and its open issues",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectShowRun(args[0])
	},
}

func init() {
	projectAddCmd.Flags().StringVar(&projectDesc, "desc", "", "Project description")

	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	rootCmd.AddCommand(projectCmd)
}

func projectAddRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	actor, err := getActor(ctx)
	if err != nil {
		return err
	}

	p := &models.Project{
		Name:        name,
		Description: projectDesc,
		CreatedByID: actor.ID,
	}
	if err := s.CreateProject(ctx, p); err != nil {
		return err
	}

	ui.Success("Created project %s (%s)", output.Cyan(name), shortID(p.ID))
	return nil
}

func projectListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	projects, err := s.ListProjects(ctx)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		ui.Info("No projects yet.")
		return nil
	}

	table := ui.Table([]string{"ID", "Name", "Description", "Created"})
	for _, p := range projects {
		table.Append([]string{shortID(p.ID), p.Name, p.Description, p.CreatedAt.Format("2006-01-02")})
	}
	table.Render()
	return nil
}

func projectShowRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := s.GetProjectByName(ctx, name)
	if err != nil {
		return fmt.Errorf("project not found: %s", name)
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(p.ID)), p.Name)
	if p.Description != "" {
		fmt.Fprintf(ui.Out, "  Desc:     %s\n", p.Description)
	}
	fmt.Fprintf(ui.Out, "  Created:  %s\n", p.CreatedAt.Format(time.RFC3339))

	issues, err := s.ListAllIssues(ctx, store.IssueListFilter{
		ProjectID: p.ID,
		Statuses:  []models.IssueStatus{models.IssueStatusTodo, models.IssueStatusInProgress},
	}, "", "")
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		ui.Info("No open issues in this project.")
		return nil
	}

	fmt.Fprintln(ui.Out)
	table := ui.Table([]string{"ID", "Title", "Status", "Priority"})
	for _, issue := range issues {
		table.Append([]string{
			shortID(issue.ID),
			issue.Title,
			output.StatusColor(string(issue.Status)),
			output.PriorityColor(string(issue.Priority)),
		})
	}
	table.Render()
	return nil
}
