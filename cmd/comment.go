package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bugboard/bugboard/internal/output"
)

var commentImage string

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Manage issue comments",
}

var commentAddCmd = &cobra.Command{
	Use:   "add <issue-id> <text>",
	Short: "Add a comment to an issue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentAddRun(args[0], args[1])
	},
}

var commentListCmd = &cobra.Command{
	Use:     "list <issue-id>",
	Aliases: []string{"ls"},
	Short:   "List comments on an issue, oldest first",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentListRun(args[0])
	},
}

var commentEditCmd = &cobra.Command{
	Use:   "edit <comment-id> <text>",
	Short: "Edit a comment (author only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentEditRun(args[0], args[1])
	},
}

var commentDeleteCmd = &cobra.Command{
	Use:     "delete <comment-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a comment (author or admin)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentDeleteRun(args[0])
	},
}

func init() {
	commentAddCmd.Flags().StringVar(&commentImage, "image", "", "Attach an image URL or path")
	commentEditCmd.Flags().StringVar(&commentImage, "image", "", "Replace the attached image")

	commentCmd.AddCommand(commentAddCmd)
	commentCmd.AddCommand(commentListCmd)
	commentCmd.AddCommand(commentEditCmd)
	commentCmd.AddCommand(commentDeleteCmd)
	rootCmd.AddCommand(commentCmd)
}

func commentAddRun(issueID, text string) error {
	svc, err := getCommentService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	actor, err := getActor(ctx)
	if err != nil {
		return err
	}
	issue, err := resolveIssue(ctx, issueID)
	if err != nil {
		return err
	}

	c, err := svc.Create(ctx, actor, issue.ID, text, commentImage)
	if err != nil {
		return err
	}

	ui.Success("Added comment %s to issue %s", output.Cyan(shortID(c.ID)), output.Cyan(shortID(issue.ID)))
	return nil
}

func commentListRun(issueID string) error {
	svc, err := getCommentService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	issue, err := resolveIssue(ctx, issueID)
	if err != nil {
		return err
	}

	list, err := svc.ListByIssue(ctx, issue.ID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		ui.Info("No comments on issue %s.", shortID(issue.ID))
		return nil
	}

	names := userNameCache(ctx)
	for _, c := range list {
		fmt.Fprintf(ui.Out, "%s  [%s] %s: %s\n", output.Cyan(shortID(c.ID)), c.CreatedAt.Format("2006-01-02 15:04"), names(c.AuthorID), c.Content)
		if c.Image != "" {
			fmt.Fprintf(ui.Out, "  image: %s\n", c.Image)
		}
	}
	return nil
}

func commentEditRun(id, text string) error {
	svc, err := getCommentService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	actor, err := getActor(ctx)
	if err != nil {
		return err
	}

	c, err := svc.Update(ctx, actor, id, text, commentImage)
	if err != nil {
		return err
	}

	ui.Success("Updated comment %s", output.Cyan(shortID(c.ID)))
	return nil
}

func commentDeleteRun(id string) error {
	svc, err := getCommentService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	actor, err := getActor(ctx)
	if err != nil {
		return err
	}

	if err := svc.Delete(ctx, actor, id); err != nil {
		return err
	}

	ui.Success("Deleted comment %s", output.Cyan(shortID(id)))
	return nil
}
