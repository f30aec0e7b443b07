package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bugboard/bugboard/internal/issues"
	"github.com/bugboard/bugboard/internal/llm"
	"github.com/bugboard/bugboard/internal/models"
	"github.com/bugboard/bugboard/internal/output"
	"github.com/bugboard/bugboard/internal/store"
)

var (
	issueTitle     string
	issueDesc      string
	issuePriority  string
	issueType      string
	issueStatus    string
	issueAssignee  string
	issueSearch    string
	issueLabels    []string
	issueArchived  bool
	issueDeleted   bool
	issuePage      int
	issuePageSize  int
	issueSortBy    string
	issueSortOrder string
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Manage issues",
	Long:  "Report, triage, and track issues through their lifecycle.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueListRun()
	},
}

var issueAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Report a new issue",
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueAddRun()
	},
}

var issueListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List issues",
	Long:    "List issues. Archived and soft-deleted issues are hidden unless --archived or --deleted is passed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueListRun()
	},
}

var issueShowCmd = &cobra.Command{
	Use:   "show <issue-id>",
	Short: "Show issue details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueShowRun(args[0])
	},
}

var issueUpdateCmd = &cobra.Command{
	Use:   "update <issue-id>",
	Short: "Update an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueUpdateRun(args[0])
	},
}

var issueAssignCmd = &cobra.Command{
	Use:   "assign <issue-id> <email>",
	Short: "Assign an issue to an account (use 'none' to unassign)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueAssignRun(args[0], args[1])
	},
}

var issueArchiveCmd = &cobra.Command{
	Use:   "archive <issue-id>",
	Short: "Archive an issue (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueArchiveRun(args[0], true)
	},
}

var issueUnarchiveCmd = &cobra.Command{
	Use:   "unarchive <issue-id>",
	Short: "Restore an issue from the archive (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueArchiveRun(args[0], false)
	},
}

var issueDeleteCmd = &cobra.Command{
	Use:     "delete <issue-id>",
	Aliases: []string{"rm"},
	Short:   "Soft-delete an issue (admin only; restore with 'issue restore')",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueDeleteRun(args[0])
	},
}

var issueRestoreCmd = &cobra.Command{
	Use:   "restore <issue-id>",
	Short: "Restore a soft-deleted issue (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueRestoreRun(args[0])
	},
}

var issuePurgeCmd = &cobra.Command{
	Use:   "purge <issue-id>",
	Short: "Permanently delete an issue and its comments (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issuePurgeRun(args[0])
	},
}

var issueHistoryCmd = &cobra.Command{
	Use:   "history <issue-id>",
	Short: "Show the append-only history log for an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueHistoryRun(args[0])
	},
}

var issueTriageCmd = &cobra.Command{
	Use:   "triage <title>",
	Short: "Suggest a type and priority for an issue title",
	Long:  "Suggest a type and priority. Uses the Anthropic API when anthropic.api_key is set, otherwise keyword heuristics.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueTriageRun(args[0])
	},
}

func init() {
	issueAddCmd.Flags().StringVar(&issueTitle, "title", "", "Issue title (required)")
	issueAddCmd.Flags().StringVar(&issueDesc, "desc", "", "Issue description")
	issueAddCmd.Flags().StringVar(&issuePriority, "priority", "", "Priority: LOW, MEDIUM, HIGH, CRITICAL (default MEDIUM)")
	issueAddCmd.Flags().StringVar(&issueType, "type", "BUG", "Type: QUESTION, BUG, DOCUMENTATION, FEATURE")
	issueAddCmd.Flags().StringVar(&issueAssignee, "assignee", "", "Assignee email")
	_ = issueAddCmd.MarkFlagRequired("title")

	issueListCmd.Flags().StringVar(&issueStatus, "status", "", "Filter by status (comma-separated)")
	issueListCmd.Flags().StringVar(&issuePriority, "priority", "", "Filter by priority (comma-separated)")
	issueListCmd.Flags().StringVar(&issueType, "type", "", "Filter by type (comma-separated)")
	issueListCmd.Flags().StringVar(&issueAssignee, "assignee", "", "Filter by assignee email")
	issueListCmd.Flags().StringVar(&issueSearch, "search", "", "Substring match on title and description")
	issueListCmd.Flags().BoolVar(&issueArchived, "archived", false, "Include archived issues")
	issueListCmd.Flags().BoolVar(&issueDeleted, "deleted", false, "Include soft-deleted issues")
	issueListCmd.Flags().IntVar(&issuePage, "page", 1, "Page number (1-indexed)")
	issueListCmd.Flags().IntVar(&issuePageSize, "page-size", 20, "Issues per page")
	issueListCmd.Flags().StringVar(&issueSortBy, "sort", "createdAt", "Sort field: createdAt, updatedAt, title, type, status, priority")
	issueListCmd.Flags().StringVar(&issueSortOrder, "order", "asc", "Sort order: asc, desc")

	issueUpdateCmd.Flags().StringVar(&issueStatus, "status", "", "New status")
	issueUpdateCmd.Flags().StringVar(&issuePriority, "priority", "", "New priority")
	issueUpdateCmd.Flags().StringVar(&issueType, "type", "", "New type")
	issueUpdateCmd.Flags().StringVar(&issueTitle, "title", "", "New title")
	issueUpdateCmd.Flags().StringVar(&issueDesc, "desc", "", "New description")
	issueUpdateCmd.Flags().StringSliceVar(&issueLabels, "label", nil, "Replace the issue's labels (repeatable, by label name)")

	issueCmd.AddCommand(issueAddCmd)
	issueCmd.AddCommand(issueListCmd)
	issueCmd.AddCommand(issueShowCmd)
	issueCmd.AddCommand(issueUpdateCmd)
	issueCmd.AddCommand(issueAssignCmd)
	issueCmd.AddCommand(issueArchiveCmd)
	issueCmd.AddCommand(issueUnarchiveCmd)
	issueCmd.AddCommand(issueDeleteCmd)
	issueCmd.AddCommand(issueRestoreCmd)
	issueCmd.AddCommand(issuePurgeCmd)
	issueCmd.AddCommand(issueHistoryCmd)
	issueCmd.AddCommand(issueTriageCmd)
	rootCmd.AddCommand(issueCmd)
}

func issueAddRun() error {
	svc, err := getIssueService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	actor, err := getActor(ctx)
	if err != nil {
		return err
	}

	req := issues.CreateRequest{
		Title:       issueTitle,
		Description: issueDesc,
		Type:        models.IssueTypeBug,
	}
	if issueType != "" {
		if req.Type, err = models.ParseType(issueType); err != nil {
			return err
		}
	}
	if issuePriority != "" {
		if req.Priority, err = models.ParsePriority(issuePriority); err != nil {
			return err
		}
	}
	if issueAssignee != "" {
		u, err := dataStore.GetUserByEmail(ctx, issueAssignee)
		if err != nil {
			return fmt.Errorf("assignee not found: %s", issueAssignee)
		}
		req.AssignedToID = u.ID
	}

	issue, err := svc.Create(ctx, actor, req)
	if err != nil {
		return err
	}

	ui.Success("Created issue %s: %s", output.Cyan(shortID(issue.ID)), issue.Title)
	return nil
}

func issueListRun() error {
	svc, err := getIssueService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	filter := store.IssueListFilter{
		Search:          issueSearch,
		IncludeArchived: issueArchived,
		IncludeDeleted:  issueDeleted,
	}
	for _, raw := range splitFlag(issueStatus) {
		st, err := models.ParseStatus(raw, allowClosed())
		if err != nil {
			return err
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	for _, raw := range splitFlag(issuePriority) {
		p, err := models.ParsePriority(raw)
		if err != nil {
			return err
		}
		filter.Priorities = append(filter.Priorities, p)
	}
	for _, raw := range splitFlag(issueType) {
		t, err := models.ParseType(raw)
		if err != nil {
			return err
		}
		filter.Types = append(filter.Types, t)
	}
	if issueAssignee != "" {
		u, err := dataStore.GetUserByEmail(ctx, issueAssignee)
		if err != nil {
			return fmt.Errorf("assignee not found: %s", issueAssignee)
		}
		filter.AssignedToID = u.ID
	}

	page, err := svc.List(ctx, filter, store.ListOptions{
		Page:     issuePage,
		PageSize: issuePageSize,
		SortBy:   issueSortBy,
		Order:    issueSortOrder,
	})
	if err != nil {
		return err
	}

	if page.Total == 0 {
		ui.Info("No issues found.")
		return nil
	}

	table := ui.Table([]string{"ID", "Title", "Type", "Status", "Priority", "Assignee", "Flags"})
	names := userNameCache(ctx)
	for _, issue := range page.Items {
		var flags []string
		if issue.Archived {
			flags = append(flags, "archived")
		}
		if issue.Deleted {
			flags = append(flags, "deleted")
		}
		table.Append([]string{
			shortID(issue.ID),
			issue.Title,
			string(issue.Type),
			output.StatusColor(string(issue.Status)),
			output.PriorityColor(string(issue.Priority)),
			names(issue.AssignedToID),
			strings.Join(flags, ","),
		})
	}
	table.Render()

	if page.Total > len(page.Items) {
		ui.Info("Page %d of %d issues (use --page/--page-size)", page.Page, page.Total)
	}
	return nil
}

func issueShowRun(id string) error {
	ctx := context.Background()

	issue, err := resolveIssue(ctx, id)
	if err != nil {
		return err
	}
	names := userNameCache(ctx)

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(issue.ID)), issue.Title)
	fmt.Fprintf(ui.Out, "  Type:       %s\n", issue.Type)
	fmt.Fprintf(ui.Out, "  Status:     %s\n", output.StatusColor(string(issue.Status)))
	fmt.Fprintf(ui.Out, "  Priority:   %s\n", output.PriorityColor(string(issue.Priority)))
	if issue.Description != "" {
		fmt.Fprintf(ui.Out, "  Desc:       %s\n", issue.Description)
	}
	fmt.Fprintf(ui.Out, "  Reporter:   %s\n", names(issue.CreatedByID))
	if issue.AssignedToID != "" {
		fmt.Fprintf(ui.Out, "  Assignee:   %s\n", names(issue.AssignedToID))
	}
	fmt.Fprintf(ui.Out, "  Created:    %s\n", issue.CreatedAt.Format(time.RFC3339))
	if issue.UpdatedAt != nil {
		fmt.Fprintf(ui.Out, "  Updated:    %s\n", issue.UpdatedAt.Format(time.RFC3339))
	}
	if issue.Archived {
		fmt.Fprintf(ui.Out, "  Archived:   %s by %s\n", issue.ArchivedAt.Format(time.RFC3339), names(issue.ArchivedByID))
	}
	if issue.Deleted {
		fmt.Fprintf(ui.Out, "  Deleted:    yes (restore with 'bugboard issue restore')\n")
	}
	if len(issue.Labels) > 0 {
		fmt.Fprintf(ui.Out, "  Labels:     %s\n", strings.Join(labelNames(ctx, issue.Labels), ", "))
	}
	fmt.Fprintf(ui.Out, "  Full ID:    %s\n", issue.ID)

	// Comments inline, oldest first.
	cs, err := getCommentService()
	if err != nil {
		return err
	}
	list, err := cs.ListByIssue(ctx, issue.ID)
	if err != nil {
		return err
	}
	if len(list) > 0 {
		fmt.Fprintln(ui.Out)
		for _, c := range list {
			fmt.Fprintf(ui.Out, "  [%s] %s: %s\n", c.CreatedAt.Format("2006-01-02 15:04"), names(c.AuthorID), c.Content)
		}
	}

	return nil
}

func issueUpdateRun(id string) error {
	svc, err := getIssueService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	actor, err := getActor(ctx)
	if err != nil {
		return err
	}
	issue, err := resolveIssue(ctx, id)
	if err != nil {
		return err
	}

	var req issues.UpdateRequest
	changed := false

	if issueStatus != "" {
		st, err := models.ParseStatus(issueStatus, allowClosed())
		if err != nil {
			return err
		}
		req.Status = &st
		changed = true
	}
	if issuePriority != "" {
		p, err := models.ParsePriority(issuePriority)
		if err != nil {
			return err
		}
		req.Priority = &p
		changed = true
	}
	if issueType != "" {
		t, err := models.ParseType(issueType)
		if err != nil {
			return err
		}
		req.Type = &t
		changed = true
	}
	if issueTitle != "" {
		req.Title = &issueTitle
		changed = true
	}
	if issueDesc != "" {
		req.Description = &issueDesc
		changed = true
	}
	if len(issueLabels) > 0 {
		ids, err := resolveLabelIDs(ctx, issueLabels)
		if err != nil {
			return err
		}
		req.LabelIDs = ids
		changed = true
	}

	if !changed {
		return fmt.Errorf("no updates specified (use --status, --priority, --type, --title, --desc, or --label)")
	}

	updated, err := svc.Update(ctx, actor, issue.ID, req)
	if err != nil {
		return err
	}

	ui.Success("Updated issue %s", output.Cyan(shortID(updated.ID)))
	return nil
}

func issueAssignRun(id, email string) error {
	svc, err := getIssueService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	actor, err := getActor(ctx)
	if err != nil {
		return err
	}
	issue, err := resolveIssue(ctx, id)
	if err != nil {
		return err
	}

	assigneeID := ""
	if email != "none" {
		u, err := dataStore.GetUserByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("account not found: %s", email)
		}
		assigneeID = u.ID
	}

	if _, err := svc.Update(ctx, actor, issue.ID, issues.UpdateRequest{AssignedToID: &assigneeID}); err != nil {
		return err
	}

	if assigneeID == "" {
		ui.Success("Unassigned issue %s", output.Cyan(shortID(issue.ID)))
	} else {
		ui.Success("Assigned issue %s to %s", output.Cyan(shortID(issue.ID)), email)
	}
	return nil
}

func issueArchiveRun(id string, archive bool) error {
	svc, err := getIssueService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	actor, err := getActor(ctx)
	if err != nil {
		return err
	}
	issue, err := resolveIssue(ctx, id)
	if err != nil {
		return err
	}

	if archive {
		if _, err := svc.Archive(ctx, actor, issue.ID); err != nil {
			return err
		}
		ui.Success("Archived issue %s: %s", output.Cyan(shortID(issue.ID)), issue.Title)
	} else {
		if _, err := svc.Unarchive(ctx, actor, issue.ID); err != nil {
			return err
		}
		ui.Success("Unarchived issue %s: %s", output.Cyan(shortID(issue.ID)), issue.Title)
	}
	return nil
}

func issueDeleteRun(id string) error {
	svc, err := getIssueService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	actor, err := getActor(ctx)
	if err != nil {
		return err
	}
	issue, err := resolveIssue(ctx, id)
	if err != nil {
		return err
	}

	if err := svc.SoftDelete(ctx, actor, issue.ID); err != nil {
		return err
	}
	ui.Success("Deleted issue %s (restore with 'bugboard issue restore %s')", output.Cyan(shortID(issue.ID)), shortID(issue.ID))
	return nil
}

func issueRestoreRun(id string) error {
	svc, err := getIssueService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	actor, err := getActor(ctx)
	if err != nil {
		return err
	}
	issue, err := resolveIssue(ctx, id)
	if err != nil {
		return err
	}

	if _, err := svc.Restore(ctx, actor, issue.ID); err != nil {
		return err
	}
	ui.Success("Restored issue %s: %s", output.Cyan(shortID(issue.ID)), issue.Title)
	return nil
}

func issuePurgeRun(id string) error {
	svc, err := getIssueService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	actor, err := getActor(ctx)
	if err != nil {
		return err
	}
	issue, err := resolveIssue(ctx, id)
	if err != nil {
		return err
	}

	if err := svc.HardDelete(ctx, actor, issue.ID); err != nil {
		return err
	}
	ui.Success("Purged issue %s: %s", output.Cyan(shortID(issue.ID)), issue.Title)
	return nil
}

func issueHistoryRun(id string) error {
	svc, err := getIssueService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	issue, err := resolveIssue(ctx, id)
	if err != nil {
		return err
	}

	entries, err := svc.History(ctx, issue.ID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ui.Info("No history for issue %s.", shortID(issue.ID))
		return nil
	}

	names := userNameCache(ctx)
	for _, e := range entries {
		fmt.Fprintf(ui.Out, "  %s  %-20s %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), names(e.UserID), e.Action)
	}
	return nil
}

func issueTriageRun(title string) error {
	ctx := context.Background()

	client := llm.NewClient(viper.GetString("anthropic.api_key"), viper.GetString("anthropic.model"))
	if client != nil {
		if triage, err := client.SuggestTriage(ctx, title, ""); err == nil {
			ui.Info("Type: %s  Priority: %s  (%s)", triage.Type, output.PriorityColor(string(triage.Priority)), triage.Reason)
			return nil
		}
		ui.Warning("LLM triage failed, falling back to keyword heuristics")
	}

	triage := llm.ClassifyTriage(title)
	ui.Info("Type: %s  Priority: %s", triage.Type, output.PriorityColor(string(triage.Priority)))
	return nil
}

// resolveIssue finds an issue by full ID or unique prefix, including
// archived and soft-deleted records.
func resolveIssue(ctx context.Context, id string) (*models.Issue, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}

	if issue, err := s.GetIssue(ctx, id); err == nil {
		return issue, nil
	}

	upper := strings.ToUpper(id)
	filter := store.IssueListFilter{IncludeArchived: true, IncludeDeleted: true}
	list, err := s.ListAllIssues(ctx, filter, "", "")
	if err != nil {
		return nil, err
	}

	var matches []*models.Issue
	for _, issue := range list {
		if strings.HasPrefix(issue.ID, upper) {
			matches = append(matches, issue)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("issue not found: %s", id)
	case 1:
		return s.GetIssue(ctx, matches[0].ID)
	default:
		return nil, fmt.Errorf("ambiguous issue ID %s: matches %d issues", id, len(matches))
	}
}

// shortID returns a truncated ULID for display (first 12 chars).
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func splitFlag(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// userNameCache resolves user IDs to display names, memoizing per run.
func userNameCache(ctx context.Context) func(string) string {
	cache := make(map[string]string)
	return func(id string) string {
		if id == "" {
			return ""
		}
		if name, ok := cache[id]; ok {
			return name
		}
		name := id
		if u, err := dataStore.GetUser(ctx, id); err == nil {
			if u.Name != "" {
				name = u.Name
			} else {
				name = u.Email
			}
		}
		cache[id] = name
		return name
	}
}

func labelNames(ctx context.Context, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if l, err := dataStore.GetLabel(ctx, id); err == nil {
			out = append(out, l.Name)
		} else {
			out = append(out, id)
		}
	}
	return out
}
