// Package mcp exposes the bugboard data layer as MCP tools so coding
// agents can read and update the board. Every mutation runs through the
// same service layer as the REST API, acting as the configured user.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bugboard/bugboard/internal/comments"
	"github.com/bugboard/bugboard/internal/issues"
	"github.com/bugboard/bugboard/internal/models"
	"github.com/bugboard/bugboard/internal/notify"
	"github.com/bugboard/bugboard/internal/stats"
	"github.com/bugboard/bugboard/internal/store"
)

// Server wraps the bugboard data layer and exposes it as MCP tools.
type Server struct {
	store      store.Store
	issues     *issues.Service
	comments   *comments.Service
	actorEmail string
}

// NewServer creates the MCP server wrapper. actorEmail names the account
// all tool calls act as; permission rules apply to it like any other user.
func NewServer(s store.Store, actorEmail string, allowClosed bool) *Server {
	return &Server{
		store:      s,
		issues:     issues.NewService(s, notify.NewService(s), allowClosed),
		comments:   comments.NewService(s),
		actorEmail: actorEmail,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("bugboard", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.listIssuesTool())
	srv.AddTool(s.createIssueTool())
	srv.AddTool(s.updateIssueTool())
	srv.AddTool(s.archiveIssueTool())
	srv.AddTool(s.commentTool())
	srv.AddTool(s.issueHistoryTool())
	srv.AddTool(s.listUsersTool())
	srv.AddTool(s.boardStatsTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// issueOut is the JSON shape tools return for a single issue.
type issueOut struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Type         string   `json:"type"`
	Status       string   `json:"status"`
	Priority     string   `json:"priority"`
	AssignedToID string   `json:"assigned_to_id,omitempty"`
	CreatedByID  string   `json:"created_by_id"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at,omitempty"`
	Archived     bool     `json:"archived"`
	Deleted      bool     `json:"deleted,omitempty"`
	Labels       []string `json:"labels,omitempty"`
}

func issueToOut(issue *models.Issue) issueOut {
	out := issueOut{
		ID:           issue.ID,
		Title:        issue.Title,
		Description:  issue.Description,
		Type:         string(issue.Type),
		Status:       string(issue.Status),
		Priority:     string(issue.Priority),
		AssignedToID: issue.AssignedToID,
		CreatedByID:  issue.CreatedByID,
		CreatedAt:    issue.CreatedAt.Format(time.RFC3339),
		Archived:     issue.Archived,
		Deleted:      issue.Deleted,
		Labels:       issue.Labels,
	}
	if issue.UpdatedAt != nil {
		out.UpdatedAt = issue.UpdatedAt.Format(time.RFC3339)
	}
	return out
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// bugboard_list_issues
func (s *Server) listIssuesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bugboard_list_issues",
		mcp.WithDescription("List issues, optionally filtered. Returns a JSON array of issues. Each issue has: title, description, type (QUESTION/BUG/DOCUMENTATION/FEATURE), status (TODO/IN_PROGRESS/RESOLVED), priority (LOW/MEDIUM/HIGH/CRITICAL), assignee, and archived flag. Archived and soft-deleted issues are excluded unless requested."),
		mcp.WithString("status", mcp.Description("Status filter, comma-separated: TODO, IN_PROGRESS, RESOLVED")),
		mcp.WithString("priority", mcp.Description("Priority filter, comma-separated: LOW, MEDIUM, HIGH, CRITICAL")),
		mcp.WithString("type", mcp.Description("Type filter, comma-separated: QUESTION, BUG, DOCUMENTATION, FEATURE")),
		mcp.WithString("assignee", mcp.Description("Filter by assignee email")),
		mcp.WithString("search", mcp.Description("Substring match on title and description")),
		mcp.WithBoolean("include_archived", mcp.Description("Include archived issues")),
		mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted issues")),
	)
	return tool, s.handleListIssues
}

func (s *Server) handleListIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := store.IssueListFilter{
		Search:          request.GetString("search", ""),
		IncludeArchived: request.GetBool("include_archived", false),
		IncludeDeleted:  request.GetBool("include_deleted", false),
	}

	for _, raw := range splitList(request.GetString("status", "")) {
		st, err := models.ParseStatus(raw, false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	for _, raw := range splitList(request.GetString("priority", "")) {
		p, err := models.ParsePriority(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filter.Priorities = append(filter.Priorities, p)
	}
	for _, raw := range splitList(request.GetString("type", "")) {
		t, err := models.ParseType(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filter.Types = append(filter.Types, t)
	}

	if email := request.GetString("assignee", ""); email != "" {
		u, err := s.store.GetUserByEmail(ctx, email)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("assignee not found: %s", email)), nil
		}
		filter.AssignedToID = u.ID
	}

	list, err := s.issues.ListAll(ctx, filter, "", "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list issues: %v", err)), nil
	}

	out := make([]issueOut, len(list))
	for i, issue := range list {
		out[i] = issueToOut(issue)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal issues: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// bugboard_create_issue
func (s *Server) createIssueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bugboard_create_issue",
		mcp.WithDescription("Report a new issue. Returns the created issue as JSON. The configured account becomes the creator."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Issue title")),
		mcp.WithString("description", mcp.Description("Issue description")),
		mcp.WithString("type", mcp.Description("Issue type: QUESTION, BUG, DOCUMENTATION, FEATURE (default: BUG)")),
		mcp.WithString("priority", mcp.Description("Issue priority: LOW, MEDIUM, HIGH, CRITICAL (default: MEDIUM)")),
		mcp.WithString("assignee", mcp.Description("Assignee email")),
	)
	return tool, s.handleCreateIssue
}

func (s *Server) handleCreateIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actor, err := s.resolveActor(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: title"), nil
	}

	req := issues.CreateRequest{
		Title:       title,
		Description: request.GetString("description", ""),
	}

	issueType, err := models.ParseType(request.GetString("type", "BUG"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	req.Type = issueType

	if raw := request.GetString("priority", ""); raw != "" {
		p, err := models.ParsePriority(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.Priority = p
	}
	if email := request.GetString("assignee", ""); email != "" {
		u, err := s.store.GetUserByEmail(ctx, email)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("assignee not found: %s", email)), nil
		}
		req.AssignedToID = u.ID
	}

	issue, err := s.issues.Create(ctx, actor, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create issue: %v", err)), nil
	}

	data, err := json.Marshal(issueToOut(issue))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal issue: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// bugboard_update_issue
func (s *Server) updateIssueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bugboard_update_issue",
		mcp.WithDescription("Update an existing issue. Provide the issue ID (full or prefix) and at least one field to update. Status changes require the configured account to be an admin or the assignee. Returns the updated issue as JSON."),
		mcp.WithString("issue_id", mcp.Required(), mcp.Description("Issue ID (full ULID or unique prefix)")),
		mcp.WithString("status", mcp.Description("New status: TODO, IN_PROGRESS, RESOLVED")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("priority", mcp.Description("New priority: LOW, MEDIUM, HIGH, CRITICAL")),
		mcp.WithString("assignee", mcp.Description("Assignee email; pass \"none\" to unassign")),
	)
	return tool, s.handleUpdateIssue
}

func (s *Server) handleUpdateIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actor, err := s.resolveActor(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	issueID, err := request.RequireString("issue_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: issue_id"), nil
	}

	issue, err := s.findIssue(ctx, issueID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var req issues.UpdateRequest
	updated := false

	if raw := request.GetString("status", ""); raw != "" {
		st, err := models.ParseStatus(raw, false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.Status = &st
		updated = true
	}
	if title := request.GetString("title", ""); title != "" {
		req.Title = &title
		updated = true
	}
	if desc := request.GetString("description", ""); desc != "" {
		req.Description = &desc
		updated = true
	}
	if raw := request.GetString("priority", ""); raw != "" {
		p, err := models.ParsePriority(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.Priority = &p
		updated = true
	}
	if email := request.GetString("assignee", ""); email != "" {
		if email == "none" {
			empty := ""
			req.AssignedToID = &empty
		} else {
			u, err := s.store.GetUserByEmail(ctx, email)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("assignee not found: %s", email)), nil
			}
			req.AssignedToID = &u.ID
		}
		updated = true
	}

	if !updated {
		return mcp.NewToolResultError("no fields provided to update; specify at least one of: status, title, description, priority, assignee"), nil
	}

	result, err := s.issues.Update(ctx, actor, issue.ID, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update issue: %v", err)), nil
	}

	data, err := json.Marshal(issueToOut(result))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal issue: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// bugboard_archive_issue
func (s *Server) archiveIssueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bugboard_archive_issue",
		mcp.WithDescription("Archive or unarchive an issue. Requires the configured account to be an admin. Archived issues keep their data but disappear from default listings."),
		mcp.WithString("issue_id", mcp.Required(), mcp.Description("Issue ID (full ULID or unique prefix)")),
		mcp.WithBoolean("unarchive", mcp.Description("Restore the issue from the archive instead")),
	)
	return tool, s.handleArchiveIssue
}

func (s *Server) handleArchiveIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actor, err := s.resolveActor(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	issueID, err := request.RequireString("issue_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: issue_id"), nil
	}

	issue, err := s.findIssue(ctx, issueID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result *models.Issue
	if request.GetBool("unarchive", false) {
		result, err = s.issues.Unarchive(ctx, actor, issue.ID)
	} else {
		result, err = s.issues.Archive(ctx, actor, issue.ID)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, _ := json.Marshal(issueToOut(result))
	return mcp.NewToolResultText(string(data)), nil
}

// bugboard_comment
func (s *Server) commentTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bugboard_comment",
		mcp.WithDescription("Add a comment to an issue as the configured account. Returns the created comment as JSON."),
		mcp.WithString("issue_id", mcp.Required(), mcp.Description("Issue ID (full ULID or unique prefix)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Comment text")),
	)
	return tool, s.handleComment
}

func (s *Server) handleComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actor, err := s.resolveActor(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	issueID, err := request.RequireString("issue_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: issue_id"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}

	issue, err := s.findIssue(ctx, issueID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	comment, err := s.comments.Create(ctx, actor, issue.ID, content, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to comment: %v", err)), nil
	}

	result := map[string]any{
		"id":         comment.ID,
		"issue_id":   comment.IssueID,
		"author_id":  comment.AuthorID,
		"content":    comment.Content,
		"created_at": comment.CreatedAt.Format(time.RFC3339),
	}
	data, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(data)), nil
}

// bugboard_issue_history
func (s *Server) issueHistoryTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bugboard_issue_history",
		mcp.WithDescription("Get the append-only history log for an issue: status changes, assignments, archival, oldest first."),
		mcp.WithString("issue_id", mcp.Required(), mcp.Description("Issue ID (full ULID or unique prefix)")),
	)
	return tool, s.handleIssueHistory
}

func (s *Server) handleIssueHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issueID, err := request.RequireString("issue_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: issue_id"), nil
	}

	issue, err := s.findIssue(ctx, issueID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entries, err := s.issues.History(ctx, issue.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load history: %v", err)), nil
	}

	type entryOut struct {
		UserID    string `json:"user_id"`
		Action    string `json:"action"`
		Timestamp string `json:"timestamp"`
	}
	out := make([]entryOut, len(entries))
	for i, e := range entries {
		out[i] = entryOut{
			UserID:    e.UserID,
			Action:    e.Action,
			Timestamp: e.Timestamp.Format(time.RFC3339),
		}
	}

	data, _ := json.Marshal(out)
	return mcp.NewToolResultText(string(data)), nil
}

// bugboard_list_users
func (s *Server) listUsersTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bugboard_list_users",
		mcp.WithDescription("List all accounts with id, email, name, and role. Useful for resolving assignees."),
	)
	return tool, s.handleListUsers
}

func (s *Server) handleListUsers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list users: %v", err)), nil
	}

	type userOut struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	}
	out := make([]userOut, len(users))
	for i, u := range users {
		out[i] = userOut{ID: u.ID, Email: u.Email, Name: u.Name, Role: string(u.Role)}
	}

	data, _ := json.Marshal(out)
	return mcp.NewToolResultText(string(data)), nil
}

// bugboard_board_stats
func (s *Server) boardStatsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bugboard_board_stats",
		mcp.WithDescription("Get board-wide counts and a 0-100 backlog health score."),
	)
	return tool, s.handleBoardStats
}

func (s *Server) handleBoardStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all, err := s.issues.ListAll(ctx, store.IssueListFilter{IncludeArchived: true, IncludeDeleted: true}, "", "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list issues: %v", err)), nil
	}

	summary := stats.Summarize(all, time.Now())
	result := map[string]any{
		"total":      summary.Total,
		"open":       summary.Open,
		"resolved":   summary.Resolved,
		"archived":   summary.Archived,
		"deleted":    summary.Deleted,
		"critical":   summary.Critical,
		"unassigned": summary.Unassigned,
		"score":      summary.Score,
	}

	data, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(data)), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// resolveActor loads the configured account. All permission checks run
// against it.
func (s *Server) resolveActor(ctx context.Context) (*models.User, error) {
	if s.actorEmail == "" {
		return nil, fmt.Errorf("no actor configured: set actor_email in config")
	}
	actor, err := s.store.GetUserByEmail(ctx, s.actorEmail)
	if err != nil {
		return nil, fmt.Errorf("actor account not found: %s", s.actorEmail)
	}
	return actor, nil
}

// findIssue finds an issue by full ID or unique prefix, including archived
// and soft-deleted records.
func (s *Server) findIssue(ctx context.Context, id string) (*models.Issue, error) {
	if issue, err := s.store.GetIssue(ctx, id); err == nil {
		return issue, nil
	}

	upper := strings.ToUpper(id)
	filter := store.IssueListFilter{IncludeArchived: true, IncludeDeleted: true}
	list, err := s.store.ListAllIssues(ctx, filter, "", "")
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
		return s.store.GetIssue(ctx, matches[0].ID)
	default:
		return nil, fmt.Errorf("ambiguous issue ID %s: matches %d issues", id, len(matches))
	}
}

func splitList(s string) []string {
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
