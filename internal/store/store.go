package store

import (
	"context"

	"github.com/bugboard/bugboard/internal/models"
)

// IssueListFilter specifies filters for listing issues. Slice fields use
// OR semantics within the field and AND semantics across fields. The
// archived/deleted flags follow the filter contract: false excludes
// archived (or soft-deleted) records, true returns the superset that
// includes them.
type IssueListFilter struct {
	ProjectID       string
	Types           []models.IssueType
	Statuses        []models.IssueStatus
	Priorities      []models.IssuePriority
	AssignedToID    string
	Search          string
	IncludeArchived bool
	IncludeDeleted  bool
}

// ListOptions controls pagination and ordering. Page is 1-indexed. SortBy
// names an issue field (createdAt, updatedAt, title, type, status,
// priority); Order is "asc" or "desc". Zero values fall back to
// createdAt/asc with the default page size.
type ListOptions struct {
	Page     int
	PageSize int
	SortBy   string
	Order    string
}

// IssuePage is one page of filtered issues. Total counts every record
// matching the filter, before pagination.
type IssuePage struct {
	Items    []*models.Issue `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

// Store defines the persistence interface for bugboard.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error

	// Projects (optional issue scope)
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetProjectByName(ctx context.Context, name string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]*models.Project, error)

	// Issues
	CreateIssue(ctx context.Context, issue *models.Issue) error
	GetIssue(ctx context.Context, id string) (*models.Issue, error)
	ListIssues(ctx context.Context, filter IssueListFilter, opts ListOptions) (*IssuePage, error)
	ListAllIssues(ctx context.Context, filter IssueListFilter, sortBy, order string) ([]*models.Issue, error)
	UpdateIssue(ctx context.Context, issue *models.Issue) error
	SetIssueDeleted(ctx context.Context, id string, deleted bool) error
	HardDeleteIssue(ctx context.Context, id string) error
	SetIssueLabels(ctx context.Context, issueID string, labelIDs []string) error

	// Labels
	CreateLabel(ctx context.Context, l *models.Label) error
	GetLabel(ctx context.Context, id string) (*models.Label, error)
	ListLabels(ctx context.Context) ([]*models.Label, error)
	DeleteLabel(ctx context.Context, id string) error

	// Comments
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	ListCommentsByIssue(ctx context.Context, issueID string) ([]*models.Comment, error)
	UpdateComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, id string) error

	// History (append-only)
	AppendHistory(ctx context.Context, e *models.HistoryEntry) error
	ListHistory(ctx context.Context, issueID string) ([]*models.HistoryEntry, error)

	// Notifications
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotificationsByUser(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
