package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bugboard/bugboard/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single connection
	// serializes all access through Go's pool, preventing "database is
	// locked" errors from concurrent requests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullString maps "" to NULL so optional foreign keys stay valid.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Users ---

func (s *SQLiteStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = newULID()
	}
	u.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role), u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return u, nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, role, created_at FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", id, err)
	}
	return u, nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, role, created_at FROM users WHERE email = ?`, email))
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", email, err)
	}
	return u, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, name, password_hash, role, created_at FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		var role string
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Role = models.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) UpdateUser(ctx context.Context, u *models.User) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET email=?, name=?, password_hash=?, role=? WHERE id=?`,
		u.Email, u.Name, u.PasswordHash, string(u.Role), u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("user %q: %w", u.ID, models.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("user %q: %w", id, models.ErrNotFound)
	}
	return nil
}

// --- Projects ---

func (s *SQLiteStore) CreateProject(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = newULID()
	}
	p.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, created_by_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.CreatedByID, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	p := &models.Project{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_by_id, created_at FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedByID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %q: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) GetProjectByName(ctx context.Context, name string) (*models.Project, error) {
	p := &models.Project{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_by_id, created_at FROM projects WHERE name = ?`, name,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedByID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %q: %w", name, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project by name: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]*models.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_by_id, created_at FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*models.Project
	for rows.Next() {
		p := &models.Project{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedByID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// --- Issues ---

const issueColumns = `id, project_id, title, type, description, priority, status,
	assigned_to_id, created_by_id, created_at, updated_at, image,
	archived, archived_at, archived_by_id, deleted`

func (s *SQLiteStore) CreateIssue(ctx context.Context, issue *models.Issue) error {
	if issue.ID == "" {
		issue.ID = newULID()
	}
	issue.CreatedAt = time.Now().UTC()
	// updated_at stays NULL until the first mutating write

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO issues (id, project_id, title, type, description, priority, status,
			assigned_to_id, created_by_id, created_at, image, archived, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID, nullString(issue.ProjectID), issue.Title, string(issue.Type),
		issue.Description, string(issue.Priority), string(issue.Status),
		nullString(issue.AssignedToID), issue.CreatedByID, issue.CreatedAt,
		issue.Image, boolToInt(issue.Archived), boolToInt(issue.Deleted),
	)
	if err != nil {
		return fmt.Errorf("create issue: %w", err)
	}
	return nil
}

// scanIssue scans one issue row in issueColumns order.
func scanIssue(scan func(dest ...any) error) (*models.Issue, error) {
	issue := &models.Issue{}
	var issueType, priority, status string
	var projectID, assignedTo, archivedBy sql.NullString
	var updatedAt, archivedAt sql.NullTime
	var archived, deleted int

	err := scan(&issue.ID, &projectID, &issue.Title, &issueType, &issue.Description,
		&priority, &status, &assignedTo, &issue.CreatedByID, &issue.CreatedAt,
		&updatedAt, &issue.Image, &archived, &archivedAt, &archivedBy, &deleted)
	if err != nil {
		return nil, err
	}

	issue.Type = models.IssueType(issueType)
	issue.Priority = models.IssuePriority(priority)
	issue.Status = models.IssueStatus(status)
	issue.ProjectID = projectID.String
	issue.AssignedToID = assignedTo.String
	issue.ArchivedByID = archivedBy.String
	issue.Archived = archived != 0
	issue.Deleted = deleted != 0
	if updatedAt.Valid {
		issue.UpdatedAt = &updatedAt.Time
	}
	if archivedAt.Valid {
		issue.ArchivedAt = &archivedAt.Time
	}
	return issue, nil
}

func (s *SQLiteStore) GetIssue(ctx context.Context, id string) (*models.Issue, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)

	issue, err := scanIssue(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("issue %q: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get issue: %w", err)
	}

	labels, err := s.getIssueLabelIDs(ctx, issue.ID)
	if err != nil {
		return nil, err
	}
	issue.Labels = labels
	return issue, nil
}

// issueFilterClause translates an IssueListFilter into SQL conditions.
func issueFilterClause(f IssueListFilter) (string, []any) {
	var conditions []string
	var args []any

	if f.ProjectID != "" {
		conditions = append(conditions, "project_id = ?")
		args = append(args, f.ProjectID)
	}
	if len(f.Types) > 0 {
		conditions = append(conditions, inClause("type", len(f.Types)))
		for _, t := range f.Types {
			args = append(args, string(t))
		}
	}
	if len(f.Statuses) > 0 {
		conditions = append(conditions, inClause("status", len(f.Statuses)))
		for _, st := range f.Statuses {
			args = append(args, string(st))
		}
	}
	if len(f.Priorities) > 0 {
		conditions = append(conditions, inClause("priority", len(f.Priorities)))
		for _, p := range f.Priorities {
			args = append(args, string(p))
		}
	}
	if f.AssignedToID != "" {
		conditions = append(conditions, "assigned_to_id = ?")
		args = append(args, f.AssignedToID)
	}
	if f.Search != "" {
		conditions = append(conditions, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		needle := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, needle, needle)
	}
	if !f.IncludeArchived {
		conditions = append(conditions, "archived = 0")
	}
	if !f.IncludeDeleted {
		conditions = append(conditions, "deleted = 0")
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func inClause(column string, n int) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
	return column + " IN (" + placeholders + ")"
}

// issueOrderClause maps a sortBy field onto an ORDER BY clause. Status and
// priority sort by enum rank, not lexically. The rowid tiebreaker keeps
// equal keys in insertion order for both directions.
func issueOrderClause(sortBy, order string) (string, error) {
	var dir string
	switch strings.ToLower(order) {
	case "", "asc":
		dir = "ASC"
	case "desc":
		dir = "DESC"
	default:
		return "", fmt.Errorf("%w: unknown sort order %q", models.ErrValidation, order)
	}

	var key string
	switch sortBy {
	case "", "createdAt":
		key = "created_at"
	case "updatedAt":
		key = "updated_at"
	case "title":
		key = "title COLLATE NOCASE"
	case "type":
		key = "type"
	case "status":
		key = `CASE status WHEN 'TODO' THEN 0 WHEN 'IN_PROGRESS' THEN 1 WHEN 'RESOLVED' THEN 2 WHEN 'CLOSED' THEN 3 ELSE 4 END`
	case "priority":
		key = `CASE priority WHEN 'CRITICAL' THEN 0 WHEN 'HIGH' THEN 1 WHEN 'MEDIUM' THEN 2 WHEN 'LOW' THEN 3 ELSE 4 END`
	default:
		return "", fmt.Errorf("%w: unknown sort field %q", models.ErrValidation, sortBy)
	}

	return fmt.Sprintf(" ORDER BY %s %s, rowid ASC", key, dir), nil
}

const defaultPageSize = 20

func (s *SQLiteStore) ListIssues(ctx context.Context, filter IssueListFilter, opts ListOptions) (*IssuePage, error) {
	where, args := issueFilterClause(filter)
	orderBy, err := issueOrderClause(opts.SortBy, opts.Order)
	if err != nil {
		return nil, err
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	// Total counts all matching records before pagination.
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM issues"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count issues: %w", err)
	}

	query := "SELECT " + issueColumns + " FROM issues" + where + orderBy + " LIMIT ? OFFSET ?"
	queryArgs := append(append([]any{}, args...), pageSize, (page-1)*pageSize)

	items, err := s.queryIssues(ctx, query, queryArgs...)
	if err != nil {
		return nil, err
	}

	return &IssuePage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// ListAllIssues applies the same filter and order as ListIssues without
// pagination. Export rendering feeds from this so exports match listings
// record for record.
func (s *SQLiteStore) ListAllIssues(ctx context.Context, filter IssueListFilter, sortBy, order string) ([]*models.Issue, error) {
	where, args := issueFilterClause(filter)
	orderBy, err := issueOrderClause(sortBy, order)
	if err != nil {
		return nil, err
	}
	return s.queryIssues(ctx, "SELECT "+issueColumns+" FROM issues"+where+orderBy, args...)
}

func (s *SQLiteStore) queryIssues(ctx context.Context, query string, args ...any) ([]*models.Issue, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []*models.Issue
	for rows.Next() {
		issue, err := scanIssue(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// UpdateIssue writes the mutable columns and stamps updated_at. The
// created_by_id and created_at columns are deliberately absent from the
// SET list; they are fixed at creation.
func (s *SQLiteStore) UpdateIssue(ctx context.Context, issue *models.Issue) error {
	now := time.Now().UTC()
	issue.UpdatedAt = &now

	result, err := s.db.ExecContext(ctx,
		`UPDATE issues SET title=?, type=?, description=?, priority=?, status=?,
			assigned_to_id=?, updated_at=?, image=?, archived=?, archived_at=?, archived_by_id=?, deleted=?
		WHERE id=?`,
		issue.Title, string(issue.Type), issue.Description, string(issue.Priority), string(issue.Status),
		nullString(issue.AssignedToID), issue.UpdatedAt, issue.Image,
		boolToInt(issue.Archived), issue.ArchivedAt, nullString(issue.ArchivedByID), boolToInt(issue.Deleted),
		issue.ID,
	)
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("issue %q: %w", issue.ID, models.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) SetIssueDeleted(ctx context.Context, id string, deleted bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE issues SET deleted=?, updated_at=? WHERE id=?",
		boolToInt(deleted), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set issue deleted: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("issue %q: %w", id, models.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) HardDeleteIssue(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM issues WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("issue %q: %w", id, models.ErrNotFound)
	}
	return nil
}

// SetIssueLabels replaces the issue's label set, preserving the order the
// caller supplied.
func (s *SQLiteStore) SetIssueLabels(ctx context.Context, issueID string, labelIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM issue_labels WHERE issue_id = ?", issueID); err != nil {
		return fmt.Errorf("clear issue labels: %w", err)
	}
	for i, labelID := range labelIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO issue_labels (issue_id, label_id, position) VALUES (?, ?, ?)",
			issueID, labelID, i); err != nil {
			return fmt.Errorf("set issue label %s: %w", labelID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) getIssueLabelIDs(ctx context.Context, issueID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT label_id FROM issue_labels WHERE issue_id = ? ORDER BY position", issueID)
	if err != nil {
		return nil, fmt.Errorf("get issue labels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan issue label: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- Labels ---

func (s *SQLiteStore) CreateLabel(ctx context.Context, l *models.Label) error {
	if l.ID == "" {
		l.ID = newULID()
	}
	l.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO labels (id, name, color, created_at) VALUES (?, ?, ?, ?)`,
		l.ID, l.Name, l.Color, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create label: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetLabel(ctx context.Context, id string) (*models.Label, error) {
	l := &models.Label{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, color, created_at FROM labels WHERE id = ?", id,
	).Scan(&l.ID, &l.Name, &l.Color, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("label %q: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get label: %w", err)
	}
	return l, nil
}

func (s *SQLiteStore) ListLabels(ctx context.Context) ([]*models.Label, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, color, created_at FROM labels ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var labels []*models.Label
	for rows.Next() {
		l := &models.Label{}
		if err := rows.Scan(&l.ID, &l.Name, &l.Color, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

func (s *SQLiteStore) DeleteLabel(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM labels WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete label: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("label %q: %w", id, models.ErrNotFound)
	}
	return nil
}

// --- Comments ---

func (s *SQLiteStore) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.ID == "" {
		c.ID = newULID()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (id, issue_id, author_id, content, image, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.IssueID, c.AuthorID, c.Content, c.Image, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	c := &models.Comment{}
	var updatedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, issue_id, author_id, content, image, created_at, updated_at
		FROM comments WHERE id = ?`, id,
	).Scan(&c.ID, &c.IssueID, &c.AuthorID, &c.Content, &c.Image, &c.CreatedAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("comment %q: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	if updatedAt.Valid {
		c.UpdatedAt = &updatedAt.Time
	}
	return c, nil
}

func (s *SQLiteStore) ListCommentsByIssue(ctx context.Context, issueID string) ([]*models.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, issue_id, author_id, content, image, created_at, updated_at
		FROM comments WHERE issue_id = ? ORDER BY created_at ASC, rowid ASC`, issueID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var comments []*models.Comment
	for rows.Next() {
		c := &models.Comment{}
		var updatedAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.IssueID, &c.AuthorID, &c.Content, &c.Image, &c.CreatedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		if updatedAt.Valid {
			c.UpdatedAt = &updatedAt.Time
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *SQLiteStore) UpdateComment(ctx context.Context, c *models.Comment) error {
	now := time.Now().UTC()
	c.UpdatedAt = &now

	result, err := s.db.ExecContext(ctx,
		"UPDATE comments SET content=?, image=?, updated_at=? WHERE id=?",
		c.Content, c.Image, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("comment %q: %w", c.ID, models.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteComment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("comment %q: %w", id, models.ErrNotFound)
	}
	return nil
}

// --- History ---

func (s *SQLiteStore) AppendHistory(ctx context.Context, e *models.HistoryEntry) error {
	if e.ID == "" {
		e.ID = newULID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history_entries (id, issue_id, user_id, action, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.IssueID, e.UserID, e.Action, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListHistory(ctx context.Context, issueID string) ([]*models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, issue_id, user_id, action, timestamp
		FROM history_entries WHERE issue_id = ? ORDER BY timestamp ASC, rowid ASC`, issueID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*models.HistoryEntry
	for rows.Next() {
		e := &models.HistoryEntry{}
		if err := rows.Scan(&e.ID, &e.IssueID, &e.UserID, &e.Action, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Notifications ---

func (s *SQLiteStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = newULID()
	}
	n.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, issue_id, message, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, nullString(n.IssueID), n.Message, boolToInt(n.Read), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListNotificationsByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, issue_id, message, read, created_at
		FROM notifications WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var issueID sql.NullString
		var read int
		if err := rows.Scan(&n.ID, &n.UserID, &issueID, &n.Message, &read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.IssueID = issueID.String
		n.Read = read != 0
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE notifications SET read=1 WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("notification %q: %w", id, models.ErrNotFound)
	}
	return nil
}
