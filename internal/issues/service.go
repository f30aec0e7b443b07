// Package issues implements the issue lifecycle: creation, patch-style
// updates, archival, soft delete, and the history log. Every mutation is
// gated through the permission evaluator before the store is touched;
// concurrent updates race with last-write-wins semantics, by contract.
package issues

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bugboard/bugboard/internal/models"
	"github.com/bugboard/bugboard/internal/notify"
	"github.com/bugboard/bugboard/internal/permission"
	"github.com/bugboard/bugboard/internal/store"
)

// Service owns issue records and their state transitions.
type Service struct {
	store       store.Store
	notifier    *notify.Service
	allowClosed bool
}

// NewService creates an issue service. allowClosed retains CLOSED as a
// fourth status; when false CLOSED input is rejected.
func NewService(s store.Store, notifier *notify.Service, allowClosed bool) *Service {
	return &Service{store: s, notifier: notifier, allowClosed: allowClosed}
}

// CreateRequest carries the fields for a new issue.
type CreateRequest struct {
	ProjectID    string
	Title        string
	Type         models.IssueType
	Description  string
	Priority     models.IssuePriority
	Status       models.IssueStatus
	AssignedToID string
	Image        string
}

// Create reports a new issue. The creator is the actor; createdAt is
// stamped by the store and never changes afterward. Creation itself is not
// recorded in the history log.
func (s *Service) Create(ctx context.Context, actor *models.User, req CreateRequest) (*models.Issue, error) {
	if !permission.Can(actor, permission.ActionCreateIssue, nil) {
		return nil, fmt.Errorf("create issue: %w", models.ErrForbidden)
	}

	issue := &models.Issue{
		ProjectID:    req.ProjectID,
		Title:        req.Title,
		Type:         req.Type,
		Description:  req.Description,
		Priority:     req.Priority,
		Status:       req.Status,
		AssignedToID: req.AssignedToID,
		CreatedByID:  actor.ID,
		Image:        req.Image,
	}
	if issue.Status == "" {
		issue.Status = models.IssueStatusTodo
	}
	if issue.Priority == "" {
		issue.Priority = models.IssuePriorityMedium
	}
	if err := s.checkStatus(issue.Status); err != nil {
		return nil, err
	}
	if err := issue.Validate(); err != nil {
		return nil, err
	}
	if issue.AssignedToID != "" {
		if _, err := s.store.GetUser(ctx, issue.AssignedToID); err != nil {
			return nil, fmt.Errorf("assignee: %w", err)
		}
	}

	if err := s.store.CreateIssue(ctx, issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// Get returns one issue by id, including soft-deleted and archived records.
func (s *Service) Get(ctx context.Context, id string) (*models.Issue, error) {
	return s.store.GetIssue(ctx, id)
}

// List returns one page of filtered issues.
func (s *Service) List(ctx context.Context, filter store.IssueListFilter, opts store.ListOptions) (*store.IssuePage, error) {
	return s.store.ListIssues(ctx, filter, opts)
}

// ListAll returns the full filtered selection without pagination, in the
// same order List would produce. Exports feed from this.
func (s *Service) ListAll(ctx context.Context, filter store.IssueListFilter, sortBy, order string) ([]*models.Issue, error) {
	return s.store.ListAllIssues(ctx, filter, sortBy, order)
}

// History returns the issue's append-only history log, oldest first.
func (s *Service) History(ctx context.Context, id string) ([]*models.HistoryEntry, error) {
	if _, err := s.store.GetIssue(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListHistory(ctx, id)
}

// UpdateRequest is a patch: nil fields are left unchanged. CreatedByID and
// CreatedAt exist only so attempts to change them can be rejected.
type UpdateRequest struct {
	Title        *string
	Type         *models.IssueType
	Description  *string
	Priority     *models.IssuePriority
	Status       *models.IssueStatus
	AssignedToID *string
	Image        *string
	LabelIDs     []string
	Archived     *bool

	CreatedByID *string
	CreatedAt   *time.Time
}

// Update merges the patch into the stored issue. Each concern carries its
// own permission rule: archival needs the archive permission, status
// changes the change-status permission, and everything else the general
// modify rule. The whole record is written back afterward, so two
// concurrent updates race and the later write wins.
func (s *Service) Update(ctx context.Context, actor *models.User, id string, req UpdateRequest) (*models.Issue, error) {
	if req.CreatedByID != nil || req.CreatedAt != nil {
		return nil, fmt.Errorf("update issue: creator fields are immutable: %w", models.ErrInvalidTransition)
	}

	// An empty patch carries no field to gate a permission check on, so it
	// must not reach the store: the whole-record write would stamp
	// updatedAt and re-write the snapshot ungated.
	if req.Title == nil && req.Type == nil && req.Description == nil &&
		req.Priority == nil && req.Status == nil && req.AssignedToID == nil &&
		req.Image == nil && req.LabelIDs == nil && req.Archived == nil {
		return nil, fmt.Errorf("%w: empty update", models.ErrValidation)
	}

	issue, err := s.store.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	var history []string
	var notifyMsg string

	if req.Archived != nil {
		if !permission.Can(actor, permission.ActionArchive, issue) {
			return nil, fmt.Errorf("archive issue: %w", models.ErrForbidden)
		}
		entry, err := s.applyArchived(issue, actor, *req.Archived)
		if err != nil {
			return nil, err
		}
		history = append(history, entry)
	}

	if req.Status != nil {
		if !permission.Can(actor, permission.ActionChangeStatus, issue) {
			return nil, fmt.Errorf("change status: %w", models.ErrForbidden)
		}
		if err := s.checkStatus(*req.Status); err != nil {
			return nil, err
		}
		old := issue.Status
		issue.Status = *req.Status
		history = append(history, fmt.Sprintf("Status changed: %s -> %s", old, issue.Status))
		if issue.CreatedByID != actor.ID {
			notifyMsg = fmt.Sprintf("Issue %q is now %s", issue.Title, strings.ToLower(string(issue.Status)))
		}
	}

	if req.Title != nil || req.Type != nil || req.Description != nil ||
		req.Priority != nil || req.AssignedToID != nil || req.Image != nil {
		if !permission.CanModifyIssue(actor, issue) {
			return nil, fmt.Errorf("modify issue: %w", models.ErrForbidden)
		}
		if req.Title != nil {
			issue.Title = *req.Title
		}
		if req.Type != nil {
			if _, err := models.ParseType(string(*req.Type)); err != nil {
				return nil, err
			}
			issue.Type = *req.Type
		}
		if req.Description != nil {
			issue.Description = *req.Description
		}
		if req.Priority != nil {
			if _, err := models.ParsePriority(string(*req.Priority)); err != nil {
				return nil, err
			}
			issue.Priority = *req.Priority
		}
		if req.Image != nil {
			issue.Image = *req.Image
		}
		if req.AssignedToID != nil {
			if *req.AssignedToID == "" {
				issue.AssignedToID = ""
				history = append(history, "Unassigned")
			} else {
				assignee, err := s.store.GetUser(ctx, *req.AssignedToID)
				if err != nil {
					return nil, fmt.Errorf("assignee: %w", err)
				}
				issue.AssignedToID = assignee.ID
				history = append(history, "Assigned to "+assignee.Name)
			}
		}
	}

	if req.LabelIDs != nil {
		if !permission.CanModifyIssue(actor, issue) {
			return nil, fmt.Errorf("modify issue: %w", models.ErrForbidden)
		}
		for _, labelID := range req.LabelIDs {
			if _, err := s.store.GetLabel(ctx, labelID); err != nil {
				return nil, err
			}
		}
	}

	if err := issue.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateIssue(ctx, issue); err != nil {
		return nil, err
	}
	// Side effects only after the record is persisted: a rejected patch
	// must leave no label change, history entry, or notification behind.
	if req.LabelIDs != nil {
		if err := s.store.SetIssueLabels(ctx, issue.ID, req.LabelIDs); err != nil {
			return nil, err
		}
	}
	for _, action := range history {
		if err := s.appendHistory(ctx, issue.ID, actor.ID, action); err != nil {
			return nil, err
		}
	}
	if s.notifier != nil && notifyMsg != "" {
		if err := s.notifier.NotifyUser(ctx, issue.CreatedByID, notifyMsg, issue.ID); err != nil {
			return nil, err
		}
	}

	return s.store.GetIssue(ctx, issue.ID)
}

// Archive marks the issue archived, stamping the archival time and actor.
// Archiving an already-archived issue fails with ErrInvalidTransition.
func (s *Service) Archive(ctx context.Context, actor *models.User, id string) (*models.Issue, error) {
	archived := true
	return s.Update(ctx, actor, id, UpdateRequest{Archived: &archived})
}

// Unarchive clears the archival fields. Unarchiving an issue that is not
// archived fails with ErrInvalidTransition.
func (s *Service) Unarchive(ctx context.Context, actor *models.User, id string) (*models.Issue, error) {
	archived := false
	return s.Update(ctx, actor, id, UpdateRequest{Archived: &archived})
}

// applyArchived flips the archival triple, keeping the invariant that
// archived=true has both archivedAt and archivedBy set and archived=false
// has neither.
func (s *Service) applyArchived(issue *models.Issue, actor *models.User, archived bool) (string, error) {
	if issue.Archived == archived {
		if archived {
			return "", fmt.Errorf("issue already archived: %w", models.ErrInvalidTransition)
		}
		return "", fmt.Errorf("issue not archived: %w", models.ErrInvalidTransition)
	}
	if archived {
		now := time.Now().UTC()
		issue.Archived = true
		issue.ArchivedAt = &now
		issue.ArchivedByID = actor.ID
		return "Issue archived", nil
	}
	issue.Archived = false
	issue.ArchivedAt = nil
	issue.ArchivedByID = ""
	return "Issue restored", nil
}

// SoftDelete hides the issue from listings without removing the record.
// Destructive operations are admin-gated like archival.
func (s *Service) SoftDelete(ctx context.Context, actor *models.User, id string) error {
	issue, err := s.store.GetIssue(ctx, id)
	if err != nil {
		return err
	}
	if !permission.Can(actor, permission.ActionArchive, issue) {
		return fmt.Errorf("delete issue: %w", models.ErrForbidden)
	}
	if err := s.store.SetIssueDeleted(ctx, id, true); err != nil {
		return err
	}
	return s.appendHistory(ctx, id, actor.ID, "Issue deleted")
}

// Restore reverses a soft delete.
func (s *Service) Restore(ctx context.Context, actor *models.User, id string) (*models.Issue, error) {
	issue, err := s.store.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if !permission.Can(actor, permission.ActionArchive, issue) {
		return nil, fmt.Errorf("restore issue: %w", models.ErrForbidden)
	}
	if err := s.store.SetIssueDeleted(ctx, id, false); err != nil {
		return nil, err
	}
	if err := s.appendHistory(ctx, id, actor.ID, "Issue restored from deletion"); err != nil {
		return nil, err
	}
	return s.store.GetIssue(ctx, id)
}

// HardDelete physically removes the issue and, via schema cascade, its
// comments and history. Admin only.
func (s *Service) HardDelete(ctx context.Context, actor *models.User, id string) error {
	if !permission.Can(actor, permission.ActionArchive, nil) {
		return fmt.Errorf("delete issue: %w", models.ErrForbidden)
	}
	return s.store.HardDeleteIssue(ctx, id)
}

func (s *Service) appendHistory(ctx context.Context, issueID, userID, action string) error {
	return s.store.AppendHistory(ctx, &models.HistoryEntry{
		IssueID: issueID,
		UserID:  userID,
		Action:  action,
	})
}

func (s *Service) checkStatus(st models.IssueStatus) error {
	switch st {
	case models.IssueStatusTodo, models.IssueStatusInProgress, models.IssueStatusResolved:
		return nil
	case models.IssueStatusClosed:
		if s.allowClosed {
			return nil
		}
		return fmt.Errorf("%w: status CLOSED is not enabled for this deployment", models.ErrValidation)
	}
	return fmt.Errorf("%w: unknown status %q", models.ErrValidation, st)
}
