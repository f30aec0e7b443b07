// Package comments is the per-issue note ledger. Comments belong to
// exactly one issue and list in creation order; only their author may edit
// them, and only the author or an admin may delete them.
package comments

import (
	"context"
	"fmt"
	"strings"

	"github.com/bugboard/bugboard/internal/models"
	"github.com/bugboard/bugboard/internal/permission"
	"github.com/bugboard/bugboard/internal/store"
)

// Service owns comment records.
type Service struct {
	store store.Store
}

// NewService creates a comment service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// ListByIssue returns the issue's comments sorted by creation time,
// oldest first.
func (s *Service) ListByIssue(ctx context.Context, issueID string) ([]*models.Comment, error) {
	if _, err := s.store.GetIssue(ctx, issueID); err != nil {
		return nil, err
	}
	return s.store.ListCommentsByIssue(ctx, issueID)
}

// Create appends a comment to an issue.
func (s *Service) Create(ctx context.Context, actor *models.User, issueID, content, image string) (*models.Comment, error) {
	if !permission.Can(actor, permission.ActionComment, nil) {
		return nil, fmt.Errorf("comment: %w", models.ErrForbidden)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: comment content is required", models.ErrValidation)
	}
	if _, err := s.store.GetIssue(ctx, issueID); err != nil {
		return nil, err
	}

	c := &models.Comment{
		IssueID:  issueID,
		AuthorID: actor.ID,
		Content:  content,
		Image:    image,
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the comment's content and stamps updatedAt. Author only.
func (s *Service) Update(ctx context.Context, actor *models.User, id, content, image string) (*models.Comment, error) {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !permission.CanEditComment(actor, c) {
		return nil, fmt.Errorf("edit comment: %w", models.ErrForbidden)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: comment content is required", models.ErrValidation)
	}

	c.Content = content
	c.Image = image
	if err := s.store.UpdateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a comment. Allowed for the author or an admin,
// independent of the issue's archival state.
func (s *Service) Delete(ctx context.Context, actor *models.User, id string) error {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if !permission.CanDeleteComment(actor, c) {
		return fmt.Errorf("delete comment: %w", models.ErrForbidden)
	}
	return s.store.DeleteComment(ctx, id)
}
