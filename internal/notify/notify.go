// Package notify delivers per-user notifications generated by issue
// activity. Delivery is store-backed; readers poll and mark entries read.
package notify

import (
	"context"
	"fmt"

	"github.com/bugboard/bugboard/internal/models"
	"github.com/bugboard/bugboard/internal/store"
)

// Service creates and reads notifications.
type Service struct {
	store store.Store
}

// NewService creates a notification service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// NotifyUser records a notification for the user, optionally linked to an
// issue.
func (s *Service) NotifyUser(ctx context.Context, userID, message, issueID string) error {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return fmt.Errorf("notify user: %w", err)
	}
	n := &models.Notification{
		UserID:  userID,
		IssueID: issueID,
		Message: message,
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("notify user: %w", err)
	}
	return nil
}

// ListByUser returns the user's notifications, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	return s.store.ListNotificationsByUser(ctx, userID)
}

// MarkRead flags a notification as read.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	return s.store.MarkNotificationRead(ctx, id)
}
