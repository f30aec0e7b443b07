package models

import "time"

// Notification is a per-user message generated by issue activity.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	IssueID   string    `json:"issueId,omitempty"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
