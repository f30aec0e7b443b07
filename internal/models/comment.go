package models

import "time"

// Comment is a note attached to exactly one issue.
type Comment struct {
	ID        string     `json:"id"`
	IssueID   string     `json:"issueId"`
	AuthorID  string     `json:"authorId"`
	Content   string     `json:"content"`
	Image     string     `json:"image,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}
