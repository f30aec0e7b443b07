package models

import "time"

// HistoryEntry records one mutation of an issue. The log is append-only:
// entries are never edited, truncated, or reordered.
type HistoryEntry struct {
	ID        string    `json:"id"`
	IssueID   string    `json:"issueId"`
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}
