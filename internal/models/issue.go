package models

import (
	"fmt"
	"strings"
	"time"
)

// IssueStatus represents the lifecycle state of an issue.
type IssueStatus string

const (
	IssueStatusTodo       IssueStatus = "TODO"
	IssueStatusInProgress IssueStatus = "IN_PROGRESS"
	IssueStatusResolved   IssueStatus = "RESOLVED"

	// IssueStatusClosed exists only in the legacy schema. It is accepted as
	// input only when the deployment enables it; otherwise legacy CHIUSA
	// records normalize to RESOLVED.
	IssueStatusClosed IssueStatus = "CLOSED"
)

// IssuePriority represents the urgency of an issue.
type IssuePriority string

const (
	IssuePriorityLow      IssuePriority = "LOW"
	IssuePriorityMedium   IssuePriority = "MEDIUM"
	IssuePriorityHigh     IssuePriority = "HIGH"
	IssuePriorityCritical IssuePriority = "CRITICAL"
)

// IssueType represents the kind of report an issue tracks.
type IssueType string

const (
	IssueTypeQuestion      IssueType = "QUESTION"
	IssueTypeBug           IssueType = "BUG"
	IssueTypeDocumentation IssueType = "DOCUMENTATION"
	IssueTypeFeature       IssueType = "FEATURE"
)

// legacyStatus maps first-generation (Italian) status values onto the
// canonical set. CHIUSA maps to CLOSED; how CLOSED itself is handled
// depends on the allowClosed deployment switch in ParseStatus.
var legacyStatus = map[string]IssueStatus{
	"APERTA":      IssueStatusTodo,
	"IN PROGRESS": IssueStatusInProgress,
	"RISOLTA":     IssueStatusResolved,
	"CHIUSA":      IssueStatusClosed,
}

var legacyPriority = map[string]IssuePriority{
	"BASSA":   IssuePriorityLow,
	"MEDIA":   IssuePriorityMedium,
	"ALTA":    IssuePriorityHigh,
	"CRITICA": IssuePriorityCritical,
}

// ParseStatus validates a status string, accepting canonical and legacy
// values. allowClosed controls whether CLOSED is retained as a fourth
// status or folded into RESOLVED.
func ParseStatus(s string, allowClosed bool) (IssueStatus, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	st := IssueStatus(upper)
	if legacy, ok := legacyStatus[upper]; ok {
		st = legacy
	}
	switch st {
	case IssueStatusTodo, IssueStatusInProgress, IssueStatusResolved:
		return st, nil
	case IssueStatusClosed:
		if allowClosed {
			return st, nil
		}
		return IssueStatusResolved, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// ParsePriority validates a priority string, accepting legacy values.
func ParsePriority(s string) (IssuePriority, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	p := IssuePriority(upper)
	if legacy, ok := legacyPriority[upper]; ok {
		p = legacy
	}
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh, IssuePriorityCritical:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown priority %q", ErrValidation, s)
}

// ParseType validates an issue type string.
func ParseType(s string) (IssueType, error) {
	t := IssueType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case IssueTypeQuestion, IssueTypeBug, IssueTypeDocumentation, IssueTypeFeature:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown issue type %q", ErrValidation, s)
}

// Issue is a tracked report. CreatedBy and CreatedAt are set once at
// creation and never mutated. Archived is true iff ArchivedAt and
// ArchivedByID are both set.
type Issue struct {
	ID           string        `json:"id"`
	ProjectID    string        `json:"projectId,omitempty"` // optional scope, legacy generation
	Title        string        `json:"title"`
	Type         IssueType     `json:"type"`
	Description  string        `json:"description"`
	Priority     IssuePriority `json:"priority"`
	Status       IssueStatus   `json:"status"`
	AssignedToID string        `json:"assignedToId,omitempty"`
	CreatedByID  string        `json:"createdById"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    *time.Time    `json:"updatedAt,omitempty"`
	Image        string        `json:"image,omitempty"`
	Archived     bool          `json:"archived"`
	ArchivedAt   *time.Time    `json:"archivedAt,omitempty"`
	ArchivedByID string        `json:"archivedById,omitempty"`
	Deleted      bool          `json:"deleted,omitempty"`
	Labels       []string      `json:"labels,omitempty"` // label IDs, insertion order
}

// Validate checks required fields and enum membership on a new issue.
func (i *Issue) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if i.CreatedByID == "" {
		return fmt.Errorf("%w: creator is required", ErrValidation)
	}
	if _, err := ParseType(string(i.Type)); err != nil {
		return err
	}
	if _, err := ParsePriority(string(i.Priority)); err != nil {
		return err
	}
	switch i.Status {
	case IssueStatusTodo, IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed:
		return nil
	}
	return fmt.Errorf("%w: unknown status %q", ErrValidation, i.Status)
}
