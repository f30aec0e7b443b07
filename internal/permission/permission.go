// Package permission centralizes every authorization decision. Evaluation
// is a pure function of the actor's role, the action, and (for issue-scoped
// actions) the target issue's assignment. Callers gate every mutating code
// path through Can before touching the store.
package permission

import "github.com/bugboard/bugboard/internal/models"

// Action identifies an operation subject to authorization.
type Action string

const (
	ActionCreateIssue  Action = "create-issue"
	ActionComment      Action = "comment"
	ActionChangeStatus Action = "change-status"
	ActionArchive      Action = "archive"
	ActionManageUsers  Action = "manage-users"
)

// Can reports whether the actor may perform the action. A nil actor always
// denies, as does an unrecognized action. ActionChangeStatus requires a
// target issue; a nil target denies rather than erroring, matching the
// observed behavior of the system this replaces.
func Can(actor *models.User, action Action, target *models.Issue) bool {
	if actor == nil {
		return false
	}
	switch action {
	case ActionCreateIssue, ActionComment:
		return actor.Role != models.RoleExternal
	case ActionChangeStatus:
		if actor.Role == models.RoleAdmin {
			return true
		}
		return actor.Role == models.RoleUser &&
			target != nil &&
			target.AssignedToID != "" &&
			target.AssignedToID == actor.ID
	case ActionArchive, ActionManageUsers:
		return actor.Role == models.RoleAdmin
	}
	return false
}

// CanModifyIssue reports whether the actor may edit the issue's fields
// (title, description, type, priority, assignment, labels). Admins have
// full access; users may only modify issues assigned to them.
func CanModifyIssue(actor *models.User, target *models.Issue) bool {
	return Can(actor, ActionChangeStatus, target)
}

// CanEditComment allows only the comment's author to edit it.
func CanEditComment(actor *models.User, c *models.Comment) bool {
	return actor != nil && c != nil && c.AuthorID == actor.ID
}

// CanDeleteComment allows the author or an admin to delete a comment.
func CanDeleteComment(actor *models.User, c *models.Comment) bool {
	if actor == nil || c == nil {
		return false
	}
	return c.AuthorID == actor.ID || actor.Role == models.RoleAdmin
}
