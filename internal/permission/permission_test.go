package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bugboard/bugboard/internal/models"
)

var (
	admin    = &models.User{ID: "u-admin", Role: models.RoleAdmin}
	user     = &models.User{ID: "u-user", Role: models.RoleUser}
	external = &models.User{ID: "u-ext", Role: models.RoleExternal}
)

func TestCan_CreateIssue(t *testing.T) {
	assert.True(t, Can(admin, ActionCreateIssue, nil))
	assert.True(t, Can(user, ActionCreateIssue, nil))
	assert.False(t, Can(external, ActionCreateIssue, nil))
	assert.False(t, Can(nil, ActionCreateIssue, nil))
}

func TestCan_Comment(t *testing.T) {
	assert.True(t, Can(admin, ActionComment, nil))
	assert.True(t, Can(user, ActionComment, nil))
	assert.False(t, Can(external, ActionComment, nil))
}

func TestCan_ChangeStatus(t *testing.T) {
	assigned := &models.Issue{ID: "i1", AssignedToID: user.ID}
	other := &models.Issue{ID: "i2", AssignedToID: "someone-else"}
	unassigned := &models.Issue{ID: "i3"}

	tests := []struct {
		name   string
		actor  *models.User
		target *models.Issue
		want   bool
	}{
		{"admin any issue", admin, other, true},
		{"admin nil target", admin, nil, true},
		{"user assigned to them", user, assigned, true},
		{"user not assigned", user, other, false},
		{"user unassigned issue", user, unassigned, false},
		{"user nil target denies", user, nil, false},
		{"external even when assigned", external, &models.Issue{AssignedToID: external.ID}, false},
		{"absent actor", nil, assigned, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.actor, ActionChangeStatus, tt.target))
		})
	}
}

func TestCan_AdminOnlyActions(t *testing.T) {
	issue := &models.Issue{ID: "i1"}
	assert.True(t, Can(admin, ActionArchive, issue))
	assert.False(t, Can(user, ActionArchive, issue))
	assert.False(t, Can(external, ActionArchive, issue))

	assert.True(t, Can(admin, ActionManageUsers, nil))
	assert.False(t, Can(user, ActionManageUsers, nil))
}

func TestCan_FailsClosed(t *testing.T) {
	assert.False(t, Can(admin, Action("made-up-action"), nil))
	assert.False(t, Can(nil, Action(""), nil))
}

func TestCommentPermissions(t *testing.T) {
	c := &models.Comment{ID: "c1", AuthorID: user.ID}

	assert.True(t, CanEditComment(user, c))
	assert.False(t, CanEditComment(admin, c), "admins may not edit others' comments")
	assert.False(t, CanEditComment(nil, c))

	assert.True(t, CanDeleteComment(user, c))
	assert.True(t, CanDeleteComment(admin, c))
	assert.False(t, CanDeleteComment(external, c))
	assert.False(t, CanDeleteComment(nil, c))
}
