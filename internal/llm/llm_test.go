package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bugboard/bugboard/internal/models"
)

func TestBuildTriagePrompt(t *testing.T) {
	system, user := buildTriagePrompt("Login crashes on empty password", "Stack trace attached")

	assert.Contains(t, system, `"type"`)
	assert.Contains(t, system, `"priority"`)
	assert.Contains(t, system, "CRITICAL")
	assert.Contains(t, user, "Issue title: Login crashes on empty password")
	assert.Contains(t, user, "Stack trace attached")
}

func TestBuildTriagePrompt_NoDescription(t *testing.T) {
	_, user := buildTriagePrompt("Add dark mode", "")
	assert.NotContains(t, user, "Description:")
}

func TestClassifyType(t *testing.T) {
	tests := []struct {
		title    string
		expected models.IssueType
	}{
		{"Fix login redirect loop", models.IssueTypeBug},
		{"Dashboard not working on mobile", models.IssueTypeBug},
		{"Crash when uploading large image", models.IssueTypeBug},
		{"Quick fix", models.IssueTypeBug},
		{"Update the README for v2", models.IssueTypeDocumentation},
		{"Write deployment guide", models.IssueTypeDocumentation},
		{"How to configure SSO?", models.IssueTypeQuestion},
		{"Clarify retention policy", models.IssueTypeQuestion},
		{"Add CSV export", models.IssueTypeFeature},
		{"Dark mode toggle", models.IssueTypeFeature},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyType(tt.title))
		})
	}
}

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		title    string
		expected models.IssuePriority
	}{
		{"Security hole in session handling", models.IssuePriorityCritical},
		{"Data loss after migration", models.IssuePriorityCritical},
		{"Urgent: checkout blocker", models.IssuePriorityHigh},
		{"Crash on startup", models.IssuePriorityHigh},
		{"Minor typo in footer", models.IssuePriorityLow},
		{"Cosmetic spacing issue on settings page", models.IssuePriorityLow},
		{"Add search filters", models.IssuePriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyPriority(tt.title))
		})
	}
}

func TestClassifyTriage(t *testing.T) {
	tr := ClassifyTriage("Fix urgent crash in importer")
	assert.Equal(t, models.IssueTypeBug, tr.Type)
	assert.Equal(t, models.IssuePriorityHigh, tr.Priority)
	assert.NotEmpty(t, tr.Reason)
}

func TestNewClient_NoKey(t *testing.T) {
	assert.Nil(t, NewClient("", "claude-sonnet-4-5"))
}
