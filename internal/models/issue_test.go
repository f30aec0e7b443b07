package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in          string
		allowClosed bool
		want        IssueStatus
	}{
		{"TODO", false, IssueStatusTodo},
		{"in_progress", false, IssueStatusInProgress},
		{" resolved ", false, IssueStatusResolved},
		{"Aperta", false, IssueStatusTodo},
		{"RISOLTA", false, IssueStatusResolved},
		{"Chiusa", false, IssueStatusResolved},
		{"Chiusa", true, IssueStatusClosed},
		{"CLOSED", false, IssueStatusResolved},
		{"CLOSED", true, IssueStatusClosed},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in, tt.allowClosed)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseStatus("DONE", false)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want IssuePriority
	}{
		{"low", IssuePriorityLow},
		{"MEDIUM", IssuePriorityMedium},
		{"Bassa", IssuePriorityLow},
		{"MEDIA", IssuePriorityMedium},
		{"Alta", IssuePriorityHigh},
		{"CRITICA", IssuePriorityCritical},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParsePriority("URGENT")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseType(t *testing.T) {
	got, err := ParseType("bug")
	require.NoError(t, err)
	assert.Equal(t, IssueTypeBug, got)

	_, err = ParseType("TASK")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestIssueValidate(t *testing.T) {
	valid := &Issue{
		Title:       "works",
		Type:        IssueTypeBug,
		Priority:    IssuePriorityMedium,
		Status:      IssueStatusTodo,
		CreatedByID: "u1",
	}
	assert.NoError(t, valid.Validate())

	missingTitle := *valid
	missingTitle.Title = "  "
	assert.ErrorIs(t, missingTitle.Validate(), ErrValidation)

	missingCreator := *valid
	missingCreator.CreatedByID = ""
	assert.ErrorIs(t, missingCreator.Validate(), ErrValidation)

	badStatus := *valid
	badStatus.Status = "DONE"
	assert.ErrorIs(t, badStatus.Validate(), ErrValidation)
}
