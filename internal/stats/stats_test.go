package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bugboard/bugboard/internal/models"
)

func TestSummarize_HealthyBoard(t *testing.T) {
	now := time.Now()
	issues := []*models.Issue{
		{Status: models.IssueStatusResolved, CreatedAt: now.Add(-2 * time.Hour)},
		{Status: models.IssueStatusResolved, CreatedAt: now.Add(-1 * time.Hour)},
		{Status: models.IssueStatusClosed, CreatedAt: now.Add(-30 * time.Minute)},
	}

	s := Summarize(issues, now)

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 0, s.Open)
	assert.Equal(t, 3, s.Resolved)
	assert.True(t, s.Score >= 80, "all-resolved board should score 80+, got %d", s.Score)
}

func TestSummarize_UnhealthyBoard(t *testing.T) {
	now := time.Now()
	old := now.Add(-120 * 24 * time.Hour)
	issues := []*models.Issue{
		{Status: models.IssueStatusTodo, Priority: models.IssuePriorityCritical, CreatedAt: old},
		{Status: models.IssueStatusTodo, Priority: models.IssuePriorityCritical, CreatedAt: old},
		{Status: models.IssueStatusInProgress, CreatedAt: old},
	}

	s := Summarize(issues, now)

	assert.Equal(t, 3, s.Open)
	assert.Equal(t, 2, s.Critical)
	assert.Equal(t, 3, s.Unassigned)
	assert.True(t, s.Score < 30, "stale all-open board should score below 30, got %d", s.Score)
}

func TestSummarize_ArchivedAndDeletedExcluded(t *testing.T) {
	now := time.Now()
	at := now.Add(-time.Hour)
	issues := []*models.Issue{
		{Status: models.IssueStatusTodo, Archived: true, ArchivedAt: &at, CreatedAt: at},
		{Status: models.IssueStatusTodo, Deleted: true, CreatedAt: at},
		{Status: models.IssueStatusTodo, AssignedToID: "u1", CreatedAt: at},
	}

	s := Summarize(issues, now)

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Archived)
	assert.Equal(t, 1, s.Deleted)
	assert.Equal(t, 1, s.Open)
	assert.Equal(t, 0, s.Unassigned)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, time.Now())
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 100, s.Score)
}

func TestSummarize_UpdatedAtCountsAsActivity(t *testing.T) {
	now := time.Now()
	old := now.Add(-200 * 24 * time.Hour)
	recent := now.Add(-time.Hour)
	issues := []*models.Issue{
		{Status: models.IssueStatusInProgress, AssignedToID: "u1", CreatedAt: old, UpdatedAt: &recent},
		{Status: models.IssueStatusResolved, CreatedAt: old},
	}

	stale := Summarize([]*models.Issue{
		{Status: models.IssueStatusInProgress, AssignedToID: "u1", CreatedAt: old},
		{Status: models.IssueStatusResolved, CreatedAt: old},
	}, now)
	fresh := Summarize(issues, now)

	assert.True(t, fresh.Score > stale.Score, "recent update should raise score (%d vs %d)", fresh.Score, stale.Score)
}

func TestScoreRecency(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		daysAgo  int
		minScore int
	}{
		{"today", 0, 30},
		{"this week", 5, 20},
		{"this month", 20, 15},
		{"old", 120, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := now.Add(-time.Duration(tt.daysAgo) * 24 * time.Hour)
			score := scoreRecency(ts, now, 30)
			assert.True(t, score >= tt.minScore, "daysAgo=%d should score >= %d, got %d", tt.daysAgo, tt.minScore, score)
		})
	}
}

func TestScoreRecency_Zero(t *testing.T) {
	assert.Equal(t, 0, scoreRecency(time.Time{}, time.Now(), 30))
}
