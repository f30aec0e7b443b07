// Package stats computes a backlog health summary from an issue set. Pure
// functions over already-loaded records; no I/O.
package stats

import (
	"time"

	"github.com/bugboard/bugboard/internal/models"
)

// Summary describes the state of a board's backlog.
type Summary struct {
	Total      int
	Open       int // TODO + IN_PROGRESS
	Resolved   int
	Archived   int
	Deleted    int
	Critical   int // open issues at CRITICAL priority
	Unassigned int // open issues with no assignee
	Score      int // 0-100 backlog health
}

// Summarize computes counts and a health score for the issue set.
func Summarize(issues []*models.Issue, now time.Time) *Summary {
	s := &Summary{}
	var newest time.Time

	for _, i := range issues {
		s.Total++
		if i.Deleted {
			s.Deleted++
			continue
		}
		if i.Archived {
			s.Archived++
			continue
		}
		switch i.Status {
		case models.IssueStatusTodo, models.IssueStatusInProgress:
			s.Open++
			if i.Priority == models.IssuePriorityCritical {
				s.Critical++
			}
			if i.AssignedToID == "" {
				s.Unassigned++
			}
		default:
			s.Resolved++
		}

		last := i.CreatedAt
		if i.UpdatedAt != nil && i.UpdatedAt.After(last) {
			last = *i.UpdatedAt
		}
		if last.After(newest) {
			newest = last
		}
	}

	s.Score = score(s, newest, now)
	return s
}

// score combines backlog ratio (50 pts), activity recency (30 pts), and
// critical pressure (20 pts).
func score(s *Summary, newest, now time.Time) int {
	active := s.Open + s.Resolved
	if active == 0 {
		return 100
	}

	ratio := float64(s.Open) / float64(active)
	backlog := int(50 * (1 - ratio))

	recency := scoreRecency(newest, now, 30)

	critical := 20
	if s.Critical > 0 {
		critical = 20 / (s.Critical + 1)
	}

	return backlog + recency + critical
}

// scoreRecency converts time since last activity to points.
func scoreRecency(t, now time.Time, maxPoints int) int {
	if t.IsZero() {
		return 0
	}
	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= 1:
		return maxPoints
	case days <= 7:
		return int(float64(maxPoints) * 0.75)
	case days <= 30:
		return int(float64(maxPoints) * 0.5)
	case days <= 90:
		return int(float64(maxPoints) * 0.25)
	default:
		return int(float64(maxPoints) * 0.1)
	}
}
