package models

import "time"

// Project is an optional grouping for issues, carried over from the
// first-generation schema. Later deployments may run project-less; issues
// reference a project only when scoped.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedByID string    `json:"createdById"`
	CreatedAt   time.Time `json:"createdAt"`
}
