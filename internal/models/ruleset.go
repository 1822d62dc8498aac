package models

import "time"

// Ruleset is a named curated set: a list of uploaded rule-JSON inputs plus
// default render parameters applied to jobs that reference the set.
type Ruleset struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Files       []string       `json:"files"`
	Defaults    map[string]any `json:"defaults,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
}
