package models

import "time"

// Job statuses.
const (
	JobQueued  = "QUEUED"
	JobRunning = "RUNNING"
	JobDone    = "DONE"
	JobFailed  = "FAILED"
)

// Job kinds.
const (
	KindRenderAll = "render_all"
	KindRenderSet = "render_set"
)

// Job is one asynchronous batch render request.
type Job struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Status    string         `json:"status"`
	Params    map[string]any `json:"params,omitempty"`
	ErrorText string         `json:"error,omitempty"`
	// ReportKey is the storage object key of the batch report artifact,
	// set once the job finishes.
	ReportKey  string     `json:"report_key,omitempty"`
	Entries    int        `json:"entries"`
	Errors     int        `json:"errors"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
