// internal/models/job.go
package models

import "time"

// JobStatus lifecycle of an asynchronous generation
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// VeoResult is the outcome of one Veo prompt generation
type VeoResult struct {
	Preamble  string   `json:"preamble"`
	Scenes    []string `json:"scenes"`
	Seamless  string   `json:"seamless"`
	Raw       string   `json:"raw"`
	HistoryID string   `json:"history_id,omitempty"`
	Model     string   `json:"model,omitempty"`
}

// ScriptResult is the outcome of one script generation
type ScriptResult struct {
	Script         Script `json:"script"`
	Formatted      string `json:"formatted"`
	SuggestedStyle Style  `json:"suggested_style,omitempty"`
	HistoryID      string `json:"history_id,omitempty"`
}

// Job is an asynchronous Veo generation tracked by id
type Job struct {
	ID        string            `json:"id"`
	Status    JobStatus         `json:"status"`
	Request   GenerationRequest `json:"request"`
	Result    *VeoResult        `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
