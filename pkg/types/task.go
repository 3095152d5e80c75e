// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// ErrTaskExists is returned by a task journal when another tracker already
// holds the id being claimed.
var ErrTaskExists = errors.New("task id already claimed")

// TaskStatus is the lifecycle state of a background research task.
type TaskStatus string

const (
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskError     TaskStatus = "error"

	// TaskNotFound is only ever reported by lookups for unknown ids.
	TaskNotFound TaskStatus = "not_found"
)

// IsTerminal reports whether the status can no longer change.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskError
}

// TaskState is the full state of a background task.
type TaskState struct {
	ID        string     `json:"id,omitempty" yaml:"id,omitempty"`
	Query     string     `json:"query,omitempty" yaml:"query,omitempty"`
	Status    TaskStatus `json:"status" yaml:"status"`
	StartTime string     `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	FilePath  string     `json:"filepath,omitempty" yaml:"filepath,omitempty"`
	Error     string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// TaskSummary is the listing view of a task.
type TaskSummary struct {
	ID        string     `json:"id" yaml:"id"`
	Query     string     `json:"query" yaml:"query"`
	Status    TaskStatus `json:"status" yaml:"status"`
	StartTime string     `json:"start_time" yaml:"start_time"`
}
