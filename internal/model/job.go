// internal/model/job.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// JobKind represents what a print job delivers
type JobKind string

const (
	JobKindLabel JobKind = "LABEL" // a rendered label program
	JobKindAsset JobKind = "ASSET" // a ~DY download object (image or font)
	JobKindRaw   JobKind = "RAW"   // caller-supplied ZPL passed through as-is
)

// JobStatus represents the status of a print job
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusSending   JobStatus = "SENDING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// PrintJob represents one delivery to a printer
type PrintJob struct {
	ID         uuid.UUID  `json:"id"`
	PrinterID  uuid.UUID  `json:"printer_id"`
	Kind       JobKind    `json:"kind"`
	Status     JobStatus  `json:"status"`
	ByteCount  int        `json:"byte_count"`
	ObjectName string     `json:"object_name,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	DurationMs *int64     `json:"duration_ms"`
}

// IsFinished checks if the job has reached a terminal status
func (j *PrintJob) IsFinished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// JobStats aggregates job counters by status
type JobStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Sending   int `json:"sending"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}
