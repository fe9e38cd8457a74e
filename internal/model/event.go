// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventPrinterRegistered EventType = "PRINTER_REGISTERED"
	EventPrinterUpdated    EventType = "PRINTER_UPDATED"
	EventPrinterRemoved    EventType = "PRINTER_REMOVED"
	EventPrinterStatus     EventType = "PRINTER_STATUS"
	EventJobSubmitted      EventType = "JOB_SUBMITTED"
	EventJobStarted        EventType = "JOB_STARTED"
	EventJobCompleted      EventType = "JOB_COMPLETED"
	EventJobFailed         EventType = "JOB_FAILED"
	EventTransferProgress  EventType = "TRANSFER_PROGRESS"
	EventDiscoveryResult   EventType = "DISCOVERY_RESULT"
)

// Event represents an event published on the service bus
type Event struct {
	ID        uuid.UUID              `json:"id"`
	EventType EventType              `json:"event_type"`
	PrinterID uuid.UUID              `json:"printer_id"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Severity  string                 `json:"severity"` // INFO, WARNING, ERROR
}

// JobEventData represents job-related event payloads
type JobEventData struct {
	JobID      uuid.UUID `json:"job_id"`
	Kind       JobKind   `json:"kind"`
	Status     JobStatus `json:"status"`
	ByteCount  int       `json:"byte_count"`
	DurationMs *int64    `json:"duration_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// TransferProgressEventData represents an FTP 1xx intermediate reply seen
// during a delivery
type TransferProgressEventData struct {
	JobID   uuid.UUID `json:"job_id"`
	Code    int       `json:"code"`
	Message string    `json:"message"`
}

// StatusChangeEventData represents a printer status transition
type StatusChangeEventData struct {
	Previous PrinterStatus `json:"previous"`
	Current  PrinterStatus `json:"current"`
}
