// internal/repository/interfaces.go
package repository

import (
	"context"
	"time"

	"label-service/internal/model"

	"github.com/google/uuid"
)

// PrinterRepository defines printer inventory access. Implementations hold
// the inventory in memory only; persistent storage is out of scope.
type PrinterRepository interface {
	// CRUD operations
	Create(ctx context.Context, printer *model.Printer) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Printer, error)
	GetByName(ctx context.Context, name string) (*model.Printer, error)
	Update(ctx context.Context, printer *model.Printer) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.PrinterStatus) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Listing and filtering
	List(ctx context.Context, filter *PrinterFilter) ([]*model.Printer, int, error)
	ListByStatus(ctx context.Context, status model.PrinterStatus) ([]*model.Printer, error)

	// Monitoring
	UpdateLastSeen(ctx context.Context, id uuid.UUID, seen time.Time) error
}

// JobRepository defines print job tracking access
type JobRepository interface {
	// CRUD operations
	Create(ctx context.Context, job *model.PrintJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error)
	Update(ctx context.Context, job *model.PrintJob) error

	// Listing and filtering
	List(ctx context.Context, filter *JobFilter) ([]*model.PrintJob, int, error)
	ListByPrinter(ctx context.Context, printerID uuid.UUID, limit int) ([]*model.PrintJob, error)

	// Reporting
	GetStats(ctx context.Context) (*model.JobStats, error)

	// Cleanup
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Filter structures

// PrinterFilter represents printer listing filters
type PrinterFilter struct {
	ConnectionType *model.ConnectionType `json:"connection_type,omitempty"`
	Status         *model.PrinterStatus  `json:"status,omitempty"`
	Model          *string               `json:"model,omitempty"`
	SearchTerm     *string               `json:"search_term,omitempty"`
	Page           int                   `json:"page"`
	PerPage        int                   `json:"per_page"`
}

// JobFilter represents job listing filters
type JobFilter struct {
	PrinterID *uuid.UUID       `json:"printer_id,omitempty"`
	Kind      *model.JobKind   `json:"kind,omitempty"`
	Status    *model.JobStatus `json:"status,omitempty"`
	Since     *time.Time       `json:"since,omitempty"`
	Page      int              `json:"page"`
	PerPage   int              `json:"per_page"`
}
