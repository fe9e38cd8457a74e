// internal/repository/printer_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"label-service/internal/model"
)

// ErrNotFound marks a lookup for a record that does not exist
var ErrNotFound = errors.New("not found")

// printerRepository implements PrinterRepository with an RWMutex-guarded
// in-memory map. The inventory is deliberately not persisted.
type printerRepository struct {
	mu       sync.RWMutex
	printers map[uuid.UUID]*model.Printer
	logger   *zap.Logger
}

// NewPrinterRepository creates a new in-memory printer repository
func NewPrinterRepository(logger *zap.Logger) PrinterRepository {
	return &printerRepository{
		printers: make(map[uuid.UUID]*model.Printer),
		logger:   logger,
	}
}

// Create registers a new printer
func (r *printerRepository) Create(ctx context.Context, printer *model.Printer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.printers[printer.ID]; exists {
		return fmt.Errorf("printer %s already exists", printer.ID)
	}
	for _, p := range r.printers {
		if p.Name == printer.Name {
			return fmt.Errorf("printer name %q already in use", printer.Name)
		}
	}

	now := time.Now()
	printer.CreatedAt = now
	printer.UpdatedAt = now
	r.printers[printer.ID] = clonePrinter(printer)

	r.logger.Info("Printer registered",
		zap.String("printer_id", printer.ID.String()),
		zap.String("name", printer.Name))
	return nil
}

// GetByID retrieves a printer by its UUID
func (r *printerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Printer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.printers[id]
	if !ok {
		return nil, fmt.Errorf("printer %s: %w", id, ErrNotFound)
	}
	return clonePrinter(p), nil
}

// GetByName retrieves a printer by its unique name
func (r *printerRepository) GetByName(ctx context.Context, name string) (*model.Printer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.printers {
		if p.Name == name {
			return clonePrinter(p), nil
		}
	}
	return nil, fmt.Errorf("printer %q: %w", name, ErrNotFound)
}

// Update replaces a printer record
func (r *printerRepository) Update(ctx context.Context, printer *model.Printer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.printers[printer.ID]
	if !ok {
		return fmt.Errorf("printer %s: %w", printer.ID, ErrNotFound)
	}
	for _, p := range r.printers {
		if p.ID != printer.ID && p.Name == printer.Name {
			return fmt.Errorf("printer name %q already in use", printer.Name)
		}
	}

	printer.CreatedAt = current.CreatedAt
	printer.UpdatedAt = time.Now()
	r.printers[printer.ID] = clonePrinter(printer)
	return nil
}

// UpdateStatus changes only the status field
func (r *printerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PrinterStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.printers[id]
	if !ok {
		return fmt.Errorf("printer %s: %w", id, ErrNotFound)
	}
	if p.Status != status {
		r.logger.Info("Printer status changed",
			zap.String("printer_id", id.String()),
			zap.String("from", string(p.Status)),
			zap.String("to", string(status)))
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}

// Delete removes a printer from the inventory
func (r *printerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.printers[id]; !ok {
		return fmt.Errorf("printer %s: %w", id, ErrNotFound)
	}
	delete(r.printers, id)
	r.logger.Info("Printer removed", zap.String("printer_id", id.String()))
	return nil
}

// List returns printers matching the filter, paginated, newest first
func (r *printerRepository) List(ctx context.Context, filter *PrinterFilter) ([]*model.Printer, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*model.Printer, 0, len(r.printers))
	for _, p := range r.printers {
		if filter != nil && !matchPrinter(p, filter) {
			continue
		}
		matched = append(matched, clonePrinter(p))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filter == nil || filter.PerPage <= 0 {
		return matched, total, nil
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * filter.PerPage
	if start >= total {
		return []*model.Printer{}, total, nil
	}
	end := start + filter.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// ListByStatus returns all printers in one status
func (r *printerRepository) ListByStatus(ctx context.Context, status model.PrinterStatus) ([]*model.Printer, error) {
	printers, _, err := r.List(ctx, &PrinterFilter{Status: &status})
	return printers, err
}

// UpdateLastSeen records a successful reachability probe
func (r *printerRepository) UpdateLastSeen(ctx context.Context, id uuid.UUID, seen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.printers[id]
	if !ok {
		return fmt.Errorf("printer %s: %w", id, ErrNotFound)
	}
	p.LastSeen = &seen
	return nil
}

func matchPrinter(p *model.Printer, f *PrinterFilter) bool {
	if f.ConnectionType != nil && p.ConnectionType != *f.ConnectionType {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.Model != nil && p.Model != *f.Model {
		return false
	}
	if f.SearchTerm != nil {
		term := strings.ToLower(*f.SearchTerm)
		if !strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Model), term) &&
			!strings.Contains(strings.ToLower(p.ConnectionConfig.Host), term) {
			return false
		}
	}
	return true
}

// clonePrinter keeps callers from mutating the stored record through the
// returned pointer.
func clonePrinter(p *model.Printer) *model.Printer {
	c := *p
	if p.LastSeen != nil {
		seen := *p.LastSeen
		c.LastSeen = &seen
	}
	return &c
}
