// internal/repository/job_repository.go
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"label-service/internal/model"
)

// maxJobs bounds the in-memory job store; the oldest finished jobs are
// evicted first when the bound is hit.
const maxJobs = 10000

// jobRepository implements JobRepository with an RWMutex-guarded in-memory
// map bounded by maxJobs.
type jobRepository struct {
	mu     sync.RWMutex
	jobs   map[uuid.UUID]*model.PrintJob
	logger *zap.Logger
}

// NewJobRepository creates a new in-memory job repository
func NewJobRepository(logger *zap.Logger) JobRepository {
	return &jobRepository{
		jobs:   make(map[uuid.UUID]*model.PrintJob),
		logger: logger,
	}
}

// Create records a new job
func (r *jobRepository) Create(ctx context.Context, job *model.PrintJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	if len(r.jobs) >= maxJobs {
		r.evictOldestFinishedLocked()
	}

	job.CreatedAt = time.Now()
	r.jobs[job.ID] = cloneJob(job)
	return nil
}

// GetByID retrieves a job by its UUID
func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return cloneJob(j), nil
}

// Update replaces a job record
func (r *jobRepository) Update(ctx context.Context, job *model.PrintJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; !ok {
		return fmt.Errorf("job %s: %w", job.ID, ErrNotFound)
	}
	r.jobs[job.ID] = cloneJob(job)
	return nil
}

// List returns jobs matching the filter, paginated, newest first
func (r *jobRepository) List(ctx context.Context, filter *JobFilter) ([]*model.PrintJob, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*model.PrintJob, 0, len(r.jobs))
	for _, j := range r.jobs {
		if filter != nil && !matchJob(j, filter) {
			continue
		}
		matched = append(matched, cloneJob(j))
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
		return []*model.PrintJob{}, total, nil
	}
	end := start + filter.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// ListByPrinter returns the most recent jobs for one printer
func (r *jobRepository) ListByPrinter(ctx context.Context, printerID uuid.UUID, limit int) ([]*model.PrintJob, error) {
	jobs, _, err := r.List(ctx, &JobFilter{PrinterID: &printerID})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// GetStats counts jobs by status
func (r *jobRepository) GetStats(ctx context.Context) (*model.JobStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &model.JobStats{Total: len(r.jobs)}
	for _, j := range r.jobs {
		switch j.Status {
		case model.JobStatusPending:
			stats.Pending++
		case model.JobStatusSending:
			stats.Sending++
		case model.JobStatusCompleted:
			stats.Completed++
		case model.JobStatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

// DeleteFinishedBefore drops finished jobs older than cutoff and returns
// how many were removed
func (r *jobRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, j := range r.jobs {
		if j.IsFinished() && j.CreatedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Info("Cleaned up finished jobs",
			zap.Int("removed", removed),
			zap.Time("cutoff", cutoff))
	}
	return removed, nil
}

// evictOldestFinishedLocked makes room for a new job when the store is
// full. Called with the write lock held.
func (r *jobRepository) evictOldestFinishedLocked() {
	var oldest *model.PrintJob
	for _, j := range r.jobs {
		if !j.IsFinished() {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest != nil {
		delete(r.jobs, oldest.ID)
	}
}

func matchJob(j *model.PrintJob, f *JobFilter) bool {
	if f.PrinterID != nil && j.PrinterID != *f.PrinterID {
		return false
	}
	if f.Kind != nil && j.Kind != *f.Kind {
		return false
	}
	if f.Status != nil && j.Status != *f.Status {
		return false
	}
	if f.Since != nil && j.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}

func cloneJob(j *model.PrintJob) *model.PrintJob {
	c := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		c.FinishedAt = &t
	}
	if j.DurationMs != nil {
		d := *j.DurationMs
		c.DurationMs = &d
	}
	return &c
}
