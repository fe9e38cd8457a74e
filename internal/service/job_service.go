// internal/service/job_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"label-service/internal/config"
	"label-service/internal/imaging"
	"label-service/internal/model"
	"label-service/internal/repository"
	"label-service/internal/transport"
	"label-service/internal/utils"
	"label-service/pkg/asset"
	"label-service/pkg/label"
)

// ErrPrinterBusy rejects a submission while the printer already has a job
// in flight
var ErrPrinterBusy = errors.New("printer has a job in flight")

// JobService orchestrates print jobs end to end: build, render, deliver,
// track
type JobService struct {
	jobRepo      repository.JobRepository
	printerRepo  repository.PrinterRepository
	processor    *imaging.Processor
	config       *config.Config
	logger       *utils.ServiceLogger
	auditLogger  *utils.AuditLogger
	bus          EventPublisher
	newTransport TransportFactory

	mu       sync.Mutex
	inflight map[uuid.UUID]bool
}

// NewJobService creates a new job service instance
func NewJobService(
	jobRepo repository.JobRepository,
	printerRepo repository.PrinterRepository,
	processor *imaging.Processor,
	cfg *config.Config,
	bus EventPublisher,
	logger *zap.Logger,
) *JobService {
	return &JobService{
		jobRepo:      jobRepo,
		printerRepo:  printerRepo,
		processor:    processor,
		config:       cfg,
		logger:       utils.NewServiceLogger(logger, "job-service"),
		auditLogger:  utils.NewAuditLogger(logger),
		bus:          bus,
		newTransport: transport.CreateTransport,
		inflight:     make(map[uuid.UUID]bool),
	}
}

// PrintLabel builds a label program from the request and delivers it
func (js *JobService) PrintLabel(ctx context.Context, printerID uuid.UUID, req *LabelRequest) (*model.PrintJob, error) {
	printer, err := js.printerRepo.GetByID(ctx, printerID)
	if err != nil {
		return nil, fmt.Errorf("printer not found: %w", err)
	}

	lbl, err := js.buildLabel(req, printer.Profile())
	if err != nil {
		return nil, fmt.Errorf("failed to build label: %w", err)
	}

	payload, err := lbl.RenderBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render label: %w", err)
	}

	return js.deliver(ctx, printer, model.JobKindLabel, "", payload)
}

// PrintRaw delivers caller-supplied command bytes as-is
func (js *JobService) PrintRaw(ctx context.Context, printerID uuid.UUID, data []byte) (*model.PrintJob, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("raw payload is empty")
	}

	printer, err := js.printerRepo.GetByID(ctx, printerID)
	if err != nil {
		return nil, fmt.Errorf("printer not found: %w", err)
	}

	return js.deliver(ctx, printer, model.JobKindRaw, "", data)
}

// UploadAsset stores an image or font on the printer as a download object.
// Images run through the imaging pipeline first and arrive as verified PNG.
func (js *JobService) UploadAsset(ctx context.Context, printerID uuid.UUID, req *AssetRequest) (*model.PrintJob, error) {
	printer, err := js.printerRepo.GetByID(ctx, printerID)
	if err != nil {
		return nil, fmt.Errorf("printer not found: %w", err)
	}

	if req.Name == "" {
		return nil, fmt.Errorf("object name is required")
	}
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("object data is empty")
	}

	// Printer object names are uppercase, at most 8 characters.
	name := strings.ToUpper(req.Name)
	if len(name) > 8 {
		name = name[:8]
	}

	drive := req.Drive
	if drive == "" {
		drive = string(printer.Profile().DefaultDrive)
	}

	framing, err := parseFraming(req.Framing)
	if err != nil {
		return nil, err
	}

	var payload []byte
	var objectName string
	switch req.Kind {
	case "image", "":
		prepared, w, h, err := js.processor.Prepare(req.Data, imaging.PrepareSpec{
			TargetWidth:  req.TargetWidth,
			TargetHeight: req.TargetHeight,
			Rotate:       req.Rotate,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to prepare image: %w", err)
		}
		js.logger.Info("Image prepared for download",
			zap.String("name", name),
			zap.Int("width", w),
			zap.Int("height", h),
		)
		payload, err = asset.PNGDownload(drive, name, prepared, framing)
		if err != nil {
			return nil, fmt.Errorf("failed to build download: %w", err)
		}
		objectName = fmt.Sprintf("%s:%s.%s", drive, name, asset.ExtPNG)
	case "font":
		payload, err = asset.FontDownload(drive, name, req.Data, framing)
		if err != nil {
			return nil, fmt.Errorf("failed to build download: %w", err)
		}
		objectName = fmt.Sprintf("%s:%s.%s", drive, name, asset.ExtFontTTF)
	default:
		return nil, fmt.Errorf("unknown asset kind: %s", req.Kind)
	}

	return js.deliver(ctx, printer, model.JobKindAsset, objectName, payload)
}

// DeleteObject removes a stored object from the printer
func (js *JobService) DeleteObject(ctx context.Context, printerID uuid.UUID, drive, name, ext string) (*model.PrintJob, error) {
	printer, err := js.printerRepo.GetByID(ctx, printerID)
	if err != nil {
		return nil, fmt.Errorf("printer not found: %w", err)
	}

	if drive == "" {
		drive = string(printer.Profile().DefaultDrive)
	}

	lbl, err := label.New(label.UnitDots, 0)
	if err != nil {
		return nil, err
	}
	if err := lbl.DeleteObject(drive, name, ext); err != nil {
		return nil, fmt.Errorf("failed to build delete command: %w", err)
	}
	payload, err := lbl.RenderBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render delete command: %w", err)
	}

	js.auditLogger.LogObjectDelete(printerID.String(), drive, name, ext)

	objectName := fmt.Sprintf("%s:%s.%s", drive, name, ext)
	return js.deliver(ctx, printer, model.JobKindAsset, objectName, payload)
}

// GetJob retrieves job details
func (js *JobService) GetJob(ctx context.Context, jobID uuid.UUID) (*model.PrintJob, error) {
	job, err := js.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job not found: %w", err)
	}
	return job, nil
}

// ListJobs lists jobs with filtering
func (js *JobService) ListJobs(ctx context.Context, filter *repository.JobFilter) ([]*model.PrintJob, *PaginationResult, error) {
	jobs, total, err := js.jobRepo.List(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = total
		if perPage == 0 {
			perPage = 1
		}
	}
	pagination := &PaginationResult{
		Total:      total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: (total + perPage - 1) / perPage,
	}

	return jobs, pagination, nil
}

// GetJobStats aggregates job counters by status
func (js *JobService) GetJobStats(ctx context.Context) (*model.JobStats, error) {
	return js.jobRepo.GetStats(ctx)
}

// CleanupFinished drops finished jobs older than the configured retention.
// Run periodically by the background monitor.
func (js *JobService) CleanupFinished(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-js.config.Jobs.Retention)
	removed, err := js.jobRepo.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up jobs: %w", err)
	}
	if removed > 0 {
		js.logger.Info("Finished jobs cleaned up", zap.Int("removed", removed))
	}
	return removed, nil
}

// deliver runs one delivery: record the job, open the printer's transport,
// send, track the outcome. One job per printer at a time.
func (js *JobService) deliver(ctx context.Context, printer *model.Printer, kind model.JobKind, objectName string, payload []byte) (*model.PrintJob, error) {
	js.mu.Lock()
	if js.inflight[printer.ID] {
		js.mu.Unlock()
		return nil, ErrPrinterBusy
	}
	js.inflight[printer.ID] = true
	js.mu.Unlock()
	defer func() {
		js.mu.Lock()
		delete(js.inflight, printer.ID)
		js.mu.Unlock()
	}()

	job := &model.PrintJob{
		ID:         uuid.New(),
		PrinterID:  printer.ID,
		Kind:       kind,
		Status:     model.JobStatusPending,
		ByteCount:  len(payload),
		ObjectName: objectName,
		CreatedAt:  time.Now(),
	}
	if err := js.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	jobLogger := utils.NewJobLogger(js.logger.Logger, string(kind), job.ID.String())
	js.publishJobEvent(model.EventJobSubmitted, printer.ID, job)

	onProgress := func(code int, message string) {
		jobLogger.Progress(code, message)
		js.publish(model.EventTransferProgress, printer.ID, map[string]interface{}{
			"job_id":  job.ID.String(),
			"code":    code,
			"message": message,
		}, "INFO")
	}

	tr, err := js.newTransport(printer.ConnectionType, printer.ConnectionConfig, js.transportOptions(onProgress), js.logger.Logger)
	if err != nil {
		js.failJob(ctx, job, err)
		jobLogger.Error(err)
		return job, fmt.Errorf("failed to create transport: %w", err)
	}

	startedAt := time.Now()
	job.Status = model.JobStatusSending
	job.StartedAt = &startedAt
	if err := js.jobRepo.Update(ctx, job); err != nil {
		js.logger.Error("Failed to update job status", zap.Error(err))
	}
	jobLogger.Start(zap.String("printer_id", printer.ID.String()), zap.Int("bytes", len(payload)))
	js.publishJobEvent(model.EventJobStarted, printer.ID, job)

	if err := tr.Open(ctx); err != nil {
		js.failJob(ctx, job, err)
		js.markOffline(ctx, printer)
		jobLogger.Error(err)
		js.publishJobEvent(model.EventJobFailed, printer.ID, job)
		return job, fmt.Errorf("failed to open transport: %w", err)
	}
	defer tr.Close()

	if err := tr.Send(ctx, payload); err != nil {
		js.failJob(ctx, job, err)
		js.markOffline(ctx, printer)
		jobLogger.Error(err)
		js.publishJobEvent(model.EventJobFailed, printer.ID, job)
		return job, fmt.Errorf("delivery failed: %w", err)
	}

	finishedAt := time.Now()
	durationMs := finishedAt.Sub(startedAt).Milliseconds()
	job.Status = model.JobStatusCompleted
	job.FinishedAt = &finishedAt
	job.DurationMs = &durationMs
	if err := js.jobRepo.Update(ctx, job); err != nil {
		js.logger.Error("Failed to update job", zap.Error(err))
	}

	js.markOnline(ctx, printer)
	jobLogger.Success(zap.Int64("duration_ms", durationMs))
	js.publishJobEvent(model.EventJobCompleted, printer.ID, job)

	printerLogger := utils.NewPrinterLogger(js.logger.Logger, printer.ID.String(), printer.Model, string(printer.ConnectionType))
	printerLogger.LogDelivery(job.ID.String(), job.ByteCount, finishedAt.Sub(startedAt), nil)

	return job, nil
}

// buildLabel assembles the label program from request elements
func (js *JobService) buildLabel(req *LabelRequest, profile model.Profile) (*label.Label, error) {
	unit := label.Unit(req.Unit)
	if req.Unit == "" {
		unit = label.Unit(js.config.Label.Unit)
	}
	dpi := req.DPI
	if dpi <= 0 {
		dpi = profile.DPI
	}
	if dpi <= 0 {
		dpi = js.config.Label.DefaultDPI
	}

	lbl, err := label.New(unit, dpi)
	if err != nil {
		return nil, err
	}

	if req.PrintWidth > 0 {
		if err := lbl.SetPrintWidth(req.PrintWidth); err != nil {
			return nil, err
		}
	}
	if req.PrintRate > 0 {
		if err := lbl.SetPrintRate(req.PrintRate); err != nil {
			return nil, err
		}
	}
	if req.Mirror {
		if err := lbl.SetMirror(true); err != nil {
			return nil, err
		}
	}
	if req.Reverse {
		if err := lbl.SetReverse(true); err != nil {
			return nil, err
		}
	}

	for i, el := range req.Elements {
		if err := js.appendElement(lbl, &el, profile); err != nil {
			return nil, fmt.Errorf("element %d (%s): %w", i, el.Type, err)
		}
	}
	return lbl, nil
}

func (js *JobService) appendElement(lbl *label.Label, el *LabelElement, profile model.Profile) error {
	switch el.Type {
	case "text":
		return lbl.Text(el.X, el.Y, el.Text, label.TextOptions{
			Font:        el.Font,
			Orientation: el.Orientation,
			Height:      el.Height,
			Width:       el.Width,
		})
	case "box":
		return lbl.Box(el.X, el.Y, el.Width, el.Height, el.Thickness)
	case "circle":
		return lbl.Circle(el.X, el.Y, el.Diameter, el.Thickness)
	case "ellipse":
		return lbl.Ellipse(el.X, el.Y, el.Width, el.Height, el.Thickness)
	case "line":
		return lbl.Line(el.X, el.Y, el.X2, el.Y2, el.Thickness)
	case "qrcode":
		return lbl.QRCode(el.X, el.Y, el.Width, el.Text, label.QROptions{
			ECC:  el.ECC,
			Auto: el.Auto,
		})
	case "image":
		drive := el.Drive
		if drive == "" {
			drive = string(profile.DefaultDrive)
		}
		ext := el.Ext
		if ext == "" {
			ext = asset.ExtPNG
		}
		return lbl.Image(el.X, el.Y, drive, el.Name, ext)
	default:
		return fmt.Errorf("unknown element type")
	}
}

// Helper methods

func (js *JobService) failJob(ctx context.Context, job *model.PrintJob, err error) {
	finishedAt := time.Now()
	job.Status = model.JobStatusFailed
	job.FinishedAt = &finishedAt
	job.Error = err.Error()
	if job.StartedAt != nil {
		durationMs := finishedAt.Sub(*job.StartedAt).Milliseconds()
		job.DurationMs = &durationMs
	}

	if updateErr := js.jobRepo.Update(ctx, job); updateErr != nil {
		js.logger.Error("Failed to update job error", zap.Error(updateErr))
	}
}

func (js *JobService) markOnline(ctx context.Context, printer *model.Printer) {
	if err := js.printerRepo.UpdateLastSeen(ctx, printer.ID, time.Now()); err != nil {
		js.logger.Error("Failed to update last seen", zap.Error(err))
	}
	if printer.Status != model.PrinterStatusOnline {
		if err := js.printerRepo.UpdateStatus(ctx, printer.ID, model.PrinterStatusOnline); err != nil {
			js.logger.Error("Failed to update printer status", zap.Error(err))
		}
	}
}

func (js *JobService) markOffline(ctx context.Context, printer *model.Printer) {
	if printer.Status != model.PrinterStatusOffline {
		if err := js.printerRepo.UpdateStatus(ctx, printer.ID, model.PrinterStatusOffline); err != nil {
			js.logger.Error("Failed to update printer status", zap.Error(err))
		}
	}
}

func (js *JobService) transportOptions(onProgress func(code int, message string)) transport.Options {
	return transport.Options{
		ConnectTimeout:     js.config.Transport.ConnectTimeout,
		WriteTimeout:       js.config.Transport.WriteTimeout,
		FTPKeepAlive:       js.config.FTP.KeepAlive,
		OnTransferProgress: onProgress,
	}
}

func (js *JobService) publishJobEvent(eventType model.EventType, printerID uuid.UUID, job *model.PrintJob) {
	data := map[string]interface{}{
		"job_id":     job.ID.String(),
		"kind":       string(job.Kind),
		"status":     string(job.Status),
		"byte_count": job.ByteCount,
	}
	if job.DurationMs != nil {
		data["duration_ms"] = *job.DurationMs
	}
	if job.Error != "" {
		data["error"] = job.Error
	}

	severity := "INFO"
	if eventType == model.EventJobFailed {
		severity = "ERROR"
	}
	js.publish(eventType, printerID, data, severity)
}

func (js *JobService) publish(eventType model.EventType, printerID uuid.UUID, data map[string]interface{}, severity string) {
	if js.bus == nil {
		return
	}
	js.bus.Publish(model.Event{
		ID:        uuid.New(),
		EventType: eventType,
		PrinterID: printerID,
		Data:      data,
		Timestamp: time.Now(),
		Source:    "job-service",
		Severity:  severity,
	})
}

func parseFraming(s string) (asset.Framing, error) {
	switch s {
	case "", "hex":
		return asset.FramingHex, nil
	case "binary":
		return asset.FramingBinary, nil
	case "base64":
		return asset.FramingBase64, nil
	default:
		return 0, fmt.Errorf("unknown framing: %s", s)
	}
}

// Data Transfer Objects

// LabelRequest describes one label program to build and print
type LabelRequest struct {
	// Unit is dots, inches or dip. Empty uses the configured default.
	Unit string `json:"unit"`
	// DPI overrides the printer profile's resolution
	DPI int `json:"dpi"`

	// Setup commands, emitted before any element
	PrintWidth float64 `json:"print_width,omitempty"`
	PrintRate  int     `json:"print_rate,omitempty"`
	Mirror     bool    `json:"mirror,omitempty"`
	Reverse    bool    `json:"reverse,omitempty"`

	Elements []LabelElement `json:"elements"`
}

// LabelElement is one drawing command. Type selects which fields apply.
type LabelElement struct {
	Type string  `json:"type" binding:"required"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`

	// text, qrcode
	Text string `json:"text,omitempty"`

	// text
	Font        string `json:"font,omitempty"`
	Orientation string `json:"orientation,omitempty"`

	// text (character cell), box, ellipse, qrcode (target width)
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// box, circle, ellipse, line
	Thickness float64 `json:"thickness,omitempty"`

	// circle
	Diameter float64 `json:"diameter,omitempty"`

	// line endpoint
	X2 float64 `json:"x2,omitempty"`
	Y2 float64 `json:"y2,omitempty"`

	// qrcode
	ECC  string `json:"ecc,omitempty"`
	Auto bool   `json:"auto,omitempty"`

	// image recall
	Drive string `json:"drive,omitempty"`
	Name  string `json:"name,omitempty"`
	Ext   string `json:"ext,omitempty"`
}

// AssetRequest describes one object to store on the printer
type AssetRequest struct {
	// Kind is image or font. Empty means image.
	Kind string `json:"kind"`
	Name string `json:"name" binding:"required"`
	// Drive letter; empty uses the printer profile's default
	Drive string `json:"drive"`
	// Data is the encoded file content
	Data []byte `json:"data" binding:"required"`
	// Framing is hex (default) or binary
	Framing string `json:"framing"`

	// Image preparation
	TargetWidth  int `json:"target_width,omitempty"`
	TargetHeight int `json:"target_height,omitempty"`
	Rotate       int `json:"rotate,omitempty"`
}
