// internal/service/printer_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"label-service/internal/config"
	"label-service/internal/model"
	"label-service/internal/repository"
	"label-service/internal/transport"
	"label-service/internal/utils"
)

// EventPublisher receives the events services emit. The websocket layer
// implements it; a nil publisher disables event emission.
type EventPublisher interface {
	Publish(event model.Event)
}

// TransportFactory builds a delivery transport for a printer. Tests swap it
// for a fake.
type TransportFactory func(model.ConnectionType, model.ConnectionConfig, transport.Options, *zap.Logger) (transport.Transport, error)

// PrinterService handles printer inventory business logic
type PrinterService struct {
	printerRepo  repository.PrinterRepository
	config       *config.Config
	logger       *utils.ServiceLogger
	auditLogger  *utils.AuditLogger
	bus          EventPublisher
	newTransport TransportFactory
}

// NewPrinterService creates a new printer service instance
func NewPrinterService(
	printerRepo repository.PrinterRepository,
	cfg *config.Config,
	bus EventPublisher,
	logger *zap.Logger,
) *PrinterService {
	return &PrinterService{
		printerRepo:  printerRepo,
		config:       cfg,
		logger:       utils.NewServiceLogger(logger, "printer-service"),
		auditLogger:  utils.NewAuditLogger(logger),
		bus:          bus,
		newTransport: transport.CreateTransport,
	}
}

// RegisterPrinter registers a new printer in the inventory
func (ps *PrinterService) RegisterPrinter(ctx context.Context, req *RegisterPrinterRequest) (*model.Printer, error) {
	if err := ps.validateRegisterRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	existing, err := ps.printerRepo.GetByName(ctx, req.Name)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("printer with name %s already exists", req.Name)
	}

	printer := &model.Printer{
		ID:               uuid.New(),
		Name:             req.Name,
		Model:            req.Model,
		ConnectionType:   req.ConnectionType,
		ConnectionConfig: req.ConnectionConfig,
		Status:           model.PrinterStatusUnknown,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := ps.printerRepo.Create(ctx, printer); err != nil {
		ps.logger.Error("Failed to create printer", zap.Error(err))
		return nil, fmt.Errorf("failed to create printer: %w", err)
	}

	ps.auditLogger.LogPrinterRegistration(
		printer.ID.String(),
		printer.Name,
		string(printer.ConnectionType),
		true,
	)

	ps.logger.Info("Printer registered successfully",
		zap.String("printer_id", printer.ID.String()),
		zap.String("name", printer.Name),
		zap.String("connection_type", string(printer.ConnectionType)),
	)

	ps.publish(model.EventPrinterRegistered, printer.ID, map[string]interface{}{
		"name":  printer.Name,
		"model": printer.Model,
	}, "INFO")

	return printer, nil
}

// GetPrinter retrieves printer information
func (ps *PrinterService) GetPrinter(ctx context.Context, id uuid.UUID) (*model.Printer, error) {
	printer, err := ps.printerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("printer not found: %w", err)
	}
	return printer, nil
}

// ListPrinters retrieves printers with filtering
func (ps *PrinterService) ListPrinters(ctx context.Context, filter *repository.PrinterFilter) ([]*model.Printer, *PaginationResult, error) {
	printers, total, err := ps.printerRepo.List(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list printers: %w", err)
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

	return printers, pagination, nil
}

// UpdatePrinter updates a printer's name, model or addressing
func (ps *PrinterService) UpdatePrinter(ctx context.Context, id uuid.UUID, req *UpdatePrinterRequest) (*model.Printer, error) {
	printer, err := ps.printerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("printer not found: %w", err)
	}

	oldConfig := printer.ConnectionConfig

	if req.Name != "" {
		printer.Name = req.Name
	}
	if req.Model != "" {
		printer.Model = req.Model
	}
	if req.ConnectionType != "" {
		printer.ConnectionType = req.ConnectionType
	}
	if req.ConnectionConfig != nil {
		printer.ConnectionConfig = *req.ConnectionConfig
	}

	if err := transport.ValidateConnectionConfig(printer.ConnectionType, printer.ConnectionConfig); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	printer.UpdatedAt = time.Now()
	if err := ps.printerRepo.Update(ctx, printer); err != nil {
		return nil, fmt.Errorf("failed to update printer: %w", err)
	}

	if req.ConnectionConfig != nil {
		ps.auditLogger.LogPrinterConfiguration(id.String(), oldConfig, printer.ConnectionConfig)
	}

	ps.logger.Info("Printer updated", zap.String("printer_id", id.String()))

	ps.publish(model.EventPrinterUpdated, printer.ID, map[string]interface{}{
		"name": printer.Name,
	}, "INFO")

	return printer, nil
}

// DeletePrinter removes a printer from the inventory
func (ps *PrinterService) DeletePrinter(ctx context.Context, id uuid.UUID) error {
	printer, err := ps.printerRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("printer not found: %w", err)
	}

	if err := ps.printerRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete printer: %w", err)
	}

	ps.logger.Info("Printer deleted",
		zap.String("printer_id", id.String()),
		zap.String("name", printer.Name),
	)

	ps.publish(model.EventPrinterRemoved, id, map[string]interface{}{
		"name": printer.Name,
	}, "INFO")

	return nil
}

// TestPrinter performs a reachability test against the printer
func (ps *PrinterService) TestPrinter(ctx context.Context, id uuid.UUID) (*TestResult, error) {
	printer, err := ps.printerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("printer not found: %w", err)
	}

	printerLogger := utils.NewPrinterLogger(ps.logger.Logger, printer.ID.String(), printer.Model, string(printer.ConnectionType))

	startTime := time.Now()
	reachable := ps.probe(ctx, printer)
	duration := time.Since(startTime)

	status := model.PrinterStatusOffline
	if reachable {
		status = model.PrinterStatusOnline
	}
	ps.recordStatus(ctx, printer, status)
	printerLogger.LogProbe(reachable, nil)

	result := &TestResult{
		Success:  reachable,
		Duration: duration.String(),
	}
	if !reachable {
		result.ErrorMessage = "printer did not answer"
	}
	return result, nil
}

// RefreshStatuses probes every printer and records reachability. Run
// periodically by the background monitor.
func (ps *PrinterService) RefreshStatuses(ctx context.Context) {
	printers, _, err := ps.printerRepo.List(ctx, &repository.PrinterFilter{})
	if err != nil {
		ps.logger.Error("Failed to list printers for status refresh", zap.Error(err))
		return
	}

	for _, printer := range printers {
		select {
		case <-ctx.Done():
			return
		default:
		}

		status := model.PrinterStatusOffline
		if ps.probe(ctx, printer) {
			status = model.PrinterStatusOnline
		}
		ps.recordStatus(ctx, printer, status)
	}
}

// Helper methods

func (ps *PrinterService) probe(ctx context.Context, printer *model.Printer) bool {
	tr, err := ps.newTransport(printer.ConnectionType, printer.ConnectionConfig, ps.transportOptions(nil), ps.logger.Logger)
	if err != nil {
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, ps.config.Transport.ConnectTimeout)
	defer cancel()

	if err := tr.Open(probeCtx); err != nil {
		return false
	}
	defer tr.Close()

	return tr.Ping(probeCtx) == nil
}

func (ps *PrinterService) recordStatus(ctx context.Context, printer *model.Printer, status model.PrinterStatus) {
	if status == model.PrinterStatusOnline {
		if err := ps.printerRepo.UpdateLastSeen(ctx, printer.ID, time.Now()); err != nil {
			ps.logger.Error("Failed to update last seen", zap.Error(err))
		}
	}

	if printer.Status == status {
		return
	}

	if err := ps.printerRepo.UpdateStatus(ctx, printer.ID, status); err != nil {
		ps.logger.Error("Failed to update printer status", zap.Error(err))
		return
	}

	ps.publish(model.EventPrinterStatus, printer.ID, map[string]interface{}{
		"previous": string(printer.Status),
		"current":  string(status),
	}, "INFO")
}

// transportOptions builds factory options from the service configuration.
// onProgress may be nil.
func (ps *PrinterService) transportOptions(onProgress func(code int, message string)) transport.Options {
	return transport.Options{
		ConnectTimeout:     ps.config.Transport.ConnectTimeout,
		WriteTimeout:       ps.config.Transport.WriteTimeout,
		FTPKeepAlive:       ps.config.FTP.KeepAlive,
		OnTransferProgress: onProgress,
	}
}

func (ps *PrinterService) publish(eventType model.EventType, printerID uuid.UUID, data map[string]interface{}, severity string) {
	if ps.bus == nil {
		return
	}
	ps.bus.Publish(model.Event{
		ID:        uuid.New(),
		EventType: eventType,
		PrinterID: printerID,
		Data:      data,
		Timestamp: time.Now(),
		Source:    "printer-service",
		Severity:  severity,
	})
}

func (ps *PrinterService) validateRegisterRequest(req *RegisterPrinterRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if req.ConnectionType == "" {
		return fmt.Errorf("connection_type is required")
	}
	return transport.ValidateConnectionConfig(req.ConnectionType, req.ConnectionConfig)
}

// Data Transfer Objects

// RegisterPrinterRequest represents a printer registration request
type RegisterPrinterRequest struct {
	Name             string                 `json:"name" binding:"required"`
	Model            string                 `json:"model"`
	ConnectionType   model.ConnectionType   `json:"connection_type" binding:"required"`
	ConnectionConfig model.ConnectionConfig `json:"connection_config"`
}

// UpdatePrinterRequest represents a printer update request. Zero fields are
// left unchanged.
type UpdatePrinterRequest struct {
	Name             string                  `json:"name"`
	Model            string                  `json:"model"`
	ConnectionType   model.ConnectionType    `json:"connection_type"`
	ConnectionConfig *model.ConnectionConfig `json:"connection_config"`
}

// PaginationResult represents pagination information
type PaginationResult struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// TestResult represents a printer reachability test result
type TestResult struct {
	Success      bool   `json:"success"`
	Duration     string `json:"duration"`
	ErrorMessage string `json:"error_message,omitempty"`
}
