// internal/service/discovery_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"label-service/internal/config"
	"label-service/internal/discovery"
	"label-service/internal/model"
	"label-service/internal/repository"
	"label-service/internal/utils"
)

// DiscoveryService runs printer scans and merges the results with the
// registered inventory
type DiscoveryService struct {
	printerRepo    repository.PrinterRepository
	scannerManager *discovery.ScannerManager
	config         *config.Config
	logger         *utils.ServiceLogger
	bus            EventPublisher
}

// NewDiscoveryService creates a discovery service and registers the
// scanners the configuration enables
func NewDiscoveryService(
	printerRepo repository.PrinterRepository,
	cfg *config.Config,
	bus EventPublisher,
	logger *zap.Logger,
) *DiscoveryService {
	ds := &DiscoveryService{
		printerRepo:    printerRepo,
		scannerManager: discovery.NewScannerManager(logger),
		config:         cfg,
		logger:         utils.NewServiceLogger(logger, "discovery-service"),
		bus:            bus,
	}

	ds.initializeScanners(logger)

	return ds
}

// initializeScanners registers every scanner that can run on this host
func (ds *DiscoveryService) initializeScanners(logger *zap.Logger) {
	var ranges []string
	if ds.config.Discovery.CIDR != "" {
		for _, r := range strings.Split(ds.config.Discovery.CIDR, ",") {
			if r = strings.TrimSpace(r); r != "" {
				ranges = append(ranges, r)
			}
		}
	}

	tcpScanner := discovery.NewTCPScanner(logger, &discovery.TCPScannerConfig{
		NetworkRanges: ranges,
		Ports:         ds.config.Discovery.Ports,
		DialTimeout:   ds.config.Discovery.DialTimeout,
		Concurrency:   ds.config.Discovery.Concurrency,
	})
	if tcpScanner.IsAvailable() {
		ds.scannerManager.RegisterScanner(tcpScanner)
	}

	if usbScanner := discovery.NewUSBScanner(logger, nil); usbScanner.IsAvailable() {
		ds.scannerManager.RegisterScanner(usbScanner)
	}

	serialScanner := discovery.NewSerialScanner(logger, &discovery.SerialScannerConfig{
		BaudRate: ds.config.Transport.SerialBaudRate,
	})
	if serialScanner.IsAvailable() {
		ds.scannerManager.RegisterScanner(serialScanner)
	}

	ds.logger.Info("Discovery scanners initialized",
		zap.Strings("available_scanners", ds.scannerManager.AvailableScanners()),
	)
}

// Scan scans for reachable printers and marks candidates that match an
// already registered printer
func (ds *DiscoveryService) Scan(ctx context.Context, req *ScanRequest) (*ScanResult, error) {
	if !ds.config.Discovery.Enabled {
		return nil, fmt.Errorf("discovery is disabled")
	}

	scanType := req.ScanType
	if scanType == "" {
		scanType = "all"
	}

	ds.logger.Info("Starting printer scan", zap.String("type", scanType))
	started := time.Now()

	var candidates []*discovery.Candidate
	var err error

	switch scanType {
	case "all":
		candidates, err = ds.scannerManager.ScanAll(ctx)
	case "tcp", "usb", "serial":
		candidates, err = ds.scannerManager.ScanByType(ctx, scanType)
	default:
		return nil, fmt.Errorf("unsupported scan type: %s", scanType)
	}
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	known, err := ds.knownPrinters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}

	result := &ScanResult{
		ScanType:   scanType,
		DurationMs: time.Since(started).Milliseconds(),
		Printers:   make([]*DiscoveredPrinter, 0, len(candidates)),
	}
	for _, c := range candidates {
		dp := &DiscoveredPrinter{
			ConnectionType:   c.ConnectionType,
			ConnectionConfig: c.ConnectionConfig,
			Model:            c.Model,
			SerialNumber:     c.SerialNumber,
			Confidence:       c.Confidence,
			Source:           c.Source,
		}
		if p, ok := known[c.Key()]; ok {
			dp.Registered = true
			dp.PrinterID = &p.ID
			dp.PrinterName = p.Name
		}
		result.Printers = append(result.Printers, dp)
	}

	ds.logger.Info("Printer scan completed",
		zap.String("scan_type", scanType),
		zap.Int("printers_found", len(result.Printers)),
		zap.Int64("duration_ms", result.DurationMs),
	)

	ds.publishResult(result)

	return result, nil
}

// AvailableScanners reports which scan media can run on this host
func (ds *DiscoveryService) AvailableScanners() []string {
	return ds.scannerManager.AvailableScanners()
}

// knownPrinters indexes the inventory by the same key candidates dedupe on
func (ds *DiscoveryService) knownPrinters(ctx context.Context) (map[string]*model.Printer, error) {
	printers, _, err := ds.printerRepo.List(ctx, &repository.PrinterFilter{Page: 1, PerPage: 10000})
	if err != nil {
		return nil, err
	}

	known := make(map[string]*model.Printer, len(printers))
	for _, p := range printers {
		c := discovery.Candidate{
			ConnectionType:   p.ConnectionType,
			ConnectionConfig: p.ConnectionConfig,
		}
		known[c.Key()] = p
	}
	return known, nil
}

func (ds *DiscoveryService) publishResult(result *ScanResult) {
	if ds.bus == nil {
		return
	}

	registered := 0
	for _, p := range result.Printers {
		if p.Registered {
			registered++
		}
	}

	ds.bus.Publish(model.Event{
		ID:        uuid.New(),
		EventType: model.EventDiscoveryResult,
		Data: map[string]interface{}{
			"scan_type":   result.ScanType,
			"found":       len(result.Printers),
			"registered":  registered,
			"duration_ms": result.DurationMs,
		},
		Timestamp: time.Now(),
		Source:    "discovery-service",
		Severity:  "INFO",
	})
}

// DTOs for Discovery Service

// ScanRequest represents a printer scan request
type ScanRequest struct {
	ScanType string `json:"scan_type"` // all, tcp, usb, serial
}

// ScanResult represents the outcome of one scan
type ScanResult struct {
	ScanType   string               `json:"scan_type"`
	DurationMs int64                `json:"duration_ms"`
	Printers   []*DiscoveredPrinter `json:"printers"`
}

// DiscoveredPrinter represents one printer found by a scan, annotated with
// whether it matches a registered printer
type DiscoveredPrinter struct {
	ConnectionType   model.ConnectionType   `json:"connection_type"`
	ConnectionConfig model.ConnectionConfig `json:"connection_config"`
	Model            string                 `json:"model,omitempty"`
	SerialNumber     string                 `json:"serial_number,omitempty"`
	Confidence       float64                `json:"confidence"`
	Source           string                 `json:"source"`
	Registered       bool                   `json:"registered"`
	PrinterID        *uuid.UUID             `json:"printer_id,omitempty"`
	PrinterName      string                 `json:"printer_name,omitempty"`
}
