// internal/discovery/discovery.go
package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"label-service/internal/model"
)

// Scanner probes one medium for reachable printers
type Scanner interface {
	Scan(ctx context.Context) ([]*Candidate, error)
	ScannerType() string
	IsAvailable() bool
}

// Candidate is one printer found by a scan, normalized into the addressing
// a printer record needs
type Candidate struct {
	ConnectionType   model.ConnectionType   `json:"connection_type"`
	ConnectionConfig model.ConnectionConfig `json:"connection_config"`
	Model            string                 `json:"model,omitempty"`
	SerialNumber     string                 `json:"serial_number,omitempty"`
	Confidence       float64                `json:"confidence"`
	Source           string                 `json:"source"`
}

// Key identifies a candidate for deduplication across scanners
func (c *Candidate) Key() string {
	switch c.ConnectionType {
	case model.ConnectionTypeSerial:
		return fmt.Sprintf("serial:%s", c.ConnectionConfig.Device)
	case model.ConnectionTypeUSB:
		return fmt.Sprintf("usb:%s:%s:%s", c.ConnectionConfig.VendorID, c.ConnectionConfig.ProductID, c.SerialNumber)
	default:
		return fmt.Sprintf("%s:%s:%d", c.ConnectionType, c.ConnectionConfig.Host, c.ConnectionConfig.Port)
	}
}

// ScannerManager runs all registered scanners and merges their results
type ScannerManager struct {
	scanners map[string]Scanner
	logger   *zap.Logger
}

// NewScannerManager creates a scanner manager
func NewScannerManager(logger *zap.Logger) *ScannerManager {
	return &ScannerManager{
		scanners: make(map[string]Scanner),
		logger:   logger,
	}
}

// RegisterScanner registers a scanner
func (sm *ScannerManager) RegisterScanner(scanner Scanner) {
	scannerType := scanner.ScannerType()
	sm.scanners[scannerType] = scanner
	sm.logger.Info("Scanner registered", zap.String("type", scannerType))
}

// ScanAll runs every available scanner and returns deduplicated candidates.
// A scanner failure is logged and skipped, not propagated.
func (sm *ScannerManager) ScanAll(ctx context.Context) ([]*Candidate, error) {
	var all []*Candidate

	for scannerType, scanner := range sm.scanners {
		if !scanner.IsAvailable() {
			sm.logger.Debug("Scanner not available, skipping", zap.String("type", scannerType))
			continue
		}

		candidates, err := scanner.Scan(ctx)
		if err != nil {
			sm.logger.Error("Scanner failed", zap.String("type", scannerType), zap.Error(err))
			continue
		}

		all = append(all, candidates...)
		sm.logger.Info("Scanner completed",
			zap.String("type", scannerType),
			zap.Int("printers_found", len(candidates)),
		)
	}

	return dedupe(all), nil
}

// ScanByType runs one scanner
func (sm *ScannerManager) ScanByType(ctx context.Context, scannerType string) ([]*Candidate, error) {
	scanner, exists := sm.scanners[scannerType]
	if !exists {
		return nil, fmt.Errorf("scanner type not found: %s", scannerType)
	}

	if !scanner.IsAvailable() {
		return nil, fmt.Errorf("scanner not available: %s", scannerType)
	}

	candidates, err := scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return dedupe(candidates), nil
}

// AvailableScanners returns the registered scanner types that can run
func (sm *ScannerManager) AvailableScanners() []string {
	var available []string
	for scannerType, scanner := range sm.scanners {
		if scanner.IsAvailable() {
			available = append(available, scannerType)
		}
	}
	return available
}

func dedupe(candidates []*Candidate) []*Candidate {
	seen := make(map[string]bool)
	var unique []*Candidate
	for _, c := range candidates {
		key := c.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, c)
	}
	return unique
}
