// internal/discovery/serial_scanner.go
package discovery

import (
	"context"
	"fmt"
	"strings"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"label-service/internal/model"
)

// SerialScannerConfig configures serial port listing
type SerialScannerConfig struct {
	// PortPatterns filter the reported ports by prefix. Empty means all.
	PortPatterns []string `json:"port_patterns"`
	// BaudRate attached to candidates; the printer default when zero
	BaudRate int `json:"baud_rate"`
}

// SerialScanner lists the host's serial ports. A listed port only proves a
// device node exists, so candidates carry low confidence.
type SerialScanner struct {
	logger *zap.Logger
	config *SerialScannerConfig
}

// NewSerialScanner creates a serial scanner
func NewSerialScanner(logger *zap.Logger, config *SerialScannerConfig) *SerialScanner {
	if config == nil {
		config = &SerialScannerConfig{}
	}
	if len(config.PortPatterns) == 0 {
		config.PortPatterns = []string{"/dev/ttyUSB", "/dev/ttyACM", "/dev/ttyS", "COM"}
	}
	if config.BaudRate <= 0 {
		config.BaudRate = 9600
	}

	return &SerialScanner{
		logger: logger.With(zap.String("scanner", "serial")),
		config: config,
	}
}

// ScannerType returns the scanner type identifier
func (s *SerialScanner) ScannerType() string {
	return "serial"
}

// IsAvailable reports whether serial listing can run
func (s *SerialScanner) IsAvailable() bool {
	return true
}

// Scan lists and filters the host's serial ports
func (s *SerialScanner) Scan(ctx context.Context) ([]*Candidate, error) {
	s.logger.Info("Starting serial port scan")

	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	var discovered []*Candidate
	for _, port := range ports {
		select {
		case <-ctx.Done():
			return discovered, ctx.Err()
		default:
		}

		if !s.matchesPattern(port) {
			continue
		}

		discovered = append(discovered, &Candidate{
			ConnectionType: model.ConnectionTypeSerial,
			ConnectionConfig: model.ConnectionConfig{
				Device:   port,
				BaudRate: s.config.BaudRate,
			},
			Confidence: 0.2,
			Source:     "serial",
		})
	}

	s.logger.Info("Serial scan completed", zap.Int("ports_found", len(discovered)))
	return discovered, nil
}

func (s *SerialScanner) matchesPattern(port string) bool {
	for _, pattern := range s.config.PortPatterns {
		if strings.HasPrefix(port, pattern) {
			return true
		}
	}
	return false
}
