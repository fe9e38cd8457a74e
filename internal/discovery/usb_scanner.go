// internal/discovery/usb_scanner.go
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"label-service/internal/model"
)

// ZebraVendorID is the USB vendor ID assigned to Zebra Technologies
const ZebraVendorID gousb.ID = 0x0A5F

const usbClassPrinter = 7

// zebraProducts maps known Zebra product IDs to model names
var zebraProducts = map[gousb.ID]string{
	0x0049: "ZT230",
	0x0064: "GK420d",
	0x0078: "GX420d",
	0x00D1: "ZT410",
	0x00D2: "ZT411",
	0x0110: "ZD420",
	0x0120: "ZD620",
	0x0172: "ZQ520",
}

// USBScannerConfig configures USB enumeration
type USBScannerConfig struct {
	ScanTimeout time.Duration `json:"scan_timeout"`
	// IncludePrinterClass also reports non-Zebra devices exposing the USB
	// printer class, with lower confidence
	IncludePrinterClass bool `json:"include_printer_class"`
}

// USBScanner enumerates attached USB printers
type USBScanner struct {
	logger *zap.Logger
	config *USBScannerConfig
}

// NewUSBScanner creates a USB scanner
func NewUSBScanner(logger *zap.Logger, config *USBScannerConfig) *USBScanner {
	if config == nil {
		config = &USBScannerConfig{}
	}
	if config.ScanTimeout <= 0 {
		config.ScanTimeout = 10 * time.Second
	}

	return &USBScanner{
		logger: logger.With(zap.String("scanner", "usb")),
		config: config,
	}
}

// ScannerType returns the scanner type identifier
func (s *USBScanner) ScannerType() string {
	return "usb"
}

// IsAvailable checks whether the USB subsystem is accessible
func (s *USBScanner) IsAvailable() bool {
	testCtx := gousb.NewContext()
	defer testCtx.Close()

	_, err := testCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return false
	})
	if err != nil {
		s.logger.Debug("USB subsystem not accessible", zap.Error(err))
		return false
	}
	return true
}

// Scan enumerates attached devices and reports the printers
func (s *USBScanner) Scan(ctx context.Context) ([]*Candidate, error) {
	startTime := time.Now()
	s.logger.Info("Starting USB scan")

	scanCtx, cancel := context.WithTimeout(ctx, s.config.ScanTimeout)
	defer cancel()

	usbCtx := gousb.NewContext()
	defer func() {
		if err := usbCtx.Close(); err != nil {
			s.logger.Warn("Failed to close USB context", zap.Error(err))
		}
	}()

	devices, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return s.shouldExamine(desc)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}
	defer closeAllDevices(s.logger, devices)

	var discovered []*Candidate
	for _, device := range devices {
		select {
		case <-scanCtx.Done():
			return discovered, scanCtx.Err()
		default:
		}

		if c := s.examineDevice(device); c != nil {
			discovered = append(discovered, c)
		}
	}

	s.logger.Info("USB scan completed",
		zap.Int("printers_found", len(discovered)),
		zap.Duration("scan_duration", time.Since(startTime)),
	)
	return discovered, nil
}

func (s *USBScanner) shouldExamine(desc *gousb.DeviceDesc) bool {
	if desc.Vendor == ZebraVendorID {
		return true
	}
	return s.config.IncludePrinterClass && desc.Class == usbClassPrinter
}

func (s *USBScanner) examineDevice(device *gousb.Device) *Candidate {
	desc := device.Desc
	if desc == nil {
		return nil
	}

	s.logger.Debug("Examining USB device",
		zap.String("vendor_id", fmt.Sprintf("0x%04X", uint16(desc.Vendor))),
		zap.String("product_id", fmt.Sprintf("0x%04X", uint16(desc.Product))),
	)

	c := &Candidate{
		ConnectionType: model.ConnectionTypeUSB,
		ConnectionConfig: model.ConnectionConfig{
			VendorID:  fmt.Sprintf("0x%04X", uint16(desc.Vendor)),
			ProductID: fmt.Sprintf("0x%04X", uint16(desc.Product)),
		},
		SerialNumber: serialNumber(device),
		Source:       "usb",
	}

	if desc.Vendor == ZebraVendorID {
		if name, ok := zebraProducts[desc.Product]; ok {
			c.Model = name
			c.Confidence = 0.95
		} else {
			c.Model = fmt.Sprintf("Zebra-%04X", uint16(desc.Product))
			c.Confidence = 0.6
		}
		return c
	}

	// Non-Zebra printer-class device
	if product, err := device.Product(); err == nil && product != "" {
		c.Model = strings.TrimSpace(product)
	}
	c.Confidence = 0.3
	return c
}

func serialNumber(device *gousb.Device) string {
	sn, err := device.SerialNumber()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(sn)
}

func closeAllDevices(logger *zap.Logger, devices []*gousb.Device) {
	for i, device := range devices {
		if device == nil {
			continue
		}
		if err := device.Close(); err != nil {
			logger.Warn("Failed to close USB device",
				zap.Int("device_index", i),
				zap.Error(err),
			)
		}
	}
}
