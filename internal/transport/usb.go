// internal/transport/usb.go
package transport

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"label-service/internal/model"
)

// USBConfig configures a USB transport
type USBConfig struct {
	VendorID  string
	ProductID string
	Endpoint  int
}

// USBTransport implements Transport over a bulk-out USB endpoint
type USBTransport struct {
	config   *USBConfig
	usbCtx   *gousb.Context
	device   *gousb.Device
	intf     *gousb.Interface
	intfDone func()
	outEndpt *gousb.OutEndpoint
	logger   *zap.Logger
	mutex    sync.RWMutex
	isOpen   bool
	stats    statsCounter
}

// NewUSBTransport creates a USB transport
func NewUSBTransport(config *USBConfig, logger *zap.Logger) *USBTransport {
	return &USBTransport{
		config: config,
		logger: logger.With(
			zap.String("transport", "usb"),
			zap.String("vendor_id", config.VendorID),
			zap.String("product_id", config.ProductID),
		),
	}
}

// Open claims the device's default interface and its bulk-out endpoint
func (ut *USBTransport) Open(ctx context.Context) error {
	ut.mutex.Lock()
	defer ut.mutex.Unlock()

	if ut.isOpen {
		return nil
	}

	ut.logger.Info("Opening USB connection")

	vendorID, err := parseHexID(ut.config.VendorID)
	if err != nil {
		return fmt.Errorf("invalid vendor ID: %w", err)
	}
	productID, err := parseHexID(ut.config.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product ID: %w", err)
	}

	ut.usbCtx = gousb.NewContext()

	device, err := ut.findAndOpenDevice(vendorID, productID)
	if err != nil {
		ut.usbCtx.Close()
		ut.usbCtx = nil
		ut.stats.recordError()
		return fmt.Errorf("failed to find USB device: %w", err)
	}

	intf, done, err := device.DefaultInterface()
	if err != nil {
		device.Close()
		ut.usbCtx.Close()
		ut.usbCtx = nil
		ut.stats.recordError()
		return fmt.Errorf("failed to claim interface: %w", err)
	}

	outEndpt, err := intf.OutEndpoint(ut.config.Endpoint)
	if err != nil {
		done()
		device.Close()
		ut.usbCtx.Close()
		ut.usbCtx = nil
		ut.stats.recordError()
		return fmt.Errorf("failed to get out endpoint: %w", err)
	}

	ut.device = device
	ut.intf = intf
	ut.intfDone = done
	ut.outEndpt = outEndpt
	ut.isOpen = true
	ut.stats.setConnected(true)

	ut.logger.Info("USB connection opened successfully")
	return nil
}

// Close releases the interface, device and context
func (ut *USBTransport) Close() error {
	ut.mutex.Lock()
	defer ut.mutex.Unlock()

	if !ut.isOpen {
		return nil
	}

	if ut.intfDone != nil {
		ut.intfDone()
		ut.intfDone = nil
	}
	ut.intf = nil

	if ut.device != nil {
		ut.device.Close()
		ut.device = nil
	}

	if ut.usbCtx != nil {
		ut.usbCtx.Close()
		ut.usbCtx = nil
	}

	ut.outEndpt = nil
	ut.isOpen = false
	ut.stats.setConnected(false)

	ut.logger.Info("USB connection closed")
	return nil
}

// IsOpen returns whether the connection is open
func (ut *USBTransport) IsOpen() bool {
	ut.mutex.RLock()
	defer ut.mutex.RUnlock()
	return ut.isOpen && ut.device != nil && ut.outEndpt != nil
}

// Send writes the payload to the bulk-out endpoint
func (ut *USBTransport) Send(ctx context.Context, data []byte) error {
	ut.mutex.Lock()
	defer ut.mutex.Unlock()

	if !ut.isOpen || ut.outEndpt == nil {
		return fmt.Errorf("USB connection not open")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	startTime := time.Now()
	n, err := ut.outEndpt.Write(data)
	if err != nil {
		ut.stats.recordError()
		ut.logger.Error("USB write failed", zap.Error(err))
		return fmt.Errorf("failed to write to USB device: %w", err)
	}

	if n != len(data) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	ut.stats.recordSend(len(data), time.Since(startTime))

	ut.logger.Debug("USB write completed", zap.Int("bytes", len(data)))
	return nil
}

// Type returns the connection type
func (ut *USBTransport) Type() model.ConnectionType {
	return model.ConnectionTypeUSB
}

// Ping tests the endpoint with a host status request
func (ut *USBTransport) Ping(ctx context.Context) error {
	if !ut.IsOpen() {
		return fmt.Errorf("USB connection not open")
	}
	return ut.Send(ctx, []byte("~HS"))
}

// Stats returns a snapshot of the transport counters
func (ut *USBTransport) Stats() TransportStats {
	ut.mutex.RLock()
	defer ut.mutex.RUnlock()
	return ut.stats.snapshot()
}

func (ut *USBTransport) findAndOpenDevice(vendorID, productID gousb.ID) (*gousb.Device, error) {
	devices, err := ut.usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vendorID && desc.Product == productID
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("USB device not found (VID: %04X, PID: %04X)", uint16(vendorID), uint16(productID))
	}

	if len(devices) > 1 {
		for i := 1; i < len(devices); i++ {
			devices[i].Close()
		}
		ut.logger.Warn("Multiple matching USB devices found, using first one")
	}

	return devices[0], nil
}

// parseHexID parses a hex ID string (0x0A5F or 0A5F)
func parseHexID(hexStr string) (gousb.ID, error) {
	hexStr = strings.TrimPrefix(hexStr, "0x")
	id, err := strconv.ParseUint(hexStr, 16, 16)
	if err != nil {
		return 0, err
	}
	return gousb.ID(id), nil
}
