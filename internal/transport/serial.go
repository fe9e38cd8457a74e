// internal/transport/serial.go
package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"label-service/internal/model"
)

// SerialConfig configures a serial transport. Printers default to 8N1
// framing; only the device path and baud rate normally vary.
type SerialConfig struct {
	Device   string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
}

// SerialTransport implements Transport over a direct serial line
type SerialTransport struct {
	config *SerialConfig
	port   serial.Port
	logger *zap.Logger
	mutex  sync.RWMutex
	isOpen bool
	stats  statsCounter
}

// NewSerialTransport creates a serial transport
func NewSerialTransport(config *SerialConfig, logger *zap.Logger) *SerialTransport {
	return &SerialTransport{
		config: config,
		logger: logger.With(
			zap.String("transport", "serial"),
			zap.String("device", config.Device),
		),
	}
}

// Open opens the serial port
func (st *SerialTransport) Open(ctx context.Context) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if st.isOpen {
		return nil
	}

	st.logger.Info("Opening serial port",
		zap.Int("baud_rate", st.config.BaudRate),
	)

	mode := &serial.Mode{
		BaudRate: st.config.BaudRate,
		DataBits: st.config.DataBits,
		StopBits: serial.StopBits(st.config.StopBits),
	}

	switch st.config.Parity {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		mode.Parity = serial.NoParity
	}

	port, err := serial.Open(st.config.Device, mode)
	if err != nil {
		st.stats.recordError()
		st.logger.Error("Failed to open serial port", zap.Error(err))
		return fmt.Errorf("failed to open serial port %s: %w", st.config.Device, err)
	}

	st.port = port
	st.isOpen = true
	st.stats.setConnected(true)

	st.logger.Info("Serial port opened successfully")
	return nil
}

// Close closes the serial port
func (st *SerialTransport) Close() error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if !st.isOpen || st.port == nil {
		return nil
	}

	if err := st.port.Close(); err != nil {
		st.logger.Error("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	st.port = nil
	st.isOpen = false
	st.stats.setConnected(false)

	st.logger.Info("Serial port closed")
	return nil
}

// IsOpen returns whether the port is open
func (st *SerialTransport) IsOpen() bool {
	st.mutex.RLock()
	defer st.mutex.RUnlock()
	return st.isOpen && st.port != nil
}

// Send writes the payload to the serial port
func (st *SerialTransport) Send(ctx context.Context, data []byte) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if !st.isOpen || st.port == nil {
		return fmt.Errorf("serial port not open")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	startTime := time.Now()
	n, err := st.port.Write(data)
	if err != nil {
		st.stats.recordError()
		st.logger.Error("Serial write failed", zap.Error(err))
		return fmt.Errorf("failed to write to serial port: %w", err)
	}

	if n != len(data) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	st.stats.recordSend(len(data), time.Since(startTime))

	st.logger.Debug("Serial write completed", zap.Int("bytes", len(data)))
	return nil
}

// Type returns the connection type
func (st *SerialTransport) Type() model.ConnectionType {
	return model.ConnectionTypeSerial
}

// Ping tests the line with a host status request
func (st *SerialTransport) Ping(ctx context.Context) error {
	if !st.IsOpen() {
		return fmt.Errorf("serial port not open")
	}
	return st.Send(ctx, []byte("~HS"))
}

// Stats returns a snapshot of the transport counters
func (st *SerialTransport) Stats() TransportStats {
	st.mutex.RLock()
	defer st.mutex.RUnlock()
	return st.stats.snapshot()
}
