// internal/transport/tcp.go
package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"label-service/internal/model"
)

// TCPConfig configures a raw-socket transport
type TCPConfig struct {
	Host           string
	Port           int
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	KeepAlive      bool
}

// TCPTransport implements Transport over the printer's raw print port
// (conventionally 9100)
type TCPTransport struct {
	config *TCPConfig
	conn   net.Conn
	logger *zap.Logger
	mutex  sync.RWMutex
	isOpen bool
	stats  statsCounter
}

// NewTCPTransport creates a raw-socket transport
func NewTCPTransport(config *TCPConfig, logger *zap.Logger) *TCPTransport {
	return &TCPTransport{
		config: config,
		logger: logger.With(
			zap.String("transport", "tcp"),
			zap.String("host", config.Host),
			zap.Int("port", config.Port),
		),
	}
}

// Open opens the TCP connection
func (tt *TCPTransport) Open(ctx context.Context) error {
	tt.mutex.Lock()
	defer tt.mutex.Unlock()

	if tt.isOpen {
		return nil
	}

	tt.logger.Info("Opening TCP connection")

	dialer := &net.Dialer{
		Timeout:   tt.config.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	address := fmt.Sprintf("%s:%d", tt.config.Host, tt.config.Port)
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		tt.stats.recordError()
		tt.logger.Error("Failed to open TCP connection", zap.Error(err))
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok && tt.config.KeepAlive {
		tcpConn.SetKeepAlive(true)
		tcpConn.SetKeepAlivePeriod(30 * time.Second)
	}

	tt.conn = conn
	tt.isOpen = true
	tt.stats.setConnected(true)

	tt.logger.Info("TCP connection opened successfully")
	return nil
}

// Close closes the TCP connection
func (tt *TCPTransport) Close() error {
	tt.mutex.Lock()
	defer tt.mutex.Unlock()

	if !tt.isOpen || tt.conn == nil {
		return nil
	}

	if err := tt.conn.Close(); err != nil {
		tt.logger.Error("Failed to close TCP connection", zap.Error(err))
		return fmt.Errorf("failed to close TCP connection: %w", err)
	}

	tt.conn = nil
	tt.isOpen = false
	tt.stats.setConnected(false)

	tt.logger.Info("TCP connection closed")
	return nil
}

// IsOpen returns whether the connection is open
func (tt *TCPTransport) IsOpen() bool {
	tt.mutex.RLock()
	defer tt.mutex.RUnlock()
	return tt.isOpen && tt.conn != nil
}

// Send writes the payload to the socket
func (tt *TCPTransport) Send(ctx context.Context, data []byte) error {
	tt.mutex.Lock()
	defer tt.mutex.Unlock()

	if !tt.isOpen || tt.conn == nil {
		return fmt.Errorf("TCP connection not open")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if tt.config.WriteTimeout > 0 {
		tt.conn.SetWriteDeadline(time.Now().Add(tt.config.WriteTimeout))
	}

	startTime := time.Now()
	n, err := tt.conn.Write(data)
	if err != nil {
		tt.stats.recordError()
		tt.logger.Error("TCP write failed", zap.Error(err))
		return fmt.Errorf("failed to write to TCP connection: %w", err)
	}

	if n != len(data) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	tt.stats.recordSend(len(data), time.Since(startTime))

	tt.logger.Debug("TCP write completed", zap.Int("bytes", len(data)))
	return nil
}

// Type returns the connection type
func (tt *TCPTransport) Type() model.ConnectionType {
	return model.ConnectionTypeTCP
}

// Ping tests the connection with a host status request
func (tt *TCPTransport) Ping(ctx context.Context) error {
	if !tt.IsOpen() {
		return fmt.Errorf("TCP connection not open")
	}
	return tt.Send(ctx, []byte("~HS"))
}

// Stats returns a snapshot of the transport counters
func (tt *TCPTransport) Stats() TransportStats {
	tt.mutex.RLock()
	defer tt.mutex.RUnlock()
	return tt.stats.snapshot()
}
