// internal/transport/ftp.go
package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"label-service/internal/model"
	"label-service/pkg/ftp"
)

// FTPConfig configures an FTP transport
type FTPConfig struct {
	Host           string
	Port           int
	Username       string
	ConnectTimeout time.Duration
	KeepAlive      time.Duration
	// OnProgress receives preliminary transfer replies (e.g. "150 Opening
	// data connection"). Called from the client's read goroutine.
	OnProgress func(code int, message string)
}

// FTPTransport implements Transport over the printer's FTP server. Payloads
// sent through it are stored as remote files; the printer interprets stored
// command streams on arrival.
type FTPTransport struct {
	config *FTPConfig
	client *ftp.Client
	logger *zap.Logger
	mutex  sync.RWMutex
	stats  statsCounter
}

// NewFTPTransport creates an FTP transport
func NewFTPTransport(config *FTPConfig, logger *zap.Logger) *FTPTransport {
	return &FTPTransport{
		config: config,
		logger: logger.With(
			zap.String("transport", "ftp"),
			zap.String("host", config.Host),
			zap.Int("port", config.Port),
		),
	}
}

// Open connects and logs in to the printer's FTP server
func (ft *FTPTransport) Open(ctx context.Context) error {
	ft.mutex.Lock()
	defer ft.mutex.Unlock()

	if ft.client != nil && ft.client.State() == ftp.StateConnected {
		return nil
	}

	ft.logger.Info("Opening FTP session",
		zap.String("username", ft.config.Username),
	)

	client := ftp.New(ftp.Options{
		ConnectTimeout: ft.config.ConnectTimeout,
		KeepAlive:      ft.config.KeepAlive,
		OnIntermediate: ft.onIntermediate,
	})

	if err := client.Connect(ctx, ft.config.Host, ft.config.Port, ft.config.Username); err != nil {
		ft.stats.recordError()
		ft.logger.Error("Failed to open FTP session", zap.Error(err))
		return fmt.Errorf("failed to connect to %s:%d: %w", ft.config.Host, ft.config.Port, err)
	}

	ft.client = client
	ft.stats.setConnected(true)

	ft.logger.Info("FTP session opened successfully")
	return nil
}

// Close ends the FTP session
func (ft *FTPTransport) Close() error {
	ft.mutex.Lock()
	defer ft.mutex.Unlock()

	if ft.client == nil {
		return nil
	}

	ft.client.Disconnect()
	ft.client = nil
	ft.stats.setConnected(false)

	ft.logger.Info("FTP session closed")
	return nil
}

// IsOpen returns whether the session is established
func (ft *FTPTransport) IsOpen() bool {
	ft.mutex.RLock()
	defer ft.mutex.RUnlock()
	return ft.client != nil && ft.client.State() == ftp.StateConnected
}

// Send uploads the payload under a generated job name. Printers treat any
// stored command stream as a job to execute.
func (ft *FTPTransport) Send(ctx context.Context, data []byte) error {
	name := fmt.Sprintf("JOB-%s.ZPL", strings.ToUpper(uuid.New().String()[:8]))
	return ft.Put(ctx, name, data)
}

// Put uploads the payload as the named remote file
func (ft *FTPTransport) Put(ctx context.Context, name string, data []byte) error {
	ft.mutex.RLock()
	client := ft.client
	ft.mutex.RUnlock()

	if client == nil || client.State() != ftp.StateConnected {
		return fmt.Errorf("FTP session not open")
	}

	startTime := time.Now()
	if err := client.PutData(ctx, name, data); err != nil {
		ft.mutex.Lock()
		ft.stats.recordError()
		ft.mutex.Unlock()
		ft.logger.Error("FTP upload failed", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}

	ft.mutex.Lock()
	ft.stats.recordSend(len(data), time.Since(startTime))
	ft.mutex.Unlock()

	ft.logger.Debug("FTP upload completed",
		zap.String("name", name),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Type returns the connection type
func (ft *FTPTransport) Type() model.ConnectionType {
	return model.ConnectionTypeFTP
}

// Ping tests the session. The client already probes the control channel
// with NOOP while idle, so a state check suffices here.
func (ft *FTPTransport) Ping(ctx context.Context) error {
	if !ft.IsOpen() {
		return fmt.Errorf("FTP session not open")
	}
	return nil
}

// Stats returns a snapshot of the transport counters
func (ft *FTPTransport) Stats() TransportStats {
	ft.mutex.RLock()
	defer ft.mutex.RUnlock()
	return ft.stats.snapshot()
}

func (ft *FTPTransport) onIntermediate(reply ftp.Reply) {
	ft.logger.Debug("Transfer progress",
		zap.Int("code", reply.Code),
		zap.String("message", reply.Message),
	)
	if ft.config.OnProgress != nil {
		ft.config.OnProgress(reply.Code, reply.Message)
	}
}
