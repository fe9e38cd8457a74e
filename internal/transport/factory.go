// internal/transport/factory.go
package transport

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"label-service/internal/model"
)

// Options carry the tunables a factory applies across transports. The zero
// value gets the defaults.
type Options struct {
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	// FTPKeepAlive is the idle NOOP interval for FTP sessions
	FTPKeepAlive time.Duration
	// OnTransferProgress receives FTP preliminary replies during uploads
	OnTransferProgress func(code int, message string)
}

const (
	defaultFTPPort        = 21
	defaultFTPUsername    = "zebra"
	defaultTCPPort        = 9100
	defaultBaudRate       = 9600
	defaultConnectTimeout = 5 * time.Second
	defaultWriteTimeout   = 30 * time.Second
)

// CreateTransport builds a transport from a printer's connection type and
// addressing
func CreateTransport(connectionType model.ConnectionType, conn model.ConnectionConfig, opts Options, logger *zap.Logger) (Transport, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}

	if err := ValidateConnectionConfig(connectionType, conn); err != nil {
		return nil, err
	}

	switch connectionType {
	case model.ConnectionTypeFTP:
		return createFTPTransport(conn, opts, logger), nil
	case model.ConnectionTypeTCP:
		return createTCPTransport(conn, opts, logger), nil
	case model.ConnectionTypeSerial:
		return createSerialTransport(conn, logger), nil
	case model.ConnectionTypeUSB:
		return createUSBTransport(conn, logger), nil
	default:
		return nil, fmt.Errorf("unsupported connection type: %s", connectionType)
	}
}

func createFTPTransport(conn model.ConnectionConfig, opts Options, logger *zap.Logger) Transport {
	config := &FTPConfig{
		Host:           conn.Host,
		Port:           conn.Port,
		Username:       conn.Username,
		ConnectTimeout: opts.ConnectTimeout,
		KeepAlive:      opts.FTPKeepAlive,
		OnProgress:     opts.OnTransferProgress,
	}
	if config.Port == 0 {
		config.Port = defaultFTPPort
	}
	if config.Username == "" {
		config.Username = defaultFTPUsername
	}

	logger.Info("Creating FTP transport",
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
	)
	return NewFTPTransport(config, logger)
}

func createTCPTransport(conn model.ConnectionConfig, opts Options, logger *zap.Logger) Transport {
	config := &TCPConfig{
		Host:           conn.Host,
		Port:           conn.Port,
		ConnectTimeout: opts.ConnectTimeout,
		WriteTimeout:   opts.WriteTimeout,
		KeepAlive:      true,
	}
	if config.Port == 0 {
		config.Port = defaultTCPPort
	}

	logger.Info("Creating TCP transport",
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
	)
	return NewTCPTransport(config, logger)
}

func createSerialTransport(conn model.ConnectionConfig, logger *zap.Logger) Transport {
	config := &SerialConfig{
		Device:   conn.Device,
		BaudRate: conn.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "none",
	}
	if config.BaudRate == 0 {
		config.BaudRate = defaultBaudRate
	}

	logger.Info("Creating serial transport",
		zap.String("device", config.Device),
		zap.Int("baud_rate", config.BaudRate),
	)
	return NewSerialTransport(config, logger)
}

func createUSBTransport(conn model.ConnectionConfig, logger *zap.Logger) Transport {
	config := &USBConfig{
		VendorID:  conn.VendorID,
		ProductID: conn.ProductID,
		Endpoint:  1,
	}

	logger.Info("Creating USB transport",
		zap.String("vendor_id", config.VendorID),
		zap.String("product_id", config.ProductID),
	)
	return NewUSBTransport(config, logger)
}

// ValidateConnectionConfig validates addressing for a connection type
func ValidateConnectionConfig(connectionType model.ConnectionType, conn model.ConnectionConfig) error {
	switch connectionType {
	case model.ConnectionTypeFTP, model.ConnectionTypeTCP:
		if conn.Host == "" {
			return fmt.Errorf("%s host is required", connectionType)
		}
		if conn.Port < 0 || conn.Port > 65535 {
			return fmt.Errorf("invalid port number: %d", conn.Port)
		}
		return nil
	case model.ConnectionTypeSerial:
		if conn.Device == "" {
			return fmt.Errorf("serial device is required")
		}
		if conn.BaudRate != 0 && !validBaudRate(conn.BaudRate) {
			return fmt.Errorf("invalid baud rate: %d", conn.BaudRate)
		}
		return nil
	case model.ConnectionTypeUSB:
		if conn.VendorID == "" {
			return fmt.Errorf("USB vendor_id is required")
		}
		if conn.ProductID == "" {
			return fmt.Errorf("USB product_id is required")
		}
		if _, err := parseHexID(conn.VendorID); err != nil {
			return fmt.Errorf("invalid USB vendor_id %q: %w", conn.VendorID, err)
		}
		if _, err := parseHexID(conn.ProductID); err != nil {
			return fmt.Errorf("invalid USB product_id %q: %w", conn.ProductID, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported connection type: %s", connectionType)
	}
}

func validBaudRate(rate int) bool {
	switch rate {
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200:
		return true
	}
	return false
}
