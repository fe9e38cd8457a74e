// internal/model/printer.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// PrinterStatus represents the current status of a printer
type PrinterStatus string

const (
	PrinterStatusOnline  PrinterStatus = "ONLINE"
	PrinterStatusOffline PrinterStatus = "OFFLINE"
	PrinterStatusUnknown PrinterStatus = "UNKNOWN"
)

// ConnectionType represents how the printer is reached
type ConnectionType string

const (
	ConnectionTypeFTP    ConnectionType = "FTP"
	ConnectionTypeTCP    ConnectionType = "TCP"
	ConnectionTypeSerial ConnectionType = "SERIAL"
	ConnectionTypeUSB    ConnectionType = "USB"
)

// DriveLocation is a printer storage drive letter
type DriveLocation string

const (
	DriveRAM   DriveLocation = "R"
	DriveFlash DriveLocation = "E"
	DriveCard  DriveLocation = "B"
	DriveUSB   DriveLocation = "A"
)

// Printer represents one label printer in the in-memory inventory
type Printer struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	Model            string           `json:"model"`
	ConnectionType   ConnectionType   `json:"connection_type"`
	ConnectionConfig ConnectionConfig `json:"connection_config"`
	Status           PrinterStatus    `json:"status"`
	LastSeen         *time.Time       `json:"last_seen"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// IsOnline checks if the printer is currently reachable
func (p *Printer) IsOnline() bool {
	return p.Status == PrinterStatusOnline
}

// Profile resolves the printer's model profile, falling back to the
// wildcard profile for unknown models
func (p *Printer) Profile() Profile {
	return ProfileFor(p.Model)
}

// ConnectionConfig carries the per-connection-type addressing. Only the
// fields for the printer's connection type are meaningful.
type ConnectionConfig struct {
	// FTP and TCP
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
	// FTP login, defaults to "zebra" when empty
	Username string `json:"username,omitempty"`
	// Serial
	Device   string `json:"device,omitempty"`
	BaudRate int    `json:"baud_rate,omitempty"`
	// USB
	VendorID  string `json:"vendor_id,omitempty"`
	ProductID string `json:"product_id,omitempty"`
}

// TransferStats tracks per-printer delivery counters
type TransferStats struct {
	BytesSent      int64      `json:"bytes_sent"`
	JobsDelivered  int64      `json:"jobs_delivered"`
	ErrorCount     int64      `json:"error_count"`
	LastDeliveryAt *time.Time `json:"last_delivery_at"`
}
