// internal/transport/transport.go
package transport

import (
	"context"
	"time"

	"label-service/internal/model"
)

// Transport delivers rendered command bytes to one printer over a single
// physical connection type.
type Transport interface {
	// Open establishes the connection
	Open(ctx context.Context) error

	// Close tears the connection down
	Close() error

	// IsOpen reports whether the connection is currently established
	IsOpen() bool

	// Send delivers a complete rendered payload to the printer
	Send(ctx context.Context, data []byte) error

	// Type returns the connection type this transport implements
	Type() model.ConnectionType

	// Ping tests reachability over the open connection
	Ping(ctx context.Context) error

	// Stats returns a snapshot of the transport counters
	Stats() TransportStats
}

// TransportStats tracks per-transport delivery counters
type TransportStats struct {
	BytesSent      int64         `json:"bytes_sent"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	IsConnected    bool          `json:"is_connected"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
}

// statsCounter accumulates TransportStats. Not safe for concurrent use on
// its own; callers guard it with the transport's mutex.
type statsCounter struct {
	TransportStats
}

func (s *statsCounter) recordSend(n int, latency time.Duration) {
	s.BytesSent += int64(n)
	s.OperationCount++
	s.LastActivity = time.Now()
	if s.AverageLatency == 0 {
		s.AverageLatency = latency
	} else {
		s.AverageLatency = (s.AverageLatency + latency) / 2
	}
}

func (s *statsCounter) recordError() {
	s.ErrorCount++
}

func (s *statsCounter) setConnected(connected bool) {
	s.IsConnected = connected
	if connected {
		s.LastActivity = time.Now()
	}
}

func (s *statsCounter) snapshot() TransportStats {
	return s.TransportStats
}
