// internal/service/service_test.go
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"label-service/internal/config"
	"label-service/internal/model"
	"label-service/internal/transport"
)

var errTransportDown = errors.New("transport down")

// fakeTransport records sends instead of touching a printer
type fakeTransport struct {
	connType model.ConnectionType
	failOpen bool
	failSend bool

	mu   sync.Mutex
	open bool
	sent [][]byte
}

func (f *fakeTransport) Open(ctx context.Context) error {
	if f.failOpen {
		return errTransportDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	return nil
}

func (f *fakeTransport) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeTransport) Send(ctx context.Context, data []byte) error {
	if f.failSend {
		return errTransportDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	f.sent = append(f.sent, buf)
	return nil
}

func (f *fakeTransport) Type() model.ConnectionType { return f.connType }

func (f *fakeTransport) Ping(ctx context.Context) error {
	if f.failOpen {
		return errTransportDown
	}
	return nil
}

func (f *fakeTransport) Stats() transport.TransportStats { return transport.TransportStats{} }

func (f *fakeTransport) sentPayloads() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

// fakeFactory returns the same transport for every printer
func fakeFactory(ft *fakeTransport) TransportFactory {
	return func(connType model.ConnectionType, conn model.ConnectionConfig, opts transport.Options, logger *zap.Logger) (transport.Transport, error) {
		ft.connType = connType
		return ft, nil
	}
}

// recordingBus collects published events for assertions
type recordingBus struct {
	mu     sync.Mutex
	events []model.Event
}

func (b *recordingBus) Publish(event model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) byType(eventType model.EventType) []model.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var matched []model.Event
	for _, e := range b.events {
		if e.EventType == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

// testConfig returns a runnable configuration without reading any file
func testConfig() *config.Config {
	return &config.Config{
		FTP: config.FTPConfig{
			Username:       "zebra",
			Port:           21,
			ConnectTimeout: time.Second,
			KeepAlive:      time.Minute,
		},
		Label: config.LabelConfig{
			Unit:       "dots",
			DefaultDPI: 203,
		},
		Imaging: config.ImagingConfig{
			MaxWidth:  832,
			MaxHeight: 1218,
			MaxBytes:  4 << 20,
		},
		Transport: config.TransportConfig{
			TCPPort:        9100,
			ConnectTimeout: time.Second,
			WriteTimeout:   time.Second,
			SerialBaudRate: 9600,
		},
		Discovery: config.DiscoveryConfig{
			Enabled:     true,
			Ports:       []int{9100, 21},
			DialTimeout: 100 * time.Millisecond,
			Concurrency: 8,
		},
		Jobs: config.JobsConfig{
			Retention:       time.Hour,
			CleanupInterval: time.Minute,
			ProbeInterval:   time.Minute,
		},
	}
}
