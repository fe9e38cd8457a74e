// internal/discovery/discovery_test.go
package discovery

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"label-service/internal/model"
)

func TestExpandCIDR(t *testing.T) {
	tests := []struct {
		cidr      string
		wantCount int
		wantFirst string
		wantLast  string
		wantErr   bool
	}{
		{"192.168.1.0/24", 254, "192.168.1.1", "192.168.1.254", false},
		{"10.0.0.0/30", 2, "10.0.0.1", "10.0.0.2", false},
		{"10.0.0.4/31", 2, "10.0.0.4", "10.0.0.5", false},
		{"172.16.0.1/32", 1, "172.16.0.1", "172.16.0.1", false},
		{"not-a-cidr", 0, "", "", true},
		{"fe80::/64", 0, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.cidr, func(t *testing.T) {
			hosts, err := ExpandCIDR(tt.cidr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExpandCIDR(%q) error = %v, wantErr %v", tt.cidr, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(hosts) != tt.wantCount {
				t.Fatalf("ExpandCIDR(%q) returned %d hosts, want %d", tt.cidr, len(hosts), tt.wantCount)
			}
			if hosts[0] != tt.wantFirst {
				t.Errorf("first host = %s, want %s", hosts[0], tt.wantFirst)
			}
			if hosts[len(hosts)-1] != tt.wantLast {
				t.Errorf("last host = %s, want %s", hosts[len(hosts)-1], tt.wantLast)
			}
		})
	}
}

func TestTCPScannerFindsListener(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	_, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)

	scanner := NewTCPScanner(zap.NewNop(), &TCPScannerConfig{
		NetworkRanges: []string{"127.0.0.1/32"},
		Ports:         []int{port},
		DialTimeout:   time.Second,
		Concurrency:   4,
	})

	candidates, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("found %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.ConnectionType != model.ConnectionTypeTCP {
		t.Errorf("ConnectionType = %s, want TCP", c.ConnectionType)
	}
	if c.ConnectionConfig.Host != "127.0.0.1" || c.ConnectionConfig.Port != port {
		t.Errorf("addressing = %s:%d, want 127.0.0.1:%d", c.ConnectionConfig.Host, c.ConnectionConfig.Port, port)
	}
}

func TestTCPScannerUnavailableWithoutRanges(t *testing.T) {
	scanner := NewTCPScanner(zap.NewNop(), nil)
	if scanner.IsAvailable() {
		t.Error("scanner available with no network ranges")
	}
}

type fakeScanner struct {
	scannerType string
	available   bool
	candidates  []*Candidate
	err         error
}

func (f *fakeScanner) Scan(ctx context.Context) ([]*Candidate, error) {
	return f.candidates, f.err
}
func (f *fakeScanner) ScannerType() string { return f.scannerType }
func (f *fakeScanner) IsAvailable() bool   { return f.available }

func TestScanAllMergesAndDeduplicates(t *testing.T) {
	shared := &Candidate{
		ConnectionType:   model.ConnectionTypeTCP,
		ConnectionConfig: model.ConnectionConfig{Host: "10.0.0.9", Port: 9100},
		Source:           "tcp",
	}

	sm := NewScannerManager(zap.NewNop())
	sm.RegisterScanner(&fakeScanner{
		scannerType: "a",
		available:   true,
		candidates:  []*Candidate{shared},
	})
	sm.RegisterScanner(&fakeScanner{
		scannerType: "b",
		available:   true,
		candidates: []*Candidate{
			shared,
			{
				ConnectionType:   model.ConnectionTypeSerial,
				ConnectionConfig: model.ConnectionConfig{Device: "/dev/ttyUSB0"},
				Source:           "serial",
			},
		},
	})
	sm.RegisterScanner(&fakeScanner{
		scannerType: "broken",
		available:   true,
		err:         errors.New("bus fault"),
	})
	sm.RegisterScanner(&fakeScanner{scannerType: "off", available: false})

	candidates, err := sm.ScanAll(context.Background())
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
}

func TestScanByTypeUnknown(t *testing.T) {
	sm := NewScannerManager(zap.NewNop())
	if _, err := sm.ScanByType(context.Background(), "bluetooth"); err == nil {
		t.Fatal("expected error for unknown scanner type")
	}
}

func TestSerialScannerPatternFilter(t *testing.T) {
	s := NewSerialScanner(zap.NewNop(), nil)
	if !s.matchesPattern("/dev/ttyUSB0") {
		t.Error("expected /dev/ttyUSB0 to match")
	}
	if !s.matchesPattern("COM3") {
		t.Error("expected COM3 to match")
	}
	if s.matchesPattern("/dev/null") {
		t.Error("did not expect /dev/null to match")
	}
}
