// internal/transport/factory_test.go
package transport

import (
	"context"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"label-service/internal/model"
)

func TestCreateTransportTypes(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name     string
		connType model.ConnectionType
		conn     model.ConnectionConfig
		want     model.ConnectionType
	}{
		{"ftp", model.ConnectionTypeFTP, model.ConnectionConfig{Host: "192.168.1.42"}, model.ConnectionTypeFTP},
		{"tcp", model.ConnectionTypeTCP, model.ConnectionConfig{Host: "192.168.1.42"}, model.ConnectionTypeTCP},
		{"serial", model.ConnectionTypeSerial, model.ConnectionConfig{Device: "/dev/ttyUSB0"}, model.ConnectionTypeSerial},
		{"usb", model.ConnectionTypeUSB, model.ConnectionConfig{VendorID: "0x0A5F", ProductID: "0x0164"}, model.ConnectionTypeUSB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := CreateTransport(tt.connType, tt.conn, Options{}, logger)
			if err != nil {
				t.Fatalf("CreateTransport: %v", err)
			}
			if tr.Type() != tt.want {
				t.Errorf("Type() = %s, want %s", tr.Type(), tt.want)
			}
			if tr.IsOpen() {
				t.Error("transport open before Open()")
			}
		})
	}
}

func TestCreateTransportRejectsUnknownType(t *testing.T) {
	_, err := CreateTransport(model.ConnectionType("BLUETOOTH"), model.ConnectionConfig{}, Options{}, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for unknown connection type")
	}
}

func TestValidateConnectionConfig(t *testing.T) {
	tests := []struct {
		name     string
		connType model.ConnectionType
		conn     model.ConnectionConfig
		wantErr  bool
	}{
		{"ftp ok", model.ConnectionTypeFTP, model.ConnectionConfig{Host: "10.0.0.5"}, false},
		{"ftp missing host", model.ConnectionTypeFTP, model.ConnectionConfig{Port: 21}, true},
		{"tcp bad port", model.ConnectionTypeTCP, model.ConnectionConfig{Host: "10.0.0.5", Port: 70000}, true},
		{"serial ok", model.ConnectionTypeSerial, model.ConnectionConfig{Device: "/dev/ttyS0", BaudRate: 115200}, false},
		{"serial missing device", model.ConnectionTypeSerial, model.ConnectionConfig{BaudRate: 9600}, true},
		{"serial bad baud", model.ConnectionTypeSerial, model.ConnectionConfig{Device: "/dev/ttyS0", BaudRate: 1234}, true},
		{"usb ok", model.ConnectionTypeUSB, model.ConnectionConfig{VendorID: "0A5F", ProductID: "0164"}, false},
		{"usb missing product", model.ConnectionTypeUSB, model.ConnectionConfig{VendorID: "0A5F"}, true},
		{"usb bad hex", model.ConnectionTypeUSB, model.ConnectionConfig{VendorID: "zebra", ProductID: "0164"}, true},
		{"unknown", model.ConnectionType("PARALLEL"), model.ConnectionConfig{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConnectionConfig(tt.connType, tt.conn)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConnectionConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTCPTransportSend(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	_, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)

	tr, err := CreateTransport(model.ConnectionTypeTCP, model.ConnectionConfig{
		Host: "127.0.0.1",
		Port: port,
	}, Options{ConnectTimeout: 2 * time.Second}, zap.NewNop())
	if err != nil {
		t.Fatalf("CreateTransport: %v", err)
	}

	ctx := context.Background()
	if err := tr.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !tr.IsOpen() {
		t.Fatal("IsOpen() = false after Open")
	}

	payload := []byte("^XA^FO10,10^FDhello^FS^XZ")
	if err := tr.Send(ctx, payload); err != nil {
		t.Fatalf("Send: %v", err)
	}

	stats := tr.Stats()
	if stats.BytesSent != int64(len(payload)) {
		t.Errorf("BytesSent = %d, want %d", stats.BytesSent, len(payload))
	}
	if stats.OperationCount != 1 {
		t.Errorf("OperationCount = %d, want 1", stats.OperationCount)
	}

	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if tr.IsOpen() {
		t.Error("IsOpen() = true after Close")
	}

	select {
	case got := <-received:
		if string(got) != string(payload) {
			t.Errorf("received %q, want %q", got, payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for payload")
	}
}

func TestTCPTransportSendNotOpen(t *testing.T) {
	tr := NewTCPTransport(&TCPConfig{Host: "127.0.0.1", Port: 9100}, zap.NewNop())
	if err := tr.Send(context.Background(), []byte("^XA^XZ")); err == nil {
		t.Fatal("expected error sending on closed transport")
	}
}
