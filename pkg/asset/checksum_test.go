// pkg/asset/checksum_test.go
package asset

import "testing"

func TestCRC32KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint32
	}{
		{name: "check vector", data: []byte("123456789"), expected: 0xCBF43926},
		{name: "empty", data: nil, expected: 0x00000000},
		{name: "single zero byte", data: []byte{0x00}, expected: 0xD202EF8D},
		{name: "IEND chunk tag", data: []byte("IEND"), expected: 0xAE426082},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CRC32(tt.data); got != tt.expected {
				t.Errorf("CRC32 mismatch: expected 0x%08X, got 0x%08X", tt.expected, got)
			}
		})
	}
}

func TestCRC32Deterministic(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G', 0x42}
	if CRC32(data) != CRC32(data) {
		t.Error("CRC32 should be deterministic")
	}
}

func TestAdler32KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint32
	}{
		{name: "empty is one", data: nil, expected: 1},
		{name: "Wikipedia", data: []byte("Wikipedia"), expected: 0x11E60398},
		{name: "single byte", data: []byte{0x01}, expected: 0x00020002},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Adler32(tt.data); got != tt.expected {
				t.Errorf("Adler32 mismatch: expected 0x%08X, got 0x%08X", tt.expected, got)
			}
		})
	}
}
