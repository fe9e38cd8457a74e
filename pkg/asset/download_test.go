// pkg/asset/download_test.go
package asset

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"label-service/pkg/zpl"
)

func TestBuildDownloadHex(t *testing.T) {
	cmd, err := BuildDownload("R", "LOGO", ExtGraphic, []byte{0xFF, 0x00}, FramingHex, 1)
	if err != nil {
		t.Fatalf("BuildDownload failed: %v", err)
	}
	if got := string(cmd); got != "~DYR:LOGO,A,G,2,1,FF00" {
		t.Errorf("expected ~DYR:LOGO,A,G,2,1,FF00, got %q", got)
	}
}

func TestBuildDownloadBinarySplices(t *testing.T) {
	payload := []byte{0x00, 0x7E, 0xFF}
	cmd, err := BuildDownload("E", "FONT01", ExtFontTTF, payload, FramingBinary, 0)
	if err != nil {
		t.Fatalf("BuildDownload failed: %v", err)
	}
	prefix := "~DYE:FONT01,B,T,3,,"
	if !strings.HasPrefix(string(cmd), prefix) {
		t.Fatalf("expected prefix %q, got %q", prefix, string(cmd))
	}
	if !bytes.Equal(cmd[len(prefix):], payload) {
		t.Errorf("payload must be spliced verbatim, got % X", cmd[len(prefix):])
	}
}

func TestBuildDownloadRejectsBase64(t *testing.T) {
	_, err := BuildDownload("R", "LOGO", ExtPNG, []byte{1}, FramingBase64, 0)
	if !errors.Is(err, ErrBase64Framing) {
		t.Errorf("expected ErrBase64Framing, got %v", err)
	}
}

func TestBuildDownloadValidatesName(t *testing.T) {
	_, err := BuildDownload("R", "NAMETOOLONG", ExtGraphic, []byte{1}, FramingHex, 0)
	if err == nil {
		t.Fatal("names over 8 characters should fail")
	}
	var ve *zpl.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestBuildDownloadEmptyPayload(t *testing.T) {
	if _, err := BuildDownload("R", "LOGO", ExtGraphic, nil, FramingHex, 0); err == nil {
		t.Error("empty payload should fail")
	}
}

func TestPNGDownload(t *testing.T) {
	raw := pngBytes(
		chunkBytes("IHDR", ihdrData(16, 16)),
		chunkBytes("IDAT", []byte{9, 9, 9}),
		chunkBytes("IEND", nil),
	)

	cmd, err := PNGDownload("R", "LABELBG", raw, FramingBinary)
	if err != nil {
		t.Fatalf("PNGDownload failed: %v", err)
	}
	if !strings.HasPrefix(string(cmd), "~DYR:LABELBG,P,P,") {
		t.Errorf("unexpected command prefix: %q", cmd[:20])
	}
	if !bytes.HasSuffix(cmd, raw) {
		t.Error("PNG payload must be spliced verbatim at the end")
	}
}

func TestPNGDownloadRefusesCorruptStream(t *testing.T) {
	raw := pngBytes(chunkBytes("IHDR", ihdrData(16, 16)))
	raw[len(raw)-1] ^= 0x40
	if _, err := PNGDownload("R", "BAD", raw, FramingBinary); err == nil {
		t.Error("a PNG with a CRC mismatch must not be downloaded")
	}
}

func TestFontDownloadHex(t *testing.T) {
	cmd, err := FontDownload("E", "ARIAL", []byte{0x01, 0x02}, FramingHex)
	if err != nil {
		t.Fatalf("FontDownload failed: %v", err)
	}
	if got := string(cmd); got != "~DYE:ARIAL,A,T,2,,0102" {
		t.Errorf("expected ~DYE:ARIAL,A,T,2,,0102, got %q", got)
	}
}
