// pkg/asset/png_test.go
package asset

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"
)

func chunkBytes(typ string, data []byte) []byte {
	buf := make([]byte, 0, 12+len(data))
	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], uint32(len(data)))
	buf = append(buf, u32[:]...)
	buf = append(buf, typ...)
	buf = append(buf, data...)
	binary.BigEndian.PutUint32(u32[:], CRC32(append([]byte(typ), data...)))
	return append(buf, u32[:]...)
}

func pngBytes(chunks ...[]byte) []byte {
	out := append([]byte{}, pngSignature...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func ihdrData(width, height uint32) []byte {
	data := make([]byte, 13)
	binary.BigEndian.PutUint32(data[0:], width)
	binary.BigEndian.PutUint32(data[4:], height)
	data[8] = 8 // bit depth
	data[9] = 2 // truecolor
	return data
}

func TestParsePNG(t *testing.T) {
	raw := pngBytes(
		chunkBytes("IHDR", ihdrData(64, 48)),
		chunkBytes("IDAT", []byte{0x01, 0x02, 0x03}),
		chunkBytes("IEND", nil),
	)

	chunks, err := ParsePNG(raw)
	if err != nil {
		t.Fatalf("ParsePNG failed: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if !c.CRCMatched {
			t.Errorf("chunk %s: CRC should match", c.Type)
		}
	}
	if chunks[0].Type != "IHDR" || chunks[1].Type != "IDAT" || chunks[2].Type != "IEND" {
		t.Errorf("unexpected chunk order: %s %s %s", chunks[0].Type, chunks[1].Type, chunks[2].Type)
	}
	if chunks[1].Length != 3 || !bytes.Equal(chunks[1].Data, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("IDAT data not preserved: len=%d data=% X", chunks[1].Length, chunks[1].Data)
	}
}

func TestParsePNGCorruptedCRC(t *testing.T) {
	idat := chunkBytes("IDAT", []byte{0x01, 0x02, 0x03})
	idat[len(idat)-1] ^= 0xFF // flip a CRC byte
	raw := pngBytes(
		chunkBytes("IHDR", ihdrData(8, 8)),
		idat,
		chunkBytes("IEND", nil),
	)

	chunks, err := ParsePNG(raw)
	if err != nil {
		t.Fatalf("ParsePNG failed: %v", err)
	}
	c := chunks[1]
	if c.CRCMatched {
		t.Error("corrupted chunk should report CRCMatched=false")
	}
	// The chunk itself must still come back intact.
	if c.Type != "IDAT" || c.Length != 3 || !bytes.Equal(c.Data, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("corrupted chunk should keep type/length/data: %s %d % X", c.Type, c.Length, c.Data)
	}
	if c.CRC == c.CalcCRC {
		t.Error("stored and computed CRC should differ")
	}

	if _, err := VerifyPNG(raw); err == nil {
		t.Error("VerifyPNG should fail on a CRC mismatch")
	}
}

func TestParsePNGBadSignature(t *testing.T) {
	raw := pngBytes(chunkBytes("IEND", nil))
	raw[0] = 'X'
	if _, err := ParsePNG(raw); err == nil {
		t.Error("bad signature should fail")
	}
	if _, err := ParsePNG([]byte{0x89, 'P'}); err == nil {
		t.Error("short input should fail")
	}
}

func TestParsePNGTruncatedChunk(t *testing.T) {
	raw := pngBytes(chunkBytes("IHDR", ihdrData(8, 8)))
	if _, err := ParsePNG(raw[:len(raw)-2]); err == nil {
		t.Error("truncated chunk should fail")
	}
}

func TestChunkCaseBits(t *testing.T) {
	raw := pngBytes(
		chunkBytes("IHDR", ihdrData(8, 8)),
		chunkBytes("pHYs", []byte{0, 0, 0x0B, 0x13, 0, 0, 0x0B, 0x13, 1}),
		chunkBytes("IEND", nil),
	)
	chunks, err := ParsePNG(raw)
	if err != nil {
		t.Fatalf("ParsePNG failed: %v", err)
	}

	ihdr := chunks[0]
	if ihdr.Ancillary || ihdr.Private || ihdr.SafeToCopy {
		t.Errorf("IHDR flags: ancillary=%v private=%v safe=%v, all should be false",
			ihdr.Ancillary, ihdr.Private, ihdr.SafeToCopy)
	}
	phys := chunks[1]
	if !phys.Ancillary || phys.Private || !phys.SafeToCopy {
		t.Errorf("pHYs flags: ancillary=%v private=%v safe=%v, expected true/false/true",
			phys.Ancillary, phys.Private, phys.SafeToCopy)
	}
}

func TestDecodeHeader(t *testing.T) {
	chunks, err := ParsePNG(pngBytes(chunkBytes("IHDR", ihdrData(640, 480))))
	if err != nil {
		t.Fatalf("ParsePNG failed: %v", err)
	}
	h, err := DecodeHeader(chunks[0])
	if err != nil {
		t.Fatalf("DecodeHeader failed: %v", err)
	}
	if h.Width != 640 || h.Height != 480 {
		t.Errorf("expected 640x480, got %dx%d", h.Width, h.Height)
	}
	if h.BitDepth != 8 || h.ColorType != 2 {
		t.Errorf("expected depth 8 color 2, got depth %d color %d", h.BitDepth, h.ColorType)
	}
}

func TestDecodeHeaderRefusesCorruptChunk(t *testing.T) {
	raw := pngBytes(chunkBytes("IHDR", ihdrData(8, 8)))
	raw[len(raw)-1] ^= 0x01
	chunks, err := ParsePNG(raw)
	if err != nil {
		t.Fatalf("ParsePNG failed: %v", err)
	}
	if _, err := DecodeHeader(chunks[0]); err == nil {
		t.Error("decoder must refuse a chunk whose CRC did not match")
	}
}

func TestDecodePalette(t *testing.T) {
	chunks, err := ParsePNG(pngBytes(chunkBytes("PLTE", []byte{1, 2, 3, 4, 5, 6})))
	if err != nil {
		t.Fatalf("ParsePNG failed: %v", err)
	}
	entries, err := DecodePalette(chunks[0])
	if err != nil {
		t.Fatalf("DecodePalette failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1] != (PaletteEntry{R: 4, G: 5, B: 6}) {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}

	bad, _ := ParsePNG(pngBytes(chunkBytes("PLTE", []byte{1, 2})))
	if _, err := DecodePalette(bad[0]); err == nil {
		t.Error("palette length not divisible by 3 should fail")
	}
}

func TestDecodePhysicalDims(t *testing.T) {
	data := make([]byte, 9)
	binary.BigEndian.PutUint32(data[0:], 2835) // 72 dpi in pixels per metre
	binary.BigEndian.PutUint32(data[4:], 2835)
	data[8] = 1
	chunks, err := ParsePNG(pngBytes(chunkBytes("pHYs", data)))
	if err != nil {
		t.Fatalf("ParsePNG failed: %v", err)
	}
	dims, err := DecodePhysicalDims(chunks[0])
	if err != nil {
		t.Fatalf("DecodePhysicalDims failed: %v", err)
	}
	if dims.PixelsPerUnitX != 2835 || dims.Unit != 1 {
		t.Errorf("unexpected decode: %+v", dims)
	}
}

func TestDecodeGammaAndIntent(t *testing.T) {
	gama := make([]byte, 4)
	binary.BigEndian.PutUint32(gama, 45455) // gamma 1/2.2
	chunks, err := ParsePNG(pngBytes(chunkBytes("gAMA", gama), chunkBytes("sRGB", []byte{3})))
	if err != nil {
		t.Fatalf("ParsePNG failed: %v", err)
	}
	g, err := DecodeGamma(chunks[0])
	if err != nil {
		t.Fatalf("DecodeGamma failed: %v", err)
	}
	if g != 45455 {
		t.Errorf("expected 45455, got %d", g)
	}
	intent, err := DecodeRenderingIntent(chunks[1])
	if err != nil {
		t.Fatalf("DecodeRenderingIntent failed: %v", err)
	}
	if intent != 3 {
		t.Errorf("expected intent 3, got %d", intent)
	}
}

func TestDecodeICCProfile(t *testing.T) {
	profile := []byte("not a real profile, but plenty of bytes to inflate")
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(profile); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("compress: %v", err)
	}

	data := append([]byte("sRGB IEC61966-2.1\x00\x00"), compressed.Bytes()...)
	chunks, err := ParsePNG(pngBytes(chunkBytes("iCCP", data)))
	if err != nil {
		t.Fatalf("ParsePNG failed: %v", err)
	}
	icc, err := DecodeICCProfile(chunks[0])
	if err != nil {
		t.Fatalf("DecodeICCProfile failed: %v", err)
	}
	if icc.Name != "sRGB IEC61966-2.1" {
		t.Errorf("unexpected profile name %q", icc.Name)
	}
	if !bytes.Equal(icc.Profile, profile) {
		t.Errorf("profile did not round-trip: %q", icc.Profile)
	}
}

func TestDecodeICCProfileUnknownMethod(t *testing.T) {
	data := append([]byte("name\x00\x01"), 0xDE, 0xAD)
	chunks, err := ParsePNG(pngBytes(chunkBytes("iCCP", data)))
	if err != nil {
		t.Fatalf("ParsePNG failed: %v", err)
	}
	if _, err := DecodeICCProfile(chunks[0]); err == nil {
		t.Error("compression method other than 0 should fail")
	}
}
