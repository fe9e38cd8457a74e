// pkg/asset/png.go
package asset

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

// pngSignature is the fixed 8-byte magic at the start of every PNG stream.
var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// Chunk is one parsed PNG chunk. A CRC mismatch is surfaced through
// CRCMatched rather than dropping the chunk: callers must check it before
// trusting Data.
type Chunk struct {
	Type    string
	Length  uint32
	Data    []byte
	CRC     uint32 // checksum read from the stream
	CalcCRC uint32 // checksum computed over type + data
	// CRCMatched is false when the stream is corrupted. Structured decoders
	// refuse such chunks.
	CRCMatched bool

	// Flags derived from bit 5 of the tag bytes, per the PNG spec.
	Ancillary  bool // not required to render the image
	Private    bool // application-specific type
	SafeToCopy bool // may be copied by editors that do not understand it
}

// ParsePNG verifies the signature and streams the chunk sequence: 4-byte
// big-endian length, 4-byte ASCII tag, data, 4-byte CRC, repeated until the
// buffer ends.
func ParsePNG(data []byte) ([]Chunk, error) {
	if len(data) < len(pngSignature) || !bytes.Equal(data[:len(pngSignature)], pngSignature) {
		return nil, fmt.Errorf("png: missing file signature")
	}

	var chunks []Chunk
	off := len(pngSignature)
	for off < len(data) {
		if len(data)-off < 8 {
			return nil, fmt.Errorf("png: truncated chunk header at offset %d", off)
		}
		length := binary.BigEndian.Uint32(data[off:])
		tag := data[off+4 : off+8]
		bodyStart := off + 8

		if uint64(length)+4 > uint64(len(data)-bodyStart) {
			return nil, fmt.Errorf("png: chunk %q truncated at offset %d", tag, off)
		}
		bodyEnd := bodyStart + int(length)
		body := data[bodyStart:bodyEnd]
		crc := binary.BigEndian.Uint32(data[bodyEnd:])
		calc := CRC32(data[off+4 : bodyEnd]) // tag + data
		off = bodyEnd + 4

		chunks = append(chunks, Chunk{
			Type:       string(tag),
			Length:     length,
			Data:       body,
			CRC:        crc,
			CalcCRC:    calc,
			CRCMatched: crc == calc,
			Ancillary:  tag[0]&0x20 != 0,
			Private:    tag[1]&0x20 != 0,
			SafeToCopy: tag[3]&0x20 != 0,
		})
	}
	return chunks, nil
}

// VerifyPNG parses data and errors on the first chunk whose CRC does not
// match, identifying the chunk.
func VerifyPNG(data []byte) ([]Chunk, error) {
	chunks, err := ParsePNG(data)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		if !c.CRCMatched {
			return chunks, fmt.Errorf("png: chunk %s crc mismatch: stored %08X, computed %08X", c.Type, c.CRC, c.CalcCRC)
		}
	}
	return chunks, nil
}

func (c Chunk) decodable(wantType string, wantLen int) error {
	if c.Type != wantType {
		return fmt.Errorf("png: chunk is %s, not %s", c.Type, wantType)
	}
	if !c.CRCMatched {
		return fmt.Errorf("png: refusing to decode %s chunk with crc mismatch", c.Type)
	}
	if wantLen >= 0 && len(c.Data) != wantLen {
		return fmt.Errorf("png: %s chunk has %d data bytes, expected %d", c.Type, len(c.Data), wantLen)
	}
	return nil
}

// Header holds the fields of the IHDR chunk.
type Header struct {
	Width       uint32
	Height      uint32
	BitDepth    byte
	ColorType   byte
	Compression byte
	Filter      byte
	Interlace   byte
}

// DecodeHeader decodes an IHDR chunk.
func DecodeHeader(c Chunk) (*Header, error) {
	if err := c.decodable("IHDR", 13); err != nil {
		return nil, err
	}
	return &Header{
		Width:       binary.BigEndian.Uint32(c.Data[0:]),
		Height:      binary.BigEndian.Uint32(c.Data[4:]),
		BitDepth:    c.Data[8],
		ColorType:   c.Data[9],
		Compression: c.Data[10],
		Filter:      c.Data[11],
		Interlace:   c.Data[12],
	}, nil
}

// PaletteEntry is one RGB triple from a PLTE chunk.
type PaletteEntry struct {
	R, G, B byte
}

// DecodePalette decodes a PLTE chunk.
func DecodePalette(c Chunk) ([]PaletteEntry, error) {
	if err := c.decodable("PLTE", -1); err != nil {
		return nil, err
	}
	if len(c.Data)%3 != 0 {
		return nil, fmt.Errorf("png: PLTE length %d is not a multiple of 3", len(c.Data))
	}
	entries := make([]PaletteEntry, len(c.Data)/3)
	for i := range entries {
		entries[i] = PaletteEntry{R: c.Data[i*3], G: c.Data[i*3+1], B: c.Data[i*3+2]}
	}
	return entries, nil
}

// PhysicalDims holds the fields of a pHYs chunk.
type PhysicalDims struct {
	PixelsPerUnitX uint32
	PixelsPerUnitY uint32
	Unit           byte // 0 = unknown ratio, 1 = metre
}

// DecodePhysicalDims decodes a pHYs chunk.
func DecodePhysicalDims(c Chunk) (*PhysicalDims, error) {
	if err := c.decodable("pHYs", 9); err != nil {
		return nil, err
	}
	return &PhysicalDims{
		PixelsPerUnitX: binary.BigEndian.Uint32(c.Data[0:]),
		PixelsPerUnitY: binary.BigEndian.Uint32(c.Data[4:]),
		Unit:           c.Data[8],
	}, nil
}

// DecodeRenderingIntent decodes an sRGB chunk into its single intent byte
// (0 perceptual, 1 relative, 2 saturation, 3 absolute).
func DecodeRenderingIntent(c Chunk) (byte, error) {
	if err := c.decodable("sRGB", 1); err != nil {
		return 0, err
	}
	return c.Data[0], nil
}

// DecodeGamma decodes a gAMA chunk. The stored integer is gamma times
// 100000.
func DecodeGamma(c Chunk) (uint32, error) {
	if err := c.decodable("gAMA", 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(c.Data), nil
}

// ICCProfile holds a decoded iCCP chunk, with the profile payload already
// zlib-inflated.
type ICCProfile struct {
	Name    string
	Profile []byte
}

// DecodeICCProfile decodes an iCCP chunk: a null-terminated profile name, a
// compression-method byte (0 = zlib is the only defined value), then the
// compressed profile.
func DecodeICCProfile(c Chunk) (*ICCProfile, error) {
	if err := c.decodable("iCCP", -1); err != nil {
		return nil, err
	}
	sep := bytes.IndexByte(c.Data, 0)
	if sep < 0 || sep+2 > len(c.Data) {
		return nil, fmt.Errorf("png: iCCP chunk missing name terminator")
	}
	if method := c.Data[sep+1]; method != 0 {
		return nil, fmt.Errorf("png: iCCP compression method %d is not supported", method)
	}
	zr, err := zlib.NewReader(bytes.NewReader(c.Data[sep+2:]))
	if err != nil {
		return nil, fmt.Errorf("png: iCCP profile: %w", err)
	}
	defer zr.Close()
	profile, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("png: iCCP profile: %w", err)
	}
	return &ICCProfile{Name: string(c.Data[:sep]), Profile: profile}, nil
}
