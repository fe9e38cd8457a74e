// pkg/asset/download.go
package asset

import (
	"errors"
	"fmt"

	"label-service/pkg/zpl"
)

// Framing selects how payload bytes are written into a ~DY download command.
type Framing int

const (
	// FramingHex writes the payload as uppercase ASCII hex (format code A).
	FramingHex Framing = iota
	// FramingBinary splices the payload verbatim (format code B, or P for
	// PNG streams).
	FramingBinary
	// FramingBase64 is Zebra's ZB64 encoding. Never emitted: see
	// ErrBase64Framing.
	FramingBase64
)

// ErrBase64Framing rejects ZB64 downloads. ZB64 frames carry a CRC-16 in a
// proprietary variant that cannot be computed from public documentation, so
// an emitted frame could never be verified. Hex framing is the safe path.
var ErrBase64Framing = errors.New("asset: base64 (ZB64) download framing is unsupported")

// Extension codes from the ~DY grammar.
const (
	ExtBitmap  = "B"
	ExtFontTTE = "E"
	ExtGraphic = "G"
	ExtPNG     = "P"
	ExtFontTTF = "T"
	ExtPCX     = "X"
)

// BuildDownload constructs the ~DY command that stores payload as the named
// object on the printer. rowBytes is the per-row byte count for GRF
// graphics; pass 0 to omit it (PNG and font downloads).
func BuildDownload(drive, name, ext string, payload []byte, framing Framing, rowBytes int) ([]byte, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("asset: empty payload for object %s", name)
	}

	values := zpl.Values{
		"d": zpl.String(drive),
		"f": zpl.String(name),
		"x": zpl.String(ext),
		"t": zpl.Int(len(payload)),
	}
	if rowBytes > 0 {
		values["w"] = zpl.Int(rowBytes)
	}

	switch framing {
	case FramingHex:
		values["b"] = zpl.String("A")
		values["data"] = zpl.String(EncodeHex(payload))
	case FramingBinary:
		code := "B"
		if ext == ExtPNG {
			code = "P"
		}
		values["b"] = zpl.String(code)
		values["data"] = zpl.Bytes(payload)
	case FramingBase64:
		return nil, ErrBase64Framing
	default:
		return nil, fmt.Errorf("asset: unknown framing %d", framing)
	}

	cmd, err := zpl.ZPL_COMMANDS.DOWNLOAD_OBJECT.RenderBytes(values)
	if err != nil {
		return nil, fmt.Errorf("asset: build download for %s: %w", name, err)
	}
	return cmd, nil
}

// PNGDownload verifies data as a PNG stream (signature and every chunk CRC)
// and builds its download command.
func PNGDownload(drive, name string, data []byte, framing Framing) ([]byte, error) {
	if _, err := VerifyPNG(data); err != nil {
		return nil, err
	}
	return BuildDownload(drive, name, ExtPNG, data, framing, 0)
}

// FontDownload stores an opaque TrueType payload. Font files are not
// inspected, only framed.
func FontDownload(drive, name string, data []byte, framing Framing) ([]byte, error) {
	return BuildDownload(drive, name, ExtFontTTF, data, framing, 0)
}
