// pkg/asset/encode.go
package asset

const hexDigits = "0123456789ABCDEF"

// EncodeHex writes each byte as two uppercase hex digits, the form ZPL
// download commands expect for ASCII-framed payloads.
func EncodeHex(data []byte) string {
	out := make([]byte, 0, len(data)*2)
	for _, b := range data {
		out = append(out, hexDigits[b>>4], hexDigits[b&0x0F])
	}
	return string(out)
}

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// EncodeBase64 encodes data in standard base64 with '=' padding for the
// final partial group. Kept for completeness; download framing never uses it
// (see ErrBase64Framing).
func EncodeBase64(data []byte) string {
	out := make([]byte, 0, (len(data)+2)/3*4)
	i := 0
	for ; i+3 <= len(data); i += 3 {
		n := uint32(data[i])<<16 | uint32(data[i+1])<<8 | uint32(data[i+2])
		out = append(out,
			base64Digits[n>>18&0x3F],
			base64Digits[n>>12&0x3F],
			base64Digits[n>>6&0x3F],
			base64Digits[n&0x3F],
		)
	}
	switch len(data) - i {
	case 1:
		n := uint32(data[i]) << 16
		out = append(out, base64Digits[n>>18&0x3F], base64Digits[n>>12&0x3F], '=', '=')
	case 2:
		n := uint32(data[i])<<16 | uint32(data[i+1])<<8
		out = append(out, base64Digits[n>>18&0x3F], base64Digits[n>>12&0x3F], base64Digits[n>>6&0x3F], '=')
	}
	return string(out)
}
