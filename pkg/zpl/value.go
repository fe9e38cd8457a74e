// pkg/zpl/value.go
package zpl

import "strconv"

type valueKind uint8

const (
	kindNone valueKind = iota
	kindString
	kindInt
	kindBool
	kindBytes
)

// Value is a tagged parameter value. The zero Value means "not set", which is
// how optional parameters are left out of a render.
type Value struct {
	kind valueKind
	str  string
	num  int
	flag bool
	raw  []byte
}

// String wraps a text parameter value.
func String(s string) Value {
	return Value{kind: kindString, str: s}
}

// Int wraps an integer parameter value.
func Int(n int) Value {
	return Value{kind: kindInt, num: n}
}

// Bool wraps a boolean parameter value. The owning field's type decides which
// token ("Y"/"N" etc.) it renders as.
func Bool(b bool) Value {
	return Value{kind: kindBool, flag: b}
}

// Bytes wraps a raw byte payload. Byte values are spliced verbatim into byte
// renders and must never be re-encoded as text.
func Bytes(p []byte) Value {
	return Value{kind: kindBytes, raw: p}
}

// IsSet reports whether the value carries anything.
func (v Value) IsSet() bool {
	return v.kind != kindNone
}

func (v Value) kindName() string {
	switch v.kind {
	case kindString:
		return "string"
	case kindInt:
		return "integer"
	case kindBool:
		return "boolean"
	case kindBytes:
		return "bytes"
	default:
		return "unset"
	}
}

// text is the default string form used when the field type has no special
// formatting rule.
func (v Value) text() string {
	switch v.kind {
	case kindString:
		return v.str
	case kindInt:
		return strconv.Itoa(v.num)
	case kindBool:
		return strconv.FormatBool(v.flag)
	case kindBytes:
		return string(v.raw)
	default:
		return ""
	}
}

// Values maps parameter keys to the values supplied for one command
// invocation. Ownership stays with the caller; templates only read it while
// validating and rendering.
type Values map[string]Value
