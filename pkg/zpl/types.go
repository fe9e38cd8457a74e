// pkg/zpl/types.go
package zpl

import (
	"fmt"
	"regexp"
	"strings"
)

// Type validates and formats a single parameter value. Implementations are
// immutable and safe to share across templates.
type Type interface {
	// Validate returns nil when the value is acceptable for this type.
	Validate(v Value) error
	// Format produces the serialized form of an already-validated value.
	Format(v Value) string
}

// IntRange accepts integers in the closed interval [Min, Max].
type IntRange struct {
	Min int
	Max int
}

// NewIntRange builds an integer range type. Construction fails when the
// bounds are inverted; that is a definition error, not a value error.
func NewIntRange(min, max int) (*IntRange, error) {
	if min > max {
		return nil, fmt.Errorf("integer range: min %d greater than max %d", min, max)
	}
	return &IntRange{Min: min, Max: max}, nil
}

func (t *IntRange) Validate(v Value) error {
	if v.kind != kindInt {
		return fmt.Errorf("must be an integer, got %s", v.kindName())
	}
	if v.num < t.Min || v.num > t.Max {
		return fmt.Errorf("must be between %d and %d, got %d", t.Min, t.Max, v.num)
	}
	return nil
}

func (t *IntRange) Format(v Value) string { return v.text() }

// Alnum accepts strings of ASCII letters and digits. Zero bounds mean
// "one or more characters".
type Alnum struct {
	MinLen int
	MaxLen int

	re *regexp.Regexp
}

// NewAlnum builds an alphanumeric string type. Pass 0 for an unset bound.
// Construction fails when both bounds are set and inverted.
func NewAlnum(minLen, maxLen int) (*Alnum, error) {
	if minLen > 0 && maxLen > 0 && minLen > maxLen {
		return nil, fmt.Errorf("alphanumeric: min length %d greater than max length %d", minLen, maxLen)
	}
	bounds := "+"
	switch {
	case minLen > 0 && maxLen > 0:
		bounds = fmt.Sprintf("{%d,%d}", minLen, maxLen)
	case minLen > 0:
		bounds = fmt.Sprintf("{%d,}", minLen)
	case maxLen > 0:
		bounds = fmt.Sprintf("{1,%d}", maxLen)
	}
	return &Alnum{
		MinLen: minLen,
		MaxLen: maxLen,
		re:     regexp.MustCompile("^[A-Za-z0-9]" + bounds + "$"),
	}, nil
}

func (t *Alnum) Validate(v Value) error {
	if v.kind != kindString {
		return fmt.Errorf("must be a string, got %s", v.kindName())
	}
	if !t.re.MatchString(v.str) {
		return fmt.Errorf("must match %s, got %q", t.re.String(), v.str)
	}
	return nil
}

func (t *Alnum) Format(v Value) string { return v.text() }

// Text accepts free-form strings, rejecting only the characters that would
// break ZPL field parsing (caret, tilde, CR, LF). MaxLen 0 means unbounded.
type Text struct {
	MaxLen int
}

// NewText builds a free-text type with an optional maximum length.
func NewText(maxLen int) *Text {
	return &Text{MaxLen: maxLen}
}

func (t *Text) Validate(v Value) error {
	if v.kind != kindString {
		return fmt.Errorf("must be a string, got %s", v.kindName())
	}
	if i := strings.IndexAny(v.str, "^~\r\n"); i >= 0 {
		return fmt.Errorf("must not contain control character %q", v.str[i])
	}
	if t.MaxLen > 0 && len(v.str) > t.MaxLen {
		return fmt.Errorf("must be at most %d characters, got %d", t.MaxLen, len(v.str))
	}
	return nil
}

func (t *Text) Format(v Value) string { return v.text() }

// Enum accepts one of a fixed set of literal strings.
type Enum struct {
	Members []string
}

// NewEnum builds an enumerated string type.
func NewEnum(members ...string) *Enum {
	return &Enum{Members: members}
}

func (t *Enum) Validate(v Value) error {
	if v.kind != kindString {
		return fmt.Errorf("must be a string, got %s", v.kindName())
	}
	for _, m := range t.Members {
		if v.str == m {
			return nil
		}
	}
	return fmt.Errorf("must be one of %s, got %q", strings.Join(t.Members, ", "), v.str)
}

func (t *Enum) Format(v Value) string { return v.text() }

// YesNo accepts booleans and renders them as one of two literal tokens.
type YesNo struct {
	True  string
	False string
}

// NewYesNo builds a boolean type rendered as the given tokens.
func NewYesNo(trueTok, falseTok string) *YesNo {
	return &YesNo{True: trueTok, False: falseTok}
}

func (t *YesNo) Validate(v Value) error {
	if v.kind != kindBool {
		return fmt.Errorf("must be a boolean, got %s", v.kindName())
	}
	return nil
}

func (t *YesNo) Format(v Value) string {
	if v.flag {
		return t.True
	}
	return t.False
}

// Binary accepts raw byte payloads.
type Binary struct{}

// NewBinary builds a byte-sequence type.
func NewBinary() *Binary {
	return &Binary{}
}

func (t *Binary) Validate(v Value) error {
	if v.kind != kindBytes {
		return fmt.Errorf("must be a byte sequence, got %s", v.kindName())
	}
	return nil
}

func (t *Binary) Format(v Value) string { return v.text() }

// AnyOf accepts a value matching any member type. Validation fails only when
// every member rejects the value; the combined message joins the individual
// failures with " or ".
type AnyOf struct {
	Members []Type
}

// NewAnyOf builds a union type over the given member types.
func NewAnyOf(members ...Type) *AnyOf {
	return &AnyOf{Members: members}
}

func (t *AnyOf) Validate(v Value) error {
	msgs := make([]string, 0, len(t.Members))
	for _, m := range t.Members {
		err := m.Validate(v)
		if err == nil {
			return nil
		}
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("%s", strings.Join(msgs, " or "))
}

func (t *AnyOf) Format(v Value) string {
	for _, m := range t.Members {
		if m.Validate(v) == nil {
			return m.Format(v)
		}
	}
	return v.text()
}
