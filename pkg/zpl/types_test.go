// pkg/zpl/types_test.go
package zpl

import (
	"strings"
	"testing"
)

func TestIntRangeValidate(t *testing.T) {
	r, err := NewIntRange(10, 20)
	if err != nil {
		t.Fatalf("NewIntRange(10, 20) failed: %v", err)
	}

	tests := []struct {
		name    string
		value   Value
		wantErr bool
	}{
		{name: "at min", value: Int(10), wantErr: false},
		{name: "at max", value: Int(20), wantErr: false},
		{name: "inside", value: Int(15), wantErr: false},
		{name: "below min", value: Int(9), wantErr: true},
		{name: "above max", value: Int(21), wantErr: true},
		{name: "string value", value: String("15"), wantErr: true},
		{name: "bool value", value: Bool(true), wantErr: true},
		{name: "bytes value", value: Bytes([]byte{15}), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%v): expected error=%v, got %v", tt.value, tt.wantErr, err)
			}
		})
	}
}

func TestIntRangeInvertedBounds(t *testing.T) {
	if _, err := NewIntRange(5, 4); err == nil {
		t.Error("NewIntRange(5, 4) should fail construction")
	}
}

func TestAlnumValidate(t *testing.T) {
	tests := []struct {
		name    string
		minLen  int
		maxLen  int
		value   Value
		wantErr bool
	}{
		{name: "unbounded ok", value: String("Label7"), wantErr: false},
		{name: "unbounded empty", value: String(""), wantErr: true},
		{name: "unbounded space", value: String("A B"), wantErr: true},
		{name: "unbounded punctuation", value: String("A-B"), wantErr: true},
		{name: "non-string", value: Int(7), wantErr: true},
		{name: "within bounds", minLen: 1, maxLen: 8, value: String("LOGO01"), wantErr: false},
		{name: "too long", minLen: 1, maxLen: 8, value: String("LOGOIMAGE"), wantErr: true},
		{name: "too short", minLen: 3, maxLen: 8, value: String("AB"), wantErr: true},
		{name: "max only", maxLen: 2, value: String("AB"), wantErr: false},
		{name: "max only empty", maxLen: 2, value: String(""), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAlnum(tt.minLen, tt.maxLen)
			if err != nil {
				t.Fatalf("NewAlnum(%d, %d) failed: %v", tt.minLen, tt.maxLen, err)
			}
			err = a.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate: expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAlnumInvertedBounds(t *testing.T) {
	if _, err := NewAlnum(9, 8); err == nil {
		t.Error("NewAlnum(9, 8) should fail construction")
	}
}

func TestTextValidate(t *testing.T) {
	tt := NewText(0)
	if err := tt.Validate(String("Hello, World! 123")); err != nil {
		t.Errorf("plain text should validate: %v", err)
	}
	for _, bad := range []string{"a^b", "a~b", "a\nb", "a\rb"} {
		if err := tt.Validate(String(bad)); err == nil {
			t.Errorf("text %q should be rejected", bad)
		}
	}
	limited := NewText(5)
	if err := limited.Validate(String("123456")); err == nil {
		t.Error("text over the length limit should be rejected")
	}
}

func TestEnumValidate(t *testing.T) {
	e := NewEnum("R", "E", "B", "A")
	if err := e.Validate(String("E")); err != nil {
		t.Errorf("member should validate: %v", err)
	}
	if err := e.Validate(String("Z")); err == nil {
		t.Error("non-member should fail")
	}
	if err := e.Validate(Int(1)); err == nil {
		t.Error("non-string should fail")
	}
	err := e.Validate(String("Z"))
	if !strings.Contains(err.Error(), "R, E, B, A") {
		t.Errorf("error should list members, got %q", err.Error())
	}
}

func TestYesNoValidateAndFormat(t *testing.T) {
	yn := NewYesNo("Y", "N")
	if err := yn.Validate(Bool(true)); err != nil {
		t.Errorf("boolean should validate: %v", err)
	}
	if err := yn.Validate(String("Y")); err == nil {
		t.Error("string should fail a boolean type")
	}
	if got := yn.Format(Bool(true)); got != "Y" {
		t.Errorf("Format(true): expected Y, got %q", got)
	}
	if got := yn.Format(Bool(false)); got != "N" {
		t.Errorf("Format(false): expected N, got %q", got)
	}
}

func TestBinaryValidate(t *testing.T) {
	b := NewBinary()
	if err := b.Validate(Bytes([]byte{0x00, 0xFF})); err != nil {
		t.Errorf("bytes should validate: %v", err)
	}
	if err := b.Validate(String("00FF")); err == nil {
		t.Error("string should fail the binary type")
	}
}

func TestAnyOfValidate(t *testing.T) {
	speed := NewAnyOf(mustType(NewIntRange(1, 14)), NewEnum("A", "B", "C", "D", "E"))

	if err := speed.Validate(Int(4)); err != nil {
		t.Errorf("integer member should validate: %v", err)
	}
	if err := speed.Validate(String("C")); err != nil {
		t.Errorf("enum member should validate: %v", err)
	}

	err := speed.Validate(String("Z"))
	if err == nil {
		t.Fatal("value failing every member should fail the union")
	}
	if !strings.Contains(err.Error(), " or ") {
		t.Errorf("union error should join sub-failures with \" or \", got %q", err.Error())
	}
}

func TestAnyOfFormatDelegates(t *testing.T) {
	u := NewAnyOf(NewYesNo("Y", "N"), NewText(0))
	if got := u.Format(Bool(false)); got != "N" {
		t.Errorf("union should format via the matching member: expected N, got %q", got)
	}
	if got := u.Format(String("abc")); got != "abc" {
		t.Errorf("union should format text via the text member, got %q", got)
	}
}
