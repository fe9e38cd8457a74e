// pkg/zpl/template.go
package zpl

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Field describes one declared parameter of a template.
type Field struct {
	// Type validates and formats the parameter value.
	Type Type
	// Required makes an unset value a validation failure.
	Required bool
	// Delimiter is emitted after the parameter in serialized output. It
	// defaults to none; separators that are part of the command grammar
	// normally live in the pattern itself.
	Delimiter string
}

type segment struct {
	text  string
	param bool
}

// Template is the immutable schema of one printer command: the pattern split
// into alternating literal/parameter segments plus the per-parameter field
// descriptors. Templates are built once at startup and shared read-only by
// every command that uses them.
type Template struct {
	name     string
	pattern  string
	segments []segment
	fields   map[string]Field
}

// NewTemplate splits pattern into literal and parameter segments using the
// declared field keys. The split happens exactly once here; renders only walk
// the precomputed segment list. The segment list always has odd length,
// starting and ending with a (possibly empty) literal.
func NewTemplate(name, pattern string, fields map[string]Field) (*Template, error) {
	if name == "" {
		return nil, fmt.Errorf("template: empty name")
	}
	for key, f := range fields {
		if key == "" {
			return nil, fmt.Errorf("template %s: empty parameter key", name)
		}
		if f.Type == nil {
			return nil, fmt.Errorf("template %s: parameter %q has no type", name, key)
		}
	}

	t := &Template{
		name:    name,
		pattern: pattern,
		fields:  fields,
	}

	if len(fields) == 0 {
		t.segments = []segment{{text: pattern}}
		return t, nil
	}

	// Longer keys first so a key never matches inside another one.
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	quoted := make([]string, len(keys))
	for i, key := range keys {
		quoted[i] = regexp.QuoteMeta(key)
	}
	re, err := regexp.Compile(strings.Join(quoted, "|"))
	if err != nil {
		return nil, fmt.Errorf("template %s: bad parameter keys: %w", name, err)
	}

	seen := make(map[string]bool, len(fields))
	last := 0
	for _, loc := range re.FindAllStringIndex(pattern, -1) {
		t.segments = append(t.segments,
			segment{text: pattern[last:loc[0]]},
			segment{text: pattern[loc[0]:loc[1]], param: true},
		)
		seen[pattern[loc[0]:loc[1]]] = true
		last = loc[1]
	}
	t.segments = append(t.segments, segment{text: pattern[last:]})

	for key := range fields {
		if !seen[key] {
			return nil, fmt.Errorf("template %s: parameter %q does not appear in pattern %q", name, key, pattern)
		}
	}
	return t, nil
}

// MustTemplate is NewTemplate that panics on definition errors. It exists for
// the fixed command table, where a bad definition should stop the process at
// init.
func MustTemplate(name, pattern string, fields map[string]Field) *Template {
	t, err := NewTemplate(name, pattern, fields)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the command name the template was declared under.
func (t *Template) Name() string { return t.name }

// Pattern returns the original pattern string.
func (t *Template) Pattern() string { return t.pattern }

// ValidateParams checks values against every declared field and reports ALL
// failures at once in a ValidationError keyed by parameter name. A value for
// an undeclared key is caller misuse and returns ErrUnknownParameter instead.
func (t *Template) ValidateParams(values Values) error {
	for key := range values {
		if _, ok := t.fields[key]; !ok {
			return fmt.Errorf("%w: %q is not a parameter of %s", ErrUnknownParameter, key, t.name)
		}
	}

	fails := make(map[string]string)
	for key, f := range t.fields {
		v, ok := values[key]
		if !ok || !v.IsSet() {
			if f.Required {
				fails[key] = "required parameter is missing"
			}
			continue
		}
		if err := f.Type.Validate(v); err != nil {
			fails[key] = err.Error()
		}
	}
	if len(fails) > 0 {
		return &ValidationError{Command: t.name, Fields: fails}
	}
	return nil
}

// RenderString serializes the command as text. Literal segments pass through
// unchanged; parameter segments emit the field type's formatting of the
// value (unset optional parameters emit nothing) followed by the field's
// delimiter. Rendering is pure: the same values always produce the same
// output.
func (t *Template) RenderString(values Values) (string, error) {
	if err := t.ValidateParams(values); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, seg := range t.segments {
		if !seg.param {
			b.WriteString(seg.text)
			continue
		}
		f := t.fields[seg.text]
		if v, ok := values[seg.text]; ok && v.IsSet() {
			b.WriteString(f.Type.Format(v))
		}
		b.WriteString(f.Delimiter)
	}
	return b.String(), nil
}

// RenderBytes serializes the command as raw bytes. The walk matches
// RenderString except that byte-valued parameters are spliced in verbatim,
// never passed through text formatting. Embedded binary payloads (image
// data, font data) depend on this.
func (t *Template) RenderBytes(values Values) ([]byte, error) {
	if err := t.ValidateParams(values); err != nil {
		return nil, err
	}
	parts := make([][]byte, 0, len(t.segments)*2)
	for _, seg := range t.segments {
		if !seg.param {
			parts = append(parts, []byte(seg.text))
			continue
		}
		f := t.fields[seg.text]
		if v, ok := values[seg.text]; ok && v.IsSet() {
			if v.kind == kindBytes {
				parts = append(parts, v.raw)
			} else {
				parts = append(parts, []byte(f.Type.Format(v)))
			}
		}
		if f.Delimiter != "" {
			parts = append(parts, []byte(f.Delimiter))
		}
	}
	return bytes.Join(parts, nil), nil
}
