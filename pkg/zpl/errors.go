// pkg/zpl/errors.go
package zpl

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownParameter marks a value supplied under a key the template never
// declared. That is caller misuse, not a validation failure, so it is
// reported on its own rather than inside a ValidationError.
var ErrUnknownParameter = errors.New("unknown parameter")

// ValidationError collects every parameter that failed validation for one
// command. It is exhaustive: all failing keys are reported together, never
// just the first.
type ValidationError struct {
	Command string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "invalid parameters for %s:", e.Command)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s: %s;", k, e.Fields[k])
	}
	return strings.TrimSuffix(b.String(), ";")
}

// AsValidationError unwraps err into a *ValidationError when it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
