// Package formatter canonicalizes generated Go source.
package formatter

import (
	"go/format"
	"strings"

	"github.com/mcncl/jsonclassgen/internal/errors"
)

// Formatter is responsible for formatting Go code according to standard conventions
type Formatter struct{}

// NewFormatter creates a new Formatter instance
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format takes Go code as a string and returns properly formatted Go code.
// Imports are sorted within the groups the writer emitted.
func (f *Formatter) Format(code string) (string, error) {
	// Handle empty input
	if strings.TrimSpace(code) == "" {
		return "", nil
	}

	// Apply standard formatting using go/format
	formatted, err := format.Source([]byte(code))
	if err != nil {
		return "", errors.NewFormatError("failed to parse generated Go code", err)
	}

	return string(formatted), nil
}
