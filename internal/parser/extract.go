package parser

import (
	"errors"
	"fmt"
	"strings"
)

// Default markers delimiting the character table in DataStore_Characters.lua.
const (
	DefaultStartMarker = "DataStore_Characters_Info = {"
	DefaultEndMarker   = "}\nDataStore_Characters_GuildRanks"
)

// ErrMarkerNotFound indicates the expected table boundaries are missing.
var ErrMarkerNotFound = errors.New("marker not found")

// FormatError reports an input that does not have the expected table layout.
type FormatError struct {
	Marker string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid file format: %v: %q", e.Err, e.Marker)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Extract returns the text between the first start marker and the first end
// marker after it, trimmed of surrounding whitespace. Both markers must occur
// somewhere in content; if the end marker only occurs before the start
// marker, everything after the start marker is returned.
func Extract(content, startMarker, endMarker string) (string, error) {
	_, rest, ok := strings.Cut(content, startMarker)
	if !ok {
		return "", &FormatError{Marker: startMarker, Err: ErrMarkerNotFound}
	}
	if !strings.Contains(content, endMarker) {
		return "", &FormatError{Marker: endMarker, Err: ErrMarkerNotFound}
	}

	section, _, _ := strings.Cut(rest, endMarker)
	return strings.TrimSpace(section), nil
}
