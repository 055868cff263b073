package parser

import (
	"encoding/json"
	"strconv"
)

// Kind identifies the scalar type held by a Value.
type Kind int

const (
	KindText Kind = iota
	KindInt
)

// Value is a decoded field value: either text or an integer.
type Value struct {
	Kind Kind
	Text string
	Int  int64
}

// TextValue wraps s as a text Value.
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// IntValue wraps n as an integer Value.
func IntValue(n int64) Value { return Value{Kind: KindInt, Int: n} }

// String renders the value the way it appears in a spreadsheet cell.
func (v Value) String() string {
	if v.Kind == KindInt {
		return strconv.FormatInt(v.Int, 10)
	}
	return v.Text
}

// Interface returns the value as int64 or string.
func (v Value) Interface() any {
	if v.Kind == KindInt {
		return v.Int
	}
	return v.Text
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Record is one character's flat field set.
type Record map[string]Value

// ParseResult holds parsing output for a single file.
type ParseResult struct {
	// FilePath is the path of the parsed file.
	FilePath string
	// Records are the character records in source order.
	Records []Record
}

// Parser is the interface for saved-variables file parsers.
type Parser interface {
	// CanParse returns true if this parser handles the given file extension.
	CanParse(ext string) bool
	// Parse extracts character records from a file.
	Parse(filePath string) (*ParseResult, error)
}
