package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// SavedVariablesParser extracts character records from an addon's
// saved-variables Lua file.
type SavedVariablesParser struct {
	StartMarker string
	EndMarker   string
}

// NewSavedVariablesParser creates a parser for the given markers. Empty
// markers fall back to the DataStore_Characters defaults.
func NewSavedVariablesParser(startMarker, endMarker string) *SavedVariablesParser {
	if startMarker == "" {
		startMarker = DefaultStartMarker
	}
	if endMarker == "" {
		endMarker = DefaultEndMarker
	}
	return &SavedVariablesParser{
		StartMarker: startMarker,
		EndMarker:   endMarker,
	}
}

func (p *SavedVariablesParser) CanParse(ext string) bool {
	return ext == ".lua"
}

func (p *SavedVariablesParser) Parse(filePath string) (*ParseResult, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("open lua file: %w", err)
	}

	records, err := p.ParseBytes(data)
	if err != nil {
		return nil, err
	}

	return &ParseResult{
		FilePath: filePath,
		Records:  records,
	}, nil
}

// ParseBytes parses saved-variables content already held in memory.
func (p *SavedVariablesParser) ParseBytes(data []byte) ([]Record, error) {
	content, err := readText(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode lua content: %w", err)
	}

	section, err := Extract(content, p.StartMarker, p.EndMarker)
	if err != nil {
		return nil, err
	}
	return ParseRecords(section), nil
}

// readText decodes UTF-8 input, dropping a leading BOM, and normalises \r\n
// and lone \r line endings to \n so the end marker matches.
func readText(r io.Reader) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	raw, err := io.ReadAll(transform.NewReader(r, decoder))
	if err != nil {
		return "", err
	}
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}
