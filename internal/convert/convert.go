package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wowroster/internal/export"
	"wowroster/internal/parser"

	"github.com/rs/zerolog/log"
)

// StatusReady is the status line before any conversion has run.
const StatusReady = "Ready"

// ErrNoInput is returned when no input file was selected.
var ErrNoInput = errors.New("please select an input file")

// Result describes one successful conversion.
type Result struct {
	Input      string
	Output     string
	Format     export.Format
	Characters int
}

// Status renders the success status line.
func (r Result) Status() string {
	return fmt.Sprintf("Success! Created %s with %d characters", r.Output, r.Characters)
}

// ErrorStatus renders the status line for a failed conversion.
func ErrorStatus(err error) string {
	return "Error: " + err.Error()
}

// Converter turns saved-variables files into roster spreadsheets.
type Converter struct {
	parser        parser.Parser
	format        export.Format
	defaultOutput string
}

// NewConverter creates a Converter. An empty format is inferred from each
// output path; an empty defaultOutput falls back to characters.csv.
func NewConverter(p parser.Parser, format export.Format, defaultOutput string) *Converter {
	if defaultOutput == "" {
		defaultOutput = "characters.csv"
	}
	return &Converter{
		parser:        p,
		format:        format,
		defaultOutput: defaultOutput,
	}
}

// Convert parses input and writes its records to output. The output file is
// only created once parsing has succeeded.
func (c *Converter) Convert(ctx context.Context, input, output string) (Result, error) {
	if strings.TrimSpace(input) == "" {
		return Result{}, ErrNoInput
	}
	if strings.TrimSpace(output) == "" {
		output = c.defaultOutput
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	return convertFile(c.parser, input, output, c.formatFor(output))
}

func (c *Converter) formatFor(output string) export.Format {
	if c.format != "" {
		return c.format
	}
	return export.FormatFromPath(output)
}

func convertFile(p parser.Parser, input, output string, format export.Format) (Result, error) {
	parsed, err := p.Parse(input)
	if err != nil {
		return Result{}, err
	}

	if err := export.WriteFile(output, format, parsed.Records); err != nil {
		return Result{}, err
	}

	log.Debug().
		Str("input", input).
		Str("output", output).
		Int("characters", len(parsed.Records)).
		Msg("Converted file")

	return Result{
		Input:      input,
		Output:     output,
		Format:     format,
		Characters: len(parsed.Records),
	}, nil
}
