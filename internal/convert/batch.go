package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"wowroster/internal/export"
	"wowroster/internal/filewalker"
	"wowroster/internal/parser"
	"wowroster/internal/textutil"
	"wowroster/internal/worker"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
)

// Batch item statuses.
const (
	StatusConverted = "converted"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// maxReportError bounds the error text kept per report line.
const maxReportError = 200

// ReportRow is one line of the batch report.
type ReportRow struct {
	Input      string `csv:"input"`
	Output     string `csv:"output"`
	Characters int    `csv:"characters"`
	Status     string `csv:"status"`
	Error      string `csv:"error"`
}

// Batch converts every supported file under root into outDir, mirroring the
// directory layout. Files without the roster table are skipped; per-file
// failures are reported rather than returned.
func (c *Converter) Batch(ctx context.Context, root, outDir string, workers int) ([]ReportRow, error) {
	entries, err := filewalker.NewWalker(c.parser).Walk(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	format := c.format
	if format == "" {
		format = export.FormatCSV
	}

	pool := worker.NewPool[filewalker.FileEntry, Result](workers,
		func(ctx context.Context, entry filewalker.FileEntry) (Result, error) {
			out := filepath.Join(outDir, textutil.ReplaceExt(entry.Rel, format.Ext()))
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return Result{Input: entry.Path, Output: out}, fmt.Errorf("create output directory: %w", err)
			}
			res, err := convertFile(entry.Parser, entry.Path, out, format)
			if err != nil {
				return Result{Input: entry.Path, Output: out}, err
			}
			return res, nil
		},
	)

	tasks := pool.Execute(ctx, entries)

	rows := make([]ReportRow, 0, len(tasks))
	for _, task := range tasks {
		row := ReportRow{Input: task.Input.Path}

		switch {
		case !task.Done:
			row.Status = StatusCancelled
		case errors.Is(task.Err, parser.ErrMarkerNotFound):
			row.Status = StatusSkipped
			row.Error = task.Err.Error()
			log.Debug().Str("file", task.Input.Rel).Msg("No roster table, skipped")
		case task.Err != nil:
			row.Status = StatusFailed
			row.Output = task.Result.Output
			row.Error = textutil.Truncate(task.Err.Error(), maxReportError)
			log.Error().Err(task.Err).Str("file", task.Input.Rel).Msg("Conversion failed")
		default:
			row.Status = StatusConverted
			row.Output = task.Result.Output
			row.Characters = task.Result.Characters
			log.Info().
				Str("input", task.Input.Rel).
				Str("output", task.Result.Output).
				Int("characters", task.Result.Characters).
				Msg("File converted")
		}

		rows = append(rows, row)
	}

	return rows, ctx.Err()
}

// WriteReport writes batch report rows as CSV.
func WriteReport(path string, rows []ReportRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Summarize counts report rows by status.
func Summarize(rows []ReportRow) map[string]int {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.Status]++
	}
	return counts
}
