package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/catalog-query/internal/domain"
)

// Format is an output file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts csv or xlsx in any case. Empty means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want csv or xlsx)", s)
	}
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string { return string(f) }

// Writer writes report tables in one format. Empty collections produce no file.
type Writer struct {
	format Format
	logger *zap.Logger
}

// NewWriter creates a writer for format.
func NewWriter(format Format, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{format: format, logger: logger}
}

// Format returns the writer's output format.
func (w *Writer) Format() Format { return w.format }

// WriteResults writes the aggregated result table. It reports whether a file was written.
func (w *Writer) WriteResults(path string, rows []domain.ReportRow) (bool, error) {
	if len(rows) == 0 {
		return false, nil
	}
	return true, w.write(path, ResultTable(rows))
}

// WriteFailures writes the failure table. It reports whether a file was written.
func (w *Writer) WriteFailures(path string, failures []domain.FailureRecord) (bool, error) {
	if len(failures) == 0 {
		return false, nil
	}
	return true, w.write(path, FailureTable(failures))
}

// WriteDatasets writes the dataset listing. It reports whether a file was written.
func (w *Writer) WriteDatasets(path string, datasets []domain.DatasetSummary) (bool, error) {
	if len(datasets) == 0 {
		return false, nil
	}
	return true, w.write(path, DatasetTable(datasets))
}

func (w *Writer) write(path string, t Table) error {
	var err error
	switch w.format {
	case FormatXLSX:
		err = writeXLSX(path, t)
	default:
		err = writeCSV(path, t)
	}
	if err != nil {
		return err
	}
	w.logger.Info("Report written",
		zap.String("path", path),
		zap.String("sheet", t.Sheet),
		zap.Int("rows", len(t.Rows)),
	)
	return nil
}

func writeCSV(path string, t Table) (err error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	cw := csv.NewWriter(f)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write %s header: %w", path, err)
	}
	record := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = cellString(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func writeXLSX(path string, t Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), t.Sheet); err != nil {
		return fmt.Errorf("name sheet %s: %w", t.Sheet, err)
	}

	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := setRow(f, t.Sheet, 1, header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := setRow(f, t.Sheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(filepath.Clean(path)); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}
