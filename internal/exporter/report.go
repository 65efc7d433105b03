// Package exporter writes validation reports to reviewable files. CSV output
// carries a UTF-8 BOM so Excel opens it correctly; xlsx output has a Summary
// sheet with the aggregate counts and an Issues sheet with one row per
// finding.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"rediqcli/internal/bulkdata"
)

var issueHeader = []string{"Category", "Table", "Rows", "Column", "Value", "Message"}

// ReportWriter exports validation reports.
type ReportWriter struct {
	logger *slog.Logger
}

// NewReportWriter creates a new report writer instance.
func NewReportWriter(logger *slog.Logger) *ReportWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportWriter{logger: logger}
}

// Export writes the report to path; the format is chosen by extension
// (.csv or .xlsx).
func (w *ReportWriter) Export(path string, report *bulkdata.Report) error {
	w.logger.Info("Exporting validation report",
		slog.String("path", path),
		slog.Int("issues", len(report.Issues)))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return w.writeCSV(path, report)
	case ".xlsx":
		return w.writeXLSX(path, report)
	default:
		return fmt.Errorf("unsupported report format %q (use .csv or .xlsx)", filepath.Ext(path))
	}
}

func issueRecord(issue bulkdata.Issue) []string {
	return []string{
		string(issue.Category),
		issue.Table,
		issue.RowList(),
		issue.Column,
		issue.Value,
		issue.Message,
	}
}

func (w *ReportWriter) writeCSV(path string, report *bulkdata.Report) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	// UTF-8 BOM helps Excel recognize the encoding.
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(issueHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, issue := range report.Issues {
		if err := writer.Write(issueRecord(issue)); err != nil {
			return fmt.Errorf("failed to write issue %d: %w", i+1, err)
		}
	}

	if err := writer.Write([]string{}); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}
	if err := writer.Write([]string{"Metric", "Count"}); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	for _, row := range report.Counts.SummaryRows() {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func (w *ReportWriter) writeXLSX(path string, report *bulkdata.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("failed to rename summary sheet: %w", err)
	}
	if err := f.SetSheetRow("Summary", "A1", &[]interface{}{"Metric", "Count"}); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	for i, row := range report.Counts.SummaryRows() {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow("Summary", cell, &[]interface{}{row[0], row[1]}); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}

	if _, err := f.NewSheet("Issues"); err != nil {
		return fmt.Errorf("failed to create issues sheet: %w", err)
	}
	header := make([]interface{}, len(issueHeader))
	for i, col := range issueHeader {
		header[i] = col
	}
	if err := f.SetSheetRow("Issues", "A1", &header); err != nil {
		return fmt.Errorf("failed to write issues header: %w", err)
	}
	for i, issue := range report.Issues {
		record := issueRecord(issue)
		row := make([]interface{}, len(record))
		for j, cell := range record {
			row[j] = cell
		}
		if err := f.SetSheetRow("Issues", fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("failed to write issue %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}
