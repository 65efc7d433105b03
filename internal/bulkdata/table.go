package bulkdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Table name constants matching the archive member prefixes.
const (
	TableProperty   = "property"
	TableLineItems  = "lineItems"
	TableHistorical = "historical"
)

// Required columns for each upload table. Column names are matched exactly,
// as produced by the bulk upload export.
var (
	RequiredPropertyColumns = []string{"EntityId", "DealName"}
	RequiredLineItemColumns = []string{"LineItemId", "LineItemDescription", "redIQChartOfAccount", "IsExpenseAccount"}
	RequiredHistoryColumns  = []string{"EntityId", "LineItemId", "Date", "IsAnnual", "Value"}
)

// Row maps column names to raw cell text for a single data row.
type Row map[string]string

// Table holds one tab-separated table: the header in original order plus all
// data rows. Unknown columns are preserved alongside the required ones.
type Table struct {
	Columns []string
	Rows    []Row
}

// MissingColumnsError reports required columns absent from a table header.
type MissingColumnsError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s table missing required columns: %s", e.Table, strings.Join(e.Columns, ", "))
}

// LoadTable parses tab-separated UTF-8 text with a mandatory header row.
// Rows shorter than the header are padded with empty cells; cells beyond the
// header have no column name and are dropped.
func LoadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	// Strip the UTF-8 BOM some exports carry on the first column.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	table := &Table{Columns: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(table.Rows)+2, err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// MissingColumns returns the required columns absent from the header.
func (t *Table) MissingColumns(required []string) []string {
	present := headerSet(t.Columns)
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// RequireColumns returns a MissingColumnsError if any required column is
// absent. Used on the subset/split paths, where the ID columns are needed to
// operate at all; validation reports missing columns instead of failing.
func (t *Table) RequireColumns(name string, required []string) error {
	if missing := t.MissingColumns(required); len(missing) > 0 {
		return &MissingColumnsError{Table: name, Columns: missing}
	}
	return nil
}

// WriteTo emits the table as tab-separated text. The header is written even
// when the table has no rows, so empty subsets keep their schema.
func (t *Table) WriteTo(w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = '\t'
	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j, col := range t.Columns {
			record[j] = row[col]
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func headerSet(columns []string) map[string]bool {
	set := make(map[string]bool, len(columns))
	for _, col := range columns {
		set[col] = true
	}
	return set
}

// normalizeID lowercases and trims an ID for case-insensitive matching.
// Original casing is always preserved in emitted output.
func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
