package bulkdata

import (
	"errors"
	"fmt"
)

// Dataset holds the three loaded tables of one bulk upload archive.
type Dataset struct {
	Properties *Table
	LineItems  *Table
	History    *Table
}

var (
	// ErrInvalidCount is returned when a subset requests more properties
	// than the archive contains, or a negative count.
	ErrInvalidCount = errors.New("property count out of range")
	// ErrInvalidBatchSize is returned for non-positive split batch sizes.
	ErrInvalidBatchSize = errors.New("batch size must be positive")
)

// RequireIDColumns verifies the ID columns needed for subsetting exist in all
// three tables.
func (d *Dataset) RequireIDColumns() error {
	if err := d.Properties.RequireColumns(TableProperty, []string{"EntityId"}); err != nil {
		return err
	}
	if err := d.LineItems.RequireColumns(TableLineItems, []string{"LineItemId"}); err != nil {
		return err
	}
	return d.History.RequireColumns(TableHistorical, []string{"EntityId", "LineItemId"})
}

// Subset selects the first n properties in file order and filters the other
// two tables down to the rows reachable from them: history rows belonging to
// a selected property, and line items referenced by that history. Row order
// and cell content are preserved verbatim. n = 0 yields empty tables with
// headers retained.
func (d *Dataset) Subset(n int) (*Dataset, error) {
	if n < 0 || n > len(d.Properties.Rows) {
		return nil, fmt.Errorf("%w: requested %d of %d properties", ErrInvalidCount, n, len(d.Properties.Rows))
	}
	return d.subsetRange(0, n), nil
}

// SplitBatches partitions the property list into consecutive chunks of
// batchSize (the last chunk may be smaller) and builds one referentially
// consistent dataset per chunk. Concatenating the chunk properties reproduces
// the original property order.
func (d *Dataset) SplitBatches(batchSize int) ([]*Dataset, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	total := len(d.Properties.Rows)
	batches := make([]*Dataset, 0, (total+batchSize-1)/batchSize)
	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		batches = append(batches, d.subsetRange(start, end))
	}
	return batches, nil
}

func (d *Dataset) subsetRange(start, end int) *Dataset {
	properties := &Table{Columns: d.Properties.Columns, Rows: d.Properties.Rows[start:end]}

	selected := make(map[string]bool, end-start)
	for _, row := range properties.Rows {
		selected[normalizeID(row["EntityId"])] = true
	}

	history := &Table{Columns: d.History.Columns}
	referenced := make(map[string]bool)
	for _, row := range d.History.Rows {
		if selected[normalizeID(row["EntityId"])] {
			history.Rows = append(history.Rows, row)
			referenced[normalizeID(row["LineItemId"])] = true
		}
	}

	lineItems := &Table{Columns: d.LineItems.Columns}
	seen := make(map[string]bool, len(referenced))
	for _, row := range d.LineItems.Rows {
		id := normalizeID(row["LineItemId"])
		if referenced[id] && !seen[id] {
			seen[id] = true
			lineItems.Rows = append(lineItems.Rows, row)
		}
	}

	return &Dataset{Properties: properties, LineItems: lineItems, History: history}
}
