package bulkdata

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// Validator checks a loaded dataset against the bulk upload rules: required
// columns, required cell presence, ID uniqueness, value validity, referential
// integrity and history tuple uniqueness.
type Validator struct {
	booleans map[string]bool
	logger   *slog.Logger
}

// NewValidator creates a validator accepting the given boolean literals
// (case-insensitive) for IsExpenseAccount and IsAnnual.
func NewValidator(booleanLiterals []string, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	booleans := make(map[string]bool, len(booleanLiterals))
	for _, literal := range booleanLiterals {
		booleans[strings.ToLower(strings.TrimSpace(literal))] = true
	}
	return &Validator{booleans: booleans, logger: logger}
}

// Validate runs every check over the three tables and returns the combined
// report. Malformed data is reported, never fatal; a row may count toward
// multiple issue categories.
func (v *Validator) Validate(ds *Dataset) *Report {
	report := &Report{}

	v.checkColumns(report, TableProperty, ds.Properties, RequiredPropertyColumns)
	v.checkColumns(report, TableLineItems, ds.LineItems, RequiredLineItemColumns)
	v.checkColumns(report, TableHistorical, ds.History, RequiredHistoryColumns)

	propertyIDs, validProperties := v.checkProperties(report, ds.Properties)
	lineItemIDs, validLineItems := v.checkLineItems(report, ds.LineItems)
	validHistory, propsWithHistory, itemsWithHistory := v.checkHistory(report, ds.History, propertyIDs, lineItemIDs)

	c := &report.Counts
	c.TotalProperties = len(ds.Properties.Rows)
	c.ValidProperties = validProperties
	c.TotalLineItems = len(ds.LineItems.Rows)
	c.ValidLineItems = validLineItems
	c.TotalHistoryEntries = len(ds.History.Rows)
	c.ValidHistoryEntries = validHistory
	for _, row := range ds.Properties.Rows {
		if propsWithHistory[normalizeID(row["EntityId"])] {
			c.PropertiesWithHistory++
		} else {
			c.PropertiesWithoutHistory++
		}
	}
	for _, row := range ds.LineItems.Rows {
		if itemsWithHistory[normalizeID(row["LineItemId"])] {
			c.LineItemsWithHistory++
		} else {
			c.LineItemsWithoutHistory++
		}
	}

	v.logger.Info("Validation completed",
		slog.Int("issues", len(report.Issues)),
		slog.Int("properties", c.TotalProperties),
		slog.Int("line_items", c.TotalLineItems),
		slog.Int("history_entries", c.TotalHistoryEntries))

	return report
}

func (v *Validator) checkColumns(report *Report, table string, t *Table, required []string) {
	missing := t.MissingColumns(required)
	if len(missing) == 0 {
		return
	}
	report.add(Issue{
		Category: MissingColumns,
		Table:    table,
		Column:   strings.Join(missing, ", "),
		Message:  fmt.Sprintf("%s table missing required columns: %s", table, strings.Join(missing, ", ")),
	})
}

// checkProperties validates the property table and returns the set of known
// normalized EntityIds plus the valid row count. Rows sharing a duplicated ID
// are all counted invalid, but the ID itself stays resolvable for history.
func (v *Validator) checkProperties(report *Report, t *Table) (map[string]bool, int) {
	missing := v.checkMissingData(report, TableProperty, t, RequiredPropertyColumns)
	duplicate := v.checkDuplicateIDs(report, TableProperty, t, "EntityId")

	ids := make(map[string]bool)
	valid := 0
	for i, row := range t.Rows {
		id := normalizeID(row["EntityId"])
		if id != "" {
			ids[id] = true
		}
		if id != "" && !missing[i] && !duplicate[i] {
			valid++
		}
	}
	return ids, valid
}

func (v *Validator) checkLineItems(report *Report, t *Table) (map[string]bool, int) {
	missing := v.checkMissingData(report, TableLineItems, t, RequiredLineItemColumns)
	duplicate := v.checkDuplicateIDs(report, TableLineItems, t, "LineItemId")

	invalid := make([]bool, len(t.Rows))
	if headerSet(t.Columns)["IsExpenseAccount"] {
		for i, row := range t.Rows {
			if !v.checkBoolean(report, TableLineItems, i, "IsExpenseAccount", row["IsExpenseAccount"]) {
				invalid[i] = true
			}
		}
	}

	ids := make(map[string]bool)
	valid := 0
	for i, row := range t.Rows {
		id := normalizeID(row["LineItemId"])
		if id != "" {
			ids[id] = true
		}
		if id != "" && !missing[i] && !duplicate[i] && !invalid[i] {
			valid++
		}
	}
	return ids, valid
}

// checkHistory validates the historical table against the known IDs. It
// returns the valid row count plus the sets of property and line item IDs
// referenced by at least one history row. The first occurrence of a duplicated
// tuple stays valid; repeats do not.
func (v *Validator) checkHistory(report *Report, t *Table, propertyIDs, lineItemIDs map[string]bool) (int, map[string]bool, map[string]bool) {
	missing := v.checkMissingData(report, TableHistorical, t, RequiredHistoryColumns)
	present := headerSet(t.Columns)

	propsWithHistory := make(map[string]bool)
	itemsWithHistory := make(map[string]bool)
	rowValid := make([]bool, len(t.Rows))
	tuples := make(map[string][]int)
	var tupleOrder []string

	for i, row := range t.Rows {
		rowValid[i] = !missing[i]
		entityID := normalizeID(row["EntityId"])
		lineItemID := normalizeID(row["LineItemId"])

		if present["EntityId"] && entityID != "" {
			propsWithHistory[entityID] = true
			if !propertyIDs[entityID] {
				rowValid[i] = false
				report.add(Issue{
					Category: InvalidReference,
					Table:    TableHistorical,
					Rows:     []int{i + 1},
					Column:   "EntityId",
					Value:    strings.TrimSpace(row["EntityId"]),
					Message:  fmt.Sprintf("historical row %d references unknown EntityId %q", i+1, strings.TrimSpace(row["EntityId"])),
				})
			}
		}
		if present["LineItemId"] && lineItemID != "" {
			itemsWithHistory[lineItemID] = true
			if !lineItemIDs[lineItemID] {
				rowValid[i] = false
				report.add(Issue{
					Category: InvalidReference,
					Table:    TableHistorical,
					Rows:     []int{i + 1},
					Column:   "LineItemId",
					Value:    strings.TrimSpace(row["LineItemId"]),
					Message:  fmt.Sprintf("historical row %d references unknown LineItemId %q", i+1, strings.TrimSpace(row["LineItemId"])),
				})
			}
		}
		if present["IsAnnual"] && !v.checkBoolean(report, TableHistorical, i, "IsAnnual", row["IsAnnual"]) {
			rowValid[i] = false
		}
		if present["Value"] && !v.checkNumeric(report, i, row["Value"]) {
			rowValid[i] = false
		}

		if present["EntityId"] && present["LineItemId"] && present["Date"] && present["IsAnnual"] {
			// Tuple identity is case-insensitive on the IDs only.
			key := strings.Join([]string{entityID, lineItemID, strings.TrimSpace(row["Date"]), strings.TrimSpace(row["IsAnnual"])}, "\x1f")
			if len(tuples[key]) == 0 {
				tupleOrder = append(tupleOrder, key)
			}
			tuples[key] = append(tuples[key], i+1)
		}
	}

	for _, key := range tupleOrder {
		rows := tuples[key]
		if len(rows) < 2 {
			continue
		}
		for _, row := range rows[1:] {
			rowValid[row-1] = false
		}
		report.add(Issue{
			Category: DuplicateHistory,
			Table:    TableHistorical,
			Rows:     rows,
			Message:  fmt.Sprintf("duplicate history entry (EntityId, LineItemId, Date, IsAnnual) in rows %s", joinRows(rows)),
		})
	}

	valid := 0
	for _, ok := range rowValid {
		if ok {
			valid++
		}
	}
	return valid, propsWithHistory, itemsWithHistory
}

// checkMissingData flags empty or whitespace-only required cells and returns a
// per-row flag of whether anything was missing. Columns absent from the header
// are skipped here; checkColumns reports those once per table.
func (v *Validator) checkMissingData(report *Report, table string, t *Table, required []string) []bool {
	missing := make([]bool, len(t.Rows))
	present := headerSet(t.Columns)
	for i, row := range t.Rows {
		for _, col := range required {
			if !present[col] {
				continue
			}
			if strings.TrimSpace(row[col]) == "" {
				missing[i] = true
				report.add(Issue{
					Category: MissingData,
					Table:    table,
					Rows:     []int{i + 1},
					Column:   col,
					Message:  fmt.Sprintf("%s row %d has no %s", table, i+1, col),
				})
			}
		}
	}
	return missing
}

// checkDuplicateIDs detects IDs appearing more than once (case-insensitive)
// and records one issue per duplicated ID naming every involved row. The
// returned slice flags each row that is part of a duplicate group.
func (v *Validator) checkDuplicateIDs(report *Report, table string, t *Table, idColumn string) []bool {
	duplicate := make([]bool, len(t.Rows))
	if !headerSet(t.Columns)[idColumn] {
		return duplicate
	}

	byID := make(map[string][]int)
	firstSeen := make(map[string]string)
	var order []string
	for i, row := range t.Rows {
		id := normalizeID(row[idColumn])
		if id == "" {
			continue
		}
		if len(byID[id]) == 0 {
			firstSeen[id] = strings.TrimSpace(row[idColumn])
			order = append(order, id)
		}
		byID[id] = append(byID[id], i+1)
	}

	for _, id := range order {
		rows := byID[id]
		if len(rows) < 2 {
			continue
		}
		for _, row := range rows {
			duplicate[row-1] = true
		}
		report.add(Issue{
			Category: DuplicateIDs,
			Table:    table,
			Rows:     rows,
			Column:   idColumn,
			Value:    firstSeen[id],
			Message:  fmt.Sprintf("duplicate %s %q in %s rows %s", idColumn, firstSeen[id], table, joinRows(rows)),
		})
	}
	return duplicate
}

func (v *Validator) checkBoolean(report *Report, table string, rowIdx int, column, value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		// Reported by checkMissingData.
		return true
	}
	if v.booleans[strings.ToLower(trimmed)] {
		return true
	}
	report.add(Issue{
		Category: InvalidData,
		Table:    table,
		Rows:     []int{rowIdx + 1},
		Column:   column,
		Value:    value,
		Message:  fmt.Sprintf("%s row %d has invalid %s %q", table, rowIdx+1, column, value),
	})
	return false
}

func (v *Validator) checkNumeric(report *Report, rowIdx int, value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return true
	}
	if _, err := decimal.NewFromString(trimmed); err != nil {
		report.add(Issue{
			Category: InvalidData,
			Table:    TableHistorical,
			Rows:     []int{rowIdx + 1},
			Column:   "Value",
			Value:    value,
			Message:  fmt.Sprintf("historical row %d has non-numeric Value %q", rowIdx+1, value),
		})
		return false
	}
	return true
}
