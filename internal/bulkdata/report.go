package bulkdata

import (
	"strconv"
	"strings"
)

// IssueCategory identifies a class of validation finding.
type IssueCategory string

const (
	MissingColumns   IssueCategory = "missing_columns"
	MissingData      IssueCategory = "missing_data"
	DuplicateIDs     IssueCategory = "duplicate_ids"
	InvalidData      IssueCategory = "invalid_data"
	InvalidReference IssueCategory = "invalid_reference"
	DuplicateHistory IssueCategory = "duplicate_history"
)

// Issue is one validation finding. Rows are 1-based data row numbers (the
// header row is not counted); duplicate findings list every involved row.
type Issue struct {
	Category IssueCategory
	Table    string
	Rows     []int
	Column   string
	Value    string
	Message  string
}

// RowList renders the involved row numbers as "3, 7".
func (i Issue) RowList() string {
	return joinRows(i.Rows)
}

// Counts aggregates table statistics for a validation run.
type Counts struct {
	TotalProperties          int
	ValidProperties          int
	TotalLineItems           int
	ValidLineItems           int
	TotalHistoryEntries      int
	ValidHistoryEntries      int
	PropertiesWithHistory    int
	PropertiesWithoutHistory int
	LineItemsWithHistory     int
	LineItemsWithoutHistory  int
}

// SummaryRows returns the counts as label/value pairs in display order, shared
// by the stdout report and the exported report formats.
func (c Counts) SummaryRows() [][]string {
	return [][]string{
		{"Total properties", strconv.Itoa(c.TotalProperties)},
		{"Valid properties", strconv.Itoa(c.ValidProperties)},
		{"Total line items", strconv.Itoa(c.TotalLineItems)},
		{"Valid line items", strconv.Itoa(c.ValidLineItems)},
		{"Total history entries", strconv.Itoa(c.TotalHistoryEntries)},
		{"Valid history entries", strconv.Itoa(c.ValidHistoryEntries)},
		{"Properties with history", strconv.Itoa(c.PropertiesWithHistory)},
		{"Properties without history", strconv.Itoa(c.PropertiesWithoutHistory)},
		{"Line items with history", strconv.Itoa(c.LineItemsWithHistory)},
		{"Line items without history", strconv.Itoa(c.LineItemsWithoutHistory)},
	}
}

// Report carries every validation finding plus the aggregate counts.
// Findings never abort a run; fatal errors are reserved for I/O failures.
type Report struct {
	Issues []Issue
	Counts Counts
}

func (r *Report) add(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

// HasIssues reports whether any finding was recorded.
func (r *Report) HasIssues() bool {
	return len(r.Issues) > 0
}

// ByCategory returns the findings of one category, in recorded order.
func (r *Report) ByCategory(category IssueCategory) []Issue {
	var issues []Issue
	for _, issue := range r.Issues {
		if issue.Category == category {
			issues = append(issues, issue)
		}
	}
	return issues
}

func joinRows(rows []int) string {
	parts := make([]string, len(rows))
	for i, row := range rows {
		parts[i] = strconv.Itoa(row)
	}
	return strings.Join(parts, ", ")
}
