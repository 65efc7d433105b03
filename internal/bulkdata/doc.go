// Package bulkdata models redIQ bulk upload archives and implements the
// operations over them.
//
// A bulk upload bundles three tab-separated tables: properties, line items
// and historical values. History rows reference a property by EntityId and a
// line item by LineItemId; both IDs are unique case-insensitively within
// their tables.
//
// The package contains three main components:
//
// Table/Dataset: ordered row records keyed by column name. Every column is
// preserved verbatim, so unknown columns pass through untouched and output
// keeps the input's column order and casing.
//
// Validator: produces a Report of per-category findings (missing columns,
// missing data, duplicate IDs, invalid data, invalid references, duplicate
// history tuples) plus aggregate counts. Findings never abort a run.
//
// Subset/SplitBatches: referentially consistent extraction of the first N
// properties, or of consecutive fixed-size batches, together with only the
// line items and history rows reachable from the chosen properties.
package bulkdata
