package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rediqcli/internal/archive"
	"rediqcli/internal/bulkdata"
	"rediqcli/internal/config"
)

// writeFixtureArchive builds an input archive with the given number of
// properties, one line item per property modulo 3, and one history row each.
func writeFixtureArchive(t *testing.T, dir string, properties int) string {
	t.Helper()

	props := &bulkdata.Table{Columns: []string{"EntityId", "DealName"}}
	for i := 1; i <= properties; i++ {
		props.Rows = append(props.Rows, bulkdata.Row{
			"EntityId": fmt.Sprintf("P%d", i),
			"DealName": fmt.Sprintf("Deal %d", i),
		})
	}

	items := &bulkdata.Table{Columns: []string{"LineItemId", "LineItemDescription", "redIQChartOfAccount", "IsExpenseAccount"}}
	for i := 1; i <= 3; i++ {
		items.Rows = append(items.Rows, bulkdata.Row{
			"LineItemId":          fmt.Sprintf("L%d", i),
			"LineItemDescription": fmt.Sprintf("Line item %d", i),
			"redIQChartOfAccount": "4000",
			"IsExpenseAccount":    "false",
		})
	}

	history := &bulkdata.Table{Columns: []string{"EntityId", "LineItemId", "Date", "IsAnnual", "Value"}}
	for i := 1; i <= properties; i++ {
		history.Rows = append(history.Rows, bulkdata.Row{
			"EntityId":   fmt.Sprintf("P%d", i),
			"LineItemId": fmt.Sprintf("L%d", i%3+1),
			"Date":       "2020-01-01",
			"IsAnnual":   "true",
			"Value":      "250.75",
		})
	}

	ds := &bulkdata.Dataset{Properties: props, LineItems: items, History: history}
	path := filepath.Join(dir, "input.zip")
	require.NoError(t, archive.Write(path, ds, time.Now(), "20060102"))
	return path
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		positional  int
		wantPos     []string
		wantDir     string
		expectError bool
	}{
		{
			name:       "flags before positionals",
			args:       []string{"--output_dir", "out", "in.zip", "batch", "4"},
			positional: 3,
			wantPos:    []string{"in.zip", "batch", "4"},
			wantDir:    "out",
		},
		{
			name:       "flags after positionals",
			args:       []string{"in.zip", "batch", "4", "--output_dir", "out"},
			positional: 3,
			wantPos:    []string{"in.zip", "batch", "4"},
			wantDir:    "out",
		},
		{
			name:       "no flags",
			args:       []string{"in.zip", "batch", "4"},
			positional: 3,
			wantPos:    []string{"in.zip", "batch", "4"},
			wantDir:    ".",
		},
		{
			name:        "too few arguments",
			args:        []string{"in.zip"},
			positional:  3,
			expectError: true,
		},
		{
			name:        "trailing garbage",
			args:        []string{"in.zip", "batch", "4", "extra"},
			positional:  3,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("split", flag.ContinueOnError)
			outputDir := fs.String("output_dir", ".", "")

			pos, err := parseArgs(fs, tt.args, tt.positional)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPos, pos)
			assert.Equal(t, tt.wantDir, *outputDir)
		})
	}
}

func TestRunValidateCleanArchive(t *testing.T) {
	dir := t.TempDir()
	input := writeFixtureArchive(t, dir, 5)

	err := runValidate([]string{input}, config.Default(), testLogger())
	assert.NoError(t, err)
}

func TestRunValidateReportsIssues(t *testing.T) {
	dir := t.TempDir()

	ds := &bulkdata.Dataset{
		Properties: &bulkdata.Table{
			Columns: []string{"EntityId", "DealName"},
			Rows: []bulkdata.Row{
				{"EntityId": "P1", "DealName": "Alpha"},
				{"EntityId": "p1", "DealName": "Alpha again"},
			},
		},
		LineItems: &bulkdata.Table{Columns: []string{"LineItemId", "LineItemDescription", "redIQChartOfAccount", "IsExpenseAccount"}},
		History:   &bulkdata.Table{Columns: []string{"EntityId", "LineItemId", "Date", "IsAnnual", "Value"}},
	}
	input := filepath.Join(dir, "input.zip")
	require.NoError(t, archive.Write(input, ds, time.Now(), "20060102"))

	err := runValidate([]string{input}, config.Default(), testLogger())
	assert.ErrorContains(t, err, "validation failed with 1 issues")
}

func TestRunValidateExportsReport(t *testing.T) {
	dir := t.TempDir()
	input := writeFixtureArchive(t, dir, 5)
	reportPath := filepath.Join(dir, "report.csv")

	err := runValidate([]string{"--report", reportPath, input}, config.Default(), testLogger())
	require.NoError(t, err)

	_, statErr := os.Stat(reportPath)
	assert.NoError(t, statErr)
}

func TestRunValidateMissingArchive(t *testing.T) {
	err := runValidate([]string{filepath.Join(t.TempDir(), "absent.zip")}, config.Default(), testLogger())
	assert.ErrorContains(t, err, "does not exist")
}

func TestRunSubset(t *testing.T) {
	dir := t.TempDir()
	input := writeFixtureArchive(t, dir, 10)
	output := filepath.Join(dir, "subset.zip")

	err := runSubset([]string{input, output, "3"}, config.Default(), testLogger())
	require.NoError(t, err)

	ds, err := archive.Read(output)
	require.NoError(t, err)
	require.Len(t, ds.Properties.Rows, 3)
	assert.Equal(t, "P1", ds.Properties.Rows[0]["EntityId"])
	assert.Equal(t, "P3", ds.Properties.Rows[2]["EntityId"])
	assert.Len(t, ds.History.Rows, 3)
	// P1..P3 reference L2, L3, L1.
	assert.Len(t, ds.LineItems.Rows, 3)
}

func TestRunSubsetInvalidCount(t *testing.T) {
	dir := t.TempDir()
	input := writeFixtureArchive(t, dir, 10)
	output := filepath.Join(dir, "subset.zip")

	err := runSubset([]string{input, output, "11"}, config.Default(), testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, bulkdata.ErrInvalidCount)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no output expected on a fatal path")
}

func TestRunSubsetBadCountArgument(t *testing.T) {
	dir := t.TempDir()
	input := writeFixtureArchive(t, dir, 2)

	err := runSubset([]string{input, filepath.Join(dir, "out.zip"), "many"}, config.Default(), testLogger())
	assert.ErrorContains(t, err, "invalid num_properties")
}

func TestRunSplit(t *testing.T) {
	dir := t.TempDir()
	input := writeFixtureArchive(t, dir, 10)
	outDir := filepath.Join(dir, "batches")

	err := runSplit([]string{input, "batch", "4", "--output_dir", outDir}, config.Default(), testLogger())
	require.NoError(t, err)

	wantCounts := []int{4, 4, 2}
	var allProperties []string
	for i, want := range wantCounts {
		path := filepath.Join(outDir, fmt.Sprintf("batch_%d.zip", i+1))
		ds, err := archive.Read(path)
		require.NoError(t, err, "archive %d", i+1)
		assert.Len(t, ds.Properties.Rows, want)
		for _, row := range ds.Properties.Rows {
			allProperties = append(allProperties, row["EntityId"])
		}
	}

	// Concatenated batches reproduce the original property order.
	var want []string
	for i := 1; i <= 10; i++ {
		want = append(want, fmt.Sprintf("P%d", i))
	}
	assert.Equal(t, want, allProperties)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRunSplitInvalidBatchSize(t *testing.T) {
	dir := t.TempDir()
	input := writeFixtureArchive(t, dir, 4)

	err := runSplit([]string{input, "batch", "0", "--output_dir", filepath.Join(dir, "out")}, config.Default(), testLogger())
	assert.ErrorIs(t, err, bulkdata.ErrInvalidBatchSize)
}
