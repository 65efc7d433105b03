package bulkdata

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTable(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectError bool
		wantColumns []string
		wantRows    int
	}{
		{
			name:        "basic table",
			input:       "EntityId\tDealName\nP1\tAlpha Apartments\nP2\tBeta Lofts\n",
			wantColumns: []string{"EntityId", "DealName"},
			wantRows:    2,
		},
		{
			name:        "header only",
			input:       "EntityId\tDealName\n",
			wantColumns: []string{"EntityId", "DealName"},
			wantRows:    0,
		},
		{
			name:        "extra columns preserved",
			input:       "EntityId\tDealName\tRegion\nP1\tAlpha\tWest\n",
			wantColumns: []string{"EntityId", "DealName", "Region"},
			wantRows:    1,
		},
		{
			name:        "UTF-8 BOM stripped from header",
			input:       "\ufeffEntityId\tDealName\nP1\tAlpha\n",
			wantColumns: []string{"EntityId", "DealName"},
			wantRows:    1,
		},
		{
			name:        "empty input",
			input:       "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := LoadTable(strings.NewReader(tt.input))
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantColumns, table.Columns)
			assert.Len(t, table.Rows, tt.wantRows)
		})
	}
}

func TestLoadTableShortRowsPadded(t *testing.T) {
	table, err := LoadTable(strings.NewReader("EntityId\tDealName\tRegion\nP1\tAlpha\n"))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "P1", table.Rows[0]["EntityId"])
	assert.Equal(t, "Alpha", table.Rows[0]["DealName"])
	assert.Equal(t, "", table.Rows[0]["Region"])
}

func TestMissingColumns(t *testing.T) {
	table, err := LoadTable(strings.NewReader("EntityId\tRegion\nP1\tWest\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"DealName"}, table.MissingColumns(RequiredPropertyColumns))
	assert.Empty(t, table.MissingColumns([]string{"EntityId"}))

	err = table.RequireColumns(TableProperty, RequiredPropertyColumns)
	require.Error(t, err)
	var missingErr *MissingColumnsError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, TableProperty, missingErr.Table)
	assert.Equal(t, []string{"DealName"}, missingErr.Columns)
}

func TestWriteTo(t *testing.T) {
	table, err := LoadTable(strings.NewReader("EntityId\tDealName\tRegion\nP1\tAlpha\tWest\nP2\tBeta\tEast\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, table.WriteTo(&buf))
	assert.Equal(t, "EntityId\tDealName\tRegion\nP1\tAlpha\tWest\nP2\tBeta\tEast\n", buf.String())
}

func TestWriteToKeepsHeaderForEmptyTable(t *testing.T) {
	table := &Table{Columns: []string{"EntityId", "DealName"}}

	var buf bytes.Buffer
	require.NoError(t, table.WriteTo(&buf))
	assert.Equal(t, "EntityId\tDealName\n", buf.String())
}

func TestWriteToRoundTrip(t *testing.T) {
	input := "EntityId\tDealName\nABC123\tAlpha Apartments\nxyz9\tBeta Lofts\n"
	table, err := LoadTable(strings.NewReader(input))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, table.WriteTo(&buf))

	again, err := LoadTable(&buf)
	require.NoError(t, err)
	assert.Equal(t, table.Columns, again.Columns)
	assert.Equal(t, table.Rows, again.Rows)
}
