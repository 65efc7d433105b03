// Package archive reads and writes bulk upload zip archives: three
// tab-separated members named property_YYYYMMDD.txt, lineItems_YYYYMMDD.txt
// and historical_YYYYMMDD.txt. The date stamp carries no meaning for the
// tool; members are matched by pattern.
package archive

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"rediqcli/internal/bulkdata"
)

var (
	propertyPattern   = regexp.MustCompile(`^property_\d{8}\.txt$`)
	lineItemsPattern  = regexp.MustCompile(`^lineItems_\d{8}\.txt$`)
	historicalPattern = regexp.MustCompile(`^historical_\d{8}\.txt$`)
)

// MissingMemberError reports required archive members that were not found.
type MissingMemberError struct {
	Members []string
}

func (e *MissingMemberError) Error() string {
	return fmt.Sprintf("archive missing required files: %s", strings.Join(e.Members, ", "))
}

// Read opens a bulk upload archive and loads its three tables.
func Read(path string) (*bulkdata.Dataset, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	defer reader.Close()

	var propertyFile, lineItemsFile, historicalFile *zip.File
	for _, f := range reader.File {
		switch {
		case propertyPattern.MatchString(f.Name):
			propertyFile = f
		case lineItemsPattern.MatchString(f.Name):
			lineItemsFile = f
		case historicalPattern.MatchString(f.Name):
			historicalFile = f
		}
	}

	var missing []string
	if propertyFile == nil {
		missing = append(missing, "property file")
	}
	if lineItemsFile == nil {
		missing = append(missing, "line items file")
	}
	if historicalFile == nil {
		missing = append(missing, "historical file")
	}
	if len(missing) > 0 {
		return nil, &MissingMemberError{Members: missing}
	}

	properties, err := loadMember(propertyFile)
	if err != nil {
		return nil, err
	}
	lineItems, err := loadMember(lineItemsFile)
	if err != nil {
		return nil, err
	}
	history, err := loadMember(historicalFile)
	if err != nil {
		return nil, err
	}

	return &bulkdata.Dataset{
		Properties: properties,
		LineItems:  lineItems,
		History:    history,
	}, nil
}

func loadMember(f *zip.File) (*bulkdata.Table, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open archive member %s: %w", f.Name, err)
	}
	defer rc.Close()

	table, err := bulkdata.LoadTable(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.Name, err)
	}
	return table, nil
}

// Write creates a bulk upload archive at path, members date-stamped with the
// given date. The archive is built in a temp file and renamed into place, so
// a failed write leaves no partial output behind.
func Write(path string, ds *bulkdata.Dataset, date time.Time, dateFormat string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".bulkupload-*.zip")
	if err != nil {
		return fmt.Errorf("failed to create temp archive: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	stamp := date.Format(dateFormat)
	writer := zip.NewWriter(tmp)
	members := []struct {
		name  string
		table *bulkdata.Table
	}{
		{fmt.Sprintf("property_%s.txt", stamp), ds.Properties},
		{fmt.Sprintf("lineItems_%s.txt", stamp), ds.LineItems},
		{fmt.Sprintf("historical_%s.txt", stamp), ds.History},
	}
	for _, m := range members {
		w, createErr := writer.Create(m.name)
		if createErr != nil {
			return fmt.Errorf("failed to create archive member %s: %w", m.name, createErr)
		}
		if writeErr := m.table.WriteTo(w); writeErr != nil {
			return fmt.Errorf("failed to write archive member %s: %w", m.name, writeErr)
		}
	}
	if err = writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp archive: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move archive into place: %w", err)
	}
	return nil
}
