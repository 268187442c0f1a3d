package exporter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the file format of an export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned by ParseFormat for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat maps user input to a Format. Empty input means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName replaces the extension of base with the one of f.
// "filtered_inventory.csv" becomes "filtered_inventory.xlsx" for FormatXLSX.
func FileName(base string, f Format) string {
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		name = "export"
	}
	return name + "." + string(f)
}
