package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"inventorydash/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes a header row with the column names followed by one line per
// record. No index column is written.
func WriteCSV(w io.Writer, columns []models.Column, rows []models.OrderRecord, opts WriteOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if err := writer.Write(models.ColumnNames(columns)); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, r := range rows {
		if err := writer.Write(r.Row(columns)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
