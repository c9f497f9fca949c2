package unpivot

import (
	"encoding/csv"
	"fmt"
	"io"
)

// DefaultOutputFile is the conventional name of the long-format output.
const DefaultOutputFile = "transformed_output.csv"

var outputHeader = []string{"tagkey_id_number", "tagkey_name", "tagvalue_short_name", "project_number"}

// Header returns the output CSV header.
func Header() []string {
	h := make([]string, len(outputHeader))
	copy(h, outputHeader)
	return h
}

// WriteRows writes the header followed by one CSV record per row.
func WriteRows(w io.Writer, rows []OutputRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(outputHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row.Record()); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
