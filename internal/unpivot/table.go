package unpivot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// utf8BOM is prepended to the first header by some spreadsheet exports.
const utf8BOM = "\ufeff"

// SourceTable is a wide-format table. Headers[0] names the project identifier
// column and the remaining headers are tag key names.
type SourceTable struct {
	Headers []string
	Rows    [][]string
}

// ReadOptions controls how a source table is parsed.
type ReadOptions struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter rune
	// ExpectIDColumn, when set, must equal the first header.
	ExpectIDColumn string
}

// NewSourceTable builds a table from a header row and data rows, rejecting
// headers that would make the tag key columns ambiguous. Tag columns with a
// blank header are allowed; they carry no tag key and are never emitted.
func NewSourceTable(headers []string, rows ...[]string) (*SourceTable, error) {
	if len(headers) == 0 {
		return nil, malformedTable("table has no columns", nil)
	}
	if isBlankHeader(headers[0]) {
		return nil, malformedTable("identifier column has a blank header", nil)
	}

	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		if isBlankHeader(h) {
			continue
		}
		if prev, ok := seen[h]; ok {
			return nil, malformedTable(fmt.Sprintf("duplicate header %q in columns %d and %d", h, prev+1, i+1), nil)
		}
		seen[h] = i
	}

	return &SourceTable{Headers: headers, Rows: rows}, nil
}

// ReadTable parses CSV data with a required header row. Rows may be shorter or
// longer than the header; absent cells read as empty and extra cells are ignored.
func ReadTable(r io.Reader, opts ReadOptions) (*SourceTable, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, malformedTable("file is empty or has no header row", nil)
	}
	if err != nil {
		return nil, malformedTable("invalid header row", err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformedTable("invalid record", err)
		}
		rows = append(rows, rec)
	}

	t, err := NewSourceTable(header, rows...)
	if err != nil {
		return nil, err
	}

	if opts.ExpectIDColumn != "" && t.IdentifierColumn() != opts.ExpectIDColumn {
		return nil, malformedTable(fmt.Sprintf("first column is %q, expected identifier column %q",
			t.IdentifierColumn(), opts.ExpectIDColumn), nil)
	}

	return t, nil
}

// IdentifierColumn returns the name of the project identifier column.
func (t *SourceTable) IdentifierColumn() string {
	if len(t.Headers) == 0 {
		return ""
	}
	return t.Headers[0]
}

// TagKeys returns the tag key column names in column order. Blank headers
// are left out.
func (t *SourceTable) TagKeys() []string {
	var keys []string
	for i := 1; i < len(t.Headers); i++ {
		if !isBlankHeader(t.Headers[i]) {
			keys = append(keys, t.Headers[i])
		}
	}
	return keys
}

func isBlankHeader(h string) bool {
	return strings.TrimSpace(h) == ""
}

// Len returns the number of data rows.
func (t *SourceTable) Len() int { return len(t.Rows) }

// Value returns the cell at (row, col), or "" when the row is too short.
func (t *SourceTable) Value(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	rec := t.Rows[row]
	if col < 0 || col >= len(rec) {
		return ""
	}
	return rec[col]
}

// Row returns a copy of row i sized to the header width. Absent cells are ""
// and cells past the last header are dropped.
func (t *SourceTable) Row(i int) []string {
	rec := make([]string, len(t.Headers))
	for j := range rec {
		rec[j] = t.Value(i, j)
	}
	return rec
}
