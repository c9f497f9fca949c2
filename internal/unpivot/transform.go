// Package unpivot turns a wide project/tag table into long-format tag rows.
//
// A source table has one row per project and one column per tag key. Each
// non-empty tag cell becomes one OutputRow carrying the tag key's identifier
// from a TagIDMap. Rows are emitted in row-major order: project by project,
// then column by column within a project.
package unpivot

import (
	"fmt"
	"sort"
	"strings"
)

// TagIDMap maps a tag key name to its tag key identifier.
type TagIDMap map[string]string

// Lookup returns the identifier for a tag key name.
func (m TagIDMap) Lookup(name string) (string, bool) {
	id, ok := m[name]
	return id, ok
}

// Keys returns the mapped tag key names in sorted order.
func (m TagIDMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// OutputRow is one tag assignment in long format.
type OutputRow struct {
	TagKeyID      string `json:"tagkey_id_number"`
	TagKeyName    string `json:"tagkey_name"`
	TagValue      string `json:"tagvalue_short_name"`
	ProjectNumber string `json:"project_number"`
}

// Record returns the row as CSV fields in output column order.
func (r OutputRow) Record() []string {
	return []string{r.TagKeyID, r.TagKeyName, r.TagValue, r.ProjectNumber}
}

// Stats summarizes a transform.
type Stats struct {
	SourceRows       int `json:"source_rows"`
	SkippedBlankRows int `json:"skipped_blank_rows"`
	SkippedNoProject int `json:"skipped_no_project"`
	EmptyCells       int `json:"empty_cells"`
	EmittedRows      int `json:"emitted_rows"`
	TagKeys          int `json:"tag_keys"`
}

// Result holds the rows produced by a transform together with its stats.
type Result struct {
	Rows  []OutputRow
	Stats Stats
}

type options struct {
	trimValues bool
}

// Option configures a transform.
type Option func(*options)

// WithTrimValues trims surrounding whitespace from emitted tag values.
// By default values are emitted exactly as read.
func WithTrimValues(trim bool) Option {
	return func(o *options) { o.trimValues = trim }
}

// MissingMappings returns the tag key columns of table that have no entry in
// mapping, in column order.
func MissingMappings(table *SourceTable, mapping TagIDMap) []string {
	var missing []string
	for _, name := range table.TagKeys() {
		if _, ok := mapping[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Transform unpivots table using mapping. It fails with a
// *MissingTagMappingError, and returns no rows, if any tag key column is
// absent from mapping.
func Transform(table *SourceTable, mapping TagIDMap, opts ...Option) ([]OutputRow, error) {
	res, err := TransformWithStats(table, mapping, opts...)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// TransformWithStats is Transform with skip and emit counters.
func TransformWithStats(table *SourceTable, mapping TagIDMap, opts ...Option) (*Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if table == nil || len(table.Headers) == 0 {
		return nil, malformedTable("table has no columns", nil)
	}

	if missing := MissingMappings(table, mapping); len(missing) > 0 {
		return nil, &MissingTagMappingError{Missing: missing}
	}

	tagKeys := table.TagKeys()
	res := &Result{
		Rows: make([]OutputRow, 0, len(table.Rows)*len(tagKeys)/2),
		Stats: Stats{
			SourceRows: len(table.Rows),
			TagKeys:    len(tagKeys),
		},
	}

	for i := range table.Rows {
		if isBlankRow(table.Rows[i]) {
			res.Stats.SkippedBlankRows++
			continue
		}

		project := table.Value(i, 0)
		if strings.TrimSpace(project) == "" {
			res.Stats.SkippedNoProject++
			continue
		}

		for col := 1; col < len(table.Headers); col++ {
			name := table.Headers[col]
			value := table.Value(i, col)
			if isBlankHeader(name) {
				if strings.TrimSpace(value) != "" {
					return nil, malformedTable(fmt.Sprintf("row %d has value %q in column %d, which has no header", i+1, value, col+1), nil)
				}
				continue
			}
			if strings.TrimSpace(value) == "" {
				res.Stats.EmptyCells++
				continue
			}
			if o.trimValues {
				value = strings.TrimSpace(value)
			}
			res.Rows = append(res.Rows, OutputRow{
				TagKeyID:      mapping[name],
				TagKeyName:    name,
				TagValue:      value,
				ProjectNumber: project,
			})
		}
	}

	res.Stats.EmittedRows = len(res.Rows)
	return res, nil
}

func isBlankRow(rec []string) bool {
	for _, field := range rec {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
