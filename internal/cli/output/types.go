package output

import "github.com/leapstack-labs/tagpivot/internal/unpivot"

// RunOutput is the JSON shape of a completed run.
type RunOutput struct {
	RunID      string        `json:"run_id"`
	Status     string        `json:"status"`
	Input      string        `json:"input"`
	Mapping    string        `json:"mapping"`
	Output     string        `json:"output,omitempty"`
	Stats      unpivot.Stats `json:"stats"`
	DurationMS int64         `json:"duration_ms"`
	Error      string        `json:"error,omitempty"`
	Timestamp  string        `json:"timestamp"`
}

// CheckOutput is the JSON shape of a mapping check.
type CheckOutput struct {
	OK               bool     `json:"ok"`
	Input            string   `json:"input"`
	Mapping          string   `json:"mapping"`
	IdentifierColumn string   `json:"identifier_column"`
	TagKeys          []string `json:"tag_keys"`
	MappedKeys       int      `json:"mapped_keys"`
	Missing          []string `json:"missing"`
	Rows             int      `json:"rows"`
}

// PreviewOutput is the JSON shape of a preview.
type PreviewOutput struct {
	Rows  []unpivot.OutputRow `json:"rows"`
	Shown int                 `json:"shown"`
	Total int                 `json:"total"`
	Stats unpivot.Stats       `json:"stats"`
}
