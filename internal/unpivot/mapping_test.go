package unpivot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMapping_JSON(t *testing.T) {
	input := `{
		"Environment": "101",
		"Application": 102,
		"Directorate in BQ": 111222333444,
		"Ratio": 1.50
	}`

	m, err := ReadMapping(strings.NewReader(input), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, TagIDMap{
		"Environment":       "101",
		"Application":       "102",
		"Directorate in BQ": "111222333444",
		"Ratio":             "1.50",
	}, m)
}

func TestReadMapping_JSONEmptyObject(t *testing.T) {
	m, err := ReadMapping(strings.NewReader("{}"), FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestReadMapping_JSONErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		errSubstr string
	}{
		{name: "empty", input: "", errSubstr: "file is empty"},
		{name: "array", input: `["a", "b"]`, errSubstr: "expected a JSON object"},
		{name: "string", input: `"env"`, errSubstr: "expected a JSON object"},
		{name: "null value", input: `{"env": null}`, errSubstr: `tag id for "env" must be a string or number, got null`},
		{name: "bool value", input: `{"env": true}`, errSubstr: "got boolean"},
		{name: "nested object", input: `{"env": {"id": 1}}`, errSubstr: "got object"},
		{name: "array value", input: `{"env": [1]}`, errSubstr: "got array"},
		{name: "duplicate key", input: `{"env": "1", "env": "2"}`, errSubstr: `duplicate tag name "env"`},
		{name: "trailing data", input: `{"env": "1"} {"x": "2"}`, errSubstr: "unexpected data after the mapping object"},
		{name: "truncated", input: `{"env": "1"`, errSubstr: "invalid JSON"},
		{name: "syntax", input: `{env: 1}`, errSubstr: "invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMapping(strings.NewReader(tt.input), FormatJSON)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedInput)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestReadMapping_YAML(t *testing.T) {
	input := `
Environment: "101"
Application: 102
billing-account: 123123123123
"UII | Investment code": abc-456
`
	m, err := ReadMapping(strings.NewReader(input), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, TagIDMap{
		"Environment":           "101",
		"Application":           "102",
		"billing-account":       "123123123123",
		"UII | Investment code": "abc-456",
	}, m)
}

func TestReadMapping_YAMLErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		errSubstr string
	}{
		{name: "empty", input: "", errSubstr: "file is empty"},
		{name: "sequence", input: "- a\n- b\n", errSubstr: "expected a YAML mapping"},
		{name: "null value", input: "env:\n", errSubstr: "got null"},
		{name: "bool value", input: "env: true\n", errSubstr: "got bool"},
		{name: "nested", input: "env:\n  id: 1\n", errSubstr: `tag id for "env" must be a scalar`},
		{name: "duplicate", input: "env: 1\nteam: 2\nenv: 3\n", errSubstr: `duplicate tag name "env"`},
		{name: "invalid", input: "env: [1\n", errSubstr: "invalid YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMapping(strings.NewReader(tt.input), FormatYAML)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedInput)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestReadMapping_GCloud(t *testing.T) {
	input := `[
  {
    "createTime": "2024-01-10T12:00:00.000Z",
    "name": "tagKeys/777888999000",
    "namespacedName": "123456/environment",
    "parent": "organizations/123456",
    "shortName": "environment"
  },
  {
    "name": "tagKeys/444555666777",
    "namespacedName": "123456/directorate",
    "parent": "organizations/123456",
    "shortName": "directorate"
  }
]`

	m, err := ReadMapping(strings.NewReader(input), FormatGCloud)
	require.NoError(t, err)

	assert.Equal(t, TagIDMap{
		"environment": "777888999000",
		"directorate": "444555666777",
	}, m)
}

func TestReadMapping_GCloudErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		errSubstr string
	}{
		{name: "empty", input: "", errSubstr: "file is empty"},
		{name: "object", input: `{"env": "1"}`, errSubstr: "expected a JSON list of gcloud tag keys"},
		{name: "no short name", input: `[{"name": "tagKeys/1"}]`, errSubstr: "tag key 1 has no shortName"},
		{name: "no name", input: `[{"shortName": "env"}]`, errSubstr: `tag key "env" has no name`},
		{
			name:      "duplicate",
			input:     `[{"name": "tagKeys/1", "shortName": "env"}, {"name": "tagKeys/2", "shortName": "env"}]`,
			errSubstr: `duplicate tag name "env"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMapping(strings.NewReader(tt.input), FormatGCloud)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedInput)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestReadMapping_UnknownFormat(t *testing.T) {
	_, err := ReadMapping(strings.NewReader("{}"), MappingFormat("toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mapping format")
}

func TestParseMappingFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    MappingFormat
		wantErr bool
	}{
		{in: "", want: ""},
		{in: "json", want: FormatJSON},
		{in: " YAML ", want: FormatYAML},
		{in: "gcloud", want: FormatGCloud},
		{in: "csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMappingFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectMappingFormat(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectMappingFormat("tags.yaml"))
	assert.Equal(t, FormatYAML, DetectMappingFormat("dir/TAGS.YML"))
	assert.Equal(t, FormatJSON, DetectMappingFormat("tags.json"))
	assert.Equal(t, FormatJSON, DetectMappingFormat("mapping"))
}
