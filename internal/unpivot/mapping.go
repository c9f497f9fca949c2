package unpivot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MappingFormat selects how a tag id mapping file is decoded.
type MappingFormat string

// Supported mapping formats.
const (
	// FormatJSON is a flat JSON object of tag key name to id.
	FormatJSON MappingFormat = "json"
	// FormatYAML is a flat YAML mapping of tag key name to id.
	FormatYAML MappingFormat = "yaml"
	// FormatGCloud is the JSON list printed by
	// `gcloud resource-manager tags keys list --format=json`.
	FormatGCloud MappingFormat = "gcloud"
)

// gcloudKeyPrefix prefixes tag key resource names in gcloud output.
const gcloudKeyPrefix = "tagKeys/"

// ParseMappingFormat validates a format name. The empty string is accepted and
// means "detect from the file extension".
func ParseMappingFormat(s string) (MappingFormat, error) {
	switch f := MappingFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatJSON, FormatYAML, FormatGCloud:
		return f, nil
	default:
		return "", fmt.Errorf("unknown mapping format %q (expected json, yaml or gcloud)", s)
	}
}

// DetectMappingFormat picks a format from a file name.
func DetectMappingFormat(path string) MappingFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ReadMapping decodes a tag id mapping. Identifiers are opaque: numeric values
// keep their literal text.
func ReadMapping(r io.Reader, format MappingFormat) (TagIDMap, error) {
	switch format {
	case "", FormatJSON:
		return readJSONMapping(r)
	case FormatYAML:
		return readYAMLMapping(r)
	case FormatGCloud:
		return readGCloudMapping(r)
	default:
		return nil, fmt.Errorf("unknown mapping format %q", format)
	}
}

func readJSONMapping(r io.Reader) (TagIDMap, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, malformedMapping("file is empty", nil)
	}
	if err != nil {
		return nil, malformedMapping("invalid JSON", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, malformedMapping("expected a JSON object of tag name to tag id", nil)
	}

	m := make(TagIDMap)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, malformedMapping("invalid JSON", err)
		}
		key, _ := keyTok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, malformedMapping("invalid JSON", err)
		}

		if _, dup := m[key]; dup {
			return nil, malformedMapping(fmt.Sprintf("duplicate tag name %q", key), nil)
		}

		switch v := value.(type) {
		case string:
			m[key] = v
		case json.Number:
			m[key] = v.String()
		default:
			return nil, malformedMapping(fmt.Sprintf("tag id for %q must be a string or number, got %s", key, jsonKind(value)), nil)
		}
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, malformedMapping("invalid JSON", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformedMapping("unexpected data after the mapping object", nil)
	}

	return m, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func readYAMLMapping(r io.Reader) (TagIDMap, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, malformedMapping("file is empty", nil)
		}
		return nil, malformedMapping("invalid YAML", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, malformedMapping("expected a YAML mapping of tag name to tag id", nil)
	}

	m := make(TagIDMap, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, malformedMapping(fmt.Sprintf("line %d: tag name must be a scalar", k.Line), nil)
		}
		if _, dup := m[k.Value]; dup {
			return nil, malformedMapping(fmt.Sprintf("duplicate tag name %q", k.Value), nil)
		}
		if v.Kind != yaml.ScalarNode {
			return nil, malformedMapping(fmt.Sprintf("line %d: tag id for %q must be a scalar", v.Line, k.Value), nil)
		}
		switch v.ShortTag() {
		case "!!str", "!!int", "!!float":
			m[k.Value] = v.Value
		default:
			return nil, malformedMapping(fmt.Sprintf("line %d: tag id for %q must be a string or number, got %s",
				v.Line, k.Value, strings.TrimPrefix(v.ShortTag(), "!!")), nil)
		}
	}

	return m, nil
}

// gcloudTagKey is the subset of a gcloud tag key resource we read.
type gcloudTagKey struct {
	Name           string `json:"name"`
	ShortName      string `json:"shortName"`
	NamespacedName string `json:"namespacedName"`
}

func readGCloudMapping(r io.Reader) (TagIDMap, error) {
	var keys []gcloudTagKey
	if err := json.NewDecoder(r).Decode(&keys); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, malformedMapping("file is empty", nil)
		}
		return nil, malformedMapping("expected a JSON list of gcloud tag keys", err)
	}

	m := make(TagIDMap, len(keys))
	for i, k := range keys {
		if k.ShortName == "" {
			return nil, malformedMapping(fmt.Sprintf("tag key %d has no shortName", i+1), nil)
		}
		id := strings.TrimPrefix(k.Name, gcloudKeyPrefix)
		if id == "" {
			return nil, malformedMapping(fmt.Sprintf("tag key %q has no name", k.ShortName), nil)
		}
		if _, dup := m[k.ShortName]; dup {
			return nil, malformedMapping(fmt.Sprintf("duplicate tag name %q", k.ShortName), nil)
		}
		m[k.ShortName] = id
	}

	return m, nil
}
