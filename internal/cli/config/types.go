// Package config provides configuration management for the tagpivot CLI.
//
// Configuration is layered, lowest to highest precedence: built-in defaults,
// a tagpivot.yaml file, TAGPIVOT_* environment variables, and command-line
// flags that were explicitly set.
package config

import "github.com/leapstack-labs/tagpivot/internal/unpivot"

// Config holds all CLI configuration options.
type Config struct {
	InputPath     string `koanf:"input"`
	MappingPath   string `koanf:"mapping"`
	OutputPath    string `koanf:"out"`
	MappingFormat string `koanf:"mapping_format"`
	Delimiter     rune   `koanf:"delimiter"`
	IDColumn      string `koanf:"id_column"`
	TrimValues    bool   `koanf:"trim_values"`
	Verbose       bool   `koanf:"verbose"`
	OutputFormat  string `koanf:"output"`
	LogLevel      string `koanf:"log_level"`
	LogFormat     string `koanf:"log_format"`
}

// Default configuration values.
const (
	DefaultOutputPath = unpivot.DefaultOutputFile
	DefaultDelimiter  = ","
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel   = "warn"
	DefaultLogFormat  = "text"
	DefaultIDColumn   = "" // any first column is accepted
	EnvPrefix         = "TAGPIVOT_"
)

// configFileNames are searched, in order, in the working directory.
var configFileNames = []string{"tagpivot.yaml", "tagpivot.yml", ".tagpivot.yaml"}

// pathKeys are config keys holding file paths. Relative values read from a
// config file are resolved against that file's directory.
var pathKeys = []string{"input", "mapping", "out"}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		OutputPath:   DefaultOutputPath,
		Delimiter:    ',',
		IDColumn:     DefaultIDColumn,
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
	}
}
