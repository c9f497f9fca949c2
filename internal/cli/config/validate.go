package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/tagpivot/internal/unpivot"
)

var (
	validOutputFormats = []string{"auto", "text", "markdown", "md", "json"}
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validLogFormats    = []string{"text", "json"}
)

// Validate checks if the configuration is valid. Input and mapping paths are
// not required here so that help and version work without them.
func (c *Config) Validate() error {
	if !contains(validOutputFormats, strings.ToLower(strings.TrimSpace(c.OutputFormat))) {
		return fmt.Errorf("invalid output format %q (expected %s)", c.OutputFormat, strings.Join(validOutputFormats, "|"))
	}
	if !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log level %q (expected %s)", c.LogLevel, strings.Join(validLogLevels, "|"))
	}
	if !contains(validLogFormats, strings.ToLower(c.LogFormat)) {
		return fmt.Errorf("invalid log format %q (expected %s)", c.LogFormat, strings.Join(validLogFormats, "|"))
	}
	if _, err := unpivot.ParseMappingFormat(c.MappingFormat); err != nil {
		return err
	}
	switch c.Delimiter {
	case 0, '"', '\r', '\n':
		return fmt.Errorf("invalid delimiter %q", c.Delimiter)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
