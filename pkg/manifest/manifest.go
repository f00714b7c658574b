// Package manifest renders ingestion run reports for the console and writes
// them to the report directory.
package manifest

import (
	"fmt"
	"strings"
)

// Output formats accepted by Render.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists every supported output format.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML}
}

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(s))
	if f == "" {
		return FormatText, nil
	}
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of %s)", s, strings.Join(Formats(), ", "))
}
