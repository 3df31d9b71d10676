package output

import (
	"fmt"
	"strings"

	"github.com/namelens/expirywatch/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatFlat  Format = "flat"
)

// Formatter renders snapshots.
type Formatter interface {
	FormatSnapshot(snapshot *core.Snapshot) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	case string(FormatFlat):
		return FormatFlat, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format. emoji marks
// alerting records.
func NewFormatter(format Format, emoji string) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true, Emoji: emoji}
	case FormatYAML:
		return &YAMLFormatter{Emoji: emoji}
	case FormatFlat:
		return &FlatFormatter{Emoji: emoji}
	default:
		return &TableFormatter{Emoji: emoji}
	}
}

// FlatFormatter renders one line per record, soonest first.
type FlatFormatter struct {
	Emoji string
}

// FormatSnapshot renders snapshot as plain lines.
func (f *FlatFormatter) FormatSnapshot(snapshot *core.Snapshot) (string, error) {
	if snapshot == nil {
		return "", nil
	}
	flat := NewFlatLines(snapshot, f.Emoji)
	var b strings.Builder
	for _, line := range flat.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if flat.Updated != "" {
		b.WriteString("updated " + flat.Updated)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
