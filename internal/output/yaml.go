package output

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/namelens/expirywatch/internal/core"
)

// YAMLFormatter renders the status view as YAML.
type YAMLFormatter struct {
	Emoji string
}

// FormatSnapshot renders a snapshot as YAML.
func (f *YAMLFormatter) FormatSnapshot(snapshot *core.Snapshot) (string, error) {
	if snapshot == nil {
		return "", nil
	}

	var b strings.Builder
	encoder := yaml.NewEncoder(&b)
	encoder.SetIndent(2)
	if err := encoder.Encode(NewStatusView(snapshot, f.Emoji)); err != nil {
		return "", err
	}
	if err := encoder.Close(); err != nil {
		return "", err
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
