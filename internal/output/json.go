package output

import (
	"encoding/json"

	"github.com/namelens/expirywatch/internal/core"
)

// JSONFormatter renders the status view as JSON.
type JSONFormatter struct {
	Indent bool
	Emoji  string
}

// FormatSnapshot renders a snapshot as JSON.
func (f *JSONFormatter) FormatSnapshot(snapshot *core.Snapshot) (string, error) {
	if snapshot == nil {
		return "", nil
	}

	view := NewStatusView(snapshot, f.Emoji)

	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(view, "", "  ")
	} else {
		data, err = json.Marshal(view)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
