package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/namelens/expirywatch/internal/core"
)

// TableFormatter renders records as an ASCII table.
type TableFormatter struct {
	Emoji string
}

// FormatSnapshot renders a snapshot as a table.
func (f *TableFormatter) FormatSnapshot(snapshot *core.Snapshot) (string, error) {
	if snapshot == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Domain", "Expires", "Days", "Source", "Notes"})

	for _, record := range snapshot.Records {
		view := NewDomainView(record, f.Emoji)
		t.AppendRow(table.Row{
			record.Domain,
			expiresCell(view),
			daysCell(view),
			sourceCell(view),
			notesCell(record, f.Emoji),
		})
	}

	summary := fmt.Sprintf("%d domains, %d alerting", len(snapshot.Records), snapshot.AlertCount())
	t.AppendFooter(table.Row{"", "", "", "", summary})

	rendered := t.Render()
	if !snapshot.GeneratedAt.IsZero() {
		rendered += "\nupdated " + formatUpdated(snapshot.GeneratedAt)
	}
	return rendered, nil
}

func expiresCell(view DomainView) string {
	if view.ExpiresUS == nil {
		return "n/a"
	}
	return *view.ExpiresUS
}

func daysCell(view DomainView) string {
	if view.DaysLeft == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *view.DaysLeft)
}

func sourceCell(view DomainView) string {
	if view.Source == nil {
		return "-"
	}
	return *view.Source
}

func notesCell(record core.Record, emoji string) string {
	switch {
	case !record.Resolved():
		return record.ErrorReason
	case record.Alert:
		return alertMarker(emoji) + " expiring"
	default:
		return ""
	}
}
