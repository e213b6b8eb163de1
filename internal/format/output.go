// Package format writes command results for humans or scripts.
package format

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table is a value with a tabular text rendering.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Tabular values print as a table in text format.
type Tabular interface {
	Table() Table
}

// Write writes v in the requested format.
//
// Supported formats:
// - json (default)
// - text
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "text":
		return WriteText(w, v)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON, one document per call.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteText prints strings as is and tabular values as a table. Anything else
// falls back to indented JSON.
func WriteText(w io.Writer, v any) error {
	switch x := v.(type) {
	case string:
		_, err := fmt.Fprintln(w, x)
		return err
	case Tabular:
		_, err := fmt.Fprintln(w, renderTable(x.Table()))
		return err
	case Table:
		_, err := fmt.Fprintln(w, renderTable(x))
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(w, x.String())
		return err
	default:
		return WriteJSON(w, v, true)
	}
}

func renderTable(t Table) string {
	if len(t.Rows) == 0 {
		return "(none)"
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.Headers...).
		Rows(t.Rows...).
		String()
}
