package reconcile

import (
	"tandem-cli/internal/protocol"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/x/ansi"
)

// Tag is the bookkeeping attached to every live control.
type Tag struct {
	ID     string
	Type   protocol.NodeType
	Serial uint64
	Parent uint64
	// Header is the title of a group or the label line of a field.
	Header string
}

// Control is one live element of the control tree. The set is closed:
// *Group, *TextBlock, *TableControl, *ButtonRow, *Field and *Unsupported.
type Control interface {
	Tag() *Tag
}

// Container is an ordered list of controls owned by a group or the root.
type Container struct {
	Owner    uint64
	children []Control
}

func (c *Container) Children() []Control { return c.children }

func (c *Container) Len() int { return len(c.children) }

type Group struct {
	tag      Tag
	Title    string
	Children *Container
}

func (g *Group) Tag() *Tag { return &g.tag }

type TextBlock struct {
	tag  Tag
	Text string
}

func (t *TextBlock) Tag() *Tag { return &t.tag }

// TableControl wraps a bubbles table. It is rebuilt on every update.
type TableControl struct {
	tag     Tag
	Headers []string
	Rows    [][]string
	Model   table.Model
}

func (t *TableControl) Tag() *Tag { return &t.tag }

func newTableControl(tag Tag, n protocol.Table) *TableControl {
	t := &TableControl{tag: tag, Model: table.New(table.WithFocused(false))}
	t.rebuild(n)
	return t
}

// rebuild clears the table and fills it from n. Rows are padded or cut to
// the column count, which the widget requires.
func (t *TableControl) rebuild(n protocol.Table) {
	t.Headers = append([]string(nil), n.Headers...)
	t.Rows = t.Rows[:0]

	width := len(n.Headers)
	for _, r := range n.Rows {
		width = max(width, len(r))
	}
	cols := make([]table.Column, width)
	for i := range cols {
		if i < len(n.Headers) {
			cols[i].Title = n.Headers[i]
		}
		cols[i].Width = ansi.StringWidth(cols[i].Title)
	}
	rows := make([]table.Row, 0, len(n.Rows))
	for _, r := range n.Rows {
		if len(r) == 0 {
			continue
		}
		row := make(table.Row, width)
		copy(row, r)
		for i, cell := range row {
			cols[i].Width = max(cols[i].Width, ansi.StringWidth(cell))
		}
		rows = append(rows, row)
		t.Rows = append(t.Rows, []string(row))
	}

	total := 0
	for _, c := range cols {
		total += c.Width + 2
	}
	t.Model.SetRows(nil)
	t.Model.SetColumns(cols)
	t.Model.SetRows(rows)
	t.Model.SetWidth(total)
	t.Model.SetHeight(len(rows) + 1)
}

// Button is one entry of a live button row.
type Button struct {
	Label  string
	Hint   string
	Args   []string
	Active bool
}

// Bound reports whether pressing the button sends a request.
func (b Button) Bound() bool { return len(b.Args) > 0 }

type ButtonRow struct {
	tag     Tag
	Buttons []Button
}

func (r *ButtonRow) Tag() *Tag { return &r.tag }

func (r *ButtonRow) rebuild(n protocol.ButtonRow) {
	r.Buttons = make([]Button, 0, len(n.Buttons))
	for _, b := range n.Buttons {
		r.Buttons = append(r.Buttons, Button{
			Label:  b.Label,
			Hint:   b.Hint,
			Args:   append([]string(nil), b.Args...),
			Active: b.Active,
		})
	}
}

// Unsupported stands in for a node type the display does not know.
type Unsupported struct {
	tag  Tag
	Text string
}

func (u *Unsupported) Tag() *Tag { return &u.tag }

func unsupportedText(t protocol.NodeType) string {
	return "Unsupported element: " + string(t)
}
