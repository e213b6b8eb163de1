package tui

import (
	"fmt"
	"strings"

	"tandem-cli/internal/protocol"
	"tandem-cli/internal/reconcile"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

const keyHelp = "tab focus · enter press · ←/→ choose · ctrl+r reload · q quit"

func (m Model) chromeHeight() int {
	h := 2
	if m.showDebug {
		h++
	}
	return h
}

func (m Model) View() string {
	body, focusLine := m.renderBody()
	m.vp.SetContent(body)
	if focusLine >= 0 {
		if focusLine < m.vp.YOffset {
			m.vp.SetYOffset(focusLine)
		} else if focusLine >= m.vp.YOffset+m.vp.Height {
			m.vp.SetYOffset(focusLine - m.vp.Height + 1)
		}
	}

	parts := []string{m.renderHeader(), m.vp.View(), m.renderFooter()}
	if m.showDebug {
		parts = append(parts, m.renderDebugBar())
	}
	return strings.Join(parts, "\n")
}

func (m Model) renderHeader() string {
	title := "tandem"
	if m.currentApp != "" {
		title += " · " + m.currentApp
	}
	if m.rec.Title != "" {
		title += " · " + m.rec.Title
	}
	right := ""
	if inflight, queued := m.Pending(); inflight {
		right = "working…"
		if queued > 0 {
			right = fmt.Sprintf("working… (%d queued)", queued)
		}
	}
	line := m.st.title.Render(title)
	if right != "" {
		gap := max(1, m.width-xansi.StringWidth(line)-xansi.StringWidth(right))
		line += strings.Repeat(" ", gap) + m.st.muted.Render(right)
	}
	return clipLines(line, m.width)
}

func (m Model) renderFooter() string {
	if m.status != "" {
		st := m.st.muted
		if m.statusErr {
			st = m.st.errText
		}
		return clipLines(st.Render(m.status), m.width)
	}
	return clipLines(m.st.muted.Render(keyHelp), m.width)
}

func (m Model) renderDebugBar() string {
	c := m.rec.Counts()
	s := m.lastStats
	text := fmt.Sprintf("controls=%d labels=%d tables=%d built=%d reused=%d disposed=%d",
		c.Controls, c.Labels, c.Tables, s.Built, s.Reused, s.Disposed)
	return m.st.bar.Render(padRight(clipLines(text, m.width), m.width))
}

// renderBody draws the control tree. It also returns the first line of the
// focused control, or -1.
func (m Model) renderBody() (string, int) {
	r := &renderer{m: m, width: max(10, m.width), focusLine: -1}
	if m.rec.Root.Len() == 0 {
		return m.st.placeholder.Render(NoControlsText), -1
	}
	for _, c := range m.rec.Root.Children() {
		r.control(c, "")
	}
	return strings.Join(r.lines, "\n"), r.focusLine
}

type renderer struct {
	m         Model
	width     int
	lines     []string
	focusLine int
}

func (r *renderer) emit(block, indent string) {
	if block == "" {
		return
	}
	block = clipLines(indentBlock(block, indent), r.width)
	r.lines = append(r.lines, strings.Split(block, "\n")...)
}

func (r *renderer) blank() {
	if n := len(r.lines); n > 0 && r.lines[n-1] != "" {
		r.lines = append(r.lines, "")
	}
}

func (r *renderer) markFocus(c reconcile.Control) {
	if f, ok := r.m.focused(); ok && r.focusLine < 0 {
		if (f.field != nil && reconcile.Control(f.field) == c) || (f.row != nil && reconcile.Control(f.row) == c) {
			r.focusLine = len(r.lines)
		}
	}
}

func (r *renderer) control(c reconcile.Control, indent string) {
	st := r.m.st
	inner := max(10, r.width-len(indent))

	switch v := c.(type) {
	case *reconcile.Group:
		r.group(v, indent)
	case *reconcile.TextBlock:
		r.emit(lipgloss.NewStyle().Width(inner).Render(v.Text), indent)
	case *reconcile.Unsupported:
		r.emit(st.placeholder.Render(v.Text), indent)
	case *reconcile.TableControl:
		r.emit(v.Model.View(), indent)
	case *reconcile.ButtonRow:
		r.markFocus(v)
		r.emit(r.buttons(v), indent)
	case *reconcile.Field:
		r.markFocus(v)
		r.emit(r.field(v, inner), indent)
	}
}

func (r *renderer) group(g *reconcile.Group, indent string) {
	st := r.m.st
	switch g.Tag().Type {
	case protocol.TypePage:
		if g.Title != "" {
			r.emit(st.pageTitle.Render(g.Title), indent)
			r.blank()
		}
		for i, c := range g.Children.Children() {
			if i > 0 {
				r.blank()
			}
			r.control(c, indent)
		}
	case protocol.TypeSection:
		if g.Title != "" {
			r.emit(st.section.Render(strings.ToUpper(g.Title)), indent)
		}
		for _, c := range g.Children.Children() {
			r.control(c, indent+"  ")
		}
	case protocol.TypeCard:
		// Cards are drawn into a box, so the children render on their own.
		sub := &renderer{m: r.m, width: max(10, r.width-len(indent)-4), focusLine: -1}
		if g.Title != "" {
			sub.emit(st.cardTitle.Render(g.Title), "")
		}
		for _, c := range g.Children.Children() {
			sub.control(c, "")
		}
		if sub.focusLine >= 0 && r.focusLine < 0 {
			r.focusLine = len(r.lines) + 1 + sub.focusLine
		}
		r.emit(st.card.Render(strings.Join(sub.lines, "\n")), indent)
	default:
		for _, c := range g.Children.Children() {
			r.control(c, indent)
		}
	}
}

func (r *renderer) buttons(row *reconcile.ButtonRow) string {
	st := r.m.st
	f, hasFocus := r.m.focused()
	parts := make([]string, 0, len(row.Buttons))
	for i, b := range row.Buttons {
		label := "[" + b.Label + "]"
		var s string
		switch {
		case hasFocus && f.row == row && f.button == i:
			s = st.buttonFocus.Render(label)
		case !b.Bound():
			s = st.buttonOff.Render(label)
		case b.Active:
			s = st.buttonOn.Render(label)
		default:
			s = st.button.Render(label)
		}
		if b.Hint != "" {
			s += st.muted.Render(b.Hint)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "  ")
}

func (r *renderer) field(f *reconcile.Field, width int) string {
	st := r.m.st
	focused := false
	if cur, ok := r.m.focused(); ok && cur.field == f {
		focused = true
	}

	var lines []string
	if h := f.Tag().Header; h != "" {
		lines = append(lines, st.label.Render(h))
	}

	box := st.input
	if focused {
		box = st.inputFocus
	}
	if f.IsSelect() {
		label := f.SelectedLabel()
		if label == "" {
			label = st.placeholder.Render("select")
		}
		lines = append(lines, box.Render("‹ "+label+" ›"))
	} else {
		in := f.Input()
		in.Width = max(8, min(width-4, 48))
		view := strings.NewReplacer("\n", " ", "\r", " ").Replace(in.View())
		lines = append(lines, box.Render(view))
	}
	if f.HelperText != "" {
		lines = append(lines, st.muted.Render(f.HelperText))
	}
	return strings.Join(lines, "\n")
}
