package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// clipLines cuts every line of s to width columns (ANSI-aware), marking cut
// lines with an ellipsis.
func clipLines(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		// Bound the width computation on pathological lines.
		if len(ln) > 8192 {
			ln = xansi.Cut(ln, 0, width)
		}
		if xansi.StringWidth(ln) <= width {
			lines[i] = ln
			continue
		}
		if width == 1 {
			lines[i] = xansi.Cut(ln, 0, 1)
			continue
		}
		lines[i] = xansi.Cut(ln, 0, width-1) + "…"
	}
	return strings.Join(lines, "\n")
}

// padRight pads s with spaces to width columns.
func padRight(s string, width int) string {
	w := xansi.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

func indentBlock(s, prefix string) string {
	if s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = prefix + ln
	}
	return strings.Join(lines, "\n")
}
