package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The live view must stay readable on light and dark terminals, so colours
// are adaptive and faint styling is only used on dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorPrimary    lipgloss.TerminalColor = ac("27", "75")
	colorMuted      lipgloss.TerminalColor = ac("240", "245")
	colorBorder     lipgloss.TerminalColor = ac("250", "243")
	colorSelectedBg lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg lipgloss.TerminalColor = ac("235", "255")
	colorInputBg    lipgloss.TerminalColor = ac("254", "234")
	colorError      lipgloss.TerminalColor = ac("160", "203")
	colorBarBg      lipgloss.TerminalColor = ac("252", "236")
)

type styles struct {
	title       lipgloss.Style
	pageTitle   lipgloss.Style
	section     lipgloss.Style
	card        lipgloss.Style
	cardTitle   lipgloss.Style
	muted       lipgloss.Style
	placeholder lipgloss.Style
	errText     lipgloss.Style
	label       lipgloss.Style
	input       lipgloss.Style
	inputFocus  lipgloss.Style
	button      lipgloss.Style
	buttonOn    lipgloss.Style
	buttonFocus lipgloss.Style
	buttonOff   lipgloss.Style
	bar         lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:       lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		pageTitle:   lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Underline(true),
		section:     faintIfDark(lipgloss.NewStyle().Foreground(colorMuted)).Bold(true),
		card:        lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1),
		cardTitle:   lipgloss.NewStyle().Bold(true),
		muted:       faintIfDark(lipgloss.NewStyle().Foreground(colorMuted)),
		placeholder: faintIfDark(lipgloss.NewStyle().Foreground(colorMuted)).Italic(true),
		errText:     lipgloss.NewStyle().Foreground(colorError),
		label:       lipgloss.NewStyle().Bold(true),
		input:       lipgloss.NewStyle().Background(colorInputBg).Padding(0, 1),
		inputFocus:  lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg).Padding(0, 1),
		button:      lipgloss.NewStyle().Padding(0, 1),
		buttonOn:    lipgloss.NewStyle().Padding(0, 1).Foreground(colorPrimary).Bold(true),
		buttonFocus: lipgloss.NewStyle().Padding(0, 1).Background(colorSelectedBg).Foreground(colorSelectedFg).Bold(true),
		buttonOff:   faintIfDark(lipgloss.NewStyle().Padding(0, 1).Foreground(colorMuted)),
		bar:         lipgloss.NewStyle().Background(colorBarBg).Foreground(colorMuted),
	}
}

// applyColorProfilePreference honours NO_COLOR and otherwise trusts
// TERM/COLORTERM when they claim more than termenv detects.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	switch {
	case strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit"):
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	case strings.Contains(term, "256color"):
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}
	lipgloss.SetColorProfile(profile)
}

// applyScheme maps the configured colour scheme onto background detection.
// "auto" falls back to the COLORFGBG heuristic ("fg;bg").
func applyScheme(scheme string) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}
