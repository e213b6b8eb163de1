package tui

import (
	"tandem-cli/internal/dispatch"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width
		m.vp.Height = max(1, msg.Height-m.chromeHeight())
		m.ready = true
		return m, nil

	case outcomeMsg:
		m.inflight = false
		switch {
		case msg.out.Failed():
			m.setStatus(msg.out.Err.Error(), true)
		case msg.restart:
			m.setStatus("content process restarted", false)
		default:
			m.setStatus("", false)
		}
		m.apply(msg.out.Response)
		return m, m.next()

	case settleMsg:
		commit, ok := m.rec.Settle(msg.name, msg.tok)
		if !ok {
			return m, nil
		}
		m.log.Debug("live: field committed", "name", commit.Name, "old", commit.Old, "new", commit.New)
		return m, m.send(dispatch.FieldCommit{
			ActionID: commit.ActionID,
			Name:     commit.Name,
			Old:      commit.Old,
			New:      commit.New,
		})

	case RestartMsg:
		return m, m.restart()

	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cur, hasFocus := m.focused()
	editing := hasFocus && cur.field != nil && !cur.field.IsSelect()

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		if !editing {
			return m, tea.Quit
		}
		if msg.String() == "esc" {
			cur.field.Blur()
			m.focusIdx = -1
			return m, nil
		}
	case "tab", "down":
		return m, m.moveFocus(1)
	case "shift+tab", "up":
		return m, m.moveFocus(-1)
	case "ctrl+r", "f5":
		return m, m.reload()
	case "ctrl+d", "f2":
		m.showDebug = !m.showDebug
		m.vp.Height = max(1, m.height-m.chromeHeight())
		return m, nil
	case "pgup", "pgdown", "ctrl+u":
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	case "enter", " ":
		if hasFocus && cur.row != nil {
			b := cur.row.Buttons[cur.button]
			m.log.Debug("live: click", "label", b.Label, "args", b.Args)
			return m, m.send(dispatch.Click{Label: b.Label, Args: b.Args})
		}
		if msg.String() == "enter" && hasFocus && cur.field != nil {
			return m, m.moveFocus(1)
		}
	case "left", "right":
		delta := 1
		if msg.String() == "left" {
			delta = -1
		}
		if hasFocus && cur.field != nil && cur.field.IsSelect() {
			return m, m.change(cur.field.Cycle(delta))
		}
		if hasFocus && cur.row != nil {
			return m, m.moveFocus(delta)
		}
	}

	if editing {
		cmd, ch := cur.field.Update(msg)
		return m, tea.Batch(cmd, m.change(ch))
	}
	return m, nil
}
