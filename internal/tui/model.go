// Package tui is the live view: it mirrors content payloads into a control
// tree and turns key presses into requests.
package tui

import (
	"context"
	"log/slog"
	"time"

	"tandem-cli/internal/dispatch"
	"tandem-cli/internal/inputstate"
	"tandem-cli/internal/logs"
	"tandem-cli/internal/protocol"
	"tandem-cli/internal/reconcile"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	EmptyPayloadText = "The content process returned an empty payload."
	NoControlsText   = "Nothing to display."
)

// Options configure a live view.
type Options struct {
	Dispatcher *dispatch.Dispatcher
	// Invocation is sent unchanged as the first request, and again on reload.
	Invocation []string
	Debounce   time.Duration
	Debug      bool
	DebugTree  bool
	Scheme     string
	Logger     *slog.Logger

	// Initial, when set, is shown first instead of sending the invocation.
	Initial *dispatch.Outcome

	// Restart, when set, replaces the content process; the returned outcome
	// is displayed as if it were a response.
	Restart func(ctx context.Context) dispatch.Outcome
}

type outcomeMsg struct {
	out     dispatch.Outcome
	restart bool
}

type settleMsg struct {
	name string
	tok  inputstate.Token
}

// RestartMsg asks the view to restart the content process.
type RestartMsg struct{}

// focusItem is one stop of keyboard focus: a field, or one button of a row.
type focusItem struct {
	field  *reconcile.Field
	row    *reconcile.ButtonRow
	button int
}

func (f focusItem) serial() uint64 {
	if f.field != nil {
		return f.field.Tag().Serial
	}
	return f.row.Tag().Serial
}

type Model struct {
	ctx  context.Context
	opts Options
	log  *slog.Logger
	st   styles

	rec      *reconcile.Reconciler
	debounce *inputstate.Debouncer

	width  int
	height int
	vp     viewport.Model
	ready  bool

	currentApp string
	status     string
	statusErr  bool
	lastStats  reconcile.Stats
	showDebug  bool

	focus    []focusItem
	focusIdx int

	inflight bool
	queue    []dispatch.Request

	// after schedules msg; tests replace it to fire immediately.
	after func(time.Duration, tea.Msg) tea.Cmd
}

func NewModel(ctx context.Context, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	deb := inputstate.NewDebouncer(opts.Debounce)
	return Model{
		ctx:       ctx,
		opts:      opts,
		log:       logs.Discard(opts.Logger),
		st:        newStyles(),
		rec:       reconcile.New(inputstate.NewCache(), deb),
		debounce:  deb,
		width:     80,
		height:    24,
		vp:        viewport.New(80, 22),
		showDebug: opts.Debug,
		focusIdx:  -1,
		// Init always sends the invocation.
		inflight: true,
		after: func(d time.Duration, msg tea.Msg) tea.Cmd {
			return tea.Tick(d, func(time.Time) tea.Msg { return msg })
		},
	}
}

func (m Model) Init() tea.Cmd {
	if first := m.opts.Initial; first != nil {
		out := *first
		return func() tea.Msg { return outcomeMsg{out: out} }
	}
	d, inv, ctx := m.opts.Dispatcher, m.opts.Invocation, m.ctx
	return func() tea.Msg {
		return outcomeMsg{out: d.Initial(ctx, inv)}
	}
}

// Reconciler exposes the control tree, mainly for tests.
func (m Model) Reconciler() *reconcile.Reconciler { return m.rec }

// Pending reports whether a request is in flight and how many are queued.
func (m Model) Pending() (bool, int) { return m.inflight, len(m.queue) }

func (m Model) focused() (focusItem, bool) {
	if m.focusIdx < 0 || m.focusIdx >= len(m.focus) {
		return focusItem{}, false
	}
	return m.focus[m.focusIdx], true
}

// send dispatches req, or queues it while another request is in flight.
func (m *Model) send(req dispatch.Request) tea.Cmd {
	if m.inflight {
		m.queue = append(m.queue, req)
		m.log.Debug("live: request queued", "queued", len(m.queue))
		return nil
	}
	m.inflight = true
	d, ctx := m.opts.Dispatcher, m.ctx
	return func() tea.Msg {
		return outcomeMsg{out: d.Execute(ctx, req)}
	}
}

func (m *Model) next() tea.Cmd {
	if len(m.queue) == 0 {
		return nil
	}
	req := m.queue[0]
	m.queue = m.queue[1:]
	return m.send(req)
}

func (m *Model) reload() tea.Cmd {
	if m.inflight {
		return nil
	}
	m.inflight = true
	d, inv, ctx := m.opts.Dispatcher, m.opts.Invocation, m.ctx
	return func() tea.Msg {
		return outcomeMsg{out: d.Initial(ctx, inv)}
	}
}

func (m *Model) restart() tea.Cmd {
	if m.opts.Restart == nil {
		return nil
	}
	// Action ids die with the old worker.
	m.queue = nil
	m.inflight = true
	fn, ctx := m.opts.Restart, m.ctx
	return func() tea.Msg {
		return outcomeMsg{out: fn(ctx), restart: true}
	}
}

// apply shows a response and restores focus on the control that had it.
func (m *Model) apply(resp protocol.Response) {
	keep, hadFocus := m.focused()
	if hadFocus {
		if keep.field != nil {
			keep.field.Blur()
		}
	}

	root := resp.Nodes
	if root == nil {
		text := resp.Text
		if text == "" {
			text = EmptyPayloadText
		}
		root = protocol.Text{ID: "payload-text", Text: text}
	}
	stats, err := m.rec.Apply(root)
	m.lastStats = stats
	if err != nil {
		m.log.Error("live: render failed", "err", err)
		m.setStatus(err.Error(), true)
	}
	if resp.CurrentApp != "" {
		m.currentApp = resp.CurrentApp
	}
	if m.opts.DebugTree {
		m.log.Debug("live: tree", "stats", stats, "dump", m.rec.Dump())
	}

	m.collectFocus()
	m.focusIdx = -1
	for i, f := range m.focus {
		if hadFocus && f.serial() == keep.serial() && f.button == keep.button {
			m.focusIdx = i
			break
		}
	}
	if m.focusIdx < 0 && len(m.focus) > 0 {
		m.focusIdx = 0
	}
	m.applyFocus()
}

func (m *Model) collectFocus() {
	m.focus = m.focus[:0]
	m.rec.Walk(func(c reconcile.Control, _ int) {
		switch v := c.(type) {
		case *reconcile.Field:
			m.focus = append(m.focus, focusItem{field: v})
		case *reconcile.ButtonRow:
			for i, b := range v.Buttons {
				if b.Bound() {
					m.focus = append(m.focus, focusItem{row: v, button: i})
				}
			}
		}
	})
}

func (m *Model) applyFocus() tea.Cmd {
	var cmd tea.Cmd
	for i, f := range m.focus {
		if f.field == nil {
			continue
		}
		if i == m.focusIdx {
			cmd = f.field.Focus()
		} else {
			f.field.Blur()
		}
	}
	return cmd
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	if len(m.focus) == 0 {
		return nil
	}
	n := len(m.focus)
	if m.focusIdx < 0 {
		m.focusIdx = 0
	} else {
		m.focusIdx = ((m.focusIdx+delta)%n + n) % n
	}
	return m.applyFocus()
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// change turns a field change into a settle timer.
func (m *Model) change(c reconcile.Change) tea.Cmd {
	if !c.Armed {
		return nil
	}
	return m.after(c.Quiet, settleMsg{name: c.Name, tok: c.Token})
}
