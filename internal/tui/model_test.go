package tui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"tandem-cli/internal/dispatch"
	"tandem-cli/internal/protocol"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
)

// scripted answers every request with the home page, echoing the last mode.
type scripted struct {
	calls [][]string
	mode  string
	fail  bool
	empty bool
}

func (s *scripted) Execute(_ context.Context, args []string) (dispatch.Reply, error) {
	s.calls = append(s.calls, args)
	if s.fail {
		return dispatch.Reply{ExitCode: -1}, errors.New("worker stopped")
	}
	if s.empty {
		return dispatch.Reply{Output: `{"text":"","actions":[],"nodes":null}`}, nil
	}
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "--value" {
			s.mode = args[i+1]
		}
	}
	b, err := json.Marshal(homePage(s.mode))
	if err != nil {
		return dispatch.Reply{}, err
	}
	return dispatch.Reply{Output: string(b) + "\n"}, nil
}

func homePage(mode string) protocol.Response {
	return protocol.Response{
		Text:       "Mode: " + mode,
		CurrentApp: "main",
		Nodes: protocol.Group{Type: protocol.TypeApp, ID: "app-1", Children: []protocol.Node{
			protocol.Group{Type: protocol.TypePage, ID: "page-2", Title: "Main App", Children: []protocol.Node{
				protocol.Group{Type: protocol.TypeSection, ID: "section-3", Title: "Inputs", Children: []protocol.Node{
					protocol.TextInput{ID: "textInput-4", Name: "mode", Label: "Mode", Value: mode, OnChangeAction: "act-mode"},
					protocol.ButtonRow{ID: "buttonRow-5", Buttons: []protocol.Button{
						{Label: "Tools", Hint: "tools status", Args: []string{"tools", "status"}},
						{Label: "Inert"},
						{Label: "About", Args: []string{"main", "about"}},
					}},
					protocol.Text{ID: "text-6", Text: "Mode: " + mode},
				}},
			}},
		}},
	}
}

func newTestModel(t *testing.T, tr dispatch.Transport) Model {
	t.Helper()
	inv := []string{"main", "--ui-json"}
	m := NewModel(context.Background(), Options{
		Dispatcher: dispatch.New(tr, inv, nil),
		Invocation: inv,
		Debounce:   10 * time.Millisecond,
	})
	m.after = func(_ time.Duration, msg tea.Msg) tea.Cmd {
		return func() tea.Msg { return msg }
	}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

// run executes cmd and feeds the view's own messages back into Update until
// nothing is left to do.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = run(t, m, c)
		}
	case outcomeMsg, settleMsg:
		next, more := m.Update(msg)
		m = run(t, next.(Model), more)
	}
	return m
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	var cmds []tea.Cmd
	for _, k := range keys {
		next, cmd := m.Update(k)
		m = next.(Model)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestInit_RendersInitialPayload(t *testing.T) {
	tr := &scripted{mode: "a"}
	m := newTestModel(t, tr)
	m = run(t, m, m.Init())

	if diff := cmp.Diff([][]string{{"main", "--ui-json"}}, tr.calls); diff != "" {
		t.Fatalf("calls (-want +got):\n%s", diff)
	}
	view := m.View()
	for _, want := range []string{"Main App", "INPUTS", "Mode: a", "[Tools]", "tandem · main"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if inflight, _ := m.Pending(); inflight {
		t.Fatalf("request still marked in flight")
	}
	f, ok := m.focused()
	if !ok || f.field == nil || f.field.Name != "mode" {
		t.Fatalf("first focus stop must be the mode field")
	}
}

func TestTyping_CommitsOnceAfterQuietPeriod(t *testing.T) {
	tr := &scripted{mode: "a"}
	m := newTestModel(t, tr)
	m = run(t, m, m.Init())

	var settles []tea.Msg
	m.after = func(_ time.Duration, msg tea.Msg) tea.Cmd {
		settles = append(settles, msg)
		return nil
	}
	m, _ = press(t, m, runes("b"), runes("c"), runes("d"))
	if len(settles) != 3 {
		t.Fatalf("expected three armed quiet periods, got %d", len(settles))
	}

	for _, msg := range settles {
		next, cmd := m.Update(msg)
		m = run(t, next.(Model), cmd)
	}

	want := [][]string{
		{"main", "--ui-json"},
		{"--action", "act-mode", "--value", "abcd", "--old", "a", "--ui-json"},
	}
	if diff := cmp.Diff(want, tr.calls); diff != "" {
		t.Fatalf("calls (-want +got):\n%s", diff)
	}
	if !strings.Contains(m.View(), "Mode: abcd") {
		t.Fatalf("view not refreshed:\n%s", m.View())
	}
	f, ok := m.Reconciler().Field("mode")
	if !ok || f.Value() != "abcd" || f.Baseline() != "abcd" {
		t.Fatalf("field state after commit: %+v", f)
	}
	if cur, ok := m.focused(); !ok || cur.field != f {
		t.Fatalf("focus must stay on the reused field")
	}
}

func TestButtons_ClickSendsArgsAndSkipsUnbound(t *testing.T) {
	tr := &scripted{mode: "a"}
	m := newTestModel(t, tr)
	m = run(t, m, m.Init())

	m, _ = press(t, m, key(tea.KeyTab), key(tea.KeyTab))
	cur, ok := m.focused()
	if !ok || cur.row == nil || cur.row.Buttons[cur.button].Label != "About" {
		t.Fatalf("unbound buttons must be skipped by focus, got %+v", cur)
	}
	m, _ = press(t, m, key(tea.KeyLeft))
	var cmd tea.Cmd
	m, cmd = press(t, m, key(tea.KeyEnter))
	m = run(t, m, cmd)

	if diff := cmp.Diff([]string{"tools", "status", "--ui-json"}, tr.calls[len(tr.calls)-1]); diff != "" {
		t.Fatalf("click args (-want +got):\n%s", diff)
	}
}

func TestRequests_QueueWhileInFlight(t *testing.T) {
	tr := &scripted{mode: "a"}
	m := newTestModel(t, tr)
	m = run(t, m, m.Init())

	m, _ = press(t, m, key(tea.KeyTab))
	m, first := press(t, m, key(tea.KeyEnter))
	m, second := press(t, m, key(tea.KeyEnter))
	if inflight, queued := m.Pending(); !inflight || queued != 1 {
		t.Fatalf("expected one in flight and one queued, got %v %d", inflight, queued)
	}
	if second != nil {
		t.Fatalf("a queued request must not produce a command")
	}
	if !strings.Contains(m.View(), "1 queued") {
		t.Fatalf("header should show the queue:\n%s", m.View())
	}

	m = run(t, m, first)
	if inflight, queued := m.Pending(); inflight || queued != 0 {
		t.Fatalf("queue not drained: %v %d", inflight, queued)
	}
	if len(tr.calls) != 3 {
		t.Fatalf("expected 3 requests in order, got %v", tr.calls)
	}
}

func TestTransportFailure_ShowsFixedMessage(t *testing.T) {
	tr := &scripted{fail: true}
	m := newTestModel(t, tr)
	m = run(t, m, m.Init())

	view := m.View()
	if !strings.Contains(view, protocol.TransportErrorText) {
		t.Fatalf("failure payload not shown:\n%s", view)
	}
	if !m.statusErr || !strings.Contains(m.status, "worker stopped") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestEmptyPayload(t *testing.T) {
	tr := &scripted{empty: true}
	m := newTestModel(t, tr)
	m = run(t, m, m.Init())
	if !strings.Contains(m.View(), EmptyPayloadText) {
		t.Fatalf("expected empty payload message:\n%s", m.View())
	}
}

func TestDebugBarAndQuit(t *testing.T) {
	tr := &scripted{mode: "a"}
	m := newTestModel(t, tr)
	m = run(t, m, m.Init())

	m, _ = press(t, m, key(tea.KeyCtrlD))
	view := m.View()
	if !strings.Contains(view, "controls=") || !strings.Contains(view, "built=") {
		t.Fatalf("debug bar missing:\n%s", view)
	}

	// "q" types into the focused text field instead of quitting.
	m, cmd := press(t, m, runes("q"))
	if f, _ := m.Reconciler().Field("mode"); f.Value() != "aq" {
		t.Fatalf("q should edit the field, value=%q", f.Value())
	}
	_ = cmd

	m, _ = press(t, m, key(tea.KeyEsc))
	_, cmd = m.Update(runes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}

func TestRestart_DropsQueue(t *testing.T) {
	tr := &scripted{mode: "a"}
	m := newTestModel(t, tr)
	restarts := 0
	m.opts.Restart = func(ctx context.Context) dispatch.Outcome {
		restarts++
		return m.opts.Dispatcher.Initial(ctx, m.opts.Invocation)
	}
	m = run(t, m, m.Init())

	m.queue = append(m.queue, dispatch.Click{Args: []string{"stale"}})
	next, cmd := m.Update(RestartMsg{})
	m = run(t, next.(Model), cmd)
	if restarts != 1 || len(m.queue) != 0 || m.status != "content process restarted" {
		t.Fatalf("restart not applied: restarts=%d queue=%d status=%q", restarts, len(m.queue), m.status)
	}
}

func TestInit_UsesPrefetchedOutcome(t *testing.T) {
	tr := &scripted{mode: "a"}
	inv := []string{"main", "--ui-json"}
	d := dispatch.New(tr, inv, nil)
	first := d.Initial(context.Background(), inv)

	m := NewModel(context.Background(), Options{Dispatcher: d, Invocation: inv, Initial: &first})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = run(t, next.(Model), next.(Model).Init())
	if len(tr.calls) != 1 {
		t.Fatalf("prefetched invocation must not be sent again, calls=%v", tr.calls)
	}
	if !strings.Contains(m.View(), "Mode: a") {
		t.Fatalf("prefetched payload not shown:\n%s", m.View())
	}
}
