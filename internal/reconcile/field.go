package reconcile

import (
	"time"

	"tandem-cli/internal/inputstate"
	"tandem-cli/internal/protocol"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Change is what a field edit asks of its host. When Armed, the host must
// deliver Settle(Name, Token) after Quiet.
type Change struct {
	Name  string
	Token inputstate.Token
	Quiet time.Duration
	Armed bool
}

// Commit is a settled edit of a bound field.
type Commit struct {
	ActionID string
	Name     string
	Old      string
	New      string
}

type fieldEnv struct {
	cache    *inputstate.Cache
	debounce *inputstate.Debouncer
}

// Field is a live text input or select.
type Field struct {
	tag Tag

	Name        string
	Label       string
	Required    bool
	HelperText  string
	Placeholder string
	ColumnSpan  int
	ActionID    string

	// Options and Selected are used by selects only.
	Options  protocol.OptionList
	Selected int

	input    textinput.Model
	env      *fieldEnv
	ready    bool
	baseline string
}

func (f *Field) Tag() *Tag { return &f.tag }

// IsSelect reports whether the field is a select.
func (f *Field) IsSelect() bool { return f.tag.Type == protocol.TypeSelect }

// Input exposes the text widget for rendering.
func (f *Field) Input() *textinput.Model { return &f.input }

// Baseline is the last committed value.
func (f *Field) Baseline() string { return f.baseline }

func (f *Field) Value() string {
	if !f.IsSelect() {
		return f.input.Value()
	}
	if f.Selected < 0 || f.Selected >= len(f.Options) {
		return ""
	}
	if o := f.Options[f.Selected]; o.Key != "" {
		return o.Key
	}
	return f.Options[f.Selected].Label
}

// SelectedLabel is the label shown for a select, "" when nothing is chosen.
func (f *Field) SelectedLabel() string {
	if f.Selected < 0 || f.Selected >= len(f.Options) {
		return ""
	}
	return f.Options[f.Selected].Label
}

func newTextField(tag Tag, n protocol.TextInput, env *fieldEnv) *Field {
	f := &Field{tag: tag, env: env, Selected: -1, input: textinput.New()}
	f.input.Prompt = ""
	// A blinking cursor would keep the update loop ticking for every field.
	f.input.Cursor.SetMode(cursor.CursorStatic)
	f.applyText(n)
	f.setValue(f.initial(n.FieldName(), n.Value))
	f.changed(f.Value())
	return f
}

func newSelectField(tag Tag, n protocol.Select, env *fieldEnv) *Field {
	f := &Field{tag: tag, env: env, Selected: -1, input: textinput.New()}
	f.applySelect(n)
	f.setValue(f.initial(n.FieldName(), n.Value))
	f.changed(f.Value())
	return f
}

func (f *Field) applyText(n protocol.TextInput) {
	f.Name = n.FieldName()
	f.Label = n.DisplayLabel()
	f.Required = n.Required
	f.HelperText = n.HelperText
	f.Placeholder = n.Placeholder
	f.ColumnSpan = n.ColumnSpan
	f.ActionID = n.OnChangeAction
	f.input.Placeholder = n.Placeholder
	f.tag.Header = header(f.Label, f.Required)
}

func (f *Field) applySelect(n protocol.Select) {
	f.Name = n.FieldName()
	f.Label = n.DisplayLabel()
	f.Required = n.Required
	f.HelperText = n.HelperText
	f.ActionID = n.OnChangeAction
	f.Options = append(protocol.OptionList(nil), n.Options...)
	f.tag.Header = header(f.Label, f.Required)
}

func header(label string, required bool) string {
	if required {
		return label + " *"
	}
	return label
}

// initial picks the displayed value: the cached edit, else the declared one.
// An empty result leaves the placeholder visible.
func (f *Field) initial(name, declared string) string {
	if v, ok := f.env.cache.Get(name); ok {
		return v
	}
	return declared
}

// setValue changes the widget without notifying.
func (f *Field) setValue(v string) {
	if !f.IsSelect() {
		if f.input.Value() != v {
			f.input.SetValue(v)
			f.input.CursorEnd()
		}
		return
	}
	f.Selected = -1
	if i, ok := f.Options.Lookup(v); ok {
		f.Selected = i
	}
}

// update refreshes a reused field from n. The baseline follows the displayed
// value unless an edit is still waiting for its quiet period.
func (f *Field) update(n protocol.Node) {
	var name, declared string
	switch v := n.(type) {
	case protocol.TextInput:
		f.applyText(v)
		name, declared = v.FieldName(), v.Value
	case protocol.Select:
		f.applySelect(v)
		name, declared = v.FieldName(), v.Value
	}
	f.setValue(f.initial(name, declared))
	if !f.env.debounce.IsPending(f.Name) {
		f.baseline = f.Value()
	}
}

// changed handles one change notification from the widget. The first one
// after construction is the echo of the initial value and only sets the
// baseline.
func (f *Field) changed(v string) Change {
	if !f.ready {
		f.ready = true
		f.baseline = v
		return Change{}
	}
	f.env.cache.Put(f.Name, v)
	if f.ActionID == "" {
		return Change{Name: f.Name}
	}
	tok, quiet := f.env.debounce.Touch(f.Name)
	return Change{Name: f.Name, Token: tok, Quiet: quiet, Armed: true}
}

// Edit replaces the value as if the user typed it.
func (f *Field) Edit(v string) Change {
	if v == f.Value() {
		return Change{}
	}
	f.setValue(v)
	return f.changed(f.Value())
}

// Cycle moves a select's choice by delta, wrapping around.
func (f *Field) Cycle(delta int) Change {
	if !f.IsSelect() || len(f.Options) == 0 {
		return Change{}
	}
	n := len(f.Options)
	switch {
	case f.Selected < 0 && delta >= 0:
		f.Selected = 0
	case f.Selected < 0:
		f.Selected = n - 1
	default:
		f.Selected = ((f.Selected+delta)%n + n) % n
	}
	return f.changed(f.Value())
}

// Update forwards a key message to the text widget.
func (f *Field) Update(msg tea.Msg) (tea.Cmd, Change) {
	if f.IsSelect() {
		return nil, Change{}
	}
	before := f.input.Value()
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	if f.input.Value() == before {
		return cmd, Change{}
	}
	return cmd, f.changed(f.input.Value())
}

func (f *Field) Focus() tea.Cmd {
	if f.IsSelect() {
		return nil
	}
	return f.input.Focus()
}

func (f *Field) Blur() {
	f.input.Blur()
}

func (f *Field) Focused() bool {
	return !f.IsSelect() && f.input.Focused()
}

// settle turns a quiet edit into a commit when the value moved off the
// baseline.
func (f *Field) settle() (Commit, bool) {
	if f.ActionID == "" {
		return Commit{}, false
	}
	v := f.Value()
	if v == f.baseline {
		return Commit{}, false
	}
	c := Commit{ActionID: f.ActionID, Name: f.Name, Old: f.baseline, New: v}
	f.baseline = v
	f.env.cache.Put(f.Name, v)
	return c, true
}
