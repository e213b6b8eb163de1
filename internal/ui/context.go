package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
)

// Scheme is the colour scheme requested by the environment.
type Scheme string

const (
	SchemeLight Scheme = "light"
	SchemeDark  Scheme = "dark"
	SchemeAuto  Scheme = "auto"
)

// ParseScheme normalises s. An empty value means dark.
func ParseScheme(s string) (Scheme, error) {
	switch v := Scheme(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return SchemeDark, nil
	case SchemeLight, SchemeDark, SchemeAuto:
		return v, nil
	}
	return "", fmt.Errorf("unsupported color scheme: %s", s)
}

// Palette holds the escape sequences used by text formatting.
type Palette struct {
	Primary string
	Muted   string
	Reset   string
}

// DefaultPalette returns the fixed 256-colour palette.
func DefaultPalette() Palette {
	return Palette{
		Primary: sgr(termenv.ANSI256.Color("75")),
		Muted:   sgr(termenv.ANSI256.Color("245")),
		Reset:   termenv.CSI + termenv.ResetSeq + "m",
	}
}

// PlainPalette disables colour, used for structured output.
func PlainPalette() Palette { return Palette{} }

func sgr(c termenv.Color) string {
	return termenv.CSI + c.Sequence(false) + "m"
}

func (p Palette) primary(s string) string { return p.Primary + s + p.Reset }
func (p Palette) muted(s string) string   { return p.Muted + s + p.Reset }

// Intent names the route to show next.
type Intent struct {
	App  string
	Page string
	Args []string
}

// ClickFunc runs when a button is pressed.
type ClickFunc func() (*Intent, error)

// ChangeFunc runs when a reactive field commits an edit.
type ChangeFunc func(value, old string) (*Intent, error)

// Binder turns handlers into wire references while a tree is built.
// BindClick returns the button's argument vector, nil when it cannot be bound.
// BindChange returns the change action id, "" when fields stay unbound.
type Binder interface {
	BindClick(label string, fn ClickFunc) []string
	BindChange(field string, fn ChangeFunc) string
}

// EagerBinder evaluates click handlers immediately and leaves fields unbound.
type EagerBinder struct{}

func (EagerBinder) BindClick(_ string, fn ClickFunc) []string {
	intent, err := fn()
	if err != nil || intent == nil {
		return nil
	}
	return RouteArgs(*intent)
}

func (EagerBinder) BindChange(string, ChangeFunc) string { return "" }

// RouteArgs renders an intent as a positional argument vector.
func RouteArgs(in Intent) []string {
	out := make([]string, 0, 2+len(in.Args))
	out = append(out, in.App, in.Page)
	return append(out, in.Args...)
}

// Context carries per-render settings and state.
type Context struct {
	Columns int
	Scheme  Scheme
	Palette Palette

	state *renderState
}

type renderState struct {
	binder  Binder
	nextID  int
	actions []actionRef
	clicks  map[*Button][]string
	changes map[any]string
}

type actionRef struct {
	label string
	args  []string
}

// NewContext returns a context with its own id allocator and action list.
func NewContext(columns int, scheme Scheme, palette Palette, binder Binder) *Context {
	if binder == nil {
		binder = EagerBinder{}
	}
	if columns < 1 {
		columns = 1
	}
	return &Context{
		Columns: columns,
		Scheme:  scheme,
		Palette: palette,
		state: &renderState{
			binder:  binder,
			clicks:  map[*Button][]string{},
			changes: map[any]string{},
		},
	}
}

// ContextFromEnv reads COLUMNS (default 80) and APP_COLOR_SCHEME.
func ContextFromEnv(getenv func(string) string, binder Binder) (*Context, error) {
	columns := 80
	if n, err := strconv.Atoi(strings.TrimSpace(getenv("COLUMNS"))); err == nil {
		columns = n
	}
	scheme, err := ParseScheme(getenv("APP_COLOR_SCHEME"))
	if err != nil {
		return nil, err
	}
	return NewContext(columns, scheme, DefaultPalette(), binder), nil
}

// With returns a copy with non-zero overrides applied. The copy shares the
// render state.
func (c *Context) With(columns int, scheme Scheme, palette *Palette) *Context {
	out := *c
	if columns > 0 {
		out.Columns = columns
	}
	if scheme != "" {
		out.Scheme = scheme
	}
	if palette != nil {
		out.Palette = *palette
	}
	return &out
}

// NextID allocates the next automatic node id for prefix.
func (c *Context) NextID(prefix string) string {
	c.state.nextID++
	return prefix + "-" + strconv.Itoa(c.state.nextID)
}

// ResetIDs restarts the automatic id sequence, so a second pass over the same
// tree yields the same ids.
func (c *Context) ResetIDs() { c.state.nextID = 0 }

func (c *Context) bindClick(b *Button) []string {
	if args, ok := c.state.clicks[b]; ok {
		return args
	}
	var args []string
	if b.onClick != nil {
		args = c.state.binder.BindClick(b.label, b.onClick)
	}
	c.state.clicks[b] = args
	return args
}

func (c *Context) bindChange(key any, field string, fn ChangeFunc) string {
	if fn == nil {
		return ""
	}
	if id, ok := c.state.changes[key]; ok {
		return id
	}
	id := c.state.binder.BindChange(field, fn)
	c.state.changes[key] = id
	return id
}

func (c *Context) addAction(label string, args []string) {
	c.state.actions = append(c.state.actions, actionRef{label: label, args: args})
}
