package ui

import (
	"strings"

	"tandem-cli/internal/protocol"

	"github.com/charmbracelet/x/ansi"
)

// Element renders itself as plain text.
type Element interface {
	Render(ctx *Context) string
}

// NodeElement also describes itself as a wire node. Elements that do not
// implement it are sent as text nodes.
type NodeElement interface {
	Element
	Node(ctx *Context) protocol.Node
}

// AppOptions override the render context for a whole app.
type AppOptions struct {
	Columns int
	Scheme  Scheme
	Palette *Palette
}

// App is the root element.
type App struct {
	opts     AppOptions
	children []Element
}

func NewApp(opts AppOptions) *App { return &App{opts: opts} }

func (a *App) Add(children ...Element) *App {
	a.children = append(a.children, children...)
	return a
}

func (a *App) context(ctx *Context) *Context {
	return ctx.With(a.opts.Columns, a.opts.Scheme, a.opts.Palette)
}

func (a *App) Render(ctx *Context) string {
	ctx = a.context(ctx)
	return joinNonEmpty(a.children, ctx, "\n", "")
}

func (a *App) Node(ctx *Context) protocol.Node {
	ctx = a.context(ctx)
	return group(protocol.TypeApp, "", "", a.children, ctx)
}

// Page is a titled list of sections.
type Page struct {
	title    string
	sections []Element
}

func NewPage(title string) *Page { return &Page{title: title} }

func (p *Page) Add(elems ...Element) *Page {
	p.sections = append(p.sections, elems...)
	return p
}

// Section appends a section built by fn.
func (p *Page) Section(title string, fn func(*Section)) *Page {
	s := NewSection(title)
	if fn != nil {
		fn(s)
	}
	return p.Add(s)
}

func (p *Page) Render(ctx *Context) string {
	width := max(3, ansi.StringWidth(p.title))
	width = min(ctx.Columns, width)
	lines := []string{
		ctx.Palette.primary(p.title),
		strings.Repeat("-", width),
	}
	for _, s := range p.sections {
		if out := s.Render(ctx); out != "" {
			lines = append(lines, out)
		}
	}
	return strings.Join(lines, "\n\n")
}

func (p *Page) Node(ctx *Context) protocol.Node {
	return group(protocol.TypePage, "", p.title, p.sections, ctx)
}

// Section groups blocks under an upper-cased heading.
type Section struct {
	id     string
	title  string
	blocks []Element
}

func NewSection(title string) *Section { return &Section{title: title} }

// ID pins the node id instead of allocating one.
func (s *Section) ID(id string) *Section {
	s.id = id
	return s
}

func (s *Section) Add(elems ...Element) *Section {
	s.blocks = append(s.blocks, elems...)
	return s
}

func (s *Section) Text(text string) *Section { return s.Add(NewText(text)) }

func (s *Section) Table(headers []string, rows ...[]string) *Section {
	return s.Add(NewTable(headers, rows...))
}

func (s *Section) Buttons(buttons ...*Button) *Section { return s.Add(NewButtonRow(buttons...)) }

// Inputs adds several fields rendered as one block of labelled lines.
func (s *Section) Inputs(inputs ...*TextInput) *Section { return s.Add(NewInputRow(inputs...)) }

func (s *Section) Card(title string, fn func(*Card)) *Section {
	c := NewCard(title)
	if fn != nil {
		fn(c)
	}
	return s.Add(c)
}

func (s *Section) Render(ctx *Context) string {
	var lines []string
	if s.title != "" {
		lines = append(lines, ctx.Palette.muted(strings.ToUpper(s.title)))
	}
	prefix := ""
	if s.title != "" {
		prefix = "  "
	}
	for _, b := range wrapButtons(s.blocks) {
		if out := b.Render(ctx); out != "" {
			lines = append(lines, indent(out, prefix))
		}
	}
	return strings.Join(lines, "\n")
}

func (s *Section) Node(ctx *Context) protocol.Node {
	return group(protocol.TypeSection, s.id, s.title, wrapButtons(s.blocks), ctx)
}

// Card is a bracketed sub-group inside a section.
type Card struct {
	id     string
	title  string
	blocks []Element
}

func NewCard(title string) *Card { return &Card{title: title} }

func (c *Card) ID(id string) *Card {
	c.id = id
	return c
}

func (c *Card) Add(elems ...Element) *Card {
	c.blocks = append(c.blocks, elems...)
	return c
}

func (c *Card) Text(text string) *Card { return c.Add(NewText(text)) }

func (c *Card) Render(ctx *Context) string {
	lines := []string{"[" + c.title + "]"}
	for _, b := range wrapButtons(c.blocks) {
		if out := b.Render(ctx); out != "" {
			lines = append(lines, indent(out, "  "))
		}
	}
	return strings.Join(lines, "\n")
}

func (c *Card) Node(ctx *Context) protocol.Node {
	return group(protocol.TypeCard, c.id, c.title, wrapButtons(c.blocks), ctx)
}

// Text is a paragraph, hard-wrapped to the column width in text mode.
type Text struct {
	text string
}

func NewText(text string) *Text { return &Text{text: text} }

func (t *Text) Render(ctx *Context) string {
	if ctx.Columns <= 1 {
		return t.text
	}
	return ansi.Wrap(t.text, ctx.Columns, "")
}

func (t *Text) Node(*Context) protocol.Node {
	return protocol.Text{Text: t.text}
}

// Table is a header row plus data rows. Short rows are padded.
type Table struct {
	headers []string
	rows    [][]string
}

func NewTable(headers []string, rows ...[]string) *Table {
	return &Table{headers: headers, rows: rows}
}

func (t *Table) Row(cells ...string) *Table {
	t.rows = append(t.rows, cells)
	return t
}

func (t *Table) Render(*Context) string {
	var widths []int
	measure := func(cells []string) {
		for i, c := range cells {
			w := ansi.StringWidth(c)
			if i >= len(widths) {
				widths = append(widths, w)
			} else if w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.headers)
	for _, r := range t.rows {
		measure(r)
	}

	var lines []string
	if len(t.headers) > 0 {
		lines = append(lines, tableRow(t.headers, widths))
		dashes := make([]string, len(widths))
		for i, w := range widths {
			dashes[i] = strings.Repeat("-", w)
		}
		lines = append(lines, "|-"+strings.Join(dashes, "-|-")+"-|")
	}
	for _, r := range t.rows {
		if len(r) == 0 {
			continue
		}
		lines = append(lines, tableRow(r, widths))
	}
	return strings.Join(lines, "\n")
}

func tableRow(cells []string, widths []int) string {
	out := make([]string, len(widths))
	for i, w := range widths {
		v := ""
		if i < len(cells) {
			v = cells[i]
		}
		out[i] = v + strings.Repeat(" ", max(0, w-ansi.StringWidth(v)))
	}
	return "| " + strings.Join(out, " | ") + " |"
}

func (t *Table) Node(*Context) protocol.Node {
	rows := make([][]string, 0, len(t.rows))
	for _, r := range t.rows {
		if len(r) > 0 {
			rows = append(rows, r)
		}
	}
	return protocol.Table{Headers: t.headers, Rows: rows}
}

// Button is one clickable label. A bare Button inside a section or card is
// placed in its own row.
type Button struct {
	label   string
	hint    string
	active  bool
	onClick ClickFunc
}

func NewButton(label string) *Button { return &Button{label: label} }

func (b *Button) Hint(hint string) *Button {
	b.hint = hint
	return b
}

func (b *Button) Active(active bool) *Button {
	b.active = active
	return b
}

// Route makes the button navigate to app/page.
func (b *Button) Route(app, page string, args ...string) *Button {
	return b.OnClick(func() (*Intent, error) {
		return &Intent{App: app, Page: page, Args: args}, nil
	})
}

func (b *Button) OnClick(fn ClickFunc) *Button {
	b.onClick = fn
	return b
}

func (b *Button) Render(ctx *Context) string { return NewButtonRow(b).Render(ctx) }

// ButtonRow lays buttons out horizontally.
type ButtonRow struct {
	buttons []*Button
}

func NewButtonRow(buttons ...*Button) *ButtonRow { return &ButtonRow{buttons: buttons} }

func (r *ButtonRow) Render(ctx *Context) string {
	parts := make([]string, 0, len(r.buttons))
	for _, b := range r.buttons {
		if b == nil {
			continue
		}
		if args := ctx.bindClick(b); args != nil {
			ctx.addAction(b.label, args)
		}
		text := "[" + b.label + "]"
		if b.hint != "" {
			text += " " + b.hint
		}
		if b.active {
			parts = append(parts, ctx.Palette.primary(text))
		} else {
			parts = append(parts, ctx.Palette.muted(text))
		}
	}
	return strings.Join(parts, "  ")
}

func (r *ButtonRow) Node(ctx *Context) protocol.Node {
	out := protocol.ButtonRow{}
	for _, b := range r.buttons {
		if b == nil {
			continue
		}
		out.Buttons = append(out.Buttons, protocol.Button{
			Label:  b.label,
			Hint:   b.hint,
			Args:   ctx.bindClick(b),
			Active: b.active,
		})
	}
	return out
}

// InputRow is a compact block of text inputs: one "label: value" line each
// in text mode, one textInput node each in the payload.
type InputRow struct {
	inputs []*TextInput
}

func NewInputRow(inputs ...*TextInput) *InputRow { return &InputRow{inputs: inputs} }

func (r *InputRow) Render(ctx *Context) string {
	lines := make([]string, 0, len(r.inputs))
	for _, in := range r.inputs {
		if in == nil {
			continue
		}
		lines = append(lines, in.line(ctx))
	}
	return strings.Join(lines, "\n")
}

// TextInput is a single-line field.
type TextInput struct {
	id          string
	name        string
	label       string
	helper      string
	placeholder string
	value       string
	required    bool
	span        int
	onChange    ChangeFunc
}

func NewTextInput(name string) *TextInput { return &TextInput{name: name} }

func (t *TextInput) ID(id string) *TextInput {
	t.id = id
	return t
}

func (t *TextInput) Label(label string) *TextInput {
	t.label = label
	return t
}

func (t *TextInput) HelperText(text string) *TextInput {
	t.helper = text
	return t
}

func (t *TextInput) Placeholder(text string) *TextInput {
	t.placeholder = text
	return t
}

func (t *TextInput) Value(value string) *TextInput {
	t.value = value
	return t
}

func (t *TextInput) Required(required bool) *TextInput {
	t.required = required
	return t
}

func (t *TextInput) ColumnSpan(span int) *TextInput {
	t.span = span
	return t
}

func (t *TextInput) Reactive(fn ChangeFunc) *TextInput {
	t.onChange = fn
	return t
}

func (t *TextInput) line(ctx *Context) string {
	value := t.value
	if value == "" && t.placeholder != "" {
		value = ctx.Palette.muted(t.placeholder)
	}
	return fieldLabel(t.name, t.label, t.required) + ": " + value
}

func (t *TextInput) Render(ctx *Context) string {
	lines := []string{t.line(ctx)}
	if t.helper != "" {
		lines = append(lines, ctx.Palette.muted(t.helper))
	}
	return strings.Join(lines, "\n")
}

func (t *TextInput) Node(ctx *Context) protocol.Node {
	return protocol.TextInput{
		ID:             t.id,
		Name:           t.name,
		Label:          t.label,
		HelperText:     t.helper,
		Placeholder:    t.placeholder,
		Value:          t.value,
		Required:       t.required,
		ColumnSpan:     t.span,
		OnChangeAction: ctx.bindChange(t, t.name, t.onChange),
	}
}

// Select is a choice between ordered options.
type Select struct {
	id       string
	name     string
	label    string
	helper   string
	options  protocol.OptionList
	value    string
	required bool
	onChange ChangeFunc
}

func NewSelect(name string) *Select { return &Select{name: name} }

func (s *Select) ID(id string) *Select {
	s.id = id
	return s
}

func (s *Select) Label(label string) *Select {
	s.label = label
	return s
}

func (s *Select) HelperText(text string) *Select {
	s.helper = text
	return s
}

func (s *Select) Value(value string) *Select {
	s.value = value
	return s
}

func (s *Select) Required(required bool) *Select {
	s.required = required
	return s
}

func (s *Select) Reactive(fn ChangeFunc) *Select {
	s.onChange = fn
	return s
}

// Option appends one choice.
func (s *Select) Option(key, label string) *Select {
	s.options = append(s.options, protocol.Option{Key: key, Label: label})
	return s
}

func (s *Select) Render(ctx *Context) string {
	value := s.value
	switch {
	case value == "":
		value = ctx.Palette.muted("select")
	default:
		for _, o := range s.options {
			if o.Key == value {
				value = o.Label
				break
			}
		}
	}
	lines := []string{fieldLabel(s.name, s.label, s.required) + ": " + value}
	if s.helper != "" {
		lines = append(lines, ctx.Palette.muted(s.helper))
	}
	if len(s.options) > 0 {
		pairs := make([]string, len(s.options))
		for i, o := range s.options {
			pairs[i] = o.Key + "=" + o.Label
		}
		lines = append(lines, ctx.Palette.muted("Options: "+strings.Join(pairs, ", ")))
	}
	return strings.Join(lines, "\n")
}

func (s *Select) Node(ctx *Context) protocol.Node {
	return protocol.Select{
		ID:             s.id,
		Name:           s.name,
		Label:          s.label,
		HelperText:     s.helper,
		Options:        s.options,
		Value:          s.value,
		Required:       s.required,
		OnChangeAction: ctx.bindChange(s, s.name, s.onChange),
	}
}

// ListItem is one entry of a List.
type ListItem struct {
	Key    string
	Label  string
	Active bool
}

// List is a titled menu. It has no node form and crosses the wire as text.
type List struct {
	title string
	items []ListItem
}

func NewList(title string, items ...ListItem) *List { return &List{title: title, items: items} }

func (l *List) Render(ctx *Context) string {
	if len(l.items) == 0 {
		return ""
	}
	lines := []string{ctx.Palette.primary(l.title)}
	for _, it := range l.items {
		marker, color := " ", ctx.Palette.Muted
		if it.Active {
			marker, color = ">", ctx.Palette.Primary
		}
		lines = append(lines, marker+"["+it.Key+"] "+color+it.Label+ctx.Palette.Reset)
	}
	return strings.Join(lines, "\n")
}

func fieldLabel(name, label string, required bool) string {
	if label == "" {
		label = name
	}
	if required {
		label += " *"
	}
	return label
}

func wrapButtons(elems []Element) []Element {
	out := make([]Element, len(elems))
	for i, e := range elems {
		if b, ok := e.(*Button); ok {
			out[i] = NewButtonRow(b)
			continue
		}
		out[i] = e
	}
	return out
}

func joinNonEmpty(elems []Element, ctx *Context, sep, prefix string) string {
	var parts []string
	for _, e := range elems {
		if out := e.Render(ctx); out != "" {
			parts = append(parts, indent(out, prefix))
		}
	}
	return strings.Join(parts, sep)
}

func indent(text, prefix string) string {
	if prefix == "" {
		return text
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
