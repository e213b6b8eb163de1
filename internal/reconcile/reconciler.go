// Package reconcile keeps a live control tree in step with successive node
// snapshots, reusing controls whose identity is unchanged.
package reconcile

import (
	"fmt"
	"strings"

	"tandem-cli/internal/inputstate"
	"tandem-cli/internal/protocol"
)

// Stats counts what one Apply did, nested controls included.
type Stats struct {
	Built    int
	Reused   int
	Disposed int
}

// Reconciler owns the control tree. It is not safe for concurrent use; the
// host calls it from its single update loop.
type Reconciler struct {
	Arena *Arena
	Root  *Container
	// Title is the title of the last group-typed root.
	Title string

	// Trace, when set, observes every build, reuse and dispose.
	Trace func(op string, c Control)

	env    *fieldEnv
	fields map[string]*Field
	// dropped holds the baselines of disposed fields whose quiet period was
	// still running, until the pass ends.
	dropped map[string]string
	stats   Stats
}

func New(cache *inputstate.Cache, debounce *inputstate.Debouncer) *Reconciler {
	if cache == nil {
		cache = inputstate.NewCache()
	}
	if debounce == nil {
		debounce = inputstate.NewDebouncer(0)
	}
	return &Reconciler{
		Arena:  NewArena(),
		Root:   &Container{},
		env:    &fieldEnv{cache: cache, debounce: debounce},
		fields:  map[string]*Field{},
		dropped: map[string]string{},
	}
}

// Cache returns the session's input cache.
func (r *Reconciler) Cache() *inputstate.Cache { return r.env.cache }

// Apply reconciles the root container against root. A group-typed root syncs
// its children into the root container; any other root replaces the
// container's contents; a nil root clears it. A panic while reconciling
// resets the tree to a single diagnostic text control.
func (r *Reconciler) Apply(root protocol.Node) (stats Stats, err error) {
	r.stats = Stats{}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("render exception: %v", p)
			r.reset(fmt.Sprintf("Render exception: %v", p))
			stats = r.stats
		}
	}()

	r.apply(root)
	r.finish()
	return r.stats, nil
}

func (r *Reconciler) apply(root protocol.Node) {
	if g, ok := root.(protocol.Group); ok && g.Type.IsGroup() {
		r.Title = g.Title
		r.sync(r.Root, g.Children)
		return
	}
	r.Title = ""
	r.clear(r.Root)
	if root != nil && root.NodeType() != "" {
		r.Root.children = []Control{r.build(r.Root, root)}
	}
}

// Sync reconciles c against nodes and reports what it did.
func (r *Reconciler) Sync(c *Container, nodes []protocol.Node) Stats {
	r.stats = Stats{}
	r.sync(c, nodes)
	r.finish()
	return r.stats
}

// finish cancels the quiet periods of dropped fields that no control took
// over during the pass.
func (r *Reconciler) finish() {
	for name := range r.dropped {
		if _, live := r.fields[name]; !live {
			r.env.debounce.Cancel(name)
		}
		delete(r.dropped, name)
	}
}

// adopt gives a freshly built field the baseline of the field it replaces
// when that one still had an edit waiting, so the edit commits against the
// value the content side last saw.
func (r *Reconciler) adopt(f *Field) {
	if !r.env.debounce.IsPending(f.Name) {
		return
	}
	if prev, ok := r.fields[f.Name]; ok {
		f.baseline = prev.baseline
	} else if b, ok := r.dropped[f.Name]; ok {
		f.baseline = b
	}
}

func (r *Reconciler) sync(c *Container, nodes []protocol.Node) {
	byID := make(map[string]Control, len(c.children))
	var positional []Control
	for _, ch := range c.children {
		t := ch.Tag()
		if t.ID == "" {
			if t.Type.Rebuilds() {
				positional = append(positional, ch)
			}
			continue
		}
		if _, dup := byID[t.ID]; !dup {
			byID[t.ID] = ch
		}
	}

	claimed := make(map[uint64]bool, len(nodes))
	next := make([]Control, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		var match Control
		if id := n.NodeID(); id != "" {
			if ex, ok := byID[id]; ok && !claimed[ex.Tag().Serial] && ex.Tag().Type == n.NodeType() {
				match = ex
			}
		} else if n.NodeType().Rebuilds() {
			for i, ex := range positional {
				if ex.Tag().Type == n.NodeType() && !claimed[ex.Tag().Serial] {
					match = ex
					positional = append(positional[:i:i], positional[i+1:]...)
					break
				}
			}
		}

		if match != nil {
			claimed[match.Tag().Serial] = true
			r.update(match, n)
			next = append(next, match)
			continue
		}
		built := r.build(c, n)
		claimed[built.Tag().Serial] = true
		next = append(next, built)
	}

	for _, ch := range c.children {
		if !claimed[ch.Tag().Serial] {
			r.dispose(ch)
		}
	}
	c.children = next
}

func (r *Reconciler) build(parent *Container, n protocol.Node) Control {
	tag := Tag{
		ID:     n.NodeID(),
		Type:   n.NodeType(),
		Serial: r.Arena.nextSerial(),
		Parent: parent.Owner,
	}

	var c Control
	switch v := n.(type) {
	case protocol.Group:
		g := &Group{tag: tag, Title: v.Title, Children: &Container{Owner: tag.Serial}}
		g.tag.Header = v.Title
		c = g
	case protocol.Text:
		c = &TextBlock{tag: tag, Text: v.Text}
	case protocol.Table:
		c = newTableControl(tag, v)
	case protocol.ButtonRow:
		row := &ButtonRow{tag: tag}
		row.rebuild(v)
		c = row
	case protocol.TextInput:
		f := newTextField(tag, v, r.env)
		r.adopt(f)
		r.fields[f.Name] = f
		c = f
	case protocol.Select:
		f := newSelectField(tag, v, r.env)
		r.adopt(f)
		r.fields[f.Name] = f
		c = f
	default:
		c = &Unsupported{tag: tag, Text: unsupportedText(n.NodeType())}
	}

	r.Arena.add(c)
	r.stats.Built++
	r.trace("build", c)

	if g, ok := c.(*Group); ok {
		r.sync(g.Children, n.(protocol.Group).Children)
	}
	return c
}

func (r *Reconciler) update(c Control, n protocol.Node) {
	r.stats.Reused++
	r.trace("reuse", c)

	switch ctl := c.(type) {
	case *Group:
		g := n.(protocol.Group)
		ctl.Title = g.Title
		ctl.tag.Header = g.Title
		r.sync(ctl.Children, g.Children)
	case *TextBlock:
		ctl.Text = n.(protocol.Text).Text
	case *TableControl:
		ctl.rebuild(n.(protocol.Table))
	case *ButtonRow:
		ctl.rebuild(n.(protocol.ButtonRow))
	case *Field:
		prev := ctl.Name
		ctl.update(n)
		if prev != ctl.Name && r.fields[prev] == ctl {
			delete(r.fields, prev)
		}
		r.fields[ctl.Name] = ctl
	case *Unsupported:
		ctl.Text = unsupportedText(n.NodeType())
	}
}

func (r *Reconciler) dispose(c Control) {
	if g, ok := c.(*Group); ok {
		for _, ch := range g.Children.children {
			r.dispose(ch)
		}
		g.Children.children = nil
	}
	if f, ok := c.(*Field); ok {
		if r.fields[f.Name] == f {
			delete(r.fields, f.Name)
			if r.env.debounce.IsPending(f.Name) {
				r.dropped[f.Name] = f.baseline
			}
		}
		f.Blur()
	}
	r.Arena.remove(c)
	r.stats.Disposed++
	r.trace("dispose", c)
}

func (r *Reconciler) clear(c *Container) {
	for _, ch := range c.children {
		r.dispose(ch)
	}
	c.children = nil
}

// reset replaces the whole tree with one diagnostic text control. It must not
// panic, so it bypasses Trace.
func (r *Reconciler) reset(message string) {
	trace := r.Trace
	r.Trace = nil
	defer func() { r.Trace = trace }()

	for name := range r.fields {
		r.env.debounce.Cancel(name)
	}
	for name := range r.dropped {
		r.env.debounce.Cancel(name)
	}
	serial := r.Arena.serial
	r.Arena = NewArena()
	r.Arena.serial = serial
	r.fields = map[string]*Field{}
	r.dropped = map[string]string{}
	r.Root = &Container{}
	r.Title = ""
	tb := &TextBlock{
		tag:  Tag{ID: "render-exception", Type: protocol.TypeText, Serial: r.Arena.nextSerial()},
		Text: message,
	}
	r.Arena.add(tb)
	r.Root.children = []Control{tb}
}

func (r *Reconciler) trace(op string, c Control) {
	if r.Trace != nil {
		r.Trace(op, c)
	}
}

// Field returns the live field registered under name.
func (r *Reconciler) Field(name string) (*Field, bool) {
	f, ok := r.fields[name]
	return f, ok
}

// Settle is called when a quiet period armed by a Change ends. It returns a
// commit when the token is still current and the value left its baseline.
func (r *Reconciler) Settle(name string, tok inputstate.Token) (Commit, bool) {
	if !r.env.debounce.Settle(name, tok) {
		return Commit{}, false
	}
	f, ok := r.fields[name]
	if !ok {
		return Commit{}, false
	}
	return f.settle()
}

// Walk visits every control depth-first in display order.
func (r *Reconciler) Walk(fn func(c Control, depth int)) {
	var visit func(cs []Control, depth int)
	visit = func(cs []Control, depth int) {
		for _, c := range cs {
			fn(c, depth)
			if g, ok := c.(*Group); ok {
				visit(g.Children.children, depth+1)
			}
		}
	}
	visit(r.Root.children, 0)
}

// Counts summarises the live tree for the debug bar.
type Counts struct {
	Controls int
	Labels   int
	Tables   int
}

func (r *Reconciler) Counts() Counts {
	var c Counts
	r.Walk(func(ctl Control, _ int) {
		c.Controls++
		switch ctl.(type) {
		case *TextBlock, *Unsupported:
			c.Labels++
		case *TableControl:
			c.Tables++
		}
	})
	return c
}

// Dump renders the tree as indented "type#id serial" lines.
func (r *Reconciler) Dump() string {
	var b strings.Builder
	r.Walk(func(c Control, depth int) {
		t := c.Tag()
		fmt.Fprintf(&b, "%s%s#%s (%d)", strings.Repeat("  ", depth), t.Type, t.ID, t.Serial)
		if t.Header != "" {
			fmt.Fprintf(&b, " %q", t.Header)
		}
		b.WriteByte('\n')
	})
	return b.String()
}
