package ui

import (
	"tandem-cli/internal/protocol"
)

// NodeFor converts e into a wire node, allocating an id when the element did
// not pin one.
func NodeFor(e Element, ctx *Context) protocol.Node {
	ne, ok := e.(NodeElement)
	if !ok {
		return protocol.Text{ID: ctx.NextID(string(protocol.TypeText)), Text: e.Render(ctx)}
	}
	// Allocate before descending so ids read top-down.
	prefix := nodePrefix(ne)
	id := ctx.NextID(prefix)
	n := ne.Node(ctx)
	return withID(n, id)
}

func nodePrefix(e NodeElement) string {
	switch e.(type) {
	case *App:
		return string(protocol.TypeApp)
	case *Page:
		return string(protocol.TypePage)
	case *Section:
		return string(protocol.TypeSection)
	case *Card:
		return string(protocol.TypeCard)
	case *Text:
		return string(protocol.TypeText)
	case *Table:
		return string(protocol.TypeTable)
	case *ButtonRow:
		return string(protocol.TypeButtonRow)
	case *TextInput:
		return string(protocol.TypeTextInput)
	case *Select:
		return string(protocol.TypeSelect)
	}
	return "node"
}

func withID(n protocol.Node, id string) protocol.Node {
	switch v := n.(type) {
	case protocol.Group:
		if v.ID == "" {
			v.ID = id
		}
		return v
	case protocol.Text:
		if v.ID == "" {
			v.ID = id
		}
		return v
	case protocol.Table:
		if v.ID == "" {
			v.ID = id
		}
		return v
	case protocol.ButtonRow:
		if v.ID == "" {
			v.ID = id
		}
		return v
	case protocol.TextInput:
		if v.ID == "" {
			v.ID = id
		}
		return v
	case protocol.Select:
		if v.ID == "" {
			v.ID = id
		}
		return v
	}
	return n
}

func group(typ protocol.NodeType, id, title string, children []Element, ctx *Context) protocol.Node {
	g := protocol.Group{Type: typ, ID: id, Title: title}
	for _, c := range children {
		if c == nil {
			continue
		}
		if row, ok := c.(*InputRow); ok {
			for _, in := range row.inputs {
				if in != nil {
					g.Children = append(g.Children, NodeFor(in, ctx))
				}
			}
			continue
		}
		g.Children = append(g.Children, NodeFor(c, ctx))
	}
	return g
}

// Render returns the plain text form of root.
func Render(root Element, ctx *Context) string {
	return root.Render(ctx)
}

// RenderPayload renders root both ways and returns the structured payload.
// Handlers are bound once per element, so text actions and node args agree.
func RenderPayload(root Element, ctx *Context, currentApp string) protocol.Response {
	text := root.Render(ctx)
	ctx.ResetIDs()
	resp := protocol.Response{
		Text:       text,
		Nodes:      NodeFor(root, ctx),
		CurrentApp: currentApp,
	}
	for _, a := range ctx.state.actions {
		resp.Actions = append(resp.Actions, protocol.Action{Label: a.label, Args: a.args})
	}
	return resp
}
