package protocol

import (
	"bytes"
	"encoding/json"
)

// NodeType is the wire tag carried in a node's "type" field.
type NodeType string

const (
	TypeApp       NodeType = "app"
	TypePage      NodeType = "page"
	TypeSection   NodeType = "section"
	TypeCard      NodeType = "card"
	TypeText      NodeType = "text"
	TypeTable     NodeType = "table"
	TypeButtonRow NodeType = "buttonRow"
	TypeTextInput NodeType = "textInput"
	TypeSelect    NodeType = "select"
)

// IsGroup reports whether nodes of this type carry nested children.
func (t NodeType) IsGroup() bool {
	switch t {
	case TypeApp, TypePage, TypeSection, TypeCard:
		return true
	}
	return false
}

// Rebuilds reports whether controls of this type are rebuilt wholesale on every
// update. Only these types may be matched positionally when they carry no id.
func (t NodeType) Rebuilds() bool {
	return t == TypeTable || t == TypeButtonRow
}

// Node is one immutable element of a UI snapshot. The set of implementations is
// closed: Group, Text, Table, ButtonRow, TextInput, Select and Unknown.
type Node interface {
	NodeType() NodeType
	NodeID() string
}

// Group covers app, page, section and card nodes.
type Group struct {
	Type     NodeType
	ID       string
	Title    string
	Children []Node
}

func (g Group) NodeType() NodeType { return g.Type }
func (g Group) NodeID() string     { return g.ID }

type Text struct {
	ID   string
	Text string
}

func (Text) NodeType() NodeType { return TypeText }
func (t Text) NodeID() string   { return t.ID }

type Table struct {
	ID      string
	Headers []string
	Rows    [][]string
}

func (Table) NodeType() NodeType { return TypeTable }
func (t Table) NodeID() string   { return t.ID }

// Button is one entry of a ButtonRow. Args is nil when the button is not bound.
type Button struct {
	Label  string   `json:"label"`
	Hint   string   `json:"hint,omitempty"`
	Args   []string `json:"args,omitempty"`
	Active bool     `json:"active,omitempty"`
}

type ButtonRow struct {
	ID      string
	Buttons []Button
}

func (ButtonRow) NodeType() NodeType { return TypeButtonRow }
func (b ButtonRow) NodeID() string   { return b.ID }

type TextInput struct {
	ID             string
	Name           string
	Label          string
	HelperText     string
	Placeholder    string
	Value          string
	Required       bool
	ColumnSpan     int
	OnChangeAction string
}

func (TextInput) NodeType() NodeType { return TypeTextInput }
func (t TextInput) NodeID() string   { return t.ID }

// FieldName returns the stable cache key for the field.
func (t TextInput) FieldName() string { return fieldName(t.Name, t.Label, "input") }

// DisplayLabel returns the label shown next to the field.
func (t TextInput) DisplayLabel() string { return displayLabel(t.Name, t.Label, "input") }

// Option is one choice of a Select, in declaration order.
type Option struct {
	Key   string
	Label string
}

type Select struct {
	ID             string
	Name           string
	Label          string
	HelperText     string
	Options        OptionList
	Value          string
	Required       bool
	OnChangeAction string
}

func (Select) NodeType() NodeType { return TypeSelect }
func (s Select) NodeID() string   { return s.ID }

func (s Select) FieldName() string    { return fieldName(s.Name, s.Label, "select") }
func (s Select) DisplayLabel() string { return displayLabel(s.Name, s.Label, "select") }

// Unknown preserves a node whose type tag is not recognised.
type Unknown struct {
	Type NodeType
	ID   string
	Raw  json.RawMessage
}

func (u Unknown) NodeType() NodeType { return u.Type }
func (u Unknown) NodeID() string     { return u.ID }

func fieldName(name, label, fallback string) string {
	if name != "" {
		return name
	}
	if label != "" {
		return label
	}
	return fallback
}

func displayLabel(name, label, fallback string) string {
	if label != "" {
		return label
	}
	if name != "" {
		return name
	}
	return fallback
}

// OptionList keeps select options ordered. On the wire it is a JSON object
// whose key order is significant.
type OptionList []Option

func (l OptionList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(opt.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(opt.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (l *OptionList) UnmarshalJSON(b []byte) error {
	*l = nil
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch tok {
	case json.Delim('{'):
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := keyTok.(string)
			var label scalar
			if err := dec.Decode(&label); err != nil {
				return err
			}
			if label == "" {
				label = scalar(key)
			}
			*l = append(*l, Option{Key: key, Label: string(label)})
		}
	case json.Delim('['):
		for dec.More() {
			var label scalar
			if err := dec.Decode(&label); err != nil {
				return err
			}
			*l = append(*l, Option{Key: string(label), Label: string(label)})
		}
	}
	return nil
}

// Lookup returns the option whose key or label equals v.
func (l OptionList) Lookup(v string) (int, bool) {
	for i, opt := range l {
		if opt.Key == v || opt.Label == v {
			return i, true
		}
	}
	return -1, false
}
