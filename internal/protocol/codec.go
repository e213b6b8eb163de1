package protocol

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// scalar decodes any JSON scalar into its string form. null becomes "".
type scalar string

func (s *scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = scalar(v)
		return nil
	}
	*s = scalar(b)
	return nil
}

// flag decodes booleans leniently: true/false and their string forms.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	var s scalar
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	v, err := strconv.ParseBool(string(s))
	*f = flag(err == nil && v)
	return nil
}

// number decodes an integer that may arrive as a number or a string.
type number int

func (n *number) UnmarshalJSON(b []byte) error {
	var s scalar
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	v, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = number(v)
	return nil
}

// StringList decodes a JSON array of scalars. Anything that is not an array
// (objects included) decodes to nil.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	*l = nil
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		return nil
	}
	var raw []scalar
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = string(v)
	}
	*l = out
	return nil
}

// rawList holds the elements of a JSON array undecoded. A value that is not
// an array decodes to an empty list instead of failing the enclosing node.
type rawList []json.RawMessage

func (l *rawList) UnmarshalJSON(b []byte) error {
	*l = nil
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*l = raw
	return nil
}

type wireHead struct {
	Type scalar `json:"type"`
	ID   scalar `json:"id"`
}

type wireGroup struct {
	Title    scalar            `json:"title"`
	Children rawList `json:"children"`
}

type wireText struct {
	Text scalar `json:"text"`
}

type wireTable struct {
	Headers StringList `json:"headers"`
	Rows    rawList    `json:"rows"`
}

type wireButton struct {
	Label  scalar     `json:"label"`
	Hint   scalar     `json:"hint"`
	Args   StringList `json:"args"`
	Active flag       `json:"active"`
}

type wireButtonRow struct {
	Buttons rawList `json:"buttons"`
}

type wireField struct {
	Name           scalar     `json:"name"`
	Label          scalar     `json:"label"`
	HelperText     scalar     `json:"helperText"`
	Placeholder    scalar     `json:"placeholder"`
	Value          scalar     `json:"value"`
	Required       flag       `json:"required"`
	ColumnSpan     number     `json:"columnSpan"`
	OnChangeAction scalar     `json:"onChangeAction"`
	Options        OptionList `json:"options"`
}

// DecodeNode decodes one node object. It returns (nil, nil) for values that
// are not objects or carry no type, which callers skip.
func DecodeNode(data []byte) (Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, nil
	}
	var head wireHead
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	typ := NodeType(head.Type)
	id := string(head.ID)
	if typ == "" {
		return nil, nil
	}

	switch {
	case typ.IsGroup():
		var w wireGroup
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		children, err := decodeChildren(w.Children)
		if err != nil {
			return nil, err
		}
		return Group{Type: typ, ID: id, Title: string(w.Title), Children: children}, nil

	case typ == TypeText:
		var w wireText
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return Text{ID: id, Text: string(w.Text)}, nil

	case typ == TypeTable:
		var w wireTable
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		t := Table{ID: id, Headers: []string(w.Headers)}
		for _, raw := range w.Rows {
			var row StringList
			if err := json.Unmarshal(raw, &row); err != nil {
				return nil, err
			}
			if len(row) == 0 {
				continue
			}
			t.Rows = append(t.Rows, []string(row))
		}
		return t, nil

	case typ == TypeButtonRow:
		var w wireButtonRow
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		row := ButtonRow{ID: id}
		for _, raw := range w.Buttons {
			raw = bytes.TrimSpace(raw)
			if len(raw) == 0 || raw[0] != '{' {
				continue
			}
			var b wireButton
			if err := json.Unmarshal(raw, &b); err != nil {
				return nil, err
			}
			label := string(b.Label)
			if label == "" {
				label = "Action"
			}
			row.Buttons = append(row.Buttons, Button{
				Label:  label,
				Hint:   string(b.Hint),
				Args:   []string(b.Args),
				Active: bool(b.Active),
			})
		}
		return row, nil

	case typ == TypeTextInput:
		var w wireField
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return TextInput{
			ID:             id,
			Name:           string(w.Name),
			Label:          string(w.Label),
			HelperText:     string(w.HelperText),
			Placeholder:    string(w.Placeholder),
			Value:          string(w.Value),
			Required:       bool(w.Required),
			ColumnSpan:     int(w.ColumnSpan),
			OnChangeAction: string(w.OnChangeAction),
		}, nil

	case typ == TypeSelect:
		var w wireField
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return Select{
			ID:             id,
			Name:           string(w.Name),
			Label:          string(w.Label),
			HelperText:     string(w.HelperText),
			Options:        w.Options,
			Value:          string(w.Value),
			Required:       bool(w.Required),
			OnChangeAction: string(w.OnChangeAction),
		}, nil
	}

	raw := make(json.RawMessage, len(data))
	copy(raw, data)
	return Unknown{Type: typ, ID: id, Raw: raw}, nil
}

func decodeChildren(raws []json.RawMessage) ([]Node, error) {
	var out []Node
	for _, raw := range raws {
		n, err := DecodeNode(raw)
		if err != nil {
			return nil, err
		}
		if n == nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// EncodeNode marshals a node into its wire object.
func EncodeNode(n Node) ([]byte, error) {
	switch v := n.(type) {
	case nil:
		return []byte("null"), nil
	case Group:
		children := make([]json.RawMessage, 0, len(v.Children))
		for _, c := range v.Children {
			b, err := EncodeNode(c)
			if err != nil {
				return nil, err
			}
			children = append(children, b)
		}
		return json.Marshal(struct {
			Type     NodeType          `json:"type"`
			ID       string            `json:"id,omitempty"`
			Title    string            `json:"title,omitempty"`
			Children []json.RawMessage `json:"children"`
		}{v.Type, v.ID, v.Title, children})
	case Text:
		return json.Marshal(struct {
			Type NodeType `json:"type"`
			ID   string   `json:"id,omitempty"`
			Text string   `json:"text"`
		}{TypeText, v.ID, v.Text})
	case Table:
		rows := v.Rows
		if rows == nil {
			rows = [][]string{}
		}
		headers := v.Headers
		if headers == nil {
			headers = []string{}
		}
		return json.Marshal(struct {
			Type    NodeType   `json:"type"`
			ID      string     `json:"id,omitempty"`
			Headers []string   `json:"headers"`
			Rows    [][]string `json:"rows"`
		}{TypeTable, v.ID, headers, rows})
	case ButtonRow:
		buttons := v.Buttons
		if buttons == nil {
			buttons = []Button{}
		}
		return json.Marshal(struct {
			Type    NodeType `json:"type"`
			ID      string   `json:"id,omitempty"`
			Buttons []Button `json:"buttons"`
		}{TypeButtonRow, v.ID, buttons})
	case TextInput:
		return json.Marshal(struct {
			Type           NodeType `json:"type"`
			ID             string   `json:"id,omitempty"`
			Name           string   `json:"name"`
			Label          string   `json:"label,omitempty"`
			HelperText     string   `json:"helperText,omitempty"`
			Placeholder    string   `json:"placeholder,omitempty"`
			Value          string   `json:"value,omitempty"`
			Required       bool     `json:"required"`
			ColumnSpan     int      `json:"columnSpan,omitempty"`
			OnChangeAction string   `json:"onChangeAction,omitempty"`
		}{TypeTextInput, v.ID, v.Name, v.Label, v.HelperText, v.Placeholder, v.Value, v.Required, v.ColumnSpan, v.OnChangeAction})
	case Select:
		return json.Marshal(struct {
			Type           NodeType   `json:"type"`
			ID             string     `json:"id,omitempty"`
			Name           string     `json:"name"`
			Label          string     `json:"label,omitempty"`
			HelperText     string     `json:"helperText,omitempty"`
			Options        OptionList `json:"options"`
			Value          string     `json:"value,omitempty"`
			Required       bool       `json:"required"`
			OnChangeAction string     `json:"onChangeAction,omitempty"`
		}{TypeSelect, v.ID, v.Name, v.Label, v.HelperText, v.Options, v.Value, v.Required, v.OnChangeAction})
	case Unknown:
		if len(v.Raw) > 0 {
			return v.Raw, nil
		}
		return json.Marshal(struct {
			Type NodeType `json:"type"`
			ID   string   `json:"id,omitempty"`
		}{v.Type, v.ID})
	}
	return nil, errUnsupportedNode
}
