package data

import (
	"fmt"

	"github.com/olovm/cora-diskstorage/codec"
)

type jsonGroup struct {
	Name       string            `json:"name"`
	Children   []any             `json:"children"`
	Attributes map[string]string `json:"attributes,omitempty"`
	RepeatID   string            `json:"repeatId,omitempty"`
}

type jsonAtomic struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	RepeatID string `json:"repeatId,omitempty"`
}

// jsonElement is the decode-side union of jsonGroup and jsonAtomic.
type jsonElement struct {
	Name       string            `json:"name"`
	Value      *string           `json:"value"`
	Children   []jsonElement     `json:"children"`
	Attributes map[string]string `json:"attributes"`
	RepeatID   string            `json:"repeatId"`
}

// Converter converts documents to and from JSON text.
type Converter struct {
	codec codec.Codec
}

// NewConverter returns a Converter using c, or codec.Default when c is nil.
func NewConverter(c codec.Codec) *Converter {
	if c == nil {
		c = codec.Default
	}
	return &Converter{codec: c}
}

// Serialize encodes g as JSON text.
func (c *Converter) Serialize(g *Group) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil group", ErrMalformedDocument)
	}
	return c.codec.Marshal(toJSON(g))
}

// Parse decodes JSON text whose top-level value is a group.
func (c *Converter) Parse(text []byte) (*Group, error) {
	var root jsonElement
	if err := c.codec.Unmarshal(text, &root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	el, err := fromJSON(root)
	if err != nil {
		return nil, err
	}
	g, ok := el.(*Group)
	if !ok {
		return nil, fmt.Errorf("%w: top-level element %q is not a group", ErrMalformedDocument, root.Name)
	}
	return g, nil
}

func toJSON(e Element) any {
	switch v := e.(type) {
	case *Group:
		children := make([]any, 0, len(v.children))
		for _, c := range v.children {
			children = append(children, toJSON(c))
		}
		return jsonGroup{
			Name:       v.name,
			Children:   children,
			Attributes: v.attributes,
			RepeatID:   v.repeatID,
		}
	case *Atomic:
		return jsonAtomic{Name: v.name, Value: v.value, RepeatID: v.repeatID}
	default:
		panic(fmt.Sprintf("data: unsupported element %T", e))
	}
}

func fromJSON(j jsonElement) (Element, error) {
	if j.Name == "" {
		return nil, fmt.Errorf("%w: element without name", ErrMalformedDocument)
	}
	if j.Value != nil {
		if len(j.Children) > 0 {
			return nil, fmt.Errorf("%w: %q has both value and children", ErrMalformedDocument, j.Name)
		}
		return &Atomic{name: j.Name, value: *j.Value, repeatID: j.RepeatID}, nil
	}
	g := &Group{name: j.Name, repeatID: j.RepeatID}
	for k, v := range j.Attributes {
		g.AddAttribute(k, v)
	}
	for _, cj := range j.Children {
		c, err := fromJSON(cj)
		if err != nil {
			return nil, err
		}
		g.AddChild(c)
	}
	return g, nil
}
