package data

import (
	"errors"
	"fmt"
	"maps"
)

var (
	// ErrChildNotFound is returned when a group has no child with the requested name.
	ErrChildNotFound = errors.New("data: child not found")

	// ErrMalformedDocument is returned when JSON text does not describe a document.
	ErrMalformedDocument = errors.New("data: malformed document")
)

// Element is a node in a document tree.
type Element interface {
	NameInData() string
	RepeatID() string
}

// Group is an element with ordered children.
type Group struct {
	name       string
	repeatID   string
	attributes map[string]string
	children   []Element
}

// NewGroup creates an empty group.
func NewGroup(name string) *Group {
	return &Group{name: name}
}

// NameInData returns the element name.
func (g *Group) NameInData() string { return g.name }

// RepeatID returns the repeat id, or "" when unset.
func (g *Group) RepeatID() string { return g.repeatID }

// SetRepeatID sets the repeat id.
func (g *Group) SetRepeatID(id string) { g.repeatID = id }

// AddAttribute sets an attribute on the group.
func (g *Group) AddAttribute(key, value string) {
	if g.attributes == nil {
		g.attributes = make(map[string]string)
	}
	g.attributes[key] = value
}

// Attribute returns the attribute value for key.
func (g *Group) Attribute(key string) (string, bool) {
	v, ok := g.attributes[key]
	return v, ok
}

// Attributes returns a copy of the group attributes.
func (g *Group) Attributes() map[string]string {
	if g.attributes == nil {
		return nil
	}
	return maps.Clone(g.attributes)
}

// AddChild appends children in order.
func (g *Group) AddChild(children ...Element) {
	g.children = append(g.children, children...)
}

// Children returns the children in insertion order.
// The returned slice must not be modified.
func (g *Group) Children() []Element { return g.children }

// HasChildren reports whether the group has at least one child.
func (g *Group) HasChildren() bool { return len(g.children) > 0 }

// ContainsChildWithName reports whether any child is named name.
func (g *Group) ContainsChildWithName(name string) bool {
	_, err := g.FirstChildWithName(name)
	return err == nil
}

// FirstChildWithName returns the first child named name.
func (g *Group) FirstChildWithName(name string) (Element, error) {
	for _, c := range g.children {
		if c.NameInData() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %q", ErrChildNotFound, name, g.name)
}

// FirstGroupWithName returns the first child group named name.
func (g *Group) FirstGroupWithName(name string) (*Group, error) {
	for _, c := range g.children {
		if cg, ok := c.(*Group); ok && cg.name == name {
			return cg, nil
		}
	}
	return nil, fmt.Errorf("%w: group %q in %q", ErrChildNotFound, name, g.name)
}

// FirstAtomicValueWithName returns the value of the first atomic child named name.
func (g *Group) FirstAtomicValueWithName(name string) (string, error) {
	for _, c := range g.children {
		if a, ok := c.(*Atomic); ok && a.name == name {
			return a.value, nil
		}
	}
	return "", fmt.Errorf("%w: atomic %q in %q", ErrChildNotFound, name, g.name)
}

// Atomic is a leaf element holding a string value.
type Atomic struct {
	name     string
	value    string
	repeatID string
}

// NewAtomic creates an atomic element.
func NewAtomic(name, value string) *Atomic {
	return &Atomic{name: name, value: value}
}

// NewRepeatedAtomic creates an atomic element with a repeat id.
func NewRepeatedAtomic(name, value, repeatID string) *Atomic {
	return &Atomic{name: name, value: value, repeatID: repeatID}
}

// NameInData returns the element name.
func (a *Atomic) NameInData() string { return a.name }

// RepeatID returns the repeat id, or "" when unset.
func (a *Atomic) RepeatID() string { return a.repeatID }

// Value returns the atomic value.
func (a *Atomic) Value() string { return a.value }
