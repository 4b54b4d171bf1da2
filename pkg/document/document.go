// Package document provides a minimal namespace-aware element tree with
// per-element source line numbers, plus a reader and an indenting writer.
// It carries no CellML semantics; the parser and writer packages interpret it.
package document

// Attr is a single attribute. Space holds the resolved namespace URI, or
// "xmlns" for namespace declarations.
type Attr struct {
	Space string
	Name  string
	Value string
}

// Element is one node of the tree. Space holds the resolved namespace URI of
// the element name. Line is the 1-based source line of the start tag, or 0
// for synthesized elements.
type Element struct {
	Space    string
	Name     string
	Attrs    []Attr
	Children []*Element
	Text     string
	Line     int
}

// NewElement creates an element with the given namespace and local name.
func NewElement(space, name string) *Element {
	return &Element{Space: space, Name: name}
}

// Attr returns the value of the attribute with the given local name,
// ignoring namespace declarations.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name && a.Space != "xmlns" {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or a default when absent.
func (e *Element) AttrOr(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// SetAttr sets or replaces an attribute by local name.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.Attrs {
		if a.Name == name && a.Space == "" {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

// AddChild appends a child element and returns it.
func (e *Element) AddChild(c *Element) *Element {
	e.Children = append(e.Children, c)
	return c
}

// ChildrenNamed returns all direct children with the given local name.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// FirstChild returns the first direct child with the given local name.
func (e *Element) FirstChild(name string) (*Element, bool) {
	for _, c := range e.Children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	c := &Element{Space: e.Space, Name: e.Name, Text: e.Text, Line: e.Line}
	c.Attrs = append([]Attr(nil), e.Attrs...)
	for _, child := range e.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}
