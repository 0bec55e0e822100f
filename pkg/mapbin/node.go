package mapbin

// Attr is one named attribute of a Node.
type Attr struct {
	Key   string
	Value Value
}

// Node is one element of a map tree. Attribute order is kept as read.
type Node struct {
	Name     string
	Attrs    []Attr
	Children []*Node

	// Text is the element's innerText payload, nil when it has none.
	Text *string
}

// NewNode creates an empty element.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// Attr returns the attribute stored under key.
func (n *Node) Attr(key string) (Value, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}

	return Value{}, false
}

// StringAttr returns a string attribute; false when absent or not a string.
func (n *Node) StringAttr(key string) (string, bool) {
	v, ok := n.Attr(key)
	if !ok {
		return "", false
	}

	return v.AsString()
}

// IntAttr returns an integer attribute; false when absent or not an integer.
func (n *Node) IntAttr(key string) (int64, bool) {
	v, ok := n.Attr(key)
	if !ok {
		return 0, false
	}

	return v.AsInt()
}

// FloatAttr returns a float attribute; false when absent or not a float.
func (n *Node) FloatAttr(key string) (float64, bool) {
	v, ok := n.Attr(key)
	if !ok {
		return 0, false
	}

	return v.AsFloat()
}

// BoolAttr returns a bool attribute; false when absent or not a bool.
func (n *Node) BoolAttr(key string) (bool, bool) {
	v, ok := n.Attr(key)
	if !ok {
		return false, false
	}

	return v.AsBool()
}

// Number returns an integer or float attribute as float64.
func (n *Node) Number(key string) (float64, bool) {
	v, ok := n.Attr(key)
	if !ok {
		return 0, false
	}

	return v.Number()
}

// SetAttr replaces the attribute under key, or appends it.
func (n *Node) SetAttr(key string, v Value) {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Value = v
			return
		}
	}

	n.Attrs = append(n.Attrs, Attr{Key: key, Value: v})
}

// RemoveAttr deletes the attribute under key if present.
func (n *Node) RemoveAttr(key string) {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return
		}
	}
}

// SetText replaces the innerText payload.
func (n *Node) SetText(s string) {
	n.Text = &s
}

// TextValue returns the innerText payload.
func (n *Node) TextValue() (string, bool) {
	if n.Text == nil {
		return "", false
	}

	return *n.Text, true
}

// Child returns the first child with the given name.
func (n *Node) Child(name string) (*Node, bool) {
	for _, c := range n.Children {
		if c.Name == name {
			return c, true
		}
	}

	return nil, false
}

// ChildrenNamed returns every child with the given name, in order.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node

	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}

	return out
}

// AddChild appends c and returns it.
func (n *Node) AddChild(c *Node) *Node {
	n.Children = append(n.Children, c)
	return c
}

// Walk calls fn for n and every descendant, depth first, parents before
// children. Returning false from fn skips that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}

	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Map is a decoded map file.
type Map struct {
	Package string
	Root    *Node
}
