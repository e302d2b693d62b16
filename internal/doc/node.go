// Package doc provides a minimal rendered-document tree: block and inline
// elements carrying attributes, with text at the leaves. It exists so the
// overlay and anchoring layers can operate on structural positions without
// depending on any particular rendering engine.
package doc

import "strings"

// Kind distinguishes the three node shapes.
type Kind int

const (
	// Text is a leaf carrying document text.
	Text Kind = iota
	// Inline is an element that does not break text flow.
	Inline
	// Block is an element that starts a new structural section. Ranges that
	// cross a block boundary cannot be wrapped in place.
	Block
)

// Node is one node of a document tree.
type Node struct {
	Kind     Kind
	Tag      string
	Text     string
	Attrs    map[string]string
	Children []*Node

	parent *Node
}

// NewText constructs a text leaf.
func NewText(text string) *Node {
	return &Node{Kind: Text, Text: text}
}

// NewInline constructs an inline element with the given children attached.
func NewInline(tag string, children ...*Node) *Node {
	node := &Node{Kind: Inline, Tag: tag}
	node.Append(children...)
	return node
}

// NewBlock constructs a block element with the given children attached.
func NewBlock(tag string, children ...*Node) *Node {
	node := &Node{Kind: Block, Tag: tag}
	node.Append(children...)
	return node
}

// Parent returns the node's current parent, or nil for a detached node.
func (n *Node) Parent() *Node {
	return n.parent
}

// Attr returns the named attribute, or "" when absent.
func (n *Node) Attr(name string) string {
	return n.Attrs[name]
}

// SetAttr sets the named attribute.
func (n *Node) SetAttr(name, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[name] = value
}

// Append attaches children at the end of the node's child list, detaching
// them from any previous parent first.
func (n *Node) Append(children ...*Node) {
	for _, child := range children {
		if child == nil {
			continue
		}
		child.Detach()
		child.parent = n
		n.Children = append(n.Children, child)
	}
}

// InsertAfter inserts node immediately after the existing child reference.
// It is a no-op when reference is not a child of n.
func (n *Node) InsertAfter(reference, node *Node) {
	index := n.indexOf(reference)
	if index == -1 {
		return
	}
	node.Detach()
	node.parent = n
	n.Children = append(n.Children, nil)
	copy(n.Children[index+2:], n.Children[index+1:])
	n.Children[index+1] = node
}

// Replace substitutes the child old with the given replacements, preserving
// position. It is a no-op when old is not a child of n.
func (n *Node) Replace(old *Node, replacements ...*Node) {
	index := n.indexOf(old)
	if index == -1 {
		return
	}
	old.parent = nil
	attached := make([]*Node, 0, len(replacements))
	for _, replacement := range replacements {
		if replacement == nil {
			continue
		}
		replacement.Detach()
		replacement.parent = n
		attached = append(attached, replacement)
	}
	updated := make([]*Node, 0, len(n.Children)-1+len(attached))
	updated = append(updated, n.Children[:index]...)
	updated = append(updated, attached...)
	updated = append(updated, n.Children[index+1:]...)
	n.Children = updated
}

// Detach removes the node from its parent's child list, leaving it free to
// be re-attached elsewhere.
func (n *Node) Detach() {
	parent := n.parent
	if parent == nil {
		return
	}
	index := parent.indexOf(n)
	if index != -1 {
		parent.Children = append(parent.Children[:index], parent.Children[index+1:]...)
	}
	n.parent = nil
}

// Unwrap promotes the node's children into its parent at the node's position
// and discards the node itself, preserving the surrounding text.
func (n *Node) Unwrap() {
	parent := n.parent
	if parent == nil {
		return
	}
	children := make([]*Node, len(n.Children))
	copy(children, n.Children)
	for _, child := range children {
		child.parent = nil
	}
	n.Children = nil
	parent.Replace(n, children...)
}

func (n *Node) indexOf(child *Node) int {
	for i, candidate := range n.Children {
		if candidate == child {
			return i
		}
	}
	return -1
}

// TextLeaves returns the tree's text nodes in document order.
func (n *Node) TextLeaves() []*Node {
	var leaves []*Node
	n.Walk(func(node *Node) {
		if node.Kind == Text {
			leaves = append(leaves, node)
		}
	})
	return leaves
}

// TextContent returns the flattened text of the subtree, the concatenation of
// its text leaves in document order.
func (n *Node) TextContent() string {
	var builder strings.Builder
	n.Walk(func(node *Node) {
		if node.Kind == Text {
			builder.WriteString(node.Text)
		}
	})
	return builder.String()
}

// Walk visits the subtree in document order, the node itself first. The
// visit callback must not mutate the tree.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// FindAll returns every node in the subtree matching the predicate, in
// document order.
func (n *Node) FindAll(match func(*Node) bool) []*Node {
	var found []*Node
	n.Walk(func(node *Node) {
		if match(node) {
			found = append(found, node)
		}
	})
	return found
}
