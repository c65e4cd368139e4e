package tree

import (
	"strconv"
	"strings"

	"github.com/dgallion1/docquery/internal/layout"
)

// RootTag is the tag of the synthetic document root.
const RootTag = "pdfxml"

// Node is one element of the document tree.
type Node struct {
	Tag       string
	Attrs     map[string]string
	Text      string
	Children  []*Node
	ObjectIDs []int // indices into the ObjectTable, more than one after a merge

	box    layout.BBox
	hasBox bool
}

// Box returns the node's rounded bounding box, if it has one.
func (n *Node) Box() (layout.BBox, bool) { return n.box, n.hasBox }

// ObjectID renders the object references as stored in the _obj_id attribute.
func (n *Node) ObjectID() string {
	parts := make([]string, len(n.ObjectIDs))
	for i, id := range n.ObjectIDs {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// Walk visits n and its descendants depth-first. parent is nil for n.
func (n *Node) Walk(fn func(node, parent *Node)) {
	n.walk(nil, fn)
}

func (n *Node) walk(parent *Node, fn func(node, parent *Node)) {
	fn(n, parent)
	for _, c := range n.Children {
		c.walk(n, fn)
	}
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	total := 0
	n.Walk(func(*Node, *Node) { total++ })
	return total
}

func (n *Node) removeChild(c *Node) {
	for i, x := range n.Children {
		if x == c {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return
		}
	}
}

// Contains reports whether inner lies within outer, edges included.
func Contains(outer, inner layout.BBox) bool {
	return outer.X0 <= inner.X0 && outer.X1 >= inner.X1 &&
		outer.Y0 <= inner.Y0 && outer.Y1 >= inner.Y1
}

func nodeContains(outer, inner *Node) bool {
	return outer.hasBox && inner.hasBox && Contains(outer.box, inner.box)
}
