// Package tree re-nests page layouts into a single document tree.
//
// Each layout element becomes a Node. Adjacent character fragments are
// merged into one text-bearing node, nodes are re-parented under the
// smallest already-placed node whose box encloses theirs, and text that a
// child already carries is stripped from its parent.
package tree

import (
	"strings"

	"github.com/dgallion1/docquery/internal/attrs"
	"github.com/dgallion1/docquery/internal/layout"
)

// DefaultMergeTags are the fragment tags merged into words.
var DefaultMergeTags = []string{"LTChar", "LTAnon"}

// Builder converts layout trees to Nodes. A Builder shares its ObjectTable
// across every page it builds.
type Builder struct {
	Projector attrs.Projector
	MergeTags map[string]bool
	// Resort enables containment placement. When false, children stay
	// under the element they were built from, in document order.
	Resort bool
	// Normalize is applied to every node's text during cleaning; nil
	// leaves text untouched.
	Normalize TextFormatter
	Objects   *ObjectTable
}

// NewBuilder returns a Builder with the default settings: rounding to three
// digits, LTChar/LTAnon merging, containment placement and whitespace
// collapsing.
func NewBuilder(objects *ObjectTable) *Builder {
	if objects == nil {
		objects = &ObjectTable{}
	}
	return &Builder{
		Projector: attrs.DefaultProjector(),
		MergeTags: TagSet(DefaultMergeTags...),
		Resort:    true,
		Normalize: CollapseSpaces,
		Objects:   objects,
	}
}

// TagSet builds a merge-tag set.
func TagSet(tags ...string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			set[t] = true
		}
	}
	return set
}

// BuildDocument builds one subtree per page under a synthetic root whose
// attributes are the document metadata.
func (b *Builder) BuildDocument(meta map[string]string, pages []*layout.Element) *Node {
	root := &Node{Tag: RootTag, Attrs: make(map[string]string, len(meta))}
	for k, v := range meta {
		root.Attrs[strings.ToLower(k)] = v
	}
	for _, p := range pages {
		root.Children = append(root.Children, b.BuildPage(p))
	}
	return root
}

// BuildPage converts one page layout and cleans its text.
func (b *Builder) BuildPage(page *layout.Element) *Node {
	n := b.build(page, nil)
	b.Clean(n)
	return n
}

// build converts el. root is the page-level node that containment placement
// inserts into; it is nil for the page itself.
func (b *Builder) build(el *layout.Element, root *Node) *Node {
	n := &Node{
		Tag:       el.Tag(),
		Attrs:     b.Projector.Project(el),
		ObjectIDs: []int{b.Objects.Add(el)},
	}
	if el.BBox != nil {
		n.box = b.Projector.RoundBox(*el.BBox)
		n.hasBox = true
	}
	if root == nil {
		root = n
	}
	if el.HasText {
		n.Text = el.Text
	}
	if len(el.Children) == 0 {
		return n
	}

	built := make([]*Node, 0, len(el.Children))
	for _, c := range el.Children {
		built = append(built, b.build(c, root))
	}

	var last *Node
	for _, child := range built {
		if b.MergeTags[child.Tag] {
			if n.Text != "" && strings.Contains(n.Text, child.Text) {
				continue
			}
			if last != nil && b.MergeTags[last.Tag] {
				last.Text += child.Text
				last.ObjectIDs = append(last.ObjectIDs, child.ObjectIDs...)
				continue
			}
		}
		if b.Resort {
			place(root, child)
		} else {
			n.Children = append(n.Children, child)
		}
		last = child
	}
	return n
}

// place inserts el into the subtree under parent: into the first child
// whose box encloses it, otherwise directly under parent after adopting
// every child whose box it encloses. An already-placed node with an
// identical box stays the ancestor.
func place(parent, el *Node) {
	siblings := make([]*Node, len(parent.Children))
	copy(siblings, parent.Children)
	for _, sib := range siblings {
		if sib == el {
			continue
		}
		if nodeContains(sib, el) {
			place(sib, el)
			return
		}
		if nodeContains(el, sib) {
			parent.removeChild(sib)
			place(el, sib)
		}
	}
	parent.Children = append(parent.Children, el)
}

// Clean normalizes text throughout the subtree and removes from each node
// the first occurrence of every child's text. Stripping and normalizing
// repeat until the node's text holds no child's text.
func (b *Builder) Clean(n *Node) {
	if n.Text != "" && b.Normalize != nil {
		n.Text = b.Normalize(n.Text)
	}
	for _, c := range n.Children {
		b.Clean(c)
	}
	for b.stripChildren(n) {
		if n.Text != "" && b.Normalize != nil {
			n.Text = b.Normalize(n.Text)
		}
	}
}

// stripChildren removes one occurrence of each child's text from n and
// reports whether anything was removed.
func (b *Builder) stripChildren(n *Node) bool {
	stripped := false
	for _, c := range n.Children {
		if n.Text == "" || c.Text == "" {
			continue
		}
		if i := strings.Index(n.Text, c.Text); i >= 0 {
			n.Text = n.Text[:i] + n.Text[i+len(c.Text):]
			stripped = true
		}
	}
	return stripped
}
