package tree

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// ObjectIDAttr is the attribute carrying a node's object references.
const ObjectIDAttr = "_obj_id"

// HTML converts the subtree to x/net/html nodes for selector evaluation.
// Tag names are lower-cased because CSS type selectors are matched
// case-insensitively. A node's own text becomes its first child.
func (n *Node) HTML() *html.Node {
	h := &html.Node{Type: html.ElementNode, Data: strings.ToLower(n.Tag)}

	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Attr = append(h.Attr, html.Attribute{Key: k, Val: n.Attrs[k]})
	}
	if len(n.ObjectIDs) > 0 {
		h.Attr = append(h.Attr, html.Attribute{Key: ObjectIDAttr, Val: n.ObjectID()})
	}

	if n.Text != "" {
		h.AppendChild(&html.Node{Type: html.TextNode, Data: n.Text})
	}
	for _, c := range n.Children {
		h.AppendChild(c.HTML())
	}
	return h
}

// Render writes the subtree as markup.
func Render(w io.Writer, n *Node) error {
	if err := html.Render(w, n.HTML()); err != nil {
		return fmt.Errorf("render tree: %w", err)
	}
	return nil
}

// Attr returns the value of an attribute on an html element.
func Attr(h *html.Node, key string) (string, bool) {
	for _, a := range h.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// ObjectIDsOf reads the object references of an element produced by HTML.
func ObjectIDsOf(h *html.Node) ([]int, error) {
	v, ok := Attr(h, ObjectIDAttr)
	if !ok {
		return nil, fmt.Errorf("element <%s> has no %s attribute", h.Data, ObjectIDAttr)
	}
	return ParseObjectIDs(v)
}

// OwnText returns the text an element carries itself, excluding descendants.
func OwnText(h *html.Node) string {
	var b strings.Builder
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
