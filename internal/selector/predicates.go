package selector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/docquery/internal/layout"
	"golang.org/x/net/html"
)

// BoxTest reports whether an element whose box is node satisfies a
// positional predicate called with the box arg.
type BoxTest func(node, arg layout.BBox) bool

// InBBox matches elements lying entirely within arg.
func InBBox(node, arg layout.BBox) bool {
	return arg.X0 <= node.X0 && arg.Y0 <= node.Y0 && node.X1 <= arg.X1 && node.Y1 <= arg.Y1
}

// OverlapsBBox matches elements intersecting arg, touching edges included.
func OverlapsBBox(node, arg layout.BBox) bool {
	return node.X0 <= arg.X1 && node.Y0 <= arg.Y1 && node.X1 >= arg.X0 && node.Y1 >= arg.Y0
}

// parseBoxArg parses a predicate argument such as "100,100,400,400",
// optionally quoted.
func parseBoxArg(raw string) (layout.BBox, error) {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return layout.BBox{}, fmt.Errorf("expected 4 comma-separated numbers, got %q", raw)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return layout.BBox{}, fmt.Errorf("invalid coordinate %q in %q", strings.TrimSpace(p), raw)
		}
		v[i] = f
	}
	return layout.BBox{X0: v[0], Y0: v[1], X1: v[2], Y1: v[3]}, nil
}

// nodeBox reads the x0/y0/x1/y1 attributes of an element.
func nodeBox(n *html.Node) (layout.BBox, bool) {
	var b layout.BBox
	found := 0
	for _, a := range n.Attr {
		var dst *float64
		switch a.Key {
		case "x0":
			dst = &b.X0
		case "y0":
			dst = &b.Y0
		case "x1":
			dst = &b.X1
		case "y1":
			dst = &b.Y1
		default:
			continue
		}
		f, err := strconv.ParseFloat(a.Val, 64)
		if err != nil {
			return b, false
		}
		*dst = f
		found++
	}
	return b, found == 4
}
