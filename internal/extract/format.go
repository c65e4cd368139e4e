package extract

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Formatter transforms the selection matched by a step.
type Formatter interface {
	Format(*goquery.Selection) (any, error)
}

// FormatFunc adapts a function to Formatter.
type FormatFunc func(*goquery.Selection) (any, error)

func (f FormatFunc) Format(s *goquery.Selection) (any, error) { return f(s) }

// FormatterConfigError reports a with_formatter value that names no
// known operation.
type FormatterConfigError struct {
	Value string
}

func (e *FormatterConfigError) Error() string {
	return fmt.Sprintf("invalid formatter %q: expected one of %s", e.Value, strings.Join(Operations(), ", "))
}

var operations = map[string]FormatFunc{
	"text": func(s *goquery.Selection) (any, error) {
		return joinText(s.Nodes), nil
	},
	"texts": func(s *goquery.Selection) (any, error) {
		out := make([]string, 0, s.Length())
		for _, n := range s.Nodes {
			out = append(out, joinText([]*html.Node{n}))
		}
		return out, nil
	},
	"html": func(s *goquery.Selection) (any, error) {
		return s.Html()
	},
	"outer_html": func(s *goquery.Selection) (any, error) {
		if s.Length() == 0 {
			return "", nil
		}
		return goquery.OuterHtml(s.First())
	},
	"length": func(s *goquery.Selection) (any, error) {
		return s.Length(), nil
	},
	"first":    func(s *goquery.Selection) (any, error) { return s.First(), nil },
	"last":     func(s *goquery.Selection) (any, error) { return s.Last(), nil },
	"children": func(s *goquery.Selection) (any, error) { return s.Children(), nil },
	"parent":   func(s *goquery.Selection) (any, error) { return s.Parent(), nil },
	"attrs": func(s *goquery.Selection) (any, error) {
		out := make([]map[string]string, 0, s.Length())
		for _, n := range s.Nodes {
			out = append(out, attrMap(n))
		}
		return out, nil
	},
	"boxes": func(s *goquery.Selection) (any, error) {
		out := make([][4]float64, 0, s.Length())
		for _, n := range s.Nodes {
			if b, ok := nodeBox(n); ok {
				out = append(out, b)
			}
		}
		return out, nil
	},
}

// Operations lists the named formatter operations.
func Operations() []string {
	names := make([]string, 0, len(operations))
	for n := range operations {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Named returns the formatter operation called name.
func Named(name string) (Formatter, error) {
	f, ok := operations[strings.TrimSpace(name)]
	if !ok {
		return nil, &FormatterConfigError{Value: name}
	}
	return f, nil
}

// joinText concatenates the text beneath nodes, one space between
// fragments, with whitespace collapsed.
func joinText(nodes []*html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

func attrMap(n *html.Node) map[string]string {
	m := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		m[a.Key] = a.Val
	}
	return m
}

func nodeBox(n *html.Node) ([4]float64, bool) {
	var b [4]float64
	for i, key := range []string{"x0", "y0", "x1", "y1"} {
		v, ok := attr(n, key)
		if !ok {
			return b, false
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return b, false
		}
		b[i] = f
	}
	return b, true
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Element is the serializable form of one matched element.
type Element struct {
	Tag   string            `json:"tag" yaml:"tag"`
	Attrs map[string]string `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Text  string            `json:"text,omitempty" yaml:"text,omitempty"`
}

// Plain converts a result value to data that encodes as JSON or YAML.
// Selections become element lists; other values pass through.
func Plain(v any) any {
	switch s := v.(type) {
	case *goquery.Selection:
		out := make([]Element, 0, s.Length())
		for _, n := range s.Nodes {
			out = append(out, Element{Tag: n.Data, Attrs: attrMap(n), Text: joinText([]*html.Node{n})})
		}
		return out
	case Results:
		return s.Plain()
	}
	return v
}

// Plain returns a copy of r with every value converted by Plain.
func (r Results) Plain() Results {
	out := make(Results, len(r))
	for i, p := range r {
		out[i] = Pair{Label: p.Label, Value: Plain(p.Value)}
	}
	return out
}
