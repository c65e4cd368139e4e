// Package selector compiles CSS selectors extended with positional
// pseudo-classes such as :in_bbox("x0,y0,x1,y1") and evaluates them over
// the html view of a document tree.
//
// Selectors without a registered pseudo-class are handed to cascadia as-is.
// Otherwise each compound is split out, its positional predicates are
// lifted, the remainder is compiled by cascadia and combinators are
// evaluated here.
package selector

import (
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Engine compiles selectors and caches the result. It is safe for
// concurrent use.
type Engine struct {
	mu    sync.Mutex
	preds map[string]BoxTest
	cache map[string]*Matcher
}

// NewEngine returns an Engine with :in_bbox and :overlaps_bbox registered.
func NewEngine() *Engine {
	e := &Engine{
		preds: make(map[string]BoxTest),
		cache: make(map[string]*Matcher),
	}
	e.Register("in_bbox", InBBox)
	e.Register("overlaps_bbox", OverlapsBBox)
	return e
}

// Register adds or replaces a positional pseudo-class. Previously compiled
// selectors are discarded.
func (e *Engine) Register(name string, test BoxTest) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.preds[strings.ToLower(name)] = test
	e.cache = make(map[string]*Matcher)
}

// Predicates lists the registered pseudo-class names.
func (e *Engine) Predicates() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.preds))
	for n := range e.preds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Compile parses sel. Errors are *SyntaxError.
func (e *Engine) Compile(sel string) (*Matcher, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if m, ok := e.cache[sel]; ok {
		return m, nil
	}
	m, err := e.compile(sel)
	if err != nil {
		return nil, &SyntaxError{Selector: sel, Err: err}
	}
	e.cache[sel] = m
	return m, nil
}

func (e *Engine) compile(sel string) (*Matcher, error) {
	if strings.TrimSpace(sel) == "" {
		return nil, errEmptySelector
	}
	if !e.usesPredicates(sel) {
		g, err := cascadia.ParseGroup(sel)
		if err != nil {
			return nil, err
		}
		return &Matcher{sel: sel, match: g.Match}, nil
	}

	groups, err := splitTop(sel, ',')
	if err != nil {
		return nil, err
	}
	compiled := make([]complexSelector, 0, len(groups))
	for _, g := range groups {
		if strings.TrimSpace(g) == "" {
			return nil, errEmptySelector
		}
		cs, err := e.compileComplex(g)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cs)
	}
	return &Matcher{sel: sel, match: func(n *html.Node) bool {
		for _, cs := range compiled {
			if cs.match(n) {
				return true
			}
		}
		return false
	}}, nil
}

func (e *Engine) usesPredicates(sel string) bool {
	lower := strings.ToLower(sel)
	for name := range e.preds {
		if strings.Contains(lower, ":"+name+"(") {
			return true
		}
	}
	return false
}

// Find evaluates sel over scope and its descendants.
func (e *Engine) Find(scope *goquery.Selection, sel string) (*goquery.Selection, error) {
	m, err := e.Compile(sel)
	if err != nil {
		return nil, err
	}
	return Within(scope, m), nil
}

// Within returns the scope elements matching m followed by their matching
// descendants.
func Within(scope *goquery.Selection, m goquery.Matcher) *goquery.Selection {
	return scope.FilterMatcher(m).AddSelection(scope.FindMatcher(m))
}

// Matcher is a compiled selector. It satisfies goquery.Matcher.
type Matcher struct {
	sel   string
	match func(*html.Node) bool
}

// Match reports whether the element n matches.
func (m *Matcher) Match(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && m.match(n)
}

// MatchAll returns n and every descendant that matches, in document order.
func (m *Matcher) MatchAll(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if m.Match(c) {
			out = append(out, c)
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return out
}

// Filter returns the nodes that match.
func (m *Matcher) Filter(nodes []*html.Node) []*html.Node {
	var out []*html.Node
	for _, n := range nodes {
		if m.Match(n) {
			out = append(out, n)
		}
	}
	return out
}

func (m *Matcher) String() string { return m.sel }
