package selector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/dgallion1/docquery/internal/layout"
	"golang.org/x/net/html"
)

type boundPredicate struct {
	name string
	test BoxTest
	arg  layout.BBox
}

// compound is a run of simple selectors with no combinator between them.
// Registered predicates, and :not() arguments that use them, are lifted out
// of it and checked after base.
type compound struct {
	base  cascadia.Sel
	nots  []*Matcher
	preds []boundPredicate
}

func (c compound) match(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.base != nil && !c.base.Match(n) {
		return false
	}
	for _, m := range c.nots {
		if m.Match(n) {
			return false
		}
	}
	if len(c.preds) == 0 {
		return true
	}
	b, ok := nodeBox(n)
	if !ok {
		return false
	}
	for _, p := range c.preds {
		if !p.test(b, p.arg) {
			return false
		}
	}
	return true
}

// complexSelector is compounds joined by combinators; combs[i] sits
// between compounds[i] and compounds[i+1].
type complexSelector struct {
	compounds []compound
	combs     []byte
}

func (s complexSelector) match(n *html.Node) bool {
	return s.matchAt(n, len(s.compounds)-1)
}

func (s complexSelector) matchAt(n *html.Node, i int) bool {
	if !s.compounds[i].match(n) {
		return false
	}
	if i == 0 {
		return true
	}
	switch s.combs[i-1] {
	case '>':
		return n.Parent != nil && s.matchAt(n.Parent, i-1)
	case '+':
		prev := prevElement(n)
		return prev != nil && s.matchAt(prev, i-1)
	case '~':
		for p := prevElement(n); p != nil; p = prevElement(p) {
			if s.matchAt(p, i-1) {
				return true
			}
		}
		return false
	default:
		for p := n.Parent; p != nil; p = p.Parent {
			if s.matchAt(p, i-1) {
				return true
			}
		}
		return false
	}
}

func prevElement(n *html.Node) *html.Node {
	for p := n.PrevSibling; p != nil; p = p.PrevSibling {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

var errEmptySelector = errors.New("empty selector")

// topLevel marks the bytes of s lying outside strings, brackets and
// parentheses. An opening bracket at depth zero and its matching closing
// bracket are themselves marked.
func topLevel(s string) ([]bool, error) {
	top := make([]bool, len(s))
	var stack []byte
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\\':
			i++
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			top[i] = len(stack) == 0
			stack = append(stack, c)
		case c == ')' || c == ']':
			want := byte('(')
			if c == ']' {
				want = '['
			}
			if len(stack) == 0 || stack[len(stack)-1] != want {
				return nil, fmt.Errorf("unbalanced %q at offset %d", c, i)
			}
			stack = stack[:len(stack)-1]
			top[i] = len(stack) == 0
		default:
			top[i] = len(stack) == 0
		}
	}
	if quote != 0 {
		return nil, errors.New("unterminated string")
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("unclosed %q", stack[len(stack)-1])
	}
	return top, nil
}

// splitTop splits s at top-level occurrences of sep.
func splitTop(s string, sep byte) ([]string, error) {
	top, err := topLevel(s)
	if err != nil {
		return nil, err
	}
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep && top[i] {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:]), nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isIdent(c byte) bool {
	return c == '-' || c == '_' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// splitCompounds breaks one selector of a group into compounds and the
// combinators between them.
func splitCompounds(sel string) ([]string, []byte, error) {
	top, err := topLevel(sel)
	if err != nil {
		return nil, nil, err
	}
	var (
		compounds []string
		combs     []byte
		cur       strings.Builder
		comb      byte
		explicit  bool
	)
	for i := 0; i < len(sel); i++ {
		c := sel[i]
		if top[i] && (isSpace(c) || c == '>' || c == '+' || c == '~') {
			if cur.Len() > 0 {
				compounds = append(compounds, cur.String())
				cur.Reset()
				comb, explicit = ' ', false
			}
			if isSpace(c) {
				continue
			}
			if len(compounds) == 0 {
				return nil, nil, fmt.Errorf("selector starts with combinator %q", c)
			}
			if explicit {
				return nil, nil, fmt.Errorf("consecutive combinators at offset %d", i)
			}
			comb, explicit = c, true
			continue
		}
		if cur.Len() == 0 && len(compounds) > 0 {
			combs = append(combs, comb)
			comb, explicit = 0, false
		}
		cur.WriteByte(c)
		if c == '\\' && i+1 < len(sel) {
			i++
			cur.WriteByte(sel[i])
		}
	}
	if cur.Len() > 0 {
		compounds = append(compounds, cur.String())
	} else if explicit {
		return nil, nil, errors.New("selector ends with a combinator")
	}
	if len(compounds) == 0 {
		return nil, nil, errEmptySelector
	}
	return compounds, combs, nil
}

// liftPredicates removes registered pseudo-classes from a compound and
// returns what is left for cascadia. A :not() whose argument uses a
// registered pseudo-class is compiled here as well.
func (e *Engine) liftPredicates(comp string) (string, []boundPredicate, []*Matcher, error) {
	top, err := topLevel(comp)
	if err != nil {
		return "", nil, nil, err
	}
	var (
		rest  strings.Builder
		preds []boundPredicate
		nots  []*Matcher
	)
	for i := 0; i < len(comp); {
		if comp[i] == ':' && top[i] && (i == 0 || comp[i-1] != ':') && i+1 < len(comp) && comp[i+1] != ':' {
			j := i + 1
			for j < len(comp) && isIdent(comp[j]) {
				j++
			}
			name := strings.ToLower(comp[i+1 : j])
			test, registered := e.preds[name]
			if (registered || name == "not") && j < len(comp) && comp[j] == '(' {
				k := j + 1
				for k < len(comp) && !(comp[k] == ')' && top[k]) {
					k++
				}
				if k >= len(comp) {
					return "", nil, nil, fmt.Errorf(":%s: missing closing parenthesis", name)
				}
				arg := comp[j+1 : k]
				switch {
				case registered:
					b, err := parseBoxArg(arg)
					if err != nil {
						return "", nil, nil, fmt.Errorf(":%s: %w", name, err)
					}
					preds = append(preds, boundPredicate{name: name, test: test, arg: b})
					i = k + 1
					continue
				case e.usesPredicates(arg):
					m, err := e.compile(arg)
					if err != nil {
						return "", nil, nil, fmt.Errorf(":not: %w", err)
					}
					nots = append(nots, m)
					i = k + 1
					continue
				}
			}
		}
		rest.WriteByte(comp[i])
		i++
	}
	return strings.TrimSpace(rest.String()), preds, nots, nil
}

func (e *Engine) compileComplex(sel string) (complexSelector, error) {
	parts, combs, err := splitCompounds(sel)
	if err != nil {
		return complexSelector{}, err
	}
	out := complexSelector{combs: combs}
	for _, p := range parts {
		rest, preds, nots, err := e.liftPredicates(p)
		if err != nil {
			return complexSelector{}, err
		}
		c := compound{preds: preds, nots: nots}
		if rest != "" && rest != "*" {
			c.base, err = cascadia.Parse(rest)
			if err != nil {
				return complexSelector{}, err
			}
		}
		out.compounds = append(out.compounds, c)
	}
	return out, nil
}
