package layout

import (
	"fmt"
	"io"
)

// Static serves pages whose layouts were analyzed ahead of time, either
// built in memory or read from a dump file.
type Static struct {
	info  map[string]string
	pages []*Element
}

// NewStatic returns a provider over the given page layouts.
func NewStatic(info map[string]string, pages ...*Element) *Static {
	if info == nil {
		info = map[string]string{}
	}
	return &Static{info: info, pages: pages}
}

type staticPage struct {
	index int
	el    *Element
}

func (p staticPage) Index() int { return p.index }

type staticIterator struct {
	s    *Static
	next int
}

func (it *staticIterator) Next() (Page, error) {
	if it.next >= len(it.s.pages) {
		return nil, io.EOF
	}
	p := staticPage{index: it.next, el: it.s.pages[it.next]}
	it.next++
	return p, nil
}

func (s *Static) Pages() PageIterator {
	return &staticIterator{s: s}
}

func (s *Static) LayoutOf(page Page) (*Element, error) {
	p, ok := page.(staticPage)
	if !ok {
		return nil, fmt.Errorf("static provider: foreign page handle %T", page)
	}
	return p.el, nil
}

func (s *Static) Info() (map[string]string, error) {
	out := make(map[string]string, len(s.info))
	for k, v := range s.info {
		out[k] = v
	}
	return out, nil
}
