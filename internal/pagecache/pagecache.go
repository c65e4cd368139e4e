// Package pagecache materializes pages from a layout provider lazily and
// keeps every page it has seen, so a page handle is fetched from the
// provider at most once however it is later requested.
package pagecache

import (
	"errors"
	"fmt"
	"io"

	"github.com/dgallion1/docquery/internal/layout"
)

// Cache is an append-only list of pages backed by a cursor over the
// provider's page iterator. It is not safe for concurrent use.
type Cache struct {
	provider layout.Provider
	iter     layout.PageIterator
	pages    []layout.Page
	done     bool
}

func New(p layout.Provider) *Cache {
	return &Cache{provider: p}
}

// Page returns the n-th page (0-indexed). The boolean is false when the
// document has fewer than n+1 pages.
func (c *Cache) Page(n int) (layout.Page, bool, error) {
	if n < 0 {
		return nil, false, nil
	}
	for len(c.pages) <= n {
		more, err := c.advance()
		if err != nil {
			return nil, false, err
		}
		if !more {
			return nil, false, nil
		}
	}
	return c.pages[n], true, nil
}

// All drains the iterator and returns every page.
func (c *Cache) All() ([]layout.Page, error) {
	for {
		more, err := c.advance()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	out := make([]layout.Page, len(c.pages))
	copy(out, c.pages)
	return out, nil
}

// Len is the number of pages fetched so far.
func (c *Cache) Len() int { return len(c.pages) }

// Exhausted reports whether the provider has no pages beyond Len.
func (c *Cache) Exhausted() bool { return c.done }

func (c *Cache) advance() (bool, error) {
	if c.done {
		return false, nil
	}
	if c.iter == nil {
		c.iter = c.provider.Pages()
	}
	p, err := c.iter.Next()
	if errors.Is(err, io.EOF) {
		c.done = true
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read page %d: %w", len(c.pages), err)
	}
	c.pages = append(c.pages, p)
	return true, nil
}
