package layout

// Page is an opaque handle for one page of a source document.
type Page interface {
	// Index is the 0-based position of the page in the document.
	Index() int
}

// PageIterator yields pages in document order. Next returns io.EOF once
// the pages are exhausted.
type PageIterator interface {
	Next() (Page, error)
}

// Provider produces page layouts for a source document.
type Provider interface {
	// Pages starts a fresh walk over the document's pages. The page count
	// is not known up front.
	Pages() PageIterator
	// LayoutOf analyzes one page and returns its layout tree, rooted at an
	// element of KindPage.
	LayoutOf(page Page) (*Element, error)
	// Info returns the document information dictionary.
	Info() (map[string]string, error)
}
