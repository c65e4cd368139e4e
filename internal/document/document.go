// Package document ties a layout provider to the tree builder and the
// extraction pipeline.
package document

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/docquery/internal/attrs"
	"github.com/dgallion1/docquery/internal/extract"
	"github.com/dgallion1/docquery/internal/layout"
	"github.com/dgallion1/docquery/internal/pagecache"
	"github.com/dgallion1/docquery/internal/selector"
	"github.com/dgallion1/docquery/internal/tree"
	"golang.org/x/net/html"
)

// ErrPageNotFound is returned by Load for a page past the end of the
// document.
var ErrPageNotFound = errors.New("page not found")

// Document is a queryable view of one source document. It is not safe for
// concurrent use.
type Document struct {
	provider layout.Provider
	pages    *pagecache.Cache
	layouts  map[int]*layout.Element
	info     map[string]string
	builder  *tree.Builder
	pipeline *extract.Pipeline
	log      *slog.Logger

	root   *tree.Node
	query  *goquery.Document
	loaded []int
}

// New wraps a layout provider. Nothing is parsed until a page is needed.
func New(p layout.Provider, opts ...Option) *Document {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.New(slog.DiscardHandler)
	}
	if o.engine == nil {
		o.engine = selector.NewEngine()
	}

	b := tree.NewBuilder(nil)
	b.Projector = attrs.Projector{RoundFloats: o.roundFloats, RoundDigits: o.roundDigits}
	b.MergeTags = tree.TagSet(o.mergeTags...)
	b.Resort = o.resort
	switch {
	case o.textFormatter != nil:
		b.Normalize = o.textFormatter
	case o.normalizeSpaces:
		b.Normalize = tree.CollapseSpaces
	default:
		b.Normalize = nil
	}

	return &Document{
		provider: p,
		pages:    pagecache.New(p),
		layouts:  make(map[int]*layout.Element),
		builder:  b,
		pipeline: extract.NewPipeline(o.engine, o.log),
		log:      o.log,
	}
}

// Close releases the provider when it holds resources.
func (d *Document) Close() error {
	if c, ok := d.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Load builds the tree for the given 0-indexed pages, or for every page
// when none are given, and replaces the current tree. Arguments may be ints
// or nested slices of ints.
func (d *Document) Load(pages ...any) error {
	start := time.Now()
	nums, err := flatten(pages)
	if err != nil {
		return err
	}
	if len(nums) == 0 {
		all, err := d.pages.All()
		if err != nil {
			return err
		}
		for _, p := range all {
			nums = append(nums, p.Index())
		}
	}

	info, err := d.Info()
	if err != nil {
		return err
	}
	els := make([]*layout.Element, 0, len(nums))
	for _, n := range nums {
		el, err := d.Layout(n)
		if err != nil {
			return err
		}
		els = append(els, el)
	}

	root := d.builder.BuildDocument(info, els)
	d.root = root
	d.query = goquery.NewDocumentFromNode(root.HTML())
	d.loaded = nums
	d.log.Debug("document loaded",
		"pages", len(nums),
		"nodes", root.Count(),
		"objects", d.builder.Objects.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (d *Document) ensureLoaded() error {
	if d.query != nil {
		return nil
	}
	return d.Load()
}

// Page returns the n-th page handle; ok is false past the end.
func (d *Document) Page(n int) (layout.Page, bool, error) {
	return d.pages.Page(n)
}

// Layout returns the layout of page n, analyzing it on first use.
func (d *Document) Layout(n int) (*layout.Element, error) {
	if el, ok := d.layouts[n]; ok {
		return el, nil
	}
	p, ok, err := d.pages.Page(n)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("page %d: %w", n, ErrPageNotFound)
	}
	el, err := d.provider.LayoutOf(p)
	if err != nil {
		return nil, fmt.Errorf("layout page %d: %w", n, err)
	}
	d.layouts[n] = el
	return el, nil
}

// Info returns the document metadata.
func (d *Document) Info() (map[string]string, error) {
	if d.info != nil {
		return d.info, nil
	}
	info, err := d.provider.Info()
	if err != nil {
		return nil, fmt.Errorf("document info: %w", err)
	}
	if info == nil {
		info = map[string]string{}
	}
	d.info = info
	return info, nil
}

// Tree returns the last loaded tree, or nil.
func (d *Document) Tree() *tree.Node { return d.root }

// Query returns the query view over the last loaded tree, or nil.
func (d *Document) Query() *goquery.Document { return d.query }

// Loaded lists the 0-based page indices in the current tree.
func (d *Document) Loaded() []int { return d.loaded }

// Engine returns the selector engine used for extraction.
func (d *Document) Engine() *selector.Engine { return d.pipeline.Engine }

// Find evaluates sel against the whole tree, loading every page if
// nothing is loaded.
func (d *Document) Find(sel string) (*goquery.Selection, error) {
	if err := d.ensureLoaded(); err != nil {
		return nil, err
	}
	return d.pipeline.Engine.Find(d.query.Selection, sel)
}

// ExtractPairs runs steps and returns the labeled results in order.
func (d *Document) ExtractPairs(steps []extract.Step, opts ...ExtractOption) (extract.Results, error) {
	if err := d.ensureLoaded(); err != nil {
		return nil, err
	}
	var o extractOptions
	for _, opt := range opts {
		opt(&o)
	}
	return d.pipeline.Run(d.query.Selection, o.scope, steps)
}

// Extract runs steps and collapses the results by label.
func (d *Document) Extract(steps []extract.Step, opts ...ExtractOption) (map[string]any, error) {
	res, err := d.ExtractPairs(steps, opts...)
	if err != nil {
		return nil, err
	}
	return res.Map(), nil
}

// ObjectFor returns the layout elements an element of the query view was
// built from.
func (d *Document) ObjectFor(n *html.Node) ([]*layout.Element, error) {
	if err := d.ensureLoaded(); err != nil {
		return nil, err
	}
	ids, err := tree.ObjectIDsOf(n)
	if err != nil {
		return nil, err
	}
	out := make([]*layout.Element, 0, len(ids))
	for _, id := range ids {
		el, ok := d.builder.Objects.Get(id)
		if !ok {
			return nil, fmt.Errorf("object %d not in table", id)
		}
		out = append(out, el)
	}
	return out, nil
}

func flatten(args []any) ([]int, error) {
	var out []int
	for _, a := range args {
		switch v := a.(type) {
		case int:
			out = append(out, v)
		case []int:
			out = append(out, v...)
		case []any:
			nested, err := flatten(v)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		default:
			return nil, fmt.Errorf("page number: unsupported type %T", a)
		}
	}
	return out, nil
}
