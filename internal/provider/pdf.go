package provider

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/dgallion1/docquery/internal/layout"
	pdflib "github.com/ledongthuc/pdf"
)

// PDF analyzes page layouts of a PDF with ledongthuc/pdf. Glyph positions
// come from the content streams; text is grouped into characters, lines
// and boxes, and rectangles and image XObjects are reported alongside.
type PDF struct {
	r      *pdflib.Reader
	closer io.Closer
	params Params
	log    *slog.Logger
}

// PDFOption configures a PDF provider.
type PDFOption func(*PDF)

func WithParams(p Params) PDFOption {
	return func(d *PDF) { d.params = p }
}

func WithLogger(log *slog.Logger) PDFOption {
	return func(d *PDF) { d.log = log }
}

// OpenPDF opens the PDF at path. Close releases the file.
func OpenPDF(path string, opts ...PDFOption) (p *PDF, err error) {
	defer recoverInto(&err, "open pdf")
	f, r, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	p = newPDF(r, opts)
	p.closer = f
	return p, nil
}

// NewPDF reads a PDF held in memory or any other ReaderAt.
func NewPDF(ra io.ReaderAt, size int64, opts ...PDFOption) (p *PDF, err error) {
	defer recoverInto(&err, "read pdf")
	r, err := pdflib.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return newPDF(r, opts), nil
}

func newPDF(r *pdflib.Reader, opts []PDFOption) *PDF {
	p := &PDF{r: r, params: DefaultParams(), log: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *PDF) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

type pdfPage struct {
	index int
	page  pdflib.Page
}

func (pg pdfPage) Index() int { return pg.index }

type pdfIterator struct {
	p    *PDF
	next int
}

// Next resolves one more page object. The page tree is walked on demand,
// so nothing past the requested page is touched.
func (it *pdfIterator) Next() (pg layout.Page, err error) {
	defer recoverInto(&err, fmt.Sprintf("page %d", it.next))
	if it.next >= it.p.r.NumPage() {
		return nil, io.EOF
	}
	page := it.p.r.Page(it.next + 1)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d: missing page object", it.next)
	}
	pg = pdfPage{index: it.next, page: page}
	it.next++
	return pg, nil
}

func (p *PDF) Pages() layout.PageIterator {
	return &pdfIterator{p: p}
}

// LayoutOf parses the content stream of page. Malformed streams that make
// the reader panic are reported as errors.
func (p *PDF) LayoutOf(page layout.Page) (el *layout.Element, err error) {
	pg, ok := page.(pdfPage)
	if !ok {
		return nil, fmt.Errorf("pdf provider: foreign page handle %T", page)
	}
	defer recoverInto(&err, fmt.Sprintf("layout page %d", pg.index))

	box := mediaBox(pg.page.V)
	content := pg.page.Content()

	glyphs := make([]glyph, 0, len(content.Text))
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		glyphs = append(glyphs, glyph{
			text: t.S,
			font: t.Font,
			size: t.FontSize,
			adv:  t.W,
			box: layout.BBox{
				X0: t.X,
				Y0: t.Y - 0.2*t.FontSize,
				X1: t.X + t.W,
				Y1: t.Y + 0.8*t.FontSize,
			},
		})
	}

	pageEl := &layout.Element{
		Kind: layout.KindPage,
		BBox: &box,
		Page: &layout.PageInfo{PageID: pg.index + 1, Rotate: int(inherited(pg.page.V, "Rotate").Int64())},
	}
	pageEl.Children = append(pageEl.Children, p.params.analyze(glyphs)...)

	for _, r := range content.Rect {
		rb := layout.BBox{
			X0: min(r.Min.X, r.Max.X), Y0: min(r.Min.Y, r.Max.Y),
			X1: max(r.Min.X, r.Max.X), Y1: max(r.Min.Y, r.Max.Y),
		}
		pageEl.Children = append(pageEl.Children, &layout.Element{
			Kind: layout.KindRect,
			BBox: &rb,
			Pts: []layout.Point{
				{X: rb.X0, Y: rb.Y0}, {X: rb.X1, Y: rb.Y0},
				{X: rb.X1, Y: rb.Y1}, {X: rb.X0, Y: rb.Y1},
			},
		})
	}
	pageEl.Children = append(pageEl.Children, images(pg.page)...)

	p.log.Debug("pdf page analyzed",
		"page", pg.index,
		"glyphs", len(glyphs),
		"rects", len(content.Rect),
		"children", len(pageEl.Children),
	)
	return pageEl, nil
}

// Info returns the entries of the trailer's Info dictionary.
func (p *PDF) Info() (info map[string]string, err error) {
	defer recoverInto(&err, "document info")
	info = map[string]string{}
	dict := p.r.Trailer().Key("Info")
	if dict.Kind() != pdflib.Dict {
		return info, nil
	}
	for _, k := range dict.Keys() {
		if s, ok := scalar(dict.Key(k)); ok && s != "" {
			info[k] = s
		}
	}
	return info, nil
}

func scalar(v pdflib.Value) (string, bool) {
	switch v.Kind() {
	case pdflib.String:
		return v.Text(), true
	case pdflib.Name:
		return v.Name(), true
	case pdflib.Integer, pdflib.Real, pdflib.Bool:
		return v.String(), true
	}
	return "", false
}

// inherited looks key up on the page and then on its ancestors in the
// page tree.
func inherited(v pdflib.Value, key string) pdflib.Value {
	for i := 0; i < 32 && !v.IsNull(); i++ {
		if x := v.Key(key); !x.IsNull() {
			return x
		}
		v = v.Key("Parent")
	}
	return pdflib.Value{}
}

// letter is used when no usable MediaBox is found.
var letter = layout.BBox{X1: 612, Y1: 792}

func mediaBox(page pdflib.Value) layout.BBox {
	mb := inherited(page, "MediaBox")
	if mb.Kind() != pdflib.Array || mb.Len() != 4 {
		return letter
	}
	var c [4]float64
	for i := range c {
		n := mb.Index(i)
		if n.Kind() != pdflib.Integer && n.Kind() != pdflib.Real {
			return letter
		}
		c[i] = n.Float64()
	}
	b := layout.BBox{X0: min(c[0], c[2]), Y0: min(c[1], c[3]), X1: max(c[0], c[2]), Y1: max(c[1], c[3])}
	if b.Width() <= 0 || b.Height() <= 0 {
		return letter
	}
	return b
}

// images reports the image XObjects in the page resources. Placement is
// not tracked, so the elements carry no box.
func images(page pdflib.Page) []*layout.Element {
	xobjs := page.Resources().Key("XObject")
	if xobjs.Kind() != pdflib.Dict {
		return nil
	}
	names := xobjs.Keys()
	sort.Strings(names)
	var out []*layout.Element
	for _, name := range names {
		x := xobjs.Key(name)
		if x.Key("Subtype").Name() != "Image" {
			continue
		}
		img := &layout.ImageInfo{
			Bits:      int(x.Key("BitsPerComponent").Int64()),
			ImageMask: x.Key("ImageMask").Bool(),
			SrcSize:   [2]int{int(x.Key("Width").Int64()), int(x.Key("Height").Int64())},
		}
		switch cs := x.Key("ColorSpace"); cs.Kind() {
		case pdflib.Name:
			img.ColorSpace = []string{cs.Name()}
		case pdflib.Array:
			for i := 0; i < cs.Len(); i++ {
				if n := cs.Index(i); n.Kind() == pdflib.Name {
					img.ColorSpace = append(img.ColorSpace, n.Name())
				}
			}
		}
		out = append(out, &layout.Element{Kind: layout.KindImage, Name: name, Image: img})
	}
	return out
}

func recoverInto(err *error, what string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: malformed pdf: %v", what, r)
	}
}
