package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/docquery/internal/extract"
	"github.com/dgallion1/docquery/internal/layout"
	"github.com/dgallion1/docquery/internal/tree"
)

type countingProvider struct {
	*layout.Static
	layouts map[int]int
}

func (c *countingProvider) LayoutOf(p layout.Page) (*layout.Element, error) {
	c.layouts[p.Index()]++
	return c.Static.LayoutOf(p)
}

func bb(x0, y0, x1, y1 float64) *layout.BBox {
	return &layout.BBox{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

func chars(s string, x, y float64) []*layout.Element {
	var out []*layout.Element
	for _, r := range s {
		out = append(out, &layout.Element{
			Kind: layout.KindChar, BBox: bb(x, y, x+8, y+10), Text: string(r), HasText: true,
			Char: &layout.CharInfo{FontName: "Helvetica", Adv: 8, Upright: true, Size: 10},
		})
		x += 8
	}
	return out
}

// samplePages returns two pages. Page 1 has a text box inside
// (100,100,400,400) and one outside; page 2 has a figure of loose chars.
func samplePages() []*layout.Element {
	inside := &layout.Element{Kind: layout.KindTextBox, BBox: bb(120, 120, 300, 140), Text: "Invoice 42\n", HasText: true}
	outside := &layout.Element{Kind: layout.KindTextBox, BBox: bb(120, 600, 300, 620), Text: "Letterhead\n", HasText: true}
	p1 := &layout.Element{Kind: layout.KindPage, BBox: bb(0, 0, 612, 792), Page: &layout.PageInfo{PageID: 1},
		Children: []*layout.Element{inside, outside}}

	fig := &layout.Element{Kind: layout.KindFigure, BBox: bb(50, 50, 300, 100), Name: "Fm1", Children: chars("Total", 60, 60)}
	p2 := &layout.Element{Kind: layout.KindPage, BBox: bb(0, 0, 612, 792), Page: &layout.PageInfo{PageID: 2},
		Children: []*layout.Element{fig}}
	return []*layout.Element{p1, p2}
}

func newDoc(opts ...Option) (*Document, *countingProvider) {
	p := &countingProvider{Static: layout.NewStatic(map[string]string{"Title": "Sample"}, samplePages()...), layouts: map[int]int{}}
	return New(p, opts...), p
}

func TestExtract_AutoLoadsAndFindsInsideBox(t *testing.T) {
	d, _ := newDoc()
	got, err := d.Extract([]extract.Step{{Label: "stuff", Selector: `:in_bbox("100,100,400,400")`}})
	if err != nil {
		t.Fatal(err)
	}
	sel := got["stuff"].(*goquery.Selection)
	if sel.Length() != 1 || strings.TrimSpace(sel.Text()) != "Invoice 42" {
		t.Errorf("expected only the inside box, got %d %q", sel.Length(), sel.Text())
	}
	if d.Tree() == nil || len(d.Tree().Children) != 2 {
		t.Errorf("expected both pages auto-loaded")
	}
	if v, _ := d.Query().Attr("title"); v != "Sample" {
		t.Errorf("expected metadata on the root, got %q", v)
	}
}

func TestExtract_WithParentOnlySeesPage2(t *testing.T) {
	d, _ := newDoc()
	if err := d.Load(0, 1); err != nil {
		t.Fatal(err)
	}
	text, _ := extract.Named("text")
	got, err := d.Extract([]extract.Step{
		{Label: extract.LabelWithParent, Selector: `LTPage[pageid="2"]`},
		{Label: "chars", Selector: "LTChar", Format: text},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got["chars"] != "Total" {
		t.Errorf("expected merged page 2 chars, got %v", got["chars"])
	}
}

func TestExtract_WithScope(t *testing.T) {
	d, _ := newDoc()
	if err := d.Load(); err != nil {
		t.Fatal(err)
	}
	length, _ := extract.Named("length")
	page1 := d.Query().Find(`ltpage[pageid="1"]`)
	res, err := d.ExtractPairs([]extract.Step{{Label: "boxes", Selector: "LTTextBoxHorizontal", Format: length}}, WithScope(page1))
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Value != 2 {
		t.Errorf("unexpected scoped result %+v", res)
	}
}

func TestLoad_PageSubsetAndFlatten(t *testing.T) {
	d, p := newDoc()
	if err := d.Load([]any{1, []int{1}}); err != nil {
		t.Fatal(err)
	}
	if len(d.Tree().Children) != 2 {
		t.Fatalf("expected page 1 twice, got %d pages", len(d.Tree().Children))
	}
	if p.layouts[1] != 1 || p.layouts[0] != 0 {
		t.Errorf("expected exactly one analysis of page 1, got %v", p.layouts)
	}
	if err := d.Load(0); err != nil {
		t.Fatal(err)
	}
	if err := d.Load(1); err != nil {
		t.Fatal(err)
	}
	if p.layouts[0] != 1 || p.layouts[1] != 1 {
		t.Errorf("reloads must reuse page layouts, got %v", p.layouts)
	}
	if err := d.Load("2"); err == nil {
		t.Error("expected error for non-integer page")
	}
}

func TestLoad_MissingPage(t *testing.T) {
	d, _ := newDoc()
	err := d.Load(7)
	if !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
	if _, ok, err := d.Page(7); ok || err != nil {
		t.Errorf("expected a plain not-found from Page, got ok=%v err=%v", ok, err)
	}
}

func TestObjectFor_ResolvesMergedFragments(t *testing.T) {
	d, _ := newDoc()
	sel, err := d.Find("LTChar")
	if err != nil {
		t.Fatal(err)
	}
	if sel.Length() != 1 {
		t.Fatalf("expected one merged char node, got %d", sel.Length())
	}
	els, err := d.ObjectFor(sel.Nodes[0])
	if err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	for _, el := range els {
		b.WriteString(el.Text)
	}
	if b.String() != "Total" {
		t.Errorf("expected the five original fragments, got %q", b.String())
	}

	pg, _ := d.Find("LTPage")
	els, err = d.ObjectFor(pg.Nodes[0])
	if err != nil || len(els) != 1 || els[0].Kind != layout.KindPage {
		t.Errorf("unexpected page object %v (%v)", els, err)
	}
}

func TestObjectTable_GrowsAcrossLoads(t *testing.T) {
	d, _ := newDoc()
	if err := d.Load(0); err != nil {
		t.Fatal(err)
	}
	first := d.builder.Objects.Len()
	if err := d.Load(0); err != nil {
		t.Fatal(err)
	}
	if d.builder.Objects.Len() != 2*first {
		t.Errorf("expected the object table to keep growing, got %d then %d", first, d.builder.Objects.Len())
	}
	ids, _ := tree.ObjectIDsOf(d.Query().Find("ltpage").Nodes[0])
	if ids[0] != first {
		t.Errorf("expected fresh ids for the new tree, got %v", ids)
	}
}

func TestOptions(t *testing.T) {
	d, _ := newDoc(WithMergeTags(), WithRoundDigits(1), WithNormalizeSpaces(false))
	sel, err := d.Find("LTChar")
	if err != nil {
		t.Fatal(err)
	}
	if sel.Length() != 5 {
		t.Errorf("expected merging disabled, got %d char nodes", sel.Length())
	}
	tb, _ := d.Find(`LTTextBoxHorizontal:in_bbox("100,100,400,400")`)
	if !strings.HasSuffix(tb.Text(), "\n") {
		t.Errorf("expected raw text without normalizing, got %q", tb.Text())
	}

	d, _ = newDoc(WithTextFormatter(strings.ToUpper))
	tb, _ = d.Find(`LTTextBoxHorizontal:in_bbox("100,100,400,400")`)
	if tb.Text() != "INVOICE 42\n" {
		t.Errorf("expected custom formatter to win, got %q", tb.Text())
	}
}
