package selector

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/docquery/internal/layout"
)

const sample = `<pdfxml>
<ltpage pageid="1" x0="0" y0="0" x1="612" y1="792">
  <lttextlinehorizontal x0="100" y0="700" x1="300" y1="712">Header</lttextlinehorizontal>
  <ltrect x0="50" y0="50" x1="550" y1="650">
    <lttextboxhorizontal x0="100" y0="100" x1="400" y1="400">
      <lttextlinehorizontal x0="110" y0="300" x1="390" y1="312">Inside</lttextlinehorizontal>
      <lttextlinehorizontal x0="110" y0="380" x1="450" y1="392">Spills</lttextlinehorizontal>
    </lttextboxhorizontal>
    <ltfigure name="Fm0"></ltfigure>
  </ltrect>
</ltpage>
<ltpage pageid="2" x0="0" y0="0" x1="612" y1="792">
  <lttextlinehorizontal x0="100" y0="700" x1="300" y1="712">Second</lttextlinehorizontal>
</ltpage>
</pdfxml>`

func loadSample(t *testing.T) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	return doc.Find("pdfxml")
}

func texts(s *goquery.Selection) string {
	var out []string
	s.Each(func(_ int, e *goquery.Selection) {
		out = append(out, strings.TrimSpace(e.Contents().First().Text()))
	})
	return strings.Join(out, ",")
}

func TestFind_PlainSelector(t *testing.T) {
	root := loadSample(t)
	got, err := NewEngine().Find(root, `LTTextLineHorizontal`)
	if err != nil {
		t.Fatal(err)
	}
	if got.Length() != 4 {
		t.Errorf("expected 4 lines, got %d", got.Length())
	}
	if got, _ := NewEngine().Find(root, `LTPage[pageid="2"] LTTextLineHorizontal`); texts(got) != "Second" {
		t.Errorf("unexpected page 2 lines %q", texts(got))
	}
}

func TestFind_InBBox(t *testing.T) {
	root := loadSample(t)
	got, err := NewEngine().Find(root, `LTTextLineHorizontal:in_bbox("100,100,400,400")`)
	if err != nil {
		t.Fatal(err)
	}
	if texts(got) != "Inside" {
		t.Errorf("expected only the fully enclosed line, got %q", texts(got))
	}
}

func TestFind_OverlapsBBox(t *testing.T) {
	root := loadSample(t)
	got, err := NewEngine().Find(root, `LTTextLineHorizontal:overlaps_bbox("400,380,500,500")`)
	if err != nil {
		t.Fatal(err)
	}
	if texts(got) != "Spills" {
		t.Errorf("expected the overlapping line, got %q", texts(got))
	}
}

func TestFind_PredicateWithoutTypeAndCombinators(t *testing.T) {
	root := loadSample(t)
	e := NewEngine()

	all, err := e.Find(root, `:in_bbox(0,0,612,792)`)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range all.Nodes {
		if n.Data == "ltfigure" {
			t.Error("an element without a box must never match a positional predicate")
		}
	}

	child, err := e.Find(root, `LTRect > LTTextBoxHorizontal:in_bbox("0,0,612,792") LTTextLineHorizontal`)
	if err != nil {
		t.Fatal(err)
	}
	if texts(child) != "Inside,Spills" {
		t.Errorf("unexpected descendant match %q", texts(child))
	}

	sib, err := e.Find(root, `LTTextLineHorizontal:in_bbox("0,0,612,792") + LTTextLineHorizontal`)
	if err != nil {
		t.Fatal(err)
	}
	if texts(sib) != "Spills" {
		t.Errorf("unexpected adjacent sibling match %q", texts(sib))
	}

	group, err := e.Find(root, `LTPage[pageid="2"] LTTextLineHorizontal, LTTextLineHorizontal:in_bbox("100,100,400,400")`)
	if err != nil {
		t.Fatal(err)
	}
	if group.Length() != 2 {
		t.Errorf("expected 2 group matches, got %d", group.Length())
	}
}

func TestFind_IncludesScope(t *testing.T) {
	root := loadSample(t)
	pages := root.Find("ltpage")
	got, err := NewEngine().Find(pages, `LTPage:in_bbox("0,0,612,792")`)
	if err != nil {
		t.Fatal(err)
	}
	if got.Length() != 2 {
		t.Errorf("expected both pages to match themselves, got %d", got.Length())
	}
}

func TestCompile_Errors(t *testing.T) {
	e := NewEngine()
	for _, sel := range []string{
		``,
		`LTPage[`,
		`LTPage:in_bbox("1,2,3")`,
		`LTPage:in_bbox("a,b,c,d")`,
		`> LTPage:in_bbox(0,0,1,1)`,
		`LTPage:in_bbox(0,0,1,1) >`,
		`LTPage:in_bbox(0,0,1,1) > > LTChar`,
		`LTPage:nope(1)`,
	} {
		_, err := e.Compile(sel)
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("%q: expected *SyntaxError, got %v", sel, err)
			continue
		}
		if se.Selector != sel {
			t.Errorf("expected selector %q on error, got %q", sel, se.Selector)
		}
	}
}

func TestRegister_CustomPredicate(t *testing.T) {
	root := loadSample(t)
	e := NewEngine()
	if _, err := e.Compile(`LTPage:wide(0,0,500,0)`); err == nil {
		t.Fatal("expected unregistered pseudo-class to fail")
	}
	e.Register("wide", func(n, arg layout.BBox) bool { return n.X1-n.X0 >= arg.X1 })

	got, err := e.Find(root, `LTTextLineHorizontal:wide(0,0,250,0)`)
	if err != nil {
		t.Fatal(err)
	}
	if texts(got) != "Inside,Spills" {
		t.Errorf("unexpected custom predicate matches %q", texts(got))
	}
	names := strings.Join(e.Predicates(), ",")
	if names != "in_bbox,overlaps_bbox,wide" {
		t.Errorf("unexpected predicates %q", names)
	}
}

func TestCompile_Cached(t *testing.T) {
	e := NewEngine()
	a, err := e.Compile(`LTChar:in_bbox(0,0,1,1)`)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Compile(`LTChar:in_bbox(0,0,1,1)`)
	if a != b {
		t.Error("expected the compiled matcher to be reused")
	}
}

func TestTopLevel_QuotedParens(t *testing.T) {
	parts, err := splitTop(`a[title="x,y"], b:in_bbox("1,2,3,4")`, ',')
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 2 {
		t.Errorf("expected 2 groups, got %q", parts)
	}
}

func TestFind_PredicateInsideNot(t *testing.T) {
	root := loadSample(t)
	e := NewEngine()
	got, err := e.Find(root, `LTTextLineHorizontal:not(:in_bbox("100,100,400,400"))`)
	if err != nil {
		t.Fatal(err)
	}
	if texts(got) != "Header,Spills,Second" {
		t.Errorf("expected every line outside the box, got %q", texts(got))
	}

	got, err = e.Find(root, `LTTextLineHorizontal:not(LTRect :overlaps_bbox("0,0,612,792"))`)
	if err != nil {
		t.Fatal(err)
	}
	if texts(got) != "Header,Second" {
		t.Errorf("expected lines outside the rect, got %q", texts(got))
	}

	if _, err := e.Compile(`LTChar:not(:in_bbox("1,2,3"))`); err == nil {
		t.Error("expected a bad argument inside :not to fail")
	}
}
