package attrs

import (
	"strconv"
	"testing"

	"github.com/dgallion1/docquery/internal/layout"
)

func TestProject_RoundsCoordinates(t *testing.T) {
	p := DefaultProjector()
	el := &layout.Element{
		Kind: layout.KindTextBox,
		BBox: &layout.BBox{X0: 12.34567, Y0: 100, X1: 200.5, Y1: 150.0004},
	}
	got := p.Project(el)

	want := map[string]string{
		"x0":     "12.346",
		"y0":     "100.0",
		"x1":     "200.5",
		"y1":     "150.0",
		"width":  "188.154",
		"height": "50.0",
		"bbox":   "[12.346, 100.0, 200.5, 150.0]",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: expected %q, got %q", k, v, got[k])
		}
	}
}

func TestProject_RoundingIsIdempotent(t *testing.T) {
	p := DefaultProjector()
	first := p.Project(&layout.Element{Kind: layout.KindRect, BBox: &layout.BBox{X0: 12.34567}})["x0"]
	if first != "12.346" {
		t.Fatalf("expected 12.346, got %q", first)
	}
	v, err := strconv.ParseFloat(first, 64)
	if err != nil {
		t.Fatal(err)
	}
	second := p.Project(&layout.Element{Kind: layout.KindRect, BBox: &layout.BBox{X0: v}})["x0"]
	if second != first {
		t.Errorf("re-projection changed value: %q -> %q", first, second)
	}
}

func TestProject_NoRounding(t *testing.T) {
	p := Projector{RoundFloats: false, RoundDigits: 3}
	got := p.Project(&layout.Element{Kind: layout.KindRect, BBox: &layout.BBox{X0: 12.34567}})
	if got["x0"] != "12.34567" {
		t.Errorf("expected unrounded value, got %q", got["x0"])
	}
}

func TestProject_OnlyPresentFields(t *testing.T) {
	p := DefaultProjector()
	got := p.Project(&layout.Element{Kind: layout.KindAnon, Text: " ", HasText: true})
	if len(got) != 0 {
		t.Errorf("expected no attributes for a box-less anon, got %v", got)
	}
}

func TestProject_KindExtras(t *testing.T) {
	p := DefaultProjector()

	char := p.Project(&layout.Element{
		Kind: layout.KindChar,
		BBox: &layout.BBox{X0: 1, Y0: 2, X1: 3, Y1: 4},
		Char: &layout.CharInfo{FontName: "Helvetica", Adv: 5.5556, Upright: true, Size: 10},
	})
	if char["fontname"] != "Helvetica" || char["adv"] != "5.556" || char["upright"] != "true" || char["size"] != "10.0" {
		t.Errorf("unexpected char attributes: %v", char)
	}

	page := p.Project(&layout.Element{
		Kind: layout.KindPage,
		BBox: &layout.BBox{X1: 612, Y1: 792},
		Page: &layout.PageInfo{PageID: 7, Rotate: 90},
	})
	if page["pageid"] != "7" || page["rotate"] != "90" {
		t.Errorf("unexpected page attributes: %v", page)
	}
	if _, ok := page["fontname"]; ok {
		t.Error("page should not carry char fields")
	}

	img := p.Project(&layout.Element{
		Kind:  layout.KindImage,
		Name:  "Im0",
		Image: &layout.ImageInfo{ColorSpace: []string{"DeviceRGB"}, Bits: 8, SrcSize: [2]int{640, 480}},
	})
	if img["colorspace"] != "[DeviceRGB]" || img["bits"] != "8" || img["srcsize"] != "[640, 480]" || img["imagemask"] != "false" {
		t.Errorf("unexpected image attributes: %v", img)
	}
	if img["name"] != "Im0" {
		t.Errorf("expected name Im0, got %q", img["name"])
	}
}

func TestProject_Sequences(t *testing.T) {
	p := DefaultProjector()
	got := p.Project(&layout.Element{
		Kind:       layout.KindCurve,
		LineWidth:  layout.Float(0.5),
		Pts:        []layout.Point{{X: 1.23456, Y: 2}, {X: 3, Y: 4.00049}},
		Matrix:     &[6]float64{1, 0, 0, 1, 10.0001, 20},
		WordMargin: layout.Float(0.1),
		Index:      layout.Int(3),
	})
	if got["pts"] != "[[1.235, 2.0], [3.0, 4.0]]" {
		t.Errorf("pts: got %q", got["pts"])
	}
	if got["matrix"] != "[1.0, 0.0, 0.0, 1.0, 10.0, 20.0]" {
		t.Errorf("matrix: got %q", got["matrix"])
	}
	if got["linewidth"] != "0.5" || got["word_margin"] != "0.1" || got["index"] != "3" {
		t.Errorf("scalars: %v", got)
	}
}
