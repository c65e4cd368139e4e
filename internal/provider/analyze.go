package provider

import (
	"math"
	"strings"

	"github.com/dgallion1/docquery/internal/layout"
)

// Params tunes how glyphs are grouped into lines and text boxes. Margins
// are relative to the size of the glyphs or lines being compared.
type Params struct {
	// CharMargin is the widest horizontal gap that keeps two glyphs on one
	// line.
	CharMargin float64
	// LineOverlap is the vertical overlap two glyphs need to share a line.
	LineOverlap float64
	// WordMargin is the gap past which a space is inserted between glyphs.
	WordMargin float64
	// LineMargin is the widest vertical gap that keeps two lines in one box.
	LineMargin float64
}

func DefaultParams() Params {
	return Params{CharMargin: 2.0, LineOverlap: 0.5, WordMargin: 0.1, LineMargin: 0.5}
}

// glyph is one positioned character run from a content stream.
type glyph struct {
	text string
	font string
	size float64
	adv  float64
	box  layout.BBox
}

func (g glyph) width() float64 {
	if w := g.box.Width(); w > 0 {
		return w
	}
	return g.size / 2
}

func (g glyph) blank() bool { return strings.TrimSpace(g.text) == "" }

// hdistance is the horizontal gap between two boxes, zero if they overlap.
func hdistance(a, b layout.BBox) float64 {
	return math.Max(0, math.Max(a.X0, b.X0)-math.Min(a.X1, b.X1))
}

func vdistance(a, b layout.BBox) float64 {
	return math.Max(0, math.Max(a.Y0, b.Y0)-math.Min(a.Y1, b.Y1))
}

func voverlap(a, b layout.BBox) float64 {
	return math.Min(a.Y1, b.Y1) - math.Max(a.Y0, b.Y0)
}

func hoverlap(a, b layout.BBox) float64 {
	return math.Min(a.X1, b.X1) - math.Max(a.X0, b.X0)
}

func (p Params) sameLine(a, b glyph) bool {
	h := math.Min(a.box.Height(), b.box.Height())
	if h <= 0 {
		if a.box.Y0 != b.box.Y0 {
			return false
		}
	} else if voverlap(a.box, b.box) < p.LineOverlap*h {
		return false
	}
	return hdistance(a.box, b.box) < p.CharMargin*math.Max(a.width(), b.width())
}

// lines splits glyphs, in content order, into runs sharing a baseline.
func (p Params) lines(gs []glyph) [][]glyph {
	var (
		out [][]glyph
		cur []glyph
	)
	for _, g := range gs {
		if len(cur) > 0 && !p.sameLine(cur[len(cur)-1], g) {
			out = append(out, cur)
			cur = nil
		}
		cur = append(cur, g)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func charElement(g glyph) *layout.Element {
	b := g.box
	return &layout.Element{
		Kind:    layout.KindChar,
		BBox:    &b,
		Text:    g.text,
		HasText: true,
		Char:    &layout.CharInfo{FontName: g.font, Adv: g.adv, Upright: true, Size: g.size},
	}
}

func anon(text string) *layout.Element {
	return &layout.Element{Kind: layout.KindAnon, Text: text, HasText: true}
}

// lineElement builds a text line, inserting a space wherever two glyphs
// are further apart than the word margin, and a trailing newline.
func (p Params) lineElement(gs []glyph) *layout.Element {
	box := gs[0].box
	var (
		text     strings.Builder
		children []*layout.Element
	)
	for i, g := range gs {
		if i > 0 {
			prev := gs[i-1]
			margin := p.WordMargin * math.Max(math.Max(prev.width(), g.width()), math.Max(prev.size, g.size))
			if !prev.blank() && !g.blank() && g.box.X0-prev.box.X1 > margin {
				children = append(children, anon(" "))
				text.WriteString(" ")
			}
		}
		children = append(children, charElement(g))
		text.WriteString(g.text)
		box = box.Union(g.box)
	}
	children = append(children, anon("\n"))
	text.WriteString("\n")
	return &layout.Element{
		Kind:       layout.KindTextLine,
		BBox:       &box,
		Text:       text.String(),
		HasText:    true,
		Children:   children,
		WordMargin: layout.Float(p.WordMargin),
	}
}

// boxes groups consecutive lines that are vertically close and overlap
// horizontally. Each box is numbered in reading order.
func (p Params) boxes(lines []*layout.Element) []*layout.Element {
	var out []*layout.Element
	var cur *layout.Element
	var last *layout.Element
	flush := func() {
		if cur != nil {
			cur.Index = layout.Int(len(out))
			out = append(out, cur)
		}
	}
	for _, ln := range lines {
		if cur != nil && p.sameBox(*last.BBox, *ln.BBox) {
			union := cur.BBox.Union(*ln.BBox)
			cur.BBox = &union
			cur.Text += ln.Text
			cur.Children = append(cur.Children, ln)
			last = ln
			continue
		}
		flush()
		b := *ln.BBox
		cur = &layout.Element{Kind: layout.KindTextBox, BBox: &b, Text: ln.Text, HasText: true, Children: []*layout.Element{ln}}
		last = ln
	}
	flush()
	return out
}

func (p Params) sameBox(a, b layout.BBox) bool {
	h := math.Max(a.Height(), b.Height())
	return hoverlap(a, b) > 0 && vdistance(a, b) <= p.LineMargin*h
}

// analyze turns the glyphs of a page into text boxes.
func (p Params) analyze(gs []glyph) []*layout.Element {
	var lines []*layout.Element
	for _, run := range p.lines(gs) {
		lines = append(lines, p.lineElement(run))
	}
	return p.boxes(lines)
}
