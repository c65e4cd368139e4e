package layout

import "math"

// Kind identifies the type of a layout element.
type Kind int

const (
	KindPage Kind = iota
	KindTextBox
	KindTextBoxVertical
	KindTextGroup
	KindTextLine
	KindTextLineVertical
	KindChar
	KindAnon
	KindImage
	KindFigure
	KindLine
	KindRect
	KindCurve
)

var kindNames = map[Kind]string{
	KindPage:             "LTPage",
	KindTextBox:          "LTTextBoxHorizontal",
	KindTextBoxVertical:  "LTTextBoxVertical",
	KindTextGroup:        "LTTextGroup",
	KindTextLine:         "LTTextLineHorizontal",
	KindTextLineVertical: "LTTextLineVertical",
	KindChar:             "LTChar",
	KindAnon:             "LTAnon",
	KindImage:            "LTImage",
	KindFigure:           "LTFigure",
	KindLine:             "LTLine",
	KindRect:             "LTRect",
	KindCurve:            "LTCurve",
}

// String returns the tag name used for the kind in the document tree.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "LTComponent"
}

// ParseKind maps a tag name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// BBox is an axis-aligned box. Y grows upward, as in PDF user space.
type BBox struct {
	X0 float64 `json:"x0" yaml:"x0"`
	Y0 float64 `json:"y0" yaml:"y0"`
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
}

func (b BBox) Width() float64  { return b.X1 - b.X0 }
func (b BBox) Height() float64 { return b.Y1 - b.Y0 }

// Union returns the smallest box enclosing both boxes.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		X0: math.Min(b.X0, o.X0),
		Y0: math.Min(b.Y0, o.Y0),
		X1: math.Max(b.X1, o.X1),
		Y1: math.Max(b.Y1, o.Y1),
	}
}

// Point is a coordinate pair.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// CharInfo holds the fields only characters carry.
type CharInfo struct {
	FontName string  `json:"fontname" yaml:"fontname"`
	Adv      float64 `json:"adv" yaml:"adv"`
	Upright  bool    `json:"upright" yaml:"upright"`
	Size     float64 `json:"size" yaml:"size"`
}

// ImageInfo holds the fields only images carry.
type ImageInfo struct {
	ColorSpace []string `json:"colorspace,omitempty" yaml:"colorspace,omitempty"`
	Bits       int      `json:"bits" yaml:"bits"`
	ImageMask  bool     `json:"imagemask" yaml:"imagemask"`
	SrcSize    [2]int   `json:"srcsize" yaml:"srcsize"`
	Stream     string   `json:"stream,omitempty" yaml:"stream,omitempty"`
}

// PageInfo holds the fields only pages carry.
type PageInfo struct {
	PageID int `json:"pageid" yaml:"pageid"`
	Rotate int `json:"rotate" yaml:"rotate"`
}

// Element is one node of a page layout: a page, a text container, a glyph,
// an image or a graphic. Optional fields are nil when the element does not
// carry them.
type Element struct {
	Kind     Kind
	BBox     *BBox
	Text     string
	HasText  bool
	Children []*Element

	LineWidth  *float64
	Pts        []Point
	Index      *int
	Name       string
	Matrix     *[6]float64
	WordMargin *float64

	Char  *CharInfo
	Image *ImageInfo
	Page  *PageInfo
}

// Tag returns the element's tag name.
func (e *Element) Tag() string { return e.Kind.String() }

// Walk visits e and every descendant depth-first, stopping early if fn
// returns false.
func (e *Element) Walk(fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range e.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }
