package layout

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Dump is the on-disk form of a pre-analyzed document. It is read as YAML,
// which also accepts JSON.
type Dump struct {
	Info  map[string]string `yaml:"info"`
	Pages []DumpElement     `yaml:"pages"`
}

// DumpElement is one serialized layout element.
type DumpElement struct {
	Type     string        `yaml:"type"`
	BBox     []float64     `yaml:"bbox,omitempty"`
	Text     *string       `yaml:"text,omitempty"`
	Children []DumpElement `yaml:"children,omitempty"`

	LineWidth  *float64     `yaml:"linewidth,omitempty"`
	Pts        [][2]float64 `yaml:"pts,omitempty"`
	Index      *int         `yaml:"index,omitempty"`
	Name       string       `yaml:"name,omitempty"`
	Matrix     []float64    `yaml:"matrix,omitempty"`
	WordMargin *float64     `yaml:"word_margin,omitempty"`

	FontName string   `yaml:"fontname,omitempty"`
	Adv      *float64 `yaml:"adv,omitempty"`
	Upright  *bool    `yaml:"upright,omitempty"`
	Size     *float64 `yaml:"size,omitempty"`

	ColorSpace []string `yaml:"colorspace,omitempty"`
	Bits       *int     `yaml:"bits,omitempty"`
	ImageMask  *bool    `yaml:"imagemask,omitempty"`
	SrcSize    []int    `yaml:"srcsize,omitempty"`
	Stream     string   `yaml:"stream,omitempty"`

	PageID *int `yaml:"pageid,omitempty"`
	Rotate *int `yaml:"rotate,omitempty"`
}

// ReadDump decodes a layout dump and returns a provider serving its pages.
func ReadDump(r io.Reader) (*Static, error) {
	var d Dump
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode layout dump: %w", err)
	}
	pages := make([]*Element, 0, len(d.Pages))
	for i, p := range d.Pages {
		el, err := p.element()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if el.Kind != KindPage {
			return nil, fmt.Errorf("page %d: top-level element is %s, want LTPage", i, el.Tag())
		}
		pages = append(pages, el)
	}
	return NewStatic(d.Info, pages...), nil
}

func (d DumpElement) element() (*Element, error) {
	kind, ok := ParseKind(d.Type)
	if !ok {
		return nil, fmt.Errorf("unknown element type %q", d.Type)
	}
	el := &Element{
		Kind:       kind,
		LineWidth:  d.LineWidth,
		Index:      d.Index,
		Name:       d.Name,
		WordMargin: d.WordMargin,
	}
	if d.BBox != nil {
		if len(d.BBox) != 4 {
			return nil, fmt.Errorf("%s: bbox has %d values, want 4", d.Type, len(d.BBox))
		}
		el.BBox = &BBox{X0: d.BBox[0], Y0: d.BBox[1], X1: d.BBox[2], Y1: d.BBox[3]}
	}
	if d.Text != nil {
		el.Text = *d.Text
		el.HasText = true
	}
	for _, p := range d.Pts {
		el.Pts = append(el.Pts, Point{X: p[0], Y: p[1]})
	}
	if d.Matrix != nil {
		if len(d.Matrix) != 6 {
			return nil, fmt.Errorf("%s: matrix has %d values, want 6", d.Type, len(d.Matrix))
		}
		var m [6]float64
		copy(m[:], d.Matrix)
		el.Matrix = &m
	}

	switch kind {
	case KindChar:
		c := &CharInfo{FontName: d.FontName, Upright: true}
		if d.Adv != nil {
			c.Adv = *d.Adv
		}
		if d.Upright != nil {
			c.Upright = *d.Upright
		}
		if d.Size != nil {
			c.Size = *d.Size
		}
		el.Char = c
	case KindImage:
		img := &ImageInfo{ColorSpace: d.ColorSpace, Stream: d.Stream}
		if d.Bits != nil {
			img.Bits = *d.Bits
		}
		if d.ImageMask != nil {
			img.ImageMask = *d.ImageMask
		}
		if len(d.SrcSize) == 2 {
			img.SrcSize = [2]int{d.SrcSize[0], d.SrcSize[1]}
		}
		el.Image = img
	case KindPage:
		pi := &PageInfo{}
		if d.PageID != nil {
			pi.PageID = *d.PageID
		}
		if d.Rotate != nil {
			pi.Rotate = *d.Rotate
		}
		el.Page = pi
	}

	for _, c := range d.Children {
		child, err := c.element()
		if err != nil {
			return nil, err
		}
		el.Children = append(el.Children, child)
	}
	return el, nil
}

// WriteDump serializes page layouts so they can be read back by ReadDump.
func WriteDump(w io.Writer, info map[string]string, pages []*Element) error {
	d := Dump{Info: info}
	for _, p := range pages {
		d.Pages = append(d.Pages, dumpOf(p))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode layout dump: %w", err)
	}
	return enc.Close()
}

func dumpOf(el *Element) DumpElement {
	d := DumpElement{
		Type:       el.Tag(),
		LineWidth:  el.LineWidth,
		Index:      el.Index,
		Name:       el.Name,
		WordMargin: el.WordMargin,
	}
	if el.BBox != nil {
		d.BBox = []float64{el.BBox.X0, el.BBox.Y0, el.BBox.X1, el.BBox.Y1}
	}
	if el.HasText {
		text := el.Text
		d.Text = &text
	}
	for _, p := range el.Pts {
		d.Pts = append(d.Pts, [2]float64{p.X, p.Y})
	}
	if el.Matrix != nil {
		d.Matrix = el.Matrix[:]
	}
	if c := el.Char; c != nil {
		d.FontName = c.FontName
		d.Adv = Float(c.Adv)
		upright := c.Upright
		d.Upright = &upright
		d.Size = Float(c.Size)
	}
	if img := el.Image; img != nil {
		d.ColorSpace = img.ColorSpace
		d.Bits = Int(img.Bits)
		mask := img.ImageMask
		d.ImageMask = &mask
		d.SrcSize = []int{img.SrcSize[0], img.SrcSize[1]}
		d.Stream = img.Stream
	}
	if p := el.Page; p != nil {
		d.PageID = Int(p.PageID)
		d.Rotate = Int(p.Rotate)
	}
	for _, c := range el.Children {
		d.Children = append(d.Children, dumpOf(c))
	}
	return d
}
