// Package attrs projects layout elements onto flat string attribute maps.
package attrs

import (
	"math"
	"strconv"
	"strings"

	"github.com/dgallion1/docquery/internal/layout"
)

// Projector converts element fields to strings, rounding floats when
// RoundFloats is set.
type Projector struct {
	RoundFloats bool
	RoundDigits int
}

func DefaultProjector() Projector {
	return Projector{RoundFloats: true, RoundDigits: 3}
}

// Round applies the projector's rounding to v.
func (p Projector) Round(v float64) float64 {
	if !p.RoundFloats {
		return v
	}
	scale := math.Pow(10, float64(p.RoundDigits))
	r := math.Round(v*scale) / scale
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return v
	}
	return r
}

// RoundBox rounds every coordinate of b.
func (p Projector) RoundBox(b layout.BBox) layout.BBox {
	return layout.BBox{X0: p.Round(b.X0), Y0: p.Round(b.Y0), X1: p.Round(b.X1), Y1: p.Round(b.Y1)}
}

// Project returns the attributes present on el: the box fields, linewidth,
// pts, index, name, matrix and word_margin when set, plus the extras of
// images, characters and pages.
func (p Projector) Project(el *layout.Element) map[string]string {
	out := make(map[string]string, 16)

	if b := el.BBox; b != nil {
		out["x0"] = p.float(b.X0)
		out["y0"] = p.float(b.Y0)
		out["x1"] = p.float(b.X1)
		out["y1"] = p.float(b.Y1)
		out["width"] = p.float(b.Width())
		out["height"] = p.float(b.Height())
		out["bbox"] = p.floats([]float64{b.X0, b.Y0, b.X1, b.Y1})
	}
	if el.LineWidth != nil {
		out["linewidth"] = p.float(*el.LineWidth)
	}
	if el.Pts != nil {
		parts := make([]string, len(el.Pts))
		for i, pt := range el.Pts {
			parts[i] = p.floats([]float64{pt.X, pt.Y})
		}
		out["pts"] = "[" + strings.Join(parts, ", ") + "]"
	}
	if el.Index != nil {
		out["index"] = strconv.Itoa(*el.Index)
	}
	if el.Name != "" {
		out["name"] = el.Name
	}
	if el.Matrix != nil {
		out["matrix"] = p.floats(el.Matrix[:])
	}
	if el.WordMargin != nil {
		out["word_margin"] = p.float(*el.WordMargin)
	}

	switch el.Kind {
	case layout.KindImage:
		if img := el.Image; img != nil {
			out["colorspace"] = "[" + strings.Join(img.ColorSpace, ", ") + "]"
			out["bits"] = strconv.Itoa(img.Bits)
			out["imagemask"] = strconv.FormatBool(img.ImageMask)
			out["srcsize"] = "[" + strconv.Itoa(img.SrcSize[0]) + ", " + strconv.Itoa(img.SrcSize[1]) + "]"
			if img.Stream != "" {
				out["stream"] = img.Stream
			}
		}
	case layout.KindChar:
		if c := el.Char; c != nil {
			out["fontname"] = c.FontName
			out["adv"] = p.float(c.Adv)
			out["upright"] = strconv.FormatBool(c.Upright)
			out["size"] = p.float(c.Size)
		}
	case layout.KindPage:
		if pg := el.Page; pg != nil {
			out["pageid"] = strconv.Itoa(pg.PageID)
			out["rotate"] = strconv.Itoa(pg.Rotate)
		}
	}
	return out
}

func (p Projector) float(v float64) string {
	return FormatFloat(p.Round(v))
}

func (p Projector) floats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = p.float(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatFloat prints v in shortest form, keeping a ".0" on integral values
// so attribute strings stay recognizably floating point.
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return s
	}
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
