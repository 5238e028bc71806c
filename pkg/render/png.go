// Native PNG rendering. Mirrors the SVG renderer using gg for vector
// drawing, supersampled and scaled down for smooth edges.

package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ha1tch/flowcanvas/pkg/diagram"
	"github.com/ha1tch/flowcanvas/pkg/gesture"
	"github.com/ha1tch/flowcanvas/pkg/route"
)

// supersample is the factor the image is drawn at before downscaling.
const supersample = 3

// maxPixels caps the supersampled image area.
const maxPixels = 64 << 20

// pngRenderer holds the drawing context and a face cache for one image.
type pngRenderer struct {
	dc    *gg.Context
	font  *truetype.Font
	faces map[float64]font.Face
	scale float64 // output pixels per canvas unit, supersampling included
}

// PNG renders the diagram as a PNG image.
func PNG(doc *diagram.Document, w io.Writer, opts Options) error {
	img, err := Image(doc, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Image renders the diagram into an RGBA image.
func Image(doc *diagram.Document, opts Options) (*image.RGBA, error) {
	opts = opts.normalized()
	s := newScene(doc, opts)

	// Sized in float64 first: far-apart elements overflow int arithmetic.
	w, h := math.Ceil(s.view.W*opts.Scale), math.Ceil(s.view.H*opts.Scale)
	if math.IsNaN(w) || math.IsNaN(h) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return nil, fmt.Errorf("image size is not finite")
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("nothing to export")
	}
	if w*h*supersample*supersample > maxPixels {
		return nil, fmt.Errorf("image too large: %.0fx%.0f", w, h)
	}
	width, height := int(w), int(h)

	fnt, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	r := &pngRenderer{
		dc:    gg.NewContext(width*supersample, height*supersample),
		font:  fnt,
		faces: make(map[float64]font.Face),
		scale: opts.Scale * supersample,
	}
	r.dc.SetColor(colorWhite)
	r.dc.Clear()

	// Canvas units from here on.
	r.dc.Scale(r.scale, r.scale)
	r.dc.Translate(-s.view.X, -s.view.Y)

	if s.title != "" {
		r.setFont(18)
		r.dc.SetColor(colorInk)
		r.dc.DrawStringAnchored(s.title, s.view.Center().X, s.view.Y+titleSpace*0.6, 0.5, 0.5)
	}
	for _, c := range s.routes {
		r.drawConnection(c)
	}
	for _, e := range s.elements {
		r.drawElement(e)
	}

	// Downsample to target size using high-quality interpolation
	final := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(final, final.Bounds(), r.dc.Image(), r.dc.Image().Bounds(), draw.Over, nil)
	return final, nil
}

// setFont selects Go Regular at size canvas units. gg scales glyphs by the
// current matrix; line widths are in device pixels.
func (r *pngRenderer) setFont(size float64) {
	f, ok := r.faces[size]
	if !ok {
		f = truetype.NewFace(r.font, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingNone, // No hinting - we supersample instead
		})
		r.faces[size] = f
	}
	r.dc.SetFontFace(f)
}

func (r *pngRenderer) drawConnection(c route.Connection) {
	pts := c.Route.Points
	if len(pts) < 2 {
		return
	}
	r.dc.SetColor(colorInk)
	r.dc.SetLineWidth(1.5 * r.scale)
	r.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		r.dc.LineTo(p.X, p.Y)
	}
	r.dc.Stroke()

	if tri, ok := route.Arrowhead(c.Route, route.ArrowLength, route.ArrowWidth); ok {
		r.dc.MoveTo(tri[0].X, tri[0].Y)
		r.dc.LineTo(tri[1].X, tri[1].Y)
		r.dc.LineTo(tri[2].X, tri[2].Y)
		r.dc.ClosePath()
		r.dc.Fill()
	}

	if c.Label != "" {
		at := route.LabelAnchor(c.Route)
		r.setFont(12)
		r.dc.SetColor(colorLabel)
		r.dc.DrawStringAnchored(c.Label, at.X, at.Y-8, 0.5, 0.5)
	}
}

func (r *pngRenderer) drawElement(e *diagram.Element) {
	b := e.Bounds()
	c := b.Center()
	stroke := withOpacity(ink(e), e.Opacity)
	bg := withOpacity(fill(e), e.Opacity)

	r.dc.SetLineWidth(1.5 * r.scale)
	switch e.Shape {
	case diagram.ShapeInitial:
		r.dc.DrawEllipse(c.X, c.Y, b.W/2, b.H/2)
		r.fillStroke(bg, stroke)

	case diagram.ShapeTerminal:
		r.dc.DrawEllipse(c.X, c.Y, b.W/2, b.H/2)
		r.fillStroke(withOpacity(colorWhite, e.Opacity), stroke)
		r.dc.DrawEllipse(c.X, c.Y, b.W*0.3, b.H*0.3)
		r.fillStroke(bg, stroke)

	case diagram.ShapeDecision:
		d := diamond(b)
		r.dc.MoveTo(d[0].X, d[0].Y)
		for _, p := range d[1:] {
			r.dc.LineTo(p.X, p.Y)
		}
		r.dc.ClosePath()
		r.fillStroke(bg, stroke)

	case diagram.ShapePredefinedAction:
		r.dc.DrawRectangle(b.X, b.Y, b.W, b.H)
		r.fillStroke(bg, stroke)
		for _, x := range []float64{b.X + 10, b.Right() - 10} {
			r.dc.DrawLine(x, b.Y, x, b.Bottom())
		}
		r.dc.SetColor(stroke)
		r.dc.Stroke()

	case diagram.ShapeTextbox:
		// text only

	default:
		r.dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, 8)
		r.fillStroke(bg, stroke)
	}

	r.drawText(e, stroke)
}

func (r *pngRenderer) fillStroke(bg, stroke color.Color) {
	r.dc.SetColor(bg)
	r.dc.FillPreserve()
	r.dc.SetColor(stroke)
	r.dc.Stroke()
}

func (r *pngRenderer) drawText(e *diagram.Element, c color.RGBA) {
	lines := textLines(e)
	if len(lines) == 0 {
		return
	}
	if e.Shape == diagram.ShapeInitial {
		c = withOpacity(colorWhite, e.Opacity)
	}
	safe := gesture.SafeRect(e.Shape, e.Bounds())
	lh := lineHeight(e.FontSize)
	y := safe.Center().Y - lh*float64(len(lines)-1)/2

	r.setFont(e.FontSize)
	r.dc.SetColor(c)
	x, anchor := textX(safe, e.Align)
	ax := 0.5
	switch anchor {
	case "start":
		ax = 0
	case "end":
		ax = 1
	}
	for i, line := range lines {
		r.dc.DrawStringAnchored(line, x, y+float64(i)*lh, ax, 0.35)
	}
}

func withOpacity(c color.RGBA, opacity float64) color.RGBA {
	if opacity <= 0 || opacity >= 1 {
		return c
	}
	// color.RGBA is alpha-premultiplied.
	a := opacity
	return color.RGBA{uint8(float64(c.R) * a), uint8(float64(c.G) * a), uint8(float64(c.B) * a), uint8(255 * a)}
}
