package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/ha1tch/flowcanvas/pkg/diagram"
	"github.com/ha1tch/flowcanvas/pkg/geom"
	"github.com/ha1tch/flowcanvas/pkg/gesture"
	"github.com/ha1tch/flowcanvas/pkg/route"
)

// SVG renders the diagram as a standalone SVG document. Canvas units map to
// SVG user units through a viewBox, so Scale only affects the nominal size.
func SVG(doc *diagram.Document, opts Options) string {
	opts = opts.normalized()
	s := newScene(doc, opts)
	v := s.view

	var sb strings.Builder

	// SVG header
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="%.1f %.1f %.1f %.1f">
<style>
  .element { stroke-width: 1.5; }
  .connection { fill: none; stroke: #333; stroke-width: 1.5; }
  .arrowhead { fill: #333; }
  .label { font-family: sans-serif; font-size: 12px; fill: #666; text-anchor: middle; dominant-baseline: middle; }
  .text { font-family: sans-serif; dominant-baseline: middle; }
  .title { font-family: sans-serif; font-size: 18px; font-weight: bold; text-anchor: middle; }
</style>
`, v.W*opts.Scale, v.H*opts.Scale, v.X, v.Y, v.W, v.H))

	// Background
	sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="white"/>
`, v.X, v.Y, v.W, v.H))

	// Title
	if s.title != "" {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" class="title">%s</text>
`, v.Center().X, v.Y+titleSpace*0.75, html.EscapeString(s.title)))
	}

	// Connections first so elements cover their ends
	for _, c := range s.routes {
		writeConnection(&sb, c)
	}
	for _, e := range s.elements {
		writeElement(&sb, e)
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

func writeConnection(sb *strings.Builder, c route.Connection) {
	pts := make([]string, len(c.Route.Points))
	for i, p := range c.Route.Points {
		pts[i] = fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
	}
	sb.WriteString(fmt.Sprintf(`<polyline points="%s" class="connection"/>
`, strings.Join(pts, " ")))

	if tri, ok := route.Arrowhead(c.Route, route.ArrowLength, route.ArrowWidth); ok {
		sb.WriteString(fmt.Sprintf(`<polygon points="%.1f,%.1f %.1f,%.1f %.1f,%.1f" class="arrowhead"/>
`, tri[0].X, tri[0].Y, tri[1].X, tri[1].Y, tri[2].X, tri[2].Y))
	}

	if c.Label != "" {
		at := route.LabelAnchor(c.Route)
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" class="label">%s</text>
`, at.X, at.Y-8, html.EscapeString(c.Label)))
	}
}

func writeElement(sb *strings.Builder, e *diagram.Element) {
	b := e.Bounds()
	stroke := hex(ink(e))
	bg := hex(fill(e))
	attrs := fmt.Sprintf(`class="element" fill="%s" stroke="%s" opacity="%.2f"`, bg, stroke, e.Opacity)

	switch e.Shape {
	case diagram.ShapeInitial:
		c := b.Center()
		sb.WriteString(fmt.Sprintf(`<ellipse cx="%.1f" cy="%.1f" rx="%.1f" ry="%.1f" %s/>
`, c.X, c.Y, b.W/2, b.H/2, attrs))

	case diagram.ShapeTerminal:
		c := b.Center()
		sb.WriteString(fmt.Sprintf(`<ellipse cx="%.1f" cy="%.1f" rx="%.1f" ry="%.1f" class="element" fill="white" stroke="%s" opacity="%.2f"/>
`, c.X, c.Y, b.W/2, b.H/2, stroke, e.Opacity))
		sb.WriteString(fmt.Sprintf(`<ellipse cx="%.1f" cy="%.1f" rx="%.1f" ry="%.1f" %s/>
`, c.X, c.Y, b.W*0.3, b.H*0.3, attrs))

	case diagram.ShapeDecision:
		d := diamond(b)
		sb.WriteString(fmt.Sprintf(`<polygon points="%.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f" %s/>
`, d[0].X, d[0].Y, d[1].X, d[1].Y, d[2].X, d[2].Y, d[3].X, d[3].Y, attrs))

	case diagram.ShapePredefinedAction:
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" %s/>
`, b.X, b.Y, b.W, b.H, attrs))
		// Inner bars mark a call to a predefined sub-process.
		for _, x := range []float64{b.X + 10, b.Right() - 10} {
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>
`, x, b.Y, x, b.Bottom(), stroke))
		}

	case diagram.ShapeTextbox:
		// text only

	default:
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="8" %s/>
`, b.X, b.Y, b.W, b.H, attrs))
	}

	writeText(sb, e, stroke)
}

func writeText(sb *strings.Builder, e *diagram.Element, c string) {
	lines := textLines(e)
	if len(lines) == 0 {
		return
	}
	safe := gesture.SafeRect(e.Shape, e.Bounds())
	lh := lineHeight(e.FontSize)
	y := safe.Center().Y - lh*float64(len(lines)-1)/2

	x, anchor := textX(safe, e.Align)
	if e.Shape == diagram.ShapeInitial {
		c = "white"
	}
	for i, line := range lines {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" class="text" font-size="%.0fpx" fill="%s" text-anchor="%s">%s</text>
`, x, y+float64(i)*lh, e.FontSize, c, anchor, html.EscapeString(line)))
	}
}

// textX returns the x position and SVG anchor for aligned text in r.
func textX(r geom.Rect, a diagram.TextAlign) (float64, string) {
	switch a {
	case diagram.AlignLeft:
		return r.X, "start"
	case diagram.AlignRight:
		return r.Right(), "end"
	default:
		return r.Center().X, "middle"
	}
}
