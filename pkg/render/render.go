// Package render draws a diagram with its routed connections as SVG, PNG or
// Graphviz DOT.
package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/ha1tch/flowcanvas/pkg/diagram"
	"github.com/ha1tch/flowcanvas/pkg/geom"
	"github.com/ha1tch/flowcanvas/pkg/route"
)

// Options controls SVG and PNG output.
type Options struct {
	Padding float64 // canvas units around the content
	Scale   float64 // output pixels per canvas unit
	Title   string
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{Padding: 20, Scale: 1}
}

func (o Options) normalized() Options {
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	return o
}

// Colors used in rendering
var (
	colorWhite  = color.RGBA{255, 255, 255, 255}
	colorInk    = color.RGBA{51, 51, 51, 255}    // #333
	colorLabel  = color.RGBA{102, 102, 102, 255} // #666
	colorAction = color.RGBA{227, 242, 253, 255} // #e3f2fd
	colorChoice = color.RGBA{255, 243, 224, 255} // #fff3e0
	colorCalled = color.RGBA{232, 245, 233, 255} // #e8f5e9
)

// titleSpace is the canvas height reserved above the content for a title.
const titleSpace = 30.0

// scene is a diagram laid out for drawing: z-ordered elements, their routes
// and the canvas rectangle that maps to the output origin.
type scene struct {
	title    string
	elements []*diagram.Element
	routes   []route.Connection
	view     geom.Rect
}

func newScene(doc *diagram.Document, opts Options) scene {
	s := scene{title: opts.Title}
	if s.title == "" {
		s.title = doc.Name
	}
	store := diagram.NewStore(doc.Elements...)
	s.elements = store.ByZ()
	s.routes = route.RouteAll(doc.Elements)

	var rects []geom.Rect
	for _, e := range s.elements {
		rects = append(rects, e.Bounds())
	}
	for _, c := range s.routes {
		for _, p := range c.Route.Points {
			rects = append(rects, geom.Rect{X: p.X, Y: p.Y})
		}
	}
	box, ok := geom.UnionAll(rects)
	if !ok {
		box = geom.R(0, 0, 100, 100)
	}
	box = box.Inset(-opts.Padding, -opts.Padding)
	if s.title != "" {
		box.Y -= titleSpace
		box.H += titleSpace
	}
	s.view = box
	return s
}

// fill returns the background colour of an element.
func fill(e *diagram.Element) color.RGBA {
	switch e.Shape {
	case diagram.ShapeDecision:
		return colorChoice
	case diagram.ShapePredefinedAction:
		return colorCalled
	case diagram.ShapeInitial, diagram.ShapeTerminal:
		return ink(e)
	default:
		return colorAction
	}
}

// ink returns the stroke and text colour of an element.
func ink(e *diagram.Element) color.RGBA {
	if c, err := parseHex(e.Color); err == nil {
		return c
	}
	return colorInk
}

func parseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("bad colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad colour %q: %w", s, err)
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, nil
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// diamond returns the corners of the rhombus inscribed in r, clockwise from
// the top.
func diamond(r geom.Rect) [4]geom.Point {
	c := r.Center()
	return [4]geom.Point{{X: c.X, Y: r.Y}, {X: r.Right(), Y: c.Y}, {X: c.X, Y: r.Bottom()}, {X: r.X, Y: c.Y}}
}

// textLines splits element text into the lines drawn inside its safe area.
func textLines(e *diagram.Element) []string {
	if e.Text == "" {
		return nil
	}
	return strings.Split(e.Text, "\n")
}

// lineHeight is the baseline-to-baseline distance for a font size.
func lineHeight(size float64) float64 { return size * 1.2 }
