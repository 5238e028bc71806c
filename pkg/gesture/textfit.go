package gesture

import (
	"math"

	"github.com/ha1tch/flowcanvas/pkg/diagram"
	"github.com/ha1tch/flowcanvas/pkg/geom"
)

// circleInset is the margin per side that leaves the square inscribed in a
// circle: (1 - 1/sqrt 2) / 2 of the diameter.
var circleInset = (1 - 1/math.Sqrt2) / 2

// Measurer reports the extent of a block of text. Lines are separated by
// '\n'; no wrapping is applied.
type Measurer interface {
	Measure(text string, fontSize float64) geom.Size
}

// TextEditContext is captured when text editing of an element begins.
type TextEditContext struct {
	ElementID      string
	Bounds         geom.Rect
	Shape          diagram.ShapeKind
	FontSize       float64
	Text           string
	OriginalHeight float64
	valid          bool
}

// NewTextEditContext captures e before its text is edited.
func NewTextEditContext(e *diagram.Element) TextEditContext {
	return TextEditContext{
		ElementID:      e.ID,
		Bounds:         e.Bounds(),
		Shape:          e.Shape,
		FontSize:       e.FontSize,
		Text:           e.Text,
		OriginalHeight: e.Height,
		valid:          true,
	}
}

// TextFitResult reports where text may be drawn and whether the element is
// large enough for it. The engine never resizes anything itself.
type TextFitResult struct {
	SafeRect       geom.Rect
	TextSize       geom.Size
	NeedsResize    bool
	RequiredWidth  float64
	RequiredHeight float64
	CanShrink      bool // element is taller than the text and its original height need
}

// FitText measures text against the shape's text-safe area.
func FitText(ctx TextEditContext, text string, m Measurer) TextFitResult {
	mustBeValid(ctx.valid, "text fit")

	safe := SafeRect(ctx.Shape, ctx.Bounds)
	ts := m.Measure(text, ctx.FontSize)
	reqW, reqH := requiredSize(ctx.Shape, ts)

	const eps = 1e-9
	res := TextFitResult{
		SafeRect:       safe,
		TextSize:       ts,
		NeedsResize:    ts.W > safe.W+eps || ts.H > safe.H+eps,
		RequiredWidth:  math.Max(math.Max(reqW, ctx.Bounds.W), diagram.MinSize),
		RequiredHeight: math.Max(math.Max(reqH, ctx.OriginalHeight), diagram.MinSize),
	}
	res.CanShrink = !res.NeedsResize && res.RequiredHeight < ctx.Bounds.H-eps
	return res
}

// SafeRect returns the part of bounds text may occupy for the given shape.
func SafeRect(shape diagram.ShapeKind, bounds geom.Rect) geom.Rect {
	dx, dy := insets(shape, bounds.Size())
	return bounds.Inset(dx, dy)
}

func insets(shape diagram.ShapeKind, sz geom.Size) (dx, dy float64) {
	switch shape {
	case diagram.ShapeInitial, diagram.ShapeTerminal:
		return sz.W * circleInset, sz.H * circleInset
	case diagram.ShapeDecision:
		return sz.W / 4, sz.H / 4
	case diagram.ShapePredefinedAction:
		return 14, 6
	case diagram.ShapeTextbox:
		return 2, 2
	default:
		return 8, 8
	}
}

// requiredSize inverts insets: the smallest bounds whose safe area holds ts.
func requiredSize(shape diagram.ShapeKind, ts geom.Size) (w, h float64) {
	switch shape {
	case diagram.ShapeInitial, diagram.ShapeTerminal:
		k := 1 - 2*circleInset
		return ts.W / k, ts.H / k
	case diagram.ShapeDecision:
		return ts.W * 2, ts.H * 2
	}
	dx, dy := insets(shape, geom.Size{})
	return ts.W + 2*dx, ts.H + 2*dy
}
