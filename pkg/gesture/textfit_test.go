package gesture

import (
	"math"
	"strings"
	"testing"

	"github.com/ha1tch/flowcanvas/pkg/diagram"
	"github.com/ha1tch/flowcanvas/pkg/geom"
)

var cells = CellMeasurer{CellWidth: 8, CellHeight: 16}

func textCtx(shape diagram.ShapeKind, b geom.Rect) TextEditContext {
	e := diagram.NewElement(shape, b.X, b.Y, "")
	e.SetBounds(b)
	return NewTextEditContext(e)
}

func TestSafeRectPerShape(t *testing.T) {
	tests := []struct {
		shape diagram.ShapeKind
		b     geom.Rect
		want  geom.Rect
	}{
		{diagram.ShapeAction, geom.R(0, 0, 140, 60), geom.R(8, 8, 124, 44)},
		{diagram.ShapeDecision, geom.R(0, 0, 120, 80), geom.R(30, 20, 60, 40)},
		{diagram.ShapePredefinedAction, geom.R(0, 0, 140, 60), geom.R(14, 6, 112, 48)},
		{diagram.ShapeTextbox, geom.R(0, 0, 120, 40), geom.R(2, 2, 116, 36)},
	}
	for _, tt := range tests {
		if got := SafeRect(tt.shape, tt.b); !near(got, tt.want, 1e-9) {
			t.Errorf("%v: got %v, want %v", tt.shape, got, tt.want)
		}
	}

	circle := SafeRect(diagram.ShapeInitial, geom.R(0, 0, 40, 40))
	if math.Abs(circle.W-40/math.Sqrt2) > 1e-9 {
		t.Errorf("circle safe width = %.4f, want %.4f", circle.W, 40/math.Sqrt2)
	}
}

func TestFitTextFits(t *testing.T) {
	res := FitText(textCtx(diagram.ShapeAction, geom.R(0, 0, 140, 60)), "hello", cells)
	if res.NeedsResize {
		t.Errorf("short text should fit, got %+v", res)
	}
	if res.RequiredWidth != 140 || res.RequiredHeight != 60 {
		t.Errorf("required = %.0fx%.0f, want 140x60", res.RequiredWidth, res.RequiredHeight)
	}
	if res.CanShrink {
		t.Error("element at original height cannot shrink")
	}
}

func TestFitTextGrows(t *testing.T) {
	ctx := textCtx(diagram.ShapeAction, geom.R(0, 0, 140, 60))
	res := FitText(ctx, strings.Repeat("x", 20)+"\nb\nc", cells)
	if !res.NeedsResize {
		t.Fatal("expected NeedsResize")
	}
	if res.RequiredWidth != 176 || res.RequiredHeight != 64 {
		t.Errorf("required = %.0fx%.0f, want 176x64", res.RequiredWidth, res.RequiredHeight)
	}
	if ctx.Bounds != geom.R(0, 0, 140, 60) {
		t.Error("context bounds changed")
	}

	dec := FitText(textCtx(diagram.ShapeDecision, geom.R(0, 0, 120, 80)), strings.Repeat("y", 10), cells)
	if !dec.NeedsResize || dec.RequiredWidth != 160 {
		t.Errorf("decision required width = %.0f, want 160", dec.RequiredWidth)
	}
}

func TestFitTextShrinkHonoursOriginalHeight(t *testing.T) {
	ctx := textCtx(diagram.ShapeAction, geom.R(0, 0, 140, 100))
	ctx.OriginalHeight = 60
	res := FitText(ctx, "a", cells)
	if !res.CanShrink || res.RequiredHeight != 60 {
		t.Errorf("CanShrink=%v required height %.0f, want true and 60", res.CanShrink, res.RequiredHeight)
	}
}

func TestGoFontMeasurer(t *testing.T) {
	m, err := NewGoFontMeasurer()
	if err != nil {
		t.Fatal(err)
	}
	narrow := m.Measure("iii", 14)
	wide := m.Measure("WWW", 14)
	if narrow.W <= 0 || narrow.W >= wide.W {
		t.Errorf("widths: iii=%.2f WWW=%.2f", narrow.W, wide.W)
	}
	two := m.Measure("WWW\nWWW", 14)
	if math.Abs(two.H-2*wide.H) > 1e-9 || two.W != wide.W {
		t.Errorf("two lines = %v, one line = %v", two, wide)
	}
	if big := m.Measure("WWW", 28); big.W <= wide.W {
		t.Errorf("larger font should be wider: %.2f vs %.2f", big.W, wide.W)
	}
	if z := m.Measure("", 14); z != (geom.Size{}) {
		t.Errorf("empty text = %v", z)
	}
}

func TestCellMeasurerWideRunes(t *testing.T) {
	if got := cells.Measure("日本", 0); got.W != 32 || got.H != 16 {
		t.Errorf("wide runes = %v, want 32x16", got)
	}
}
