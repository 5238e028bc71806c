package geom

import (
	"math"
	"testing"
)

func TestRectOverlap(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Rect
		expected float64
	}{
		{
			name:     "No overlap - horizontally separated",
			a:        R(0, 0, 10, 10),
			b:        R(20, 0, 10, 10),
			expected: 0,
		},
		{
			name:     "No overlap - touching edges",
			a:        R(0, 0, 10, 10),
			b:        R(10, 0, 10, 10),
			expected: 0,
		},
		{
			name:     "Full overlap (same rect)",
			a:        R(0, 0, 10, 10),
			b:        R(0, 0, 10, 10),
			expected: 100,
		},
		{
			name:     "Partial overlap",
			a:        R(0, 0, 10, 10),
			b:        R(5, 5, 10, 10),
			expected: 25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RectOverlap(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 0.01 {
				t.Errorf("RectOverlap() = %.2f, want %.2f", got, tt.expected)
			}
		})
	}
}

func TestPortPosition(t *testing.T) {
	r := R(0, 0, 100, 50)
	want := map[Port]Point{
		PortTop:    {50, 0},
		PortRight:  {100, 25},
		PortBottom: {50, 50},
		PortLeft:   {0, 25},
	}
	for port, p := range want {
		if got := PortPosition(r, port); got != p {
			t.Errorf("PortPosition(%s) = %v, want %v", port, got, p)
		}
	}
}

func TestNormalizeAndUnion(t *testing.T) {
	r := R(10, 10, -20, -5).Normalize()
	if r != R(-10, 5, 20, 5) {
		t.Errorf("Normalize = %v", r)
	}

	box, ok := UnionAll([]Rect{R(0, 0, 100, 50), R(300, 0, 100, 50), R(50, -20, 10, 10)})
	if !ok {
		t.Fatal("UnionAll reported empty")
	}
	if box != R(0, -20, 400, 70) {
		t.Errorf("UnionAll = %v", box)
	}
	if _, ok := UnionAll(nil); ok {
		t.Error("UnionAll(nil) should not be ok")
	}
}

func TestInsetCollapses(t *testing.T) {
	r := R(0, 0, 10, 10).Inset(8, 2)
	if r.W != 0 || r.X != 5 {
		t.Errorf("over-inset width should collapse on centre, got %v", r)
	}
	if r.H != 6 {
		t.Errorf("Inset height = %.1f, want 6", r.H)
	}
}

func TestHandleMirrors(t *testing.T) {
	for _, h := range Handles {
		if h.MirrorX().MirrorX() != h {
			t.Errorf("MirrorX not an involution for %s", h)
		}
		if h.MirrorY().MirrorY() != h {
			t.Errorf("MirrorY not an involution for %s", h)
		}
		if h.MovesLeft() && !h.MirrorX().MovesRight() {
			t.Errorf("%s mirrored should move the right edge", h)
		}
	}
	if HandleBottomRight.MirrorX().MirrorY() != HandleTopLeft {
		t.Error("BottomRight mirrored on both axes should be TopLeft")
	}
	if HandleTop.MirrorX() != HandleTop {
		t.Error("Top is unaffected by MirrorX")
	}
}

func TestHandleAt(t *testing.T) {
	r := R(0, 0, 100, 50)
	h, ok := HandleAt(r, Point{99, 49}, 3)
	if !ok || h != HandleBottomRight {
		t.Errorf("HandleAt corner = %s, %v", h, ok)
	}
	h, ok = HandleAt(r, Point{50, 1}, 3)
	if !ok || h != HandleTop {
		t.Errorf("HandleAt edge = %s, %v", h, ok)
	}
	if _, ok := HandleAt(r, Point{30, 30}, 3); ok {
		t.Error("interior point should not hit a handle")
	}
}

func TestFacingPort(t *testing.T) {
	cases := []struct {
		d    Point
		want Port
	}{
		{Point{10, 2}, PortLeft},
		{Point{-10, 2}, PortRight},
		{Point{1, 10}, PortTop},
		{Point{1, -10}, PortBottom},
	}
	for _, c := range cases {
		if got := FacingPort(c.d); got != c.want {
			t.Errorf("FacingPort(%v) = %s, want %s", c.d, got, c.want)
		}
	}
}

func TestParsePort(t *testing.T) {
	for _, p := range Ports {
		got, ok := ParsePort(p.String())
		if !ok || got != p {
			t.Errorf("ParsePort(%q) = %v, %v", p.String(), got, ok)
		}
	}
	if _, ok := ParsePort("diagonal"); ok {
		t.Error("unknown port parsed")
	}
}
