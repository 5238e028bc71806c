package gesture

import "github.com/ha1tch/flowcanvas/pkg/geom"

// Zoom limits in percent.
const (
	MinZoom     = 25
	MaxZoom     = 400
	DefaultZoom = 100
)

// ZoomLevels is the ladder ZoomBy steps through.
var ZoomLevels = []int{25, 33, 50, 67, 75, 80, 90, 100, 110, 125, 150, 175, 200, 250, 300, 400}

// ZoomContext describes the viewport when a zoom is requested. Pointer is
// relative to the viewport's top-left; Offset is the canvas point shown at
// that corner.
type ZoomContext struct {
	Level    int
	Pointer  geom.Point
	Offset   geom.Point
	Viewport geom.Size
	valid    bool
}

// NewZoomContext captures the viewport state. A level outside the limits is
// clamped.
func NewZoomContext(level int, pointer, offset geom.Point, viewport geom.Size) ZoomContext {
	return ZoomContext{
		Level:    clampLevel(level),
		Pointer:  pointer,
		Offset:   offset,
		Viewport: viewport,
		valid:    true,
	}
}

// Scale returns the context's zoom as a factor.
func (c ZoomContext) Scale() float64 { return LevelScale(c.Level) }

// ZoomResult is the outcome of a zoom request.
type ZoomResult struct {
	Level   int
	Offset  geom.Point
	Changed bool
}

// Scale returns the result's zoom as a factor.
func (r ZoomResult) Scale() float64 { return LevelScale(r.Level) }

// LevelScale converts a percentage into a scale factor.
func LevelScale(level int) float64 { return float64(level) / 100 }

// ToCanvas converts a viewport point into canvas coordinates.
func ToCanvas(p, offset geom.Point, scale float64) geom.Point {
	return offset.Add(p.Scale(1 / scale))
}

// ToViewport converts a canvas point into viewport coordinates.
func ToViewport(p, offset geom.Point, scale float64) geom.Point {
	return p.Sub(offset).Scale(scale)
}

// ZoomBy moves steps rungs up (positive) or down (negative) the ladder,
// keeping the canvas point under the pointer fixed.
func ZoomBy(ctx ZoomContext, steps int) ZoomResult {
	mustBeValid(ctx.valid, "zoom")
	level := ctx.Level
	for ; steps > 0; steps-- {
		level = nextLevel(level)
	}
	for ; steps < 0; steps++ {
		level = prevLevel(level)
	}
	return zoomAt(ctx, level)
}

// ZoomTo jumps to an absolute level, clamped to the limits.
func ZoomTo(ctx ZoomContext, level int) ZoomResult {
	mustBeValid(ctx.valid, "zoom")
	return zoomAt(ctx, clampLevel(level))
}

// ZoomToFit picks the largest ladder level at which content plus padding
// fits the viewport and centres content in it.
func ZoomToFit(ctx ZoomContext, content geom.Rect, padding float64) ZoomResult {
	mustBeValid(ctx.valid, "zoom")
	availW := ctx.Viewport.W - 2*padding
	availH := ctx.Viewport.H - 2*padding

	level := MinZoom
	for _, l := range ZoomLevels {
		s := LevelScale(l)
		if content.W*s <= availW && content.H*s <= availH {
			level = l
		}
	}
	s := LevelScale(level)
	c := content.Center()
	off := geom.Point{X: c.X - ctx.Viewport.W/2/s, Y: c.Y - ctx.Viewport.H/2/s}
	return ZoomResult{
		Level:   level,
		Offset:  off,
		Changed: level != ctx.Level || off != ctx.Offset,
	}
}

// zoomAt rescales about the pointer. In translation form T = -Offset*scale
// the pointer p stays on the same canvas point when
// T' = p - (p - T) * newScale/oldScale.
func zoomAt(ctx ZoomContext, level int) ZoomResult {
	if level == ctx.Level {
		return ZoomResult{Level: level, Offset: ctx.Offset}
	}
	oldS, newS := LevelScale(ctx.Level), LevelScale(level)
	p := ctx.Pointer
	t := ctx.Offset.Scale(-oldS)
	t2 := p.Sub(p.Sub(t).Scale(newS / oldS))
	return ZoomResult{Level: level, Offset: t2.Scale(-1 / newS), Changed: true}
}

func nextLevel(level int) int {
	for _, l := range ZoomLevels {
		if l > level {
			return l
		}
	}
	return MaxZoom
}

func prevLevel(level int) int {
	for i := len(ZoomLevels) - 1; i >= 0; i-- {
		if ZoomLevels[i] < level {
			return ZoomLevels[i]
		}
	}
	return MinZoom
}

func clampLevel(level int) int {
	if level < MinZoom {
		return MinZoom
	}
	if level > MaxZoom {
		return MaxZoom
	}
	return level
}
