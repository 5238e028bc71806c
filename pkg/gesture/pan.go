package gesture

import "github.com/ha1tch/flowcanvas/pkg/geom"

// PanContext is captured when a canvas drag begins. Offset is the scroll
// position in canvas units; StartPoint is in viewport units.
type PanContext struct {
	StartPoint  geom.Point
	StartOffset geom.Point
	Scale       float64
	valid       bool
}

// NewPanContext captures a pan at zoom scale (1 = 100%).
func NewPanContext(start, offset geom.Point, scale float64) PanContext {
	return PanContext{StartPoint: start, StartOffset: offset, Scale: scale, valid: scale > 0}
}

// PanResult is the scroll offset for the current pointer position.
type PanResult struct {
	Offset geom.Point
}

// Pan moves the canvas with the pointer. The delta is divided by the zoom
// scale so content tracks the pointer at every zoom level.
func Pan(ctx PanContext, p geom.Point) PanResult {
	mustBeValid(ctx.valid, "pan")
	d := p.Sub(ctx.StartPoint).Scale(1 / ctx.Scale)
	return PanResult{Offset: ctx.StartOffset.Sub(d)}
}
