package gesture

import "github.com/ha1tch/flowcanvas/pkg/geom"

// MoveContext is captured when a drag on element bodies begins.
type MoveContext struct {
	StartPoint geom.Point
	Snapshots  []ElementSnapshot
	valid      bool
}

// NewMoveContext captures a move of the given elements starting at start.
// The first snapshot is the element under the pointer.
func NewMoveContext(start geom.Point, snaps ...ElementSnapshot) MoveContext {
	return MoveContext{StartPoint: start, Snapshots: snaps, valid: true}
}

// MoveResult carries the translated bounds of every dragged element.
type MoveResult struct {
	Delta      geom.Point
	X, Y       float64 // new origin of the first element
	Transforms []ElementTransform
}

// Move offsets every snapshot by the pointer delta since the drag started.
func Move(ctx MoveContext, p geom.Point) MoveResult {
	mustBeValid(ctx.valid, "move")

	d := p.Sub(ctx.StartPoint)
	res := MoveResult{Delta: d, Transforms: make([]ElementTransform, len(ctx.Snapshots))}
	for i, s := range ctx.Snapshots {
		res.Transforms[i] = ElementTransform{ID: s.ID, Bounds: s.Bounds.Translate(d)}
	}
	if len(res.Transforms) > 0 {
		res.X, res.Y = res.Transforms[0].Bounds.X, res.Transforms[0].Bounds.Y
	}
	return res
}
