package gesture

import (
	"github.com/ha1tch/flowcanvas/pkg/diagram"
	"github.com/ha1tch/flowcanvas/pkg/geom"
)

// ResizeState is one reference frame of a resize gesture: the bounds the
// pointer delta is applied to, the pointer position the delta is measured
// from and the handle being dragged.
type ResizeState struct {
	Bounds     geom.Rect
	StartPoint geom.Point
	Handle     geom.Handle
}

// ResizeContext is captured when a resize handle is grabbed. True never
// changes during the gesture; Current is replaced each time the dragged edge
// crosses its opposite edge.
type ResizeContext struct {
	ElementID   string
	True        ResizeState
	Current     ResizeState
	AspectRatio float64 // width / height of True.Bounds
	FlipX       bool
	FlipY       bool
	valid       bool
}

// NewResizeContext captures a resize of bounds by handle starting at start.
func NewResizeContext(id string, bounds geom.Rect, start geom.Point, h geom.Handle) ResizeContext {
	st := ResizeState{Bounds: bounds.Normalize(), StartPoint: start, Handle: h}
	return ResizeContext{
		ElementID:   id,
		True:        st,
		Current:     st,
		AspectRatio: aspect(st.Bounds),
		valid:       true,
	}
}

// WithFlipUpdate returns a copy of the context rebased on a new current
// frame. The true frame and the aspect ratio are kept.
func (c ResizeContext) WithFlipUpdate(bounds geom.Rect, start geom.Point, h geom.Handle, flipX, flipY bool) ResizeContext {
	c.Current = ResizeState{Bounds: bounds, StartPoint: start, Handle: h}
	c.FlipX, c.FlipY = flipX, flipY
	return c
}

// ResizeOptions are the modifier-driven switches of a resize tick.
type ResizeOptions struct {
	LockAspect bool
}

// ResizeResult is the output of one resize tick.
type ResizeResult struct {
	Bounds         geom.Rect
	Handle         geom.Handle
	FlipX, FlipY   bool
	Flipped        bool // an edge crossed its opposite edge on this tick
	UpdatedContext ResizeContext
}

// Transform returns the result as an element transform.
func (r ResizeResult) Transform() ElementTransform {
	return ElementTransform{ID: r.UpdatedContext.ElementID, Bounds: r.Bounds}
}

// Resize computes the element bounds for pointer position p.
func Resize(ctx ResizeContext, p geom.Point, opts ResizeOptions) ResizeResult {
	mustBeValid(ctx.valid, "resize")

	s := step(ctx.Current, p, ctx.FlipX, ctx.FlipY, opts.LockAspect, ctx.AspectRatio)
	res := ResizeResult{
		Bounds:         s.bounds,
		Handle:         s.handle,
		FlipX:          s.flipX,
		FlipY:          s.flipY,
		Flipped:        s.flipped(),
		UpdatedContext: ctx,
	}
	if res.Flipped {
		res.UpdatedContext = ctx.WithFlipUpdate(s.raw, p, s.handle, s.flipX, s.flipY)
	}
	return res
}

type stepResult struct {
	bounds       geom.Rect // what the element should show this tick
	raw          geom.Rect // normalised edges before aspect and clamping
	handle       geom.Handle
	crossX       bool
	crossY       bool
	flipX, flipY bool
}

func (s stepResult) flipped() bool { return s.crossX || s.crossY }

// step applies one pointer tick to the current frame. Both the single and
// the group engine use it for the rectangle they resize.
//
// On the tick where an edge crosses its opposite, the handle is mirrored so
// it keeps tracking the same physical corner. If that crossing turns the
// shape inside out relative to its true orientation the axis collapses to
// MinSize at the edge that was anchored before the crossing; a crossing back
// shows the raw edges so that returning the pointer restores the original.
func step(cur ResizeState, p geom.Point, flipX, flipY, lock bool, ratio float64) stepResult {
	d := p.Sub(cur.StartPoint)
	b := cur.Bounds
	h := cur.Handle

	left, top, right, bottom := b.Left(), b.Top(), b.Right(), b.Bottom()
	if h.MovesLeft() {
		left += d.X
	}
	if h.MovesRight() {
		right += d.X
	}
	if h.MovesTop() {
		top += d.Y
	}
	if h.MovesBottom() {
		bottom += d.Y
	}

	s := stepResult{
		raw:    geom.FromEdges(left, top, right, bottom).Normalize(),
		handle: h,
		crossX: right < left,
		crossY: bottom < top,
		flipX:  flipX,
		flipY:  flipY,
	}
	if s.crossX {
		s.handle = s.handle.MirrorX()
		s.flipX = !s.flipX
	}
	if s.crossY {
		s.handle = s.handle.MirrorY()
		s.flipY = !s.flipY
	}

	out := s.raw
	if lock {
		out = lockAspect(out, s.handle, ratio)
	}
	out = floorSize(out, s.handle)

	if s.crossX && s.flipX {
		out.W = diagram.MinSize
		if h.MovesRight() {
			out.X = b.Left()
		} else {
			out.X = b.Right() - diagram.MinSize
		}
	}
	if s.crossY && s.flipY {
		out.H = diagram.MinSize
		if h.MovesBottom() {
			out.Y = b.Top()
		} else {
			out.Y = b.Bottom() - diagram.MinSize
		}
	}
	s.bounds = out
	return s
}

// lockAspect reshapes r to the given width/height ratio keeping the side
// opposite handle h fixed. Edge handles grow the other axis about the centre.
func lockAspect(r geom.Rect, h geom.Handle, ratio float64) geom.Rect {
	if ratio <= 0 {
		return r
	}
	switch {
	case h.IsCorner():
		w, ht := r.W, r.H
		if ht == 0 || w/ht > ratio {
			ht = w / ratio
		} else {
			w = ht * ratio
		}
		out := geom.Rect{X: r.X, Y: r.Y, W: w, H: ht}
		if h.MovesLeft() {
			out.X = r.Right() - w
		}
		if h.MovesTop() {
			out.Y = r.Bottom() - ht
		}
		return out
	case h == geom.HandleLeft || h == geom.HandleRight:
		ht := r.W / ratio
		return geom.Rect{X: r.X, Y: r.Center().Y - ht/2, W: r.W, H: ht}
	default:
		w := r.H * ratio
		return geom.Rect{X: r.Center().X - w/2, Y: r.Y, W: w, H: r.H}
	}
}

// floorSize enforces MinSize on both axes, growing away from the edge
// opposite the handle.
func floorSize(r geom.Rect, h geom.Handle) geom.Rect {
	if r.W < diagram.MinSize {
		if h.MovesLeft() {
			r.X = r.Right() - diagram.MinSize
		}
		r.W = diagram.MinSize
	}
	if r.H < diagram.MinSize {
		if h.MovesTop() {
			r.Y = r.Bottom() - diagram.MinSize
		}
		r.H = diagram.MinSize
	}
	return r
}

func aspect(r geom.Rect) float64 {
	if r.H <= 0 || r.W <= 0 {
		return 1
	}
	return r.W / r.H
}

