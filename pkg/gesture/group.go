package gesture

import (
	"errors"
	"math"

	"github.com/ha1tch/flowcanvas/pkg/diagram"
	"github.com/ha1tch/flowcanvas/pkg/geom"
)

// ErrEmptyGroup is returned when a group resize is requested with no elements.
var ErrEmptyGroup = errors.New("group resize needs at least one element")

// GroupState is one reference frame of a group resize.
type GroupState struct {
	Bounds     geom.Rect // union of Snapshots
	StartPoint geom.Point
	Handle     geom.Handle
	Snapshots  []ElementSnapshot
}

// GroupResizeContext is captured when a handle of the selection box is
// grabbed. Element bounds are always derived from True so repeated flips do
// not accumulate error.
type GroupResizeContext struct {
	True        GroupState
	Current     GroupState
	AspectRatio float64
	FlipX       bool
	FlipY       bool
	valid       bool
}

// NewGroupResizeContext captures a resize of the box around snaps.
func NewGroupResizeContext(snaps []ElementSnapshot, start geom.Point, h geom.Handle) (GroupResizeContext, error) {
	box, ok := geom.UnionAll(snapshotBounds(snaps))
	if !ok {
		return GroupResizeContext{}, ErrEmptyGroup
	}
	own := make([]ElementSnapshot, len(snaps))
	copy(own, snaps)
	st := GroupState{Bounds: box, StartPoint: start, Handle: h, Snapshots: own}
	return GroupResizeContext{
		True:        st,
		Current:     st,
		AspectRatio: aspect(box),
		valid:       true,
	}, nil
}

func (c GroupResizeContext) TrueOriginalBounds() geom.Rect { return c.True.Bounds }
func (c GroupResizeContext) TrueOriginalStartPoint() geom.Point { return c.True.StartPoint }
func (c GroupResizeContext) TrueInitialHandle() geom.Handle { return c.True.Handle }
func (c GroupResizeContext) TrueElementSnapshots() []ElementSnapshot { return c.True.Snapshots }

// WithFlipUpdate returns a copy rebased on a new current frame.
func (c GroupResizeContext) WithFlipUpdate(box geom.Rect, start geom.Point, h geom.Handle, snaps []ElementSnapshot, flipX, flipY bool) GroupResizeContext {
	c.Current = GroupState{Bounds: box, StartPoint: start, Handle: h, Snapshots: snaps}
	c.FlipX, c.FlipY = flipX, flipY
	return c
}

// GroupResizeResult is the output of one group resize tick. Transforms are
// meant to be applied as one batch.
type GroupResizeResult struct {
	Box            geom.Rect
	Handle         geom.Handle
	FlipX, FlipY   bool
	Flipped        bool
	Transforms     []ElementTransform
	UpdatedContext GroupResizeContext
}

// ResizeGroup resizes the selection box for pointer position p and maps every
// element proportionally into it.
func ResizeGroup(ctx GroupResizeContext, p geom.Point, opts ResizeOptions) GroupResizeResult {
	mustBeValid(ctx.valid, "group resize")

	cur := ResizeState{Bounds: ctx.Current.Bounds, StartPoint: ctx.Current.StartPoint, Handle: ctx.Current.Handle}
	s := step(cur, p, ctx.FlipX, ctx.FlipY, opts.LockAspect, ctx.AspectRatio)

	res := GroupResizeResult{
		Box:            s.bounds,
		Handle:         s.handle,
		FlipX:          s.flipX,
		FlipY:          s.flipY,
		Flipped:        s.flipped(),
		Transforms:     scaleInto(ctx.True.Bounds, s.bounds, ctx.True.Snapshots, s.flipX, s.flipY),
		UpdatedContext: ctx,
	}
	if res.Flipped {
		snaps := make([]ElementSnapshot, len(res.Transforms))
		for i, t := range res.Transforms {
			snaps[i] = ElementSnapshot{ID: t.ID, Bounds: t.Bounds}
		}
		res.UpdatedContext = ctx.WithFlipUpdate(s.raw, p, s.handle, snaps, s.flipX, s.flipY)
	}
	return res
}

// scaleInto maps each snapshot from the from box into the to box. On a
// flipped axis the layout is mirrored.
func scaleInto(from, to geom.Rect, snaps []ElementSnapshot, flipX, flipY bool) []ElementTransform {
	sx, sy := to.W/from.W, to.H/from.H
	out := make([]ElementTransform, len(snaps))
	for i, e := range snaps {
		b := e.Bounds
		offX, offY := b.X-from.X, b.Y-from.Y
		r := geom.Rect{
			X: to.X + offX*sx,
			Y: to.Y + offY*sy,
			W: math.Max(b.W*sx, diagram.MinSize),
			H: math.Max(b.H*sy, diagram.MinSize),
		}
		if flipX {
			r.X = to.Right() - (offX+b.W)*sx
		}
		if flipY {
			r.Y = to.Bottom() - (offY+b.H)*sy
		}
		// Floored sizes must not push an element out of the box
		r.X = clampSpan(r.X, r.W, to.X, to.Right())
		r.Y = clampSpan(r.Y, r.H, to.Y, to.Bottom())
		out[i] = ElementTransform{ID: e.ID, Bounds: r}
	}
	return out
}

// clampSpan shifts the span [pos, pos+size] into [lo, hi], keeping lo when
// the span is wider than the range.
func clampSpan(pos, size, lo, hi float64) float64 {
	if pos+size > hi {
		pos = hi - size
	}
	if pos < lo {
		pos = lo
	}
	return pos
}
