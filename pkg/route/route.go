// Package route computes orthogonal connection paths between element ports.
//
// The router keeps no state. Callers re-run it for every connection whose
// tail or head element changed, after the batch of changes is applied.
package route

import (
	"math"

	"github.com/ha1tch/flowcanvas/pkg/geom"
)

// MinSegment is the distance below which two route points are treated as one.
const MinSegment = 0.5

// Route is an orthogonal polyline from a tail port to a head.
type Route struct {
	Points []geom.Point
}

// Start returns the first point, or the zero point for an empty route.
func (r Route) Start() geom.Point {
	if len(r.Points) == 0 {
		return geom.Point{}
	}
	return r.Points[0]
}

// End returns the last point, or the zero point for an empty route.
func (r Route) End() geom.Point {
	if len(r.Points) == 0 {
		return geom.Point{}
	}
	return r.Points[len(r.Points)-1]
}

// Length returns the total arc length.
func (r Route) Length() float64 {
	var n float64
	for i := 1; i < len(r.Points); i++ {
		n += r.Points[i-1].Dist(r.Points[i])
	}
	return n
}

// Reversed returns the route traversed from head to tail.
func (r Route) Reversed() Route {
	out := make([]geom.Point, len(r.Points))
	for i, p := range r.Points {
		out[len(out)-1-i] = p
	}
	return Route{Points: out}
}

// Orthogonal routes from a port of tail to a port of head.
func Orthogonal(tail geom.Rect, tailPort geom.Port, head geom.Rect, headPort geom.Port) Route {
	return Route{Points: OrthogonalPoints(
		geom.PortPosition(tail, tailPort), tailPort,
		geom.PortPosition(head, headPort), headPort,
	)}
}

// OrthogonalPoints routes between two port positions.
//
// Two horizontal ports meet on the vertical line halfway between them, two
// vertical ports on the horizontal line halfway between them. A horizontal
// and a vertical port meet at a single corner level with the horizontal one.
func OrthogonalPoints(a geom.Point, ap geom.Port, b geom.Point, bp geom.Port) []geom.Point {
	var pts []geom.Point
	switch {
	case ap.Horizontal() && bp.Horizontal():
		mx := (a.X + b.X) / 2
		pts = []geom.Point{a, {X: mx, Y: a.Y}, {X: mx, Y: b.Y}, b}
	case !ap.Horizontal() && !bp.Horizontal():
		my := (a.Y + b.Y) / 2
		pts = []geom.Point{a, {X: a.X, Y: my}, {X: b.X, Y: my}, b}
	case ap.Horizontal():
		pts = []geom.Point{a, {X: b.X, Y: a.Y}, b}
	default:
		pts = []geom.Point{a, {X: a.X, Y: b.Y}, b}
	}
	return collapse(pts)
}

// collapse removes zero-length segments and straight-through bends. The
// endpoints are always kept. Each rule looks only at a point's neighbours on
// both sides so the result does not depend on direction.
func collapse(pts []geom.Point) []geom.Point {
	if len(pts) <= 2 {
		return pts
	}
	first, last := pts[0], pts[len(pts)-1]

	var inner []geom.Point
	for _, p := range pts[1 : len(pts)-1] {
		if p.Dist(first) < MinSegment || p.Dist(last) < MinSegment {
			continue
		}
		inner = append(inner, p)
	}

	// Merge runs of coincident interior points into their average.
	var merged []geom.Point
	for i := 0; i < len(inner); {
		j := i + 1
		sum := inner[i]
		for j < len(inner) && inner[j].Dist(inner[j-1]) < MinSegment {
			sum = sum.Add(inner[j])
			j++
		}
		merged = append(merged, sum.Scale(1/float64(j-i)))
		i = j
	}

	out := make([]geom.Point, 0, len(merged)+2)
	out = append(out, first)
	out = append(out, merged...)
	out = append(out, last)

	for {
		keep := out[:1:1]
		removed := false
		for i := 1; i < len(out)-1; i++ {
			if straight(out[i-1], out[i], out[i+1]) {
				removed = true
				continue
			}
			keep = append(keep, out[i])
		}
		keep = append(keep, out[len(out)-1])
		out = keep
		if !removed {
			return out
		}
	}
}

// straight reports whether b lies on the axis-aligned line through a and c.
func straight(a, b, c geom.Point) bool {
	sameX := math.Abs(a.X-b.X) < MinSegment && math.Abs(b.X-c.X) < MinSegment
	sameY := math.Abs(a.Y-b.Y) < MinSegment && math.Abs(b.Y-c.Y) < MinSegment
	return sameX || sameY
}
