package route

import "github.com/ha1tch/flowcanvas/pkg/geom"

// Default arrowhead dimensions in canvas units.
const (
	ArrowLength = 10.0
	ArrowWidth  = 8.0
)

// LabelAnchor returns the point halfway along the route by arc length.
func LabelAnchor(r Route) geom.Point {
	total := r.Length()
	if total == 0 {
		return r.Start()
	}
	half := total / 2
	for i := 1; i < len(r.Points); i++ {
		a, b := r.Points[i-1], r.Points[i]
		seg := a.Dist(b)
		if seg >= half && seg > 0 {
			t := half / seg
			return geom.Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
		}
		half -= seg
	}
	return r.End()
}

// Arrowhead returns the triangle tip, left and right corners for an arrow at
// the end of r, oriented along the last segment longer than MinSegment.
// ok is false for a route with no such segment.
func Arrowhead(r Route, length, width float64) (tri [3]geom.Point, ok bool) {
	n := len(r.Points)
	if n < 2 {
		return tri, false
	}
	tip := r.Points[n-1]
	for i := n - 2; i >= 0; i-- {
		d := tip.Sub(r.Points[i])
		l := tip.Dist(r.Points[i])
		if l < MinSegment {
			continue
		}
		dir := d.Scale(1 / l)
		base := tip.Sub(dir.Scale(length))
		perp := geom.Point{X: -dir.Y, Y: dir.X}.Scale(width / 2)
		return [3]geom.Point{tip, base.Add(perp), base.Sub(perp)}, true
	}
	return tri, false
}
