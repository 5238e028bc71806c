package route

import (
	"github.com/ha1tch/flowcanvas/pkg/diagram"
	"github.com/ha1tch/flowcanvas/pkg/geom"
)

// Snap is the port a connection being drawn would attach to.
type Snap struct {
	ElementID string
	Port      geom.Port
	Point     geom.Point
}

// SnapOptions controls port snapping. Radius is in canvas units; ExcludeID
// is usually the tail element.
type SnapOptions struct {
	Radius    float64
	ExcludeID string
}

// FindSnap returns the closest port within opts.Radius of p on an element
// that accepts incoming arrows, or nil.
func FindSnap(p geom.Point, targets []*diagram.Element, opts SnapOptions) *Snap {
	var best *Snap
	bestDist := opts.Radius
	for _, e := range targets {
		if e.ID == opts.ExcludeID || !e.Shape.AcceptsIncoming() {
			continue
		}
		for _, port := range geom.Ports {
			pp := e.PortPosition(port)
			if d := pp.Dist(p); d <= bestDist {
				best = &Snap{ElementID: e.ID, Port: port, Point: pp}
				bestDist = d
			}
		}
	}
	return best
}

// ToPointer routes a connection that is still being drawn. When a port is in
// snap range the route ends on it; otherwise it ends at the pointer, entering
// from the side facing the drag direction.
func ToPointer(tail geom.Rect, tailPort geom.Port, pointer geom.Point, targets []*diagram.Element, opts SnapOptions) (Route, *Snap) {
	a := geom.PortPosition(tail, tailPort)
	if s := FindSnap(pointer, targets, opts); s != nil {
		return Route{Points: OrthogonalPoints(a, tailPort, s.Point, s.Port)}, s
	}
	hp := geom.FacingPort(pointer.Sub(a))
	return Route{Points: OrthogonalPoints(a, tailPort, pointer, hp)}, nil
}
