package geom

import (
	"fmt"
	"math"
)

// Port is one of the four connection attachment points of an element.
type Port int

const (
	PortTop Port = iota
	PortRight
	PortBottom
	PortLeft
)

// Ports lists every port in clockwise order starting at the top.
var Ports = [4]Port{PortTop, PortRight, PortBottom, PortLeft}

// String returns the port name.
func (p Port) String() string {
	switch p {
	case PortTop:
		return "top"
	case PortRight:
		return "right"
	case PortBottom:
		return "bottom"
	case PortLeft:
		return "left"
	default:
		return "unknown"
	}
}

// ParsePort is the inverse of String. ok is false for unknown names.
func ParsePort(s string) (Port, bool) {
	for _, p := range Ports {
		if p.String() == s {
			return p, true
		}
	}
	return PortTop, false
}

// MarshalText encodes the port by name.
func (p Port) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a port name.
func (p *Port) UnmarshalText(b []byte) error {
	v, ok := ParsePort(string(b))
	if !ok {
		return fmt.Errorf("unknown port %q", b)
	}
	*p = v
	return nil
}

// Horizontal reports whether the port faces left or right.
func (p Port) Horizontal() bool {
	return p == PortLeft || p == PortRight
}

// Opposite returns the port on the other side of the element.
func (p Port) Opposite() Port {
	switch p {
	case PortTop:
		return PortBottom
	case PortRight:
		return PortLeft
	case PortBottom:
		return PortTop
	default:
		return PortRight
	}
}

// PortPosition returns the canvas position of port on r: the centre of the
// corresponding side.
func PortPosition(r Rect, p Port) Point {
	c := r.Center()
	switch p {
	case PortTop:
		return Point{c.X, r.Y}
	case PortRight:
		return Point{r.Right(), c.Y}
	case PortBottom:
		return Point{c.X, r.Bottom()}
	default:
		return Point{r.X, c.Y}
	}
}

// NearestPort returns the port of r closest to p.
func NearestPort(r Rect, p Point) Port {
	best := PortTop
	bestDist := math.MaxFloat64
	for _, port := range Ports {
		if d := PortPosition(r, port).Dist(p); d < bestDist {
			best, bestDist = port, d
		}
	}
	return best
}

// FacingPort picks the port a free-floating endpoint should present when
// approached along direction d: the dominant axis decides orientation and
// the port faces back towards the origin of the drag.
func FacingPort(d Point) Port {
	if math.Abs(d.X) >= math.Abs(d.Y) {
		if d.X >= 0 {
			return PortLeft
		}
		return PortRight
	}
	if d.Y >= 0 {
		return PortTop
	}
	return PortBottom
}
