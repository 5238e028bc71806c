package geom

// Handle is one of the eight resize grab points around an element.
type Handle int

const (
	HandleTopLeft Handle = iota
	HandleTop
	HandleTopRight
	HandleRight
	HandleBottomRight
	HandleBottom
	HandleBottomLeft
	HandleLeft
)

// Handles lists every handle clockwise from the top-left corner.
var Handles = [8]Handle{
	HandleTopLeft, HandleTop, HandleTopRight, HandleRight,
	HandleBottomRight, HandleBottom, HandleBottomLeft, HandleLeft,
}

func (h Handle) String() string {
	switch h {
	case HandleTopLeft:
		return "top-left"
	case HandleTop:
		return "top"
	case HandleTopRight:
		return "top-right"
	case HandleRight:
		return "right"
	case HandleBottomRight:
		return "bottom-right"
	case HandleBottom:
		return "bottom"
	case HandleBottomLeft:
		return "bottom-left"
	case HandleLeft:
		return "left"
	default:
		return "unknown"
	}
}

func (h Handle) MovesLeft() bool {
	return h == HandleTopLeft || h == HandleLeft || h == HandleBottomLeft
}

func (h Handle) MovesRight() bool {
	return h == HandleTopRight || h == HandleRight || h == HandleBottomRight
}

func (h Handle) MovesTop() bool {
	return h == HandleTopLeft || h == HandleTop || h == HandleTopRight
}

func (h Handle) MovesBottom() bool {
	return h == HandleBottomLeft || h == HandleBottom || h == HandleBottomRight
}

// IsCorner reports whether the handle moves two edges.
func (h Handle) IsCorner() bool {
	return h == HandleTopLeft || h == HandleTopRight || h == HandleBottomRight || h == HandleBottomLeft
}

// MirrorX swaps left and right: TopLeft becomes TopRight, Left becomes Right.
// Top and Bottom are unchanged.
func (h Handle) MirrorX() Handle {
	switch h {
	case HandleTopLeft:
		return HandleTopRight
	case HandleTopRight:
		return HandleTopLeft
	case HandleRight:
		return HandleLeft
	case HandleLeft:
		return HandleRight
	case HandleBottomRight:
		return HandleBottomLeft
	case HandleBottomLeft:
		return HandleBottomRight
	default:
		return h
	}
}

// MirrorY swaps top and bottom.
func (h Handle) MirrorY() Handle {
	switch h {
	case HandleTopLeft:
		return HandleBottomLeft
	case HandleBottomLeft:
		return HandleTopLeft
	case HandleTop:
		return HandleBottom
	case HandleBottom:
		return HandleTop
	case HandleTopRight:
		return HandleBottomRight
	case HandleBottomRight:
		return HandleTopRight
	default:
		return h
	}
}

// HandlePosition returns where handle h is drawn on r.
func HandlePosition(r Rect, h Handle) Point {
	x := r.X + r.W/2
	y := r.Y + r.H/2
	if h.MovesLeft() {
		x = r.X
	} else if h.MovesRight() {
		x = r.Right()
	}
	if h.MovesTop() {
		y = r.Y
	} else if h.MovesBottom() {
		y = r.Bottom()
	}
	return Point{x, y}
}

// HandleAt returns the handle of r within radius of p, preferring corners.
func HandleAt(r Rect, p Point, radius float64) (Handle, bool) {
	for _, h := range []Handle{HandleTopLeft, HandleTopRight, HandleBottomRight, HandleBottomLeft,
		HandleTop, HandleRight, HandleBottom, HandleLeft} {
		hp := HandlePosition(r, h)
		if abs(hp.X-p.X) <= radius && abs(hp.Y-p.Y) <= radius {
			return h, true
		}
	}
	return HandleTopLeft, false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
