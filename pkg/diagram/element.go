// Package diagram provides the activity-workflow element model, the element
// store and the undo history that the gesture engines report to.
package diagram

import (
	"math"

	"github.com/google/uuid"

	"github.com/ha1tch/flowcanvas/pkg/geom"
)

// MinSize is the smallest width or height an element may have.
const MinSize = 1.0

// TextAlign is the horizontal alignment of element text.
type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// Connection is an outgoing arrow. TargetID is a weak reference: the target
// may no longer exist.
type Connection struct {
	Label    string    `json:"label,omitempty"`
	TargetID string    `json:"target"`
	TailPort geom.Port `json:"tail_port"`
	HeadPort geom.Port `json:"head_port"`
}

// Element is one drawing element on the canvas.
type Element struct {
	ID          string       `json:"id"`
	X           float64      `json:"x"`
	Y           float64      `json:"y"`
	Width       float64      `json:"width"`
	Height      float64      `json:"height"`
	Opacity     float64      `json:"opacity"`
	ZIndex      int          `json:"z"`
	Locked      bool         `json:"locked,omitempty"`
	Selected    bool         `json:"-"`
	Shape       ShapeKind    `json:"shape"`
	Text        string       `json:"text,omitempty"`
	FontSize    float64      `json:"font_size"`
	Align       TextAlign    `json:"align,omitempty"`
	Color       string       `json:"color,omitempty"`
	Connections []Connection `json:"connections,omitempty"`
}

// NewElement creates an element of the given shape at (x, y) with the
// shape's default size and a fresh id.
func NewElement(shape ShapeKind, x, y float64, text string) *Element {
	w, h := shape.DefaultSize()
	return &Element{
		ID:       uuid.NewString(),
		X:        x,
		Y:        y,
		Width:    w,
		Height:   h,
		Opacity:  1,
		Shape:    shape,
		Text:     text,
		FontSize: 14,
		Align:    AlignCenter,
		Color:    "#333333",
	}
}

// Bounds returns the element rectangle.
func (e *Element) Bounds() geom.Rect {
	return geom.Rect{X: e.X, Y: e.Y, W: e.Width, H: e.Height}
}

// SetBounds moves and sizes the element, flooring both dimensions at MinSize.
func (e *Element) SetBounds(r geom.Rect) {
	r = r.Normalize()
	e.X, e.Y = r.X, r.Y
	e.Width = math.Max(r.W, MinSize)
	e.Height = math.Max(r.H, MinSize)
}

// PortPosition returns the canvas position of one of the element's ports.
func (e *Element) PortPosition(p geom.Port) geom.Point {
	return geom.PortPosition(e.Bounds(), p)
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	c := *e
	c.Connections = make([]Connection, len(e.Connections))
	copy(c.Connections, e.Connections)
	return &c
}

// ConnectionsTo returns the indices of outgoing connections to target.
func (e *Element) ConnectionsTo(target string) []int {
	var idx []int
	for i, c := range e.Connections {
		if c.TargetID == target {
			idx = append(idx, i)
		}
	}
	return idx
}
