package diagram

import "fmt"

// ShapeKind identifies the activity-diagram shape of an element.
type ShapeKind int

const (
	ShapeInitial ShapeKind = iota
	ShapeAction
	ShapeDecision
	ShapeTerminal
	ShapePredefinedAction
	ShapeTextbox
)

// ShapeKinds lists every shape in declaration order.
var ShapeKinds = []ShapeKind{
	ShapeInitial, ShapeAction, ShapeDecision, ShapeTerminal, ShapePredefinedAction, ShapeTextbox,
}

var shapeNames = map[ShapeKind]string{
	ShapeInitial:          "initial",
	ShapeAction:           "action",
	ShapeDecision:         "decision",
	ShapeTerminal:         "terminal",
	ShapePredefinedAction: "predefined",
	ShapeTextbox:          "textbox",
}

func (k ShapeKind) String() string {
	if s, ok := shapeNames[k]; ok {
		return s
	}
	return fmt.Sprintf("shape(%d)", int(k))
}

// ParseShapeKind is the inverse of String.
func ParseShapeKind(s string) (ShapeKind, error) {
	for k, name := range shapeNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown shape %q", s)
}

// MarshalText encodes the shape by name.
func (k ShapeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a shape name.
func (k *ShapeKind) UnmarshalText(b []byte) error {
	v, err := ParseShapeKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Unbounded marks an ArrowRule without an upper limit.
const Unbounded = -1

// ArrowRule bounds how many arrows may attach to one side of a connection.
type ArrowRule struct {
	Min int
	Max int // Unbounded for no limit
}

// Allows reports whether n arrows stay within the upper bound.
func (r ArrowRule) Allows(n int) bool {
	return r.Max == Unbounded || n <= r.Max
}

// Satisfied reports whether n arrows meet both bounds.
func (r ArrowRule) Satisfied(n int) bool {
	return n >= r.Min && r.Allows(n)
}

// Capabilities is the per-shape connection rule set.
type Capabilities struct {
	Incoming ArrowRule
	Outgoing ArrowRule
}

var capabilities = map[ShapeKind]Capabilities{
	ShapeInitial:          {Incoming: ArrowRule{0, 0}, Outgoing: ArrowRule{1, 1}},
	ShapeAction:           {Incoming: ArrowRule{1, Unbounded}, Outgoing: ArrowRule{1, 1}},
	ShapeDecision:         {Incoming: ArrowRule{1, Unbounded}, Outgoing: ArrowRule{2, Unbounded}},
	ShapeTerminal:         {Incoming: ArrowRule{1, Unbounded}, Outgoing: ArrowRule{0, 0}},
	ShapePredefinedAction: {Incoming: ArrowRule{1, Unbounded}, Outgoing: ArrowRule{1, 1}},
	ShapeTextbox:          {Incoming: ArrowRule{0, 0}, Outgoing: ArrowRule{0, 0}},
}

// Capabilities returns the arrow rules for the shape.
func (k ShapeKind) Capabilities() Capabilities {
	return capabilities[k]
}

// AcceptsIncoming reports whether the shape can ever be a connection head.
func (k ShapeKind) AcceptsIncoming() bool {
	in := k.Capabilities().Incoming
	return in.Max == Unbounded || in.Max > 0
}

// EmitsOutgoing reports whether the shape can ever be a connection tail.
func (k ShapeKind) EmitsOutgoing() bool {
	out := k.Capabilities().Outgoing
	return out.Max == Unbounded || out.Max > 0
}

// DefaultSize is the size a new element of this shape is created with.
func (k ShapeKind) DefaultSize() (w, h float64) {
	switch k {
	case ShapeInitial, ShapeTerminal:
		return 40, 40
	case ShapeDecision:
		return 120, 80
	case ShapeTextbox:
		return 120, 40
	default:
		return 140, 60
	}
}
