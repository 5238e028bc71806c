// Package gesture turns raw pointer input into element transforms.
//
// Every engine is a pure function of a context captured at pointer-down and
// the current pointer position. Contexts are values: an engine that needs to
// carry state into the next tick returns a new context in its result and the
// caller swaps it in. Nothing here reads or writes the element store.
package gesture

import (
	"errors"
	"fmt"

	"github.com/ha1tch/flowcanvas/pkg/diagram"
	"github.com/ha1tch/flowcanvas/pkg/geom"
)

// ErrInvalidContext is the panic value (wrapped) raised when an engine is
// handed a context that was not built by its constructor.
var ErrInvalidContext = errors.New("invalid gesture context")

func mustBeValid(valid bool, engine string) {
	if !valid {
		panic(fmt.Errorf("%s: %w", engine, ErrInvalidContext))
	}
}

// ElementSnapshot pairs an element id with its bounds at gesture start.
type ElementSnapshot struct {
	ID     string
	Bounds geom.Rect
}

// ElementTransform is the new bounds computed for one element.
type ElementTransform struct {
	ID     string
	Bounds geom.Rect
}

// Snapshot captures the bounds of elements in order.
func Snapshot(elements []*diagram.Element) []ElementSnapshot {
	out := make([]ElementSnapshot, len(elements))
	for i, e := range elements {
		out[i] = ElementSnapshot{ID: e.ID, Bounds: e.Bounds()}
	}
	return out
}

// BoundsMap converts transforms into the form diagram.Store.ApplyBounds takes.
func BoundsMap(ts []ElementTransform) map[string]geom.Rect {
	m := make(map[string]geom.Rect, len(ts))
	for _, t := range ts {
		m[t.ID] = t.Bounds
	}
	return m
}

// RestoreMap returns the gesture-start bounds of snaps, used to cancel a
// gesture.
func RestoreMap(snaps []ElementSnapshot) map[string]geom.Rect {
	m := make(map[string]geom.Rect, len(snaps))
	for _, s := range snaps {
		m[s.ID] = s.Bounds
	}
	return m
}

// UndoCommand builds an undo record from the gesture-start snapshots and
// the transforms of the final tick.
func UndoCommand(label string, snaps []ElementSnapshot, final []ElementTransform) *diagram.BoundsCommand {
	after := BoundsMap(final)
	cmd := &diagram.BoundsCommand{Label: label}
	for _, s := range snaps {
		a, ok := after[s.ID]
		if !ok {
			continue
		}
		cmd.Changes = append(cmd.Changes, diagram.BoundsChange{ID: s.ID, Before: s.Bounds, After: a})
	}
	return cmd
}

func snapshotBounds(snaps []ElementSnapshot) []geom.Rect {
	rs := make([]geom.Rect, len(snaps))
	for i, s := range snaps {
		rs[i] = s.Bounds
	}
	return rs
}
