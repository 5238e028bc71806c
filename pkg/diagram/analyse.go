package diagram

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateID is returned by Validate when two elements share an id.
var ErrDuplicateID = errors.New("duplicate element id")

// Validate checks that the element set is well-formed: unique non-empty ids
// and sizes of at least MinSize. Dangling connection targets are not an
// error; Analyse reports them as warnings.
func Validate(elements []*Element) error {
	seen := make(map[string]bool, len(elements))
	for i, e := range elements {
		if e == nil {
			return fmt.Errorf("element %d is null", i)
		}
		if e.ID == "" {
			return fmt.Errorf("element %d has no id", i)
		}
		if seen[e.ID] {
			return fmt.Errorf("element %d: %w: %s", i, ErrDuplicateID, e.ID)
		}
		seen[e.ID] = true
		if e.Width < MinSize || e.Height < MinSize {
			return fmt.Errorf("element %s: size %.2fx%.2f below minimum %.0f", e.ID, e.Width, e.Height, MinSize)
		}
		if _, ok := shapeNames[e.Shape]; !ok {
			return fmt.Errorf("element %s: unknown shape %d", e.ID, int(e.Shape))
		}
	}
	return nil
}

// Warning is a non-fatal diagram issue.
type Warning struct {
	Type      string // "unreachable", "dead_end", "dangling", "too_few_in", "too_many_in", "too_few_out", "too_many_out", "no_initial"
	ElementID string
	Message   string
}

func (w Warning) String() string {
	return w.Type + ": " + w.Message
}

// Analyse inspects the workflow for structural problems.
func Analyse(elements []*Element) []Warning {
	var warnings []Warning
	byID := make(map[string]*Element, len(elements))
	for _, e := range elements {
		byID[e.ID] = e
	}

	incoming := make(map[string]int)
	for _, e := range elements {
		for _, c := range e.Connections {
			if _, ok := byID[c.TargetID]; !ok {
				warnings = append(warnings, Warning{
					Type:      "dangling",
					ElementID: e.ID,
					Message:   fmt.Sprintf("%s points at missing element %s", label(e), c.TargetID),
				})
				continue
			}
			incoming[c.TargetID]++
		}
	}

	for _, e := range elements {
		caps := e.Shape.Capabilities()
		in, out := incoming[e.ID], len(e.Connections)
		if in < caps.Incoming.Min {
			warnings = append(warnings, Warning{"too_few_in", e.ID,
				fmt.Sprintf("%s has %d incoming, needs %d", label(e), in, caps.Incoming.Min)})
		}
		if !caps.Incoming.Allows(in) {
			warnings = append(warnings, Warning{"too_many_in", e.ID,
				fmt.Sprintf("%s has %d incoming, allows %d", label(e), in, caps.Incoming.Max)})
		}
		if out < caps.Outgoing.Min {
			warnings = append(warnings, Warning{"too_few_out", e.ID,
				fmt.Sprintf("%s has %d outgoing, needs %d", label(e), out, caps.Outgoing.Min)})
		}
		if !caps.Outgoing.Allows(out) {
			warnings = append(warnings, Warning{"too_many_out", e.ID,
				fmt.Sprintf("%s has %d outgoing, allows %d", label(e), out, caps.Outgoing.Max)})
		}
	}

	for _, id := range UnreachableElements(elements) {
		warnings = append(warnings, Warning{"unreachable", id,
			fmt.Sprintf("%s cannot be reached from an initial node", label(byID[id]))})
	}
	for _, id := range DeadEnds(elements) {
		warnings = append(warnings, Warning{"dead_end", id,
			fmt.Sprintf("%s never reaches a terminal node", label(byID[id]))})
	}

	if len(elements) > 0 && countShape(elements, ShapeInitial) == 0 && countFlowNodes(elements) > 0 {
		warnings = append(warnings, Warning{Type: "no_initial", Message: "workflow has no initial node"})
	}
	return warnings
}

// UnreachableElements returns flow elements (everything except textboxes and
// initial nodes) not reachable from any initial node, sorted by id.
func UnreachableElements(elements []*Element) []string {
	adj := adjacency(elements)
	reached := make(map[string]bool)
	var queue []string
	for _, e := range elements {
		if e.Shape == ShapeInitial {
			reached[e.ID] = true
			queue = append(queue, e.ID)
		}
	}
	if len(queue) == 0 {
		return nil
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adj[id] {
			if !reached[next] {
				reached[next] = true
				queue = append(queue, next)
			}
		}
	}

	var out []string
	for _, e := range elements {
		if e.Shape == ShapeTextbox || e.Shape == ShapeInitial {
			continue
		}
		if !reached[e.ID] {
			out = append(out, e.ID)
		}
	}
	sort.Strings(out)
	return out
}

// DeadEnds returns non-terminal flow elements from which no terminal node is
// reachable, sorted by id. A diagram without terminals reports nothing.
func DeadEnds(elements []*Element) []string {
	if countShape(elements, ShapeTerminal) == 0 {
		return nil
	}
	// Walk the reversed graph from every terminal.
	rev := make(map[string][]string)
	for from, tos := range adjacency(elements) {
		for _, to := range tos {
			rev[to] = append(rev[to], from)
		}
	}
	alive := make(map[string]bool)
	var queue []string
	for _, e := range elements {
		if e.Shape == ShapeTerminal {
			alive[e.ID] = true
			queue = append(queue, e.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, prev := range rev[id] {
			if !alive[prev] {
				alive[prev] = true
				queue = append(queue, prev)
			}
		}
	}

	var out []string
	for _, e := range elements {
		if e.Shape == ShapeTextbox || e.Shape == ShapeTerminal {
			continue
		}
		if !alive[e.ID] {
			out = append(out, e.ID)
		}
	}
	sort.Strings(out)
	return out
}

func adjacency(elements []*Element) map[string][]string {
	exists := make(map[string]bool, len(elements))
	for _, e := range elements {
		exists[e.ID] = true
	}
	adj := make(map[string][]string)
	for _, e := range elements {
		for _, c := range e.Connections {
			if exists[c.TargetID] {
				adj[e.ID] = append(adj[e.ID], c.TargetID)
			}
		}
	}
	return adj
}

func countShape(elements []*Element, k ShapeKind) int {
	n := 0
	for _, e := range elements {
		if e.Shape == k {
			n++
		}
	}
	return n
}

func countFlowNodes(elements []*Element) int {
	return len(elements) - countShape(elements, ShapeTextbox)
}

func label(e *Element) string {
	if e == nil {
		return "?"
	}
	if e.Text != "" {
		return fmt.Sprintf("%s %q", e.Shape, e.Text)
	}
	return fmt.Sprintf("%s %s", e.Shape, shortID(e.ID))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
