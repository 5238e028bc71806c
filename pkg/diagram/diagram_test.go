package diagram

import (
	"errors"
	"strings"
	"testing"

	"github.com/ha1tch/flowcanvas/pkg/geom"
)

func el(id string, shape ShapeKind, x, y float64) *Element {
	e := NewElement(shape, x, y, "")
	e.ID = id
	return e
}

func connect(from, to *Element) {
	from.Connections = append(from.Connections, Connection{TargetID: to.ID, TailPort: geom.PortRight, HeadPort: geom.PortLeft})
}

func TestCapabilityTable(t *testing.T) {
	if ShapeInitial.AcceptsIncoming() {
		t.Error("initial node must not accept incoming arrows")
	}
	if ShapeTerminal.EmitsOutgoing() {
		t.Error("terminal node must not emit outgoing arrows")
	}
	if ShapeTextbox.AcceptsIncoming() || ShapeTextbox.EmitsOutgoing() {
		t.Error("textbox takes no arrows")
	}
	if !ShapeDecision.Capabilities().Outgoing.Allows(5) {
		t.Error("decision outgoing should be unbounded")
	}
	if ShapeAction.Capabilities().Outgoing.Allows(2) {
		t.Error("action allows a single outgoing arrow")
	}
	for _, k := range ShapeKinds {
		got, err := ParseShapeKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseShapeKind(%q) = %v, %v", k.String(), got, err)
		}
	}
}

func TestSetBoundsFloorsSize(t *testing.T) {
	e := el("a", ShapeAction, 0, 0)
	e.SetBounds(geom.R(10, 10, 0.2, -4))
	if e.Width != MinSize || e.Height != 4 {
		t.Errorf("SetBounds size = %.2fx%.2f", e.Width, e.Height)
	}
	if e.Y != 6 {
		t.Errorf("negative height should normalise, Y = %.2f", e.Y)
	}
}

func TestStoreNotifiesOncePerBatch(t *testing.T) {
	a, b := el("a", ShapeAction, 0, 0), el("b", ShapeAction, 200, 0)
	s := NewStore(a, b)

	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })

	s.ApplyBounds(map[string]geom.Rect{
		"a":       geom.R(5, 5, 50, 50),
		"b":       geom.R(300, 5, 50, 50),
		"missing": geom.R(0, 0, 1, 1),
	})

	if len(changes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(changes))
	}
	if len(changes[0].IDs) != 2 {
		t.Errorf("expected 2 ids, got %v", changes[0].IDs)
	}
	if a.X != 5 || b.X != 300 {
		t.Errorf("bounds not applied: a.X=%.0f b.X=%.0f", a.X, b.X)
	}
}

func TestStoreHitTestUsesZOrder(t *testing.T) {
	low := el("low", ShapeAction, 0, 0)
	high := el("high", ShapeAction, 10, 10)
	s := NewStore()
	s.Add(low)
	s.Add(high)

	if got := s.HitTest(geom.Point{X: 20, Y: 20}); got == nil || got.ID != "high" {
		t.Errorf("HitTest overlap = %v, want high", got)
	}
	if got := s.HitTest(geom.Point{X: 2, Y: 2}); got == nil || got.ID != "low" {
		t.Errorf("HitTest low = %v", got)
	}
	if got := s.HitTest(geom.Point{X: 900, Y: 900}); got != nil {
		t.Errorf("HitTest empty = %v", got.ID)
	}
}

func TestCanConnect(t *testing.T) {
	start := el("start", ShapeInitial, 0, 0)
	act := el("act", ShapeAction, 100, 0)
	end := el("end", ShapeTerminal, 300, 0)
	s := NewStore(start, act, end)

	if !s.CanConnect("start", "act") {
		t.Error("initial -> action should be allowed")
	}
	if s.CanConnect("act", "start") {
		t.Error("nothing may point at an initial node")
	}
	if s.CanConnect("end", "act") {
		t.Error("terminal has no outgoing arrows")
	}
	if s.CanConnect("act", "act") {
		t.Error("self connection refused")
	}
	connect(act, end)
	if s.CanConnect("act", "end") {
		t.Error("action already has its single outgoing arrow")
	}
}

func TestHistoryUndoRedo(t *testing.T) {
	a := el("a", ShapeAction, 0, 0)
	s := NewStore(a)
	h := NewHistory()

	cmd := &BoundsCommand{Label: "move", Changes: []BoundsChange{
		{ID: "a", Before: a.Bounds(), After: geom.R(40, 10, a.Width, a.Height)},
	}}
	if !cmd.Changed() {
		t.Fatal("command should report a change")
	}
	h.Do(s, cmd)
	if a.X != 40 {
		t.Fatalf("Do did not apply, X=%.0f", a.X)
	}

	if _, ok := h.Undo(s); !ok || a.X != 0 {
		t.Errorf("Undo: ok=%v X=%.0f", ok, a.X)
	}
	if _, ok := h.Redo(s); !ok || a.X != 40 {
		t.Errorf("Redo: ok=%v X=%.0f", ok, a.X)
	}
	if h.CanRedo() {
		t.Error("redo stack should be empty")
	}
}

func TestHistoryLimit(t *testing.T) {
	h := NewHistory()
	for i := 0; i < 60; i++ {
		h.Push(&BoundsCommand{Label: string(rune('A' + i%26))})
	}
	if len(h.undo) != MaxUndoLevels {
		t.Errorf("Stack limit failed: got %d, want %d", len(h.undo), MaxUndoLevels)
	}
	if h.undo[0].Name() != "K" {
		t.Errorf("Stack rotation failed: first item is %s, want K", h.undo[0].Name())
	}
}

func TestRemoveCommandRestoresIncoming(t *testing.T) {
	a, b, c := el("a", ShapeAction, 0, 0), el("b", ShapeDecision, 200, 0), el("c", ShapeAction, 400, 0)
	connect(a, b)
	connect(c, b)
	s := NewStore(a, b, c)
	h := NewHistory()

	cmd := NewRemoveCommand(s, "b")
	h.Do(s, cmd)
	if s.Find("b") != nil {
		t.Fatal("b still present")
	}
	if len(a.Connections) != 0 || len(c.Connections) != 0 {
		t.Errorf("incoming connections not detached: %d, %d", len(a.Connections), len(c.Connections))
	}

	h.Undo(s)
	if s.Index("b") != 1 {
		t.Errorf("b restored at %d, want 1", s.Index("b"))
	}
	if len(a.Connections) != 1 || a.Connections[0].TargetID != "b" {
		t.Errorf("a connection not restored: %+v", a.Connections)
	}
	if len(c.Connections) != 1 {
		t.Errorf("c connection not restored")
	}
}

func TestConnectCommand(t *testing.T) {
	a, b := el("a", ShapeAction, 0, 0), el("b", ShapeTerminal, 200, 0)
	s := NewStore(a, b)
	h := NewHistory()
	h.Do(s, &ConnectCommand{OwnerID: "a", Connection: Connection{TargetID: "b", TailPort: geom.PortRight, HeadPort: geom.PortLeft}})
	if len(a.Connections) != 1 {
		t.Fatal("connection not added")
	}
	h.Undo(s)
	if len(a.Connections) != 0 {
		t.Error("connection not removed on undo")
	}
}

func TestBatchCommandUndoesAsOneStep(t *testing.T) {
	s := NewStore()
	h := NewHistory()
	a, b := el("a", ShapeAction, 0, 0), el("b", ShapeTerminal, 200, 0)
	h.Do(s, &BatchCommand{Label: "paste", Commands: []Command{
		&AddCommand{Element: a, Index: 0},
		&AddCommand{Element: b, Index: 1},
	}})
	if s.Len() != 2 {
		t.Fatalf("Len = %d after paste", s.Len())
	}
	h.Undo(s)
	if s.Len() != 0 {
		t.Errorf("Len = %d after undo, want 0", s.Len())
	}
	h.Redo(s)
	if s.Index("b") != 1 {
		t.Errorf("b at %d after redo", s.Index("b"))
	}
}

func TestValidate(t *testing.T) {
	a, b := el("a", ShapeAction, 0, 0), el("a", ShapeAction, 10, 0)
	err := Validate([]*Element{a, b})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected duplicate id error, got %v", err)
	}

	b.ID = "b"
	b.Width = 0.5
	if err := Validate([]*Element{a, b}); err == nil {
		t.Error("expected size error")
	}

	if err := Validate([]*Element{a, nil}); err == nil || !strings.Contains(err.Error(), "element 1 is null") {
		t.Errorf("expected null element error, got %v", err)
	}
}

func TestParseJSONRejectsNullElement(t *testing.T) {
	tests := []string{
		`{"elements":[null]}`,
		`{"elements":[{"id":"a","shape":"action","width":10,"height":10},null]}`,
	}
	for _, input := range tests {
		doc, err := ParseJSON([]byte(input))
		if err == nil || doc != nil {
			t.Errorf("ParseJSON(%s) = %v, %v; want error", input, doc, err)
		}
	}
}

func TestAnalyseCleanWorkflow(t *testing.T) {
	doc := Sample()
	warnings := Analyse(doc.Elements)
	if len(warnings) != 0 {
		t.Errorf("Expected no warnings for sample workflow, got %d: %v", len(warnings), warnings)
	}
}

func TestAnalyseMultipleIssues(t *testing.T) {
	start := el("start", ShapeInitial, 0, 0)
	act := el("act", ShapeAction, 100, 0)
	loop := el("loop", ShapeAction, 200, 0)
	orphan := el("orphan", ShapeAction, 300, 0)
	end := el("end", ShapeTerminal, 400, 0)
	connect(start, act)
	connect(act, loop)
	connect(loop, act)
	orphan.Connections = []Connection{{TargetID: "gone"}}
	_ = end

	warnings := Analyse([]*Element{start, act, loop, orphan, end})
	types := make(map[string]bool)
	for _, w := range warnings {
		types[w.Type] = true
	}
	for _, want := range []string{"unreachable", "dead_end", "dangling", "too_few_in"} {
		if !types[want] {
			t.Errorf("Missing %q warning in %v", want, warnings)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	doc := Sample()
	data, err := ToJSON(doc, true)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"shape": "decision"`) {
		t.Errorf("shape should encode by name:\n%s", data)
	}
	if !strings.Contains(string(data), `"tail_port": "right"`) {
		t.Errorf("port should encode by name")
	}

	back, err := ParseJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Elements) != len(doc.Elements) {
		t.Fatalf("got %d elements, want %d", len(back.Elements), len(doc.Elements))
	}
	if back.Elements[1].Connections[0].Label != "yes" {
		t.Errorf("connection label lost")
	}
}

func TestParseJSONRejectsBadShape(t *testing.T) {
	_, err := ParseJSON([]byte(`{"elements":[{"id":"x","width":10,"height":10,"shape":"hexagon"}]}`))
	if err == nil {
		t.Error("expected error for unknown shape")
	}
}
