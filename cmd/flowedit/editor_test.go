package main

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/flowcanvas/pkg/diagram"
	"github.com/ha1tch/flowcanvas/pkg/geom"
	"github.com/ha1tch/flowcanvas/pkg/gesture"
)

func newTestEditor(elements ...*diagram.Element) *Editor {
	return newEditor(&diagram.Document{Name: "test", Elements: elements}, DefaultConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func box(id string, shape diagram.ShapeKind, r geom.Rect) *diagram.Element {
	e := diagram.NewElement(shape, r.X, r.Y, "")
	e.ID = id
	e.SetBounds(r)
	return e
}

func mouse(ed *Editor, x, y int, b tcell.ButtonMask) {
	ed.handleMouse(tcell.NewEventMouse(x, y, b, tcell.ModNone))
}

func key(ed *Editor, k tcell.Key) bool {
	return ed.handleKey(tcell.NewEventKey(k, 0, tcell.ModNone))
}

func typeText(ed *Editor, s string) {
	for _, r := range s {
		ed.handleKey(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
}

func TestCellRoundTrip(t *testing.T) {
	ed := newTestEditor()
	for _, level := range []int{25, 67, 100, 175, 400} {
		ed.level = level
		ed.offset = geom.Point{X: -37.5, Y: 120}
		for _, c := range [][2]int{{0, 0}, {3, 7}, {79, 21}} {
			x, y := ed.cellAt(ed.canvasPoint(c[0], c[1]))
			if x != c[0] || y != c[1] {
				t.Errorf("level %d: cell %v round trips to (%d,%d)", level, c, x, y)
			}
		}
	}
}

func TestDragMoveCommitsOneUndo(t *testing.T) {
	a := box("a", diagram.ShapeAction, geom.R(4, 8, 80, 32))
	ed := newTestEditor(a)

	mouse(ed, 2, 1, tcell.Button1)
	mouse(ed, 4, 1, tcell.Button1)
	mouse(ed, 5, 1, tcell.Button1)
	mouse(ed, 5, 1, tcell.ButtonNone)

	if a.X != 28 || a.Y != 8 {
		t.Fatalf("after drag a at (%.0f,%.0f), want (28,8)", a.X, a.Y)
	}
	if !a.Selected {
		t.Error("pressing on an element should select it")
	}
	if _, ok := ed.history.Undo(ed.store); !ok || a.X != 4 {
		t.Errorf("undo: ok=%v X=%.0f", ok, a.X)
	}
	if ed.history.CanUndo() {
		t.Error("a drag should push exactly one undo step")
	}
}

func TestClickWithoutMovePushesNothing(t *testing.T) {
	a := box("a", diagram.ShapeAction, geom.R(4, 8, 80, 32))
	ed := newTestEditor(a)
	mouse(ed, 2, 1, tcell.Button1)
	mouse(ed, 2, 1, tcell.ButtonNone)
	if ed.history.CanUndo() || ed.modified {
		t.Error("a plain click must not record an edit")
	}
}

func TestLockedElementDoesNotMove(t *testing.T) {
	a := box("a", diagram.ShapeAction, geom.R(4, 8, 80, 32))
	a.Locked = true
	ed := newTestEditor(a)
	mouse(ed, 2, 1, tcell.Button1)
	mouse(ed, 6, 1, tcell.Button1)
	mouse(ed, 6, 1, tcell.ButtonNone)
	if a.X != 4 {
		t.Errorf("locked element moved to X=%.0f", a.X)
	}
}

func TestEscapeCancelsResize(t *testing.T) {
	a := box("a", diagram.ShapeAction, geom.R(4, 8, 80, 32))
	ed := newTestEditor(a)
	ed.store.SelectOnly("a")

	// Cell (10,2) is centred on the bottom-right handle at (84,40).
	mouse(ed, 10, 2, tcell.Button1)
	mouse(ed, 15, 4, tcell.Button1)
	if want := geom.R(4, 8, 120, 64); a.Bounds() != want {
		t.Fatalf("during resize bounds = %+v, want %+v", a.Bounds(), want)
	}

	key(ed, tcell.KeyEscape)
	if want := geom.R(4, 8, 80, 32); a.Bounds() != want {
		t.Errorf("after Escape bounds = %+v, want %+v", a.Bounds(), want)
	}
	mouse(ed, 15, 4, tcell.ButtonNone)
	if ed.history.CanUndo() {
		t.Error("cancelled gesture must not be recorded")
	}
}

func TestResizeFlipThroughEditor(t *testing.T) {
	a := box("a", diagram.ShapeAction, geom.R(12, 8, 80, 32))
	ed := newTestEditor(a)
	ed.store.SelectOnly("a")

	mouse(ed, 11, 2, tcell.Button1) // bottom-right handle at (92,40)
	mouse(ed, 0, 2, tcell.Button1)  // past the left edge
	if !ed.drag.resize.FlipX {
		t.Fatal("crossing the left edge should flip horizontally")
	}
	mouse(ed, 11, 2, tcell.Button1) // back to the start
	mouse(ed, 11, 2, tcell.ButtonNone)
	if want := geom.R(12, 8, 80, 32); a.Bounds() != want {
		t.Errorf("round trip bounds = %+v, want %+v", a.Bounds(), want)
	}
	if ed.history.CanUndo() {
		t.Error("a round trip leaves nothing to undo")
	}
}

func TestGroupResizeFromSelectionBox(t *testing.T) {
	a := box("a", diagram.ShapeAction, geom.R(4, 8, 80, 32))
	b := box("b", diagram.ShapeAction, geom.R(164, 8, 80, 32))
	ed := newTestEditor(a, b)
	ed.store.SelectOnly("a", "b")

	// Selection box (4,8,240,32); its bottom-right handle (244,40) is cell (30,2).
	mouse(ed, 30, 2, tcell.Button1)
	if ed.drag.kind != dragGroup {
		t.Fatalf("drag kind = %v, want group resize", ed.drag.kind)
	}
	mouse(ed, 60, 2, tcell.Button1)
	mouse(ed, 60, 2, tcell.ButtonNone)

	if want := geom.R(4, 8, 160, 32); a.Bounds() != want {
		t.Errorf("a = %+v, want %+v", a.Bounds(), want)
	}
	if want := geom.R(324, 8, 160, 32); b.Bounds() != want {
		t.Errorf("b = %+v, want %+v", b.Bounds(), want)
	}
	cmd, ok := ed.history.Undo(ed.store)
	if !ok || len(cmd.(*diagram.BoundsCommand).Changes) != 2 {
		t.Fatalf("expected one undo step covering both elements, got %v", cmd)
	}
	if a.Width != 80 || b.X != 164 {
		t.Errorf("undo did not restore the group: a.W=%.0f b.X=%.0f", a.Width, b.X)
	}
}

func TestWheelZoomKeepsPointerCell(t *testing.T) {
	ed := newTestEditor()
	before := ed.canvasPoint(10, 5)
	mouse(ed, 10, 5, tcell.WheelUp)
	if ed.level != 110 {
		t.Fatalf("level = %d, want 110", ed.level)
	}
	after := ed.canvasPoint(10, 5)
	if before.Dist(after) > 1e-9 {
		t.Errorf("pointer drifted from %+v to %+v", before, after)
	}
	mouse(ed, 10, 5, tcell.WheelDown)
	mouse(ed, 10, 5, tcell.WheelDown)
	if ed.level != 90 {
		t.Errorf("level = %d, want 90", ed.level)
	}
}

func TestRightDragPans(t *testing.T) {
	ed := newTestEditor()
	mouse(ed, 10, 5, tcell.Button2)
	mouse(ed, 20, 5, tcell.Button2)
	mouse(ed, 20, 5, tcell.ButtonNone)
	if want := (geom.Point{X: -80, Y: 0}); ed.offset != want {
		t.Errorf("offset = %+v, want %+v", ed.offset, want)
	}
	if ed.history.CanUndo() {
		t.Error("panning is not an edit")
	}
}

func TestConnectSnapsToPort(t *testing.T) {
	a := box("a", diagram.ShapeAction, geom.R(4, 8, 80, 32))
	b := box("b", diagram.ShapeTerminal, geom.R(200, 8, 32, 32))
	ed := newTestEditor(a, b)
	ed.store.SelectOnly("a")

	typeText(ed, "c")
	if ed.mode != ModeConnect {
		t.Fatalf("mode = %v, want connect", ed.mode)
	}
	// Cell (25,1) is centred at (204,24), next to b's left port (200,24).
	mouse(ed, 25, 1, tcell.ButtonNone)
	if ed.previewSnap == nil || ed.previewSnap.ElementID != "b" {
		t.Fatalf("preview did not snap: %+v", ed.previewSnap)
	}
	mouse(ed, 25, 1, tcell.Button1)
	mouse(ed, 25, 1, tcell.ButtonNone)

	if len(a.Connections) != 1 {
		t.Fatalf("connections = %d, want 1", len(a.Connections))
	}
	c := a.Connections[0]
	if c.TargetID != "b" || c.HeadPort != geom.PortLeft {
		t.Errorf("connection = %+v", c)
	}
	if ed.mode != ModeCanvas {
		t.Error("connect mode should end after connecting")
	}
	if len(ed.routes) != 1 {
		t.Errorf("routes = %d, want 1", len(ed.routes))
	}
}

func TestConnectRefusedAtCapacity(t *testing.T) {
	a := box("a", diagram.ShapeAction, geom.R(4, 8, 80, 32))
	b := box("b", diagram.ShapeTerminal, geom.R(200, 8, 32, 32))
	a.Connections = []diagram.Connection{{TargetID: "b", TailPort: geom.PortRight, HeadPort: geom.PortLeft}}
	ed := newTestEditor(a, b)
	ed.store.SelectOnly("a")
	typeText(ed, "c")
	if ed.mode == ModeConnect {
		t.Error("an action with its outgoing arrow cannot start another")
	}
}

func TestTextEditGrowsAndUndoes(t *testing.T) {
	a := box("a", diagram.ShapeAction, geom.R(4, 8, 40, 32))
	ed := newTestEditor(a)
	ed.store.SelectOnly("a")

	key(ed, tcell.KeyEnter)
	if ed.mode != ModeText {
		t.Fatalf("mode = %v, want text", ed.mode)
	}
	typeText(ed, "hello world")
	if !ed.textFit.NeedsResize {
		t.Error("text wider than the element should need a resize")
	}
	key(ed, tcell.KeyEnter)

	// 11 cells of 8 units plus the 8-unit action inset on each side.
	if a.Text != "hello world" || a.Width != 104 || a.Height != 32 {
		t.Fatalf("after edit: %q %.0fx%.0f", a.Text, a.Width, a.Height)
	}
	ed.undo()
	if a.Text != "" || a.Width != 40 {
		t.Errorf("after undo: %q width %.0f", a.Text, a.Width)
	}
}

func TestTextEditEscapeRestores(t *testing.T) {
	a := box("a", diagram.ShapeAction, geom.R(4, 8, 40, 32))
	a.Text = "go"
	ed := newTestEditor(a)
	ed.store.SelectOnly("a")

	key(ed, tcell.KeyEnter)
	typeText(ed, " somewhere far")
	key(ed, tcell.KeyEscape)
	if a.Text != "go" || a.Bounds() != geom.R(4, 8, 40, 32) {
		t.Errorf("escape left %q %+v", a.Text, a.Bounds())
	}
	if ed.history.CanUndo() {
		t.Error("cancelled text edit must not be recorded")
	}
}

func TestNudgeIsUndoable(t *testing.T) {
	a := box("a", diagram.ShapeAction, geom.R(0, 0, 80, 32))
	ed := newTestEditor(a)
	ed.store.SelectOnly("a")
	key(ed, tcell.KeyRight)
	key(ed, tcell.KeyDown)
	if a.X != 8 || a.Y != 16 {
		t.Fatalf("nudged to (%.0f,%.0f)", a.X, a.Y)
	}
	ed.undo()
	ed.undo()
	if a.X != 0 || a.Y != 0 {
		t.Errorf("undo left (%.0f,%.0f)", a.X, a.Y)
	}
}

func TestDeleteAndUndoRestoresConnections(t *testing.T) {
	a := box("a", diagram.ShapeAction, geom.R(0, 0, 80, 32))
	b := box("b", diagram.ShapeTerminal, geom.R(200, 0, 32, 32))
	a.Connections = []diagram.Connection{{TargetID: "b", TailPort: geom.PortRight, HeadPort: geom.PortLeft}}
	ed := newTestEditor(a, b)
	ed.store.SelectOnly("b")

	key(ed, tcell.KeyDelete)
	if ed.store.Find("b") != nil || len(a.Connections) != 0 {
		t.Fatal("delete should remove b and the arrow into it")
	}
	if len(ed.routes) != 0 {
		t.Errorf("stale routes: %d", len(ed.routes))
	}
	ed.undo()
	if ed.store.Find("b") == nil || len(a.Connections) != 1 {
		t.Error("undo should restore b and its incoming arrow")
	}
	if len(ed.routes) != 1 {
		t.Errorf("routes after undo = %d, want 1", len(ed.routes))
	}
}

func TestAddElementAtViewportCentre(t *testing.T) {
	ed := newTestEditor()
	typeText(ed, "3")
	all := ed.store.All()
	if len(all) != 1 || all[0].Shape != diagram.ShapeDecision {
		t.Fatalf("added %v", all)
	}
	vp := ed.viewportSize()
	c := all[0].Bounds().Center()
	if math.Abs(c.X-vp.W/2) > 1e-9 || math.Abs(c.Y-vp.H/2) > 1e-9 {
		t.Errorf("centre = %+v, want (%.0f,%.0f)", c, vp.W/2, vp.H/2)
	}
	if !all[0].Selected {
		t.Error("new element should be selected")
	}
}

func TestPasteCommandRemapsIDs(t *testing.T) {
	a := box("a", diagram.ShapeAction, geom.R(0, 0, 80, 32))
	b := box("b", diagram.ShapeTerminal, geom.R(200, 0, 32, 32))
	a.Connections = []diagram.Connection{
		{TargetID: "b", TailPort: geom.PortRight, HeadPort: geom.PortLeft},
		{TargetID: "outside"},
	}

	cmd := pasteCommand([]*diagram.Element{a, b}, 3, geom.Point{X: 16, Y: 16})
	if len(cmd.Commands) != 2 {
		t.Fatalf("commands = %d", len(cmd.Commands))
	}
	pa := cmd.Commands[0].(*diagram.AddCommand)
	pb := cmd.Commands[1].(*diagram.AddCommand)
	if pa.Element.ID == "a" || pb.Element.ID == "b" {
		t.Error("pasted elements need fresh ids")
	}
	if pa.Index != 3 || pb.Index != 4 {
		t.Errorf("indices = %d, %d", pa.Index, pb.Index)
	}
	if len(pa.Element.Connections) != 1 || pa.Element.Connections[0].TargetID != pb.Element.ID {
		t.Errorf("connections = %+v", pa.Element.Connections)
	}
	if pa.Element.X != 16 || pb.Element.Y != 16 {
		t.Errorf("offset not applied: %+v %+v", pa.Element.Bounds(), pb.Element.Bounds())
	}
	if len(a.Connections) != 2 || a.ID != "a" {
		t.Error("source elements must be left untouched")
	}
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	doc := diagram.Sample()

	svg := filepath.Join(dir, "flow.svg")
	if err := exportFile(svg, doc); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(svg)
	if !strings.Contains(string(data), "<svg") {
		t.Error("SVG export missing <svg> element")
	}

	dot := filepath.Join(dir, "flow.dot")
	if err := exportFile(dot, doc); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(dot)
	if !strings.HasPrefix(string(data), "digraph") {
		t.Error("DOT export should start with digraph")
	}

	if err := exportFile(filepath.Join(dir, "flow.bmp"), doc); err == nil {
		t.Error("expected error for unknown extension")
	}
}

func TestDrawOnSimulationScreen(t *testing.T) {
	a := box("a", diagram.ShapeAction, geom.R(4, 8, 80, 32))
	a.Text = "Build"
	ed := newTestEditor(a)

	s := tcell.NewSimulationScreen("")
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	defer s.Fini()
	s.SetSize(80, 24)
	ed.screen = s

	ed.draw()
	s.Show()

	cells, w, h := s.GetContents()
	row := func(y int) string {
		var sb strings.Builder
		for x := 0; x < w; x++ {
			if r := cells[y*w+x].Runes; len(r) > 0 {
				sb.WriteRune(r[0])
			}
		}
		return sb.String()
	}

	if got := cells[0].Runes; len(got) == 0 || got[0] != '╭' {
		t.Errorf("top-left cell = %q, want rounded corner", got)
	}
	if !strings.Contains(row(1), "Build") {
		t.Errorf("text row = %q", row(1))
	}
	if !strings.Contains(row(h-1), "100%") {
		t.Errorf("status bar = %q", row(h-1))
	}
}

func TestZoomToFitShowsEverything(t *testing.T) {
	ed := newTestEditor(diagram.Sample().Elements...)
	ed.zoomToFit()
	vp := ed.viewportSize()
	for _, e := range ed.store.All() {
		v := gesture.ToViewport(e.Bounds().Origin(), ed.offset, ed.scale())
		far := gesture.ToViewport(geom.Point{X: e.Bounds().Right(), Y: e.Bounds().Bottom()}, ed.offset, ed.scale())
		if v.X < 0 || v.Y < 0 || far.X > vp.W || far.Y > vp.H {
			t.Errorf("%s outside the viewport at level %d", e.ID, ed.level)
		}
	}
}

func TestArrangeIsOneUndoStep(t *testing.T) {
	start := box("start", diagram.ShapeInitial, geom.R(300, 300, 32, 32))
	a := box("a", diagram.ShapeAction, geom.R(0, 0, 80, 32))
	pinned := box("pinned", diagram.ShapeAction, geom.R(600, 10, 80, 32))
	pinned.Locked = true
	start.Connections = []diagram.Connection{{TargetID: a.ID, TailPort: geom.PortBottom, HeadPort: geom.PortTop}}
	ed := newTestEditor(start, a, pinned)

	typeText(ed, "a")
	if a.Y <= start.Bounds().Bottom() {
		t.Errorf("a at y=%.0f should be below start (bottom %.0f)", a.Y, start.Bounds().Bottom())
	}
	if pinned.Bounds() != geom.R(600, 10, 80, 32) {
		t.Errorf("locked element moved to %+v", pinned.Bounds())
	}
	if _, ok := ed.history.Undo(ed.store); !ok {
		t.Fatal("arrange should be undoable")
	}
	if start.Bounds() != geom.R(300, 300, 32, 32) || a.Bounds() != geom.R(0, 0, 80, 32) {
		t.Errorf("undo left start=%+v a=%+v", start.Bounds(), a.Bounds())
	}
	if ed.history.CanUndo() {
		t.Error("arrange should be a single undo step")
	}
}
