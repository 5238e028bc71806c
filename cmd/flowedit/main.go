// flowedit is a terminal editor for activity workflow diagrams.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/flowcanvas/pkg/diagram"
	"github.com/ha1tch/flowcanvas/pkg/geom"
	"github.com/ha1tch/flowcanvas/pkg/gesture"
	"github.com/ha1tch/flowcanvas/pkg/layout"
	"github.com/ha1tch/flowcanvas/pkg/route"
)

// Editor holds all editor state
type Editor struct {
	screen      tcell.Screen
	store       *diagram.Store
	history     *diagram.History
	name        string
	filename    string
	modified    bool
	mode        Mode
	message     string
	messageType MessageType
	config      Config
	log         *slog.Logger
	quitArmed   bool

	// Viewport: zoom level in percent and the canvas point shown at the
	// top-left of the canvas area
	level  int
	offset geom.Point

	routes   []route.Connection
	measurer gesture.CellMeasurer

	// Pointer gesture in progress
	buttons tcell.ButtonMask
	drag    dragState

	// Text editing
	textCtx gesture.TextEditContext
	textFit gesture.TextFitResult

	// Connection drawing
	connectFrom string
	connectPort geom.Port
	preview     route.Route
	previewSnap *route.Snap

	// Filename prompt
	inputPrompt string
	inputBuffer string
	inputDone   func(string)

	// Drawing area, set by draw
	areaW, areaH int

	// Unix milliseconds when message was shown; read by the refresh ticker
	messageFlashStart atomic.Int64
}

// Mode represents the editor mode
type Mode int

const (
	ModeCanvas Mode = iota
	ModeText
	ModeConnect
	ModeInput
)

// MessageType determines flash behaviour
type MessageType int

const (
	MsgInfo    MessageType = iota // Informative, no flash
	MsgError                      // Errors, flash
	MsgSuccess                    // State changes, flash
	MsgWarning                    // Warnings, flash
)

type dragKind int

const (
	dragNone dragKind = iota
	dragMove
	dragResize
	dragGroup
	dragPan
)

func (k dragKind) String() string {
	switch k {
	case dragMove:
		return "move"
	case dragResize:
		return "resize"
	case dragGroup:
		return "group resize"
	case dragPan:
		return "pan"
	default:
		return "none"
	}
}

// dragState is captured on pointer-down and lives until release or Escape.
type dragState struct {
	kind   dragKind
	snaps  []gesture.ElementSnapshot
	move   gesture.MoveContext
	resize gesture.ResizeContext
	group  gesture.GroupResizeContext
	pan    gesture.PanContext
	last   []gesture.ElementTransform
}

func newEditor(doc *diagram.Document, cfg Config, log *slog.Logger) *Editor {
	ed := &Editor{
		store:    diagram.NewStore(doc.Elements...),
		history:  diagram.NewHistory(),
		name:     doc.Name,
		config:   cfg,
		log:      log,
		level:    gesture.DefaultZoom,
		measurer: gesture.CellMeasurer{CellWidth: cfg.CellWidth, CellHeight: cfg.CellHeight},
	}
	ed.routes = route.RouteAll(ed.store.All())
	ed.store.Subscribe(ed.onChange)
	return ed
}

func main() {
	cfg := LoadConfig()
	logger, logFile := openLog(cfg)
	defer logFile.Close()

	doc := diagram.Sample()
	filename := ""
	if len(os.Args) > 1 {
		filename = os.Args[1]
		loaded, err := diagram.ReadFile(filename)
		switch {
		case err == nil:
			doc = loaded
		case errors.Is(err, fs.ErrNotExist):
			doc = &diagram.Document{Name: strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))}
		default:
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", filename, err)
			os.Exit(1)
		}
	}

	ed := newEditor(doc, cfg, logger)
	ed.filename = filename

	// Initialize screen
	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing screen: %v\n", err)
		os.Exit(1)
	}
	screen.EnableMouse()
	screen.Clear()
	ed.screen = screen

	ed.zoomToFit()
	logger.Info("editor started", "file", filename, "elements", ed.store.Len())

	ed.run()

	screen.Fini()
}

func (ed *Editor) run() {
	// Periodic refresh while a message is flashing
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			elapsed := time.Now().UnixMilli() - ed.messageFlashStart.Load()
			if elapsed >= 0 && elapsed < 700 {
				ed.screen.PostEvent(tcell.NewEventInterrupt(nil))
			}
		}
	}()

	for {
		ed.draw()
		ed.screen.Show()

		ev := ed.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			ed.screen.Sync()
		case *tcell.EventKey:
			if ed.handleKey(ev) {
				return
			}
		case *tcell.EventMouse:
			ed.handleMouse(ev)
		case *tcell.EventInterrupt:
			// Redraw only
		}
	}
}

// onChange keeps the routed connections in step with the store.
func (ed *Editor) onChange(c diagram.Change) {
	if c.Kind != diagram.ChangeUpdated {
		ed.routes = route.RouteAll(ed.store.All())
		return
	}
	touched := make(map[string]bool, len(c.IDs))
	for _, id := range c.IDs {
		touched[id] = true
	}
	kept := ed.routes[:0]
	for _, rc := range ed.routes {
		if !touched[rc.OwnerID] && !touched[rc.TargetID] {
			kept = append(kept, rc)
		}
	}
	ed.routes = append(kept, route.Reroute(ed.store.All(), c.IDs)...)
}

func (ed *Editor) document() *diagram.Document {
	return &diagram.Document{Name: ed.name, Elements: ed.store.All()}
}

func (ed *Editor) showMessage(msg string, msgType MessageType) {
	ed.message = msg
	ed.messageType = msgType
	ed.messageFlashStart.Store(time.Now().UnixMilli())
	if ed.screen != nil {
		ed.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}
}

// Coordinates. Screen cells map to viewport units through the configured
// cell size; viewport units map to the canvas through offset and zoom.

func (ed *Editor) scale() float64 { return gesture.LevelScale(ed.level) }

// viewportPoint is the centre of screen cell (x, y) in viewport units.
func (ed *Editor) viewportPoint(x, y int) geom.Point {
	return geom.Point{
		X: (float64(x) + 0.5) * ed.config.CellWidth,
		Y: (float64(y) + 0.5) * ed.config.CellHeight,
	}
}

func (ed *Editor) canvasPoint(x, y int) geom.Point {
	return gesture.ToCanvas(ed.viewportPoint(x, y), ed.offset, ed.scale())
}

// cellAt returns the screen cell containing canvas point p.
func (ed *Editor) cellAt(p geom.Point) (int, int) {
	v := gesture.ToViewport(p, ed.offset, ed.scale())
	return int(math.Floor(v.X / ed.config.CellWidth)), int(math.Floor(v.Y / ed.config.CellHeight))
}

// viewportSize is the canvas area (screen minus the two bar rows).
func (ed *Editor) viewportSize() geom.Size {
	w, h := 80, 24
	if ed.screen != nil {
		w, h = ed.screen.Size()
	}
	return geom.Size{W: float64(w) * ed.config.CellWidth, H: float64(max(h-2, 1)) * ed.config.CellHeight}
}

// handleRadius is half a cell height in canvas units.
func (ed *Editor) handleRadius() float64 {
	return ed.config.CellHeight / 2 / ed.scale()
}

func (ed *Editor) zoomAt(x, y, steps int) {
	ctx := gesture.NewZoomContext(ed.level, ed.viewportPoint(x, y), ed.offset, ed.viewportSize())
	r := gesture.ZoomBy(ctx, steps)
	if !r.Changed {
		ed.showMessage(fmt.Sprintf("Zoom limit %d%%", r.Level), MsgInfo)
		return
	}
	ed.level, ed.offset = r.Level, r.Offset
}

func (ed *Editor) zoomToFit() {
	var rects []geom.Rect
	for _, e := range ed.store.All() {
		rects = append(rects, e.Bounds())
	}
	content, ok := geom.UnionAll(rects)
	if !ok {
		return
	}
	ctx := gesture.NewZoomContext(ed.level, geom.Point{}, ed.offset, ed.viewportSize())
	r := gesture.ZoomToFit(ctx, content, ed.config.CellHeight)
	ed.level, ed.offset = r.Level, r.Offset
}

func (ed *Editor) unlockedSelection() []*diagram.Element {
	var out []*diagram.Element
	for _, e := range ed.store.Selected() {
		if !e.Locked {
			out = append(out, e)
		}
	}
	return out
}

// handleAt finds a resize handle under p: the element's own handles for a
// single selection, the selection box handles for several.
func (ed *Editor) handleAt(sel []*diagram.Element, p geom.Point) (geom.Handle, bool) {
	if len(sel) == 0 {
		return geom.HandleTopLeft, false
	}
	rects := make([]geom.Rect, len(sel))
	for i, e := range sel {
		rects[i] = e.Bounds()
	}
	box, _ := geom.UnionAll(rects)
	return geom.HandleAt(box, p, ed.handleRadius())
}

func (ed *Editor) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	btn := ev.Buttons()

	if btn&(tcell.WheelUp|tcell.WheelDown) != 0 {
		if ed.drag.kind == dragNone {
			if btn&tcell.WheelUp != 0 {
				ed.zoomAt(x, y, 1)
			} else {
				ed.zoomAt(x, y, -1)
			}
		}
		return
	}

	pressed := btn & (tcell.Button1 | tcell.Button2 | tcell.Button3)
	prev := ed.buttons
	ed.buttons = pressed
	switch {
	case prev == 0 && pressed != 0:
		ed.beginDrag(x, y, pressed, ev.Modifiers())
	case prev != 0 && pressed != 0:
		ed.updateDrag(x, y, ev.Modifiers())
	case prev != 0 && pressed == 0:
		ed.endDrag(x, y, ev.Modifiers())
	default:
		if ed.mode == ModeConnect {
			ed.updatePreview(ed.canvasPoint(x, y))
		}
	}
}

func (ed *Editor) beginDrag(x, y int, btn tcell.ButtonMask, mod tcell.ModMask) {
	p := ed.canvasPoint(x, y)

	// Right or middle button pans
	if btn&(tcell.Button2|tcell.Button3) != 0 {
		ed.drag = dragState{kind: dragPan, pan: gesture.NewPanContext(ed.viewportPoint(x, y), ed.offset, ed.scale())}
		return
	}

	switch ed.mode {
	case ModeConnect:
		ed.finishConnect(p)
		return
	case ModeText:
		ed.commitText()
	case ModeInput:
		return
	}

	sel := ed.unlockedSelection()
	if h, ok := ed.handleAt(sel, p); ok {
		ed.beginResize(sel, p, h)
		return
	}

	hit := ed.store.HitTest(p)
	if hit == nil {
		ed.store.SelectOnly()
		return
	}
	if mod&tcell.ModShift != 0 {
		hit.Selected = !hit.Selected
		return
	}
	if !hit.Selected {
		ed.store.SelectOnly(hit.ID)
	}
	sel = ed.unlockedSelection()
	if len(sel) == 0 {
		ed.showMessage("Element is locked", MsgWarning)
		return
	}
	snaps := gesture.Snapshot(sel)
	ed.drag = dragState{kind: dragMove, snaps: snaps, move: gesture.NewMoveContext(p, snaps...)}
	ed.log.Debug("gesture begin", "kind", "move", "elements", len(snaps))
}

func (ed *Editor) beginResize(sel []*diagram.Element, p geom.Point, h geom.Handle) {
	snaps := gesture.Snapshot(sel)
	if len(sel) == 1 {
		e := sel[0]
		ed.drag = dragState{kind: dragResize, snaps: snaps, resize: gesture.NewResizeContext(e.ID, e.Bounds(), p, h)}
	} else {
		ctx, err := gesture.NewGroupResizeContext(snaps, p, h)
		if err != nil {
			ed.showMessage(err.Error(), MsgError)
			return
		}
		ed.drag = dragState{kind: dragGroup, snaps: snaps, group: ctx}
	}
	ed.log.Debug("gesture begin", "kind", ed.drag.kind.String(), "handle", h.String(), "elements", len(snaps))
}

func (ed *Editor) updateDrag(x, y int, mod tcell.ModMask) {
	p := ed.canvasPoint(x, y)
	opts := gesture.ResizeOptions{LockAspect: mod&tcell.ModShift != 0}

	switch ed.drag.kind {
	case dragMove:
		r := gesture.Move(ed.drag.move, p)
		ed.applyTransforms(r.Transforms)
	case dragResize:
		r := gesture.Resize(ed.drag.resize, p, opts)
		if r.Flipped {
			ed.drag.resize = r.UpdatedContext
			ed.log.Debug("resize flip", "handle", r.Handle.String(), "flip_x", r.FlipX, "flip_y", r.FlipY)
		}
		ed.applyTransforms([]gesture.ElementTransform{r.Transform()})
	case dragGroup:
		r := gesture.ResizeGroup(ed.drag.group, p, opts)
		if r.Flipped {
			ed.drag.group = r.UpdatedContext
			ed.log.Debug("group flip", "handle", r.Handle.String(), "flip_x", r.FlipX, "flip_y", r.FlipY)
		}
		ed.applyTransforms(r.Transforms)
	case dragPan:
		ed.offset = gesture.Pan(ed.drag.pan, ed.viewportPoint(x, y)).Offset
	}
}

func (ed *Editor) applyTransforms(ts []gesture.ElementTransform) {
	ed.drag.last = ts
	ed.store.ApplyBounds(gesture.BoundsMap(ts))
}

func (ed *Editor) endDrag(x, y int, mod tcell.ModMask) {
	ed.updateDrag(x, y, mod)
	d := ed.drag
	ed.drag = dragState{}
	if d.kind == dragNone || d.kind == dragPan {
		return
	}
	cmd := gesture.UndoCommand(d.kind.String(), d.snaps, d.last)
	if !cmd.Changed() {
		return
	}
	ed.history.Push(cmd)
	ed.modified = true
	ed.log.Info("gesture commit", "kind", d.kind.String(), "elements", len(cmd.Changes))
}

// cancelDrag puts everything back where the gesture found it.
func (ed *Editor) cancelDrag() {
	d := ed.drag
	ed.drag = dragState{}
	switch d.kind {
	case dragNone:
		return
	case dragPan:
		ed.offset = d.pan.StartOffset
	default:
		ed.store.ApplyBounds(gesture.RestoreMap(d.snaps))
	}
	ed.log.Info("gesture cancel", "kind", d.kind.String())
	ed.showMessage("Cancelled "+d.kind.String(), MsgInfo)
}

// nudge moves the selection by d canvas units as one undoable step.
func (ed *Editor) nudge(d geom.Point) {
	sel := ed.unlockedSelection()
	if len(sel) == 0 {
		return
	}
	snaps := gesture.Snapshot(sel)
	r := gesture.Move(gesture.NewMoveContext(geom.Point{}, snaps...), d)
	cmd := gesture.UndoCommand("move", snaps, r.Transforms)
	ed.history.Do(ed.store, cmd)
	ed.modified = true
}

// arrange lays the workflow out in layers as one undoable step. Locked
// elements keep their place.
func (ed *Editor) arrange() {
	res := layout.Arrange(ed.store.All(), layout.DefaultOptions())
	var movable []*diagram.Element
	var final []gesture.ElementTransform
	for _, e := range ed.store.All() {
		r, ok := res.Bounds[e.ID]
		if !ok || e.Locked {
			continue
		}
		movable = append(movable, e)
		final = append(final, gesture.ElementTransform{ID: e.ID, Bounds: r})
	}
	if len(final) == 0 {
		ed.showMessage("Nothing to arrange", MsgInfo)
		return
	}
	cmd := gesture.UndoCommand("arrange", gesture.Snapshot(movable), final)
	ed.history.Do(ed.store, cmd)
	ed.modified = true
	ed.zoomToFit()
	ed.log.Info("arrange", "layers", len(res.Layers), "elements", len(final), "crossings", res.Crossings)
	ed.showMessage(fmt.Sprintf("Arranged %d element(s) in %d layers", len(final), len(res.Layers)), MsgSuccess)
}

func (ed *Editor) startConnect() {
	sel := ed.store.Selected()
	if len(sel) != 1 {
		ed.showMessage("Select one element to connect from", MsgWarning)
		return
	}
	tail := sel[0]
	if !tail.Shape.Capabilities().Outgoing.Allows(len(tail.Connections) + 1) {
		ed.showMessage(fmt.Sprintf("%s takes no more outgoing arrows", tail.Shape), MsgError)
		return
	}
	ed.mode = ModeConnect
	ed.connectFrom = tail.ID
	ed.preview = route.Route{}
	ed.previewSnap = nil
}

func (ed *Editor) updatePreview(p geom.Point) {
	tail := ed.store.Find(ed.connectFrom)
	if tail == nil {
		ed.mode = ModeCanvas
		return
	}
	ed.connectPort = geom.NearestPort(tail.Bounds(), p)
	opts := route.SnapOptions{Radius: ed.config.SnapRadius / ed.scale(), ExcludeID: tail.ID}
	ed.preview, ed.previewSnap = route.ToPointer(tail.Bounds(), ed.connectPort, p, ed.store.All(), opts)
}

func (ed *Editor) finishConnect(p geom.Point) {
	ed.updatePreview(p)
	if ed.mode != ModeConnect {
		return
	}
	s := ed.previewSnap
	if s == nil {
		ed.showMessage("Click on a port to connect", MsgInfo)
		return
	}
	if !ed.store.CanConnect(ed.connectFrom, s.ElementID) {
		ed.showMessage("Connection not allowed", MsgError)
		return
	}
	ed.history.Do(ed.store, &diagram.ConnectCommand{
		OwnerID: ed.connectFrom,
		Connection: diagram.Connection{
			TargetID: s.ElementID,
			TailPort: ed.connectPort,
			HeadPort: s.Port,
		},
	})
	ed.modified = true
	ed.mode = ModeCanvas
	ed.preview = route.Route{}
	ed.previewSnap = nil
	ed.log.Info("connect", "from", ed.connectFrom, "to", s.ElementID, "port", s.Port.String())
	ed.showMessage("Connected", MsgSuccess)
}

func (ed *Editor) beginText() {
	sel := ed.unlockedSelection()
	if len(sel) != 1 {
		ed.showMessage("Select one element to edit its text", MsgWarning)
		return
	}
	ed.textCtx = gesture.NewTextEditContext(sel[0])
	ed.textFit = gesture.FitText(ed.textCtx, ed.textCtx.Text, ed.measurer)
	ed.mode = ModeText
}

// setText shows text live, growing the element to fit and shrinking it back
// no further than its size when editing began.
func (ed *Editor) setText(text string) {
	ed.textFit = gesture.FitText(ed.textCtx, text, ed.measurer)
	b := ed.textCtx.Bounds
	b.W, b.H = ed.textFit.RequiredWidth, ed.textFit.RequiredHeight
	ed.store.Mutate(ed.textCtx.ElementID, func(e *diagram.Element) {
		e.Text = text
		e.SetBounds(b)
	})
}

func (ed *Editor) commitText() {
	ed.mode = ModeCanvas
	e := ed.store.Find(ed.textCtx.ElementID)
	if e == nil || (e.Text == ed.textCtx.Text && e.Bounds() == ed.textCtx.Bounds) {
		return
	}
	ed.history.Push(&diagram.TextCommand{
		ID:           e.ID,
		Before:       ed.textCtx.Text,
		After:        e.Text,
		BeforeBounds: ed.textCtx.Bounds,
		AfterBounds:  e.Bounds(),
	})
	ed.modified = true
	ed.log.Info("text commit", "element", e.ID, "resized", e.Bounds() != ed.textCtx.Bounds)
}

func (ed *Editor) cancelText() {
	ed.mode = ModeCanvas
	ed.store.Mutate(ed.textCtx.ElementID, func(e *diagram.Element) {
		e.Text = ed.textCtx.Text
		e.SetBounds(ed.textCtx.Bounds)
	})
}

func (ed *Editor) addElement(kind diagram.ShapeKind) {
	vp := ed.viewportSize()
	c := gesture.ToCanvas(geom.Point{X: vp.W / 2, Y: vp.H / 2}, ed.offset, ed.scale())
	w, h := kind.DefaultSize()
	e := diagram.NewElement(kind, c.X-w/2, c.Y-h/2, "")
	ed.history.Do(ed.store, &diagram.AddCommand{Element: e, Index: ed.store.Len()})
	ed.store.SelectOnly(e.ID)
	ed.modified = true
}

func (ed *Editor) deleteSelection() {
	sel := ed.store.Selected()
	if len(sel) == 0 {
		return
	}
	batch := &diagram.BatchCommand{Label: "delete"}
	// Capture each removal against the store as it will be at that point.
	for _, e := range sel {
		cmd := diagram.NewRemoveCommand(ed.store, e.ID)
		cmd.Apply(ed.store)
		batch.Commands = append(batch.Commands, cmd)
	}
	ed.history.Push(batch)
	ed.modified = true
	ed.showMessage(fmt.Sprintf("Deleted %d element(s)", len(sel)), MsgSuccess)
}

func (ed *Editor) toggleLock() {
	for _, e := range ed.store.Selected() {
		ed.store.Mutate(e.ID, func(e *diagram.Element) { e.Locked = !e.Locked })
	}
	ed.modified = true
}

func (ed *Editor) cycleSelection() {
	all := ed.store.ByZ()
	if len(all) == 0 {
		return
	}
	next := 0
	if sel := ed.store.Selected(); len(sel) > 0 {
		for i, e := range all {
			if e.ID == sel[0].ID {
				next = (i + 1) % len(all)
			}
		}
	}
	ed.store.SelectOnly(all[next].ID)
}

func (ed *Editor) undo() {
	if cmd, ok := ed.history.Undo(ed.store); ok {
		ed.modified = true
		ed.showMessage("Undo "+cmd.Name(), MsgSuccess)
	} else {
		ed.showMessage("Nothing to undo", MsgInfo)
	}
}

func (ed *Editor) redo() {
	if cmd, ok := ed.history.Redo(ed.store); ok {
		ed.modified = true
		ed.showMessage("Redo "+cmd.Name(), MsgSuccess)
	} else {
		ed.showMessage("Nothing to redo", MsgInfo)
	}
}

func (ed *Editor) prompt(label, initial string, done func(string)) {
	ed.mode = ModeInput
	ed.inputPrompt = label
	ed.inputBuffer = initial
	ed.inputDone = done
}
