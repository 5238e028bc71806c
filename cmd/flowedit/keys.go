package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"

	"github.com/ha1tch/flowcanvas/pkg/diagram"
	"github.com/ha1tch/flowcanvas/pkg/geom"
	"github.com/ha1tch/flowcanvas/pkg/render"
)

// handleKey processes a key event and reports whether the editor should quit.
func (ed *Editor) handleKey(ev *tcell.EventKey) bool {
	switch ed.mode {
	case ModeText:
		ed.handleTextKey(ev)
		return false
	case ModeInput:
		ed.handleInputKey(ev)
		return false
	}

	// Ctrl or Cmd on macOS, which some terminals report as Meta+rune
	mod := ev.Modifiers()
	isCtrlOrCmd := func(key tcell.Key, r rune) bool {
		if ev.Key() == key {
			return true
		}
		return mod&(tcell.ModMeta|tcell.ModAlt) != 0 && ev.Rune() == r
	}

	if !isCtrlOrCmd(tcell.KeyCtrlQ, 'q') && !(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
		ed.quitArmed = false
	}

	switch {
	case isCtrlOrCmd(tcell.KeyCtrlQ, 'q'), ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
		return ed.requestQuit()
	case isCtrlOrCmd(tcell.KeyCtrlZ, 'z'):
		ed.undo()
		return false
	case isCtrlOrCmd(tcell.KeyCtrlY, 'y'):
		ed.redo()
		return false
	case isCtrlOrCmd(tcell.KeyCtrlC, 'c'):
		ed.copyToClipboard()
		return false
	case isCtrlOrCmd(tcell.KeyCtrlV, 'v'):
		ed.pasteFromClipboard()
		return false
	case isCtrlOrCmd(tcell.KeyCtrlS, 's'):
		ed.save()
		return false
	case isCtrlOrCmd(tcell.KeyCtrlE, 'e'):
		ed.export()
		return false
	}

	// One cell in canvas units
	stepX := ed.config.CellWidth / ed.scale()
	stepY := ed.config.CellHeight / ed.scale()

	switch ev.Key() {
	case tcell.KeyEscape:
		switch {
		case ed.drag.kind != dragNone:
			ed.cancelDrag()
		case ed.mode == ModeConnect:
			ed.mode = ModeCanvas
			ed.showMessage("Connection cancelled", MsgInfo)
		default:
			ed.store.SelectOnly()
		}
	case tcell.KeyEnter:
		ed.beginText()
	case tcell.KeyTab:
		ed.cycleSelection()
	case tcell.KeyDelete, tcell.KeyBackspace, tcell.KeyBackspace2:
		ed.deleteSelection()
	case tcell.KeyUp:
		ed.arrow(geom.Point{Y: -stepY})
	case tcell.KeyDown:
		ed.arrow(geom.Point{Y: stepY})
	case tcell.KeyLeft:
		ed.arrow(geom.Point{X: -stepX})
	case tcell.KeyRight:
		ed.arrow(geom.Point{X: stepX})
	case tcell.KeyRune:
		ed.handleRune(ev.Rune())
	}
	return false
}

// arrow nudges the selection, or scrolls the view when nothing is selected.
func (ed *Editor) arrow(d geom.Point) {
	if len(ed.store.Selected()) > 0 {
		ed.nudge(d)
		return
	}
	ed.offset = ed.offset.Add(d)
}

func (ed *Editor) handleRune(r rune) {
	vp := ed.viewportSize()
	centreX := int(vp.W / ed.config.CellWidth / 2)
	centreY := int(vp.H / ed.config.CellHeight / 2)

	switch r {
	case '1', '2', '3', '4', '5', '6':
		ed.addElement(diagram.ShapeKinds[r-'1'])
	case 'a':
		ed.arrange()
	case 'c':
		ed.startConnect()
	case 'l':
		ed.toggleLock()
	case '+', '=':
		ed.zoomAt(centreX, centreY, 1)
	case '-':
		ed.zoomAt(centreX, centreY, -1)
	case '0':
		ed.zoomToFit()
	case 'w':
		warnings := diagram.Analyse(ed.store.All())
		if len(warnings) == 0 {
			ed.showMessage("No warnings", MsgSuccess)
		} else {
			ed.showMessage(fmt.Sprintf("%d warning(s): %s", len(warnings), warnings[0]), MsgWarning)
		}
	}
}

func (ed *Editor) handleTextKey(ev *tcell.EventKey) {
	e := ed.store.Find(ed.textCtx.ElementID)
	if e == nil {
		ed.mode = ModeCanvas
		return
	}
	cur := e.Text
	switch ev.Key() {
	case tcell.KeyEscape:
		ed.cancelText()
	case tcell.KeyEnter:
		ed.commitText()
	case tcell.KeyCtrlJ:
		ed.setText(cur + "\n")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if r := []rune(cur); len(r) > 0 {
			ed.setText(string(r[:len(r)-1]))
		}
	case tcell.KeyRune:
		ed.setText(cur + string(ev.Rune()))
	}
}

func (ed *Editor) handleInputKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		ed.mode = ModeCanvas
	case tcell.KeyEnter:
		ed.mode = ModeCanvas
		if ed.inputBuffer != "" && ed.inputDone != nil {
			ed.inputDone(ed.inputBuffer)
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if r := []rune(ed.inputBuffer); len(r) > 0 {
			ed.inputBuffer = string(r[:len(r)-1])
		}
	case tcell.KeyRune:
		ed.inputBuffer += string(ev.Rune())
	}
}

func (ed *Editor) requestQuit() bool {
	if ed.modified && !ed.quitArmed {
		ed.quitArmed = true
		ed.showMessage("Unsaved changes, press q again to quit", MsgWarning)
		return false
	}
	return true
}

func (ed *Editor) save() {
	if ed.filename == "" {
		ed.prompt("Save as: ", filepath.Join(ed.config.LastDir, "diagram.json"), ed.saveAs)
		return
	}
	ed.saveAs(ed.filename)
}

func (ed *Editor) saveAs(path string) {
	if err := diagram.WriteFile(path, ed.document()); err != nil {
		ed.showMessage("Save failed: "+err.Error(), MsgError)
		ed.log.Error("save failed", "path", path, "err", err)
		return
	}
	ed.filename = path
	ed.modified = false
	ed.rememberDir(path)
	ed.showMessage("Saved "+filepath.Base(path), MsgSuccess)
}

func (ed *Editor) export() {
	base := "diagram"
	if ed.filename != "" {
		base = strings.TrimSuffix(filepath.Base(ed.filename), filepath.Ext(ed.filename))
	}
	ed.prompt("Export to: ", filepath.Join(ed.config.LastDir, base+"."+ed.config.ExportFormat), ed.exportTo)
}

func (ed *Editor) exportTo(path string) {
	if err := exportFile(path, ed.document()); err != nil {
		ed.showMessage("Export failed: "+err.Error(), MsgError)
		ed.log.Error("export failed", "path", path, "err", err)
		return
	}
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."); ext != "" {
		ed.config.ExportFormat = ext
	}
	ed.rememberDir(path)
	ed.showMessage("Exported "+filepath.Base(path), MsgSuccess)
}

// exportFile renders doc in the format named by the file extension.
func exportFile(path string, doc *diagram.Document) error {
	opts := render.DefaultOptions()
	opts.Title = doc.Name

	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return os.WriteFile(path, []byte(render.SVG(doc, opts)), 0644)
	case ".dot", ".gv":
		return os.WriteFile(path, []byte(render.DOT(doc)), 0644)
	case ".png":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := render.PNG(doc, f, opts); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return fmt.Errorf("unknown export format %q", filepath.Ext(path))
}

func (ed *Editor) rememberDir(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	ed.config.LastDir = filepath.Dir(path)
	if err := SaveConfig(ed.config); err != nil {
		ed.log.Warn("config not saved", "err", err)
	}
}

func (ed *Editor) copyToClipboard() {
	sel := ed.store.Selected()
	if len(sel) == 0 {
		ed.showMessage("Nothing selected", MsgInfo)
		return
	}
	data, err := diagram.ToJSON(&diagram.Document{Elements: sel}, true)
	if err != nil {
		ed.showMessage("Clipboard error: "+err.Error(), MsgError)
		return
	}
	if err := clipboard.WriteAll(string(data)); err != nil {
		ed.showMessage("Clipboard error: "+err.Error(), MsgError)
		return
	}
	ed.showMessage(fmt.Sprintf("Copied %d element(s)", len(sel)), MsgSuccess)
}

func (ed *Editor) pasteFromClipboard() {
	text, err := clipboard.ReadAll()
	if err != nil {
		ed.showMessage("Clipboard error: "+err.Error(), MsgError)
		return
	}
	doc, err := diagram.ParseJSON([]byte(text))
	if err != nil || len(doc.Elements) == 0 {
		ed.showMessage("Clipboard does not hold diagram elements", MsgError)
		return
	}
	offset := geom.Point{X: 2 * ed.config.CellWidth / ed.scale(), Y: ed.config.CellHeight / ed.scale()}
	cmd := pasteCommand(doc.Elements, ed.store.Len(), offset)
	ed.history.Do(ed.store, cmd)

	ids := make([]string, len(cmd.Commands))
	for i, c := range cmd.Commands {
		ids[i] = c.(*diagram.AddCommand).Element.ID
	}
	ed.store.SelectOnly(ids...)
	ed.modified = true
	ed.showMessage(fmt.Sprintf("Pasted %d element(s)", len(ids)), MsgSuccess)
}

// pasteCommand gives pasted elements fresh ids, keeps only the connections
// among them and shifts them by offset.
func pasteCommand(elements []*diagram.Element, at int, offset geom.Point) *diagram.BatchCommand {
	ids := make(map[string]string, len(elements))
	for _, e := range elements {
		ids[e.ID] = uuid.NewString()
	}
	cmd := &diagram.BatchCommand{Label: "paste"}
	for i, e := range elements {
		c := e.Clone()
		c.ID = ids[e.ID]
		c.X += offset.X
		c.Y += offset.Y
		c.ZIndex = 0
		c.Selected = false
		c.Connections = nil
		for _, conn := range e.Connections {
			if to, ok := ids[conn.TargetID]; ok {
				conn.TargetID = to
				c.Connections = append(c.Connections, conn)
			}
		}
		cmd.Commands = append(cmd.Commands, &diagram.AddCommand{Element: c, Index: at + i})
	}
	return cmd
}
