package main

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/ha1tch/flowcanvas/pkg/diagram"
	"github.com/ha1tch/flowcanvas/pkg/geom"
	"github.com/ha1tch/flowcanvas/pkg/gesture"
	"github.com/ha1tch/flowcanvas/pkg/route"
)

// Styles
var (
	styleDefault    = tcell.StyleDefault
	styleAction     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleDecision   = tcell.StyleDefault.Foreground(tcell.ColorOrange)
	stylePredefined = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleNode       = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleTextbox    = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleLocked     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleSelected   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleText       = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleRoute      = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleRouteDrag  = tcell.StyleDefault.Foreground(tcell.NewRGBColor(200, 162, 200)) // Lilac
	styleLabel      = tcell.StyleDefault.Foreground(tcell.ColorOlive)
	styleHandle     = tcell.StyleDefault.Background(tcell.ColorBlue).Foreground(tcell.ColorWhite)
	styleStatus     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleMsgInfo    = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleMsgError   = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorNavy).Bold(true)
	styleMsgSuccess = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleMsgWarning = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorNavy)
	styleHelp       = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleInput      = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	styleBorder     = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

var (
	roundCorners  = [4]rune{'╭', '╮', '╰', '╯'}
	squareCorners = [4]rune{'┌', '┐', '└', '┘'}
)

func (ed *Editor) draw() {
	ed.screen.Clear()
	w, h := ed.screen.Size()
	ed.areaW, ed.areaH = w, h-2

	for _, e := range ed.store.ByZ() {
		ed.drawElement(e)
	}
	for _, c := range ed.routes {
		ed.drawRoute(c.Route, c.Label, styleRoute)
	}
	if ed.mode == ModeConnect && len(ed.preview.Points) > 0 {
		ed.drawRoute(ed.preview, "", styleRouteDrag)
	}
	ed.drawHandles()

	if ed.mode == ModeInput {
		ed.drawInputBox(w, h)
	}
	ed.drawStatusBar(w, h)
}

// put sets one cell, clipped to the canvas area.
func (ed *Editor) put(x, y int, r rune, style tcell.Style) {
	if x < 0 || y < 0 || x >= ed.areaW || y >= ed.areaH {
		return
	}
	ed.screen.SetContent(x, y, r, nil, style)
}

// cellRect returns the inclusive cell range covered by r.
func (ed *Editor) cellRect(r geom.Rect) (x0, y0, x1, y1 int) {
	x0, y0 = ed.cellAt(r.Origin())
	x1, y1 = ed.cellAt(geom.Point{X: r.Right() - 1e-6, Y: r.Bottom() - 1e-6})
	return x0, y0, max(x0, x1), max(y0, y1)
}

func shapeStyle(e *diagram.Element) tcell.Style {
	switch {
	case e.Selected:
		return styleSelected
	case e.Locked:
		return styleLocked
	}
	switch e.Shape {
	case diagram.ShapeInitial, diagram.ShapeTerminal:
		return styleNode
	case diagram.ShapeDecision:
		return styleDecision
	case diagram.ShapePredefinedAction:
		return stylePredefined
	case diagram.ShapeTextbox:
		return styleTextbox
	default:
		return styleAction
	}
}

func (ed *Editor) drawElement(e *diagram.Element) {
	x0, y0, x1, y1 := ed.cellRect(e.Bounds())
	st := shapeStyle(e)

	switch e.Shape {
	case diagram.ShapeInitial:
		ed.drawEllipse(x0, y0, x1, y1, false, st)
	case diagram.ShapeTerminal:
		ed.drawEllipse(x0, y0, x1, y1, true, st)
	case diagram.ShapeDecision:
		ed.drawDiamond(x0, y0, x1, y1, st)
	case diagram.ShapePredefinedAction:
		ed.drawFrame(x0, y0, x1, y1, squareCorners, st)
		if x1-x0 >= 4 {
			for y := y0 + 1; y < y1; y++ {
				ed.put(x0+1, y, '│', st)
				ed.put(x1-1, y, '│', st)
			}
		}
	case diagram.ShapeTextbox:
		ed.fill(x0, y0, x1, y1)
		if e.Selected {
			ed.drawDotted(x0, y0, x1, y1, st)
		}
	default:
		ed.drawFrame(x0, y0, x1, y1, roundCorners, st)
	}
	ed.drawText(e)
}

func (ed *Editor) fill(x0, y0, x1, y1 int) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			ed.put(x, y, ' ', styleDefault)
		}
	}
}

func (ed *Editor) drawFrame(x0, y0, x1, y1 int, c [4]rune, st tcell.Style) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			r := ' '
			switch {
			case y == y0 && x == x0:
				r = c[0]
			case y == y0 && x == x1:
				r = c[1]
			case y == y1 && x == x0:
				r = c[2]
			case y == y1 && x == x1:
				r = c[3]
			case y == y0 || y == y1:
				r = '─'
			case x == x0 || x == x1:
				r = '│'
			}
			ed.put(x, y, r, st)
		}
	}
}

func (ed *Editor) drawDotted(x0, y0, x1, y1 int, st tcell.Style) {
	for x := x0; x <= x1; x++ {
		ed.put(x, y0, '┄', st)
		ed.put(x, y1, '┄', st)
	}
	for y := y0 + 1; y < y1; y++ {
		ed.put(x0, y, '┆', st)
		ed.put(x1, y, '┆', st)
	}
}

// drawEllipse fills the ellipse inscribed in the cell range. A ring keeps a
// hollow band around a solid centre, the terminal node's bullseye.
func (ed *Editor) drawEllipse(x0, y0, x1, y1 int, ring bool, st tcell.Style) {
	cx, cy := float64(x0+x1)/2, float64(y0+y1)/2
	rx, ry := float64(x1-x0)/2+0.5, float64(y1-y0)/2+0.5
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx, dy := (float64(x)-cx)/rx, (float64(y)-cy)/ry
			d := dx*dx + dy*dy
			if d > 1 {
				continue
			}
			r := '●'
			if ring && d > 0.3 {
				r = '○'
			}
			ed.put(x, y, r, st)
		}
	}
}

func (ed *Editor) drawDiamond(x0, y0, x1, y1 int, st tcell.Style) {
	cx, cy := float64(x0+x1)/2, float64(y0+y1)/2
	halfW, halfH := float64(x1-x0)/2, float64(y1-y0)/2
	for y := y0; y <= y1; y++ {
		t := 1.0
		if halfH > 0 {
			t = 1 - math.Abs(float64(y)-cy)/halfH
		}
		l := int(math.Round(cx - t*halfW))
		r := int(math.Round(cx + t*halfW))
		for x := l + 1; x < r; x++ {
			ed.put(x, y, ' ', st)
		}
		upper, lower := float64(y) < cy, float64(y) > cy
		switch {
		case l == r && upper:
			ed.put(l, y, '^', st)
		case l == r && lower:
			ed.put(l, y, 'v', st)
		case l == r:
			ed.put(l, y, '◆', st)
		case upper:
			ed.put(l, y, '/', st)
			ed.put(r, y, '\\', st)
		case lower:
			ed.put(l, y, '\\', st)
			ed.put(r, y, '/', st)
		default:
			ed.put(l, y, '<', st)
			ed.put(r, y, '>', st)
		}
	}
}

// drawText lays the element text out inside the shape's text-safe area.
func (ed *Editor) drawText(e *diagram.Element) {
	text := e.Text
	if ed.mode == ModeText && ed.textCtx.ElementID == e.ID {
		text += "_"
	}
	if text == "" {
		return
	}
	x0, y0, x1, y1 := ed.cellRect(gesture.SafeRect(e.Shape, e.Bounds()))
	width := x1 - x0 + 1
	lines := strings.Split(text, "\n")
	y := y0 + max(0, (y1-y0+1-len(lines))/2)
	for _, line := range lines {
		if y > y1 {
			break
		}
		line = runewidth.Truncate(line, width, "…")
		lw := runewidth.StringWidth(line)
		x := x0 + (width-lw)/2
		switch e.Align {
		case diagram.AlignLeft:
			x = x0
		case diagram.AlignRight:
			x = x1 + 1 - lw
		}
		ed.drawCanvasString(x, y, line, styleText)
		y++
	}
}

func (ed *Editor) drawCanvasString(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		ed.put(x, y, r, style)
		x += runewidth.RuneWidth(r)
	}
}

func (ed *Editor) drawRoute(r route.Route, label string, st tcell.Style) {
	pts := r.Points
	if len(pts) < 2 {
		return
	}
	for i := 0; i+1 < len(pts); i++ {
		ax, ay := ed.cellAt(pts[i])
		bx, by := ed.cellAt(pts[i+1])
		ed.drawSegment(ax, ay, bx, by, st)
	}
	for i := 1; i+1 < len(pts); i++ {
		x, y := ed.cellAt(pts[i])
		ed.put(x, y, cornerRune(direction(pts[i-1], pts[i]), direction(pts[i], pts[i+1])), st)
	}

	// The tip sits on the target's border; the glyph goes one cell back.
	if tri, ok := route.Arrowhead(r, route.ArrowLength, route.ArrowWidth); ok {
		base := tri[1].Add(tri[2]).Scale(0.5)
		d := direction(base, tri[0])
		tx, ty := ed.cellAt(tri[0])
		sx, sy := d.step()
		ed.put(tx-sx, ty-sy, d.arrow(), st)
	}

	if label != "" {
		ax, ay := ed.cellAt(route.LabelAnchor(r))
		ed.drawCanvasString(ax-runewidth.StringWidth(label)/2, ay-1, label, styleLabel)
	}
}

func (ed *Editor) drawSegment(ax, ay, bx, by int, st tcell.Style) {
	if ay != by {
		for y := min(ay, by); y <= max(ay, by); y++ {
			ed.put(ax, y, '│', st)
		}
	}
	if ax != bx {
		for x := min(ax, bx); x <= max(ax, bx); x++ {
			ed.put(x, by, '─', st)
		}
	}
}

type heading int

const (
	headRight heading = iota
	headLeft
	headUp
	headDown
)

func direction(a, b geom.Point) heading {
	d := b.Sub(a)
	if math.Abs(d.X) >= math.Abs(d.Y) {
		if d.X >= 0 {
			return headRight
		}
		return headLeft
	}
	if d.Y >= 0 {
		return headDown
	}
	return headUp
}

func (h heading) step() (int, int) {
	switch h {
	case headRight:
		return 1, 0
	case headLeft:
		return -1, 0
	case headUp:
		return 0, -1
	default:
		return 0, 1
	}
}

func (h heading) arrow() rune {
	return [...]rune{'▶', '◀', '▲', '▼'}[h]
}

// cornerRune joins a segment travelling in to one travelling out.
func cornerRune(in, out heading) rune {
	switch {
	case in == headRight && out == headDown, in == headUp && out == headLeft:
		return '┐'
	case in == headRight && out == headUp, in == headDown && out == headLeft:
		return '┘'
	case in == headLeft && out == headDown, in == headUp && out == headRight:
		return '┌'
	case in == headLeft && out == headUp, in == headDown && out == headRight:
		return '└'
	case in == headUp || in == headDown:
		return '│'
	default:
		return '─'
	}
}

func (ed *Editor) drawHandles() {
	sel := ed.store.Selected()
	if len(sel) == 0 || ed.mode != ModeCanvas {
		return
	}
	rects := make([]geom.Rect, len(sel))
	for i, e := range sel {
		rects[i] = e.Bounds()
	}
	box, _ := geom.UnionAll(rects)
	if len(sel) > 1 {
		x0, y0, x1, y1 := ed.cellRect(box)
		ed.drawDotted(x0, y0, x1, y1, styleBorder)
	}
	for _, h := range geom.Handles {
		x, y := ed.cellAt(geom.HandlePosition(box, h))
		ed.put(x, y, '■', styleHandle)
	}
}

// flashInverted reports whether a flashing message shows inverted elapsed
// milliseconds after it appeared: two inversions of 125ms within 500ms.
func flashInverted(elapsed int64) bool {
	if elapsed < 0 || elapsed >= 500 {
		return false
	}
	phase := elapsed / 125
	return phase == 1 || phase == 3
}

func shouldFlash(t MessageType) bool {
	return t != MsgInfo
}

func (ed *Editor) drawStatusBar(w, h int) {
	y := h - 1

	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, y, ' ', nil, styleStatus)
	}

	// File info
	fileInfo := "[New]"
	if ed.filename != "" {
		fileInfo = filepath.Base(ed.filename)
	}
	if ed.modified {
		fileInfo += " *"
	}
	fileInfo += fmt.Sprintf("  %d%%", ed.level)
	ed.drawString(1, y, fileInfo, styleStatus)

	modeStr := ed.modeString()
	ed.drawString(w/2-runewidth.StringWidth(modeStr)/2, y, modeStr, styleStatus)

	if ed.message != "" {
		style := styleMsgInfo
		switch ed.messageType {
		case MsgError:
			style = styleMsgError
		case MsgSuccess:
			style = styleMsgSuccess
		case MsgWarning:
			style = styleMsgWarning
		}
		if shouldFlash(ed.messageType) && flashInverted(time.Now().UnixMilli()-ed.messageFlashStart.Load()) {
			style = style.Reverse(true)
		}
		ed.drawString(w-runewidth.StringWidth(ed.message)-2, y, ed.message, style)
	}

	// Help bar
	y = h - 2
	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, y, ' ', nil, styleDefault)
	}
	ed.drawString(1, y, ed.helpString(), styleHelp)
}

func (ed *Editor) drawInputBox(w, h int) {
	boxW := min(70, w-2)
	boxH := 3
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2

	ed.drawBox(boxX, boxY, boxW, boxH, styleInput)
	ed.drawString(boxX+2, boxY+1, ed.inputPrompt, styleInput)
	input := ed.inputBuffer + "_"
	room := boxW - 4 - runewidth.StringWidth(ed.inputPrompt)
	for runewidth.StringWidth(input) > room && room > 0 {
		_, size := utf8.DecodeRuneInString(input)
		input = input[size:]
	}
	ed.drawString(boxX+2+runewidth.StringWidth(ed.inputPrompt), boxY+1, input, styleInput)
}

func (ed *Editor) drawBox(x, y, w, h int, style tcell.Style) {
	ed.screen.SetContent(x, y, '┌', nil, styleBorder)
	ed.screen.SetContent(x+w-1, y, '┐', nil, styleBorder)
	ed.screen.SetContent(x, y+h-1, '└', nil, styleBorder)
	ed.screen.SetContent(x+w-1, y+h-1, '┘', nil, styleBorder)

	for i := x + 1; i < x+w-1; i++ {
		ed.screen.SetContent(i, y, '─', nil, styleBorder)
		ed.screen.SetContent(i, y+h-1, '─', nil, styleBorder)
	}
	for i := y + 1; i < y+h-1; i++ {
		ed.screen.SetContent(x, i, '│', nil, styleBorder)
		ed.screen.SetContent(x+w-1, i, '│', nil, styleBorder)
	}

	for row := y + 1; row < y+h-1; row++ {
		for col := x + 1; col < x+w-1; col++ {
			ed.screen.SetContent(col, row, ' ', nil, style)
		}
	}
}

func (ed *Editor) drawString(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		ed.screen.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}

func (ed *Editor) modeString() string {
	if ed.drag.kind != dragNone {
		return strings.ToUpper(ed.drag.kind.String())
	}
	switch ed.mode {
	case ModeText:
		if ed.textFit.NeedsResize {
			return "TEXT (growing)"
		}
		return "TEXT"
	case ModeConnect:
		if ed.previewSnap != nil {
			return "CONNECT → " + ed.previewSnap.Port.String()
		}
		return "CONNECT"
	case ModeInput:
		return "INPUT"
	default:
		return ""
	}
}

func (ed *Editor) helpString() string {
	switch ed.mode {
	case ModeText:
		return "Type text  Ctrl+J:Newline  Enter:Confirm  Esc:Cancel"
	case ModeConnect:
		return "Click a port to connect  Esc:Cancel"
	case ModeInput:
		return "Type path  Enter:Confirm  Esc:Cancel"
	default:
		return "1-6:Add  Drag:Move/Resize  Shift:Aspect  RMB:Pan  Wheel:Zoom  0:Fit  A:Arrange  Enter:Text  C:Connect  Del:Delete  ^Z/^Y:Undo/Redo  ^S:Save  ^E:Export  Q:Quit"
	}
}
