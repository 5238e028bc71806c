package gesture

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/ha1tch/flowcanvas/pkg/geom"
)

// GoFontMeasurer measures text set in Go Regular, the face the PNG renderer
// draws with. It is safe for concurrent use.
type GoFontMeasurer struct {
	mu    sync.Mutex
	font  *opentype.Font
	faces map[float64]font.Face
}

// NewGoFontMeasurer parses the embedded Go Regular font.
func NewGoFontMeasurer() (*GoFontMeasurer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &GoFontMeasurer{font: f, faces: make(map[float64]font.Face)}, nil
}

func (m *GoFontMeasurer) face(size float64) (font.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(m.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[size] = f
	return f, nil
}

// Measure returns the advance width of the widest line and the line height
// times the number of lines. An unusable size measures as zero.
func (m *GoFontMeasurer) Measure(text string, fontSize float64) geom.Size {
	if text == "" || fontSize <= 0 {
		return geom.Size{}
	}
	f, err := m.face(fontSize)
	if err != nil {
		return geom.Size{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	lines := strings.Split(text, "\n")
	var w float64
	for _, l := range lines {
		adv := font.MeasureString(f, l)
		if v := float64(adv) / 64; v > w {
			w = v
		}
	}
	h := float64(f.Metrics().Height) / 64 * float64(len(lines))
	return geom.Size{W: w, H: h}
}

// CellMeasurer measures text in terminal cells scaled to canvas units. The
// font size is ignored: every rune occupies its display width in cells.
type CellMeasurer struct {
	CellWidth  float64
	CellHeight float64
}

func (m CellMeasurer) Measure(text string, _ float64) geom.Size {
	if text == "" {
		return geom.Size{}
	}
	lines := strings.Split(text, "\n")
	cols := 0
	for _, l := range lines {
		if n := runewidth.StringWidth(l); n > cols {
			cols = n
		}
	}
	return geom.Size{W: float64(cols) * m.CellWidth, H: float64(len(lines)) * m.CellHeight}
}
