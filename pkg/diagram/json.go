package diagram

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ha1tch/flowcanvas/pkg/geom"
)

// Document is the on-disk form of a diagram.
type Document struct {
	Name     string     `json:"name,omitempty"`
	Elements []*Element `json:"elements"`
}

// ParseJSON parses a diagram document and validates it.
func ParseJSON(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := Validate(doc.Elements); err != nil {
		return nil, fmt.Errorf("invalid diagram: %w", err)
	}
	for _, e := range doc.Elements {
		if e.Opacity == 0 {
			e.Opacity = 1
		}
		if e.FontSize == 0 {
			e.FontSize = 14
		}
	}
	return &doc, nil
}

// ToJSON encodes a document.
func ToJSON(doc *Document, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

// ReadFile loads a diagram document from path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// WriteFile saves doc to path as indented JSON.
func WriteFile(path string, doc *Document) error {
	data, err := ToJSON(doc, true)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// Sample returns a small decision workflow used by "flowcanvas new" and the
// editor's empty canvas.
func Sample() *Document {
	start := NewElement(ShapeInitial, 80, 40, "")
	check := NewElement(ShapeDecision, 40, 140, "Device online?")
	configure := NewElement(ShapePredefinedAction, 260, 150, "Configure unit")
	retry := NewElement(ShapeAction, 30, 290, "Power cycle")
	done := NewElement(ShapeTerminal, 320, 300, "")

	start.Connections = []Connection{{TargetID: check.ID, TailPort: geom.PortBottom, HeadPort: geom.PortTop}}
	check.Connections = []Connection{
		{Label: "yes", TargetID: configure.ID, TailPort: geom.PortRight, HeadPort: geom.PortLeft},
		{Label: "no", TargetID: retry.ID, TailPort: geom.PortBottom, HeadPort: geom.PortTop},
	}
	configure.Connections = []Connection{{TargetID: done.ID, TailPort: geom.PortBottom, HeadPort: geom.PortTop}}
	retry.Connections = []Connection{{TargetID: check.ID, TailPort: geom.PortLeft, HeadPort: geom.PortLeft}}

	return &Document{
		Name:     "Hardware bring-up",
		Elements: []*Element{start, check, configure, retry, done},
	}
}
