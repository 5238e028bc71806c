package render

import (
	"fmt"
	"strings"

	"github.com/ha1tch/flowcanvas/pkg/diagram"
)

// DOT converts a diagram to Graphviz DOT format. Element positions are
// passed as pinned pos attributes (points, y up) for neato -n.
func DOT(doc *diagram.Document) string {
	var sb strings.Builder

	sb.WriteString("digraph workflow {\n")
	sb.WriteString("    node [fontname=\"Helvetica\", fontsize=11];\n")
	sb.WriteString("    edge [fontname=\"Helvetica\", fontsize=10];\n")
	sb.WriteString("\n")

	// Title
	if doc.Name != "" {
		sb.WriteString("    labelloc=\"t\";\n")
		sb.WriteString(fmt.Sprintf("    label=\"%s\";\n", escapeDOT(doc.Name)))
		sb.WriteString("\n")
	}

	exists := make(map[string]bool, len(doc.Elements))
	for _, e := range doc.Elements {
		exists[e.ID] = true
		c := e.Bounds().Center()
		attrs := []string{
			dotShape(e.Shape),
			fmt.Sprintf("label=\"%s\"", escapeDOT(e.Text)),
			fmt.Sprintf("pos=\"%.0f,%.0f!\"", c.X, -c.Y),
			fmt.Sprintf("width=%.2f, height=%.2f", e.Width/72, e.Height/72),
		}
		sb.WriteString(fmt.Sprintf("    \"%s\" [%s];\n", escapeDOT(e.ID), strings.Join(attrs, ", ")))
	}
	sb.WriteString("\n")

	for _, e := range doc.Elements {
		for _, c := range e.Connections {
			if !exists[c.TargetID] {
				continue
			}
			attrs := []string{
				fmt.Sprintf("tailport=%s", compass(c.TailPort.String())),
				fmt.Sprintf("headport=%s", compass(c.HeadPort.String())),
			}
			if c.Label != "" {
				attrs = append(attrs, fmt.Sprintf("label=\"%s\"", escapeDOT(c.Label)))
			}
			sb.WriteString(fmt.Sprintf("    \"%s\" -> \"%s\" [%s];\n",
				escapeDOT(e.ID), escapeDOT(c.TargetID), strings.Join(attrs, ", ")))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

func dotShape(k diagram.ShapeKind) string {
	switch k {
	case diagram.ShapeInitial:
		return "shape=circle, style=filled, fillcolor=black, fontcolor=white"
	case diagram.ShapeTerminal:
		return "shape=doublecircle, style=filled, fillcolor=white"
	case diagram.ShapeDecision:
		return "shape=diamond"
	case diagram.ShapePredefinedAction:
		return "shape=box, peripheries=2"
	case diagram.ShapeTextbox:
		return "shape=plaintext"
	default:
		return "shape=box, style=rounded"
	}
}

// compass maps a port name to a Graphviz compass point.
func compass(port string) string {
	switch port {
	case "top":
		return "n"
	case "right":
		return "e"
	case "bottom":
		return "s"
	default:
		return "w"
	}
}

func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
