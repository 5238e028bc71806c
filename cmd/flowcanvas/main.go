// Command flowcanvas is a CLI tool for working with activity workflow diagrams.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ha1tch/flowcanvas/pkg/diagram"
	"github.com/ha1tch/flowcanvas/pkg/layout"
	"github.com/ha1tch/flowcanvas/pkg/render"
	"github.com/ha1tch/flowcanvas/pkg/route"
)

const usage = `flowcanvas - activity workflow diagram toolkit

Usage:
  flowcanvas <command> [options]

Commands:
  info       Show diagram information
  layout     Arrange elements in top-down layers
  new        Write a sample workflow to start from
  render     Render to SVG, PNG or DOT
  routes     Print the routed connection paths
  validate   Validate diagram file and report workflow warnings

Global options:
  -v         Verbose logging to stderr

Examples:
  flowcanvas new bringup.json
  flowcanvas render bringup.json -o bringup.svg
  flowcanvas render bringup.json -o bringup.png --scale 2
  flowcanvas render bringup.json -o bringup.dot
  flowcanvas layout bringup.json -o arranged.json
  flowcanvas validate bringup.json

Use "flowcanvas <command> -h" for more information about a command.
`

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

func main() {
	args := make([]string, 0, len(os.Args))
	for _, a := range os.Args[1:] {
		if a == "-v" || a == "--verbose" {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
			continue
		}
		args = append(args, a)
	}
	if len(args) < 1 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "info":
		cmdInfo(args)
	case "layout":
		cmdLayout(args)
	case "new":
		cmdNew(args)
	case "render":
		cmdRender(args)
	case "routes":
		cmdRoutes(args)
	case "validate":
		cmdValidate(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: flowcanvas info <input>")
		os.Exit(1)
	}

	doc := mustLoad(args[0])
	counts := make(map[diagram.ShapeKind]int)
	conns := 0
	for _, e := range doc.Elements {
		counts[e.Shape]++
		conns += len(e.Connections)
	}

	if doc.Name != "" {
		fmt.Printf("Name:        %s\n", doc.Name)
	}
	fmt.Printf("Elements:    %d\n", len(doc.Elements))
	for _, k := range diagram.ShapeKinds {
		if counts[k] > 0 {
			fmt.Printf("  %-11s %d\n", k.String()+":", counts[k])
		}
	}
	fmt.Printf("Connections: %d\n", conns)
	if len(doc.Elements) > 0 {
		rects := make([]string, 0, len(doc.Elements))
		for _, e := range doc.Elements {
			b := e.Bounds()
			rects = append(rects, fmt.Sprintf("%s@(%.0f,%.0f %.0fx%.0f)", label(e), b.X, b.Y, b.W, b.H))
		}
		fmt.Println()
		fmt.Printf("Layout:      %s\n", strings.Join(rects, "\n             "))
	}
}

func cmdNew(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: flowcanvas new <output.json>")
		os.Exit(1)
	}
	output := args[0]
	if _, err := os.Stat(output); err == nil {
		fmt.Fprintf(os.Stderr, "Refusing to overwrite %s\n", output)
		os.Exit(1)
	}
	if err := diagram.WriteFile(output, diagram.Sample()); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", output, err)
		os.Exit(1)
	}
	fmt.Printf("Written: %s\n", output)
}

func cmdRender(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: flowcanvas render <input> [-o output.svg|.png|.dot] [-t title] [--scale n] [--padding n]")
		os.Exit(1)
	}

	input := args[0]
	var output string
	opts := render.DefaultOptions()

	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "-o", "--output":
			if i+1 < len(args) {
				output = args[i+1]
				i++
			}
		case "-t", "--title":
			if i+1 < len(args) {
				opts.Title = args[i+1]
				i++
			}
		case "--scale":
			if i+1 < len(args) {
				fmt.Sscanf(args[i+1], "%g", &opts.Scale)
				i++
			}
		case "--padding":
			if i+1 < len(args) {
				fmt.Sscanf(args[i+1], "%g", &opts.Padding)
				i++
			}
		}
	}

	doc := mustLoad(input)
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".svg"
	}

	var err error
	switch ext := filepath.Ext(output); ext {
	case ".svg":
		err = os.WriteFile(output, []byte(render.SVG(doc, opts)), 0644)
	case ".dot", ".gv":
		err = os.WriteFile(output, []byte(render.DOT(doc)), 0644)
	case ".png":
		var f *os.File
		f, err = os.Create(output)
		if err == nil {
			err = render.PNG(doc, f, opts)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format: %s\n", ext)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", output, err)
		os.Exit(1)
	}
	logger.Debug("rendered", "input", input, "output", output, "scale", opts.Scale)
	fmt.Printf("Written: %s\n", output)
}

func cmdLayout(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: flowcanvas layout <input> [-o output.json] [--layer-gap n] [--node-gap n]")
		os.Exit(1)
	}

	input := args[0]
	output := input
	opts := layout.DefaultOptions()
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "-o", "--output":
			if i+1 < len(args) {
				output = args[i+1]
				i++
			}
		case "--layer-gap":
			if i+1 < len(args) {
				fmt.Sscanf(args[i+1], "%g", &opts.LayerGap)
				i++
			}
		case "--node-gap":
			if i+1 < len(args) {
				fmt.Sscanf(args[i+1], "%g", &opts.NodeGap)
				i++
			}
		}
	}

	doc := mustLoad(input)
	res := layout.Arrange(doc.Elements, opts)
	for _, e := range doc.Elements {
		if r, ok := res.Bounds[e.ID]; ok && !e.Locked {
			e.SetBounds(r)
		}
	}
	if err := diagram.WriteFile(output, doc); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", output, err)
		os.Exit(1)
	}
	logger.Debug("arranged", "input", input, "layers", len(res.Layers), "elements", len(res.Bounds), "crossings", res.Crossings)
	fmt.Printf("Arranged %d elements in %d layers: %s\n", len(res.Bounds), len(res.Layers), output)
}

func cmdRoutes(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: flowcanvas routes <input>")
		os.Exit(1)
	}

	doc := mustLoad(args[0])
	byID := make(map[string]*diagram.Element, len(doc.Elements))
	for _, e := range doc.Elements {
		byID[e.ID] = e
	}
	for _, c := range route.RouteAll(doc.Elements) {
		pts := make([]string, len(c.Route.Points))
		for i, p := range c.Route.Points {
			pts[i] = fmt.Sprintf("(%.1f,%.1f)", p.X, p.Y)
		}
		at := route.LabelAnchor(c.Route)
		line := fmt.Sprintf("%s -> %s: %s", label(byID[c.OwnerID]), label(byID[c.TargetID]), strings.Join(pts, " "))
		if c.Label != "" {
			line += fmt.Sprintf(" [%s at (%.1f,%.1f)]", c.Label, at.X, at.Y)
		}
		fmt.Println(line)
	}
}

func cmdValidate(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: flowcanvas validate <input> [--strict]")
		os.Exit(1)
	}

	input := args[0]
	strict := len(args) > 1 && args[1] == "--strict"
	doc := mustLoad(input)

	warnings := diagram.Analyse(doc.Elements)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if strict && len(warnings) > 0 {
		fmt.Fprintf(os.Stderr, "Validation failed: %d warnings\n", len(warnings))
		os.Exit(1)
	}

	fmt.Printf("%s: valid workflow with %d elements, %d warnings\n", input, len(doc.Elements), len(warnings))
}

func mustLoad(path string) *diagram.Document {
	doc, err := diagram.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", path, err)
		os.Exit(1)
	}
	logger.Debug("loaded diagram", "path", path, "elements", len(doc.Elements))
	return doc
}

func label(e *diagram.Element) string {
	if e == nil {
		return "?"
	}
	if e.Text != "" {
		return fmt.Sprintf("%q", strings.ReplaceAll(e.Text, "\n", " "))
	}
	id := e.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return e.Shape.String() + ":" + id
}
