// Package layout arranges workflow elements in top-down layers.
//
// The algorithm is a Sugiyama-style layered layout:
//  1. Layer assignment by breadth-first search from the initial nodes
//  2. Crossing reduction with the barycenter heuristic
//  3. Horizontal placement with median alignment and overlap removal
//
// Element sizes are preserved; only positions change. Text boxes take no
// part in the flow and are left where they are.
package layout

import (
	"sort"

	"github.com/ha1tch/flowcanvas/pkg/diagram"
	"github.com/ha1tch/flowcanvas/pkg/geom"
)

// Options controls spacing of the arranged diagram.
type Options struct {
	Origin   geom.Point // top-left of the arranged content
	LayerGap float64    // vertical space between layers
	NodeGap  float64    // horizontal space between neighbours in a layer
	Passes   int        // crossing-reduction sweeps
}

// DefaultOptions returns the spacing used by the editor and the CLI.
func DefaultOptions() Options {
	return Options{
		Origin:   geom.Point{X: 40, Y: 40},
		LayerGap: 48,
		NodeGap:  32,
		Passes:   4,
	}
}

// Result is an arrangement. Layers lists element ids top to bottom, each
// layer ordered left to right.
type Result struct {
	Layers    [][]string
	Bounds    map[string]geom.Rect
	Crossings int // between adjacent layers only
}

// graph is the connection structure among the arranged elements.
type graph struct {
	nodes    []string // element order
	index    map[string]int
	size     map[string]geom.Size
	forward  map[string][]string
	backward map[string][]string
	roots    []string
}

func buildGraph(elements []*diagram.Element) *graph {
	g := &graph{
		index:    make(map[string]int),
		size:     make(map[string]geom.Size),
		forward:  make(map[string][]string),
		backward: make(map[string][]string),
	}
	for _, e := range elements {
		if e.Shape == diagram.ShapeTextbox {
			continue
		}
		if _, dup := g.index[e.ID]; dup {
			continue
		}
		g.index[e.ID] = len(g.nodes)
		g.nodes = append(g.nodes, e.ID)
		g.size[e.ID] = geom.Size{W: e.Width, H: e.Height}
		if e.Shape == diagram.ShapeInitial {
			g.roots = append(g.roots, e.ID)
		}
	}

	seen := make(map[[2]string]bool)
	for _, e := range elements {
		if _, ok := g.index[e.ID]; !ok {
			continue
		}
		for _, c := range e.Connections {
			if _, ok := g.index[c.TargetID]; !ok || c.TargetID == e.ID {
				continue
			}
			key := [2]string{e.ID, c.TargetID}
			if seen[key] {
				continue
			}
			seen[key] = true
			g.forward[e.ID] = append(g.forward[e.ID], c.TargetID)
			g.backward[c.TargetID] = append(g.backward[c.TargetID], e.ID)
		}
	}

	if len(g.roots) == 0 {
		for _, id := range g.nodes {
			if len(g.backward[id]) == 0 {
				g.roots = append(g.roots, id)
			}
		}
	}
	return g
}

// Arrange computes layered positions for elements. The input is not
// modified.
func Arrange(elements []*diagram.Element, opts Options) Result {
	g := buildGraph(elements)
	if len(g.nodes) == 0 {
		return Result{Bounds: map[string]geom.Rect{}}
	}
	if opts.Passes <= 0 {
		opts.Passes = 1
	}

	layers := assignLayers(g)
	for i := 0; i < opts.Passes; i++ {
		layers = reduceCrossings(layers, g)
	}
	res := Result{Layers: layers, Bounds: assignPositions(layers, g, opts)}
	for l := 1; l < len(layers); l++ {
		res.Crossings += countCrossings(layers[l-1], layers[l], g)
	}
	return res
}

// assignLayers places each node one layer below its nearest root. Nodes no
// root reaches start a new component below everything placed so far.
func assignLayers(g *graph) [][]string {
	layerNum := make(map[string]int)
	maxLayer := -1

	bfs := func(starts []string, base int) {
		queue := make([]string, 0, len(starts))
		for _, s := range starts {
			if _, done := layerNum[s]; done {
				continue
			}
			layerNum[s] = base
			queue = append(queue, s)
		}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if layerNum[cur] > maxLayer {
				maxLayer = layerNum[cur]
			}
			for _, next := range g.forward[cur] {
				if _, done := layerNum[next]; !done {
					layerNum[next] = layerNum[cur] + 1
					queue = append(queue, next)
				}
			}
		}
	}

	bfs(g.roots, 0)
	for _, id := range g.nodes {
		if _, done := layerNum[id]; !done {
			bfs([]string{id}, maxLayer+1)
		}
	}

	layers := make([][]string, maxLayer+1)
	for _, id := range g.nodes {
		layers[layerNum[id]] = append(layers[layerNum[id]], id)
	}
	return layers
}

// reduceCrossings reorders nodes within layers using the barycenter of
// their neighbours: a forward sweep on predecessors, then a backward sweep
// on successors.
func reduceCrossings(layers [][]string, g *graph) [][]string {
	result := make([][]string, len(layers))
	for i := range layers {
		result[i] = append([]string(nil), layers[i]...)
	}
	if len(result) <= 1 {
		return result
	}

	pos := make(map[string]float64)
	for _, layer := range result {
		for i, id := range layer {
			pos[id] = float64(i)
		}
	}

	sweep := func(l int, neighbours map[string][]string) {
		bary := make(map[string]float64, len(result[l]))
		for _, id := range result[l] {
			sum, count := 0.0, 0
			for _, n := range neighbours[id] {
				if p, ok := pos[n]; ok {
					sum += p
					count++
				}
			}
			if count > 0 {
				bary[id] = sum / float64(count)
			} else {
				bary[id] = pos[id]
			}
		}
		sort.SliceStable(result[l], func(i, j int) bool {
			bi, bj := bary[result[l][i]], bary[result[l][j]]
			if bi != bj {
				return bi < bj
			}
			return g.index[result[l][i]] < g.index[result[l][j]]
		})
		for i, id := range result[l] {
			pos[id] = float64(i)
		}
	}

	for l := 1; l < len(result); l++ {
		sweep(l, g.backward)
	}
	for l := len(result) - 2; l >= 0; l-- {
		sweep(l, g.forward)
	}
	return result
}

// countCrossings counts edge crossings between two adjacent layers.
func countCrossings(upper, lower []string, g *graph) int {
	pos1 := make(map[string]int, len(upper))
	pos2 := make(map[string]int, len(lower))
	for i, id := range upper {
		pos1[id] = i
	}
	for i, id := range lower {
		pos2[id] = i
	}

	var edges [][2]int
	for _, from := range upper {
		for _, to := range g.forward[from] {
			if p, ok := pos2[to]; ok {
				edges = append(edges, [2]int{pos1[from], p})
			}
		}
	}

	crossings := 0
	for i := 0; i < len(edges); i++ {
		for j := i + 1; j < len(edges); j++ {
			e1, e2 := edges[i], edges[j]
			if (e1[0] < e2[0] && e1[1] > e2[1]) || (e1[0] > e2[0] && e1[1] < e2[1]) {
				crossings++
			}
		}
	}
	return crossings
}

// assignPositions centres each layer on a common axis, pulls nodes towards
// the median of their neighbours and pushes overlapping nodes apart.
func assignPositions(layers [][]string, g *graph, opts Options) map[string]geom.Rect {
	layerWidth := func(layer []string) float64 {
		w := 0.0
		for i, id := range layer {
			if i > 0 {
				w += opts.NodeGap
			}
			w += g.size[id].W
		}
		return w
	}

	widest := 0.0
	for _, layer := range layers {
		if w := layerWidth(layer); w > widest {
			widest = w
		}
	}
	axis := widest / 2

	// Centre x of every node
	xPos := make(map[string]float64)
	for _, layer := range layers {
		x := axis - layerWidth(layer)/2
		for _, id := range layer {
			xPos[id] = x + g.size[id].W/2
			x += g.size[id].W + opts.NodeGap
		}
	}

	pull := func(layer []string, neighbours map[string][]string, layerOf map[string]int, want int, weight float64) {
		for _, id := range layer {
			var xs []float64
			for _, n := range neighbours[id] {
				if layerOf[n] == want {
					xs = append(xs, xPos[n])
				}
			}
			if len(xs) == 0 {
				continue
			}
			sort.Float64s(xs)
			target := xs[len(xs)/2]
			if len(xs)%2 == 0 {
				target = (xs[len(xs)/2-1] + xs[len(xs)/2]) / 2
			}
			xPos[id] += weight * (target - xPos[id])
		}
		resolveOverlaps(layer, xPos, g.size, opts.NodeGap)
	}

	layerOf := make(map[string]int)
	for l, layer := range layers {
		for _, id := range layer {
			layerOf[id] = l
		}
	}
	for pass := 0; pass < 3; pass++ {
		for l := 1; l < len(layers); l++ {
			pull(layers[l], g.backward, layerOf, l-1, 0.5)
		}
		for l := len(layers) - 2; l >= 0; l-- {
			pull(layers[l], g.forward, layerOf, l+1, 0.3)
		}
	}

	// Shift everything so the leftmost edge sits on the origin
	minLeft := 0.0
	first := true
	for _, id := range g.nodes {
		if left := xPos[id] - g.size[id].W/2; first || left < minLeft {
			minLeft, first = left, false
		}
	}
	dx := opts.Origin.X - minLeft

	out := make(map[string]geom.Rect, len(g.nodes))
	y := opts.Origin.Y
	for _, layer := range layers {
		rowH := 0.0
		for _, id := range layer {
			if h := g.size[id].H; h > rowH {
				rowH = h
			}
		}
		for _, id := range layer {
			sz := g.size[id]
			out[id] = geom.Rect{
				X: xPos[id] - sz.W/2 + dx,
				Y: y + (rowH-sz.H)/2,
				W: sz.W,
				H: sz.H,
			}
		}
		y += rowH + opts.LayerGap
	}
	return out
}

// resolveOverlaps keeps the layer order and pushes each node right until it
// clears its left neighbour by gap.
func resolveOverlaps(layer []string, xPos map[string]float64, size map[string]geom.Size, gap float64) {
	for i := 1; i < len(layer); i++ {
		prev, curr := layer[i-1], layer[i]
		minGap := (size[prev].W+size[curr].W)/2 + gap
		if xPos[curr]-xPos[prev] < minGap {
			xPos[curr] = xPos[prev] + minGap
		}
	}
}
