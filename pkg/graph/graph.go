// Package graph builds the circuit multigraph from the geometry index and
// reduces it by series/parallel contraction.
package graph

import (
	"fmt"
	"sort"

	"circuitsim/pkg/geometry"
	"circuitsim/pkg/schematic"
	"circuitsim/pkg/snapshot"
)

// Edge is one non-wire element between two nodes. Orientation follows the
// element's terminal order: N1 is terminal 1, N2 is terminal 2.
type Edge struct {
	Element *schematic.Element
	N1, N2  geometry.NodeID
}

// Graph is the undirected multigraph of one scene. Wires never appear as
// edges; they are consumed into node identity by the geometry index.
type Graph struct {
	Edges []Edge
}

// Build emits one edge per connectable element and reports dangling and
// shorted elements as diagnostics. Dangling detection runs to a fixpoint:
// removing a dead-end element can strand its neighbor in turn.
func Build(scene *schematic.Scene, idx *geometry.Index) (*Graph, []snapshot.Diagnostic) {
	var diags []snapshot.Diagnostic

	type cand struct {
		el     *schematic.Element
		n1, n2 geometry.NodeID
	}
	var cands []cand
	for i := range scene.Elements {
		el := &scene.Elements[i]
		n1 := idx.NodeOf(geometry.Terminal{Element: el.ID, Pin: 0})
		n2 := idx.NodeOf(geometry.Terminal{Element: el.ID, Pin: 1})
		if n1 == n2 {
			diags = append(diags, snapshot.Diagnostic{
				Kind:    snapshot.ShortedElement,
				Element: el.ID,
				Message: fmt.Sprintf("both terminals of %s map to node %s", el.ID, n1),
			})
			continue
		}
		cands = append(cands, cand{el: el, n1: n1, n2: n2})
	}

	// Prune dead ends until every kept terminal has a return path.
	removed := make(map[string]bool)
	for {
		degree := make(map[geometry.NodeID]int)
		for _, c := range cands {
			if removed[c.el.ID] {
				continue
			}
			degree[c.n1]++
			degree[c.n2]++
		}
		changed := false
		for _, c := range cands {
			if removed[c.el.ID] {
				continue
			}
			if degree[c.n1] < 2 || degree[c.n2] < 2 {
				removed[c.el.ID] = true
				diags = append(diags, snapshot.Diagnostic{
					Kind:    snapshot.DanglingTerminal,
					Element: c.el.ID,
					Message: fmt.Sprintf("%s has a terminal with no return path", c.el.ID),
				})
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	g := &Graph{}
	for _, c := range cands {
		if removed[c.el.ID] {
			continue
		}
		g.Edges = append(g.Edges, Edge{Element: c.el, N1: c.n1, N2: c.n2})
	}
	return g, diags
}

// AutoSeriesWires synthesizes a closed series ring when the editor placed
// elements without any wires: elements are chained left to right and the
// last connects back to the first.
func AutoSeriesWires(elements []schematic.Element) []schematic.Wire {
	if len(elements) < 2 {
		return nil
	}
	order := make([]int, len(elements))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := elements[order[a]].Terminals[0], elements[order[b]].Terminals[0]
		if pa.X != pb.X {
			return pa.X < pb.X
		}
		if pa.Y != pb.Y {
			return pa.Y < pb.Y
		}
		return elements[order[a]].ID < elements[order[b]].ID
	})

	wires := make([]schematic.Wire, 0, len(elements))
	for i := 0; i < len(elements); i++ {
		from := elements[order[i]]
		to := elements[order[(i+1)%len(elements)]]
		wires = append(wires, schematic.Wire{A: from.Terminals[1], B: to.Terminals[0]})
	}
	return wires
}

// Nodes returns the distinct node ids touched by the graph, sorted.
func (g *Graph) Nodes() []geometry.NodeID {
	set := make(map[geometry.NodeID]bool)
	for _, e := range g.Edges {
		set[e.N1] = true
		set[e.N2] = true
	}
	out := make([]geometry.NodeID, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Components partitions the graph's nodes into connected components and
// returns, per node, a component label.
func (g *Graph) Components() map[geometry.NodeID]int {
	label := make(map[geometry.NodeID]int)
	adj := make(map[geometry.NodeID][]geometry.NodeID)
	for _, e := range g.Edges {
		adj[e.N1] = append(adj[e.N1], e.N2)
		adj[e.N2] = append(adj[e.N2], e.N1)
	}
	next := 0
	for _, n := range g.Nodes() {
		if _, ok := label[n]; ok {
			continue
		}
		queue := []geometry.NodeID{n}
		label[n] = next
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, nb := range adj[cur] {
				if _, ok := label[nb]; !ok {
					label[nb] = next
					queue = append(queue, nb)
				}
			}
		}
		next++
	}
	return label
}

// Topology is the classifier's structural label for a graph.
type Topology int

const (
	Degenerate Topology = iota
	Series
	Parallel
	Mixed
	NonReducible
)

func (t Topology) String() string {
	switch t {
	case Series:
		return "series"
	case Parallel:
		return "parallel"
	case Mixed:
		return "mixed"
	case NonReducible:
		return "non-reducible"
	default:
		return "degenerate"
	}
}

// Classify inspects node degrees. Series is a simple cycle; parallel is
// exactly two nodes with every edge between them. Anything else is labeled
// Mixed here and demoted to NonReducible if contraction gets stuck.
func Classify(g *Graph) Topology {
	if len(g.Edges) == 0 {
		return Degenerate
	}
	nodes := g.Nodes()
	degree := make(map[geometry.NodeID]int)
	for _, e := range g.Edges {
		degree[e.N1]++
		degree[e.N2]++
	}

	if len(g.Edges) >= 2 && len(nodes) == 2 {
		return Parallel
	}

	allTwo := true
	for _, n := range nodes {
		if degree[n] != 2 {
			allTwo = false
			break
		}
	}
	if allTwo && len(g.Edges) == len(nodes) && componentCount(g) == 1 {
		return Series
	}
	return Mixed
}

func componentCount(g *Graph) int {
	labels := g.Components()
	seen := make(map[int]bool)
	for _, l := range labels {
		seen[l] = true
	}
	return len(seen)
}
