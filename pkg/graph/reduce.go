package graph

import (
	"sort"

	"circuitsim/pkg/geometry"
	"circuitsim/pkg/schematic"
)

// Contraction labels a node of the reduction tree.
type Contraction int

const (
	ContractLeaf Contraction = iota
	ContractSeries
	ContractParallel
)

// Tree is one edge of the working graph during contraction. A leaf wraps a
// single element; series and parallel nodes wrap the edges they replaced.
// Orientation runs A -> B; EMF is the potential rise from A to B
// contributed by any sources folded into the edge, R the total resistance.
type Tree struct {
	Op       Contraction
	Element  *schematic.Element
	R        float64
	EMF      float64
	A, B     geometry.NodeID
	Children []*Tree
	// Reversed[i] is true when child i's own A->B orientation runs against
	// the parent's.
	Reversed []bool
}

// Leaf builds a reduction leaf for one graph edge. r is the element's DC
// resistance, emf its source contribution oriented terminal 1 -> 2.
func Leaf(e Edge, r, emf float64) *Tree {
	return &Tree{Op: ContractLeaf, Element: e.Element, R: r, EMF: emf, A: e.N1, B: e.N2}
}

// Reduction is the outcome of contracting a connected graph that contains
// the source. On success the graph has collapsed to the source edge and a
// single load edge in parallel between the source's two nodes.
type Reduction struct {
	OK     bool
	Source *Tree
	Load   *Tree
	// Stuck holds the remaining edges when contraction cannot continue,
	// for diagnostics.
	Stuck []*Tree
}

// Reduce repeatedly applies the two rewrite rules until the working graph
// is a source edge plus one load edge. Rule order does not change the final
// resistance; both rules are associative and commutative.
func Reduce(leaves []*Tree) *Reduction {
	edges := make([]*Tree, len(leaves))
	copy(edges, leaves)

	for {
		merged := contractParallel(edges)
		if merged == nil {
			merged = contractSeries(edges)
		}
		if merged == nil {
			break
		}
		edges = merged
	}

	return finish(edges)
}

// contractParallel collapses one group of parallel edges between the same
// node pair. Groups containing a source edge are left for the terminal
// form; parallel sources are not reducible.
func contractParallel(edges []*Tree) []*Tree {
	groups := make(map[[2]geometry.NodeID][]int)
	for i, e := range edges {
		key := pairKey(e.A, e.B)
		groups[key] = append(groups[key], i)
	}

	keys := make([][2]geometry.NodeID, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a][0] != keys[b][0] {
			return keys[a][0] < keys[b][0]
		}
		return keys[a][1] < keys[b][1]
	})

	for _, key := range keys {
		idxs := groups[key]
		if len(idxs) < 2 {
			continue
		}
		// Merge only the source-free members; a lone source edge stays
		// alongside the combined load.
		var members []int
		for _, i := range idxs {
			if edges[i].EMF == 0 {
				members = append(members, i)
			}
		}
		if len(members) < 2 {
			continue
		}

		first := edges[members[0]]
		parent := &Tree{Op: ContractParallel, A: first.A, B: first.B}
		conductance := 0.0
		for _, i := range members {
			child := edges[i]
			parent.Children = append(parent.Children, child)
			parent.Reversed = append(parent.Reversed, child.A != parent.A)
			if child.R > 0 {
				conductance += 1 / child.R
			}
		}
		if conductance > 0 {
			parent.R = 1 / conductance
		}

		return replace(edges, members, parent)
	}
	return nil
}

// contractSeries removes one degree-2 node, joining its two edges. Nodes
// whose two edges already form a parallel pair are skipped so the parallel
// rule (or the terminal form) can take them. Source-source junctions merge
// first and source-load junctions last, which keeps chained batteries
// reducible and leaves the source edge intact whenever a pure load merge
// is still available.
func contractSeries(edges []*Tree) []*Tree {
	incident := make(map[geometry.NodeID][]int)
	for i, e := range edges {
		incident[e.A] = append(incident[e.A], i)
		incident[e.B] = append(incident[e.B], i)
	}

	nodes := make([]geometry.NodeID, 0, len(incident))
	for n := range incident {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(a, b int) bool {
		ra, rb := seriesRank(edges, incident[nodes[a]]), seriesRank(edges, incident[nodes[b]])
		if ra != rb {
			return ra < rb
		}
		return nodes[a] < nodes[b]
	})

	for _, m := range nodes {
		idxs := incident[m]
		if len(idxs) != 2 || idxs[0] == idxs[1] {
			continue
		}
		x, y := edges[idxs[0]], edges[idxs[1]]
		a := otherEnd(x, m)
		b := otherEnd(y, m)
		if a == b {
			continue // parallel pair, not a series join
		}

		parent := &Tree{
			Op:       ContractSeries,
			A:        a,
			B:        b,
			R:        x.R + y.R,
			Children: []*Tree{x, y},
			// Path runs a -> m -> b; a child is reversed when its own
			// orientation points against that path.
			Reversed: []bool{x.B != m, y.A != m},
		}
		parent.EMF = signed(x.EMF, parent.Reversed[0]) + signed(y.EMF, parent.Reversed[1])

		return replace(edges, idxs, parent)
	}
	return nil
}

func finish(edges []*Tree) *Reduction {
	var sources, loads []*Tree
	for _, e := range edges {
		if e.EMF != 0 {
			sources = append(sources, e)
		} else {
			loads = append(loads, e)
		}
	}

	if len(sources) == 1 && len(loads) == 1 &&
		pairKey(sources[0].A, sources[0].B) == pairKey(loads[0].A, loads[0].B) {
		return &Reduction{OK: true, Source: sources[0], Load: loads[0]}
	}
	return &Reduction{Stuck: edges}
}

// seriesRank orders degree-2 junctions for contraction: both edges are
// sources, then both loads, then mixed.
func seriesRank(edges []*Tree, idxs []int) int {
	if len(idxs) != 2 {
		return 3
	}
	x, y := edges[idxs[0]], edges[idxs[1]]
	switch {
	case x.EMF != 0 && y.EMF != 0:
		return 0
	case x.EMF == 0 && y.EMF == 0:
		return 1
	default:
		return 2
	}
}

func pairKey(a, b geometry.NodeID) [2]geometry.NodeID {
	if b < a {
		a, b = b, a
	}
	return [2]geometry.NodeID{a, b}
}

func otherEnd(t *Tree, n geometry.NodeID) geometry.NodeID {
	if t.A == n {
		return t.B
	}
	return t.A
}

func signed(v float64, reversed bool) float64 {
	if reversed {
		return -v
	}
	return v
}

func replace(edges []*Tree, consumed []int, parent *Tree) []*Tree {
	drop := make(map[int]bool, len(consumed))
	for _, i := range consumed {
		drop[i] = true
	}
	out := make([]*Tree, 0, len(edges)-len(consumed)+1)
	for i, e := range edges {
		if !drop[i] {
			out = append(out, e)
		}
	}
	return append(out, parent)
}
