// Package geometry maps element terminals and wire endpoints to shared
// electrical nodes by spatial proximity.
package geometry

import (
	"fmt"
	"sort"

	"circuitsim/pkg/schematic"
)

// NodeID names one electrical node. Ids are assigned in spatial order of
// each node's lowest (x, y) member point, so they depend on geometry only.
type NodeID string

// Terminal identifies one pin of an element.
type Terminal struct {
	Element string
	Pin     int
}

// Index is the point -> node mapping for one scene. Two points share a node
// when they lie within the merge tolerance of each other, directly or
// through a chain of wires.
type Index struct {
	nodeOf  map[Terminal]NodeID
	members map[NodeID][]Terminal
	points  map[NodeID]schematic.Point
	order   []NodeID
}

// BuildIndex computes the node index with union-find over every terminal
// point and wire endpoint. tol is the Euclidean merge distance.
func BuildIndex(elements []schematic.Element, wires []schematic.Wire, tol float64) *Index {
	type site struct {
		point    schematic.Point
		terminal Terminal // zero Element for wire endpoints
		isWire   bool
		wire     int
		end      int
	}

	var sites []site
	for i := range elements {
		for pin := 0; pin < 2; pin++ {
			sites = append(sites, site{
				point:    elements[i].Terminals[pin],
				terminal: Terminal{Element: elements[i].ID, Pin: pin},
			})
		}
	}
	wireStart := len(sites)
	for i := range wires {
		sites = append(sites, site{point: wires[i].A, isWire: true, wire: i, end: 0})
		sites = append(sites, site{point: wires[i].B, isWire: true, wire: i, end: 1})
	}

	parent := make([]int, len(sites))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	// Both endpoints of a wire are the same node.
	for i := range wires {
		union(wireStart+2*i, wireStart+2*i+1)
	}
	// Coincident points merge, transitively.
	for i := 0; i < len(sites); i++ {
		for j := i + 1; j < len(sites); j++ {
			if sites[i].point.DistanceTo(sites[j].point) <= tol {
				union(i, j)
			}
		}
	}

	// Representative point per class: the spatially lowest member.
	rep := make(map[int]schematic.Point)
	for i := range sites {
		r := find(i)
		p, ok := rep[r]
		if !ok || sites[i].point.Less(p) {
			rep[r] = sites[i].point
		}
	}

	roots := make([]int, 0, len(rep))
	for r := range rep {
		roots = append(roots, r)
	}
	sort.Slice(roots, func(a, b int) bool { return rep[roots[a]].Less(rep[roots[b]]) })

	idx := &Index{
		nodeOf:  make(map[Terminal]NodeID),
		members: make(map[NodeID][]Terminal),
		points:  make(map[NodeID]schematic.Point),
	}
	nodeByRoot := make(map[int]NodeID)
	for i, r := range roots {
		id := NodeID(fmt.Sprintf("n%d", i+1))
		nodeByRoot[r] = id
		idx.points[id] = rep[r]
		idx.order = append(idx.order, id)
	}

	for i := range sites {
		if sites[i].isWire {
			continue
		}
		id := nodeByRoot[find(i)]
		idx.nodeOf[sites[i].terminal] = id
		idx.members[id] = append(idx.members[id], sites[i].terminal)
	}
	for _, id := range idx.order {
		sort.Slice(idx.members[id], func(a, b int) bool {
			ma, mb := idx.members[id][a], idx.members[id][b]
			if ma.Element != mb.Element {
				return ma.Element < mb.Element
			}
			return ma.Pin < mb.Pin
		})
	}
	return idx
}

// NodeOf returns the node a terminal belongs to.
func (idx *Index) NodeOf(t Terminal) NodeID {
	return idx.nodeOf[t]
}

// Terminals returns the element terminals on a node, in stable order.
func (idx *Index) Terminals(id NodeID) []Terminal {
	return idx.members[id]
}

// Nodes lists every node id in spatial order.
func (idx *Index) Nodes() []NodeID {
	return idx.order
}

// Point returns the representative canvas point of a node.
func (idx *Index) Point(id NodeID) schematic.Point {
	return idx.points[id]
}
