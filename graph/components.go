// pbscaffold: overlap-graph scaffolding of long sequencing reads.
// Copyright (c) 2017-2020 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elprep/blob/master/LICENSE.txt>.

package graph

import (
	"fmt"
	"log"
	"sort"

	"github.com/willf/bitset"
)

// Connectivity counts vertices by the number of their in- and out-edges.
// Vertices with more than one in-edge and more than one out-edge are
// counted both as MultiIn and MultiOut.
type Connectivity struct {
	Isolated int // no edges
	Start    int // no in-edges, one out-edge
	End      int // one in-edge, no out-edges
	Internal int // one in-edge, one out-edge
	MultiIn  int
	MultiOut int
}

// ClassifyVertices counts vertices by connectivity. It is only used for
// diagnostics.
func (g *Graph) ClassifyVertices() (c Connectivity, err error) {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if err = g.requireEdgesFinalised(); err != nil {
		return
	}
	for i := range g.vertices {
		v := &g.vertices[i]
		switch {
		case v.DegreeIn == 0 && v.DegreeOut == 0:
			c.Isolated++
		case v.DegreeIn == 0 && v.DegreeOut == 1:
			c.Start++
		case v.DegreeIn == 1 && v.DegreeOut == 0:
			c.End++
		case v.DegreeIn == 1 && v.DegreeOut == 1:
			c.Internal++
		default:
			if v.DegreeIn > 1 {
				c.MultiIn++
			}
			if v.DegreeOut > 1 {
				c.MultiOut++
			}
		}
	}
	return c, nil
}

type traversalFrame struct {
	vertex  VertexID
	nextOut uint32
	nextIn  uint32
}

// IdentifyDiscComponents partitions the vertices into disconnected
// components and returns the number of components. Edges are followed in
// both directions.
func (g *Graph) IdentifyDiscComponents() (int, error) {
	if err := g.check(); err != nil {
		return 0, err
	}

	if c, err := g.ClassifyVertices(); err == nil {
		log.Printf("Vertex connectivity: %v isolated, %v start, %v end, %v internal, %v multi-in, %v multi-out.\n",
			c.Isolated, c.Start, c.End, c.Internal, c.MultiIn, c.MultiOut)
	}

	g.serialise.Lock()
	defer g.serialise.Unlock()
	if err := g.requireEdgesFinalised(); err != nil {
		return 0, err
	}

	vertices, edges, inEdges := g.vertices, g.edges, g.inEdges
	for i := range vertices {
		vertices[i].ComponentID = 0
	}
	for i := range edges {
		edges[i].TravFwd, edges[i].TravRev = false, false
	}
	g.components = g.components[:0]
	g.traceback, g.memo = nil, nil
	g.pathsScored = false

	placed := bitset.New(uint(len(vertices) + 1))
	var stack []traversalFrame
	var singletons uint64

	for i := range vertices {
		seed := &vertices[i]
		if placed.Test(uint(seed.VertexID)) {
			continue
		}
		if uint64(len(g.components)) >= uint64(g.opts.MaxComponents) {
			return 0, g.fail(fmt.Errorf("%w: more than %v components", ErrCapacityExceeded, g.opts.MaxComponents))
		}
		cid := ComponentID(len(g.components) + 1)
		seed.ComponentID = cid
		placed.Set(uint(seed.VertexID))
		if seed.DegreeOut == 0 && seed.DegreeIn == 0 {
			singletons++
			g.components = append(g.components, Component{ComponentID: cid, VertexID: seed.VertexID, NumVertices: 1})
			continue
		}

		count := uint32(1)
		stack = append(stack[:0], traversalFrame{vertex: seed.VertexID})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			v := &vertices[top.vertex-1]
			var next VertexID
			switch {
			case top.nextOut < v.DegreeOut:
				e := &edges[v.OutEdgeStart-1+top.nextOut]
				top.nextOut++
				if e.TravFwd {
					continue
				}
				e.TravFwd = true
				next = e.ToVertexID
			case top.nextIn < v.DegreeIn:
				e := &edges[inEdges[v.InEdgeStart-1+top.nextIn]-1]
				top.nextIn++
				if e.TravRev {
					continue
				}
				e.TravRev = true
				next = e.FromVertexID
			default:
				stack = stack[:len(stack)-1]
				continue
			}
			switch n := &vertices[next-1]; n.ComponentID {
			case 0:
				n.ComponentID = cid
				placed.Set(uint(next))
				count++
				stack = append(stack, traversalFrame{vertex: next})
			case cid:
			default:
				return 0, g.fail(fmt.Errorf("%w: vertex %v reached from component %v already belongs to component %v",
					ErrCircularPath, next, cid, n.ComponentID))
			}
		}
		g.components = append(g.components, Component{ComponentID: cid, VertexID: seed.VertexID, NumVertices: count})
	}

	g.componentsIdentified = true
	g.updateStats(func(stats *Stats) {
		stats.SingletonComponents = singletons
	})

	log.Printf("Identified %v components, %v of them singletons.\n", len(g.components), singletons)
	if bySize := g.componentsBySize(); len(bySize) > 0 {
		log.Printf("Largest component %v has %v vertices.\n", bySize[0].ComponentID, bySize[0].NumVertices)
	}
	return len(g.components), nil
}

func (g *Graph) componentsBySize() []Component {
	result := make([]Component, len(g.components))
	copy(result, g.components)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].NumVertices > result[j].NumVertices
	})
	return result
}

// ComponentsBySize returns copies of all components, sorted by descending
// number of vertices. Components of equal size are in ComponentID order.
func (g *Graph) ComponentsBySize() []Component {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	return g.componentsBySize()
}

// NumComponents returns the number of components.
func (g *Graph) NumComponents() int {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	return len(g.components)
}

// Component returns a copy of the component with the given ID.
func (g *Graph) Component(cid ComponentID) (Component, bool) {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if cid == 0 || int(cid) > len(g.components) {
		return Component{}, false
	}
	return g.components[cid-1], true
}

// componentMembers returns the vertices of each component in VertexID
// order: the members of component c are members[starts[c-1]:starts[c]].
func (g *Graph) componentMembers() (members []VertexID, starts []uint32) {
	starts = make([]uint32, len(g.components)+1)
	for i := range g.vertices {
		starts[g.vertices[i].ComponentID]++
	}
	// starts[c] holds the size of component c; turn it into offsets
	var sum uint32
	for c := 1; c < len(starts); c++ {
		size := starts[c]
		starts[c-1] = sum
		sum += size
	}
	starts[len(starts)-1] = sum
	members = make([]VertexID, sum)
	next := make([]uint32, len(g.components))
	copy(next, starts)
	for i := range g.vertices {
		v := &g.vertices[i]
		c := v.ComponentID - 1
		members[next[c]] = v.VertexID
		next[c]++
	}
	return members, starts
}

// ComponentVertices returns the vertices of a component in VertexID order.
func (g *Graph) ComponentVertices(cid ComponentID) ([]VertexID, error) {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if !g.componentsIdentified {
		return nil, fmt.Errorf("%w: IdentifyDiscComponents has not been called", ErrPhase)
	}
	if cid == 0 || int(cid) > len(g.components) {
		return nil, fmt.Errorf("%w: no component %v", ErrInvalidReference, cid)
	}
	var result []VertexID
	for i := range g.vertices {
		if g.vertices[i].ComponentID == cid {
			result = append(result, g.vertices[i].VertexID)
		}
	}
	return result, nil
}
