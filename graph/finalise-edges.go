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

	"github.com/exascience/pargo/parallel"
	psort "github.com/exascience/pargo/sort"
)

// FinaliseEdges prepares the edges for analysis and returns the number of
// retained edges:
//
// - out-edges are sorted by FromVertexID, ToVertexID, InferredBackEdge;
//
// - of each group of edges with the same FromVertexID and ToVertexID only
// the first is retained, so caller-supplied edges win over inferred ones;
//
// - a vertex with two caller-supplied alignments onto the same other
// vertex is flagged RemoveEdges, and all edges from or to a flagged vertex
// are removed (ReduceEdges);
//
// - the in-edge index is sorted by ToVertexID, FromVertexID;
//
// - per vertex edge starts and degrees are computed, capped at
// Options.MaxDegree.
//
// FinaliseEdges is idempotent.
func (g *Graph) FinaliseEdges() (int, error) {
	if err := g.check(); err != nil {
		return 0, err
	}
	g.serialise.Lock()
	defer g.serialise.Unlock()

	// the vertex arena is addressed by VertexID, so it is always in
	// VertexID order; only the SequenceID index may need sorting
	if err := g.sortBySequenceID(); err != nil {
		return 0, g.fail(err)
	}
	g.verticesFinalised = true

	total := len(g.edges)
	psort.StableSort(outEdgeSorter(g.edges))
	duplicates := g.markDuplicateEdges()
	hairpinVertices := g.reduceEdges()
	g.compactEdges()
	removed := total - len(g.edges)
	hairpinEdges := removed - duplicates

	g.buildInEdgeIndex()
	truncatedOut, truncatedIn := g.computeDegrees()

	g.components, g.traceback, g.memo = nil, nil, nil
	g.componentsIdentified, g.pathsScored = false, false
	g.edgesFinalised = true

	g.updateStats(func(stats *Stats) {
		stats.DuplicateEdges += uint64(duplicates)
		stats.HairpinVertices += uint64(hairpinVertices)
		stats.HairpinEdges += uint64(hairpinEdges)
		stats.TruncatedOutEdges = uint64(truncatedOut)
		stats.TruncatedInEdges = uint64(truncatedIn)
		stats.RetainedEdges = uint64(len(g.edges))
	})

	log.Printf("Retained %v of %v edges (%v duplicate or inferred, %v on %v hairpin-suspect vertices).\n",
		len(g.edges), total, duplicates, hairpinEdges, hairpinVertices)
	if truncatedOut > 0 || truncatedIn > 0 {
		log.Printf("Warning: %v out-edges and %v in-edges ignored beyond the maximum degree of %v.\n",
			truncatedOut, truncatedIn, g.opts.MaxDegree)
	}
	return len(g.edges), nil
}

// markDuplicateEdges marks all but the first edge of each (From, To) group
// for removal. The edges must be sorted.
func (g *Graph) markDuplicateEdges() (duplicates int) {
	edges := g.edges
	for i := 1; i < len(edges); i++ {
		prev, cur := &edges[i-1], &edges[i]
		if prev.FromVertexID == cur.FromVertexID && prev.ToVertexID == cur.ToVertexID {
			cur.Remove = true
			duplicates++
		}
	}
	return duplicates
}

// reduceEdges flags hairpin-suspect vertices and marks every edge touching
// one of them for removal. It returns the number of newly flagged
// vertices. The edges must be sorted.
func (g *Graph) reduceEdges() (flagged int) {
	edges, vertices := g.edges, g.vertices
	for i := 1; i < len(edges); i++ {
		prev, cur := &edges[i-1], &edges[i]
		if prev.FromVertexID != cur.FromVertexID || prev.ToVertexID != cur.ToVertexID {
			continue
		}
		if prev.InferredBackEdge || cur.InferredBackEdge {
			continue
		}
		if v := &vertices[cur.FromVertexID-1]; !v.RemoveEdges {
			v.RemoveEdges = true
			flagged++
		}
	}
	for i := range edges {
		e := &edges[i]
		if vertices[e.FromVertexID-1].RemoveEdges || vertices[e.ToVertexID-1].RemoveEdges {
			e.Remove = true
		}
	}
	return flagged
}

func (g *Graph) compactEdges() {
	edges := g.edges[:0]
	for _, e := range g.edges {
		if !e.Remove {
			e.TravFwd, e.TravRev = false, false
			edges = append(edges, e)
		}
	}
	g.edges = edges
}

func (g *Graph) buildInEdgeIndex() {
	ids := g.inEdges[:0]
	for i := range g.edges {
		ids = append(ids, EdgeID(i+1))
	}
	psort.StableSort(inEdgeSorter{ids, g.edges})
	g.inEdges = ids
}

type truncation struct {
	out, in int
}

func (g *Graph) capDegree(n int) (degree uint32, truncated int) {
	if max := int(g.opts.MaxDegree); max > 0 && n > max {
		return uint32(max), n - max
	}
	return uint32(n), 0
}

// computeDegrees sets the edge starts and degrees of all vertices by binary
// search over the sorted out-edges and in-edge index.
func (g *Graph) computeDegrees() (truncatedOut, truncatedIn int) {
	edges, inEdges, vertices := g.edges, g.inEdges, g.vertices
	result := parallel.RangeReduce(0, len(vertices), g.opts.MaxThreads, func(low, high int) interface{} {
		var t truncation
		for i := low; i < high; i++ {
			v := &vertices[i]
			vid := v.VertexID
			v.OutEdgeStart, v.InEdgeStart, v.DegreeOut, v.DegreeIn = 0, 0, 0, 0

			lo := sort.Search(len(edges), func(j int) bool { return edges[j].FromVertexID >= vid })
			hi := lo + sort.Search(len(edges)-lo, func(j int) bool { return edges[lo+j].FromVertexID > vid })
			if hi > lo {
				var n int
				v.OutEdgeStart = uint32(lo + 1)
				v.DegreeOut, n = g.capDegree(hi - lo)
				t.out += n
			}

			lo = sort.Search(len(inEdges), func(j int) bool { return edges[inEdges[j]-1].ToVertexID >= vid })
			hi = lo + sort.Search(len(inEdges)-lo, func(j int) bool { return edges[inEdges[lo+j]-1].ToVertexID > vid })
			if hi > lo {
				var n int
				v.InEdgeStart = uint32(lo + 1)
				v.DegreeIn, n = g.capDegree(hi - lo)
				t.in += n
			}
		}
		return t
	}, func(x, y interface{}) interface{} {
		tx, ty := x.(truncation), y.(truncation)
		return truncation{tx.out + ty.out, tx.in + ty.in}
	})
	if result == nil {
		return 0, 0
	}
	t := result.(truncation)
	return t.out, t.in
}

func (g *Graph) requireEdgesFinalised() error {
	if !g.edgesFinalised {
		return fmt.Errorf("%w: FinaliseEdges has not been called", ErrPhase)
	}
	return nil
}

// outEdgeIDs must be called with the serialise lock held.
func (g *Graph) outEdgeIDs(vid VertexID) []EdgeID {
	v := &g.vertices[vid-1]
	if v.DegreeOut == 0 {
		return nil
	}
	ids := make([]EdgeID, v.DegreeOut)
	for i := range ids {
		ids[i] = EdgeID(v.OutEdgeStart + uint32(i))
	}
	return ids
}

// inEdgeIDs must be called with the serialise lock held.
func (g *Graph) inEdgeIDs(vid VertexID) []EdgeID {
	v := &g.vertices[vid-1]
	if v.DegreeIn == 0 {
		return nil
	}
	start := v.InEdgeStart - 1
	ids := make([]EdgeID, v.DegreeIn)
	copy(ids, g.inEdges[start:start+v.DegreeIn])
	return ids
}

// OutEdges returns the IDs of the out-edges of the given vertex that are
// considered for analysis, in (To, Inferred) order.
func (g *Graph) OutEdges(vid VertexID) ([]EdgeID, error) {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if err := g.requireEdgesFinalised(); err != nil {
		return nil, err
	}
	if vid == 0 || int(vid) > len(g.vertices) {
		return nil, fmt.Errorf("%w: no vertex %v", ErrInvalidReference, vid)
	}
	return g.outEdgeIDs(vid), nil
}

// InEdges returns the IDs of the in-edges of the given vertex that are
// considered for analysis, in FromVertexID order.
func (g *Graph) InEdges(vid VertexID) ([]EdgeID, error) {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if err := g.requireEdgesFinalised(); err != nil {
		return nil, err
	}
	if vid == 0 || int(vid) > len(g.vertices) {
		return nil, fmt.Errorf("%w: no vertex %v", ErrInvalidReference, vid)
	}
	return g.inEdgeIDs(vid), nil
}

// FindEdge returns the edge from one vertex to another, if any.
func (g *Graph) FindEdge(from, to VertexID) (EdgeID, bool) {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if !g.edgesFinalised {
		return 0, false
	}
	edges := g.edges
	i := sort.Search(len(edges), func(i int) bool {
		e := &edges[i]
		return e.FromVertexID > from || (e.FromVertexID == from && e.ToVertexID >= to)
	})
	if i < len(edges) && edges[i].FromVertexID == from && edges[i].ToVertexID == to {
		return EdgeID(i + 1), true
	}
	return 0, false
}
