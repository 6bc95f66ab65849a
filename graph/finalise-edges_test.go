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
	"math/rand"
	"testing"
)

func snapshot(g *Graph) ([]Vertex, []OutEdge, []EdgeID) {
	vertices := make([]Vertex, len(g.vertices))
	copy(vertices, g.vertices)
	edges := make([]OutEdge, len(g.edges))
	copy(edges, g.edges)
	inEdges := make([]EdgeID, len(g.inEdges))
	copy(inEdges, g.inEdges)
	return vertices, edges, inEdges
}

func TestHairpinRemoval(t *testing.T) {
	g := newTestGraph(t, NewOptions(), 1000, 1000, 1000)
	first := dovetail(1, 2, 1000, 1000, 500)
	second := dovetail(1, 2, 1000, 1000, 300)
	if _, err := g.AddEdges([]Overlap{first, second, dovetail(2, 3, 1000, 1000, 400)}, false); err != nil {
		t.Fatal(err)
	}
	n, err := g.FinaliseEdges()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Error("FinaliseEdges hairpin edge count failed")
	}
	v1, _ := g.Vertex(1)
	if !v1.RemoveEdges || v1.DegreeOut != 0 || v1.DegreeIn != 0 {
		t.Error("hairpin vertex not isolated")
	}
	v2, _ := g.Vertex(2)
	if v2.RemoveEdges || v2.DegreeOut != 1 || v2.DegreeIn != 1 {
		t.Error("hairpin neighbour failed")
	}
	if eid, ok := g.FindEdge(1, 2); ok || eid != 0 {
		t.Error("FindEdge on removed edge failed")
	}
	if _, ok := g.FindEdge(2, 3); !ok {
		t.Error("FindEdge failed")
	}
	stats := g.Stats()
	if stats.HairpinVertices != 1 || stats.DuplicateEdges == 0 {
		t.Error("hairpin statistics failed")
	}
}

func TestCallerEdgeWinsOverInferred(t *testing.T) {
	g := newTestGraph(t, NewOptions(), 1000, 1000)
	forward := dovetail(1, 2, 1000, 1000, 500)
	backward := forward
	backward.FromSeqID, backward.ToSeqID = 2, 1
	backward.FromSeq5Ofs, backward.FromSeq3Ofs = forward.ToSeq5Ofs, forward.ToSeq3Ofs
	backward.ToSeq5Ofs, backward.ToSeq3Ofs = forward.FromSeq5Ofs, forward.FromSeq3Ofs
	backward.Score = 990
	if _, err := g.AddEdges([]Overlap{forward, backward}, false); err != nil {
		t.Fatal(err)
	}
	if n, err := g.FinaliseEdges(); err != nil || n != 2 {
		t.Fatal("FinaliseEdges failed", err)
	}
	eid, ok := g.FindEdge(2, 1)
	if !ok {
		t.Fatal("FindEdge failed")
	}
	if e, _ := g.Edge(eid); e.InferredBackEdge || e.Score != 990 {
		t.Error("caller edge replaced by inferred edge")
	}
	if v, _ := g.Vertex(1); v.RemoveEdges {
		t.Error("inferred duplicate flagged as hairpin")
	}
}

func TestNoDuplicateEdges(t *testing.T) {
	input := makeRandomOverlaps(rand.New(rand.NewSource(7)), 300, 1500)
	g := newTestGraph(t, Options{}, input.lengths...)
	// supply part of the reverse overlaps as well
	overlaps := append([]Overlap{}, input.overlaps...)
	for _, o := range input.overlaps[:500] {
		r := o
		r.FromSeqID, r.ToSeqID = o.ToSeqID, o.FromSeqID
		r.FromSeqLen, r.ToSeqLen = o.ToSeqLen, o.FromSeqLen
		r.FromSeq5Ofs, r.FromSeq3Ofs = o.ToSeq5Ofs, o.ToSeq3Ofs
		r.ToSeq5Ofs, r.ToSeq3Ofs = o.FromSeq5Ofs, o.FromSeq3Ofs
		overlaps = append(overlaps, r)
	}
	if _, err := g.AddEdges(overlaps, false); err != nil {
		t.Fatal(err)
	}
	n, err := g.FinaliseEdges()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2*len(input.overlaps) {
		t.Error("FinaliseEdges edge count failed")
	}
	for i := 1; i < len(g.edges); i++ {
		prev, cur := &g.edges[i-1], &g.edges[i]
		if !outEdgeLess(prev, cur) {
			t.Fatal("out-edges not strictly sorted")
		}
		if prev.FromVertexID == cur.FromVertexID && prev.ToVertexID == cur.ToVertexID {
			t.Fatal("duplicate edge after FinaliseEdges")
		}
	}
	for i := 1; i < len(g.inEdges); i++ {
		if inEdgeLess(&g.edges[g.inEdges[i]-1], &g.edges[g.inEdges[i-1]-1]) {
			t.Fatal("in-edge index not sorted")
		}
	}
	var out, in uint32
	for i := range g.vertices {
		out += g.vertices[i].DegreeOut
		in += g.vertices[i].DegreeIn
	}
	if int(out) != n || int(in) != n {
		t.Error("degrees do not add up")
	}
}

func TestFinaliseEdgesIdempotent(t *testing.T) {
	input := makeRandomOverlaps(rand.New(rand.NewSource(11)), 200, 800)
	g := newTestGraph(t, NewOptions(), input.lengths...)
	if _, err := g.AddEdges(input.overlaps, false); err != nil {
		t.Fatal(err)
	}
	n1, err := g.FinaliseEdges()
	if err != nil {
		t.Fatal(err)
	}
	vertices, edges, inEdges := snapshot(g)
	n2, err := g.FinaliseEdges()
	if err != nil {
		t.Fatal(err)
	}
	if n1 != n2 || len(edges) != len(g.edges) || len(inEdges) != len(g.inEdges) {
		t.Fatal("FinaliseEdges idempotence failed")
	}
	for i := range vertices {
		if vertices[i] != g.vertices[i] {
			t.Fatal("FinaliseEdges idempotence on vertices failed")
		}
	}
	for i := range edges {
		if edges[i] != g.edges[i] {
			t.Fatal("FinaliseEdges idempotence on edges failed")
		}
	}
	for i := range inEdges {
		if inEdges[i] != g.inEdges[i] {
			t.Fatal("FinaliseEdges idempotence on in-edges failed")
		}
	}
}

func TestMaxDegree(t *testing.T) {
	opts := NewOptions()
	opts.MaxDegree = 2
	g := newTestGraph(t, opts, 1000, 1000, 1000, 1000)
	for to := SequenceID(2); to <= 4; to++ {
		if _, err := g.AddEdge(dovetail(1, to, 1000, 1000, 500), false); err != nil {
			t.Fatal(err)
		}
	}
	if n, err := g.FinaliseEdges(); err != nil || n != 6 {
		t.Fatal("FinaliseEdges failed", err)
	}
	v1, _ := g.Vertex(1)
	if v1.DegreeOut != 2 || v1.DegreeIn != 2 {
		t.Error("MaxDegree cap failed")
	}
	if ids, _ := g.OutEdges(1); len(ids) != 2 {
		t.Error("OutEdges with MaxDegree failed")
	}
	stats := g.Stats()
	if stats.TruncatedOutEdges != 1 || stats.TruncatedInEdges != 1 {
		t.Error("MaxDegree statistics failed")
	}

	opts.MaxDegree = 0
	g = newTestGraph(t, opts, 1000, 1000, 1000, 1000)
	for to := SequenceID(2); to <= 4; to++ {
		if _, err := g.AddEdge(dovetail(1, to, 1000, 1000, 500), false); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := g.FinaliseEdges(); err != nil {
		t.Fatal(err)
	}
	if v1, _ := g.Vertex(1); v1.DegreeOut != 3 || v1.DegreeIn != 3 {
		t.Error("unbounded degree failed")
	}
}

func TestInOutEdges(t *testing.T) {
	g := newTestGraph(t, NewOptions(), 1000, 1000, 1000)
	if _, err := g.OutEdges(1); err == nil {
		t.Error("OutEdges before FinaliseEdges failed")
	}
	if _, err := g.AddEdges([]Overlap{dovetail(1, 2, 1000, 1000, 500), dovetail(3, 2, 1000, 1000, 500)}, false); err != nil {
		t.Fatal(err)
	}
	if _, err := g.FinaliseEdges(); err != nil {
		t.Fatal(err)
	}
	ids, err := g.InEdges(2)
	if err != nil || len(ids) != 2 {
		t.Fatal("InEdges failed")
	}
	e1, _ := g.Edge(ids[0])
	e2, _ := g.Edge(ids[1])
	if e1.FromVertexID != 1 || e2.FromVertexID != 3 || e1.ToVertexID != 2 || e2.ToVertexID != 2 {
		t.Error("InEdges order failed")
	}
	ids, _ = g.OutEdges(2)
	if len(ids) != 2 {
		t.Fatal("OutEdges failed")
	}
	for _, id := range ids {
		if e, _ := g.Edge(id); !e.InferredBackEdge {
			t.Error("inferred back edges failed")
		}
	}
	if _, err := g.OutEdges(4); err == nil {
		t.Error("OutEdges unknown vertex failed")
	}
}

func BenchmarkFinaliseEdges(b *testing.B) {
	input := makeRandomOverlaps(rand.New(rand.NewSource(3)), 20000, 100000)
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		g := New(NewOptions())
		for j, l := range input.lengths {
			_, _ = g.AddVertex(l, SequenceID(j+1))
		}
		_, _ = g.AddEdges(input.overlaps, false)
		b.StartTimer()
		_, _ = g.FinaliseEdges()
	}
}
