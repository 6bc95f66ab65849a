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
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/exascience/pargo/parallel"
)

// dovetail returns an overlap in which the last ovl bases of from align
// with the first ovl bases of to.
func dovetail(from, to SequenceID, fromLen, toLen, ovl uint32) Overlap {
	return Overlap{
		FromSeqID:     from,
		ToSeqID:       to,
		FromSeqLen:    fromLen,
		ToSeqLen:      toLen,
		Score:         950,
		ScoreAlignLen: ovl,
		FromSeq5Ofs:   fromLen - ovl,
		FromSeq3Ofs:   fromLen - 1,
		ToSeq5Ofs:     0,
		ToSeq3Ofs:     ovl - 1,
		Class:         Overlapping,
	}
}

func newTestGraph(t *testing.T, opts Options, lengths ...uint32) *Graph {
	g := New(opts)
	for i, l := range lengths {
		vid, err := g.AddVertex(l, SequenceID(i+1))
		if err != nil {
			t.Fatal(err)
		}
		if vid != VertexID(i+1) {
			t.Fatal("AddVertex returned non-dense VertexID")
		}
	}
	if n, err := g.FinaliseVertices(); err != nil || n != len(lengths) {
		t.Fatal("FinaliseVertices failed", err)
	}
	return g
}

type randomOverlaps struct {
	lengths  []uint32
	overlaps []Overlap
}

// makeRandomOverlaps generates sequences and overlaps between distinct
// pairs of sequences, each pair at most once.
func makeRandomOverlaps(r *rand.Rand, nseqs, noverlaps int) randomOverlaps {
	var result randomOverlaps
	for i := 0; i < nseqs; i++ {
		result.lengths = append(result.lengths, uint32(1000+r.Intn(4000)))
	}
	seen := make(map[[2]int]bool)
	for len(result.overlaps) < noverlaps {
		from, to := r.Intn(nseqs), r.Intn(nseqs)
		if from == to || seen[[2]int{from, to}] || seen[[2]int{to, from}] {
			continue
		}
		seen[[2]int{from, to}] = true
		fromLen, toLen := result.lengths[from], result.lengths[to]
		max := fromLen
		if toLen < max {
			max = toLen
		}
		ovl := uint32(100 + r.Intn(int(max/2)-100))
		o := dovetail(SequenceID(from+1), SequenceID(to+1), fromLen, toLen, ovl)
		o.Score = uint32(800 + r.Intn(200))
		if r.Intn(2) == 0 {
			o.Antisense = true
			o.ToSeq5Ofs, o.ToSeq3Ofs = toLen-ovl, toLen-1
		}
		result.overlaps = append(result.overlaps, o)
	}
	return result
}

func TestAddVertex(t *testing.T) {
	g := New(NewOptions())
	if _, err := g.AddVertex(0, 1); !errors.Is(err, ErrInvalidRange) {
		t.Error("AddVertex zero length failed")
	}
	if _, err := g.AddVertex(100, 2); !errors.Is(err, ErrTerminated) {
		t.Error("AddVertex after failure failed")
	}
	g.Reset()
	if g.Err() != nil {
		t.Error("Reset failed")
	}
	if vid, err := g.AddVertex(100, 2); err != nil || vid != 1 {
		t.Error("AddVertex after Reset failed")
	}
	if _, err := g.AddVertex(200, 2); err != nil {
		t.Error("AddVertex duplicate sequence should be accepted until finalisation")
	}
	if _, err := g.FinaliseVertices(); !errors.Is(err, ErrInvalidReference) {
		t.Error("FinaliseVertices duplicate sequence failed")
	}
}

func TestVertexCapacity(t *testing.T) {
	opts := NewOptions()
	opts.MaxVertices = 2
	g := New(opts)
	for i := 1; i <= 2; i++ {
		if _, err := g.AddVertex(1000, SequenceID(i)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := g.AddVertex(1000, 3); !errors.Is(err, ErrCapacityExceeded) {
		t.Error("MaxVertices failed")
	}
	if !errors.Is(g.Err(), ErrCapacityExceeded) {
		t.Error("MaxVertices sticky error failed")
	}
}

func TestVertexBySequenceID(t *testing.T) {
	g := New(NewOptions())
	for _, id := range []SequenceID{30, 10, 20} {
		if _, err := g.AddVertex(1000, id); err != nil {
			t.Fatal(err)
		}
	}
	if vid, ok := g.VertexBySequenceID(10); !ok || vid != 2 {
		t.Error("VertexBySequenceID 1 failed")
	}
	if vid, ok := g.VertexBySequenceID(30); !ok || vid != 1 {
		t.Error("VertexBySequenceID 2 failed")
	}
	if _, ok := g.VertexBySequenceID(40); ok {
		t.Error("VertexBySequenceID 3 failed")
	}
	if v, ok := g.Vertex(3); !ok || v.SequenceID != 20 {
		t.Error("Vertex lookup failed")
	}
}

func TestInvalidRangeIsSticky(t *testing.T) {
	g := newTestGraph(t, NewOptions(), 1000, 1000)
	o := dovetail(1, 2, 1000, 1000, 500)
	o.FromSeq3Ofs = 1000
	if _, err := g.AddEdge(o, false); !errors.Is(err, ErrInvalidRange) {
		t.Error("AddEdge invalid range failed")
	}
	if !errors.Is(g.Err(), ErrInvalidRange) {
		t.Error("terminate flag not set")
	}
	_, err := g.AddEdge(dovetail(1, 2, 1000, 1000, 500), false)
	if !errors.Is(err, ErrTerminated) || !errors.Is(err, ErrInvalidRange) {
		t.Error("AddEdge after failure failed")
	}
	if _, err := g.FinaliseEdges(); !errors.Is(err, ErrTerminated) {
		t.Error("FinaliseEdges after failure failed")
	}
}

func TestAddEdgeValidation(t *testing.T) {
	short := dovetail(1, 2, 1000, 1000, 50)
	if _, err := newTestGraph(t, NewOptions(), 1000, 1000).AddEdge(short, false); !errors.Is(err, ErrInvalidRange) {
		t.Error("MinAnchorLen failed")
	}
	wrongLen := dovetail(1, 2, 1000, 999, 500)
	if _, err := newTestGraph(t, NewOptions(), 1000, 1000).AddEdge(wrongLen, false); !errors.Is(err, ErrInvalidRange) {
		t.Error("sequence length check failed")
	}
	unknown := dovetail(1, 3, 1000, 1000, 500)
	if _, err := newTestGraph(t, NewOptions(), 1000, 1000).AddEdge(unknown, false); !errors.Is(err, ErrInvalidReference) {
		t.Error("unknown sequence failed")
	}
	self := dovetail(1, 1, 1000, 1000, 500)
	if _, err := newTestGraph(t, NewOptions(), 1000, 1000).AddEdge(self, false); !errors.Is(err, ErrInvalidReference) {
		t.Error("self overlap failed")
	}
	contained := dovetail(1, 2, 1000, 1000, 500)
	contained.Class = Contained
	g := newTestGraph(t, NewOptions(), 1000, 1000)
	if _, err := g.AddEdge(contained, false); !errors.Is(err, ErrInvalidClass) {
		t.Error("overlap class check failed")
	}
	if g.Err() == nil {
		t.Error("overlap class check not fatal")
	}
}

func TestAddEdgesFilters(t *testing.T) {
	opts := NewOptions()
	opts.MinScore = 900
	opts.SenseOnly = true
	g := newTestGraph(t, opts, 1000, 1000, 1000)
	low := dovetail(1, 2, 1000, 1000, 500)
	low.Score = 899
	anti := dovetail(2, 3, 1000, 1000, 500)
	anti.Antisense = true
	good := dovetail(1, 3, 1000, 1000, 500)
	n, err := g.AddEdges([]Overlap{low, anti, good}, false)
	if err != nil || n != 2 {
		t.Error("AddEdges filters failed")
	}
	stats := g.Stats()
	if stats.BelowMinScore != 1 || stats.AntisenseSkipped != 1 || stats.AcceptedOverlaps != 1 || stats.InferredEdges != 1 {
		t.Error("AddEdges statistics failed")
	}
	if n, err := g.AddEdges([]Overlap{dovetail(3, 2, 1000, 1000, 500)}, true); err != nil || n != 3 {
		t.Error("AddEdges both directions failed")
	}
}

func TestAddEdgePhase(t *testing.T) {
	g := newTestGraph(t, NewOptions(), 1000, 1000)
	if _, err := g.FinaliseEdges(); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddEdge(dovetail(1, 2, 1000, 1000, 500), false); !errors.Is(err, ErrPhase) {
		t.Error("AddEdge after FinaliseEdges failed")
	}
	if g.Err() != nil {
		t.Error("phase error should not terminate")
	}
}

type edgeKey struct {
	from, to SequenceID
	inferred bool
	score    uint32
}

func finalisedEdgeKeys(t *testing.T, g *Graph) []edgeKey {
	var keys []edgeKey
	for eid := EdgeID(1); int(eid) <= g.NumEdges(); eid++ {
		e, _ := g.Edge(eid)
		from, _ := g.Vertex(e.FromVertexID)
		to, _ := g.Vertex(e.ToVertexID)
		keys = append(keys, edgeKey{from.SequenceID, to.SequenceID, e.InferredBackEdge, e.Score})
	}
	sort.Slice(keys, func(i, j int) bool {
		ki, kj := keys[i], keys[j]
		if ki.from != kj.from {
			return ki.from < kj.from
		}
		if ki.to != kj.to {
			return ki.to < kj.to
		}
		return !ki.inferred && kj.inferred
	})
	return keys
}

func TestConcurrentLoad(t *testing.T) {
	input := makeRandomOverlaps(rand.New(rand.NewSource(42)), 500, 2000)

	sequential := newTestGraph(t, NewOptions(), input.lengths...)
	if _, err := sequential.AddEdges(input.overlaps, false); err != nil {
		t.Fatal(err)
	}
	if _, err := sequential.FinaliseEdges(); err != nil {
		t.Fatal(err)
	}

	concurrent := New(NewOptions())
	parallel.Range(0, len(input.lengths), 0, func(low, high int) {
		for i := low; i < high; i++ {
			if _, err := concurrent.AddVertex(input.lengths[i], SequenceID(i+1)); err != nil {
				t.Error(err)
			}
		}
	})
	if _, err := concurrent.FinaliseVertices(); err != nil {
		t.Fatal(err)
	}
	parallel.Range(0, len(input.overlaps), 0, func(low, high int) {
		for i := low; i < high; i += 16 {
			end := i + 16
			if end > high {
				end = high
			}
			if _, err := concurrent.AddEdges(input.overlaps[i:end], false); err != nil {
				t.Error(err)
			}
		}
	})
	if _, err := concurrent.FinaliseEdges(); err != nil {
		t.Fatal(err)
	}

	k1, k2 := finalisedEdgeKeys(t, sequential), finalisedEdgeKeys(t, concurrent)
	if len(k1) != len(k2) {
		t.Fatal("concurrent load edge count failed")
	}
	for i := range k1 {
		if k1[i] != k2[i] {
			t.Error("concurrent load edges failed")
			break
		}
	}
	if sequential.Stats().AcceptedOverlaps != concurrent.Stats().AcceptedOverlaps {
		t.Error("concurrent load statistics failed")
	}
}

func TestGrowLen(t *testing.T) {
	if n, err := growLen(10, 0x1000, 1<<20); err != nil || n != 0x1000 {
		t.Error("growLen initial failed")
	}
	if n, err := growLen(100000, 0x1000, 1<<20); err != nil || n != 130000 {
		t.Error("growLen growth failed")
	}
	if n, err := growLen(100000, 0x1000, 110000); err != nil || n != 110000 {
		t.Error("growLen limit failed")
	}
	if _, err := growLen(100000, 0x1000, 1000); !errors.Is(err, ErrOutOfMemory) {
		t.Error("growLen overflow failed")
	}
}

func TestAddEdgesWaitingForFailedBatch(t *testing.T) {
	g := newTestGraph(t, NewOptions(), 1000, 1000)
	// hold the arena lock so that the batch passes its first check and
	// waits, then terminate the graph as a failing concurrent batch would
	g.serialise.Lock()
	done := make(chan error)
	go func() {
		_, err := g.AddEdges([]Overlap{dovetail(1, 2, 1000, 1000, 500)}, false)
		done <- err
	}()
	time.Sleep(50 * time.Millisecond)
	g.fail(ErrInvalidRange)
	g.serialise.Unlock()
	if err := <-done; !errors.Is(err, ErrTerminated) || !errors.Is(err, ErrInvalidRange) {
		t.Error("waiting batch after failure failed")
	}
	if g.NumEdges() != 0 {
		t.Error("edges appended after failure")
	}
	if _, err := g.AddVertex(1000, 3); !errors.Is(err, ErrTerminated) {
		t.Error("AddVertex after failure failed")
	}
}
