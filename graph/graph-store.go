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
	"sort"
	"sync"

	psort "github.com/exascience/pargo/sort"
)

const (
	initialVertexAlloc = 0x1000
	initialEdgeAlloc   = 0x4000

	// arenas grow by this percentage over the currently required size
	arenaGrowthPercent = 30

	maxArenaLen = int(^uint32(0) >> 1)
)

// Graph is an overlap assembly graph. It is safe for multiple goroutines
// to call AddVertex, AddEdge and AddEdges concurrently. All other
// operations are expected to be called from a single goroutine, in the
// order documented in the package comment.
type Graph struct {
	opts  Options
	runID string

	// serialise guards the structure of the arenas, including growth and
	// sorting. fast guards the statistics and the failure state.
	serialise sync.Mutex
	fast      sync.Mutex

	failed error
	stats  Stats

	vertices    []Vertex
	bySeqID     []VertexID
	seqIDSorted bool

	edges   []OutEdge
	inEdges []EdgeID

	verticesFinalised    bool
	edgesFinalised       bool
	componentsIdentified bool
	pathsScored          bool

	components []Component
	traceback  []TracebackEntry
	memo       []pathMemo
}

// New creates an empty Graph.
func New(opts Options) *Graph {
	opts.setDefaults()
	return &Graph{opts: opts, runID: newRunID()}
}

// Options returns the options the graph was created with, with defaults
// filled in.
func (g *Graph) Options() Options {
	return g.opts
}

// RunID returns a unique identifier for this graph, used to tag exported
// files.
func (g *Graph) RunID() string {
	return g.runID
}

// Reset releases all vertices, edges, components and paths, and clears a
// previous failure. The options are retained.
func (g *Graph) Reset() {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	g.fast.Lock()
	defer g.fast.Unlock()
	g.runID = newRunID()
	g.failed = nil
	g.stats = Stats{}
	g.vertices, g.bySeqID, g.seqIDSorted = nil, nil, false
	g.edges, g.inEdges = nil, nil
	g.verticesFinalised, g.edgesFinalised = false, false
	g.componentsIdentified, g.pathsScored = false, false
	g.components, g.traceback, g.memo = nil, nil, nil
}

// Err returns the error that terminated graph construction, if any.
func (g *Graph) Err() error {
	g.fast.Lock()
	defer g.fast.Unlock()
	return g.failed
}

func (g *Graph) check() error {
	g.fast.Lock()
	defer g.fast.Unlock()
	if g.failed != nil {
		return terminatedError{g.failed}
	}
	return nil
}

// fail records err as the terminating error, unless an earlier error was
// already recorded. It returns err.
func (g *Graph) fail(err error) error {
	g.fast.Lock()
	defer g.fast.Unlock()
	if g.failed == nil {
		g.failed = err
	}
	return err
}

// Stats returns a snapshot of the load and finalisation counters.
func (g *Graph) Stats() Stats {
	g.fast.Lock()
	defer g.fast.Unlock()
	return g.stats
}

func (g *Graph) updateStats(f func(stats *Stats)) {
	g.fast.Lock()
	defer g.fast.Unlock()
	f(&g.stats)
}

// growLen computes a new arena capacity that can hold at least need
// elements.
func growLen(need, initial int, limit uint32) (int, error) {
	if need > maxArenaLen || need < 0 {
		return 0, ErrOutOfMemory
	}
	newLen := need + need*arenaGrowthPercent/100
	if newLen < initial {
		newLen = initial
	}
	if l := int(limit); newLen > l {
		newLen = l
	}
	if newLen < need {
		return 0, ErrOutOfMemory
	}
	return newLen, nil
}

func (g *Graph) reserveVertices(n int) error {
	need := len(g.vertices) + n
	if need <= cap(g.vertices) {
		return nil
	}
	newCap, err := growLen(need, initialVertexAlloc, g.opts.MaxVertices)
	if err != nil {
		return err
	}
	vertices := make([]Vertex, len(g.vertices), newCap)
	copy(vertices, g.vertices)
	g.vertices = vertices
	index := make([]VertexID, len(g.bySeqID), newCap)
	copy(index, g.bySeqID)
	g.bySeqID = index
	return nil
}

func (g *Graph) reserveEdges(n int) error {
	need := len(g.edges) + n
	if need <= cap(g.edges) {
		return nil
	}
	newCap, err := growLen(need, initialEdgeAlloc, g.opts.MaxEdges)
	if err != nil {
		return err
	}
	edges := make([]OutEdge, len(g.edges), newCap)
	copy(edges, g.edges)
	g.edges = edges
	return nil
}

// AddVertex adds a vertex for a sequence of the given length and returns
// its VertexID.
func (g *Graph) AddVertex(seqLen uint32, id SequenceID) (VertexID, error) {
	if err := g.check(); err != nil {
		return 0, err
	}
	if seqLen == 0 {
		return 0, g.fail(fmt.Errorf("%w: sequence %v has length 0", ErrInvalidRange, id))
	}
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if err := g.check(); err != nil {
		return 0, err
	}
	if g.edgesFinalised {
		return 0, fmt.Errorf("%w: AddVertex after FinaliseEdges", ErrPhase)
	}
	if uint64(len(g.vertices)) >= uint64(g.opts.MaxVertices) {
		return 0, g.fail(fmt.Errorf("%w: more than %v vertices", ErrCapacityExceeded, g.opts.MaxVertices))
	}
	if err := g.reserveVertices(1); err != nil {
		return 0, g.fail(fmt.Errorf("%w: %v vertices", err, len(g.vertices)+1))
	}
	vid := VertexID(len(g.vertices) + 1)
	g.vertices = append(g.vertices, Vertex{
		VertexID:   vid,
		SequenceID: id,
		SeqLen:     seqLen,
	})
	g.bySeqID = append(g.bySeqID, vid)
	g.seqIDSorted = false
	g.verticesFinalised = false
	return vid, nil
}

// sortBySequenceID must be called with the serialise lock held.
func (g *Graph) sortBySequenceID() error {
	if g.seqIDSorted {
		return nil
	}
	psort.StableSort(vertexIndexSorter{g.bySeqID, g.vertices})
	for i := 1; i < len(g.bySeqID); i++ {
		prev, cur := &g.vertices[g.bySeqID[i-1]-1], &g.vertices[g.bySeqID[i]-1]
		if prev.SequenceID == cur.SequenceID {
			return fmt.Errorf("%w: sequence %v added as vertices %v and %v", ErrInvalidReference, cur.SequenceID, prev.VertexID, cur.VertexID)
		}
	}
	g.seqIDSorted = true
	return nil
}

// lookupSequence must be called with the serialise lock held and the
// SequenceID index sorted.
func (g *Graph) lookupSequence(id SequenceID) (VertexID, bool) {
	index, vertices := g.bySeqID, g.vertices
	i := sort.Search(len(index), func(i int) bool {
		return vertices[index[i]-1].SequenceID >= id
	})
	if i < len(index) && vertices[index[i]-1].SequenceID == id {
		return index[i], true
	}
	return 0, false
}

// FinaliseVertices sorts the vertices by SequenceID so that edges can be
// validated by binary search. It fails if a SequenceID was added twice.
func (g *Graph) FinaliseVertices() (int, error) {
	if err := g.check(); err != nil {
		return 0, err
	}
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if err := g.sortBySequenceID(); err != nil {
		return 0, g.fail(err)
	}
	g.verticesFinalised = true
	return len(g.vertices), nil
}

// VertexBySequenceID returns the vertex for the given SequenceID.
func (g *Graph) VertexBySequenceID(id SequenceID) (VertexID, bool) {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if err := g.sortBySequenceID(); err != nil {
		return 0, false
	}
	return g.lookupSequence(id)
}

// NumVertices returns the number of vertices.
func (g *Graph) NumVertices() int {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	return len(g.vertices)
}

// NumEdges returns the number of out-edges.
func (g *Graph) NumEdges() int {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	return len(g.edges)
}

// Vertex returns a copy of the vertex with the given ID.
func (g *Graph) Vertex(id VertexID) (Vertex, bool) {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if id == 0 || int(id) > len(g.vertices) {
		return Vertex{}, false
	}
	return g.vertices[id-1], true
}

// Edge returns a copy of the out-edge with the given ID.
func (g *Graph) Edge(id EdgeID) (OutEdge, bool) {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if id == 0 || int(id) > len(g.edges) {
		return OutEdge{}, false
	}
	return g.edges[id-1], true
}

// AddEdge adds one overlap. See AddEdges.
func (g *Graph) AddEdge(o Overlap, bothDirections bool) (int, error) {
	return g.AddEdges([]Overlap{o}, bothDirections)
}

// AddEdges adds a batch of overlaps and returns the cumulative number of
// edges.
//
// Overlaps scoring below Options.MinScore, and antisense overlaps if
// Options.SenseOnly is set, are skipped. For every other overlap the
// forward edge is added, and, unless bothDirections is true because the
// caller also supplies the reverse overlaps, the inferred back edge.
//
// Any validation error terminates graph construction.
func (g *Graph) AddEdges(batch []Overlap, bothDirections bool) (int, error) {
	if err := g.check(); err != nil {
		return 0, err
	}

	var belowScore, antisense uint64
	accepted := make([]int, 0, len(batch))
	for i := range batch {
		o := &batch[i]
		if o.Class != Overlapping {
			return 0, g.fail(fmt.Errorf("%w: %v overlap between sequences %v and %v", ErrInvalidClass, o.Class, o.FromSeqID, o.ToSeqID))
		}
		if o.Score < g.opts.MinScore {
			belowScore++
			continue
		}
		if g.opts.SenseOnly && o.Antisense {
			antisense++
			continue
		}
		accepted = append(accepted, i)
	}

	n, err := g.appendEdges(batch, accepted, bothDirections)

	g.updateStats(func(stats *Stats) {
		stats.BelowMinScore += belowScore
		stats.AntisenseSkipped += antisense
		if err == nil {
			stats.AcceptedOverlaps += uint64(len(accepted))
			if !bothDirections {
				stats.InferredEdges += uint64(len(accepted))
			}
		}
	})
	return n, err
}

func (g *Graph) appendEdges(batch []Overlap, accepted []int, bothDirections bool) (int, error) {
	g.serialise.Lock()
	defer g.serialise.Unlock()

	// another batch may have failed while this one waited for the lock
	if err := g.check(); err != nil {
		return 0, err
	}
	if g.edgesFinalised {
		return 0, fmt.Errorf("%w: AddEdges after FinaliseEdges", ErrPhase)
	}
	if len(accepted) == 0 {
		return len(g.edges), nil
	}
	if err := g.sortBySequenceID(); err != nil {
		return 0, g.fail(err)
	}

	perOverlap := 2
	if bothDirections {
		perOverlap = 1
	}
	need := uint64(len(g.edges)) + uint64(len(accepted)*perOverlap)
	if need > uint64(g.opts.MaxEdges) {
		return 0, g.fail(fmt.Errorf("%w: more than %v edges", ErrCapacityExceeded, g.opts.MaxEdges))
	}
	if err := g.reserveEdges(len(accepted) * perOverlap); err != nil {
		return 0, g.fail(fmt.Errorf("%w: %v edges", err, need))
	}

	for _, i := range accepted {
		o := &batch[i]
		from, to, err := g.validateOverlap(o)
		if err != nil {
			return 0, g.fail(err)
		}
		g.edges = append(g.edges, OutEdge{
			FromVertexID:  from,
			ToVertexID:    to,
			FromSeqLen:    o.FromSeqLen,
			ToSeqLen:      o.ToSeqLen,
			FromSeq5Ofs:   o.FromSeq5Ofs,
			FromSeq3Ofs:   o.FromSeq3Ofs,
			ToSeq5Ofs:     o.ToSeq5Ofs,
			ToSeq3Ofs:     o.ToSeq3Ofs,
			Score:         o.Score,
			ScoreAlignLen: o.ScoreAlignLen,
			ToAntisense:   o.Antisense,
		})
		if !bothDirections {
			g.edges = append(g.edges, OutEdge{
				FromVertexID:     to,
				ToVertexID:       from,
				FromSeqLen:       o.ToSeqLen,
				ToSeqLen:         o.FromSeqLen,
				FromSeq5Ofs:      o.ToSeq5Ofs,
				FromSeq3Ofs:      o.ToSeq3Ofs,
				ToSeq5Ofs:        o.FromSeq5Ofs,
				ToSeq3Ofs:        o.FromSeq3Ofs,
				Score:            o.Score,
				ScoreAlignLen:    o.ScoreAlignLen,
				ToAntisense:      o.Antisense,
				InferredBackEdge: true,
			})
		}
	}
	return len(g.edges), nil
}

// validateOverlap must be called with the serialise lock held.
func (g *Graph) validateOverlap(o *Overlap) (from, to VertexID, err error) {
	from, ok := g.lookupSequence(o.FromSeqID)
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown sequence %v", ErrInvalidReference, o.FromSeqID)
	}
	to, ok = g.lookupSequence(o.ToSeqID)
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown sequence %v", ErrInvalidReference, o.ToSeqID)
	}
	if from == to {
		return 0, 0, fmt.Errorf("%w: sequence %v overlaps itself", ErrInvalidReference, o.FromSeqID)
	}
	if err := g.validateAlignment(from, o.FromSeqLen, o.FromSeq5Ofs, o.FromSeq3Ofs); err != nil {
		return 0, 0, err
	}
	if err := g.validateAlignment(to, o.ToSeqLen, o.ToSeq5Ofs, o.ToSeq3Ofs); err != nil {
		return 0, 0, err
	}
	return from, to, nil
}

func (g *Graph) validateAlignment(vid VertexID, seqLen, ofs5, ofs3 uint32) error {
	v := &g.vertices[vid-1]
	if seqLen != v.SeqLen {
		return fmt.Errorf("%w: sequence %v has length %v, overlap claims %v", ErrInvalidRange, v.SequenceID, v.SeqLen, seqLen)
	}
	if ofs5 > ofs3 || ofs3 >= seqLen {
		return fmt.Errorf("%w: alignment %v..%v outside sequence %v of length %v", ErrInvalidRange, ofs5, ofs3, v.SequenceID, seqLen)
	}
	if ofs3-ofs5+1 < g.opts.MinAnchorLen {
		return fmt.Errorf("%w: alignment %v..%v on sequence %v shorter than %v", ErrInvalidRange, ofs5, ofs3, v.SequenceID, g.opts.MinAnchorLen)
	}
	return nil
}
