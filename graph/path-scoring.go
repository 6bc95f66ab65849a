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
)

const (
	pathUnvisited = iota
	pathInProgress
	pathScored
)

// pathMemo holds the scoring state of a vertex in one orientation.
type pathMemo struct {
	state uint8
	score uint64
	edge  EdgeID
}

func memoIndex(vid VertexID, antisense bool) int {
	if antisense {
		return int(vid-1)*2 + 1
	}
	return int(vid-1) * 2
}

// OverlapAcceptable determines whether the edge extends a path in which
// the From vertex is used in the given orientation.
//
// If it does, it returns the orientation in which the To vertex continues
// the path, and the offset in the oriented To sequence from which the To
// vertex contributes new bases. The edge is only accepted if it adds at
// least Options.MinExtension bases beyond the oriented 3' end of the From
// vertex.
func (g *Graph) OverlapAcceptable(e OutEdge, fromAntisense bool) (ok, toAntisense bool, toOff5 uint32) {
	toAntisense = fromAntisense != (e.FromAntisense != e.ToAntisense)

	from3 := e.FromSeq3Ofs
	if fromAntisense {
		from3 = e.FromSeqLen - 1 - e.FromSeq5Ofs
	}
	// bases of From beyond the aligned region are skipped in To as well
	overhang := uint64(e.FromSeqLen - 1 - from3)

	to3 := e.ToSeq3Ofs
	if toAntisense {
		to3 = e.ToSeqLen - 1 - e.ToSeq5Ofs
	}
	off5 := uint64(to3) + 1 + overhang
	if off5 >= uint64(e.ToSeqLen) || uint64(e.ToSeqLen)-off5 < uint64(g.opts.MinExtension) {
		return false, toAntisense, 0
	}
	return true, toAntisense, uint32(off5)
}

type scoreFrame struct {
	vertex    VertexID
	antisense bool
	next      uint32

	best      uint64
	bestEdge  EdgeID
	bestAlign uint32

	// child currently being scored
	pending     EdgeID
	pendingOff5 uint32
}

// consider offers the score of a child path, reached via edge eid with the
// child contributing from off5 onwards, to the frame.
func (g *Graph) consider(f *scoreFrame, childScore uint64, eid EdgeID, off5 uint32) error {
	seqLen := uint64(g.vertices[f.vertex-1].SeqLen)
	extension := childScore - uint64(off5)
	score := seqLen + extension
	if score < extension {
		return fmt.Errorf("%w: path from vertex %v", ErrScoreOverflow, f.vertex)
	}
	align := g.edges[eid-1].ScoreAlignLen
	if score > f.best || (score == f.best && align > f.bestAlign) {
		f.best, f.bestEdge, f.bestAlign = score, eid, align
	}
	return nil
}

// finish stores the result of a frame in the memo table and in the vertex.
func (g *Graph) finish(f *scoreFrame) uint64 {
	v := &g.vertices[f.vertex-1]
	if f.bestEdge == 0 {
		f.best = uint64(v.SeqLen)
	}
	g.memo[memoIndex(f.vertex, f.antisense)] = pathMemo{state: pathScored, score: f.best, edge: f.bestEdge}
	if !f.antisense {
		v.PathScore = f.best
		v.PathScoreEdgeID = f.bestEdge
		v.PathScored = true
		v.PathTerminal = f.bestEdge == 0
	}
	return f.best
}

// scorePath computes the highest path score starting at the given vertex
// in the given orientation. Sub-paths are evaluated in post-order with an
// explicit stack. A child that is still in progress, in either
// orientation, closes a cycle and is skipped. It must be called with the serialise lock held.
func (g *Graph) scorePath(start VertexID, antisense bool) (uint64, error) {
	if m := g.memo[memoIndex(start, antisense)]; m.state == pathScored {
		return m.score, nil
	}
	var cycles uint64
	defer func() {
		if cycles > 0 {
			g.updateStats(func(stats *Stats) {
				stats.CyclesSkipped += cycles
			})
		}
	}()

	stack := []scoreFrame{{vertex: start, antisense: antisense}}
	g.memo[memoIndex(start, antisense)].state = pathInProgress
	if v := &g.vertices[start-1]; v.RecurseDepth == 0 {
		v.RecurseDepth = 1
	}

	for {
		top := &stack[len(stack)-1]
		v := &g.vertices[top.vertex-1]
		if top.next < v.DegreeOut {
			eid := EdgeID(v.OutEdgeStart + top.next)
			top.next++
			e := &g.edges[eid-1]
			ok, toAntisense, off5 := g.OverlapAcceptable(*e, top.antisense)
			if !ok {
				continue
			}
			child := &g.vertices[e.ToVertexID-1]
			if child.PathAccepted {
				continue
			}
			m := &g.memo[memoIndex(child.VertexID, toAntisense)]
			switch {
			case m.state == pathInProgress || g.memo[memoIndex(child.VertexID, !toAntisense)].state == pathInProgress:
				// a vertex is used at most once on the path being scored
				cycles++
			case m.state == pathScored:
				if err := g.consider(top, m.score, eid, off5); err != nil {
					return 0, err
				}
			default:
				m.state = pathInProgress
				top.pending, top.pendingOff5 = eid, off5
				if child.RecurseDepth == 0 {
					child.RecurseDepth = uint32(len(stack) + 1)
				}
				stack = append(stack, scoreFrame{vertex: child.VertexID, antisense: toAntisense})
			}
			continue
		}

		score := g.finish(top)
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			return score, nil
		}
		parent := &stack[len(stack)-1]
		if err := g.consider(parent, score, parent.pending, parent.pendingOff5); err != nil {
			return 0, err
		}
		parent.pending = 0
	}
}

// ScorePaths returns the highest path score starting at the given vertex
// in sense orientation. FindHighestScoringPaths must have prepared the
// scoring state. Cached sub-paths may run back through the start vertex in
// the other orientation, so the score bounds the traced path length from
// above.
func (g *Graph) ScorePaths(vid VertexID) (uint64, error) {
	if err := g.check(); err != nil {
		return 0, err
	}
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if err := g.requireComponents(); err != nil {
		return 0, err
	}
	if vid == 0 || int(vid) > len(g.vertices) {
		return 0, fmt.Errorf("%w: no vertex %v", ErrInvalidReference, vid)
	}
	g.prepareScoring(false)
	if v := &g.vertices[vid-1]; v.PathAccepted && v.PathScored {
		return v.PathScore, nil
	}
	score, err := g.scorePath(vid, false)
	if err != nil {
		return 0, g.fail(err)
	}
	return score, nil
}

func (g *Graph) requireComponents() error {
	if !g.componentsIdentified {
		return fmt.Errorf("%w: IdentifyDiscComponents has not been called", ErrPhase)
	}
	return nil
}

// prepareScoring allocates the memo table, clearing all scoring state if
// reset is true or no table exists yet.
func (g *Graph) prepareScoring(reset bool) {
	if !reset && g.memo != nil {
		return
	}
	g.memo = make([]pathMemo, 2*len(g.vertices))
	g.traceback = g.traceback[:0]
	for i := range g.vertices {
		v := &g.vertices[i]
		v.RecurseDepth, v.PathScore, v.PathScoreEdgeID = 0, 0, 0
		v.PathScored, v.PathTerminal, v.PathAccepted = false, false, false
	}
	for i := range g.components {
		c := &g.components[i]
		c.PathStartVertexID, c.PathScore, c.PathLength = 0, 0, 0
		c.TracebackStart, c.NumTraceback = 0, 0
	}
	g.pathsScored = false
}

// A pathStart is a candidate start vertex of a component path with its
// memo score.
type pathStart struct {
	vertex VertexID
	score  uint64
}

// selectPathStart returns the start vertex whose traced path is longest,
// ties going to the lower VertexID, together with that path length.
//
// Memo scores may count a vertex twice when a cached sub-path runs back
// through the start vertex in the other orientation, and the traceback
// stops at such a vertex. The memo score of a start is an upper bound of
// the length of its traced path, so candidates are traced in descending
// score order until no remaining score can beat the best traced length.
func (g *Graph) selectPathStart(candidates []pathStart, w *pathWalker) (best VertexID, bestLength uint64, err error) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].vertex < candidates[j].vertex
	})
	for _, candidate := range candidates {
		if best != 0 && candidate.score < bestLength {
			break
		}
		length, err := w.walk(candidate.vertex, nil)
		if err != nil {
			return 0, 0, err
		}
		if best == 0 || length > bestLength || (length == bestLength && candidate.vertex < best) {
			best, bestLength = candidate.vertex, length
		}
	}
	return best, bestLength, nil
}

// FindHighestScoringPaths scores the paths from every vertex of every
// component, selects the best path start per component, and records the
// traceback of that path. The PathScore of a component is the length of
// its traced path. It returns the total number of traceback entries.
func (g *Graph) FindHighestScoringPaths() (int, error) {
	if err := g.check(); err != nil {
		return 0, err
	}
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if err := g.requireComponents(); err != nil {
		return 0, err
	}
	g.prepareScoring(true)

	members, starts := g.componentMembers()
	w := g.newPathWalker()
	var candidates []pathStart
	var longest uint64
	for i := range g.components {
		c := &g.components[i]
		candidates = candidates[:0]
		for _, vid := range members[starts[i]:starts[i+1]] {
			score, err := g.scorePath(vid, false)
			if err != nil {
				return 0, g.fail(err)
			}
			candidates = append(candidates, pathStart{vertex: vid, score: score})
		}
		best, length, err := g.selectPathStart(candidates, w)
		if err != nil {
			return 0, g.fail(err)
		}
		c.PathStartVertexID = best
		if err := g.tracePath(c, w); err != nil {
			return 0, g.fail(err)
		}
		if c.PathLength != length {
			return 0, g.fail(fmt.Errorf("%w: component %v traced %v bases, expected %v",
				ErrCircularPath, c.ComponentID, c.PathLength, length))
		}
		c.PathScore = c.PathLength
		if c.PathLength > longest {
			longest = c.PathLength
		}
	}
	g.pathsScored = true

	log.Printf("Scored paths in %v components, %v traceback entries, longest path %v bases.\n",
		len(g.components), len(g.traceback), longest)
	return len(g.traceback), nil
}
