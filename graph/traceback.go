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

	"github.com/willf/bitset"
)

// A pathWalker follows best-path edges. Its visited set is shared by all
// walks and cleared at the end of each one.
type pathWalker struct {
	g       *Graph
	visited *bitset.BitSet
	path    []VertexID
}

func (g *Graph) newPathWalker() *pathWalker {
	return &pathWalker{g: g, visited: bitset.New(uint(len(g.vertices) + 1))}
}

// walk follows the best-path edges from start, used in sense orientation,
// until the path ends or would reach a vertex it already contains, in
// either orientation. It calls visit, if not nil, for every vertex on the
// path, and returns the path length. The result never exceeds the memo
// score of start.
func (w *pathWalker) walk(start VertexID, visit func(vid VertexID, antisense bool, off5 uint32, pathOfs uint64) error) (pathOfs uint64, err error) {
	g := w.g
	defer func() {
		for _, vid := range w.path {
			w.visited.Clear(uint(vid))
		}
		w.path = w.path[:0]
	}()
	vid, antisense, off5 := start, false, uint32(0)
	for !w.visited.Test(uint(vid)) {
		w.visited.Set(uint(vid))
		w.path = append(w.path, vid)
		if visit != nil {
			if err = visit(vid, antisense, off5, pathOfs); err != nil {
				return 0, err
			}
		}
		pathOfs += uint64(g.vertices[vid-1].SeqLen - off5)

		m := g.memo[memoIndex(vid, antisense)]
		if m.state != pathScored || m.edge == 0 {
			break
		}
		e := g.edges[m.edge-1]
		ok, toAntisense, toOff5 := g.OverlapAcceptable(e, antisense)
		if !ok {
			break
		}
		vid, antisense, off5 = e.ToVertexID, toAntisense, toOff5
	}
	return pathOfs, nil
}

// tracePath follows the best-path edges from the start vertex of the
// component and appends the traceback entries of the path. It must be
// called with the serialise lock held.
func (g *Graph) tracePath(c *Component, w *pathWalker) error {
	start := len(g.traceback)
	c.TracebackStart, c.NumTraceback, c.PathLength = uint32(start), 0, 0
	if c.PathStartVertexID == 0 {
		return nil
	}

	length, err := w.walk(c.PathStartVertexID, func(vid VertexID, antisense bool, off5 uint32, pathOfs uint64) error {
		v := &g.vertices[vid-1]
		if v.ComponentID != c.ComponentID {
			return fmt.Errorf("%w: path of component %v reaches vertex %v of component %v",
				ErrCircularPath, c.ComponentID, vid, v.ComponentID)
		}
		v.PathAccepted = true
		g.traceback = append(g.traceback, TracebackEntry{
			ComponentID:       c.ComponentID,
			VertexID:          vid,
			SeqLen:            v.SeqLen,
			PathOfs:           pathOfs,
			Off5:              off5,
			ReverseComplement: antisense,
		})
		return nil
	})
	if err != nil {
		return err
	}

	c.NumTraceback = uint32(len(g.traceback) - start)
	c.PathLength = length
	return nil
}

func (g *Graph) requirePaths() error {
	if !g.pathsScored {
		return fmt.Errorf("%w: FindHighestScoringPaths has not been called", ErrPhase)
	}
	return nil
}

// Traceback returns a copy of the traceback entries of the best path of
// the given component, in path order.
func (g *Graph) Traceback(cid ComponentID) ([]TracebackEntry, error) {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if err := g.requirePaths(); err != nil {
		return nil, err
	}
	if cid == 0 || int(cid) > len(g.components) {
		return nil, fmt.Errorf("%w: no component %v", ErrInvalidReference, cid)
	}
	return g.componentTraceback(&g.components[cid-1]), nil
}

func (g *Graph) componentTraceback(c *Component) []TracebackEntry {
	entries := g.traceback[c.TracebackStart : c.TracebackStart+c.NumTraceback]
	result := make([]TracebackEntry, len(entries))
	copy(result, entries)
	return result
}

// TracebackEntries returns a copy of all traceback entries, grouped by
// component in ComponentID order.
func (g *Graph) TracebackEntries() ([]TracebackEntry, error) {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if err := g.requirePaths(); err != nil {
		return nil, err
	}
	result := make([]TracebackEntry, len(g.traceback))
	copy(result, g.traceback)
	return result, nil
}
