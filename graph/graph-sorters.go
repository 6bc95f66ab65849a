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
	"sort"

	psort "github.com/exascience/pargo/sort"
)

// vertexIndexSorter sorts VertexIDs by the SequenceID of their vertices.
type vertexIndexSorter struct {
	ids      []VertexID
	vertices []Vertex
}

func (s vertexIndexSorter) SequentialSort(i, j int) {
	ids, vertices := s.ids[i:j], s.vertices
	sort.SliceStable(ids, func(i, j int) bool {
		return vertices[ids[i]-1].SequenceID < vertices[ids[j]-1].SequenceID
	})
}

func (s vertexIndexSorter) NewTemp() psort.StableSorter {
	return vertexIndexSorter{make([]VertexID, len(s.ids)), s.vertices}
}

func (s vertexIndexSorter) Len() int {
	return len(s.ids)
}

func (s vertexIndexSorter) Less(i, j int) bool {
	return s.vertices[s.ids[i]-1].SequenceID < s.vertices[s.ids[j]-1].SequenceID
}

func (s vertexIndexSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s.ids, source.(vertexIndexSorter).ids
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// outEdgeLess orders edges by FromVertexID, ToVertexID, and places
// caller-supplied edges before inferred back edges.
func outEdgeLess(e1, e2 *OutEdge) bool {
	if e1.FromVertexID != e2.FromVertexID {
		return e1.FromVertexID < e2.FromVertexID
	}
	if e1.ToVertexID != e2.ToVertexID {
		return e1.ToVertexID < e2.ToVertexID
	}
	return !e1.InferredBackEdge && e2.InferredBackEdge
}

type outEdgeSorter []OutEdge

func (s outEdgeSorter) SequentialSort(i, j int) {
	edges := s[i:j]
	sort.SliceStable(edges, func(i, j int) bool {
		return outEdgeLess(&edges[i], &edges[j])
	})
}

func (s outEdgeSorter) NewTemp() psort.StableSorter {
	return outEdgeSorter(make([]OutEdge, len(s)))
}

func (s outEdgeSorter) Len() int {
	return len(s)
}

func (s outEdgeSorter) Less(i, j int) bool {
	return outEdgeLess(&s[i], &s[j])
}

func (s outEdgeSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(outEdgeSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// inEdgeSorter sorts EdgeIDs by ToVertexID, then FromVertexID.
type inEdgeSorter struct {
	ids   []EdgeID
	edges []OutEdge
}

func inEdgeLess(e1, e2 *OutEdge) bool {
	if e1.ToVertexID != e2.ToVertexID {
		return e1.ToVertexID < e2.ToVertexID
	}
	return e1.FromVertexID < e2.FromVertexID
}

func (s inEdgeSorter) SequentialSort(i, j int) {
	ids, edges := s.ids[i:j], s.edges
	sort.SliceStable(ids, func(i, j int) bool {
		return inEdgeLess(&edges[ids[i]-1], &edges[ids[j]-1])
	})
}

func (s inEdgeSorter) NewTemp() psort.StableSorter {
	return inEdgeSorter{make([]EdgeID, len(s.ids)), s.edges}
}

func (s inEdgeSorter) Len() int {
	return len(s.ids)
}

func (s inEdgeSorter) Less(i, j int) bool {
	return inEdgeLess(&s.edges[s.ids[i]-1], &s.edges[s.ids[j]-1])
}

func (s inEdgeSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s.ids, source.(inEdgeSorter).ids
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}
