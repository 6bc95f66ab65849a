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

/*
Package graph implements the overlap assembly graph used to scaffold long
sequencing reads.

Each input sequence becomes a vertex, each accepted pairwise overlap a
directed edge (plus its inferred inverse). A Graph goes through a fixed
sequence of phases:

	g := graph.New(opts)
	g.AddVertex(...)          // concurrently, once per sequence
	g.FinaliseVertices()
	g.AddEdges(...)           // concurrently, batches of overlaps
	g.FinaliseEdges()         // sort, de-duplicate, remove hairpins, index
	g.IdentifyDiscComponents()
	g.FindHighestScoringPaths()
	g.WriteContigsFile(...)   // and/or the GEXF, GraphML and DOT writers

Vertices, edges and components are addressed by dense 1-based identifiers.
Accessors return copies, so no reference into the arenas survives a
mutating call.

The first validation error during loading is sticky: every later call on
the same Graph fails with an error wrapping ErrTerminated, and the
partially built graph is never analysed.
*/
package graph
