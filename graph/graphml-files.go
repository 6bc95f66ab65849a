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
	"io"
	"strconv"

	"github.com/kit4b/kit4b-sub002/internal"
)

// WriteGraphML writes the vertices with at least one edge, and their
// edges, in GraphML format. Node names are taken from the catalog
// descriptors when a catalog is given. It returns the number of vertices
// written.
func (g *Graph) WriteGraphML(w io.Writer, catalog SequenceCatalog) (int, error) {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if err := g.prepareExport(); err != nil {
		return 0, err
	}
	vids := g.exportedVertices()

	out := internal.NewChunkWriter(w)
	out.Buf = append(out.Buf, `<?xml version="1.0" encoding="UTF-8"?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns"
    xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
    xsi:schemaLocation="http://graphml.graphdrawing.org/xmlns http://graphml.graphdrawing.org/xmlns/1.0/graphml.xsd">
  <key id="d0" for="node" attr.name="SeqLen" attr.type="int"/>
  <key id="d1" for="node" attr.name="OutDegree" attr.type="int"/>
  <key id="d2" for="node" attr.name="InDegree" attr.type="int"/>
  <key id="d3" for="node" attr.name="Component" attr.type="int"/>
  <key id="d4" for="node" attr.name="name" attr.type="string"/>
  <key id="d5" for="edge" attr.name="weight" attr.type="double"/>
  <graph id="`...)
	out.Buf = appendXMLEscaped(out.Buf, g.runID)
	out.Buf = append(out.Buf, `" edgedefault="directed">
`...)
	for _, vid := range vids {
		v := &g.vertices[vid-1]
		out.Buf = append(out.Buf, `    <node id="n`...)
		out.Buf = strconv.AppendUint(out.Buf, uint64(vid), 10)
		out.Buf = append(out.Buf, `">
      <data key="d0">`...)
		out.Buf = strconv.AppendUint(out.Buf, uint64(v.SeqLen), 10)
		out.Buf = append(out.Buf, `</data>
      <data key="d1">`...)
		out.Buf = strconv.AppendUint(out.Buf, uint64(v.DegreeOut), 10)
		out.Buf = append(out.Buf, `</data>
      <data key="d2">`...)
		out.Buf = strconv.AppendUint(out.Buf, uint64(v.DegreeIn), 10)
		out.Buf = append(out.Buf, `</data>
      <data key="d3">`...)
		out.Buf = strconv.AppendUint(out.Buf, uint64(v.ComponentID), 10)
		out.Buf = append(out.Buf, `</data>
      <data key="d4">`...)
		if catalog != nil {
			out.Buf = appendXMLEscaped(out.Buf, catalog.Descriptor(v.SequenceID))
		} else {
			out.Buf = strconv.AppendUint(out.Buf, uint64(v.SequenceID), 10)
		}
		out.Buf = append(out.Buf, `</data>
    </node>
`...)
		out.Check()
	}
	for _, vid := range vids {
		for _, eid := range g.outEdgeIDs(vid) {
			e := &g.edges[eid-1]
			out.Buf = append(out.Buf, `    <edge id="e`...)
			out.Buf = strconv.AppendUint(out.Buf, uint64(eid), 10)
			out.Buf = append(out.Buf, `" source="n`...)
			out.Buf = strconv.AppendUint(out.Buf, uint64(e.FromVertexID), 10)
			out.Buf = append(out.Buf, `" target="n`...)
			out.Buf = strconv.AppendUint(out.Buf, uint64(e.ToVertexID), 10)
			out.Buf = append(out.Buf, `">
      <data key="d5">`...)
			out.Buf = appendWeight(out.Buf, e.Score)
			out.Buf = append(out.Buf, `</data>
    </edge>
`...)
			out.Check()
		}
	}
	out.Buf = append(out.Buf, `  </graph>
</graphml>
`...)
	if err := out.Close(); err != nil {
		return 0, ioError("GraphML output", err)
	}
	return len(vids), nil
}

// WriteGraphMLFile writes the graph to a GraphML file. See WriteGraphML.
func (g *Graph) WriteGraphMLFile(filename string, catalog SequenceCatalog) (int, error) {
	return writeExportFile(filename, "GraphML output", func(w io.Writer) (int, error) {
		return g.WriteGraphML(w, catalog)
	})
}
