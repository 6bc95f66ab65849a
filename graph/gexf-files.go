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
	"os"
	"strconv"
	"time"

	"github.com/kit4b/kit4b-sub002/internal"
	"github.com/kit4b/kit4b-sub002/utils"
)

var creator = utils.ProgramName + " " + utils.ProgramVersion

// appendXMLEscaped appends s to buf, escaping the XML special characters.
func appendXMLEscaped(buf []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			buf = append(buf, "&amp;"...)
		case '<':
			buf = append(buf, "&lt;"...)
		case '>':
			buf = append(buf, "&gt;"...)
		case '"':
			buf = append(buf, "&quot;"...)
		case '\'':
			buf = append(buf, "&apos;"...)
		case '\t', '\n', '\r':
			buf = append(buf, c)
		default:
			if c < ' ' {
				continue
			}
			buf = append(buf, c)
		}
	}
	return buf
}

func appendWeight(buf []byte, score uint32) []byte {
	return strconv.AppendFloat(buf, float64(score)/1000, 'f', 3, 64)
}

// exportedVertices returns the vertices with at least one edge, grouped by
// component, largest components first. It must be called with the
// serialise lock held.
func (g *Graph) exportedVertices() []VertexID {
	members, starts := g.componentMembers()
	var result []VertexID
	for _, c := range g.componentsBySize() {
		for _, vid := range members[starts[c.ComponentID-1]:starts[c.ComponentID]] {
			if v := &g.vertices[vid-1]; v.DegreeOut > 0 || v.DegreeIn > 0 {
				result = append(result, vid)
			}
		}
	}
	return result
}

func (g *Graph) prepareExport() error {
	if err := g.check(); err != nil {
		return err
	}
	return g.requireComponents()
}

// WriteGEXF writes the vertices with at least one edge, and their edges,
// in GEXF 1.2 format. It returns the number of vertices written.
func (g *Graph) WriteGEXF(w io.Writer) (int, error) {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if err := g.prepareExport(); err != nil {
		return 0, err
	}
	vids := g.exportedVertices()

	out := internal.NewChunkWriter(w)
	out.Buf = append(out.Buf, `<?xml version="1.0" encoding="UTF-8"?>
<gexf xmlns="http://www.gexf.net/1.2draft" version="1.2">
  <meta lastmodifieddate="`...)
	out.Buf = time.Now().AppendFormat(out.Buf, "2006-01-02")
	out.Buf = append(out.Buf, `">
    <creator>`...)
	out.Buf = appendXMLEscaped(out.Buf, creator)
	out.Buf = append(out.Buf, `</creator>
    <description>`...)
	out.Buf = appendXMLEscaped(out.Buf, g.runID)
	out.Buf = append(out.Buf, `</description>
  </meta>
  <graph mode="static" defaultedgetype="directed">
    <attributes class="node">
      <attribute id="0" title="SeqLen" type="integer"/>
      <attribute id="1" title="OutDegree" type="integer"/>
      <attribute id="2" title="InDegree" type="integer"/>
      <attribute id="3" title="Component" type="integer"/>
    </attributes>
    <nodes>
`...)
	for _, vid := range vids {
		v := &g.vertices[vid-1]
		out.Buf = append(out.Buf, `      <node id="`...)
		out.Buf = strconv.AppendUint(out.Buf, uint64(vid), 10)
		out.Buf = append(out.Buf, `" label="`...)
		out.Buf = strconv.AppendUint(out.Buf, uint64(v.SequenceID), 10)
		out.Buf = append(out.Buf, `">
        <attvalues>
          <attvalue for="0" value="`...)
		out.Buf = strconv.AppendUint(out.Buf, uint64(v.SeqLen), 10)
		out.Buf = append(out.Buf, `"/>
          <attvalue for="1" value="`...)
		out.Buf = strconv.AppendUint(out.Buf, uint64(v.DegreeOut), 10)
		out.Buf = append(out.Buf, `"/>
          <attvalue for="2" value="`...)
		out.Buf = strconv.AppendUint(out.Buf, uint64(v.DegreeIn), 10)
		out.Buf = append(out.Buf, `"/>
          <attvalue for="3" value="`...)
		out.Buf = strconv.AppendUint(out.Buf, uint64(v.ComponentID), 10)
		out.Buf = append(out.Buf, `"/>
        </attvalues>
      </node>
`...)
		out.Check()
	}
	out.Buf = append(out.Buf, `    </nodes>
    <edges>
`...)
	for _, vid := range vids {
		for _, eid := range g.outEdgeIDs(vid) {
			e := &g.edges[eid-1]
			out.Buf = append(out.Buf, `      <edge id="`...)
			out.Buf = strconv.AppendUint(out.Buf, uint64(eid), 10)
			out.Buf = append(out.Buf, `" source="`...)
			out.Buf = strconv.AppendUint(out.Buf, uint64(e.FromVertexID), 10)
			out.Buf = append(out.Buf, `" target="`...)
			out.Buf = strconv.AppendUint(out.Buf, uint64(e.ToVertexID), 10)
			out.Buf = append(out.Buf, `" weight="`...)
			out.Buf = appendWeight(out.Buf, e.Score)
			out.Buf = append(out.Buf, `"/>
`...)
			out.Check()
		}
	}
	out.Buf = append(out.Buf, `    </edges>
  </graph>
</gexf>
`...)
	if err := out.Close(); err != nil {
		return 0, ioError("GEXF output", err)
	}
	return len(vids), nil
}

// writeExportFile creates filename and runs write on it.
func writeExportFile(filename, what string, write func(io.Writer) (int, error)) (n int, err error) {
	file, err := os.Create(filename)
	if err != nil {
		return 0, ioError(what, err)
	}
	defer func() {
		if nerr := file.Close(); err == nil && nerr != nil {
			err = ioError(what, nerr)
		}
	}()
	return write(file)
}

// WriteGEXFFile writes the graph to a GEXF file. See WriteGEXF.
func (g *Graph) WriteGEXFFile(filename string) (int, error) {
	return writeExportFile(filename, "GEXF output", g.WriteGEXF)
}
