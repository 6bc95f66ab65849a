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

	"github.com/awalterschulze/gographviz"
)

const dotGraphName = "G"

func dotNodeName(vid VertexID) string {
	return "n" + strconv.FormatUint(uint64(vid), 10)
}

func dotQuote(s string) string {
	return strconv.Quote(s)
}

// bestPathEdges returns the edges followed by the traceback of every
// component. It must be called with the serialise lock held.
func (g *Graph) bestPathEdges() map[EdgeID]bool {
	result := make(map[EdgeID]bool)
	if !g.pathsScored {
		return result
	}
	for _, entry := range g.traceback {
		if m := g.memo[memoIndex(entry.VertexID, entry.ReverseComplement)]; m.edge != 0 {
			result[m.edge] = true
		}
	}
	// the last entry of a path does not continue it
	for i := range g.components {
		c := &g.components[i]
		if c.NumTraceback > 0 {
			last := g.traceback[c.TracebackStart+c.NumTraceback-1]
			if m := g.memo[memoIndex(last.VertexID, last.ReverseComplement)]; m.edge != 0 {
				delete(result, m.edge)
			}
		}
	}
	return result
}

// buildDOT renders the components with at least one edge as clusters of a
// graphviz graph, largest components first. If maxComponents > 0, only
// that many components are rendered. Best-path edges are highlighted when
// paths have been scored.
func (g *Graph) buildDOT(maxComponents int) (*gographviz.Graph, int, error) {
	dot := gographviz.NewGraph()
	if err := dot.SetName(dotGraphName); err != nil {
		return nil, 0, err
	}
	if err := dot.SetDir(true); err != nil {
		return nil, 0, err
	}
	if err := dot.SetStrict(false); err != nil {
		return nil, 0, err
	}
	if err := dot.AddAttr(dotGraphName, "label", dotQuote(g.runID)); err != nil {
		return nil, 0, err
	}

	onPath := g.bestPathEdges()
	members, starts := g.componentMembers()
	var rendered, nodes int
	for _, c := range g.componentsBySize() {
		if maxComponents > 0 && rendered >= maxComponents {
			break
		}
		if c.NumVertices < 2 {
			continue
		}
		rendered++
		cluster := "cluster_" + strconv.FormatUint(uint64(c.ComponentID), 10)
		if err := dot.AddSubGraph(dotGraphName, cluster, map[string]string{
			"label": dotQuote("Component " + strconv.FormatUint(uint64(c.ComponentID), 10)),
		}); err != nil {
			return nil, 0, err
		}
		vids := members[starts[c.ComponentID-1]:starts[c.ComponentID]]
		for _, vid := range vids {
			v := &g.vertices[vid-1]
			attrs := map[string]string{
				"label": dotQuote(strconv.FormatUint(uint64(v.SequenceID), 10) + " len:" + strconv.FormatUint(uint64(v.SeqLen), 10)),
			}
			if v.PathAccepted {
				attrs["color"] = "red"
			}
			if err := dot.AddNode(cluster, dotNodeName(vid), attrs); err != nil {
				return nil, 0, err
			}
			nodes++
		}
		for _, vid := range vids {
			for _, eid := range g.outEdgeIDs(vid) {
				e := &g.edges[eid-1]
				attrs := map[string]string{
					"label": dotQuote(strconv.FormatFloat(float64(e.Score)/1000, 'f', 3, 64)),
				}
				if e.InferredBackEdge {
					attrs["style"] = "dashed"
				}
				if onPath[eid] {
					attrs["color"] = "red"
					attrs["penwidth"] = "2"
				}
				if err := dot.AddEdge(dotNodeName(e.FromVertexID), dotNodeName(e.ToVertexID), true, attrs); err != nil {
					return nil, 0, err
				}
			}
		}
	}
	return dot, nodes, nil
}

// WriteDOT writes the graph in graphviz DOT format, one cluster per
// component. It returns the number of vertices written.
func (g *Graph) WriteDOT(w io.Writer, maxComponents int) (int, error) {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if err := g.prepareExport(); err != nil {
		return 0, err
	}
	dot, nodes, err := g.buildDOT(maxComponents)
	if err != nil {
		return 0, err
	}
	if _, err := io.WriteString(w, dot.String()); err != nil {
		return 0, ioError("DOT output", err)
	}
	return nodes, nil
}

// WriteDOTFile writes the graph to a DOT file. See WriteDOT.
func (g *Graph) WriteDOTFile(filename string, maxComponents int) (int, error) {
	return writeExportFile(filename, "DOT output", func(w io.Writer) (int, error) {
		return g.WriteDOT(w, maxComponents)
	})
}
