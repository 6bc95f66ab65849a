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
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/kit4b/kit4b-sub002/fasta"
)

// AssembleContig reconstructs the sequence of the best path of a
// component from the traceback entries.
func (g *Graph) AssembleContig(cid ComponentID, catalog SequenceCatalog) ([]byte, error) {
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if err := g.requirePaths(); err != nil {
		return nil, err
	}
	if cid == 0 || int(cid) > len(g.components) {
		return nil, fmt.Errorf("%w: no component %v", ErrInvalidReference, cid)
	}
	return g.assembleContig(&g.components[cid-1], catalog)
}

func (g *Graph) assembleContig(c *Component, catalog SequenceCatalog) ([]byte, error) {
	contig := make([]byte, 0, c.PathLength)
	for _, entry := range g.traceback[c.TracebackStart : c.TracebackStart+c.NumTraceback] {
		v := &g.vertices[entry.VertexID-1]
		if l := catalog.Length(v.SequenceID); l != v.SeqLen {
			return nil, fmt.Errorf("%w: sequence %v has length %v in the catalog, %v in the graph",
				ErrInvalidReference, v.SequenceID, l, v.SeqLen)
		}
		length := entry.SeqLen - entry.Off5
		offset := entry.Off5
		if entry.ReverseComplement {
			// the oriented sequence from Off5 is the reverse complement of
			// the first SeqLen-Off5 sense bases
			offset = 0
		}
		bases, err := catalog.FetchBases(v.SequenceID, offset, length)
		if err != nil {
			return nil, err
		}
		if uint32(len(bases)) != length {
			return nil, fmt.Errorf("%w: catalog returned %v of %v bases for sequence %v",
				ErrInvalidReference, len(bases), length, v.SequenceID)
		}
		if entry.ReverseComplement {
			fasta.ReverseComplement(bases)
		}
		if uint64(len(contig)) != entry.PathOfs {
			return nil, fmt.Errorf("%w: traceback of component %v is inconsistent at vertex %v",
				ErrCircularPath, c.ComponentID, entry.VertexID)
		}
		contig = append(contig, bases...)
	}
	return contig, nil
}

// WriteContigSeqs writes the assembled contig of every component in
// FASTA format, largest components first, and returns the number of
// contigs written. Components whose best path consists of a single vertex
// are only written if Options.AcceptOrphans is set.
func (g *Graph) WriteContigSeqs(w io.Writer, catalog SequenceCatalog) (int, error) {
	if err := g.check(); err != nil {
		return 0, err
	}
	g.serialise.Lock()
	defer g.serialise.Unlock()
	if err := g.requirePaths(); err != nil {
		return 0, err
	}
	var written int
	for _, c := range g.componentsBySize() {
		if c.NumTraceback == 0 || (c.NumTraceback == 1 && !g.opts.AcceptOrphans) {
			continue
		}
		contig, err := g.assembleContig(&c, catalog)
		if err != nil {
			return written, err
		}
		header := fmt.Sprintf("Contig%d %d|%d|%d", c.ComponentID, len(contig), c.NumTraceback, c.NumVertices)
		if err := fasta.WriteRecord(w, header, contig, fasta.DefaultLineWidth); err != nil {
			return written, ioError("contig output", err)
		}
		written++
	}
	return written, nil
}

// WriteContigsFile writes the assembled contigs to a FASTA file. See
// WriteContigSeqs.
func (g *Graph) WriteContigsFile(filename string, catalog SequenceCatalog) (n int, err error) {
	file, err := os.Create(filename)
	if err != nil {
		return 0, ioError("contig output", err)
	}
	defer func() {
		if nerr := file.Close(); err == nil && nerr != nil {
			err = ioError("contig output", nerr)
		}
	}()
	out := bufio.NewWriterSize(file, 0x10000)
	if n, err = g.WriteContigSeqs(out, catalog); err != nil {
		return n, err
	}
	if err = out.Flush(); err != nil {
		return n, ioError("contig output", err)
	}
	return n, nil
}
