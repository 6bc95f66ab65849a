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
	"bytes"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kit4b/kit4b-sub002/fasta"
)

type testCatalog [][]byte

func (c testCatalog) Length(id SequenceID) uint32 {
	return uint32(len(c[id-1]))
}

func (c testCatalog) FetchBases(id SequenceID, offset, length uint32) ([]byte, error) {
	seq := c[id-1]
	if int(offset+length) > len(seq) {
		return nil, fmt.Errorf("range outside sequence %v", id)
	}
	return append([]byte(nil), seq[offset:offset+length]...), nil
}

func (c testCatalog) Descriptor(id SequenceID) string {
	return fmt.Sprintf("read%v <test>", id)
}

func randomBases(r *rand.Rand, n int) []byte {
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = "ACGT"[r.Intn(4)]
	}
	return seq
}

func reverseComplemented(seq []byte) []byte {
	result := append([]byte(nil), seq...)
	fasta.ReverseComplement(result)
	return result
}

// makeContigGraph builds two reads overlapping by 500 bases, with the
// second read optionally stored reverse complemented, and a third
// unrelated read.
func makeContigGraph(t *testing.T, opts Options, antisense bool) (*Graph, testCatalog, []byte) {
	r := rand.New(rand.NewSource(17))
	read1 := randomBases(r, 1000)
	read2 := append(append([]byte(nil), read1[500:]...), randomBases(r, 500)...)
	expected := append(append([]byte(nil), read1...), read2[500:]...)
	o := dovetail(1, 2, 1000, 1000, 500)
	if antisense {
		read2 = reverseComplemented(read2)
		o.Antisense = true
		o.ToSeq5Ofs, o.ToSeq3Ofs = 500, 999
	}
	catalog := testCatalog{read1, read2, randomBases(r, 200)}
	g := newTestGraph(t, opts, 1000, 1000, 200)
	if _, err := g.AddEdge(o, false); err != nil {
		t.Fatal(err)
	}
	analyse(t, g)
	return g, catalog, expected
}

func TestAssembleContig(t *testing.T) {
	for _, antisense := range []bool{false, true} {
		g, catalog, expected := makeContigGraph(t, NewOptions(), antisense)
		contig, err := g.AssembleContig(1, catalog)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(contig, expected) {
			t.Error("AssembleContig failed, antisense:", antisense)
		}
	}
}

func TestWriteContigSeqs(t *testing.T) {
	g, catalog, expected := makeContigGraph(t, NewOptions(), false)
	var out bytes.Buffer
	n, err := g.WriteContigSeqs(&out, catalog)
	if err != nil || n != 1 {
		t.Fatal("WriteContigSeqs failed", err)
	}
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if lines[0] != ">Contig1 1500|2|2" {
		t.Error("contig header failed", lines[0])
	}
	if len(lines) != 1+19 {
		t.Error("contig line count failed")
	}
	var seq []byte
	for _, line := range lines[1:] {
		if len(line) > fasta.DefaultLineWidth {
			t.Error("contig line too long")
		}
		seq = append(seq, line...)
	}
	if !bytes.Equal(seq, expected) {
		t.Error("contig sequence failed")
	}

	opts := NewOptions()
	opts.AcceptOrphans = true
	g, catalog, _ = makeContigGraph(t, opts, false)
	out.Reset()
	if n, err := g.WriteContigSeqs(&out, catalog); err != nil || n != 2 {
		t.Error("WriteContigSeqs with orphans failed")
	}
	if !strings.Contains(out.String(), ">Contig2 200|1|1\n") {
		t.Error("orphan contig failed")
	}
}

func TestWriteContigsFile(t *testing.T) {
	g, catalog, expected := makeContigGraph(t, NewOptions(), true)
	filename := filepath.Join(t.TempDir(), "contigs.fa")
	if n, err := g.WriteContigsFile(filename, catalog); err != nil || n != 1 {
		t.Fatal("WriteContigsFile failed", err)
	}
	contigs, err := fasta.ParseFasta(filename, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if contigs.Len() != 1 || contigs.Name(1) != "Contig1" || !bytes.Equal(contigs.Seq(1), expected) {
		t.Error("WriteContigsFile round trip failed")
	}
}

func TestWriteContigsBeforePaths(t *testing.T) {
	g := newTestGraph(t, NewOptions(), 1000)
	if _, err := g.WriteContigSeqs(&bytes.Buffer{}, testCatalog{make([]byte, 1000)}); err == nil {
		t.Error("WriteContigSeqs before FindHighestScoringPaths failed")
	}
}

func TestGraphExports(t *testing.T) {
	g, catalog, _ := makeContigGraph(t, NewOptions(), false)

	var gexf bytes.Buffer
	if n, err := g.WriteGEXF(&gexf); err != nil || n != 2 {
		t.Fatal("WriteGEXF failed", err)
	}
	s := gexf.String()
	if !strings.Contains(s, `<node id="1" label="1">`) || !strings.Contains(s, `<node id="2" label="2">`) {
		t.Error("GEXF nodes failed")
	}
	if strings.Contains(s, `<node id="3"`) {
		t.Error("GEXF isolated vertex written")
	}
	if !strings.Contains(s, `weight="0.950"`) || !strings.Contains(s, g.RunID()) {
		t.Error("GEXF content failed")
	}
	if !strings.HasSuffix(s, "</gexf>\n") {
		t.Error("GEXF not terminated")
	}

	var graphml bytes.Buffer
	if n, err := g.WriteGraphML(&graphml, catalog); err != nil || n != 2 {
		t.Fatal("WriteGraphML failed", err)
	}
	s = graphml.String()
	if !strings.Contains(s, `<graph id="`+g.RunID()+`" edgedefault="directed">`) {
		t.Error("GraphML graph failed")
	}
	if !strings.Contains(s, "read1 &lt;test&gt;") {
		t.Error("GraphML node name failed")
	}
	if strings.Count(s, "<edge ") != 2 {
		t.Error("GraphML edges failed")
	}

	var dot bytes.Buffer
	if n, err := g.WriteDOT(&dot, 0); err != nil || n != 2 {
		t.Fatal("WriteDOT failed", err)
	}
	s = dot.String()
	if !strings.Contains(s, "digraph") || !strings.Contains(s, "cluster_1") || !strings.Contains(s, "n1") {
		t.Error("DOT content failed")
	}
	if !strings.Contains(s, "penwidth") {
		t.Error("DOT best path failed")
	}
}

func TestExportFiles(t *testing.T) {
	g, catalog, _ := makeContigGraph(t, NewOptions(), false)
	dir := t.TempDir()
	if _, err := g.WriteGEXFFile(filepath.Join(dir, "graph.gexf")); err != nil {
		t.Error(err)
	}
	if _, err := g.WriteGraphMLFile(filepath.Join(dir, "graph.graphml"), catalog); err != nil {
		t.Error(err)
	}
	if _, err := g.WriteDOTFile(filepath.Join(dir, "graph.dot"), 1); err != nil {
		t.Error(err)
	}
	if _, err := g.WriteGEXFFile(filepath.Join(dir, "missing", "graph.gexf")); err == nil {
		t.Error("WriteGEXFFile to missing directory failed")
	}
}

func TestAppendXMLEscaped(t *testing.T) {
	if s := string(appendXMLEscaped(nil, `a<b>&"c'`+"\x01")); s != "a&lt;b&gt;&amp;&quot;c&apos;" {
		t.Error("appendXMLEscaped failed", s)
	}
}
