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

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kit4b/kit4b-sub002/fasta"
	"github.com/kit4b/kit4b-sub002/graph"
)

func TestAddVertices(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "reads.fa")
	reads := ">r1\nACGTACGTAC\n>r2 second read\nACGT\nACGT\n>r3\nA\n"
	if err := os.WriteFile(filename, []byte(reads), 0o644); err != nil {
		t.Fatal(err)
	}
	catalog, err := fasta.ParseFasta(filename, true, true)
	if err != nil {
		t.Fatal(err)
	}
	g := graph.New(graph.NewOptions())
	n, err := addVertices(g, catalog)
	if err != nil || n != 3 {
		t.Fatal("addVertices failed", err)
	}
	for id := uint32(1); id <= 3; id++ {
		vid, ok := g.VertexBySequenceID(id)
		if !ok || vid != graph.VertexID(id) {
			t.Error("vertex order failed")
		}
		if v, _ := g.Vertex(vid); v.SeqLen != catalog.Length(id) {
			t.Error("vertex length failed")
		}
	}
}
