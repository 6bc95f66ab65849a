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

package paf

import (
	"fmt"
	"log"

	"github.com/exascience/pargo/pipeline"

	"github.com/kit4b/kit4b-sub002/graph"
	"github.com/kit4b/kit4b-sub002/internal"
)

// maxLineLength bounds the length of a PAF line, including optional tags
// such as cg:Z: CIGAR strings of long alignments.
const maxLineLength = 1 << 28

// A Catalog resolves sequence names to SequenceIDs and lengths.
type Catalog interface {
	Lookup(name string) (uint32, bool)
	Length(id uint32) uint32
}

// Options controls how PAF records are turned into graph edges.
type Options struct {
	// Slack is the number of unaligned bases tolerated at sequence ends.
	Slack int
	// MaxThreads bounds the number of batches parsed in parallel. Zero
	// selects the pargo default.
	MaxThreads int
	// BothDirections tells the graph that the file contains the
	// overlaps in both directions, so no back edges are inferred.
	BothDirections bool
}

// Stats counts PAF records by outcome.
type Stats struct {
	Records      int
	Overlapping  int
	Contains     int
	Contained    int
	Artefacts    int
	ShortAnchors int
	UnknownNames int
}

func (s *Stats) add(t Stats) {
	s.Records += t.Records
	s.Overlapping += t.Overlapping
	s.Contains += t.Contains
	s.Contained += t.Contained
	s.Artefacts += t.Artefacts
	s.ShortAnchors += t.ShortAnchors
	s.UnknownNames += t.UnknownNames
}

// convert turns one PAF line into an overlap. It returns ok == false for
// records that must not be added to the graph.
func convert(line string, catalog Catalog, slack int, minAnchor uint32, stats *Stats) (o graph.Overlap, ok bool, err error) {
	r, err := ParseLine(line)
	if err != nil {
		return o, false, err
	}
	stats.Records++
	switch Classify(r, slack) {
	case graph.Artefact:
		stats.Artefacts++
		return o, false, nil
	case graph.Contains:
		stats.Contains++
		return o, false, nil
	case graph.Contained:
		stats.Contained++
		return o, false, nil
	}
	if uint32(r.QueryEnd-r.QueryStart) < minAnchor || uint32(r.TargetEnd-r.TargetStart) < minAnchor {
		stats.ShortAnchors++
		return o, false, nil
	}
	from, found := catalog.Lookup(r.QueryName)
	if !found {
		stats.UnknownNames++
		return o, false, nil
	}
	to, found := catalog.Lookup(r.TargetName)
	if !found {
		stats.UnknownNames++
		return o, false, nil
	}
	if l := catalog.Length(from); l != uint32(r.QueryLen) {
		return o, false, fmt.Errorf("sequence %v has length %v, PAF record claims %v", r.QueryName, l, r.QueryLen)
	}
	if l := catalog.Length(to); l != uint32(r.TargetLen) {
		return o, false, fmt.Errorf("sequence %v has length %v, PAF record claims %v", r.TargetName, l, r.TargetLen)
	}
	stats.Overlapping++
	return r.Overlap(from, to, slack), true, nil
}

// Load reads a PAF file, which may be gzip or zstd compressed, and adds
// the dovetail overlaps between sequences of the catalog to the graph.
// Batches of lines are parsed and added concurrently. The vertices must
// have been added with the SequenceIDs of the catalog.
func Load(filename string, catalog Catalog, g *graph.Graph, opts Options) (stats Stats, err error) {
	in, err := internal.OpenInput(filename)
	if err != nil {
		return stats, err
	}
	defer func() {
		if nerr := in.Close(); err == nil {
			err = nerr
		}
	}()

	minAnchor := g.Options().MinAnchorLen
	scanner := pipeline.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 0x10000), maxLineLength)

	var p pipeline.Pipeline
	p.Source(scanner)
	p.Add(pipeline.LimitedPar(opts.MaxThreads, pipeline.Receive(func(_ int, data interface{}) interface{} {
		lines := data.([]string)
		var batchStats Stats
		batch := make([]graph.Overlap, 0, len(lines))
		for _, line := range lines {
			if len(line) == 0 || line[0] == '#' {
				continue
			}
			o, ok, err := convert(line, catalog, opts.Slack, minAnchor, &batchStats)
			if err != nil {
				p.SetErr(fmt.Errorf("%v, while parsing PAF line %v", err, line))
				return batchStats
			}
			if ok {
				batch = append(batch, o)
			}
		}
		if _, err := g.AddEdges(batch, opts.BothDirections); err != nil {
			p.SetErr(err)
		}
		return batchStats
	})))
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		stats.add(data.(Stats))
		return data
	})))
	p.Run()
	if err = p.Err(); err != nil {
		return stats, err
	}

	log.Printf("Read %v PAF records: %v overlapping, %v containing, %v contained, %v artefacts, %v short, %v with unknown sequences.\n",
		stats.Records, stats.Overlapping, stats.Contains, stats.Contained, stats.Artefacts, stats.ShortAnchors, stats.UnknownNames)
	return stats, nil
}
