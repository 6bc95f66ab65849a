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
	"strconv"
	"strings"

	"github.com/kit4b/kit4b-sub002/graph"
)

// DefaultSlack is the default number of unaligned bases tolerated at a
// sequence end when classifying overlaps.
const DefaultSlack = 100

// Record is one line of a PAF file. Only the 12 mandatory columns are
// kept; optional SAM-like tags are ignored. Coordinates are 0-based,
// end-exclusive, on the forward strand of each sequence.
type Record struct {
	QueryName                         string
	QueryLen, QueryStart, QueryEnd    int
	Strand                            byte
	TargetName                        string
	TargetLen, TargetStart, TargetEnd int
	Matches, BlockLen                 int
	MapQ                              int
}

const mandatoryColumns = 12

func parseField(fields []string, i int) (int, error) {
	value, err := strconv.ParseInt(fields[i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid PAF column %v: %w", i+1, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative value in PAF column %v", i+1)
	}
	return int(value), nil
}

// ParseLine parses one tab-separated PAF line.
func ParseLine(line string) (r Record, err error) {
	fields := strings.SplitN(strings.TrimSuffix(line, "\r"), "\t", mandatoryColumns+1)
	if len(fields) < mandatoryColumns {
		return r, fmt.Errorf("PAF line has %v columns, need at least %v", len(fields), mandatoryColumns)
	}
	r.QueryName, r.TargetName = fields[0], fields[5]
	if len(fields[4]) != 1 || (fields[4][0] != '+' && fields[4][0] != '-') {
		return r, fmt.Errorf("invalid PAF strand %v", fields[4])
	}
	r.Strand = fields[4][0]
	for _, f := range []struct {
		column int
		value  *int
	}{
		{1, &r.QueryLen}, {2, &r.QueryStart}, {3, &r.QueryEnd},
		{6, &r.TargetLen}, {7, &r.TargetStart}, {8, &r.TargetEnd},
		{9, &r.Matches}, {10, &r.BlockLen}, {11, &r.MapQ},
	} {
		if *f.value, err = parseField(fields, f.column); err != nil {
			return r, err
		}
	}
	if r.QueryStart >= r.QueryEnd || r.QueryEnd > r.QueryLen {
		return r, fmt.Errorf("invalid query range %v-%v for length %v", r.QueryStart, r.QueryEnd, r.QueryLen)
	}
	if r.TargetStart >= r.TargetEnd || r.TargetEnd > r.TargetLen {
		return r, fmt.Errorf("invalid target range %v-%v for length %v", r.TargetStart, r.TargetEnd, r.TargetLen)
	}
	return r, nil
}

// Antisense is true if the query aligns with the reverse complement of
// the target.
func (r Record) Antisense() bool {
	return r.Strand == '-'
}

// Classify determines how the query and target of a record overlap. Up to
// slack unaligned bases at a sequence end are ignored.
//
// Self hits, and alignments that leave more than slack bases unaligned on
// the same side of both sequences, are Artefact. Contained means the query
// is contained in the target, Contains the reverse. Dovetails are
// Overlapping.
func Classify(r Record, slack int) graph.OverlapClass {
	if r.QueryName == r.TargetName {
		return graph.Artefact
	}
	// target coordinates in the orientation of the query
	tStart, tEnd := r.TargetStart, r.TargetEnd
	if r.Antisense() {
		tStart, tEnd = r.TargetLen-r.TargetEnd, r.TargetLen-r.TargetStart
	}
	qLeft, qRight := r.QueryStart, r.QueryLen-r.QueryEnd
	tLeft, tRight := tStart, r.TargetLen-tEnd

	left, right := qLeft, qRight
	if tLeft < left {
		left = tLeft
	}
	if tRight < right {
		right = tRight
	}
	switch {
	case left > slack || right > slack:
		return graph.Artefact
	case qLeft <= slack && qRight <= slack:
		return graph.Contained
	case tLeft <= slack && tRight <= slack:
		return graph.Contains
	default:
		return graph.Overlapping
	}
}

// Overlap converts a record to a graph.Overlap from the query, with the
// given SequenceID, to the target. Inclusive 3' offsets are the PAF end
// coordinates minus one. The score is the per-mille identity of the
// alignment block.
func (r Record) Overlap(from, to graph.SequenceID, slack int) graph.Overlap {
	var score uint32
	if r.BlockLen > 0 {
		score = uint32(uint64(r.Matches) * 1000 / uint64(r.BlockLen))
	}
	return graph.Overlap{
		FromSeqID:     from,
		ToSeqID:       to,
		FromSeqLen:    uint32(r.QueryLen),
		ToSeqLen:      uint32(r.TargetLen),
		Score:         score,
		ScoreAlignLen: uint32((r.QueryEnd - r.QueryStart + r.TargetEnd - r.TargetStart) / 2),
		FromSeq5Ofs:   uint32(r.QueryStart),
		FromSeq3Ofs:   uint32(r.QueryEnd - 1),
		ToSeq5Ofs:     uint32(r.TargetStart),
		ToSeq3Ofs:     uint32(r.TargetEnd - 1),
		Class:         Classify(r, slack),
		Antisense:     r.Antisense(),
	}
}
