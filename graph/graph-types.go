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
	"runtime"

	"github.com/google/uuid"
)

type (
	// SequenceID identifies a sequence in a SequenceCatalog.
	SequenceID = uint32

	// VertexID identifies a vertex. Vertex IDs are dense and start at 1.
	VertexID uint32

	// EdgeID identifies an out-edge in the sorted edge arena. Edge IDs are
	// only stable after FinaliseEdges.
	EdgeID uint32

	// ComponentID identifies a disconnected component. Component IDs are
	// dense and start at 1.
	ComponentID uint32
)

// OverlapClass classifies a pairwise alignment between two sequences.
type OverlapClass uint8

const (
	// Overlapping is a dovetail: the 3' end of one sequence overlaps the
	// 5' end of the other. Only these overlaps are accepted as edges.
	Overlapping OverlapClass = iota
	// Contains means the From sequence completely contains the To sequence.
	Contains
	// Contained means the From sequence is completely contained in the To
	// sequence.
	Contained
	// Artefact covers self hits and alignments internal to both sequences.
	Artefact
)

func (c OverlapClass) String() string {
	switch c {
	case Overlapping:
		return "overlapping"
	case Contains:
		return "contains"
	case Contained:
		return "contained"
	case Artefact:
		return "artefact"
	default:
		return "unknown"
	}
}

// Overlap is one accepted pairwise alignment, as supplied by an overlap
// producer. Offsets are 0-based and inclusive, on the sense strand of the
// respective sequence. If Antisense is set, the From region aligns with the
// reverse complement of the To region.
type Overlap struct {
	FromSeqID, ToSeqID       SequenceID
	FromSeqLen, ToSeqLen     uint32
	Score                    uint32
	ScoreAlignLen            uint32
	FromSeq5Ofs, FromSeq3Ofs uint32
	ToSeq5Ofs, ToSeq3Ofs     uint32
	Class                    OverlapClass
	Antisense                bool
}

// Vertex represents one input sequence.
type Vertex struct {
	VertexID   VertexID
	SequenceID SequenceID
	SeqLen     uint32

	// 1-based starts into the sorted out-edges and the in-edge index.
	OutEdgeStart, InEdgeStart uint32
	DegreeOut, DegreeIn       uint32

	ComponentID ComponentID

	RecurseDepth    uint32
	PathScore       uint64
	PathScoreEdgeID EdgeID

	PathScored   bool
	PathTerminal bool
	PathAccepted bool
	RemoveEdges  bool
}

// OutEdge is a directed overlap between two vertices.
type OutEdge struct {
	FromVertexID, ToVertexID VertexID
	FromSeqLen, ToSeqLen     uint32
	FromSeq5Ofs, FromSeq3Ofs uint32
	ToSeq5Ofs, ToSeq3Ofs     uint32
	Score                    uint32
	ScoreAlignLen            uint32

	FromAntisense    bool
	ToAntisense      bool
	InferredBackEdge bool
	Remove           bool
	TravFwd          bool
	TravRev          bool
}

// Component is a maximal set of vertices connected by edges, ignoring
// edge direction.
type Component struct {
	ComponentID       ComponentID
	VertexID          VertexID
	NumVertices       uint32
	PathStartVertexID VertexID
	PathScore         uint64
	PathLength        uint64
	TracebackStart    uint32
	NumTraceback      uint32
}

// TracebackEntry describes the contribution of one vertex to an assembled
// contig: the vertex sequence, oriented as indicated, is copied from Off5
// onwards to position PathOfs of the contig.
type TracebackEntry struct {
	ComponentID       ComponentID
	VertexID          VertexID
	SeqLen            uint32
	PathOfs           uint64
	Off5              uint32
	ReverseComplement bool
}

// SequenceCatalog supplies sequence lengths, bases and descriptors.
type SequenceCatalog interface {
	Length(id SequenceID) uint32
	FetchBases(id SequenceID, offset, length uint32) ([]byte, error)
	Descriptor(id SequenceID) string
}

// Default values for Options.
const (
	DefaultMinAnchorLen  = 100
	DefaultMinExtension  = 50
	DefaultMaxDegree     = 250
	DefaultMaxVertices   = 50000000
	DefaultMaxEdges      = 1 << 31
	DefaultMaxComponents = 50000000
)

// Options controls the behaviour of a Graph. The zero value of a field
// selects the corresponding default, except for MaxDegree where the
// default is only used by NewOptions.
type Options struct {
	// SenseOnly skips overlaps between opposite strands.
	SenseOnly bool
	// MinScore skips overlaps scoring below this threshold.
	MinScore uint32
	// AcceptOrphans also reports sequences that could not be joined with
	// any other sequence.
	AcceptOrphans bool
	// MaxThreads bounds the number of batches in parallel phases.
	MaxThreads int

	// MinAnchorLen is the minimum aligned length on both sequences.
	MinAnchorLen uint32
	// MinExtension is the minimum number of bases an edge must add to a
	// path to be accepted.
	MinExtension uint32
	// MaxDegree caps the number of out- and in-edges considered per
	// vertex. Zero means unbounded.
	MaxDegree uint32

	MaxVertices   uint32
	MaxEdges      uint32
	MaxComponents uint32
}

// NewOptions returns Options with all defaults set.
func NewOptions() Options {
	return Options{
		MaxThreads:    runtime.GOMAXPROCS(0),
		MinAnchorLen:  DefaultMinAnchorLen,
		MinExtension:  DefaultMinExtension,
		MaxDegree:     DefaultMaxDegree,
		MaxVertices:   DefaultMaxVertices,
		MaxEdges:      DefaultMaxEdges,
		MaxComponents: DefaultMaxComponents,
	}
}

func (opts *Options) setDefaults() {
	if opts.MaxThreads <= 0 {
		opts.MaxThreads = runtime.GOMAXPROCS(0)
	}
	if opts.MinAnchorLen == 0 {
		opts.MinAnchorLen = DefaultMinAnchorLen
	}
	if opts.MinExtension == 0 {
		opts.MinExtension = DefaultMinExtension
	}
	if opts.MaxVertices == 0 {
		opts.MaxVertices = DefaultMaxVertices
	}
	if opts.MaxEdges == 0 {
		opts.MaxEdges = DefaultMaxEdges
	}
	if opts.MaxComponents == 0 {
		opts.MaxComponents = DefaultMaxComponents
	}
}

// Stats collects counters from the load and finalisation phases.
type Stats struct {
	AcceptedOverlaps    uint64
	BelowMinScore       uint64
	AntisenseSkipped    uint64
	InferredEdges       uint64
	DuplicateEdges      uint64
	HairpinVertices     uint64
	HairpinEdges        uint64
	TruncatedOutEdges   uint64
	TruncatedInEdges    uint64
	CyclesSkipped       uint64
	RetainedEdges       uint64
	SingletonComponents uint64
}

func newRunID() string {
	return uuid.New().String()
}
