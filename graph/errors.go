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
	"errors"
	"fmt"
)

var (
	// ErrInvalidReference is returned when an overlap refers to a
	// SequenceID for which no vertex was added, or when a SequenceID was
	// added twice.
	ErrInvalidReference = errors.New("invalid sequence reference")

	// ErrInvalidRange is returned when alignment offsets are inconsistent
	// with the sequence lengths, or the aligned region is shorter than the
	// minimum anchor length.
	ErrInvalidRange = errors.New("invalid alignment range")

	// ErrInvalidClass is returned when an overlap that is not classified as
	// Overlapping is passed to AddEdge or AddEdges.
	ErrInvalidClass = errors.New("overlap class not accepted")

	// ErrCapacityExceeded is returned when a vertex, edge or component
	// ceiling is reached.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrOutOfMemory is returned when an arena cannot be grown any further.
	ErrOutOfMemory = errors.New("arena growth failed")

	// ErrCircularPath is returned when a traversal meets a vertex that is
	// already assigned to another component.
	ErrCircularPath = errors.New("inconsistent component traversal")

	// ErrScoreOverflow is returned when a path score does not fit in 64 bits.
	ErrScoreOverflow = errors.New("path score overflow")

	// ErrIO wraps failures of the exporters.
	ErrIO = errors.New("i/o error")

	// ErrTerminated is returned by every call on a Graph after a fatal
	// error occurred.
	ErrTerminated = errors.New("graph construction terminated")

	// ErrPhase is returned when an operation is called before the phase it
	// depends on has completed.
	ErrPhase = errors.New("operation called out of phase")
)

type terminatedError struct {
	cause error
}

func (err terminatedError) Error() string {
	return fmt.Sprintf("%v: %v", ErrTerminated, err.cause)
}

func (err terminatedError) Unwrap() error {
	return err.cause
}

func (err terminatedError) Is(target error) bool {
	return target == ErrTerminated
}

func ioError(op string, err error) error {
	return fmt.Errorf("%w during %v: %v", ErrIO, op, err)
}
