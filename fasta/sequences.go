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

package fasta

import (
	"io"
)

var complementTable [256]byte

func init() {
	for i := range complementTable {
		complementTable[i] = byte(i)
	}
	for _, pair := range []string{"AT", "CG", "RY", "KM", "BV", "DH", "NN", "SS", "WW"} {
		a, b := pair[0], pair[1]
		complementTable[a], complementTable[b] = b, a
		la, lb := a+'a'-'A', b+'a'-'A'
		complementTable[la], complementTable[lb] = lb, la
	}
	complementTable['U'], complementTable['u'] = 'A', 'a'
}

// Complement returns the complement of a nucleotide, including IUPAC
// ambiguity codes. Case is preserved; other characters are returned
// unchanged.
func Complement(base byte) byte {
	return complementTable[base]
}

// ReverseComplement reverse complements seq in place.
func ReverseComplement(seq []byte) {
	for i, j := 0, len(seq)-1; i <= j; i, j = i+1, j-1 {
		seq[i], seq[j] = complementTable[seq[j]], complementTable[seq[i]]
	}
}

// DefaultLineWidth is the number of bases per line written by WriteRecord.
const DefaultLineWidth = 80

// WriteRecord writes a FASTA record with the given header (without the
// leading '>'), wrapping the sequence at width bases per line.
func WriteRecord(w io.Writer, header string, seq []byte, width int) error {
	if width <= 0 {
		width = DefaultLineWidth
	}
	buf := make([]byte, 0, len(header)+2+len(seq)+len(seq)/width+1)
	buf = append(buf, '>')
	buf = append(buf, header...)
	buf = append(buf, '\n')
	for len(seq) > width {
		buf = append(buf, seq[:width]...)
		buf = append(buf, '\n')
		seq = seq[width:]
	}
	if len(seq) > 0 {
		buf = append(buf, seq...)
		buf = append(buf, '\n')
	}
	_, err := w.Write(buf)
	return err
}
