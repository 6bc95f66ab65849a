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
	"bufio"
	"fmt"
	"unicode"

	"github.com/kit4b/kit4b-sub002/internal"
)

// maxLineLength bounds the length of a single FASTA line. Long reads are
// frequently stored unwrapped, one read per line.
const maxLineLength = 1 << 30

// Catalog holds a set of sequences, each identified by a dense SequenceID
// starting at 1 in input order.
type Catalog struct {
	descriptors []string
	names       []string
	seqs        [][]byte
	index       map[string]uint32
	mapped      *mappedFile
}

func newCatalog() *Catalog {
	return &Catalog{index: make(map[string]uint32)}
}

// add appends a sequence and returns its SequenceID.
func (c *Catalog) add(descriptor string, seq []byte) (uint32, error) {
	name := nameFromDescriptor(descriptor)
	if _, found := c.index[name]; found {
		return 0, fmt.Errorf("duplicate sequence name %v", name)
	}
	c.descriptors = append(c.descriptors, descriptor)
	c.names = append(c.names, name)
	c.seqs = append(c.seqs, seq)
	id := uint32(len(c.seqs))
	c.index[name] = id
	return id, nil
}

// Len returns the number of sequences in the catalog.
func (c *Catalog) Len() int {
	return len(c.seqs)
}

func (c *Catalog) valid(id uint32) bool {
	return id > 0 && int(id) <= len(c.seqs)
}

// Length returns the length of the sequence, or 0 for an unknown id.
func (c *Catalog) Length(id uint32) uint32 {
	if !c.valid(id) {
		return 0
	}
	return uint32(len(c.seqs[id-1]))
}

// FetchBases returns a copy of length bases of the sequence, starting at
// the given 0-based offset.
func (c *Catalog) FetchBases(id, offset, length uint32) ([]byte, error) {
	if !c.valid(id) {
		return nil, fmt.Errorf("unknown sequence %v", id)
	}
	seq := c.seqs[id-1]
	if end := uint64(offset) + uint64(length); end > uint64(len(seq)) {
		return nil, fmt.Errorf("range %v..%v outside sequence %v of length %v", offset, end, c.names[id-1], len(seq))
	}
	result := make([]byte, length)
	copy(result, seq[offset:offset+length])
	return result, nil
}

// Descriptor returns the header line of the sequence, without the leading
// '>'.
func (c *Catalog) Descriptor(id uint32) string {
	if !c.valid(id) {
		return ""
	}
	return c.descriptors[id-1]
}

// Name returns the first word of the header line of the sequence.
func (c *Catalog) Name(id uint32) string {
	if !c.valid(id) {
		return ""
	}
	return c.names[id-1]
}

// Seq returns the sequence itself. The result shares memory with the
// catalog.
func (c *Catalog) Seq(id uint32) []byte {
	if !c.valid(id) {
		return nil
	}
	return c.seqs[id-1]
}

// Lookup returns the SequenceID for a sequence name.
func (c *Catalog) Lookup(name string) (uint32, bool) {
	id, ok := c.index[name]
	return id, ok
}

func nameFromDescriptor(descriptor string) string {
	i := 0
	for ; i < len(descriptor); i++ {
		if c := descriptor[i]; c >= '!' && c <= '~' {
			break
		}
	}
	j := i
	for ; j < len(descriptor); j++ {
		if c := descriptor[j]; c < '!' || c > '~' {
			break
		}
	}
	return descriptor[i:j]
}

func descriptorFromHeader(b []byte) string {
	i, j := 1, len(b)
	for ; i < j && (b[i] == ' ' || b[i] == '\t'); i++ {
	}
	for ; j > i && (b[j-1] == ' ' || b[j-1] == '\t' || b[j-1] == '\r'); j-- {
	}
	return string(b[i:j])
}

var iupacTable = map[byte]byte{
	'A': 'A', 'a': 'a',
	'C': 'C', 'c': 'c',
	'G': 'G', 'g': 'g',
	'T': 'T', 't': 't',
	'N': 'N', 'n': 'N',
	'R': 'N', 'r': 'N',
	'Y': 'N', 'y': 'N',
	'M': 'N', 'm': 'N',
	'K': 'N', 'k': 'N',
	'W': 'N', 'w': 'N',
	'S': 'N', 's': 'N',
	'B': 'N', 'b': 'N',
	'D': 'N', 'd': 'N',
	'H': 'N', 'h': 'N',
	'V': 'N', 'v': 'N',
}

// ToN can be used to normalize ambiguity codes in FASTA sequences.
func ToN(base byte) byte {
	if n, ok := iupacTable[base]; ok {
		return n
	}
	return base
}

// ParseFasta sequentially parses a FASTA file, which may be gzip or zstd
// compressed, into a Catalog.
//
// If toUpper is true, the contents are converted to upper case.
// If toN is true, ambiguity codes are normalized.
func ParseFasta(filename string, toUpper, toN bool) (catalog *Catalog, err error) {
	f, err := internal.OpenInput(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := f.Close(); err == nil {
			err = nerr
		}
	}()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 0x10000), maxLineLength)

	var b []byte
	for len(b) == 0 {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("empty fasta file %v", filename)
		}
		b = scanner.Bytes()
	}
	if b[0] != '>' {
		return nil, fmt.Errorf("invalid fasta file %v - missing first header", filename)
	}

	catalog = newCatalog()
	descriptor := descriptorFromHeader(b)
	var seq []byte

	flush := func() error {
		if len(seq) == 0 {
			return fmt.Errorf("invalid fasta file %v - empty sequence %v", filename, descriptor)
		}
		_, err := catalog.add(descriptor, seq)
		return err
	}

	for scanner.Scan() {
		b := scanner.Bytes()
		if len(b) > 0 && b[len(b)-1] == '\r' {
			b = b[:len(b)-1]
		}
		if len(b) == 0 {
			continue
		}
		if b[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			descriptor = descriptorFromHeader(b)
			seq = nil
			continue
		}
		if toUpper {
			for i, c := range b {
				b[i] = byte(unicode.ToUpper(rune(c)))
			}
		}
		if toN {
			for i, c := range b {
				if n, ok := iupacTable[c]; ok {
					b[i] = n
				}
			}
		}
		seq = append(seq, b...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return catalog, nil
}
