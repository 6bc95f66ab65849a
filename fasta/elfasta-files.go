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
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// ElfastaMagic is the magic byte sequence that every .elfasta catalog
// file starts with.
var ElfastaMagic = []byte{0x31, 0xFA, 0x57, 0xA2} // 31FA57A2 => ELFASTA2

const entrySlotSize = 2 * binary.MaxVarintLen64

type mappedFile struct {
	data []byte
	file *os.File
}

// ToElfasta stores a catalog into an mmappable .elfasta file. Sequences
// keep their order, and hence their SequenceIDs.
func ToElfasta(catalog *Catalog, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()

	out := bufio.NewWriter(file)
	offset := 0
	write := func(b []byte) {
		if err == nil {
			var n int
			n, err = out.Write(b)
			offset += n
		}
	}
	write(ElfastaMagic)
	slots := make([]int, catalog.Len())
	var empty [entrySlotSize]byte
	for i, descriptor := range catalog.descriptors {
		write([]byte(strings.Replace(descriptor, "\t", " ", -1)))
		write([]byte{'\t'})
		slots[i] = offset
		write(empty[:])
	}
	write([]byte{'\n'})
	offsets := make([]int, catalog.Len())
	for i, seq := range catalog.seqs {
		offsets[i] = offset
		write(seq)
	}
	if err == nil {
		err = out.Flush()
	}
	if err != nil {
		return err
	}

	data, err := unix.Mmap(int(file.Fd()), 0, offset, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return err
	}
	for i, slot := range slots {
		binary.PutVarint(data[slot:slot+binary.MaxVarintLen64], int64(offsets[i]))
		binary.PutVarint(data[slot+binary.MaxVarintLen64:slot+entrySlotSize], int64(len(catalog.seqs[i])))
	}
	return unix.Munmap(data)
}

// OpenElfasta opens a .elfasta file as a Catalog. The sequences share
// memory with the mapped file; call Close to unmap it.
func OpenElfasta(filename string) (catalog *Catalog, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if stat.Size() < int64(len(ElfastaMagic))+1 {
		_ = file.Close()
		return nil, fmt.Errorf("%v is not a .elfasta file - too short", filename)
	}
	data, err := unix.Mmap(int(file.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	fail := func(format string, v ...interface{}) (*Catalog, error) {
		_ = unix.Munmap(data)
		_ = file.Close()
		return nil, fmt.Errorf(format, v...)
	}
	for i, b := range ElfastaMagic {
		if data[i] != b {
			return fail("%v is not a .elfasta file - invalid magic byte sequence", filename)
		}
	}

	catalog = newCatalog()
	index := len(ElfastaMagic)
	for index < len(data) && data[index] != '\n' {
		start := index
		for ; index < len(data) && data[index] != '\t'; index++ {
		}
		if index+1+entrySlotSize > len(data) {
			return fail("truncated entry table in elfasta file %v", filename)
		}
		descriptor := string(data[start:index])
		index++
		offset, n := binary.Varint(data[index : index+binary.MaxVarintLen64])
		if n <= 0 {
			return fail("bad number of bytes while parsing offset in elfasta file %v", filename)
		}
		size, n := binary.Varint(data[index+binary.MaxVarintLen64 : index+entrySlotSize])
		if n <= 0 {
			return fail("bad number of bytes while parsing size in elfasta file %v", filename)
		}
		if offset < 0 || size < 0 || offset+size > int64(len(data)) {
			return fail("sequence %v outside elfasta file %v", descriptor, filename)
		}
		end := int(offset + size)
		if _, err := catalog.add(descriptor, data[int(offset):end:end]); err != nil {
			return fail("%v in elfasta file %v", err, filename)
		}
		index += entrySlotSize
	}
	catalog.mapped = &mappedFile{data: data, file: file}
	return catalog, nil
}

// Close releases the memory mapping of a catalog opened with OpenElfasta.
// It has no effect on other catalogs.
func (c *Catalog) Close() error {
	if c.mapped == nil {
		return nil
	}
	err := unix.Munmap(c.mapped.data)
	if nerr := c.mapped.file.Close(); err == nil {
		err = nerr
	}
	c.mapped = nil
	c.descriptors, c.names, c.seqs, c.index = nil, nil, nil, nil
	return err
}
