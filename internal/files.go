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

package internal

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// FullPathname returns filename as an absolute path, relative to the
// current working directory.
func FullPathname(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	wd, err := os.Getwd()
	return filepath.Join(wd, filename), err
}

type inputFile struct {
	io.Reader
	file    *os.File
	closers []func() error
}

func (f *inputFile) Close() (err error) {
	for i := len(f.closers) - 1; i >= 0; i-- {
		if nerr := f.closers[i](); err == nil {
			err = nerr
		}
	}
	if nerr := f.file.Close(); err == nil {
		err = nerr
	}
	return err
}

// OpenInput opens a file for reading. Gzip (including BGZF) and zstd
// compressed files are detected by their magic bytes and decompressed
// transparently.
func OpenInput(filename string) (io.ReadCloser, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewReaderSize(file, 0x10000)
	magic, err := buf.Peek(4)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		_ = file.Close()
		return nil, err
	}
	in := &inputFile{Reader: buf, file: file}
	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		gz, err := gzip.NewReader(buf)
		if err != nil {
			_ = file.Close()
			return nil, err
		}
		in.Reader = gz
		in.closers = append(in.closers, gz.Close)
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(buf)
		if err != nil {
			_ = file.Close()
			return nil, err
		}
		in.Reader = zr
		in.closers = append(in.closers, func() error {
			zr.Close()
			return nil
		})
	}
	return in, nil
}
