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
	"io"
	"sync"
)

// ChunkSize is the size at which a ChunkWriter flushes its buffer.
const ChunkSize = 0x10000

var bufPool = sync.Pool{New: func() interface{} {
	return make([]byte, 0, ChunkSize+0x1000)
}}

/*
ReserveByteBuffer uses a sync.Pool to either reuse or make a slice of
bytes of length 0, but of capacity potentially larger than 0.

Use ReleaseByteBuffer to return slices of bytes to the internal pool.
*/
func ReserveByteBuffer() []byte {
	return bufPool.Get().([]byte)[:0]
}

/*
ReleaseByteBuffer returns the given slice of bytes to the internal
sync.Pool from which ReserveByteBuffer can fetch it again.
*/
func ReleaseByteBuffer(buf []byte) {
	bufPool.Put(buf[:0])
}

// A ChunkWriter collects output in a pooled byte buffer and writes it to
// the underlying writer in chunks of about ChunkSize bytes. The first
// write error is retained and reported by Close; later writes are
// discarded.
type ChunkWriter struct {
	Buf []byte
	w   io.Writer
	err error
}

// NewChunkWriter returns a ChunkWriter for w.
func NewChunkWriter(w io.Writer) *ChunkWriter {
	return &ChunkWriter{Buf: ReserveByteBuffer(), w: w}
}

// Check flushes the buffer when it nears ChunkSize. Callers append to Buf
// directly and call Check after each record.
func (cw *ChunkWriter) Check() {
	if len(cw.Buf) >= ChunkSize {
		cw.Flush()
	}
}

// Flush writes the buffered bytes.
func (cw *ChunkWriter) Flush() {
	if cw.err == nil && len(cw.Buf) > 0 {
		_, cw.err = cw.w.Write(cw.Buf)
	}
	cw.Buf = cw.Buf[:0]
}

// Close flushes the remaining bytes, releases the buffer, and returns the
// first write error.
func (cw *ChunkWriter) Close() error {
	cw.Flush()
	ReleaseByteBuffer(cw.Buf)
	cw.Buf = nil
	return cw.err
}
