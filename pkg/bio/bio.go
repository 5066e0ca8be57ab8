// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-tlsengine.
//
// go-tlsengine is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package bio provides the byte bridge between a TLS stack's push/pull
// I/O hooks and caller-supplied buffers: an in-memory FIFO byte queue
// with append-at-tail, consume-from-head semantics and unbounded growth.
//
// A Buffer never blocks and is the only conduit between the application
// buffer and the TLS stack; it is not synchronized and must be used by a
// single engine instance at a time.
package bio

// Buffer is a growable FIFO byte queue. The zero value is not usable;
// call New.
type Buffer struct {
	chunks    [][]byte
	headOff   int
	available int
}

// New creates an empty byte bridge.
func New() *Buffer {
	return &Buffer{}
}

// Put appends data to the tail of the queue, growing as needed. The data
// is copied; the caller keeps ownership of its buffer.
func (b *Buffer) Put(data []byte) {
	if len(data) == 0 {
		return
	}
	chunk := make([]byte, len(data))
	copy(chunk, data)
	b.chunks = append(b.chunks, chunk)
	b.available += len(data)
}

// Read removes up to len(out) bytes from the head of the queue and copies
// them into out. It returns the number of bytes copied, which is fewer
// than requested if fewer are queued, and 0 if the queue is empty.
func (b *Buffer) Read(out []byte) int {
	total := 0
	for total < len(out) && len(b.chunks) > 0 {
		head := b.chunks[0][b.headOff:]
		n := copy(out[total:], head)
		total += n
		if n == len(head) {
			b.chunks[0] = nil
			b.chunks = b.chunks[1:]
			b.headOff = 0
		} else {
			b.headOff += n
		}
	}
	b.available -= total
	return total
}

// Available returns the number of queued bytes without consuming them.
func (b *Buffer) Available() int {
	return b.available
}

// Clear discards all queued bytes.
func (b *Buffer) Clear() {
	b.chunks = nil
	b.headOff = 0
	b.available = 0
}
