// Package buffer provides the append-only byte buffer that collects
// encoder packets.
package buffer

import (
	"errors"
	"fmt"
	"math"
)

// ErrTooLarge is returned when a buffer cannot grow to hold more data.
var ErrTooLarge = errors.New("buffer: too large")

// Allocator supplies the backing storage of a Buffer.
type Allocator interface {
	// Alloc returns a block of exactly n bytes.
	Alloc(n int) ([]byte, error)

	// Free releases a block previously returned by Alloc.
	Free(block []byte)
}

// HeapAllocator allocates blocks on the Go heap and lets the garbage
// collector reclaim them.
type HeapAllocator struct{}

// Alloc returns a new zeroed block.
func (HeapAllocator) Alloc(n int) ([]byte, error) {
	return make([]byte, n), nil
}

// Free does nothing.
func (HeapAllocator) Free([]byte) {}

// Buffer accumulates bytes in arrival order. Growth is geometric so a
// sequence of appends costs amortized O(1) per byte, but only the bytes
// appended so far are ever visible.
//
// The zero value is an empty buffer backed by the Go heap.
type Buffer struct {
	alloc   Allocator
	block   []byte
	size    int
	MaxSize int // Upper bound on Len; 0 means no limit
}

// New returns an empty buffer backed by alloc.
func New(alloc Allocator) *Buffer {
	return &Buffer{alloc: alloc}
}

// Len returns the number of bytes appended so far.
func (b *Buffer) Len() int {
	return b.size
}

// Bytes returns the appended bytes. The slice is valid until the next
// call to Append, Free or Reset.
func (b *Buffer) Bytes() []byte {
	return b.block[:b.size:b.size]
}

// Append copies p to the end of the buffer. On failure the buffer keeps
// its previous contents.
func (b *Buffer) Append(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	limit := b.MaxSize
	if limit <= 0 {
		limit = math.MaxInt
	}
	if len(p) > limit-b.size {
		return fmt.Errorf("append %d bytes to %d: %w", len(p), b.size, ErrTooLarge)
	}
	need := b.size + len(p)
	if need > len(b.block) {
		if err := b.grow(need, limit); err != nil {
			return err
		}
	}
	copy(b.block[b.size:], p)
	b.size = need
	return nil
}

func (b *Buffer) grow(need, limit int) error {
	capacity := 2 * len(b.block)
	if capacity < 64 {
		capacity = 64
	}
	if capacity < need || capacity > limit {
		capacity = need
	}
	block, err := b.allocator().Alloc(capacity)
	if err != nil {
		return fmt.Errorf("allocate %d bytes: %w", capacity, errors.Join(ErrTooLarge, err))
	}
	copy(block, b.block[:b.size])
	if b.block != nil {
		b.allocator().Free(b.block)
	}
	b.block = block
	return nil
}

// Reset empties the buffer but keeps its storage.
func (b *Buffer) Reset() {
	b.size = 0
}

// Free releases the storage. Calling Free on an empty or already freed
// buffer does nothing; the buffer may be reused afterwards.
func (b *Buffer) Free() {
	if b.block != nil {
		b.allocator().Free(b.block)
	}
	b.block = nil
	b.size = 0
}

func (b *Buffer) allocator() Allocator {
	if b.alloc == nil {
		return HeapAllocator{}
	}
	return b.alloc
}
