package mocks

import (
	"errors"
	"sync"

	"github.com/user/av1still/pkg/buffer"
)

// ErrAllocFailed is returned by Allocator when a failure is injected.
var ErrAllocFailed = errors.New("mocks: allocation failed")

// Allocator is a buffer.Allocator that tracks every block it hands out.
// Freed blocks stay referenced so their addresses are never reused while
// the allocator is alive.
type Allocator struct {
	mu    sync.Mutex
	live  map[*byte]int
	freed map[*byte]bool

	// FailAt makes the n-th Alloc call (1-based) fail. Zero disables it.
	FailAt int

	// Recorded calls for verification
	Allocs       int
	Frees        int
	DoubleFrees  int
	ForeignFrees int
}

// NewAllocator creates a new tracking allocator.
func NewAllocator() *Allocator {
	return &Allocator{
		live:  make(map[*byte]int),
		freed: make(map[*byte]bool),
	}
}

func (a *Allocator) Alloc(n int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.FailAt > 0 && a.Allocs+1 == a.FailAt {
		a.FailAt = 0
		return nil, ErrAllocFailed
	}
	a.Allocs++
	block := make([]byte, n)
	if n > 0 {
		a.live[&block[0]] = n
	}
	return block, nil
}

func (a *Allocator) Free(block []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(block) == 0 {
		return
	}
	key := &block[0]
	if _, ok := a.live[key]; !ok {
		if a.freed[key] {
			a.DoubleFrees++
		} else {
			a.ForeignFrees++
		}
		return
	}
	delete(a.live, key)
	a.freed[key] = true
	a.Frees++
}

// Outstanding returns the number of blocks allocated but not yet freed.
func (a *Allocator) Outstanding() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

var _ buffer.Allocator = (*Allocator)(nil)
