package cdda

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrPoolExhausted is returned by a Pool with no free buffers.
var ErrPoolExhausted = errors.New("cdda: buffer pool exhausted")

// Buffer holds one raw sector. Release returns it to its allocator; calling
// Release more than once is harmless.
type Buffer struct {
	Data   []byte
	Sector int

	released atomic.Bool
	release  func(*Buffer)
}

// Release hands the buffer back. The Data slice must not be used afterwards.
func (b *Buffer) Release() {
	if b == nil || !b.released.CompareAndSwap(false, true) {
		return
	}
	if b.release != nil {
		b.release(b)
	}
}

// Released reports whether Release has been called.
func (b *Buffer) Released() bool {
	return b != nil && b.released.Load()
}

// Allocator supplies sector buffers to a session.
type Allocator interface {
	Allocate(size int) (*Buffer, error)
}

// HeapAllocator returns a fresh slice for every buffer.
type HeapAllocator struct{}

// Allocate implements Allocator.
func (HeapAllocator) Allocate(size int) (*Buffer, error) {
	return &Buffer{Data: make([]byte, size)}, nil
}

// Pool recycles buffers and bounds how many may be outstanding at once.
type Pool struct {
	limit       int
	outstanding atomic.Int64
	free        sync.Pool
}

// NewPool creates a pool allowing limit outstanding buffers. A limit of zero
// or less means unbounded.
func NewPool(limit int) *Pool {
	return &Pool{limit: limit}
}

// Allocate implements Allocator.
func (p *Pool) Allocate(size int) (*Buffer, error) {
	n := p.outstanding.Add(1)
	if p.limit > 0 && n > int64(p.limit) {
		p.outstanding.Add(-1)
		return nil, ErrPoolExhausted
	}
	var data []byte
	if v, ok := p.free.Get().(*[]byte); ok && cap(*v) >= size {
		data = (*v)[:size]
		clear(data)
	} else {
		data = make([]byte, size)
	}
	return &Buffer{Data: data, release: p.put}, nil
}

// Outstanding returns the number of buffers not yet released.
func (p *Pool) Outstanding() int {
	return int(p.outstanding.Load())
}

func (p *Pool) put(b *Buffer) {
	data := b.Data
	b.Data = nil
	p.free.Put(&data)
	p.outstanding.Add(-1)
}
