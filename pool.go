package rkiva

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// Block is a frame sized chunk of memory that input images are written into
// before being pushed to the engine
type Block interface {
	// Bytes returns the CPU view of the block
	Bytes() []byte
	// Fd returns the DMA buffer file descriptor, or -1 for heap memory
	Fd() int
	// FlushCache makes CPU writes visible to the device
	FlushCache() error
}

// ErrPoolClosed is returned when getting a block from a closed pool
var ErrPoolClosed = errors.Mark(errors.New("block pool is closed"), ErrResource)

// heapBlock is a Block backed by Go memory
type heapBlock struct {
	buf []byte
}

func (b *heapBlock) Bytes() []byte { return b.buf }

func (b *heapBlock) Fd() int { return -1 }

// FlushCache is a no-op, Go memory is coherent for the simulated engine
func (b *heapBlock) FlushCache() error { return nil }

// HeapPool is a fixed size pool of blocks allocated on the Go heap.  It has
// the same behaviour as the MBPool used on hardware so the frame pump can run
// against the simulated engine.
type HeapPool struct {
	// blocks available for use
	blocks chan Block
	// size of each block in bytes
	blockSize int
	count     int
	closed    bool
	mu        sync.Mutex
	close     sync.Once
}

// NewHeapPool creates a pool of count blocks, each blockSize bytes
func NewHeapPool(blockSize, count int) (*HeapPool, error) {

	if blockSize <= 0 || count <= 0 {
		return nil, errors.Mark(errors.Newf("invalid pool size %d x %d bytes",
			count, blockSize), ErrResource)
	}

	p := &HeapPool{
		blocks:    make(chan Block, count),
		blockSize: blockSize,
		count:     count,
	}

	for i := 0; i < count; i++ {
		p.blocks <- &heapBlock{buf: make([]byte, blockSize)}
	}

	return p, nil
}

// Get takes a block from the pool, it does not block and returns an error if
// the pool is exhausted
func (p *HeapPool) Get() (Block, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	select {
	case b := <-p.blocks:
		return b, nil
	default:
		return nil, errors.Mark(errors.Newf("all %d blocks in use", p.count), ErrResource)
	}
}

// Put returns a block to the pool
func (p *HeapPool) Put(b Block) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	if len(b.Bytes()) != p.blockSize {
		return errors.Newf("block of %d bytes does not belong to pool of %d byte blocks",
			len(b.Bytes()), p.blockSize)
	}

	select {
	case p.blocks <- b:
	default:
		// pool is full
		return errors.New("block returned to a full pool")
	}

	return nil
}

// Close the pool and drop all blocks in it
func (p *HeapPool) Close() error {
	p.close.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		p.closed = true
		close(p.blocks)

		for range p.blocks {
		}
	})

	return nil
}
