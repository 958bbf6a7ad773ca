//go:build rockiva

package rkiva

/*
#cgo LDFLAGS: -lrockit
#include <string.h>
#include "rk_mpi_sys.h"
#include "rk_mpi_mb.h"
#include "rk_mpi_mmz.h"

static MB_POOL mbCreatePool(RK_U64 size, RK_U32 count) {
	MB_POOL_CONFIG_S cfg;
	memset(&cfg, 0, sizeof(MB_POOL_CONFIG_S));
	cfg.u64MBSize = size;
	cfg.u32MBCnt = count;
	cfg.enAllocType = MB_ALLOC_TYPE_DMA;
	cfg.bPreAlloc = RK_FALSE;
	return RK_MPI_MB_CreatePool(&cfg);
}
*/
import "C"
import (
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// SysInit wraps RK_MPI_SYS_Init and must be called before creating an MBPool
// or the IVA engine
func SysInit() error {

	ret := C.RK_MPI_SYS_Init()

	if ret != C.RK_SUCCESS {
		return errors.Mark(NewCallError("RK_MPI_SYS_Init", ErrorCodes(ret)), ErrResource)
	}

	return nil
}

// SysExit wraps RK_MPI_SYS_Exit
func SysExit() error {

	ret := C.RK_MPI_SYS_Exit()

	if ret != C.RK_SUCCESS {
		return NewCallError("RK_MPI_SYS_Exit", ErrorCodes(ret))
	}

	return nil
}

// mbBlock is a DMA media buffer block
type mbBlock struct {
	blk C.MB_BLK
	buf []byte
	fd  int
}

func (b *mbBlock) Bytes() []byte { return b.buf }

func (b *mbBlock) Fd() int { return b.fd }

// FlushCache wraps RK_MPI_SYS_MmzFlushCache, the NPU is not cache coherent
// with the CPU so written frame data must be flushed before pushing
func (b *mbBlock) FlushCache() error {

	ret := C.RK_MPI_SYS_MmzFlushCache(b.blk, C.RK_FALSE)

	if ret != C.RK_SUCCESS {
		return NewCallError("RK_MPI_SYS_MmzFlushCache", ErrorCodes(ret))
	}

	return nil
}

// MBPool is a pool of DMA media buffer blocks allocated by RK_MPI_MB
type MBPool struct {
	id        C.MB_POOL
	blockSize int
	count     int
	mu        sync.Mutex
	inUse     int
	closed    bool
	close     sync.Once
}

// NewMBPool wraps RK_MPI_MB_CreatePool to create a DMA pool of count blocks
// of blockSize bytes
func NewMBPool(blockSize, count int) (*MBPool, error) {

	id := C.mbCreatePool(C.RK_U64(blockSize), C.RK_U32(count))

	if id == C.MB_INVALID_POOLID {
		return nil, errors.Mark(errors.Newf("create mb pool of %d x %d bytes failed",
			count, blockSize), ErrResource)
	}

	return &MBPool{
		id:        id,
		blockSize: blockSize,
		count:     count,
	}, nil
}

// Get wraps RK_MPI_MB_GetMB and maps the block into the process
func (p *MBPool) Get() (Block, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	if p.inUse >= p.count {
		return nil, errors.Mark(errors.Newf("all %d blocks in use", p.count), ErrResource)
	}

	blk := C.RK_MPI_MB_GetMB(p.id, C.RK_U64(p.blockSize), C.RK_TRUE)

	if blk == C.MB_INVALID_HANDLE {
		return nil, errors.Mark(errors.New("get mb block failed"), ErrResource)
	}

	vaddr := C.RK_MPI_MB_Handle2VirAddr(blk)
	fd := C.RK_MPI_MB_Handle2Fd(blk)

	p.inUse++

	return &mbBlock{
		blk: blk,
		buf: unsafe.Slice((*byte)(vaddr), p.blockSize),
		fd:  int(fd),
	}, nil
}

// Put wraps RK_MPI_MB_ReleaseMB
func (p *MBPool) Put(b Block) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	mb, ok := b.(*mbBlock)

	if !ok {
		return errors.New("block was not allocated by an MBPool")
	}

	ret := C.RK_MPI_MB_ReleaseMB(mb.blk)
	mb.buf = nil
	p.inUse--

	if ret != C.RK_SUCCESS {
		return NewCallError("RK_MPI_MB_ReleaseMB", ErrorCodes(ret))
	}

	return nil
}

// Close wraps RK_MPI_MB_DestroyPool
func (p *MBPool) Close() error {

	var err error

	p.close.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		p.closed = true
		ret := C.RK_MPI_MB_DestroyPool(p.id)

		if ret != C.RK_SUCCESS {
			err = NewCallError("RK_MPI_MB_DestroyPool", ErrorCodes(ret))
		}
	})

	return err
}
