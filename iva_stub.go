//go:build !rockiva

package rkiva

// IVA is unavailable without the rockiva build tag
type IVA struct{}

// NewIVA returns ErrUnsupported when built without the rockiva build tag
func NewIVA(cfg Config, onResult ResultHandler, onRelease ReleaseHandler) (*IVA, error) {
	return nil, ErrUnsupported
}

// PushFrame returns ErrUnsupported
func (iva *IVA) PushFrame(img *Image) error {
	return ErrUnsupported
}

// Close is a no-op
func (iva *IVA) Close() error {
	return nil
}

// MBPool is unavailable without the rockiva build tag
type MBPool struct{}

// NewMBPool returns ErrUnsupported when built without the rockiva build tag
func NewMBPool(blockSize, count int) (*MBPool, error) {
	return nil, ErrUnsupported
}

// Get returns ErrUnsupported
func (p *MBPool) Get() (Block, error) {
	return nil, ErrUnsupported
}

// Put returns ErrUnsupported
func (p *MBPool) Put(b Block) error {
	return ErrUnsupported
}

// Close is a no-op
func (p *MBPool) Close() error {
	return nil
}

// SysInit returns ErrUnsupported when built without the rockiva build tag
func SysInit() error {
	return ErrUnsupported
}

// SysExit is a no-op
func SysExit() error {
	return nil
}

// Available reports if the hardware engine was compiled in
func Available() bool {
	return false
}
