package frame

import (
	"errors"
	"fmt"
	"image"
	"unsafe"
)

// DefaultAlignment is the byte alignment of frame pixel memory.
const DefaultAlignment = 32

var (
	ErrInvalidSize = errors.New("frame: invalid size")
	ErrTooLarge    = errors.New("frame: size exceeds pixel limit")
)

// Allocator creates frames.
type Allocator interface {
	Allocate(size image.Point) (*Frame, error)
}

// AlignedAllocator allocates frames whose first pixel sits on an Alignment
// byte boundary.
type AlignedAllocator struct {
	Alignment int
	// MaxPixels caps width*height; zero means no cap.
	MaxPixels int
}

// NewAllocator returns an allocator using DefaultAlignment.
func NewAllocator(maxPixels int) *AlignedAllocator {
	return &AlignedAllocator{
		Alignment: DefaultAlignment,
		MaxPixels: maxPixels,
	}
}

func (a *AlignedAllocator) Allocate(size image.Point) (*Frame, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, size.X, size.Y)
	}
	if a.MaxPixels > 0 && size.X*size.Y > a.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d > %d", ErrTooLarge, size.X, size.Y, a.MaxPixels)
	}

	align := a.Alignment
	if align <= 0 {
		align = DefaultAlignment
	}
	if align&(align-1) != 0 {
		return nil, fmt.Errorf("frame: alignment %d is not a power of two", align)
	}

	stride := size.X * BytesPerPixel
	return &Frame{
		size:   size,
		stride: stride,
		pix:    alignedBytes(stride*size.Y, align),
	}, nil
}

// alignedBytes over-allocates by align bytes and slices from the first
// aligned address. The Go heap does not move objects, so the alignment holds
// for the slice's lifetime.
func alignedBytes(n, align int) []byte {
	buf := make([]byte, n+align)
	off := 0
	if rem := int(uintptr(unsafe.Pointer(&buf[0])) & uintptr(align-1)); rem != 0 {
		off = align - rem
	}
	return buf[off : off+n : off+n]
}
