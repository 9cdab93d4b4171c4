// Package frame holds captured pixels together with the region that changed
// since the previous capture.
package frame

import (
	"image"

	"github.com/rviscarra/mirror-capture/internal/region"
)

// BytesPerPixel is the size of one ARGB32 pixel. Pixels are stored as
// little-endian 32-bit words, so the byte order in memory is B, G, R, A.
const BytesPerPixel = 4

// Frame is a 32-bit ARGB pixel buffer of fixed size.
type Frame struct {
	size    image.Point
	stride  int
	pix     []byte
	updated region.Region
	topLeft image.Point
}

// Size returns the frame dimensions in pixels.
func (f *Frame) Size() image.Point {
	return f.size
}

// Bounds returns the frame rectangle in frame-local coordinates.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rectangle{Max: f.size}
}

// Stride is the distance in bytes between vertically adjacent pixels.
func (f *Frame) Stride() int {
	return f.stride
}

// Pix returns the backing pixel memory.
func (f *Frame) Pix() []byte {
	return f.pix
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (f *Frame) PixOffset(x, y int) int {
	return y*f.stride + x*BytesPerPixel
}

// UpdatedRegion returns the rectangles refreshed by the last capture, in
// frame-local coordinates.
func (f *Frame) UpdatedRegion() region.Region {
	return f.updated
}

func (f *Frame) SetUpdatedRegion(r region.Region) {
	f.updated = r
}

// TopLeft is the absolute desktop position of the frame's origin.
func (f *Frame) TopLeft() image.Point {
	return f.topLeft
}

func (f *Frame) SetTopLeft(p image.Point) {
	f.topLeft = p
}

// CopyRGBA converts the pixels of r (frame-local) from src into f. The
// frame origin corresponds to src.Rect.Min. r is clipped to both images.
func (f *Frame) CopyRGBA(src *image.RGBA, r image.Rectangle) {
	r = r.Intersect(f.Bounds()).Intersect(src.Rect.Sub(src.Rect.Min))
	if r.Empty() {
		return
	}

	rowBytes := r.Dx() * BytesPerPixel
	for y := r.Min.Y; y < r.Max.Y; y++ {
		si := src.PixOffset(src.Rect.Min.X+r.Min.X, src.Rect.Min.Y+y)
		di := f.PixOffset(r.Min.X, y)
		s := src.Pix[si : si+rowBytes]
		d := f.pix[di : di+rowBytes]
		for i := 0; i < rowBytes; i += BytesPerPixel {
			d[i+0] = s[i+2]
			d[i+1] = s[i+1]
			d[i+2] = s[i+0]
			d[i+3] = s[i+3]
		}
	}
}

// RGBA returns a copy of the frame as an *image.RGBA with bounds at the
// origin.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(f.Bounds())
	rowBytes := f.size.X * BytesPerPixel
	for y := 0; y < f.size.Y; y++ {
		s := f.pix[f.PixOffset(0, y) : f.PixOffset(0, y)+rowBytes]
		d := img.Pix[img.PixOffset(0, y) : img.PixOffset(0, y)+rowBytes]
		for i := 0; i < rowBytes; i += BytesPerPixel {
			d[i+0] = s[i+2]
			d[i+1] = s[i+1]
			d[i+2] = s[i+0]
			d[i+3] = s[i+3]
		}
	}
	return img
}
