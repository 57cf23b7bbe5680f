package capture

import (
	"errors"

	"github.com/bryanchriswhite/xscreen/internal/window"
	"github.com/bryanchriswhite/xscreen/internal/xerr"
)

// ErrReleased is returned when a released frame is converted
var ErrReleased = errors.New("frame already released")

// Frame owns the raw image returned by the server until it is converted or
// released
type Frame struct {
	image *window.Image
}

// Width returns the frame width in pixels
func (f *Frame) Width() int {
	if f.image == nil {
		return 0
	}
	return f.image.Width
}

// Height returns the frame height in pixels
func (f *Frame) Height() int {
	if f.image == nil {
		return 0
	}
	return f.image.Height
}

// Release drops the image buffer. Safe to call more than once.
func (f *Frame) Release() {
	f.image = nil
}

// Raster converts the frame into RGB and releases it
func (f *Frame) Raster() (*Raster, error) {
	img := f.image
	if img == nil {
		return nil, xerr.New(xerr.ImageError, ErrReleased)
	}
	defer f.Release()

	out := NewRaster(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			out.SetRGB(x, y, Colors(img.Pixel(x, y)))
		}
	}
	return out, nil
}

// Colors splits a true-color pixel into red, green and blue
func Colors(pixel uint32) [3]uint8 {
	return [3]uint8{
		uint8((pixel & 0xFF0000) >> 16),
		uint8((pixel & 0x00FF00) >> 8),
		uint8(pixel & 0x0000FF),
	}
}
