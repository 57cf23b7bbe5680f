package window

import (
	"encoding/binary"
	"fmt"
)

// Image is a ZPixmap image as returned by the server
type Image struct {
	Width        int
	Height       int
	Depth        byte
	BitsPerPixel byte
	ScanlinePad  byte
	ByteOrder    binary.ByteOrder
	Data         []byte
}

// Stride returns the number of bytes per scanline including padding
func (im *Image) Stride() int {
	pad := int(im.ScanlinePad)
	if pad == 0 {
		pad = int(im.BitsPerPixel)
	}
	bits := im.Width * int(im.BitsPerPixel)
	return ((bits + pad - 1) / pad) * pad / 8
}

// CheckTrueColor verifies the image uses a packed 32-bit true-color layout
// with 8 bits per channel in bits 0-23
func (im *Image) CheckTrueColor() error {
	if im.Depth != 24 && im.Depth != 32 {
		return fmt.Errorf("unsupported depth %d (need 24 or 32)", im.Depth)
	}
	if im.BitsPerPixel != 32 {
		return fmt.Errorf("unsupported pixel size %d bits (need 32)", im.BitsPerPixel)
	}
	if need := im.Stride() * im.Height; len(im.Data) < need {
		return fmt.Errorf("short image data: %d bytes, need %d", len(im.Data), need)
	}
	return nil
}

// Pixel returns the packed pixel value at (x, y). The caller must have
// checked the layout with CheckTrueColor.
func (im *Image) Pixel(x, y int) uint32 {
	i := y*im.Stride() + x*4
	return im.ByteOrder.Uint32(im.Data[i : i+4])
}
