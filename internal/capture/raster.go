package capture

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
)

// Raster is a dense row-major RGB image
type Raster struct {
	Width  int
	Height int
	Pix    []uint8 // 3 bytes per pixel
}

var _ image.Image = (*Raster)(nil)

// NewRaster allocates a black raster
func NewRaster(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

func (r *Raster) offset(x, y int) int {
	return (y*r.Width + x) * 3
}

// RGB returns the pixel at (x, y)
func (r *Raster) RGB(x, y int) [3]uint8 {
	i := r.offset(x, y)
	return [3]uint8{r.Pix[i], r.Pix[i+1], r.Pix[i+2]}
}

// SetRGB sets the pixel at (x, y)
func (r *Raster) SetRGB(x, y int, c [3]uint8) {
	i := r.offset(x, y)
	copy(r.Pix[i:i+3], c[:])
}

func (r *Raster) ColorModel() color.Model {
	return color.RGBAModel
}

func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

func (r *Raster) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(r.Bounds()) {
		return color.RGBA{}
	}
	c := r.RGB(x, y)
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xff}
}

// Opaque reports that the raster has no transparency, so encoders store
// RGB without alpha
func (r *Raster) Opaque() bool {
	return true
}

// RGBA copies the raster into an opaque *image.RGBA
func (r *Raster) RGBA() *image.RGBA {
	img := image.NewRGBA(r.Bounds())
	for i, j := 0, 0; i < len(r.Pix); i, j = i+3, j+4 {
		img.Pix[j] = r.Pix[i]
		img.Pix[j+1] = r.Pix[i+1]
		img.Pix[j+2] = r.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// EncodePNG writes the raster as an RGB PNG
func (r *Raster) EncodePNG(w io.Writer) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(w, r.RGBA()); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}
